package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/user"
)

//go:embed schema.sql
var schema string

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

const articleColumns = `SELECT a.id, a.title, a.body, a.author_id, u.username, a.category_id, a.date, a.updated
FROM articles a
JOIN users u ON u.id = a.author_id`

var _ Store = (*Postgres)(nil)

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Connect opens a pool for url and verifies the connection.
func Connect(ctx context.Context, url string, maxConns int32) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection URL: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	return nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrNotFound, pgErr.ConstraintName)
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		}
	}

	return err
}

func scanArticle(row pgx.CollectableRow) (model.Article, error) {
	var a model.Article
	err := row.Scan(&a.ID, &a.Title, &a.Body, &a.AuthorID, &a.AuthorName, &a.CategoryID, &a.Date, &a.Updated)

	return a, err
}

func (p *Postgres) selectArticles(ctx context.Context, window *Window, conditions ...Condition) ([]model.Article, error) {
	where, args, err := NewWhereBuilder(conditions...).Build()
	if err != nil {
		return nil, err
	}

	var sql strings.Builder
	sql.WriteString(articleColumns)
	if where != "" {
		sql.WriteString("\n")
		sql.WriteString(where)
	}
	sql.WriteString("\nORDER BY a.id")
	if window != nil {
		limit, windowArgs := window.Build(len(args) + 1)
		sql.WriteString(limit)
		args = append(args, windowArgs...)
	}

	rows, err := p.pool.Query(ctx, sql.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}

	articles, err := pgx.CollectRows(rows, scanArticle)
	if err != nil {
		return nil, fmt.Errorf("scan articles: %w", err)
	}

	return articles, nil
}

func (p *Postgres) CountArticles(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}

	return n, nil
}

func (p *Postgres) ListArticles(ctx context.Context, limit, offset int) ([]model.Article, error) {
	return p.selectArticles(ctx, &Window{Limit: limit, Offset: offset})
}

func (p *Postgres) GetArticle(ctx context.Context, id int64) (*model.Article, error) {
	articles, err := p.selectArticles(ctx, nil, Eq("a.id", id))
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, ErrNotFound
	}

	return &articles[0], nil
}

func (p *Postgres) CreateArticle(ctx context.Context, a *model.Article) error {
	err := p.pool.QueryRow(ctx, `
WITH ins AS (
    INSERT INTO articles (title, body, author_id, category_id)
    VALUES ($1, $2, $3, $4)
    RETURNING id, date, updated, author_id
)
SELECT ins.id, ins.date, ins.updated, u.username FROM ins JOIN users u ON u.id = ins.author_id`,
		a.Title, a.Body, a.AuthorID, a.CategoryID,
	).Scan(&a.ID, &a.Date, &a.Updated, &a.AuthorName)
	if err != nil {
		return fmt.Errorf("insert article: %w", translate(err))
	}

	return nil
}

func (p *Postgres) UpdateArticle(ctx context.Context, a *model.Article) error {
	err := p.pool.QueryRow(ctx, `
UPDATE articles
SET title = $1, body = $2,
    updated = GREATEST(now(), date_trunc('second', updated) + interval '1 second')
WHERE id = $3
RETURNING updated`,
		a.Title, a.Body, a.ID,
	).Scan(&a.Updated)
	if err != nil {
		return fmt.Errorf("update article %d: %w", a.ID, translate(err))
	}

	return nil
}

func (p *Postgres) DeleteArticle(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete article %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (p *Postgres) SearchArticles(ctx context.Context, keyword string) ([]model.Article, error) {
	return p.selectArticles(ctx, nil, keywordFilter(keyword))
}

func (p *Postgres) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	var c model.Category
	err := p.pool.QueryRow(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, translate(err)
	}

	return &c, nil
}

func (p *Postgres) CreateCategory(ctx context.Context, c *model.Category) error {
	err := p.pool.QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, c.Name).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}

	return nil
}

// ArticlesByCategory issues one query for all ids, however many articles
// they own.
func (p *Postgres) ArticlesByCategory(ctx context.Context, categoryIDs []int64) (map[int64][]model.Article, error) {
	out := make(map[int64][]model.Article, len(categoryIDs))
	if len(categoryIDs) == 0 {
		return out, nil
	}

	articles, err := p.selectArticles(ctx, nil, Any("a.category_id", categoryIDs))
	if err != nil {
		return nil, err
	}
	for _, a := range articles {
		out[*a.CategoryID] = append(out[*a.CategoryID], a)
	}

	return out, nil
}

func (p *Postgres) CreateComment(ctx context.Context, c *model.Comment) error {
	err := p.pool.QueryRow(ctx, `
WITH ins AS (
    INSERT INTO comments (body, author_id, article_id)
    VALUES ($1, $2, $3)
    RETURNING id, created, author_id, article_id
), touched AS (
    UPDATE articles
    SET updated = GREATEST(ins.created, date_trunc('second', articles.updated) + interval '1 second')
    FROM ins WHERE articles.id = ins.article_id
)
SELECT ins.id, ins.created, u.username FROM ins JOIN users u ON u.id = ins.author_id`,
		c.Body, c.AuthorID, c.ArticleID,
	).Scan(&c.ID, &c.Created, &c.AuthorName)
	if err != nil {
		return fmt.Errorf("insert comment: %w", translate(err))
	}

	return nil
}

func (p *Postgres) ListComments(ctx context.Context, articleID int64) ([]model.Comment, error) {
	rows, err := p.pool.Query(ctx, `
SELECT c.id, c.body, c.author_id, u.username, c.article_id, c.created
FROM comments c
JOIN users u ON u.id = c.author_id
WHERE c.article_id = $1
ORDER BY c.created, c.id`, articleID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}

	comments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Comment, error) {
		var c model.Comment
		err := row.Scan(&c.ID, &c.Body, &c.AuthorID, &c.AuthorName, &c.ArticleID, &c.Created)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan comments: %w", err)
	}

	return comments, nil
}

func (p *Postgres) scanUser(row pgx.Row) (*user.User, error) {
	var (
		u     user.User
		perms []string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.PasswordHash, &perms); err != nil {
		return nil, translate(err)
	}
	u.Permissions = user.ParsePermissions(perms)

	return &u, nil
}

func (p *Postgres) GetUser(ctx context.Context, id int64) (*user.User, error) {
	return p.scanUser(p.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, permissions FROM users WHERE id = $1`, id))
}

func (p *Postgres) GetUserByName(ctx context.Context, name string) (*user.User, error) {
	return p.scanUser(p.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, permissions FROM users WHERE username = $1`, name))
}

func (p *Postgres) CreateUser(ctx context.Context, u *user.User) error {
	perms := make([]string, len(u.Permissions))
	for i, perm := range u.Permissions {
		perms[i] = string(perm)
	}

	err := p.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, permissions) VALUES ($1, $2, $3) RETURNING id`,
		u.Name, u.PasswordHash, perms,
	).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("insert user %q: %w", u.Name, translate(err))
	}

	return nil
}

func (p *Postgres) CreateSession(ctx context.Context, s Session) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, expires) VALUES ($1, $2, $3)`, s.ID, s.UserID, s.Expires)
	if err != nil {
		return fmt.Errorf("insert session: %w", translate(err))
	}

	return nil
}

func (p *Postgres) GetSession(ctx context.Context, id string) (*Session, error) {
	var s Session
	err := p.pool.QueryRow(ctx, `SELECT id, user_id, expires FROM sessions WHERE id = $1`, id).
		Scan(&s.ID, &s.UserID, &s.Expires)
	if err != nil {
		return nil, translate(err)
	}

	return &s, nil
}

func (p *Postgres) DeleteSession(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}
