package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/user"
)

var _ Store = (*Memory)(nil)

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu sync.RWMutex

	articles   map[int64]model.Article
	categories map[int64]model.Category
	comments   map[int64]model.Comment
	users      map[int64]user.User
	sessions   map[string]Session

	lastID int64
	now    func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		articles:   make(map[int64]model.Article),
		categories: make(map[int64]model.Category),
		comments:   make(map[int64]model.Comment),
		users:      make(map[int64]user.User),
		sessions:   make(map[string]Session),
		now:        time.Now,
	}
}

func (m *Memory) Close() {}

func (m *Memory) nextID() int64 {
	m.lastID++
	return m.lastID
}

// withAuthor fills the denormalized author name. Caller holds mu.
func (m *Memory) withAuthor(a model.Article) model.Article {
	if u, ok := m.users[a.AuthorID]; ok {
		a.AuthorName = u.Name
	}

	return a
}

// sortedArticles returns all articles matching keep, ordered by id. Caller holds mu.
func (m *Memory) sortedArticles(keep func(model.Article) bool) []model.Article {
	out := make([]model.Article, 0, len(m.articles))
	for _, a := range m.articles {
		if keep == nil || keep(a) {
			out = append(out, m.withAuthor(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

func (m *Memory) CountArticles(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.articles), nil
}

func (m *Memory) ListArticles(ctx context.Context, limit, offset int) ([]model.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.sortedArticles(nil)
	if offset >= len(all) {
		return []model.Article{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}

	return all[offset:end], nil
}

func (m *Memory) GetArticle(ctx context.Context, id int64) (*model.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.articles[id]
	if !ok {
		return nil, ErrNotFound
	}
	a = m.withAuthor(a)

	return &a, nil
}

func (m *Memory) CreateArticle(ctx context.Context, a *model.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[a.AuthorID]; !ok {
		return ErrNotFound
	}
	a.ID = m.nextID()
	a.Date = m.now().UTC()
	a.Updated = a.Date
	m.articles[a.ID] = *a
	*a = m.withAuthor(*a)

	return nil
}

func (m *Memory) UpdateArticle(ctx context.Context, a *model.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.articles[a.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Title = a.Title
	stored.Body = a.Body
	stored.Updated = Touch(stored.Updated, m.now().UTC())
	m.articles[a.ID] = stored
	a.Updated = stored.Updated

	return nil
}

func (m *Memory) DeleteArticle(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.articles[id]; !ok {
		return ErrNotFound
	}
	delete(m.articles, id)
	for cid, c := range m.comments {
		if c.ArticleID == id {
			delete(m.comments, cid)
		}
	}

	return nil
}

func (m *Memory) SearchArticles(ctx context.Context, keyword string) ([]model.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(keyword)

	return m.sortedArticles(func(a model.Article) bool {
		return strings.Contains(strings.ToLower(a.Title), needle) ||
			strings.Contains(strings.ToLower(a.Body), needle)
	}), nil
}

func (m *Memory) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.categories[id]
	if !ok {
		return nil, ErrNotFound
	}

	return &c, nil
}

func (m *Memory) CreateCategory(ctx context.Context, c *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c.ID = m.nextID()
	m.categories[c.ID] = model.Category{ID: c.ID, Name: c.Name}

	return nil
}

func (m *Memory) ArticlesByCategory(ctx context.Context, categoryIDs []int64) (map[int64][]model.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[int64]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		wanted[id] = true
	}

	out := make(map[int64][]model.Article, len(categoryIDs))
	for _, a := range m.sortedArticles(func(a model.Article) bool {
		return a.CategoryID != nil && wanted[*a.CategoryID]
	}) {
		out[*a.CategoryID] = append(out[*a.CategoryID], a)
	}

	return out, nil
}

func (m *Memory) CreateComment(ctx context.Context, c *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.articles[c.ArticleID]
	if !ok {
		return ErrNotFound
	}
	u, ok := m.users[c.AuthorID]
	if !ok {
		return ErrNotFound
	}
	c.ID = m.nextID()
	c.Created = m.now().UTC()
	c.AuthorName = u.Name
	m.comments[c.ID] = *c

	a.Updated = Touch(a.Updated, c.Created)
	m.articles[a.ID] = a

	return nil
}

func (m *Memory) ListComments(ctx context.Context, articleID int64) ([]model.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []model.Comment{}
	for _, c := range m.comments {
		if c.ArticleID == articleID {
			if u, ok := m.users[c.AuthorID]; ok {
				c.AuthorName = u.Name
			}
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (m *Memory) GetUser(ctx context.Context, id int64) (*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}

	return &u, nil
}

func (m *Memory) GetUserByName(ctx context.Context, name string) (*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Name == name {
			u := u
			return &u, nil
		}
	}

	return nil, ErrNotFound
}

func (m *Memory) CreateUser(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Name == u.Name {
			return ErrConflict
		}
	}
	u.ID = m.nextID()
	m.users[u.ID] = *u

	return nil
}

func (m *Memory) CreateSession(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID]; ok {
		return ErrConflict
	}
	m.sessions[s.ID] = s

	return nil
}

func (m *Memory) GetSession(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	return &s, nil
}

func (m *Memory) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)

	return nil
}
