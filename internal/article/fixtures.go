package article

import (
	"context"
	"fmt"

	"github.com/SergeyParamoshkin/blog/internal/auth"
	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/store"
	"github.com/SergeyParamoshkin/blog/internal/user"
)

// Demo authors; both may write, edit and delete their own articles.
var fixtureUsers = []string{"Peter", "Julia"}

var fixtureCategories = []string{"greetings", "questions"}

// Article fixture data, author and category given by index.
var fixtureArticles = []struct {
	title, body string
	author      int
	category    int
}{
	{title: "Hi", body: "Hello from the first article.", author: 0, category: 0},
	{title: "sup", body: "What is going on?", author: 1, category: 1},
	{title: "alo", body: "Anyone there?", author: 0, category: 1},
	{title: "bonjour", body: "Bonjour tout le monde.", author: 1, category: 0},
	{title: "whats up", body: "Just checking in.", author: 0, category: 1},
}

// Seed fills st with demo users, categories and articles. Every demo user
// gets password.
func Seed(ctx context.Context, st store.Store, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	users := make([]*user.User, 0, len(fixtureUsers))
	for _, name := range fixtureUsers {
		u := &user.User{
			Name:         name,
			PasswordHash: hash,
			Permissions:  []user.Permission{user.AddArticle, user.ChangeArticle, user.DeleteArticle},
		}
		if err := st.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", name, err)
		}
		users = append(users, u)
	}

	categories := make([]*model.Category, 0, len(fixtureCategories))
	for _, name := range fixtureCategories {
		c := &model.Category{Name: name}
		if err := st.CreateCategory(ctx, c); err != nil {
			return fmt.Errorf("seed category %s: %w", name, err)
		}
		categories = append(categories, c)
	}

	for _, f := range fixtureArticles {
		catID := categories[f.category].ID
		a := &model.Article{
			Title:      f.title,
			Body:       f.body,
			AuthorID:   users[f.author].ID,
			CategoryID: &catID,
		}
		if err := st.CreateArticle(ctx, a); err != nil {
			return fmt.Errorf("seed article %q: %w", f.title, err)
		}
	}

	return nil
}
