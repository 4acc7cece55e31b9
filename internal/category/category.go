// Package category manages the user-defined labels items can carry.
package category

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"

	"go.klb.dev/clipq/internal/apperr"
	"go.klb.dev/clipq/internal/model"
)

// MaxCategories bounds a Load.
const MaxCategories = 200

// DefaultColor is used when Create is given no color.
const DefaultColor = "#8E8E93"

var colorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Repository persists categories. ListCategories returns them sorted by name.
type Repository interface {
	ListCategories(ctx context.Context, limit int) ([]model.Category, error)
	InsertCategory(ctx context.Context, c model.Category) error
	DeleteCategory(ctx context.Context, id string) error
}

// Store caches the category list. It is owned by a single goroutine.
type Store struct {
	repo       Repository
	categories []model.Category
}

func New(repo Repository) *Store {
	return &Store{repo: repo}
}

// Categories returns the cached list, sorted by name.
func (s *Store) Categories() []model.Category { return slices.Clone(s.categories) }

// Load refreshes the cache. On failure the cache is emptied.
func (s *Store) Load(ctx context.Context) error {
	list, err := s.repo.ListCategories(ctx, MaxCategories)
	if err != nil {
		slog.Warn("category: load failed", "err", err)
		s.categories = nil
		return err
	}
	s.categories = list
	return nil
}

// Create stores a new category. name is trimmed and must not be empty;
// colorHex must look like #RRGGBB.
func (s *Store) Create(ctx context.Context, name, colorHex string) (model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Category{}, apperr.New(apperr.Invalid, "category name is empty")
	}
	if colorHex == "" {
		colorHex = DefaultColor
	}
	if !colorRe.MatchString(colorHex) {
		return model.Category{}, apperr.New(apperr.Invalid, fmt.Sprintf("invalid color %q", colorHex))
	}

	c := model.Category{ID: uuid.NewString(), Name: name, ColorHex: strings.ToUpper(colorHex)}
	if err := s.repo.InsertCategory(ctx, c); err != nil {
		return model.Category{}, err
	}
	_ = s.Load(ctx)
	return c, nil
}

// Delete removes a category. Items keep their now dangling reference.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.categories = slices.DeleteFunc(s.categories, func(c model.Category) bool { return c.ID == id })
	return nil
}

// Lookup finds a cached category by id.
func (s *Store) Lookup(id string) (model.Category, bool) {
	i := slices.IndexFunc(s.categories, func(c model.Category) bool { return c.ID == id })
	if i < 0 {
		return model.Category{}, false
	}
	return s.categories[i], true
}
