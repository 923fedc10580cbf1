package catalog

import (
	"context"
	"errors"

	"github.com/readify/storefront/internal/domain"
)

var ErrBookNotFound = errors.New("book not found")

// Filter narrows ListBooks. Empty fields match everything; Query matches
// title or author case-insensitively.
type Filter struct {
	Category string
	Query    string
}

// Catalog is the read-only book source.
type Catalog interface {
	FindBookByID(ctx context.Context, id int64) (domain.Book, error)
	ListBooksByCategory(ctx context.Context, category string, excludeID int64) ([]domain.Book, error)
	ListBooks(ctx context.Context, f Filter) ([]domain.Book, error)
	Categories(ctx context.Context) ([]string, error)
}
