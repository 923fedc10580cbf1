package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/readify/storefront/internal/catalog"
	"github.com/readify/storefront/internal/domain"
)

const (
	relatedBooksLimit = 4
	allCategories     = "All"
)

type CatalogHandler struct {
	catalog catalog.Catalog
	timeout time.Duration
}

func NewCatalogHandler(c catalog.Catalog, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{
		catalog: c,
		timeout: timeout,
	}
}

type BooksResponse struct {
	Books []domain.Book `json:"books"`
	Count int           `json:"count"`
}

type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// GET /api/v1/books?category=&search=
func (h *CatalogHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	filter := catalog.Filter{
		Category: r.URL.Query().Get("category"),
		Query:    r.URL.Query().Get("search"),
	}
	if filter.Category == allCategories {
		filter.Category = ""
	}

	books, err := h.catalog.ListBooks(ctx, filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newBooksResponse(books))
}

// GET /api/v1/books/{id}
func (h *CatalogHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := bookIDParam(w, r, "id")
	if !ok {
		return
	}

	book, err := h.catalog.FindBookByID(ctx, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, book)
}

// GET /api/v1/books/{id}/related
func (h *CatalogHandler) RelatedBooks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := bookIDParam(w, r, "id")
	if !ok {
		return
	}

	book, err := h.catalog.FindBookByID(ctx, id)
	if err != nil {
		handleError(w, r, err)
		return
	}

	related, err := h.catalog.ListBooksByCategory(ctx, book.Category, book.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if len(related) > relatedBooksLimit {
		related = related[:relatedBooksLimit]
	}
	respondJSON(w, http.StatusOK, newBooksResponse(related))
}

// GET /api/v1/categories
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, CategoriesResponse{Categories: categories})
}

func newBooksResponse(books []domain.Book) BooksResponse {
	if books == nil {
		books = []domain.Book{}
	}
	return BooksResponse{Books: books, Count: len(books)}
}

func bookIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_book_id", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
