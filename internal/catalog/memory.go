package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/readify/storefront/internal/domain"
)

//go:embed seed/books.json
var seedBooks []byte

// Memory serves books from a slice loaded once at startup.
type Memory struct {
	books []domain.Book
	byID  map[int64]int
}

func NewMemory(books []domain.Book) *Memory {
	m := &Memory{
		books: make([]domain.Book, len(books)),
		byID:  make(map[int64]int, len(books)),
	}
	copy(m.books, books)
	for i, b := range m.books {
		m.byID[b.ID] = i
	}
	return m
}

// LoadJSON decodes a JSON array of books.
func LoadJSON(r io.Reader) ([]domain.Book, error) {
	var books []domain.Book
	if err := json.NewDecoder(r).Decode(&books); err != nil {
		return nil, fmt.Errorf("failed to decode books: %w", err)
	}
	return books, nil
}

// SeedBooks returns the bundled catalog.
func SeedBooks() ([]domain.Book, error) {
	return LoadJSON(bytes.NewReader(seedBooks))
}

func (m *Memory) FindBookByID(_ context.Context, id int64) (domain.Book, error) {
	i, ok := m.byID[id]
	if !ok {
		return domain.Book{}, fmt.Errorf("book %d: %w", id, ErrBookNotFound)
	}
	return m.books[i], nil
}

func (m *Memory) ListBooksByCategory(_ context.Context, category string, excludeID int64) ([]domain.Book, error) {
	var out []domain.Book
	for _, b := range m.books {
		if b.Category == category && b.ID != excludeID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *Memory) ListBooks(_ context.Context, f Filter) ([]domain.Book, error) {
	var out []domain.Book
	for _, b := range m.books {
		if matches(b, f) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *Memory) Categories(_ context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, b := range m.books {
		if _, ok := seen[b.Category]; ok {
			continue
		}
		seen[b.Category] = struct{}{}
		out = append(out, b.Category)
	}
	return out, nil
}

func matches(b domain.Book, f Filter) bool {
	if f.Category != "" && b.Category != f.Category {
		return false
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	return strings.Contains(strings.ToLower(b.Title), q) ||
		strings.Contains(strings.ToLower(b.Author), q)
}
