package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"

	"github.com/readify/storefront/internal/domain"
)

const bookColumns = `id, title, author, price, image, category, rating, pages, description`

// SQLiteCatalog serves books from a SQLite database populated by migrations.
type SQLiteCatalog struct {
	db *sql.DB
}

func NewSQLiteCatalog(dbPath string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	return &SQLiteCatalog{db: db}, nil
}

func (c *SQLiteCatalog) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(c.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

func (c *SQLiteCatalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *SQLiteCatalog) FindBookByID(ctx context.Context, id int64) (domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = ?`

	row := c.db.QueryRowContext(ctx, query, id)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Book{}, fmt.Errorf("book %d: %w", id, ErrBookNotFound)
	}
	if err != nil {
		return domain.Book{}, fmt.Errorf("failed to query book: %w", err)
	}
	return b, nil
}

func (c *SQLiteCatalog) ListBooksByCategory(ctx context.Context, category string, excludeID int64) ([]domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE category = ? AND id <> ? ORDER BY id`
	return c.queryBooks(ctx, query, category, excludeID)
}

func (c *SQLiteCatalog) ListBooks(ctx context.Context, f Filter) ([]domain.Book, error) {
	query := `
		SELECT ` + bookColumns + `
		FROM books
		WHERE (? = '' OR category = ?)
		  AND (? = '' OR instr(lower(title), lower(?)) > 0 OR instr(lower(author), lower(?)) > 0)
		ORDER BY id
	`
	return c.queryBooks(ctx, query, f.Category, f.Category, f.Query, f.Query, f.Query)
}

func (c *SQLiteCatalog) Categories(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT category FROM books GROUP BY category ORDER BY MIN(id)`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func (c *SQLiteCatalog) queryBooks(ctx context.Context, query string, args ...any) ([]domain.Book, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return books, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(s scanner) (domain.Book, error) {
	var b domain.Book
	err := s.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.Price,
		&b.Image,
		&b.Category,
		&b.Rating,
		&b.Pages,
		&b.Description,
	)
	return b, err
}
