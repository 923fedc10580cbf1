package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/readify/storefront/internal/catalog"
	"github.com/readify/storefront/internal/config"
	"github.com/readify/storefront/internal/domain"
)

type booksOptions struct {
	category string
	search   string
}

// NewBooksCommand lists the catalog the server would serve.
func NewBooksCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &booksOptions{}

	cmd := &cobra.Command{
		Use:   "books",
		Short: "List catalog books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBooks(cmd.Context(), rootOpts, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.category, "category", "", "only books of this category")
	cmd.Flags().StringVar(&opts.search, "search", "", "case-insensitive title or author match")

	return cmd
}

func runBooks(ctx context.Context, rootOpts *RootOptions, opts *booksOptions, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cat, closeCatalog, err := openCatalog(rootOpts.cfg.Catalog)
	if err != nil {
		return err
	}
	defer closeCatalog()

	books, err := cat.ListBooks(ctx, catalog.Filter{Category: opts.category, Query: opts.search})
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}

	if rootOpts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(books)
	}
	return writeBookTable(w, books)
}

func writeBookTable(w io.Writer, books []domain.Book) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tCATEGORY\tPRICE")
	for _, b := range books {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t₹%.2f\n", b.ID, b.Title, b.Author, b.Category, b.Price)
	}
	return tw.Flush()
}

// openCatalog returns the configured catalog and its release function.
func openCatalog(cfg config.CatalogConfig) (catalog.Catalog, func(), error) {
	switch cfg.Backend {
	case "sqlite":
		c, err := catalog.NewSQLiteCatalog(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		if err := c.RunMigrations(cfg.MigrationsPath); err != nil {
			c.Close()
			return nil, nil, err
		}
		return c, func() { c.Close() }, nil
	default:
		books, err := catalog.SeedBooks()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load seed catalog: %w", err)
		}
		return catalog.NewMemory(books), func() {}, nil
	}
}
