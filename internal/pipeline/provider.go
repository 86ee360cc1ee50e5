package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/a11yscan/internal/model"
)

// Provider yields the documents of a batch.
type Provider interface {
	Pages(ctx context.Context) ([]*model.Page, error)
}

// FolderProvider reads the *.html files directly inside Dir, sorted by
// name. Subdirectories are not visited. Files that cannot be read are
// skipped with a warning.
type FolderProvider struct {
	Dir    string
	Logger *slog.Logger
}

// Pages implements Provider.
func (f FolderProvider) Pages(ctx context.Context) ([]*model.Page, error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(f.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading folder %s: %w", f.Dir, err)
	}

	pages := make([]*model.Page, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".html") {
			continue
		}
		path := filepath.Join(f.Dir, e.Name())
		data, err := os.ReadFile(path) //nolint:gosec // path comes from the scanned folder
		if err != nil {
			logger.Warn("skipping unreadable document", "path", path, "error", err)
			continue
		}
		pages = append(pages, model.NewPage(path, string(data)))
	}
	return pages, nil
}

// FileProvider reads explicit files in the given order. Unlike
// FolderProvider, an unreadable file is an error.
type FileProvider struct {
	Paths []string
}

// Pages implements Provider.
func (f FileProvider) Pages(ctx context.Context) ([]*model.Page, error) {
	pages := make([]*model.Page, 0, len(f.Paths))
	for _, path := range f.Paths {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		data, err := os.ReadFile(path) //nolint:gosec // explicit user input
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		pages = append(pages, model.NewPage(path, string(data)))
	}
	return pages, nil
}

// StaticProvider serves in-memory pages.
type StaticProvider []*model.Page

// Pages implements Provider.
func (s StaticProvider) Pages(context.Context) ([]*model.Page, error) {
	return s, nil
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) ([]*model.Page, error)

// Pages implements Provider.
func (f ProviderFunc) Pages(ctx context.Context) ([]*model.Page, error) {
	return f(ctx)
}
