// Package archive bundles extracted media items into a single zip for
// batched delivery.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"

	"igdownloader/pkg/instagram"
	"igdownloader/pkg/logger"
)

// Fetcher downloads the raw bytes of a media URL. Satisfied by
// instagram.Client.
type Fetcher interface {
	FetchMedia(ctx context.Context, mediaURL string) ([]byte, error)
}

// Builder assembles zip archives from media lists
type Builder struct {
	fetcher Fetcher
	logger  logger.Logger
}

// NewBuilder creates a Builder fetching bytes through the given Fetcher
func NewBuilder(fetcher Fetcher, log logger.Logger) *Builder {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Builder{fetcher: fetcher, logger: log}
}

// Build fetches each item sequentially and writes the survivors into a zip.
// A failed item is logged and skipped, not fatal to the batch; a batch where
// every item fails yields an archive with zero entries. When groupLabel is
// set it overrides the per-item filenames.
func (b *Builder) Build(ctx context.Context, items []instagram.Media, groupLabel string) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for i, item := range items {
		data, err := b.fetcher.FetchMedia(ctx, item.URL)
		if err != nil {
			b.logger.WarnWithFields("skipping failed archive item", map[string]interface{}{
				"url":   item.URL,
				"error": err.Error(),
			})
			continue
		}

		name := item.Filename
		if groupLabel != "" {
			ext := "jpg"
			if item.Kind == instagram.MediaKindVideo {
				ext = "mp4"
			}
			name = fmt.Sprintf("%s_%d.%s", groupLabel, i+1, ext)
		}

		entry, err := w.Create(name)
		if err != nil {
			return nil, fmt.Errorf("failed to create archive entry: %w", err)
		}
		if _, err := entry.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write archive entry: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	b.logger.InfoWithFields("built media archive", map[string]interface{}{
		"requested": len(items),
		"size":      buf.Len(),
	})

	return buf.Bytes(), nil
}
