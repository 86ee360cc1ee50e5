// Package imagetext recovers the text embedded in local image files.
//
// The default Extractor does not run OCR. It reads the textual EXIF tags
// that image editors and OCR pipelines write (ImageDescription, XPTitle,
// XPComment, UserComment, XPSubject) and, when present, a transcript stored
// next to the image as "<name>.txt". Plug a real OCR engine into the
// checker options for pixel-level extraction.
package imagetext

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// MaxImageSize bounds how much of an image file is read.
const MaxImageSize = 20 * 1024 * 1024

// textTags are the EXIF tags that carry human-readable text, in the order
// their values are joined.
var textTags = []string{
	"ImageDescription",
	"XPTitle",
	"XPSubject",
	"XPComment",
	"UserComment",
}

// ErrTooLarge is returned for images over MaxImageSize.
var ErrTooLarge = errors.New("image too large")

// Extractor reads embedded text from image files.
type Extractor struct {
	sidecar bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSidecar toggles reading "<image>.txt" transcripts. Enabled by default.
func WithSidecar(enabled bool) Option {
	return func(e *Extractor) {
		e.sidecar = enabled
	}
}

// New returns an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{sidecar: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the text found in the image at path, trimmed. An image
// without embedded text yields "" and no error.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	parts := make([]string, 0, 2)

	if e.sidecar {
		if data, err := os.ReadFile(path + ".txt"); err == nil {
			if text := strings.TrimSpace(string(data)); text != "" {
				parts = append(parts, text)
			}
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat image: %w", err)
	}
	if info.Size() > MaxImageSize {
		return "", fmt.Errorf("%s: %w", path, ErrTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	tags, err := exifText(data)
	if err != nil {
		return "", err
	}
	parts = append(parts, tags...)

	return strings.Join(parts, " "), nil
}

// exifText returns the values of textTags present in data.
func exifText(data []byte) ([]string, error) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to locate EXIF data: %w", err)
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse EXIF data: %w", err)
	}

	values := make(map[string]string, len(textTags))
	for _, entry := range entries {
		value := strings.TrimSpace(strings.Trim(entry.Formatted, "[]\x00"))
		if value == "" {
			continue
		}
		if _, seen := values[entry.TagName]; !seen {
			values[entry.TagName] = value
		}
	}

	result := make([]string, 0, len(values))
	seen := make(map[string]bool)
	for _, tag := range textTags {
		v, ok := values[tag]
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	return result, nil
}
