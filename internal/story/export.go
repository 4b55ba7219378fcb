package story

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRuns   = regexp.MustCompile(`-+`)
)

// Slug converts a title to a filename-friendly slug.
// Example: "Summers in Lisbon" -> "summers-in-lisbon"
func Slug(title string) string {
	// Fold accents so "Café" becomes "cafe" rather than "caf".
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		title,
	)
	if err != nil {
		folded = title
	}

	slug := strings.ToLower(folded)
	slug = strings.Join(strings.Fields(slug), "-")
	slug = nonSlugChars.ReplaceAllString(slug, "")
	slug = hyphenRuns.ReplaceAllString(slug, "-")

	return strings.Trim(slug, "-")
}

// Filename returns the export filename for a draft title.
func Filename(title string) string {
	slug := Slug(title)
	if slug == "" {
		slug = "story"
	}

	return slug + ".txt"
}

// Export writes the draft text to dir and returns the written path.
func Export(d Draft, dir string) (string, error) {
	return writeExport(dir, d.Title, d.Text())
}

// ExportSaved writes a saved story's content to dir and returns the written path.
func ExportSaved(s *Story, dir string) (string, error) {
	return writeExport(dir, s.Title, s.Content)
}

// maxExportSuffix bounds the search for a free export filename.
const maxExportSuffix = 999

// writeExport creates a new file in dir named after title. An existing export
// with the same name is never overwritten; a numeric suffix is added instead.
func writeExport(dir, title, text string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	base := strings.TrimSuffix(Filename(title), ".txt")

	for n := 1; n <= maxExportSuffix; n++ {
		name := base + ".txt"
		if n > 1 {
			name = fmt.Sprintf("%s-%d.txt", base, n)
		}
		path := filepath.Join(dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create story export: %w", err)
		}

		_, writeErr := f.WriteString(text)
		if err := errors.Join(writeErr, f.Close()); err != nil {
			return "", fmt.Errorf("failed to write story export: %w", err)
		}

		return path, nil
	}

	return "", fmt.Errorf("failed to write story export: too many exports named %s", base)
}
