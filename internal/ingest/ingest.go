// Package ingest turns files and uploads into plain text for indexing.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrUnsupportedType is returned for files whose extension is not a known text format.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrNoFiles is returned when no path yields a readable file.
	ErrNoFiles = errors.New("no files found")
)

var textExtensions = map[string]struct{}{
	".txt":      {},
	".md":       {},
	".markdown": {},
	".json":     {},
	".csv":      {},
	".tsv":      {},
	".yml":      {},
	".yaml":     {},
	".html":     {},
	".xml":      {},
}

// File is the extracted text of one source file.
type File struct {
	Path string
	Text string
}

// Supported reports whether filename has an extension ExtractText accepts.
func Supported(filename string) bool {
	_, ok := textExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Extensions returns the accepted extensions in sorted order.
func Extensions() []string {
	out := make([]string, 0, len(textExtensions))
	for ext := range textExtensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// ExtractText decodes data as UTF-8, dropping invalid byte sequences.
// PDFs are not extracted here; OCR belongs to an external collaborator.
func ExtractText(filename string, data []byte) (string, error) {
	if !Supported(filename) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, filename)
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

// LoadFiles expands glob patterns and extracts every supported file, in path order.
// Directories and unsupported files are skipped; a plain path without matches is read as is
// so a missing file is reported.
func LoadFiles(patterns []string) ([]File, error) {
	var files []File
	seen := make(map[string]struct{})
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", pattern, err)
		}
		if matches == nil && !strings.ContainsAny(pattern, "*?[") {
			matches = []string{pattern}
		}
		for _, path := range matches {
			if _, dup := seen[path]; dup {
				continue
			}
			seen[path] = struct{}{}
			if !Supported(path) {
				continue
			}
			info, err := os.Stat(path)
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", path, err)
			}
			if info.IsDir() {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			text, err := ExtractText(path, data)
			if err != nil {
				return nil, err
			}
			files = append(files, File{Path: path, Text: text})
		}
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	return files, nil
}

// Clean trims texts and drops the blank ones.
func Clean(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
