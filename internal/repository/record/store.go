// Package record saves search run records as markdown files and renders them back as HTML.
package record

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/kailas-cloud/serprank/internal/domain"
	"github.com/kailas-cloud/serprank/internal/domain/search/result"
)

const (
	extension  = ".md"
	dateLayout = "2006-01-02"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// FileName derives the record file name from the phrase and the calendar date:
// every character outside [A-Za-z0-9_-] becomes '_', then "_<YYYY-MM-DD>.md" is appended.
func FileName(phrase string, date time.Time) string {
	return unsafeChars.ReplaceAllString(phrase, "_") + "_" + date.Format(dateLayout) + extension
}

// Store writes records into a single directory.
type Store struct {
	dir    string
	now    func() time.Time
	format func(io.Writer, *result.Outcome) error
}

// New creates a store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir, now: time.Now, format: Format}
}

// WithClock sets the clock used to date records.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// Write implements search.RecordWriter. An existing record with the same name is overwritten.
func (s *Store) Write(_ context.Context, out *result.Outcome) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(s.dir, FileName(out.Query().Phrase(), s.now()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create record file: %w", err)
	}

	if err := s.writeRecord(f, out); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close record file: %w", err)
	}
	return path, nil
}

func (s *Store) writeRecord(w io.Writer, out *result.Outcome) error {
	bw := bufio.NewWriter(w)
	if err := s.format(bw, out); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush record: %w", err)
	}
	return nil
}

// Format writes the markdown record of out to w.
func Format(w io.Writer, out *result.Outcome) error {
	q := out.Query()
	if _, err := fmt.Fprintf(w, "# Results for '%s'\n\n", q.Phrase()); err != nil {
		return fmt.Errorf("write heading: %w", err)
	}

	if q.TracksWebsite() {
		var err error
		if rank, ok := out.MatchedRank(); ok {
			_, err = fmt.Fprintf(w, "Website '%s' found at position %d.\n\n", q.Website(), rank)
		} else {
			_, err = fmt.Fprintf(w, "Website '%s' not found in the available search results.\n\n", q.Website())
		}
		if err != nil {
			return fmt.Errorf("write match summary: %w", err)
		}
	}

	for _, l := range out.Links() {
		if _, err := fmt.Fprintf(w, "%d. %s\n", l.Rank(), l.URL()); err != nil {
			return fmt.Errorf("write link %d: %w", l.Rank(), err)
		}
	}
	return nil
}

// Render reads a saved record by file name and converts it to HTML.
// Names with path components or without the .md extension are rejected as not found.
func (s *Store) Render(_ context.Context, name string) ([]byte, error) {
	if !isRecordName(name) {
		return nil, fmt.Errorf("%w: %q", domain.ErrRecordNotFound, name)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", domain.ErrRecordNotFound, name)
		}
		return nil, fmt.Errorf("read record: %w", err)
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank | html.SkipHTML,
	})
	return markdown.ToHTML(data, p, renderer), nil
}

// Writable checks that the output directory exists (or can be created) and is a directory.
func (s *Store) Writable(_ context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("stat output dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output path %s is not a directory", s.dir)
	}
	return nil
}

func isRecordName(name string) bool {
	return name != "" &&
		strings.HasSuffix(name, extension) &&
		filepath.Base(name) == name &&
		!strings.ContainsAny(name, `/\`) &&
		!strings.HasPrefix(name, ".")
}
