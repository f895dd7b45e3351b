// Package journal owns the on-disk journal layout: one markdown file per
// day, grouped into monthly directories, entries appended in commit order.
package journal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/commitstory-dev/commitstory/internal/generator"
	"github.com/commitstory-dev/commitstory/internal/git"
)

var dateFileRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\.md$`)

// EntryFile describes one journal day file.
type EntryFile struct {
	Date string `json:"date"` // YYYY-MM-DD
	Path string `json:"path"`
}

type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a writer rooted at dir (typically <repo>/journal).
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// Append writes one entry to the day file for the commit's timestamp,
// creating directories as needed. Returns the file path.
func (w *Writer) Append(commit *git.Commit, entry *generator.Entry) (string, error) {
	day := commit.Timestamp.Local()
	path := w.entryPath(day)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create journal dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open journal file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(Format(commit, entry)); err != nil {
		return "", fmt.Errorf("write entry: %w", err)
	}

	w.logger.Info("journal entry written",
		"path", path,
		"commit", commit.ShortHash,
	)
	return path, nil
}

// Format renders one entry as markdown.
func Format(commit *git.Commit, entry *generator.Entry) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## %s — %s: %s\n\n",
		commit.Timestamp.Local().Format("3:04 PM"),
		commit.ShortHash,
		commit.Subject,
	)

	writeSection(&sb, "Summary", entry.Summary)
	writeSection(&sb, "Development Dialogue", entry.Dialogue)
	writeSection(&sb, "Technical Decisions", entry.TechnicalDecisions)

	sb.WriteString("---\n\n")
	return sb.String()
}

func writeSection(sb *strings.Builder, title, body string) {
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	fmt.Fprintf(sb, "### %s\n\n%s\n\n", title, body)
}

func (w *Writer) entryPath(day time.Time) string {
	return filepath.Join(w.dir, "entries", day.Format("2006-01"), day.Format("2006-01-02")+".md")
}

// List returns every day file in the journal, newest date first.
func (w *Writer) List() ([]EntryFile, error) {
	entriesDir := filepath.Join(w.dir, "entries")
	months, err := os.ReadDir(entriesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read journal dir: %w", err)
	}

	var files []EntryFile
	for _, month := range months {
		if !month.IsDir() {
			continue
		}
		days, err := os.ReadDir(filepath.Join(entriesDir, month.Name()))
		if err != nil {
			continue
		}
		for _, day := range days {
			m := dateFileRe.FindStringSubmatch(day.Name())
			if m == nil {
				continue
			}
			files = append(files, EntryFile{
				Date: m[1],
				Path: filepath.Join(entriesDir, month.Name(), day.Name()),
			})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Date > files[j].Date })
	return files, nil
}

// Read returns the raw markdown for one date (YYYY-MM-DD), or os.ErrNotExist.
func (w *Writer) Read(date string) ([]byte, error) {
	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("bad date %q: %w", date, err)
	}
	return os.ReadFile(w.entryPath(day))
}
