package journal

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/commitstory-dev/commitstory/internal/generator"
	"github.com/commitstory-dev/commitstory/internal/git"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCommit(ts time.Time) *git.Commit {
	return &git.Commit{
		Hash:      "abcdef0123456789",
		ShortHash: "abcdef0",
		Subject:   "tighten retry backoff",
		Timestamp: ts,
	}
}

func testEntry() *generator.Entry {
	return &generator.Entry{
		Summary:            "I tightened the backoff cap.",
		Dialogue:           "Human: cap it at 30s",
		TechnicalDecisions: "- 30s cap to match LB timeout",
	}
}

func TestAppend_LayoutAndContent(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2026, 3, 10, 14, 30, 0, 0, time.Local)

	path, err := NewWriter(dir, discardLogger()).Append(testCommit(ts), testEntry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := filepath.Join(dir, "entries", "2026-03", "2026-03-10.md")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	content := string(data)

	for _, wantStr := range []string{
		"abcdef0: tighten retry backoff",
		"### Summary",
		"I tightened the backoff cap.",
		"### Development Dialogue",
		"### Technical Decisions",
		"---",
	} {
		if !strings.Contains(content, wantStr) {
			t.Errorf("entry missing %q:\n%s", wantStr, content)
		}
	}
}

func TestAppend_SameDayAppends(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, discardLogger())
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)

	if _, err := w.Append(testCommit(ts), testEntry()); err != nil {
		t.Fatalf("first append: %v", err)
	}
	second := testCommit(ts.Add(2 * time.Hour))
	second.ShortHash = "fffff00"
	if _, err := w.Append(second, testEntry()); err != nil {
		t.Fatalf("second append: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "entries", "2026-03", "2026-03-10.md"))
	if c := strings.Count(string(data), "### Summary"); c != 2 {
		t.Errorf("expected 2 entries in day file, found %d", c)
	}
	if !strings.Contains(string(data), "fffff00") {
		t.Error("second commit's entry missing")
	}
}

func TestFormat_SkipsEmptySections(t *testing.T) {
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	got := Format(testCommit(ts), &generator.Entry{Summary: "only a summary"})

	if !strings.Contains(got, "### Summary") {
		t.Error("summary section missing")
	}
	if strings.Contains(got, "### Development Dialogue") || strings.Contains(got, "### Technical Decisions") {
		t.Error("empty sections should be omitted")
	}
}

func TestList_NewestFirst(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, discardLogger())

	for _, ts := range []time.Time{
		time.Date(2026, 2, 5, 9, 0, 0, 0, time.Local),
		time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local),
		time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local),
	} {
		if _, err := w.Append(testCommit(ts), testEntry()); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	files, err := w.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(files))
	}
	wantDates := []string{"2026-03-10", "2026-03-01", "2026-02-05"}
	for i, want := range wantDates {
		if files[i].Date != want {
			t.Errorf("files[%d].Date = %s, want %s", i, files[i].Date, want)
		}
	}
}

func TestList_EmptyJournal(t *testing.T) {
	files, err := NewWriter(t.TempDir(), discardLogger()).List()
	if err != nil {
		t.Fatalf("empty journal should not error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files, got %d", len(files))
	}
}

func TestRead_MissingDate(t *testing.T) {
	w := NewWriter(t.TempDir(), discardLogger())
	_, err := w.Read("2026-01-01")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, discardLogger())
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)

	if _, err := w.Append(testCommit(ts), testEntry()); err != nil {
		t.Fatalf("append: %v", err)
	}
	data, err := w.Read("2026-03-10")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "tighten retry backoff") {
		t.Error("read content mismatch")
	}
}
