package transcript

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Window bounds which records are relevant to a commit. Both ends inclusive.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// SessionGroup is one session's records in chronological order. Groups are
// ordered by each session's first in-window record, so downstream consumers
// never depend on map iteration order.
type SessionGroup struct {
	SessionID string
	Records   []Record
}

// Result is everything the collector found for one window.
type Result struct {
	Records  []Record
	Sessions []SessionGroup
}

// Collector finds and parses Claude Code session logs for a repository.
type Collector struct {
	claudeDir string
	logger    *slog.Logger
}

func NewCollector(claudeDir string, logger *slog.Logger) *Collector {
	return &Collector{claudeDir: claudeDir, logger: logger}
}

// ProjectDirName encodes a repository path into the per-project log directory
// name: path separators and dots collapse to dashes. The encoding is lossy,
// which is fine — it only needs to match what the log writer produced.
func ProjectDirName(repoPath string) string {
	name := strings.ReplaceAll(repoPath, string(filepath.Separator), "-")
	return strings.ReplaceAll(name, ".", "-")
}

// Collect returns every record in the window whose cwd matches repoPath,
// globally sorted by timestamp, plus per-session groups. Nothing found —
// missing directory, no files, no matches — is an empty result, not an error.
func (c *Collector) Collect(repoPath string, w Window) (Result, error) {
	projDir := filepath.Join(c.claudeDir, "projects", ProjectDirName(repoPath))

	if _, err := os.Stat(projDir); err != nil {
		if os.IsNotExist(err) {
			c.logger.Debug("no session logs for project", "dir", projDir)
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("stat project dir: %w", err)
	}

	files, err := sessionFiles(projDir)
	if err != nil {
		return Result{}, fmt.Errorf("list session files: %w", err)
	}

	var records []Record
	for _, path := range files {
		recs, err := c.collectFile(path, repoPath, w)
		if err != nil {
			c.logger.Warn("skipping unreadable session file", "path", path, "error", err)
			continue
		}
		records = append(records, recs...)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	c.logger.Debug("collected session records",
		"files", len(files),
		"records", len(records),
		"window_start", w.Start,
		"window_end", w.End,
	)

	return Result{Records: records, Sessions: groupBySession(records)}, nil
}

// collectFile scans one JSONL file, keeping in-window records for repoPath.
func (c *Collector) collectFile(path, repoPath string, w Window) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var kept []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)
	for scanner.Scan() {
		rec, ok := parseLine(scanner.Bytes())
		if !ok {
			continue
		}
		if rec.CWD != repoPath {
			continue
		}
		if !w.Contains(rec.Timestamp) {
			continue
		}
		kept = append(kept, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return kept, nil
}

// sessionFiles lists *.jsonl files in dir, most recently modified first.
// The ordering is cosmetic — matching records are merged and re-sorted.
func sessionFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type fileInfo struct {
		path    string
		modTime time.Time
	}
	var files []fileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{path: filepath.Join(dir, e.Name()), modTime: info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

// groupBySession builds ordered per-session groups from globally sorted
// records. Group order follows each session's first record.
func groupBySession(records []Record) []SessionGroup {
	var groups []SessionGroup
	index := make(map[string]int)
	for _, rec := range records {
		i, ok := index[rec.SessionID]
		if !ok {
			i = len(groups)
			index[rec.SessionID] = i
			groups = append(groups, SessionGroup{SessionID: rec.SessionID})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}
	return groups
}
