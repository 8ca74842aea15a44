package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) record(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// waitFor polls until every suffix has been recorded or the deadline passes.
func (r *recorder) waitFor(t *testing.T, suffixes ...string) []string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		got := r.snapshot()
		missing := false
		for _, s := range suffixes {
			if !containsSuffix(got, s) {
				missing = true
			}
		}
		if !missing {
			return got
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %v, got %v", suffixes, got)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func containsSuffix(paths []string, suffix string) bool {
	for _, p := range paths {
		if strings.HasSuffix(p, suffix) {
			return true
		}
	}
	return false
}

func txtOrMD(_, path string) bool {
	ext := filepath.Ext(path)
	return ext == ".txt" || ext == ".md"
}

func startWatcher(t *testing.T, roots []string, rec *recorder) *Watcher {
	t.Helper()
	w := New(roots, txtOrMD, rec.record, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		w.Stop()
		cancel()
	})
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	return w
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_reportsCreatedFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	startWatcher(t, []string{dir}, rec)

	writeFile(t, filepath.Join(sub, "f.txt"), "hello")
	writeFile(t, filepath.Join(sub, "ignored.xyz"), "x")
	got := rec.waitFor(t, "f.txt")
	time.Sleep(150 * time.Millisecond)
	if containsSuffix(rec.snapshot(), "ignored.xyz") {
		t.Errorf("filtered file reported: %v", got)
	}
}

func TestWatcher_debouncesRepeatedWrites(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, []string{dir}, rec)

	path := filepath.Join(dir, "busy.md")
	for i := 0; i < 5; i++ {
		writeFile(t, path, strings.Repeat("x", i+1))
	}
	rec.waitFor(t, "busy.md")
	time.Sleep(200 * time.Millisecond)
	n := 0
	for _, p := range rec.snapshot() {
		if strings.HasSuffix(p, "busy.md") {
			n++
		}
	}
	if n != 1 {
		t.Errorf("busy.md reported %d times, want 1", n)
	}
}

func TestWatcher_newDirectoryIsWatchedAndScanned(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, []string{dir}, rec)

	nested := filepath.Join(dir, "level1", "level2")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(nested, "deep.txt"), "deep content")
	rec.waitFor(t, "deep.txt")
}

func TestWatcher_ignoresHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, []string{dir}, rec)

	writeFile(t, filepath.Join(dir, ".draft.txt"), "hidden")
	writeFile(t, filepath.Join(dir, "visible.txt"), "shown")
	rec.waitFor(t, "visible.txt")
	time.Sleep(150 * time.Millisecond)
	if containsSuffix(rec.snapshot(), ".draft.txt") {
		t.Error("hidden file reported")
	}
}

func TestWatcher_SyncExisting(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "hello")
	writeFile(t, filepath.Join(dir, "ignore.xyz"), "x")
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, ".git", "HEAD.txt"), "ref")

	rec := &recorder{}
	w := New([]string{dir}, txtOrMD, rec.record)
	if n := w.SyncExisting(context.Background()); n != 1 {
		t.Errorf("SyncExisting reported %d files, want 1", n)
	}
	got := rec.snapshot()
	if len(got) != 1 || !strings.HasSuffix(got[0], "a.txt") {
		t.Errorf("expected only a.txt, got %v", got)
	}
}

func TestWatcher_SyncExistingStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		writeFile(t, filepath.Join(dir, fmt.Sprintf("f%d.txt", i)), "x")
	}
	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	w := New([]string{dir}, txtOrMD, func(path string) {
		rec.record(path)
		cancel()
	})
	if n := w.SyncExisting(ctx); n != 1 {
		t.Errorf("SyncExisting reported %d files after cancel, want 1", n)
	}
	if got := rec.snapshot(); len(got) != 1 {
		t.Errorf("expected one file before cancel, got %v", got)
	}
}

func TestWatcher_StartCreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "watch", "me")
	rec := &recorder{}
	w := startWatcher(t, []string{root}, rec)
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
	if roots := w.Roots(); len(roots) != 1 || roots[0] != root {
		t.Errorf("Roots() = %v", roots)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := New([]string{t.TempDir()}, nil, nil)
	w.Stop()
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.txt", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
		{"/tmp/a", "/tmp/ab", false},
	}
	for _, tt := range tests {
		if got := inDir(tt.dir, tt.path); got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}
