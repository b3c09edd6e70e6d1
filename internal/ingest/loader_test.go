package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/coursemind-io/coursemind/internal/store"
)

type fakeCorpus struct {
	courses []store.Course
	chunks  []store.Chunk
	titles  []string
}

func (f *fakeCorpus) AddCourse(_ context.Context, c *store.Course) error {
	f.courses = append(f.courses, *c)
	return nil
}

func (f *fakeCorpus) AddChunks(_ context.Context, chunks []store.Chunk) error {
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *fakeCorpus) CourseTitles(context.Context) ([]string, error) {
	return f.titles, nil
}

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "mcp.txt", sampleScript)

	corpus := &fakeCorpus{}
	loader := NewLoader(corpus, nil)

	course, n, err := loader.LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if course.Title != "MCP: Build Rich-Context AI Apps" {
		t.Errorf("unexpected title: %q", course.Title)
	}
	if n == 0 || len(corpus.chunks) != n {
		t.Errorf("chunk count mismatch: returned %d, stored %d", n, len(corpus.chunks))
	}
	if len(corpus.courses) != 1 {
		t.Fatalf("expected one course written, got %d", len(corpus.courses))
	}

	// Each chunk carries its lesson number as an independent pointer.
	seen := map[int]bool{}
	for _, c := range corpus.chunks {
		if c.CourseTitle != course.Title {
			t.Errorf("chunk with wrong course: %q", c.CourseTitle)
		}
		if c.LessonNumber == nil {
			t.Fatal("chunk missing lesson number")
		}
		seen[*c.LessonNumber] = true
	}
	if !seen[0] || !seen[1] {
		t.Errorf("expected chunks from both lessons, got %v", seen)
	}
}

func TestLoadFileAddsContextPrefix(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "mcp.txt",
		"Course Title: MCP Course\n\nLesson 2: Architecture\nHosts talk to servers.\n")

	corpus := &fakeCorpus{}
	loader := NewLoader(corpus, nil)

	if _, _, err := loader.LoadFile(context.Background(), path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(corpus.chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(corpus.chunks))
	}
	want := "Course MCP Course Lesson 2 content: Hosts talk to servers."
	if corpus.chunks[0].Content != want {
		t.Errorf("chunk content:\nwant %q\ngot  %q", want, corpus.chunks[0].Content)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a.txt", "Course Title: Course A\n\nLesson 1: One\nContent of course A.\n")
	writeScript(t, dir, "b.md", "Course Title: Course B\n\nLesson 1: One\nContent of course B.\n")
	writeScript(t, dir, "notes.json", `{"ignored": true}`)

	corpus := &fakeCorpus{}
	loader := NewLoader(corpus, nil)

	courses, chunks, err := loader.LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if courses != 2 {
		t.Errorf("expected 2 courses, got %d", courses)
	}
	if chunks != len(corpus.chunks) {
		t.Errorf("chunk count mismatch: %d vs %d stored", chunks, len(corpus.chunks))
	}
}

func TestLoadDirSkipsIndexed(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a.txt", "Course Title: Course A\n\nLesson 1: One\nContent of course A.\n")

	corpus := &fakeCorpus{titles: []string{"Course A"}}
	loader := NewLoader(corpus, nil)

	courses, _, err := loader.LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if courses != 0 {
		t.Errorf("already-indexed course must be skipped, got %d", courses)
	}
	if len(corpus.courses) != 0 {
		t.Errorf("store must stay untouched, wrote %d courses", len(corpus.courses))
	}
}

func TestLoadDirSkipsUnparseable(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "empty.txt", "")
	writeScript(t, dir, "ok.txt", "Course Title: OK\n\nLesson 1: One\nReal content.\n")

	corpus := &fakeCorpus{}
	loader := NewLoader(corpus, nil)

	courses, _, err := loader.LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("a bad file must not abort the run: %v", err)
	}
	if courses != 1 {
		t.Errorf("expected the good file to index, got %d", courses)
	}
}
