package tool

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/coursemind-io/coursemind/internal/store"
)

// fakeSearchStore serves canned search results and links, recording the
// filters it was queried with.
type fakeSearchStore struct {
	results *store.SearchResults
	err     error

	lessonLinks map[string]string // "title/number"
	courseLinks map[string]string

	gotQuery  string
	gotCourse string
	gotLesson *int
}

func (f *fakeSearchStore) Search(_ context.Context, query, courseName string, lessonNumber *int) (*store.SearchResults, error) {
	f.gotQuery, f.gotCourse, f.gotLesson = query, courseName, lessonNumber
	return f.results, f.err
}

func (f *fakeSearchStore) LessonLink(_ context.Context, title string, number int) (string, error) {
	return f.lessonLinks[lessonKey(title, number)], nil
}

func (f *fakeSearchStore) CourseLink(_ context.Context, title string) (string, error) {
	return f.courseLinks[title], nil
}

func lessonKey(title string, number int) string {
	return fmt.Sprintf("%s/%d", title, number)
}

func intptr(n int) *int { return &n }

func TestSearchTool_MissingQuery(t *testing.T) {
	st := NewSearchTool(&fakeSearchStore{})
	if _, err := st.Execute(context.Background(), map[string]any{}); err == nil {
		t.Fatal("expected an error for a missing query argument")
	}
}

func TestSearchTool_StoreErrorPropagates(t *testing.T) {
	st := NewSearchTool(&fakeSearchStore{err: errors.New("disk io")})
	if _, err := st.Execute(context.Background(), map[string]any{"query": "x"}); err == nil {
		t.Fatal("expected the backend error to propagate")
	}
}

func TestSearchTool_BackendErrorString(t *testing.T) {
	st := NewSearchTool(&fakeSearchStore{
		results: &store.SearchResults{Error: "No course found matching 'Bogus'"},
	})
	out, err := st.Execute(context.Background(), map[string]any{"query": "x", "course_name": "Bogus"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "No course found matching 'Bogus'" {
		t.Errorf("backend error must pass through verbatim, got %q", out)
	}
}

func TestSearchTool_EmptyResultMessages(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{
			name: "no filters",
			args: map[string]any{"query": "x"},
			want: "No relevant content found.",
		},
		{
			name: "course filter",
			args: map[string]any{"query": "x", "course_name": "MCP"},
			want: "No relevant content found in course 'MCP'.",
		},
		{
			name: "lesson filter",
			args: map[string]any{"query": "x", "lesson_number": float64(3)},
			want: "No relevant content found in lesson 3.",
		},
		{
			name: "both filters",
			args: map[string]any{"query": "x", "course_name": "MCP", "lesson_number": float64(5)},
			want: "No relevant content found in course 'MCP' in lesson 5.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewSearchTool(&fakeSearchStore{results: &store.SearchResults{}})
			out, err := st.Execute(context.Background(), tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out != tt.want {
				t.Errorf("expected %q, got %q", tt.want, out)
			}
		})
	}
}

func TestSearchTool_FiltersForwarded(t *testing.T) {
	fs := &fakeSearchStore{results: &store.SearchResults{}}
	st := NewSearchTool(fs)

	st.Execute(context.Background(), map[string]any{
		"query":         "tool calling",
		"course_name":   "MCP",
		"lesson_number": float64(2),
	})

	if fs.gotQuery != "tool calling" || fs.gotCourse != "MCP" {
		t.Errorf("filters not forwarded: query=%q course=%q", fs.gotQuery, fs.gotCourse)
	}
	if fs.gotLesson == nil || *fs.gotLesson != 2 {
		t.Errorf("lesson filter not forwarded: %v", fs.gotLesson)
	}
}

func TestSearchTool_FormatAndSources(t *testing.T) {
	fs := &fakeSearchStore{
		results: &store.SearchResults{
			Documents: []string{"MCP uses JSON-RPC.", "Overview of the course."},
			Metadata: []store.ChunkMetadata{
				{CourseTitle: "MCP Course", LessonNumber: intptr(2)},
				{CourseTitle: "MCP Course"},
			},
			Distances: []float64{0.1, 0.4},
		},
		lessonLinks: map[string]string{lessonKey("MCP Course", 2): "https://example.com/l2"},
		courseLinks: map[string]string{"MCP Course": "https://example.com/course"},
	}
	st := NewSearchTool(fs)

	out, err := st.Execute(context.Background(), map[string]any{"query": "json-rpc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "[MCP Course - Lesson 2]\nMCP uses JSON-RPC.\n\n[MCP Course]\nOverview of the course."
	if out != want {
		t.Errorf("formatted output mismatch:\nwant %q\ngot  %q", want, out)
	}

	sources := st.LastSources()
	wantSources := []string{
		"[MCP Course - Lesson 2](https://example.com/l2)",
		"[MCP Course](https://example.com/course)",
	}
	if len(sources) != len(wantSources) {
		t.Fatalf("expected %d sources, got %d", len(wantSources), len(sources))
	}
	for i := range wantSources {
		if sources[i] != wantSources[i] {
			t.Errorf("source %d: expected %q, got %q", i, wantSources[i], sources[i])
		}
	}
}

func TestSearchTool_SourcesOverwrittenPerExecution(t *testing.T) {
	fs := &fakeSearchStore{
		results: &store.SearchResults{
			Documents: []string{"doc"},
			Metadata:  []store.ChunkMetadata{{CourseTitle: "First"}},
			Distances: []float64{0.2},
		},
	}
	st := NewSearchTool(fs)

	st.Execute(context.Background(), map[string]any{"query": "a"})
	fs.results.Metadata[0].CourseTitle = "Second"
	st.Execute(context.Background(), map[string]any{"query": "b"})

	sources := st.LastSources()
	if len(sources) != 1 || sources[0] != "Second" {
		t.Errorf("expected only the latest sources, got %v", sources)
	}

	st.ResetSources()
	if st.LastSources() != nil {
		t.Error("expected nil sources after reset")
	}
}

func TestSearchTool_IntLessonNumber(t *testing.T) {
	// Arguments decoded from JSON arrive as float64, but direct callers
	// may pass int.
	fs := &fakeSearchStore{results: &store.SearchResults{}}
	st := NewSearchTool(fs)

	st.Execute(context.Background(), map[string]any{"query": "x", "lesson_number": 4})
	if fs.gotLesson == nil || *fs.gotLesson != 4 {
		t.Errorf("int lesson number not accepted: %v", fs.gotLesson)
	}
}
