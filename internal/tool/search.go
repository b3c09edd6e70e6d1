package tool

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/coursemind-io/coursemind/internal/store"
	"github.com/coursemind-io/coursemind/pkg/protocol"
)

// SearchStore is the slice of the corpus store the search tool needs.
type SearchStore interface {
	Search(ctx context.Context, query, courseName string, lessonNumber *int) (*store.SearchResults, error)
	LessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, error)
	CourseLink(ctx context.Context, courseTitle string) (string, error)
}

// SearchTool searches course content with partial course name matching
// and optional lesson filtering.
type SearchTool struct {
	store SearchStore

	mu          sync.Mutex
	lastSources []string
}

// NewSearchTool creates a search tool backed by the given store.
func NewSearchTool(s SearchStore) *SearchTool {
	return &SearchTool{store: s}
}

func (t *SearchTool) Definition() protocol.ToolDefinition {
	return protocol.ToolDefinition{
		Name:        "search_course_content",
		Description: "Search course materials with smart course name matching and lesson filtering",
		InputSchema: protocol.ObjectSchema(map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "What to search for in the course content",
			},
			"course_name": map[string]any{
				"type":        "string",
				"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
			},
			"lesson_number": map[string]any{
				"type":        "integer",
				"description": "Specific lesson number to search within (e.g. 1, 2, 3)",
			},
		}, "query"),
	}
}

// Execute runs the search. Backend-reported errors are returned
// verbatim as the result string; zero matches yield a templated message
// naming the active filters so the model can explain the miss.
func (t *SearchTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query := getString(args, "query")
	if query == "" {
		return "", fmt.Errorf("search_course_content: missing required argument \"query\"")
	}
	courseName := getString(args, "course_name")
	lessonNumber := getInt(args, "lesson_number")

	results, err := t.store.Search(ctx, query, courseName, lessonNumber)
	if err != nil {
		return "", err
	}

	if results.Error != "" {
		return results.Error, nil
	}

	if results.IsEmpty() {
		var filters strings.Builder
		if courseName != "" {
			fmt.Fprintf(&filters, " in course '%s'", courseName)
		}
		if lessonNumber != nil {
			fmt.Fprintf(&filters, " in lesson %d", *lessonNumber)
		}
		return fmt.Sprintf("No relevant content found%s.", filters.String()), nil
	}

	return t.formatResults(ctx, results), nil
}

// formatResults renders matched chunks under course/lesson headers and
// records one source entry per chunk, overwriting the prior set.
func (t *SearchTool) formatResults(ctx context.Context, results *store.SearchResults) string {
	formatted := make([]string, 0, len(results.Documents))
	sources := make([]string, 0, len(results.Documents))

	for i, doc := range results.Documents {
		meta := results.Metadata[i]
		title := meta.CourseTitle
		if title == "" {
			title = "unknown"
		}

		header := "[" + title
		source := title
		if meta.LessonNumber != nil {
			header += fmt.Sprintf(" - Lesson %d", *meta.LessonNumber)
			source += fmt.Sprintf(" - Lesson %d", *meta.LessonNumber)
		}
		header += "]"

		// Prefer a lesson-specific link, fall back to the course link.
		var link string
		if meta.LessonNumber != nil {
			link, _ = t.store.LessonLink(ctx, title, *meta.LessonNumber)
		}
		if link == "" && title != "unknown" {
			link, _ = t.store.CourseLink(ctx, title)
		}
		if link != "" {
			source = fmt.Sprintf("[%s](%s)", source, link)
		}

		sources = append(sources, source)
		formatted = append(formatted, header+"\n"+doc)
	}

	t.mu.Lock()
	t.lastSources = sources
	t.mu.Unlock()

	return strings.Join(formatted, "\n\n")
}

// LastSources returns the sources recorded by the last execution.
func (t *SearchTool) LastSources() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSources
}

// ResetSources clears the recorded sources.
func (t *SearchTool) ResetSources() {
	t.mu.Lock()
	t.lastSources = nil
	t.mu.Unlock()
}
