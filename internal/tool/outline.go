package tool

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/coursemind-io/coursemind/internal/store"
	"github.com/coursemind-io/coursemind/pkg/protocol"
)

// OutlineStore is the slice of the corpus store the outline tool needs.
type OutlineStore interface {
	CourseOutline(ctx context.Context, courseName string) (*store.CourseOutline, error)
}

// OutlineTool retrieves the complete outline of a course: title,
// instructor, link and the full ordered lesson list.
type OutlineTool struct {
	store OutlineStore

	mu          sync.Mutex
	lastSources []string
}

// NewOutlineTool creates an outline tool backed by the given store.
func NewOutlineTool(s OutlineStore) *OutlineTool {
	return &OutlineTool{store: s}
}

func (t *OutlineTool) Definition() protocol.ToolDefinition {
	return protocol.ToolDefinition{
		Name: "get_course_outline",
		Description: "Get the complete outline of a course including its title, " +
			"course link, and full list of lessons with lesson numbers and titles. " +
			"Use this when the user asks for a course outline, course structure, " +
			"lesson list, table of contents, or what topics a course covers.",
		InputSchema: protocol.ObjectSchema(map[string]any{
			"course_name": map[string]any{
				"type": "string",
				"description": "The course title or partial name to look up " +
					"(e.g. 'MCP', 'computer use', 'prompt caching')",
			},
		}, "course_name"),
	}
}

// Execute resolves the course name and returns the full outline. The
// lesson list is always emitted complete; the model is instructed to
// reproduce it verbatim.
func (t *OutlineTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	courseName := getString(args, "course_name")
	if courseName == "" {
		return "", fmt.Errorf("get_course_outline: missing required argument \"course_name\"")
	}

	outline, err := t.store.CourseOutline(ctx, courseName)
	if err != nil {
		return "", err
	}
	if outline == nil {
		return fmt.Sprintf("No course found matching '%s'.", courseName), nil
	}

	return t.formatOutline(outline), nil
}

func (t *OutlineTool) formatOutline(outline *store.CourseOutline) string {
	instructor := outline.Instructor
	if instructor == "" {
		instructor = "Unknown"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", outline.Title)
	fmt.Fprintf(&b, "Instructor: %s\n", instructor)
	if outline.CourseLink != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", outline.CourseLink)
	}
	fmt.Fprintf(&b, "Total Lessons: %d\n", outline.LessonCount)
	b.WriteString("\nLessons:\n")
	for _, l := range outline.Lessons {
		fmt.Fprintf(&b, "  Lesson %d: %s\n", l.Number, l.Title)
	}

	source := outline.Title
	if outline.CourseLink != "" {
		source = fmt.Sprintf("[%s](%s)", outline.Title, outline.CourseLink)
	}
	t.mu.Lock()
	t.lastSources = []string{source}
	t.mu.Unlock()

	return strings.TrimRight(b.String(), "\n")
}

// LastSources returns the source recorded by the last execution.
func (t *OutlineTool) LastSources() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSources
}

// ResetSources clears the recorded sources.
func (t *OutlineTool) ResetSources() {
	t.mu.Lock()
	t.lastSources = nil
	t.mu.Unlock()
}
