package ingest

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/coursemind-io/coursemind/internal/store"
)

// lessonHeading matches section headers like "Lesson 4: Creating An MCP Client".
var lessonHeading = regexp.MustCompile(`^Lesson (\d+):\s*(.+)$`)

// Document is one parsed course script: course metadata plus the raw
// text of each lesson.
type Document struct {
	Course  store.Course
	Content []LessonContent
}

// LessonContent pairs a lesson number with its transcript text.
type LessonContent struct {
	LessonNumber int
	Text         string
}

// Parse reads a course script. The expected layout is a short header
// ("Course Title:", "Course Link:", "Course Instructor:") followed by
// lesson sections introduced by "Lesson N: Title" lines, each
// optionally carrying a "Lesson Link:" line before the transcript.
func Parse(r io.Reader, name string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := &Document{}
	var (
		current   *store.Lesson
		body      strings.Builder
		inHeader  = true
	)

	flush := func() {
		if current == nil {
			return
		}
		text := strings.TrimSpace(body.String())
		doc.Course.Lessons = append(doc.Course.Lessons, *current)
		if text != "" {
			doc.Content = append(doc.Content, LessonContent{
				LessonNumber: current.Number,
				Text:         text,
			})
		}
		body.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()

		if inHeader {
			switch {
			case strings.HasPrefix(line, "Course Title:"):
				doc.Course.Title = strings.TrimSpace(strings.TrimPrefix(line, "Course Title:"))
				continue
			case strings.HasPrefix(line, "Course Link:"):
				doc.Course.Link = strings.TrimSpace(strings.TrimPrefix(line, "Course Link:"))
				continue
			case strings.HasPrefix(line, "Course Instructor:"):
				doc.Course.Instructor = strings.TrimSpace(strings.TrimPrefix(line, "Course Instructor:"))
				continue
			case strings.TrimSpace(line) == "":
				continue
			}
		}

		if m := lessonHeading.FindStringSubmatch(line); m != nil {
			inHeader = false
			flush()
			number, _ := strconv.Atoi(m[1])
			current = &store.Lesson{Number: number, Title: strings.TrimSpace(m[2])}
			continue
		}

		if current != nil && strings.HasPrefix(line, "Lesson Link:") && body.Len() == 0 {
			current.Link = strings.TrimSpace(strings.TrimPrefix(line, "Lesson Link:"))
			continue
		}

		if current != nil {
			body.WriteString(line)
			body.WriteString("\n")
		} else if !inHeader || strings.TrimSpace(line) != "" {
			// Text before any lesson heading: treat the whole file as
			// one untitled lesson 0 so plain transcripts still index.
			inHeader = false
			current = &store.Lesson{Number: 0, Title: "Content"}
			body.WriteString(line)
			body.WriteString("\n")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ingest: read %s: %w", name, err)
	}
	flush()

	if doc.Course.Title == "" {
		doc.Course.Title = name
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("ingest: %s: no course content found", name)
	}
	return doc, nil
}
