// Package ingest parses course scripts and loads them into the corpus
// store as courses, lessons and searchable content chunks.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/coursemind-io/coursemind/internal/store"
)

// CorpusWriter is the store slice the loader writes through.
type CorpusWriter interface {
	AddCourse(ctx context.Context, c *store.Course) error
	AddChunks(ctx context.Context, chunks []store.Chunk) error
	CourseTitles(ctx context.Context) ([]string, error)
}

// Loader ingests course documents into a corpus store.
type Loader struct {
	Store        CorpusWriter
	ChunkSize    int
	ChunkOverlap int
	Logger       *slog.Logger
}

// NewLoader creates a loader with default chunking parameters.
func NewLoader(s CorpusWriter, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		Store:        s,
		ChunkSize:    defaultChunkSize,
		ChunkOverlap: defaultChunkOverlap,
		Logger:       logger,
	}
}

// LoadFile parses and indexes a single course script. Returns the
// course and the number of chunks indexed.
func (l *Loader) LoadFile(ctx context.Context, path string) (*store.Course, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("ingest: open %s: %w", path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc, err := Parse(f, name)
	if err != nil {
		return nil, 0, err
	}

	if err := l.Store.AddCourse(ctx, &doc.Course); err != nil {
		return nil, 0, err
	}

	var chunks []store.Chunk
	for _, lesson := range doc.Content {
		n := lesson.LessonNumber
		for idx, content := range chunkText(lesson.Text, l.ChunkSize, l.ChunkOverlap) {
			num := n
			chunks = append(chunks, store.Chunk{
				CourseTitle:  doc.Course.Title,
				LessonNumber: &num,
				ChunkIndex:   idx,
				// The context prefix is indexed with the chunk so
				// queries naming the course or lesson match its content.
				Content: fmt.Sprintf("Course %s Lesson %d content: %s",
					doc.Course.Title, num, content),
			})
		}
	}
	if err := l.Store.AddChunks(ctx, chunks); err != nil {
		return nil, 0, err
	}
	return &doc.Course, len(chunks), nil
}

// LoadDir indexes every readable document in dir, skipping courses
// whose title is already present in the store. Returns the number of
// courses and chunks added.
func (l *Loader) LoadDir(ctx context.Context, dir string) (int, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("ingest: read dir %s: %w", dir, err)
	}

	existing, err := l.Store.CourseTitles(ctx)
	if err != nil {
		return 0, 0, err
	}
	indexed := make(map[string]bool, len(existing))
	for _, t := range existing {
		indexed[t] = true
	}

	var courses, chunks int
	for _, entry := range entries {
		if entry.IsDir() || !isCourseFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		course, added, err := l.loadIfNew(ctx, path, indexed)
		if err != nil {
			l.Logger.Warn("skipping course document", "path", path, "error", err)
			continue
		}
		if course == "" {
			continue
		}
		indexed[course] = true
		courses++
		chunks += added
		l.Logger.Info("course indexed", "course", course, "chunks", added)
	}
	return courses, chunks, nil
}

func (l *Loader) loadIfNew(ctx context.Context, path string, indexed map[string]bool) (string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("ingest: open %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc, err := Parse(f, name)
	f.Close()
	if err != nil {
		return "", 0, err
	}
	if indexed[doc.Course.Title] {
		return "", 0, nil
	}

	course, n, err := l.LoadFile(ctx, path)
	if err != nil {
		return "", 0, err
	}
	return course.Title, n, nil
}

func isCourseFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return true
	}
	return false
}
