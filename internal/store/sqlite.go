package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const defaultMaxResults = 5

// SQLiteStore is the course corpus store: course metadata, lesson links
// and full-text searchable content chunks, all in one SQLite database.
// Ranking uses FTS5 bm25; smaller distances mean better matches.
type SQLiteStore struct {
	db         *sql.DB
	maxResults int
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithMaxResults bounds how many chunks a single search returns.
func WithMaxResults(n int) SQLiteOption {
	return func(s *SQLiteStore) { s.maxResults = n }
}

// OpenSQLite opens (or creates) the corpus database and runs migrations.
func OpenSQLite(path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("corpus store: open: %w", err)
	}

	// WAL for concurrent readers while ingest writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("corpus store: wal: %w", err)
	}

	s := &SQLiteStore{db: db, maxResults: defaultMaxResults}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS courses (
			title      TEXT PRIMARY KEY,
			link       TEXT NOT NULL DEFAULT '',
			instructor TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS lessons (
			course_title TEXT NOT NULL REFERENCES courses(title),
			number       INTEGER NOT NULL,
			title        TEXT NOT NULL,
			link         TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (course_title, number)
		);

		CREATE TABLE IF NOT EXISTS chunks (
			id            INTEGER PRIMARY KEY,
			course_title  TEXT NOT NULL,
			lesson_number INTEGER,
			chunk_index   INTEGER NOT NULL,
			content       TEXT NOT NULL
		);

		CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
			content, content='chunks', content_rowid='id'
		);

		CREATE INDEX IF NOT EXISTS idx_chunks_course ON chunks(course_title);
	`)
	if err != nil {
		return fmt.Errorf("corpus store: migrate: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// AddCourse stores a course and its lessons, replacing any prior entry
// with the same title.
func (s *SQLiteStore) AddCourse(ctx context.Context, c *Course) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("corpus store: add course: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO courses (title, link, instructor) VALUES (?, ?, ?)`,
		c.Title, c.Link, c.Instructor); err != nil {
		return fmt.Errorf("corpus store: add course %q: %w", c.Title, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE course_title = ?`, c.Title); err != nil {
		return fmt.Errorf("corpus store: add course %q: %w", c.Title, err)
	}
	for _, l := range c.Lessons {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lessons (course_title, number, title, link) VALUES (?, ?, ?, ?)`,
			c.Title, l.Number, l.Title, l.Link); err != nil {
			return fmt.Errorf("corpus store: add lesson %d of %q: %w", l.Number, c.Title, err)
		}
	}
	return tx.Commit()
}

// AddChunks stores content chunks and indexes them for full-text search.
func (s *SQLiteStore) AddChunks(ctx context.Context, chunks []Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("corpus store: add chunks: %w", err)
	}
	defer tx.Rollback()

	for _, c := range chunks {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (course_title, lesson_number, chunk_index, content) VALUES (?, ?, ?, ?)`,
			c.CourseTitle, nullableInt(c.LessonNumber), c.ChunkIndex, c.Content)
		if err != nil {
			return fmt.Errorf("corpus store: add chunk: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("corpus store: add chunk: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunks_fts (rowid, content) VALUES (?, ?)`, id, c.Content); err != nil {
			return fmt.Errorf("corpus store: index chunk: %w", err)
		}
	}
	return tx.Commit()
}

// Search is the unified search entrypoint: full-text query with optional
// course and lesson filters. The course filter is a partial,
// case-insensitive match against course titles; failing to resolve it is
// reported in-band via SearchResults.Error.
func (s *SQLiteStore) Search(ctx context.Context, query, courseName string, lessonNumber *int) (*SearchResults, error) {
	var courseTitle string
	if courseName != "" {
		resolved, err := s.resolveCourse(ctx, courseName)
		if err != nil {
			return nil, err
		}
		if resolved == "" {
			return &SearchResults{Error: fmt.Sprintf("No course found matching '%s'", courseName)}, nil
		}
		courseTitle = resolved
	}

	match := ftsQuery(query)
	if match == "" {
		return &SearchResults{}, nil
	}

	q := `SELECT c.content, c.course_title, c.lesson_number, c.chunk_index, bm25(chunks_fts) AS dist
		FROM chunks_fts JOIN chunks c ON c.id = chunks_fts.rowid
		WHERE chunks_fts MATCH ?`
	args := []any{match}
	if courseTitle != "" {
		q += ` AND c.course_title = ?`
		args = append(args, courseTitle)
	}
	if lessonNumber != nil {
		q += ` AND c.lesson_number = ?`
		args = append(args, *lessonNumber)
	}
	q += ` ORDER BY dist LIMIT ?`
	args = append(args, s.maxResults)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("corpus store: search: %w", err)
	}
	defer rows.Close()

	results := &SearchResults{}
	for rows.Next() {
		var (
			content string
			meta    ChunkMetadata
			lesson  sql.NullInt64
			dist    float64
		)
		if err := rows.Scan(&content, &meta.CourseTitle, &lesson, &meta.ChunkIndex, &dist); err != nil {
			return nil, fmt.Errorf("corpus store: search scan: %w", err)
		}
		if lesson.Valid {
			n := int(lesson.Int64)
			meta.LessonNumber = &n
		}
		results.Documents = append(results.Documents, content)
		results.Metadata = append(results.Metadata, meta)
		results.Distances = append(results.Distances, dist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("corpus store: search: %w", err)
	}
	return results, nil
}

// CourseOutline resolves a full or partial course name and returns the
// complete outline, or nil when no course matches.
func (s *SQLiteStore) CourseOutline(ctx context.Context, courseName string) (*CourseOutline, error) {
	title, err := s.resolveCourse(ctx, courseName)
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, nil
	}

	outline := &CourseOutline{Title: title}
	err = s.db.QueryRowContext(ctx,
		`SELECT link, instructor FROM courses WHERE title = ?`, title).
		Scan(&outline.CourseLink, &outline.Instructor)
	if err != nil {
		return nil, fmt.Errorf("corpus store: outline %q: %w", title, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT number, title, link FROM lessons WHERE course_title = ? ORDER BY number`, title)
	if err != nil {
		return nil, fmt.Errorf("corpus store: outline lessons %q: %w", title, err)
	}
	defer rows.Close()
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.Number, &l.Title, &l.Link); err != nil {
			return nil, fmt.Errorf("corpus store: outline lessons %q: %w", title, err)
		}
		outline.Lessons = append(outline.Lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("corpus store: outline lessons %q: %w", title, err)
	}
	outline.LessonCount = len(outline.Lessons)
	return outline, nil
}

// LessonLink returns the link for a specific lesson, or "" when the
// lesson has none.
func (s *SQLiteStore) LessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, error) {
	var link string
	err := s.db.QueryRowContext(ctx,
		`SELECT link FROM lessons WHERE course_title = ? AND number = ?`,
		courseTitle, lessonNumber).Scan(&link)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("corpus store: lesson link: %w", err)
	}
	return link, nil
}

// CourseLink returns the link for a course, or "" when the course has
// none or does not exist.
func (s *SQLiteStore) CourseLink(ctx context.Context, courseTitle string) (string, error) {
	var link string
	err := s.db.QueryRowContext(ctx,
		`SELECT link FROM courses WHERE title = ?`, courseTitle).Scan(&link)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("corpus store: course link: %w", err)
	}
	return link, nil
}

// CourseCount returns the number of indexed courses.
func (s *SQLiteStore) CourseCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("corpus store: course count: %w", err)
	}
	return n, nil
}

// CourseTitles returns the titles of all indexed courses.
func (s *SQLiteStore) CourseTitles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title FROM courses ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("corpus store: course titles: %w", err)
	}
	defer rows.Close()
	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("corpus store: course titles: %w", err)
		}
		titles = append(titles, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("corpus store: course titles: %w", err)
	}
	return titles, nil
}

// resolveCourse matches a partial, case-insensitive course name against
// stored titles. The shortest matching title wins so that more specific
// filters beat broad ones.
func (s *SQLiteStore) resolveCourse(ctx context.Context, name string) (string, error) {
	var title string
	err := s.db.QueryRowContext(ctx,
		`SELECT title FROM courses WHERE instr(lower(title), lower(?)) > 0
		 ORDER BY length(title) LIMIT 1`, name).Scan(&title)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("corpus store: resolve course %q: %w", name, err)
	}
	return title, nil
}

// ftsQuery turns free text into an FTS5 MATCH expression. Each term is
// quoted so user punctuation cannot break the query syntax; terms are
// OR-ed to favor recall, with bm25 ranking the overlap.
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ReplaceAll(t, `"`, `""`)
		quoted = append(quoted, `"`+t+`"`)
	}
	return strings.Join(quoted, " OR ")
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
