package store

// Course is a single course with its ordered lesson list.
type Course struct {
	Title      string   `json:"title"`
	Link       string   `json:"link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// Lesson is one lesson within a course.
type Lesson struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Link   string `json:"link,omitempty"`
}

// Chunk is one searchable piece of course content.
type Chunk struct {
	CourseTitle  string
	LessonNumber *int
	ChunkIndex   int
	Content      string
}

// ChunkMetadata describes where a matched chunk came from.
type ChunkMetadata struct {
	CourseTitle  string
	LessonNumber *int
	ChunkIndex   int
}

// SearchResults is the outcome of one content search. Documents,
// Metadata and Distances are parallel slices in relevance order.
// Error carries backend-reported conditions (e.g. an unresolvable
// course filter) that tools forward to the model verbatim.
type SearchResults struct {
	Documents []string
	Metadata  []ChunkMetadata
	Distances []float64
	Error     string
}

// IsEmpty reports whether the search matched nothing.
func (r *SearchResults) IsEmpty() bool {
	return len(r.Documents) == 0
}

// CourseOutline is the structured outline of one course.
type CourseOutline struct {
	Title       string   `json:"title"`
	CourseLink  string   `json:"course_link,omitempty"`
	Instructor  string   `json:"instructor,omitempty"`
	LessonCount int      `json:"lesson_count"`
	Lessons     []Lesson `json:"lessons"`
}
