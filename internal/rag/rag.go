// Package rag is the top-level query orchestrator: it resolves
// sessions, drives the tool-calling generator, and tracks the sources
// that backed each answer.
package rag

import (
	"context"
	"log/slog"

	"github.com/coursemind-io/coursemind/internal/agent"
	"github.com/coursemind-io/coursemind/internal/tool"
)

// SessionStore is the session collaborator contract.
type SessionStore interface {
	Create() string
	History(id string) string
	AddExchange(id, query, answer string)
	Clear(id string)
}

// Catalog is the corpus analytics slice the orchestrator exposes.
type Catalog interface {
	CourseCount(ctx context.Context) (int, error)
	CourseTitles(ctx context.Context) ([]string, error)
}

// Result is the answer envelope for one query.
type Result struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	SessionID string   `json:"session_id"`
}

// Stats summarizes the indexed corpus.
type Stats struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// System wires the generator, tool registry, session store and corpus
// catalog into the produced query surface. One System serves queries
// sequentially; see the registry's source-tracking notes.
type System struct {
	sessions  SessionStore
	generator *agent.Generator
	registry  *tool.Registry
	catalog   Catalog
	logger    *slog.Logger
}

// New creates a query orchestrator.
func New(sessions SessionStore, generator *agent.Generator, registry *tool.Registry, catalog Catalog, logger *slog.Logger) *System {
	if logger == nil {
		logger = slog.Default()
	}
	return &System{
		sessions:  sessions,
		generator: generator,
		registry:  registry,
		catalog:   catalog,
		logger:    logger,
	}
}

// Query answers one user question. An empty sessionID creates a new
// session; the id in play is always echoed in the result. Sources from
// this exact query are captured before being reset for the next one.
func (s *System) Query(ctx context.Context, query, sessionID string) (*Result, error) {
	if sessionID == "" {
		sessionID = s.sessions.Create()
		s.logger.Debug("session created", "session", sessionID)
	}
	history := s.sessions.History(sessionID)

	answer, err := s.generator.Generate(ctx, query, history, s.registry.Definitions(), s.registry)
	if err != nil {
		return nil, err
	}

	sources := s.registry.LastSources()
	s.registry.ResetSources()

	s.sessions.AddExchange(sessionID, query, answer)

	s.logger.Info("query answered",
		"session", sessionID,
		"answer_len", len(answer),
		"sources", len(sources),
	)
	return &Result{Answer: answer, Sources: sources, SessionID: sessionID}, nil
}

// Analytics reports how many courses are indexed and their titles.
func (s *System) Analytics(ctx context.Context) (*Stats, error) {
	count, err := s.catalog.CourseCount(ctx)
	if err != nil {
		return nil, err
	}
	titles, err := s.catalog.CourseTitles(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{TotalCourses: count, CourseTitles: titles}, nil
}

// ClearSession drops a session's conversation history.
func (s *System) ClearSession(id string) {
	s.sessions.Clear(id)
}
