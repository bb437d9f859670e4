package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"coursecast/audio"
	"coursecast/logger"
	"coursecast/orchestrator"
	"coursecast/types"
)

// ErrStale is returned when a load finishes after the session has moved on to
// a different course. The results are discarded, never committed.
var ErrStale = errors.New("session: results are for a stale course identity")

// Snapshot is the committed playback state for the current course: the course
// itself plus the frame durations for both slide sets. Consumers get values,
// never live references.
type Snapshot struct {
	Course           *types.Course
	IntroDurations   types.DurationMap
	ChapterDurations types.DurationMap
}

// Session owns the current course identity and drives the load pipeline:
// fetch, reconcile missing content (once per course identity), resolve
// durations, commit. Every async result is checked against the session token
// before committing, so a rapid course switch can never be overwritten by a
// stale pass.
type Session struct {
	service  orchestrator.Service
	orch     *orchestrator.Orchestrator
	resolver *audio.Resolver
	log      *logger.Logger

	mu        sync.Mutex
	token     string
	courseID  string
	attempted bool
	current   *Snapshot
}

// New creates an empty session.
func New(service orchestrator.Service, orch *orchestrator.Orchestrator, resolver *audio.Resolver, log *logger.Logger) *Session {
	return &Session{
		service:  service,
		orch:     orch,
		resolver: resolver,
		log:      log,
	}
}

// Load makes courseID the session's current course and brings its playback
// state up to date. The first load of a course identity runs one
// reconciliation pass; later loads only refetch and re-resolve durations.
func (s *Session) Load(ctx context.Context, courseID string) (*Snapshot, error) {
	token, runReconcile := s.begin(courseID)

	course, err := s.service.GetCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load course %s: %w", courseID, err)
	}

	if runReconcile {
		outcome, err := s.orch.Reconcile(ctx, course)
		if err != nil {
			// The final refresh failed; the pass is fatal and not retried.
			return nil, err
		}
		if outcome.Refreshed != nil {
			course = outcome.Refreshed
		}
	}

	// Intro and chapter durations are unrelated; resolve them concurrently.
	var introDur, chapterDur types.DurationMap
	var g errgroup.Group
	g.Go(func() error {
		introDur = s.resolver.Resolve(ctx, course.IntroSlides)
		return nil
	})
	g.Go(func() error {
		chapterDur = s.resolver.Resolve(ctx, course.ChapterSlides)
		return nil
	})
	_ = g.Wait()

	snap := &Snapshot{
		Course:           course,
		IntroDurations:   introDur,
		ChapterDurations: chapterDur,
	}

	if !s.commit(token, snap) {
		s.log.Info("discarding stale course load", "course", courseID)
		return nil, ErrStale
	}
	return snap, nil
}

// Current returns the committed snapshot for the current course, or nil when
// nothing has loaded yet.
func (s *Session) Current() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// begin switches the session to courseID if needed and claims the single
// reconciliation pass for this course identity.
func (s *Session) begin(courseID string) (token string, runReconcile bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if courseID != s.courseID {
		s.courseID = courseID
		s.token = uuid.NewString()
		s.attempted = false
		s.current = nil
	}

	runReconcile = !s.attempted
	s.attempted = true
	return s.token, runReconcile
}

// commit installs the snapshot only if the session token is still current.
func (s *Session) commit(token string, snap *Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.token {
		return false
	}
	s.current = snap
	return true
}
