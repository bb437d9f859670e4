package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"coursecast/client"
	"coursecast/logger"
	"coursecast/notify"
	"coursecast/types"
)

// Service is the slice of the generation service the orchestrator needs.
// *client.Client satisfies it.
type Service interface {
	GenerateIntro(ctx context.Context, courseID string, layout types.CourseLayout) (*client.GenerationResult, error)
	GenerateChapter(ctx context.Context, courseID string, chapter types.Chapter) (*client.GenerationResult, error)
	GetCourse(ctx context.Context, courseID string) (*types.Course, error)
}

// Event is one recorded task transition. Events are the orchestrator's full
// observable output; sinks only mirror them.
type Event struct {
	TaskID  string
	Status  notify.Status
	Message string
}

// Outcome summarizes one reconciliation pass.
type Outcome struct {
	// NothingToDo is set when the course was already complete and no network
	// call was made.
	NothingToDo bool

	// MissingChapters lists the chapter IDs that had no slides, in layout order.
	MissingChapters []string

	// IntroErr is the intro task failure, if any.
	IntroErr error

	// ChapterErrs maps failed chapter IDs to their errors.
	ChapterErrs map[string]error

	// Aborted is set when a rate limit stopped the chapter loop early.
	// SkippedChapters lists the chapters that were never attempted and
	// RetryAfter carries the service's suggested wait.
	Aborted         bool
	SkippedChapters []string
	RetryAfter      time.Duration

	// Refreshed is the course as fetched after all generation finished.
	Refreshed *types.Course

	// Events is the ordered task transition log.
	Events []Event
}

// Orchestrator fills the generation gaps in a freshly fetched course.
// It holds no per-course state; idempotency per course load is the session's
// contract.
type Orchestrator struct {
	service Service
	sink    notify.Sink
	log     *logger.Logger

	mu sync.Mutex // guards outcome mutation from the intro and chapter groups
}

// New creates an orchestrator. A nil sink discards notifications.
func New(service Service, sink notify.Sink, log *logger.Logger) *Orchestrator {
	if sink == nil {
		sink = notify.Discard{}
	}
	return &Orchestrator{service: service, sink: sink, log: log}
}

// Reconcile detects missing generated content and requests it: the intro as
// one task, missing chapters strictly sequentially in layout order. A rate
// limit aborts the remaining chapters; any other chapter failure is isolated.
// After both task groups finish the course is fetched exactly once, even if
// every task failed. The returned error only ever comes from that final
// refresh.
func (o *Orchestrator) Reconcile(ctx context.Context, course *types.Course) (*Outcome, error) {
	outcome := &Outcome{ChapterErrs: make(map[string]error)}

	needsIntro := len(course.IntroSlides) == 0
	for _, ch := range course.CourseLayout.Chapters {
		if !course.HasChapterSlides(ch.ChapterID) {
			outcome.MissingChapters = append(outcome.MissingChapters, ch.ChapterID)
		}
	}

	if !needsIntro && len(outcome.MissingChapters) == 0 {
		outcome.NothingToDo = true
		return outcome, nil
	}

	o.log.Info("reconciling course",
		"course", course.CourseID,
		"needsIntro", needsIntro,
		"missingChapters", len(outcome.MissingChapters))

	// The intro task and the chapter group run concurrently; chapters within
	// the group stay sequential so the rate-limited backend sees one
	// generation request at a time. Failures never cancel the sibling group.
	var g errgroup.Group

	if needsIntro {
		g.Go(func() error {
			o.generateIntro(ctx, course, outcome)
			return nil
		})
	}

	if len(outcome.MissingChapters) > 0 {
		g.Go(func() error {
			o.generateChapters(ctx, course, outcome)
			return nil
		})
	}

	_ = g.Wait()

	refreshed, err := o.service.GetCourse(ctx, course.CourseID)
	if err != nil {
		return outcome, fmt.Errorf("failed to refresh course %s: %w", course.CourseID, err)
	}
	outcome.Refreshed = refreshed

	return outcome, nil
}

func (o *Orchestrator) generateIntro(ctx context.Context, course *types.Course, outcome *Outcome) {
	taskID := "intro:" + course.CourseID
	o.emit(outcome, taskID, notify.StatusStarted, "generating course introduction")

	result, err := o.service.GenerateIntro(ctx, course.CourseID, course.CourseLayout)
	if err != nil {
		o.mu.Lock()
		outcome.IntroErr = err
		o.mu.Unlock()
		o.emit(outcome, taskID, notify.StatusFailure, err.Error())
		return
	}

	if result != nil && result.Skipped {
		o.emit(outcome, taskID, notify.StatusSuccess, "introduction already existed")
		return
	}
	o.emit(outcome, taskID, notify.StatusSuccess, "introduction generated")
}

func (o *Orchestrator) generateChapters(ctx context.Context, course *types.Course, outcome *Outcome) {
	missing := make(map[string]bool, len(outcome.MissingChapters))
	for _, id := range outcome.MissingChapters {
		missing[id] = true
	}

	chapters := course.CourseLayout.Chapters
	for i, ch := range chapters {
		if !missing[ch.ChapterID] {
			continue
		}

		taskID := "chapter:" + ch.ChapterID
		o.emit(outcome, taskID, notify.StatusStarted,
			fmt.Sprintf("generating chapter %q", ch.ChapterTitle))

		_, err := o.service.GenerateChapter(ctx, course.CourseID, ch)
		if err == nil {
			o.emit(outcome, taskID, notify.StatusSuccess, "chapter content generated")
			continue
		}

		o.mu.Lock()
		outcome.ChapterErrs[ch.ChapterID] = err
		o.mu.Unlock()
		o.emit(outcome, taskID, notify.StatusFailure, err.Error())

		var rl *client.RateLimitError
		if errors.As(err, &rl) {
			skipped := remainingMissing(chapters[i+1:], missing)
			o.mu.Lock()
			outcome.Aborted = true
			outcome.SkippedChapters = skipped
			outcome.RetryAfter = rl.RetryAfter
			o.mu.Unlock()
			o.emit(outcome, "chapters:"+course.CourseID, notify.StatusAborted,
				fmt.Sprintf("rate limited, skipping %d remaining chapter(s), retry after %s",
					len(skipped), rl.RetryAfter))
			return
		}
	}
}

func remainingMissing(chapters []types.Chapter, missing map[string]bool) []string {
	var out []string
	for _, ch := range chapters {
		if missing[ch.ChapterID] {
			out = append(out, ch.ChapterID)
		}
	}
	return out
}

// emit records an event and mirrors it to the sink. The sink sees events in
// recorded order but has no way to influence the pass.
func (o *Orchestrator) emit(outcome *Outcome, taskID string, status notify.Status, message string) {
	o.mu.Lock()
	outcome.Events = append(outcome.Events, Event{TaskID: taskID, Status: status, Message: message})
	o.mu.Unlock()
	o.sink.Notify(taskID, status, message)
}
