package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursecast/client"
	"coursecast/logger"
	"coursecast/notify"
	"coursecast/types"
)

type fakeService struct {
	mu sync.Mutex

	introCalls   int
	chapterCalls []string
	getCalls     int

	introErr    error
	chapterErrs map[string]error
	getErr      error
	refreshed   *types.Course
}

func (f *fakeService) GenerateIntro(_ context.Context, _ string, _ types.CourseLayout) (*client.GenerationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.introCalls++
	if f.introErr != nil {
		return nil, f.introErr
	}
	return &client.GenerationResult{}, nil
}

func (f *fakeService) GenerateChapter(_ context.Context, _ string, ch types.Chapter) (*client.GenerationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chapterCalls = append(f.chapterCalls, ch.ChapterID)
	if err := f.chapterErrs[ch.ChapterID]; err != nil {
		return nil, err
	}
	return &client.GenerationResult{}, nil
}

func (f *fakeService) GetCourse(_ context.Context, courseID string) (*types.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.refreshed != nil {
		return f.refreshed, nil
	}
	return &types.Course{CourseID: courseID}, nil
}

func courseWithChapters(intro bool, chapterIDs ...string) *types.Course {
	course := &types.Course{
		CourseID: "course-1",
		CourseLayout: types.CourseLayout{
			CourseName: "Test Course",
		},
	}
	for _, id := range chapterIDs {
		course.CourseLayout.Chapters = append(course.CourseLayout.Chapters, types.Chapter{
			ChapterID:    id,
			ChapterTitle: "Chapter " + id,
		})
	}
	if intro {
		course.IntroSlides = []types.Slide{{SlideID: "intro-0"}}
	}
	return course
}

func newTestOrchestrator(svc Service) *Orchestrator {
	return New(svc, notify.Discard{}, logger.NewNop())
}

func TestReconcileNothingToDo(t *testing.T) {
	svc := &fakeService{}
	course := courseWithChapters(true, "c1", "c2")
	course.ChapterSlides = []types.Slide{
		{SlideID: "s1", ChapterID: "c1"},
		{SlideID: "s2", ChapterID: "c2"},
	}

	outcome, err := newTestOrchestrator(svc).Reconcile(context.Background(), course)

	require.NoError(t, err)
	assert.True(t, outcome.NothingToDo)
	assert.Zero(t, svc.introCalls)
	assert.Empty(t, svc.chapterCalls)
	assert.Zero(t, svc.getCalls, "a complete course must cause zero network calls")
}

func TestReconcileFillsAllGaps(t *testing.T) {
	svc := &fakeService{}
	course := courseWithChapters(false, "c1", "c2", "c3")

	outcome, err := newTestOrchestrator(svc).Reconcile(context.Background(), course)

	require.NoError(t, err)
	assert.False(t, outcome.NothingToDo)
	assert.Equal(t, []string{"c1", "c2", "c3"}, outcome.MissingChapters)
	assert.Equal(t, 1, svc.introCalls)
	assert.Equal(t, []string{"c1", "c2", "c3"}, svc.chapterCalls, "chapters run sequentially in layout order")
	assert.Equal(t, 1, svc.getCalls, "exactly one final refresh")
	assert.NotNil(t, outcome.Refreshed)
	assert.Empty(t, outcome.ChapterErrs)
}

func TestReconcileSkipsPresentChapters(t *testing.T) {
	svc := &fakeService{}
	course := courseWithChapters(true, "c1", "c2", "c3")
	course.ChapterSlides = []types.Slide{{SlideID: "s", ChapterID: "c2"}}

	_, err := newTestOrchestrator(svc).Reconcile(context.Background(), course)

	require.NoError(t, err)
	assert.Zero(t, svc.introCalls)
	assert.Equal(t, []string{"c1", "c3"}, svc.chapterCalls)
}

func TestReconcileRateLimitAbortsRemainingChapters(t *testing.T) {
	svc := &fakeService{
		chapterErrs: map[string]error{
			"c2": &client.RateLimitError{Message: "too many requests", RetryAfter: 7 * time.Second},
		},
	}
	course := courseWithChapters(true, "c1", "c2", "c3")

	outcome, err := newTestOrchestrator(svc).Reconcile(context.Background(), course)

	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, svc.chapterCalls, "c3 must never be attempted")
	assert.Equal(t, 1, svc.getCalls, "the final refresh still happens after an abort")
	assert.True(t, outcome.Aborted)
	assert.Equal(t, []string{"c3"}, outcome.SkippedChapters)
	assert.Equal(t, 7*time.Second, outcome.RetryAfter)

	var aborted bool
	for _, ev := range outcome.Events {
		if ev.Status == notify.StatusAborted {
			aborted = true
		}
	}
	assert.True(t, aborted, "the abort must be reported distinctly")
}

func TestReconcileGenericFailureContinues(t *testing.T) {
	svc := &fakeService{
		chapterErrs: map[string]error{
			"c2": &client.APIError{StatusCode: 500, Body: "boom"},
		},
	}
	course := courseWithChapters(true, "c1", "c2", "c3")

	outcome, err := newTestOrchestrator(svc).Reconcile(context.Background(), course)

	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3"}, svc.chapterCalls, "non-rate-limit failures don't stop siblings")
	assert.Equal(t, 1, svc.getCalls)
	assert.False(t, outcome.Aborted)
	assert.Error(t, outcome.ChapterErrs["c2"])
	assert.NotContains(t, outcome.ChapterErrs, "c1")
	assert.NotContains(t, outcome.ChapterErrs, "c3")
}

func TestReconcileIntroFailureDoesNotBlockChapters(t *testing.T) {
	svc := &fakeService{introErr: errors.New("generation backend down")}
	course := courseWithChapters(false, "c1", "c2")

	outcome, err := newTestOrchestrator(svc).Reconcile(context.Background(), course)

	require.NoError(t, err)
	assert.Error(t, outcome.IntroErr)
	assert.Equal(t, []string{"c1", "c2"}, svc.chapterCalls)
	assert.Equal(t, 1, svc.getCalls)
}

func TestReconcileRefreshFailureIsFatal(t *testing.T) {
	svc := &fakeService{getErr: errors.New("service unavailable")}
	course := courseWithChapters(false, "c1")

	outcome, err := newTestOrchestrator(svc).Reconcile(context.Background(), course)

	require.Error(t, err)
	assert.Nil(t, outcome.Refreshed)
}

func TestReconcileEmitsTaskTransitions(t *testing.T) {
	svc := &fakeService{}
	course := courseWithChapters(false, "c1")

	outcome, err := newTestOrchestrator(svc).Reconcile(context.Background(), course)
	require.NoError(t, err)

	byTask := make(map[string][]notify.Status)
	for _, ev := range outcome.Events {
		byTask[ev.TaskID] = append(byTask[ev.TaskID], ev.Status)
	}

	assert.Equal(t, []notify.Status{notify.StatusStarted, notify.StatusSuccess}, byTask["intro:course-1"])
	assert.Equal(t, []notify.Status{notify.StatusStarted, notify.StatusSuccess}, byTask["chapter:c1"])
}
