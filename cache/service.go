package cache

import (
	"context"

	"coursecast/client"
	"coursecast/orchestrator"
	"coursecast/types"
)

// CachedService decorates a generation service with the course cache.
// Generation calls invalidate the course so the follow-up refresh always
// fetches the new content.
type CachedService struct {
	inner orchestrator.Service
	cache *CourseCache
}

// WrapService layers the cache over a generation service.
func WrapService(inner orchestrator.Service, cache *CourseCache) *CachedService {
	return &CachedService{inner: inner, cache: cache}
}

func (s *CachedService) GetCourse(ctx context.Context, courseID string) (*types.Course, error) {
	if course := s.cache.Get(ctx, courseID); course != nil {
		return course, nil
	}

	course, err := s.inner.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, course)
	return course, nil
}

func (s *CachedService) GenerateIntro(ctx context.Context, courseID string, layout types.CourseLayout) (*client.GenerationResult, error) {
	result, err := s.inner.GenerateIntro(ctx, courseID, layout)
	if err == nil {
		s.cache.Invalidate(ctx, courseID)
	}
	return result, err
}

func (s *CachedService) GenerateChapter(ctx context.Context, courseID string, chapter types.Chapter) (*client.GenerationResult, error) {
	result, err := s.inner.GenerateChapter(ctx, courseID, chapter)
	if err == nil {
		s.cache.Invalidate(ctx, courseID)
	}
	return result, err
}
