package services

import (
	"context"
	"errors"
	"strings"

	"github.com/coursekit/apiserver/internal/store"
	"github.com/coursekit/apiserver/types"
)

// LessonRepository defines persistence operations for lessons.
type LessonRepository interface {
	Get(ctx context.Context, courseID string, moduleIndex, lessonIndex int) (types.Lesson, []types.LessonFile, error)
	SaveContent(ctx context.Context, courseID string, moduleIndex, lessonIndex int, content string, files []types.FileRef) error
	SetTitle(ctx context.Context, courseID string, moduleIndex, lessonIndex int, title string) error
}

// CourseRepository defines persistence operations for courses.
type CourseRepository interface {
	GetByID(ctx context.Context, id string) (types.Course, error)
	UpsertThumbnail(ctx context.Context, id, url string) (types.Course, error)
}

// ObjectRemover deletes stored objects by key. Satisfied by the upload
// service; nil disables cleanup of replaced attachments.
type ObjectRemover interface {
	Delete(ctx context.Context, key string) error
}

// LessonContent is the read model for one curriculum position. Content is
// nil when the lesson has never been saved or holds only whitespace; Files
// is always non-nil.
type LessonContent struct {
	Content *string         `json:"content"`
	Files   []types.FileRef `json:"files"`
}

// ContentService encapsulates lesson-content use-cases.
type ContentService struct {
	lessons LessonRepository
	courses CourseRepository
	objects ObjectRemover
}

func NewContentService(lessons LessonRepository, courses CourseRepository, objects ObjectRemover) *ContentService {
	return &ContentService{lessons: lessons, courses: courses, objects: objects}
}

// GetLesson reads the stored content for a curriculum position. Absence is
// a representable state, never an error.
func (s *ContentService) GetLesson(ctx context.Context, courseID string, moduleIndex, lessonIndex int) (LessonContent, error) {
	lesson, files, err := s.lessons.Get(ctx, courseID, moduleIndex, lessonIndex)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LessonContent{Files: []types.FileRef{}}, nil
		}
		return LessonContent{}, err
	}

	result := LessonContent{Files: make([]types.FileRef, 0, len(files))}
	if lesson.Content != nil && strings.TrimSpace(*lesson.Content) != "" {
		result.Content = lesson.Content
	}
	for _, f := range files {
		result.Files = append(result.Files, types.FileRef{
			URL:         f.URL,
			FileName:    f.FileName,
			FileSize:    f.FileSize,
			ContentType: f.ContentType,
			Key:         f.StorageKey,
		})
	}
	return result, nil
}

// SaveLessonContent writes content and replaces the attachment set for a
// curriculum position. Attachments dropped by the replace are removed from
// object storage, best-effort: the database write is the source of truth
// and never fails on a storage error.
func (s *ContentService) SaveLessonContent(ctx context.Context, courseID string, moduleIndex, lessonIndex int, content string, files []types.FileRef) error {
	dropped := s.droppedKeys(ctx, courseID, moduleIndex, lessonIndex, files)
	if err := s.lessons.SaveContent(ctx, courseID, moduleIndex, lessonIndex, content, files); err != nil {
		return err
	}
	for _, key := range dropped {
		_ = s.objects.Delete(ctx, key)
	}
	return nil
}

// droppedKeys lists storage keys present on the stored lesson but absent
// from the incoming attachment set.
func (s *ContentService) droppedKeys(ctx context.Context, courseID string, moduleIndex, lessonIndex int, next []types.FileRef) []string {
	if s.objects == nil {
		return nil
	}
	_, existing, err := s.lessons.Get(ctx, courseID, moduleIndex, lessonIndex)
	if err != nil {
		return nil
	}

	kept := make(map[string]struct{}, len(next))
	for _, f := range next {
		kept[f.Key] = struct{}{}
	}
	var dropped []string
	for _, f := range existing {
		if f.StorageKey == "" {
			continue
		}
		if _, ok := kept[f.StorageKey]; !ok {
			dropped = append(dropped, f.StorageKey)
		}
	}
	return dropped
}

// SetLessonTitle updates only the title for a curriculum position.
func (s *ContentService) SetLessonTitle(ctx context.Context, courseID string, moduleIndex, lessonIndex int, title string) error {
	return s.lessons.SetTitle(ctx, courseID, moduleIndex, lessonIndex, title)
}

// SetCourseThumbnail upserts the course row with a new thumbnail URL.
func (s *ContentService) SetCourseThumbnail(ctx context.Context, courseID, url string) (types.Course, error) {
	return s.courses.UpsertThumbnail(ctx, courseID, url)
}

// GetCourse fetches a course by slug.
func (s *ContentService) GetCourse(ctx context.Context, courseID string) (types.Course, error) {
	return s.courses.GetByID(ctx, courseID)
}
