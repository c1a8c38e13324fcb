package services

import (
	"context"
	"testing"

	"github.com/coursekit/apiserver/types"
)

func TestGetLessonAbsent(t *testing.T) {
	content := newTestContentService(t)

	lesson, err := content.GetLesson(context.Background(), "course-a", 0, 0)
	if err != nil {
		t.Fatalf("get absent lesson: %v", err)
	}
	if lesson.Content != nil {
		t.Fatalf("expected nil content, got %v", lesson.Content)
	}
	if lesson.Files == nil || len(lesson.Files) != 0 {
		t.Fatalf("expected empty file list, got %v", lesson.Files)
	}
}

func TestEmptyContentNormalization(t *testing.T) {
	content := newTestContentService(t)
	ctx := context.Background()

	for _, raw := range []string{"", "   ", "\n\t "} {
		if err := content.SaveLessonContent(ctx, "course-a", 0, 0, raw, nil); err != nil {
			t.Fatalf("save %q: %v", raw, err)
		}
		lesson, err := content.GetLesson(ctx, "course-a", 0, 0)
		if err != nil {
			t.Fatalf("get after saving %q: %v", raw, err)
		}
		if lesson.Content != nil {
			t.Fatalf("expected %q to read back as nil content, got %q", raw, *lesson.Content)
		}
	}
}

func TestSaveAndReadBackFiles(t *testing.T) {
	content := newTestContentService(t)
	ctx := context.Background()

	files := []types.FileRef{{
		URL:         "http://localhost:8080/uploads/k/slides.pdf",
		FileName:    "slides.pdf",
		FileSize:    1024,
		ContentType: "application/pdf",
		Key:         "k/slides.pdf",
	}}
	if err := content.SaveLessonContent(ctx, "course-a", 2, 3, "<h1>hi</h1>", files); err != nil {
		t.Fatalf("save: %v", err)
	}

	lesson, err := content.GetLesson(ctx, "course-a", 2, 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if lesson.Content == nil || *lesson.Content != "<h1>hi</h1>" {
		t.Fatalf("unexpected content %v", lesson.Content)
	}
	if len(lesson.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(lesson.Files))
	}
	if lesson.Files[0] != files[0] {
		t.Fatalf("file round-trip mismatch: %+v", lesson.Files[0])
	}
}

type recordingRemover struct {
	keys []string
}

func (r *recordingRemover) Delete(_ context.Context, key string) error {
	r.keys = append(r.keys, key)
	return nil
}

func TestReplacedAttachmentsAreRemovedFromStorage(t *testing.T) {
	remover := &recordingRemover{}
	content := newTestContentServiceWithRemover(t, remover)
	ctx := context.Background()

	fileRef := func(key string) types.FileRef {
		return types.FileRef{URL: "u/" + key, FileName: key + ".pdf", FileSize: 1, ContentType: "application/pdf", Key: key}
	}

	if err := content.SaveLessonContent(ctx, "course-a", 0, 0, "v1", []types.FileRef{fileRef("k/a"), fileRef("k/b")}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if len(remover.keys) != 0 {
		t.Fatalf("first save should delete nothing, got %v", remover.keys)
	}

	// k/b survives the replace, k/a does not.
	if err := content.SaveLessonContent(ctx, "course-a", 0, 0, "v2", []types.FileRef{fileRef("k/b"), fileRef("k/c")}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if len(remover.keys) != 1 || remover.keys[0] != "k/a" {
		t.Fatalf("expected only k/a removed, got %v", remover.keys)
	}
}

func TestSetCourseThumbnailCreatesCourse(t *testing.T) {
	content := newTestContentService(t)
	ctx := context.Background()

	course, err := content.SetCourseThumbnail(ctx, "course-a", "http://cdn/t.png")
	if err != nil {
		t.Fatalf("set thumbnail: %v", err)
	}
	if course.ID != "course-a" {
		t.Fatalf("unexpected course id %q", course.ID)
	}

	fetched, err := content.GetCourse(ctx, "course-a")
	if err != nil {
		t.Fatalf("get course: %v", err)
	}
	if fetched.ThumbnailURL == nil || *fetched.ThumbnailURL != "http://cdn/t.png" {
		t.Fatalf("unexpected thumbnail %v", fetched.ThumbnailURL)
	}
}
