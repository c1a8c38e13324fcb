package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/coursekit/apiserver/types"
	"github.com/jmoiron/sqlx"
)

// LessonRepository handles persistence for lessons and their attachments.
// Lessons are addressed by the composite key (course id, module index,
// lesson index); every write path uses get-or-create semantics.
type LessonRepository struct {
	db *sqlx.DB
}

func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// Get fetches a lesson and its files. Returns ErrNotFound when no row
// exists for the composite key.
func (r *LessonRepository) Get(ctx context.Context, courseID string, moduleIndex, lessonIndex int) (types.Lesson, []types.LessonFile, error) {
	const query = `
		SELECT id, course_id, module_index, lesson_index, title, content, created_at, updated_at
		FROM lessons
		WHERE course_id = ? AND module_index = ? AND lesson_index = ?`
	var lesson types.Lesson
	err := r.db.GetContext(ctx, &lesson, r.db.Rebind(query), courseID, moduleIndex, lessonIndex)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Lesson{}, nil, ErrNotFound
		}
		return types.Lesson{}, nil, err
	}

	files, err := r.filesForLesson(ctx, lesson.ID)
	if err != nil {
		return types.Lesson{}, nil, err
	}
	return lesson, files, nil
}

// SaveContent upserts the lesson row for the composite key and replaces its
// attachment set. The delete and re-insert run in one transaction so a
// concurrent reader never observes a half-replaced file list.
func (r *LessonRepository) SaveContent(ctx context.Context, courseID string, moduleIndex, lessonIndex int, content string, files []types.FileRef) error {
	now := time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := ensureCourse(ctx, tx, courseID, now); err != nil {
		return err
	}

	const upsert = `
		INSERT INTO lessons (course_id, module_index, lesson_index, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (course_id, module_index, lesson_index)
		DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at
		RETURNING id`
	var lessonID int
	err = tx.QueryRowContext(ctx, tx.Rebind(upsert), courseID, moduleIndex, lessonIndex, content, now, now).Scan(&lessonID)
	if err != nil {
		return err
	}

	const deleteFiles = `DELETE FROM lesson_files WHERE lesson_id = ?`
	if _, err := tx.ExecContext(ctx, tx.Rebind(deleteFiles), lessonID); err != nil {
		return err
	}

	const insertFile = `
		INSERT INTO lesson_files (lesson_id, url, file_name, file_size, content_type, storage_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	for _, file := range files {
		if _, err := tx.ExecContext(ctx, tx.Rebind(insertFile),
			lessonID, file.URL, file.FileName, file.FileSize, file.ContentType, file.Key, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SetTitle upserts the lesson row touching only the title column; content
// and files are untouched.
func (r *LessonRepository) SetTitle(ctx context.Context, courseID string, moduleIndex, lessonIndex int, title string) error {
	now := time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := ensureCourse(ctx, tx, courseID, now); err != nil {
		return err
	}

	const upsert = `
		INSERT INTO lessons (course_id, module_index, lesson_index, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (course_id, module_index, lesson_index)
		DO UPDATE SET title = excluded.title, updated_at = excluded.updated_at`
	if _, err := tx.ExecContext(ctx, tx.Rebind(upsert), courseID, moduleIndex, lessonIndex, title, now, now); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *LessonRepository) filesForLesson(ctx context.Context, lessonID int) ([]types.LessonFile, error) {
	const query = `
		SELECT id, lesson_id, url, file_name, file_size, content_type, storage_key, created_at
		FROM lesson_files
		WHERE lesson_id = ?
		ORDER BY id`
	var files []types.LessonFile
	if err := r.db.SelectContext(ctx, &files, r.db.Rebind(query), lessonID); err != nil {
		return nil, err
	}
	return files, nil
}

// ensureCourse creates the owning course row if absent so the lessons
// foreign key always has a parent.
func ensureCourse(ctx context.Context, tx *sqlx.Tx, courseID string, now time.Time) error {
	const query = `
		INSERT INTO courses (id, created_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO NOTHING`
	_, err := tx.ExecContext(ctx, tx.Rebind(query), courseID, now, now)
	return err
}
