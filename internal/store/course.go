package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/coursekit/apiserver/types"
	"github.com/jmoiron/sqlx"
)

// CourseRepository handles persistence for courses, keyed by an externally
// chosen slug.
type CourseRepository struct {
	db *sqlx.DB
}

func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) GetByID(ctx context.Context, id string) (types.Course, error) {
	const query = `
		SELECT id, title, thumbnail_url, created_at, updated_at
		FROM courses
		WHERE id = ?`
	var course types.Course
	err := r.db.GetContext(ctx, &course, r.db.Rebind(query), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Course{}, ErrNotFound
		}
		return types.Course{}, err
	}
	return course, nil
}

// UpsertThumbnail creates the course row on first use and sets its
// thumbnail URL.
func (r *CourseRepository) UpsertThumbnail(ctx context.Context, id, url string) (types.Course, error) {
	now := time.Now().UTC()

	const query = `
		INSERT INTO courses (id, thumbnail_url, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id)
		DO UPDATE SET thumbnail_url = excluded.thumbnail_url, updated_at = excluded.updated_at
		RETURNING id, title, thumbnail_url, created_at, updated_at`
	var course types.Course
	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), id, url, now, now).Scan(
		&course.ID,
		&course.Title,
		&course.ThumbnailURL,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err != nil {
		return types.Course{}, err
	}
	return course, nil
}
