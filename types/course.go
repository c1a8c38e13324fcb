package types

import "time"

// Course is identified by an externally chosen slug, not an auto-generated
// id. A row is created implicitly the first time a thumbnail is uploaded.
type Course struct {
	ID           string    `json:"id" db:"id"`
	Title        *string   `json:"title" db:"title"`
	ThumbnailURL *string   `json:"thumbnailUrl" db:"thumbnail_url"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Module mirrors the modules table. Curriculum structure (titles, ordering,
// lecture metadata) lives in static application configuration; no serving
// path reads this table. It exists as an extension point only.
type Module struct {
	ID          int       `json:"id" db:"id"`
	CourseID    string    `json:"course_id" db:"course_id"`
	ModuleIndex int       `json:"module_index" db:"module_index"`
	Title       *string   `json:"title" db:"title"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Lesson holds editable content for one position in the curriculum. The
// composite key (course id, module index, lesson index) is unique; both
// indices are zero-based. The numeric ID exists only to anchor lesson_files.
type Lesson struct {
	ID          int       `json:"id" db:"id"`
	CourseID    string    `json:"course_id" db:"course_id"`
	ModuleIndex int       `json:"module_index" db:"module_index"`
	LessonIndex int       `json:"lesson_index" db:"lesson_index"`
	Title       *string   `json:"title" db:"title"`
	Content     *string   `json:"content" db:"content"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// LessonFile is an attachment owned by exactly one lesson. Saves use
// full-replace semantics: every prior row for the lesson is deleted before
// the new set is inserted.
type LessonFile struct {
	ID          int       `json:"id" db:"id"`
	LessonID    int       `json:"lesson_id" db:"lesson_id"`
	URL         string    `json:"url" db:"url"`
	FileName    string    `json:"fileName" db:"file_name"`
	FileSize    int64     `json:"fileSize" db:"file_size"`
	ContentType string    `json:"contentType" db:"content_type"`
	StorageKey  string    `json:"key" db:"storage_key"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// FileRef is the wire shape of a lesson attachment.
type FileRef struct {
	URL         string `json:"url"`
	FileName    string `json:"fileName"`
	FileSize    int64  `json:"fileSize"`
	ContentType string `json:"contentType"`
	Key         string `json:"key"`
}
