package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/coursekit/apiserver/internal/services"
	"github.com/coursekit/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// LessonHandler provides HTTP handlers for lesson content. Reads are
// public; writes go through the session + admin middleware.
type LessonHandler struct {
	contentService *services.ContentService
	events         *services.EventPublisher
}

// NewLessonHandler constructs a handler with the provided dependencies.
func NewLessonHandler(contentService *services.ContentService, events *services.EventPublisher) *LessonHandler {
	return &LessonHandler{
		contentService: contentService,
		events:         events,
	}
}

// LessonRouter registers lesson routes under
// /courses/{courseID}/modules/{moduleIndex}/lessons/{lessonIndex}.
func LessonRouter(r chi.Router, handler *LessonHandler, requireSession, requireAdmin func(http.Handler) http.Handler) {
	r.Route("/{courseID}/modules/{moduleIndex}/lessons/{lessonIndex}", func(r chi.Router) {
		r.Get("/", handler.GetLesson)
		r.With(requireSession, requireAdmin).Post("/", handler.SaveLesson)
		r.With(requireSession, requireAdmin).Patch("/title", handler.SetTitle)
	})
}

func (h *LessonHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	courseID, moduleIndex, lessonIndex, err := lessonKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	lesson, err := h.contentService.GetLesson(r.Context(), courseID, moduleIndex, lessonIndex)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load lesson")
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

// saveLessonRequest keeps raw fields so the handler can reject a non-string
// content or non-array files with a 400 instead of silently coercing.
type saveLessonRequest struct {
	Content json.RawMessage `json:"content"`
	Files   json.RawMessage `json:"files"`
}

func (h *LessonHandler) SaveLesson(w http.ResponseWriter, r *http.Request) {
	courseID, moduleIndex, lessonIndex, err := lessonKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req saveLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	var content string
	if isJSONNull(req.Content) || json.Unmarshal(req.Content, &content) != nil {
		writeError(w, http.StatusBadRequest, "content must be a string")
		return
	}

	var files []types.FileRef
	if isJSONNull(req.Files) || !isJSONArray(req.Files) || json.Unmarshal(req.Files, &files) != nil {
		writeError(w, http.StatusBadRequest, "files must be an array")
		return
	}

	if err := h.contentService.SaveLessonContent(r.Context(), courseID, moduleIndex, lessonIndex, content, files); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save lesson")
		return
	}

	h.events.LessonSaved(r.Context(), courseID, moduleIndex, lessonIndex)

	lesson, err := h.contentService.GetLesson(r.Context(), courseID, moduleIndex, lessonIndex)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load lesson")
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

type setTitleRequest struct {
	Title json.RawMessage `json:"title"`
}

func (h *LessonHandler) SetTitle(w http.ResponseWriter, r *http.Request) {
	courseID, moduleIndex, lessonIndex, err := lessonKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req setTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	var title string
	if isJSONNull(req.Title) || json.Unmarshal(req.Title, &title) != nil {
		writeError(w, http.StatusBadRequest, "title must be a string")
		return
	}

	if err := h.contentService.SetLessonTitle(r.Context(), courseID, moduleIndex, lessonIndex, title); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save title")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"title": title})
}

func lessonKey(r *http.Request) (string, int, int, error) {
	courseID := strings.TrimSpace(chi.URLParam(r, "courseID"))
	if courseID == "" {
		return "", 0, 0, errInvalidLessonKey
	}
	moduleIndex, err := parseIndex(chi.URLParam(r, "moduleIndex"))
	if err != nil {
		return "", 0, 0, err
	}
	lessonIndex, err := parseIndex(chi.URLParam(r, "lessonIndex"))
	if err != nil {
		return "", 0, 0, err
	}
	return courseID, moduleIndex, lessonIndex, nil
}

var errInvalidLessonKey = &indexError{"invalid lesson key"}

type indexError struct{ msg string }

func (e *indexError) Error() string { return e.msg }

// parseIndex accepts the zero-based positional indices of the curriculum.
func parseIndex(raw string) (int, error) {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, errInvalidLessonKey
	}
	return value, nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "[")
}
