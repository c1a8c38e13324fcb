package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/coursekit/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

const (
	maxMultipartMemory = 32 << 20
	maxUploadBytes     = 512 << 20
	formFieldFile      = "file"
)

// UploadHandler moves bytes between HTTP and the object store. Uploading is
// admin-only; downloads are public (lesson attachments and thumbnails are
// served from here).
type UploadHandler struct {
	uploadService  *services.UploadService
	contentService *services.ContentService
}

// NewUploadHandler constructs a handler with the provided dependencies.
func NewUploadHandler(uploadService *services.UploadService, contentService *services.ContentService) *UploadHandler {
	return &UploadHandler{
		uploadService:  uploadService,
		contentService: contentService,
	}
}

// UploadRouter registers upload routes on the given router.
func UploadRouter(r chi.Router, handler *UploadHandler, requireSession, requireAdmin func(http.Handler) http.Handler) {
	r.With(requireSession, requireAdmin).Post("/", handler.Upload)
	r.Get("/*", handler.Download)
}

// Upload stores one multipart file and returns its FileRef.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.uploadService.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "uploads are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile(formFieldFile)
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	ref, err := h.uploadService.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}
	writeJSON(w, http.StatusCreated, ref)
}

// Download streams an object by key.
func (h *UploadHandler) Download(w http.ResponseWriter, r *http.Request) {
	if !h.uploadService.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "uploads are not configured")
		return
	}

	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	object, err := h.uploadService.Open(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	defer object.Close()

	if _, err := io.Copy(w, object); err != nil {
		// Response already started; nothing sane left to send.
		return
	}
}

// UploadThumbnail stores a course thumbnail and upserts the course row.
// The course is created implicitly on first use.
func (h *UploadHandler) UploadThumbnail(w http.ResponseWriter, r *http.Request) {
	if !h.uploadService.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "uploads are not configured")
		return
	}

	courseID := strings.TrimSpace(chi.URLParam(r, "courseID"))
	if courseID == "" {
		writeError(w, http.StatusBadRequest, "course id is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile(formFieldFile)
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	ref, err := h.uploadService.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	course, err := h.contentService.SetCourseThumbnail(r.Context(), courseID, ref.URL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save thumbnail")
		return
	}

	var url string
	if course.ThumbnailURL != nil {
		url = *course.ThumbnailURL
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}
