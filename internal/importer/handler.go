package importer

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"

	"github.com/receptor-app/receptor/internal/jobs"
	"github.com/receptor-app/receptor/pkg/handlers"
	"github.com/receptor-app/receptor/pkg/middleware"
	"github.com/receptor-app/receptor/pkg/routes"
)

// Handler provides the import HTTP surface.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
}

func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = 10 << 20
	}
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "importer"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the import route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/imports",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/image", Handler: h.Image},
			{Method: "POST", Pattern: "/url", Handler: h.URL},
			{Method: "POST", Pattern: "/text", Handler: h.Text},
			{Method: "POST", Pattern: "/blank", Handler: h.Blank},
		},
	}
}

// RetryRoutes returns the retry endpoint, mounted under the jobs prefix.
func (h *Handler) RetryRoutes() routes.Group {
	return routes.Group{
		Prefix: "/jobs",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/{id}/retry", Handler: h.Retry},
		},
	}
}

// Image accepts a multipart upload of one or more photos under the
// "images" field, with an optional "target_locale" value.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNoImages)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		files = r.MultipartForm.File["image"]
	}

	uploads, err := readUploads(files)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	job, err := h.sys.ImportImages(r.Context(), owner, uploads, r.FormValue("target_locale"))
	h.respondJob(w, job, err)
}

type urlRequest struct {
	URL          string `json:"url"`
	TargetLocale string `json:"target_locale"`
}

// URL imports a recipe from a web page.
func (h *Handler) URL(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req urlRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	job, err := h.sys.ImportURL(r.Context(), owner, req.URL, req.TargetLocale)

	var dup *DuplicateError
	if errors.As(err, &dup) {
		handlers.RespondJSON(w, http.StatusConflict, dup)
		return
	}

	h.respondJob(w, job, err)
}

type textRequest struct {
	Text         string `json:"text"`
	TargetLocale string `json:"target_locale"`
}

// Text imports a recipe from pasted free text.
func (h *Handler) Text(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req textRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	job, err := h.sys.ImportText(r.Context(), owner, req.Text, req.TargetLocale)
	h.respondJob(w, job, err)
}

type blankRequest struct {
	TargetLocale string `json:"target_locale"`
}

// Blank creates an empty editable draft job.
func (h *Handler) Blank(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req blankRequest
	if r.ContentLength > 0 {
		if err := handlers.DecodeJSON(r, &req); err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}
	}

	job, err := h.sys.ImportBlank(r.Context(), owner, req.TargetLocale)
	h.respondJob(w, job, err)
}

// Retry re-runs a failed job.
func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotRetryable)
		return
	}

	job, err := h.sys.Retry(r.Context(), owner, id)
	h.respondJob(w, job, err)
}

// respondJob writes the job even when the pipeline failed: a failed job
// carries its stage tag and sanitized message for the client.
func (h *Handler) respondJob(w http.ResponseWriter, job *jobs.Job, err error) {
	if err != nil {
		if job != nil {
			handlers.RespondJSON(w, MapHTTPStatus(err), job)
			return
		}
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, job)
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner, ok := middleware.Owner(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, middleware.ErrUnauthenticated)
		return "", false
	}
	return owner, true
}

func readUploads(files []*multipart.FileHeader) ([]Upload, error) {
	var uploads []Upload
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			return nil, ErrNoImages
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, ErrNoImages
		}

		uploads = append(uploads, Upload{
			Filename: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Data:     data,
		})
	}
	return uploads, nil
}
