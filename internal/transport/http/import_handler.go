package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "dbusana/internal/errors"
	customMiddleware "dbusana/internal/middleware"
	"dbusana/internal/validation"

	api "dbusana/pkg/contracts/api/v1"
)

// ImportHandler accepts sales file uploads and exposes import batch
// status with RFC 7807 compliant errors.
type ImportHandler struct {
	service         ImportServiceInterface
	importDir       string
	maxUploadBytes  int64
	logger          *slog.Logger
	errorHandler    *apierrors.ErrorHandler
	queryValidator  *customMiddleware.QueryParamValidator
	uploadValidator *validation.UploadValidator
}

// NewImportHandler creates a new import handler
func NewImportHandler(service ImportServiceInterface, importDir string, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ImportHandler {
	return &ImportHandler{
		service:         service,
		importDir:       importDir,
		maxUploadBytes:  maxUploadBytes,
		logger:          logger.With(slog.String("component", "import_handler")),
		errorHandler:    errorHandler,
		queryValidator:  customMiddleware.NewQueryParamValidator(logger, errorHandler),
		uploadValidator: validation.NewUploadValidator(maxUploadBytes, logger),
	}
}

// Routes returns the import routes with proper Chi patterns
func (h *ImportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.Upload)
	r.Get("/batches", h.ListBatches)

	r.Route("/batches/{id}", func(r chi.Router) {
		r.Use(h.BatchCtx) // Validate batch id parameter
		r.Get("/", h.GetBatch)
	})

	return r
}

// BatchCtx middleware validates the batch id parameter
func (h *ImportHandler) BatchCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("id", "Batch id is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Upload handles POST /api/import. The request carries a single
// multipart "file" part holding an .xlsx or .csv sales export.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.logger.WarnContext(r.Context(), "rejecting import upload",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusRequestEntityTooLarge,
			"UPLOAD_TOO_LARGE",
			fmt.Sprintf("Upload exceeds the %d byte limit", h.maxUploadBytes),
		))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "Multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	fileName := filepath.Base(header.Filename)
	if err := h.uploadValidator.ValidateUpload(fileName, header.Size); err != nil {
		render.Render(w, r, apierrors.MapImportError(err, reqID))
		return
	}

	destPath := filepath.Join(h.importDir, fmt.Sprintf("%d_%s", time.Now().UnixNano(), fileName))

	if err := h.saveUpload(file, destPath); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to persist upload",
			slog.String("error", err.Error()),
			slog.String("file_name", fileName),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "import upload received",
		slog.String("file_name", fileName),
		slog.Int64("size_bytes", header.Size),
		slog.String("request_id", reqID),
	)

	batch, err := h.service.Import(r.Context(), fileName, destPath)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "import failed",
			slog.String("error", err.Error()),
			slog.String("file_name", fileName),
			slog.String("request_id", reqID),
		)
		render.Render(w, r, apierrors.MapImportError(err, reqID))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   batch,
	})
}

func (h *ImportHandler) saveUpload(src io.Reader, destPath string) error {
	if err := os.MkdirAll(h.importDir, 0o755); err != nil {
		return fmt.Errorf("create import dir: %w", err)
	}
	dest, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	defer dest.Close()
	if _, err := io.Copy(dest, src); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("write upload file: %w", err)
	}
	return nil
}

// ListBatches handles GET /api/import/batches
func (h *ImportHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	var req api.ImportListRequest
	var ok bool

	req.Page, ok = h.queryValidator.ValidateInt(w, r, "page", 1, 10000, 1)
	if !ok {
		return
	}
	req.PageSize, ok = h.queryValidator.ValidateInt(w, r, "page_size", 1, 100, 20)
	if !ok {
		return
	}

	req.Status = r.URL.Query().Get("status")
	switch req.Status {
	case "", "pending", "running", "completed", "partial", "failed":
	default:
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("status", fmt.Sprintf("Unknown batch status: %s", req.Status)))
		return
	}

	batches := h.service.ListBatches(r.Context(), req.Status)
	total := len(batches)

	// Batches come back newest first; slice the requested page.
	start := (req.Page - 1) * req.PageSize
	if start > total {
		start = total
	}
	end := start + req.PageSize
	if end > total {
		end = total
	}

	render.JSON(w, r, map[string]interface{}{
		"status":    "success",
		"data":      batches[start:end],
		"count":     end - start,
		"total":     total,
		"page":      req.Page,
		"page_size": req.PageSize,
	})
}

// GetBatch handles GET /api/import/batches/{id}
func (h *ImportHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	id := chi.URLParam(r, "id")

	batch, err := h.service.GetBatch(r.Context(), id)
	if err != nil {
		h.logger.WarnContext(r.Context(), "import batch lookup failed",
			slog.String("batch_id", id),
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		render.Render(w, r, apierrors.MapImportError(err, reqID))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   batch,
	})
}
