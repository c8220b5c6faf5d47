package rest

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stockdesk/stockdesk/internal/catalog"
	"github.com/stockdesk/stockdesk/pkg/web"
)

// CategoryHandler exposes product categories over HTTP. Delete is a soft
// delete; restore brings a deleted category back.
type CategoryHandler struct {
	service  catalog.CategoryService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewCategoryHandler creates a new CategoryHandler with the provided service.
func NewCategoryHandler(service catalog.CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest_catalog"),
	}
}

// RegisterRoutes registers the HTTP routes for categories.
func (h *CategoryHandler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Post("/restore", h.Restore)
		})
	})
}

// List returns all active categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	web.RespondJSON(w, mLogger, http.StatusOK, h.service.List())
}

// FindByID retrieves a category by ID, deleted ones included.
func (h *CategoryHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	found, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error retrieving category", "ID", id, "error", err)
		web.RespondError(w, mLogger, statusFor(err), fmt.Sprintf("Failed to retrieve category with ID %d", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// Create handles the creation of a new category.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto catalog.CategoryCreateDto
	if !decodeValid(w, r, h.validate, mLogger, &dto) {
		return
	}

	created, err := h.service.Create(r.Context(), dto)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error creating category", "error", err)
		web.RespondError(w, mLogger, statusFor(err), "Failed to create category")
		return
	}
	mLogger.InfoContext(r.Context(), "Category created successfully", "ID", created.ID)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Update renames or re-describes a category.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var dto catalog.CategoryDto
	if !decodeValid(w, r, h.validate, mLogger, &dto) {
		return
	}
	dto.ID = id

	updated, err := h.service.Update(r.Context(), dto)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error updating category", "ID", id, "error", err)
		web.RespondError(w, mLogger, statusFor(err), fmt.Sprintf("Failed to update category with ID %d", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Delete soft-deletes a category.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		mLogger.WarnContext(r.Context(), "Error deleting category", "ID", id, "error", err)
		web.RespondError(w, mLogger, statusFor(err), fmt.Sprintf("Failed to delete category with ID %d", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restore brings a soft-deleted category back.
func (h *CategoryHandler) Restore(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	restored, err := h.service.Restore(r.Context(), id)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error restoring category", "ID", id, "error", err)
		web.RespondError(w, mLogger, statusFor(err), fmt.Sprintf("Failed to restore category with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Category restored successfully", "ID", id)
	web.RespondJSON(w, mLogger, http.StatusOK, restored)
}

func (h *CategoryHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}
