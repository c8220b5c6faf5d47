package rest

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stockdesk/stockdesk/internal/customer"
	"github.com/stockdesk/stockdesk/pkg/web"
)

// CustomerHandler exposes customer records over HTTP.
type CustomerHandler struct {
	service  customer.CustomerService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewCustomerHandler creates a new CustomerHandler with the provided service.
func NewCustomerHandler(service customer.CustomerService, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest_customers"),
	}
}

// RegisterRoutes registers the HTTP routes for customers.
func (h *CustomerHandler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/customers", func(r chi.Router) {
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

// List returns all active customers, or resolves one by email.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	if email := r.URL.Query().Get("email"); email != "" {
		found, ok := h.service.GetByEmail(email)
		if !ok {
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Customer with email %s not found", email))
			return
		}
		web.RespondJSON(w, mLogger, http.StatusOK, found)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, h.service.List())
}

// FindByID retrieves a customer by ID, deleted ones included.
func (h *CustomerHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	found, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error retrieving customer", "ID", id, "error", err)
		web.RespondError(w, mLogger, statusFor(err), fmt.Sprintf("Failed to retrieve customer with ID %d", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// Create handles the creation of a new customer.
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto customer.CustomerCreateDto
	if !decodeValid(w, r, h.validate, mLogger, &dto) {
		return
	}

	created, err := h.service.Create(r.Context(), dto)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error creating customer", "error", err)
		web.RespondError(w, mLogger, statusFor(err), "Failed to create customer")
		return
	}
	mLogger.InfoContext(r.Context(), "Customer created successfully", "ID", created.ID)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Update replaces a customer's contact details.
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var dto customer.CustomerDto
	if !decodeValid(w, r, h.validate, mLogger, &dto) {
		return
	}
	dto.ID = id

	updated, err := h.service.Update(r.Context(), dto)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error updating customer", "ID", id, "error", err)
		web.RespondError(w, mLogger, statusFor(err), fmt.Sprintf("Failed to update customer with ID %d", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Delete soft-deletes a customer.
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		mLogger.WarnContext(r.Context(), "Error deleting customer", "ID", id, "error", err)
		web.RespondError(w, mLogger, statusFor(err), fmt.Sprintf("Failed to delete customer with ID %d", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restore brings a soft-deleted customer back.
func (h *CustomerHandler) Restore(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	restored, err := h.service.Restore(r.Context(), id)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error restoring customer", "ID", id, "error", err)
		web.RespondError(w, mLogger, statusFor(err), fmt.Sprintf("Failed to restore customer with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Customer restored successfully", "ID", id)
	web.RespondJSON(w, mLogger, http.StatusOK, restored)
}

func (h *CustomerHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}
