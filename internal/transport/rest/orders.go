package rest

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stockdesk/stockdesk/internal/order"
	"github.com/stockdesk/stockdesk/pkg/web"
)

// OrderHandler exposes orders over HTTP. The update endpoint carries the full
// desired item set; the service reconciles it against the committed one.
type OrderHandler struct {
	service  order.OrderService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewOrderHandler creates a new OrderHandler with the provided service.
func NewOrderHandler(service order.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest_orders"),
	}
}

// RegisterRoutes registers the HTTP routes for orders.
func (h *OrderHandler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
		})
	})
}

// List returns cached orders, optionally filtered by customer_id or status.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	if r.URL.Query().Get("customer_id") != "" {
		customerID, ok := web.ParseValidateGt(r, w, mLogger, "customer_id", 0)
		if !ok {
			return
		}
		web.RespondJSON(w, mLogger, http.StatusOK, h.service.ListByCustomer(int64(customerID)))
		return
	}
	if status := r.URL.Query().Get("status"); status != "" {
		web.RespondJSON(w, mLogger, http.StatusOK, h.service.ListByStatus(status))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, h.service.List())
}

// FindByID retrieves an order with its items by ID.
func (h *OrderHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	found, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error retrieving order", "ID", id, "error", err)
		web.RespondError(w, mLogger, statusFor(err), fmt.Sprintf("Failed to retrieve order with ID %d", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// Create handles the creation of a new order with its initial items.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto order.OrderCreateDto
	if !decodeValid(w, r, h.validate, mLogger, &dto) {
		return
	}

	created, err := h.service.Create(r.Context(), dto)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error creating order", "error", err)
		web.RespondError(w, mLogger, statusFor(err), "Failed to create order")
		return
	}
	mLogger.InfoContext(r.Context(), "Order created successfully", "ID", created.ID)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Update applies the parent update and the item merge in one transaction.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var dto order.OrderUpdateDto
	if !decodeValid(w, r, h.validate, mLogger, &dto) {
		return
	}
	dto.ID = id

	updated, err := h.service.UpdateWithItems(r.Context(), dto)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error updating order", "ID", id, "error", err)
		web.RespondError(w, mLogger, statusFor(err), fmt.Sprintf("Failed to update order with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Order updated successfully", "ID", updated.ID)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Delete removes an order and its items.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		mLogger.WarnContext(r.Context(), "Error deleting order", "ID", id, "error", err)
		web.RespondError(w, mLogger, statusFor(err), fmt.Sprintf("Failed to delete order with ID %d", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}
