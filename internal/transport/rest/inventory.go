package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stockdesk/stockdesk/internal/inventory"
	"github.com/stockdesk/stockdesk/pkg/web"
)

// InventoryHandler exposes stock records over HTTP.
type InventoryHandler struct {
	service  inventory.InventoryService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewInventoryHandler creates a new InventoryHandler with the provided service.
func NewInventoryHandler(service inventory.InventoryService, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest_inventory"),
	}
}

// RegisterRoutes registers the HTTP routes for inventory.
func (h *InventoryHandler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/availability", h.Availability)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Post("/adjust", h.Adjust)
			r.Post("/reserve", h.Reserve)
			r.Post("/release", h.Release)
		})
	})
}

// List returns all records, or the records of one product when product_id is given.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	if r.URL.Query().Get("product_id") != "" {
		productID, ok := web.ParseValidateGt(r, w, mLogger, "product_id", 0)
		if !ok {
			return
		}
		web.RespondJSON(w, mLogger, http.StatusOK, h.service.GetByProduct(int64(productID)))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, h.service.List())
}

// FindByID retrieves a record by its ID.
func (h *InventoryHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	found, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error retrieving inventory", "ID", id, "error", err)
		web.RespondError(w, mLogger, statusFor(err), fmt.Sprintf("Failed to retrieve inventory with ID %d", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// Availability reports whether the requested quantity is free of
// reservations at one product/location pair.
func (h *InventoryHandler) Availability(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	productID, ok := web.ParseValidateGt(r, w, mLogger, "product_id", 0)
	if !ok {
		return
	}
	locationID, ok := web.ParseValidateGt(r, w, mLogger, "location_id", 0)
	if !ok {
		return
	}
	quantity, ok := web.ParseValidateGt(r, w, mLogger, "quantity", 0)
	if !ok {
		return
	}

	available := h.service.HasAvailableStock(int64(productID), int64(locationID), quantity)
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]bool{"available": available})
}

// Create handles the creation of a new stock record.
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto inventory.InventoryCreateDto
	if !decodeValid(w, r, h.validate, mLogger, &dto) {
		return
	}

	created, err := h.service.Create(r.Context(), dto)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error creating inventory", "error", err)
		web.RespondError(w, mLogger, statusFor(err), "Failed to create inventory")
		return
	}
	mLogger.InfoContext(r.Context(), "Inventory created successfully", "ID", created.ID)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Update replaces a stock record.
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var dto inventory.InventoryDto
	if !decodeValid(w, r, h.validate, mLogger, &dto) {
		return
	}
	dto.ID = id

	updated, err := h.service.Update(r.Context(), dto)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error updating inventory", "ID", id, "error", err)
		web.RespondError(w, mLogger, statusFor(err), fmt.Sprintf("Failed to update inventory with ID %d", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Delete removes a stock record.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		mLogger.WarnContext(r.Context(), "Error deleting inventory", "ID", id, "error", err)
		web.RespondError(w, mLogger, statusFor(err), fmt.Sprintf("Failed to delete inventory with ID %d", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Adjust changes current stock by a signed delta.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var dto inventory.StockAdjustDto
	if !decodeValid(w, r, h.validate, mLogger, &dto) {
		return
	}

	updated, err := h.service.Adjust(r.Context(), id, dto.Delta)
	if err != nil {
		h.respondStockError(w, r, mLogger, id, "adjust", err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Reserve holds units against available stock.
func (h *InventoryHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var dto inventory.ReservationDto
	if !decodeValid(w, r, h.validate, mLogger, &dto) {
		return
	}

	updated, err := h.service.Reserve(r.Context(), id, dto.Quantity)
	if err != nil {
		h.respondStockError(w, r, mLogger, id, "reserve", err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Release returns previously reserved units to the available pool.
func (h *InventoryHandler) Release(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var dto inventory.ReservationDto
	if !decodeValid(w, r, h.validate, mLogger, &dto) {
		return
	}

	updated, err := h.service.Release(r.Context(), id, dto.Quantity)
	if err != nil {
		h.respondStockError(w, r, mLogger, id, "release", err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

func (h *InventoryHandler) respondStockError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, id int64, op string, err error) {
	if errors.Is(err, inventory.ErrInsufficientStock) {
		mLogger.WarnContext(r.Context(), "Insufficient stock", "ID", id, "op", op)
		web.RespondError(w, mLogger, http.StatusConflict, err.Error())
		return
	}
	mLogger.WarnContext(r.Context(), "Stock operation failed", "ID", id, "op", op, "error", err)
	web.RespondError(w, mLogger, statusFor(err), fmt.Sprintf("Failed to %s stock for inventory with ID %d", op, id))
}

func (h *InventoryHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}
