package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stockdesk/stockdesk/pkg/refresh"
	"github.com/stockdesk/stockdesk/pkg/storeerr"
)

// ErrInsufficientStock is returned when a reservation asks for more units
// than are currently available.
var ErrInsufficientStock = errors.New("insufficient stock")

// InventoryService defines the operations the transport layer consumes.
// Reads are served from the cache and fall back to the database on a miss;
// writes go to the database first and touch the cache only on success.
type InventoryService interface {
	// Warmup performs the initial full load into the cache.
	Warmup(ctx context.Context) error

	// Refresh schedules a detached cache reload and returns immediately.
	Refresh()

	// GetByID retrieves a record, falling back to the database on a cache miss.
	// Returns storeerr.ErrNotFound if no record exists with the given ID.
	GetByID(ctx context.Context, id int64) (*InventoryDto, error)

	// List returns all cached records.
	List() []InventoryDto

	// GetByProduct returns the cached records for one product.
	GetByProduct(productID int64) []InventoryDto

	// GetByProductAndLocation resolves the composite key against the cache.
	GetByProductAndLocation(productID, locationID int64) (*InventoryDto, bool)

	// HasAvailableStock reports whether qty units are free of reservations.
	HasAvailableStock(productID, locationID int64, qty int32) bool

	// Create persists a new record and reflects it into the cache.
	Create(ctx context.Context, dto InventoryCreateDto) (*InventoryDto, error)

	// Update replaces a record and repairs the cache indices.
	// Returns storeerr.ErrNotFound if no record exists with the given ID.
	Update(ctx context.Context, dto InventoryDto) (*InventoryDto, error)

	// Delete removes a record from the database and the cache.
	Delete(ctx context.Context, id int64) error

	// Adjust changes current stock by a signed delta.
	Adjust(ctx context.Context, id int64, delta int32) (*InventoryDto, error)

	// Reserve holds qty units against the record's available stock.
	Reserve(ctx context.Context, id int64, qty int32) (*InventoryDto, error)

	// Release returns qty previously reserved units to the available pool.
	Release(ctx context.Context, id int64, qty int32) (*InventoryDto, error)
}

// Service implements InventoryService.
type Service struct {
	store     Store
	cache     *Cache
	refresher *refresh.Runner
	logger    *slog.Logger
}

// NewService creates the inventory service with an empty cache; callers are
// expected to Warmup before serving traffic.
func NewService(store Store, refresher *refresh.Runner, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		cache:     NewCache(),
		refresher: refresher,
		logger:    logger.With("component", "inventory"),
	}
}

// InventoryDto is the transfer shape for an inventory record.
type InventoryDto struct {
	ID             int64  `json:"id"`
	ProductID      int64  `json:"product_id" validate:"required,min=1"`
	LocationID     int64  `json:"location_id" validate:"required,min=1"`
	CurrentStock   int32  `json:"current_stock" validate:"min=0"`
	ReservedStock  int32  `json:"reserved_stock" validate:"min=0"`
	AvailableStock int32  `json:"available_stock"`
	UpdatedAt      string `json:"updated_at"`
}

// InventoryCreateDto is the transfer shape for creating an inventory record.
type InventoryCreateDto struct {
	ProductID     int64 `json:"product_id" validate:"required,min=1"`
	LocationID    int64 `json:"location_id" validate:"required,min=1"`
	CurrentStock  int32 `json:"current_stock" validate:"min=0"`
	ReservedStock int32 `json:"reserved_stock" validate:"min=0"`
}

// StockAdjustDto carries a signed stock delta.
type StockAdjustDto struct {
	Delta int32 `json:"delta" validate:"required"`
}

// ReservationDto carries the quantity to reserve or release.
type ReservationDto struct {
	Quantity int32 `json:"quantity" validate:"required,min=1"`
}

func (s *Service) Warmup(ctx context.Context) error {
	records, err := s.store.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("inventory warmup: %w", err)
	}
	s.cache.Replace(records)
	s.logger.Info("Inventory cache warmed up", "records", len(records))
	return nil
}

func (s *Service) Refresh() {
	s.refresher.Trigger("inventory", func(ctx context.Context) error {
		records, err := s.store.FindAll(ctx)
		if err != nil {
			return err
		}
		s.cache.Replace(records)
		return nil
	})
}

func (s *Service) GetByID(ctx context.Context, id int64) (*InventoryDto, error) {
	if rec, ok := s.cache.GetByID(id); ok {
		return toDto(rec), nil
	}
	// Cache miss: read through to the database. The hit is not written back;
	// the record shows up in the cache on the next refresh.
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch inventory %d: %w", id, err)
	}
	return toDto(*rec), nil
}

func (s *Service) List() []InventoryDto {
	return toDtos(s.cache.Search(nil))
}

func (s *Service) GetByProduct(productID int64) []InventoryDto {
	return toDtos(s.cache.GetByProduct(productID))
}

func (s *Service) GetByProductAndLocation(productID, locationID int64) (*InventoryDto, bool) {
	rec, ok := s.cache.GetByProductAndLocation(productID, locationID)
	if !ok {
		return nil, false
	}
	return toDto(rec), true
}

func (s *Service) HasAvailableStock(productID, locationID int64, qty int32) bool {
	return s.cache.HasAvailableStock(productID, locationID, qty)
}

func (s *Service) Create(ctx context.Context, dto InventoryCreateDto) (*InventoryDto, error) {
	if dto.ReservedStock > dto.CurrentStock {
		return nil, fmt.Errorf("reserved stock exceeds current stock: %w", storeerr.ErrInvalidInput)
	}
	// The cache may lag behind the table, so the composite key is checked
	// against the database rather than the in-memory index.
	taken, err := s.store.ExistsByProductAndLocation(ctx, dto.ProductID, dto.LocationID)
	if err != nil {
		return nil, fmt.Errorf("failed to check inventory for product %d at location %d: %w", dto.ProductID, dto.LocationID, err)
	}
	if taken {
		return nil, fmt.Errorf("inventory for product %d at location %d: %w", dto.ProductID, dto.LocationID, storeerr.ErrDuplicate)
	}
	created, err := s.store.Create(ctx, Inventory{
		ProductID:     dto.ProductID,
		LocationID:    dto.LocationID,
		CurrentStock:  dto.CurrentStock,
		ReservedStock: dto.ReservedStock,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create inventory: %w", err)
	}
	s.applyInsert(*created)
	return toDto(*created), nil
}

func (s *Service) Update(ctx context.Context, dto InventoryDto) (*InventoryDto, error) {
	if dto.ReservedStock > dto.CurrentStock {
		return nil, fmt.Errorf("reserved stock exceeds current stock: %w", storeerr.ErrInvalidInput)
	}
	updated, err := s.store.Update(ctx, Inventory{
		ID:            dto.ID,
		ProductID:     dto.ProductID,
		LocationID:    dto.LocationID,
		CurrentStock:  dto.CurrentStock,
		ReservedStock: dto.ReservedStock,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update inventory %d: %w", dto.ID, err)
	}
	s.applyUpdate(*updated)
	return toDto(*updated), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete inventory %d: %w", id, err)
	}
	if err := s.cache.Remove(id); err != nil {
		// Already absent from the cache; nothing to repair.
		s.logger.Debug("Cache remove after delete", "id", id, "error", err)
	}
	return nil
}

// Adjust, Reserve and Release delegate the invariant checks to the store,
// which applies them as conditional relative updates. Checking in Go against
// a prior read would let two concurrent writers pass the same snapshot and
// lose one of the writes.

func (s *Service) Adjust(ctx context.Context, id int64, delta int32) (*InventoryDto, error) {
	updated, err := s.store.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust inventory %d by %d: %w", id, delta, err)
	}
	s.applyUpdate(*updated)
	return toDto(*updated), nil
}

func (s *Service) Reserve(ctx context.Context, id int64, qty int32) (*InventoryDto, error) {
	updated, err := s.store.ReserveStock(ctx, id, qty)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve %d on inventory %d: %w", qty, id, err)
	}
	s.applyUpdate(*updated)
	return toDto(*updated), nil
}

func (s *Service) Release(ctx context.Context, id int64, qty int32) (*InventoryDto, error) {
	updated, err := s.store.ReleaseStock(ctx, id, qty)
	if err != nil {
		return nil, fmt.Errorf("failed to release %d on inventory %d: %w", qty, id, err)
	}
	s.applyUpdate(*updated)
	return toDto(*updated), nil
}

// applyInsert reflects a committed create into the cache. The database write
// has already succeeded, so a cache failure here only widens the staleness
// window; a refresh closes it.
func (s *Service) applyInsert(rec Inventory) {
	if _, err := s.cache.Insert(rec); err != nil {
		s.logger.Warn("Cache insert failed after commit, scheduling refresh", "id", rec.ID, "error", err)
		s.Refresh()
	}
}

// applyUpdate reflects a committed update into the cache, same contract as applyInsert.
func (s *Service) applyUpdate(rec Inventory) {
	if _, err := s.cache.Update(rec); err != nil {
		s.logger.Warn("Cache update failed after commit, scheduling refresh", "id", rec.ID, "error", err)
		s.Refresh()
	}
}

func toDto(rec Inventory) *InventoryDto {
	return &InventoryDto{
		ID:             rec.ID,
		ProductID:      rec.ProductID,
		LocationID:     rec.LocationID,
		CurrentStock:   rec.CurrentStock,
		ReservedStock:  rec.ReservedStock,
		AvailableStock: rec.Available(),
		UpdatedAt:      rec.UpdatedAt.Format(time.RFC3339),
	}
}

func toDtos(records []Inventory) []InventoryDto {
	dtos := make([]InventoryDto, len(records))
	for i, rec := range records {
		dtos[i] = *toDto(rec)
	}
	return dtos
}
