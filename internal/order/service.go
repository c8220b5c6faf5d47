package order

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stockdesk/stockdesk/pkg/refresh"
)

// OrderService defines the operations the transport layer consumes. The
// update path is the diff-merge coordinator: parent and items are reconciled
// in one database transaction, and the caches follow only after commit.
type OrderService interface {
	// Warmup performs the initial full load of both caches.
	Warmup(ctx context.Context) error

	// Refresh schedules a detached reload of both caches.
	Refresh()

	// GetByID retrieves an order with its items, falling back to the
	// database on a cache miss.
	GetByID(ctx context.Context, id int64) (*OrderDto, error)

	// List returns all cached orders with their items.
	List() []OrderDto

	// ListByCustomer returns the customer's cached orders.
	ListByCustomer(customerID int64) []OrderDto

	// ListByStatus returns the cached orders in the given status.
	ListByStatus(status string) []OrderDto

	// Create persists an order with its initial items atomically.
	Create(ctx context.Context, dto OrderCreateDto) (*OrderDto, error)

	// UpdateWithItems updates the order and reconciles its item set against
	// the desired list in one transaction.
	UpdateWithItems(ctx context.Context, dto OrderUpdateDto) (*OrderDto, error)

	// Delete removes an order and its items.
	Delete(ctx context.Context, id int64) error
}

// Service implements OrderService.
type Service struct {
	store     Store
	orders    *Cache
	items     *ItemCache
	refresher *refresh.Runner
	logger    *slog.Logger
}

// NewService creates the order service with empty caches; callers are
// expected to Warmup before serving traffic.
func NewService(store Store, refresher *refresh.Runner, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		orders:    NewCache(),
		items:     NewItemCache(),
		refresher: refresher,
		logger:    logger.With("component", "order"),
	}
}

// OrderDto is the transfer shape for an order with its lines. Total is folded
// from the lines, never stored.
type OrderDto struct {
	ID         int64          `json:"id"`
	CustomerID int64          `json:"customer_id" validate:"required,min=1"`
	Status     string         `json:"status" validate:"required,oneof=new confirmed shipped cancelled"`
	Total      int64          `json:"total"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
	Items      []OrderItemDto `json:"items,omitempty"`
}

// OrderItemDto is the transfer shape for one order line. A zero ID marks a
// new line; a zero TotalPrice is derived from quantity and unit price.
type OrderItemDto struct {
	ID         int64 `json:"id"`
	OrderID    int64 `json:"order_id"`
	ProductID  int64 `json:"product_id" validate:"required,min=1"`
	Quantity   int32 `json:"quantity" validate:"required,min=1"`
	UnitPrice  int64 `json:"unit_price" validate:"required,min=1"`
	TotalPrice int64 `json:"total_price" validate:"min=0"`
}

// OrderCreateDto is the transfer shape for creating an order.
type OrderCreateDto struct {
	CustomerID int64          `json:"customer_id" validate:"required,min=1"`
	Status     string         `json:"status" validate:"required,oneof=new confirmed"`
	Items      []OrderItemDto `json:"items" validate:"required,gt=0,dive"`
}

// OrderUpdateDto carries the parent update plus the full desired item set.
type OrderUpdateDto struct {
	ID         int64          `json:"id"` // taken from the request path
	CustomerID int64          `json:"customer_id" validate:"required,min=1"`
	Status     string         `json:"status" validate:"required,oneof=new confirmed shipped cancelled"`
	Items      []OrderItemDto `json:"items" validate:"dive"`
}

func (s *Service) Warmup(ctx context.Context) error {
	orders, items, err := s.store.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("order warmup: %w", err)
	}
	s.orders.Replace(orders)
	s.items.Replace(items)
	s.logger.Info("Order caches warmed up", "orders", len(orders), "items", len(items))
	return nil
}

func (s *Service) Refresh() {
	s.refresher.Trigger("orders", func(ctx context.Context) error {
		orders, items, err := s.store.FindAll(ctx)
		if err != nil {
			return err
		}
		s.orders.Replace(orders)
		s.items.Replace(items)
		return nil
	})
}

func (s *Service) GetByID(ctx context.Context, id int64) (*OrderDto, error) {
	if o, ok := s.orders.GetByID(id); ok {
		return s.toDto(o, s.items.GetByOrder(id)), nil
	}
	// Cache miss: read through without populating; the next refresh picks it up.
	o, items, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order %d: %w", id, err)
	}
	return s.toDto(*o, items), nil
}

func (s *Service) List() []OrderDto {
	return s.toDtos(s.orders.All())
}

func (s *Service) ListByCustomer(customerID int64) []OrderDto {
	return s.toDtos(s.orders.GetByCustomer(customerID))
}

func (s *Service) ListByStatus(status string) []OrderDto {
	return s.toDtos(s.orders.GetByStatus(status))
}

func (s *Service) Create(ctx context.Context, dto OrderCreateDto) (*OrderDto, error) {
	created, items, err := s.store.Create(ctx,
		Order{CustomerID: dto.CustomerID, Status: dto.Status},
		toItems(0, dto.Items))
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	if _, cacheErr := s.orders.Insert(*created); cacheErr != nil {
		s.logger.Warn("Cache insert failed after commit, scheduling refresh", "id", created.ID, "error", cacheErr)
		s.Refresh()
	} else {
		s.items.SetOrderItems(created.ID, items)
	}
	return s.toDto(*created, items), nil
}

// UpdateWithItems runs the two-phase merge. Phase 1 is the durable,
// transactional write in the store. Phase 2 reflects the committed result
// into the caches; it is best effort and never unwinds phase 1. A failure
// here only leaves the caches stale until the scheduled refresh.
func (s *Service) UpdateWithItems(ctx context.Context, dto OrderUpdateDto) (*OrderDto, error) {
	updated, merged, err := s.store.UpdateWithItems(ctx,
		Order{ID: dto.ID, CustomerID: dto.CustomerID, Status: dto.Status},
		toItems(dto.ID, dto.Items))
	if err != nil {
		return nil, fmt.Errorf("failed to merge order %d: %w", dto.ID, err)
	}

	if _, cacheErr := s.orders.Update(*updated); cacheErr != nil {
		s.logger.Warn("Cache update failed after commit, scheduling refresh", "id", updated.ID, "error", cacheErr)
		s.Refresh()
	} else {
		s.items.SetOrderItems(updated.ID, merged)
	}
	return s.toDto(*updated, merged), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	s.items.SetOrderItems(id, nil)
	if err := s.orders.Remove(id); err != nil {
		s.logger.Debug("Cache remove after delete", "id", id, "error", err)
	}
	return nil
}

func toItems(orderID int64, dtos []OrderItemDto) []Item {
	items := make([]Item, len(dtos))
	for i, d := range dtos {
		total := d.TotalPrice
		if total == 0 {
			total = int64(d.Quantity) * d.UnitPrice
		}
		items[i] = Item{
			ID:         d.ID,
			OrderID:    orderID,
			ProductID:  d.ProductID,
			Quantity:   d.Quantity,
			UnitPrice:  d.UnitPrice,
			TotalPrice: total,
		}
	}
	return items
}

func (s *Service) toDto(o Order, items []Item) *OrderDto {
	dto := &OrderDto{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		Status:     o.Status,
		CreatedAt:  o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  o.UpdatedAt.Format(time.RFC3339),
		Items:      make([]OrderItemDto, len(items)),
	}
	for i, item := range items {
		dto.Items[i] = OrderItemDto{
			ID:         item.ID,
			OrderID:    item.OrderID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		}
		dto.Total += item.TotalPrice
	}
	return dto
}

func (s *Service) toDtos(orders []Order) []OrderDto {
	dtos := make([]OrderDto, len(orders))
	for i, o := range orders {
		dtos[i] = *s.toDto(o, s.items.GetByOrder(o.ID))
	}
	return dtos
}
