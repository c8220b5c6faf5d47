package customer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stockdesk/stockdesk/pkg/refresh"
	"github.com/stockdesk/stockdesk/pkg/storeerr"
)

// CustomerService defines the operations the transport layer consumes.
type CustomerService interface {
	// Warmup performs the initial load of active customers into the cache.
	Warmup(ctx context.Context) error

	// Refresh schedules a detached cache reload and returns immediately.
	Refresh()

	// GetByID retrieves a customer, falling back to the database on a cache
	// miss. Returns storeerr.ErrNotFound if no row exists with the given ID.
	GetByID(ctx context.Context, id int64) (*CustomerDto, error)

	// List returns all cached (active) customers.
	List() []CustomerDto

	// GetByEmail resolves the unique email index against the cache.
	GetByEmail(email string) (*CustomerDto, bool)

	// EmailExists reports whether an active customer already uses the email.
	EmailExists(email string) bool

	// PhoneExists reports whether an active customer already uses the phone.
	PhoneExists(phone string) bool

	// Create persists a new customer and reflects it into the cache.
	Create(ctx context.Context, dto CustomerCreateDto) (*CustomerDto, error)

	// Update replaces contact details and repairs the cache indexes.
	Update(ctx context.Context, dto CustomerDto) (*CustomerDto, error)

	// Delete soft-deletes a customer and evicts it from the cache.
	Delete(ctx context.Context, id int64) error

	// Restore brings a soft-deleted customer back and refreshes the cache.
	Restore(ctx context.Context, id int64) (*CustomerDto, error)
}

// Service implements CustomerService.
type Service struct {
	store     Store
	cache     *Cache
	refresher *refresh.Runner
	logger    *slog.Logger
}

// NewService creates the customer service with an empty cache; callers are
// expected to Warmup before serving traffic.
func NewService(store Store, refresher *refresh.Runner, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		cache:     NewCache(),
		refresher: refresher,
		logger:    logger.With("component", "customer"),
	}
}

// CustomerDto is the transfer shape for a customer.
type CustomerDto struct {
	ID        int64  `json:"id"`
	Name      string `json:"name" validate:"required,min=1,max=255"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,e164"`
	Deleted   bool   `json:"deleted"`
	DeletedAt string `json:"deleted_at,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

// CustomerCreateDto is the transfer shape for creating a customer.
type CustomerCreateDto struct {
	Name  string `json:"name" validate:"required,min=1,max=255"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,e164"`
}

func (s *Service) Warmup(ctx context.Context) error {
	records, err := s.store.FindAllActive(ctx)
	if err != nil {
		return fmt.Errorf("customer warmup: %w", err)
	}
	s.cache.Replace(records)
	s.logger.Info("Customer cache warmed up", "records", len(records))
	return nil
}

func (s *Service) Refresh() {
	s.refresher.Trigger("customers", func(ctx context.Context) error {
		records, err := s.store.FindAllActive(ctx)
		if err != nil {
			return err
		}
		s.cache.Replace(records)
		return nil
	})
}

func (s *Service) GetByID(ctx context.Context, id int64) (*CustomerDto, error) {
	if rec, ok := s.cache.GetByID(id); ok {
		return toDto(rec), nil
	}
	// Cache miss: deleted rows live only in the database, so the fallback
	// also serves lookups of soft-deleted customers.
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customer %d: %w", id, err)
	}
	return toDto(*rec), nil
}

func (s *Service) List() []CustomerDto {
	return toDtos(s.cache.Search(nil))
}

func (s *Service) GetByEmail(email string) (*CustomerDto, bool) {
	rec, ok := s.cache.GetByEmail(email)
	if !ok {
		return nil, false
	}
	return toDto(rec), true
}

func (s *Service) EmailExists(email string) bool {
	return s.cache.EmailExists(email)
}

func (s *Service) PhoneExists(phone string) bool {
	return s.cache.PhoneExists(phone)
}

func (s *Service) Create(ctx context.Context, dto CustomerCreateDto) (*CustomerDto, error) {
	if s.cache.EmailExists(dto.Email) {
		return nil, fmt.Errorf("customer email %q: %w", dto.Email, storeerr.ErrDuplicate)
	}
	if s.cache.PhoneExists(dto.Phone) {
		return nil, fmt.Errorf("customer phone %q: %w", dto.Phone, storeerr.ErrDuplicate)
	}
	created, err := s.store.Create(ctx, Customer{
		Name:  dto.Name,
		Email: dto.Email,
		Phone: dto.Phone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	s.applyInsert(*created)
	return toDto(*created), nil
}

func (s *Service) Update(ctx context.Context, dto CustomerDto) (*CustomerDto, error) {
	updated, err := s.store.Update(ctx, Customer{
		ID:    dto.ID,
		Name:  dto.Name,
		Email: dto.Email,
		Phone: dto.Phone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update customer %d: %w", dto.ID, err)
	}
	s.applyUpdate(*updated)
	return toDto(*updated), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete customer %d: %w", id, err)
	}
	if err := s.cache.Remove(id); err != nil {
		// Already absent from the cache; nothing to repair.
		s.logger.Debug("Cache remove after soft delete", "id", id, "error", err)
	}
	return nil
}

// Restore brings a deleted row back. The restored row may collide with cache
// state observed before the call, so the cache is rebuilt instead of patched.
func (s *Service) Restore(ctx context.Context, id int64) (*CustomerDto, error) {
	restored, err := s.store.Restore(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to restore customer %d: %w", id, err)
	}
	s.Refresh()
	return toDto(*restored), nil
}

// applyInsert reflects a committed create into the cache. The database write
// has already succeeded, so a cache failure here only widens the staleness
// window; a refresh closes it.
func (s *Service) applyInsert(rec Customer) {
	if _, err := s.cache.Insert(rec); err != nil {
		s.logger.Warn("Cache insert failed after commit, scheduling refresh", "id", rec.ID, "error", err)
		s.Refresh()
	}
}

// applyUpdate reflects a committed update into the cache, same contract as applyInsert.
func (s *Service) applyUpdate(rec Customer) {
	if _, err := s.cache.Update(rec); err != nil {
		s.logger.Warn("Cache update failed after commit, scheduling refresh", "id", rec.ID, "error", err)
		s.Refresh()
	}
}

func toDto(rec Customer) *CustomerDto {
	dto := &CustomerDto{
		ID:        rec.ID,
		Name:      rec.Name,
		Email:     rec.Email,
		Phone:     rec.Phone,
		Deleted:   rec.Deleted,
		UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
	}
	if rec.DeletedAt != nil {
		dto.DeletedAt = rec.DeletedAt.Format(time.RFC3339)
	}
	return dto
}

func toDtos(records []Customer) []CustomerDto {
	dtos := make([]CustomerDto, len(records))
	for i, rec := range records {
		dtos[i] = *toDto(rec)
	}
	return dtos
}
