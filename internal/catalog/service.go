package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stockdesk/stockdesk/pkg/refresh"
	"github.com/stockdesk/stockdesk/pkg/storeerr"
)

// CategoryService defines the operations the transport layer consumes.
type CategoryService interface {
	// Warmup performs the initial load of active categories into the cache.
	Warmup(ctx context.Context) error

	// Refresh schedules a detached cache reload and returns immediately.
	Refresh()

	// GetByID retrieves a category, falling back to the database on a cache
	// miss. Returns storeerr.ErrNotFound if no row exists with the given ID.
	GetByID(ctx context.Context, id int64) (*CategoryDto, error)

	// List returns all cached (active) categories.
	List() []CategoryDto

	// GetByName resolves the unique name index against the cache.
	GetByName(name string) (*CategoryDto, bool)

	// NameExists reports whether an active category already uses the name.
	NameExists(name string) bool

	// Create persists a new category and reflects it into the cache.
	Create(ctx context.Context, dto CategoryCreateDto) (*CategoryDto, error)

	// Update renames or re-describes a category and repairs the cache index.
	Update(ctx context.Context, dto CategoryDto) (*CategoryDto, error)

	// Delete soft-deletes a category and evicts it from the cache.
	Delete(ctx context.Context, id int64) error

	// Restore brings a soft-deleted category back and refreshes the cache.
	Restore(ctx context.Context, id int64) (*CategoryDto, error)
}

// Service implements CategoryService.
type Service struct {
	store     Store
	cache     *Cache
	refresher *refresh.Runner
	logger    *slog.Logger
}

// NewService creates the category service with an empty cache; callers are
// expected to Warmup before serving traffic.
func NewService(store Store, refresher *refresh.Runner, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		cache:     NewCache(),
		refresher: refresher,
		logger:    logger.With("component", "catalog"),
	}
}

// CategoryDto is the transfer shape for a category.
type CategoryDto struct {
	ID          int64  `json:"id"`
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"max=1024"`
	Deleted     bool   `json:"deleted"`
	DeletedAt   string `json:"deleted_at,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

// CategoryCreateDto is the transfer shape for creating a category.
type CategoryCreateDto struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"max=1024"`
}

func (s *Service) Warmup(ctx context.Context) error {
	records, err := s.store.FindAllActive(ctx)
	if err != nil {
		return fmt.Errorf("catalog warmup: %w", err)
	}
	s.cache.Replace(records)
	s.logger.Info("Category cache warmed up", "records", len(records))
	return nil
}

func (s *Service) Refresh() {
	s.refresher.Trigger("catalog", func(ctx context.Context) error {
		records, err := s.store.FindAllActive(ctx)
		if err != nil {
			return err
		}
		s.cache.Replace(records)
		return nil
	})
}

func (s *Service) GetByID(ctx context.Context, id int64) (*CategoryDto, error) {
	if rec, ok := s.cache.GetByID(id); ok {
		return toDto(rec), nil
	}
	// Cache miss: deleted rows live only in the database, so the fallback
	// also serves lookups of soft-deleted categories.
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch category %d: %w", id, err)
	}
	return toDto(*rec), nil
}

func (s *Service) List() []CategoryDto {
	return toDtos(s.cache.Search(nil))
}

func (s *Service) GetByName(name string) (*CategoryDto, bool) {
	rec, ok := s.cache.GetByName(name)
	if !ok {
		return nil, false
	}
	return toDto(rec), true
}

func (s *Service) NameExists(name string) bool {
	return s.cache.NameExists(name)
}

func (s *Service) Create(ctx context.Context, dto CategoryCreateDto) (*CategoryDto, error) {
	if s.cache.NameExists(dto.Name) {
		return nil, fmt.Errorf("category name %q: %w", dto.Name, storeerr.ErrDuplicate)
	}
	created, err := s.store.Create(ctx, Category{
		Name:        dto.Name,
		Description: dto.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	s.applyInsert(*created)
	return toDto(*created), nil
}

func (s *Service) Update(ctx context.Context, dto CategoryDto) (*CategoryDto, error) {
	updated, err := s.store.Update(ctx, Category{
		ID:          dto.ID,
		Name:        dto.Name,
		Description: dto.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update category %d: %w", dto.ID, err)
	}
	s.applyUpdate(*updated)
	return toDto(*updated), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category %d: %w", id, err)
	}
	if err := s.cache.Remove(id); err != nil {
		// Already absent from the cache; nothing to repair.
		s.logger.Debug("Cache remove after soft delete", "id", id, "error", err)
	}
	return nil
}

// Restore brings a deleted row back. The restored row may collide with cache
// state observed before the call, so the cache is rebuilt instead of patched.
func (s *Service) Restore(ctx context.Context, id int64) (*CategoryDto, error) {
	restored, err := s.store.Restore(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to restore category %d: %w", id, err)
	}
	s.Refresh()
	return toDto(*restored), nil
}

// applyInsert reflects a committed create into the cache. The database write
// has already succeeded, so a cache failure here only widens the staleness
// window; a refresh closes it.
func (s *Service) applyInsert(rec Category) {
	if _, err := s.cache.Insert(rec); err != nil {
		s.logger.Warn("Cache insert failed after commit, scheduling refresh", "id", rec.ID, "error", err)
		s.Refresh()
	}
}

// applyUpdate reflects a committed update into the cache, same contract as applyInsert.
func (s *Service) applyUpdate(rec Category) {
	if _, err := s.cache.Update(rec); err != nil {
		s.logger.Warn("Cache update failed after commit, scheduling refresh", "id", rec.ID, "error", err)
		s.Refresh()
	}
}

func toDto(rec Category) *CategoryDto {
	dto := &CategoryDto{
		ID:          rec.ID,
		Name:        rec.Name,
		Description: rec.Description,
		Deleted:     rec.Deleted,
		UpdatedAt:   rec.UpdatedAt.Format(time.RFC3339),
	}
	if rec.DeletedAt != nil {
		dto.DeletedAt = rec.DeletedAt.Format(time.RFC3339)
	}
	return dto
}

func toDtos(records []Category) []CategoryDto {
	dtos := make([]CategoryDto, len(records))
	for i, rec := range records {
		dtos[i] = *toDto(rec)
	}
	return dtos
}
