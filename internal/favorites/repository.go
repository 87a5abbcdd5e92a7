package favorites

import (
	"context"
	"errors"
	"fmt"

	"currency-converter-go/internal/models"
	"gorm.io/gorm"
)

// ErrMissingCurrency is returned when a pair is created without one of its codes.
var ErrMissingCurrency = errors.New("baseCurrency and targetCurrency are required")

// Repository stores favorite currency pairs.
type Repository interface {
	List(ctx context.Context) ([]models.FavoritePair, error)
	Create(ctx context.Context, baseCurrency, targetCurrency *string) (*models.FavoritePair, error)
}

// GormRepository is a Repository backed by gorm.
type GormRepository struct {
	db *gorm.DB
}

// ensure GormRepository implements the interface
var _ Repository = (*GormRepository)(nil)

// NewGormRepository creates a repository on an already migrated database.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// List returns every stored pair in insertion order.
func (r *GormRepository) List(ctx context.Context) ([]models.FavoritePair, error) {
	favorites := make([]models.FavoritePair, 0)
	if err := r.db.WithContext(ctx).Order("id asc").Find(&favorites).Error; err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return favorites, nil
}

// Create stores a new pair. Nil codes violate the NOT NULL columns and are rejected
// before reaching the database; codes are not otherwise validated.
func (r *GormRepository) Create(ctx context.Context, baseCurrency, targetCurrency *string) (*models.FavoritePair, error) {
	if baseCurrency == nil || targetCurrency == nil {
		return nil, ErrMissingCurrency
	}

	favorite := models.FavoritePair{
		BaseCurrency:   *baseCurrency,
		TargetCurrency: *targetCurrency,
	}
	if err := r.db.WithContext(ctx).Create(&favorite).Error; err != nil {
		return nil, fmt.Errorf("failed to create favorite %s/%s: %w", *baseCurrency, *targetCurrency, err)
	}
	return &favorite, nil
}
