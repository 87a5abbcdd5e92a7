package favorites

import (
	"context"
	"testing"

	"currency-converter-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupRepo creates a repository on a new, non-shared in-memory database.
func setupRepo(t *testing.T) (*GormRepository, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.FavoritePair{}))
	// Every pooled connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return NewGormRepository(db), db
}

func strPtr(s string) *string { return &s }

func TestGormRepository_ListEmpty(t *testing.T) {
	repo, _ := setupRepo(t)

	favorites, err := repo.List(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, favorites)
	assert.Empty(t, favorites)
}

func TestGormRepository_CreateAndList(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, strPtr("USD"), strPtr("EUR"))
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	assert.Equal(t, "USD", first.BaseCurrency)
	assert.Equal(t, "EUR", first.TargetCurrency)

	second, err := repo.Create(ctx, strPtr("GBP"), strPtr("JPY"))
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	favorites, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, favorites, 2)
	assert.Equal(t, first.ID, favorites[0].ID)
	assert.Equal(t, second.ID, favorites[1].ID)
}

func TestGormRepository_AllowsDuplicates(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	a, err := repo.Create(ctx, strPtr("USD"), strPtr("EUR"))
	require.NoError(t, err)
	b, err := repo.Create(ctx, strPtr("USD"), strPtr("EUR"))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	favorites, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, favorites, 2)
}

func TestGormRepository_CreateMissingCurrency(t *testing.T) {
	repo, _ := setupRepo(t)

	favorite, err := repo.Create(context.Background(), strPtr("USD"), nil)

	assert.ErrorIs(t, err, ErrMissingCurrency)
	assert.Nil(t, favorite)
}

func TestGormRepository_StorageFailure(t *testing.T) {
	repo, db := setupRepo(t)
	require.NoError(t, db.Migrator().DropTable(&models.FavoritePair{}))

	_, err := repo.List(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list favorites")
}
