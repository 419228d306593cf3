package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB wraps the gorm connection and owns all persistence operations.
type DB struct {
	ctx      context.Context
	database *gorm.DB
}

// New connects to Postgres and migrates the schema.
func New(ctx context.Context, dsn string) (*DB, error) {
	return Open(ctx, postgres.Open(dsn))
}

// Open connects with an arbitrary gorm dialector. Tests use it with an
// in-memory SQLite database.
func Open(ctx context.Context, dialector gorm.Dialector) (*DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	// Migrate the schemas
	if err := db.AutoMigrate(&Store{}, &Product{}, &ChangeRequest{}, &ModerationLog{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %v", err)
	}

	return &DB{database: db, ctx: ctx}, nil
}

func (s *DB) Close() error {
	db, err := s.database.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %v", err)
	}

	if err := db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %v", err)
	}
	return nil
}

func (s *DB) GetStoreByID(id uint) (*Store, error) {
	var st Store
	if err := s.database.First(&st, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("store %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get store: %v", err)
	}

	return &st, nil
}

// GetStoreBySubdomain resolves a public storefront. Suspended stores are
// not visible to shoppers and resolve as not found.
func (s *DB) GetStoreBySubdomain(subdomain string) (*Store, error) {
	var st Store
	err := s.database.First(&st, "subdomain = ? AND status <> ?", subdomain, StoreStatusSuspended).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("store %q: %w", subdomain, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get store: %v", err)
	}

	return &st, nil
}

func (s *DB) CreateStore(st *Store) (uint, error) {
	tx := s.database.WithContext(s.ctx)

	if result := tx.Create(st); result.Error != nil {
		return 0, fmt.Errorf("failed to create store: %v", result.Error)
	}

	return st.ID, nil
}

func (s *DB) SaveStore(st *Store) error {
	if result := s.database.Save(st); result.Error != nil {
		return fmt.Errorf("failed to save store: %v", result.Error)
	}
	return nil
}

func (s *DB) GetProductByID(id uint) (*Product, error) {
	var product Product
	if err := s.database.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product: %v", err)
	}

	return &product, nil
}

func (s *DB) GetProductsByStoreID(storeID uint) ([]Product, error) {
	var products []Product
	if err := s.database.Find(&products, "store_id = ?", storeID).Error; err != nil {
		return nil, fmt.Errorf("failed to get products: %v", err)
	}

	return products, nil
}

// GetVisibleProductsByStoreID returns the products a shopper may see.
// Hidden products have active forced to false, so the active filter covers
// both vendor deactivation and moderation auto-hide.
func (s *DB) GetVisibleProductsByStoreID(storeID uint) ([]Product, error) {
	var products []Product
	if err := s.database.Find(&products, "store_id = ? AND active = ?", storeID, true).Error; err != nil {
		return nil, fmt.Errorf("failed to get products: %v", err)
	}

	return products, nil
}

func (s *DB) CreateProduct(product *Product) (uint, error) {
	tx := s.database.WithContext(s.ctx)

	if result := tx.Create(product); result.Error != nil {
		return 0, fmt.Errorf("failed to create product: %v", result.Error)
	}

	return product.ID, nil
}

func (s *DB) SaveProduct(product *Product) error {
	if result := s.database.Save(product); result.Error != nil {
		return fmt.Errorf("failed to save product: %v", result.Error)
	}
	return nil
}

func (s *DB) CreateModerationLog(entry *ModerationLog) (uint, error) {
	tx := s.database.WithContext(s.ctx)

	if result := tx.Create(entry); result.Error != nil {
		return 0, fmt.Errorf("failed to create moderation log: %v", result.Error)
	}

	return entry.ID, nil
}

func (s *DB) GetModerationLogsByStoreID(storeID uint) ([]ModerationLog, error) {
	var entries []ModerationLog
	err := s.database.Order("checked_at desc").Find(&entries, "store_id = ?", storeID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get moderation logs: %v", err)
	}

	return entries, nil
}
