package userdb

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/syntropynet/globaldb/internal/globaldb/sqlite"
	"github.com/syntropynet/globaldb/pkg/globaldb"
)

var _ globaldb.UserDB = (*DB)(nil)

// DB is the per-user database: the assets the user knows about and the balances they held over time.
type DB struct {
	logger  *zap.Logger
	dbCon   *gorm.DB
	writeMu sync.Mutex
}

func New(path string, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dbCon, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open user DB %s: %w", path, err)
	}

	// Create tables for data structures (if table already exists it will not be overwritten)
	if err := dbCon.AutoMigrate(&Asset{}); err != nil {
		sqlite.Close(dbCon)
		return nil, fmt.Errorf("Asset table migrate error: %w", err)
	}
	if err := dbCon.AutoMigrate(&TimedBalance{}); err != nil {
		sqlite.Close(dbCon)
		return nil, fmt.Errorf("TimedBalance table migrate error: %w", err)
	}

	return &DB{logger: logger, dbCon: dbCon}, nil
}

func (db *DB) Close() error {
	return sqlite.Close(db.dbCon)
}

func (db *DB) writeCtx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()
	return db.dbCon.WithContext(ctx).Transaction(fn)
}

// OwnedAssetIdentifiers lists every currency the user ever had a balance of.
func (db *DB) OwnedAssetIdentifiers(ctx context.Context) ([]string, error) {
	var ids []string
	err := db.dbCon.WithContext(ctx).
		Model(&TimedBalance{}).
		Distinct().
		Order("currency").
		Pluck("currency", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query owned assets: %w", err)
	}
	return ids, nil
}

// AssetIdentifiers returns the asset identifiers known to the user DB.
func (db *DB) AssetIdentifiers(ctx context.Context) ([]string, error) {
	var ids []string
	err := db.dbCon.WithContext(ctx).Model(&Asset{}).Order("identifier").Pluck("identifier", &ids).Error
	return ids, err
}

// ReplaceAssetIdentifiers swaps the known asset identifiers for ids in one write.
func (db *DB) ReplaceAssetIdentifiers(ctx context.Context, ids []string) error {
	rows := make([]Asset, len(ids))
	for i, id := range ids {
		rows[i] = Asset{Identifier: id}
	}
	err := db.writeCtx(ctx, func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM assets").Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, 500).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace user DB assets: %w", err)
	}
	db.logger.Debug("replaced user DB assets", zap.Int("count", len(ids)))
	return nil
}

// AddTimedBalance records the amount of currency held at ts.
func (db *DB) AddTimedBalance(ctx context.Context, currency string, ts globaldb.Timestamp, amount decimal.Decimal) error {
	balance := TimedBalance{
		Category: "A",
		Time:     int64(ts),
		Currency: currency,
		Amount:   amount.String(),
	}
	return db.writeCtx(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category"}, {Name: "time"}, {Name: "currency"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount"}),
		}).Create(&balance).Error
	})
}
