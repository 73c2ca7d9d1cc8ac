package globaldb

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/syntropynet/globaldb/pkg/globaldb"
)

func priceRow(p globaldb.HistoricalPrice) PriceHistory {
	return PriceHistory{
		FromAsset:  p.FromAsset,
		ToAsset:    p.ToAsset,
		SourceType: p.Source.DBValue(),
		Timestamp:  int64(p.Timestamp),
		Price:      p.Price.String(),
	}
}

func insertPrices(tx *gorm.DB, rows []PriceHistory) *gorm.DB {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, chunkSize)
}

// AddHistoricalPrices inserts entries, ignoring the ones already stored. If the batch hits a
// constraint it is retried row by row and only the offending rows are dropped, with a log line each.
func (h *Handler) AddHistoricalPrices(ctx context.Context, entries []globaldb.HistoricalPrice) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]PriceHistory, len(entries))
	for i, entry := range entries {
		rows[i] = priceRow(entry)
	}

	var inserted int64
	err := h.WriteCtx(ctx, func(tx *gorm.DB) error {
		result := insertPrices(tx, rows)
		inserted = result.RowsAffected
		return result.Error
	})
	if err == nil {
		h.metrics.pricesInserted.Add(float64(inserted))
		h.metrics.observe("add_historical_prices", nil)
		return nil
	}
	if !isIntegrityError(err) {
		h.metrics.observe("add_historical_prices", err)
		return err
	}

	h.logger.Error("one of the given historical price entries caused a DB error, will attempt to input them one by one", zap.Error(err))
	var dropped int
	err = h.WriteCtx(ctx, func(tx *gorm.DB) error {
		inserted, dropped = 0, 0
		for i, row := range rows {
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
			if result.Error == nil {
				inserted += result.RowsAffected
				continue
			}
			if !isIntegrityError(result.Error) {
				return result.Error
			}
			dropped++
			h.logger.Error("failed to add historical price, skipping entry", zap.Stringer("entry", entries[i]), zap.Error(result.Error))
		}
		return nil
	})
	if err == nil {
		h.metrics.pricesInserted.Add(float64(inserted))
		h.metrics.pricesDropped.Add(float64(dropped))
	}
	h.metrics.observe("add_historical_prices", err)
	return err
}

// AddSingleHistoricalPrice reports whether entry could be stored.
func (h *Handler) AddSingleHistoricalPrice(ctx context.Context, entry globaldb.HistoricalPrice) bool {
	row := priceRow(entry)
	var inserted int64
	err := h.WriteCtx(ctx, func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		inserted = result.RowsAffected
		return result.Error
	})
	h.metrics.observe("add_single_historical_price", err)
	if err != nil {
		h.logger.Error("failed to add single historical price", zap.Stringer("entry", entry), zap.Error(err))
		return false
	}
	h.metrics.pricesInserted.Add(float64(inserted))
	return true
}

// EditManualPrice updates the price of an existing manual entry and reports whether one was found.
func (h *Handler) EditManualPrice(ctx context.Context, entry globaldb.ManualPrice) bool {
	var updated int64
	err := h.WriteCtx(ctx, func(tx *gorm.DB) error {
		result := tx.Model(&PriceHistory{}).
			Where("from_asset = ? AND to_asset = ? AND source_type = ? AND timestamp = ?",
				entry.FromAsset, entry.ToAsset, globaldb.PriceSourceManual.DBValue(), int64(entry.Timestamp)).
			Update("price", entry.Price.String())
		updated = result.RowsAffected
		return result.Error
	})
	h.metrics.observe("edit_manual_price", err)
	if err != nil {
		h.logger.Error("failed to edit manual historical price",
			zap.String("from", entry.FromAsset),
			zap.String("to", entry.ToAsset),
			zap.Int64("timestamp", int64(entry.Timestamp)),
			zap.Error(err),
		)
		return false
	}
	return updated != 0
}

// DeleteManualPrice deletes one manual entry and reports whether it existed.
func (h *Handler) DeleteManualPrice(ctx context.Context, from, to string, ts globaldb.Timestamp) bool {
	var deleted int64
	err := h.WriteCtx(ctx, func(tx *gorm.DB) error {
		result := tx.Where("from_asset = ? AND to_asset = ? AND timestamp = ? AND source_type = ?",
			from, to, int64(ts), globaldb.PriceSourceManual.DBValue()).
			Delete(&PriceHistory{})
		deleted = result.RowsAffected
		return result.Error
	})
	h.metrics.observe("delete_manual_price", err)
	if err != nil || deleted != 1 {
		h.logger.Error("failed to delete historical price",
			zap.String("from", from),
			zap.String("to", to),
			zap.Int64("timestamp", int64(ts)),
			zap.Error(err),
		)
		return false
	}
	return true
}

// DeleteHistoricalPrices drops every price of the pair, optionally of a single source.
func (h *Handler) DeleteHistoricalPrices(ctx context.Context, from, to string, source *globaldb.PriceSource) error {
	err := h.WriteCtx(ctx, func(tx *gorm.DB) error {
		return pairFilters(from, to, source).apply(tx).Delete(&PriceHistory{}).Error
	})
	h.metrics.observe("delete_historical_prices", err)
	if isIntegrityError(err) {
		h.logger.Error("failed to delete historical prices", zap.String("from", from), zap.String("to", to), zap.Error(err))
		return nil
	}
	return err
}
