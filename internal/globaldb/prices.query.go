package globaldb

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/syntropynet/globaldb/pkg/globaldb"
)

func (p PriceHistory) toHistoricalPrice() (globaldb.HistoricalPrice, error) {
	source, err := globaldb.ParsePriceSourceDB(p.SourceType)
	if err != nil {
		return globaldb.HistoricalPrice{}, err
	}
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return globaldb.HistoricalPrice{}, fmt.Errorf("%w: price %q", globaldb.ErrDeserialization, p.Price)
	}
	return globaldb.HistoricalPrice{
		FromAsset: p.FromAsset,
		ToAsset:   p.ToAsset,
		Source:    source,
		Timestamp: globaldb.Timestamp(p.Timestamp),
		Price:     price,
	}, nil
}

func pairFilters(from, to string, source *globaldb.PriceSource) filters {
	f := filters{}.and("from_asset = ? AND to_asset = ?", from, to)
	if source != nil {
		f = f.and("source_type = ?", source.DBValue())
	}
	return f
}

// GetHistoricalPrice returns the price of from in to nearest to ts, at most maxDistance seconds away,
// or nil when there is none.
func (h *Handler) GetHistoricalPrice(ctx context.Context, from, to string, ts globaldb.Timestamp, maxDistance int64, source *globaldb.PriceSource) (*globaldb.HistoricalPrice, error) {
	f := pairFilters(from, to, source).and("ABS(timestamp - ?) <= ?", int64(ts), maxDistance)

	var ret *globaldb.HistoricalPrice
	err := h.ReadCtx(ctx, func(tx *gorm.DB) error {
		var row PriceHistory
		result := f.apply(tx.Model(&PriceHistory{})).
			Clauses(clause.OrderBy{Expression: clause.Expr{SQL: "ABS(timestamp - ?) ASC, timestamp ASC", Vars: []any{int64(ts)}, WithoutParentheses: true}}).
			Limit(1).
			Find(&row)
		if result.Error != nil || result.RowsAffected == 0 {
			return result.Error
		}
		price, err := row.toHistoricalPrice()
		if err != nil {
			return err
		}
		ret = &price
		return nil
	})
	h.metrics.observe("get_historical_price", err)
	return ret, err
}

// GetManualPrices returns manually entered prices ordered by timestamp, optionally for one side of the pair.
func (h *Handler) GetManualPrices(ctx context.Context, from, to *string) ([]globaldb.ManualPrice, error) {
	f := filters{}.and("source_type = ?", globaldb.PriceSourceManual.DBValue())
	if from != nil {
		f = f.and("from_asset = ?", *from)
	}
	if to != nil {
		f = f.and("to_asset = ?", *to)
	}

	var rows []PriceHistory
	err := h.ReadCtx(ctx, func(tx *gorm.DB) error {
		return f.apply(tx.Model(&PriceHistory{})).Order("timestamp").Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	ret := make([]globaldb.ManualPrice, 0, len(rows))
	for _, row := range rows {
		price, err := row.toHistoricalPrice()
		if err != nil {
			return nil, err
		}
		ret = append(ret, globaldb.ManualPrice{
			FromAsset: price.FromAsset,
			ToAsset:   price.ToAsset,
			Timestamp: price.Timestamp,
			Price:     price.Price,
		})
	}
	return ret, nil
}

// GetHistoricalPriceRange returns the first and last timestamp priced for the pair, or nil if none is.
func (h *Handler) GetHistoricalPriceRange(ctx context.Context, from, to string, source *globaldb.PriceSource) (*globaldb.PriceRange, error) {
	var row struct {
		FirstTs *int64
		LastTs  *int64
	}
	err := h.ReadCtx(ctx, func(tx *gorm.DB) error {
		return pairFilters(from, to, source).
			apply(tx.Model(&PriceHistory{}).Select("MIN(timestamp) AS first_ts, MAX(timestamp) AS last_ts")).
			Scan(&row).Error
	})
	if err != nil || row.FirstTs == nil || row.LastTs == nil {
		return nil, err
	}
	return &globaldb.PriceRange{First: globaldb.Timestamp(*row.FirstTs), Last: globaldb.Timestamp(*row.LastTs)}, nil
}

// GetHistoricalPriceData lists every priced pair of source with its first and last timestamp.
func (h *Handler) GetHistoricalPriceData(ctx context.Context, source globaldb.PriceSource) ([]globaldb.PriceDataEntry, error) {
	var rows []struct {
		FromAsset     string
		ToAsset       string
		FromTimestamp int64
		ToTimestamp   int64
	}
	err := h.ReadCtx(ctx, func(tx *gorm.DB) error {
		return tx.Model(&PriceHistory{}).
			Select("from_asset, to_asset, MIN(timestamp) AS from_timestamp, MAX(timestamp) AS to_timestamp").
			Where("source_type = ?", source.DBValue()).
			Group("from_asset, to_asset").
			Order("from_asset, to_asset").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	ret := make([]globaldb.PriceDataEntry, len(rows))
	for i, row := range rows {
		ret[i] = globaldb.PriceDataEntry{
			FromAsset:     row.FromAsset,
			ToAsset:       row.ToAsset,
			FromTimestamp: globaldb.Timestamp(row.FromTimestamp),
			ToTimestamp:   globaldb.Timestamp(row.ToTimestamp),
		}
	}
	return ret, nil
}
