package globaldb

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"

	"github.com/syntropynet/globaldb/pkg/globaldb"
)

const (
	msgVersionMismatch = "Failed to restore assets. Global database is not updated to the latest version"
	msgUnsafeReset     = "There are assets that can not be deleted. Check logs for more details."
	msgResetFailed     = "Failed to restore assets. Read logs to get more information."
)

// HardResetAssetsList replaces the whole asset catalog with the reference one. Unless force is set
// it refuses when the user owns assets the reference does not ship.
func (h *Handler) HardResetAssetsList(ctx context.Context, userDB globaldb.UserDB, force bool) (bool, string) {
	h.resetMu.Lock()
	defer h.resetMu.Unlock()

	ok, msg := h.hardReset(ctx, userDB, force)
	h.metrics.reset("hard", ok)
	return ok, msg
}

func (h *Handler) hardReset(ctx context.Context, userDB globaldb.UserDB, force bool) (bool, string) {
	if err := h.refreshOwnedAssets(ctx, userDB); err != nil {
		h.logger.Error("failed to update owned assets before hard reset", zap.Error(err))
		return false, msgResetFailed
	}

	snapshot, ok, msg := h.checkedReference(ctx)
	if !ok {
		return false, msg
	}

	var owned []string
	if err := h.ReadCtx(ctx, func(tx *gorm.DB) error {
		return tx.Model(&UserOwnedAsset{}).Pluck("asset_id", &owned).Error
	}); err != nil {
		h.logger.Error("failed to read owned assets", zap.Error(err))
		return false, msgResetFailed
	}
	if diff := difference(owned, snapshot.identifiers()); len(diff) != 0 && !force {
		h.logger.Warn("refusing to hard reset assets owned by the user that the reference does not ship",
			zap.Strings("identifiers", diff),
		)
		return false, msgUnsafeReset
	}

	err := h.writeCtxUnchecked(ctx, func(tx *gorm.DB) error {
		for _, table := range []string{"assets", "ethereum_tokens", "underlying_tokens_list", "common_asset_details", "user_owned_assets"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return err
			}
		}
		return copySnapshot(tx, snapshot)
	})
	if err != nil {
		h.logger.Error("failed to restore assets in the global DB", zap.Error(err))
		return false, msgResetFailed
	}

	identifiers := snapshot.identifiers()
	if err := userDB.ReplaceAssetIdentifiers(ctx, identifiers); err != nil {
		h.logger.Error("failed to re-seed the user DB asset identifiers", zap.Error(err))
		return false, msgResetFailed
	}
	if err := h.refreshOwnedAssets(ctx, userDB); err != nil {
		h.logger.Error("failed to update owned assets after hard reset", zap.Error(err))
		return false, msgResetFailed
	}

	h.metrics.catalogSize.Set(float64(len(identifiers)))
	h.logger.Info("hard reset the assets list", zap.Int("assets", len(identifiers)), zap.Bool("force", force))
	return true, ""
}

// SoftResetAssetsList resets every asset shipped in the reference DB to its reference values.
// Assets the reference does not know are left untouched.
func (h *Handler) SoftResetAssetsList(ctx context.Context) (bool, string) {
	h.resetMu.Lock()
	defer h.resetMu.Unlock()

	ok, msg := h.softReset(ctx)
	h.metrics.reset("soft", ok)
	return ok, msg
}

func (h *Handler) softReset(ctx context.Context) (bool, string) {
	snapshot, ok, msg := h.checkedReference(ctx)
	if !ok {
		return false, msg
	}

	identifiers := snapshot.identifiers()
	addresses := snapshot.addresses()
	err := h.writeCtxUnchecked(ctx, func(tx *gorm.DB) error {
		for _, chunk := range chunks(identifiers, chunkSize) {
			if err := tx.Where("identifier IN ?", chunk).Delete(&Asset{}).Error; err != nil {
				return err
			}
			if err := tx.Where("asset_id IN ?", chunk).Delete(&CommonAssetDetail{}).Error; err != nil {
				return err
			}
		}
		for _, chunk := range chunks(addresses, chunkSize) {
			if err := tx.Where("address IN ?", chunk).Delete(&EthereumTokenRow{}).Error; err != nil {
				return err
			}
			if err := tx.Where("parent_token_entry IN ?", chunk).Delete(&UnderlyingTokenRow{}).Error; err != nil {
				return err
			}
		}
		return copySnapshot(tx, snapshot)
	})
	if err != nil {
		h.logger.Error("failed to restore assets in the global DB", zap.Error(err))
		return false, msgResetFailed
	}

	var count int64
	if err := h.ReadCtx(ctx, func(tx *gorm.DB) error {
		return tx.Model(&Asset{}).Count(&count).Error
	}); err == nil {
		h.metrics.catalogSize.Set(float64(count))
	}
	h.logger.Info("soft reset the assets list", zap.Int("shipped", len(identifiers)))
	return true, ""
}

// GetUserAddedAssets returns, sorted, the identifiers in the catalog (or only the ones a user owns)
// that the reference DB does not ship.
func (h *Handler) GetUserAddedAssets(ctx context.Context, userDB globaldb.UserDB, onlyOwned bool) ([]string, error) {
	h.resetMu.Lock()
	defer h.resetMu.Unlock()

	if err := h.refreshOwnedAssets(ctx, userDB); err != nil {
		return nil, err
	}

	var local []string
	err := h.ReadCtx(ctx, func(tx *gorm.DB) error {
		if onlyOwned {
			return tx.Model(&UserOwnedAsset{}).Pluck("asset_id", &local).Error
		}
		return tx.Model(&Asset{}).Pluck("identifier", &local).Error
	})
	if err != nil {
		return nil, err
	}

	shipped, err := h.referenceIdentifiers(ctx)
	if err != nil {
		return nil, err
	}
	return difference(local, shipped), nil
}

// checkedReference loads the reference DB and makes sure it has the same version as the live one.
func (h *Handler) checkedReference(ctx context.Context) (*referenceSnapshot, bool, string) {
	snapshot, err := h.loadReference(ctx)
	if err != nil {
		h.logger.Error("failed to read the reference DB", zap.Error(err))
		return nil, false, msgResetFailed
	}
	version, err := h.SchemaVersion(ctx)
	if err != nil {
		h.logger.Error("failed to read the global DB version", zap.Error(err))
		return nil, false, msgResetFailed
	}
	if snapshot.version != version {
		h.logger.Warn("reference DB version differs from the global DB",
			zap.Int("reference", snapshot.version),
			zap.Int("global", version),
		)
		return nil, false, msgVersionMismatch
	}
	return snapshot, true, ""
}

func copySnapshot(tx *gorm.DB, snapshot *referenceSnapshot) error {
	if len(snapshot.assets) > 0 {
		if err := tx.CreateInBatches(&snapshot.assets, chunkSize).Error; err != nil {
			return err
		}
	}
	if len(snapshot.tokens) > 0 {
		if err := tx.CreateInBatches(&snapshot.tokens, chunkSize).Error; err != nil {
			return err
		}
	}
	if len(snapshot.underlying) > 0 {
		if err := tx.CreateInBatches(&snapshot.underlying, chunkSize).Error; err != nil {
			return err
		}
	}
	if len(snapshot.details) > 0 {
		if err := tx.CreateInBatches(&snapshot.details, chunkSize).Error; err != nil {
			return err
		}
	}
	return nil
}

// refreshOwnedAssets records every asset the user DB reports as held and the catalog knows.
func (h *Handler) refreshOwnedAssets(ctx context.Context, userDB globaldb.UserDB) error {
	owned, err := userDB.OwnedAssetIdentifiers(ctx)
	if err != nil {
		return err
	}
	var candidates []string
	for _, id := range owned {
		if !strings.HasPrefix(id, globaldb.NFTDirective) {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	return h.WriteCtx(ctx, func(tx *gorm.DB) error {
		var known []string
		for _, chunk := range chunks(candidates, chunkSize) {
			var ids []string
			if err := tx.Model(&Asset{}).Where("identifier IN ?", chunk).Pluck("identifier", &ids).Error; err != nil {
				return err
			}
			known = append(known, ids...)
		}
		if unknown := len(candidates) - len(known); unknown > 0 {
			h.logger.Debug("ignoring owned assets missing from the catalog", zap.Int("count", unknown))
		}

		rows := make([]UserOwnedAsset, len(known))
		for i, id := range known {
			rows[i] = UserOwnedAsset{AssetID: id}
		}
		return insertUserOwnedAssets(tx, rows)
	})
}

// difference returns the sorted values of a that are not in b.
func difference(a, b []string) []string {
	exclude := make(map[string]struct{}, len(b))
	for _, v := range b {
		exclude[v] = struct{}{}
	}
	ret := make([]string, 0)
	for _, v := range a {
		if _, ok := exclude[v]; !ok {
			ret = append(ret, v)
		}
	}
	slices.Sort(ret)
	return slices.Compact(ret)
}
