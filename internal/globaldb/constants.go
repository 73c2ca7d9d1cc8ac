package globaldb

import (
	"context"

	"go.uber.org/zap"

	"github.com/syntropynet/globaldb/pkg/globaldb"
)

// reloadConstantAssets republishes the well-known asset descriptors with their current DB values.
// A descriptor whose row is missing, or whose row switched between token and non token, keeps its
// compiled-in value.
func (h *Handler) reloadConstantAssets(ctx context.Context) error {
	current := h.constants.All()
	identifiers := make([]string, len(current))
	for i, d := range current {
		identifiers[i] = d.Identifier
	}

	rows, err := h.GetAllAssetDataMapping(ctx, identifiers)
	if err != nil {
		return err
	}

	next := make([]globaldb.AssetData, 0, len(current))
	for _, entry := range current {
		row, ok := rows[entry.Identifier]
		if !ok {
			h.logger.Error("constant asset has no DB entry, keeping the built-in descriptor", zap.String("identifier", entry.Identifier))
			next = append(next, entry)
			continue
		}
		wasToken := entry.Type == globaldb.AssetTypeEthereumToken
		isToken := row.Type == globaldb.AssetTypeEthereumToken
		if wasToken != isToken {
			h.logger.Error("constant asset has a different kind in the DB, keeping the built-in descriptor",
				zap.String("identifier", entry.Identifier),
				zap.Stringer("builtin", entry.Type),
				zap.Stringer("db", row.Type),
			)
			next = append(next, entry)
			continue
		}
		next = append(next, row)
	}

	h.constants.Publish(next)
	return nil
}
