package globaldb

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/syntropynet/globaldb/pkg/globaldb"
)

// AddAsset inserts an asset together with its detail row. detail must be an EthereumToken for
// ethereum tokens and a CustomAsset for every other type.
func (h *Handler) AddAsset(ctx context.Context, identifier string, assetType globaldb.AssetType, detail any) error {
	err := h.WriteCtx(ctx, func(tx *gorm.DB) error {
		if assetType == globaldb.AssetTypeEthereumToken {
			token, err := asEthereumToken(detail)
			if err != nil {
				return err
			}
			return h.addEthereumToken(tx, identifier, token)
		}
		asset, err := asCustomAsset(detail)
		if err != nil {
			return err
		}
		asset.Type = assetType
		return addCustomAsset(tx, identifier, asset)
	})
	h.metrics.observe("add_asset", err)
	return err
}

func asEthereumToken(detail any) (globaldb.EthereumToken, error) {
	switch d := detail.(type) {
	case globaldb.EthereumToken:
		return d, nil
	case *globaldb.EthereumToken:
		if d != nil {
			return *d, nil
		}
	}
	return globaldb.EthereumToken{}, fmt.Errorf("%w: ethereum token details expected, got %T", globaldb.ErrInput, detail)
}

func asCustomAsset(detail any) (globaldb.CustomAsset, error) {
	switch d := detail.(type) {
	case globaldb.CustomAsset:
		return d, nil
	case *globaldb.CustomAsset:
		if d != nil {
			return *d, nil
		}
	}
	return globaldb.CustomAsset{}, fmt.Errorf("%w: custom asset details expected, got %T", globaldb.ErrInput, detail)
}

func (h *Handler) addEthereumToken(tx *gorm.DB, identifier string, token globaldb.EthereumToken) error {
	address, err := globaldb.ChecksumAddress(token.Address)
	if err != nil {
		return err
	}

	row := EthereumTokenRow{Address: address, Decimals: token.Decimals, Protocol: token.Protocol}
	if err := tx.Create(&row).Error; err != nil {
		return wrapWriteError(err, fmt.Sprintf("ethereum token with address %s", address))
	}
	if err := h.addUnderlyingTokens(tx, address, token.UnderlyingTokens); err != nil {
		return err
	}

	asset := Asset{
		Identifier:       identifier,
		Type:             tokenType,
		Name:             token.Name,
		Symbol:           token.Symbol,
		Started:          int64Ptr(token.Started),
		SwappedFor:       token.SwappedFor,
		Coingecko:        token.Coingecko,
		Cryptocompare:    token.Cryptocompare,
		DetailsReference: &address,
	}
	if err := tx.Create(&asset).Error; err != nil {
		return wrapWriteError(err, fmt.Sprintf("failed to add asset %s for details id %s", identifier, address))
	}
	return nil
}

func addCustomAsset(tx *gorm.DB, identifier string, data globaldb.CustomAsset) error {
	asset := Asset{
		Identifier:       identifier,
		Type:             data.Type.DBValue(),
		Name:             data.Name,
		Symbol:           data.Symbol,
		Started:          int64Ptr(data.Started),
		SwappedFor:       data.SwappedFor,
		Coingecko:        data.Coingecko,
		Cryptocompare:    data.Cryptocompare,
		DetailsReference: &identifier,
	}
	if err := tx.Create(&asset).Error; err != nil {
		return wrapWriteError(err, fmt.Sprintf("failed to add asset %s", identifier))
	}

	details := CommonAssetDetail{AssetID: identifier, Forked: data.Forked}
	if err := tx.Create(&details).Error; err != nil {
		return wrapWriteError(err, fmt.Sprintf("failed to add common details of asset %s", identifier))
	}
	return nil
}

// addUnderlyingTokens records the weighted components of parent. Components that are not tracked yet
// are added as bare placeholder tokens first.
func (h *Handler) addUnderlyingTokens(tx *gorm.DB, parent string, underlying []globaldb.UnderlyingToken) error {
	for _, u := range underlying {
		address, err := globaldb.ChecksumAddress(u.Address)
		if err != nil {
			return err
		}

		_, found, err := getEthereumTokenIdentifier(tx, address)
		if err != nil {
			return err
		}
		if !found {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&EthereumTokenRow{Address: address}).Error; err != nil {
				return wrapWriteError(err, fmt.Sprintf("failed to add underlying tokens for %s", parent))
			}
			placeholder := Asset{
				Identifier:       h.mapper.Identifier(address),
				Type:             tokenType,
				DetailsReference: &address,
			}
			if err := tx.Create(&placeholder).Error; err != nil {
				return wrapWriteError(err, fmt.Sprintf("failed to add underlying tokens for %s", parent))
			}
		}

		row := UnderlyingTokenRow{Address: address, Weight: u.Weight.String(), ParentTokenEntry: parent}
		if err := tx.Create(&row).Error; err != nil {
			return wrapWriteError(err, fmt.Sprintf("failed to add underlying tokens for %s", parent))
		}
	}
	return nil
}

// EditEthereumToken rewrites a token and its underlying tokens and returns its identifier.
func (h *Handler) EditEthereumToken(ctx context.Context, token globaldb.EthereumToken) (string, error) {
	address, err := globaldb.ChecksumAddress(token.Address)
	if err != nil {
		return "", err
	}

	var identifier string
	err = h.WriteCtx(ctx, func(tx *gorm.DB) error {
		result := tx.Model(&Asset{}).
			Where("details_reference = ? AND type = ?", address, tokenType).
			Updates(map[string]any{
				"name":          token.Name,
				"symbol":        token.Symbol,
				"started":       int64Ptr(token.Started),
				"swapped_for":   token.SwappedFor,
				"coingecko":     token.Coingecko,
				"cryptocompare": token.Cryptocompare,
			})
		if result.Error != nil {
			return wrapWriteError(result.Error, fmt.Sprintf("failed to update ethereum token %s", address))
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: tried to edit non existing ethereum token with address %s", globaldb.ErrAssetNotFound, address)
		}

		result = tx.Model(&EthereumTokenRow{}).
			Where("address = ?", address).
			Updates(map[string]any{"decimals": token.Decimals, "protocol": token.Protocol})
		if result.Error != nil {
			return wrapWriteError(result.Error, fmt.Sprintf("failed to update ethereum token %s", address))
		}
		if result.RowsAffected != 1 {
			return fmt.Errorf("%w: tried to edit non existing ethereum token with address %s", globaldb.ErrAssetNotFound, address)
		}

		if err := tx.Where("parent_token_entry = ?", address).Delete(&UnderlyingTokenRow{}).Error; err != nil {
			return err
		}
		if err := h.addUnderlyingTokens(tx, address, token.UnderlyingTokens); err != nil {
			return err
		}

		id, found, err := getEthereumTokenIdentifier(tx, address)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: ethereum token %s has no assets entry", globaldb.ErrInput, address)
		}
		identifier = id
		return nil
	})
	h.metrics.observe("edit_ethereum_token", err)
	return identifier, err
}

// EditCustomAsset rewrites a non token asset and its common details.
func (h *Handler) EditCustomAsset(ctx context.Context, asset globaldb.CustomAsset) error {
	if asset.Type == globaldb.AssetTypeEthereumToken {
		return fmt.Errorf("%w: %s can not be edited as a custom asset", globaldb.ErrInput, asset.Identifier)
	}

	err := h.WriteCtx(ctx, func(tx *gorm.DB) error {
		result := tx.Model(&Asset{}).
			Where("identifier = ? AND type != ?", asset.Identifier, tokenType).
			Updates(map[string]any{
				"type":          asset.Type.DBValue(),
				"name":          asset.Name,
				"symbol":        asset.Symbol,
				"started":       int64Ptr(asset.Started),
				"swapped_for":   asset.SwappedFor,
				"coingecko":     asset.Coingecko,
				"cryptocompare": asset.Cryptocompare,
			})
		if result.Error != nil {
			return wrapWriteError(result.Error, fmt.Sprintf("failed to update asset %s", asset.Identifier))
		}
		if result.RowsAffected != 1 {
			return fmt.Errorf("%w: tried to edit non existing asset with identifier %s", globaldb.ErrAssetNotFound, asset.Identifier)
		}

		result = tx.Model(&CommonAssetDetail{}).
			Where("asset_id = ?", asset.Identifier).
			Update("forked", asset.Forked)
		if result.Error != nil {
			return wrapWriteError(result.Error, fmt.Sprintf("failed to update common details of asset %s", asset.Identifier))
		}
		return nil
	})
	h.metrics.observe("edit_custom_asset", err)
	return err
}

func deleteEthereumToken(tx *gorm.DB, address string) (string, error) {
	result := tx.Where("address = ?", address).Delete(&EthereumTokenRow{})
	if result.Error != nil {
		return "", wrapDeleteError(result.Error, fmt.Sprintf("ethereum token %s is used by another token as an underlying or swapped for token", address))
	}
	if result.RowsAffected != 1 {
		return "", fmt.Errorf("%w: ethereum token with address %s", globaldb.ErrAssetNotFound, address)
	}

	var identifiers []string
	if err := tx.Model(&Asset{}).Where("details_reference = ? AND type = ?", address, tokenType).Pluck("identifier", &identifiers).Error; err != nil {
		return "", err
	}
	if len(identifiers) == 0 {
		return "", fmt.Errorf("%w: assets entry of ethereum token %s", globaldb.ErrAssetNotFound, address)
	}

	result = tx.Where("details_reference = ? AND type = ?", address, tokenType).Delete(&Asset{})
	if result.Error != nil {
		return "", wrapDeleteError(result.Error, fmt.Sprintf("ethereum token %s is used as a swapped for or forked asset or owned by a user", address))
	}
	return identifiers[0], nil
}

func deleteCustomAsset(tx *gorm.DB, identifier string) error {
	result := tx.Where("identifier = ? AND type != ?", identifier, tokenType).Delete(&Asset{})
	if result.Error != nil {
		return wrapDeleteError(result.Error, fmt.Sprintf("asset %s is used as a swapped for or forked asset or owned by a user", identifier))
	}
	if result.RowsAffected != 1 {
		return fmt.Errorf("%w: asset with identifier %s", globaldb.ErrAssetNotFound, identifier)
	}
	return nil
}

// DeleteEthereumToken deletes a token and returns its identifier.
func (h *Handler) DeleteEthereumToken(ctx context.Context, address string) (string, error) {
	address, err := globaldb.ChecksumAddress(address)
	if err != nil {
		return "", err
	}
	var identifier string
	err = h.WriteCtx(ctx, func(tx *gorm.DB) error {
		var err error
		identifier, err = deleteEthereumToken(tx, address)
		return err
	})
	h.metrics.observe("delete_ethereum_token", err)
	return identifier, err
}

func (h *Handler) DeleteCustomAsset(ctx context.Context, identifier string) error {
	err := h.WriteCtx(ctx, func(tx *gorm.DB) error {
		return deleteCustomAsset(tx, identifier)
	})
	h.metrics.observe("delete_custom_asset", err)
	return err
}

// DeleteAssetByIdentifier deletes an asset even if a user owns it, together with its price history.
func (h *Handler) DeleteAssetByIdentifier(ctx context.Context, identifier string, assetType globaldb.AssetType) error {
	err := h.WriteCtx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("asset_id = ?", identifier).Delete(&UserOwnedAsset{}).Error; err != nil {
			return err
		}
		if err := tx.Where("from_asset = ? OR to_asset = ?", identifier, identifier).Delete(&PriceHistory{}).Error; err != nil {
			return err
		}

		if assetType != globaldb.AssetTypeEthereumToken {
			return deleteCustomAsset(tx, identifier)
		}
		address, err := h.tokenAddress(tx, identifier)
		if err != nil {
			return err
		}
		_, err = deleteEthereumToken(tx, address)
		return err
	})
	h.metrics.observe("delete_asset_by_identifier", err)
	return err
}

// tokenAddress recovers the address behind a token identifier, falling back to the stored
// details reference for identifiers the mapper does not produce.
func (h *Handler) tokenAddress(tx *gorm.DB, identifier string) (string, error) {
	if address, ok := h.mapper.Address(identifier); ok {
		return globaldb.ChecksumAddress(address)
	}
	var references []string
	err := tx.Model(&Asset{}).
		Where("identifier = ? AND type = ? AND details_reference IS NOT NULL", identifier, tokenType).
		Pluck("details_reference", &references).Error
	if err != nil {
		return "", err
	}
	if len(references) == 0 {
		return "", fmt.Errorf("%w: ethereum token with identifier %s", globaldb.ErrAssetNotFound, identifier)
	}
	return references[0], nil
}

// AddUserOwnedAssets marks assets as held by a local user. NFT identifiers are skipped and
// constraint violations are logged rather than returned.
func (h *Handler) AddUserOwnedAssets(ctx context.Context, identifiers []string) error {
	rows := make([]UserOwnedAsset, 0, len(identifiers))
	for _, id := range identifiers {
		if strings.HasPrefix(id, globaldb.NFTDirective) {
			continue
		}
		rows = append(rows, UserOwnedAsset{AssetID: id})
	}
	if len(rows) == 0 {
		return nil
	}

	err := h.WriteCtx(ctx, func(tx *gorm.DB) error {
		return insertUserOwnedAssets(tx, rows)
	})
	if isIntegrityError(err) {
		h.logger.Error("one of the owned asset ids caused an integrity error",
			zap.Error(err),
			zap.String("identifiers", strings.Join(identifiers, ",")),
		)
		err = nil
	}
	h.metrics.observe("add_user_owned_assets", err)
	return err
}

func insertUserOwnedAssets(tx *gorm.DB, rows []UserOwnedAsset) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, chunkSize).Error
}
