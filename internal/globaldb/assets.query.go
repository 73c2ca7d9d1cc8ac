package globaldb

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/syntropynet/globaldb/pkg/globaldb"
)

const (
	tokenBranchColumns  = "A.identifier, A.type, A.name, A.symbol, A.started, NULL AS forked, A.swapped_for, A.coingecko, A.cryptocompare, B.address, B.decimals, B.protocol"
	customBranchColumns = "A.identifier, A.type, A.name, A.symbol, A.started, B.forked, A.swapped_for, A.coingecko, A.cryptocompare, NULL AS address, NULL AS decimals, NULL AS protocol"
)

var tokenType = globaldb.AssetTypeEthereumToken.DBValue()

func tokenBranch(tx *gorm.DB) *gorm.DB {
	return tx.Table("assets AS A").
		Select(tokenBranchColumns).
		Joins("LEFT OUTER JOIN ethereum_tokens AS B ON B.address = A.details_reference").
		Where("A.type = ?", tokenType)
}

func customBranch(tx *gorm.DB) *gorm.DB {
	return tx.Table("assets AS A").
		Select(customBranchColumns).
		Joins("LEFT OUTER JOIN common_asset_details AS B ON B.asset_id = A.identifier").
		Where("A.type != ?", tokenType)
}

// tokensQuery selects every ethereum token, including the ones whose assets row is missing.
func tokensQuery(tx *gorm.DB) *gorm.DB {
	return tx.Table("ethereum_tokens AS B").
		Select(tokenBranchColumns).
		Joins("LEFT OUTER JOIN assets AS A ON B.address = A.details_reference")
}

func timestampPtr(v *int64) *globaldb.Timestamp {
	if v == nil {
		return nil
	}
	ts := globaldb.Timestamp(*v)
	return &ts
}

func int64Ptr(v *globaldb.Timestamp) *int64 {
	if v == nil {
		return nil
	}
	ts := int64(*v)
	return &ts
}

func (r assetDataRow) toAssetData() (globaldb.AssetData, error) {
	assetType, err := globaldb.ParseAssetTypeDB(r.Type)
	if err != nil {
		return globaldb.AssetData{}, err
	}
	data := globaldb.AssetData{
		Identifier:    r.Identifier,
		Type:          assetType,
		Name:          r.Name,
		Symbol:        r.Symbol,
		Started:       timestampPtr(r.Started),
		Forked:        r.Forked,
		SwappedFor:    r.SwappedFor,
		Coingecko:     r.Coingecko,
		Cryptocompare: r.Cryptocompare,
	}
	if assetType == globaldb.AssetTypeEthereumToken {
		data.EthereumAddress = r.Address
		data.Decimals = r.Decimals
		data.Protocol = r.Protocol
	}
	return data, nil
}

func (h *Handler) toAssetDataList(rows []assetDataRow) []globaldb.AssetData {
	ret := make([]globaldb.AssetData, 0, len(rows))
	for _, row := range rows {
		data, err := row.toAssetData()
		if err != nil {
			h.logger.Warn("skipping asset", zap.String("identifier", row.Identifier), zap.Error(err))
			continue
		}
		ret = append(ret, data)
	}
	return ret
}

// GetAssetData returns all details of a single asset, or nil if the identifier is unknown.
// Ethereum tokens missing name, symbol or decimals are treated as unknown unless allowIncomplete is set.
func (h *Handler) GetAssetData(ctx context.Context, identifier string, allowIncomplete bool) (*globaldb.AssetData, error) {
	var ret *globaldb.AssetData
	err := h.ReadCtx(ctx, func(tx *gorm.DB) error {
		var asset Asset
		result := tx.Model(&Asset{}).Limit(1).Find(&asset, "identifier = ?", identifier)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		row := assetDataRow{
			Identifier:    asset.Identifier,
			Type:          asset.Type,
			Name:          asset.Name,
			Symbol:        asset.Symbol,
			Started:       asset.Started,
			SwappedFor:    asset.SwappedFor,
			Coingecko:     asset.Coingecko,
			Cryptocompare: asset.Cryptocompare,
		}
		if asset.Type == tokenType {
			var token EthereumTokenRow
			result := tx.Model(&EthereumTokenRow{}).Limit(1).Find(&token, "address = ?", asset.DetailsReference)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				h.logger.Error("token found in the assets table but not in the token details table", zap.String("identifier", asset.Identifier))
				return nil
			}
			if !allowIncomplete && (asset.Name == nil || asset.Symbol == nil || token.Decimals == nil) {
				h.logger.Debug("considering incomplete ethereum token as unknown", zap.String("address", token.Address))
				return nil
			}
			row.Address = &token.Address
			row.Decimals = token.Decimals
			row.Protocol = token.Protocol
		} else {
			var details CommonAssetDetail
			result := tx.Model(&CommonAssetDetail{}).Limit(1).Find(&details, "asset_id = ?", asset.DetailsReference)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				h.logger.Error("asset found in the assets table but not in the common asset details table", zap.String("identifier", asset.Identifier))
				return nil
			}
			row.Forked = details.Forked
		}

		data, err := row.toAssetData()
		if err != nil {
			h.logger.Debug("failed to read asset", zap.String("identifier", identifier), zap.Error(err))
			return nil
		}
		ret = &data
		return nil
	})
	h.metrics.observe("get_asset_data", err)
	return ret, err
}

func (h *Handler) allAssetData(ctx context.Context, specificIDs []string) ([]globaldb.AssetData, error) {
	var f filters
	if specificIDs != nil {
		f = f.and("A.identifier IN ?", specificIDs)
	}

	var rows []assetDataRow
	err := h.ReadCtx(ctx, func(tx *gorm.DB) error {
		var tokens, custom []assetDataRow
		if err := f.apply(tokenBranch(tx)).Order("A.identifier").Scan(&tokens).Error; err != nil {
			return err
		}
		if err := f.apply(customBranch(tx)).Order("A.identifier").Scan(&custom).Error; err != nil {
			return err
		}
		rows = append(tokens, custom...)
		return nil
	})
	h.metrics.observe("get_all_asset_data", err)
	if err != nil {
		return nil, err
	}
	return h.toAssetDataList(rows), nil
}

// GetAllAssetData returns every asset, or only the ones in specificIDs when it is not nil.
func (h *Handler) GetAllAssetData(ctx context.Context, specificIDs []string) ([]globaldb.AssetData, error) {
	return h.allAssetData(ctx, specificIDs)
}

// GetAllAssetDataMapping is GetAllAssetData keyed by identifier.
func (h *Handler) GetAllAssetDataMapping(ctx context.Context, specificIDs []string) (map[string]globaldb.AssetData, error) {
	list, err := h.allAssetData(ctx, specificIDs)
	if err != nil {
		return nil, err
	}
	ret := make(map[string]globaldb.AssetData, len(list))
	for _, data := range list {
		ret[data.Identifier] = data
	}
	return ret, nil
}

func fetchUnderlyingTokens(tx *gorm.DB, parents []string) (map[string][]globaldb.UnderlyingToken, error) {
	ret := make(map[string][]globaldb.UnderlyingToken)
	for _, chunk := range chunks(parents, chunkSize) {
		var rows []UnderlyingTokenRow
		if err := tx.Model(&UnderlyingTokenRow{}).Where("parent_token_entry IN ?", chunk).Order("rowid").Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			weight, err := decimal.NewFromString(row.Weight)
			if err != nil {
				return nil, fmt.Errorf("%w: underlying token %s weight %q", globaldb.ErrDeserialization, row.Address, row.Weight)
			}
			ret[row.ParentTokenEntry] = append(ret[row.ParentTokenEntry], globaldb.UnderlyingToken{
				Address: row.Address,
				Weight:  weight,
			})
		}
	}
	return ret, nil
}

func (r assetDataRow) toEthereumToken(underlying []globaldb.UnderlyingToken) globaldb.EthereumToken {
	token := globaldb.EthereumToken{
		Identifier:       r.Identifier,
		Decimals:         r.Decimals,
		Name:             r.Name,
		Symbol:           r.Symbol,
		Started:          timestampPtr(r.Started),
		SwappedFor:       r.SwappedFor,
		Coingecko:        r.Coingecko,
		Cryptocompare:    r.Cryptocompare,
		Protocol:         r.Protocol,
		UnderlyingTokens: underlying,
	}
	if r.Address != nil {
		token.Address = *r.Address
	}
	return token
}

func (h *Handler) ethereumTokens(tx *gorm.DB, f filters) ([]globaldb.EthereumToken, error) {
	var rows []assetDataRow
	if err := f.apply(tokensQuery(tx)).Order("B.address").Scan(&rows).Error; err != nil {
		return nil, err
	}

	addresses := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Address != nil {
			addresses = append(addresses, *row.Address)
		}
	}
	underlying, err := fetchUnderlyingTokens(tx, addresses)
	if err != nil {
		return nil, err
	}

	ret := make([]globaldb.EthereumToken, 0, len(rows))
	for _, row := range rows {
		var parent string
		if row.Address != nil {
			parent = *row.Address
		}
		ret = append(ret, row.toEthereumToken(underlying[parent]))
	}
	return ret, nil
}

// checksummedAddresses normalizes addresses, dropping the ones that are not ethereum addresses.
func checksummedAddresses(addresses []string) []string {
	ret := make([]string, 0, len(addresses))
	for _, address := range addresses {
		if checksummed, err := globaldb.ChecksumAddress(address); err == nil {
			ret = append(ret, checksummed)
		}
	}
	return ret
}

// GetEthereumToken returns the token with the given address or nil.
func (h *Handler) GetEthereumToken(ctx context.Context, address string) (*globaldb.EthereumToken, error) {
	address, err := globaldb.ChecksumAddress(address)
	if err != nil {
		return nil, nil
	}
	var ret *globaldb.EthereumToken
	err = h.ReadCtx(ctx, func(tx *gorm.DB) error {
		tokens, err := h.ethereumTokens(tx, filters{}.and("B.address = ?", address))
		if err != nil || len(tokens) == 0 {
			return err
		}
		ret = &tokens[0]
		return nil
	})
	h.metrics.observe("get_ethereum_token", err)
	return ret, err
}

// GetEthereumTokens returns all tokens matching filter, each with its underlying tokens.
func (h *Handler) GetEthereumTokens(ctx context.Context, filter globaldb.EthereumTokenFilter) ([]globaldb.EthereumToken, error) {
	var f filters
	if exceptions := checksummedAddresses(filter.Exceptions); len(exceptions) > 0 {
		f = f.and("B.address NOT IN ?", exceptions)
	}
	if filter.Protocol != nil {
		f = f.and("B.protocol = ?", *filter.Protocol)
	}
	if filter.ExceptProtocols != nil {
		f = f.and("(B.protocol NOT IN ? OR B.protocol IS NULL)", filter.ExceptProtocols)
	}

	var ret []globaldb.EthereumToken
	err := h.ReadCtx(ctx, func(tx *gorm.DB) error {
		var err error
		ret, err = h.ethereumTokens(tx, f)
		return err
	})
	h.metrics.observe("get_ethereum_tokens", err)
	return ret, err
}

func getEthereumTokenIdentifier(tx *gorm.DB, address string) (string, bool, error) {
	var identifiers []string
	err := tx.Table("assets AS A").
		Joins("INNER JOIN ethereum_tokens AS B ON B.address = A.details_reference").
		Where("B.address = ?", address).
		Limit(1).
		Pluck("A.identifier", &identifiers).Error
	if err != nil || len(identifiers) == 0 {
		return "", false, err
	}
	return identifiers[0], true, nil
}

// GetEthereumTokenIdentifier returns the asset identifier of the token with the given address.
func (h *Handler) GetEthereumTokenIdentifier(ctx context.Context, address string) (string, bool, error) {
	address, err := globaldb.ChecksumAddress(address)
	if err != nil {
		return "", false, nil
	}
	var (
		identifier string
		found      bool
	)
	err = h.ReadCtx(ctx, func(tx *gorm.DB) error {
		var err error
		identifier, found, err = getEthereumTokenIdentifier(tx, address)
		return err
	})
	return identifier, found, err
}

// GetTokensMappings maps each known token address in addresses to its name, keyed by checksummed address.
func (h *Handler) GetTokensMappings(ctx context.Context, addresses []string) (map[string]string, error) {
	addresses = checksummedAddresses(addresses)
	ret := make(map[string]string, len(addresses))
	err := h.ReadCtx(ctx, func(tx *gorm.DB) error {
		for _, chunk := range chunks(addresses, chunkSize) {
			var rows []struct {
				Address string
				Name    *string
			}
			err := tx.Table("ethereum_tokens AS B").
				Select("B.address, A.name").
				Joins("INNER JOIN assets AS A ON B.address = A.details_reference").
				Where("B.address IN ?", chunk).
				Scan(&rows).Error
			if err != nil {
				return err
			}
			for _, row := range rows {
				if row.Name != nil {
					ret[row.Address] = *row.Name
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// CheckAssetExists returns the identifiers of assets with exactly this type, name and symbol.
func (h *Handler) CheckAssetExists(ctx context.Context, assetType globaldb.AssetType, name, symbol string) ([]string, error) {
	var identifiers []string
	err := h.ReadCtx(ctx, func(tx *gorm.DB) error {
		return tx.Model(&Asset{}).
			Where("type = ? AND name = ? AND symbol = ?", assetType.DBValue(), name, symbol).
			Order("identifier").
			Pluck("identifier", &identifiers).Error
	})
	if err != nil || len(identifiers) == 0 {
		return nil, err
	}
	return identifiers, nil
}

// GetAssetsWithSymbol finds assets by case insensitive symbol, optionally of a single type.
func (h *Handler) GetAssetsWithSymbol(ctx context.Context, symbol string, assetType *globaldb.AssetType) ([]globaldb.AssetData, error) {
	f := filters{}.and("A.symbol = ? COLLATE NOCASE", symbol)

	var rows []assetDataRow
	err := h.ReadCtx(ctx, func(tx *gorm.DB) error {
		if assetType == nil || *assetType == globaldb.AssetTypeEthereumToken {
			var tokens []assetDataRow
			if err := f.apply(tokenBranch(tx)).Order("A.identifier").Scan(&tokens).Error; err != nil {
				return err
			}
			rows = append(rows, tokens...)
		}
		if assetType == nil || *assetType != globaldb.AssetTypeEthereumToken {
			cf := f
			if assetType != nil {
				cf = cf.and("A.type = ?", assetType.DBValue())
			}
			var custom []assetDataRow
			if err := cf.apply(customBranch(tx)).Order("A.identifier").Scan(&custom).Error; err != nil {
				return err
			}
			rows = append(rows, custom...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return h.toAssetDataList(rows), nil
}
