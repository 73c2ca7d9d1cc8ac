package globaldb

import (
	"context"
)

// GlobalDB is the asset catalog and price history store shared by every component of the process.
type GlobalDB interface {
	Close() error

	SchemaVersion(ctx context.Context) (int, error)
	SettingValue(ctx context.Context, name string, defaultValue int) (int, error)
	SetSettingValue(ctx context.Context, name string, value int) error

	AddAsset(ctx context.Context, identifier string, assetType AssetType, detail any) error
	GetAssetData(ctx context.Context, identifier string, allowIncomplete bool) (*AssetData, error)
	GetAllAssetData(ctx context.Context, specificIDs []string) ([]AssetData, error)
	GetAllAssetDataMapping(ctx context.Context, specificIDs []string) (map[string]AssetData, error)
	GetEthereumToken(ctx context.Context, address string) (*EthereumToken, error)
	GetEthereumTokens(ctx context.Context, filter EthereumTokenFilter) ([]EthereumToken, error)
	GetEthereumTokenIdentifier(ctx context.Context, address string) (string, bool, error)
	GetTokensMappings(ctx context.Context, addresses []string) (map[string]string, error)
	GetAssetsWithSymbol(ctx context.Context, symbol string, assetType *AssetType) ([]AssetData, error)
	EditEthereumToken(ctx context.Context, token EthereumToken) (string, error)
	EditCustomAsset(ctx context.Context, asset CustomAsset) error
	DeleteEthereumToken(ctx context.Context, address string) (string, error)
	DeleteCustomAsset(ctx context.Context, identifier string) error
	DeleteAssetByIdentifier(ctx context.Context, identifier string, assetType AssetType) error
	CheckAssetExists(ctx context.Context, assetType AssetType, name, symbol string) ([]string, error)
	AddUserOwnedAssets(ctx context.Context, identifiers []string) error

	GetHistoricalPrice(ctx context.Context, from, to string, ts Timestamp, maxDistance int64, source *PriceSource) (*HistoricalPrice, error)
	AddHistoricalPrices(ctx context.Context, entries []HistoricalPrice) error
	AddSingleHistoricalPrice(ctx context.Context, entry HistoricalPrice) bool
	EditManualPrice(ctx context.Context, entry ManualPrice) bool
	DeleteManualPrice(ctx context.Context, from, to string, ts Timestamp) bool
	DeleteHistoricalPrices(ctx context.Context, from, to string, source *PriceSource) error
	GetHistoricalPriceRange(ctx context.Context, from, to string, source *PriceSource) (*PriceRange, error)
	GetManualPrices(ctx context.Context, from, to *string) ([]ManualPrice, error)
	GetHistoricalPriceData(ctx context.Context, source PriceSource) ([]PriceDataEntry, error)

	HardResetAssetsList(ctx context.Context, userDB UserDB, force bool) (bool, string)
	SoftResetAssetsList(ctx context.Context) (bool, string)
	GetUserAddedAssets(ctx context.Context, userDB UserDB, onlyOwned bool) ([]string, error)
}

// UserDB is the per-user database consulted to find which assets the user ever held.
type UserDB interface {
	// OwnedAssetIdentifiers lists every asset identifier the user has ever held.
	OwnedAssetIdentifiers(ctx context.Context) ([]string, error)
	// ReplaceAssetIdentifiers rewrites the user's local copy of known asset identifiers
	// in a single write scope of the user DB.
	ReplaceAssetIdentifiers(ctx context.Context, identifiers []string) error
}
