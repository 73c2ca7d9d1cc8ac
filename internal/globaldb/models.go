package globaldb

type Setting struct {
	Name  string `gorm:"column:name;primaryKey"`
	Value string `gorm:"column:value"`
}

func (Setting) TableName() string { return "settings" }

type Asset struct {
	Identifier       string  `gorm:"column:identifier;primaryKey"`
	Type             string  `gorm:"column:type"`
	Name             *string `gorm:"column:name"`
	Symbol           *string `gorm:"column:symbol"`
	Started          *int64  `gorm:"column:started"`
	SwappedFor       *string `gorm:"column:swapped_for"`
	Coingecko        *string `gorm:"column:coingecko"`
	Cryptocompare    *string `gorm:"column:cryptocompare"`
	DetailsReference *string `gorm:"column:details_reference"`
}

func (Asset) TableName() string { return "assets" }

type EthereumTokenRow struct {
	Address  string  `gorm:"column:address;primaryKey"`
	Decimals *int    `gorm:"column:decimals"`
	Protocol *string `gorm:"column:protocol"`
}

func (EthereumTokenRow) TableName() string { return "ethereum_tokens" }

type UnderlyingTokenRow struct {
	Address          string `gorm:"column:address;primaryKey"`
	Weight           string `gorm:"column:weight"`
	ParentTokenEntry string `gorm:"column:parent_token_entry;primaryKey"`
}

func (UnderlyingTokenRow) TableName() string { return "underlying_tokens_list" }

type CommonAssetDetail struct {
	AssetID string  `gorm:"column:asset_id;primaryKey"`
	Forked  *string `gorm:"column:forked"`
}

func (CommonAssetDetail) TableName() string { return "common_asset_details" }

type UserOwnedAsset struct {
	AssetID string `gorm:"column:asset_id;primaryKey"`
}

func (UserOwnedAsset) TableName() string { return "user_owned_assets" }

type PriceHistory struct {
	FromAsset  string `gorm:"column:from_asset;primaryKey"`
	ToAsset    string `gorm:"column:to_asset;primaryKey"`
	SourceType string `gorm:"column:source_type;primaryKey"`
	Timestamp  int64  `gorm:"column:timestamp;primaryKey"`
	Price      string `gorm:"column:price"`
}

func (PriceHistory) TableName() string { return "price_history" }

// assetDataRow is the flat result of the asset + detail join.
type assetDataRow struct {
	Identifier    string
	Type          string
	Name          *string
	Symbol        *string
	Started       *int64
	Forked        *string
	SwappedFor    *string
	Coingecko     *string
	Cryptocompare *string
	Address       *string
	Decimals      *int
	Protocol      *string
}
