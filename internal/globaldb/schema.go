package globaldb

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/syntropynet/globaldb/pkg/globaldb"
)

// CurrentVersion is the schema version this build writes and understands.
const CurrentVersion = 2

const versionSetting = "version"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS asset_types (
    type CHAR(1) PRIMARY KEY NOT NULL,
    seq INTEGER UNIQUE
);`,
	`CREATE TABLE IF NOT EXISTS price_history_source_types (
    type CHAR(1) PRIMARY KEY NOT NULL,
    seq INTEGER UNIQUE
);`,
	`CREATE TABLE IF NOT EXISTS settings (
    name VARCHAR[24] NOT NULL PRIMARY KEY,
    value TEXT
);`,
	`CREATE TABLE IF NOT EXISTS ethereum_tokens (
    address VARCHAR[42] PRIMARY KEY NOT NULL,
    decimals INTEGER,
    protocol TEXT
);`,
	`CREATE TABLE IF NOT EXISTS underlying_tokens_list (
    address VARCHAR[42] NOT NULL,
    weight TEXT NOT NULL,
    parent_token_entry TEXT NOT NULL,
    FOREIGN KEY(parent_token_entry) REFERENCES ethereum_tokens(address) ON DELETE CASCADE ON UPDATE CASCADE,
    FOREIGN KEY(address) REFERENCES ethereum_tokens(address) ON UPDATE CASCADE,
    PRIMARY KEY(address, parent_token_entry)
);`,
	`CREATE TABLE IF NOT EXISTS assets (
    identifier TEXT PRIMARY KEY NOT NULL COLLATE NOCASE,
    type CHAR(1) NOT NULL DEFAULT('A') REFERENCES asset_types(type),
    name TEXT,
    symbol TEXT,
    started INTEGER,
    swapped_for TEXT,
    coingecko TEXT,
    cryptocompare TEXT,
    details_reference TEXT,
    FOREIGN KEY(swapped_for) REFERENCES assets(identifier) ON UPDATE CASCADE
);`,
	`CREATE TABLE IF NOT EXISTS common_asset_details (
    asset_id TEXT PRIMARY KEY NOT NULL COLLATE NOCASE,
    forked TEXT,
    FOREIGN KEY(asset_id) REFERENCES assets(identifier) ON UPDATE CASCADE ON DELETE CASCADE,
    FOREIGN KEY(forked) REFERENCES assets(identifier) ON UPDATE CASCADE
);`,
	`CREATE TABLE IF NOT EXISTS user_owned_assets (
    asset_id TEXT NOT NULL PRIMARY KEY COLLATE NOCASE,
    FOREIGN KEY(asset_id) REFERENCES assets(identifier) ON UPDATE CASCADE
);`,
	`CREATE TABLE IF NOT EXISTS price_history (
    from_asset TEXT NOT NULL COLLATE NOCASE,
    to_asset TEXT NOT NULL COLLATE NOCASE,
    source_type CHAR(1) NOT NULL DEFAULT('A') REFERENCES price_history_source_types(type),
    timestamp INTEGER NOT NULL,
    price TEXT NOT NULL,
    FOREIGN KEY(from_asset) REFERENCES assets(identifier) ON UPDATE CASCADE ON DELETE CASCADE,
    FOREIGN KEY(to_asset) REFERENCES assets(identifier) ON UPDATE CASCADE ON DELETE CASCADE,
    PRIMARY KEY(from_asset, to_asset, source_type, timestamp)
);`,
	`CREATE INDEX IF NOT EXISTS idx_assets_details_reference ON assets(details_reference);`,
}

// enumSeed renders the idempotent inserts that keep the type lookup tables in sync with the enums.
func enumSeed() []string {
	var assetValues, sourceValues []string
	for i, t := range globaldb.AssetTypes() {
		assetValues = append(assetValues, fmt.Sprintf("('%s', %d)", t.DBValue(), i+1))
	}
	for i, s := range globaldb.PriceSources() {
		sourceValues = append(sourceValues, fmt.Sprintf("('%s', %d)", s.DBValue(), i+1))
	}
	return []string{
		"INSERT OR IGNORE INTO asset_types(type, seq) VALUES " + strings.Join(assetValues, ", ") + ";",
		"INSERT OR IGNORE INTO price_history_source_types(type, seq) VALUES " + strings.Join(sourceValues, ", ") + ";",
	}
}

func createSchema(tx *gorm.DB) error {
	for _, stmt := range append(schemaStatements, enumSeed()...) {
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// upgradeStep migrates the schema from the version in its key to the next one.
type upgradeStep func(tx *gorm.DB, logger *zap.Logger) error

var upgradeSteps = map[int]upgradeStep{
	1: upgradeV1toV2,
}

// upgradeV1toV2 moves ethereum tokens from bare address identifiers to prefixed ones.
// Every column referencing assets(identifier) is declared ON UPDATE CASCADE, so rewriting
// the assets row carries common_asset_details, user_owned_assets, price_history and
// swapped_for along with it.
func upgradeV1toV2(tx *gorm.DB, logger *zap.Logger) error {
	result := tx.Exec(
		`UPDATE assets SET identifier = ? || identifier WHERE type = ? AND identifier NOT LIKE ? ESCAPE '\'`,
		globaldb.EthereumIdentifierPrefix,
		globaldb.AssetTypeEthereumToken.DBValue(),
		likePrefix(globaldb.EthereumIdentifierPrefix),
	)
	if result.Error != nil {
		return fmt.Errorf("failed to rewrite token identifiers: %w", result.Error)
	}
	logger.Info("upgraded global DB to v2", zap.Int64("tokens", result.RowsAffected))
	return nil
}

// likePrefix builds a LIKE pattern matching values starting with prefix, escaped with '\'.
func likePrefix(prefix string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(prefix) + "%"
}

func upgrade(tx *gorm.DB, from int, logger *zap.Logger) error {
	for v := from; v < CurrentVersion; v++ {
		step, ok := upgradeSteps[v]
		if !ok {
			return fmt.Errorf("no upgrade path from global DB version %d", v)
		}
		if err := step(tx, logger); err != nil {
			return err
		}
	}
	return nil
}

func settingValue(tx *gorm.DB, name string, defaultValue int) (int, error) {
	var setting Setting
	result := tx.Model(&Setting{}).Limit(1).Find(&setting, "name = ?", name)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(setting.Value)
	if err != nil {
		return 0, fmt.Errorf("%w: setting %s=%q", globaldb.ErrDeserialization, name, setting.Value)
	}
	return value, nil
}

func setSettingValue(tx *gorm.DB, name string, value int) error {
	setting := Setting{Name: name, Value: strconv.Itoa(value)}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&setting).Error
}
