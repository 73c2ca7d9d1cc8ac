package globaldb

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Timestamp is a unix timestamp in seconds.
type Timestamp int64

// AssetType is the closed set of asset kinds. It is stored as a single letter.
type AssetType byte

const (
	AssetTypeFiat              AssetType = 'A'
	AssetTypeOwnChain          AssetType = 'B'
	AssetTypeEthereumToken     AssetType = 'C'
	AssetTypeOmniToken         AssetType = 'D'
	AssetTypeNeoToken          AssetType = 'E'
	AssetTypeCounterpartyToken AssetType = 'F'
	AssetTypeBitsharesToken    AssetType = 'G'
	AssetTypeArdorToken        AssetType = 'H'
	AssetTypeNxtToken          AssetType = 'I'
	AssetTypeUbiqToken         AssetType = 'J'
	AssetTypeNubitsToken       AssetType = 'K'
	AssetTypeBurstToken        AssetType = 'L'
	AssetTypeWavesToken        AssetType = 'M'
	AssetTypeQtumToken         AssetType = 'N'
	AssetTypeStellarToken      AssetType = 'O'
	AssetTypeTronToken         AssetType = 'P'
	AssetTypeOntologyToken     AssetType = 'Q'
	AssetTypeVechainToken      AssetType = 'R'
	AssetTypeBinanceToken      AssetType = 'S'
	AssetTypeEosToken          AssetType = 'T'
	AssetTypeFusionToken       AssetType = 'U'
	AssetTypeLuniverseToken    AssetType = 'V'
	AssetTypeOther             AssetType = 'W'
	AssetTypeAvalancheToken    AssetType = 'X'
	AssetTypeSolanaToken       AssetType = 'Y'
	AssetTypeNFT               AssetType = 'Z'
)

const (
	assetTypeFirst = AssetTypeFiat
	assetTypeLast  = AssetTypeNFT
)

var assetTypeNames = map[AssetType]string{
	AssetTypeFiat:              "fiat",
	AssetTypeOwnChain:          "own chain",
	AssetTypeEthereumToken:     "ethereum token",
	AssetTypeOmniToken:         "omni token",
	AssetTypeNeoToken:          "neo token",
	AssetTypeCounterpartyToken: "counterparty token",
	AssetTypeBitsharesToken:    "bitshares token",
	AssetTypeArdorToken:        "ardor token",
	AssetTypeNxtToken:          "nxt token",
	AssetTypeUbiqToken:         "ubiq token",
	AssetTypeNubitsToken:       "nubits token",
	AssetTypeBurstToken:        "burst token",
	AssetTypeWavesToken:        "waves token",
	AssetTypeQtumToken:         "qtum token",
	AssetTypeStellarToken:      "stellar token",
	AssetTypeTronToken:         "tron token",
	AssetTypeOntologyToken:     "ontology token",
	AssetTypeVechainToken:      "vechain token",
	AssetTypeBinanceToken:      "binance token",
	AssetTypeEosToken:          "eos token",
	AssetTypeFusionToken:       "fusion token",
	AssetTypeLuniverseToken:    "luniverse token",
	AssetTypeOther:             "other",
	AssetTypeAvalancheToken:    "avalanche token",
	AssetTypeSolanaToken:       "solana token",
	AssetTypeNFT:               "nft",
}

// AssetTypes returns every known asset type in DB order.
func AssetTypes() []AssetType {
	ret := make([]AssetType, 0, assetTypeLast-assetTypeFirst+1)
	for t := assetTypeFirst; t <= assetTypeLast; t++ {
		ret = append(ret, t)
	}
	return ret
}

func (t AssetType) String() string {
	if name, ok := assetTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%q)", byte(t))
}

func (t AssetType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// DBValue is the single letter representation used in the assets table.
func (t AssetType) DBValue() string {
	return string(rune(t))
}

// ParseAssetTypeDB reverses DBValue.
func ParseAssetTypeDB(value string) (AssetType, error) {
	if len(value) != 1 {
		return 0, fmt.Errorf("%w: invalid asset type %q", ErrDeserialization, value)
	}
	t := AssetType(value[0])
	if _, ok := assetTypeNames[t]; !ok {
		return 0, fmt.Errorf("%w: unknown asset type %q", ErrDeserialization, value)
	}
	return t, nil
}

// ParseAssetType accepts the human readable name, e.g. "ethereum token".
func ParseAssetType(name string) (AssetType, error) {
	for t, n := range assetTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown asset type %q", ErrInput, name)
}

// PriceSource identifies where a historical price came from.
type PriceSource byte

const (
	PriceSourceManual        PriceSource = 'A'
	PriceSourceCoingecko     PriceSource = 'B'
	PriceSourceCryptocompare PriceSource = 'C'
	PriceSourceXratescom     PriceSource = 'D'
)

var priceSourceNames = map[PriceSource]string{
	PriceSourceManual:        "manual",
	PriceSourceCoingecko:     "coingecko",
	PriceSourceCryptocompare: "cryptocompare",
	PriceSourceXratescom:     "xratescom",
}

// PriceSources returns every known price source in DB order.
func PriceSources() []PriceSource {
	return []PriceSource{PriceSourceManual, PriceSourceCoingecko, PriceSourceCryptocompare, PriceSourceXratescom}
}

func (s PriceSource) String() string {
	if name, ok := priceSourceNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%q)", byte(s))
}

func (s PriceSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s PriceSource) DBValue() string {
	return string(rune(s))
}

func ParsePriceSourceDB(value string) (PriceSource, error) {
	if len(value) != 1 {
		return 0, fmt.Errorf("%w: invalid price source %q", ErrDeserialization, value)
	}
	s := PriceSource(value[0])
	if _, ok := priceSourceNames[s]; !ok {
		return 0, fmt.Errorf("%w: unknown price source %q", ErrDeserialization, value)
	}
	return s, nil
}

func ParsePriceSource(name string) (PriceSource, error) {
	for s, n := range priceSourceNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown price source %q", ErrInput, name)
}

// AssetData is the flattened view of an asset joined with its detail row.
// Token only fields (EthereumAddress, Decimals, Protocol) are nil for other types,
// Forked is nil for ethereum tokens.
type AssetData struct {
	Identifier      string
	Type            AssetType
	Name            *string
	Symbol          *string
	Started         *Timestamp
	Forked          *string
	SwappedFor      *string
	Coingecko       *string
	Cryptocompare   *string
	EthereumAddress *string
	Decimals        *int
	Protocol        *string
}

// UnderlyingToken is a weighted component of a composite token.
type UnderlyingToken struct {
	Address string
	Weight  decimal.Decimal
}

// EthereumToken carries everything needed to add or edit an ethereum token.
type EthereumToken struct {
	Identifier       string
	Address          string
	Decimals         *int
	Name             *string
	Symbol           *string
	Started          *Timestamp
	SwappedFor       *string
	Coingecko        *string
	Cryptocompare    *string
	Protocol         *string
	UnderlyingTokens []UnderlyingToken
}

// CustomAsset carries everything needed to add or edit a non-token asset.
type CustomAsset struct {
	Identifier    string
	Type          AssetType
	Name          *string
	Symbol        *string
	Started       *Timestamp
	Forked        *string
	SwappedFor    *string
	Coingecko     *string
	Cryptocompare *string
}

// EthereumTokenFilter narrows GetEthereumTokens. Nil fields are not applied.
type EthereumTokenFilter struct {
	// Exceptions lists token addresses to leave out.
	Exceptions []string
	// Protocol keeps only tokens of this protocol.
	Protocol *string
	// ExceptProtocols leaves out tokens of these protocols. Tokens without protocol are kept.
	ExceptProtocols []string
}

type HistoricalPrice struct {
	FromAsset string
	ToAsset   string
	Source    PriceSource
	Timestamp Timestamp
	Price     decimal.Decimal
}

func (p HistoricalPrice) String() string {
	return fmt.Sprintf("%s->%s@%d(%s)=%s", p.FromAsset, p.ToAsset, p.Timestamp, p.Source, p.Price)
}

type ManualPrice struct {
	FromAsset string
	ToAsset   string
	Timestamp Timestamp
	Price     decimal.Decimal
}

type PriceRange struct {
	First Timestamp
	Last  Timestamp
}

type PriceDataEntry struct {
	FromAsset     string
	ToAsset       string
	FromTimestamp Timestamp
	ToTimestamp   Timestamp
}
