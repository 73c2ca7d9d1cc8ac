package globaldb

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/syntropynet/globaldb/pkg/globaldb"
)

func TestHandler_Assets(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		f       func(db *Handler, t *testing.T) error
		wantErr error
	}{
		{
			name: "custom asset round trip",
			f: func(db *Handler, t *testing.T) error {
				addCustom(t, db, "ETH", globaldb.AssetTypeOwnChain, "Ethereum", "ETH")
				err := db.AddAsset(ctx, "ETC", globaldb.AssetTypeOwnChain, &globaldb.CustomAsset{
					Name:      ptr("Ethereum classic"),
					Symbol:    ptr("ETC"),
					Started:   ptr(globaldb.Timestamp(1469020840)),
					Forked:    ptr("ETH"),
					Coingecko: ptr("ethereum-classic"),
				})
				if err != nil {
					return err
				}

				data, err := db.GetAssetData(ctx, "ETC", false)
				if err != nil {
					return err
				}
				want := &globaldb.AssetData{
					Identifier: "ETC",
					Type:       globaldb.AssetTypeOwnChain,
					Name:       ptr("Ethereum classic"),
					Symbol:     ptr("ETC"),
					Started:    ptr(globaldb.Timestamp(1469020840)),
					Forked:     ptr("ETH"),
					Coingecko:  ptr("ethereum-classic"),
				}
				assert.Equal(t, want, data)
				return nil
			},
		},
		{
			name: "duplicate identifier",
			f: func(db *Handler, t *testing.T) error {
				addCustom(t, db, "ETH", globaldb.AssetTypeOwnChain, "Ethereum", "ETH")
				return db.AddAsset(ctx, "ETH", globaldb.AssetTypeOwnChain, globaldb.CustomAsset{Name: ptr("Other")})
			},
			wantErr: globaldb.ErrAssetExists,
		},
		{
			name: "duplicate identifier differs in case",
			f: func(db *Handler, t *testing.T) error {
				addCustom(t, db, "ETH", globaldb.AssetTypeOwnChain, "Ethereum", "ETH")
				return db.AddAsset(ctx, "eth", globaldb.AssetTypeOwnChain, globaldb.CustomAsset{Name: ptr("Other")})
			},
			wantErr: globaldb.ErrAssetExists,
		},
		{
			name: "duplicate token address",
			f: func(db *Handler, t *testing.T) error {
				addToken(t, db, addrDAI, "Dai", "DAI", 18)
				return db.AddAsset(ctx, "my-dai", globaldb.AssetTypeEthereumToken, globaldb.EthereumToken{Address: strings.ToLower(addrDAI)})
			},
			wantErr: globaldb.ErrAssetExists,
		},
		{
			name: "token details for a custom asset",
			f: func(db *Handler, t *testing.T) error {
				return db.AddAsset(ctx, "X", globaldb.AssetTypeOther, globaldb.EthereumToken{Address: addrDAI})
			},
			wantErr: globaldb.ErrInput,
		},
		{
			name: "invalid token address",
			f: func(db *Handler, t *testing.T) error {
				return db.AddAsset(ctx, "X", globaldb.AssetTypeEthereumToken, globaldb.EthereumToken{Address: "0x123"})
			},
			wantErr: globaldb.ErrInput,
		},
		{
			name: "swapped for unknown asset",
			f: func(db *Handler, t *testing.T) error {
				return db.AddAsset(ctx, "OLD", globaldb.AssetTypeOther, globaldb.CustomAsset{SwappedFor: ptr("NEW")})
			},
			wantErr: globaldb.ErrInput,
		},
		{
			name: "token round trip",
			f: func(db *Handler, t *testing.T) error {
				addToken(t, db, addrWETH, "Wrapped Ether", "WETH", 18)
				err := db.AddAsset(ctx, tokenID(addrDAI), globaldb.AssetTypeEthereumToken, globaldb.EthereumToken{
					Address:  strings.ToLower(addrDAI),
					Name:     ptr("Pool"),
					Symbol:   ptr("POOL"),
					Decimals: ptr(18),
					Protocol: ptr("UNI-V2"),
					UnderlyingTokens: []globaldb.UnderlyingToken{
						{Address: addrWETH, Weight: decimal.RequireFromString("0.5")},
						{Address: addrUSDC, Weight: decimal.RequireFromString("0.5")},
					},
				})
				if err != nil {
					return err
				}

				token, err := db.GetEthereumToken(ctx, addrDAI)
				if err != nil {
					return err
				}
				require.NotNil(t, token)
				assert.Equal(t, tokenID(addrDAI), token.Identifier)
				assert.Equal(t, addrDAI, token.Address)
				assert.Equal(t, "UNI-V2", *token.Protocol)
				require.Len(t, token.UnderlyingTokens, 2)
				assert.Equal(t, addrWETH, token.UnderlyingTokens[0].Address)
				assert.Equal(t, addrUSDC, token.UnderlyingTokens[1].Address)
				assert.True(t, token.UnderlyingTokens[1].Weight.Equal(decimal.RequireFromString("0.5")))

				// the unknown underlying token was added as a placeholder
				placeholder, err := db.GetAssetData(ctx, tokenID(addrUSDC), false)
				if err != nil {
					return err
				}
				assert.Nil(t, placeholder)
				placeholder, err = db.GetAssetData(ctx, tokenID(addrUSDC), true)
				if err != nil {
					return err
				}
				require.NotNil(t, placeholder)
				assert.Nil(t, placeholder.Name)

				id, found, err := db.GetEthereumTokenIdentifier(ctx, addrUSDC)
				if err != nil {
					return err
				}
				assert.True(t, found)
				assert.Equal(t, tokenID(addrUSDC), id)
				return nil
			},
		},
		{
			name: "delete asset referenced by swapped for",
			f: func(db *Handler, t *testing.T) error {
				addCustom(t, db, "NEW", globaldb.AssetTypeOther, "New", "NEW")
				err := db.AddAsset(ctx, "OLD", globaldb.AssetTypeOther, globaldb.CustomAsset{Name: ptr("Old"), SwappedFor: ptr("NEW")})
				if err != nil {
					return err
				}

				err = db.DeleteCustomAsset(ctx, "NEW")

				all, gerr := db.GetAllAssetData(ctx, nil)
				require.NoError(t, gerr)
				assert.Len(t, all, 2)
				details, gerr := db.GetAssetData(ctx, "NEW", false)
				require.NoError(t, gerr)
				assert.NotNil(t, details)
				return err
			},
			wantErr: globaldb.ErrAssetReferenced,
		},
		{
			name: "delete token used as underlying",
			f: func(db *Handler, t *testing.T) error {
				addToken(t, db, addrWETH, "Wrapped Ether", "WETH", 18)
				err := db.AddAsset(ctx, tokenID(addrDAI), globaldb.AssetTypeEthereumToken, globaldb.EthereumToken{
					Address:          addrDAI,
					UnderlyingTokens: []globaldb.UnderlyingToken{{Address: addrWETH, Weight: decimal.NewFromInt(1)}},
				})
				if err != nil {
					return err
				}
				_, err = db.DeleteEthereumToken(ctx, addrWETH)
				return err
			},
			wantErr: globaldb.ErrAssetReferenced,
		},
		{
			name: "delete owned asset",
			f: func(db *Handler, t *testing.T) error {
				addCustom(t, db, "ETH", globaldb.AssetTypeOwnChain, "Ethereum", "ETH")
				if err := db.AddUserOwnedAssets(ctx, []string{"ETH"}); err != nil {
					return err
				}
				return db.DeleteCustomAsset(ctx, "ETH")
			},
			wantErr: globaldb.ErrAssetReferenced,
		},
		{
			name: "delete missing asset",
			f: func(db *Handler, t *testing.T) error {
				return db.DeleteCustomAsset(ctx, "NOPE")
			},
			wantErr: globaldb.ErrAssetNotFound,
		},
		{
			name: "delete token",
			f: func(db *Handler, t *testing.T) error {
				addToken(t, db, addrDAI, "Dai", "DAI", 18)
				id, err := db.DeleteEthereumToken(ctx, strings.ToLower(addrDAI))
				if err != nil {
					return err
				}
				assert.Equal(t, tokenID(addrDAI), id)

				token, err := db.GetEthereumToken(ctx, addrDAI)
				require.NoError(t, err)
				assert.Nil(t, token)
				_, found, err := db.GetEthereumTokenIdentifier(ctx, addrDAI)
				require.NoError(t, err)
				assert.False(t, found)
				return nil
			},
		},
		{
			name: "delete asset by identifier",
			f: func(db *Handler, t *testing.T) error {
				addCustom(t, db, "USD", globaldb.AssetTypeFiat, "Dollar", "$")
				addToken(t, db, addrDAI, "Dai", "DAI", 18)
				require.NoError(t, db.AddUserOwnedAssets(ctx, []string{tokenID(addrDAI)}))
				require.NoError(t, db.AddHistoricalPrices(ctx, []globaldb.HistoricalPrice{
					{FromAsset: tokenID(addrDAI), ToAsset: "USD", Source: globaldb.PriceSourceCoingecko, Timestamp: 1, Price: decimal.NewFromInt(1)},
				}))

				if err := db.DeleteAssetByIdentifier(ctx, tokenID(addrDAI), globaldb.AssetTypeEthereumToken); err != nil {
					return err
				}
				if err := db.DeleteAssetByIdentifier(ctx, "USD", globaldb.AssetTypeFiat); err != nil {
					return err
				}

				all, err := db.GetAllAssetData(ctx, nil)
				require.NoError(t, err)
				assert.Empty(t, all)
				return nil
			},
		},
		{
			name: "edit missing token",
			f: func(db *Handler, t *testing.T) error {
				_, err := db.EditEthereumToken(ctx, globaldb.EthereumToken{Address: addrDAI, Name: ptr("Dai")})
				return err
			},
			wantErr: globaldb.ErrAssetNotFound,
		},
		{
			name: "edit token",
			f: func(db *Handler, t *testing.T) error {
				addToken(t, db, addrDAI, "Dai", "DAI", 18)
				addToken(t, db, addrWETH, "Wrapped Ether", "WETH", 18)
				id, err := db.EditEthereumToken(ctx, globaldb.EthereumToken{
					Address:          addrDAI,
					Name:             ptr("Multi Collateral Dai"),
					Symbol:           ptr("DAI"),
					Decimals:         ptr(8),
					UnderlyingTokens: []globaldb.UnderlyingToken{{Address: addrWETH, Weight: decimal.NewFromInt(1)}},
				})
				if err != nil {
					return err
				}
				assert.Equal(t, tokenID(addrDAI), id)

				token, err := db.GetEthereumToken(ctx, addrDAI)
				require.NoError(t, err)
				require.NotNil(t, token)
				assert.Equal(t, "Multi Collateral Dai", *token.Name)
				assert.Equal(t, 8, *token.Decimals)
				require.Len(t, token.UnderlyingTokens, 1)

				// editing again replaces the underlying tokens
				_, err = db.EditEthereumToken(ctx, globaldb.EthereumToken{Address: addrDAI, Name: ptr("Dai"), Symbol: ptr("DAI"), Decimals: ptr(18)})
				require.NoError(t, err)
				token, err = db.GetEthereumToken(ctx, addrDAI)
				require.NoError(t, err)
				assert.Empty(t, token.UnderlyingTokens)
				return nil
			},
		},
		{
			name: "edit custom asset",
			f: func(db *Handler, t *testing.T) error {
				addCustom(t, db, "ETH", globaldb.AssetTypeOwnChain, "Ethereum", "ETH")
				addCustom(t, db, "ETC", globaldb.AssetTypeOwnChain, "Classic", "ETC")
				err := db.EditCustomAsset(ctx, globaldb.CustomAsset{
					Identifier: "ETC",
					Type:       globaldb.AssetTypeOwnChain,
					Name:       ptr("Ethereum classic"),
					Symbol:     ptr("ETC"),
					Forked:     ptr("ETH"),
				})
				if err != nil {
					return err
				}
				data, err := db.GetAssetData(ctx, "ETC", false)
				require.NoError(t, err)
				require.NotNil(t, data)
				assert.Equal(t, "Ethereum classic", *data.Name)
				assert.Equal(t, "ETH", *data.Forked)
				return nil
			},
		},
		{
			name: "edit custom asset as token",
			f: func(db *Handler, t *testing.T) error {
				return db.EditCustomAsset(ctx, globaldb.CustomAsset{Identifier: "ETH", Type: globaldb.AssetTypeEthereumToken})
			},
			wantErr: globaldb.ErrInput,
		},
		{
			name: "edit missing custom asset",
			f: func(db *Handler, t *testing.T) error {
				return db.EditCustomAsset(ctx, globaldb.CustomAsset{Identifier: "ETH", Type: globaldb.AssetTypeOwnChain})
			},
			wantErr: globaldb.ErrAssetNotFound,
		},
		{
			name: "user owned assets skip nft and unknown",
			f: func(db *Handler, t *testing.T) error {
				addCustom(t, db, "ETH", globaldb.AssetTypeOwnChain, "Ethereum", "ETH")
				if err := db.AddUserOwnedAssets(ctx, []string{"ETH", "ETH", "_nft_0x1"}); err != nil {
					return err
				}
				if err := db.AddUserOwnedAssets(ctx, []string{"UNKNOWN"}); err != nil {
					return err
				}

				var owned []string
				require.NoError(t, db.ReadCtx(ctx, func(tx *gorm.DB) error {
					return tx.Model(&UserOwnedAsset{}).Pluck("asset_id", &owned).Error
				}))
				assert.Equal(t, []string{"ETH"}, owned)
				return nil
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := tempHandler(t)
			err := tt.f(db, t)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestHandler_AssetQueries(t *testing.T) {
	ctx := context.Background()
	db := tempHandler(t)

	addCustom(t, db, "ETH", globaldb.AssetTypeOwnChain, "Ethereum", "ETH")
	addCustom(t, db, "BTC", globaldb.AssetTypeOwnChain, "Bitcoin", "BTC")
	addCustom(t, db, "USD", globaldb.AssetTypeFiat, "United States Dollar", "USD")
	addToken(t, db, addrWETH, "Wrapped Ether", "weth", 18)
	require.NoError(t, db.AddAsset(ctx, tokenID(addrDAI), globaldb.AssetTypeEthereumToken, globaldb.EthereumToken{
		Address: addrDAI, Name: ptr("Dai"), Symbol: ptr("DAI"), Decimals: ptr(18), Protocol: ptr("makerdao"),
	}))
	require.NoError(t, db.AddAsset(ctx, tokenID(addrUSDC), globaldb.AssetTypeEthereumToken, globaldb.EthereumToken{
		Address: addrUSDC, Name: ptr("USD Coin"), Symbol: ptr("USD"), Decimals: ptr(6), Protocol: ptr("circle"),
	}))

	identifiers := func(tokens []globaldb.EthereumToken) []string {
		ret := make([]string, len(tokens))
		for i, token := range tokens {
			ret[i] = token.Address
		}
		return ret
	}

	tests := []struct {
		name   string
		filter globaldb.EthereumTokenFilter
		want   []string
	}{
		{
			"all",
			globaldb.EthereumTokenFilter{},
			[]string{addrDAI, addrUSDC, addrWETH},
		},
		{
			"exceptions",
			globaldb.EthereumTokenFilter{Exceptions: []string{addrDAI}},
			[]string{addrUSDC, addrWETH},
		},
		{
			"lowercase exceptions",
			globaldb.EthereumTokenFilter{Exceptions: []string{strings.ToLower(addrDAI), "not an address"}},
			[]string{addrUSDC, addrWETH},
		},
		{
			"only invalid exceptions",
			globaldb.EthereumTokenFilter{Exceptions: []string{"not an address"}},
			[]string{addrDAI, addrUSDC, addrWETH},
		},
		{
			"protocol",
			globaldb.EthereumTokenFilter{Protocol: ptr("circle")},
			[]string{addrUSDC},
		},
		{
			"except protocols keeps tokens without protocol",
			globaldb.EthereumTokenFilter{ExceptProtocols: []string{"circle", "makerdao"}},
			[]string{addrWETH},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := db.GetEthereumTokens(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, identifiers(tokens))
		})
	}

	t.Run("all asset data", func(t *testing.T) {
		all, err := db.GetAllAssetData(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, all, 6)

		some, err := db.GetAllAssetDataMapping(ctx, []string{"ETH", tokenID(addrDAI), "NOPE"})
		require.NoError(t, err)
		require.Len(t, some, 2)
		assert.Equal(t, addrDAI, *some[tokenID(addrDAI)].EthereumAddress)
		assert.Nil(t, some["ETH"].EthereumAddress)
	})

	t.Run("symbol", func(t *testing.T) {
		assets, err := db.GetAssetsWithSymbol(ctx, "WETH", nil)
		require.NoError(t, err)
		require.Len(t, assets, 1)
		assert.Equal(t, tokenID(addrWETH), assets[0].Identifier)

		assets, err = db.GetAssetsWithSymbol(ctx, "usd", nil)
		require.NoError(t, err)
		assert.Len(t, assets, 2)

		assets, err = db.GetAssetsWithSymbol(ctx, "usd", ptr(globaldb.AssetTypeFiat))
		require.NoError(t, err)
		require.Len(t, assets, 1)
		assert.Equal(t, "USD", assets[0].Identifier)

		assets, err = db.GetAssetsWithSymbol(ctx, "usd", ptr(globaldb.AssetTypeEthereumToken))
		require.NoError(t, err)
		require.Len(t, assets, 1)
		assert.Equal(t, tokenID(addrUSDC), assets[0].Identifier)
	})

	t.Run("check exists", func(t *testing.T) {
		ids, err := db.CheckAssetExists(ctx, globaldb.AssetTypeOwnChain, "Bitcoin", "BTC")
		require.NoError(t, err)
		assert.Equal(t, []string{"BTC"}, ids)

		ids, err = db.CheckAssetExists(ctx, globaldb.AssetTypeFiat, "Bitcoin", "BTC")
		require.NoError(t, err)
		assert.Nil(t, ids)
	})

	t.Run("token mappings", func(t *testing.T) {
		mappings, err := db.GetTokensMappings(ctx, []string{addrDAI, addrWETH, "0x0000000000000000000000000000000000000001"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{addrDAI: "Dai", addrWETH: "Wrapped Ether"}, mappings)
	})

	t.Run("lowercase address lookups", func(t *testing.T) {
		token, err := db.GetEthereumToken(ctx, strings.ToLower(addrWETH))
		require.NoError(t, err)
		require.NotNil(t, token)
		assert.Equal(t, addrWETH, token.Address)

		id, found, err := db.GetEthereumTokenIdentifier(ctx, strings.ToLower(addrWETH))
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, tokenID(addrWETH), id)

		mappings, err := db.GetTokensMappings(ctx, []string{strings.ToLower(addrDAI), "not an address"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{addrDAI: "Dai"}, mappings)
	})

	t.Run("invalid address lookups", func(t *testing.T) {
		token, err := db.GetEthereumToken(ctx, "not an address")
		require.NoError(t, err)
		assert.Nil(t, token)

		_, found, err := db.GetEthereumTokenIdentifier(ctx, "0x123")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("many identifiers", func(t *testing.T) {
		ids := make([]string, 0, 2*chunkSize)
		for i := 0; i < 2*chunkSize; i++ {
			ids = append(ids, fmt.Sprintf("ID%d", i))
		}
		mappings, err := db.GetTokensMappings(ctx, append(ids, addrDAI))
		require.NoError(t, err)
		assert.Len(t, mappings, 1)
	})
}
