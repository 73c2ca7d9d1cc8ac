package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syntropynet/globaldb/cmd/flags"
	"github.com/syntropynet/globaldb/pkg/globaldb"
)

var (
	flagAssetIds        *flags.List
	flagProtocol        *string
	flagExcept          *flags.List
	flagExceptProtocols *flags.List
	flagSymbolType      *string
	flagIncomplete      *bool
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Query and edit the asset catalog",
}

var assetsGetCmd = &cobra.Command{
	Use:   "get <identifier>",
	Short: "Show one asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asset, err := database.GetAssetData(cmd.Context(), args[0], *flagIncomplete)
		if err != nil {
			return err
		}
		if asset == nil {
			return fmt.Errorf("asset %s not found", args[0])
		}
		return printJSON(cmd.OutOrStdout(), asset)
	},
}

var assetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List assets, optionally only the given identifiers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		assets, err := database.GetAllAssetData(cmd.Context(), flagAssetIds.Values())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), assets)
	},
}

var assetsTokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "List ethereum tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tokens, err := database.GetEthereumTokens(cmd.Context(), globaldb.EthereumTokenFilter{
			Exceptions:      flagExcept.Values(),
			Protocol:        optional(*flagProtocol),
			ExceptProtocols: flagExceptProtocols.Values(),
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), tokens)
	},
}

var assetsSymbolCmd = &cobra.Command{
	Use:   "symbol <symbol>",
	Short: "List assets with the given symbol, case insensitive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var assetType *globaldb.AssetType
		if *flagSymbolType != "" {
			t, err := globaldb.ParseAssetType(*flagSymbolType)
			if err != nil {
				return err
			}
			assetType = &t
		}
		assets, err := database.GetAssetsWithSymbol(cmd.Context(), args[0], assetType)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), assets)
	},
}

var assetsDeleteCmd = &cobra.Command{
	Use:   "delete <identifier>",
	Short: "Delete an asset with its details, prices and ownership rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asset, err := database.GetAssetData(cmd.Context(), args[0], true)
		if err != nil {
			return err
		}
		if asset == nil {
			return fmt.Errorf("asset %s not found", args[0])
		}
		return database.DeleteAssetByIdentifier(cmd.Context(), asset.Identifier, asset.Type)
	},
}

func init() {
	flagIncomplete = assetsGetCmd.Flags().BoolP("allow-incomplete", "", false, "Return ethereum tokens missing name, symbol or decimals")

	flagAssetIds = flags.NewList("")
	assetsListCmd.Flags().VarPF(flagAssetIds, "ids", "", "Asset identifiers (separated by comma)")

	flagExcept = flags.NewList("")
	flagExceptProtocols = flags.NewList("")
	flagProtocol = assetsTokensCmd.Flags().StringP("protocol", "", "", "Only tokens of this protocol")
	assetsTokensCmd.Flags().VarPF(flagExcept, "except", "", "Token addresses to leave out (separated by comma)")
	assetsTokensCmd.Flags().VarPF(flagExceptProtocols, "except-protocols", "", "Protocols to leave out (separated by comma)")

	flagSymbolType = assetsSymbolCmd.Flags().StringP("type", "t", "", "Asset type name, e.g. \"ethereum token\"")

	assetsCmd.AddCommand(assetsGetCmd, assetsListCmd, assetsTokensCmd, assetsSymbolCmd, assetsDeleteCmd)
	rootCmd.AddCommand(assetsCmd)
}
