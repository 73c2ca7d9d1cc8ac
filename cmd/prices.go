package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syntropynet/globaldb/pkg/globaldb"
)

var (
	flagMaxDistance *int64
	flagSource      *string
	flagFromAsset   *string
	flagToAsset     *string
)

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Query historical prices",
}

func priceSource() (*globaldb.PriceSource, error) {
	if *flagSource == "" {
		return nil, nil
	}
	source, err := globaldb.ParsePriceSource(*flagSource)
	if err != nil {
		return nil, err
	}
	return &source, nil
}

var pricesGetCmd = &cobra.Command{
	Use:   "get <from> <to> <timestamp>",
	Short: "Show the price nearest to timestamp",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ts, err := parseTimestamp(args[2])
		if err != nil {
			return err
		}
		source, err := priceSource()
		if err != nil {
			return err
		}
		price, err := database.GetHistoricalPrice(cmd.Context(), args[0], args[1], ts, *flagMaxDistance, source)
		if err != nil {
			return err
		}
		if price == nil {
			return fmt.Errorf("no price of %s in %s within %ds of %d", args[0], args[1], *flagMaxDistance, ts)
		}
		return printJSON(cmd.OutOrStdout(), price)
	},
}

var pricesManualCmd = &cobra.Command{
	Use:   "manual",
	Short: "List manually entered prices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		prices, err := database.GetManualPrices(cmd.Context(), optional(*flagFromAsset), optional(*flagToAsset))
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), prices)
	},
}

var pricesRangeCmd = &cobra.Command{
	Use:   "range <from> <to>",
	Short: "Show the first and last priced timestamp of a pair",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := priceSource()
		if err != nil {
			return err
		}
		priceRange, err := database.GetHistoricalPriceRange(cmd.Context(), args[0], args[1], source)
		if err != nil {
			return err
		}
		if priceRange == nil {
			return fmt.Errorf("no prices of %s in %s", args[0], args[1])
		}
		return printJSON(cmd.OutOrStdout(), priceRange)
	},
}

func init() {
	flagSource = pricesCmd.PersistentFlags().StringP("source", "s", "", "Price source (manual, coingecko, cryptocompare, xratescom)")
	flagMaxDistance = pricesGetCmd.Flags().Int64P("max-distance", "", 3600, "Maximum distance in seconds from the requested timestamp")
	flagFromAsset = pricesManualCmd.Flags().StringP("from", "", "", "Only prices of this asset")
	flagToAsset = pricesManualCmd.Flags().StringP("to", "", "", "Only prices in this asset")

	pricesCmd.AddCommand(pricesGetCmd, pricesManualCmd, pricesRangeCmd)
	rootCmd.AddCommand(pricesCmd)
}
