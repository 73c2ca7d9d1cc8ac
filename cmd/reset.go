package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/syntropynet/globaldb/internal/logger"
	"github.com/syntropynet/globaldb/internal/userdb"
)

var (
	flagForce     *bool
	flagOnlyOwned *bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reconcile the asset catalog with the packaged reference DB",
}

func openUserDB() (*userdb.DB, error) {
	if cfg.UserDB == "" {
		return nil, errors.New("user DB is not configured, set --user-db")
	}
	return userdb.New(cfg.UserDB, logger.Default())
}

func closeUserDB(db *userdb.DB) {
	if err := db.Close(); err != nil {
		logger.Default().Error("Failed to close user DB", zap.Error(err))
	}
}

var resetSoftCmd = &cobra.Command{
	Use:   "soft",
	Short: "Restore shipped assets, keeping user added ones",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, msg := database.SoftResetAssetsList(cmd.Context())
		if !ok {
			return errors.New(msg)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Assets restored")
		return nil
	},
}

var resetHardCmd = &cobra.Command{
	Use:   "hard",
	Short: "Replace the asset catalog with the reference one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		udb, err := openUserDB()
		if err != nil {
			return err
		}
		defer closeUserDB(udb)

		ok, msg := database.HardResetAssetsList(cmd.Context(), udb, *flagForce)
		if !ok {
			return errors.New(msg)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Assets restored")
		return nil
	},
}

var resetUserAddedCmd = &cobra.Command{
	Use:   "user-added",
	Short: "List assets that are not part of the reference DB",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		udb, err := openUserDB()
		if err != nil {
			return err
		}
		defer closeUserDB(udb)

		ids, err := database.GetUserAddedAssets(cmd.Context(), udb, *flagOnlyOwned)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), ids)
	},
}

func init() {
	flagForce = resetHardCmd.Flags().BoolP("force", "f", false, "Delete user added assets even if they are owned")
	flagOnlyOwned = resetUserAddedCmd.Flags().BoolP("only-owned", "", false, "Only assets the user ever held")

	resetCmd.AddCommand(resetSoftCmd, resetHardCmd, resetUserAddedCmd)
	rootCmd.AddCommand(resetCmd)
}
