package cmd

import (
	"fmt"
	"strconv"

	"github.com/jon4hz/newsdesk/internal/service"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userSetLevelCmd = &cobra.Command{
	Use:     "set-level <email> <level>",
	Short:   "Set the level of a user",
	Long:    `Set the level of a user. Users with a level greater than 1 are admins.`,
	Example: `newsdesk user set-level alice@example.com 2`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid level %q: %w", args[1], err)
		}

		_, db, err := openDatabase()
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		svc := service.New(db, nil)
		if err := svc.SetUserLevel(cmd.Context(), args[0], level); err != nil {
			return fmt.Errorf("failed to set level: %s", service.Message(err))
		}

		fmt.Printf("Level of %s set to %d\n", args[0], level)
		return nil
	},
}

func init() {
	userCmd.AddCommand(userSetLevelCmd)
	rootCmd.AddCommand(userCmd)
}
