package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var dbStatsCmd = &cobra.Command{
	Use:   "db-stats",
	Short: "Show database statistics",
	Long:  `Display the number of users, news and private news.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDatabase()
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get database stats: %w", err)
		}

		fmt.Println("Database Statistics:")
		fmt.Printf("Users: %s\n", humanize.Comma(int64(stats.Users)))
		fmt.Printf("News: %s\n", humanize.Comma(int64(stats.News)))
		fmt.Printf("Private News: %s\n", humanize.Comma(int64(stats.PrivateNews)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbStatsCmd)
}
