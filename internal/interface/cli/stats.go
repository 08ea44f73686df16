package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	Long: `Display statistics about the archive catalog.

Shows archive and game system counts, date ranges, and storage info.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	database, err := openCatalog()
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	stats, err := database.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	fmt.Println(titleStyle.Render("Catalog Statistics"))
	fmt.Println()

	fmt.Printf("Total Archives:     %d\n", stats.TotalArchives)
	fmt.Printf("Game Systems:       %d\n", stats.TotalGameSystems)
	fmt.Printf("Archive Bytes:      %s\n", humanize.Bytes(uint64(stats.TotalBytes)))
	fmt.Printf("Failed Imports:     %d\n", stats.FailedImports)
	fmt.Println()

	if stats.TotalArchives > 0 {
		if !stats.OldestCreation.IsZero() {
			fmt.Printf("Oldest Archive:     %s\n", formatDate(stats.OldestCreation))
		}
		if !stats.NewestRevision.IsZero() {
			fmt.Printf("Newest Revision:    %s\n", formatDate(stats.NewestRevision))
		}
		if stats.MostCommonSystem != "" {
			fmt.Printf("Most Common System: %s (%d)\n", systemStyle.Render(stats.MostCommonSystem), stats.MostCommonSystemCount)
		}
		fmt.Println()
	}

	fileInfo, err := os.Stat(dbPath)
	if err != nil {
		return fmt.Errorf("failed to stat catalog file: %w", err)
	}

	fmt.Printf("Catalog Location:   %s\n", dbPath)
	fmt.Printf("Catalog Size:       %s\n", humanize.Bytes(uint64(fileInfo.Size())))

	return nil
}
