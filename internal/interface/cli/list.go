package cli

import (
	"fmt"
	"time"

	"github.com/neilberkman/dmclient/internal/core/db"
	"github.com/spf13/cobra"
)

var (
	listLimit  int
	listSystem string
	listSince  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cataloged campaign archives",
	Long: `List archives in the catalog, most recently cataloged or updated first.

Examples:
  dmclient list
  dmclient list --limit 10
  dmclient list --system dnd5e
  dmclient list --since "last month"
  dmclient list --since 2024-01-01`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum number of archives to display")
	listCmd.Flags().StringVar(&listSystem, "system", "", "Filter by game system id")
	listCmd.Flags().StringVar(&listSince, "since", "", "Only archives created or revised after this date")
}

func runList(cmd *cobra.Command, args []string) error {
	filter := db.ListFilter{GameSystemID: listSystem, Limit: listLimit}
	if listSince != "" {
		since, err := parseSince(listSince, time.Now())
		if err != nil {
			return err
		}
		filter.Since = since
	}

	database, err := openCatalog()
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	archives, err := database.ListArchives(filter)
	if err != nil {
		return fmt.Errorf("failed to list archives: %w", err)
	}

	if len(archives) == 0 {
		if listSystem != "" {
			fmt.Printf("No archives found for game system: %s\n", listSystem)
		} else {
			fmt.Println("No archives found. Run 'dmclient sync' to catalog archives.")
		}
		return nil
	}

	fmt.Printf("Showing %d archive(s)", len(archives))
	if listSystem != "" {
		fmt.Printf(" for game system: %s", listSystem)
	}
	fmt.Println()
	fmt.Println()

	for i, rec := range archives {
		printArchive(i+1, rec)
	}

	return nil
}
