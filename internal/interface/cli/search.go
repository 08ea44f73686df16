package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search cataloged archives using full-text search",
	Long: `Search archive names, descriptions and authors.

Uses FTS5 full-text search with porter stemming for natural language.
Queries with punctuation fall back to substring matching.

Examples:
  dmclient search crypt
  dmclient search "sunken keep"
  dmclient search "J. Smith" --limit 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchLimit, "limit", 50, "Maximum number of archives to show")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	database, err := openCatalog()
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	results, err := database.SearchArchives(query, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Printf("No results found for: %s\n", query)
		return nil
	}

	fmt.Printf("Found %d archive(s) for: %s\n\n", len(results), query)
	for i, rec := range results {
		printArchive(i+1, rec)
	}

	return nil
}
