package cli

import (
	"fmt"
	"os"

	"github.com/neilberkman/dmclient/internal/core/importer"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync [path]",
	Short: "Catalog campaign archives from a directory",
	Long: `Scan archive_dir (or the given directory) for *.tar.bz2 and *.tbz2 files
and add their metadata to the catalog.

Performs incremental sync - files already seen (by content hash) are skipped.
Invalid archives are reported and skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	sourcePath := cfg.ArchiveDir
	if len(args) > 0 {
		sourcePath = args[0]
	}

	if _, err := os.Stat(sourcePath); err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("Archive directory does not exist: %s\n", sourcePath)
			return nil
		}
		return fmt.Errorf("failed to read archive directory: %w", err)
	}

	fmt.Printf("Syncing archives from: %s\n", sourcePath)
	fmt.Printf("Catalog: %s\n\n", dbPath)

	database, err := openCatalog()
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	imp := importer.New(database, logger)
	summary, err := imp.ImportDirectory(sourcePath, importer.NewProgressReporter(os.Stdout))
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if summary.Found == 0 {
		fmt.Println("No archive files found")
		return nil
	}

	fmt.Printf("New: %d  Unchanged: %d  Invalid: %d\n", summary.Imported, summary.Unchanged, summary.Invalid)
	return nil
}
