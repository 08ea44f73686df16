package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var forgetCmd = &cobra.Command{
	Use:   "forget <id>",
	Short: "Remove an archive from the catalog",
	Long: `Remove an archive from the catalog by id. The archive file is not touched;
the next sync will catalog it again.`,
	Args: cobra.ExactArgs(1),
	RunE: runForget,
}

func init() {
	rootCmd.AddCommand(forgetCmd)
}

func runForget(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid archive id %q: %w", args[0], err)
	}

	database, err := openCatalog()
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	deleted, err := database.DeleteArchive(id)
	if err != nil {
		return fmt.Errorf("failed to remove archive: %w", err)
	}
	if !deleted {
		return fmt.Errorf("archive %s is not in the catalog", id)
	}

	fmt.Printf("Removed %s from the catalog\n", id)
	return nil
}
