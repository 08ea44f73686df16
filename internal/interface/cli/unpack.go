package cli

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/neilberkman/dmclient/internal/core/archive"
	"github.com/neilberkman/dmclient/internal/core/importer"
	"github.com/spf13/cobra"
)

var unpackCmd = &cobra.Command{
	Use:   "unpack <archive> [destination]",
	Short: "Unpack a campaign archive into a working directory",
	Long: `Validate a campaign archive and extract it.

Without a destination the archive is unpacked to <unpack_dir>/<archive id>.
The archive is added to the catalog if needed and the destination recorded.

Examples:
  dmclient unpack sunken-keep.tar.bz2
  dmclient unpack sunken-keep.tar.bz2 ./campaigns/keep`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runUnpack,
}

func init() {
	rootCmd.AddCommand(unpackCmd)
}

func runUnpack(cmd *cobra.Command, args []string) error {
	path := args[0]

	meta, err := loadArchive(path)
	if err != nil {
		return err
	}

	dest := filepath.Join(cfg.UnpackDir, meta.ID.String())
	if len(args) > 1 {
		dest = args[1]
	}
	dest, err = filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("failed to resolve destination: %w", err)
	}

	fmt.Printf("Unpacking %s to %s\n", titleStyle.Render(meta.Name), dest)

	res, err := archive.UnpackWithResult(meta, dest)
	if err != nil {
		return fmt.Errorf("unpack failed: %w", err)
	}

	fmt.Printf("Wrote %d files and %d directories (%s)\n", res.Files, res.Dirs, humanize.Bytes(uint64(res.Bytes)))
	if res.Skipped > 0 {
		fmt.Println(metaStyle.Render(fmt.Sprintf("Skipped %d links or special files", res.Skipped)))
	}

	database, err := openCatalog()
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	if _, err := importer.New(database, logger).ImportFile(path); err != nil {
		return fmt.Errorf("failed to catalog archive: %w", err)
	}

	rec, err := database.GetArchive(meta.ID)
	if err != nil {
		return fmt.Errorf("failed to look up archive: %w", err)
	}
	if rec == nil {
		logger.Debug("archive not cataloged, not recording unpack", "id", meta.ID)
		return nil
	}

	if err := database.MarkUnpacked(meta.ID, dest); err != nil {
		return fmt.Errorf("failed to record unpack: %w", err)
	}
	return nil
}
