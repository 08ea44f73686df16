package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/dustin/go-humanize"
	"github.com/neilberkman/dmclient/internal/core/archive"
	"github.com/spf13/cobra"
)

var (
	inspectEntries bool
	inspectDir     string
	inspectJSON    bool
	inspectCopyID  bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <archive>",
	Short: "Show the metadata of a campaign archive",
	Long: `Read and validate properties.json from a campaign archive and print it.

Output uses the inspect template from the config (mustache syntax).

Examples:
  dmclient inspect sunken-keep.tar.bz2
  dmclient inspect sunken-keep.tar.bz2 --entries
  dmclient inspect sunken-keep.tar.bz2 --entries --dir maps
  dmclient inspect sunken-keep.tar.bz2 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectEntries, "entries", false, "List archive entries")
	inspectCmd.Flags().StringVar(&inspectDir, "dir", "", "Only list entries under this directory (with --entries)")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Print the metadata as JSON")
	inspectCmd.Flags().BoolVar(&inspectCopyID, "copy-id", false, "Copy the archive id to the clipboard")
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]

	meta, err := loadArchive(path)
	if err != nil {
		return err
	}

	if inspectJSON {
		data, err := json.MarshalIndent(meta, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		fmt.Println(string(data))
	} else {
		out, err := renderInspect(cfg.InspectTemplate, meta, time.Now())
		if err != nil {
			return err
		}
		fmt.Print(out)
	}

	if inspectEntries {
		var entries []archive.Entry
		if inspectDir != "" {
			entries, err = archive.InspectDir(path, inspectDir)
		} else {
			entries, err = archive.Inspect(path)
		}
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		fmt.Println()
		fmt.Println(titleStyle.Render(fmt.Sprintf("%d entries", len(entries))))
		for _, e := range entries {
			if e.IsDir() {
				fmt.Printf("  %-40s %s\n", e.Name, metaStyle.Render("dir"))
				continue
			}
			fmt.Printf("  %-40s %s\n", e.Name, metaStyle.Render(humanize.Bytes(uint64(e.Size))))
		}
	}

	if inspectCopyID {
		if err := clipboard.WriteAll(meta.ID.String()); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render("could not copy id: "+err.Error()))
		} else {
			fmt.Println(metaStyle.Render("id copied to clipboard"))
		}
	}

	return nil
}
