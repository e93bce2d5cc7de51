package cmd

import (
	"fmt"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
)

// fetchCmd downloads the bulk catalog and rebuilds the card cache
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the card catalog and rebuild the local cache",
	Long: `Fetch downloads the Scryfall oracle card bulk data, keeps the paper cards that
can appear in a deck, trims them to the fields the checker needs and writes the
result to the card cache.

Run this before building or serving with --build-mode.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		stats, err := a.downloader.DownloadStats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println(colorize.GreenString("✅ Card cache updated:"), a.store.Path())
		fmt.Printf("   %s %d\n", colorize.CyanString("Cards:        "), stats.Total)
		fmt.Printf("   %s %d\n", colorize.CyanString("Format legal: "), stats.FormatLegal)
		fmt.Printf("   %s %d\n", colorize.CyanString("Banned:       "), stats.Banned)
		fmt.Printf("   %s %d\n", colorize.CyanString("Allowed:      "), stats.Allowed)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(fetchCmd)
}
