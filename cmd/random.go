package cmd

import (
	"fmt"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
)

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Show random cards that are legal in the format",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		if count < 1 {
			return fmt.Errorf("count must be at least 1")
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		if err := a.loadCatalog(cmd.Context()); err != nil {
			return err
		}

		cards, err := a.store.RandomLegal(cmd.Context(), count)
		if err != nil {
			return err
		}
		if len(cards) == 0 {
			fmt.Println("No legal cards in the catalog.")
			return nil
		}

		for _, c := range cards {
			fmt.Printf("%s  %s\n", colorize.HiWhiteString(c.Name), colorize.CyanString(c.TypeLine))
			if c.ScryfallURI != "" {
				fmt.Printf("   %s\n", c.ScryfallURI)
			}
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(randomCmd)

	randomCmd.Flags().IntP("count", "n", 6, "number of cards to show")
}
