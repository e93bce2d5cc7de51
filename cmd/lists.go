package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arcanaland/highlander/internal/rulelists"
)

// listsCmd represents the lists command group
var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Manage the banned, allowed and singleton exception lists",
	Long: `Commands for the three card lists the checker consults. Each list is a plain
text file with one card name per line, kept in the lists directory.`,
}

// listsShowCmd prints one list
var listsShowCmd = &cobra.Command{
	Use:       "show [banned|allowed|singleton]",
	Short:     "Print the names on a list",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"banned", "allowed", "singleton"},
	RunE: func(cmd *cobra.Command, args []string) error {
		withCatalog, _ := cmd.Flags().GetBool("catalog")

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		if withCatalog {
			if err := a.loadCatalog(cmd.Context()); err != nil {
				return err
			}
		}

		var names []string
		switch args[0] {
		case "banned":
			names = a.lists.Banned()
		case "allowed":
			names = a.lists.Allowed()
		case "singleton":
			names = a.lists.SingletonExceptions()
		default:
			return fmt.Errorf("unknown list: %s (expected banned, allowed or singleton)", args[0])
		}

		if len(names) == 0 {
			fmt.Println("The list is empty.")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

// listsInitCmd creates the lists directory with empty list files
var listsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create empty banned, allowed and singleton exception list files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		dir := cfg.ListsDir
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating lists directory: %w", err)
		}

		for _, name := range []string{rulelists.BannedFile, rulelists.AllowedFile, rulelists.SingletonFile} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintln(out, "Keeping existing list:", path)
				continue
			}
			if err := os.WriteFile(path, nil, 0644); err != nil {
				return fmt.Errorf("error creating %s: %w", name, err)
			}
			fmt.Fprintln(out, "Created list:", path)
		}

		fmt.Fprintln(out, "Lists directory:", dir)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(listsCmd)
	listsCmd.AddCommand(listsShowCmd)
	listsCmd.AddCommand(listsInitCmd)

	listsShowCmd.Flags().Bool("catalog", false, "include cards the catalog reports as banned")
}
