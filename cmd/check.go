package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/highlander/internal/deck"
	"github.com/arcanaland/highlander/internal/validator"
)

var errDeckNotLegal = errors.New("deck is not legal")

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [decklist]",
	Short: "Check a decklist for legality",
	Long: `Check reads a plain text decklist and reports whether it is a legal deck.

Each line holds a quantity and a card name. A blank line separates the main
deck from the commander, which goes on the line after it:

  1 Llanowar Elves
  98 Forest

  1 Ezuri, Renegade Leader

Use "-" to read the decklist from standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readDecklist(args[0])
		if err != nil {
			return err
		}

		d, err := deck.Parse(text)
		if err != nil {
			return fmt.Errorf("error parsing decklist: %w", err)
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		if err := a.loadCatalog(cmd.Context()); err != nil {
			return err
		}

		result, err := a.engine.Check(d)
		if err != nil {
			return fmt.Errorf("invalid decklist: %w", err)
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(result); err != nil {
				return err
			}
		} else {
			printResult(result)
		}

		if !result.Legal {
			return errDeckNotLegal
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(checkCmd)

	checkCmd.Flags().Bool("json", false, "print the result as JSON")
}

func readDecklist(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("error reading decklist: %w", err)
	}
	return string(data), nil
}

// printResult displays a validation result
func printResult(result *validator.ValidationResult) {
	fmt.Println("Legality Results:")
	fmt.Println("-----------------")

	identity := strings.Join(result.ColorIdentity, "")
	if identity == "" {
		identity = "colorless"
	}
	fmt.Printf("%s %s (%s)\n", colorize.CyanString("Commander:"), colorize.HiWhiteString(result.Commander), identity)
	fmt.Printf("%s %d/%d\n", colorize.CyanString("Deck size:"), result.DeckSize, result.RequiredSize)

	if result.Legal {
		fmt.Println(colorize.GreenString("✅ Deck is legal."))
		return
	}

	fmt.Println(colorize.RedString("❌ Deck is not legal:"))
	issues := result.LegalIssues
	n := 0
	for _, issue := range []*string{
		issues.Size,
		issues.Commander,
		issues.CommanderType,
		issues.ColorIdentity,
		issues.Singleton,
		issues.IllegalCards,
	} {
		if issue != nil {
			n++
			fmt.Printf("%d. %s\n", n, *issue)
		}
	}

	printNames("Illegal cards", result.IllegalCards)
	printNames("Outside color identity", result.ColorIdentityViolations)
	printNames("Multiple copies", result.NonSingletonCards)
}

func printNames(title string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Printf("\n%s\n", colorize.YellowString(title+":"))
	for _, name := range names {
		fmt.Printf("  - %s\n", name)
	}
}
