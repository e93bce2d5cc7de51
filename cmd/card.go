package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/arcanaland/highlander/internal/ansiart"
	"github.com/arcanaland/highlander/internal/card"
	"github.com/arcanaland/highlander/internal/config"
	"github.com/arcanaland/highlander/internal/fetch"
)

var cardCmd = &cobra.Command{
	Use:   "card [name]",
	Short: "Display a card and its legality",
	Long: `Card looks a card up in the local catalog by its full name or the name of
one of its faces and shows whether it may be played.

With --art the card image is downloaded and drawn in the terminal.

Examples:
  highlander card "Llanowar Elves"
  highlander card "Insectile Aberration"
  highlander card --art "Ezuri, Renegade Leader"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		if err := a.loadCatalog(cmd.Context()); err != nil {
			return err
		}

		c := a.engine.Lookup(args[0])
		if c == nil {
			return fmt.Errorf("card not found: %s", args[0])
		}

		var art string
		if withArt, _ := cmd.Flags().GetBool("art"); withArt {
			art, err = loadCardArt(cmd.Context(), a.fetcher, c)
			if err != nil {
				logger.Warn("could not render card art", zap.String("card", c.Name), zap.Error(err))
			}
		}

		displayCard(c, a.store.Format(), art)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(cardCmd)

	cardCmd.Flags().Bool("art", false, "draw the card image with ANSI colors")
}

// loadCardArt renders the card's small image, reusing earlier renders
func loadCardArt(ctx context.Context, fetcher *fetch.Fetcher, c *card.Card) (string, error) {
	uri := c.ImageURI("small")
	if uri == "" {
		return "", fmt.Errorf("no image available")
	}

	cache := ansiart.NewCache(config.GetANSICacheDir())
	if art, ok := cache.Load(uri); ok {
		return art, nil
	}

	resp, err := fetcher.FetchWithRetry(ctx, uri, http.Header{"Accept": {"image/*"}}, cfg.FetchAttempts)
	if err != nil {
		return "", err
	}
	if err := fetch.CheckStatus(resp); err != nil {
		return "", err
	}
	body, err := fetch.OpenBody(resp)
	if err != nil {
		return "", err
	}
	defer body.Close()

	img, err := ansiart.Decode(body)
	if err != nil {
		return "", err
	}
	art := ansiart.Render(img, ansiart.DefaultWidth, ansiart.DefaultHeight, true)
	if err := cache.Store(uri, art); err != nil {
		logger.Warn("could not cache card art", zap.Error(err))
	}
	return art, nil
}

// displayCard prints the card information, to the right of the art if any
func displayCard(c *card.Card, format, art string) {
	var artLines []string
	maxArtWidth := 0
	if art != "" {
		artLines = strings.Split(strings.TrimSuffix(art, "\n"), "\n")
		for _, line := range artLines {
			maxArtWidth = max(maxArtWidth, ansiart.VisibleWidth(line))
		}
	}

	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}

	spacing := 0
	if maxArtWidth > 0 {
		spacing = 4
	}
	infoStartCol := maxArtWidth + spacing
	infoWidth := max(width-infoStartCol-2, 20)

	var infoLines []string
	infoLines = append(infoLines, colorize.CyanString("Card:     ")+colorize.HiWhiteString(c.Name))
	for _, line := range wrapText(c.TypeLine, infoWidth-10) {
		if len(infoLines) == 1 {
			infoLines = append(infoLines, colorize.CyanString("Type:     ")+colorize.HiWhiteString(line))
		} else {
			infoLines = append(infoLines, "          "+colorize.HiWhiteString(line))
		}
	}
	infoLines = append(infoLines, colorize.CyanString("Identity: ")+colorIdentityString(c.ColorIdentity))

	status := c.Legality(format)
	if status == card.StatusLegal {
		infoLines = append(infoLines, colorize.CyanString("Status:   ")+colorize.GreenString("legal in %s", format))
	} else {
		infoLines = append(infoLines, colorize.CyanString("Status:   ")+colorize.RedString("not legal in %s", format))
	}
	if c.GameChanger {
		infoLines = append(infoLines, colorize.CyanString("Note:     ")+colorize.YellowString("game changer"))
	}

	for _, face := range c.CardFaces {
		infoLines = append(infoLines, "", colorize.CyanString("Face: ")+colorize.HiWhiteString(face.Name))
		if face.TypeLine != "" {
			infoLines = append(infoLines, face.TypeLine)
		}
		if face.OracleText != "" {
			infoLines = append(infoLines, wrapText(face.OracleText, infoWidth)...)
		}
	}
	if c.ScryfallURI != "" {
		infoLines = append(infoLines, "", colorize.CyanString("More:     ")+c.ScryfallURI)
	}

	fmt.Println()
	for i := 0; i < max(len(artLines), len(infoLines)); i++ {
		fmt.Print("  ")
		if i < len(artLines) {
			fmt.Print(artLines[i])
			fmt.Print(strings.Repeat(" ", infoStartCol-ansiart.VisibleWidth(artLines[i])))
		} else {
			fmt.Print(strings.Repeat(" ", infoStartCol))
		}
		if i < len(infoLines) {
			fmt.Print(infoLines[i])
		}
		fmt.Println()
	}
	fmt.Println()
}

var identityColors = map[string]func(format string, a ...interface{}) string{
	"W": colorize.HiWhiteString,
	"U": colorize.HiBlueString,
	"B": colorize.HiBlackString,
	"R": colorize.HiRedString,
	"G": colorize.HiGreenString,
}

func colorIdentityString(identity []string) string {
	if len(identity) == 0 {
		return "colorless"
	}
	var b strings.Builder
	for _, symbol := range identity {
		if paint, ok := identityColors[symbol]; ok {
			b.WriteString(paint("%s", symbol))
		} else {
			b.WriteString(symbol)
		}
	}
	return b.String()
}

// wrapText wraps text to a specified width
func wrapText(text string, width int) []string {
	if width < 10 {
		width = 40
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var result []string
	currentLine := words[0]
	for _, word := range words[1:] {
		if len(currentLine)+1+len(word) <= width {
			currentLine += " " + word
			continue
		}
		result = append(result, currentLine)
		currentLine = word
	}
	return append(result, currentLine)
}
