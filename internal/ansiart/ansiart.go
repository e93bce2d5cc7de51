package ansiart

import (
	"crypto/md5"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
)

// Default art size in character cells
const (
	DefaultWidth  = 40
	DefaultHeight = 32
)

// Decode reads a GIF, JPEG or PNG image
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Render converts img to rows of upper half block characters, each cell
// covering a 2x2 pixel block of the resized image. Without trueColor the
// blocks are emitted uncolored.
func Render(img image.Image, width, height int, trueColor bool) string {
	resized := resize.Resize(uint(width*2), uint(height*2), img, resize.Lanczos3)

	var buffer strings.Builder
	for y := 0; y < height*2; y += 2 {
		for x := 0; x < width*2; x += 2 {
			upper := averageColor(colorAt(resized, x, y), colorAt(resized, x+1, y))
			lower := averageColor(colorAt(resized, x, y+1), colorAt(resized, x+1, y+1))
			buffer.WriteString(cell('▀', upper, lower, trueColor))
		}
		buffer.WriteString("\n")
	}
	return buffer.String()
}

// colorAt returns black outside the image bounds
func colorAt(img image.Image, x, y int) colorful.Color {
	var c color.Color = color.RGBA{0, 0, 0, 255}
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		c = img.At(x, y)
	}
	col, _ := colorful.MakeColor(c)
	return col
}

func averageColor(colors ...colorful.Color) colorful.Color {
	var r, g, b float64
	for _, c := range colors {
		r += c.R
		g += c.G
		b += c.B
	}
	count := float64(len(colors))
	return colorful.Color{R: r / count, G: g / count, B: b / count}
}

func cell(char rune, fg, bg colorful.Color, trueColor bool) string {
	if !trueColor {
		return string(char)
	}
	r1, g1, b1 := fg.Clamped().RGB255()
	r2, g2, b2 := bg.Clamped().RGB255()
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm%c\x1b[0m",
		r1, g1, b1, r2, g2, b2, char)
}

// StripANSI removes SGR escape sequences
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false
	for _, c := range s {
		switch {
		case inEscape:
			if c == 'm' {
				inEscape = false
			}
		case c == '\x1b':
			inEscape = true
		default:
			result.WriteRune(c)
		}
	}
	return result.String()
}

// VisibleWidth is the number of terminal cells s occupies
func VisibleWidth(s string) int {
	return utf8.RuneCountInString(StripANSI(s))
}

// Cache stores rendered art on disk keyed by image source
type Cache struct {
	dir string
}

// NewCache returns a cache rooted at dir
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Path returns the file caching art for key
func (c *Cache) Path(key string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%x.ansi", md5.Sum([]byte(key))))
}

// Load returns cached art and whether it was present
func (c *Cache) Load(key string) (string, bool) {
	data, err := os.ReadFile(c.Path(key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Store writes art for key
func (c *Cache) Store(key, art string) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create ANSI cache directory: %w", err)
	}
	if err := os.WriteFile(c.Path(key), []byte(art), 0644); err != nil {
		return fmt.Errorf("failed to write ANSI art to file: %w", err)
	}
	return nil
}
