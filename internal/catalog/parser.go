package catalog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/arcanaland/highlander/internal/card"
	"github.com/arcanaland/highlander/internal/metrics"
)

const (
	// progressEvery is how often parse progress is logged, in objects
	progressEvery = 10000
	// DefaultMaxObjectSize caps the text buffered for a single catalog object
	DefaultMaxObjectSize = 10 << 20
)

var errMissingName = errors.New("card object has no name")

// ParseStats summarises one parse run
type ParseStats struct {
	Examined  int
	Kept      int
	Malformed int
	Oversized int
}

// Parser reconstructs top-level JSON objects from a catalog array one at a
// time, so the full payload is never held in memory. Each object is decoded
// straight into a card.Card, which keeps only the cached fields.
type Parser struct {
	logger        *zap.Logger
	maxObjectSize int
}

// NewParser creates a parser. A nil logger discards output.
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger, maxObjectSize: DefaultMaxObjectSize}
}

// scanner holds the character level state between reads
type scanner struct {
	depth      int
	inString   bool
	escapeNext bool
	overflow   bool
	buf        bytes.Buffer
}

// Stream reads r and calls emit for every eligible card. Malformed objects
// are logged and skipped; only read errors, ctx cancellation or an emit
// error stop the stream.
func (p *Parser) Stream(ctx context.Context, r io.Reader, emit func(*card.Card) error) (ParseStats, error) {
	var (
		stats ParseStats
		s     scanner
	)
	br := bufio.NewReaderSize(r, 64<<10)

	// Structural characters are all ASCII and never occur inside a UTF-8
	// multi-byte sequence, so scanning bytes is equivalent to scanning runes.
	for {
		c, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, err
		}

		if s.escapeNext {
			s.write(c, p.maxObjectSize)
			s.escapeNext = false
			continue
		}

		switch {
		case c == '"':
			s.inString = !s.inString
			s.write(c, p.maxObjectSize)
		case c == '\\' && s.inString:
			s.escapeNext = true
			s.write(c, p.maxObjectSize)
		case c == '{' && !s.inString:
			s.depth++
			s.write(c, p.maxObjectSize)
		case c == '}' && !s.inString:
			if s.depth == 0 {
				// unbalanced close brace between objects
				continue
			}
			s.write(c, p.maxObjectSize)
			s.depth--
			if s.depth != 0 {
				continue
			}
			if err := p.complete(&s, &stats, emit); err != nil {
				return stats, err
			}
			if stats.Examined%progressEvery == 0 {
				if err := ctx.Err(); err != nil {
					return stats, err
				}
				p.logger.Info("parsing catalog", zap.Int("processed", stats.Examined))
			}
		case s.depth == 0 && !s.inString && (c == '[' || c == ']' || c == ','):
			// array punctuation between objects
		case s.depth == 0 && !s.inString && isSpace(c):
		default:
			s.write(c, p.maxObjectSize)
		}
	}

	if s.depth != 0 || s.buf.Len() > 0 {
		stats.Malformed++
		p.logger.Warn("catalog stream ended inside an object", zap.Int("depth", s.depth))
	}

	p.logger.Info("catalog parsed",
		zap.Int("processed", stats.Examined),
		zap.Int("kept", stats.Kept),
		zap.Int("malformed", stats.Malformed))
	return stats, ctx.Err()
}

// Parse collects every eligible card from r
func (p *Parser) Parse(ctx context.Context, r io.Reader) ([]*card.Card, ParseStats, error) {
	var cards []*card.Card
	stats, err := p.Stream(ctx, r, func(c *card.Card) error {
		cards = append(cards, c)
		return nil
	})
	return cards, stats, err
}

// complete handles the object that just closed at depth zero
func (p *Parser) complete(s *scanner, stats *ParseStats, emit func(*card.Card) error) error {
	defer s.reset()
	stats.Examined++

	if s.overflow {
		stats.Oversized++
		metrics.ParsedObjects.WithLabelValues("oversized").Inc()
		p.logger.Warn("skipping oversized catalog object", zap.Int("limit", p.maxObjectSize))
		return nil
	}

	var c card.Card
	err := json.Unmarshal(s.buf.Bytes(), &c)
	if err == nil && c.Name == "" {
		err = errMissingName
	}
	if err != nil {
		stats.Malformed++
		metrics.ParsedObjects.WithLabelValues("malformed").Inc()
		p.logger.Warn("failed to parse card object", zap.Error(err))
		return nil
	}

	if !c.IsEligible() {
		metrics.ParsedObjects.WithLabelValues("excluded").Inc()
		return nil
	}

	c.ColorIdentity = card.NormalizeColorIdentity(c.ColorIdentity)
	stats.Kept++
	metrics.ParsedObjects.WithLabelValues("kept").Inc()
	return emit(&c)
}

// write appends c to the object buffer unless the object is already too
// large, in which case the rest of it is only tracked for depth.
func (s *scanner) write(c byte, limit int) {
	if s.overflow {
		return
	}
	if limit > 0 && s.buf.Len() >= limit {
		s.overflow = true
		s.buf.Reset()
		return
	}
	s.buf.WriteByte(c)
}

func (s *scanner) reset() {
	s.buf.Reset()
	s.overflow = false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t'
}
