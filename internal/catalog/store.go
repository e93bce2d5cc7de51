package catalog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/arcanaland/highlander/internal/card"
	"github.com/arcanaland/highlander/internal/metrics"
	"github.com/arcanaland/highlander/internal/rulelists"
)

// DefaultFormat is the format whose catalog legality is consulted
const DefaultFormat = "pioneer"

// ErrCatalogRequired is returned in build mode when the cache file is
// missing or unreadable, since card data must have been fetched beforehand.
var ErrCatalogRequired = errors.New("card data is required but the card cache is missing or invalid; run 'highlander fetch' first")

// ErrCorruptCache marks a cache file that decodes as JSON but holds entries
// that are not card records.
var ErrCorruptCache = errors.New("card cache holds an entry that is not a card")

// Repairer refetches the catalog when the cache cannot be used
type Repairer interface {
	Download(ctx context.Context) error
}

// index is an immutable, fully built view of one catalog snapshot
type index struct {
	cards  []*card.Card
	byName map[string][]*card.Card
	byFace map[string]*card.Card
}

func newIndex(cards []*card.Card) *index {
	idx := &index{
		cards:  cards,
		byName: make(map[string][]*card.Card, len(cards)),
		byFace: make(map[string]*card.Card),
	}
	for _, c := range cards {
		idx.byName[c.Name] = append(idx.byName[c.Name], c)
		if !c.IsMultiFace() {
			continue
		}
		for _, face := range c.CardFaces {
			if _, taken := idx.byFace[face.Name]; !taken {
				idx.byFace[face.Name] = c
			}
		}
	}
	return idx
}

// readySignal is closed once a catalog snapshot is available
type readySignal struct {
	ch   chan struct{}
	once sync.Once
}

func newReadySignal() *readySignal {
	return &readySignal{ch: make(chan struct{})}
}

func (r *readySignal) fire() {
	r.once.Do(func() { close(r.ch) })
}

// StoreConfig configures a Store
type StoreConfig struct {
	// Path of the JSON cache file
	Path string
	// Format whose catalog bans are folded into the banned list
	Format string
	Lists  *rulelists.Lists
	Logger *zap.Logger
	// BuildMode forbids repairing a missing cache from the network
	BuildMode bool
}

// Store owns the in-memory card list and the on-disk cache file.
type Store struct {
	path      string
	format    string
	lists     *rulelists.Lists
	logger    *zap.Logger
	buildMode bool

	repairer Repairer
	current  atomic.Pointer[index]
	ready    atomic.Pointer[readySignal]
	loads    singleflight.Group
}

// NewStore creates an empty store. Nothing is read until Load is called.
func NewStore(config StoreConfig) *Store {
	s := &Store{
		path:      config.Path,
		format:    config.Format,
		lists:     config.Lists,
		logger:    config.Logger,
		buildMode: config.BuildMode,
	}
	if s.format == "" {
		s.format = DefaultFormat
	}
	if s.lists == nil {
		s.lists = rulelists.New(config.Logger)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.current.Store(newIndex(nil))
	s.ready.Store(newReadySignal())
	return s
}

// SetRepairer sets what Load uses to rebuild a missing or corrupt cache
func (s *Store) SetRepairer(r Repairer) {
	s.repairer = r
}

// Path returns the cache file location
func (s *Store) Path() string {
	return s.path
}

// Format returns the format whose legality this store tracks
func (s *Store) Format() string {
	return s.format
}

// Lists returns the rule lists the store folds catalog bans into
func (s *Store) Lists() *rulelists.Lists {
	return s.lists
}

// Load reads the cache file into memory. A missing or corrupt cache is
// repaired by downloading the catalog, except in build mode where it is
// fatal. Concurrent calls share a single load.
func (s *Store) Load(ctx context.Context) error {
	_, err, _ := s.loads.Do("load", func() (any, error) {
		return nil, s.load(ctx)
	})
	return err
}

func (s *Store) load(ctx context.Context) error {
	s.logger.Info("loading cards from cache", zap.String("path", s.path))
	err := s.Reload()
	if err == nil {
		return nil
	}
	if !isRecoverable(err) {
		return err
	}

	if s.buildMode {
		return fmt.Errorf("%w: %v", ErrCatalogRequired, err)
	}
	if s.repairer == nil {
		return fmt.Errorf("card cache unusable and no downloader configured: %w", err)
	}

	s.logger.Info("card cache missing or invalid, downloading fresh data", zap.Error(err))
	return s.repairer.Download(ctx)
}

// isRecoverable reports whether a cache read failure can be fixed by refetching
func isRecoverable(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrCorruptCache) ||
		errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// Reload replaces the in-memory set with the contents of the cache file and
// folds the catalog's bans into the banned list. Readers see either the old
// or the new set, never a mix.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var cards []*card.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return fmt.Errorf("error decoding card cache %s: %w", s.path, err)
	}
	for i, c := range cards {
		if c == nil || c.Name == "" {
			return fmt.Errorf("error decoding card cache %s: entry %d: %w", s.path, i, ErrCorruptCache)
		}
	}

	s.current.Store(newIndex(cards))
	metrics.CatalogCards.Set(float64(len(cards)))

	var banned []string
	for _, c := range cards {
		if c.Legality(s.format) == card.StatusBanned {
			banned = append(banned, c.Name)
		}
	}
	if len(banned) > 0 {
		sort.Strings(banned)
		added := s.lists.AddBanned(banned)
		s.logger.Info("adding format-banned cards to banned list",
			zap.String("format", s.format),
			zap.Int("banned", len(banned)),
			zap.Int("new", added))
	}

	s.ready.Load().fire()
	s.logger.Info("loaded cards from cache", zap.Int("cards", len(cards)))
	return nil
}

// Persist atomically replaces the cache file with cards
func (s *Store) Persist(cards []*card.Card) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating cache directory: %w", err)
	}

	file, err := os.CreateTemp(dir, ".cards-*.json.tmp")
	if err != nil {
		return fmt.Errorf("error creating temporary cache file: %w", err)
	}
	temporaryPath := file.Name()

	if cards == nil {
		cards = []*card.Card{}
	}
	w := bufio.NewWriterSize(file, 1<<20)
	if err := json.NewEncoder(w).Encode(cards); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("error encoding card cache: %w", err)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("error writing card cache: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("error syncing card cache: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("error closing card cache: %w", err)
	}
	if err := os.Chmod(temporaryPath, 0644); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("error setting card cache permissions: %w", err)
	}

	if err := os.Rename(temporaryPath, s.path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("error moving card cache into place: %w", err)
	}

	if parent, err := os.Open(dir); err == nil {
		parent.Sync()
		parent.Close()
	}
	return nil
}

// Ready is closed once the first snapshot has been loaded
func (s *Store) Ready() <-chan struct{} {
	return s.ready.Load().ch
}

// WaitReady blocks until a snapshot is loaded or ctx is done
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.Ready():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset empties the store and makes it unready again
func (s *Store) Reset() {
	s.current.Store(newIndex(nil))
	s.ready.Store(newReadySignal())
	metrics.CatalogCards.Set(0)
}

// Len returns the number of cards in memory
func (s *Store) Len() int {
	return len(s.current.Load().cards)
}

// Cards returns the current snapshot. The slice must not be modified.
func (s *Store) Cards() []*card.Card {
	return s.current.Load().cards
}

// FindByName returns the record stored under exactly name. When several
// records share the name a non-token one is preferred; if all of them are
// tokens nothing is returned.
func (s *Store) FindByName(name string) *card.Card {
	for _, c := range s.current.Load().byName[name] {
		if !c.IsToken() {
			return c
		}
	}
	return nil
}

// FindFace returns the multi-face record owning a face called faceName
func (s *Store) FindFace(faceName string) *card.Card {
	return s.current.Load().byFace[faceName]
}

// Resolve looks name up as a card name first and as a face name second
func (s *Store) Resolve(name string) *card.Card {
	idx := s.current.Load()
	if matches := idx.byName[name]; len(matches) > 0 {
		for _, c := range matches {
			if !c.IsToken() {
				return c
			}
		}
		return nil
	}
	return idx.byFace[name]
}

// RandomLegal returns up to n distinct random cards that are legal in the
// store's format and are not multi-faced. It waits for the catalog first.
func (s *Store) RandomLegal(ctx context.Context, n int) ([]*card.Card, error) {
	if err := s.WaitReady(ctx); err != nil {
		return nil, err
	}

	var pool []*card.Card
	for _, c := range s.Cards() {
		if c.Legality(s.format) == card.StatusLegal && !card.IsMultiFaceLayout(c.Layout) {
			pool = append(pool, c)
		}
	}
	rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if len(pool) > n {
		pool = pool[:n]
	}
	return pool, nil
}
