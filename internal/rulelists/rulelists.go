package rulelists

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// File names inside the lists directory
const (
	BannedFile    = "banned_list.csv"
	AllowedFile   = "allowed_list.csv"
	SingletonFile = "singleton_exceptions.csv"
)

// snapshot is an immutable view of the three lists
type snapshot struct {
	banned    []string
	allowed   []string
	singleton []string

	bannedSet    map[string]bool
	allowedSet   map[string]bool
	singletonSet map[string]bool
}

func newSnapshot(banned, allowed, singleton []string) *snapshot {
	return &snapshot{
		banned:       banned,
		allowed:      allowed,
		singleton:    singleton,
		bannedSet:    toSet(banned),
		allowedSet:   toSet(allowed),
		singletonSet: toSet(singleton),
	}
}

// Lists holds the banned, allowed and singleton-exception card names.
// Reads are lock free; writers copy the current snapshot and swap it.
type Lists struct {
	mu          sync.Mutex
	current     atomic.Pointer[snapshot]
	initialized bool
	logger      *zap.Logger
}

// New returns empty, uninitialized lists
func New(logger *zap.Logger) *Lists {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Lists{logger: logger}
	l.current.Store(newSnapshot(nil, nil, nil))
	return l
}

// Load reads the three list files from dir. It only does work the first
// time; later calls return immediately until Reset is called.
func (l *Lists) Load(ctx context.Context, dir string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized {
		return nil
	}

	var banned, allowed, singleton []string
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		banned, err = readList(filepath.Join(dir, BannedFile))
		return err
	})
	g.Go(func() (err error) {
		allowed, err = readList(filepath.Join(dir, AllowedFile))
		return err
	})
	g.Go(func() (err error) {
		singleton, err = readList(filepath.Join(dir, SingletonFile))
		return err
	})

	if err := g.Wait(); err != nil {
		l.current.Store(newSnapshot(nil, nil, nil))
		return fmt.Errorf("failed to load card lists: %w", err)
	}

	// Bans folded in before the files were read are kept.
	banned = union(banned, l.current.Load().banned)

	l.current.Store(newSnapshot(banned, allowed, singleton))
	l.initialized = true
	l.logger.Info("card lists loaded",
		zap.String("dir", dir),
		zap.Int("banned", len(banned)),
		zap.Int("allowed", len(allowed)),
		zap.Int("singleton_exceptions", len(singleton)))
	return nil
}

// Initialized reports whether Load has completed successfully
func (l *Lists) Initialized() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.initialized
}

// AddBanned merges names into the banned list, skipping names already present.
// It returns the number of names that were new.
func (l *Lists) AddBanned(names []string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.current.Load()
	merged := union(cur.banned, names)
	added := len(merged) - len(cur.banned)
	if added == 0 {
		return 0
	}
	l.current.Store(newSnapshot(merged, cur.allowed, cur.singleton))
	return added
}

// Reset clears all lists back to the empty, uninitialized state
func (l *Lists) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current.Store(newSnapshot(nil, nil, nil))
	l.initialized = false
}

// IsBanned reports whether name is on the banned list
func (l *Lists) IsBanned(name string) bool {
	return l.current.Load().bannedSet[name]
}

// IsAllowed reports whether name is on the allowed list
func (l *Lists) IsAllowed(name string) bool {
	return l.current.Load().allowedSet[name]
}

// IsSingletonException reports whether name may appear more than once
func (l *Lists) IsSingletonException(name string) bool {
	return l.current.Load().singletonSet[name]
}

// Banned returns a copy of the banned list
func (l *Lists) Banned() []string {
	return append([]string(nil), l.current.Load().banned...)
}

// Allowed returns a copy of the allowed list
func (l *Lists) Allowed() []string {
	return append([]string(nil), l.current.Load().allowed...)
}

// SingletonExceptions returns a copy of the singleton exceptions
func (l *Lists) SingletonExceptions() []string {
	return append([]string(nil), l.current.Load().singleton...)
}

// readList reads one name per line, dropping quotes and blank lines
func readList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseList(string(data)), nil
}

// ParseList splits list file content into card names
func ParseList(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		name := strings.TrimSpace(strings.ReplaceAll(line, `"`, ""))
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// union appends the names of extra missing from base, sorted, after base.
func union(base, extra []string) []string {
	seen := toSet(base)
	var added []string
	for _, name := range extra {
		if !seen[name] {
			seen[name] = true
			added = append(added, name)
		}
	}
	if len(added) == 0 {
		return base
	}
	sort.Strings(added)
	out := make([]string, 0, len(base)+len(added))
	out = append(out, base...)
	return append(out, added...)
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}
