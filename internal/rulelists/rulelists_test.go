package rulelists

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLists(t *testing.T, banned, allowed, singleton string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, BannedFile), []byte(banned), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, AllowedFile), []byte(allowed), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, SingletonFile), []byte(singleton), 0644))
	return dir
}

func TestParseList(t *testing.T) {
	names := ParseList("\"Sol Ring\"\n\n  Mana Crypt  \r\n\"\"\nJeweled Lotus\n")
	assert.Equal(t, []string{"Sol Ring", "Mana Crypt", "Jeweled Lotus"}, names)
}

func TestLists_Load(t *testing.T) {
	dir := writeLists(t,
		"Sol Ring\nMana Crypt\n",
		"\"Lurrus of the Dream-Den\"\n",
		"Relentless Rats\nShadowborn Apostle\n")

	l := New(nil)
	assert.False(t, l.Initialized())
	require.NoError(t, l.Load(context.Background(), dir))
	assert.True(t, l.Initialized())

	assert.True(t, l.IsBanned("Sol Ring"))
	assert.False(t, l.IsBanned("Lurrus of the Dream-Den"))
	assert.True(t, l.IsAllowed("Lurrus of the Dream-Den"))
	assert.True(t, l.IsSingletonException("Relentless Rats"))
	assert.Equal(t, []string{"Sol Ring", "Mana Crypt"}, l.Banned())
	assert.Equal(t, []string{"Relentless Rats", "Shadowborn Apostle"}, l.SingletonExceptions())
}

func TestLists_LoadOnlyOnce(t *testing.T) {
	dir := writeLists(t, "Sol Ring\n", "", "")
	l := New(nil)
	require.NoError(t, l.Load(context.Background(), dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, BannedFile), []byte("Other\n"), 0644))
	require.NoError(t, l.Load(context.Background(), dir))
	assert.Equal(t, []string{"Sol Ring"}, l.Banned())

	l.Reset()
	assert.False(t, l.Initialized())
	assert.Empty(t, l.Banned())

	require.NoError(t, l.Load(context.Background(), dir))
	assert.Equal(t, []string{"Other"}, l.Banned())
}

func TestLists_LoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, BannedFile), []byte("Sol Ring\n"), 0644))

	l := New(nil)
	err := l.Load(context.Background(), dir)
	require.Error(t, err)
	assert.False(t, l.Initialized())
	assert.Empty(t, l.Banned())
}

func TestLists_AddBanned(t *testing.T) {
	dir := writeLists(t, "Sol Ring\n", "", "")
	l := New(nil)
	require.NoError(t, l.Load(context.Background(), dir))

	added := l.AddBanned([]string{"Oko, Thief of Crowns", "Sol Ring", "Field of the Dead", "Oko, Thief of Crowns"})
	assert.Equal(t, 2, added)
	assert.Equal(t, []string{"Sol Ring", "Field of the Dead", "Oko, Thief of Crowns"}, l.Banned())

	assert.Equal(t, 0, l.AddBanned([]string{"Sol Ring"}))
}

func TestLists_AddBannedBeforeLoadSurvivesLoad(t *testing.T) {
	dir := writeLists(t, "Sol Ring\n", "", "")
	l := New(nil)
	l.AddBanned([]string{"Oko, Thief of Crowns"})

	require.NoError(t, l.Load(context.Background(), dir))
	assert.True(t, l.IsBanned("Sol Ring"))
	assert.True(t, l.IsBanned("Oko, Thief of Crowns"))
}

func TestLists_ConcurrentAccess(t *testing.T) {
	dir := writeLists(t, "Sol Ring\n", "Lurrus of the Dream-Den\n", "")
	l := New(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_ = l.Load(context.Background(), dir)
		}()
		go func() {
			defer wg.Done()
			l.AddBanned([]string{"Oko, Thief of Crowns"})
		}()
		go func() {
			defer wg.Done()
			_ = l.IsBanned("Sol Ring")
			_ = l.IsAllowed("Lurrus of the Dream-Den")
		}()
	}
	wg.Wait()

	assert.True(t, l.IsBanned("Sol Ring"))
	assert.True(t, l.IsBanned("Oko, Thief of Crowns"))
	assert.Len(t, l.Banned(), 2)
}
