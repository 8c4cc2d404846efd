package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoURL(t *testing.T) {
	cases := []struct {
		raw         string
		owner, name string
	}{
		{"https://github.com/acme/widgets", "acme", "widgets"},
		{"https://github.com/acme/widgets.git", "acme", "widgets"},
		{"https://github.com/acme/widgets/tree/main", "acme", "widgets"},
		{"git@github.com:acme/widgets.git", "acme", "widgets"},
	}
	for _, tc := range cases {
		owner, name, err := ParseRepoURL(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.owner, owner, tc.raw)
		assert.Equal(t, tc.name, name, tc.raw)
	}

	for _, bad := range []string{"", "https://github.com/acme", "not a url", "git@github.com"} {
		_, _, err := ParseRepoURL(bad)
		assert.ErrorIs(t, err, ErrInvalidURL, bad)
	}
}

func TestParseRepoURL_LocalDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "myproject")
	require.NoError(t, os.Mkdir(dir, 0o755))

	owner, name, err := ParseRepoURL(dir)
	require.NoError(t, err)
	assert.Equal(t, "local", owner)
	assert.Equal(t, "myproject", name)
}

func TestFetcher_LocalDirIsNotRemoved(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.py"), []byte("x = 1\n"), 0o644))

	co, err := NewFetcher(t.TempDir(), "").Fetch(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, dir, co.Dir)
	assert.Empty(t, co.Branch)

	require.NoError(t, co.Close())
	_, err = os.Stat(filepath.Join(dir, "a.py"))
	assert.NoError(t, err)
}

func TestFetcher_LocalGitRepoBranch(t *testing.T) {
	dir := t.TempDir()
	_, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	co, err := NewFetcher("", "").Fetch(context.Background(), dir)
	require.NoError(t, err)
	// An empty repository has no HEAD commit yet.
	assert.Empty(t, co.Branch)
}

func TestFetcher_InvalidSource(t *testing.T) {
	_, err := NewFetcher(t.TempDir(), "").Fetch(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestCheckout_CloseRemovesClone(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "clone")
	require.NoError(t, os.Mkdir(dir, 0o755))

	co := &Checkout{Dir: dir, remove: true}
	require.NoError(t, co.Close())
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	var nilCheckout *Checkout
	assert.NoError(t, nilCheckout.Close())
}
