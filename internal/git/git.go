// Package git fetches repository sources, either by shallow clone or from a local directory.
package git

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

var ErrInvalidURL = errors.New("invalid repository url")

// ParseRepoURL extracts owner and name from a repository URL such as
// https://github.com/owner/name(.git) or git@github.com:owner/name.git. A path to
// an existing local directory yields owner "local" and the directory name.
func ParseRepoURL(raw string) (owner, name string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if isLocalDir(raw) {
		abs, err := filepath.Abs(raw)
		if err != nil {
			return "", "", err
		}
		return "local", filepath.Base(abs), nil
	}

	var path string
	if rest, ok := strings.CutPrefix(raw, "git@"); ok {
		_, path, ok = strings.Cut(rest, ":")
		if !ok {
			return "", "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
		}
	} else {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return "", "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
		}
		path = u.Path
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

// Checkout is a working tree ready to be scanned. Close removes it when it was
// cloned for the run; local directories are left alone.
type Checkout struct {
	Dir    string
	Branch string
	remove bool
}

func (c *Checkout) Close() error {
	if c == nil || !c.remove {
		return nil
	}
	return os.RemoveAll(c.Dir)
}

// Fetcher materialises repositories on disk.
type Fetcher struct {
	cloneDir string
	token    string
}

func NewFetcher(cloneDir, token string) *Fetcher {
	if cloneDir == "" {
		cloneDir = os.TempDir()
	}
	return &Fetcher{cloneDir: cloneDir, token: token}
}

// Fetch returns a checkout of source. Local directories are used in place;
// anything else is shallow-cloned into a fresh directory under the clone dir.
func (f *Fetcher) Fetch(ctx context.Context, source string) (*Checkout, error) {
	if isLocalDir(source) {
		abs, err := filepath.Abs(source)
		if err != nil {
			return nil, err
		}
		return &Checkout{Dir: abs, Branch: currentBranch(abs)}, nil
	}

	_, name, err := ParseRepoURL(source)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(f.cloneDir, 0o755); err != nil {
		return nil, fmt.Errorf("create clone dir: %w", err)
	}
	dir, err := os.MkdirTemp(f.cloneDir, "codearch_"+name+"_")
	if err != nil {
		return nil, fmt.Errorf("create clone target: %w", err)
	}

	opts := &gogit.CloneOptions{
		URL:          source,
		Depth:        1,
		SingleBranch: true,
	}
	if f.token != "" {
		opts.Auth = &http.BasicAuth{Username: "x-access-token", Password: f.token}
	}

	repo, err := gogit.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to clone repository: %w", err)
	}

	co := &Checkout{Dir: dir, remove: true}
	if head, err := repo.Head(); err == nil {
		co.Branch = head.Name().Short()
	}
	return co, nil
}

func currentBranch(dir string) string {
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Name().Short()
}

func isLocalDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
