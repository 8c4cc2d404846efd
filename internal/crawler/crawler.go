package crawler

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"codearch/internal/model"
)

// DefaultMaxFileSize is the largest file, in bytes, that Scan keeps.
const DefaultMaxFileSize = 1_000_000

var languageByExtension = map[string]model.Language{
	".py":  model.LanguagePython,
	".js":  model.LanguageJavaScript,
	".jsx": model.LanguageJavaScript,
	".ts":  model.LanguageTypeScript,
	".tsx": model.LanguageTypeScript,
}

var defaultSkipDirs = []string{
	"node_modules", ".git", "__pycache__", ".venv", "venv",
	".env", "dist", "build", ".pytest_cache", ".mypy_cache",
	"coverage", ".tox", ".idea", ".vscode", "target", "vendor",
}

var binarySuffixes = []string{
	".png", ".jpg", ".jpeg", ".gif", ".ico", ".svg", ".bmp",
	".mp4", ".mov", ".avi", ".mp3", ".wav", ".ogg",
	".pdf", ".doc", ".docx", ".zip", ".tar", ".gz", ".rar",
	".exe", ".dll", ".so", ".dylib", ".bin", ".pyc",
	".lock", ".log", ".min.js", ".min.css",
}

// FileInfo is one file kept by a scan.
type FileInfo struct {
	Path      string // relative to the scan root, slash separated
	AbsPath   string
	Extension string
	Language  model.Language // empty when unsupported
	SizeBytes int64
}

// Crawler scans a directory for source files.
type Crawler struct {
	skipDirs    map[string]struct{}
	ignore      []glob.Glob
	maxFileSize int64
}

type Option func(*Crawler) error

// WithIgnorePatterns excludes files whose relative path or base name matches one of patterns.
func WithIgnorePatterns(patterns ...string) Option {
	return func(c *Crawler) error {
		for _, p := range patterns {
			if strings.TrimSpace(p) == "" {
				continue
			}
			g, err := glob.Compile(p, '/')
			if err != nil {
				return fmt.Errorf("invalid ignore pattern %q: %w", p, err)
			}
			c.ignore = append(c.ignore, g)
		}
		return nil
	}
}

func WithMaxFileSize(n int64) Option {
	return func(c *Crawler) error {
		if n > 0 {
			c.maxFileSize = n
		}
		return nil
	}
}

// NewCrawler creates a new crawler instance.
func NewCrawler(opts ...Option) (*Crawler, error) {
	c := &Crawler{
		skipDirs:    make(map[string]struct{}, len(defaultSkipDirs)),
		maxFileSize: DefaultMaxFileSize,
	}
	for _, d := range defaultSkipDirs {
		c.skipDirs[d] = struct{}{}
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Scan walks root and returns every file worth recording, in lexical path order.
// Unsupported languages are kept so they show up in the language histogram.
func (c *Crawler) Scan(ctx context.Context, root string) ([]FileInfo, error) {
	var files []FileInfo
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if _, skip := c.skipDirs[d.Name()]; skip && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") || isBinary(name) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if c.ignored(rel, name) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > c.maxFileSize {
			return nil
		}

		files = append(files, FileInfo{
			Path:      rel,
			AbsPath:   path,
			Extension: strings.ToLower(filepath.Ext(name)),
			Language:  DetectLanguage(name),
			SizeBytes: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return files, nil
}

func (c *Crawler) ignored(rel, name string) bool {
	for _, g := range c.ignore {
		if g.Match(rel) || g.Match(name) {
			return true
		}
	}
	return false
}

func isBinary(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range binarySuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// DetectLanguage maps a file name to a supported language, or "" when unsupported.
func DetectLanguage(name string) model.Language {
	return languageByExtension[strings.ToLower(filepath.Ext(name))]
}

// ReadFile returns the file content, or an in-band marker describing the read
// error. It never fails so one unreadable file cannot abort an analysis.
func ReadFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("# Error reading file: %v", err)
	}
	return strings.ToValidUTF8(string(data), "")
}

// LanguageBreakdown counts files per language, with unsupported files under "other".
func LanguageBreakdown(files []FileInfo) map[string]int {
	out := make(map[string]int)
	for _, f := range files {
		lang := string(f.Language)
		if lang == "" {
			lang = model.LanguageOther
		}
		out[lang]++
	}
	return out
}
