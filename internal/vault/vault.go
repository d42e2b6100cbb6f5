package vault

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-mapblocks/internal/logging"
	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

// ErrDocumentNotFound is returned when a note or asset cannot be resolved.
var ErrDocumentNotFound = errors.New("vault: document not found")

// Config configures how notes are discovered.
type Config struct {
	// Pattern limits discovered notes to those matching the glob (defaults to "*.md").
	Pattern string
	// Recursive controls whether Folder walks sub-directories. Defaults to true
	// through DefaultConfig.
	Recursive bool
}

// DefaultConfig walks every Markdown note recursively.
func DefaultConfig() Config {
	return Config{Pattern: "*.md", Recursive: true}
}

// Option customises an FSVault.
type Option func(*FSVault)

// WithLogger sets the vault logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(v *FSVault) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// FSVault implements interfaces.Vault over an fs.FS. Parsed notes are cached
// until their modification time changes.
type FSVault struct {
	fs        fs.FS
	pattern   string
	recursive bool
	logger    interfaces.Logger

	mu    sync.RWMutex
	cache map[string]*interfaces.Document
}

var _ interfaces.Vault = (*FSVault)(nil)

// New constructs a vault over filesystem.
func New(filesystem fs.FS, cfg Config, opts ...Option) *FSVault {
	pattern := cfg.Pattern
	if strings.TrimSpace(pattern) == "" {
		pattern = "*.md"
	}
	v := &FSVault{
		fs:        filesystem,
		pattern:   pattern,
		recursive: cfg.Recursive,
		logger:    logging.NoOp(),
		cache:     map[string]*interfaces.Document{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Document loads a note by path or by link name.
func (v *FSVault) Document(ctx context.Context, name string) (*interfaces.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resolved, err := v.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	return v.load(resolved)
}

// Folder lists the notes under dir. The vault root is "", "." or "/".
func (v *FSVault) Folder(ctx context.Context, dir string) ([]*interfaces.Document, error) {
	root := cleanPath(dir)
	if root == "" {
		root = "."
	}
	info, err := fs.Stat(v.fs, root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: folder %s", ErrDocumentNotFound, dir)
	}

	var docs []*interfaces.Document
	walkErr := fs.WalkDir(v.fs, root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != root && (!v.recursive || strings.HasPrefix(d.Name(), ".")) {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !v.matchesPattern(p) {
			return nil
		}
		doc, err := v.load(p)
		if err != nil {
			v.logger.Warn("vault.note.skipped", "path", p, "error", err)
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// ReadFile returns raw bytes of any vault file, resolving bare file names
// against the whole vault.
func (v *FSVault) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target := cleanPath(LinkTarget(UnwrapLink(name)))
	if target == "" {
		return nil, fmt.Errorf("%w: %q", ErrDocumentNotFound, name)
	}
	if data, err := fs.ReadFile(v.fs, target); err == nil {
		return data, nil
	}
	matches, err := v.findByBase(ctx, path.Base(target), false)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, target)
	}
	return fs.ReadFile(v.fs, matches[0])
}

// Resolve maps a path or link name onto the path of an existing note. Exact
// paths win, then the path with ".md" appended, then the shortest note whose
// base name matches.
func (v *FSVault) Resolve(ctx context.Context, name string) (string, error) {
	target := cleanPath(LinkTarget(UnwrapLink(name)))
	if target == "" {
		return "", fmt.Errorf("%w: %q", ErrDocumentNotFound, name)
	}
	for _, candidate := range []string{target, target + ".md"} {
		if info, err := fs.Stat(v.fs, candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	base := path.Base(target)
	if path.Ext(base) == "" {
		base += ".md"
	}
	matches, err := v.findByBase(ctx, base, true)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %s", ErrDocumentNotFound, target)
	}
	return matches[0], nil
}

// Paths lists every note path in the vault.
func (v *FSVault) Paths(ctx context.Context) ([]string, error) {
	docs, err := v.Folder(ctx, ".")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Path)
	}
	return out, nil
}

// Invalidate drops cached copies of path.
func (v *FSVault) Invalidate(p string) {
	v.mu.Lock()
	delete(v.cache, cleanPath(p))
	v.mu.Unlock()
}

func (v *FSVault) load(p string) (*interfaces.Document, error) {
	info, err := fs.Stat(v.fs, p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, p)
	}

	v.mu.RLock()
	cached, ok := v.cache[p]
	v.mu.RUnlock()
	if ok && cached.LastModified.Equal(info.ModTime()) {
		return cached, nil
	}

	data, err := fs.ReadFile(v.fs, p)
	if err != nil {
		return nil, fmt.Errorf("vault read %s: %w", p, err)
	}
	doc, err := BuildDocument(p, data, info.ModTime())
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	doc.Checksum = sum[:]

	v.mu.Lock()
	v.cache[p] = doc
	v.mu.Unlock()
	v.logger.Debug("vault.note.loaded", "path", p, "modified", info.ModTime().Format(time.RFC3339))
	return doc, nil
}

func (v *FSVault) findByBase(ctx context.Context, base string, notesOnly bool) ([]string, error) {
	var matches []string
	err := fs.WalkDir(v.fs, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if notesOnly && !v.matchesPattern(p) {
			return nil
		}
		if strings.EqualFold(path.Base(p), base) {
			matches = append(matches, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(matches, func(i, j int) bool {
		if len(matches[i]) != len(matches[j]) {
			return len(matches[i]) < len(matches[j])
		}
		return matches[i] < matches[j]
	})
	return matches, nil
}

func (v *FSVault) matchesPattern(p string) bool {
	match, err := path.Match(v.pattern, path.Base(p))
	return err == nil && match
}

func cleanPath(p string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" || trimmed == "." {
		return ""
	}
	return path.Clean(trimmed)
}
