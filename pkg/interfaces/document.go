package interfaces

import (
	"context"
	"time"
)

// Document represents a Markdown note from the vault with parsed metadata.
// The struct is shared between the interfaces package and internal
// implementations so consumers can depend on a stable contract.
type Document struct {
	// Path is the slash separated path relative to the vault root, including the extension.
	Path         string
	FrontMatter  FrontMatter
	Body         []byte
	LastModified time.Time
	// Checksum stores a SHA-256 digest of the original file content so callers
	// can detect changes without re-resolving unchanged notes.
	Checksum []byte
}

// Name returns the document base name without directory or extension.
func (d *Document) Name() string {
	if d == nil {
		return ""
	}
	name := d.Path
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			name = name[i+1:]
			break
		}
	}
	for i := len(name) - 1; i > 0; i-- {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}

// FrontMatter models metadata extracted from Markdown notes. Tags is the
// normalised tag list (no leading '#'); Raw keeps every key as decoded.
type FrontMatter struct {
	Tags []string       `yaml:"tags" json:"tags"`
	Raw  map[string]any `yaml:"-" json:"raw"`
}

// Has reports whether the frontmatter defines key with a non-nil value.
func (f FrontMatter) Has(key string) bool {
	if f.Raw == nil {
		return false
	}
	value, ok := f.Raw[key]
	return ok && value != nil
}

// Vault exposes read access to the Markdown notes backing immutable markers.
type Vault interface {
	// Document loads a single note by vault relative path. Link style names
	// ("Folder/Note" without extension) are accepted as well.
	Document(ctx context.Context, path string) (*Document, error)
	// Folder lists every Markdown note under dir, recursively.
	Folder(ctx context.Context, dir string) ([]*Document, error)
	// ReadFile returns raw bytes for non-Markdown assets such as GeoJSON files.
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// DataIndex is the optional companion index used for tag and link-graph
// queries. Callers pass nil when no index is installed.
type DataIndex interface {
	// Tagged returns every document path carrying all of the supplied tags.
	Tagged(ctx context.Context, tags []string) ([]string, error)
	// Backlinks returns paths of documents linking to target.
	Backlinks(ctx context.Context, target string) ([]string, error)
	// ForwardLinks returns paths of documents target links to.
	ForwardLinks(ctx context.Context, target string) ([]string, error)
}
