package vault

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

// Index is the tag and link-graph index over a vault. It satisfies
// interfaces.DataIndex and is built lazily on first query.
type Index struct {
	vault *FSVault

	mu       sync.RWMutex
	built    bool
	tags     map[string][]string
	forward  map[string][]string
	backward map[string][]string
}

var _ interfaces.DataIndex = (*Index)(nil)

// NewIndex builds an index over v.
func NewIndex(v *FSVault) *Index {
	return &Index{vault: v}
}

// Build (re)indexes every note in the vault.
func (i *Index) Build(ctx context.Context) error {
	docs, err := i.vault.Folder(ctx, ".")
	if err != nil {
		return err
	}

	tags := map[string][]string{}
	forward := map[string][]string{}
	for _, doc := range docs {
		tags[doc.Path] = documentTags(doc)
		forward[doc.Path] = i.resolveLinks(ctx, doc)
	}

	i.mu.Lock()
	i.tags = tags
	i.forward = forward
	i.backward = invert(forward)
	i.built = true
	i.mu.Unlock()
	return nil
}

// Refresh reindexes a single note. Missing notes are dropped from the index.
func (i *Index) Refresh(ctx context.Context, path string) error {
	if err := i.ensure(ctx); err != nil {
		return err
	}
	i.vault.Invalidate(path)
	doc, err := i.vault.Document(ctx, path)

	i.mu.Lock()
	defer i.mu.Unlock()
	key := cleanPath(path)
	if err != nil {
		delete(i.tags, key)
		delete(i.forward, key)
	} else {
		i.tags[doc.Path] = documentTags(doc)
		i.forward[doc.Path] = i.resolveLinks(ctx, doc)
	}
	i.backward = invert(i.forward)
	return nil
}

// Tagged returns the notes carrying every tag. Nested tags match their
// parents, so "places" matches a note tagged "places/city".
func (i *Index) Tagged(ctx context.Context, tags []string) ([]string, error) {
	if err := i.ensure(ctx); err != nil {
		return nil, err
	}
	wanted := lo.Uniq(lo.FilterMap(tags, func(tag string, _ int) (string, bool) {
		cleaned := strings.ToLower(strings.TrimLeft(strings.TrimSpace(tag), "#"))
		return cleaned, cleaned != ""
	}))
	if len(wanted) == 0 {
		return nil, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	var out []string
	for path, docTags := range i.tags {
		if lo.EveryBy(wanted, func(tag string) bool { return hasTag(docTags, tag) }) {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Backlinks returns the notes linking to target.
func (i *Index) Backlinks(ctx context.Context, target string) ([]string, error) {
	return i.edges(ctx, target, func() map[string][]string { return i.backward })
}

// ForwardLinks returns the notes target links to.
func (i *Index) ForwardLinks(ctx context.Context, target string) ([]string, error) {
	return i.edges(ctx, target, func() map[string][]string { return i.forward })
}

func (i *Index) edges(ctx context.Context, target string, graph func() map[string][]string) ([]string, error) {
	if err := i.ensure(ctx); err != nil {
		return nil, err
	}
	resolved, err := i.vault.Resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	return append([]string(nil), graph()[resolved]...), nil
}

func (i *Index) ensure(ctx context.Context) error {
	i.mu.RLock()
	built := i.built
	i.mu.RUnlock()
	if built {
		return nil
	}
	return i.Build(ctx)
}

func (i *Index) resolveLinks(ctx context.Context, doc *interfaces.Document) []string {
	var out []string
	for _, link := range ExtractLinks(doc.Body) {
		resolved, err := i.vault.Resolve(ctx, link)
		if err != nil || resolved == doc.Path {
			continue
		}
		out = append(out, resolved)
	}
	return lo.Uniq(out)
}

func documentTags(doc *interfaces.Document) []string {
	all := append(append([]string(nil), doc.FrontMatter.Tags...), ExtractInlineTags(doc.Body)...)
	return lo.Uniq(lo.Map(all, func(tag string, _ int) string {
		return strings.ToLower(strings.TrimLeft(strings.TrimSpace(tag), "#"))
	}))
}

func hasTag(docTags []string, tag string) bool {
	return lo.ContainsBy(docTags, func(candidate string) bool {
		return candidate == tag || strings.HasPrefix(candidate, tag+"/")
	})
}

func invert(forward map[string][]string) map[string][]string {
	backward := map[string][]string{}
	for source, targets := range forward {
		for _, target := range targets {
			backward[target] = append(backward[target], source)
		}
	}
	for target := range backward {
		sort.Strings(backward[target])
	}
	return backward
}
