package vault

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

// ParseFrontMatter extracts metadata and the Markdown body from source. Notes
// without frontmatter return an empty FrontMatter and the full source.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	var meta frontMatterEnvelope

	reader := bytes.NewReader(source)
	body, err := frontmatter.Parse(reader, &meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	return envelopeToFrontMatter(meta), body, nil
}

// BuildDocument assembles an interfaces.Document from the supplied path, raw
// content and modification time.
func BuildDocument(path string, source []byte, modified time.Time) (*interfaces.Document, error) {
	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &interfaces.Document{
		Path:         path,
		FrontMatter:  fm,
		Body:         body,
		LastModified: modified,
	}, nil
}

type frontMatterEnvelope struct {
	Tags   any            `yaml:"tags"`
	Custom map[string]any `yaml:",inline"`
}

func envelopeToFrontMatter(env frontMatterEnvelope) interfaces.FrontMatter {
	raw := make(map[string]any, len(env.Custom)+1)
	for key, value := range env.Custom {
		raw[key] = normalizeValue(value)
	}

	tags := normalizeTags(env.Tags)
	if len(tags) > 0 {
		raw["tags"] = append([]string(nil), tags...)
	}

	return interfaces.FrontMatter{
		Tags: tags,
		Raw:  raw,
	}
}

// normalizeTags accepts both a YAML list and a comma separated string.
func normalizeTags(value any) []string {
	var candidates []string
	switch typed := normalizeValue(value).(type) {
	case string:
		candidates = strings.Split(typed, ",")
	case []any:
		for _, item := range typed {
			candidates = append(candidates, fmt.Sprint(item))
		}
	}
	tags := make([]string, 0, len(candidates))
	for _, tag := range candidates {
		if cleaned := strings.TrimLeft(strings.TrimSpace(tag), "#"); cleaned != "" {
			tags = append(tags, cleaned)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

// normalizeValue converts YAML decoder maps keyed by any into string keyed maps.
func normalizeValue(value any) any {
	switch typed := value.(type) {
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[fmt.Sprint(key)] = normalizeValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = normalizeValue(item)
		}
		return out
	case []string:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item
		}
		return out
	default:
		return value
	}
}
