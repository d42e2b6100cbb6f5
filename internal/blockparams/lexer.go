package blockparams

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	linkTokenPattern   = regexp.MustCompile(`\[\[[^\[\]\n]+\]\]`)
	placeholderPattern = regexp.MustCompile(placeholderPrefix + `(\d+)` + placeholderSuffix)
	keyLinePattern     = regexp.MustCompile(`^([A-Za-z_][\w-]*):(?:\s?(.*))?$`)
)

// Placeholders stay plain YAML scalars. The suffix ends the index so digits
// written right after a link are not read as part of it.
const (
	placeholderPrefix = "MAPBLOCK_LINK_"
	placeholderSuffix = "_"
)

// entry is one top-level `key: value` line plus any indented continuation lines.
type entry struct {
	key  string
	raw  string
	line int
}

// links remembers the double-bracket tokens swapped out of the source.
type links []string

// protectLinks replaces every [[...]] token with a positional placeholder.
func protectLinks(source string) (string, links) {
	var found links
	protected := linkTokenPattern.ReplaceAllStringFunc(source, func(token string) string {
		found = append(found, token)
		return fmt.Sprintf("%s%d%s", placeholderPrefix, len(found)-1, placeholderSuffix)
	})
	return protected, found
}

func (l links) restore(value string) string {
	if len(l) == 0 || !strings.Contains(value, placeholderPrefix) {
		return value
	}
	return placeholderPattern.ReplaceAllStringFunc(value, func(match string) string {
		idx, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(match, placeholderPrefix), placeholderSuffix))
		if err != nil || idx < 0 || idx >= len(l) {
			return match
		}
		return l[idx]
	})
}

// restoreValue walks a decoded value and restores placeholders in every string.
func (l links) restoreValue(value any) any {
	switch typed := value.(type) {
	case string:
		return l.restore(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = l.restoreValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = l.restoreValue(item)
		}
		return out
	default:
		return value
	}
}

// lex builds the ordered multimap of top-level entries. Duplicate keys are kept.
// Lines that are neither entries, continuations nor comments are reported back.
func lex(source string) ([]entry, []int) {
	var (
		entries []entry
		stray   []int
	)
	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	for idx, line := range lines {
		if strings.TrimSpace(line) == "" {
			if len(entries) > 0 {
				entries[len(entries)-1].raw += "\n"
			}
			continue
		}
		if isContinuation(line) {
			if len(entries) == 0 {
				stray = append(stray, idx+1)
				continue
			}
			entries[len(entries)-1].raw += "\n" + line
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		match := keyLinePattern.FindStringSubmatch(strings.TrimRight(line, " \t"))
		if match == nil {
			stray = append(stray, idx+1)
			continue
		}
		entries = append(entries, entry{key: match[1], raw: match[2], line: idx + 1})
	}
	return entries, stray
}

func isContinuation(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") || strings.HasPrefix(line, "- ") || line == "-"
}

// group indexes entries by key while keeping source order per key.
func group(entries []entry) (map[string][]entry, []string) {
	byKey := make(map[string][]entry, len(entries))
	var order []string
	for _, e := range entries {
		if _, seen := byKey[e.key]; !seen {
			order = append(order, e.key)
		}
		byKey[e.key] = append(byKey[e.key], e)
	}
	return byKey, order
}
