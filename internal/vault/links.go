package vault

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var (
	wikiLinkPattern  = regexp.MustCompile(`!?\[\[([^\[\]\n]+)\]\]`)
	inlineTagPattern = regexp.MustCompile(`(?:^|\s)#([\p{L}\p{N}_/-]+)`)
)

// newEngine returns the goldmark instance used to walk note bodies.
func newEngine() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.GFM))
}

// LinkTarget strips aliases, headings and block references from a wiki link
// body, leaving the linked note name. "Folder/Note#Heading|Alias" yields
// "Folder/Note".
func LinkTarget(link string) string {
	target := strings.TrimSpace(link)
	target = strings.TrimPrefix(target, "!")
	target = strings.TrimPrefix(target, "[[")
	target = strings.TrimSuffix(target, "]]")
	if idx := strings.Index(target, "|"); idx >= 0 {
		target = target[:idx]
	}
	if idx := strings.Index(target, "#"); idx >= 0 {
		target = target[:idx]
	}
	return strings.TrimSpace(target)
}

// UnwrapLink returns the inner text of a [[...]] token, or the input unchanged.
func UnwrapLink(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "[[") && strings.HasSuffix(trimmed, "]]") {
		return strings.TrimSpace(trimmed[2 : len(trimmed)-2])
	}
	return trimmed
}

// ExtractLinks lists the note names a Markdown body links to. Wiki links and
// relative Markdown links are both reported; code blocks and spans are ignored.
func ExtractLinks(body []byte) []string {
	doc := newEngine().Parser().Parse(text.NewReader(body))

	var found []string
	seen := map[string]struct{}{}
	add := func(target string) {
		if target == "" {
			return
		}
		if _, ok := seen[target]; ok {
			return
		}
		seen[target] = struct{}{}
		found = append(found, target)
	}

	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.CodeSpan, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Link:
			if dest := markdownLinkTarget(string(n.Destination)); dest != "" {
				add(dest)
			}
		case *ast.Paragraph, *ast.Heading, *ast.TextBlock:
			for _, match := range wikiLinkPattern.FindAllSubmatch(blockText(n, body), -1) {
				add(LinkTarget(string(match[1])))
			}
		}
		return ast.WalkContinue, nil
	})
	return found
}

// ExtractInlineTags lists #tags written in the body outside of code.
func ExtractInlineTags(body []byte) []string {
	doc := newEngine().Parser().Parse(text.NewReader(body))

	var found []string
	seen := map[string]struct{}{}
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.TextBlock:
			for _, match := range inlineTagPattern.FindAllSubmatch(blockText(node, body), -1) {
				tag := string(match[1])
				if _, ok := seen[tag]; ok {
					continue
				}
				seen[tag] = struct{}{}
				found = append(found, tag)
			}
		}
		return ast.WalkContinue, nil
	})
	return found
}

func blockText(node ast.Node, source []byte) []byte {
	lines := node.Lines()
	var buf []byte
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		value := segment.Value(source)
		buf = append(buf, value...)
		if len(value) == 0 || value[len(value)-1] != '\n' {
			buf = append(buf, '\n')
		}
	}
	return buf
}

func markdownLinkTarget(destination string) string {
	dest := strings.TrimSpace(destination)
	if dest == "" || strings.Contains(dest, "://") || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "mailto:") {
		return ""
	}
	if unescaped, err := url.PathUnescape(dest); err == nil {
		dest = unescaped
	}
	if idx := strings.Index(dest, "#"); idx >= 0 {
		dest = dest[:idx]
	}
	if ext := path.Ext(dest); ext != "" && ext != ".md" {
		return ""
	}
	return strings.TrimSuffix(dest, ".md")
}
