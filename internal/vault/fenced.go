package vault

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// FencedBlock is one fenced code block found in a note.
type FencedBlock struct {
	Language string
	Source   string
	// Line is the 1-based line of the first content line.
	Line int
}

// FencedBlocks returns the fenced code blocks of body written in language.
// An empty language returns every fenced block.
func FencedBlocks(body []byte, language string) []FencedBlock {
	doc := newEngine().Parser().Parse(text.NewReader(body))
	want := strings.ToLower(strings.TrimSpace(language))

	var blocks []FencedBlock
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fenced, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		lang := strings.ToLower(string(fenced.Language(body)))
		if want != "" && lang != want {
			return ast.WalkSkipChildren, nil
		}
		block := FencedBlock{Language: lang, Source: string(blockText(fenced, body))}
		if fenced.Lines().Len() > 0 {
			block.Line = bytes.Count(body[:fenced.Lines().At(0).Start], []byte("\n")) + 1
		}
		blocks = append(blocks, block)
		return ast.WalkSkipChildren, nil
	})
	return blocks
}
