package markers

import (
	"strings"

	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

// TargetKind tells how a marker's link text is interpreted.
type TargetKind int

const (
	// TargetLink is a note path, heading or block reference
	TargetLink TargetKind = iota
	// TargetCommand is a command palette identifier
	TargetCommand
)

// CommandNotFoundLabel is shown for command targets missing from the palette.
const CommandNotFoundLabel = "No command found!"

// Target is what clicking a marker opens. The text survives switching kinds.
type Target struct {
	Kind TargetKind
	Text string
}

// NewTarget wraps text as a link or command target.
func NewTarget(text string, command bool) Target {
	if command {
		return Target{Kind: TargetCommand, Text: text}
	}
	return Target{Kind: TargetLink, Text: text}
}

// IsCommand reports whether the target is a command.
func (t Target) IsCommand() bool {
	return t.Kind == TargetCommand
}

// WithCommand re-wraps the text under the other kind. Repeating the call with
// the same flag returns the same target.
func (t Target) WithCommand(command bool) Target {
	return NewTarget(t.Text, command)
}

// DisplayLabel is the human readable form of a target.
type DisplayLabel struct {
	Text string
	// Found is false for command targets missing from the palette.
	Found bool
}

// ResolveDisplay computes the label of target. Command labels are looked up in
// palette by case-insensitive id; a nil palette finds nothing.
func ResolveDisplay(target Target, palette interfaces.CommandPalette) DisplayLabel {
	if target.Kind == TargetCommand {
		if palette != nil {
			for _, cmd := range palette.Commands() {
				if strings.EqualFold(cmd.ID, target.Text) {
					return DisplayLabel{Text: cmd.Name, Found: true}
				}
			}
		}
		return DisplayLabel{Text: CommandNotFoundLabel}
	}
	return DisplayLabel{Text: linkLabel(target.Text), Found: true}
}

// linkLabel keeps the alias after the last pipe. Without an alias the heading
// and block reference markers are dropped: "Note#^block" reads "Note > block".
func linkLabel(link string) string {
	text := strings.TrimSpace(link)
	if idx := strings.LastIndex(text, "|"); idx >= 0 {
		return strings.TrimSpace(text[idx+1:])
	}
	parts := strings.Split(text, "#")
	labels := make([]string, 0, len(parts))
	for _, part := range parts {
		if cleaned := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "^")); cleaned != "" {
			labels = append(labels, cleaned)
		}
	}
	return strings.Join(labels, " > ")
}
