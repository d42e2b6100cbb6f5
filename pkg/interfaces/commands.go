package interfaces

// PaletteCommand describes one entry of the host command palette.
type PaletteCommand struct {
	ID   string
	Name string
}

// CommandPalette lists the commands registered by the host editor. Command
// markers resolve their link against it.
type CommandPalette interface {
	Commands() []PaletteCommand
}

// StaticPalette is a fixed CommandPalette, handy for hosts without a live
// registry and for tests.
type StaticPalette []PaletteCommand

// Commands satisfies CommandPalette.
func (p StaticPalette) Commands() []PaletteCommand {
	return append([]PaletteCommand(nil), p...)
}
