package commands

import (
	"strings"

	"github.com/goliatone/go-mapblocks/internal/logging"
	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

const defaultCommandFamily = "edit"

// CommandLogger returns the logger for one family of marker edit commands. It
// reuses the markers namespace so view updates and the edits that caused them
// land in the same stream, told apart by the command_family field.
func CommandLogger(provider interfaces.LoggerProvider, family string) interfaces.Logger {
	family = strings.ToLower(strings.TrimSpace(family))
	if family == "" {
		family = defaultCommandFamily
	}
	return logging.WithFields(logging.MarkersLogger(provider), map[string]any{
		"component":      "command",
		"command_family": family,
	})
}
