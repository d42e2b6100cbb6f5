package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/sanity-io/litter"

	"github.com/goliatone/go-mapblocks"
	"github.com/goliatone/go-mapblocks/internal/vault"
)

const blockLanguage = "leaflet"

var moduleBuilder = func(cfg mapblocks.Config) (*mapblocks.Module, error) {
	return mapblocks.New(cfg)
}

// blockReport is the JSON emitted for every map block of the note.
type blockReport struct {
	Line int `json:"line"`
	mapblocks.RenderOutput
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatalf("mapblock: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("mapblock", flag.ContinueOnError)
	fs.SetOutput(stderr)
	vaultDir := fs.String("vault", ".", "Path to the vault root")
	file := fs.String("file", "", "Note to render, relative to the vault root")
	configDir := fs.String("config", "", "Directory holding mapblocks.json")
	dbPath := fs.String("db", "", "SQLite file used to persist user markers")
	dump := fs.Bool("dump", false, "Dump resolved items to stderr")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	cfg := mapblocks.DefaultConfig()
	if *configDir != "" {
		loaded, err := mapblocks.LoadConfig(*configDir)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	cfg.Vault.Dir = *vaultDir
	if *dbPath != "" {
		cfg.Storage.Provider = "bun"
		cfg.Storage.Dialect = "sqlite"
		cfg.Storage.DSN = fmt.Sprintf("file:%s?cache=shared", *dbPath)
	}

	module, err := moduleBuilder(cfg)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Close()
	if err := module.Open(ctx); err != nil {
		return fmt.Errorf("open module: %w", err)
	}

	source, err := os.ReadFile(filepath.Join(*vaultDir, filepath.FromSlash(*file)))
	if err != nil {
		return fmt.Errorf("read note: %w", err)
	}

	blocks := vault.FencedBlocks(source, blockLanguage)
	reports := make([]blockReport, 0, len(blocks))
	for _, block := range blocks {
		out := module.Render(ctx, block.Source, filepath.ToSlash(*file))
		if *dump {
			fmt.Fprintf(stderr, "block at line %d\n%s\n", block.Line, litter.Sdump(out.Result))
		}
		reports = append(reports, blockReport{Line: block.Line, RenderOutput: out})
	}

	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(reports)
}
