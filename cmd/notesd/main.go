package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notesd/internal"
	pkgconfig "github.com/starford/notesd/pkg/config"
)

var version = "dev"

func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found {
		slog.Warn("config file not found, using defaults", slog.String("path", configPath))
	}
	if cmd.IsSet("db") {
		cfg.SQLite.Path = cmd.String("db")
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func action(run func(context.Context, ...internal.Option) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		if err := run(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "notesd",
		Usage:   "Personal note store with text, checklist and table notes, pinning and search",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "Path to the SQLite database, overrides sqlite.path",
				Sources: cli.EnvVars("NOTESD_DB"),
			},
		},
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, SSE events and the inbox importer",
				Action: action(internal.Run),
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: action(internal.RunMCP),
			},
			{
				Name:  "export",
				Usage: "Write every note as a Markdown file into a directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Target directory",
						Value: "export",
					},
					&cli.BoolFlag{
						Name:  "prune",
						Usage: "Remove exported files of deleted notes",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					opts, err := loadOptions(cmd)
					if err != nil {
						return err
					}
					if _, err := internal.Export(ctx, cmd.String("dir"), cmd.Bool("prune"), opts...); err != nil {
						return fmt.Errorf("export error: %w", err)
					}
					return nil
				},
			},
			{
				Name:   "reindex",
				Usage:  "Recompute the search index of every note",
				Action: action(internal.Reindex),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
