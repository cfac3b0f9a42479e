package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/dayfinder/internal"
	"github.com/starford/dayfinder/internal/mcpserver"
	pkgconfig "github.com/starford/dayfinder/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if v := cmd.String("vault"); v != "" {
		cfg.Vault.Path = v
	}
	return cfg, nil
}

// open builds the shared components. Commands other than serve log to
// stderr so stdout carries only their output.
func open(cmd *cli.Command) (*internal.Components, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := internal.NewLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)
	return internal.Build(cfg, logger)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fileArg(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", fmt.Errorf("expected exactly one file argument")
	}
	return cmd.Args().First(), nil
}

func resolve(ctx context.Context, cmd *cli.Command) error {
	path, err := fileArg(cmd)
	if err != nil {
		return err
	}
	c, err := open(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	res, err := c.Service.ResolveAt(ctx, path, int(cmd.Int("line")))
	if err != nil {
		return fmt.Errorf("resolve %s:%d: %w", path, cmd.Int("line"), err)
	}
	return printJSON(res)
}

func info(ctx context.Context, cmd *cli.Command) error {
	path, err := fileArg(cmd)
	if err != nil {
		return err
	}
	c, err := open(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	fi, err := c.Service.FileInfo(ctx, path)
	if err != nil {
		return fmt.Errorf("info %s: %w", path, err)
	}
	return printJSON(fi)
}

func scan(ctx context.Context, cmd *cli.Command) error {
	c, err := open(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	stats, err := c.Service.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	summary, err := c.Service.SourceSummary(ctx)
	if err != nil {
		return fmt.Errorf("summary: %w", err)
	}

	fmt.Printf("indexed %d, unchanged %d, removed %d, failed %d\n",
		stats.Indexed, stats.Unchanged, stats.Removed, stats.Failed)
	sources := make([]string, 0, len(summary))
	for s := range summary {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	for _, s := range sources {
		fmt.Printf("%-16s %d\n", s, summary[s])
	}
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	c, err := open(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	if _, err := c.Service.Scan(ctx); err != nil {
		slog.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return mcpserver.New(c.Service, version).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:    "dayfinder",
		Usage:   "Resolve the calendar date of time-only tasks in a Markdown vault",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("DAYFINDER_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Vault directory, overriding vault.path",
				Sources: cli.EnvVars("DAYFINDER_VAULT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "resolve",
				Usage:     "Resolve the time-only task on a line of a note",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "line",
						Aliases:  []string{"n"},
						Usage:    "Zero-based line of the task",
						Required: true,
					},
				},
				Action: resolve,
			},
			{
				Name:      "info",
				Usage:     "Print the date facts known about a note",
				ArgsUsage: "<file>",
				Action:    info,
			},
			{
				Name:   "scan",
				Usage:  "Resolve every time-only task in the vault into the index",
				Action: scan,
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and vault watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
