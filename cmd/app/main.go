package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	_ "go.uber.org/automaxprocs"

	"github.com/starford/scribe/internal"
	"github.com/starford/scribe/internal/docservice"
	pkgconfig "github.com/starford/scribe/pkg/config"
)

var version = "dev"

// loadConfig reads the config file when present and applies command-line
// overrides on top.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cmd.IsSet("source") {
		cfg.Source.Kind = cmd.String("source")
	}
	if cmd.IsSet("input") {
		in := cmd.String("input")
		if strings.HasPrefix(in, "http://") || strings.HasPrefix(in, "https://") {
			cfg.Source.URL = in
		} else {
			cfg.Source.Path = in
			cfg.Source.URL = ""
		}
	}
	if cmd.IsSet("output") {
		cfg.Output.Path = cmd.String("output")
	}
	if cmd.IsSet("target") {
		cfg.Transcode.Target = cmd.String("target")
	}
	if cmd.IsSet("engine") {
		cfg.Transcode.Engine = cmd.String("engine")
	}
	if cmd.IsSet("upload") {
		cfg.Upload.Kind = cmd.String("upload")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func options(cmd *cli.Command, cfg *internal.Config) []internal.Option {
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
		internal.WithForce(cmd.Bool("force")),
		internal.WithWatch(cmd.Bool("watch")),
	}
}

func runWith(fn func(context.Context, ...internal.Option) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := fn(ctx, options(cmd, cfg)...); err != nil {
			return fmt.Errorf("%s: %w", cmd.Name, err)
		}
		return nil
	}
}

func slugAction(_ context.Context, cmd *cli.Command) error {
	title := strings.Join(cmd.Args().Slice(), " ")
	s, err := docservice.New().Slugify(title)
	if err != nil {
		return err
	}
	fmt.Println(s)
	return nil
}

func conversionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "source",
			Usage: "Source kind: files, ghost-export, ghost-api or feed",
		},
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   "Input directory, export file, feed file or feed URL",
		},
		&cli.StringFlag{
			Name:    "engine",
			Aliases: []string{"e"},
			Usage:   "Markup engine: rules, commonmark or passthrough",
		},
		&cli.StringFlag{
			Name:  "upload",
			Usage: "Image upload kind: none, local or ghost",
		},
		&cli.BoolFlag{
			Name:  "force",
			Usage: "Convert documents the ledger reports as unchanged",
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "scribe",
		Usage:   "Convert posts between Ghost, HTML and Markdown static-site formats",
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
		},
		Commands: []*cli.Command{
			{
				Name:  "convert",
				Usage: "Convert source documents into files in the output directory",
				Flags: append(conversionFlags(),
					&cli.StringFlag{
						Name:    "target",
						Aliases: []string{"t"},
						Usage:   "Target format: zola, markdown or html",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
					&cli.BoolFlag{
						Name:    "watch",
						Aliases: []string{"w"},
						Usage:   "Keep running and reconvert files as they change",
					},
				),
				Action: runWith(internal.Convert),
			},
			{
				Name:   "publish",
				Usage:  "Create Ghost posts from source documents",
				Flags:  conversionFlags(),
				Action: runWith(internal.Publish),
			},
			{
				Name:   "serve",
				Usage:  "Serve the conversion HTTP API",
				Action: runWith(internal.Serve),
			},
			{
				Name:   "mcp",
				Usage:  "Serve conversion tools over MCP on stdin/stdout",
				Action: runWith(internal.ServeMCP),
			},
			{
				Name:      "slug",
				Usage:     "Print the slug derived from a title",
				ArgsUsage: "<title>",
				Action:    slugAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
