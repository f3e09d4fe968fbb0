package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/othala/internal"
	"github.com/starford/othala/internal/export"
	"github.com/starford/othala/internal/index"
	"github.com/starford/othala/internal/mcpserver"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/tui"
	"github.com/starford/othala/internal/vault"
)

func main() {
	cmd := &cli.Command{
		Name:  "othala",
		Usage: "Assemble scattered content sources into a validated, project-tagged vault",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   internal.DefaultConfigFile,
				Sources: cli.EnvVars("OTHALA_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("OTHALA_LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Assemble the vault and report every issue",
				Action: runCheck,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "strict", Usage: "Exit non-zero when error-severity issues exist"},
				},
			},
			{
				Name:   "list",
				Usage:  "List vault objects",
				Action: runList,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Filter by project"},
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Filter by object type"},
					&cli.StringFlag{Name: "visibility", Usage: "Filter by visibility"},
					&cli.StringFlag{Name: "source", Usage: "Filter by source id"},
					&cli.BoolFlag{Name: "subprojects", Usage: "Include projects grouped beneath the filtered project"},
					&cli.BoolFlag{Name: "json", Usage: "Emit JSON instead of a table"},
				},
			},
			{
				Name:   "export",
				Usage:  "Write the vault to disk for downstream consumers",
				Action: runExport,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Export format (json or html)", Value: "json"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output directory", Value: "."},
				},
			},
			{
				Name:      "search",
				Usage:     "Full-text search over object titles and bodies",
				ArgsUsage: "<query>",
				Action:    runSearch,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum number of hits", Value: 20},
				},
			},
			{
				Name:   "lint",
				Usage:  "Run content rules over the vault",
				Action: runLint,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "fix", Usage: "Let rules rewrite files to resolve their findings"},
				},
			},
			{
				Name:   "browse",
				Usage:  "Browse the vault interactively",
				Action: runBrowse,
			},
			{
				Name:   "watch",
				Usage:  "Rebuild the vault whenever its inputs change",
				Action: runWatch,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Re-export format on each rebuild (json or html)"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output directory for re-exports", Value: "."},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve vault query tools over MCP on stdin/stdout",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("othala failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// setup initializes logging from the global flags and loads the
// configuration; a bad config aborts the command.
func setup(cmd *cli.Command) (*internal.Config, *slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := internal.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	state, err := vault.Build(ctx, cfg, vault.WithLogger(logger))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tOBJECTS\tISSUES\tLAST SYNCED")
	for _, sum := range state.Summaries {
		synced := "-"
		if !sum.LastSynced.IsZero() {
			synced = sum.LastSynced.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", sum.SourceID, sum.Objects, sum.Issues, synced)
	}
	w.Flush()

	if len(state.Issues) > 0 {
		fmt.Println()
		for _, iss := range state.Issues {
			fmt.Println(iss.String())
		}
	}

	ov := state.Overview()
	fmt.Printf("\n%d objects, %d issues\n", ov.Objects, ov.Issues)

	if cmd.Bool("strict") {
		if sev, ok := state.MaxSeverity(); ok && sev == models.SeverityError {
			return cli.Exit("vault has error-severity issues", 1)
		}
	}
	return nil
}

func runList(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	state, err := vault.Build(ctx, cfg, vault.WithLogger(logger))
	if err != nil {
		return err
	}

	objects := state.Filter(vault.Query{
		Project:            cmd.String("project"),
		Type:               cmd.String("type"),
		Visibility:         cmd.String("visibility"),
		Source:             cmd.String("source"),
		IncludeSubprojects: cmd.Bool("subprojects"),
	})

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(objects)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROJECT\tTYPE\tVISIBILITY\tSOURCE")
	for _, obj := range objects {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", obj.ID, obj.Project, obj.Type, obj.Visibility, obj.SourceID)
	}
	return w.Flush()
}

func runExport(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	state, err := vault.Build(ctx, cfg, vault.WithLogger(logger))
	if err != nil {
		return err
	}

	path, err := writeExport(state, cmd.String("format"), cmd.String("out"))
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

// writeExport renders the state into out/vault.<format> and returns the
// written path.
func writeExport(state *vault.State, format, out string) (string, error) {
	var name string
	var render func(f *os.File) error
	switch format {
	case "json":
		name = "vault.json"
		render = func(f *os.File) error { return export.WriteJSON(f, state) }
	case "html":
		name = "vault.html"
		render = func(f *os.File) error { return export.WriteHTML(f, state) }
	default:
		return "", fmt.Errorf("unknown export format %q (want json or html)", format)
	}

	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(out, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()
	if err := render(f); err != nil {
		return "", err
	}
	return path, nil
}

func runSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.Args().First()
	if query == "" {
		return fmt.Errorf("usage: othala search <query>")
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	state, err := vault.Build(ctx, cfg, vault.WithLogger(logger))
	if err != nil {
		return err
	}

	db, err := index.Open()
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Rebuild(state.Objects); err != nil {
		return err
	}

	hits, err := db.Search(query, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("no results")
		return nil
	}
	for _, h := range hits {
		title := h.Title
		if title == "" {
			title = h.ID
		}
		fmt.Printf("%s/%s\t%s\t(%s)\n", h.SourceID, h.ID, title, h.Project)
	}
	return nil
}

func runLint(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	opts := []vault.Option{vault.WithLogger(logger)}
	if cmd.Bool("fix") {
		opts = append(opts, vault.WithFix())
	}
	state, err := vault.Build(ctx, cfg, opts...)
	if err != nil {
		return err
	}

	count := 0
	for _, iss := range state.Issues {
		if iss.Stage != models.StageLint {
			continue
		}
		fmt.Println(iss.String())
		count++
	}
	if count == 0 {
		fmt.Println("no lint findings")
	}
	return nil
}

func runBrowse(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	state, err := vault.Build(ctx, cfg, vault.WithLogger(logger))
	if err != nil {
		return err
	}
	return tui.Run(state)
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	format := cmd.String("format")
	out := cmd.String("out")

	onRebuild := func(state *vault.State) {
		ov := state.Overview()
		logger.Info("vault rebuilt",
			slog.Int("objects", ov.Objects),
			slog.Int("issues", ov.Issues))
		if format == "" {
			return
		}
		path, err := writeExport(state, format, out)
		if err != nil {
			logger.Error("re-export failed", slog.String("error", err.Error()))
			return
		}
		logger.Info("re-exported", slog.String("path", path))
	}

	// One build up front so the first export does not wait for a change.
	state, err := vault.Build(ctx, cfg, vault.WithLogger(logger))
	if err != nil {
		return err
	}
	onRebuild(state)

	return vault.Watch(ctx, cfg, logger, onRebuild, vault.WithLogger(logger))
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	state, err := vault.Build(ctx, cfg, vault.WithLogger(logger))
	if err != nil {
		return err
	}

	db, err := index.Open()
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Rebuild(state.Objects); err != nil {
		return err
	}

	reload := func(ctx context.Context) (*vault.State, error) {
		return vault.Build(ctx, cfg, vault.WithLogger(logger))
	}

	logger.Info("mcp server starting", slog.Int("objects", len(state.Objects)))
	return mcpserver.New(state, db, reload).ServeStdio()
}
