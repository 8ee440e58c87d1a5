package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"brandkit/internal/domain"
	"brandkit/internal/icons"
	"brandkit/internal/logo"
	"brandkit/internal/mcpserver"
	"brandkit/internal/tasks"
	"brandkit/internal/verify"

	"go.uber.org/zap"
)

// errChecksFailed is returned by verify after the report has been
// printed, so nothing more is written to stderr.
var errChecksFailed = errors.New("verification failed")

func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("brandkit "+name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

// parse reports flag problems as usage errors. The flag package has
// already printed the details.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usageError{}
	}
	return nil
}

func noArgs(a *App, name string, args []string) error {
	fs := a.flagSet(name)
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usageErr("%s takes no arguments", name)
	}
	return nil
}

func (a *App) printResults(results []domain.FileResult) {
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(a.out, "✗ Failed %s: %v\n", res.Target.Path, res.Err)
			continue
		}
		if res.Target.Width > 0 {
			fmt.Fprintf(a.out, "✓ Created %s (%dx%d)\n", res.Target.Path, res.Target.Width, res.Target.Height)
		} else {
			fmt.Fprintf(a.out, "✓ Created %s\n", res.Target.Path)
		}
	}
}

func runFixLogos(ctx context.Context, a *App, args []string) error {
	if err := noArgs(a, "fix-logos", args); err != nil {
		return err
	}
	rep, err := a.FixLogos(ctx)
	if len(rep.Results) == 0 {
		return err
	}
	fmt.Fprintf(a.out, "Source: %s\n\n", rep.Source)
	a.printResults(rep.Results)

	fmt.Fprintln(a.out, "\nVerifying generated icons...")
	for _, v := range rep.Verified {
		switch {
		case v.Err != nil:
			fmt.Fprintf(a.out, "✗ %s: %v\n", v.Target.Path, v.Err)
		case !v.OK():
			fmt.Fprintf(a.out, "✗ %s: %dx%d, expected %dx%d\n", v.Target.Path, v.Width, v.Height, v.Target.Width, v.Target.Height)
		default:
			fmt.Fprintf(a.out, "✓ %s: %dx%d\n", v.Target.Path, v.Width, v.Height)
		}
	}
	if failed := rep.Failed(); failed > 0 {
		fmt.Fprintf(a.out, "\n%d of %d icons need attention.\n", failed, len(rep.Results))
	} else {
		fmt.Fprintf(a.out, "\nAll %d icons regenerated.\n", len(rep.Results))
	}
	return err
}

func runOptimize(ctx context.Context, a *App, args []string) error {
	if err := noArgs(a, "optimize", args); err != nil {
		return err
	}
	out, err := a.Optimize(ctx)
	for _, o := range out {
		if o.Err != nil {
			fmt.Fprintf(a.out, "✗ Failed %s: %v\n", o.Target.Path, o.Err)
			continue
		}
		fmt.Fprintf(a.out, "✓ %s: %s -> %s (%.1f%% smaller)\n",
			o.Target.Path, humanBytes(o.InputBytes), humanBytes(o.Bytes), o.Reduction())
	}
	return err
}

func runFavicon(ctx context.Context, a *App, args []string) error {
	if err := noArgs(a, "favicon", args); err != nil {
		return err
	}
	res, err := a.Favicon(ctx)
	if err == nil {
		fmt.Fprintf(a.out, "✓ Created %s (%s)\n", icons.FaviconICO, humanBytes(res.Bytes))
	}
	return err
}

func runLogo(ctx context.Context, a *App, args []string) error {
	fs := a.flagSet("logo")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageErr("logo needs exactly one variant")
	}
	v, err := logo.ParseVariant(fs.Arg(0))
	if err != nil {
		return usageErr("%v", err)
	}
	res, err := a.Logo(ctx, v)
	if err != nil {
		return err
	}
	if res.Backup != "" {
		fmt.Fprintf(a.out, "✓ Previous logo kept at %s\n", res.Backup)
	}
	fmt.Fprintf(a.out, "✓ Created %s logo at %s (%dx%d)\n", v, res.Path, logo.Size, logo.Size)
	fmt.Fprintln(a.out, "Run 'brandkit fix-logos' to regenerate the icons from it.")
	return nil
}

func runGraphics(ctx context.Context, a *App, args []string) error {
	if err := noArgs(a, "graphics", args); err != nil {
		return err
	}
	results, err := a.Graphics(ctx)
	a.printResults(results)
	return err
}

func runStoreGraphic(ctx context.Context, a *App, args []string) error {
	if err := noArgs(a, "store-graphic", args); err != nil {
		return err
	}
	res, err := a.StoreGraphic(ctx)
	a.printResults([]domain.FileResult{res})
	return err
}

func runPlayStore(ctx context.Context, a *App, args []string) error {
	if err := noArgs(a, "playstore", args); err != nil {
		return err
	}
	results, err := a.PlayStore(ctx)
	a.printResults(results)
	return err
}

func runVerify(ctx context.Context, a *App, args []string) error {
	fs := a.flagSet("verify")
	online := fs.Bool("online", false, "also fetch the privacy policy and terms URLs")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usageErr("verify takes no arguments")
	}

	rep := a.Verify(ctx, *online)
	if *asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Passed   bool             `json:"passed"`
			Sections []domain.Section `json:"sections"`
		}{rep.Passed(), rep.Sections}); err != nil {
			return err
		}
	} else {
		verify.NewPrinter(a.out, a.cfg.AppName, a.cfg.PrivacyURL, a.noColor).Print(rep)
	}
	if rep.ExitCode() != 0 {
		return errChecksFailed
	}
	return nil
}

func runRemoveBG(ctx context.Context, a *App, args []string) error {
	fs := a.flagSet("remove-bg")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 3 {
		fmt.Fprintln(a.errOut, "usage: brandkit remove-bg <input-image> [output-image] [threshold]")
		return fmt.Errorf("remove-bg takes 1 to 3 arguments, got %d", fs.NArg())
	}
	input, output := fs.Arg(0), fs.Arg(1)
	var threshold *int
	if fs.NArg() == 3 {
		n, err := strconv.Atoi(fs.Arg(2))
		if err != nil {
			return fmt.Errorf("invalid threshold %q: %w", fs.Arg(2), err)
		}
		threshold = &n
	}

	res, err := a.RemoveBackground(ctx, input, output, threshold)
	if res.Width > 0 {
		fmt.Fprintf(a.out, "Loaded %s: %dx%d, mode %s\n", res.Input, res.Width, res.Height, res.Mode)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Made %d pixels transparent (threshold %d)\n", res.Removed, res.Threshold)
	fmt.Fprintf(a.out, "✓ Saved %s\n", res.Output)
	return nil
}

func runAll(ctx context.Context, a *App, args []string) error {
	if err := noArgs(a, "all", args); err != nil {
		return err
	}
	q := tasks.NewQueue(a.logger)
	q.Enqueue("fix-logos", func(ctx context.Context) error { return runFixLogos(ctx, a, nil) })
	q.Enqueue("favicon", func(ctx context.Context) error { return runFavicon(ctx, a, nil) })
	q.Enqueue("graphics", func(ctx context.Context) error { return runGraphics(ctx, a, nil) })
	q.Enqueue("playstore", func(ctx context.Context) error { return runPlayStore(ctx, a, nil) })

	results, err := q.Run(ctx)
	fmt.Fprintln(a.out)
	for _, res := range results {
		switch {
		case res.Skipped:
			fmt.Fprintf(a.out, "- %s skipped\n", res.Name)
		case res.Err != nil:
			fmt.Fprintf(a.out, "✗ %s failed after %s\n", res.Name, res.Duration.Round(time.Millisecond))
		default:
			fmt.Fprintf(a.out, "✓ %s done in %s\n", res.Name, res.Duration.Round(time.Millisecond))
		}
	}
	return err
}

func runInit(_ context.Context, a *App, args []string) error {
	fs := a.flagSet("init")
	force := fs.Bool("force", false, "replace an existing brandkit.json")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usageErr("init takes no arguments")
	}
	path, err := a.Init(*force)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Wrote %s\n", path)
	return nil
}

func runLedger(ctx context.Context, a *App, args []string) error {
	fs := a.flagSet("ledger")
	runs := fs.Int("runs", 0, "list the n most recent runs instead of assets")
	runID := fs.Int64("run", 0, "list the assets written by one run")
	prune := fs.Int("prune", -1, "keep only the n most recent runs")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usageErr("ledger takes no arguments")
	}
	if a.store == nil {
		return errLedgerDisabled
	}

	if *prune >= 0 {
		removed, err := a.store.Prune(ctx, *prune)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Removed %d runs\n", removed)
		return nil
	}

	if *runs > 0 {
		list, err := a.store.ListRuns(ctx, *runs)
		if err != nil {
			return err
		}
		for _, r := range list {
			started := time.Unix(r.StartedAt, 0).Format(time.DateTime)
			line := fmt.Sprintf("#%d  %s  %-14s %-7s %d assets", r.RunID, started, r.Command, r.Status, r.Assets)
			if r.Error != "" {
				line += "  " + r.Error
			}
			fmt.Fprintln(a.out, line)
		}
		return nil
	}

	if *runID > 0 {
		assets, err := a.RunAssets(ctx, *runID)
		if err != nil {
			return err
		}
		if len(assets) == 0 {
			fmt.Fprintf(a.out, "Run #%d recorded no assets.\n", *runID)
			return nil
		}
		for _, rec := range assets {
			fmt.Fprintf(a.out, "%-60s %4dx%-4d %s\n", rec.Path, rec.Width, rec.Height, humanBytes(rec.Bytes))
		}
		return nil
	}

	entries, err := a.LedgerStatus(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No assets recorded yet.")
		return nil
	}
	if changed, err := a.PaletteChanged(ctx); err != nil {
		a.logger.Debug("ledger palette", zap.Error(err))
	} else if changed {
		fmt.Fprintln(a.out, "! The palette changed since these assets were generated.")
	}
	drifted := 0
	for _, e := range entries {
		mark := "✓"
		if e.Drift != driftOK {
			mark = "✗"
			drifted++
		}
		fmt.Fprintf(a.out, "%s %-60s %-8s %s  run #%d %s\n", mark, e.Path, e.Drift, humanBytes(e.Bytes), e.RunID, e.Command)
	}
	if drifted > 0 {
		fmt.Fprintf(a.out, "\n%d of %d assets changed since they were generated.\n", drifted, len(entries))
	}
	return nil
}

func runMCP(ctx context.Context, a *App, args []string) error {
	fs := a.flagSet("mcp")
	useHTTP := fs.Bool("http", false, "serve streamable HTTP on 127.0.0.1 instead of stdio")
	port := fs.Int("port", 0, "HTTP port; 0 picks a free one")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usageErr("mcp takes no arguments")
	}

	srv := mcpserver.New(&mcpService{app: a}, a.cfg.Root, version)
	if !*useHTTP {
		a.logger.Debug("serving mcp on stdio", zap.String("root", a.cfg.Root))
		return srv.Serve(ctx)
	}

	if err := srv.Start(*port); err != nil {
		return fmt.Errorf("start mcp server: %w", err)
	}
	a.logger.Info("mcp server listening", zap.String("endpoint", srv.Endpoint()))
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(stopCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func humanBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
