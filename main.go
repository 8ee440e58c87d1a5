package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"brandkit/internal/config"
	"brandkit/internal/logging"

	"github.com/agnivade/levenshtein"
)

const version = "1.0.0"

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

// usageError marks errors caused by bad arguments rather than bad inputs.
// An empty message means the flag package already reported the problem.
type usageError struct {
	msg string
}

func (e usageError) Error() string { return e.msg }

type command struct {
	name    string
	args    string
	summary string
	run     func(ctx context.Context, a *App, args []string) error
}

var commands = []command{
	{"fix-logos", "", "fit the source logo into every web, PWA and launcher icon", runFixLogos},
	{"optimize", "", "resize every icon from the source logo with maximum compression", runOptimize},
	{"favicon", "", "write public/favicon.ico with 48, 32 and 16 pixel frames", runFavicon},
	{"logo", "<variant>", "draw a new source logo (professional, chart, gist-exact, gist, gist-brand)", runLogo},
	{"graphics", "", "render the feature graphic and the social preview image", runGraphics},
	{"store-graphic", "", "render the gradient feature graphic from the PWA icon", runStoreGraphic},
	{"playstore", "", "assemble the Play Store asset kit", runPlayStore},
	{"verify", "[-online] [-json]", "check the Android project before uploading an AAB", runVerify},
	{"remove-bg", "<input> [output] [threshold]", "make near-white pixels transparent", runRemoveBG},
	{"all", "", "run fix-logos, favicon, graphics and playstore in order", runAll},
	{"ledger", "[-runs n] [-run id] [-prune n]", "show recorded assets and whether they changed on disk", runLedger},
	{"init", "[-force]", "write brandkit.json with the current settings", runInit},
	{"mcp", "[-http] [-port n]", "serve the tools over MCP", runMCP},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("brandkit", flag.ContinueOnError)
	global.SetOutput(stderr)
	root := global.String("root", "", "project root (default: $"+config.RootEnv+", brandkit.json, or the working directory)")
	verbose := global.Bool("v", false, "debug logging")
	noColor := global.Bool("no-color", false, "disable coloured output")
	global.Usage = func() { usage(stderr, global) }
	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	rest := global.Args()
	if len(rest) == 0 || rest[0] == "help" {
		usage(stderr, global)
		if len(rest) == 0 {
			return exitUsage
		}
		return exitOK
	}
	if rest[0] == "version" {
		fmt.Fprintln(stdout, "brandkit", version)
		return exitOK
	}

	cmd, ok := lookup(rest[0])
	if !ok {
		fmt.Fprintf(stderr, "brandkit: unknown command %q\n", rest[0])
		if s := suggest(rest[0]); s != "" {
			fmt.Fprintf(stderr, "Did you mean %q?\n", s)
		}
		fmt.Fprintln(stderr, "Run 'brandkit help' for usage.")
		return exitUsage
	}

	logger := logging.New(stderr, *verbose)
	defer func() { _ = logger.Sync() }()

	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(stderr, "brandkit:", err)
		return exitFail
	}
	cfg, err := config.Load(wd)
	if err != nil {
		fmt.Fprintln(stderr, "brandkit:", err)
		return exitFail
	}
	if strings.TrimSpace(*root) != "" {
		abs, err := filepath.Abs(*root)
		if err != nil {
			fmt.Fprintln(stderr, "brandkit:", err)
			return exitUsage
		}
		cfg.Root = abs
	}

	app := NewApp(cfg, stdout, logger, *noColor)
	app.errOut = stderr
	app.startup(ctx)
	defer app.shutdown()

	err = cmd.run(ctx, app, rest[1:])
	var ue usageError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.As(err, &ue):
		if ue.msg != "" {
			fmt.Fprintln(stderr, "brandkit:", ue.msg)
		}
		fmt.Fprintf(stderr, "usage: brandkit %s %s\n", cmd.name, cmd.args)
		return exitUsage
	case errors.Is(err, errChecksFailed):
		return exitFail
	default:
		fmt.Fprintln(stderr, "brandkit:", err)
		return exitFail
	}
}

func usage(w io.Writer, global *flag.FlagSet) {
	fmt.Fprintln(w, "usage: brandkit [-root dir] [-v] [-no-color] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		name := c.name
		if c.args != "" {
			name += " " + c.args
		}
		fmt.Fprintf(w, "  %-40s %s\n", name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	global.PrintDefaults()
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// suggest returns the closest command name, or "" when nothing is close.
func suggest(name string) string {
	best, bestDist := "", 4
	for _, c := range commands {
		if d := levenshtein.ComputeDistance(name, c.name); d < bestDist {
			best, bestDist = c.name, d
		}
	}
	return best
}

func usageErr(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}
