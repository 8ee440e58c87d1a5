package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"brandkit/internal/config"
	"brandkit/internal/icons"
	"brandkit/internal/raster"

	"go.uber.org/zap"
)

func writeSource(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 112, G: 255, B: 193, A: 255})
		}
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	if err := raster.Save(path, img); err != nil {
		t.Fatalf("write source: %v", err)
	}
}

func newTestApp(t *testing.T, ledger bool) (*App, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Root = t.TempDir()
	cfg.Ledger = ledger
	var out bytes.Buffer
	app := NewApp(cfg, &out, zap.NewNop(), true)
	app.startup(context.Background())
	t.Cleanup(app.shutdown)
	return app, &out
}

func TestRunUnknownCommandSuggests(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"fix-logo"}, &stdout, &stderr)
	if code != exitUsage {
		t.Fatalf("expected exit %d, got %d", exitUsage, code)
	}
	if !strings.Contains(stderr.String(), `Did you mean "fix-logos"?`) {
		t.Fatalf("expected suggestion, got %q", stderr.String())
	}
}

func TestRunWithoutCommandPrintsUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), nil, &stdout, &stderr); code != exitUsage {
		t.Fatalf("expected exit %d, got %d", exitUsage, code)
	}
	if !strings.Contains(stderr.String(), "remove-bg") {
		t.Fatalf("expected command list in usage, got %q", stderr.String())
	}
}

func TestSuggestIgnoresDistantNames(t *testing.T) {
	if got := suggest("verfy"); got != "verify" {
		t.Fatalf("expected verify, got %q", got)
	}
	if got := suggest("completely-unrelated"); got != "" {
		t.Fatalf("expected no suggestion, got %q", got)
	}
}

func TestLogoRejectsUnknownVariant(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-root", t.TempDir(), "logo", "neon"}, &stdout, &stderr)
	if code != exitUsage {
		t.Fatalf("expected exit %d, got %d", exitUsage, code)
	}
}

func TestRemoveBGCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "logo.png")
	writeSource(t, input, 4, 4)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-root", dir, "remove-bg", input}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Made 1 pixels transparent (threshold 240)") {
		t.Fatalf("unexpected output %q", stdout.String())
	}
	out, err := raster.Open(filepath.Join(dir, "logo-transparent.png"))
	if err != nil {
		t.Fatalf("expected output image: %v", err)
	}
	if n := raster.CountTransparent(raster.ToNRGBA(out)); n != 1 {
		t.Fatalf("expected 1 transparent pixel, got %d", n)
	}
}

func TestRemoveBGCommandErrorsExitOne(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "logo.png")
	writeSource(t, input, 2, 2)

	cases := [][]string{
		{"remove-bg"},
		{"remove-bg", filepath.Join(dir, "missing.png")},
		{"remove-bg", input, filepath.Join(dir, "out.png"), "abc"},
		{"remove-bg", input, filepath.Join(dir, "out.png"), "300"},
	}
	for _, args := range cases {
		var stdout, stderr bytes.Buffer
		code := run(context.Background(), append([]string{"-root", dir}, args...), &stdout, &stderr)
		if code != exitFail {
			t.Fatalf("%v: expected exit %d, got %d", args, exitFail, code)
		}
	}
}

func TestRemoveBGRejectsExtraArguments(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	args := []string{"-root", dir, "remove-bg", "a.png", "b.png", "200", "extra"}
	if code := run(context.Background(), args, &stdout, &stderr); code != exitFail {
		t.Fatalf("expected exit %d, got %d", exitFail, code)
	}
	if !strings.Contains(stderr.String(), "remove-bg takes 1 to 3 arguments, got 4") {
		t.Fatalf("expected argument count in error, got %q", stderr.String())
	}
	if strings.Contains(stderr.String(), "missing input image") {
		t.Fatalf("input was given, got %q", stderr.String())
	}
}

func TestRemoveBackgroundRejectsNegativeThreshold(t *testing.T) {
	app, _ := newTestApp(t, false)
	input := filepath.Join(app.cfg.Root, "logo.png")
	writeSource(t, input, 2, 2)

	svc := &mcpService{app: app}
	negative := -7
	if _, err := svc.RemoveBackground(context.Background(), input, "", &negative); !errors.Is(err, raster.ErrInvalidThreshold) {
		t.Fatalf("expected ErrInvalidThreshold, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(app.cfg.Root, "logo-transparent.png")); !os.IsNotExist(err) {
		t.Fatalf("expected no output, stat err=%v", err)
	}

	res, err := svc.RemoveBackground(context.Background(), input, "", nil)
	if err != nil {
		t.Fatalf("default threshold: %v", err)
	}
	if res.Threshold != raster.DefaultWhiteThreshold {
		t.Fatalf("expected default threshold, got %d", res.Threshold)
	}

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-root", app.cfg.Root, "remove-bg", input, "", "-7"}, &stdout, &stderr)
	if code != exitFail {
		t.Fatalf("expected exit %d, got %d", exitFail, code)
	}
}

func TestVerifyCommandFailsOnEmptyProject(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-root", dir, "-no-color", "verify"}, &stdout, &stderr)
	if code != exitFail {
		t.Fatalf("expected exit %d, got %d", exitFail, code)
	}
	if !strings.Contains(stdout.String(), "AAB Verification Tool") {
		t.Fatalf("expected banner, got %q", stdout.String())
	}
}

func TestVerifyCommandJSON(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-root", dir, "verify", "-json"}, &stdout, &stderr)
	if code != exitFail {
		t.Fatalf("expected exit %d, got %d", exitFail, code)
	}
	var payload struct {
		Passed   bool `json:"passed"`
		Sections []struct {
			Title string `json:"title"`
		} `json:"sections"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &payload); err != nil {
		t.Fatalf("decode json: %v\n%s", err, stdout.String())
	}
	if payload.Passed || len(payload.Sections) == 0 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestFixLogosRecordsLedgerAndDetectsDrift(t *testing.T) {
	app, out := newTestApp(t, true)
	if app.store == nil {
		t.Fatal("expected ledger to open")
	}
	writeSource(t, app.cfg.Path(config.SourceLogo), 300, 200)

	if err := runFixLogos(context.Background(), app, nil); err != nil {
		t.Fatalf("fix-logos: %v", err)
	}
	if !strings.Contains(out.String(), "All 19 icons regenerated.") {
		t.Fatalf("unexpected output %q", out.String())
	}

	entries, err := app.LedgerStatus(context.Background())
	if err != nil {
		t.Fatalf("ledger status: %v", err)
	}
	if len(entries) != len(icons.Targets()) {
		t.Fatalf("expected %d assets, got %d", len(icons.Targets()), len(entries))
	}
	for _, e := range entries {
		if e.Drift != driftOK {
			t.Fatalf("expected %s to be unchanged, got %s", e.Path, e.Drift)
		}
	}

	if err := os.WriteFile(app.cfg.Path("public/favicon.png"), []byte("edited"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(app.cfg.Path("public/pwa-192x192.png")); err != nil {
		t.Fatal(err)
	}
	entries, err = app.LedgerStatus(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	drift := map[string]string{}
	for _, e := range entries {
		drift[e.Path] = e.Drift
	}
	if drift["public/favicon.png"] != driftChanged {
		t.Fatalf("expected favicon.png changed, got %q", drift["public/favicon.png"])
	}
	if drift["public/pwa-192x192.png"] != driftMissing {
		t.Fatalf("expected pwa-192x192.png missing, got %q", drift["public/pwa-192x192.png"])
	}
}

func TestFixLogosWithoutSourceFails(t *testing.T) {
	app, _ := newTestApp(t, false)
	if err := runFixLogos(context.Background(), app, nil); err == nil {
		t.Fatal("expected error without a source logo")
	}
	if _, err := os.Stat(app.cfg.Path("public/favicon.png")); !os.IsNotExist(err) {
		t.Fatalf("expected nothing written, stat err=%v", err)
	}
}

func TestLedgerDisabled(t *testing.T) {
	app, _ := newTestApp(t, false)
	if _, err := app.LedgerStatus(context.Background()); !errors.Is(err, errLedgerDisabled) {
		t.Fatalf("expected errLedgerDisabled, got %v", err)
	}
	svc := &mcpService{app: app}
	if _, err := svc.ListAssets(context.Background()); !errors.Is(err, errLedgerDisabled) {
		t.Fatalf("expected errLedgerDisabled from mcp service, got %v", err)
	}
}

func TestAllRunsEveryJob(t *testing.T) {
	app, out := newTestApp(t, true)
	writeSource(t, app.cfg.Path(config.SourceLogo), 64, 64)

	if err := runAll(context.Background(), app, nil); err != nil {
		t.Fatalf("all: %v", err)
	}
	for _, job := range []string{"fix-logos", "favicon", "graphics", "playstore"} {
		if !strings.Contains(out.String(), "✓ "+job+" done") {
			t.Fatalf("expected %s to finish, output:\n%s", job, out.String())
		}
	}
	runs, err := app.store.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 4 {
		t.Fatalf("expected 4 ledger runs, got %d", len(runs))
	}
}

func TestHumanBytes(t *testing.T) {
	cases := map[int64]string{
		512:     "512 B",
		2048:    "2.0 KB",
		3 << 20: "3.0 MB",
	}
	for n, want := range cases {
		if got := humanBytes(n); got != want {
			t.Fatalf("humanBytes(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestLedgerReportsPaletteChange(t *testing.T) {
	app, out := newTestApp(t, true)
	writeSource(t, app.cfg.Path(config.SourceLogo), 64, 64)
	if _, err := app.Favicon(context.Background()); err != nil {
		t.Fatalf("favicon: %v", err)
	}
	if changed, err := app.PaletteChanged(context.Background()); err != nil || changed {
		t.Fatalf("expected unchanged palette, got %v %v", changed, err)
	}

	app.cfg.Palette.Primary = color.NRGBA{R: 1, G: 2, B: 3, A: 255}
	out.Reset()
	if err := runLedger(context.Background(), app, nil); err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if !strings.Contains(out.String(), "palette changed") {
		t.Fatalf("expected palette notice, got %q", out.String())
	}
}

func TestLedgerListsOneRun(t *testing.T) {
	app, out := newTestApp(t, true)
	writeSource(t, app.cfg.Path(config.SourceLogo), 64, 64)
	if _, err := app.Favicon(context.Background()); err != nil {
		t.Fatalf("favicon: %v", err)
	}
	runs, err := app.store.ListRuns(context.Background(), 1)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected one run, got %v %v", runs, err)
	}

	out.Reset()
	if err := runLedger(context.Background(), app, []string{"-run", strconv.FormatInt(runs[0].RunID, 10)}); err != nil {
		t.Fatalf("ledger -run: %v", err)
	}
	if !strings.Contains(out.String(), icons.FaviconICO) {
		t.Fatalf("expected favicon in run listing, got %q", out.String())
	}

	out.Reset()
	if err := runLedger(context.Background(), app, []string{"-run", "999"}); err != nil {
		t.Fatalf("ledger -run 999: %v", err)
	}
	if !strings.Contains(out.String(), "Run #999 recorded no assets.") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestInitWritesConfigOnce(t *testing.T) {
	app, out := newTestApp(t, false)
	app.cfg.AppName = "Other"
	if err := runInit(context.Background(), app, nil); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out.String(), config.BootstrapFile) {
		t.Fatalf("unexpected output %q", out.String())
	}

	t.Setenv(config.RootEnv, "")
	cfg, err := config.Load(app.cfg.Root)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.AppName != "Other" || cfg.Ledger {
		t.Fatalf("settings not written: %+v", cfg)
	}

	if err := runInit(context.Background(), app, nil); err == nil {
		t.Fatal("expected init to refuse to overwrite")
	}
	if err := runInit(context.Background(), app, []string{"-force"}); err != nil {
		t.Fatalf("init -force: %v", err)
	}
}
