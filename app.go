package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"brandkit/internal/config"
	"brandkit/internal/domain"
	"brandkit/internal/graphics"
	"brandkit/internal/icons"
	"brandkit/internal/logo"
	"brandkit/internal/raster"
	"brandkit/internal/store/sqlite"
	"brandkit/internal/urlfetch"
	"brandkit/internal/verify"

	"go.uber.org/zap"
)

const (
	driftOK      = "ok"
	driftMissing = "missing"
	driftChanged = "changed"
)

// paletteSetting holds the palette the last recorded run drew with.
const paletteSetting = "palette"

var errLedgerDisabled = errors.New("asset ledger is disabled")

// App holds what every subcommand shares. Operation methods never write
// to out so they can also back the MCP tools on stdio.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	out     io.Writer
	errOut  io.Writer
	noColor bool
	store   *sqlite.Store

	// lookPath and fetcher are replaced in tests.
	lookPath func(string) (string, error)
	fetcher  *urlfetch.Fetcher
}

func NewApp(cfg config.Config, out io.Writer, logger *zap.Logger, noColor bool) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{cfg: cfg, out: out, errOut: io.Discard, logger: logger, noColor: noColor}
}

// startup opens the asset ledger. A ledger that cannot be opened is
// logged and left disabled; asset generation never depends on it.
func (a *App) startup(ctx context.Context) {
	if !a.cfg.Ledger {
		return
	}
	dbPath := a.cfg.LedgerPath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		a.logger.Warn("ledger unavailable", zap.Error(err))
		return
	}
	store, err := sqlite.Open(dbPath)
	if err != nil {
		a.logger.Warn("ledger unavailable", zap.Error(err))
		return
	}
	if err := store.Migrate(ctx); err != nil {
		a.logger.Warn("ledger migration failed", zap.Error(err))
		_ = store.Close()
		return
	}
	a.store = store
}

func (a *App) shutdown() {
	if a.store == nil {
		return
	}
	if err := a.store.Checkpoint(context.Background()); err != nil {
		a.logger.Debug("ledger checkpoint", zap.Error(err))
	}
	_ = a.store.Close()
	a.store = nil
}

// record stores one run and every file it wrote successfully.
func (a *App) record(ctx context.Context, command string, results []domain.FileResult, runErr error) {
	if a.store == nil {
		return
	}
	runID, err := a.store.BeginRun(ctx, command)
	if err != nil {
		a.logger.Warn("ledger run not recorded", zap.String("command", command), zap.Error(err))
		return
	}
	for _, res := range results {
		if res.Err != nil || res.Target.Path == "" {
			continue
		}
		rec, err := a.assetRecord(res.Target)
		if err != nil {
			a.logger.Warn("ledger asset not recorded", zap.String("path", res.Target.Path), zap.Error(err))
			continue
		}
		rec.RunID = runID
		if err := a.store.RecordAsset(ctx, rec); err != nil {
			a.logger.Warn("ledger asset not recorded", zap.String("path", res.Target.Path), zap.Error(err))
		}
	}
	if err := a.store.FinishRun(ctx, runID, runErr); err != nil {
		a.logger.Warn("ledger run not closed", zap.Int64("run_id", runID), zap.Error(err))
	}
	if err := a.store.SetSetting(ctx, paletteSetting, config.PaletteKey(a.cfg.Palette)); err != nil {
		a.logger.Warn("ledger palette not recorded", zap.Error(err))
	}
}

// PaletteChanged reports whether the configured palette differs from the
// one the last recorded run used. An empty ledger never reports a change.
func (a *App) PaletteChanged(ctx context.Context) (bool, error) {
	if a.store == nil {
		return false, errLedgerDisabled
	}
	last, err := a.store.GetSetting(ctx, paletteSetting, "")
	if err != nil || last == "" {
		return false, err
	}
	return last != config.PaletteKey(a.cfg.Palette), nil
}

// RunAssets lists what one recorded run wrote.
func (a *App) RunAssets(ctx context.Context, runID int64) ([]domain.AssetRecord, error) {
	if a.store == nil {
		return nil, errLedgerDisabled
	}
	return a.store.ListAssets(ctx, runID)
}

// Init writes the current settings to brandkit.json under the root.
// An existing file is only replaced when force is set.
func (a *App) Init(force bool) (string, error) {
	path := a.cfg.Path(config.BootstrapFile)
	_, err := os.Stat(path)
	switch {
	case err == nil && !force:
		return path, fmt.Errorf("%s already exists, use -force to replace it", path)
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return path, err
	}
	return path, config.Persist(path, config.ToFile(a.cfg))
}

func (a *App) assetRecord(t domain.Target) (domain.AssetRecord, error) {
	sum, size, err := hashFile(a.absPath(t.Path))
	if err != nil {
		return domain.AssetRecord{}, err
	}
	return domain.AssetRecord{
		Path:   a.relPath(t.Path),
		Width:  t.Width,
		Height: t.Height,
		Bytes:  size,
		SHA256: sum,
	}, nil
}

// absPath maps a ledger path back to the filesystem. Paths inside the
// root are stored relative and slash-separated.
func (a *App) absPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return a.cfg.Path(p)
}

func (a *App) relPath(p string) string {
	abs := a.absPath(p)
	rel, err := filepath.Rel(a.cfg.Root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs
	}
	return filepath.ToSlash(rel)
}

func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

func (a *App) FixLogos(ctx context.Context) (icons.Report, error) {
	rep, err := icons.FixLogos(a.cfg, a.cfg.Palette.Background, a.logger)
	if len(rep.Results) > 0 {
		a.record(ctx, "fix-logos", rep.Results, err)
	}
	return rep, err
}

func (a *App) Optimize(ctx context.Context) ([]icons.Optimized, error) {
	out, err := icons.Optimize(a.cfg, a.logger)
	results := make([]domain.FileResult, 0, len(out))
	for _, o := range out {
		results = append(results, o.FileResult)
	}
	if len(results) > 0 {
		a.record(ctx, "optimize", results, err)
	}
	return out, err
}

func (a *App) Favicon(ctx context.Context) (domain.FileResult, error) {
	res, err := icons.Favicon(a.cfg, raster.DefaultFaviconSizes)
	a.record(ctx, "favicon", []domain.FileResult{res}, err)
	return res, err
}

func (a *App) Logo(ctx context.Context, v logo.Variant) (logo.Result, error) {
	res, err := logo.Generate(a.cfg, v)
	if err == nil {
		a.record(ctx, "logo "+string(v), []domain.FileResult{{
			Target: domain.Target{Path: config.SourceLogo, Width: logo.Size, Height: logo.Size},
		}}, nil)
	}
	return res, err
}

func (a *App) Graphics(ctx context.Context) ([]domain.FileResult, error) {
	results, err := graphics.Generate(a.cfg, a.logger)
	a.record(ctx, "graphics", results, err)
	return results, err
}

func (a *App) StoreGraphic(ctx context.Context) (domain.FileResult, error) {
	res, err := graphics.GenerateStore(a.cfg, a.logger)
	a.record(ctx, "store-graphic", []domain.FileResult{res}, err)
	return res, err
}

func (a *App) PlayStore(ctx context.Context) ([]domain.FileResult, error) {
	results, err := graphics.PlayStoreKit(a.cfg, a.logger)
	if len(results) > 0 {
		a.record(ctx, "playstore", results, err)
	}
	return results, err
}

func (a *App) Verify(ctx context.Context, online bool) domain.Report {
	return verify.Run(ctx, verify.Options{
		Root:          a.cfg.Root,
		ApplicationID: a.cfg.ApplicationID,
		PrivacyURL:    a.cfg.PrivacyURL,
		TermsURL:      a.cfg.TermsURL,
		Online:        online,
		Fetcher:       a.fetcher,
		LookPath:      a.lookPath,
	})
}

// RemoveBackground writes a copy of input with near-white pixels made
// transparent. An empty output selects "<base>-transparent.png" and a nil
// threshold selects the default.
func (a *App) RemoveBackground(ctx context.Context, input, output string, thresholdArg *int) (domain.BackgroundRemoval, error) {
	threshold := raster.DefaultWhiteThreshold
	if thresholdArg != nil {
		threshold = *thresholdArg
	}
	if output == "" {
		output = raster.DefaultTransparentPath(input)
	}
	res := domain.BackgroundRemoval{Input: input, Output: output, Threshold: threshold}

	img, err := raster.Open(input)
	if err != nil {
		return res, err
	}
	res.Width, res.Height = img.Bounds().Dx(), img.Bounds().Dy()
	res.Mode = raster.Mode(img)

	out, removed, err := raster.RemoveBackground(img, threshold)
	if err != nil {
		return res, err
	}
	res.Removed = removed
	if err := raster.Save(output, out); err != nil {
		return res, fmt.Errorf("save %s: %w", output, err)
	}

	abs, err := filepath.Abs(output)
	if err == nil {
		a.record(ctx, "remove-bg", []domain.FileResult{{
			Target: domain.Target{Path: abs, Width: res.Width, Height: res.Height},
		}}, nil)
	}
	return res, nil
}

// LedgerEntry is the latest recorded version of a file compared with
// what is on disk now.
type LedgerEntry struct {
	domain.AssetRecord
	Drift string `json:"drift"`
}

func (a *App) LedgerStatus(ctx context.Context) ([]LedgerEntry, error) {
	if a.store == nil {
		return nil, errLedgerDisabled
	}
	latest, err := a.store.LatestAssets(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]LedgerEntry, 0, len(latest))
	for _, rec := range latest {
		entry := LedgerEntry{AssetRecord: rec, Drift: driftOK}
		sum, _, err := hashFile(a.absPath(rec.Path))
		switch {
		case errors.Is(err, os.ErrNotExist):
			entry.Drift = driftMissing
		case err != nil:
			return nil, fmt.Errorf("hash %s: %w", rec.Path, err)
		case sum != rec.SHA256:
			entry.Drift = driftChanged
		}
		out = append(out, entry)
	}
	return out, nil
}

// mcpService adapts App to the MCP tool surface.
type mcpService struct {
	app *App
}

func (s *mcpService) VerifyRelease(ctx context.Context) (domain.Report, error) {
	return s.app.Verify(ctx, false), nil
}

func (s *mcpService) FixLogos(ctx context.Context) ([]domain.FileResult, error) {
	rep, err := s.app.FixLogos(ctx)
	return rep.Results, err
}

func (s *mcpService) RemoveBackground(ctx context.Context, input, output string, threshold *int) (domain.BackgroundRemoval, error) {
	return s.app.RemoveBackground(ctx, input, output, threshold)
}

func (s *mcpService) ListAssets(ctx context.Context) ([]domain.AssetRecord, error) {
	if s.app.store == nil {
		return nil, errLedgerDisabled
	}
	return s.app.store.LatestAssets(ctx)
}
