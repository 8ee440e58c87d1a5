package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"brandkit/internal/domain"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	BootstrapFile = "brandkit.json"
	RootEnv       = "BRANDKIT_ROOT"

	SourceLogo = "src/assets/zikalyze-logo.png"
	PWALogo    = "public/pwa-512x512.png"
	ledgerDir  = ".brandkit"
)

type Config struct {
	Root          string
	AppName       string
	ApplicationID string
	Palette       domain.Palette
	Fonts         Fonts
	PrivacyURL    string
	TermsURL      string
	StoreURL      string
	Ledger        bool
}

// Fonts lists candidate font files in priority order. A missing or
// unparsable file falls through to the next one and finally to the
// built-in bitmap face.
type Fonts struct {
	Bold    []string `json:"bold,omitempty"`
	Regular []string `json:"regular,omitempty"`
}

// File is the on-disk shape of brandkit.json. Empty fields keep defaults.
type File struct {
	Root          string            `json:"root,omitempty"`
	AppName       string            `json:"app_name,omitempty"`
	ApplicationID string            `json:"application_id,omitempty"`
	Palette       map[string]string `json:"palette,omitempty"`
	Fonts         Fonts             `json:"fonts,omitempty"`
	PrivacyURL    string            `json:"privacy_url,omitempty"`
	TermsURL      string            `json:"terms_url,omitempty"`
	StoreURL      string            `json:"store_url,omitempty"`
	Ledger        *bool             `json:"ledger,omitempty"`
}

var defaultPalette = map[string]string{
	"primary":     "#70ffc1",
	"accent":      "#c59dff",
	"background":  "#0f172a",
	"surface":     "#1e293b",
	"text":        "#ffffff",
	"muted":       "#94a3b8",
	"gist_fill":   "#b5ead7",
	"gist_stroke": "#1a1c1e",
	"chart_panel": "#1a1f2e",
}

func Default() Config {
	palette, _ := parsePalette(nil)
	return Config{
		AppName:       "Zikalyze",
		ApplicationID: "com.zikalyze.app",
		Palette:       palette,
		Fonts: Fonts{
			Bold: []string{
				"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
				"/usr/share/fonts/TTF/DejaVuSans-Bold.ttf",
				"/Library/Fonts/Arial Bold.ttf",
			},
			Regular: []string{
				"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
				"/usr/share/fonts/TTF/DejaVuSans.ttf",
				"/Library/Fonts/Arial.ttf",
			},
		},
		PrivacyURL: "https://zikalyze.com/privacy.html",
		TermsURL:   "https://zikalyze.com/terms.html",
		StoreURL:   "https://play.google.com/store/apps/details?id=com.zikalyze.app",
		Ledger:     true,
	}
}

// Load resolves the project root and brand settings. The root comes from
// BRANDKIT_ROOT, then the "root" field of brandkit.json in workDir, then
// workDir itself.
func Load(workDir string) (Config, error) {
	cfg := Default()
	cfg.Root = filepath.Clean(workDir)

	persisted, err := loadFile(filepath.Join(workDir, BootstrapFile))
	if err != nil {
		return Config{}, err
	}
	if err := cfg.apply(persisted, workDir); err != nil {
		return Config{}, err
	}
	if envRoot := strings.TrimSpace(os.Getenv(RootEnv)); envRoot != "" {
		cfg.Root = filepath.Clean(envRoot)
	}
	return cfg, nil
}

func (c *Config) apply(f File, workDir string) error {
	if root := strings.TrimSpace(f.Root); root != "" {
		if !filepath.IsAbs(root) {
			root = filepath.Join(workDir, root)
		}
		c.Root = filepath.Clean(root)
	}
	if v := strings.TrimSpace(f.AppName); v != "" {
		c.AppName = v
	}
	if v := strings.TrimSpace(f.ApplicationID); v != "" {
		c.ApplicationID = v
	}
	if len(f.Palette) > 0 {
		palette, err := parsePalette(f.Palette)
		if err != nil {
			return err
		}
		c.Palette = palette
	}
	if len(f.Fonts.Bold) > 0 {
		c.Fonts.Bold = append(append([]string{}, f.Fonts.Bold...), c.Fonts.Bold...)
	}
	if len(f.Fonts.Regular) > 0 {
		c.Fonts.Regular = append(append([]string{}, f.Fonts.Regular...), c.Fonts.Regular...)
	}
	if v := strings.TrimSpace(f.PrivacyURL); v != "" {
		c.PrivacyURL = v
	}
	if v := strings.TrimSpace(f.TermsURL); v != "" {
		c.TermsURL = v
	}
	if v := strings.TrimSpace(f.StoreURL); v != "" {
		c.StoreURL = v
	}
	if f.Ledger != nil {
		c.Ledger = *f.Ledger
	}
	return nil
}

// Path joins a slash-separated project-relative path onto the root.
func (c Config) Path(rel string) string {
	return filepath.Join(c.Root, filepath.FromSlash(rel))
}

func (c Config) LedgerPath() string {
	return filepath.Join(c.Root, ledgerDir, "ledger.db")
}

// ToFile captures the brand settings of c for brandkit.json. Root and
// fonts are left out; Load adds the default font candidates itself.
func ToFile(c Config) File {
	ledger := c.Ledger
	return File{
		AppName:       c.AppName,
		ApplicationID: c.ApplicationID,
		Palette:       PaletteHex(c.Palette),
		PrivacyURL:    c.PrivacyURL,
		TermsURL:      c.TermsURL,
		StoreURL:      c.StoreURL,
		Ledger:        &ledger,
	}
}

// PaletteHex returns p keyed by its brandkit.json names.
func PaletteHex(p domain.Palette) map[string]string {
	return map[string]string{
		"primary":     Hex(p.Primary),
		"accent":      Hex(p.Accent),
		"background":  Hex(p.Background),
		"surface":     Hex(p.Surface),
		"text":        Hex(p.Text),
		"muted":       Hex(p.Muted),
		"gist_fill":   Hex(p.GistFill),
		"gist_stroke": Hex(p.GistStroke),
		"chart_panel": Hex(p.ChartPanel),
	}
}

// PaletteKey is a stable one-line form of p for change detection.
func PaletteKey(p domain.Palette) string {
	m := PaletteHex(p)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+m[k])
	}
	return strings.Join(parts, ",")
}

// Persist writes f to path via a temp file and rename.
func Persist(path string, f File) error {
	clean := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	tmpPath := clean + ".tmp"
	if err := os.WriteFile(tmpPath, encoded, 0o644); err != nil {
		return err
	}
	if err := os.Remove(clean); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.Rename(tmpPath, clean)
}

func loadFile(path string) (File, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return File{}, nil
	}
	if err != nil {
		return File{}, err
	}
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return File{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return f, nil
}

func parsePalette(overrides map[string]string) (domain.Palette, error) {
	merged := make(map[string]string, len(defaultPalette))
	for k, v := range defaultPalette {
		merged[k] = v
	}
	for k, v := range overrides {
		key := strings.ToLower(strings.TrimSpace(k))
		if _, known := defaultPalette[key]; !known {
			return domain.Palette{}, fmt.Errorf("unknown palette entry %q", k)
		}
		merged[key] = strings.TrimSpace(v)
	}

	parsed := make(map[string]color.NRGBA, len(merged))
	for k, v := range merged {
		c, err := ParseHex(v)
		if err != nil {
			return domain.Palette{}, fmt.Errorf("palette %s: %w", k, err)
		}
		parsed[k] = c
	}
	return domain.Palette{
		Primary:    parsed["primary"],
		Accent:     parsed["accent"],
		Background: parsed["background"],
		Surface:    parsed["surface"],
		Text:       parsed["text"],
		Muted:      parsed["muted"],
		GistFill:   parsed["gist_fill"],
		GistStroke: parsed["gist_stroke"],
		ChartPanel: parsed["chart_panel"],
	}, nil
}

// ParseHex parses "#rrggbb" or "#rgb" into an opaque colour.
func ParseHex(s string) (color.NRGBA, error) {
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// Hex formats c as "#rrggbb".
func Hex(c color.NRGBA) string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}
