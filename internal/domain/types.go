package domain

import "image/color"

// Target is one output asset: a destination path relative to the project
// root and the exact pixel size the written file must decode to.
type Target struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (t Target) Square() bool {
	return t.Width == t.Height
}

type Palette struct {
	Primary    color.NRGBA
	Accent     color.NRGBA
	Background color.NRGBA
	Surface    color.NRGBA
	Text       color.NRGBA
	Muted      color.NRGBA
	GistFill   color.NRGBA
	GistStroke color.NRGBA
	ChartPanel color.NRGBA
}

// WithAlpha returns c with its alpha channel replaced.
func WithAlpha(c color.NRGBA, a uint8) color.NRGBA {
	c.A = a
	return c
}

type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Check is a single line of a verification section. Issue marks the check
// as failing its section; warnings may or may not be issues.
type Check struct {
	ID      string `json:"id"`
	Level   Level  `json:"level"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
	Issue   bool   `json:"issue"`
}

type Section struct {
	Title  string  `json:"title"`
	Gate   bool    `json:"gate"`
	Checks []Check `json:"checks"`
}

func (s Section) Passed() bool {
	for _, c := range s.Checks {
		if c.Issue {
			return false
		}
	}
	return true
}

func (s Section) Find(id string) (Check, bool) {
	for _, c := range s.Checks {
		if c.ID == id {
			return c, true
		}
	}
	return Check{}, false
}

type Report struct {
	Sections []Section `json:"sections"`
}

// Passed reports whether every gating section passed. Informational
// sections such as the AAB presence check never fail a run.
func (r Report) Passed() bool {
	for _, s := range r.Sections {
		if s.Gate && !s.Passed() {
			return false
		}
	}
	return true
}

func (r Report) Find(id string) (Check, bool) {
	for _, s := range r.Sections {
		if c, ok := s.Find(id); ok {
			return c, true
		}
	}
	return Check{}, false
}

func (r Report) ExitCode() int {
	if r.Passed() {
		return 0
	}
	return 1
}

type AssetRecord struct {
	RunID     int64  `json:"run_id"`
	Command   string `json:"command"`
	Path      string `json:"path"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int64  `json:"bytes"`
	SHA256    string `json:"sha256"`
	CreatedAt int64  `json:"created_at"`
}

// FileResult is the per-file outcome reported by batch asset commands.
type FileResult struct {
	Target Target `json:"target"`
	Err    error  `json:"-"`
	Error  string `json:"error,omitempty"`
	Bytes  int64  `json:"bytes,omitempty"`
}

// BackgroundRemoval describes one remove-bg run.
type BackgroundRemoval struct {
	Input     string `json:"input"`
	Output    string `json:"output"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Mode      string `json:"mode"`
	Threshold int    `json:"threshold"`
	Removed   int    `json:"removed"`
}
