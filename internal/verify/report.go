package verify

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/muesli/termenv"

	"brandkit/internal/domain"
)

const rule = "============================================================"

var commonIssues = []struct{ title, detail string }{
	{"Missing or incorrect ProGuard rules", "WebView/JavaScript interfaces not kept\n   → App crashes when minified"},
	{"Version code not incremented", "Each upload must have a higher versionCode"},
	{"Missing privacy policy or terms links", "Required for Play Store approval"},
	{"Missing permissions in manifest", "App can't access network or other resources"},
	{"Unsigned AAB or wrong signing key", "Must be signed with proper keystore"},
	{"Minimum SDK version too low", "May not meet Play Store requirements"},
}

// Printer renders a Report for a terminal.
type Printer struct {
	w       io.Writer
	appName string
	privacy string

	success, warning, failure, note, bold *color.Color
	header, banner                        lipgloss.Style
}

// NewPrinter writes to w. With noColor every escape sequence is dropped,
// which is also what tests rely on.
func NewPrinter(w io.Writer, appName, privacyURL string, noColor bool) *Printer {
	r := lipgloss.NewRenderer(w)
	if noColor {
		r.SetColorProfile(termenv.Ascii)
	}
	p := &Printer{
		w:       w,
		appName: appName,
		privacy: privacyURL,
		success: color.New(color.FgHiGreen),
		warning: color.New(color.FgHiYellow),
		failure: color.New(color.FgHiRed),
		note:    color.New(color.FgHiBlue),
		bold:    color.New(color.Bold),
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		banner: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).
			Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("12")).
			Padding(0, 3).Width(55),
	}
	if noColor {
		for _, c := range []*color.Color{p.success, p.warning, p.failure, p.note, p.bold} {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) Header(text string) {
	fmt.Fprintf(p.w, "\n%s\n%s\n%s\n\n", p.header.Render(rule), p.header.Render(text), p.header.Render(rule))
}

func (p *Printer) Check(c domain.Check) {
	switch c.Level {
	case domain.LevelSuccess:
		p.success.Fprintf(p.w, "✅ %s\n", c.Message)
	case domain.LevelWarning:
		p.warning.Fprintf(p.w, "⚠️  %s\n", c.Message)
	case domain.LevelError:
		p.failure.Fprintf(p.w, "❌ %s\n", c.Message)
	default:
		p.note.Fprintf(p.w, "ℹ️  %s\n", c.Message)
	}
}

// Print writes the full checklist output: banner, every section, the
// common issue and fix lists, and the summary.
func (p *Printer) Print(rep domain.Report) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.banner.Render("AAB Verification Tool for Google Play Store\n"+p.appName+" Project"))
	fmt.Fprintln(p.w)

	for _, s := range rep.Sections {
		p.Header(s.Title)
		for _, c := range s.Checks {
			p.Check(c)
		}
	}

	p.Header("Common AAB Upload Issues")
	p.Check(domain.Check{Level: domain.LevelInfo, Message: "Common reasons AABs fail on Play Store:"})
	fmt.Fprintln(p.w)
	for i, issue := range commonIssues {
		fmt.Fprintf(p.w, "%d. ❌ %s\n   → %s\n\n", i+1, issue.title, issue.detail)
	}

	p.Header("Recommended Fixes")
	p.bold.Fprintln(p.w, "If your AAB is not working, apply these fixes:")
	fmt.Fprintln(p.w)
	fixes := []string{
		"Update ProGuard rules (proguard-rules.pro):\n   keep @JavascriptInterface members and SourceFile,LineNumberTable",
		"Increment version code in build.gradle:\n   versionCode should be higher than previous upload",
		"Ensure Privacy Policy is accessible:\n   " + p.privacyOr("public/privacy.html"),
		"Build with proper signing:\n   Use Play App Signing or your own keystore",
		"Test the AAB before uploading:\n   npx cap run android --target=physical-device",
	}
	for i, fix := range fixes {
		fmt.Fprintf(p.w, "%d. %s\n\n", i+1, fix)
	}

	p.Header("Verification Summary")
	if rep.Passed() {
		p.Check(domain.Check{Level: domain.LevelSuccess, Message: "All critical checks passed!"})
		p.Check(domain.Check{Level: domain.LevelInfo, Message: "Your AAB should be ready for Play Store upload"})
	} else {
		p.Check(domain.Check{Level: domain.LevelWarning, Message: "Some issues were found - review the output above"})
		for _, s := range rep.Sections {
			if s.Gate && !s.Passed() {
				p.Check(domain.Check{Level: domain.LevelInfo, Message: "Failed: " + strings.TrimPrefix(s.Title, "Checking ")})
			}
		}
		p.Check(domain.Check{Level: domain.LevelInfo, Message: "Apply the recommended fixes before uploading to Play Store"})
	}

	fmt.Fprintln(p.w)
	p.bold.Fprintln(p.w, "Next Steps:")
	fmt.Fprintln(p.w, "1. Fix any issues identified above")
	fmt.Fprintln(p.w, "2. Build a new AAB: cd android && ./gradlew bundleRelease")
	fmt.Fprintln(p.w, "3. Test on a real device before uploading")
	fmt.Fprintln(p.w, "4. Upload to Play Console: https://play.google.com/console")
	fmt.Fprintln(p.w)
}

func (p *Printer) privacyOr(fallback string) string {
	if p.privacy != "" {
		return p.privacy
	}
	return fallback
}
