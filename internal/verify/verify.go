// Package verify runs the pre-upload checklist for an Android app bundle:
// text containment checks over the Gradle build file, ProGuard rules and
// manifest, presence of the policy pages and the built bundle.
package verify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"brandkit/internal/domain"
	"brandkit/internal/policydoc"
	"brandkit/internal/urlfetch"
)

const (
	BuildGradle  = "android/app/build.gradle"
	Proguard     = "android/app/proguard-rules.pro"
	Manifest     = "android/app/src/main/AndroidManifest.xml"
	PrivacyHTML  = "public/privacy.html"
	PrivacyPDF   = "public/privacy.pdf"
	TermsHTML    = "public/terms.html"
	ReleaseAAB   = "android/app/build/outputs/bundle/release/app-release.aab"
	largeAABSize = 150 << 20
)

// Check identifiers, stable across releases for scripting against -json.
const (
	IDBuildFile        = "build-gradle"
	IDNamespace        = "namespace"
	IDVersionCode      = "version-code"
	IDVersionName      = "version-name"
	IDMinify           = "minify"
	IDProguardFiles    = "proguard-files"
	IDProguardRules    = "proguard-rules"
	IDJSInterface      = "javascript-interface"
	IDSourceAttributes = "source-attributes"
	IDCapacitorRules   = "capacitor-rules"
	IDManifest         = "manifest"
	IDInternet         = "internet-permission"
	IDApplicationID    = "application-id"
	IDExported         = "activity-export"
	IDLauncher         = "launcher-intent"
	IDPrivacy          = "privacy-policy"
	IDTerms            = "terms-of-service"
	IDAAB              = "aab"
	IDAABSize          = "aab-size"
	IDBundletool       = "bundletool"
	IDOnlinePrivacy    = "online-privacy"
	IDOnlineTerms      = "online-terms"
)

var (
	versionCodeRe = regexp.MustCompile(`versionCode\s+(\d+)`)
	versionNameRe = regexp.MustCompile(`versionName\s+"([^"]+)"`)
)

type Options struct {
	Root          string
	ApplicationID string
	PrivacyURL    string
	TermsURL      string
	// Online fetches PrivacyURL and TermsURL with Fetcher.
	Online  bool
	Fetcher *urlfetch.Fetcher
	// LookPath finds bundletool; defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

// Run executes every section. It never fails: unreadable inputs become
// failed checks and the report's exit code is the only verdict.
func Run(ctx context.Context, opts Options) domain.Report {
	path := func(rel string) string { return filepath.Join(opts.Root, filepath.FromSlash(rel)) }
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	rep := domain.Report{Sections: []domain.Section{
		CheckBuildGradle(path(BuildGradle), opts.ApplicationID),
		CheckProguard(path(Proguard)),
		CheckManifest(path(Manifest), opts.ApplicationID),
		CheckPolicies(opts.Root, opts.PrivacyURL, opts.TermsURL),
		CheckAAB(path(ReleaseAAB), lookPath),
	}}
	if opts.Online {
		f := opts.Fetcher
		if f == nil {
			f = urlfetch.New()
		}
		rep.Sections = append(rep.Sections, CheckOnline(ctx, f, opts.PrivacyURL, opts.TermsURL))
	}
	return rep
}

func ok(id, msg string) domain.Check {
	return domain.Check{ID: id, Level: domain.LevelSuccess, Message: msg}
}

func warn(id, msg string, issue bool) domain.Check {
	return domain.Check{ID: id, Level: domain.LevelWarning, Message: msg, Issue: issue}
}

func fail(id, msg string) domain.Check {
	return domain.Check{ID: id, Level: domain.LevelError, Message: msg, Issue: true}
}

func info(id, msg string) domain.Check {
	return domain.Check{ID: id, Level: domain.LevelInfo, Message: msg}
}

// readFile reports a missing or unreadable file as a single failed check.
func readFile(id, name, path string) (string, domain.Check, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fail(id, fmt.Sprintf("%s NOT found: %s", name, path)), false
		}
		return "", fail(id, fmt.Sprintf("%s unreadable: %v", name, err)), false
	}
	return string(data), ok(id, fmt.Sprintf("%s exists: %s", name, path)), true
}

func CheckBuildGradle(path, appID string) domain.Section {
	s := domain.Section{Title: "Checking build.gradle Configuration", Gate: true}
	content, c, found := readFile(IDBuildFile, "build.gradle", path)
	s.Checks = append(s.Checks, c)
	if !found {
		return s
	}

	if strings.Contains(content, fmt.Sprintf(`namespace "%s"`, appID)) || strings.Contains(content, fmt.Sprintf(`namespace = "%s"`, appID)) {
		s.Checks = append(s.Checks, ok(IDNamespace, "Namespace properly set: "+appID))
	} else {
		s.Checks = append(s.Checks, warn(IDNamespace, "Namespace might not be set correctly", true))
	}

	if m := versionCodeRe.FindStringSubmatch(content); m != nil {
		c := ok(IDVersionCode, "Version code: "+m[1])
		c.Value = m[1]
		s.Checks = append(s.Checks, c)
	} else {
		s.Checks = append(s.Checks, fail(IDVersionCode, "Version code not found"))
	}

	if m := versionNameRe.FindStringSubmatch(content); m != nil {
		c := ok(IDVersionName, "Version name: "+m[1])
		c.Value = m[1]
		s.Checks = append(s.Checks, c)
	} else {
		s.Checks = append(s.Checks, fail(IDVersionName, "Version name not found"))
	}

	if strings.Contains(content, "minifyEnabled true") {
		s.Checks = append(s.Checks, ok(IDMinify, "Minification enabled for release builds"))
	} else {
		s.Checks = append(s.Checks, warn(IDMinify, "Minification not enabled (might increase APK size)", false))
	}

	if strings.Contains(content, "proguardFiles") {
		s.Checks = append(s.Checks, ok(IDProguardFiles, "ProGuard files configured"))
	} else {
		s.Checks = append(s.Checks, warn(IDProguardFiles, "ProGuard files not configured", true))
	}
	return s
}

func CheckProguard(path string) domain.Section {
	s := domain.Section{Title: "Checking ProGuard Rules", Gate: true}
	content, c, found := readFile(IDProguardRules, "proguard-rules.pro", path)
	s.Checks = append(s.Checks, c)
	if !found {
		s.Checks = append(s.Checks, warn(IDProguardRules, "ProGuard rules file not found - using defaults only", false))
		return s
	}
	lower := strings.ToLower(content)

	if strings.Contains(content, "-keepclassmembers") && strings.Contains(lower, "javascript") {
		s.Checks = append(s.Checks, ok(IDJSInterface, "JavaScript interface rules present"))
	} else {
		s.Checks = append(s.Checks,
			fail(IDJSInterface, "Missing JavaScript interface keep rules"),
			info(IDJSInterface, "This is CRITICAL for Capacitor apps - WebView JS won't work without it!"))
	}

	if keepsSourceAttributes(content) {
		s.Checks = append(s.Checks, ok(IDSourceAttributes, "Source file attributes preserved (helps with debugging)"))
	} else {
		s.Checks = append(s.Checks,
			warn(IDSourceAttributes, "Source file attributes not preserved", true),
			info(IDSourceAttributes, "Add: -keepattributes SourceFile,LineNumberTable"))
	}

	if strings.Contains(lower, "capacitor") || strings.Contains(lower, "cordova") {
		s.Checks = append(s.Checks, ok(IDCapacitorRules, "Capacitor/Cordova-specific rules found"))
	} else {
		s.Checks = append(s.Checks, warn(IDCapacitorRules, "Missing Capacitor-specific ProGuard rules", true))
	}
	return s
}

// keepsSourceAttributes looks line by line so that a commented out rule
// does not count.
func keepsSourceAttributes(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "-keepattributes") &&
			strings.Contains(line, "SourceFile") &&
			strings.Contains(line, "LineNumberTable") {
			return true
		}
	}
	return false
}

func CheckManifest(path, appID string) domain.Section {
	s := domain.Section{Title: "Checking AndroidManifest.xml", Gate: true}
	content, c, found := readFile(IDManifest, "AndroidManifest.xml", path)
	s.Checks = append(s.Checks, c)
	if !found {
		return s
	}

	if strings.Contains(content, "android.permission.INTERNET") {
		s.Checks = append(s.Checks, ok(IDInternet, "INTERNET permission declared"))
	} else {
		s.Checks = append(s.Checks, fail(IDInternet, "INTERNET permission missing (required for web apps)"))
	}

	if strings.Contains(content, "${applicationId}") || (appID != "" && strings.Contains(content, appID)) {
		s.Checks = append(s.Checks, ok(IDApplicationID, "Application ID properly configured"))
	} else {
		s.Checks = append(s.Checks, warn(IDApplicationID, "Application ID might not be set", false))
	}

	if strings.Contains(content, `android:exported="true"`) {
		s.Checks = append(s.Checks, ok(IDExported, "Main activity properly exported"))
	} else {
		s.Checks = append(s.Checks, warn(IDExported, "Main activity might not be exported", true))
	}

	if strings.Contains(content, "android.intent.action.MAIN") && strings.Contains(content, "android.intent.category.LAUNCHER") {
		s.Checks = append(s.Checks, ok(IDLauncher, "Launcher intent filter present"))
	} else {
		s.Checks = append(s.Checks, fail(IDLauncher, "Launcher intent filter missing"))
	}
	return s
}

// CheckPolicies requires a privacy policy, as HTML or PDF, and a terms of
// service page. A policy without extractable text, such as a page rendered
// by script, only earns a warning.
func CheckPolicies(root, privacyURL, termsURL string) domain.Section {
	s := domain.Section{Title: "Checking Play Store Privacy Compliance", Gate: true}

	privacy := ""
	for _, rel := range []string{PrivacyHTML, PrivacyPDF} {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if _, err := os.Stat(p); err == nil {
			privacy = p
			break
		}
	}
	switch {
	case privacy == "":
		s.Checks = append(s.Checks,
			fail(IDPrivacy, "Privacy policy HTML not found"),
			info(IDPrivacy, "Required for Play Store approval!"))
	default:
		doc, err := policydoc.Read(privacy)
		if err != nil {
			c := ok(IDPrivacy, "Privacy policy exists")
			c.Value = filepath.Base(privacy)
			s.Checks = append(s.Checks, c,
				warn(IDPrivacy, fmt.Sprintf("Privacy policy has no readable text: %v", err), false))
		} else {
			c := ok(IDPrivacy, fmt.Sprintf("Privacy policy %s exists (%d words)", strings.ToUpper(doc.Kind), doc.Words))
			c.Value = filepath.Base(privacy)
			s.Checks = append(s.Checks, c)
		}
		if privacyURL != "" {
			s.Checks = append(s.Checks, info(IDPrivacy, "URL: "+privacyURL))
		}
	}

	if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(TermsHTML))); err == nil {
		s.Checks = append(s.Checks, ok(IDTerms, "Terms of service HTML exists"))
		if termsURL != "" {
			s.Checks = append(s.Checks, info(IDTerms, "URL: "+termsURL))
		}
	} else {
		s.Checks = append(s.Checks, warn(IDTerms, "Terms of service HTML not found", true))
	}
	return s
}

// CheckAAB reports on the release bundle. The section is informational:
// a missing bundle never fails verification.
func CheckAAB(path string, lookPath func(string) (string, error)) domain.Section {
	s := domain.Section{Title: "Checking AAB File", Gate: false}
	st, err := os.Stat(path)
	if err != nil {
		s.Checks = append(s.Checks,
			warn(IDAAB, "AAB file not found at expected location", false),
			info(IDAAB, "Expected: "+path),
			info(IDAAB, "You need to build the AAB first:"),
			info(IDAAB, "  cd android && ./gradlew bundleRelease"))
		return s
	}

	sizeMB := float64(st.Size()) / (1 << 20)
	s.Checks = append(s.Checks, ok(IDAAB, "AAB file exists: "+path))
	size := info(IDAABSize, fmt.Sprintf("Size: %.2f MB", sizeMB))
	size.Value = fmt.Sprintf("%.2f", sizeMB)
	s.Checks = append(s.Checks, size)
	if st.Size() > largeAABSize {
		s.Checks = append(s.Checks,
			warn(IDAABSize, fmt.Sprintf("AAB size is large (%.2f MB)", sizeMB), false),
			info(IDAABSize, "Consider enabling ProGuard and resource shrinking"))
	}

	if _, err := lookPath("bundletool"); err == nil {
		s.Checks = append(s.Checks, info(IDBundletool, "Bundletool is available for AAB analysis"))
	} else {
		s.Checks = append(s.Checks, info(IDBundletool, "Install bundletool to analyze AAB: https://github.com/google/bundletool"))
	}
	return s
}

// CheckOnline fetches the published policy pages. Unset URLs are skipped.
func CheckOnline(ctx context.Context, f *urlfetch.Fetcher, privacyURL, termsURL string) domain.Section {
	s := domain.Section{Title: "Checking Published Policy Pages", Gate: true}
	for _, page := range []struct{ id, name, url string }{
		{IDOnlinePrivacy, "Privacy policy", privacyURL},
		{IDOnlineTerms, "Terms of service", termsURL},
	} {
		if page.url == "" {
			s.Checks = append(s.Checks, info(page.id, page.name+" URL not configured"))
			continue
		}
		res, err := f.Fetch(ctx, page.url)
		if err != nil {
			s.Checks = append(s.Checks, fail(page.id, fmt.Sprintf("%s unreachable: %v", page.name, err)))
			continue
		}
		c := ok(page.id, fmt.Sprintf("%s reachable: %s (%d words)", page.name, res.FinalURL, res.Words))
		c.Value = res.Hash
		s.Checks = append(s.Checks, c)
	}
	return s
}
