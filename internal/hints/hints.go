// Package hints builds the short follow-up lines the CLI appends to errors.
// Every hint renders as "\n  hint: <text>".
package hints

import (
	"os"
	"strconv"
	"strings"

	"github.com/alnah/invoicepdf/internal/fileutil"
)

// BrowserEnv is the part of the host environment that explains most browser
// launch failures.
type BrowserEnv struct {
	CI         bool
	Container  bool
	NoSandbox  bool
	BrowserBin string
}

var ciVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

// DetectBrowserEnv reads BrowserEnv from the current process.
func DetectBrowserEnv() BrowserEnv {
	var env BrowserEnv
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			env.CI = true
			break
		}
	}
	env.Container = ContainerSignal() != ""

	noSandbox, _ := strconv.ParseBool(os.Getenv("INVOICEPDF_NO_SANDBOX"))
	env.NoSandbox = noSandbox || os.Getenv("ROD_NO_SANDBOX") == "1"

	env.BrowserBin = os.Getenv("INVOICEPDF_BROWSER_BIN")
	if env.BrowserBin == "" {
		env.BrowserBin = os.Getenv("ROD_BROWSER_BIN")
	}
	return env
}

// ContainerSignal names the first container marker found, or returns "".
// INVOICEPDF_CONTAINER=1 forces detection when the runtime leaves no marker.
func ContainerSignal() string {
	switch {
	case os.Getenv("INVOICEPDF_CONTAINER") == "1":
		return "INVOICEPDF_CONTAINER=1"
	case fileutil.FileExists("/.dockerenv"):
		return "/.dockerenv"
	case os.Getenv("container") != "":
		return "container=" + os.Getenv("container")
	case os.Getenv("KUBERNETES_SERVICE_HOST") != "":
		return "KUBERNETES_SERVICE_HOST"
	}
	return ""
}

// ForBrowserLaunch suggests sandbox and binary settings that fit env, and
// always points at the doctor command.
func ForBrowserLaunch(env BrowserEnv) string {
	var hints []string
	if (env.CI || env.Container) && !env.NoSandbox {
		hints = append(hints, "pass --no-sandbox or set INVOICEPDF_NO_SANDBOX=1 in Docker/CI")
	}
	if env.BrowserBin == "" {
		hints = append(hints, "pass --browser-bin or set ROD_BROWSER_BIN to choose a Chrome binary")
	}
	hints = append(hints, "run 'invoicepdf doctor --launch' for details")
	return format(strings.Join(hints, "; "))
}

// ForTimeout suggests a longer render timeout.
func ForTimeout() string {
	return format("for invoices with many line items, use --timeout flag or render.timeout")
}

// ForConfigNotFound suggests --config, or creating the user config file when
// one of the searched paths is under the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(p, "invoicepdf") && strings.Contains(p, "config") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForOutputDirectory covers failures writing the PDF.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForStyleNotFound lists the built-in styles.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", ") + "; or pass a .css file path")
}

// ForLogo lists what a logo reference may be.
func ForLogo() string {
	return format("supported formats: PNG, JPG, GIF, WebP, SVG; use a URL, a data URI, or enable render.allowLocalLogos")
}

// ForStore covers an unreachable shared cache.
func ForStore(addr string) string {
	if addr == "" {
		return ""
	}
	return format("check that valkey is reachable at " + addr + "; leave store.addr empty to disable the shared cache")
}

func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}
