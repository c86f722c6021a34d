package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/invoicepdf"
	"github.com/alnah/invoicepdf/internal/hints"
)

// doctorLaunchTimeout bounds the optional launch check.
const doctorLaunchTimeout = 60 * time.Second

// doctorResult is what doctor prints, as JSON with --json.
type doctorResult struct {
	Status   string     `json:"status"` // ready, warnings or errors
	Chrome   chromeInfo `json:"chrome"`
	Launch   launchInfo `json:"launch"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

type launchInfo struct {
	Checked  bool   `json:"checked"`
	OK       bool   `json:"ok"`
	PID      int    `json:"pid,omitempty"`
	Pages    int    `json:"pages,omitempty"`
	Duration string `json:"duration,omitempty"`
}

type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     bool   `json:"no_sandbox"`
	BrowserBin    string `json:"browser_bin,omitempty"`
}

type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

func (r *doctorResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *doctorResult) fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// runDoctorCmd checks the browser setup. It exits 1 when any check fails;
// warnings alone still exit 0.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	asJSON := fs.Bool("json", false, "print results as JSON")
	launch := fs.Bool("launch", false, "start the browser and open a page")
	fs.Usage = func() { printDoctorUsage(env.Stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitUsage
	}

	result := diagnose()
	if *launch && result.Chrome.Found {
		checkLaunch(ctx, result)
	}
	finalizeStatus(result)

	if *asJSON {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// diagnose runs the checks that need no browser process.
func diagnose() *doctorResult {
	be := hints.DetectBrowserEnv()
	result := &doctorResult{
		Env: envInfo{
			OS:            runtime.GOOS,
			Arch:          runtime.GOARCH,
			ContainerHint: hints.ContainerSignal(),
			CI:            be.CI,
			NoSandbox:     be.NoSandbox,
			BrowserBin:    be.BrowserBin,
		},
	}
	result.Env.Container = result.Env.ContainerHint != ""

	checkChrome(result)
	if (result.Env.Container || result.Env.CI) && !result.Env.NoSandbox {
		result.warn("Container/CI detected with the Chrome sandbox on. Set INVOICEPDF_NO_SANDBOX=1 or ROD_NO_SANDBOX=1")
	}
	checkTempDir(result)
	return result
}

func finalizeStatus(result *doctorResult) {
	switch {
	case len(result.Errors) > 0:
		result.Status = "errors"
	case len(result.Warnings) > 0:
		result.Status = "warnings"
	default:
		result.Status = "ready"
	}
}

// checkChrome locates the browser binary and asks it for its version.
func checkChrome(result *doctorResult) {
	bin := result.Env.BrowserBin
	if bin == "" {
		var ok bool
		if bin, ok = launcher.LookPath(); !ok {
			result.fail("Chrome/Chromium not found. Install Chrome or set INVOICEPDF_BROWSER_BIN")
			return
		}
	}
	if _, err := os.Stat(bin); err != nil {
		result.fail("Chrome not found at %s", bin)
		return
	}

	result.Chrome = chromeInfo{Found: true, Path: bin, Sandbox: !result.Env.NoSandbox}
	out, err := exec.Command(bin, "--version").Output() // #nosec G204 -- operator-chosen binary
	if err != nil {
		result.warn("Could not get Chrome version: %v", err)
		return
	}
	result.Chrome.Version = strings.TrimSpace(string(out))
}

// checkLaunch warms up a one-page renderer on the detected browser.
func checkLaunch(ctx context.Context, result *doctorResult) {
	result.Launch.Checked = true

	opts := []invoicepdf.Option{
		invoicepdf.WithBrowserBin(result.Chrome.Path),
		invoicepdf.WithPoolSize(1),
		invoicepdf.WithLaunchTimeout(doctorLaunchTimeout),
	}
	if !result.Chrome.Sandbox {
		opts = append(opts, invoicepdf.WithNoSandbox())
	}
	r, err := invoicepdf.NewRenderer(opts...)
	if err != nil {
		result.fail("Could not create renderer: %v", err)
		return
	}
	defer func() { _ = r.Close() }()

	ctx, cancel := context.WithTimeout(ctx, doctorLaunchTimeout)
	defer cancel()

	start := time.Now()
	if err := r.Warmup(ctx); err != nil {
		result.fail("Browser launch failed: %v", err)
		return
	}
	st := r.Status()
	result.Launch = launchInfo{
		Checked:  true,
		OK:       true,
		PID:      st.BrowserPID,
		Pages:    st.PagesAvailable,
		Duration: time.Since(start).Round(time.Millisecond).String(),
	}
}

// checkTempDir confirms Chrome's profile directory can be created.
func checkTempDir(result *doctorResult) {
	f, err := os.CreateTemp("", "invoicepdf-doctor-*")
	if err != nil {
		result.fail("Temp directory not writable: %s", os.TempDir())
		return
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	result.System.TempWritable = true
}

// printDoctorResult writes the report as [OK]/[WARN]/[ERROR] lines grouped
// by section.
func printDoctorResult(w io.Writer, r *doctorResult) {
	line := func(tag, format string, args ...any) {
		fmt.Fprintf(w, "  [%s] %s\n", tag, fmt.Sprintf(format, args...))
	}

	fmt.Fprintln(w, "invoicepdf doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		line("OK", "Found at %s", r.Chrome.Path)
		if r.Chrome.Version != "" {
			line("OK", "Version: %s", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			line("OK", "Sandbox: enabled")
		} else {
			line("OK", "Sandbox: disabled")
		}
	} else {
		line("ERROR", "Not found")
	}
	fmt.Fprintln(w)

	if r.Launch.Checked {
		fmt.Fprintln(w, "Launch")
		if r.Launch.OK {
			line("OK", "Started pid %d with %d page(s) in %s", r.Launch.PID, r.Launch.Pages, r.Launch.Duration)
		} else {
			line("ERROR", "Browser did not start")
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Environment")
	line("OK", "Platform: %s/%s", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		line("OK", "Container: detected (%s)", r.Env.ContainerHint)
	}
	if r.Env.CI {
		line("OK", "CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		line("OK", "Temp directory: writable")
	} else {
		line("ERROR", "Temp directory: not writable")
	}
	fmt.Fprintln(w)

	for _, group := range []struct {
		title, tag string
		msgs       []string
	}{
		{"Warnings:", "WARN", r.Warnings},
		{"Errors:", "ERROR", r.Errors},
	} {
		if len(group.msgs) == 0 {
			continue
		}
		fmt.Fprintln(w, group.title)
		for _, m := range group.msgs {
			line(group.tag, "%s", m)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to render")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
