package main

import (
	"bytes"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRunMain - Command dispatch and exit codes
// ---------------------------------------------------------------------------

func TestRunMain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no command", []string{"invoicepdf"}, ExitUsage, "", "Usage: invoicepdf"},
		{"version", []string{"invoicepdf", "version"}, ExitSuccess, "invoicepdf " + Version, ""},
		{"version flag", []string{"invoicepdf", "--version"}, ExitSuccess, "invoicepdf " + Version, ""},
		{"help", []string{"invoicepdf", "help"}, ExitSuccess, "Commands:", ""},
		{"help serve", []string{"invoicepdf", "help", "serve"}, ExitSuccess, "/v1/invoices/pdf", ""},
		{"help render", []string{"invoicepdf", "help", "render"}, ExitSuccess, "RFC 3339", ""},
		{"help unknown", []string{"invoicepdf", "help", "nope"}, ExitSuccess, "", "Unknown command: nope"},
		{"unknown command", []string{"invoicepdf", "convert"}, ExitUsage, "", "Unknown command: convert"},
		{"render without input", []string{"invoicepdf", "render"}, ExitUsage, "", "exactly one invoice file"},
		{"render help", []string{"invoicepdf", "render", "--help"}, ExitSuccess, "", "invoicepdf render"},
		{"serve with argument", []string{"invoicepdf", "serve", "extra"}, ExitUsage, "", "no arguments"},
		{"serve bad flag", []string{"invoicepdf", "serve", "--bogus"}, ExitUsage, "", "error:"},
		{
			"serve missing config",
			[]string{"invoicepdf", "serve", "--config", "/nonexistent/invoicepdf.yaml"},
			ExitUsage, "", "config file not found",
		},
		{"doctor bad flag", []string{"invoicepdf", "doctor", "--bogus"}, ExitUsage, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer
			code := runMain(t.Context(), tt.args, testEnv(&stdout, &stderr))

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr.String())
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}
