package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: invoicepdf <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve      Run the HTTP rendering service")
	fmt.Fprintln(w, "  render     Render one invoice file to PDF")
	fmt.Fprintln(w, "  doctor     Check the browser setup")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'invoicepdf help <command>' for details on a specific command.")
}

// printCommonUsage prints flags shared by serve and render.
func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Browser:")
	fmt.Fprintln(w, "      --browser-bin <path>  Chrome/Chromium binary")
	fmt.Fprintln(w, "      --no-sandbox          Disable the Chrome sandbox")
	fmt.Fprintln(w, "  -w, --pool-size <n>       Pages kept open (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Render timeout (e.g., 10s, 1m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config & Logging:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --log-level <s>       Level: debug, info, warn, error")
	fmt.Fprintln(w, "      --log-format <s>      Format: json, console")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: invoicepdf serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run the HTTP rendering service on a warm browser.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Routes:")
	fmt.Fprintln(w, "  POST   /v1/invoices/pdf   Render {invoice, business?, page?} to PDF")
	fmt.Fprintln(w, "  POST   /v1/warmup         Start the browser and page pool")
	fmt.Fprintln(w, "  GET    /v1/status         Browser, pool and cache state")
	fmt.Fprintln(w, "  DELETE /v1/cache          Drop cached PDFs")
	fmt.Fprintln(w, "  GET    /healthz           Liveness probe")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "  -a, --addr <host:port>    Listen address (default :8080)")
	fmt.Fprintln(w, "      --store-addr <addr>   Valkey address for the shared cache")
	fmt.Fprintln(w, "      --no-warmup           Launch the browser on first request")
	fmt.Fprintln(w)
	printCommonUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  INVOICEPDF_CONFIG, INVOICEPDF_ADDR, INVOICEPDF_STORE_ADDR,")
	fmt.Fprintln(w, "  INVOICEPDF_POOL_SIZE, INVOICEPDF_TIMEOUT, INVOICEPDF_CACHE_TTL,")
	fmt.Fprintln(w, "  INVOICEPDF_LOG_LEVEL, INVOICEPDF_LOG_FORMAT, INVOICEPDF_BROWSER_BIN,")
	fmt.Fprintln(w, "  INVOICEPDF_NO_SANDBOX")
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: invoicepdf render <invoice.yaml|invoice.json> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render one invoice file to PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The file holds {invoice, business?, page?} as in the HTTP API.")
	fmt.Fprintln(w, "Dates use RFC 3339 (2026-03-01T00:00:00Z); amounts are decimal strings.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file, or directory ending in /")
	fmt.Fprintln(w, "                            (default <number>.pdf next to the input)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -p, --page-size <s>       Page size: letter, a4, legal")
	fmt.Fprintln(w, "      --orientation <s>     Orientation: portrait, landscape")
	fmt.Fprintln(w, "      --margin <f>          Margin in inches (0.25-3.0)")
	fmt.Fprintln(w, "      --no-footer           Disable footer")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "      --style <name|path>   CSS style name or file path")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: invoicepdf doctor [--json] [--launch]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that Chrome can be found and started.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Print results as JSON")
	fmt.Fprintln(w, "      --launch              Start the browser and open a page")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "serve":
		printServeUsage(env.Stdout)
	case "render":
		printRenderUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: invoicepdf version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: invoicepdf help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
