package app

import "github.com/spf13/pflag"

// RegisterFlags registers all CLI flags on the given FlagSet
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("transport", "t", "", "Transport type: stdio or sse")
	flags.StringP("host", "H", "", "Host for SSE transport")
	flags.IntP("port", "p", 0, "Port for SSE transport")
	flags.StringP("log-level", "l", "", "Log level: debug, info, warn or error")

	flags.Bool("library-enabled", true, "Enable the document library tools")
	flags.StringP("library-data-dir", "d", "", "Directory holding the library snapshot (default ~/.lexdesk-mcp)")
	flags.StringP("library-seed-file", "s", "", "YAML file with the documents to seed an empty library with")
	flags.Bool("library-seed-samples", true, "Seed an empty library with the sample documents")
	flags.Int("library-max-results", 0, "Maximum number of search results")
	flags.Int("library-source-limit", 0, "Number of sources returned by find_sources")
	flags.Duration("library-lock-timeout", 0, "How long to wait for another instance holding the library lock")

	flags.Float64("tour-tooltip-width", 0, "Default tour tooltip width in pixels")
	flags.Float64("tour-tooltip-height", 0, "Default tour tooltip height in pixels")
	flags.Float64("tour-padding", 0, "Default gap between the tooltip, its target and the viewport edge")
}
