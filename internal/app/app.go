package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "crawl":
		return runCrawl(args[1:])
	case "refresh":
		return runRefresh(args[1:])
	case "watch":
		return runWatch(args[1:])
	case "ingest":
		return runIngest(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "careerfit CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  careerfit <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health   Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  crawl    Fetch and normalize listings without persisting them")
	fmt.Fprintln(os.Stderr, "  refresh  Run one sweep + crawl + upsert cycle")
	fmt.Fprintln(os.Stderr, "  watch    Run refresh cycles on a recurring interval")
	fmt.Fprintln(os.Stderr, "  ingest   Upsert one schema-validated posting payload")
	fmt.Fprintln(os.Stderr, "  serve    Start the Echo read API")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"careerfit <command> -h\" for command-specific flags.")
}
