package main

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"

	"rio-cli/internal/cli"
)

var version = "dev"

func isPageURL(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func rewriteDirectScanArgs(argv []string) []string {
	// Convenience: `rio <url>` works like `rio scan <url>`.
	//
	// Cobra treats the first non-flag token as a subcommand, so argv is
	// rewritten before parsing. Persistent flags may come first
	// (e.g. `rio --server ... <url>`), so look for the first positional token.
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--server":     true,
		"--format":     true,
		"--log-level":  true,
		"--log-file":   true,
		"--config-dir": true,
	}

	insert := func(i int) []string {
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:i]...)
		out = append(out, "scan")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			// Subcommands are only looked up before "--".
			if i+1 < len(argv) && isPageURL(argv[i+1]) {
				return insert(i)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if isPageURL(a) {
			return insert(i)
		}
		return argv
	}
	return argv
}

func main() {
	// A .env next to the binary's working dir may carry RIO_* settings.
	_ = godotenv.Load()

	os.Args = rewriteDirectScanArgs(os.Args)

	root := cli.NewRootCmd()
	root.SetArgs(os.Args[1:])
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
