package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildInfo describes the running binary.
type buildInfo struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
}

// currentBuild merges ldflags values with the module build information.
// Values missing from both are "(devel)" for the version and "unknown"
// otherwise.
func currentBuild() buildInfo {
	b := buildInfo{
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
	}

	settings := map[string]string{}
	if info, ok := debug.ReadBuildInfo(); ok {
		if b.Version == "" && info.Main.Version != "" {
			b.Version = info.Main.Version
		}
		for _, s := range info.Settings {
			settings[s.Key] = s.Value
		}
	}

	if b.Version == "" {
		b.Version = "(devel)"
	}
	if b.Commit == "" {
		b.Commit = settings["vcs.revision"]
		if len(b.Commit) > 7 {
			b.Commit = b.Commit[:7]
		}
	}
	if b.Date == "" {
		b.Date = settings["vcs.time"]
	}
	if b.Commit == "" {
		b.Commit = "unknown"
	}
	if b.Date == "" {
		b.Date = "unknown"
	}
	return b
}

func getVersion() string { return currentBuild().Version }
func getCommit() string  { return currentBuild().Commit }
func getDate() string    { return currentBuild().Date }

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, build date and Go version of a11yscan.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			b := currentBuild()
			out := cmd.OutOrStdout()
			if short, _ := cmd.Flags().GetBool("short"); short {
				fmt.Fprintln(out, b.Version)
				return
			}
			fmt.Fprintf(out, "a11yscan version %s\n", b.Version)
			fmt.Fprintf(out, "  commit: %s\n", b.Commit)
			fmt.Fprintf(out, "  built:  %s\n", b.Date)
			fmt.Fprintf(out, "  go:     %s\n", b.GoVersion)
		},
	}
	cmd.Flags().Bool("short", false, "Print only the version")
	return cmd
}
