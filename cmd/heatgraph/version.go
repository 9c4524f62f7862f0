package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Release builds stamp these with -ldflags "-X main.version=...".
var (
	version = ""
	commit  = ""
	date    = ""
)

// stamped returns ldflag when the release build set it, else the value read
// from the module build info, else fallback.
func stamped(ldflag string, fromBuild func(*debug.BuildInfo) string, fallback string) string {
	if ldflag != "" {
		return ldflag
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := fromBuild(info); v != "" {
			return v
		}
	}
	return fallback
}

// vcsSetting picks a VCS key such as vcs.revision out of the build settings.
func vcsSetting(key string) func(*debug.BuildInfo) string {
	return func(info *debug.BuildInfo) string {
		for _, s := range info.Settings {
			if s.Key == key {
				return s.Value
			}
		}
		return ""
	}
}

func getVersion() string {
	return stamped(version, func(info *debug.BuildInfo) string { return info.Main.Version }, "(devel)")
}

// getCommit returns at most seven characters of the revision.
func getCommit() string {
	c := stamped(commit, vcsSetting("vcs.revision"), "unknown")
	if commit == "" && len(c) > 7 {
		return c[:7]
	}
	return c
}

func getDate() string {
	return stamped(date, vcsSetting("vcs.time"), "unknown")
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the heatgraph release, the commit it was built from and the build time.`,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "heatgraph version %s\n", getVersion())
			fmt.Fprintf(out, "  commit: %s\n", getCommit())
			fmt.Fprintf(out, "  built:  %s\n", getDate())
		},
	}
}
