package cli

import (
	"github.com/spf13/cobra"

	"github.com/mvp-joe/codelens/internal/dataflow"
	"github.com/mvp-joe/codelens/internal/output"
)

var (
	// Version information - typically set via ldflags at build time
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

type versionInfo struct {
	Version        string `json:"version"`
	GitCommit      string `json:"git_commit"`
	BuildDate      string `json:"build_date"`
	PatternVersion int    `json:"pattern_table_version"`
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of codelens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return output.WriteJSON(cmd.OutOrStdout(), versionInfo{
				Version:        Version,
				GitCommit:      GitCommit,
				BuildDate:      BuildDate,
				PatternVersion: dataflow.PatternTableVersion,
			})
		},
	}
}
