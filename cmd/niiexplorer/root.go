package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"niiexplorer/pkg/config"
)

const version = "0.1.0"

// NewRootCmd creates the root command for niiexplorer.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "niiexplorer",
		Short: "Browse NIfTI volumes and confirm slices of interest",
		Long: `niiexplorer walks a folder of NIfTI volumes (.nii, .nii.gz), shows one
slice at a time along the axial, coronal or sagittal axis and records the
slices you confirm in annotations.json at the root of the folder.

Annotations are only written when you export them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", config.DefaultPath(), "config file")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewExploreCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewConfigCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "niiexplorer v%s\n", version)
		},
	}
}

// loadConfig reads the file named by --config, falling back to defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.LoadConfig(path)
}

// setupLogger creates a text logger on stderr. Only warnings and errors are
// shown unless verbose is set.
func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}
	handler := slog.NewTextHandler(os.Stderr, opts)
	return slog.New(handler)
}
