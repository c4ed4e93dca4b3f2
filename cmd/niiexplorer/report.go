package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"niiexplorer/pkg/annotation"
	"niiexplorer/pkg/report"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <annotations.json|folder>",
		Short: "Summarize an annotation file as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE:  runReport,
	}

	cmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")

	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path := args[0]
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, cfg.Annotations.FileName)
	}

	store, err := annotation.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load annotations: %w", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	return report.NewMarkdownWriter(w).Write(path, store)
}
