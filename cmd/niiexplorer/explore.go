package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"niiexplorer/internal/models"
	"niiexplorer/internal/session"
	"niiexplorer/pkg/cache"
	"niiexplorer/pkg/config"
	"niiexplorer/pkg/nifti"
	"niiexplorer/pkg/visualization"
)

// NewExploreCmd creates the interactive explore command.
func NewExploreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore [folder]",
		Short: "Browse a folder of volumes and confirm slices",
		Long: `Open a folder of NIfTI volumes and navigate them with line commands
(type help once started). The current slice is rendered to an image file
after every change; keep it open in an image viewer that reloads on change.

Without a folder argument you are asked for one. An empty answer exits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExplore,
	}

	cmd.Flags().String("axis", "", "initial axis: axial, coronal or sagittal")
	cmd.Flags().String("view", "", "image file the current slice is rendered to")

	return cmd
}

func runExplore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := setupLogger(verbose || cfg.Output.Verbose)

	if axis, _ := cmd.Flags().GetString("axis"); axis != "" {
		cfg.Viewer.DefaultAxis = axis
	}
	if view, _ := cmd.Flags().GetString("view"); view != "" {
		cfg.Render.Output = view
	}

	opts, err := sessionOptions(cfg)
	if err != nil {
		return err
	}

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	folder := ""
	if len(args) == 1 {
		folder = args[0]
	} else {
		folder = promptFolder(in, out)
	}
	if folder == "" {
		return nil
	}

	var decoder session.Decoder = nifti.Decoder{}
	if cfg.Cache.Enabled {
		decoder = cache.NewVolumeCache(decoder,
			time.Duration(cfg.Cache.TTLSeconds)*time.Second,
			time.Duration(cfg.Cache.CleanupSeconds)*time.Second)
	}
	renderer := visualization.NewImageRenderer(renderOptions(cfg))

	s := session.New(decoder, renderer, logger, opts)
	if err := s.OpenFolder(folder); err != nil {
		if s.Folder() == "" {
			return err
		}
		fmt.Fprintf(out, "error: %v\n", err)
	}

	fmt.Fprintf(out, "%d volumes in %s\n", len(s.Files()), folder)
	fmt.Fprintf(out, "view: %s\n", renderer.Output())

	sh := session.NewShell(s, out)
	for _, line := range []string{"status", "show"} {
		if _, err := sh.Execute(line); err != nil {
			return err
		}
	}
	return sh.Run(in)
}

// promptFolder asks for the folder to open. It returns "" when the user
// gives no answer.
func promptFolder(in *bufio.Reader, out io.Writer) string {
	fmt.Fprint(out, "Volume folder (empty to quit): ")
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

func sessionOptions(cfg *config.Config) (session.Options, error) {
	axis, err := models.ParseAxis(cfg.Viewer.DefaultAxis)
	if err != nil {
		return session.Options{}, err
	}
	return session.Options{
		Axis:           axis,
		Zoom:           cfg.Viewer.ZoomDefault,
		ZoomMin:        cfg.Viewer.ZoomMin,
		ZoomMax:        cfg.Viewer.ZoomMax,
		Extensions:     cfg.Viewer.Extensions,
		AnnotationFile: cfg.Annotations.FileName,
		ExportSuffix:   cfg.Annotations.ExportSuffix,
	}, nil
}

func renderOptions(cfg *config.Config) visualization.RenderOptions {
	return visualization.RenderOptions{
		Output:         cfg.Render.Output,
		Format:         cfg.Render.Format,
		Quality:        cfg.Render.Quality,
		Interpolation:  cfg.Render.Interpolation,
		Window:         cfg.Render.Window,
		LowPercentile:  cfg.Render.LowPercentile,
		HighPercentile: cfg.Render.HighPercentile,
	}
}
