package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"niiexplorer/internal/models"
)

// Renderer draws a slice at a target extent in pixels.
type Renderer interface {
	Render(s *Slice, width, height int) error
}

// RenderOptions configures an ImageRenderer
type RenderOptions struct {
	// Output is the file the current view is written to
	Output string

	// Format is "png" or "jpeg"
	Format string

	// Quality is the JPEG quality
	Quality int

	// Interpolation is "nearest", "bilinear" or "catmullrom"
	Interpolation string

	// Window is "minmax" or "percentile"
	Window string

	// LowPercentile and HighPercentile bound the percentile window
	LowPercentile  float64
	HighPercentile float64
}

// ImageRenderer renders slices to grayscale images on disk with the title
// drawn in the top-left corner.
type ImageRenderer struct {
	opts RenderOptions
}

// NewImageRenderer creates a renderer with the given options
func NewImageRenderer(opts RenderOptions) *ImageRenderer {
	if opts.Format == "" {
		opts.Format = "png"
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 90
	}
	if opts.HighPercentile <= opts.LowPercentile {
		opts.LowPercentile, opts.HighPercentile = 0.01, 0.99
	}
	return &ImageRenderer{opts: opts}
}

// Output returns the file the current view is written to
func (r *ImageRenderer) Output() string {
	return r.opts.Output
}

// Render draws s at width x height pixels and writes it to the output file
func (r *ImageRenderer) Render(s *Slice, width, height int) error {
	if r.opts.Output == "" {
		return fmt.Errorf("no render output configured")
	}
	if err := os.MkdirAll(filepath.Dir(r.opts.Output), 0755); err != nil {
		return fmt.Errorf("failed to create render directory: %w", err)
	}
	return r.SaveSlice(r.Image(s, width, height), r.opts.Output)
}

// Image converts s to a grayscale image of width x height pixels. The slice
// is rotated for display and its intensities are mapped through the
// configured window.
func (r *ImageRenderer) Image(s *Slice, width, height int) *image.Gray {
	oriented := s.Oriented()
	rows, cols := oriented.Dims()
	lo, hi := r.window(oriented)

	src := image.NewGray(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			src.SetGray(x, y, color.Gray{Y: toGray(oriented.At(y, x), lo, hi)})
		}
	}

	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	dst := src
	if width != cols || height != rows {
		dst = image.NewGray(image.Rect(0, 0, width, height))
		r.scaler().Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	}

	drawTitle(dst, s.Title())
	return dst
}

// SaveSlice encodes img to filename in the configured format
func (r *ImageRenderer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	switch r.opts.Format {
	case "jpeg", "jpg":
		return jpeg.Encode(file, img, &jpeg.Options{Quality: r.opts.Quality})
	default:
		return png.Encode(file, img)
	}
}

// SaveSliceSequence renders the given indices of vol along axis into
// outputDir, one file per slice, at zoom percent of the slice size. It
// returns the written file names.
func (r *ImageRenderer) SaveSliceSequence(vol *models.Volume, axis models.Axis, indices []int, zoom int, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	ext := "png"
	if r.opts.Format == "jpeg" || r.opts.Format == "jpg" {
		ext = "jpg"
	}

	var written []string
	for _, pos := range indices {
		s, err := ExtractSlice(vol, axis, pos)
		if err != nil {
			return written, err
		}

		rows, cols := s.Dims()
		img := r.Image(s, rows*zoom/100, cols*zoom/100)

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.%s", axis, pos, ext))
		if err := r.SaveSlice(img, filename); err != nil {
			return written, err
		}
		written = append(written, filename)
	}

	return written, nil
}

// window returns the intensity range mapped onto black..white
func (r *ImageRenderer) window(m *mat.Dense) (lo, hi float64) {
	rows, cols := m.Dims()
	values := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for _, v := range m.RawRowView(i) {
			if !math.IsNaN(v) {
				values = append(values, v)
			}
		}
	}
	if len(values) == 0 {
		return 0, 0
	}

	if strings.EqualFold(r.opts.Window, "percentile") {
		sort.Float64s(values)
		return stat.Quantile(r.opts.LowPercentile, stat.Empirical, values, nil),
			stat.Quantile(r.opts.HighPercentile, stat.Empirical, values, nil)
	}
	return floats.Min(values), floats.Max(values)
}

func (r *ImageRenderer) scaler() draw.Scaler {
	switch strings.ToLower(r.opts.Interpolation) {
	case "nearest":
		return draw.NearestNeighbor
	case "bilinear":
		return draw.BiLinear
	default:
		return draw.CatmullRom
	}
}

// toGray maps value into the window. NaN voxels are drawn black.
func toGray(value, lo, hi float64) uint8 {
	if math.IsNaN(value) || hi <= lo {
		return 0
	}
	t := (value - lo) / (hi - lo)
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 255
	}
	return uint8(t*255 + 0.5)
}

func drawTitle(dst draw.Image, title string) {
	face := basicfont.Face7x13
	if dst.Bounds().Dy() < face.Height || dst.Bounds().Dx() < face.Width {
		return
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(2, face.Ascent+1),
	}
	d.DrawString(title)
}
