// Package session ties a VolumeView and an annotation Store together for one
// browsing session over a folder of volumes.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	"niiexplorer/internal/models"
	"niiexplorer/pkg/annotation"
	"niiexplorer/pkg/nifti"
	"niiexplorer/pkg/visualization"
)

// ErrUnknownFile is returned when selecting a file that is not in the folder.
var ErrUnknownFile = errors.New("unknown file")

// Decoder reads a volume from a file path.
type Decoder interface {
	Decode(path string) (*models.Volume, error)
}

// SequenceSaver writes a set of slices of a volume to a directory.
type SequenceSaver interface {
	SaveSliceSequence(vol *models.Volume, axis models.Axis, indices []int, zoom int, outputDir string) ([]string, error)
}

// Options configures a Session
type Options struct {
	Axis    models.Axis
	Zoom    int
	ZoomMin int
	ZoomMax int

	// Extensions are the filename suffixes listed from a folder
	Extensions []string

	// AnnotationFile is the name of the annotation file at the folder root
	AnnotationFile string

	// ExportSuffix is appended to a filename for single-file exports
	ExportSuffix string
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		Axis:           models.Axial,
		Zoom:           100,
		ZoomMin:        10,
		ZoomMax:        500,
		Extensions:     nifti.DefaultExtensions,
		AnnotationFile: "annotations.json",
		ExportSuffix:   "_annotation.json",
	}
}

// Session is the state of one interactive session: the open folder, the
// selected file, the view of its volume and the annotations. Navigation,
// confirm and export calls made before a file is selected do nothing.
type Session struct {
	opts     Options
	decoder  Decoder
	renderer visualization.Renderer
	logger   *slog.Logger

	folder  string
	files   []string
	current int

	view  *visualization.VolumeView
	store *annotation.Store
}

// New creates a session. renderer may be nil, in which case nothing is drawn.
func New(decoder Decoder, renderer visualization.Renderer, logger *slog.Logger, opts Options) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.AnnotationFile == "" {
		opts.AnnotationFile = DefaultOptions().AnnotationFile
	}
	if opts.ExportSuffix == "" {
		opts.ExportSuffix = DefaultOptions().ExportSuffix
	}
	return &Session{
		opts:     opts,
		decoder:  decoder,
		renderer: renderer,
		logger:   logger,
		current:  -1,
		view:     visualization.NewVolumeView(opts.Axis, opts.Zoom, opts.ZoomMin, opts.ZoomMax),
		store:    annotation.NewStore(),
	}
}

// OpenFolder lists the volumes in dir, loads the folder's annotation file if
// there is one and selects the first volume. An unreadable annotation file
// is logged and the session continues without annotations.
func (s *Session) OpenFolder(dir string) error {
	files, err := nifti.ListVolumes(dir, s.opts.Extensions)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}

	s.folder = dir
	s.files = files
	s.current = -1
	s.view = visualization.NewVolumeView(s.view.Axis(), s.view.Zoom(), s.opts.ZoomMin, s.opts.ZoomMax)
	s.store = annotation.NewStore()

	annotationsPath := s.AnnotationsPath()
	if err := s.store.LoadFrom(annotationsPath); err != nil {
		s.logger.Warn("failed to load annotations, starting empty", "path", annotationsPath, "error", err)
		s.store = annotation.NewStore()
	}
	s.store.Register(files...)

	s.logger.Debug("opened folder", "folder", dir, "volumes", len(files), "annotated", s.annotatedCount())

	if len(files) == 0 {
		return nil
	}
	return s.SelectIndex(0)
}

// Folder returns the open folder, or "" before OpenFolder
func (s *Session) Folder() string { return s.folder }

// Files returns the volumes of the open folder, sorted
func (s *Session) Files() []string {
	return append([]string(nil), s.files...)
}

// Current returns the selected filename and its position in Files
func (s *Session) Current() (name string, position int, ok bool) {
	if s.current < 0 {
		return "", -1, false
	}
	return s.files[s.current], s.current, true
}

// View returns the view of the selected volume
func (s *Session) View() *visualization.VolumeView { return s.view }

// Store returns the session's annotations
func (s *Session) Store() *annotation.Store { return s.store }

// AnnotationsPath returns the location of the folder's annotation file
func (s *Session) AnnotationsPath() string {
	return filepath.Join(s.folder, s.opts.AnnotationFile)
}

// Select makes name the current file and loads its volume. Decode errors
// are returned and leave the previous selection in place.
func (s *Session) Select(name string) error {
	for i, f := range s.files {
		if f == name {
			return s.SelectIndex(i)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownFile, name)
}

// SelectIndex selects the file at position i of Files
func (s *Session) SelectIndex(i int) error {
	if i < 0 || i >= len(s.files) {
		return fmt.Errorf("%w: no file at position %d", ErrUnknownFile, i)
	}

	name := s.files[i]
	start := time.Now()
	vol, err := s.decoder.Decode(filepath.Join(s.folder, name))
	if err != nil {
		return err
	}
	if err := s.view.Load(vol); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	s.current = i

	s.logger.Debug("loaded volume", "file", name, "shape", vol.Shape(), "elapsed", time.Since(start))
	return s.render()
}

// NextFile selects the following file. It stays on the last one.
func (s *Session) NextFile() error {
	if s.current < 0 || s.current+1 >= len(s.files) {
		return nil
	}
	return s.SelectIndex(s.current + 1)
}

// PrevFile selects the preceding file. It stays on the first one.
func (s *Session) PrevFile() error {
	if s.current <= 0 {
		return nil
	}
	return s.SelectIndex(s.current - 1)
}

// SetAxis switches the slicing axis
func (s *Session) SetAxis(axis models.Axis) error {
	if !s.view.SetAxis(axis) {
		return nil
	}
	return s.render()
}

// SetIndex moves to slice idx, clamped into range
func (s *Session) SetIndex(idx int) error {
	if !s.view.Loaded() {
		return nil
	}
	s.view.SetIndex(idx)
	return s.render()
}

// Scroll moves one slice in the direction of delta
func (s *Session) Scroll(delta int) error {
	if !s.view.Loaded() {
		return nil
	}
	s.view.Step(delta)
	return s.render()
}

// SetZoom changes the display zoom in percent, clamped into range
func (s *Session) SetZoom(percent int) error {
	if !s.view.Loaded() {
		return nil
	}
	s.view.SetZoom(percent)
	return s.render()
}

// Confirm records the current axis and index for the current file. It
// reports whether a new index was recorded.
func (s *Session) Confirm() bool {
	name, _, ok := s.Current()
	if !ok || !s.view.Loaded() {
		return false
	}
	changed := s.store.Confirm(name, s.view.Axis(), s.view.Index())
	if changed {
		s.logger.Debug("confirmed slice", "file", name, "axis", s.view.Axis().String(), "index", s.view.Index())
	}
	return changed
}

// Describe returns the annotations of the current file for display, or ""
// when no file is selected.
func (s *Session) Describe() string {
	name, _, ok := s.Current()
	if !ok {
		return ""
	}
	return fmt.Sprintf("File: %s\n%s", name, s.store.Describe(name))
}

// Status returns a one-line summary of the navigation state
func (s *Session) Status() string {
	name, pos, ok := s.Current()
	if !ok {
		return "no file selected"
	}
	return fmt.Sprintf("%s [%d/%d] %s %d/%d zoom %d%%",
		name, pos+1, len(s.files), s.view.Axis(), s.view.Index(), s.view.MaxIndex(), s.view.Zoom())
}

// ExportCurrent writes the current file's annotations next to it and
// returns the written path. It does nothing when no file is selected.
func (s *Session) ExportCurrent() (string, error) {
	name, _, ok := s.Current()
	if !ok {
		return "", nil
	}
	path := filepath.Join(s.folder, name+s.opts.ExportSuffix)
	if err := s.store.ExportOne(name, path); err != nil {
		if errors.Is(err, annotation.ErrNothingToExport) {
			return "", nil
		}
		return "", err
	}
	s.logger.Info("exported annotations", "file", name, "path", path)
	return path, nil
}

// ExportAll writes all annotations to the folder's annotation file and
// returns its path. It does nothing when no file is selected.
func (s *Session) ExportAll() (string, error) {
	if _, _, ok := s.Current(); !ok {
		return "", nil
	}
	path := s.AnnotationsPath()
	if err := s.store.ExportAll(path); err != nil {
		return "", err
	}
	s.logger.Info("exported annotations", "files", s.store.Len(), "path", path)
	return path, nil
}

// ExportConfirmedSlices writes an image of every confirmed slice of the
// current file into dir, one subdirectory per axis.
func (s *Session) ExportConfirmedSlices(dir string) ([]string, error) {
	name, _, ok := s.Current()
	if !ok {
		return nil, nil
	}
	saver, ok := s.renderer.(SequenceSaver)
	if !ok {
		return nil, fmt.Errorf("renderer cannot save slice images")
	}

	rec := s.store.Describe(name)
	var written []string
	for _, axis := range models.Axes {
		indices := rec.Indices(axis)
		if len(indices) == 0 {
			continue
		}
		files, err := saver.SaveSliceSequence(s.view.Volume(), axis, indices, s.view.Zoom(), filepath.Join(dir, name, axis.String()))
		written = append(written, files...)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func (s *Session) render() error {
	if s.renderer == nil {
		return nil
	}
	slice, ok := s.view.CurrentSlice()
	if !ok {
		return nil
	}
	w, h := s.view.Extent()
	return s.renderer.Render(slice, int(math.Round(w)), int(math.Round(h)))
}

func (s *Session) annotatedCount() int {
	n := 0
	for _, rec := range s.store.Snapshot() {
		if !rec.Empty() {
			n++
		}
	}
	return n
}
