package visualization

import (
	"errors"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/gonum/mat"

	"niiexplorer/internal/models"
)

// ErrEmptyVolume is returned when loading a volume with no voxels or with
// data that does not match its shape.
var ErrEmptyVolume = errors.New("volume is empty or malformed")

// Slice is a 2D cut through a volume at a fixed index along one axis.
type Slice struct {
	Axis  models.Axis
	Index int

	// Data holds the slice with the two remaining volume dimensions as rows
	// and columns, in volume order: axial is (X, Y), coronal is (X, Z) and
	// sagittal is (Y, Z).
	Data *mat.Dense
}

// Dims returns the number of rows and columns of the slice data.
func (s *Slice) Dims() (rows, cols int) {
	return s.Data.Dims()
}

// Oriented returns the slice rotated 90 degrees counter-clockwise, which is
// how slices are displayed.
func (s *Slice) Oriented() *mat.Dense {
	r, c := s.Data.Dims()
	out := mat.NewDense(c, r, nil)
	for i := 0; i < c; i++ {
		for j := 0; j < r; j++ {
			out.Set(i, j, s.Data.At(j, c-1-i))
		}
	}
	return out
}

// Title returns the display title, e.g. "Axial slice 15".
func (s *Slice) Title() string {
	return fmt.Sprintf("%s slice %d", cases.Title(language.English).String(s.Axis.String()), s.Index)
}

// ExtractSlice extracts a 2D slice from the volume along the given axis
func ExtractSlice(vol *models.Volume, axis models.Axis, position int) (*Slice, error) {
	if !vol.Valid() {
		return nil, ErrEmptyVolume
	}
	if !axis.Valid() {
		return nil, fmt.Errorf("invalid axis: %v", axis)
	}
	if position < 0 || position >= vol.Extent(axis) {
		return nil, fmt.Errorf("position %d outside [0, %d] for %s axis", position, vol.Extent(axis)-1, axis)
	}

	var data *mat.Dense
	switch axis {
	case models.Axial:
		data = mat.NewDense(vol.Width, vol.Height, nil)
		for x := 0; x < vol.Width; x++ {
			for y := 0; y < vol.Height; y++ {
				data.Set(x, y, vol.At(x, y, position))
			}
		}
	case models.Coronal:
		data = mat.NewDense(vol.Width, vol.Depth, nil)
		for x := 0; x < vol.Width; x++ {
			for z := 0; z < vol.Depth; z++ {
				data.Set(x, z, vol.At(x, position, z))
			}
		}
	case models.Sagittal:
		data = mat.NewDense(vol.Height, vol.Depth, nil)
		for y := 0; y < vol.Height; y++ {
			for z := 0; z < vol.Depth; z++ {
				data.Set(y, z, vol.At(position, y, z))
			}
		}
	}

	return &Slice{Axis: axis, Index: position, Data: data}, nil
}

// VolumeView holds the currently loaded volume and the navigation state used
// to derive the slice on display. Until a volume is loaded every operation
// other than Load is a no-op.
type VolumeView struct {
	volume *models.Volume

	axis  models.Axis
	index int

	// zoom is the display scale in percent, kept within [zoomMin, zoomMax]
	zoom    int
	zoomMin int
	zoomMax int
}

// NewVolumeView creates a view that slices along axis once a volume is
// loaded. zoom is clamped into [zoomMin, zoomMax].
func NewVolumeView(axis models.Axis, zoom, zoomMin, zoomMax int) *VolumeView {
	if zoomMin <= 0 {
		zoomMin = 1
	}
	if zoomMax < zoomMin {
		zoomMax = zoomMin
	}
	if !axis.Valid() {
		axis = models.Axial
	}
	return &VolumeView{
		axis:    axis,
		zoom:    clamp(zoom, zoomMin, zoomMax),
		zoomMin: zoomMin,
		zoomMax: zoomMax,
	}
}

// Load replaces the held volume. The axis and zoom are kept and the index
// is reset to the middle of the axis range.
func (v *VolumeView) Load(vol *models.Volume) error {
	if !vol.Valid() {
		return ErrEmptyVolume
	}
	v.volume = vol
	v.index = v.midpoint()
	return nil
}

// Loaded reports whether a volume has been loaded
func (v *VolumeView) Loaded() bool {
	return v.volume != nil
}

// Volume returns the loaded volume, or nil
func (v *VolumeView) Volume() *models.Volume {
	return v.volume
}

func (v *VolumeView) Axis() models.Axis { return v.axis }
func (v *VolumeView) Index() int        { return v.index }
func (v *VolumeView) Zoom() int         { return v.zoom }

// MaxIndex returns the largest valid index for the current axis, or -1 when
// no volume is loaded.
func (v *VolumeView) MaxIndex() int {
	if v.volume == nil {
		return -1
	}
	return v.volume.Extent(v.axis) - 1
}

// SetAxis selects the sliced dimension and resets the index to the middle of
// the new range. It reports whether anything changed.
func (v *VolumeView) SetAxis(axis models.Axis) bool {
	if v.volume == nil || !axis.Valid() {
		return false
	}
	v.axis = axis
	v.index = v.midpoint()
	return true
}

// SetIndex clamps idx into the valid range for the current axis and returns
// the resulting index.
func (v *VolumeView) SetIndex(idx int) int {
	if v.volume == nil {
		return v.index
	}
	v.index = clamp(idx, 0, v.MaxIndex())
	return v.index
}

// Step moves the index one position in the direction of delta. The
// magnitude of delta is ignored.
func (v *VolumeView) Step(delta int) int {
	switch {
	case delta > 0:
		return v.SetIndex(v.index + 1)
	case delta < 0:
		return v.SetIndex(v.index - 1)
	}
	return v.index
}

// SetZoom stores the display zoom in percent, clamped into the configured
// bounds, and returns the stored value.
func (v *VolumeView) SetZoom(percent int) int {
	if v.volume == nil {
		return v.zoom
	}
	v.zoom = clamp(percent, v.zoomMin, v.zoomMax)
	return v.zoom
}

// CurrentSlice returns the slice at the current axis and index. It returns
// false when no volume is loaded.
func (v *VolumeView) CurrentSlice() (*Slice, bool) {
	if v.volume == nil {
		return nil, false
	}
	s, err := ExtractSlice(v.volume, v.axis, v.index)
	if err != nil {
		return nil, false
	}
	return s, true
}

// Extent returns the suggested rendered width and height of the current
// slice: its row and column counts scaled by the zoom.
func (v *VolumeView) Extent() (width, height float64) {
	if v.volume == nil {
		return 0, 0
	}
	shape := v.volume.Shape()
	var rows, cols int
	switch v.axis {
	case models.Axial:
		rows, cols = shape[0], shape[1]
	case models.Coronal:
		rows, cols = shape[0], shape[2]
	case models.Sagittal:
		rows, cols = shape[1], shape[2]
	}
	scale := float64(v.zoom) / 100
	return float64(rows) * scale, float64(cols) * scale
}

func (v *VolumeView) midpoint() int {
	return v.MaxIndex() / 2
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
