package models

import (
	"fmt"
	"strings"
)

// Volume represents a 3D scan volume decoded from a NIfTI file
type Volume struct {
	// Data is the 3D volume data as a 1D array with x varying fastest:
	// index = x + Width*(y + Height*z)
	Data []float64

	// Width is the size of the volume along dimension 0 (X)
	Width int

	// Height is the size of the volume along dimension 1 (Y)
	Height int

	// Depth is the size of the volume along dimension 2 (Z)
	Depth int

	// VoxelSize is the physical size of each voxel in mm
	VoxelSize struct {
		X, Y, Z float64
	}
}

// NewVolume allocates a zero-filled volume with the given shape.
func NewVolume(width, height, depth int) *Volume {
	return &Volume{
		Data:   make([]float64, width*height*depth),
		Width:  width,
		Height: height,
		Depth:  depth,
	}
}

// Shape returns the volume extents as (X, Y, Z).
func (v *Volume) Shape() [3]int {
	return [3]int{v.Width, v.Height, v.Depth}
}

// Extent returns the size of the volume along the dimension bound to axis.
func (v *Volume) Extent(axis Axis) int {
	return v.Shape()[axis.Dim()]
}

// At returns the voxel value at (x, y, z). Coordinates are not checked.
func (v *Volume) At(x, y, z int) float64 {
	return v.Data[x+v.Width*(y+v.Height*z)]
}

// Set stores a voxel value at (x, y, z). Coordinates are not checked.
func (v *Volume) Set(x, y, z int, value float64) {
	v.Data[x+v.Width*(y+v.Height*z)] = value
}

// Valid reports whether the volume is non-empty and its data matches its shape.
func (v *Volume) Valid() bool {
	if v == nil || v.Width <= 0 || v.Height <= 0 || v.Depth <= 0 {
		return false
	}
	return len(v.Data) == v.Width*v.Height*v.Depth
}

// Axis is an anatomical viewing plane. Each axis is bound to one volume
// dimension: sagittal to 0, coronal to 1 and axial to 2. The binding is a
// fixed convention and is not checked against the orientation metadata of
// the file.
type Axis int

const (
	Sagittal Axis = iota
	Coronal
	Axial
)

// Axes lists the axes in display and export order.
var Axes = []Axis{Axial, Coronal, Sagittal}

// Dim returns the volume dimension bound to the axis.
func (a Axis) Dim() int {
	return int(a)
}

func (a Axis) String() string {
	switch a {
	case Sagittal:
		return "sagittal"
	case Coronal:
		return "coronal"
	case Axial:
		return "axial"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// Valid reports whether a is one of the three known axes.
func (a Axis) Valid() bool {
	return a >= Sagittal && a <= Axial
}

// ParseAxis resolves an axis name, ignoring case and surrounding space.
func ParseAxis(name string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sagittal":
		return Sagittal, nil
	case "coronal":
		return Coronal, nil
	case "axial":
		return Axial, nil
	}
	return 0, fmt.Errorf("invalid axis: %q (must be axial, coronal, or sagittal)", name)
}
