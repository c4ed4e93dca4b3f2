package models

import "testing"

// TestAxisBinding verifies the fixed axis to dimension mapping
func TestAxisBinding(t *testing.T) {
	tests := []struct {
		axis Axis
		name string
		dim  int
	}{
		{Sagittal, "sagittal", 0},
		{Coronal, "coronal", 1},
		{Axial, "axial", 2},
	}

	for _, tt := range tests {
		if tt.axis.Dim() != tt.dim {
			t.Errorf("Expected %s bound to dimension %d, got %d", tt.name, tt.dim, tt.axis.Dim())
		}
		if tt.axis.String() != tt.name {
			t.Errorf("Expected name %q, got %q", tt.name, tt.axis.String())
		}

		parsed, err := ParseAxis(tt.name)
		if err != nil {
			t.Fatalf("Failed to parse %q: %v", tt.name, err)
		}
		if parsed != tt.axis {
			t.Errorf("Expected %v, got %v", tt.axis, parsed)
		}
	}
}

func TestParseAxis(t *testing.T) {
	if a, err := ParseAxis("  Axial "); err != nil || a != Axial {
		t.Errorf("Expected axial, got %v (err %v)", a, err)
	}

	for _, bad := range []string{"", "x", "transverse"} {
		if _, err := ParseAxis(bad); err == nil {
			t.Errorf("Expected error for %q, got nil", bad)
		}
	}
}

// TestVolumeIndexing verifies x-fastest storage and per-axis extents
func TestVolumeIndexing(t *testing.T) {
	v := NewVolume(10, 20, 30)

	if !v.Valid() {
		t.Fatal("Expected freshly allocated volume to be valid")
	}

	v.Set(3, 4, 5, 42)
	if got := v.Data[3+10*(4+20*5)]; got != 42 {
		t.Errorf("Expected 42 at flat index, got %f", got)
	}
	if got := v.At(3, 4, 5); got != 42 {
		t.Errorf("Expected At to return 42, got %f", got)
	}

	if v.Extent(Sagittal) != 10 || v.Extent(Coronal) != 20 || v.Extent(Axial) != 30 {
		t.Errorf("Unexpected extents %v", v.Shape())
	}
}

func TestVolumeValid(t *testing.T) {
	var nilVol *Volume
	if nilVol.Valid() {
		t.Error("Expected nil volume to be invalid")
	}

	if (&Volume{Width: 0, Height: 1, Depth: 1}).Valid() {
		t.Error("Expected zero-width volume to be invalid")
	}

	short := &Volume{Data: make([]float64, 5), Width: 2, Height: 2, Depth: 2}
	if short.Valid() {
		t.Error("Expected volume with mismatched data length to be invalid")
	}
}
