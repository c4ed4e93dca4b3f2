package nifti

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// encodeVolume builds an n+1 NIfTI stream with the given datatype and dims.
func encodeVolume(t *testing.T, order binary.ByteOrder, datatype int16, dims []int16, values []float64) []byte {
	t.Helper()

	var hdr header
	hdr.SizeofHdr = headerSize
	hdr.Dim[0] = int16(len(dims))
	copy(hdr.Dim[1:], dims)
	hdr.Datatype = datatype
	hdr.Pixdim = [8]float32{1, 1.5, 2, 2.5, 1, 1, 1, 1}
	hdr.VoxOffset = 352
	copy(hdr.Magic[:], "n+1\x00")

	var buf bytes.Buffer
	if err := binary.Write(&buf, order, &hdr); err != nil {
		t.Fatalf("Failed to write header: %v", err)
	}
	buf.Write([]byte{0, 0, 0, 0})

	for _, v := range values {
		var err error
		switch datatype {
		case dtUint8:
			err = binary.Write(&buf, order, uint8(v))
		case dtInt8:
			err = binary.Write(&buf, order, int8(v))
		case dtInt16:
			err = binary.Write(&buf, order, int16(v))
		case dtUint16:
			err = binary.Write(&buf, order, uint16(v))
		case dtInt32:
			err = binary.Write(&buf, order, int32(v))
		case dtUint32:
			err = binary.Write(&buf, order, uint32(v))
		case dtFloat32:
			err = binary.Write(&buf, order, float32(v))
		case dtInt64:
			err = binary.Write(&buf, order, int64(v))
		case dtUint64:
			err = binary.Write(&buf, order, uint64(v))
		case dtFloat64:
			err = binary.Write(&buf, order, v)
		}
		if err != nil {
			t.Fatalf("Failed to write voxel: %v", err)
		}
	}
	return buf.Bytes()
}

func rampValues(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i)
	}
	return values
}

// TestReadDatatypes verifies each supported datatype decodes to the same ramp
func TestReadDatatypes(t *testing.T) {
	datatypes := map[string]int16{
		"uint8":   dtUint8,
		"int8":    dtInt8,
		"int16":   dtInt16,
		"uint16":  dtUint16,
		"int32":   dtInt32,
		"uint32":  dtUint32,
		"float32": dtFloat32,
		"int64":   dtInt64,
		"uint64":  dtUint64,
		"float64": dtFloat64,
	}

	dims := []int16{2, 3, 4}
	values := rampValues(24)

	for name, dt := range datatypes {
		t.Run(name, func(t *testing.T) {
			vol, err := Read(bytes.NewReader(encodeVolume(t, binary.LittleEndian, dt, dims, values)))
			if err != nil {
				t.Fatalf("Failed to read volume: %v", err)
			}

			if vol.Width != 2 || vol.Height != 3 || vol.Depth != 4 {
				t.Fatalf("Expected shape 2x3x4, got %v", vol.Shape())
			}
			for i, want := range values {
				if vol.Data[i] != want {
					t.Fatalf("Voxel %d: expected %f, got %f", i, want, vol.Data[i])
				}
			}
		})
	}
}

func TestReadBigEndian(t *testing.T) {
	values := []float64{-3, 0, 7, 1000}
	vol, err := Read(bytes.NewReader(encodeVolume(t, binary.BigEndian, dtInt16, []int16{2, 2, 1}, values)))
	if err != nil {
		t.Fatalf("Failed to read big-endian volume: %v", err)
	}
	for i, want := range values {
		if vol.Data[i] != want {
			t.Errorf("Voxel %d: expected %f, got %f", i, want, vol.Data[i])
		}
	}
	if vol.VoxelSize.X != 1.5 || vol.VoxelSize.Z != 2.5 {
		t.Errorf("Unexpected voxel size %+v", vol.VoxelSize)
	}
}

func TestReadScaling(t *testing.T) {
	raw := encodeVolume(t, binary.LittleEndian, dtUint8, []int16{2, 1, 1}, []float64{1, 2})

	// scl_slope at offset 112, scl_inter at 116
	binary.LittleEndian.PutUint32(raw[112:], math.Float32bits(2))
	binary.LittleEndian.PutUint32(raw[116:], math.Float32bits(10))

	vol, err := Read(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Failed to read volume: %v", err)
	}
	if vol.Data[0] != 12 || vol.Data[1] != 14 {
		t.Errorf("Expected scaled values [12 14], got %v", vol.Data)
	}
}

func TestReadFourDimensionalKeepsFirstFrame(t *testing.T) {
	values := rampValues(16)
	vol, err := Read(bytes.NewReader(encodeVolume(t, binary.LittleEndian, dtFloat32, []int16{2, 2, 2, 2}, values)))
	if err != nil {
		t.Fatalf("Failed to read 4D volume: %v", err)
	}
	if len(vol.Data) != 8 {
		t.Fatalf("Expected 8 voxels from first frame, got %d", len(vol.Data))
	}
	if vol.Data[7] != 7 {
		t.Errorf("Expected last voxel of first frame to be 7, got %f", vol.Data[7])
	}
}

func TestReadTwoDimensional(t *testing.T) {
	vol, err := Read(bytes.NewReader(encodeVolume(t, binary.LittleEndian, dtUint8, []int16{3, 2}, rampValues(6))))
	if err != nil {
		t.Fatalf("Failed to read 2D image: %v", err)
	}
	if vol.Depth != 1 {
		t.Errorf("Expected depth 1, got %d", vol.Depth)
	}
}

func TestReadErrors(t *testing.T) {
	good := encodeVolume(t, binary.LittleEndian, dtUint8, []int16{2, 2, 2}, rampValues(8))

	t.Run("short header", func(t *testing.T) {
		if _, err := Read(bytes.NewReader(good[:100])); err == nil {
			t.Error("Expected error, got nil")
		}
	})

	t.Run("bad sizeof_hdr", func(t *testing.T) {
		raw := append([]byte(nil), good...)
		binary.LittleEndian.PutUint32(raw, 12)
		if _, err := Read(bytes.NewReader(raw)); err == nil {
			t.Error("Expected error, got nil")
		}
	})

	t.Run("pair file", func(t *testing.T) {
		raw := append([]byte(nil), good...)
		copy(raw[344:], "ni1\x00")
		if _, err := Read(bytes.NewReader(raw)); !errors.Is(err, ErrUnsupported) {
			t.Errorf("Expected ErrUnsupported, got %v", err)
		}
	})

	t.Run("unknown datatype", func(t *testing.T) {
		raw := append([]byte(nil), good...)
		binary.LittleEndian.PutUint16(raw[70:], 2304)
		if _, err := Read(bytes.NewReader(raw)); !errors.Is(err, ErrUnsupported) {
			t.Errorf("Expected ErrUnsupported, got %v", err)
		}
	})

	t.Run("oversized dims", func(t *testing.T) {
		raw := encodeVolume(t, binary.LittleEndian, dtFloat64, []int16{32767, 32767, 32767}, rampValues(3))
		if _, err := Read(bytes.NewReader(raw)); !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("Expected io.ErrUnexpectedEOF, got %v", err)
		}
	})

	t.Run("truncated data", func(t *testing.T) {
		if _, err := Read(bytes.NewReader(good[:len(good)-3])); err == nil {
			t.Error("Expected error, got nil")
		}
	})
}

// TestDecodeFiles verifies plain and gzip-compressed files on disk
func TestDecodeFiles(t *testing.T) {
	dir := t.TempDir()
	raw := encodeVolume(t, binary.LittleEndian, dtInt16, []int16{4, 3, 2}, rampValues(24))

	plain := filepath.Join(dir, "scan.nii")
	if err := os.WriteFile(plain, raw, 0644); err != nil {
		t.Fatal(err)
	}

	var zipped bytes.Buffer
	gz := gzip.NewWriter(&zipped)
	if _, err := gz.Write(raw); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	compressed := filepath.Join(dir, "scan.nii.gz")
	if err := os.WriteFile(compressed, zipped.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{plain, compressed} {
		vol, err := Decoder{}.Decode(path)
		if err != nil {
			t.Fatalf("Failed to decode %s: %v", path, err)
		}
		if vol.Shape() != [3]int{4, 3, 2} {
			t.Errorf("%s: expected shape [4 3 2], got %v", path, vol.Shape())
		}
		if vol.At(3, 2, 1) != 23 {
			t.Errorf("%s: expected last voxel 23, got %f", path, vol.At(3, 2, 1))
		}
	}

	if _, err := Decode(filepath.Join(dir, "missing.nii")); err == nil {
		t.Error("Expected error for missing file, got nil")
	}

	bogus := filepath.Join(dir, "bogus.nii.gz")
	if err := os.WriteFile(bogus, []byte("not gzip"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(bogus); err == nil {
		t.Error("Expected error for invalid gzip stream, got nil")
	}
}
