// Package nifti decodes single-file NIfTI-1 volumes (.nii and .nii.gz) into
// models.Volume values.
package nifti

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"niiexplorer/internal/models"
)

const headerSize = 348

// ErrUnsupported is returned for valid NIfTI files this decoder cannot read.
var ErrUnsupported = errors.New("unsupported nifti file")

// NIfTI-1 datatype codes.
const (
	dtUint8   = 2
	dtInt16   = 4
	dtInt32   = 8
	dtFloat32 = 16
	dtFloat64 = 64
	dtInt8    = 256
	dtUint16  = 512
	dtUint32  = 768
	dtInt64   = 1024
	dtUint64  = 1280
)

// header mirrors the 348-byte NIfTI-1 header layout.
type header struct {
	SizeofHdr     int32
	DataType      [10]byte
	DBName        [18]byte
	Extents       int32
	SessionError  int16
	Regular       byte
	DimInfo       byte
	Dim           [8]int16
	IntentP1      float32
	IntentP2      float32
	IntentP3      float32
	IntentCode    int16
	Datatype      int16
	Bitpix        int16
	SliceStart    int16
	Pixdim        [8]float32
	VoxOffset     float32
	SclSlope      float32
	SclInter      float32
	SliceEnd      int16
	SliceCode     byte
	XYZTUnits     byte
	CalMax        float32
	CalMin        float32
	SliceDuration float32
	TOffset       float32
	GLMax         int32
	GLMin         int32
	Descrip       [80]byte
	AuxFile       [24]byte
	QformCode     int16
	SformCode     int16
	QuaternB      float32
	QuaternC      float32
	QuaternD      float32
	QOffsetX      float32
	QOffsetY      float32
	QOffsetZ      float32
	SrowX         [4]float32
	SrowY         [4]float32
	SrowZ         [4]float32
	IntentName    [16]byte
	Magic         [4]byte
}

// Decoder reads volume files from disk.
type Decoder struct{}

// Decode reads the volume at path. Files ending in .gz are decompressed.
func (Decoder) Decode(path string) (*models.Volume, error) {
	return Decode(path)
}

// Decode reads the volume at path. Files ending in .gz are decompressed.
func Decode(path string) (*models.Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	vol, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return vol, nil
}

// Read decodes an uncompressed NIfTI-1 stream. Only the first frame of 4D
// data is kept.
func Read(r io.Reader) (*models.Volume, error) {
	raw := make([]byte, headerSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	order, err := detectByteOrder(raw)
	if err != nil {
		return nil, err
	}

	var hdr header
	if err := binary.Read(bytes.NewReader(raw), order, &hdr); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	magic := string(hdr.Magic[:3])
	switch magic {
	case "n+1":
	case "ni1":
		return nil, fmt.Errorf("%w: separate .hdr/.img pairs are not supported", ErrUnsupported)
	default:
		return nil, fmt.Errorf("invalid magic %q", magic)
	}

	shape, err := volumeShape(hdr.Dim)
	if err != nil {
		return nil, err
	}

	bytesPer, err := sampleSize(hdr.Datatype)
	if err != nil {
		return nil, err
	}

	// skip to the voxel data; the stream may not be seekable
	offset := int64(hdr.VoxOffset)
	if offset < headerSize {
		offset = headerSize
	}
	if _, err := io.CopyN(io.Discard, r, offset-headerSize); err != nil {
		return nil, fmt.Errorf("failed to skip to voxel data: %w", err)
	}

	// the header size is untrusted, so the buffer grows with the data read
	n := shape[0] * shape[1] * shape[2]
	want := int64(n) * int64(bytesPer)
	buf, err := io.ReadAll(io.LimitReader(r, want))
	if err != nil {
		return nil, fmt.Errorf("failed to read %d voxels: %w", n, err)
	}
	if int64(len(buf)) < want {
		return nil, fmt.Errorf("failed to read %d voxels: %w", n, io.ErrUnexpectedEOF)
	}

	vol := &models.Volume{
		Data:   make([]float64, n),
		Width:  shape[0],
		Height: shape[1],
		Depth:  shape[2],
	}
	vol.VoxelSize.X = float64(hdr.Pixdim[1])
	vol.VoxelSize.Y = float64(hdr.Pixdim[2])
	vol.VoxelSize.Z = float64(hdr.Pixdim[3])

	convert(vol.Data, buf, hdr.Datatype, order)

	// scl_slope of 0 means no scaling
	slope, inter := float64(hdr.SclSlope), float64(hdr.SclInter)
	if slope != 0 && !math.IsNaN(slope) && !(slope == 1 && inter == 0) {
		for i, v := range vol.Data {
			vol.Data[i] = v*slope + inter
		}
	}

	return vol, nil
}

func detectByteOrder(raw []byte) (binary.ByteOrder, error) {
	if binary.LittleEndian.Uint32(raw[:4]) == headerSize {
		return binary.LittleEndian, nil
	}
	if binary.BigEndian.Uint32(raw[:4]) == headerSize {
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("not a nifti-1 file: sizeof_hdr is not %d", headerSize)
}

func volumeShape(dim [8]int16) ([3]int, error) {
	rank := int(dim[0])
	if rank < 1 || rank > 7 {
		return [3]int{}, fmt.Errorf("invalid dimension count %d", rank)
	}
	shape := [3]int{1, 1, 1}
	for i := 0; i < 3 && i < rank; i++ {
		if dim[i+1] <= 0 {
			return [3]int{}, fmt.Errorf("invalid extent %d along dimension %d", dim[i+1], i)
		}
		shape[i] = int(dim[i+1])
	}
	return shape, nil
}

func sampleSize(datatype int16) (int, error) {
	switch datatype {
	case dtUint8, dtInt8:
		return 1, nil
	case dtInt16, dtUint16:
		return 2, nil
	case dtInt32, dtUint32, dtFloat32:
		return 4, nil
	case dtInt64, dtUint64, dtFloat64:
		return 8, nil
	}
	return 0, fmt.Errorf("%w: datatype %d", ErrUnsupported, datatype)
}

func convert(dst []float64, src []byte, datatype int16, order binary.ByteOrder) {
	for i := range dst {
		switch datatype {
		case dtUint8:
			dst[i] = float64(src[i])
		case dtInt8:
			dst[i] = float64(int8(src[i]))
		case dtInt16:
			dst[i] = float64(int16(order.Uint16(src[i*2:])))
		case dtUint16:
			dst[i] = float64(order.Uint16(src[i*2:]))
		case dtInt32:
			dst[i] = float64(int32(order.Uint32(src[i*4:])))
		case dtUint32:
			dst[i] = float64(order.Uint32(src[i*4:]))
		case dtFloat32:
			dst[i] = float64(math.Float32frombits(order.Uint32(src[i*4:])))
		case dtInt64:
			dst[i] = float64(int64(order.Uint64(src[i*8:])))
		case dtUint64:
			dst[i] = float64(order.Uint64(src[i*8:]))
		case dtFloat64:
			dst[i] = math.Float64frombits(order.Uint64(src[i*8:]))
		}
	}
}
