package cache

import (
	"errors"
	"testing"
	"time"

	"niiexplorer/internal/models"
)

type countingDecoder struct {
	calls map[string]int
	fail  bool
}

func (d *countingDecoder) Decode(path string) (*models.Volume, error) {
	d.calls[path]++
	if d.fail {
		return nil, errors.New("decode failed")
	}
	return models.NewVolume(2, 2, 2), nil
}

func TestVolumeCacheHit(t *testing.T) {
	dec := &countingDecoder{calls: map[string]int{}}
	c := NewVolumeCache(dec, time.Minute, time.Minute)

	first, err := c.Decode("scan.nii")
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	second, err := c.Decode("./scan.nii")
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	if first != second {
		t.Error("Expected the cached volume to be returned")
	}
	if dec.calls["scan.nii"] != 1 {
		t.Errorf("Expected 1 decode, got %d", dec.calls["scan.nii"])
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 cached volume, got %d", c.Len())
	}

	c.Forget("scan.nii")
	if _, err := c.Decode("scan.nii"); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if dec.calls["scan.nii"] != 2 {
		t.Errorf("Expected a second decode after Forget, got %d", dec.calls["scan.nii"])
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Expected empty cache after Clear, got %d", c.Len())
	}
}

func TestVolumeCacheExpiry(t *testing.T) {
	dec := &countingDecoder{calls: map[string]int{}}
	c := NewVolumeCache(dec, 10*time.Millisecond, time.Minute)

	if _, err := c.Decode("scan.nii"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := c.Decode("scan.nii"); err != nil {
		t.Fatal(err)
	}

	if dec.calls["scan.nii"] != 2 {
		t.Errorf("Expected expired entry to be decoded again, got %d calls", dec.calls["scan.nii"])
	}
}

func TestVolumeCacheDoesNotCacheErrors(t *testing.T) {
	dec := &countingDecoder{calls: map[string]int{}, fail: true}
	c := NewVolumeCache(dec, time.Minute, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := c.Decode("bad.nii"); err == nil {
			t.Error("Expected error, got nil")
		}
	}
	if dec.calls["bad.nii"] != 2 {
		t.Errorf("Expected 2 decode attempts, got %d", dec.calls["bad.nii"])
	}
	if c.Len() != 0 {
		t.Errorf("Expected nothing cached, got %d", c.Len())
	}
}
