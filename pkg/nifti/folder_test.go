package nifti

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestListVolumes(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"b.nii.gz", "a.nii", "notes.txt", "c.nii.bak", "annotations.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.nii"), 0755); err != nil {
		t.Fatal(err)
	}

	names, err := ListVolumes(dir, nil)
	if err != nil {
		t.Fatalf("Failed to list volumes: %v", err)
	}

	want := []string{"a.nii", "b.nii.gz"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Expected %v, got %v", want, names)
	}

	names, err = ListVolumes(dir, []string{".txt"})
	if err != nil {
		t.Fatalf("Failed to list volumes: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"notes.txt"}) {
		t.Errorf("Expected [notes.txt], got %v", names)
	}
}

func TestListVolumesMissingDir(t *testing.T) {
	if _, err := ListVolumes(filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Error("Expected error for missing directory, got nil")
	}
}
