package nifti

import (
	"os"
	"sort"
	"strings"
)

// DefaultExtensions are the filename suffixes recognized as volumes.
var DefaultExtensions = []string{".nii", ".nii.gz"}

// ListVolumes returns the sorted names of regular files in dir whose name
// ends with one of exts. Subdirectories are not descended into.
func ListVolumes(dir string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if hasSuffix(entry.Name(), exts) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func hasSuffix(name string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
