// Package annotation keeps the slice indices a user has confirmed for each
// volume, per axis, and persists them as JSON.
//
// Nothing is saved automatically. Annotations confirmed during a session are
// lost unless ExportAll or ExportOne is called, and an export that fails
// part way may leave the target file missing; there is no backup or journal.
package annotation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"niiexplorer/internal/models"
)

var (
	// ErrMalformed wraps parse failures of an existing annotation file.
	// Callers treat it as a warning: the store is left as it was.
	ErrMalformed = errors.New("malformed annotation file")

	// ErrNothingToExport is returned by ExportOne for files without a record.
	ErrNothingToExport = errors.New("nothing to export")
)

// Record holds the confirmed indices of one file, one ascending,
// duplicate-free list per axis.
type Record struct {
	Axial    []int `json:"axial"`
	Coronal  []int `json:"coronal"`
	Sagittal []int `json:"sagittal"`
}

// NewRecord returns a record with three empty lists
func NewRecord() Record {
	return Record{Axial: []int{}, Coronal: []int{}, Sagittal: []int{}}
}

// Indices returns the list for axis. The returned slice must not be modified.
func (r Record) Indices(axis models.Axis) []int {
	switch axis {
	case models.Axial:
		return r.Axial
	case models.Coronal:
		return r.Coronal
	case models.Sagittal:
		return r.Sagittal
	}
	return nil
}

// Empty reports whether no index is confirmed on any axis
func (r Record) Empty() bool {
	return len(r.Axial) == 0 && len(r.Coronal) == 0 && len(r.Sagittal) == 0
}

// Total returns the number of confirmed indices across all axes
func (r Record) Total() int {
	return len(r.Axial) + len(r.Coronal) + len(r.Sagittal)
}

// String formats the record one axis per line, e.g. "Axial: [1, 3, 5]".
// Axes without indices show N/A.
func (r Record) String() string {
	var sb strings.Builder
	for i, axis := range models.Axes {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(axisLabel(axis))
		sb.WriteString(": ")
		sb.WriteString(FormatIndices(r.Indices(axis)))
	}
	return sb.String()
}

// FormatIndices renders indices as "[1, 3, 5]", or "N/A" when empty
func FormatIndices(indices []int) string {
	if len(indices) == 0 {
		return "N/A"
	}
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = fmt.Sprint(idx)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (r *Record) list(axis models.Axis) *[]int {
	switch axis {
	case models.Axial:
		return &r.Axial
	case models.Coronal:
		return &r.Coronal
	case models.Sagittal:
		return &r.Sagittal
	}
	return nil
}

func (r Record) clone() Record {
	return Record{
		Axial:    append([]int{}, r.Axial...),
		Coronal:  append([]int{}, r.Coronal...),
		Sagittal: append([]int{}, r.Sagittal...),
	}
}

// Store maps volume filenames to their records. It is not safe for
// concurrent use.
type Store struct {
	records map[string]*Record
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{records: make(map[string]*Record)}
}

// Load reads the annotation file at path into a new store. Unlike LoadFrom,
// a missing or malformed file is an error.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := NewStore()
	if err := s.merge(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// LoadFrom merges the annotation file at path into the store. A missing
// file is not an error. A file that cannot be parsed leaves the store
// unchanged and yields an error wrapping ErrMalformed.
func (s *Store) LoadFrom(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read annotation file: %w", err)
	}
	if err := s.merge(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (s *Store) merge(data []byte) error {
	var parsed map[string]Record
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if parsed == nil {
		return fmt.Errorf("%w: expected an object", ErrMalformed)
	}

	for filename, rec := range parsed {
		target := s.ensure(filename)
		for _, axis := range models.Axes {
			for _, idx := range rec.Indices(axis) {
				if idx >= 0 {
					insert(target.list(axis), idx)
				}
			}
		}
	}
	return nil
}

// Register makes sure every filename has a record, creating empty ones as
// needed, so that exports list all files of a folder.
func (s *Store) Register(filenames ...string) {
	for _, name := range filenames {
		s.ensure(name)
	}
}

// Confirm records index on axis for filename. It reports whether the store
// changed; confirming an index twice has no further effect.
func (s *Store) Confirm(filename string, axis models.Axis, index int) bool {
	if !axis.Valid() || index < 0 {
		return false
	}
	return insert(s.ensure(filename).list(axis), index)
}

// Describe returns a copy of the record for filename, or an empty record
func (s *Store) Describe(filename string) Record {
	rec, ok := s.records[filename]
	if !ok {
		return NewRecord()
	}
	return rec.clone()
}

// Has reports whether filename has a record
func (s *Store) Has(filename string) bool {
	_, ok := s.records[filename]
	return ok
}

// Files returns the filenames with a record, sorted
func (s *Store) Files() []string {
	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of records
func (s *Store) Len() int {
	return len(s.records)
}

// Snapshot returns a deep copy of every record
func (s *Store) Snapshot() map[string]Record {
	out := make(map[string]Record, len(s.records))
	for name, rec := range s.records {
		out[name] = rec.clone()
	}
	return out
}

// ExportAll writes every record to path, replacing its content
func (s *Store) ExportAll(path string) error {
	return writeJSON(path, s.Snapshot())
}

// ExportOne writes only the record of filename to path. It returns
// ErrNothingToExport when filename has no record.
func (s *Store) ExportOne(filename, path string) error {
	rec, ok := s.records[filename]
	if !ok {
		return fmt.Errorf("%w: no annotations for %s", ErrNothingToExport, filename)
	}
	return writeJSON(path, map[string]Record{filename: rec.clone()})
}

func (s *Store) ensure(filename string) *Record {
	rec, ok := s.records[filename]
	if !ok {
		r := NewRecord()
		rec = &r
		s.records[filename] = rec
	}
	return rec
}

// insert adds idx to the ascending list if absent and reports whether it did
func insert(list *[]int, idx int) bool {
	l := *list
	pos := sort.SearchInts(l, idx)
	if pos < len(l) && l[pos] == idx {
		return false
	}
	l = append(l, 0)
	copy(l[pos+1:], l[pos:])
	l[pos] = idx
	*list = l
	return true
}

// writeJSON writes v next to path and renames it into place
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode annotations: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write annotations: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write annotations: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func axisLabel(axis models.Axis) string {
	return cases.Title(language.English).String(axis.String())
}
