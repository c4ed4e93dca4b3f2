package report

import (
	"bytes"
	"strings"
	"testing"

	"niiexplorer/internal/models"
	"niiexplorer/pkg/annotation"
)

func TestMarkdownWriter(t *testing.T) {
	store := annotation.NewStore()
	store.Register("a.nii", "b.nii.gz")
	store.Confirm("a.nii", models.Axial, 4)
	store.Confirm("a.nii", models.Axial, 12)
	store.Confirm("a.nii", models.Sagittal, 3)

	var buf bytes.Buffer
	if err := NewMarkdownWriter(&buf).Write("annotations.json", store); err != nil {
		t.Fatalf("Failed to write report: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Annotation Report",
		"## Summary",
		"## Volumes",
		"`annotations.json`",
		"`a.nii`",
		"`b.nii.gz`",
		"4, 12",
		"Annotated volumes",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected report to contain %q, got:\n%s", want, out)
		}
	}

	if strings.Index(out, "`a.nii`") > strings.Index(out, "`b.nii.gz`") {
		t.Error("Expected files in sorted order")
	}
}

func TestMarkdownWriterEmptyStore(t *testing.T) {
	var buf bytes.Buffer
	if err := NewMarkdownWriter(&buf).Write("annotations.json", annotation.NewStore()); err != nil {
		t.Fatalf("Failed to write report: %v", err)
	}
	if !strings.Contains(buf.String(), "No volumes recorded.") {
		t.Errorf("Expected empty report notice, got:\n%s", buf.String())
	}
}

func TestJoinIndices(t *testing.T) {
	if joinIndices(nil) != "-" {
		t.Errorf("Expected -, got %q", joinIndices(nil))
	}
	if got := joinIndices([]int{1, 3, 5}); got != "1, 3, 5" {
		t.Errorf("Expected %q, got %q", "1, 3, 5", got)
	}
}
