// Package report renders annotation files as human-readable summaries.
package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"niiexplorer/internal/models"
	"niiexplorer/pkg/annotation"
)

// MarkdownWriter outputs annotation summaries in Markdown format.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write outputs a summary of store titled after source, usually the path of
// the annotation file.
func (w *MarkdownWriter) Write(source string, store *annotation.Store) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Annotation Report")
	md.PlainText("")
	md.PlainTextf("Source: `%s`", source)
	md.PlainText("")

	snapshot := store.Snapshot()
	files := store.Files()

	w.writeSummary(md, files, snapshot)
	w.writeFiles(md, files, snapshot)

	return md.Build()
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, files []string, snapshot map[string]annotation.Record) {
	md.H2("Summary")
	md.PlainText("")

	perAxis := make(map[models.Axis]int)
	annotated := 0
	for _, name := range files {
		rec := snapshot[name]
		if !rec.Empty() {
			annotated++
		}
		for _, axis := range models.Axes {
			perAxis[axis] += len(rec.Indices(axis))
		}
	}

	rows := [][]string{
		{"Volumes", strconv.Itoa(len(files))},
		{"Annotated volumes", strconv.Itoa(annotated)},
	}
	for _, axis := range models.Axes {
		rows = append(rows, []string{axisTitle(axis) + " slices", strconv.Itoa(perAxis[axis])})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if annotated == 0 {
		md.Note("No slices have been confirmed yet.")
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeFiles(md *markdown.Markdown, files []string, snapshot map[string]annotation.Record) {
	md.H2("Volumes")
	md.PlainText("")

	if len(files) == 0 {
		md.PlainText("No volumes recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(files))
	for _, name := range files {
		rec := snapshot[name]
		rows = append(rows, []string{
			"`" + name + "`",
			joinIndices(rec.Axial),
			joinIndices(rec.Coronal),
			joinIndices(rec.Sagittal),
			strconv.Itoa(rec.Total()),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"File", "Axial", "Coronal", "Sagittal", "Total"},
		Rows:   rows,
	})
	md.PlainText("")
}

func joinIndices(indices []int) string {
	if len(indices) == 0 {
		return "-"
	}
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ", ")
}

func axisTitle(axis models.Axis) string {
	return cases.Title(language.English).String(axis.String())
}
