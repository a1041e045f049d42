package importer

import (
	"fmt"
	"io"
)

// WriteHeader prints the import header line naming the detected format.
func WriteHeader(w io.Writer, format Format, dryRun bool) {
	if dryRun {
		fmt.Fprintf(w, "Importing from %s... [dry-run]\n", format)
		return
	}
	fmt.Fprintf(w, "Importing from %s...\n", format)
}

// WriteResult prints one line per imported task, duplicate and skipped record.
func WriteResult(w io.Writer, res Result) {
	for _, t := range res.Tasks {
		fmt.Fprintf(w, "  ✓ Task: %s\n", t.Title)
	}
	for _, t := range res.Duplicates {
		fmt.Fprintf(w, "  = Duplicate: %s\n", t.Title)
	}
	for _, msg := range res.Errors {
		fmt.Fprintf(w, "  ✗ %s\n", msg)
	}
}

// WriteSummary prints the counts, preceded by a blank line.
func WriteSummary(w io.Writer, s Stats) {
	fmt.Fprintf(w, "\nDone: %d imported, %d duplicates, %d skipped\n", s.Imported, s.Duplicates, s.Skipped)
}

// Present renders the complete import output.
func Present(w io.Writer, format Format, dryRun bool, res Result) {
	WriteHeader(w, format, dryRun)
	WriteResult(w, res)
	WriteSummary(w, res.Stats)
}
