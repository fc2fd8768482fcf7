// extract.go implements the CLI extraction commands that run a file
// through the format registry and write the results to disk.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ekayaprod/mailto/formats"
)

// cmdExtract detects the input format, decodes the file, and writes
// every result to outDir.
func cmdExtract(path, outDir string) {
	data := readInput(path)
	f := formats.Detect(filepath.Base(path), data)
	if f == nil {
		fmt.Fprintf(os.Stderr, "Unsupported file format: %s\n", filepath.Base(path))
		os.Exit(1)
	}
	results, err := f.Decode(data)
	writeResults(results, outDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding %s: %v\n", path, err)
		os.Exit(1)
	}
}

// cmdMbox batch-extracts an mbox archive regardless of the file name.
func cmdMbox(path, outDir string) {
	data := readInput(path)
	f := formatByExtension(".mbox")
	if f == nil {
		fmt.Fprintln(os.Stderr, "Error: mbox format not registered")
		os.Exit(1)
	}
	if !f.Match(data) {
		fmt.Fprintf(os.Stderr, "Not an mbox archive: %s\n", filepath.Base(path))
		os.Exit(1)
	}
	results, err := f.Decode(data)
	writeResults(results, outDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding %s: %v\n", path, err)
		os.Exit(1)
	}
}

// formatByExtension finds a registered format by one of its extensions.
func formatByExtension(ext string) formats.Format {
	for _, f := range formats.All() {
		for _, e := range f.Extensions() {
			if e == ext {
				return f
			}
		}
	}
	return nil
}

// writeResults writes each result to the output directory. Results
// recovered before a decode error are still written.
func writeResults(results []formats.Result, outDir string) {
	if len(results) == 0 {
		fmt.Println("No content to extract.")
		return
	}
	for _, r := range results {
		if err := writeFile(outDir, formats.SanitizeFilename(r.Name), r.Data); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}
