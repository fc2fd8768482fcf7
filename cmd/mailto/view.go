// view.go implements the CLI commands that print a decoded record:
// "view" as a field summary and "json" as a JSON document.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ekayaprod/mailto/config"
	"github.com/ekayaprod/mailto/formats"
	"github.com/ekayaprod/mailto/message"
)

// cmdView decodes a file and prints its summary to stdout.
func cmdView(path string) {
	data := readInput(path)
	if fi, err := os.Stat(path); err == nil {
		fmt.Printf("File:        %s (%s)\n", filepath.Base(path), humanSize(int(fi.Size())))
	} else {
		fmt.Printf("File:        %s\n", filepath.Base(path))
	}
	if f := formats.Detect(filepath.Base(path), data); f != nil {
		fmt.Printf("Format:      %s\n", f.Name())
	}
	fmt.Println(strings.Repeat("─", 60))
	printRecord(message.DecodeWithOptions(data, config.Load().Options()))
}

// printRecord prints the fields of a decoded record.
func printRecord(rec message.Record) {
	type field struct {
		label string
		value string
	}
	fields := []field{
		{"Subject", rec.Subject},
		{"Source", string(rec.Source)},
	}
	if !rec.Date.IsZero() {
		fields = append(fields, field{"Date", rec.Date.UTC().Format(time.RFC1123Z)})
	}
	for _, f := range fields {
		if f.value != "" {
			fmt.Printf("%-13s%s\n", f.label+":", f.value)
		}
	}
	for _, r := range rec.Recipients {
		if r.Name != "" {
			fmt.Printf("%-13s%s <%s>\n", r.Type.String()+":", r.Name, r.Email)
		} else {
			fmt.Printf("%-13s%s\n", r.Type.String()+":", r.Email)
		}
	}
	switch {
	case rec.Body != "" && rec.BodyHTML != "":
		fmt.Printf("%-13sPlain text (%s), HTML (%s)\n", "Body:",
			humanSize(len(rec.Body)), humanSize(len(rec.BodyHTML)))
	case rec.Body != "":
		fmt.Printf("%-13sPlain text (%s)\n", "Body:", humanSize(len(rec.Body)))
	case rec.BodyHTML != "":
		fmt.Printf("%-13sHTML (%s)\n", "Body:", humanSize(len(rec.BodyHTML)))
	default:
		fmt.Printf("%-13sNone\n", "Body:")
	}
}

// cmdJSON decodes a file and prints the record as indented JSON.
func cmdJSON(path string) {
	data := readInput(path)
	rec := message.DecodeWithOptions(data, config.Load().Options())
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding record: %v\n", err)
		os.Exit(1)
	}
}
