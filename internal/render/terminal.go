package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/dan1650/plates-bot/internal/storage"
)

// Printer writes records to a terminal.
type Printer struct {
	w       io.Writer
	noColor bool

	heading *color.Color
	key     *color.Color
	dim     *color.Color
	warn    *color.Color
	fail    *color.Color
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer, noColor bool) *Printer {
	p := &Printer{
		w:       w,
		noColor: noColor,
		heading: color.New(color.FgCyan, color.Bold),
		key:     color.New(color.FgBlue),
		dim:     color.New(color.Faint),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
	}
	if noColor {
		for _, c := range []*color.Color{p.heading, p.key, p.dim, p.warn, p.fail} {
			c.DisableColor()
		}
	}
	return p
}

// Records prints every record under a heading naming the query.
func (p *Printer) Records(label string, records []storage.Record) {
	if len(records) == 0 {
		p.warn.Fprintf(p.w, "⚠ No results for %s\n", label)
		return
	}

	p.heading.Fprintf(p.w, "%d match(es) for %s\n", len(records), label)
	for i, rec := range records {
		fmt.Fprintln(p.w)
		p.Record(i+1, rec)
	}
}

// Record prints one record with its non-empty fields.
func (p *Printer) Record(n int, rec storage.Record) {
	p.heading.Fprintf(p.w, "#%d %s", n, rec.Plate())
	p.dim.Fprintf(p.w, "  (row %d)\n", rec.RowID)

	for _, f := range []field{
		{label: "Make", value: rec.Make},
		{label: "Model", value: rec.Model},
		{label: "Color", value: rec.Color},
		{label: "Production Year", value: rec.ProductionDate},
		{label: "First Registration", value: rec.RegistrationDate},
		{label: "Owner", value: rec.OwnerName()},
		{label: "Address", value: rec.Address},
		{label: "Phone", value: rec.Phone},
		{label: "VIN", value: rec.VIN},
		{label: "Engine No.", value: rec.EngineNumber},
	} {
		v := strings.TrimSpace(f.value)
		if v == "" {
			continue
		}
		p.key.Fprintf(p.w, "  %-19s", f.label+":")
		fmt.Fprintf(p.w, " %s\n", v)
	}
}

// Unrecognized reports text that matched no query kind.
func (p *Printer) Unrecognized(text string) {
	p.warn.Fprintf(p.w, "⚠ Not a plate, number or phone: %q\n", text)
}

// Error prints an error line.
func (p *Printer) Error(format string, args ...interface{}) {
	p.fail.Fprintf(p.w, "✗ %s\n", fmt.Sprintf(format, args...))
}

// JSONResult is the machine-readable lookup output.
type JSONResult struct {
	Query   string           `json:"query"`
	Kind    string           `json:"kind"`
	Outcome string           `json:"outcome,omitempty"`
	Count   int              `json:"count"`
	Records []storage.Record `json:"records"`
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
