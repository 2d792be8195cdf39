// Package render formats registry records for chat replies and the terminal.
package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/dan1650/plates-bot/internal/storage"
)

// Chat replies use Telegram's HTML parse mode.
const (
	WelcomeText = "<b>Welcome!</b>\n" +
		"Send a plate like <b>B1000</b>, a plain number like <b>2259</b> (all regions), or a <b>phone number</b>."

	HelpText = "<b>How to use</b>\n" +
		"• Plate: <code>B1000</code> (1 letter + digits). Dashes/spaces ok: <code>B-1000</code>, <code>B 1000</code>\n" +
		"• Number only: <code>2259</code> → all regions with that number\n" +
		"• Phone: any format; I normalize (exact → suffix fallback)."

	ExamplesText = "Try: <code>B1000</code>, <code>2259</code>, <code>03/681764</code>, <code>+9613681764</code>"

	UnrecognizedText = "I didn’t recognize that. Send a plate like <b>B1000</b>, a number like <b>2259</b>, or a <b>phone number</b>."

	SelectionExpiredText = "⚠️ Selection expired. Please search again."
)

const (
	sectionRule = "────────────"

	// MaxButtonLabel is the longest selection-button label, in characters.
	MaxButtonLabel = 62
)

// NoMatch is the reply for an empty result.
func NoMatch(label string) string {
	return fmt.Sprintf("No results for <b>%s</b>.", html.EscapeString(label))
}

// ChooserHeader introduces the selection buttons of a multi-result search.
// total is the number of matches found, which may exceed the buttons shown.
func ChooserHeader(total int, label string) string {
	return fmt.Sprintf("🔎 <b>%d matches</b> for <code>%s</code> — pick one:", total, html.EscapeString(label))
}

// DatabaseError is the reply for a failed lookup.
func DatabaseError(err error) string {
	return "<b>Database error:</b> " + html.EscapeString(err.Error())
}

type field struct {
	icon  string
	label string
	value string
}

// Card renders a record as an HTML message with Vehicle, Owner and
// Identifiers sections. Empty fields and empty sections are omitted.
func Card(rec storage.Record) string {
	lines := []string{
		"🔹 <b>Plate:</b> " + html.EscapeString(rec.Plate()),
		"🏳️ <b>Region:</b> " + html.EscapeString(rec.Region),
		"🔢 <b>Number:</b> " + html.EscapeString(rec.Number),
		sectionRule,
	}

	vehicle := present([]field{
		{"🚘", "Make", rec.Make},
		{"📄", "Model", rec.Model},
		{"🎨", "Color", rec.Color},
		{"📅", "Production Year", rec.ProductionDate},
		{"🛣️", "First Registration", rec.RegistrationDate},
	})
	if len(vehicle) > 0 {
		lines = append(lines, "🚗 <b>Vehicle</b>")
		lines = append(lines, vehicle...)
	}

	owner := present([]field{
		{"👤", "Name", rec.OwnerName()},
		{"📍", "Address", rec.Address},
		{"📞", "Phone", rec.Phone},
	})
	if len(owner) > 0 {
		lines = append(lines, sectionRule, "👤 <b>Owner</b>")
		lines = append(lines, owner...)
	}

	ids := present([]field{
		{"🔑", "VIN", rec.VIN},
		{"⚙️", "Engine No.", rec.EngineNumber},
	})
	if len(ids) > 0 {
		lines = append(lines, sectionRule, "🆔 <b>Identifiers</b>")
		lines = append(lines, ids...)
	}

	return strings.Join(lines, "\n")
}

func present(fields []field) []string {
	var out []string
	for _, f := range fields {
		v := strings.TrimSpace(f.value)
		if v == "" {
			continue
		}
		out = append(out, fmt.Sprintf("%s <b>%s:</b> %s", f.icon, f.label, html.EscapeString(v)))
	}
	return out
}

// ButtonLabel summarizes a record as "Make Model (year) — Owner", falling
// back to "Record" when make and model are blank. Labels longer than
// MaxButtonLabel characters are cut and end with an ellipsis.
func ButtonLabel(rec storage.Record) string {
	var parts []string
	for _, s := range []string{rec.Make, rec.Model} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	label := strings.Join(parts, " ")
	if label == "" {
		label = "Record"
	}
	if year := strings.TrimSpace(rec.ProductionDate); year != "" {
		label = fmt.Sprintf("%s (%s)", label, year)
	}
	if owner := rec.OwnerName(); owner != "" {
		label = label + " — " + owner
	}
	return truncate(label, MaxButtonLabel)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
