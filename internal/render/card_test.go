package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dan1650/plates-bot/internal/storage"
)

func fullRecord() storage.Record {
	return storage.Record{
		RowID:            7,
		Region:           "B",
		Number:           "1000",
		Make:             "Toyota",
		Model:            "Corolla",
		Color:            "White",
		ProductionDate:   "2015",
		RegistrationDate: "2016-03-01",
		FirstName:        "Rami",
		LastName:         "Haddad",
		Address:          "Beirut",
		Phone:            "03/681764",
		VIN:              "JT123",
		EngineNumber:     "E99",
	}
}

func TestCard_AllSections(t *testing.T) {
	card := Card(fullRecord())

	for _, want := range []string{
		"🔹 <b>Plate:</b> B1000",
		"🏳️ <b>Region:</b> B",
		"🔢 <b>Number:</b> 1000",
		"🚗 <b>Vehicle</b>",
		"🚘 <b>Make:</b> Toyota",
		"📅 <b>Production Year:</b> 2015",
		"🛣️ <b>First Registration:</b> 2016-03-01",
		"👤 <b>Owner</b>",
		"👤 <b>Name:</b> Rami Haddad",
		"📞 <b>Phone:</b> 03/681764",
		"🆔 <b>Identifiers</b>",
		"🔑 <b>VIN:</b> JT123",
		"⚙️ <b>Engine No.:</b> E99",
	} {
		assert.Contains(t, card, want)
	}
}

func TestCard_OmitsEmptySections(t *testing.T) {
	card := Card(storage.Record{Region: "M", Number: "77", Make: "Kia"})

	assert.Contains(t, card, "🚗 <b>Vehicle</b>")
	assert.NotContains(t, card, "<b>Owner</b>")
	assert.NotContains(t, card, "<b>Identifiers</b>")
	assert.NotContains(t, card, "Model")
}

func TestCard_EscapesHTML(t *testing.T) {
	rec := fullRecord()
	rec.Address = "Rue <Hamra> & Co"
	assert.Contains(t, Card(rec), "Rue &lt;Hamra&gt; &amp; Co")
}

func TestButtonLabel(t *testing.T) {
	tests := []struct {
		name     string
		rec      storage.Record
		expected string
	}{
		{"full", fullRecord(), "Toyota Corolla (2015) — Rami Haddad"},
		{"make only", storage.Record{Make: "Kia"}, "Kia"},
		{"no vehicle", storage.Record{FirstName: "Rami"}, "Record — Rami"},
		{"year only", storage.Record{ProductionDate: "1999"}, "Record (1999)"},
		{"blank", storage.Record{}, "Record"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ButtonLabel(tc.rec))
		})
	}
}

func TestButtonLabel_Truncates(t *testing.T) {
	rec := fullRecord()
	rec.LastName = strings.Repeat("X", 80)

	label := ButtonLabel(rec)
	assert.Equal(t, MaxButtonLabel, utf8.RuneCountInString(label))
	assert.True(t, strings.HasSuffix(label, "…"))

	rec.LastName = "Haddad"
	assert.Equal(t, "Toyota Corolla (2015) — Rami Haddad", ButtonLabel(rec))
}

func TestReplies(t *testing.T) {
	assert.Equal(t, "No results for <b>B1000</b>.", NoMatch("B1000"))
	assert.Equal(t, "🔎 <b>12 matches</b> for <code>ActualNB 2259</code> — pick one:", ChooserHeader(12, "ActualNB 2259"))
	assert.Equal(t, "<b>Database error:</b> no such table: CARMDI", DatabaseError(errors.New("no such table: CARMDI")))
	assert.Equal(t, "No results for <b>phone a&lt;b</b>.", NoMatch("phone a<b"))
}

func TestPrinter_Records(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.Records("B1000", []storage.Record{fullRecord()})
	out := buf.String()
	assert.Contains(t, out, "1 match(es) for B1000")
	assert.Contains(t, out, "#1 B1000")
	assert.Contains(t, out, "Rami Haddad")
	assert.NotContains(t, out, "\x1b[", "no escape codes when color is off")

	buf.Reset()
	p.Records("B2", nil)
	assert.Contains(t, buf.String(), "No results for B2")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, JSONResult{Query: "B1000", Kind: "plate", Count: 1, Records: []storage.Record{{RowID: 1, Region: "B", Number: "1000"}}}))
	assert.Contains(t, buf.String(), `"query": "B1000"`)
	assert.Contains(t, buf.String(), `"row_id": 1`)
}
