// Package lookup classifies registry queries, plans and runs them, and ties
// the result to per-user selection state.
package lookup

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// IntentKind is the classified kind of a query.
type IntentKind string

const (
	IntentPlate        IntentKind = "plate"
	IntentNumberOnly   IntentKind = "number_only"
	IntentPhone        IntentKind = "phone"
	IntentUnrecognized IntentKind = "unrecognized"
)

// Intent is a classified query. Region and Number are set for plate intents,
// Number for number-only intents and RawText for phone intents.
type Intent struct {
	Kind    IntentKind
	Region  string
	Number  int
	RawText string
}

// PlateIntent builds a plate intent; the region is upper-cased.
func PlateIntent(region string, number int) Intent {
	return Intent{Kind: IntentPlate, Region: strings.ToUpper(region), Number: number}
}

// NumberOnlyIntent builds an all-regions number intent.
func NumberOnlyIntent(number int) Intent {
	return Intent{Kind: IntentNumberOnly, Number: number}
}

// PhoneIntent builds a phone intent over the raw user text.
func PhoneIntent(raw string) Intent {
	return Intent{Kind: IntentPhone, RawText: raw}
}

// UnrecognizedIntent is returned when no rule matches.
func UnrecognizedIntent() Intent {
	return Intent{Kind: IntentUnrecognized}
}

// Label renders the intent the way replies refer to the query.
func (i Intent) Label() string {
	switch i.Kind {
	case IntentPlate:
		return fmt.Sprintf("%s%d", i.Region, i.Number)
	case IntentNumberOnly:
		return fmt.Sprintf("ActualNB %d", i.Number)
	case IntentPhone:
		return "phone " + i.RawText
	default:
		return ""
	}
}

var (
	platePattern  = regexp.MustCompile(`^\s*([A-Za-z])\s*[-_ ]?\s*(\d{1,6})\s*$`)
	numberPattern = regexp.MustCompile(`^\s*(\d{1,6})\s*$`)
)

// rule is one classification step. match reports whether it applies and the
// intent it produces.
type rule struct {
	name  string
	match func(text string) (Intent, bool)
}

// Classifier maps raw text to an Intent using ordered rules; the first
// matching rule wins.
type Classifier struct {
	ruleSet []rule
}

// NewClassifier creates a classifier with the plate, number-only and phone
// rules, in that order.
func NewClassifier() *Classifier {
	return &Classifier{
		ruleSet: []rule{
			{name: string(IntentPlate), match: matchPlate},
			{name: string(IntentNumberOnly), match: matchNumberOnly},
			{name: string(IntentPhone), match: matchPhone},
		},
	}
}

// Classify returns the intent for text. It has no side effects.
func (c *Classifier) Classify(text string) Intent {
	folded := FoldDigits(text)
	for _, r := range c.ruleSet {
		if intent, ok := r.match(folded); ok {
			return intent
		}
	}
	return UnrecognizedIntent()
}

// rules returns the rule names in evaluation order.
func (c *Classifier) rules() []string {
	names := make([]string, len(c.ruleSet))
	for i, r := range c.ruleSet {
		names[i] = r.name
	}
	return names
}

func matchPlate(text string) (Intent, bool) {
	m := platePattern.FindStringSubmatch(text)
	if m == nil {
		return Intent{}, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return Intent{}, false
	}
	return PlateIntent(m[1], n), true
}

func matchNumberOnly(text string) (Intent, bool) {
	m := numberPattern.FindStringSubmatch(text)
	if m == nil {
		return Intent{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Intent{}, false
	}
	return NumberOnlyIntent(n), true
}

func matchPhone(text string) (Intent, bool) {
	if countDigits(text) < MinPhoneDigits {
		return Intent{}, false
	}
	return PhoneIntent(strings.TrimSpace(text)), true
}
