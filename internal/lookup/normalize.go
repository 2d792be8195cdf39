package lookup

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"

	"github.com/dan1650/plates-bot/internal/storage"
)

// MinPhoneDigits is the fewest digits a phone query may carry.
const MinPhoneDigits = 6

const (
	intlPrefix    = "00961"
	countryPrefix = "961"
)

// foldDigits narrows fullwidth forms (Ｂ１０００) and rewrites every decimal
// digit (Unicode Nd: Arabic-Indic, Devanagari and the like) to ASCII. Other
// numeric forms such as circled or superscript digits are left alone.
var foldDigits = transform.Chain(width.Fold, runes.Map(func(r rune) rune {
	if r <= unicode.MaxASCII {
		return r
	}
	if v, ok := decimalValue(r); ok {
		return '0' + v
	}
	return r
}))

// FoldDigits maps every decimal digit form users commonly type to ASCII 0-9.
func FoldDigits(s string) string {
	out, _, err := transform.String(foldDigits, s)
	if err != nil {
		return s
	}
	return out
}

// decimalValue returns the value of a Unicode decimal digit. Nd digits are
// encoded in contiguous ascending runs of ten, so the offset inside a range
// gives the value.
func decimalValue(r rune) (rune, bool) {
	for _, rg := range unicode.Nd.R16 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi && rg.Stride == 1 {
			return (r - lo) % 10, true
		}
	}
	for _, rg := range unicode.Nd.R32 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi && rg.Stride == 1 {
			return (r - lo) % 10, true
		}
	}
	return 0, false
}

// DigitsOnly strips every character that is not an ASCII digit.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhoneVariants returns the normalized forms a stored phone may take for the
// given digit string: the digits as typed, with the 00961/961 country code
// removed, and with a single leading zero removed from either. Results are
// distinct and ordered by length (longest first), then lexicographically.
// Inputs shorter than MinPhoneDigits yield nil.
func PhoneVariants(digits string) []string {
	if len(digits) < MinPhoneDigits {
		return nil
	}

	seen := make(map[string]struct{}, 4)
	add := func(v string) {
		if v != "" {
			seen[v] = struct{}{}
		}
	}
	add(digits)

	local := digits
	switch {
	case strings.HasPrefix(local, intlPrefix):
		local = local[len(intlPrefix):]
		add(local)
	case strings.HasPrefix(local, countryPrefix):
		local = local[len(countryPrefix):]
		add(local)
	}

	add(stripLeadingZero(digits))
	add(stripLeadingZero(local))

	variants := make([]string, 0, len(seen))
	for v := range seen {
		variants = append(variants, v)
	}
	sort.Slice(variants, func(i, j int) bool {
		if len(variants[i]) != len(variants[j]) {
			return len(variants[i]) > len(variants[j])
		}
		return variants[i] < variants[j]
	})
	return variants
}

// Suffixes returns the tails used by the fallback phase: the last 7 digits
// when available, then the last 6.
func Suffixes(digits string) []string {
	var out []string
	if len(digits) >= 7 {
		out = append(out, digits[len(digits)-7:])
	}
	if len(digits) >= MinPhoneDigits {
		out = append(out, digits[len(digits)-MinPhoneDigits:])
	}
	return out
}

// StoredPhoneNormalized removes the separators the registry query strips
// from the phone column. It must stay in step with storage.PhoneNormExpr.
func StoredPhoneNormalized(stored string) string {
	return strings.Map(func(r rune) rune {
		for _, sep := range storage.PhoneSeparators {
			if string(r) == sep {
				return -1
			}
		}
		return r
	}, stored)
}

func stripLeadingZero(s string) string {
	return strings.TrimPrefix(s, "0")
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
