// Package clinical holds the small derived values shown alongside patient and
// consultation records.
package clinical

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/nutricontrol/nutricontrol/internal/models"
)

// DateLayout is the layout of birth dates exchanged with the backend.
const DateLayout = "2006-01-02"

var (
	ErrInvalidWeight = errors.New("weight must be positive")
	ErrInvalidHeight = errors.New("height must be positive")
)

var nonDigits = regexp.MustCompile(`\D`)

// StripMask keeps only the digits of s.
func StripMask(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// BMI computes weight / height². Heights above 3 are taken as centimetres.
// The result is rounded to two decimals.
func BMI(weightKg, height float64) (float64, error) {
	if weightKg <= 0 {
		return 0, ErrInvalidWeight
	}
	if height <= 0 {
		return 0, ErrInvalidHeight
	}
	if height > 3 {
		height /= 100
	}
	return math.Round(weightKg/(height*height)*100) / 100, nil
}

// BMIClass names the WHO adult class of bmi.
func BMIClass(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "underweight"
	case bmi < 25:
		return "normal"
	case bmi < 30:
		return "overweight"
	case bmi < 35:
		return "obesity I"
	case bmi < 40:
		return "obesity II"
	default:
		return "obesity III"
	}
}

// FormatCPF masks up to 11 digits as 000.000.000-00, progressively for
// partial input. Longer input is returned unchanged.
func FormatCPF(s string) string {
	d := StripMask(s)
	if len(d) > 11 {
		return s
	}

	var b strings.Builder
	for i, r := range d {
		switch {
		case i == 3 || i == 6:
			b.WriteByte('.')
		case i == 9:
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatPhone masks a Brazilian phone as (00) 00000-0000 or (00) 0000-0000.
// Longer input is returned unchanged.
func FormatPhone(s string) string {
	d := StripMask(s)
	switch {
	case len(d) > 11:
		return s
	case len(d) <= 2:
		return d
	case len(d) <= 6:
		return "(" + d[:2] + ") " + d[2:]
	default:
		split := len(d) - 4
		return "(" + d[:2] + ") " + d[2:split] + "-" + d[split:]
	}
}

// WhatsAppLink returns the wa.me link of a Brazilian phone number.
func WhatsAppLink(phone string) string {
	return "https://wa.me/55" + StripMask(phone)
}

// Initials returns the first letters of the first and last names, the first
// two letters of a single name, or NN for an empty one.
func Initials(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "NN"
	case 1:
		r := []rune(parts[0])
		if len(r) > 2 {
			r = r[:2]
		}
		return strings.ToUpper(string(r))
	default:
		first := []rune(parts[0])[0]
		last := []rune(parts[len(parts)-1])[0]
		return strings.ToUpper(string([]rune{first, last}))
	}
}

// Age returns the age in whole years at now of someone born on birthDate.
func Age(birthDate string, now time.Time) (int, error) {
	birth, err := time.Parse(DateLayout, strings.TrimSpace(birthDate))
	if err != nil {
		return 0, err
	}

	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age, nil
}

// FormatDate renders an ISO date or datetime as dd/mm/yyyy, or "-".
func FormatDate(iso string) string {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return "-"
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", DateLayout} {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return "-"
}

// ParseWaterIntake reads a free-form daily water intake such as "2,5 L" or
// "3 litros" as litres.
func ParseWaterIntake(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsDigit(r) || r == '.':
			return r
		case r == ',':
			return '.'
		}
		return -1
	}, s)
	if cleaned == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and removes diacritics.
func Fold(s string) string {
	folded, _, err := transform.String(foldDiacritics, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// FilterPatients keeps patients whose name contains query, ignoring case and
// accents, or whose CPF contains the digits of query. An empty query keeps
// everyone.
func FilterPatients(patients []models.Patient, query string) []models.Patient {
	query = strings.TrimSpace(query)
	if query == "" {
		return patients
	}

	q := Fold(query)
	digits := StripMask(query)

	var out []models.Patient
	for _, p := range patients {
		switch {
		case strings.Contains(Fold(p.FullName), q):
			out = append(out, p)
		case digits != "" && strings.Contains(StripMask(p.CPF), digits):
			out = append(out, p)
		case digits == "" && strings.Contains(strings.ToLower(p.CPF), strings.ToLower(query)):
			out = append(out, p)
		}
	}
	return out
}
