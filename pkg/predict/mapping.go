package predict

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
)

// Defaults applied when an answer is absent or unparseable. These mirror the
// prediction service's own assumptions.
const (
	DefaultDurationMonths = 12
	DefaultJobLevel       = "Manager"
	DefaultHousing        = "Company-provided"
	DefaultCurrency       = "USD"
	DefaultFamilySize     = 1
)

var currencySymbols = map[rune]string{
	'$': "USD",
	'€': "EUR",
	'£': "GBP",
	'¥': "JPY",
	'₹': "INR",
	'₩': "KRW",
}

var (
	numberPattern   = regexp.MustCompile(`(\d+(?:[.,]\d+)*(?:\.\d+)?)\s*([kKmM])?`)
	isoCodePattern  = regexp.MustCompile(`\b([A-Za-z]{3})\b`)
	integerPattern  = regexp.MustCompile(`\d+`)
	durationPattern = regexp.MustCompile(`(\d+)\s*(year|yr|month|mo|week|wk)`)
)

// BuildCompensationParams maps collected answers onto service parameters,
// filling gaps with defaults.
func BuildCompensationParams(answers map[string]string) CompensationParams {
	salary, _ := ParseSalary(answers["Current Compensation"])
	return CompensationParams{
		OriginLocation:      strings.TrimSpace(answers["Origin Location"]),
		DestinationLocation: strings.TrimSpace(answers["Destination Location"]),
		CurrentSalary:       salary,
		Currency:            ExtractCurrency(answers["Current Compensation"]),
		DurationMonths:      ParseDurationMonths(answers["Assignment Duration"]),
		JobLevel:            valueOr(answers["Job Level/Title"], DefaultJobLevel),
		FamilySize:          ParseFamilySize(answers["Family Size"]),
		HousingPreference:   valueOr(answers["Housing Preference"], DefaultHousing),
	}
}

// BuildPolicyParams maps collected answers onto policy analysis parameters.
func BuildPolicyParams(answers map[string]string) PolicyParams {
	return PolicyParams{
		OriginCountry:      strings.TrimSpace(answers["Origin Country"]),
		DestinationCountry: strings.TrimSpace(answers["Destination Country"]),
		AssignmentType:     strings.TrimSpace(answers["Assignment Type"]),
		Duration:           valueOr(answers["Assignment Duration"], "12 months"),
		JobTitle:           strings.TrimSpace(answers["Job Title"]),
	}
}

// ParseSalary reads a numeric salary out of free text. Handles separators
// and the k/m shorthand: "100k" is 100000, "1.2m" is 1200000.
func ParseSalary(s string) (float64, bool) {
	m := numberPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	numeric := strings.ReplaceAll(m[1], ",", "")
	v, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(m[2]) {
	case "k":
		v *= 1_000
	case "m":
		v *= 1_000_000
	}
	return v, true
}

// ExtractCurrency finds a currency in free text, by symbol or ISO 4217 code.
// Unrecognized input falls back to USD.
func ExtractCurrency(s string) string {
	for _, r := range s {
		if code, ok := currencySymbols[r]; ok {
			return code
		}
	}
	for _, m := range isoCodePattern.FindAllStringSubmatch(s, -1) {
		code := strings.ToUpper(m[1])
		if _, err := currency.ParseISO(code); err == nil {
			return code
		}
	}
	return DefaultCurrency
}

// ParseFamilySize reads the first integer out of free text; "just me" and
// similar answers count as one.
func ParseFamilySize(s string) int {
	if m := integerPattern.FindString(s); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n > 0 {
			return n
		}
	}
	return DefaultFamilySize
}

// ParseDurationMonths normalizes a duration answer to whole months.
func ParseDurationMonths(s string) int {
	m := durationPattern.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return DefaultDurationMonths
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return DefaultDurationMonths
	}
	switch m[2] {
	case "year", "yr":
		return n * 12
	case "week", "wk":
		if months := n / 4; months > 0 {
			return months
		}
		return 1
	default:
		return n
	}
}

func valueOr(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}
