package validate

import (
	"regexp"
	"strconv"
	"strings"
)

// Expected is the type a field is supposed to hold.
type Expected string

const (
	ExpectText       Expected = "text"
	ExpectNumber     Expected = "number"
	ExpectDate       Expected = "date"
	ExpectIdentifier Expected = "identifier"
)

// Class is the outcome of classifying a value against its expected type.
type Class string

const (
	ClassEmpty       Class = "empty"
	ClassMatch       Class = "match"
	ClassNumeric     Class = "numeric_mismatch" // a number where something else was expected
	ClassDate        Class = "date_mismatch"    // a date-shaped string where something else was expected
	ClassUnparseable Class = "unparseable"      // free text where a number, date or identifier was expected
	ClassDayOfMonth  Class = "day_of_month"     // a bare 1-31 day in a date field, completed from the document
	ClassSerialDate  Class = "serial_date"      // a spreadsheet serial date number
)

// Mismatch reports whether the class means the value should be nulled.
func (c Class) Mismatch() bool {
	return c == ClassNumeric || c == ClassDate || c == ClassUnparseable
}

// DefaultDatePatterns are the date shapes spreadsheets produce.
var DefaultDatePatterns = []string{
	`^\d{4}-\d{1,2}-\d{1,2}(?:[ T]\d{1,2}:\d{2}(?::\d{2}(?:\.\d+)?)?)?$`,
	`^\d{4}/\d{1,2}/\d{1,2}$`,
	`^\d{1,2}/\d{1,2}/\d{2,4}$`,
	`^\d{1,2}-\d{1,2}-\d{4}$`,
}

var (
	numberPattern     = regexp.MustCompile(`^[+-]?\d+(?:[.,]\d+)?$`)
	scientificPattern = regexp.MustCompile(`^\d+(?:\.\d+)?[eE]\+?\d+$`)
	floatZeroPattern  = regexp.MustCompile(`^(\d+)\.0+$`)
	idSeparators      = regexp.MustCompile(`[\s.,\-]`)
	idDigits          = regexp.MustCompile(`^\d{4,20}$`)
	dayPattern        = regexp.MustCompile(`^\d{1,2}(?:\.0+)?$`)
	serialPattern     = regexp.MustCompile(`^\d{5}(?:\.\d+)?$`)
)

// FieldClassifier detects values that do not fit the type of their field.
// It is pure and safe for concurrent use.
type FieldClassifier struct {
	datePatterns []*regexp.Regexp
}

// NewFieldClassifier creates a classifier. Invalid patterns are skipped;
// nil patterns fall back to DefaultDatePatterns.
func NewFieldClassifier(patterns []string) *FieldClassifier {
	if patterns == nil {
		patterns = DefaultDatePatterns
	}

	classifier := &FieldClassifier{
		datePatterns: make([]*regexp.Regexp, 0, len(patterns)),
	}
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			classifier.datePatterns = append(classifier.datePatterns, re)
		}
	}
	return classifier
}

// Classify classifies a raw value against the expected field type.
func (c *FieldClassifier) Classify(value string, expected Expected) Class {
	v := strings.TrimSpace(value)
	if v == "" {
		return ClassEmpty
	}

	switch expected {
	case ExpectNumber:
		if c.IsNumber(v) {
			return ClassMatch
		}
		if c.IsDate(v) {
			return ClassDate
		}
		return ClassUnparseable

	case ExpectDate:
		if c.IsDate(v) {
			return ClassMatch
		}
		if c.IsNumber(v) {
			return dateNumber(v)
		}
		return ClassUnparseable

	case ExpectIdentifier:
		if c.IsDate(v) {
			return ClassDate
		}
		if _, ok := NormalizeIdentifier(v); ok {
			return ClassMatch
		}
		return ClassUnparseable

	default:
		if c.IsDate(v) {
			return ClassDate
		}
		if c.IsNumber(v) {
			return ClassNumeric
		}
		return ClassMatch
	}
}

// dateNumber classifies a number found in a date field. Only bare days
// and serials in the spreadsheet date range can become a date.
func dateNumber(v string) Class {
	switch {
	case dayPattern.MatchString(v):
		if d, _ := strconv.Atoi(strings.SplitN(v, ".", 2)[0]); d >= 1 && d <= 31 {
			return ClassDayOfMonth
		}
	case serialPattern.MatchString(v):
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 20000 && f <= 80000 {
			return ClassSerialDate
		}
	}
	return ClassNumeric
}

// IsDate reports whether v matches one of the explicit date patterns.
func (c *FieldClassifier) IsDate(v string) bool {
	v = strings.TrimSpace(v)
	for _, re := range c.datePatterns {
		if re.MatchString(v) {
			return true
		}
	}
	return false
}

// IsNumber reports whether v is a plain decimal number.
func (c *FieldClassifier) IsNumber(v string) bool {
	v = strings.TrimSpace(v)
	return numberPattern.MatchString(v) || scientificPattern.MatchString(v)
}

// NormalizeIdentifier strips separators and spreadsheet float artifacts
// from a document number. It returns false when what remains is not a
// plausible numeric identifier.
func NormalizeIdentifier(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", false
	}

	if scientificPattern.MatchString(v) {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return "", false
		}
		v = strconv.FormatFloat(f, 'f', 0, 64)
	}

	if m := floatZeroPattern.FindStringSubmatch(v); m != nil {
		v = m[1]
	}

	v = idSeparators.ReplaceAllString(v, "")
	if !idDigits.MatchString(v) {
		return "", false
	}
	return v, true
}
