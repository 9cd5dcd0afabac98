// Package dates rebuilds admission and discharge dates that spreadsheets
// truncated to a bare day-of-month or rendered at the "no date" sentinel
// year, using the month and year carried by the source document.
package dates

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/canonica/internal/model"
	"github.com/ppiankov/canonica/internal/util"
	"github.com/xuri/excelize/v2"
)

// Layout is the canonical date layout.
const Layout = "2006-01-02"

// Excel serial numbers in this range are treated as dates (1954..2119).
const (
	excelSerialMin = 20000
	excelSerialMax = 80000
)

// Context is the document metadata a date fragment is completed from.
type Context struct {
	SourceFile string
	YearFolder string
}

// ContextOf extracts the reconstruction context from provenance.
func ContextOf(p model.Provenance) Context {
	return Context{SourceFile: p.SourceFile, YearFolder: p.YearFolder}
}

// Result is a reconstructed date with how it was obtained. Year, Month and
// Day stay populated for sentinel results so a sibling can repair them.
type Result struct {
	Date   string
	Status model.DateStatus
	Year   int
	Month  int
	Day    int
}

// Ok reports whether the result holds a usable calendar date.
func (r Result) Ok() bool {
	return r.Date != "" && !r.Status.Unrecoverable()
}

var monthNames = []struct {
	name  string
	month int
}{
	{"ENERO", 1}, {"FEBRERO", 2}, {"MARZO", 3}, {"ABRIL", 4},
	{"MAYO", 5}, {"JUNIO", 6}, {"JULIO", 7}, {"AGOSTO", 8},
	{"SEPTIEMBRE", 9}, {"SETIEMBRE", 9}, {"OCTUBRE", 10},
	{"NOVIEMBRE", 11}, {"DICIEMBRE", 12},
}

var (
	yearFirst   = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})(?:[ T]\d{1,2}:\d{2}(?::\d{2}(?:\.\d+)?)?)?$`)
	dayFirst    = regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})[-/](\d{2}|\d{4})$`)
	bareNumber  = regexp.MustCompile(`^\d+(?:\.0+)?$`)
	serialValue = regexp.MustCompile(`^\d{5}(?:\.\d+)?$`)
	monthPrefix = regexp.MustCompile(`^(\d{2})(?:\D|$)`)
	fourDigit   = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})(?:\D|$)`)
)

// Reconstructor completes and validates date values.
type Reconstructor struct {
	minYear int
	pivot   int
}

// NewReconstructor creates a reconstructor from the date settings.
func NewReconstructor(cfg model.DatesConfig) *Reconstructor {
	minYear := cfg.MinPlausibleYear
	if minYear <= 0 {
		minYear = 1950
	}
	pivot := cfg.TwoDigitPivot
	if pivot <= 0 || pivot > 99 {
		pivot = 50
	}
	return &Reconstructor{minYear: minYear, pivot: pivot}
}

// Reconstruct resolves a raw date value. It never guesses a month or year:
// when the document context is missing or the assembled date does not
// exist on the calendar the result is DateFailed.
func (r *Reconstructor) Reconstruct(raw string, ctx Context) Result {
	v := strings.TrimSpace(raw)
	if v == "" || strings.EqualFold(v, "nan") {
		return Result{Status: model.DateEmpty}
	}

	if m := yearFirst.FindStringSubmatch(v); m != nil {
		return r.fullDate(atoi(m[1]), atoi(m[2]), atoi(m[3]), ctx)
	}

	if m := dayFirst.FindStringSubmatch(v); m != nil {
		year := atoi(m[3])
		if len(m[3]) == 2 {
			year = r.expandYear(year)
		}
		return r.fullDate(year, atoi(m[2]), atoi(m[1]), ctx)
	}

	if serialValue.MatchString(v) {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil && f >= excelSerialMin && f <= excelSerialMax {
			t, err := excelize.ExcelDateToTime(f, false)
			if err == nil {
				return newResult(t.Year(), int(t.Month()), t.Day(), model.DateParsed)
			}
		}
		return Result{Status: model.DateFailed}
	}

	if bareNumber.MatchString(v) {
		day := atoi(strings.SplitN(v, ".", 2)[0])
		return r.fromDay(day, ctx)
	}

	return Result{Status: model.DateDiscarded}
}

// fullDate validates a complete date and handles the sentinel year.
func (r *Reconstructor) fullDate(year, month, day int, ctx Context) Result {
	if !validDate(year, month, day) {
		return Result{Status: model.DateFailed}
	}
	if year >= r.minYear {
		return newResult(year, month, day, model.DateParsed)
	}

	// A day number typed into a date cell renders as January of the sentinel year.
	if month == 1 {
		if res := r.fromDay(day, ctx); res.Ok() {
			return res
		}
	}

	return Result{Status: model.DateSentinel, Year: year, Month: month, Day: day}
}

// fromDay completes a bare day-of-month from the document context.
func (r *Reconstructor) fromDay(day int, ctx Context) Result {
	if day < 1 || day > 31 {
		return Result{Status: model.DateFailed}
	}

	month, okMonth := ContextMonth(ctx.SourceFile)
	year, okYear := ContextYear(ctx.YearFolder, ctx.SourceFile)
	if !okMonth || !okYear || !validDate(year, month, day) {
		return Result{Status: model.DateFailed, Day: day}
	}

	return newResult(year, month, day, model.DateReconstructed)
}

// RepairPair fixes a sentinel-year date using the year of its sibling
// when the sibling resolved normally. Both results are returned updated.
func (r *Reconstructor) RepairPair(admission, discharge Result) (Result, Result) {
	admission = repairFrom(admission, discharge)
	discharge = repairFrom(discharge, admission)
	return admission, discharge
}

func repairFrom(target, sibling Result) Result {
	if target.Status != model.DateSentinel {
		return target
	}
	if sibling.Status != model.DateParsed && sibling.Status != model.DateReconstructed {
		return target
	}
	if !validDate(sibling.Year, target.Month, target.Day) {
		return target
	}
	return newResult(sibling.Year, target.Month, target.Day, model.DateRepaired)
}

// ContextMonth finds the month a source document covers: a leading
// two-digit prefix ("03 INGRESOS.xlsx") or a Spanish month name.
func ContextMonth(sourceFile string) (int, bool) {
	name := util.Fold(filepath.Base(sourceFile))
	if name == "" || name == "." {
		return 0, false
	}

	if m := monthPrefix.FindStringSubmatch(name); m != nil {
		if month := atoi(m[1]); month >= 1 && month <= 12 {
			return month, true
		}
	}

	for _, mn := range monthNames {
		if strings.Contains(name, mn.name) {
			return mn.month, true
		}
	}
	return 0, false
}

// ContextYear finds the year of a source document: the containing folder
// name first, then a four-digit year in the file name.
func ContextYear(yearFolder, sourceFile string) (int, bool) {
	for _, s := range []string{yearFolder, filepath.Base(sourceFile)} {
		if m := fourDigit.FindStringSubmatch(s); m != nil {
			return atoi(m[1]), true
		}
	}
	return 0, false
}

func (r *Reconstructor) expandYear(yy int) int {
	if yy < r.pivot {
		return 2000 + yy
	}
	return 1900 + yy
}

func newResult(year, month, day int, status model.DateStatus) Result {
	return Result{
		Date:   fmt.Sprintf("%04d-%02d-%02d", year, month, day),
		Status: status,
		Year:   year,
		Month:  month,
		Day:    day,
	}
}

func validDate(year, month, day int) bool {
	if year < 1 || month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
