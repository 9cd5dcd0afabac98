package dates

import (
	"strconv"
	"testing"

	"github.com/ppiankov/canonica/internal/model"
)

func newTestReconstructor() *Reconstructor {
	return NewReconstructor(model.DefaultConfig().Dates)
}

func TestReconstruct(t *testing.T) {
	r := newTestReconstructor()
	march := Context{SourceFile: "03 INGRESOS MARZO 2021.xlsx", YearFolder: "2021"}
	april := Context{SourceFile: "04 INGRESOS ABRIL.xlsx", YearFolder: "2021"}

	tests := []struct {
		desc   string
		raw    string
		ctx    Context
		date   string
		status model.DateStatus
	}{
		{"Bare day from prefix and folder", "15", march, "2021-03-15", model.DateReconstructed},
		{"Bare day rendered as float", "15.0", march, "2021-03-15", model.DateReconstructed},
		{"Day 31 in April is not a date", "31", april, "", model.DateFailed},
		{"Day 30 in April", "30", april, "2021-04-30", model.DateReconstructed},
		{"Day out of range", "32", march, "", model.DateFailed},
		{"Day zero", "0", march, "", model.DateFailed},
		{"No month in context", "15", Context{SourceFile: "INGRESOS.xlsx", YearFolder: "2021"}, "", model.DateFailed},
		{"No year in context", "15", Context{SourceFile: "03 INGRESOS.xlsx"}, "", model.DateFailed},
		{"Month name when prefix missing", "7", Context{SourceFile: "INGRESOS SEPTIEMBRE 2020.xlsx"}, "2020-09-07", model.DateReconstructed},
		{"Invalid prefix falls back to month name", "7", Context{SourceFile: "15 PACIENTES JUNIO.xlsx", YearFolder: "2019"}, "2019-06-07", model.DateReconstructed},
		{"Folder year wins over file year", "1", Context{SourceFile: "02 FEB 2018.xlsx", YearFolder: "2019"}, "2019-02-01", model.DateReconstructed},
		{"ISO date", "2021-03-15", march, "2021-03-15", model.DateParsed},
		{"ISO datetime", "2021-03-15 00:00:00", march, "2021-03-15", model.DateParsed},
		{"Day-first slash", "5/3/2021", march, "2021-03-05", model.DateParsed},
		{"Two-digit year", "05/03/21", march, "2021-03-05", model.DateParsed},
		{"Invalid full date", "2021-02-30", march, "", model.DateFailed},
		{"Sentinel day rescued from context", "1900-01-15", march, "2021-03-15", model.DateReconstructed},
		{"Sentinel without context", "1900-01-15", Context{}, "", model.DateSentinel},
		{"Sentinel outside January", "1900-03-02", march, "", model.DateSentinel},
		{"Excel serial", "44270", march, "2021-03-15", model.DateParsed},
		{"Free text", "PENDIENTE", march, "", model.DateDiscarded},
		{"Empty", "  ", march, "", model.DateEmpty},
		{"Spreadsheet nan", "nan", march, "", model.DateEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			res := r.Reconstruct(tt.raw, tt.ctx)
			if res.Date != tt.date {
				t.Errorf("Expected date %q for %q, got %q", tt.date, tt.raw, res.Date)
			}
			if res.Status != tt.status {
				t.Errorf("Expected status %s for %q, got %s", tt.status, tt.raw, res.Status)
			}
		})
	}
}

func TestReconstruct_NeverDefaults(t *testing.T) {
	r := newTestReconstructor()
	for day := 1; day <= 31; day++ {
		res := r.Reconstruct(strconv.Itoa(day), Context{})
		if res.Date != "" {
			t.Fatalf("Expected no date without context for day %d, got %q", day, res.Date)
		}
	}
}

func TestRepairPair(t *testing.T) {
	r := newTestReconstructor()
	ctx := Context{}

	tests := []struct {
		desc          string
		admission     string
		discharge     string
		wantAdmission string
		wantDischarge string
		admStatus     model.DateStatus
		disStatus     model.DateStatus
	}{
		{
			desc:          "Admission sentinel takes discharge year",
			admission:     "1900-03-02",
			discharge:     "2021-04-10",
			wantAdmission: "2021-03-02",
			wantDischarge: "2021-04-10",
			admStatus:     model.DateRepaired,
			disStatus:     model.DateParsed,
		},
		{
			desc:          "Discharge sentinel takes admission year",
			admission:     "2020-11-03",
			discharge:     "1900-12-20",
			wantAdmission: "2020-11-03",
			wantDischarge: "2020-12-20",
			admStatus:     model.DateParsed,
			disStatus:     model.DateRepaired,
		},
		{
			desc:      "Both sentinel stay flagged",
			admission: "1900-03-02",
			discharge: "1900-04-02",
			admStatus: model.DateSentinel,
			disStatus: model.DateSentinel,
		},
		{
			desc:          "Leap day against a non-leap sibling year",
			admission:     "1900-02-29",
			discharge:     "2021-03-01",
			wantDischarge: "2021-03-01",
			admStatus:     model.DateFailed,
			disStatus:     model.DateParsed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			adm, dis := r.RepairPair(r.Reconstruct(tt.admission, ctx), r.Reconstruct(tt.discharge, ctx))
			if adm.Date != tt.wantAdmission || adm.Status != tt.admStatus {
				t.Errorf("Admission: expected (%q, %s), got (%q, %s)", tt.wantAdmission, tt.admStatus, adm.Date, adm.Status)
			}
			if dis.Date != tt.wantDischarge || dis.Status != tt.disStatus {
				t.Errorf("Discharge: expected (%q, %s), got (%q, %s)", tt.wantDischarge, tt.disStatus, dis.Date, dis.Status)
			}
		})
	}
}

func TestContextMonthAndYear(t *testing.T) {
	if m, ok := ContextMonth("/data/2021/03 INGRESOS MARZO 2021.xlsx"); !ok || m != 3 {
		t.Errorf("Expected month 3, got %d (ok=%v)", m, ok)
	}
	if _, ok := ContextMonth(""); ok {
		t.Error("Expected no month for empty file name")
	}
	if y, ok := ContextYear("TRAZABILIDAD 2019", "01 ENERO.xlsx"); !ok || y != 2019 {
		t.Errorf("Expected year 2019, got %d (ok=%v)", y, ok)
	}
	if _, ok := ContextYear("", "01 ENERO.xlsx"); ok {
		t.Error("Expected no year when neither folder nor file carries one")
	}
}
