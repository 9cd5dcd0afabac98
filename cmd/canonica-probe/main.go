// Probe program to show how literal values resolve
// This prints normalizer and date reconstructor outcomes side by side
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/canonica/internal/dates"
	"github.com/ppiankov/canonica/internal/model"
	"github.com/ppiankov/canonica/internal/normalize"
	"github.com/ppiankov/canonica/internal/refdata"
)

func main() {
	fmt.Println("=== canonica probe ===")
	fmt.Println()

	masters, err := refdata.Default()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg := model.DefaultConfig()
	n := normalize.NewNormalizer(masters, cfg.Normalize, nil)
	r := dates.NewReconstructor(cfg.Dates)

	// Literals seen in real exports
	categorical := []struct {
		raw  string
		kind model.FieldKind
	}{
		{"MOTERIA", model.KindMunicipality},
		{"Montería", model.KindMunicipality},
		{"MONTERIAA", model.KindMunicipality},
		{"ARACHE", model.KindMunicipality},
		{"2021-03-01", model.KindMunicipality},
		{"nueva e.p.s", model.KindInsurer},
		{"SURAMERICANA", model.KindInsurer},
		{"COOSALU", model.KindInsurer},
		{"N/A", model.KindInsurer},
	}

	fmt.Println("Categorical values")
	fmt.Println(strings.Repeat("-", 60))
	for _, c := range categorical {
		res := n.Resolve(c.raw, c.kind)
		canonical := res.Canonical
		if canonical == "" {
			canonical = "<null>"
		}
		fmt.Printf("  %-14s %-14q -> %-14s (%s", c.kind, c.raw, canonical, res.Method)
		if res.Score > 0 {
			fmt.Printf(", %.2f", res.Score)
		}
		fmt.Println(")")
	}
	fmt.Println()

	march := dates.Context{SourceFile: "03 INGRESOS MARZO 2021.xlsx", YearFolder: "2021"}
	april := dates.Context{SourceFile: "04 INGRESOS ABRIL.xlsx", YearFolder: "2021"}
	dateCases := []struct {
		raw string
		ctx dates.Context
	}{
		{"15", march},
		{"31", april},
		{"1900-01-15", march},
		{"1900-03-02", march},
		{"44270", march},
		{"05/03/21", march},
		{"PENDIENTE", march},
	}

	fmt.Println("Dates")
	fmt.Println(strings.Repeat("-", 60))
	for _, d := range dateCases {
		res := r.Reconstruct(d.raw, d.ctx)
		date := res.Date
		if date == "" {
			date = "<null>"
		}
		fmt.Printf("  %-12q in %-28s -> %-10s (%s)\n", d.raw, d.ctx.SourceFile, date, res.Status)
	}
	fmt.Println()
}
