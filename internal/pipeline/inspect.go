package pipeline

import (
	"context"
	"sort"

	"github.com/ppiankov/canonica/internal/model"
	"github.com/ppiankov/canonica/internal/validate"
)

// maxExamples is the number of raw values kept per field and class.
const maxExamples = 3

var expectedTypes = map[string]validate.Expected{
	model.FieldGivenName:    validate.ExpectText,
	model.FieldFamilyName:   validate.ExpectText,
	model.FieldIdentifier:   validate.ExpectIdentifier,
	model.FieldInsurer:      validate.ExpectText,
	model.FieldMunicipality: validate.ExpectText,
	model.FieldProfessional: validate.ExpectText,
	model.FieldServiceType:  validate.ExpectText,
	model.FieldAdmission:    validate.ExpectDate,
	model.FieldDischarge:    validate.ExpectDate,
	model.FieldSessions:     validate.ExpectNumber,
}

// FieldAudit summarizes how the values of one field classify.
type FieldAudit struct {
	Field    string                      `json:"field"`
	Expected validate.Expected           `json:"expected"`
	Total    int                         `json:"total"`
	Classes  map[validate.Class]int      `json:"classes"`
	Examples map[validate.Class][]string `json:"examples,omitempty"`
}

// Mismatches returns the number of values that would be nulled.
func (a FieldAudit) Mismatches() int {
	n := 0
	for class, count := range a.Classes {
		if class.Mismatch() {
			n += count
		}
	}
	return n
}

// InspectReport is the field classifier audit of a set of inputs.
type InspectReport struct {
	Files   int          `json:"files"`
	Skipped []string     `json:"skipped,omitempty"`
	Records int          `json:"records"`
	Fields  []FieldAudit `json:"fields"`
}

// Inspect loads inputs and classifies every field value against its
// expected type without normalizing anything.
func (p *Pipeline) Inspect(ctx context.Context, inputs []string) (*InspectReport, error) {
	in, err := p.load(ctx, inputs)
	if err != nil {
		return nil, err
	}

	report := AuditFields(in.raws)
	report.Files = len(in.paths) - len(in.skipped)
	report.Skipped = in.skipped
	return report, nil
}

// AuditFields classifies raw records field by field. Fields are sorted by
// mismatch count, highest first.
func AuditFields(raws []model.RawRecord) *InspectReport {
	classifier := validate.NewFieldClassifier(nil)
	audits := make(map[string]*FieldAudit, len(expectedTypes))

	for _, raw := range raws {
		for field, expected := range expectedTypes {
			v := raw.Value(field)
			if v == "" {
				continue
			}

			a, ok := audits[field]
			if !ok {
				a = &FieldAudit{
					Field:    field,
					Expected: expected,
					Classes:  make(map[validate.Class]int),
					Examples: make(map[validate.Class][]string),
				}
				audits[field] = a
			}

			class := classifier.Classify(v, expected)
			a.Total++
			a.Classes[class]++
			if class.Mismatch() && len(a.Examples[class]) < maxExamples {
				a.Examples[class] = append(a.Examples[class], v)
			}
		}
	}

	report := &InspectReport{Records: len(raws)}
	for _, a := range audits {
		report.Fields = append(report.Fields, *a)
	}
	sort.Slice(report.Fields, func(i, j int) bool {
		mi, mj := report.Fields[i].Mismatches(), report.Fields[j].Mismatches()
		if mi != mj {
			return mi > mj
		}
		return report.Fields[i].Field < report.Fields[j].Field
	})
	return report
}
