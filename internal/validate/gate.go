package validate

import (
	"fmt"
	"strings"

	"github.com/ppiankov/canonica/internal/model"
)

// Verdict is the acceptance decision for one record.
type Verdict struct {
	Valid   bool
	Reasons []model.Reason
}

// Gate decides whether a record may enter the valid partition.
// A record is valid when both categorical fields resolved and neither
// date is left at the sentinel year or failed reconstruction.
type Gate struct{}

// NewGate creates an acceptance gate.
func NewGate() *Gate {
	return &Gate{}
}

// Evaluate checks every acceptance condition and returns one reason per
// failed condition. It does not modify the record.
func (g *Gate) Evaluate(r *model.Record) Verdict {
	var reasons []model.Reason

	if r.Insurer == nil {
		reasons = append(reasons, reason(model.ReasonInsurerUnresolved, model.FieldInsurer, r.InsurerRaw, "insurer unresolved"))
	}
	if r.Municipality == nil {
		reasons = append(reasons, reason(model.ReasonMunicipalityUnresolved, model.FieldMunicipality, r.MunicipalityRaw, "municipality unresolved"))
	}

	switch r.AdmissionStatus {
	case model.DateSentinel:
		reasons = append(reasons, reason(model.ReasonAdmissionSentinel, model.FieldAdmission, r.AdmissionRaw, "admission date at sentinel year"))
	case model.DateFailed:
		reasons = append(reasons, reason(model.ReasonAdmissionInvalid, model.FieldAdmission, r.AdmissionRaw, "admission date could not be reconstructed"))
	}

	switch r.DischargeStatus {
	case model.DateSentinel:
		reasons = append(reasons, reason(model.ReasonDischargeSentinel, model.FieldDischarge, r.DischargeRaw, "discharge date at sentinel year"))
	case model.DateFailed:
		reasons = append(reasons, reason(model.ReasonDischargeInvalid, model.FieldDischarge, r.DischargeRaw, "discharge date could not be reconstructed"))
	}

	return Verdict{
		Valid:   len(reasons) == 0,
		Reasons: reasons,
	}
}

// Apply evaluates the record and stores the reasons on it.
func (g *Gate) Apply(r *model.Record) bool {
	v := g.Evaluate(r)
	r.Reasons = v.Reasons
	r.Reason = FormatReasons(v.Reasons)
	return v.Valid
}

// FormatReasons joins reasons into the human-readable audit string,
// e.g. "insurer unresolved: XYZ | municipality unresolved: N/A".
func FormatReasons(reasons []model.Reason) string {
	if len(reasons) == 0 {
		return ""
	}
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = r.Message
	}
	return strings.Join(parts, " | ")
}

func reason(code model.ReasonCode, field, raw, label string) model.Reason {
	shown := strings.TrimSpace(raw)
	if shown == "" {
		shown = "N/A"
	}
	return model.Reason{
		Code:    code,
		Field:   field,
		Raw:     raw,
		Message: fmt.Sprintf("%s: %s", label, shown),
	}
}
