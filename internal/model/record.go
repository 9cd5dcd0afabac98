package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is a single patient/therapy service row after ingestion.
// Raw values are preserved next to the canonical ones; canonical fields
// are nil when unresolved.
type Record struct {
	Seq int `json:"seq"` // stable input order, assigned at load time

	GivenName    *string `json:"given_name"`
	FamilyName   *string `json:"family_name"`
	IDType       *string `json:"id_type,omitempty"`
	Identifier   *string `json:"identifier"`
	Phone        *string `json:"phone,omitempty"`
	Address      *string `json:"address"`
	Professional *string `json:"professional,omitempty"`
	ServiceType  *string `json:"service_type,omitempty"`
	Diagnosis    *string `json:"diagnosis,omitempty"`
	Observations *string `json:"observations,omitempty"`
	Sessions     float64 `json:"sessions"`

	InsurerRaw      string  `json:"insurer_raw"`
	Insurer         *string `json:"insurer"`
	MunicipalityRaw string  `json:"municipality_raw"`
	Municipality    *string `json:"municipality"`

	AdmissionRaw    string     `json:"admission_date_raw"`
	AdmissionDate   *string    `json:"admission_date"`
	AdmissionStatus DateStatus `json:"admission_date_status"`
	DischargeRaw    string     `json:"discharge_date_raw"`
	DischargeDate   *string    `json:"discharge_date"`
	DischargeStatus DateStatus `json:"discharge_date_status"`

	Provenance Provenance `json:"provenance"`

	Mismatches []FieldMismatch `json:"field_mismatches,omitempty"`
	Reasons    []Reason        `json:"reasons,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	Recovery   []FieldRecovery `json:"recovery,omitempty"`
}

// Provenance identifies where a record came from.
type Provenance struct {
	SourceFile string `json:"source_file"`
	YearFolder string `json:"year_folder"`
	Sheet      string `json:"sheet,omitempty"`
}

// RawRecord is a flat mapping of canonical field keys to scalar values,
// as produced by the source adapters.
type RawRecord struct {
	Fields     map[string]any
	Provenance Provenance
}

// Value returns the field as trimmed text. Numbers keep their shortest
// decimal form so identifiers and spreadsheet serials survive intact.
func (r RawRecord) Value(field string) string {
	switch v := r.Fields[field].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format("2006-01-02")
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Canonical field keys used by adapters and the audit output.
const (
	FieldGivenName    = "given_name"
	FieldFamilyName   = "family_name"
	FieldIDType       = "id_type"
	FieldIdentifier   = "identifier"
	FieldInsurer      = "insurer"
	FieldDiagnosis    = "diagnosis"
	FieldMunicipality = "municipality"
	FieldAddress      = "address"
	FieldPhone        = "phone"
	FieldAdmission    = "admission_date"
	FieldDischarge    = "discharge_date"
	FieldProfessional = "professional"
	FieldObservations = "observations"
	FieldSessions     = "sessions"
	FieldServiceType  = "service_type"
)

// DateStatus describes how a date field was resolved.
type DateStatus string

const (
	DateEmpty         DateStatus = "empty"
	DateParsed        DateStatus = "parsed"
	DateReconstructed DateStatus = "reconstructed"
	DateRepaired      DateStatus = "repaired"
	DateSentinel      DateStatus = "sentinel"
	DateFailed        DateStatus = "failed"
	DateDiscarded     DateStatus = "discarded" // free text in a date column
)

// Unrecoverable reports whether the status blocks acceptance.
func (s DateStatus) Unrecoverable() bool {
	return s == DateSentinel || s == DateFailed
}

// FieldMismatch records a value the field classifier nulled.
type FieldMismatch struct {
	Field string `json:"field"`
	Class string `json:"class"`
	Raw   string `json:"raw"`
}

// FieldRecovery records a canonical value filled by the recovery engine.
type FieldRecovery struct {
	Field    string   `json:"field"`
	Strategy Strategy `json:"strategy"`
	Value    string   `json:"value"`
}

// Strategy names a recovery strategy.
type Strategy string

const (
	StrategyIdentifier Strategy = "identifier"
	StrategyExactName  Strategy = "exact_name"
	StrategyFuzzyName  Strategy = "fuzzy_name"
	StrategyAddress    Strategy = "address_token"
	StrategyGazetteer  Strategy = "gazetteer"
)

// HasIdentity reports whether the record carries any identifying
// information: an identifier, a name part or address text.
func (r *Record) HasIdentity() bool {
	return present(r.Identifier) || present(r.GivenName) || present(r.FamilyName) || present(r.Address)
}

// Strategies returns the distinct strategies that filled fields, in order.
func (r *Record) Strategies() []Strategy {
	var out []Strategy
	seen := make(map[Strategy]bool)
	for _, fr := range r.Recovery {
		if !seen[fr.Strategy] {
			seen[fr.Strategy] = true
			out = append(out, fr.Strategy)
		}
	}
	return out
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	c.Mismatches = append([]FieldMismatch(nil), r.Mismatches...)
	c.Reasons = append([]Reason(nil), r.Reasons...)
	c.Recovery = append([]FieldRecovery(nil), r.Recovery...)
	return &c
}

func present(s *string) bool {
	return s != nil && *s != ""
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
