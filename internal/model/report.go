package model

import "time"

// Report is the run-level cleaning report. It carries counts only;
// the records themselves are persisted per partition by a sink.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Inputs     []string  `json:"inputs"`
	Skipped    []string  `json:"skipped,omitempty"` // inputs that could not be read

	Totals  Totals   `json:"totals"`
	Quality Quality  `json:"quality"`
	Signals []Signal `json:"signals"`
}

// Totals counts records per partition.
type Totals struct {
	Input          int `json:"input"`
	ValidOriginal  int `json:"valid_original"`
	ValidRecovered int `json:"valid_recovered"`
	Rejected       int `json:"rejected"`
	DiscardedEmpty int `json:"discarded_empty"`
}

// Quality holds the before/after statistics of a run.
type Quality struct {
	RejectionReasons   map[ReasonCode]int             `json:"rejection_reasons"`
	RecoveryByStrategy map[Strategy]int               `json:"recovery_by_strategy"`
	RecoveredFields    map[string]map[Strategy]int    `json:"recovered_fields"`
	Categorical        map[FieldKind]CategoricalStats `json:"categorical"`
	Dates              map[string]map[DateStatus]int  `json:"dates"`
	Mismatches         map[string]map[string]int      `json:"field_mismatches"`
	LocationIndex      IndexStats                     `json:"location_index"`
}

// CategoricalStats summarizes one categorical field across the run.
type CategoricalStats struct {
	DistinctRaw       int            `json:"distinct_raw"`
	DistinctCanonical int            `json:"distinct_canonical"`
	Unresolved        int            `json:"unresolved"`
	Methods           map[string]int `json:"methods"`
	Top               []ValueCount   `json:"top"`
}

// ValueCount is a value with its frequency.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// IndexStats describes the address-token location index of a run.
type IndexStats struct {
	Tokens    int          `json:"tokens"`
	Confident int          `json:"confident"`
	Floor     float64      `json:"floor"`
	Entries   []IndexEntry `json:"entries,omitempty"`
}

// IndexEntry is the majority municipality for one locality token.
type IndexEntry struct {
	Token        string  `json:"token"`
	Municipality string  `json:"municipality"`
	Support      int     `json:"support"`
	Total        int     `json:"total"`
	Confidence   float64 `json:"confidence"`
}

// ReasonCode classifies why a record was rejected or discarded.
type ReasonCode string

const (
	ReasonInsurerUnresolved      ReasonCode = "insurer_unresolved"
	ReasonMunicipalityUnresolved ReasonCode = "municipality_unresolved"
	ReasonAdmissionSentinel      ReasonCode = "admission_date_sentinel"
	ReasonDischargeSentinel      ReasonCode = "discharge_date_sentinel"
	ReasonAdmissionInvalid       ReasonCode = "admission_date_unreconstructable"
	ReasonDischargeInvalid       ReasonCode = "discharge_date_unreconstructable"
	ReasonNoIdentity             ReasonCode = "no_identifying_information"
)

// Reason is one failed acceptance condition together with the raw value.
type Reason struct {
	Code    ReasonCode `json:"code"`
	Field   string     `json:"field"`
	Raw     string     `json:"raw"`
	Message string     `json:"message"`
}

// Signal is a diagnostic observation about the run with its inputs.
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalAcceptance     SignalType = "acceptance"      // share of input accepted
	SignalRecovery       SignalType = "recovery"        // share of rejected records recovered
	SignalConsolidation  SignalType = "consolidation"   // distinct raw vs canonical values
	SignalUnresolved     SignalType = "unresolved"      // categorical values left null
	SignalDateCorruption SignalType = "date_corruption" // sentinel and failed dates
	SignalTypeMismatch   SignalType = "type_mismatch"   // values nulled by the classifier
	SignalEmptyRecords   SignalType = "empty_records"   // rows with no identity
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
