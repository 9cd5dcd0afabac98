package pipeline

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/canonica/internal/dates"
	"github.com/ppiankov/canonica/internal/model"
	"github.com/ppiankov/canonica/internal/normalize"
	"github.com/ppiankov/canonica/internal/validate"
	"github.com/ppiankov/canonica/internal/worker"
)

var sessionsPattern = regexp.MustCompile(`^\s*(\d+(?:[.,]\d+)?)`)

// textField is a free-text column that is nulled when it holds a
// serialized date or a bare number where words were expected.
type textField struct {
	name     string
	dateOnly bool // numbers are legitimate (phone, address)
	set      func(r *model.Record, v *string)
}

var textFields = []textField{
	{model.FieldGivenName, false, func(r *model.Record, v *string) { r.GivenName = v }},
	{model.FieldFamilyName, false, func(r *model.Record, v *string) { r.FamilyName = v }},
	{model.FieldIDType, true, func(r *model.Record, v *string) { r.IDType = v }},
	{model.FieldPhone, true, func(r *model.Record, v *string) { r.Phone = v }},
	{model.FieldAddress, true, func(r *model.Record, v *string) { r.Address = v }},
	{model.FieldProfessional, false, func(r *model.Record, v *string) { r.Professional = v }},
	{model.FieldServiceType, false, func(r *model.Record, v *string) { r.ServiceType = v }},
	{model.FieldDiagnosis, true, func(r *model.Record, v *string) { r.Diagnosis = v }},
	{model.FieldObservations, true, func(r *model.Record, v *string) { r.Observations = v }},
}

// Preparer turns raw rows into classified, normalized and dated records
// and runs the acceptance gate on them. Safe for concurrent use.
type Preparer struct {
	classifier    *validate.FieldClassifier
	normalizer    *normalize.Normalizer
	reconstructor *dates.Reconstructor
	gate          *validate.Gate
}

// NewPreparer creates a preparer from its stages.
func NewPreparer(normalizer *normalize.Normalizer, reconstructor *dates.Reconstructor) *Preparer {
	return &Preparer{
		classifier:    validate.NewFieldClassifier(nil),
		normalizer:    normalizer,
		reconstructor: reconstructor,
		gate:          validate.NewGate(),
	}
}

// Methods counts normalizer resolution methods per field kind.
type Methods map[model.FieldKind]map[string]int

func (m Methods) add(kind model.FieldKind, method normalize.Method) {
	if m[kind] == nil {
		m[kind] = make(map[string]int)
	}
	m[kind][string(method)]++
}

func (m Methods) merge(other Methods) {
	for kind, counts := range other {
		for method, n := range counts {
			if m[kind] == nil {
				m[kind] = make(map[string]int)
			}
			m[kind][method] += n
		}
	}
}

// Prepare builds the record for raw, assigns seq and evaluates the gate.
// It reports whether the record was accepted.
func (p *Preparer) Prepare(raw model.RawRecord, seq int, methods Methods) (*model.Record, bool) {
	r := &model.Record{Seq: seq, Provenance: raw.Provenance}

	for _, f := range textFields {
		f.set(r, p.text(r, raw, f))
	}

	p.identifier(r, raw.Value(model.FieldIdentifier))
	r.Sessions = parseSessions(raw.Value(model.FieldSessions))

	r.InsurerRaw = raw.Value(model.FieldInsurer)
	r.MunicipalityRaw = raw.Value(model.FieldMunicipality)
	r.Insurer = p.categorical(r, model.FieldInsurer, r.InsurerRaw, model.KindInsurer, methods)
	r.Municipality = p.categorical(r, model.FieldMunicipality, r.MunicipalityRaw, model.KindMunicipality, methods)

	p.dates(r, raw)

	return r, p.gate.Apply(r)
}

func (p *Preparer) text(r *model.Record, raw model.RawRecord, f textField) *string {
	v := raw.Value(f.name)
	class := p.classifier.Classify(v, validate.ExpectText)
	if f.dateOnly && class == validate.ClassNumeric {
		class = validate.ClassMatch
	}
	if class.Mismatch() {
		r.Mismatches = append(r.Mismatches, model.FieldMismatch{Field: f.name, Class: string(class), Raw: v})
		return nil
	}
	return model.StringPtr(v)
}

func (p *Preparer) identifier(r *model.Record, v string) {
	if v == "" {
		return
	}
	if id, ok := validate.NormalizeIdentifier(v); ok {
		r.Identifier = model.StringPtr(id)
		return
	}
	class := p.classifier.Classify(v, validate.ExpectIdentifier)
	if !class.Mismatch() {
		class = validate.ClassUnparseable
	}
	r.Mismatches = append(r.Mismatches, model.FieldMismatch{Field: model.FieldIdentifier, Class: string(class), Raw: v})
}

// categorical resolves a categorical value. A date or number in the
// column is also recorded as a field mismatch.
func (p *Preparer) categorical(r *model.Record, field, v string, kind model.FieldKind, methods Methods) *string {
	if class := p.classifier.Classify(v, validate.ExpectText); class.Mismatch() {
		r.Mismatches = append(r.Mismatches, model.FieldMismatch{Field: field, Class: string(class), Raw: v})
	}

	res := p.normalizer.Resolve(v, kind)
	methods.add(kind, res.Method)
	return model.StringPtr(res.Canonical)
}

func (p *Preparer) dates(r *model.Record, raw model.RawRecord) {
	ctx := dates.ContextOf(r.Provenance)
	r.AdmissionRaw = raw.Value(model.FieldAdmission)
	r.DischargeRaw = raw.Value(model.FieldDischarge)

	adm, dis := p.reconstructor.RepairPair(
		p.reconstructor.Reconstruct(r.AdmissionRaw, ctx),
		p.reconstructor.Reconstruct(r.DischargeRaw, ctx),
	)

	r.AdmissionDate, r.AdmissionStatus = model.StringPtr(adm.Date), adm.Status
	r.DischargeDate, r.DischargeStatus = model.StringPtr(dis.Date), dis.Status

	if adm.Status == model.DateDiscarded {
		r.Mismatches = append(r.Mismatches, model.FieldMismatch{Field: model.FieldAdmission, Class: string(validate.ClassUnparseable), Raw: r.AdmissionRaw})
	}
	if dis.Status == model.DateDiscarded {
		r.Mismatches = append(r.Mismatches, model.FieldMismatch{Field: model.FieldDischarge, Class: string(validate.ClassUnparseable), Raw: r.DischargeRaw})
	}
}

// parseSessions reads the leading number of values like "30" or
// "30 SESIONES". Anything else counts as zero sessions.
func parseSessions(v string) float64 {
	m := sessionsPattern.FindStringSubmatch(v)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// prepareJob prepares one contiguous chunk of raw records.
type prepareJob struct {
	preparer *Preparer
	raws     []model.RawRecord
	offset   int
}

// prepareResult holds a prepared chunk in input order.
type prepareResult struct {
	records  []*model.Record
	accepted []bool
	methods  Methods
}

func (r *prepareResult) GetError() error { return nil }

func (j *prepareJob) Execute(ctx context.Context) worker.Result {
	res := &prepareResult{
		records:  make([]*model.Record, len(j.raws)),
		accepted: make([]bool, len(j.raws)),
		methods:  make(Methods),
	}
	for i, raw := range j.raws {
		res.records[i], res.accepted[i] = j.preparer.Prepare(raw, j.offset+i, res.methods)
	}
	return res
}

// Prepared is the outcome of the preparation stage.
type Prepared struct {
	Records  []*model.Record // every record, by seq
	Accepted []*model.Record
	Rejected []*model.Record
	Methods  Methods
}

// PrepareAll prepares raws in chunks on a worker pool. Chunks are merged
// back in input order so seq numbers and partition order are stable.
func (p *Preparer) PrepareAll(ctx context.Context, raws []model.RawRecord, workers, chunkSize int) (*Prepared, error) {
	if chunkSize <= 0 {
		chunkSize = 500
	}

	pool := worker.NewPool(ctx, workers)
	pool.Start()
	for start := 0; start < len(raws); start += chunkSize {
		if err := ctx.Err(); err != nil {
			pool.Shutdown()
			return nil, err
		}
		end := start + chunkSize
		if end > len(raws) {
			end = len(raws)
		}
		pool.Submit(&prepareJob{preparer: p, raws: raws[start:end], offset: start})
	}
	results := pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Prepared{
		Records: make([]*model.Record, 0, len(raws)),
		Methods: make(Methods),
	}
	for _, r := range results {
		chunk, ok := r.(*prepareResult)
		if !ok {
			return nil, context.Canceled
		}
		out.Methods.merge(chunk.methods)
		for i, rec := range chunk.records {
			out.Records = append(out.Records, rec)
			if chunk.accepted[i] {
				out.Accepted = append(out.Accepted, rec)
			} else {
				out.Rejected = append(out.Rejected, rec)
			}
		}
	}
	return out, nil
}
