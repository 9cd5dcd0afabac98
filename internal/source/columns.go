package source

import (
	"regexp"
	"strings"

	"github.com/ppiankov/canonica/internal/model"
	"github.com/ppiankov/canonica/internal/util"
)

// columnAliases maps folded spreadsheet headers to field keys. When a
// header is listed twice the first field wins ("TIPO" is an id type).
var columnAliases = []struct {
	field   string
	headers []string
}{
	{model.FieldGivenName, []string{"NOMBRE", "NOMBRES", "NOMBRES DEL PACIENTE"}},
	{model.FieldFamilyName, []string{"APELLIDO", "APELLIDOS"}},
	{model.FieldIDType, []string{"TIPO ID", "TIPO DE ID", "TIPO DE DOCUMENTO", "TIPO"}},
	{model.FieldIdentifier, []string{"NUMERO ID", "NUMERO DE ID", "NUMERO", "ID", "DOCUMENTO", "CEDULA", "NUMERO DE DOCUMENTO"}},
	{model.FieldInsurer, []string{"EPS", "ASEGURADORA", "ENTIDAD"}},
	{model.FieldDiagnosis, []string{"DIAGNOSTICO", "DX"}},
	{model.FieldMunicipality, []string{"MUNICIPIO", "MUNICIPO DE ATENCION", "MUNICIPIO DE ATENCION"}},
	{model.FieldAddress, []string{"DIRECCION", "DIRECCION DE ATENCION"}},
	{model.FieldPhone, []string{"TELEFONO", "CELULAR"}},
	{model.FieldAdmission, []string{"FECHA DE INGRESO", "FECHA INGRESO", "FECHA DE ENTREGA", "FECHA DE INICIO"}},
	{model.FieldDischarge, []string{"FECHA DE EGRESO", "FECHA EGRESO"}},
	{model.FieldProfessional, []string{"TERAPEUTA ENCARGADO", "PROFESIONAL", "TERAPEUTA ENTREGADO"}},
	{model.FieldObservations, []string{"OBSERVACIONES", "OBSERVACION", "OBSERVACIONES AL PROCESO"}},
	{model.FieldSessions, []string{"SESIONES", "SESIONES DE TERAPIAS", "# TERAPIAS", "CANTIDAD", "CANTIDAD TOTAL"}},
	{model.FieldServiceType, []string{"TIPO DE TERAPIAS", "TIPO DE TERAPIA", "TIPO TERAPIA"}},
}

var headerIndex = func() map[string]string {
	idx := make(map[string]string)
	for _, a := range columnAliases {
		for _, h := range a.headers {
			if _, taken := idx[h]; !taken {
				idx[h] = a.field
			}
		}
	}
	for _, f := range []string{
		model.FieldGivenName, model.FieldFamilyName, model.FieldIDType, model.FieldIdentifier,
		model.FieldInsurer, model.FieldDiagnosis, model.FieldMunicipality, model.FieldAddress,
		model.FieldPhone, model.FieldAdmission, model.FieldDischarge, model.FieldProfessional,
		model.FieldObservations, model.FieldSessions, model.FieldServiceType,
	} {
		idx[foldHeader(f)] = f
	}
	return idx
}()

// ColumnFor maps a spreadsheet header, a converted-document key such as
// "numero_id", or a field key itself to a field key.
func ColumnFor(header string) (string, bool) {
	field, ok := headerIndex[foldHeader(header)]
	return field, ok
}

func foldHeader(h string) string {
	return util.Fold(strings.ReplaceAll(h, "_", " "))
}

var summaryPattern = regexp.MustCompile(`\b(?:TOTAL|SUBTOTAL|RESUMEN)\b`)

// isSummary reports whether a row is a footer or subtotal line rather
// than a record.
func isSummary(fields map[string]any) bool {
	name, _ := fields[model.FieldGivenName].(string)
	return summaryPattern.MatchString(util.Fold(name))
}

// isBlank reports whether no mapped field holds a value.
func isBlank(fields map[string]any) bool {
	for _, v := range fields {
		switch s := v.(type) {
		case nil:
		case string:
			if strings.TrimSpace(s) != "" {
				return false
			}
		default:
			return false
		}
	}
	return true
}
