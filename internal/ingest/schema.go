package ingest

// column pairs a spreadsheet header with the case field it feeds.
// The order here is the canonical column order for both import and export.
type column struct {
	Header string
	Field  string
}

// columns is the fixed ingestion schema. Headers are the exact strings
// the back-office exports use, accents included.
var columns = []column{
	{"DNI/CIF", "dniCif"},
	{"Nombre y apellidos", "nombreApellidos"},
	{"CUPS", "cups"},
	{"Contrato NC", "contratoNC"},
	{"Linea de negocio", "lineaNegocio"},
	{"Código SC", "codigoSC"},
	{"Dirección completa", "direccionCompleta"},
	{"Codigo postal", "codigoPostal"},
	{"Municipio", "municipio"},
	{"Provincia", "provincia"},
	{"CCAA", "ccaa"},
	{"Distribuidora", "distribuidora"},
	{"Grupo distribuidora", "grupoDistribuidora"},
	{"Email contacto Naturgy", "emailContacto"},
	{"Teléfono contacto Naturgy", "telefonoContacto"},
	{"Proceso", "proceso"},
	{"Potencia actual", "potenciaActual"},
	{"Potencia solicitada", "potenciaSolicitada"},
	{"Status", "status"},
	{"Email thread ID", "emailThreadId"},
	{"Fecha primer Contacto por Email", "fechaPrimerContacto"},
}

// Headers returns the canonical header row in schema order
func Headers() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Header
	}
	return out
}
