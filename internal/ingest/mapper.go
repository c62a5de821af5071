package ingest

import (
	"fmt"
	"time"

	"github.com/happyrobot-antonio/rechazos/internal/rejection/domain"
	"github.com/happyrobot-antonio/rechazos/internal/shared/metrics"
)

// dateLayouts are the formats spreadsheets show up with in practice
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006-01-02 15:04:05",
}

// MapRow translates one raw row into a normalized case. It is a pure
// transform: the same row always yields the same case apart from the
// "now" default on the first-contact date.
func MapRow(row Row, index int) (*domain.Case, error) {
	c := &domain.Case{Events: []domain.TimelineEvent{}}

	for _, col := range columns {
		setField(c, col.Field, row[col.Header])
	}

	if c.CodigoSC == "" {
		return nil, fmt.Errorf("Fila %d: Código SC es requerido", index+2)
	}

	c.Status = domain.NormalizeStatus(string(c.Status))
	c.FechaPrimerContacto = normalizeDate(c.FechaPrimerContacto)

	return c, nil
}

// MapRows maps every row, collecting per-row validation errors without
// dropping valid siblings.
func MapRows(rows []Row) ([]*domain.Case, []error) {
	var (
		cases []*domain.Case
		errs  []error
	)
	for i, row := range rows {
		c, err := MapRow(row, i)
		if err != nil {
			errs = append(errs, err)
			metrics.RecordImportRow("invalid")
			continue
		}
		cases = append(cases, c)
		metrics.RecordImportRow("ok")
	}
	return cases, errs
}

func setField(c *domain.Case, field, value string) {
	switch field {
	case "codigoSC":
		c.CodigoSC = value
	case "dniCif":
		c.DNICif = value
	case "nombreApellidos":
		c.NombreApellidos = value
	case "cups":
		c.CUPS = value
	case "contratoNC":
		c.ContratoNC = value
	case "lineaNegocio":
		c.LineaNegocio = value
	case "direccionCompleta":
		c.DireccionCompleta = value
	case "codigoPostal":
		c.CodigoPostal = value
	case "municipio":
		c.Municipio = value
	case "provincia":
		c.Provincia = value
	case "ccaa":
		c.CCAA = value
	case "distribuidora":
		c.Distribuidora = value
	case "grupoDistribuidora":
		c.GrupoDistribuidora = value
	case "emailContacto":
		c.EmailContacto = value
	case "telefonoContacto":
		c.TelefonoContacto = value
	case "proceso":
		c.Proceso = value
	case "potenciaActual":
		c.PotenciaActual = value
	case "potenciaSolicitada":
		c.PotenciaSolicitada = value
	case "status":
		c.Status = domain.CaseStatus(value)
	case "emailThreadId":
		c.EmailThreadID = value
	case "fechaPrimerContacto":
		c.FechaPrimerContacto = value
	}
}

// normalizeDate coerces the cell to RFC 3339, falling back to "now" when
// the value is blank or unparseable
func normalizeDate(value string) string {
	if value == "" {
		return time.Now().UTC().Format(time.RFC3339)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

// fieldValue reads the schema field back out of a case, the inverse of
// setField. Export relies on it to keep the round trip symmetric.
func fieldValue(c *domain.Case, field string) string {
	switch field {
	case "codigoSC":
		return c.CodigoSC
	case "dniCif":
		return c.DNICif
	case "nombreApellidos":
		return c.NombreApellidos
	case "cups":
		return c.CUPS
	case "contratoNC":
		return c.ContratoNC
	case "lineaNegocio":
		return c.LineaNegocio
	case "direccionCompleta":
		return c.DireccionCompleta
	case "codigoPostal":
		return c.CodigoPostal
	case "municipio":
		return c.Municipio
	case "provincia":
		return c.Provincia
	case "ccaa":
		return c.CCAA
	case "distribuidora":
		return c.Distribuidora
	case "grupoDistribuidora":
		return c.GrupoDistribuidora
	case "emailContacto":
		return c.EmailContacto
	case "telefonoContacto":
		return c.TelefonoContacto
	case "proceso":
		return c.Proceso
	case "potenciaActual":
		return c.PotenciaActual
	case "potenciaSolicitada":
		return c.PotenciaSolicitada
	case "status":
		return string(c.Status)
	case "emailThreadId":
		return c.EmailThreadID
	case "fechaPrimerContacto":
		return c.FechaPrimerContacto
	}
	return ""
}
