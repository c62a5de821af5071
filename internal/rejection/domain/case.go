package domain

import (
	"fmt"
	"time"
)

// CaseStatus defines the workflow status of a rejection case
type CaseStatus string

const (
	StatusInProgress    CaseStatus = "In progress"
	StatusRevisarGestor CaseStatus = "Revisar gestor"
	StatusCancelarSC    CaseStatus = "Cancelar SC"
	StatusRelanzarSC    CaseStatus = "Relanzar SC"
)

// ValidStatuses is the closed set of statuses a case may carry.
var ValidStatuses = []CaseStatus{
	StatusInProgress,
	StatusRevisarGestor,
	StatusCancelarSC,
	StatusRelanzarSC,
}

// NormalizeStatus coerces untrusted input to a known status.
// Anything outside the enumerated set becomes "In progress".
func NormalizeStatus(s string) CaseStatus {
	for _, valid := range ValidStatuses {
		if CaseStatus(s) == valid {
			return valid
		}
	}
	return StatusInProgress
}

// DuplicateMode governs how a create call resolves a colliding codigoSC
type DuplicateMode string

const (
	// DuplicateAppend keeps the existing case untouched and appends a
	// timeline event recording the re-import.
	DuplicateAppend DuplicateMode = "append"
	// DuplicateOverwrite replaces the existing case's scalar fields.
	// Event history is preserved.
	DuplicateOverwrite DuplicateMode = "overwrite"
)

// ParseDuplicateMode validates a duplicate mode string, defaulting to append.
func ParseDuplicateMode(s string) (DuplicateMode, error) {
	switch DuplicateMode(s) {
	case DuplicateAppend, "":
		return DuplicateAppend, nil
	case DuplicateOverwrite:
		return DuplicateOverwrite, nil
	default:
		return "", fmt.Errorf("unknown duplicate mode %q", s)
	}
}

// Case is the aggregate root for a rejection case. It is keyed by the
// externally assigned CodigoSC; the platform never generates one.
type Case struct {
	CodigoSC string `json:"codigoSC"`

	// Client identity
	DNICif           string `json:"dniCif"`
	NombreApellidos  string `json:"nombreApellidos"`

	// Contract identity
	CUPS         string `json:"cups"`
	ContratoNC   string `json:"contratoNC"`
	LineaNegocio string `json:"lineaNegocio"`

	// Address
	DireccionCompleta string `json:"direccionCompleta"`
	CodigoPostal      string `json:"codigoPostal"`
	Municipio         string `json:"municipio"`
	Provincia         string `json:"provincia"`
	CCAA              string `json:"ccaa"`

	// Distribution
	Distribuidora      string `json:"distribuidora"`
	GrupoDistribuidora string `json:"grupoDistribuidora"`

	// Contact
	EmailContacto    string `json:"emailContacto"`
	TelefonoContacto string `json:"telefonoContacto"`

	// Process metadata
	Proceso            string `json:"proceso"`
	PotenciaActual     string `json:"potenciaActual"`
	PotenciaSolicitada string `json:"potenciaSolicitada"`

	Status              CaseStatus `json:"status"`
	EmailThreadID       string     `json:"emailThreadId,omitempty"`
	FechaPrimerContacto string     `json:"fechaPrimerContacto"`

	Events []TimelineEvent `json:"events"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewCase creates a case with validation and the server-side creation event.
func NewCase(codigoSC string) (*Case, error) {
	if codigoSC == "" {
		return nil, fmt.Errorf("codigoSC is required")
	}

	now := time.Now()
	c := &Case{
		CodigoSC:            codigoSC,
		Status:              StatusInProgress,
		FechaPrimerContacto: now.UTC().Format(time.RFC3339),
		Events:              []TimelineEvent{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	c.AppendEvent(NewTimelineEvent(codigoSC, EventHappyrobotInit, "Caso creado en la plataforma", nil))

	return c, nil
}

// AppendEvent attaches a timeline event to the case. Events are append-only;
// nothing ever edits or reorders past entries.
func (c *Case) AppendEvent(e TimelineEvent) {
	c.Events = append(c.Events, e)
	c.UpdatedAt = time.Now()
}

// OverwriteFields replaces the scalar fields of the case with those of src,
// keeping identity, event history and creation time.
func (c *Case) OverwriteFields(src *Case) {
	c.DNICif = src.DNICif
	c.NombreApellidos = src.NombreApellidos
	c.CUPS = src.CUPS
	c.ContratoNC = src.ContratoNC
	c.LineaNegocio = src.LineaNegocio
	c.DireccionCompleta = src.DireccionCompleta
	c.CodigoPostal = src.CodigoPostal
	c.Municipio = src.Municipio
	c.Provincia = src.Provincia
	c.CCAA = src.CCAA
	c.Distribuidora = src.Distribuidora
	c.GrupoDistribuidora = src.GrupoDistribuidora
	c.EmailContacto = src.EmailContacto
	c.TelefonoContacto = src.TelefonoContacto
	c.Proceso = src.Proceso
	c.PotenciaActual = src.PotenciaActual
	c.PotenciaSolicitada = src.PotenciaSolicitada
	c.Status = NormalizeStatus(string(src.Status))
	c.EmailThreadID = src.EmailThreadID
	c.FechaPrimerContacto = src.FechaPrimerContacto
	c.UpdatedAt = time.Now()
}

// ChangeStatus applies a manual status decision. Relaunch and cancel go
// through their dedicated transitions; other targets record a plain
// manual result. Setting the current status again is a no-op.
func (c *Case) ChangeStatus(target CaseStatus, reason string) error {
	target = NormalizeStatus(string(target))
	if target == c.Status {
		return nil
	}

	switch target {
	case StatusRelanzarSC:
		return c.Relaunch(reason)
	case StatusCancelarSC:
		return c.Cancel(reason)
	}

	old := c.Status
	c.Status = target
	c.UpdatedAt = time.Now()
	c.AppendEvent(NewTimelineEvent(c.CodigoSC, EventManualResult, reason, map[string]any{
		"old_status": old,
		"new_status": target,
	}))
	return nil
}

// Relaunch transitions the case to "Relanzar SC" and records the decision.
func (c *Case) Relaunch(reason string) error {
	if c.Status == StatusRelanzarSC {
		return fmt.Errorf("case is already marked for relaunch")
	}
	old := c.Status
	c.Status = StatusRelanzarSC
	c.UpdatedAt = time.Now()
	c.AppendEvent(NewTimelineEvent(c.CodigoSC, EventManualResult, reason, map[string]any{
		"old_status": old,
		"new_status": StatusRelanzarSC,
	}))
	return nil
}

// Cancel transitions the case to "Cancelar SC" and records the decision.
func (c *Case) Cancel(reason string) error {
	if c.Status == StatusCancelarSC {
		return fmt.Errorf("case is already cancelled")
	}
	old := c.Status
	c.Status = StatusCancelarSC
	c.UpdatedAt = time.Now()
	c.AppendEvent(NewTimelineEvent(c.CodigoSC, EventManualResult, reason, map[string]any{
		"old_status": old,
		"new_status": StatusCancelarSC,
	}))
	return nil
}
