package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/happyrobot-antonio/rechazos/internal/rejection/domain"
	"github.com/happyrobot-antonio/rechazos/internal/shared/errors"
	"github.com/happyrobot-antonio/rechazos/internal/shared/metrics"
	"github.com/happyrobot-antonio/rechazos/internal/shared/types"
)

// Handler provides HTTP handlers for the rejection case module
type Handler struct {
	repo     domain.Repository
	validate *validator.Validate
}

// NewHandler creates a new case handler
func NewHandler(repo domain.Repository) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("dnicif", func(fl validator.FieldLevel) bool {
		return types.DNICif(fl.Field().String()).IsValid()
	})
	return &Handler{repo: repo, validate: v}
}

// Routes registers the case routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListCases)
	r.Post("/", h.CreateCase)
	r.Get("/stats", h.GetStats)

	r.Route("/{codigoSC}", func(r chi.Router) {
		r.Get("/", h.GetCase)
		r.Post("/update", h.UpdateCase)
		r.Post("/delete", h.DeleteCase)

		r.Get("/events", h.ListEvents)
		r.Post("/events", h.CreateEvent)
	})

	return r
}

// --- Request/Response types ---

// CreateCaseInput mirrors the ingestion contract. Only the primary key is
// mandatory; every other field arrives as spreadsheet text and may be blank.
type CreateCaseInput struct {
	CodigoSC            string `json:"codigoSC" validate:"required"`
	DNICif              string `json:"dniCif"`
	NombreApellidos     string `json:"nombreApellidos"`
	CUPS                string `json:"cups"`
	ContratoNC          string `json:"contratoNC"`
	LineaNegocio        string `json:"lineaNegocio"`
	DireccionCompleta   string `json:"direccionCompleta"`
	CodigoPostal        string `json:"codigoPostal"`
	Municipio           string `json:"municipio"`
	Provincia           string `json:"provincia"`
	CCAA                string `json:"ccaa"`
	Distribuidora       string `json:"distribuidora"`
	GrupoDistribuidora  string `json:"grupoDistribuidora"`
	EmailContacto       string `json:"emailContacto" validate:"omitempty,email"`
	TelefonoContacto    string `json:"telefonoContacto"`
	Proceso             string `json:"proceso"`
	PotenciaActual      string `json:"potenciaActual"`
	PotenciaSolicitada  string `json:"potenciaSolicitada"`
	Status              string `json:"status"`
	EmailThreadID       string `json:"emailThreadId"`
	FechaPrimerContacto string `json:"fechaPrimerContacto"`
}

// CreateCaseRequest carries the input plus the batch-wide duplicate policy
type CreateCaseRequest struct {
	CreateCaseInput
	DuplicateMode string `json:"duplicateMode"`
}

// UpdateCaseRequest is a partial CreateCaseInput; nil means "leave as is".
// Spreadsheet imports are lenient about dirty data, manual edits are not.
type UpdateCaseRequest struct {
	NombreApellidos     *string `json:"nombreApellidos,omitempty"`
	DNICif              *string `json:"dniCif,omitempty" validate:"omitempty,dnicif"`
	EmailContacto       *string `json:"emailContacto,omitempty" validate:"omitempty,email"`
	TelefonoContacto    *string `json:"telefonoContacto,omitempty"`
	Status              *string `json:"status,omitempty"`
	EmailThreadID       *string `json:"emailThreadId,omitempty"`
	FechaPrimerContacto *string `json:"fechaPrimerContacto,omitempty"`
	Proceso             *string `json:"proceso,omitempty"`
	PotenciaActual      *string `json:"potenciaActual,omitempty"`
	PotenciaSolicitada  *string `json:"potenciaSolicitada,omitempty"`
}

// CreateEventInput is the payload for appending a timeline event
type CreateEventInput struct {
	Type        string         `json:"type" validate:"required"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// --- Handlers ---

func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	filter := domain.ListFilter{
		Search: r.URL.Query().Get("search"),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.CaseStatus(s)
		filter.Status = &status
	}

	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			filter.Limit = n
		}
	}

	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil {
			filter.Offset = n
		}
	}

	cases, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	if cases == nil {
		cases = []domain.Case{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"cases": cases,
		"total": total,
	})
}

func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	c, err := h.repo.FindByCodigo(r.Context(), chi.URLParam(r, "codigoSC"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) CreateCase(w http.ResponseWriter, r *http.Request) {
	var req CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if err := h.validate.Struct(req.CreateCaseInput); err != nil {
		writeError(w, errors.Validation("invalid case payload", validationDetails(err)))
		return
	}

	mode, err := domain.ParseDuplicateMode(req.DuplicateMode)
	if err != nil {
		writeError(w, errors.BadRequest(err.Error()))
		return
	}

	c, err := domain.NewCase(req.CodigoSC)
	if err != nil {
		writeError(w, errors.BadRequest(err.Error()))
		return
	}
	applyInput(c, req.CreateCaseInput)

	saved, err := h.repo.Upsert(r.Context(), c, mode)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) UpdateCase(w http.ResponseWriter, r *http.Request) {
	c, err := h.repo.FindByCodigo(r.Context(), chi.URLParam(r, "codigoSC"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, errors.Validation("invalid update payload", validationDetails(err)))
		return
	}

	applyUpdate(c, req)

	// Resolve a requested status change through the domain transitions so
	// relaunch and cancel decisions carry their timeline record.
	oldStatus := c.Status
	var statusEvent *domain.TimelineEvent
	if req.Status != nil {
		if err := c.ChangeStatus(domain.CaseStatus(*req.Status), "Cambio de estado"); err != nil {
			writeError(w, errors.BadRequest(err.Error()))
			return
		}
		if c.Status != oldStatus {
			metrics.RecordCaseStatusChange(string(oldStatus), string(c.Status))
			statusEvent = &c.Events[len(c.Events)-1]
		}
	}

	// Persist the fields before the timeline record; a failed update must
	// not leave a status-change event on an unchanged case.
	if err := h.repo.Update(r.Context(), c); err != nil {
		writeError(w, err)
		return
	}

	if statusEvent != nil {
		if err := h.repo.AddEvent(r.Context(), c.CodigoSC, statusEvent); err != nil {
			writeError(w, err)
			return
		}
	}

	updated, err := h.repo.FindByCodigo(r.Context(), c.CodigoSC)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteCase(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "codigoSC")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	codigoSC := chi.URLParam(r, "codigoSC")

	if _, err := h.repo.FindByCodigo(r.Context(), codigoSC); err != nil {
		writeError(w, err)
		return
	}

	events, err := h.repo.GetEvents(r.Context(), codigoSC)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	codigoSC := chi.URLParam(r, "codigoSC")

	if _, err := h.repo.FindByCodigo(r.Context(), codigoSC); err != nil {
		writeError(w, err)
		return
	}

	var req CreateEventInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, errors.Validation("invalid event payload", validationDetails(err)))
		return
	}

	eventType := domain.TimelineEventType(req.Type)
	if !domain.IsKnownEventType(eventType) {
		writeError(w, errors.BadRequest("unknown event type"))
		return
	}

	event := domain.NewTimelineEvent(codigoSC, eventType, req.Description, req.Metadata)
	if err := h.repo.AddEvent(r.Context(), codigoSC, &event); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// --- Helpers ---

func applyInput(c *domain.Case, in CreateCaseInput) {
	c.DNICif = in.DNICif
	c.NombreApellidos = in.NombreApellidos
	c.CUPS = in.CUPS
	c.ContratoNC = in.ContratoNC
	c.LineaNegocio = in.LineaNegocio
	c.DireccionCompleta = in.DireccionCompleta
	c.CodigoPostal = in.CodigoPostal
	c.Municipio = in.Municipio
	c.Provincia = in.Provincia
	c.CCAA = in.CCAA
	c.Distribuidora = in.Distribuidora
	c.GrupoDistribuidora = in.GrupoDistribuidora
	c.EmailContacto = in.EmailContacto
	c.TelefonoContacto = in.TelefonoContacto
	c.Proceso = in.Proceso
	c.PotenciaActual = in.PotenciaActual
	c.PotenciaSolicitada = in.PotenciaSolicitada
	c.Status = domain.NormalizeStatus(in.Status)
	c.EmailThreadID = in.EmailThreadID
	if in.FechaPrimerContacto != "" {
		c.FechaPrimerContacto = in.FechaPrimerContacto
	}
}

func applyUpdate(c *domain.Case, req UpdateCaseRequest) {
	if req.NombreApellidos != nil {
		c.NombreApellidos = *req.NombreApellidos
	}
	if req.DNICif != nil {
		c.DNICif = *req.DNICif
	}
	if req.EmailContacto != nil {
		c.EmailContacto = *req.EmailContacto
	}
	if req.TelefonoContacto != nil {
		c.TelefonoContacto = *req.TelefonoContacto
	}
	if req.EmailThreadID != nil {
		c.EmailThreadID = *req.EmailThreadID
	}
	if req.FechaPrimerContacto != nil {
		c.FechaPrimerContacto = *req.FechaPrimerContacto
	}
	if req.Proceso != nil {
		c.Proceso = *req.Proceso
	}
	if req.PotenciaActual != nil {
		c.PotenciaActual = *req.PotenciaActual
	}
	if req.PotenciaSolicitada != nil {
		c.PotenciaSolicitada = *req.PotenciaSolicitada
	}
}

func validationDetails(err error) map[string]string {
	details := make(map[string]string)
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
	}
	return details
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
