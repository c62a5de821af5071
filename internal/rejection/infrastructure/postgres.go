package infrastructure

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/happyrobot-antonio/rechazos/internal/rejection/domain"
	"github.com/happyrobot-antonio/rechazos/internal/shared/errors"
	"github.com/happyrobot-antonio/rechazos/internal/shared/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const caseColumns = `codigo_sc, dni_cif, nombre_apellidos, cups, contrato_nc, linea_negocio,
	direccion_completa, codigo_postal, municipio, provincia, ccaa,
	distribuidora, grupo_distribuidora, email_contacto, telefono_contacto,
	proceso, potencia_actual, potencia_solicitada,
	status, email_thread_id, fecha_primer_contacto, created_at, updated_at`

// PostgresRepository implements domain.Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Save inserts a new case together with its initial events
func (r *PostgresRepository) Save(ctx context.Context, c *domain.Case) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("save_case", time.Since(start)) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO cases (` + caseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`

	_, err = tx.Exec(ctx, query, caseArgs(c)...)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict(fmt.Sprintf("case %s already exists", c.CodigoSC))
		}
		return errors.Wrap(err, "failed to save case")
	}

	for i := range c.Events {
		if err := saveEvent(ctx, tx, &c.Events[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return nil
}

// FindByCodigo loads a case and its full event timeline
func (r *PostgresRepository) FindByCodigo(ctx context.Context, codigoSC string) (*domain.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE codigo_sc = $1`

	c := &domain.Case{}
	err := r.pool.QueryRow(ctx, query, codigoSC).Scan(caseDests(c)...)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("case", codigoSC)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find case")
	}

	events, err := r.GetEvents(ctx, codigoSC)
	if err != nil {
		return nil, err
	}
	c.Events = events

	return c, nil
}

// Update updates an existing case's fields
func (r *PostgresRepository) Update(ctx context.Context, c *domain.Case) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("update_case", time.Since(start)) }()

	query := `
		UPDATE cases SET
			dni_cif = $2, nombre_apellidos = $3, cups = $4, contrato_nc = $5,
			linea_negocio = $6, direccion_completa = $7, codigo_postal = $8,
			municipio = $9, provincia = $10, ccaa = $11,
			distribuidora = $12, grupo_distribuidora = $13,
			email_contacto = $14, telefono_contacto = $15,
			proceso = $16, potencia_actual = $17, potencia_solicitada = $18,
			status = $19, email_thread_id = $20, fecha_primer_contacto = $21,
			updated_at = $22
		WHERE codigo_sc = $1`

	result, err := r.pool.Exec(ctx, query,
		c.CodigoSC, c.DNICif, c.NombreApellidos, c.CUPS, c.ContratoNC,
		c.LineaNegocio, c.DireccionCompleta, c.CodigoPostal,
		c.Municipio, c.Provincia, c.CCAA,
		c.Distribuidora, c.GrupoDistribuidora,
		c.EmailContacto, c.TelefonoContacto,
		c.Proceso, c.PotenciaActual, c.PotenciaSolicitada,
		c.Status, c.EmailThreadID, c.FechaPrimerContacto,
		c.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update case")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("case", c.CodigoSC)
	}

	return nil
}

// Delete removes a case; events cascade
func (r *PostgresRepository) Delete(ctx context.Context, codigoSC string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM cases WHERE codigo_sc = $1`, codigoSC)
	if err != nil {
		return errors.Wrap(err, "failed to delete case")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("case", codigoSC)
	}

	return nil
}

// Upsert resolves a colliding codigo_sc according to the duplicate mode.
// New keys are inserted; existing keys either get a re-import timeline
// event appended (append) or their scalar fields replaced (overwrite).
func (r *PostgresRepository) Upsert(ctx context.Context, c *domain.Case, mode domain.DuplicateMode) (*domain.Case, error) {
	existing, err := r.FindByCodigo(ctx, c.CodigoSC)
	if err != nil {
		if !stderrors.Is(err, errors.ErrNotFound) {
			return nil, err
		}

		if err := r.Save(ctx, c); err != nil {
			return nil, err
		}
		metrics.RecordCaseCreated(string(mode), "created")
		return r.FindByCodigo(ctx, c.CodigoSC)
	}

	switch mode {
	case domain.DuplicateOverwrite:
		existing.OverwriteFields(c)
		if err := r.Update(ctx, existing); err != nil {
			return nil, err
		}
		metrics.RecordCaseCreated(string(mode), "overwritten")
	default:
		event := domain.NewTimelineEvent(c.CodigoSC, domain.EventHappyrobotInit,
			"Caso reimportado desde fichero", map[string]any{"source": "import"})
		if err := r.AddEvent(ctx, c.CodigoSC, &event); err != nil {
			return nil, err
		}
		metrics.RecordCaseCreated(string(mode), "appended")
	}

	return r.FindByCodigo(ctx, c.CodigoSC)
}

// List lists cases with filters. Events are not loaded for list views
// except as an empty slice, matching the contract's lightweight listing.
func (r *PostgresRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Case, int, error) {
	whereClause, countArgs := listConditions(filter)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM cases %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count cases")
	}

	query, args := buildListQuery(filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list cases")
	}
	defer rows.Close()

	var cases []domain.Case
	for rows.Next() {
		var c domain.Case
		if err := rows.Scan(caseDests(&c)...); err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan case")
		}
		c.Events = []domain.TimelineEvent{}
		cases = append(cases, c)
	}

	// Attach event timelines so the client cache mirrors full state
	for i := range cases {
		events, err := r.GetEvents(ctx, cases[i].CodigoSC)
		if err != nil {
			return nil, 0, err
		}
		cases[i].Events = events
	}

	return cases, total, nil
}

// Stats computes the aggregate dashboard figures
func (r *PostgresRepository) Stats(ctx context.Context) (*domain.Stats, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("stats", time.Since(start)) }()

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM cases GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute stats")
	}
	defer rows.Close()

	stats := &domain.Stats{ByStatus: []domain.StatusCount{}}
	for rows.Next() {
		var sc domain.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, errors.Wrap(err, "failed to scan stats row")
		}
		stats.ByStatus = append(stats.ByStatus, sc)
		stats.Total += sc.Count
		if sc.Status == domain.StatusInProgress {
			stats.InProgress += sc.Count
		} else {
			stats.PendingAction += sc.Count
		}
	}

	return stats, nil
}

// AddEvent appends a timeline event to a case
func (r *PostgresRepository) AddEvent(ctx context.Context, codigoSC string, e *domain.TimelineEvent) error {
	e.CaseID = codigoSC

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if err := saveEvent(ctx, tx, e); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE cases SET updated_at = NOW() WHERE codigo_sc = $1`, codigoSC); err != nil {
		return errors.Wrap(err, "failed to touch case")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	metrics.RecordTimelineEvent(string(e.Type))
	return nil
}

// GetEvents returns the timeline of a case, newest first
func (r *PostgresRepository) GetEvents(ctx context.Context, codigoSC string) ([]domain.TimelineEvent, error) {
	query := `
		SELECT id, case_id, type, description, metadata, timestamp
		FROM case_events
		WHERE case_id = $1
		ORDER BY timestamp DESC`

	rows, err := r.pool.Query(ctx, query, codigoSC)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get events")
	}
	defer rows.Close()

	events := []domain.TimelineEvent{}
	for rows.Next() {
		var e domain.TimelineEvent
		var metadataJSON []byte

		if err := rows.Scan(&e.ID, &e.CaseID, &e.Type, &e.Description, &metadataJSON, &e.Timestamp); err != nil {
			return nil, errors.Wrap(err, "failed to scan event")
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.Metadata); err != nil {
				e.Metadata = nil
			}
		}

		events = append(events, e)
	}

	return events, nil
}

// --- helpers ---

func listConditions(filter domain.ListFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(codigo_sc ILIKE $%d OR nombre_apellidos ILIKE $%d OR dni_cif ILIKE $%d OR cups ILIKE $%d)",
			n, n, n, n))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// buildListQuery renders the list statement. An unset limit means fetch
// everything: the client cache treats the unfiltered listing as the full
// authoritative state, so no implicit page size may truncate it.
func buildListQuery(filter domain.ListFilter) (string, []interface{}) {
	whereClause, args := listConditions(filter)

	query := "SELECT " + caseColumns + " FROM cases"
	if whereClause != "" {
		query += " " + whereClause
	}
	query += " ORDER BY created_at"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return query, args
}

func saveEvent(ctx context.Context, tx pgx.Tx, e *domain.TimelineEvent) error {
	var metadataJSON []byte
	if e.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(e.Metadata)
		if err != nil {
			return errors.Wrap(err, "failed to marshal event metadata")
		}
	}

	query := `
		INSERT INTO case_events (id, case_id, type, description, metadata, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := tx.Exec(ctx, query, e.ID, e.CaseID, e.Type, e.Description, metadataJSON, e.Timestamp); err != nil {
		return errors.Wrap(err, "failed to save event")
	}

	return nil
}

func caseArgs(c *domain.Case) []interface{} {
	return []interface{}{
		c.CodigoSC, c.DNICif, c.NombreApellidos, c.CUPS, c.ContratoNC, c.LineaNegocio,
		c.DireccionCompleta, c.CodigoPostal, c.Municipio, c.Provincia, c.CCAA,
		c.Distribuidora, c.GrupoDistribuidora, c.EmailContacto, c.TelefonoContacto,
		c.Proceso, c.PotenciaActual, c.PotenciaSolicitada,
		c.Status, c.EmailThreadID, c.FechaPrimerContacto, c.CreatedAt, c.UpdatedAt,
	}
}

func caseDests(c *domain.Case) []interface{} {
	return []interface{}{
		&c.CodigoSC, &c.DNICif, &c.NombreApellidos, &c.CUPS, &c.ContratoNC, &c.LineaNegocio,
		&c.DireccionCompleta, &c.CodigoPostal, &c.Municipio, &c.Provincia, &c.CCAA,
		&c.Distribuidora, &c.GrupoDistribuidora, &c.EmailContacto, &c.TelefonoContacto,
		&c.Proceso, &c.PotenciaActual, &c.PotenciaSolicitada,
		&c.Status, &c.EmailThreadID, &c.FechaPrimerContacto, &c.CreatedAt, &c.UpdatedAt,
	}
}
