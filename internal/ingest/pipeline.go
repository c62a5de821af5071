package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/happyrobot-antonio/rechazos/internal/rejection/domain"
	"github.com/happyrobot-antonio/rechazos/internal/shared/metrics"
	"github.com/happyrobot-antonio/rechazos/internal/store"
)

const maxErrorLines = 5

// Pipeline commits a confirmed selection to the backend, one case at a
// time. Submissions are sequential on purpose: error lines stay
// attributable to a stable order and the backend never sees competing
// writes on the same case key within a batch.
type Pipeline struct {
	store *store.Store
	log   *logrus.Entry
}

// NewPipeline creates a commit pipeline writing through the given store
func NewPipeline(st *store.Store) *Pipeline {
	return &Pipeline{
		store: st,
		log:   logrus.WithField("component", "pipeline"),
	}
}

// Result is the outcome of one commit batch
type Result struct {
	Imported int
	Failed   int
	Errors   []string
}

// Commit submits the cases in order, folding each authoritative response
// into the store. A failed row never blocks its siblings. After the batch,
// the store is refreshed unconditionally to pick up server-side effects
// such as creation timeline entries.
func (p *Pipeline) Commit(ctx context.Context, cases []*domain.Case, mode domain.DuplicateMode) *Result {
	result := &Result{}

	for _, c := range cases {
		if _, err := p.store.Create(ctx, c, mode); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", c.CodigoSC, err.Error()))
			metrics.RecordImportRow("failed")
			p.log.WithField("codigoSC", c.CodigoSC).WithError(err).Warn("case import failed")
			continue
		}
		result.Imported++
		metrics.RecordImportRow("committed")
	}

	if err := p.store.Refresh(ctx); err != nil {
		p.log.WithError(err).Warn("post-batch refresh failed")
	}

	return result
}

// Success reports whether the whole batch went through
func (r *Result) Success() bool { return r.Failed == 0 }

// Summary renders the user-facing outcome message. Full success reads
// "N casos importados correctamente"; partial failure reports both counts
// and up to five example error lines, with an ellipsis when more exist.
func (r *Result) Summary() string {
	if r.Failed == 0 {
		return fmt.Sprintf("%d casos importados correctamente", r.Imported)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d casos importados, %d con errores:\n", r.Imported, r.Failed)

	lines := r.Errors
	truncated := false
	if len(lines) > maxErrorLines {
		lines = lines[:maxErrorLines]
		truncated = true
	}
	b.WriteString(strings.Join(lines, "\n"))
	if truncated {
		b.WriteString("\n...")
	}
	return b.String()
}
