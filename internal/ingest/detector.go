package ingest

import "github.com/happyrobot-antonio/rechazos/internal/rejection/domain"

// DetectDuplicates returns the set of newly mapped case keys that already
// exist in the current cache. Detection is advisory: it annotates rows for
// the reconciliation step, it never blocks ingestion. Two file rows with
// the same key are each checked against the pre-upload cache state, not
// against each other.
func DetectDuplicates(cases []*domain.Case, existing []string) map[string]bool {
	known := make(map[string]bool, len(existing))
	for _, codigo := range existing {
		known[codigo] = true
	}

	duplicates := make(map[string]bool)
	for _, c := range cases {
		if known[c.CodigoSC] {
			duplicates[c.CodigoSC] = true
		}
	}
	return duplicates
}
