package domain

import (
	"testing"
)

// TestNewCase tests creating a new case
func TestNewCase(t *testing.T) {
	c, err := NewCase("SC12345")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if c.CodigoSC != "SC12345" {
		t.Errorf("Expected codigoSC SC12345, got %s", c.CodigoSC)
	}

	if c.Status != StatusInProgress {
		t.Errorf("Expected status %s, got %s", StatusInProgress, c.Status)
	}

	if c.FechaPrimerContacto == "" {
		t.Error("Expected fechaPrimerContacto to be set")
	}

	// Should have creation event
	if len(c.Events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(c.Events))
	}

	if c.Events[0].Type != EventHappyrobotInit {
		t.Errorf("Expected event type %s, got %s", EventHappyrobotInit, c.Events[0].Type)
	}
}

// TestNewCaseValidation tests validation when creating a case
func TestNewCaseValidation(t *testing.T) {
	if _, err := NewCase(""); err == nil {
		t.Error("Expected error for empty codigoSC")
	}
}

// TestNormalizeStatus tests status coercion against the enumerated set
func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected CaseStatus
	}{
		{"In progress", "In progress", StatusInProgress},
		{"Revisar gestor", "Revisar gestor", StatusRevisarGestor},
		{"Cancelar SC", "Cancelar SC", StatusCancelarSC},
		{"Relanzar SC", "Relanzar SC", StatusRelanzarSC},
		{"Empty", "", StatusInProgress},
		{"Unknown", "Pendiente", StatusInProgress},
		{"Wrong casing", "in progress", StatusInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeStatus(tt.input); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

// TestParseDuplicateMode tests duplicate mode parsing
func TestParseDuplicateMode(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    DuplicateMode
		expectError bool
	}{
		{"Append", "append", DuplicateAppend, false},
		{"Overwrite", "overwrite", DuplicateOverwrite, false},
		{"Empty defaults to append", "", DuplicateAppend, false},
		{"Unknown", "merge", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, err := ParseDuplicateMode(tt.input)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if mode != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, mode)
			}
		})
	}
}

// TestOverwriteFields tests that overwrite replaces fields but keeps history
func TestOverwriteFields(t *testing.T) {
	existing, _ := NewCase("SC001")
	existing.NombreApellidos = "Old Name"
	existing.EmailContacto = "old@example.com"
	existing.AppendEvent(NewTimelineEvent("SC001", EventEmailSent, "Email enviado", nil))

	createdAt := existing.CreatedAt

	incoming, _ := NewCase("SC001")
	incoming.NombreApellidos = "New Name"
	incoming.EmailContacto = "new@example.com"
	incoming.Status = "bogus status"

	existing.OverwriteFields(incoming)

	if existing.NombreApellidos != "New Name" {
		t.Errorf("Expected New Name, got %s", existing.NombreApellidos)
	}
	if existing.EmailContacto != "new@example.com" {
		t.Errorf("Expected new@example.com, got %s", existing.EmailContacto)
	}
	if existing.Status != StatusInProgress {
		t.Errorf("Expected status coerced to %s, got %s", StatusInProgress, existing.Status)
	}
	if !existing.CreatedAt.Equal(createdAt) {
		t.Error("Expected creation time to be preserved")
	}
	if len(existing.Events) != 2 {
		t.Errorf("Expected event history preserved with 2 events, got %d", len(existing.Events))
	}
}

// TestChangeStatus tests manual status changes dispatch through the
// dedicated transitions
func TestChangeStatus(t *testing.T) {
	c, _ := NewCase("SC001")

	// Relaunch target goes through Relaunch
	if err := c.ChangeStatus(StatusRelanzarSC, "decisión del gestor"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if c.Status != StatusRelanzarSC {
		t.Errorf("Expected %s, got %s", StatusRelanzarSC, c.Status)
	}
	last := c.Events[len(c.Events)-1]
	if last.Type != EventManualResult {
		t.Errorf("Expected %s event, got %s", EventManualResult, last.Type)
	}
	if last.Metadata["new_status"] != StatusRelanzarSC {
		t.Errorf("Unexpected transition metadata: %v", last.Metadata)
	}

	// Same status again is a no-op, not an error
	before := len(c.Events)
	if err := c.ChangeStatus(StatusRelanzarSC, "otra vez"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(c.Events) != before {
		t.Errorf("Expected no new event, got %d", len(c.Events))
	}

	// Cancel target goes through Cancel
	if err := c.ChangeStatus(StatusCancelarSC, "sin respuesta"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if c.Status != StatusCancelarSC {
		t.Errorf("Expected %s, got %s", StatusCancelarSC, c.Status)
	}

	// Other targets record a plain manual result
	if err := c.ChangeStatus(StatusRevisarGestor, "revisión"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	last = c.Events[len(c.Events)-1]
	if last.Type != EventManualResult || last.Metadata["old_status"] != StatusCancelarSC {
		t.Errorf("Unexpected transition event: %+v", last)
	}

	// Unknown targets coerce to In progress
	if err := c.ChangeStatus("Estado raro", "limpieza"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if c.Status != StatusInProgress {
		t.Errorf("Expected coerced %s, got %s", StatusInProgress, c.Status)
	}
}

// TestRelaunch tests the relaunch transition
func TestRelaunch(t *testing.T) {
	c, _ := NewCase("SC001")

	if err := c.Relaunch("cliente confirma interés"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if c.Status != StatusRelanzarSC {
		t.Errorf("Expected status %s, got %s", StatusRelanzarSC, c.Status)
	}

	last := c.Events[len(c.Events)-1]
	if last.Type != EventManualResult {
		t.Errorf("Expected event type %s, got %s", EventManualResult, last.Type)
	}

	// Relaunching twice is rejected
	if err := c.Relaunch("again"); err == nil {
		t.Error("Expected error on double relaunch")
	}
}

// TestCancel tests the cancel transition
func TestCancel(t *testing.T) {
	c, _ := NewCase("SC001")

	if err := c.Cancel("sin respuesta del cliente"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if c.Status != StatusCancelarSC {
		t.Errorf("Expected status %s, got %s", StatusCancelarSC, c.Status)
	}

	if err := c.Cancel("again"); err == nil {
		t.Error("Expected error on double cancel")
	}
}

// TestIsKnownEventType tests timeline event type validation
func TestIsKnownEventType(t *testing.T) {
	for _, eventType := range KnownEventTypes {
		if !IsKnownEventType(eventType) {
			t.Errorf("Expected %s to be known", eventType)
		}
	}

	if IsKnownEventType("made_up_event") {
		t.Error("Expected made_up_event to be unknown")
	}
}
