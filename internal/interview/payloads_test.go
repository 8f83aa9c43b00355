package interview

import (
	"errors"
	"testing"

	"quali-backend/internal/extract"
)

func TestDecodeQuestionPayload(t *testing.T) {
	raw := "Voici la question :\n```json\n{\"question\": \"  Quel était votre périmètre ?  \"}\n```"
	var payload QuestionPayload
	if err := decodePayload(raw, &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Question != "Quel était votre périmètre ?" {
		t.Fatalf("expected trimmed question, got %q", payload.Question)
	}
}

func TestDecodeQuestionPayloadMissingField(t *testing.T) {
	var payload QuestionPayload
	err := decodePayload(`{"reponse": "pas le bon champ"}`, &payload)
	if !errors.Is(err, extract.ErrParseFailed) {
		t.Fatalf("expected ErrParseFailed, got %v", err)
	}
}

func TestDecodeSynthesisPayloadCleansCompetences(t *testing.T) {
	raw := `{"resume": "Résumé complet.", "competences": [" Gestion ", "", "Négociation"]}`
	var payload SynthesisPayload
	if err := decodePayload(raw, &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payload.Competences) != 2 {
		t.Fatalf("expected 2 competences, got %v", payload.Competences)
	}
	if payload.Competences[0] != "Gestion" {
		t.Fatalf("expected trimmed competence, got %q", payload.Competences[0])
	}
}

func TestDecodeSynthesisPayloadRequiresCompetences(t *testing.T) {
	var payload SynthesisPayload
	err := decodePayload(`{"resume": "Résumé.", "competences": ["  ", ""]}`, &payload)
	if !errors.Is(err, extract.ErrParseFailed) {
		t.Fatalf("expected ErrParseFailed, got %v", err)
	}
}

func TestDecodeChatPayload(t *testing.T) {
	var payload ChatPayload
	if err := decodePayload(`{"response": "Mettez en avant vos résultats."}`, &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Response == "" {
		t.Fatalf("expected response content")
	}
}
