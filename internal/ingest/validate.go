package ingest

import (
	"path/filepath"
	"strconv"
	"time"

	"arkiv/internal/config"
)

// User-facing rejection messages, in Portuguese to match the web client.
const (
	MsgNoInformation  = "O arquivo não contém informações"
	MsgMissingID      = "O identificador do arquivo não foi informado"
	MsgInvalidCreated = "A data de criação não é válida"
	MsgInvalidExpiry  = "A data de expiração não é válida"
	MsgInvalidType    = "O tipo de documento não é válido"
	MsgMissingExt     = "O arquivo não possui uma extensão válida"
	MsgDuplicate      = "Este arquivo já foi enviado para o servidor"
	MsgPrivateDenied  = "Você não tem permissão para enviar arquivos privados"
	MsgFileTooLarge   = "O arquivo excede o tamanho máximo permitido"
)

// FileError is one per-submission rejection in the ingestion result. The
// sequence identifier lets the client mark the failed row in the form; it is
// omitted when the submission never carried one.
type FileError struct {
	SequenceID string `json:"sequenceId,omitempty"`
	Message    string `json:"message"`
}

// validated holds the parsed metadata of a submission that passed all
// checks.
type validated struct {
	createdAt time.Time
	expiresAt time.Time
	typeID    int
	ext       string
}

// dateLayouts accepted for the creation and expiry fields. The web client
// sends plain dates; RFC 3339 covers clients that post full timestamps.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// Validate checks a sealed submission against the ingestion snapshot. The
// checks run in a fixed order and short-circuit on the first failure, so one
// submission reports at most one error.
func Validate(sub *Submission, cfg config.IngestionConfig) (*validated, *FileError) {
	if !sub.hasMetadata {
		return nil, &FileError{Message: MsgNoInformation}
	}
	if sub.SequenceID == "" {
		return nil, &FileError{Message: MsgMissingID}
	}

	createdAt, err := parseDate(sub.CreatedDate)
	if err != nil {
		return nil, &FileError{SequenceID: sub.SequenceID, Message: MsgInvalidCreated}
	}

	expiresAt, err := parseDate(sub.ExpiryDate)
	if err != nil {
		return nil, &FileError{SequenceID: sub.SequenceID, Message: MsgInvalidExpiry}
	}

	typeID, err := strconv.Atoi(sub.TypeID)
	if err != nil {
		return nil, &FileError{SequenceID: sub.SequenceID, Message: MsgInvalidType}
	}
	if _, ok := cfg.TypeByID(typeID); !ok {
		return nil, &FileError{SequenceID: sub.SequenceID, Message: MsgInvalidType}
	}

	ext := filepath.Ext(sub.Filename)
	if ext == "" || ext == "." {
		return nil, &FileError{SequenceID: sub.SequenceID, Message: MsgMissingExt}
	}

	return &validated{
		createdAt: createdAt,
		expiresAt: expiresAt,
		typeID:    typeID,
		ext:       ext,
	}, nil
}

// parseDate accepts a date-only or RFC 3339 value and normalizes it to
// midnight UTC. Only the calendar date is retained.
func parseDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			lastErr = err
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, lastErr
}
