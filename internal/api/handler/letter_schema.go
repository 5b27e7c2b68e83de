package handler

import (
	"time"

	"github.com/cartas/cartas-api/internal/core/domain"
)

// letterRequest is the body of both compose and edit. Length limits are
// checked on the raw body, before sanitizing.
type letterRequest struct {
	Subject   string `json:"subject" validate:"required,notblank"`
	Body      string `json:"body" validate:"required,max=10000"`
	Signature string `json:"signature" validate:"required,trimmedmin=2"`
}

type letterResponse struct {
	ID            string    `json:"id"`
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
	Signature     string    `json:"signature"`
	AuthorID      string    `json:"authorId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	EditableUntil time.Time `json:"editableUntil"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func toLetterResponse(l *domain.Letter) letterResponse {
	return letterResponse{
		ID:            l.ID,
		Subject:       l.Subject,
		Body:          l.Body,
		Signature:     l.Signature,
		AuthorID:      l.AuthorID.String(),
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
		EditableUntil: l.EditableUntil(),
	}
}

func toLetterResponses(letters []*domain.Letter) []letterResponse {
	out := make([]letterResponse, 0, len(letters))
	for _, l := range letters {
		out = append(out, toLetterResponse(l))
	}
	return out
}
