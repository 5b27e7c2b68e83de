package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cartas/cartas-api/internal/api/metrics"
	"github.com/cartas/cartas-api/internal/api/session"
	"github.com/cartas/cartas-api/internal/core/domain"
	"github.com/cartas/cartas-api/internal/core/ports"
)

// IdempotencyKeyHeader lets clients retry a compose without creating a
// second letter.
const IdempotencyKeyHeader = "Idempotency-Key"

// LetterHandler handles HTTP requests for letters. Mutating routes resolve
// the caller from the session cookie on every request.
type LetterHandler struct {
	letters ports.LetterService
	auth    session.Authenticator
}

func NewLetterHandler(letters ports.LetterService, auth session.Authenticator) *LetterHandler {
	return &LetterHandler{letters: letters, auth: auth}
}

// List handles GET /letters.
//
// @Summary      List all letters, newest first
// @Tags         letters
// @Produce      json
// @Success      200  {array}   letterResponse
// @Failure      500  {object}  errorResponse
// @Router       /letters [get]
func (h *LetterHandler) List(c echo.Context) error {
	letters, err := h.letters.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toLetterResponses(letters))
}

// Create handles POST /letters.
//
// @Summary      Compose a letter
// @Tags         letters
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string         false  "Replays return the first letter created with this key"
// @Param        body             body      letterRequest  true   "Letter"
// @Success      201              {object}  letterResponse
// @Success      200              {object}  letterResponse  "Idempotent replay"
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      500              {object}  errorResponse
// @Router       /letters [post]
func (h *LetterHandler) Create(c echo.Context) error {
	const op = "create"

	actor, ok := session.Identity(c, h.auth)
	if !ok {
		recordMutation(op, domain.ErrUnauthenticated)
		return domain.ErrUnauthenticated
	}

	req, err := bindLetter(c)
	if err != nil {
		recordMutation(op, err)
		return err
	}

	result, err := h.letters.Create(c.Request().Context(), ports.CreateLetterInput{
		Subject:        req.Subject,
		Body:           req.Body,
		Signature:      req.Signature,
		AuthorID:       actor,
		IdempotencyKey: c.Request().Header.Get(IdempotencyKeyHeader),
	})
	if err != nil {
		recordMutation(op, err)
		return err
	}

	if result.AlreadyExisted {
		metrics.LetterMutationsTotal.WithLabelValues(op, "replayed").Inc()
		return c.JSON(http.StatusOK, toLetterResponse(result.Letter))
	}
	recordMutation(op, nil)
	return c.JSON(http.StatusCreated, toLetterResponse(result.Letter))
}

// Update handles PUT /letters/:id.
//
// @Summary      Edit one of your letters within 5 minutes of posting
// @Tags         letters
// @Accept       json
// @Produce      json
// @Param        id    path      string         true  "Letter id"
// @Param        body  body      letterRequest  true  "Letter"
// @Success      200   {object}  letterResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /letters/{id} [put]
func (h *LetterHandler) Update(c echo.Context) error {
	op := string(domain.MutationEdit)

	actor, ok := session.Identity(c, h.auth)
	if !ok {
		recordMutation(op, domain.ErrUnauthenticated)
		return domain.ErrUnauthenticated
	}

	req, err := bindLetter(c)
	if err != nil {
		recordMutation(op, err)
		return err
	}

	letter, err := h.letters.Update(c.Request().Context(), ports.UpdateLetterInput{
		ID:        c.Param("id"),
		Subject:   req.Subject,
		Body:      req.Body,
		Signature: req.Signature,
		Actor:     actor,
	})
	recordMutation(op, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toLetterResponse(letter))
}

// Delete handles DELETE /letters/:id.
//
// @Summary      Delete one of your letters within 5 minutes of posting
// @Tags         letters
// @Produce      json
// @Param        id   path      string  true  "Letter id"
// @Success      200  {object}  deleteResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /letters/{id} [delete]
func (h *LetterHandler) Delete(c echo.Context) error {
	op := string(domain.MutationDelete)

	actor, ok := session.Identity(c, h.auth)
	if !ok {
		recordMutation(op, domain.ErrUnauthenticated)
		return domain.ErrUnauthenticated
	}

	err := h.letters.Delete(c.Request().Context(), c.Param("id"), actor)
	recordMutation(op, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deleteResponse{Success: true, Message: "letter deleted"})
}

func bindLetter(c echo.Context) (*letterRequest, error) {
	var req letterRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return &req, nil
}

func recordMutation(op string, err error) {
	metrics.LetterMutationsTotal.WithLabelValues(op, mutationResult(err)).Inc()
}

func mutationResult(err error) string {
	var he *echo.HTTPError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &he):
		return "invalid"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthorized"
	case errors.Is(err, domain.ErrLetterNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrNotAuthor):
		return "not_author"
	case errors.Is(err, domain.ErrWindowExpired):
		return "window_expired"
	default:
		return "error"
	}
}
