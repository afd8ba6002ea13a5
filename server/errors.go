package server

import (
	"context"
	stderrors "errors"
	"net/http"

	"trade-lab/errors"

	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// First match wins.
var errorMappings = []errorMapping{
	{errors.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
	{errors.ErrSelfTrade, http.StatusBadRequest, "self_trade"},
	{errors.ErrAlreadyInSession, http.StatusConflict, "already_in_session"},
	{errors.ErrDuplicateOffer, http.StatusConflict, "duplicate_offer"},
	{errors.ErrInvitationPending, http.StatusConflict, "invitation_pending"},
	{errors.ErrSessionClosed, http.StatusConflict, "session_closed"},
	{errors.ErrSessionAbandoned, http.StatusGone, "session_abandoned"},
	{errors.ErrWrongContext, http.StatusForbidden, "wrong_context"},
	{errors.ErrProtected, http.StatusForbidden, "protected"},
	{errors.ErrAlreadySelected, http.StatusForbidden, "already_selected"},
	{errors.ErrNotFound, http.StatusNotFound, "not_found"},
	{errors.ErrNotInSession, http.StatusNotFound, "not_in_session"},
	{errors.ErrInvitationNotFound, http.StatusNotFound, "invitation_not_found"},
	{errors.ErrInsufficientBalance, http.StatusUnprocessableEntity, "insufficient_balance"},
	{errors.ErrInvalidAmount, http.StatusUnprocessableEntity, "invalid_amount"},
	{errors.ErrOrchestratorStopped, http.StatusServiceUnavailable, "unavailable"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
}

// respondDomainError maps trading errors to a status and a stable code.
func respondDomainError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if stderrors.Is(err, m.target) {
			RespondError(c, m.status, m.code, err)
			return
		}
	}
	RespondError(c, http.StatusInternalServerError, "internal", err)
}
