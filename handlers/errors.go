package handlers

import (
	"errors"
	"net/http"

	"dao-governance-backend/auth"
	"dao-governance-backend/database"
	"dao-governance-backend/service"

	"github.com/gin-gonic/gin"
)

// statusForError maps domain errors to HTTP status codes. Anything
// unrecognized is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, database.ErrFieldNotMutable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, auth.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrWrongGovernanceToken):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidWindow),
		errors.Is(err, service.ErrOptionsFrozen),
		errors.Is(err, service.ErrDuplicateOption),
		errors.Is(err, service.ErrVotingNotOpen),
		errors.Is(err, service.ErrUnknownOption),
		errors.Is(err, service.ErrNoTokensProvided),
		errors.Is(err, service.ErrAllTokensAlreadyVoted),
		errors.Is(err, service.ErrNegativePrice):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrDuplicateVoteID):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes the standard error envelope.
func abortWithError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}
