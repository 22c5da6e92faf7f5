package handlers

import (
	"errors"
	"net/http"

	"fixserv/models"
	"fixserv/services/booking"
	"fixserv/services/wallet"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps service errors to HTTP responses. Unknown errors are
// logged and returned as opaque 500s.
func respondError(c *gin.Context, err error) {
	var (
		bNotFound   *booking.NotFoundError
		wNotFound   *wallet.NotFoundError
		invalidMove *booking.InvalidTransitionError
		claimed     *booking.AlreadyClaimedError
		badCode     *booking.InvalidVerificationCodeError
		bInvalid    *booking.ValidationError
		wInvalid    *wallet.ValidationError
		notParty    *booking.NotPartyError
		suspended   *booking.ProviderBlockedError
		tooMany     *booking.TooManyAttemptsError
		notEligible *wallet.NotEligibleError
		noBalance   *wallet.InsufficientBalanceError
		dupPending  *wallet.DuplicatePendingRequestError
		notPending  *wallet.RequestNotPendingError
	)

	switch {
	case errors.As(err, &bNotFound), errors.As(err, &wNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &invalidMove):
		c.JSON(http.StatusConflict, gin.H{
			"error":         err.Error(),
			"currentStatus": invalidMove.Current,
		})
	case errors.As(err, &claimed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &dupPending), errors.As(err, &notPending), errors.As(err, &notEligible):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &badCode):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &noBalance):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":     err.Error(),
			"available": noBalance.Available,
		})
	case errors.As(err, &bInvalid), errors.As(err, &wInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &notParty), errors.As(err, &suspended):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &tooMany):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		zap.L().Error("unhandled service error",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// actorFrom reads the authenticated actor placed on the context by the auth
// middleware.
func actorFrom(c *gin.Context) booking.Actor {
	return booking.Actor{
		ID:   c.GetString("actorID"),
		Role: models.ActorRole(c.GetString("actorRole")),
	}
}
