package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lei-jenny/Travel-with-Me/ledger"
	"github.com/Lei-jenny/Travel-with-Me/logger"
	"github.com/Lei-jenny/Travel-with-Me/services"
	"github.com/Lei-jenny/Travel-with-Me/utils"
)

var svc *services.Services

// Init installs the services the handlers call. It must run before the router
// serves requests.
func Init(s *services.Services) {
	svc = s
}

// respondError writes the response for an error returned by a service.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	var mismatch *ledger.SplitSumMismatchError
	switch {
	case errors.As(err, &verr):
		utils.BadRequest(c, verr.Error())
	case errors.As(err, &mismatch):
		utils.UnprocessableEntity(c, mismatch.Error())
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidSplit):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNotMember):
		utils.Forbidden(c, "You are not a member of this trip")
	case errors.Is(err, services.ErrForbidden):
		utils.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.Conflict(c, err.Error())
	case errors.Is(err, ledger.ErrDataIntegrity):
		utils.InternalError(c, "Trip ledger is inconsistent")
	default:
		logger.L().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		utils.InternalError(c, "Something went wrong")
	}
}

// pathID parses a uuid path parameter, writing a 400 when it is malformed.
func pathID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequest(c, "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

func pagination(c *gin.Context) utils.PaginationQuery {
	var page utils.PaginationQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		page = utils.PaginationQuery{}
	}
	page.Normalize()
	return page
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
