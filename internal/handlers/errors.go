package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/uniqdata/backend/internal/services"
	"github.com/uniqdata/backend/pkg/response"
)

// writeServiceError maps a service error kind onto the HTTP response.
func writeServiceError(c *gin.Context, err error) {
	switch services.KindOf(err) {
	case services.KindNotFound:
		response.NotFound(c, err.Error())
	case services.KindConflict:
		response.Conflict(c, err.Error())
	case services.KindInvalidArgument:
		response.BadRequest(c, err.Error())
	case services.KindInvalidState:
		response.Unprocessable(c, err.Error())
	case services.KindUpstream:
		response.BadGateway(c, err.Error())
	default:
		response.ServerError(c, err.Error())
	}
}
