package handler

import (
	"fmt"
	"net/http"

	"carvest-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// errorBody builds the 500 payload. The stack trace of err is attached
// only outside production.
func errorBody(msg string, err error, production bool) gin.H {
	body := gin.H{
		"error":   msg,
		"details": err.Error(),
	}
	if !production {
		body["stack"] = fmt.Sprintf("%+v", err)
	}
	return body
}

func internalError(c *gin.Context, msg string, err error, production bool, extra gin.H) {
	logger.Errorf("%s %s: %s: %+v", c.Request.Method, c.FullPath(), msg, err)

	body := errorBody(msg, err, production)
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusInternalServerError, body)
}
