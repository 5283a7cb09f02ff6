package handler

import (
	"erp-backend/pkg/apperror"
	"erp-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error onto the HTTP envelope. Internal causes
// stay out of the payload.
func respondError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	c.JSON(status, response.Error(status, apperror.PublicMessage(err)))
}
