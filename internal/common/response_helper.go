package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ResponseError writes {"error": message}
func ResponseError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorBody{Error: message})
}

// AbortWithError writes {"error": message} and stops the handler chain
func AbortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{Error: message})
}

func ResponseBadRequest(c *gin.Context, message string) {
	ResponseError(c, http.StatusBadRequest, message)
}

func ResponseNotFound(c *gin.Context, message string) {
	ResponseError(c, http.StatusNotFound, message)
}

// ResponseServerError hides internal detail behind a fixed message
func ResponseServerError(c *gin.Context) {
	ResponseError(c, http.StatusInternalServerError, "An internal error occurred")
}

// ResponseList writes a paged list
func ResponseList(c *gin.Context, items any, total int64, req PaginationRequest) {
	c.JSON(http.StatusOK, ListResponse{
		Items:      items,
		Pagination: NewPaginationMeta(req, total),
	})
}
