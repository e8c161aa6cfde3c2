package handler

import (
	"strconv"

	"tslaglobal/backend/internal/middleware"
	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/util"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// currentUser writes a 401 when the request carries no authenticated user
func currentUser(c *gin.Context) (*model.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.SendError(c, util.ErrUnauthorized("User not authenticated"))
		return nil, false
	}
	return user, true
}

// bindJSON decodes the body into req and answers 400 when it does not bind
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		util.SendValidationError(c, err.Error())
		return false
	}
	return true
}

func pageParams(c *gin.Context) (limit, offset int) {
	return util.ParsePagination(c, defaultPageSize, maxPageSize)
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		util.SendError(c, util.ErrBadRequest("Invalid "+name))
		return 0, false
	}
	return id, true
}
