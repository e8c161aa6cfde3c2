package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

type ErrorInfo struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// PaginationResponse is the envelope of list endpoints. Data is always
// present, even when the page is empty.
type PaginationResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

type Pagination struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

func ok(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, Response{Success: true, Data: data, Message: message})
}

func fail(c *gin.Context, status int, info *ErrorInfo) {
	c.JSON(status, Response{Error: info})
}

func SendSuccess(c *gin.Context, data interface{}) {
	ok(c, http.StatusOK, data, "")
}

func SendSuccessWithMessage(c *gin.Context, data interface{}, message string) {
	ok(c, http.StatusOK, data, message)
}

func SendCreated(c *gin.Context, data interface{}, message string) {
	ok(c, http.StatusCreated, data, message)
}

func SendPaginated(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, PaginationResponse{Success: true, Data: data, Pagination: pagination})
}

// SendError writes err as an error envelope. Anything that is not an
// AppError becomes an opaque 500. err is recorded on the context so the
// request logger reports the real cause.
func SendError(c *gin.Context, err error) {
	_ = c.Error(err)

	appErr := GetAppError(err)
	if appErr == nil {
		SendCustomError(c, http.StatusInternalServerError, ErrCodeInternal, "Internal server error")
		return
	}
	info := &ErrorInfo{Code: appErr.Code, Message: appErr.Message}
	if appErr.Details != "" {
		info.Details = appErr.Details
	}
	fail(c, appErr.StatusCode, info)
}

func SendCustomError(c *gin.Context, statusCode int, code, message string) {
	fail(c, statusCode, &ErrorInfo{Code: code, Message: message})
}

// SendValidationError reports request binding failures; details carries
// the binder's message
func SendValidationError(c *gin.Context, details interface{}) {
	fail(c, http.StatusBadRequest, &ErrorInfo{
		Code:    ErrCodeValidation,
		Message: "Validation failed",
		Details: details,
	})
}

func AbortWithError(c *gin.Context, err error) {
	SendError(c, err)
	c.Abort()
}

func AbortWithCustomError(c *gin.Context, statusCode int, code, message string) {
	SendCustomError(c, statusCode, code, message)
	c.Abort()
}
