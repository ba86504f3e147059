package response

import (
	"net/http"

	"RuralCare/pkg/errors"
	"RuralCare/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Body 统一返回结构
type Body struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 返回 200
func Success(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Message: msg, Data: data})
}

// Created 返回 201
func Created(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Message: msg, Data: data})
}

// Fail 参数或业务校验失败，返回 400
func Fail(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: msg, Data: data})
}

// AbortWithError 按错误码返回，内部错误只记录日志不暴露细节
func AbortWithError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	msg := errors.GetMessage(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(errors.Cause(err)),
			zap.String("message", msg))
		if msg == "" {
			msg = "Internal server error"
		}
	}
	c.AbortWithStatusJSON(status, Body{Success: false, Error: msg})
}
