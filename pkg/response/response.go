package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess      = 0
	CodeParamError   = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeServerError  = 500
)

// 业务错误码：对外稳定，调用方按码分支
const (
	CodeQrNotAvailable     = 1001 // 二维码不存在或已被领取
	CodeNotConfigured      = 1002 // 积分费率/积分类型未配置
	CodeInsufficientPoints = 1003 // 积分余额不足
	CodeParticipantMissing = 1004 // 参与者账户不存在
	CodeRequestConflict    = 1005 // 同一用户的请求正在处理中
)

type Response struct {
	Code          int         `json:"code"`
	Message       string      `json:"message"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Data          interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message, correlationID string) {
	c.JSON(http.StatusOK, Response{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
	})
}

func ParamError(c *gin.Context, message, correlationID string) {
	Error(c, CodeParamError, message, correlationID)
}

// ServerError 内部错误统一返回笼统文案，细节只留在服务端日志
func ServerError(c *gin.Context, correlationID string) {
	Error(c, CodeServerError, "服务器内部错误", correlationID)
}

func BusinessError(c *gin.Context, code int, message, correlationID string) {
	Error(c, code, message, correlationID)
}
