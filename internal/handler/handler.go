package handler

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"loyaltyengine/internal/model"
	"loyaltyengine/internal/repository"
	"loyaltyengine/internal/service"
	"loyaltyengine/pkg/correlation"
	"loyaltyengine/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Handler HTTP 入口层，只做参数绑定和错误翻译，业务全部下沉到 service
type Handler struct {
	scanService       *service.ScanService
	creditService     *service.CreditService
	redemptionService *service.RedemptionService
	tdsService        *service.TdsService
}

func NewHandler(scan *service.ScanService, credit *service.CreditService, redemption *service.RedemptionService, tds *service.TdsService) *Handler {
	return &Handler{
		scanService:       scan,
		creditService:     credit,
		redemptionService: redemption,
		tdsService:        tds,
	}
}

// writeError 把 service 层的哨兵错误翻译成对外错误码
// 没有归类的错误一律按内部错误处理：细节只进日志，响应给笼统文案
func writeError(c *gin.Context, err error) {
	correlationID := correlation.FromContext(c.Request.Context())

	switch {
	case errors.Is(err, service.ErrInvalidQrCode),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrUnknownCategory),
		errors.Is(err, service.ErrInvalidPoints),
		errors.Is(err, service.ErrInvalidRedeemAmount):
		response.ParamError(c, err.Error(), correlationID)
	case errors.Is(err, repository.ErrQrNotAvailable):
		response.BusinessError(c, response.CodeQrNotAvailable, err.Error(), correlationID)
	case errors.Is(err, repository.ErrPointConfigNotFound),
		errors.Is(err, repository.ErrPointConfigAmbiguous),
		errors.Is(err, repository.ErrEarningTypeNotFound):
		response.BusinessError(c, response.CodeNotConfigured, err.Error(), correlationID)
	case errors.Is(err, service.ErrForbiddenSku):
		response.BusinessError(c, response.CodeForbidden, err.Error(), correlationID)
	case errors.Is(err, repository.ErrBalanceNotEnough):
		response.BusinessError(c, response.CodeInsufficientPoints, err.Error(), correlationID)
	case errors.Is(err, repository.ErrParticipantNotFound),
		errors.Is(err, repository.ErrProfileNotFound):
		response.BusinessError(c, response.CodeParticipantMissing, err.Error(), correlationID)
	case errors.Is(err, service.ErrRedeemBusy):
		response.BusinessError(c, response.CodeRequestConflict, err.Error(), correlationID)
	default:
		log.Printf("[Handler] 内部错误: correlationID=%s, err=%v", correlationID, err)
		response.ServerError(c, correlationID)
	}
}

type scanRequest struct {
	UserID    int64                  `json:"user_id" binding:"required"`
	Category  string                 `json:"category" binding:"required"`
	QrCode    string                 `json:"qr_code" binding:"required"`
	Latitude  decimal.Decimal        `json:"latitude"`
	Longitude decimal.Decimal        `json:"longitude"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// marshalMetadata 边界处校验过的 metadata 对象序列化为不透明 JSON 串
// 绑定成 map 已经保证了它是合法 JSON 对象，引擎内部不再解析
func marshalMetadata(metadata map[string]interface{}) string {
	if len(metadata) == 0 {
		return ""
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(raw)
}

// Scan POST /api/v1/earning/scan
func (h *Handler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error(), correlation.FromContext(c.Request.Context()))
		return
	}

	result, err := h.scanService.Scan(c.Request.Context(), &service.ScanRequest{
		UserID:    req.UserID,
		Category:  model.Category(req.Category),
		Code:      req.QrCode,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Metadata:  marshalMetadata(req.Metadata),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, result)
}

type creditRequest struct {
	UserID      int64                  `json:"user_id" binding:"required"`
	Category    string                 `json:"category" binding:"required"`
	Points      int64                  `json:"points" binding:"required"`
	Sku         string                 `json:"sku"`
	BatchNumber string                 `json:"batch_number"`
	EarningType string                 `json:"earning_type"`
	Remarks     string                 `json:"remarks"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// Credit POST /api/v1/earning/credit
// 不经扫码的直接入账（活动奖励、人工补账等），同样走代扣和台账
func (h *Handler) Credit(c *gin.Context) {
	var req creditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error(), correlation.FromContext(c.Request.Context()))
		return
	}

	result, err := h.creditService.CreditPoints(c.Request.Context(), req.UserID, model.Category(req.Category), req.Points, service.CreditOptions{
		Sku:             req.Sku,
		BatchNumber:     req.BatchNumber,
		EarningTypeName: req.EarningType,
		Remarks:         req.Remarks,
		Metadata:        marshalMetadata(req.Metadata),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, result)
}

type redemptionRequest struct {
	UserID    int64                  `json:"user_id" binding:"required"`
	Points    int64                  `json:"points" binding:"required"`
	Channel   string                 `json:"channel" binding:"required"`
	Amount    *int64                 `json:"amount"`
	RequestID string                 `json:"request_id"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// Redeem POST /api/v1/redemption/request
func (h *Handler) Redeem(c *gin.Context) {
	var req redemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error(), correlation.FromContext(c.Request.Context()))
		return
	}
	if req.RequestID == "" {
		req.RequestID = correlation.FromContext(c.Request.Context())
	}

	result, err := h.redemptionService.Request(c.Request.Context(), &service.RedemptionRequest{
		UserID:    req.UserID,
		Points:    req.Points,
		Channel:   req.Channel,
		Amount:    req.Amount,
		RequestID: req.RequestID,
		Metadata:  req.Metadata,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, result)
}

type fyResetRequest struct {
	PreviousFy string `json:"previous_fy"`
	NewFy      string `json:"new_fy"`
}

// FyReset POST /api/v1/tds/fy-reset
// 手工触发财年重置，缺省按当前日期推算上一财年和新财年
func (h *Handler) FyReset(c *gin.Context) {
	var req fyResetRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.ParamError(c, "参数错误: "+err.Error(), correlation.FromContext(c.Request.Context()))
		return
	}

	if req.NewFy == "" {
		req.NewFy = service.CurrentFinancialYear()
	}
	if req.PreviousFy == "" {
		req.PreviousFy = service.FinancialYearOf(time.Now().AddDate(-1, 0, 0))
	}

	result, err := h.tdsService.ResetFinancialYear(c.Request.Context(), req.PreviousFy, req.NewFy)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, result)
}

// Balance GET /api/v1/participant/balance
func (h *Handler) Balance(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		response.ParamError(c, "user_id 非法", correlation.FromContext(c.Request.Context()))
		return
	}

	participant, err := h.redemptionService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"user_id":        participant.UserID,
		"points_balance": participant.PointsBalance,
		"total_earnings": participant.TotalEarnings,
		"total_redeemed": participant.TotalRedeemed,
	})
}
