package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"loyaltyengine/internal/model"
	"loyaltyengine/internal/repository"
	"loyaltyengine/pkg/correlation"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidQrCode   = errors.New("二维码内容非法")
	ErrInvalidLocation = errors.New("定位坐标超出范围")
	ErrForbiddenSku    = errors.New("无权领取该产品的积分")
	ErrUnknownCategory = errors.New("不支持的参与者类别")
)

// ScanRequest 一次扫码领取请求
// Metadata 是调用方附带的不透明 JSON 串，原样落进交易和审计行
type ScanRequest struct {
	UserID    int64
	Category  model.Category
	Code      string
	Latitude  decimal.Decimal
	Longitude decimal.Decimal
	Metadata  string
}

// ScanResult 扫码领取结果
type ScanResult struct {
	QrCode         string `json:"qr_code"`
	Sku            string `json:"sku"`
	GrossPoints    int64  `json:"gross_points"`
	NetPoints      int64  `json:"net_points"`
	WithheldAmount int64  `json:"withheld_amount"`
	ClosingBalance int64  `json:"closing_balance"`
}

// ScanService 扫码领取主流程
//
// 领取、费率解析、准入校验、入账、后置规则全部压进一个事务，
// 要么全部生效要么全部回滚。失败审计是唯一的例外：它必须在
// 主事务回滚之后另起事务落库，否则审计行会跟着一起消失。
type ScanService struct {
	db            *gorm.DB
	qrRepo        *repository.QRCodeRepository
	configRepo    *repository.PointConfigRepository
	accessRepo    *repository.AccessRepository
	earningRepo   *repository.EarningRepository
	creditService *CreditService
	pipeline      *ConstraintPipeline
}

func NewScanService(db *gorm.DB, credit *CreditService, pipeline *ConstraintPipeline) *ScanService {
	return &ScanService{
		db:            db,
		qrRepo:        repository.NewQRCodeRepository(db),
		configRepo:    repository.NewPointConfigRepository(db),
		accessRepo:    repository.NewAccessRepository(db),
		earningRepo:   repository.NewEarningRepository(db),
		creditService: credit,
		pipeline:      pipeline,
	}
}

func (s *ScanService) validate(req *ScanRequest) error {
	if req.Code == "" || len(req.Code) > 255 {
		return ErrInvalidQrCode
	}
	if req.Latitude.LessThan(decimal.NewFromInt(-90)) || req.Latitude.GreaterThan(decimal.NewFromInt(90)) {
		return ErrInvalidLocation
	}
	if req.Longitude.LessThan(decimal.NewFromInt(-180)) || req.Longitude.GreaterThan(decimal.NewFromInt(180)) {
		return ErrInvalidLocation
	}
	if _, err := model.TablesFor(req.Category); err != nil {
		return ErrUnknownCategory
	}
	return nil
}

// Scan 执行一次扫码领取
func (s *ScanService) Scan(ctx context.Context, req *ScanRequest) (*ScanResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	correlationID := correlation.FromContext(ctx)
	var result *ScanResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		location, _ := json.Marshal(map[string]string{
			"latitude":  req.Latitude.String(),
			"longitude": req.Longitude.String(),
		})

		// 第一步就领码：抢不到直接失败，后面的读全部基于已领取的行
		qr, err := s.qrRepo.Claim(ctx, tx, req.Code, req.UserID, string(location))
		if err != nil {
			return err
		}

		now := time.Now()
		pointConfig, err := s.configRepo.Resolve(ctx, tx, qr.Sku, req.Category, now)
		if err != nil {
			return err
		}

		if err := s.authorize(ctx, tx, req.UserID, qr.Sku, now); err != nil {
			return err
		}

		gross := pointConfig.PointsPerUnit.Floor().IntPart()

		creditResult, err := s.creditService.Credit(ctx, tx, req.UserID, req.Category, gross, CreditOptions{
			Sku:             qr.Sku,
			BatchNumber:     qr.BatchNumber,
			QrCode:          qr.Code,
			Latitude:        req.Latitude,
			Longitude:       req.Longitude,
			Metadata:        req.Metadata,
			EarningTypeName: model.EarningTypeQrScan,
			Remarks:         "扫码领取",
		})
		if err != nil {
			return err
		}

		rc := &RuleContext{
			Tx:            tx,
			CorrelationID: correlationID,
			UserID:        req.UserID,
			Category:      req.Category,
			QR:            qr,
			GrossPoints:   gross,
			NetPoints:     creditResult.NetPoints,
			PrimaryScan:   true,
		}
		if err := s.pipeline.Run(ctx, rc); err != nil {
			return err
		}

		result = &ScanResult{
			QrCode:         qr.Code,
			Sku:            qr.Sku,
			GrossPoints:    gross,
			NetPoints:      creditResult.NetPoints,
			WithheldAmount: creditResult.WithheldAmount,
			ClosingBalance: creditResult.ClosingBalance,
		}
		return nil
	})

	if err != nil {
		s.auditFailure(ctx, req, correlationID, err)
		return nil, err
	}

	log.Printf("[ScanService] 扫码领取成功: userID=%d, code=%s, net=%d, correlationID=%s",
		req.UserID, req.Code, result.NetPoints, correlationID)
	return result, nil
}

// authorize 准入判定：名下没有任何准入规则按全量放行，
// 有规则则必须存在命中该 SKU 的有效记录
func (s *ScanService) authorize(ctx context.Context, tx *gorm.DB, userID int64, sku string, asOf time.Time) error {
	count, err := s.accessRepo.CountForUser(ctx, tx, userID)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}

	allowed, err := s.accessRepo.HasActiveAccess(ctx, tx, userID, sku, asOf)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbiddenSku
	}
	return nil
}

// auditFailure 主事务回滚后另起事务写 FAILED 审计行
// 审计自身失败只记日志，不改变对外返回的错误
func (s *ScanService) auditFailure(ctx context.Context, req *ScanRequest, correlationID string, cause error) {
	tables, err := model.TablesFor(req.Category)
	if err != nil {
		return
	}

	metadata, _ := json.Marshal(map[string]string{
		"correlation_id": correlationID,
		"reason":         cause.Error(),
	})

	auditRow := &model.EarningAuditLog{
		UserID:    req.UserID,
		Category:  string(req.Category),
		QrCode:    req.Code,
		Status:    model.AuditStatusFailed,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Metadata:  string(metadata),
	}

	if err := s.earningRepo.CreateAuditLog(ctx, nil, tables, auditRow); err != nil {
		log.Printf("[ScanService] 失败审计落库失败: userID=%d, code=%s, err=%v", req.UserID, req.Code, err)
	}
}
