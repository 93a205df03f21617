package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"loyaltyengine/internal/config"
	"loyaltyengine/internal/infrastructure/database"
	"loyaltyengine/internal/model"
	"loyaltyengine/internal/service"
	"loyaltyengine/pkg/idgen"
	"loyaltyengine/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	idgen.Init(1)
	os.Exit(m.Run())
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:test-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	cfg := &config.Config{
		Kafka: config.KafkaConfig{
			Topic: config.KafkaTopicConfig{
				EarningResult:    "earning_result",
				RedemptionResult: "redemption_result",
				TdsSettled:       "tds_settled",
			},
		},
		Business: config.BusinessConfig{TdsSettlementThreshold: 20000, MaxRetryCount: 5},
	}

	tds := service.NewTdsService(db, cfg)
	credit := service.NewCreditService(db, cfg, tds)
	pipeline := service.NewConstraintPipeline()
	scan := service.NewScanService(db, credit, pipeline)
	redemption := service.NewRedemptionService(db, nil, cfg)

	h := NewHandler(scan, credit, redemption, tds)
	return SetupRouter(h, NewMetrics()), db
}

func seedScanFixture(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&model.Participant{UserID: 1}).Error)
	tables, _ := model.TablesFor(model.CategoryRetailer)
	require.NoError(t, db.Table(tables.Profiles).Create(&model.CategoryProfile{UserID: 1}).Error)
	require.NoError(t, db.Create(&model.EarningType{Name: model.EarningTypeQrScan, IsActive: true}).Error)
	require.NoError(t, db.Create(&model.QRCode{Code: "QR-001", SecurityCode: "S1", Sku: "SKU-1"}).Error)
	require.NoError(t, db.Create(&model.PointConfig{
		Sku: "SKU-1", Category: string(model.CategoryRetailer),
		PointsPerUnit: decimal.RequireFromString("5.00"),
	}).Error)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestScanEndpointSuccess(t *testing.T) {
	router, db := newTestRouter(t)
	seedScanFixture(t, db)

	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/earning/scan", gin.H{
		"user_id":   1,
		"category":  "Retailer",
		"qr_code":   "QR-001",
		"latitude":  28.6,
		"longitude": 77.2,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
}

func TestScanEndpointAlreadyClaimedCode(t *testing.T) {
	router, db := newTestRouter(t)
	seedScanFixture(t, db)

	body := gin.H{"user_id": 1, "category": "Retailer", "qr_code": "QR-001", "latitude": 0, "longitude": 0}
	_, first := doJSON(t, router, http.MethodPost, "/api/v1/earning/scan", body)
	require.Equal(t, response.CodeSuccess, first.Code)

	_, second := doJSON(t, router, http.MethodPost, "/api/v1/earning/scan", body)
	assert.Equal(t, response.CodeQrNotAvailable, second.Code)
	assert.NotEmpty(t, second.CorrelationID)
}

func TestScanEndpointMissingParams(t *testing.T) {
	router, _ := newTestRouter(t)

	_, resp := doJSON(t, router, http.MethodPost, "/api/v1/earning/scan", gin.H{"user_id": 1})
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestCorrelationIDEcho(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "corr-123", w.Header().Get("X-Correlation-ID"))
}

func TestBalanceEndpoint(t *testing.T) {
	router, db := newTestRouter(t)
	require.NoError(t, db.Create(&model.Participant{UserID: 1, PointsBalance: 88}).Error)

	_, resp := doJSON(t, router, http.MethodGet, "/api/v1/participant/balance?user_id=1", nil)
	require.Equal(t, response.CodeSuccess, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(88), data["points_balance"])

	_, resp = doJSON(t, router, http.MethodGet, "/api/v1/participant/balance?user_id=999", nil)
	assert.Equal(t, response.CodeParticipantMissing, resp.Code)

	_, resp = doJSON(t, router, http.MethodGet, "/api/v1/participant/balance?user_id=abc", nil)
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestScanEndpointBindsMetadata(t *testing.T) {
	router, db := newTestRouter(t)
	seedScanFixture(t, db)

	_, resp := doJSON(t, router, http.MethodPost, "/api/v1/earning/scan", gin.H{
		"user_id":  1,
		"category": "Retailer",
		"qr_code":  "QR-001",
		"metadata": gin.H{"device_id": "android-7788"},
	})
	require.Equal(t, response.CodeSuccess, resp.Code)

	tables, _ := model.TablesFor(model.CategoryRetailer)
	var txn model.EarningTransaction
	require.NoError(t, db.Table(tables.Transactions).Where("user_id = ?", 1).First(&txn).Error)
	assert.Contains(t, txn.Metadata, "android-7788")
}

func TestCreditEndpointBindsMetadata(t *testing.T) {
	router, db := newTestRouter(t)
	seedScanFixture(t, db)

	_, resp := doJSON(t, router, http.MethodPost, "/api/v1/earning/credit", gin.H{
		"user_id":  1,
		"category": "Retailer",
		"points":   20,
		"metadata": gin.H{"campaign": "diwali-2026"},
	})
	require.Equal(t, response.CodeSuccess, resp.Code)

	tables, _ := model.TablesFor(model.CategoryRetailer)
	var txn model.EarningTransaction
	require.NoError(t, db.Table(tables.Transactions).Where("user_id = ?", 1).First(&txn).Error)
	assert.Contains(t, txn.Metadata, "diwali-2026")
}

func TestRedemptionEndpointBindsAmount(t *testing.T) {
	router, db := newTestRouter(t)
	require.NoError(t, db.Create(&model.Participant{UserID: 1, PointsBalance: 100}).Error)

	_, resp := doJSON(t, router, http.MethodPost, "/api/v1/redemption/request", gin.H{
		"user_id": 1, "points": 50, "channel": "UPI", "amount": 500,
	})
	require.Equal(t, response.CodeSuccess, resp.Code)

	var redemption model.Redemption
	require.NoError(t, db.Where("user_id = ?", 1).First(&redemption).Error)
	require.NotNil(t, redemption.Amount)
	assert.Equal(t, int64(500), *redemption.Amount)
}

func TestRedemptionEndpointInsufficientBalance(t *testing.T) {
	router, db := newTestRouter(t)
	require.NoError(t, db.Create(&model.Participant{UserID: 1, PointsBalance: 10}).Error)

	_, resp := doJSON(t, router, http.MethodPost, "/api/v1/redemption/request", gin.H{
		"user_id": 1, "points": 100, "channel": "UPI",
	})
	assert.Equal(t, response.CodeInsufficientPoints, resp.Code)
}
