package service

import (
	"context"
	"testing"
	"time"

	"loyaltyengine/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinancialYearOf(t *testing.T) {
	cases := []struct {
		date string
		want string
	}{
		{"2024-04-01", "2024-2025"},
		{"2024-03-31", "2023-2024"},
		{"2024-12-15", "2024-2025"},
		{"2025-01-10", "2024-2025"},
		{"2025-04-01", "2025-2026"},
	}
	for _, c := range cases {
		d, err := time.Parse("2006-01-02", c.date)
		require.NoError(t, err)
		assert.Equal(t, c.want, FinancialYearOf(d), c.date)
	}
}

func TestWithholdingAmount(t *testing.T) {
	assert.Equal(t, int64(5), withholdingAmount(100, decimal.RequireFromString("5")))
	// 向下取整
	assert.Equal(t, int64(4), withholdingAmount(99, decimal.RequireFromString("5")))
	assert.Equal(t, int64(0), withholdingAmount(10, decimal.RequireFromString("2.5")))
	assert.Equal(t, int64(2), withholdingAmount(100, decimal.RequireFromString("2.5")))
}

func TestAccrueBelowThreshold(t *testing.T) {
	record := &model.TdsRecord{Status: model.TdsStatusActive, Kitty: 100}

	settled := accrue(record, 50, 20000, time.Now())

	assert.False(t, settled)
	assert.Equal(t, int64(150), record.Kitty)
	assert.Equal(t, int64(0), record.Deducted)
	assert.Equal(t, model.TdsStatusActive, record.Status)
	assert.Equal(t, 1, record.TransactionCount)
	assert.Equal(t, int64(50), record.LastDeductedAmount)
	assert.NotNil(t, record.LastDeductionAt)
}

func TestAccrueCrossesThreshold(t *testing.T) {
	// 19998 + 5 越过 20000：整个新 kitty 结清，不是只结阈值部分
	record := &model.TdsRecord{Status: model.TdsStatusActive, Kitty: 19998, Deducted: 0}

	settled := accrue(record, 5, 20000, time.Now())

	assert.True(t, settled)
	assert.Equal(t, int64(0), record.Kitty)
	assert.Equal(t, int64(20003), record.Deducted)
	assert.Equal(t, model.TdsStatusSettled, record.Status)
	assert.NotNil(t, record.SettledAt)
}

func TestAccrueExactThreshold(t *testing.T) {
	record := &model.TdsRecord{Status: model.TdsStatusActive, Kitty: 19000}

	settled := accrue(record, 1000, 20000, time.Now())

	assert.True(t, settled)
	assert.Equal(t, int64(20000), record.Deducted)
	assert.Equal(t, int64(0), record.Kitty)
}

func TestApplyWithoutConfig(t *testing.T) {
	db := newTestDB(t)
	tds := NewTdsService(db, newTestConfig())
	ctx := context.Background()

	net, withheld := tds.Apply(ctx, db, 1, model.CategoryRetailer, 100)

	assert.Equal(t, int64(100), net)
	assert.Equal(t, int64(0), withheld)

	// 比例为零不应创建代扣记录
	var count int64
	require.NoError(t, db.Model(&model.TdsRecord{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestApplyWithCategoryKey(t *testing.T) {
	db := newTestDB(t)
	seedMasterData(t, db, "TDS_PERCENTAGE_RETAILER", "10")
	tds := NewTdsService(db, newTestConfig())
	ctx := context.Background()

	net, withheld := tds.Apply(ctx, db, 1, model.CategoryRetailer, 50)

	assert.Equal(t, int64(45), net)
	assert.Equal(t, int64(5), withheld)

	record, err := tds.tdsRepo.GetByUserAndFy(ctx, db, 1, CurrentFinancialYear())
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, int64(5), record.Kitty)
	assert.Equal(t, model.TdsStatusActive, record.Status)
	assert.Equal(t, 1, record.TransactionCount)
}

func TestApplyFallbackKey(t *testing.T) {
	db := newTestDB(t)
	seedMasterData(t, db, "TDS_PERCENTAGE", "2")
	tds := NewTdsService(db, newTestConfig())
	ctx := context.Background()

	net, withheld := tds.Apply(ctx, db, 7, model.CategoryElectrician, 100)

	assert.Equal(t, int64(98), net)
	assert.Equal(t, int64(2), withheld)
}

func TestApplyCategoryKeyOverridesFallback(t *testing.T) {
	db := newTestDB(t)
	seedMasterData(t, db, "TDS_PERCENTAGE", "2")
	seedMasterData(t, db, "TDS_PERCENTAGE_RETAILER", "10")
	tds := NewTdsService(db, newTestConfig())
	ctx := context.Background()

	_, withheld := tds.Apply(ctx, db, 1, model.CategoryRetailer, 100)

	assert.Equal(t, int64(10), withheld)
}

func TestApplyInvalidPercentageSwallowed(t *testing.T) {
	db := newTestDB(t)
	seedMasterData(t, db, "TDS_PERCENTAGE_RETAILER", "not-a-number")
	tds := NewTdsService(db, newTestConfig())
	ctx := context.Background()

	// 配置坏了也不能挡住入账
	net, withheld := tds.Apply(ctx, db, 1, model.CategoryRetailer, 100)

	assert.Equal(t, int64(100), net)
	assert.Equal(t, int64(0), withheld)
}

func TestApplySettlementEmitsEvent(t *testing.T) {
	db := newTestDB(t)
	seedMasterData(t, db, "TDS_PERCENTAGE_RETAILER", "10")
	cfg := newTestConfig()
	cfg.Business.TdsSettlementThreshold = 10
	tds := NewTdsService(db, cfg)
	ctx := context.Background()

	net, withheld := tds.Apply(ctx, db, 1, model.CategoryRetailer, 200)

	assert.Equal(t, int64(180), net)
	assert.Equal(t, int64(20), withheld)

	record, err := tds.tdsRepo.GetByUserAndFy(ctx, db, 1, CurrentFinancialYear())
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, model.TdsStatusSettled, record.Status)
	assert.Equal(t, int64(20), record.Deducted)
	assert.Equal(t, int64(0), record.Kitty)

	var messages []model.OutboxMessage
	require.NoError(t, db.Where("topic = ?", "tds_settled").Find(&messages).Error)
	require.Len(t, messages, 1)
	assert.Equal(t, model.OutboxStatusPending, messages[0].Status)
	assert.Contains(t, messages[0].Payload, model.EventTdsSettled)
}

func TestApplyAccumulatesAcrossTransactions(t *testing.T) {
	db := newTestDB(t)
	seedMasterData(t, db, "TDS_PERCENTAGE_RETAILER", "5")
	tds := NewTdsService(db, newTestConfig())
	ctx := context.Background()

	tds.Apply(ctx, db, 1, model.CategoryRetailer, 100)
	tds.Apply(ctx, db, 1, model.CategoryRetailer, 200)

	record, err := tds.tdsRepo.GetByUserAndFy(ctx, db, 1, CurrentFinancialYear())
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, int64(15), record.Kitty)
	assert.Equal(t, 2, record.TransactionCount)
	assert.Equal(t, int64(10), record.LastDeductedAmount)
}

func TestResetFinancialYear(t *testing.T) {
	db := newTestDB(t)
	tds := NewTdsService(db, newTestConfig())
	ctx := context.Background()

	previousFy := "2024-2025"
	newFy := "2025-2026"

	// user 1 达阈值应结清，user 2 未达阈值应回退
	require.NoError(t, db.Create(&model.TdsRecord{
		UserID: 1, FinancialYear: previousFy, Kitty: 25000, Status: model.TdsStatusActive,
	}).Error)
	require.NoError(t, db.Create(&model.TdsRecord{
		UserID: 2, FinancialYear: previousFy, Kitty: 100, Status: model.TdsStatusActive,
	}).Error)
	// 已结算的记录不应被再处理
	require.NoError(t, db.Create(&model.TdsRecord{
		UserID: 3, FinancialYear: previousFy, Deducted: 30000, Status: model.TdsStatusSettled,
	}).Error)

	result, err := tds.ResetFinancialYear(ctx, previousFy, newFy)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Settled)
	assert.Equal(t, 1, result.Reverted)
	assert.Equal(t, 0, result.Errors)

	record1, err := tds.tdsRepo.GetByUserAndFy(ctx, db, 1, previousFy)
	require.NoError(t, err)
	assert.Equal(t, model.TdsStatusSettled, record1.Status)
	assert.Equal(t, int64(25000), record1.Deducted)
	assert.Equal(t, int64(0), record1.Kitty)

	record2, err := tds.tdsRepo.GetByUserAndFy(ctx, db, 2, previousFy)
	require.NoError(t, err)
	assert.Equal(t, model.TdsStatusReverted, record2.Status)
	assert.Equal(t, int64(100), record2.ReversedAmount)
	assert.Equal(t, int64(0), record2.Kitty)

	// 新财年开出零值 active 记录
	for _, userID := range []int64{1, 2} {
		newRecord, err := tds.tdsRepo.GetByUserAndFy(ctx, db, userID, newFy)
		require.NoError(t, err)
		require.NotNil(t, newRecord)
		assert.Equal(t, model.TdsStatusActive, newRecord.Status)
		assert.Equal(t, int64(0), newRecord.Kitty)
	}

	// 重复执行应是空操作
	again, err := tds.ResetFinancialYear(ctx, previousFy, newFy)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Processed)
}
