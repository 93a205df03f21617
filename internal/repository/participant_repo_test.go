package repository

import (
	"context"
	"testing"

	"loyaltyengine/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedAccounts(t *testing.T, db *gorm.DB, userID int64, category model.Category, balance int64) model.CategoryTableSet {
	t.Helper()
	require.NoError(t, db.Create(&model.Participant{UserID: userID, PointsBalance: balance}).Error)
	tables, err := model.TablesFor(category)
	require.NoError(t, err)
	require.NoError(t, db.Table(tables.Profiles).Create(&model.CategoryProfile{UserID: userID, PointsBalance: balance}).Error)
	return tables
}

func TestCreditBalancesUpdatesBothAccounts(t *testing.T) {
	db := newTestDB(t)
	repo := NewParticipantRepository(db)
	tables := seedAccounts(t, db, 1, model.CategoryRetailer, 0)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.CreditBalances(ctx, tx, tables, 1, 50)
	})
	require.NoError(t, err)

	participant, err := repo.GetByUserID(ctx, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), participant.PointsBalance)
	assert.Equal(t, int64(50), participant.TotalEarnings)

	profile, err := repo.GetProfile(ctx, nil, tables, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), profile.PointsBalance)
	assert.Equal(t, int64(50), profile.TotalEarnings)
}

func TestCreditBalancesMissingProfile(t *testing.T) {
	db := newTestDB(t)
	repo := NewParticipantRepository(db)
	// 只有中心账户，没有类别档案
	require.NoError(t, db.Create(&model.Participant{UserID: 1}).Error)
	tables, _ := model.TablesFor(model.CategoryRetailer)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.CreditBalances(context.Background(), tx, tables, 1, 50)
	})
	assert.ErrorIs(t, err, ErrProfileNotFound)

	// 中心账户不能因为档案缺失而被单边加款
	participant, err := repo.GetByUserID(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), participant.PointsBalance)
}

func TestDebitSufficientBalance(t *testing.T) {
	db := newTestDB(t)
	repo := NewParticipantRepository(db)
	seedAccounts(t, db, 1, model.CategoryRetailer, 100)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.Debit(ctx, tx, 1, 60)
	})
	require.NoError(t, err)

	participant, err := repo.GetByUserID(ctx, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(40), participant.PointsBalance)
	assert.Equal(t, int64(60), participant.TotalRedeemed)
}

func TestDebitInsufficientBalance(t *testing.T) {
	db := newTestDB(t)
	repo := NewParticipantRepository(db)
	seedAccounts(t, db, 1, model.CategoryRetailer, 30)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.Debit(ctx, tx, 1, 60)
	})
	assert.ErrorIs(t, err, ErrBalanceNotEnough)

	participant, err := repo.GetByUserID(ctx, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(30), participant.PointsBalance)
}

func TestDebitUnknownParticipant(t *testing.T) {
	db := newTestDB(t)
	repo := NewParticipantRepository(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.Debit(context.Background(), tx, 42, 10)
	})
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}
