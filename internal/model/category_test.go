package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTablesFor(t *testing.T) {
	tables, err := TablesFor(CategoryRetailer)
	require.NoError(t, err)
	assert.Equal(t, "retailer_transactions", tables.Transactions)
	assert.Equal(t, "retailers", tables.Profiles)

	tables, err = TablesFor(CategoryCounterSales)
	require.NoError(t, err)
	assert.Equal(t, "counter_sales_ledger", tables.Ledger)

	_, err = TablesFor("Distributor")
	assert.Error(t, err)
}

func TestAllCategoryTablesCoversEveryCategory(t *testing.T) {
	all := AllCategoryTables()
	assert.Len(t, all, 3)
	for category, tables := range all {
		assert.NotEmpty(t, tables.Transactions, category)
		assert.NotEmpty(t, tables.TransactionLogs, category)
		assert.NotEmpty(t, tables.Ledger, category)
		assert.NotEmpty(t, tables.Profiles, category)
	}
}

func TestRedemptionTransitions(t *testing.T) {
	assert.True(t, CanTransitionRedemption(RedemptionStatusPending, RedemptionStatusApproved))
	assert.True(t, CanTransitionRedemption(RedemptionStatusPending, RedemptionStatusRejected))
	// 终态不可再流转
	assert.False(t, CanTransitionRedemption(RedemptionStatusApproved, RedemptionStatusRejected))
	assert.False(t, CanTransitionRedemption(RedemptionStatusRejected, RedemptionStatusPending))
}
