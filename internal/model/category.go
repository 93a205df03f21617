package model

import (
	"fmt"
)

// Category 参与者类别（零售商/电工/柜台店员）
// 决定积分费率和落库的物理表
type Category string

const (
	CategoryRetailer     Category = "Retailer"
	CategoryElectrician  Category = "Electrician"
	CategoryCounterSales Category = "CounterSales"
)

// CategoryTableSet 某一类别对应的物理表集合
// 交易表、审计日志表、台账表、档案表各一张
type CategoryTableSet struct {
	Transactions    string
	TransactionLogs string
	Ledger          string
	Profiles        string
}

// categoryTables 类别 -> 表集合的映射，启动时装配一次
// 替代按字符串逐次 switch 选表的写法
var categoryTables = map[Category]CategoryTableSet{
	CategoryRetailer: {
		Transactions:    "retailer_transactions",
		TransactionLogs: "retailer_transaction_logs",
		Ledger:          "retailer_ledger",
		Profiles:        "retailers",
	},
	CategoryElectrician: {
		Transactions:    "electrician_transactions",
		TransactionLogs: "electrician_transaction_logs",
		Ledger:          "electrician_ledger",
		Profiles:        "electricians",
	},
	CategoryCounterSales: {
		Transactions:    "counter_sales_transactions",
		TransactionLogs: "counter_sales_transaction_logs",
		Ledger:          "counter_sales_ledger",
		Profiles:        "counter_sales",
	},
}

// TablesFor 返回类别对应的表集合，未知类别视为参数错误
func TablesFor(category Category) (CategoryTableSet, error) {
	tables, ok := categoryTables[category]
	if !ok {
		return CategoryTableSet{}, fmt.Errorf("不支持的参与者类别: %s", category)
	}
	return tables, nil
}

// AllCategoryTables 返回全部表集合，用于建表迁移
func AllCategoryTables() map[Category]CategoryTableSet {
	return categoryTables
}
