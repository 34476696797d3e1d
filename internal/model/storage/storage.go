package storage

import (
	"max.ks1230/spendings/internal/entity/expense"
)

// ListOptions narrows ListExpenses. Zero values mean no limit and no search.
type ListOptions struct {
	Limit uint64
	Query string
}

var defaultCategories = []expense.Category{
	{Name: "Bills", Color: "#f59e0b"},
	{Name: "Entertainment", Color: "#8b5cf6"},
	{Name: "Food", Color: "#ef4444"},
	{Name: "Health", Color: "#10b981"},
	{Name: "Other", Color: "#6b7280"},
	{Name: "Shopping", Color: "#ec4899"},
	{Name: "Transport", Color: "#3b82f6"},
}
