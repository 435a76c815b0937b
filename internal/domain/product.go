package domain

import "github.com/shopspring/decimal"

// Product is the inventory view of a catalog item.
type Product struct {
	ID        string
	Available int
	Price     decimal.Decimal
}
