// Package models declares the GORM entities persisted by the engine.
package models

// All lists every entity in dependency order for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Vendor{},
		&Address{},
		&Product{},
		&ProductVariant{},
		&InventoryRecord{},
		&Cart{},
		&CartItem{},
		&Coupon{},
		&CouponRedemption{},
		&Order{},
		&OrderLine{},
		&OrderStatusHistory{},
		&OrderSequence{},
		&Payment{},
		&Refund{},
		&ReturnRequest{},
		&LedgerEntry{},
		&VendorPayout{},
		&Review{},
		&Notification{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
