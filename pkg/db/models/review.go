package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a buyer's rating of a product.
type Review struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID          uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_reviews_product_buyer,priority:1"`
	BuyerID            uuid.UUID `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex:ux_reviews_product_buyer,priority:2"`
	Rating             int       `gorm:"column:rating;not null"`
	Title              string    `gorm:"column:title"`
	Comment            string    `gorm:"column:comment"`
	IsVerifiedPurchase bool      `gorm:"column:is_verified_purchase;not null"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
