package model

import "time"

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	ID         string    `json:"id" gorm:"primaryKey;type:text;not null"`
	UserID     string    `json:"user_id" gorm:"not null;index;size:64"`
	Status     string    `json:"status" gorm:"default:pending;not null;size:20;index"`
	TotalCents int64     `json:"total_cents" gorm:"not null"`
	Currency   string    `json:"currency" gorm:"default:USD;not null;size:3"`
	ItemCount  int       `json:"item_count" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null;index"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"not null"`
}
