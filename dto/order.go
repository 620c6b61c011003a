package dto

import "time"

type OrderResponse struct {
	ID         string    `json:"id" example:"ord_123456789"`
	UserID     string    `json:"user_id" example:"usr_123456789"`
	Status     string    `json:"status" example:"paid"`
	TotalCents int64     `json:"total_cents" example:"12999"`
	Currency   string    `json:"currency" example:"USD"`
	ItemCount  int       `json:"item_count" example:"3"`
	CreatedAt  time.Time `json:"created_at" example:"2025-01-15T10:30:00Z"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total" example:"42"`
	Page   int             `json:"page" example:"1"`
	Limit  int             `json:"limit" example:"20"`
}

type ListOrdersQuery struct {
	Page   int    `query:"page" validate:"omitempty,min=1" example:"1"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100" example:"20"`
	Status string `query:"status" validate:"omitempty,oneof=pending paid shipped delivered cancelled" example:"paid"`
}

func (q ListOrdersQuery) Validate() error {
	return GetValidator().Struct(q)
}
