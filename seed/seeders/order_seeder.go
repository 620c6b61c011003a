package seeders

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/elitereplicas/elite_api/model"
	"gorm.io/gorm"
)

// OrderSeeder creates demo orders for local development
type OrderSeeder struct {
	db *gorm.DB
}

func NewOrderSeeder(db *gorm.DB) *OrderSeeder {
	return &OrderSeeder{db: db}
}

// SeedDemoOrders attaches a handful of orders to the first non-admin user so
// the order endpoints have something to return locally.
func (s *OrderSeeder) SeedDemoOrders() error {
	var count int64
	if err := s.db.Model(&model.Order{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Orders already exist, skipping order seeding")
		return nil
	}

	var user model.User
	if err := s.db.Where("role = ?", model.RoleUser).First(&user).Error; err != nil {
		log.Println("No regular user found, skipping order seeding")
		return nil
	}

	demo := []model.Order{
		{Status: model.OrderStatusDelivered, TotalCents: 12999, Currency: "USD", ItemCount: 1},
		{Status: model.OrderStatusShipped, TotalCents: 45900, Currency: "USD", ItemCount: 3},
		{Status: model.OrderStatusPaid, TotalCents: 8999, Currency: "USD", ItemCount: 1},
		{Status: model.OrderStatusPending, TotalCents: 25000, Currency: "USD", ItemCount: 2},
	}

	now := time.Now()
	for i := range demo {
		id, _ := uuid.NewV7()
		demo[i].ID = id.String()
		demo[i].UserID = user.ID
		demo[i].CreatedAt = now.Add(-time.Duration(i*24) * time.Hour)
		demo[i].UpdatedAt = demo[i].CreatedAt

		if err := s.db.Create(&demo[i]).Error; err != nil {
			log.Printf("Error creating demo order: %v", err)
			return err
		}
	}

	log.Printf("Created %d demo orders for user %s", len(demo), user.Username)
	return nil
}
