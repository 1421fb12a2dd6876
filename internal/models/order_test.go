package models_test

import (
	"testing"

	"github.com/veatashop/storefront/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    models.OrderStatus
		to      models.OrderStatus
		allowed bool
	}{
		{"Pending To Processing", models.OrderStatusPending, models.OrderStatusProcessing, true},
		{"Pending To Cancelled", models.OrderStatusPending, models.OrderStatusCancelled, true},
		{"Pending To Shipped Skips A Step", models.OrderStatusPending, models.OrderStatusShipped, false},
		{"Processing To Shipped", models.OrderStatusProcessing, models.OrderStatusShipped, true},
		{"Processing To Cancelled", models.OrderStatusProcessing, models.OrderStatusCancelled, false},
		{"Shipped To Delivered", models.OrderStatusShipped, models.OrderStatusDelivered, true},
		{"Shipped To Cancelled", models.OrderStatusShipped, models.OrderStatusCancelled, false},
		{"Delivered Is Terminal", models.OrderStatusDelivered, models.OrderStatusProcessing, false},
		{"Cancelled Is Terminal", models.OrderStatusCancelled, models.OrderStatusPending, false},
		{"No Self Transition", models.OrderStatusPending, models.OrderStatusPending, false},
		{"Unknown Status Goes Nowhere", models.OrderStatus("teleported"), models.OrderStatusShipped, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}
