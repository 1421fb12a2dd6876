package service

import (
	"context"
	"fmt"
	"strings"

	appErrors "github.com/veatashop/storefront/internal/errors"
	"github.com/veatashop/storefront/internal/models"
	repository "github.com/veatashop/storefront/internal/repositories"
	"github.com/veatashop/storefront/pkg/sendgrid"
	"github.com/google/uuid"
)

type NotificationService interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
	ListNotificationsByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Notification, int, error)
}

type notificationService struct {
	repo         repository.NotificationRepository
	userRepo     repository.UserRepository
	emailService sendgrid.EmailService
}

func NewNotificationService(repo repository.NotificationRepository, userRepo repository.UserRepository, emailService sendgrid.EmailService) NotificationService {
	return &notificationService{repo: repo, userRepo: userRepo, emailService: emailService}
}

// SendOrderConfirmation emails the order summary and records the attempt.
// Both outcomes are recorded; a failed send is worth knowing about later.
func (n *notificationService) SendOrderConfirmation(ctx context.Context, order *models.Order) error {

	user, err := n.userRepo.GetUserByID(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("fetching recipient: %w", err)
	}

	subject := fmt.Sprintf("Order confirmation #%s", shortID(order.ID))

	req := &models.EmailNotificationRequest{
		To:      user.Email,
		Subject: subject,
		Content: orderConfirmationBody(user, order),
	}

	notification := &models.Notification{
		ID:      uuid.New(),
		UserID:  order.UserID,
		Type:    models.NotificationTypeOrderConfirmation,
		Subject: subject,
		Status:  models.NotificationStatusSent,
	}

	sendErr := n.emailService.Send(ctx, req)
	if sendErr != nil {
		notification.Status = models.NotificationStatusFailed
	}

	if err := n.repo.CreateNotification(ctx, notification); err != nil {
		return fmt.Errorf("recording notification: %w", err)
	}

	if sendErr != nil {
		return fmt.Errorf("sending order confirmation: %w", sendErr)
	}

	return nil
}

func (n *notificationService) ListNotificationsByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Notification, int, error) {

	page, size = normalizePage(page, size)

	notifications, total, err := n.repo.ListNotificationsByUser(ctx, userID, page, size)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch notifications").WithError(err)
	}

	return notifications, total, nil
}

func orderConfirmationBody(user *models.User, order *models.Order) string {

	var b strings.Builder

	fmt.Fprintf(&b, "Hi %s,\n\nThanks for your order. Here is what you bought:\n\n", user.Name)

	for _, item := range order.Items {
		fmt.Fprintf(&b, "  %d x %s @ %.2f\n", item.Quantity, item.ProductName, item.UnitPrice)
	}

	fmt.Fprintf(&b, "\nTotal: %.2f\nShipping to: %s\n", order.TotalAmount, order.ShippingAddress)

	return b.String()
}

func shortID(id uuid.UUID) string {
	return strings.Split(id.String(), "-")[0]
}
