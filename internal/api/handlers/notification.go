package handlers

import (
	"log/slog"
	"net/http"

	"github.com/veatashop/storefront/internal/api/middleware"
	"github.com/veatashop/storefront/internal/errors"
	"github.com/veatashop/storefront/internal/models"
	service "github.com/veatashop/storefront/internal/services"
	"github.com/veatashop/storefront/internal/utils/response"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// ListNotifications godoc
//	@Summary		List the user's notifications
//	@Description	Retrieves a paginated list of notifications sent to the authenticated user, newest first.
//	@Tags			Notifications
//	@Produce		json
//	@Param			page		query		int														false	"Page number (default: 1)"							minimum(1)
//	@Param			pageSize	query		int														false	"Number of items per page (default: 10, max: 100)"	minimum(1)	maximum(100)
//	@Success		200			{object}	models.PaginatedResponse{Data=[]models.Notification}	"Successfully retrieved notifications"
//	@Failure		401			{object}	response.ErrorResponse									"Authentication required"
//	@Failure		500			{object}	response.ErrorResponse									"Internal server error"
//	@Security		BearerAuth
//	@Router			/notifications [get]
func (h *NotificationHandler) ListNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized notification list attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		page, pageSize := parsePagination(r)

		notifications, total, err := h.notificationService.ListNotificationsByUser(r.Context(), claims.UserID, page, pageSize)
		if err != nil {
			logger.Error("Failed to list notifications", slog.String("userId", claims.UserID.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     notifications,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		})
	}
}
