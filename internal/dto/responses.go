package dto

import (
	"time"

	"github.com/fixly-app/fixly-backend/internal/models"
)

// AuthResponse — ответ на регистрацию и вход.
type AuthResponse struct {
	User         *models.User  `json:"user"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    time.Duration `json:"expires_in"`
}

// MyOrdersResponse — заказы пользователя в обеих ролях.
type MyOrdersResponse struct {
	AsClient []models.Order `json:"as_client"`
	AsFixer  []models.Order `json:"as_fixer"`
}

// UserRatingResponse — агрегированный рейтинг пользователя.
type UserRatingResponse struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// UnreadCountResponse — количество непрочитанных уведомлений.
type UnreadCountResponse struct {
	Unread int `json:"unread"`
}

// ErrorResponse — стандартный ответ с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse — стандартный успешный ответ.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
