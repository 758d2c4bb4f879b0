package handler

import (
	"time"

	"floodrelief/internal/auth/models"
)

// AccountResponse never carries the secret hash or salt.
type AccountResponse struct {
	ID         int64     `json:"id"`
	Login      string    `json:"login"`
	Email      string    `json:"email"`
	Contact    string    `json:"contact"`
	NationalID string    `json:"national_id"`
	IsAdmin    bool      `json:"is_admin"`
	CreatedAt  time.Time `json:"created_at"`
}

func toAccountResponse(a *models.Account) AccountResponse {
	return AccountResponse{
		ID:         int64(a.ID),
		Login:      a.Login,
		Email:      a.Email,
		Contact:    a.Contact,
		NationalID: a.NationalID.String(),
		IsAdmin:    a.IsAdmin,
		CreatedAt:  a.CreatedAt,
	}
}

type SessionResponse struct {
	SessionID  string    `json:"session_id"`
	AccountID  int64     `json:"account_id"`
	Login      string    `json:"login"`
	IsAdmin    bool      `json:"is_admin"`
	NationalID string    `json:"national_id"`
	Device     string    `json:"device,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toSessionResponse(s models.Session) SessionResponse {
	return SessionResponse{
		SessionID:  s.ID.String(),
		AccountID:  int64(s.AccountID),
		Login:      s.Login,
		IsAdmin:    s.IsAdmin,
		NationalID: s.NationalID.String(),
		Device:     s.Device,
		CreatedAt:  s.CreatedAt,
	}
}

type LoginResponse struct {
	Token   string          `json:"token"`
	Session SessionResponse `json:"session"`
}
