package admin

import (
	"time"

	"floodrelief/internal/admin/types"
	"floodrelief/pkg/platform/audit"
)

// AccountResponse is the HTTP response DTO for one account.
type AccountResponse struct {
	ID         int64     `json:"id"`
	Login      string    `json:"login"`
	Email      string    `json:"email"`
	Contact    string    `json:"contact"`
	NationalID string    `json:"national_id"`
	IsAdmin    bool      `json:"is_admin"`
	CreatedAt  time.Time `json:"created_at"`
}

// AccountsListResponse wraps the list of accounts for HTTP response.
type AccountsListResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int                `json:"total"`
}

type StatsResponse struct {
	Accounts     int `json:"accounts"`
	Donations    int `json:"donations"`
	Items        int `json:"items"`
	HelpRequests int `json:"help_requests"`
	Pets         int `json:"pets"`
}

type AuditEventResponse struct {
	Action    string    `json:"action"`
	Category  string    `json:"category"`
	AccountID int64     `json:"account_id,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type AuditListResponse struct {
	Events []*AuditEventResponse `json:"events"`
	Total  int                   `json:"total"`
}

func toAccountResponse(a *types.AccountSummary) *AccountResponse {
	return &AccountResponse{
		ID:         int64(a.ID),
		Login:      a.Login,
		Email:      a.Email,
		Contact:    a.Contact,
		NationalID: a.NationalID.String(),
		IsAdmin:    a.IsAdmin,
		CreatedAt:  a.CreatedAt,
	}
}

func toStatsResponse(s *types.Stats) StatsResponse {
	return StatsResponse{
		Accounts:     s.Accounts,
		Donations:    s.Records.Donations,
		Items:        s.Records.Items,
		HelpRequests: s.Records.HelpRequests,
		Pets:         s.Records.Pets,
	}
}

func toAuditEventResponse(e audit.Event) *AuditEventResponse {
	return &AuditEventResponse{
		Action:    e.Action,
		Category:  string(e.Category),
		AccountID: int64(e.AccountID),
		Subject:   e.Subject,
		Reason:    e.Reason,
		RequestID: e.RequestID,
		Timestamp: e.Timestamp,
	}
}
