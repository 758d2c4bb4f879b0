package handler

import (
	"strings"
	"unicode/utf8"

	"floodrelief/internal/auth/models"
	dErrors "floodrelief/pkg/domain-errors"
)

// RegisterRequest is the body of POST /auth/register. Field rules live in the
// service; Validate only bounds sizes, counting characters after trimming.
type RegisterRequest struct {
	Login      string `json:"login"`
	Email      string `json:"email"`
	Contact    string `json:"contact"`
	Secret     string `json:"secret"`
	NationalID string `json:"national_id"`
}

func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Login = strings.TrimSpace(r.Login)
	r.Email = strings.TrimSpace(r.Email)
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"login", r.Login, models.MaxLoginLength},
		{"email", r.Email, models.MaxEmailLength},
		{"contact", strings.TrimSpace(r.Contact), models.MaxContactLength},
		{"secret", r.Secret, 256},
		{"national_id", r.NationalID, 32},
	} {
		if utf8.RuneCountInString(f.value) > f.max {
			return dErrors.Newf(dErrors.CodeValidation, "%s must be at most %d characters", f.name, f.max)
		}
	}
	return nil
}

func (r *RegisterRequest) ToModel() models.RegistrationRequest {
	return models.RegistrationRequest{
		Login:      r.Login,
		Email:      r.Email,
		Contact:    r.Contact,
		Secret:     r.Secret,
		NationalID: r.NationalID,
	}
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Login  string `json:"login"`
	Secret string `json:"secret"`
}

func (r *LoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Login = strings.TrimSpace(r.Login)
	if r.Login == "" || r.Secret == "" {
		return dErrors.New(dErrors.CodeValidation, "login and secret are required")
	}
	return nil
}
