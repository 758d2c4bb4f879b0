package service

import (
	"context"
	"errors"

	"floodrelief/internal/auth/device"
	"floodrelief/internal/auth/models"
	id "floodrelief/pkg/domain"
	dErrors "floodrelief/pkg/domain-errors"
	"floodrelief/pkg/platform/audit"
	"floodrelief/pkg/platform/sentinel"
	"floodrelief/pkg/requestcontext"
)

// LoginResult is a fresh session and the bearer token naming it.
type LoginResult struct {
	Session *models.Session
	Token   string
}

var errAuthFailed = dErrors.New(dErrors.CodeAuthenticationFail, "invalid login or secret")

// Login verifies the credentials and opens a session. Unknown logins and
// wrong secrets return the same error after the same amount of work.
func (s *Service) Login(ctx context.Context, login, secret string) (result *LoginResult, err error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer func() { endSpan(span, err) }()

	acct, err := s.accounts.FindByLogin(ctx, login)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeOperationFailed, "failed to load account")
		}
		s.hasher.VerifySecret(secret, s.decoySalt, s.decoyHash)
		s.authFailure(ctx, "unknown_login", 0)
		return nil, errAuthFailed
	}
	if !s.hasher.VerifySecret(secret, acct.Salt, acct.SecretHash) {
		s.authFailure(ctx, "wrong_secret", acct.ID)
		return nil, errAuthFailed
	}

	sess := &models.Session{
		ID:         id.NewSessionID(),
		AccountID:  acct.ID,
		Login:      acct.Login,
		IsAdmin:    acct.IsAdmin,
		NationalID: acct.NationalID,
		Device:     device.ParseUserAgent(requestcontext.UserAgent(ctx)),
		ClientIP:   requestcontext.ClientIP(ctx),
		CreatedAt:  requestcontext.Now(ctx),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeOperationFailed, "failed to save session")
	}

	token, err := s.tokens.IssueSessionToken(sess.ID, sess.AccountID, s.sessionTTL)
	if err != nil {
		if delErr := s.sessions.Delete(ctx, sess.ID); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to discard session after token error", "error", delErr)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeOperationFailed, "failed to issue session token")
	}

	s.incrementLogin("success")
	s.logAudit(ctx, audit.EventLoginSucceeded,
		audit.Event{AccountID: acct.ID, Subject: "session:" + sess.ID.String()},
		"session_id", sess.ID.String(),
		"device", sess.Device,
	)
	return &LoginResult{Session: sess, Token: token}, nil
}

func (s *Service) authFailure(ctx context.Context, reason string, accountID id.AccountID) {
	s.incrementLogin("failure")
	s.logAudit(ctx, audit.EventAuthFailed,
		audit.Event{AccountID: accountID, Reason: reason},
		"reason", reason,
	)
}

// Logout ends the session. It always succeeds from the caller's point of
// view; store failures are logged.
func (s *Service) Logout(ctx context.Context, session models.Session) {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	if !session.IsAuthenticated() {
		return
	}
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete session on logout",
			"error", err,
			"session_id", session.ID.String(),
		)
	}
	s.logAudit(ctx, audit.EventSessionEnded,
		audit.Event{AccountID: session.AccountID, Subject: "session:" + session.ID.String()},
		"session_id", session.ID.String(),
	)
}

// ResolveSession returns the live session for id. Ended or unknown sessions
// are reported as unauthorized.
func (s *Service) ResolveSession(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	sess, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "session has ended")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeOperationFailed, "failed to load session")
	}
	return sess, nil
}
