package domain

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	dErrors "floodrelief/pkg/domain-errors"
)

// Typed identifiers. Record keys are database-assigned sequences; sessions are
// random UUIDs.
type (
	AccountID     int64
	DonationID    int64
	ItemID        int64
	HelpRequestID int64
	PetID         int64
	SessionID     uuid.UUID
)

func (id AccountID) String() string     { return strconv.FormatInt(int64(id), 10) }
func (id DonationID) String() string    { return strconv.FormatInt(int64(id), 10) }
func (id ItemID) String() string        { return strconv.FormatInt(int64(id), 10) }
func (id HelpRequestID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id PetID) String() string         { return strconv.FormatInt(int64(id), 10) }

func (id SessionID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the session id is the zero UUID.
func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id SessionID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *SessionID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = SessionID(u)
	return nil
}

// NewSessionID returns a random session identifier.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// ParseSessionID parses a non-nil UUID.
func ParseSessionID(s string) (SessionID, error) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil || u == uuid.Nil {
		return SessionID{}, dErrors.New(dErrors.CodeBadRequest, "invalid session id")
	}
	return SessionID(u), nil
}

// ParseKey parses a positive numeric record key from a path parameter.
func ParseKey(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 19 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid id")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid id")
	}
	return v, nil
}
