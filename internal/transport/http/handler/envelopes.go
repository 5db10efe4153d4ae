package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/KenzoYff/evently-ux-platform-94/internal/domain"
	"github.com/KenzoYff/evently-ux-platform-94/internal/pkg/validate"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// AuthEnvelope wraps login/register responses.
type AuthEnvelope struct {
	Bearer       string       `json:"Bearer,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	Session      *SafeSession `json:"session,omitempty"`
	User         *SafeUser    `json:"user,omitempty"`
	Message      string       `json:"message,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// SessionEnvelope wraps current-session responses.
type SessionEnvelope struct {
	Session *SafeSession `json:"session,omitempty"`
	User    *SafeUser    `json:"user,omitempty"`
	Message string       `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// PaginatedUsersEnvelope wraps cursor-paginated user list responses.
type PaginatedUsersEnvelope struct {
	PerPage    int         `json:"per_page"`
	NextCursor string      `json:"next_cursor,omitempty"`
	Data       []*SafeUser `json:"data"`
	Error      string      `json:"error,omitempty"`
}

// CodeEnvelope acknowledges a verification code request. Code is only
// populated when codes are exposed for local development.
type CodeEnvelope struct {
	Message        string     `json:"message"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	DeliveryFailed bool       `json:"delivery_failed,omitempty"`
	Code           string     `json:"code,omitempty"`
}

// SafeSession is the client view of a session.
type SafeSession struct {
	SessionID        string    `json:"id"`
	UserID           string    `json:"user_id"`
	TwoFactorPending bool      `json:"two_factor_pending"`
	CreatedAt        time.Time `json:"created"`
}

// SafeUser is the full profile, shown to the user themself and to admins.
type SafeUser struct {
	UserID      string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Role        string    `json:"role,omitempty"`
	Department  string    `json:"department"`
	Position    string    `json:"position"`
	HasPhoto    bool      `json:"has_photo"`
	Enable      *int      `json:"enable,omitempty"`
	CreatedAt   time.Time `json:"created"`
}

func toSafeSession(s *domain.Session) *SafeSession {
	if s == nil {
		return nil
	}
	return &SafeSession{SessionID: s.SessionID, UserID: s.UserID, TwoFactorPending: s.TwoFactorPending, CreatedAt: s.CreatedAt}
}

func toSafeUser(u *domain.User) *SafeUser {
	if u == nil {
		return nil
	}
	enable := u.Enable
	return &SafeUser{
		UserID:      u.UserID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        u.Role,
		Department:  u.Department,
		Position:    u.Position,
		HasPhoto:    u.PhotoKey != "",
		Enable:      &enable,
		CreatedAt:   u.CreatedAt,
	}
}

// toPublicUser strips contact and account fields for other members.
func toPublicUser(u *domain.User) *SafeUser {
	return &SafeUser{
		UserID:      u.UserID,
		DisplayName: u.DisplayName,
		Department:  u.Department,
		Position:    u.Position,
		HasPhoto:    u.PhotoKey != "",
		CreatedAt:   u.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

// httpError maps a service error onto its status code.
func httpError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCode):
		writeError(w, http.StatusUnauthorized, "invalid code")
		return
	case errors.Is(err, domain.ErrCodeExpired):
		writeError(w, http.StatusUnauthorized, "code expired")
		return
	case errors.Is(err, domain.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, "session expired")
		return
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrStorageUnavailable):
		slog.Error("storage unavailable", "err", err)
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
		return
	default:
		slog.Error("unhandled service error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, status, MessageEnvelope{Error: err.Error(), ErrorCode: status})
}
