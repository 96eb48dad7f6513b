package security

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// SecurityEvent represents a security-related event for audit logging
type SecurityEvent struct {
	Timestamp time.Time
	EventType string
	UserID    string
	Email     string
	IPAddress string
	UserAgent string
	Success   bool
	ErrorCode string
	Details   string
}

// Predefined event types for consistency
const (
	EventTypeLoginSuccess      = "login_success"
	EventTypeLoginFailure      = "login_failure"
	EventTypeLogout            = "logout"
	EventTypeSignupSuccess     = "signup_success"
	EventTypeSignupFailure     = "signup_failure"
	EventTypeEmailConfirmed    = "email_confirmed"
	EventTypeEmailConfirmFail  = "email_confirm_failure"
	EventTypePasswordResetSent = "password_reset_requested"
	EventTypePasswordReset     = "password_reset"
	EventTypeUserBlocked       = "user_blocked"
	EventTypeUserUnblocked     = "user_unblocked"
)

var auditLogger atomic.Pointer[zap.Logger]

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	auditLogger.Store(l.Named("audit"))
}

// SetLogger replaces the audit logger. A nil logger silences audit output.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	auditLogger.Store(l)
}

// Logger returns the current audit logger
func Logger() *zap.Logger {
	return auditLogger.Load()
}

// LogSecurityEvent writes event as one structured audit line
func LogSecurityEvent(event SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	fields := []zap.Field{
		zap.String("eventType", event.EventType),
		zap.Time("timestamp", event.Timestamp),
		zap.Bool("success", event.Success),
		zap.String("ipAddress", event.IPAddress),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("userId", event.UserID))
	}
	if event.Email != "" {
		fields = append(fields, zap.String("email", event.Email))
	}
	if event.UserAgent != "" {
		fields = append(fields, zap.String("userAgent", event.UserAgent))
	}
	if event.ErrorCode != "" {
		fields = append(fields, zap.String("errorCode", event.ErrorCode))
	}
	if event.Details != "" {
		fields = append(fields, zap.String("details", event.Details))
	}

	l := Logger()
	if event.Success {
		l.Info("auth_security_event", fields...)
		return
	}
	l.Warn("auth_security_event", fields...)
}

// LogLoginAttempt logs a login attempt
func LogLoginAttempt(email, userID, ipAddress, userAgent string, success bool, errorCode string) {
	eventType := EventTypeLoginSuccess
	if !success {
		eventType = EventTypeLoginFailure
	}
	LogSecurityEvent(SecurityEvent{
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Success:   success,
		ErrorCode: errorCode,
	})
}

// LogSignup logs an account registration
func LogSignup(email, userID, ipAddress string, success bool, errorCode string) {
	eventType := EventTypeSignupSuccess
	if !success {
		eventType = EventTypeSignupFailure
	}
	LogSecurityEvent(SecurityEvent{
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		IPAddress: ipAddress,
		Success:   success,
		ErrorCode: errorCode,
	})
}

// LogEmailConfirm logs the use of an email confirmation link
func LogEmailConfirm(userID, ipAddress string, success bool) {
	eventType := EventTypeEmailConfirmed
	if !success {
		eventType = EventTypeEmailConfirmFail
	}
	LogSecurityEvent(SecurityEvent{
		EventType: eventType,
		UserID:    userID,
		IPAddress: ipAddress,
		Success:   success,
	})
}

// LogPasswordReset logs a reset request (completed=false) or a completed reset
func LogPasswordReset(email, userID, ipAddress string, completed, success bool) {
	eventType := EventTypePasswordResetSent
	if completed {
		eventType = EventTypePasswordReset
	}
	LogSecurityEvent(SecurityEvent{
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		IPAddress: ipAddress,
		Success:   success,
	})
}

// LogBlockChange logs a block or unblock performed by actorID on targetID
func LogBlockChange(actorID, targetID, ipAddress string, blocked bool) {
	eventType := EventTypeUserUnblocked
	if blocked {
		eventType = EventTypeUserBlocked
	}
	LogSecurityEvent(SecurityEvent{
		EventType: eventType,
		UserID:    targetID,
		IPAddress: ipAddress,
		Success:   true,
		Details:   "performed by " + actorID,
	})
}
