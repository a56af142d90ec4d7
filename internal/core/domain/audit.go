package domain

import (
	"errors"
	"time"
)

// AuditAction represents a type-safe action identifier for the audit log.
type AuditAction string

const (
	ActionAttackStart    AuditAction = "ATTACK_STARTED"
	ActionAttackStop     AuditAction = "ATTACK_STOPPED"
	ActionTargetChange   AuditAction = "TARGET_CHANGE"
	ActionSettingsChange AuditAction = "SETTINGS_CHANGE"
	ActionCredential     AuditAction = "CREDENTIAL_CAPTURED"
	ActionExport         AuditAction = "EXPORT"
	ActionInfo           AuditAction = "INFO"
)

var (
	ErrInvalidAction = errors.New("invalid audit action")
	ErrMissingActor  = errors.New("actor is required for auditing")
)

// AuditLog is a record of an operator-visible action.
type AuditLog struct {
	ID        uint        `json:"id"`
	Actor     string      `json:"actor"`
	Action    AuditAction `json:"action"`
	Target    string      `json:"target"`
	Details   string      `json:"details"`
	IPAddress string      `json:"ip_address"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewAuditLog is the designated factory for creating valid AuditLog entities.
func NewAuditLog(actor string, action AuditAction, target, details, ip string) (*AuditLog, error) {
	if actor == "" {
		return nil, ErrMissingActor
	}
	if !isValidAction(action) {
		return nil, ErrInvalidAction
	}
	return &AuditLog{
		Actor:     actor,
		Action:    action,
		Target:    target,
		Details:   details,
		IPAddress: ip,
		Timestamp: time.Now().UTC(),
	}, nil
}

// AuditQuery narrows an audit listing. Zero fields do not filter.
type AuditQuery struct {
	Limit  int
	Action AuditAction
	Since  time.Time
}

// ParseAuditAction accepts any known action name.
func ParseAuditAction(s string) (AuditAction, error) {
	a := AuditAction(s)
	if !isValidAction(a) {
		return "", ErrInvalidAction
	}
	return a, nil
}

func isValidAction(action AuditAction) bool {
	switch action {
	case ActionAttackStart, ActionAttackStop, ActionTargetChange,
		ActionSettingsChange, ActionCredential, ActionExport, ActionInfo:
		return true
	}
	return false
}
