package model

import (
	"time"
)

// AuditLog is one complete request audit record.
type AuditLog struct {
	ID        string `json:"id"`      // request id (UUID)
	UserID    string `json:"user_id"` // authenticated subject, empty for anonymous
	Method    string `json:"method"`
	Path      string `json:"path"`
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`

	RequestBody string `json:"request_body"` // redacted

	StatusCode   int    `json:"status_code"`
	ResponseBody string `json:"response_body"` // redacted
	LatencyMs    int64  `json:"latency_ms"`

	// Decision context: resolved route requirements, policy outcome, and
	// anything handlers attach (transfer ids, upstream errors).
	Context map[string]interface{} `json:"context"`

	CreatedAt time.Time `json:"created_at"`
}
