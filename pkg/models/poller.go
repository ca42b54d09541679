package models

// Poller statuses.
const (
	PollerRunning = "running"
	PollerStopped = "stopped"
	PollerError   = "error"
)

// PollerState is the in-memory status snapshot of one account's poll loop
type PollerState struct {
	Status    string `json:"status"`
	IsPolling bool   `json:"isPolling"`
	LastError string `json:"lastError,omitempty"`
}
