package notifier

import (
	"github.com/shopspring/decimal"

	"cryptoalert/internal/core"
)

// Alert carries everything a channel needs to render a triggered-rule
// notification.
type Alert struct {
	Recipient string
	Currency  string
	Condition core.Condition
	Threshold decimal.Decimal
	Price     decimal.Decimal
}

// Notifier defines the interface for alert delivery channels
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Send delivers one triggered-alert notification. A failure is
	// reported to the caller and never aborts the evaluation loop.
	Send(alert Alert) error

	// SendFailure reports a pipeline-level failure to the operator.
	// Channels without an operator destination treat this as a no-op.
	SendFailure(taskName, message string) error
}
