package screen

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/roach88/editgrid/internal/crud"
)

type quiet struct{}

func (quiet) Success(string) {}
func (quiet) Error(string)   {}

func asLimit(err error, target **crud.LimitExceededError) bool {
	return errors.As(err, target)
}

// Notice is one recorded notification or dialog.
type Notice struct {
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

// Notice kinds.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeLimit   = "limit"
	NoticeConfirm = "confirm"
)

// Notices records notifications, limit dialogs and confirmations, and logs
// each of them. It implements crud.Notifier, crud.LimitDialog and
// crud.Confirmer. Safe for concurrent use.
type Notices struct {
	logger *slog.Logger
	answer bool

	mu   sync.Mutex
	list []Notice
}

var (
	_ crud.Notifier    = (*Notices)(nil)
	_ crud.LimitDialog = (*Notices)(nil)
	_ crud.Confirmer   = (*Notices)(nil)
)

// NewNotices returns a recorder whose confirmations answer yes. A nil
// logger means slog.Default().
func NewNotices(logger *slog.Logger) *Notices {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notices{logger: logger, answer: true}
}

// SetAnswer sets the answer given to later confirmations.
func (n *Notices) SetAnswer(yes bool) {
	n.mu.Lock()
	n.answer = yes
	n.mu.Unlock()
}

// Success implements crud.Notifier.
func (n *Notices) Success(message string) {
	n.logger.Info("notification", "kind", NoticeSuccess, "message", message)
	n.add(Notice{Kind: NoticeSuccess, Message: message})
}

// Error implements crud.Notifier.
func (n *Notices) Error(message string) {
	n.logger.Warn("notification", "kind", NoticeError, "message", message)
	n.add(Notice{Kind: NoticeError, Message: message})
}

// ShowLimitExceeded implements crud.LimitDialog.
func (n *Notices) ShowLimitExceeded(err *crud.LimitExceededError) {
	n.logger.Warn("limit exceeded", "entity", err.Entity, "limit", err.Limit)
	n.add(Notice{Kind: NoticeLimit, Message: err.Error()})
}

// Confirm implements crud.Confirmer.
func (n *Notices) Confirm(_ context.Context, message string) (bool, error) {
	n.add(Notice{Kind: NoticeConfirm, Message: message})
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.answer, nil
}

// List returns the recorded notices in order.
func (n *Notices) List() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.list...)
}

// Reset clears the recorded notices.
func (n *Notices) Reset() {
	n.mu.Lock()
	n.list = nil
	n.mu.Unlock()
}

func (n *Notices) add(x Notice) {
	n.mu.Lock()
	n.list = append(n.list, x)
	n.mu.Unlock()
}
