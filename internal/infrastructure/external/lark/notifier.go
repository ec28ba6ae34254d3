package lark

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/media-collect/internal/application/port"
)

// Notifier posts review and assignment notices to the review chat
type Notifier struct {
	sender MessageSender
	chatID string
	logger *zap.Logger
}

// NewNotifier creates a notifier posting to chatID
func NewNotifier(sender MessageSender, chatID string, logger *zap.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		chatID: chatID,
		logger: logger,
	}
}

// NewNotifierFromConfig returns a Lark notifier, or a no-op notifier when
// Lark is not configured
func NewNotifierFromConfig(cfg Config, logger *zap.Logger) port.Notifier {
	if !cfg.Enabled() {
		logger.Info("Lark not configured, notifications disabled")
		return NopNotifier{}
	}
	sdk := NewSDKClient(cfg, logger)
	return NewNotifier(NewMessenger(sdk, logger), sdk.ReviewChatID(), logger)
}

func (n *Notifier) NotifyReview(ctx context.Context, notice port.ReviewNotice) error {
	return n.send(ctx, FormatReview(notice))
}

func (n *Notifier) NotifyAssignment(ctx context.Context, notice port.AssignmentNotice) error {
	return n.send(ctx, FormatAssignment(notice))
}

func (n *Notifier) send(ctx context.Context, text string) error {
	content, err := textContent(text)
	if err != nil {
		return err
	}
	if _, err := n.sender.SendMessage(ctx, ReceiveIDTypeChatID, n.chatID, "text", content); err != nil {
		return err
	}
	return nil
}

// FormatReview renders a review notice as message text
func FormatReview(notice port.ReviewNotice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Submission %s %s\n", notice.SubmissionID, notice.Status)
	fmt.Fprintf(&b, "Task: %s\n", notice.TaskTitle)
	fmt.Fprintf(&b, "Collector: %s\n", notice.CollectorName)
	if notice.Note != nil {
		fmt.Fprintf(&b, "Note: %s\n", *notice.Note)
	}
	if notice.ReReview {
		fmt.Fprintf(&b, "Re-review: previously %s\n", notice.PreviousStatus)
	}
	fmt.Fprintf(&b, "Reviewer: %s", notice.ReviewerID)
	return b.String()
}

// FormatAssignment renders an assignment notice as message text
func FormatAssignment(notice port.AssignmentNotice) string {
	title := notice.TaskTitle
	if title == "" {
		title = notice.TaskID
	}
	return fmt.Sprintf("Task %q: %d new collector(s) assigned (%s)",
		title, notice.Added, strings.Join(notice.Assigned, ", "))
}

// NopNotifier drops every notice
type NopNotifier struct{}

func (NopNotifier) NotifyReview(context.Context, port.ReviewNotice) error         { return nil }
func (NopNotifier) NotifyAssignment(context.Context, port.AssignmentNotice) error { return nil }

var (
	_ port.Notifier = (*Notifier)(nil)
	_ port.Notifier = NopNotifier{}
)
