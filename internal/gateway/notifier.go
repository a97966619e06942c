package gateway

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jmehdipour/wablast/internal/model"
)

// Auditor is the slice of the audit log the notifier needs.
type Auditor interface {
	Append(ctx context.Context, text string, recipient string, status model.DeliveryStatus, scheduleID string)
}

// AdminNotifier delivers out-of-band alerts to the operator's own number
// through the same gateway. Alerts are best-effort: a failed notification
// is audited and dropped, never propagated.
type AdminNotifier struct {
	client Client
	number string
	audit  Auditor
	log    *zap.Logger
}

func NewAdminNotifier(client Client, adminNumber string, audit Auditor, log *zap.Logger) *AdminNotifier {
	return &AdminNotifier{
		client: client,
		number: strings.TrimPrefix(adminNumber, "+"),
		audit:  audit,
		log:    log,
	}
}

func (n *AdminNotifier) Notify(ctx context.Context, text string) {
	if n.number == "" {
		return
	}
	if err := n.client.Send(ctx, n.number, text); err != nil {
		n.audit.Append(ctx, fmt.Sprintf("[FAILURE] admin notification to %s not delivered", n.number), n.number, model.StatusFailure, "")
		n.log.Warn("admin notification failed", zap.Error(err))
		return
	}
	n.audit.Append(ctx, fmt.Sprintf("[SUCCESS] admin notification to %s delivered", n.number), n.number, model.StatusSuccess, "")
}
