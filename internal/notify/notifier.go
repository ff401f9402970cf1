package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lubeworks/drumplan/internal/entity"
)

// Redis channels for planning events. Consumers (dashboards, the finance
// approval UI) subscribe out-of-band; publishing is fire-and-forget.
const (
	ChannelShortage   = "drumplan:shortage_detected"
	ChannelPOApproved = "drumplan:po_approved"
)

// ShortageEvent is the payload published when a shortage pass finds items
// below requirement.
type ShortageEvent struct {
	Items      int       `json:"items"`
	WorstSKU   string    `json:"worst_sku"`
	WorstQty   float64   `json:"worst_qty"`
	DetectedAt time.Time `json:"detected_at"`
}

// POEvent is the payload published when a purchase order is approved.
type POEvent struct {
	POID       string `json:"po_id"`
	PONumber   string `json:"po_number"`
	SupplierID string `json:"supplier_id"`
}

// Notifier queues email outbox rows and publishes redis events. Every
// method is fire-and-forget: failures are logged, never returned to the
// calling flow.
type Notifier struct {
	db     *gorm.DB
	rdb    *redis.Client
	logger *zap.Logger
}

// NewNotifier builds a notifier. rdb may be nil; events are then outbox-only.
func NewNotifier(db *gorm.DB, rdb *redis.Client, logger *zap.Logger) *Notifier {
	return &Notifier{db: db, rdb: rdb, logger: logger}
}

// ShortageDetected queues the planner alert email and publishes the
// shortage event. Called at the end of a shortage report pass; the pass
// itself stays side-effect-free, so this runs after the records are
// computed.
func (n *Notifier) ShortageDetected(ctx context.Context, items int, worstSKU string, worstQty float64) {
	mail := &entity.EmailOutbox{
		ID:      uuid.New().String(),
		To:      "planning@lubeworks.local",
		Subject: fmt.Sprintf("Material shortage: %d items below requirement", items),
		Body:    fmt.Sprintf("Worst item %s is short %.4f. Review the shortage report and raise purchase orders.", worstSKU, worstQty),
		RefType: "SHORTAGE",
		RefID:   worstSKU,
		Status:  entity.EmailStatusQueued,
	}
	if err := n.db.Create(mail).Error; err != nil {
		n.logger.Error("failed to queue shortage email", zap.Error(err))
	}
	n.publish(ctx, ChannelShortage, ShortageEvent{
		Items:      items,
		WorstSKU:   worstSKU,
		WorstQty:   worstQty,
		DetectedAt: time.Now().UTC(),
	})
}

// POApproved queues the supplier email and publishes the approval event.
func (n *Notifier) POApproved(ctx context.Context, po *entity.PurchaseOrder, supplierEmail string) {
	if supplierEmail != "" {
		mail := &entity.EmailOutbox{
			ID:      uuid.New().String(),
			To:      supplierEmail,
			Subject: fmt.Sprintf("Purchase Order %s", po.PONumber),
			Body:    fmt.Sprintf("PO %s approved. Total %s %s across %d lines.", po.PONumber, po.TotalAmount.StringFixed(2), po.Currency, len(po.Lines)),
			RefType: "PO",
			RefID:   po.ID,
			Status:  entity.EmailStatusQueued,
		}
		if err := n.db.Create(mail).Error; err != nil {
			n.logger.Error("failed to queue PO email", zap.String("po", po.PONumber), zap.Error(err))
		}
	}
	n.publish(ctx, ChannelPOApproved, POEvent{POID: po.ID, PONumber: po.PONumber, SupplierID: po.SupplierID})
}

func (n *Notifier) publish(ctx context.Context, channel string, payload interface{}) {
	if n.rdb == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("failed to marshal event", zap.String("channel", channel), zap.Error(err))
		return
	}
	if err := n.rdb.Publish(ctx, channel, data).Err(); err != nil {
		n.logger.Warn("failed to publish event", zap.String("channel", channel), zap.Error(err))
	}
}

// Sender delivers one queued email. The SMTP implementation lives outside
// this core; tests use a fake.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender returns a Sender that only records the send in the log. It
// stands in until an SMTP relay is configured.
func LogSender(logger *zap.Logger) Sender {
	return logSender{logger: logger}
}

type logSender struct{ logger *zap.Logger }

func (s logSender) Send(_ context.Context, to, subject, _ string) error {
	s.logger.Info("email dispatched", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// Dispatcher drains the email outbox in the background.
type Dispatcher struct {
	db       *gorm.DB
	sender   Sender
	logger   *zap.Logger
	interval time.Duration
}

func NewDispatcher(db *gorm.DB, sender Sender, logger *zap.Logger, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Dispatcher{db: db, sender: sender, logger: logger, interval: interval}
}

// Run polls for QUEUED rows until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.DrainOnce(ctx); err != nil {
				d.logger.Error("outbox drain failed", zap.Error(err))
			}
		}
	}
}

// DrainOnce sends every currently queued email. Each row is marked SENT or
// FAILED individually; one bad address does not stall the rest.
func (d *Dispatcher) DrainOnce(ctx context.Context) error {
	var queued []entity.EmailOutbox
	if err := d.db.Where("status = ?", entity.EmailStatusQueued).
		Order("created_at").Limit(100).Find(&queued).Error; err != nil {
		return err
	}
	for i := range queued {
		mail := &queued[i]
		err := d.sender.Send(ctx, mail.To, mail.Subject, mail.Body)
		now := time.Now()
		if err != nil {
			mail.Status = entity.EmailStatusFailed
			mail.ErrorMessage = err.Error()
			d.logger.Warn("email send failed", zap.String("to", mail.To), zap.Error(err))
		} else {
			mail.Status = entity.EmailStatusSent
			mail.SentAt = &now
		}
		if err := d.db.Save(mail).Error; err != nil {
			return err
		}
	}
	return nil
}
