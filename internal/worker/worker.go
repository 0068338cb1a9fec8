package worker

import (
	"context"
	"log"

	"go.uber.org/zap"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/store"
	"storefront/internal/util"
)

// NotificationWorker consumes order and inventory events and delivers
// email. The consumer commits offsets only after a successful send, so
// a failed delivery is redelivered instead of dropped. processed_events
// keeps redeliveries from producing duplicate email.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	mailer       *notify.Mailer
	adminEmails  []string
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(
	consumer *broker.Consumer,
	store *store.Store,
	mailer *notify.Mailer,
	adminEmails []string,
) *NotificationWorker {
	w := &NotificationWorker{
		consumer:    consumer,
		store:       store,
		mailer:      mailer,
		adminEmails: adminEmails,
		logger:      util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderCreated(w.handleOrderCreated)
	eventHandler.OnOrderPaid(w.handleOrderPaid)
	eventHandler.OnOrderCancelled(w.handleOrderCancelled)
	eventHandler.OnOrderStatusChanged(w.handleOrderStatusChanged)
	eventHandler.OnLowStockAlert(w.handleLowStockAlert)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	log.Println("Starting notification worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	log.Println("Stopping notification worker...")
	return w.consumer.Close()
}

func (w *NotificationWorker) handleOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	subject, body := notify.OrderConfirmationBody(event)
	return w.deliver(ctx, event.EventID, event.EventType, "order_confirmation",
		[]string{event.UserEmail}, subject, body)
}

func (w *NotificationWorker) handleOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	subject, body := notify.PaymentReceivedBody(event)
	return w.deliver(ctx, event.EventID, event.EventType, "payment_received",
		[]string{event.UserEmail}, subject, body)
}

func (w *NotificationWorker) handleOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	subject, body := notify.CancellationBody(event)
	return w.deliver(ctx, event.EventID, event.EventType, "order_cancelled",
		[]string{event.UserEmail}, subject, body)
}

func (w *NotificationWorker) handleOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	subject, body := notify.StatusUpdateBody(event)
	return w.deliver(ctx, event.EventID, event.EventType, "status_update",
		[]string{event.UserEmail}, subject, body)
}

func (w *NotificationWorker) handleLowStockAlert(ctx context.Context, event *models.LowStockAlertEvent) error {
	if len(w.adminEmails) == 0 {
		w.logger.Warn("Low-stock alert received but no admin emails configured")
		return nil
	}
	subject, body := notify.LowStockBody(event)
	return w.deliver(ctx, event.EventID, event.EventType, "low_stock_alert",
		w.adminEmails, subject, body)
}

// deliver sends one email exactly once per event id
func (w *NotificationWorker) deliver(ctx context.Context, eventID, eventType, kind string, to []string, subject, body string) error {
	processed, err := w.store.IsEventProcessed(ctx, eventID)
	if err != nil {
		return err
	}
	if processed {
		w.logger.Info("Notification already delivered", zap.String("event_id", eventID))
		return nil
	}

	if err := w.mailer.Send(ctx, to, subject, body); err != nil {
		util.EmailsSentTotal.WithLabelValues(kind, "error").Inc()
		w.logger.Error("Email delivery failed, will retry",
			zap.String("event_id", eventID),
			zap.String("kind", kind),
			zap.Error(err))
		return err
	}

	util.EmailsSentTotal.WithLabelValues(kind, "ok").Inc()
	if err := w.store.MarkEventProcessed(ctx, eventID, eventType); err != nil {
		w.logger.Error("Failed to mark notification processed", zap.Error(err))
	}

	w.logger.Info("Notification delivered",
		zap.String("event_id", eventID),
		zap.String("kind", kind))
	return nil
}
