package service

import (
	"context"
	"time"

	"github.com/mmeshcher/agrosurplus/internal/model"
	"go.uber.org/zap"
)

// transactionStatusWriter — часть хранилища, нужная синхронизатору.
type transactionStatusWriter interface {
	UpdateTransactionDeliveryStatus(ctx context.Context, id int64, status model.DeliveryStatus) (*model.Transaction, error)
}

// DeliverySynchronizer переносит завершённую доставку в статус транзакции.
// Ошибки не возвращаются вызывающему: они логируются и попадают в SyncOutcome.
type DeliverySynchronizer struct {
	repo    transactionStatusWriter
	bus     Publisher
	logger  *zap.Logger
	timeout time.Duration
}

// NewDeliverySynchronizer создаёт синхронизатор.
func NewDeliverySynchronizer(repo transactionStatusWriter, bus Publisher, logger *zap.Logger) *DeliverySynchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DeliverySynchronizer{
		repo:    repo,
		bus:     bus,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// Sync помечает транзакцию доставленной и публикует transaction.delivery_status.
func (d *DeliverySynchronizer) Sync(ctx context.Context, transactionID int64) *model.SyncOutcome {
	outcome := &model.SyncOutcome{TransactionID: transactionID}

	// Синхронизация не должна обрываться вместе с запросом клиента.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	t, err := d.repo.UpdateTransactionDeliveryStatus(ctx, transactionID, model.DeliveryDelivered)
	if err != nil {
		d.logger.Warn("failed to sync transaction delivery status",
			zap.Int64("transaction_id", transactionID),
			zap.Error(err),
		)
		outcome.Err = err
		outcome.Error = "transaction delivery status was not updated"
		return outcome
	}

	outcome.Synced = true
	if d.bus != nil {
		d.bus.Publish(model.EventTransactionDeliveryStatus, model.DeliveryStatusChanged{
			TransactionID: t.ID,
			Status:        t.DeliveryStatus,
		})
	}
	return outcome
}
