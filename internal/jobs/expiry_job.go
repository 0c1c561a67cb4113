// Package jobs содержит фоновые задачи по расписанию.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultExpirySchedule — расписание проверки сроков годности по умолчанию.
const DefaultExpirySchedule = "@hourly"

const runTimeout = time.Minute

// CropExpirer переводит просроченные партии в статус expired.
type CropExpirer interface {
	ExpireCrops(ctx context.Context) ([]int64, error)
}

// CropExpiryJob периодически помечает партии с истёкшим сроком годности.
type CropExpiryJob struct {
	expirer CropExpirer
	cron    *cron.Cron
	logger  *zap.Logger
}

// NewCropExpiryJob создаёт задачу проверки сроков годности.
func NewCropExpiryJob(expirer CropExpirer, logger *zap.Logger) *CropExpiryJob {
	return &CropExpiryJob{
		expirer: expirer,
		cron:    cron.New(),
		logger:  logger.With(zap.String("component", "crop_expiry_job")),
	}
}

// Start запускает задачу по cron-расписанию spec.
func (j *CropExpiryJob) Start(spec string) error {
	if spec == "" {
		spec = DefaultExpirySchedule
	}

	if _, err := j.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		j.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("schedule crop expiry %q: %w", spec, err)
	}

	j.cron.Start()
	j.logger.Info("crop expiry job started", zap.String("schedule", spec))
	return nil
}

// RunOnce выполняет одну проверку сроков годности.
func (j *CropExpiryJob) RunOnce(ctx context.Context) {
	ids, err := j.expirer.ExpireCrops(ctx)
	if err != nil {
		j.logger.Error("crop expiry failed", zap.Error(err))
		return
	}
	if len(ids) > 0 {
		j.logger.Info("crops expired", zap.Int64s("crop_ids", ids))
	}
}

// Stop останавливает расписание и дожидается завершения текущего запуска.
func (j *CropExpiryJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("crop expiry job stopped")
}
