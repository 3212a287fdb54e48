package callback_log

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/bizpay/internal/models"
	"github.com/fatflowers/bizpay/pkg/logctx"
	"github.com/fatflowers/bizpay/pkg/tool"
)

type saveJob struct {
	ctx context.Context
	row models.PaymentCallbackLog
}

// Service writes callback logs off the request path. A single worker keeps
// writes in submission order, so a "handled" row never loses to the earlier
// "received" write of the same ID.
type Service struct {
	db    *gorm.DB
	log   *zap.SugaredLogger
	queue chan saveJob
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service {
	s := &Service{db: db, log: log, queue: make(chan saveJob, 1024)}
	go s.run()
	return s
}

func (s *Service) run() {
	for job := range s.queue {
		if err := s.db.WithContext(job.ctx).Save(&job.row).Error; err != nil {
			logctx.FromCtx(job.ctx, s.log).Errorw("failed to save callback log", "id", job.row.ID, "status", job.row.Status, "err", err)
		}
		s.wg.Done()
	}
}

// Save asynchronously persists a callback log row. Nil input is ignored.
// Rows are keyed by ID, so saving the same log twice updates it in place.
func (s *Service) Save(ctx context.Context, log *models.PaymentCallbackLog) {
	if log == nil {
		return
	}
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	// Stamped here because the worker writes a copy; a later Save of the same
	// log must carry the original creation time into the full-row update.
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		logctx.FromCtx(ctx, s.log).Warnw("callback log dropped after close", "id", log.ID)
		return
	}
	s.wg.Add(1)
	// The row is copied so the caller may keep mutating log for the next stage.
	s.queue <- saveJob{ctx: context.WithoutCancel(ctx), row: *log}
}

// Wait blocks until every queued Save has been written.
func (s *Service) Wait() { s.wg.Wait() }

// Close drains the queue and stops the worker.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.Wait()
	close(s.queue)
}

// ListByOrderID returns the callback history of one order, oldest first.
func (s *Service) ListByOrderID(ctx context.Context, orderID string) ([]*models.PaymentCallbackLog, error) {
	var rows []*models.PaymentCallbackLog
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func registerFlush(lc fx.Lifecycle, s *Service) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			s.Close()
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(registerFlush),
)
