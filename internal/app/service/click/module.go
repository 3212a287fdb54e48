package click

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/bizpay/internal/app/service/callback_log"
	"github.com/fatflowers/bizpay/internal/app/service/events"
	"github.com/fatflowers/bizpay/internal/app/service/ledger"
)

func provideService(l *ledger.Ledger, rec *callback_log.Service, pub events.Publisher, log *zap.SugaredLogger) *Service {
	return New(l, MD5Verifier{}, rec, pub, log)
}

// registerDrain waits for in-flight event publishes on shutdown. The hook is
// appended after the publisher's close hook, so it runs before it.
func registerDrain(lc fx.Lifecycle, s *Service, log *zap.SugaredLogger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := s.Drain(ctx); err != nil {
				log.Warnw("click_event_drain_timeout", "err", err)
				return err
			}
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(provideService),
	fx.Invoke(registerDrain),
)
