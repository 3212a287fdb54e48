package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/bizpay/internal/app/api/server"
	"github.com/fatflowers/bizpay/internal/app/service/callback_log"
	"github.com/fatflowers/bizpay/internal/app/service/click"
	"github.com/fatflowers/bizpay/internal/app/service/events"
	"github.com/fatflowers/bizpay/internal/app/service/ledger"
	"github.com/fatflowers/bizpay/internal/app/service/payment"
	"github.com/fatflowers/bizpay/internal/platform/db"
	"github.com/fatflowers/bizpay/pkg/config"
	"github.com/fatflowers/bizpay/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	ledger.Module,
	callback_log.Module,
	events.Module,
	click.Module,
	payment.Module,
	server.Module,
)
