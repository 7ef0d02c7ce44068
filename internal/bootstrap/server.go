package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	httpin "github.com/fnyamweya/caricash-nova-sub001/internal/adapters/http/in"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mhttp"
	"github.com/fnyamweya/caricash-nova-sub001/internal/adapters/postgres/account"
	"github.com/fnyamweya/caricash-nova-sub001/internal/adapters/postgres/balance"
	"github.com/fnyamweya/caricash-nova-sub001/internal/adapters/postgres/feematrix"
	"github.com/fnyamweya/caricash-nova-sub001/internal/adapters/postgres/idempotency"
	"github.com/fnyamweya/caricash-nova-sub001/internal/adapters/postgres/journal"
	"github.com/fnyamweya/caricash-nova-sub001/internal/adapters/postgres/outbox"
	"github.com/fnyamweya/caricash-nova-sub001/internal/adapters/postgres/period"
	"github.com/fnyamweya/caricash-nova-sub001/internal/adapters/postgres/policy"
	"github.com/fnyamweya/caricash-nova-sub001/internal/adapters/postgres/request"
	"github.com/fnyamweya/caricash-nova-sub001/internal/services/command"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mlog"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mpostgres"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mrabbitmq"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mredis"
)

// Server aggregates everything main needs to run and shut down the core.
type Server struct {
	App *fiber.App
	UC  *command.UseCase

	pg     *mpostgres.Connection
	redis  *mredis.Connection
	rabbit *mrabbitmq.Connection
	cfg    *Config
	logger mlog.Logger
}

// NewServer connects to Postgres/Redis/RabbitMQ, constructs the
// command.UseCase with every repository and handler wired in, and
// builds the fiber app with every §6 route registered.
func NewServer(cfg *Config, logger mlog.Logger) (*Server, error) {
	pg := &mpostgres.Connection{
		PrimaryDBName:  cfg.PostingDBName,
		PrimaryDSN:     cfg.PostingDBURL,
		ReplicaDSN:     cfg.PostingReplicaDSNs,
		MigrationsPath: cfg.MigrationsPath,
		Logger:         logger,
		Component:      "core",
	}

	db, err := pg.GetDB()
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}

	redisConn := &mredis.Connection{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Logger:   logger,
	}

	if _, err := redisConn.GetClient(context.Background()); err != nil {
		return nil, fmt.Errorf("bootstrap: connect redis: %w", err)
	}

	rabbit := &mrabbitmq.Connection{
		URI:      cfg.EventsQueueURL,
		Exchange: cfg.EventsExchange,
		Logger:   logger,
	}

	if _, err := rabbit.GetChannel(); err != nil {
		return nil, fmt.Errorf("bootstrap: connect rabbitmq: %w", err)
	}

	uc := &command.UseCase{
		DB:             db,
		AccountRepo:    &account.Repository{DB: db},
		BalanceRepo:    &balance.Repository{DB: db},
		JournalRepo:    &journal.Repository{DB: db},
		IdempotencyRepo: &idempotency.Repository{DB: db},
		PeriodRepo:     &period.Repository{DB: db},
		FeeMatrixRepo:  &feematrix.Repository{DB: db},
		OutboxRepo:     &outbox.Repository{DB: db},
		PolicyRepo:     &policy.Repository{DB: db},
		RequestRepo:    &request.Repository{DB: db},
		Broker:         rabbit,
		Handlers:       command.ApprovalHandlerRegistry{},
		Logger:         logger,
		Clock:          command.SystemClock,
		RetryLimit:     cfg.RetryLimit,
	}

	registerApprovalHandlers(uc)

	app := fiber.New(fiber.Config{
		ErrorHandler: mhttp.WithError,
	})

	httpin.Routes(app, uc, cfg.Version)

	return &Server{
		App:    app,
		UC:     uc,
		pg:     pg,
		redis:  redisConn,
		rabbit: rabbit,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// registerApprovalHandlers wires the concrete business operations each
// approval type authorizes into the registry, breaking the circular
// dependency between approval requests/policies and the operations they
// gate, per command.ApprovalHandlerRegistry's design.
func registerApprovalHandlers(uc *command.UseCase) {
	posting := &command.PostingService{UC: uc}

	uc.Handlers.Register("REVERSAL", &command.ReversalHandler{Posting: posting})
	uc.Handlers.Register("OVERDRAFT_ACTIVATION", &command.OverdraftActivationHandler{UC: uc})
	uc.Handlers.Register("PAYOUT_RELEASE", &command.PayoutReleaseHandler{Posting: posting})
	uc.Handlers.Register("FEE_MATRIX_ACTIVATION", &command.FeeMatrixActivationHandler{UC: uc})
	uc.Handlers.Register("FLOAT_TOP_UP", &command.FloatMovementHandler{Posting: posting})
	uc.Handlers.Register("FLOAT_WITHDRAWAL", &command.FloatMovementHandler{Posting: posting})
}

// RunSweeper starts the approval expiry/escalation sweeper loop, scanning
// on cfg.SweeperIntervalSeconds until ctx is canceled.
func (s *Server) RunSweeper(ctx context.Context) {
	sweep := &command.SweepService{UC: s.UC}
	interval := time.Duration(s.cfg.SweeperIntervalSeconds) * time.Second

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := sweep.Sweep(ctx)
			if err != nil {
				s.logger.Errorf("approval sweeper: %v", err)
				continue
			}

			if result.Expired > 0 || result.Escalated > 0 {
				s.logger.Infof("approval sweeper: scanned=%d expired=%d escalated=%d",
					result.Scanned, result.Expired, result.Escalated)
			}
		}
	}
}

// RunPublisher starts the C7 outbox publisher's drain loop, scanning on
// cfg.OutboxIntervalSeconds until ctx is canceled.
func (s *Server) RunPublisher(ctx context.Context) {
	publisher := &command.PublisherService{UC: s.UC}
	interval := time.Duration(s.cfg.OutboxIntervalSeconds) * time.Second

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := publisher.Publish(ctx, s.cfg.OutboxBatchSize)
			if err != nil {
				s.logger.Errorf("outbox publisher: %v", err)
			}

			if result.Published > 0 {
				s.logger.Infof("outbox publisher: drained=%d published=%d", result.Drained, result.Published)
			}
		}
	}
}

// Shutdown gracefully stops the fiber app and tears down the broker
// connection.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.App.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("bootstrap: shutdown fiber: %w", err)
	}

	return s.rabbit.Close()
}
