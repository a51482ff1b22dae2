package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"wheres-my-tab/internal/settlement/api/http/handle"
	"wheres-my-tab/internal/settlement/app/core"
	"wheres-my-tab/internal/settlement/app/services"
	"wheres-my-tab/internal/settlement/domain/models"
	"wheres-my-tab/internal/xpkg/config"
	"wheres-my-tab/internal/xpkg/logger"

	brokermessage "wheres-my-tab/internal/settlement/adapter/broker_message"
	database "wheres-my-tab/internal/settlement/adapter/db"
	"wheres-my-tab/internal/settlement/adapter/memory"
	"wheres-my-tab/internal/settlement/adapter/settings"
	xdb "wheres-my-tab/internal/xpkg/db"

	"github.com/redis/go-redis/v9"
)

var ErrServerClosed = errors.New("Server closed")

const memoryTables = 12

type Server struct {
	mux      *http.ServeMux
	cfg      *config.Config
	srv      *http.Server
	params   *core.SettlementParams
	mylog    logger.Logger
	store    core.IStore
	settings core.ISettings
	mb       core.IEventBus
	rdb      *redis.Client
	ctx      context.Context
	appCtx   context.Context
	mu       sync.Mutex
}

func NewServer(ctx, appCtx context.Context, cfg *config.Config, params *core.SettlementParams, mylog logger.Logger) *Server {
	return &Server{
		ctx:    ctx,
		appCtx: appCtx,
		cfg:    cfg,
		params: params,
		mylog:  mylog,
		mux:    http.NewServeMux(),
	}
}

// Run wires the store, settings and event bus, then serves until ctx ends.
func (s *Server) Run() error {
	mylog := s.mylog.Action("server_started")

	if err := s.initializeStore(); err != nil {
		mylog.Action("db_connection_failed").Error("Failed to initialize store", err)
		return err
	}
	mylog.Action("db_connected").Info("Store is ready", "store", s.params.Store)

	if err := s.initializeSettings(); err != nil {
		mylog.Action("settings_failed").Error("Failed to initialize settings", err)
		return err
	}

	if err := s.initializeRabbitMQ(); err != nil {
		mylog.Action("mb_connection_failed").Error("Failed to connect to message broker", err)
		return err
	}

	s.Configure()

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.params.Port),
		Handler:           handle.Logging(s.mylog, s.mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Unlock()

	mylog.WithGroup("details").With("port", s.params.Port, "store", s.params.Store).Info("server is running")
	return s.startHTTPServer()
}

// Stop shuts the listener down, then releases the bus, cache and store.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mylog.Action("graceful_shutdown_started").Info("Shutting down HTTP server...")

	if s.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, core.WaitTime*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.mylog.Action("graceful_shutdown_failed").Error("Failed to shut down HTTP server gracefully", err)
			return fmt.Errorf("http server shutdown: %w", err)
		}
	}

	if s.mb != nil {
		if err := s.mb.Close(); err != nil {
			s.mylog.Action("mb_close_failed").Error("Failed to close message broker", err)
			return fmt.Errorf("mb close: %w", err)
		}
		s.mylog.Action("mb_closed").Info("Message broker closed")
	}

	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			s.mylog.Action("redis_close_failed").Error("Failed to close redis", err)
		}
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.mylog.Action("db_close_failed").Error("Failed to close database", err)
			return fmt.Errorf("db close: %w", err)
		}
		s.mylog.Action("db_closed").Info("Database closed")
	}

	s.mylog.Action("graceful_shutdown_completed").Info("HTTP server shut down gracefully")
	return nil
}

func (s *Server) startHTTPServer() error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-s.ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) initializeStore() error {
	if s.params.Store == core.StoreMemory {
		s.setStore(memory.New(memory.DiningRoom(memoryTables)...))
		return nil
	}

	conn, err := xdb.Start(s.appCtx, s.cfg.DB, s.mylog)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrDBConn, err)
	}
	store := database.NewStore(conn.Pool(), s.mylog)
	if err := store.Migrate(s.appCtx); err != nil {
		conn.Close()
		return err
	}
	s.setStore(store)
	return nil
}

// Fields Stop reads are written under s.mu.
func (s *Server) setStore(store core.IStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = store
}

// initializeSettings layers the cover price sources: config, then the
// settings table, then the Redis cache.
func (s *Server) initializeSettings() error {
	static, err := settings.NewStatic(s.cfg.Settlement.CoverUnitPrice)
	if err != nil {
		return err
	}

	var provider core.ISettings = static
	if store, ok := s.store.(*database.Store); ok {
		provider = settings.NewPostgres(store.Pool(), static)
	}

	rdb, err := settings.Connect(s.appCtx, s.cfg.Redis.Addr, s.cfg.Redis.Password, s.cfg.Redis.DB, s.mylog)
	if err != nil {
		s.mylog.Action("redis_connection_failed").Warn("Settings cache disabled", "error", err.Error())
	}
	if rdb != nil {
		s.mu.Lock()
		s.rdb = rdb
		s.mu.Unlock()
		ttl := time.Duration(s.cfg.Settlement.SettingsCacheTTLSeconds) * time.Second
		provider = settings.NewCache(provider, rdb, ttl, s.mylog)
	}

	s.mu.Lock()
	s.settings = provider
	s.mu.Unlock()
	return nil
}

func (s *Server) initializeRabbitMQ() error {
	if !s.cfg.BrokerEnabled() {
		s.mylog.Action("mb_disabled").Warn("RabbitMQ is not configured, refresh events go to the log")
		s.setBus(brokermessage.NewLogBus(s.mylog))
		return nil
	}

	mb, err := brokermessage.New(s.appCtx, s.cfg.RMQ, s.mylog)
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	s.mylog.Action("mb_connected").Info("Successful message broker connection")
	s.setBus(mb)
	return nil
}

func (s *Server) setBus(mb core.IEventBus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mb = mb
}

func (s *Server) options() services.Options {
	return services.Options{
		CoverLabel:          s.cfg.Settlement.CoverLabel,
		PartialPaymentLabel: s.cfg.Settlement.PartialPaymentLabel,
		Shop: models.ShopInfo{
			Name:      s.cfg.Shop.Name,
			Address:   s.cfg.Shop.Address,
			Phone:     s.cfg.Shop.Phone,
			VATNumber: s.cfg.Shop.VATNumber,
		},
	}
}

// Configure builds the services and registers the routes.
func (s *Server) Configure() {
	opts := s.options()

	sessionService := services.NewSessionService(s.store, s.settings, s.mb, s.mylog, opts)
	paymentService := services.NewPaymentService(s.store, s.settings, s.mb, s.mylog, opts)
	orderService := services.NewOrderService(s.store, s.settings, s.mb, s.mylog, opts)

	Register(s.mux, s.store, sessionService, paymentService, orderService, s.mylog)
}

// Register mounts every settlement route on mux.
func Register(
	mux *http.ServeMux,
	store core.IStore,
	sessionService *services.SessionService,
	paymentService *services.PaymentService,
	orderService *services.OrderService,
	mylog logger.Logger,
) {
	sessionHandler := handle.NewSessionHandler(sessionService, mylog)
	paymentHandler := handle.NewPaymentHandler(paymentService, mylog)
	orderHandler := handle.NewOrderHandler(orderService, mylog)

	mux.Handle("GET /health", handle.Health(store))
	mux.Handle("GET /tables", sessionHandler.Tables())

	mux.Handle("POST /tables/{table_id}/sessions", sessionHandler.Open())
	mux.Handle("GET /sessions", sessionHandler.List())
	mux.Handle("GET /sessions/{id}", sessionHandler.Get())
	mux.Handle("GET /sessions/{id}/history", sessionHandler.History())
	mux.Handle("PUT /sessions/{id}/cover", sessionHandler.SetCover())
	mux.Handle("POST /sessions/{id}/close", sessionHandler.Close())
	mux.Handle("POST /sessions/{id}/transfer", sessionHandler.Transfer())
	mux.Handle("PUT /sessions/{id}/total", sessionHandler.OverrideTotal())
	mux.Handle("DELETE /sessions/{id}", sessionHandler.Delete())

	mux.Handle("POST /sessions/{id}/orders", orderHandler.Create())
	mux.Handle("POST /orders/{order_id}/items", orderHandler.AddItem())
	mux.Handle("PATCH /items/{item_id}", orderHandler.UpdateItem())
	mux.Handle("DELETE /items/{item_id}", orderHandler.RemoveItem())

	mux.Handle("GET /sessions/{id}/payments", paymentHandler.List())
	mux.Handle("POST /sessions/{id}/payments", paymentHandler.Add())
	mux.Handle("POST /sessions/{id}/split/candidate", paymentHandler.Candidate())
	mux.Handle("GET /payments/{id}/receipt", paymentHandler.Receipt())
}
