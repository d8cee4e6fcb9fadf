package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/creator-surge/backend/internal/analysis/category"
	"github.com/zhouzirui/creator-surge/backend/internal/config"
	"github.com/zhouzirui/creator-surge/backend/internal/events"
	"github.com/zhouzirui/creator-surge/backend/internal/handler"
	"github.com/zhouzirui/creator-surge/backend/internal/service/ai"
	"github.com/zhouzirui/creator-surge/backend/internal/service/chat"
	"github.com/zhouzirui/creator-surge/backend/internal/service/devforge"
	"github.com/zhouzirui/creator-surge/backend/internal/store"
	"github.com/zhouzirui/creator-surge/backend/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	if envErr != nil {
		log.Warn("no .env file loaded, using process environment only", zap.Error(envErr))
	}

	st, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		log.Fatal("failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer st.Close()

	publisher := openPublisher(ctx, cfg.Events, log)
	defer publisher.Close()

	chatDispatcher := ai.NewDispatcher(newCompleter(ctx, cfg.AI, cfg.AI.ChatModelName(), log), cfg.AI.Timeout, log.Named("chat-agent"))
	codeDispatcher := ai.NewDispatcher(newCompleter(ctx, cfg.AI, cfg.AI.CodeModelName(), log), cfg.AI.Timeout, log.Named("code-agent"))

	classifier := category.Standard()
	if cfg.Chat.AppBuilderEnabled {
		classifier = category.Extended()
	}

	chatSvc := chat.NewService(st, chatDispatcher,
		chat.WithClassifier(classifier),
		chat.WithPublisher(publisher),
		chat.WithLogger(log.Named("chat")),
		chat.WithHistoryLimit(cfg.Chat.HistoryLimit),
		chat.WithStreaming(cfg.AI.StreamResponse),
	)

	projectSvc := devforge.NewService(st, codeDispatcher,
		devforge.WithPublisher(publisher),
		devforge.WithLogger(log.Named("devforge")),
		devforge.WithHistoryLimit(cfg.Chat.CodeHistoryLimit),
		devforge.WithDeployDomain(cfg.Chat.DeployDomain),
	)
	if err := projectSvc.EnsureWelcomeProject(ctx); err != nil {
		log.Warn("failed to seed welcome project", zap.Error(err))
	}

	router := handler.NewRouter(handler.Dependencies{
		Chat:        chatSvc,
		Projects:    projectSvc,
		Store:       st,
		AIAvailable: chatDispatcher.Available(),
		Logger:      log.Named("http"),
	})

	startServer(ctx, cfg.Server, router, log)
}

func openStore(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx, pg.Pool(), log.Named("migrate")); err != nil {
			pg.Close()
			return nil, err
		}
		log.Info("using postgres store")
		return pg, nil
	default:
		log.Info("using in-memory store; data is lost on restart")
		return store.NewMemoryStore(), nil
	}
}

func openPublisher(ctx context.Context, cfg config.EventsConfig, log *zap.Logger) events.Publisher {
	if !cfg.Enabled() {
		log.Info("event publishing disabled")
		return events.Noop{}
	}
	pub, err := events.NewNATSPublisher(ctx, cfg.NatsURL, cfg.NatsToken, cfg.SubjectPrefix, log.Named("nats"))
	if err != nil {
		log.Warn("failed to connect to nats, continuing without events", zap.Error(err))
		return events.Noop{}
	}
	log.Info("publishing events", zap.String("url", cfg.NatsURL), zap.String("prefix", cfg.SubjectPrefix))
	return pub
}

// newCompleter returns nil when the provider is not configured; the dispatcher
// then answers every request with an apology.
func newCompleter(ctx context.Context, cfg config.AIConfig, modelName string, log *zap.Logger) ai.Completer {
	completer, err := ai.NewCompleter(ctx, cfg, modelName)
	if err != nil {
		if errors.Is(err, ai.ErrCompleterUnavailable) {
			log.Warn("model provider not configured, replies will be apologies", zap.String("provider", cfg.Provider))
		} else {
			log.Error("failed to initialize model provider", zap.String("provider", cfg.Provider), zap.Error(err))
		}
		return nil
	}
	log.Info("model provider ready", zap.String("provider", cfg.Provider), zap.String("model", modelName))
	return completer
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, log *zap.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info("creator surge backend listening", zap.String("addr", serverCfg.Addr))
	if err := runServer(ctx, srv); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
