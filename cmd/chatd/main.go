package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"groupchat/auth"
	"groupchat/contract"
	"groupchat/dispatch"
	"groupchat/internal"
	"groupchat/moderation"
	"groupchat/providers"
	"groupchat/runtime"
	"groupchat/runtime/workers"
	"groupchat/services"
	"groupchat/transport/rest"
	"groupchat/transport/ws"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"golang.org/x/sync/errgroup"
)

// Exit codes for the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatd terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal or a server failure.
// Deferred cleanups (store, supervisor) run before main exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage
	store, err := internal.OpenStore(config.Store(), log)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		log.Info("Closing store...", "driver", config.StoreDriver)
		_ = store.Close()
	}()

	// 3. Presence starts from a clean slate, nobody is connected yet
	registry := runtime.NewSessionRegistry(log, store.Accounts)
	reset, err := registry.Reconcile()
	if err != nil {
		return exitRuntime, fmt.Errorf("presence reconcile failed: %w", err)
	}
	log.Info("Presence reconciled", "reset", reset)

	// 4. Command providers & router
	fetchers, err := newProviders(ctx, config)
	if err != nil {
		return exitConfig, err
	}
	denylist, err := moderation.NewKeywordMatcher(moderation.DenylistKeywords)
	if err != nil {
		return exitConfig, fmt.Errorf("denylist build failed: %w", err)
	}
	router := dispatch.NewRouter(log, store.History, fetchers, denylist,
		dispatch.WithProviderTimeout(config.ProviderTimeout),
		dispatch.WithMovieRedirector(config.MovieRedirector))

	// 5. Services
	hub := runtime.NewHub(log, config.SinkTimeout)
	issuer := auth.NewTokenIssuer(config.AuthSecret, config.AuthTokenDuration)
	hasher := auth.NewPasswordHasher(auth.Argon2Params{
		Memory:      config.Argon2Memory,
		Iterations:  config.Argon2Iterations,
		Parallelism: config.Argon2Parallelism,
	})
	authService := services.NewAuthService(log, store.Accounts, issuer, hasher)
	chatService := services.NewChatService(log, registry, hub, router, store.History)

	// 6. Background workers
	supervisor := workers.NewSupervisor(log, workers.DefaultMinBackoff, config.WorkerMaxBackoff)
	heartbeat := workers.NewHeartbeatWorker(log, hub, supervisor, config.HeartbeatInterval)
	supervisor.
		Add("heartbeat", heartbeat).
		Add("presence-sweeper", workers.NewSweeperWorker(log, registry, config.SweepInterval))

	// 7. HTTP & websocket
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(rest.CorsConfig(config.Origins())))

	socket := ws.NewServer(ctx, log, chatService, ws.Config{
		SendBufferSize:     config.SendBufferSize,
		MaxMessageSize:     config.MaxMessageSize,
		RateLimitPerSecond: config.RateLimitPerSecond,
		RateLimitBurst:     config.RateLimitBurst,
		AllowedOrigins:     config.Origins(),
	})
	var opts []rest.HandlerOption
	if config.SecureCookie {
		opts = append(opts, rest.WithSecureCookie())
	}
	handler := rest.NewHandler(authService, chatService, heartbeat, config.ServersFile, config.AuthTokenDuration, opts...)
	rest.SetupRouter(engine, handler, issuer, socket.ServeWS)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: engine}

	// 8. Run until a signal or a failure
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Starting HTTP server", "address", address, "store", config.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		supervisor.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		// Every websocket leaves the room while the store is still open
		return socket.Close(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return exitRuntime, err
	}
	log.Info("Program stopped cleanly")
	return exitOK, nil
}

// newProviders builds one fetcher per command. The AI fetcher stays nil
// when no backend is configured so the router answers with canned replies.
func newProviders(ctx context.Context, config internal.Config) (dispatch.Providers, error) {
	client := providers.NewHTTPClient(config.ProviderTimeout)

	movie, err := providers.NewMovieProvider(client, config.MovieURL)
	if err != nil {
		return dispatch.Providers{}, fmt.Errorf("movie provider: %w", err)
	}
	ai, err := newAIProvider(ctx, config, client)
	if err != nil {
		return dispatch.Providers{}, err
	}

	return dispatch.Providers{
		AI:      ai,
		Weather: providers.NewWeatherProvider(client, config.WeatherURL),
		Movie:   movie,
		Music:   providers.NewMusicProvider(client, config.MusicURL),
		News:    providers.NewNewsProvider(client, config.NewsURL, config.NewsAPIKey, config.NewsCountry),
	}, nil
}

func newAIProvider(ctx context.Context, config internal.Config, client *http.Client) (contract.Fetcher[string], error) {
	switch strings.ToLower(config.AIBackend) {
	case "":
		return nil, nil
	case "openai":
		return providers.NewOpenAIProvider(client, config.AIBaseURL, config.AIAPIKey, config.AIModel), nil
	case "gemini":
		gemini, err := providers.NewGeminiProvider(ctx, config.AIAPIKey, config.AIModel)
		if err != nil {
			return nil, fmt.Errorf("gemini provider: %w", err)
		}
		return gemini, nil
	default:
		return nil, fmt.Errorf("unknown AI_BACKEND %q", config.AIBackend)
	}
}
