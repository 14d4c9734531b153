package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fastingFriendsAPI/handlers"
	"fastingFriendsAPI/internal/config"
	"fastingFriendsAPI/internal/notification"
	"fastingFriendsAPI/internal/store"
	firestorestore "fastingFriendsAPI/internal/store/firestore"
	"fastingFriendsAPI/internal/store/memory"
	"fastingFriendsAPI/internal/store/postgres"
	"fastingFriendsAPI/internal/workers"
	"fastingFriendsAPI/middleware"
	"fastingFriendsAPI/services"
	"fastingFriendsAPI/utils"

	_ "net/http/pprof"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if closer := utils.SetupLogging(cfg.LogFile); closer != nil {
		defer closer.Close()
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	needsFirebase := cfg.StoreBackend == config.StoreFirestore || cfg.AuthProvider == config.AuthFirebase
	app, err := utils.NewFirebaseApp(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsB64, cfg.FirebaseCredentialsFile)
	if err != nil {
		if needsFirebase {
			log.Fatal("Failed to initialize firebase: ", err)
		}
		log.Printf("Warning: Firebase disabled: %v", err)
	}

	st, ping, err := openStore(ctx, cfg, app)
	if err != nil {
		log.Fatal("Failed to open store: ", err)
	}
	defer func() {
		log.Println("Closing store...")
		st.Close()
	}()

	verifier, err := newVerifier(ctx, cfg, app)
	if err != nil {
		log.Fatal("Failed to initialize auth: ", err)
	}

	middleware.InitPrometheus(prometheus.DefaultRegisterer)
	services.InitMetrics(prometheus.DefaultRegisterer)

	dispatcher := services.NewNotificationDispatcher(cfg.NotificationWorkers, cfg.NotificationQueueSize)
	defer dispatcher.Stop()
	notificationService := services.NewNotificationService(st, dispatcher)
	if app != nil {
		if fcmService, err := notification.NewFCMService(ctx, app); err != nil {
			log.Printf("Warning: Could not initialize FCM: %v", err)
			notificationService.SetPushProvider(services.LogPushProvider{})
		} else {
			notificationService.SetPushProvider(fcmService)
			log.Println("FCM Push Provider initialized successfully")
		}
	} else {
		notificationService.SetPushProvider(services.LogPushProvider{})
	}

	userService := services.NewUserService(st, cfg.DefaultLocation)
	fastingService := services.NewFastingService(st, notificationService, cfg.DefaultLocation)
	challengeService := services.NewChallengeService(st, notificationService, cfg.BaseURL, cfg.DefaultLocation)
	friendService := services.NewFriendService(st, notificationService)
	weightService := services.NewWeightService(st)

	jobs := &workers.Group{}
	defer jobs.Stop()
	services.StartJobs(ctx, jobs, fastingService, challengeService, cfg.AutoEndInterval, cfg.ExpirySweepInterval)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	jobs.Every(ctx, "rate-limit-cleanup", time.Minute, limiter.Cleanup)

	set := &handlers.Set{
		Users:         handlers.NewUserHandler(userService),
		Fasts:         handlers.NewFastingHandler(fastingService),
		Challenges:    handlers.NewChallengeHandler(challengeService),
		Friends:       handlers.NewFriendHandler(friendService),
		Weights:       handlers.NewWeightHandler(weightService),
		Notifications: handlers.NewNotificationHandler(notificationService),
	}
	if cfg.ClerkWebhookSecret != "" {
		webhookHandler, err := handlers.NewWebhookHandler(userService, cfg.ClerkWebhookSecret)
		if err != nil {
			log.Fatal("Failed to initialize webhooks: ", err)
		}
		set.Webhooks = webhookHandler
	}
	liveHandler := handlers.NewLiveProgressHandler(ctx, challengeService, verifier, cfg.LiveRefreshInterval)

	r := mux.NewRouter()

	// websocket upgrades need the raw ResponseWriter, so the feed sits outside the monitored router
	r.HandleFunc("/api/v1/challenges/{id}/live", liveHandler.Stream)

	standardRouter := r.PathPrefix("/").Subrouter()
	standardRouter.Use(limiter.Middleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)(promhttp.Handler()))
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(cfg.PprofSecret)(http.DefaultServeMux))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "store unavailable"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "fasting-friends-api"}`))
	}).Methods("GET")

	set.Register(standardRouter, middleware.AuthMiddleware(verifier, userService))

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := ":" + cfg.Port
	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	stop()

	log.Println("Server shutdown complete")
}

// openStore picks the backend named by STORE_BACKEND. ping backs /health.
func openStore(ctx context.Context, cfg *config.Config, app *firebase.App) (store.Store, func(context.Context) error, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		pool, err := postgres.NewPool(connectCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pool.Ping(connectCtx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		if err := postgres.Migrate(connectCtx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Println("Successfully connected to Postgres")
		return postgres.New(pool), pool.Ping, nil

	case config.StoreFirestore:
		st, err := firestorestore.New(ctx, app)
		if err != nil {
			return nil, nil, err
		}
		log.Println("Successfully connected to Firestore")
		return st, func(context.Context) error { return nil }, nil

	default:
		log.Println("Using in-memory store; data is lost on restart")
		return memory.New(), func(context.Context) error { return nil }, nil
	}
}

func newVerifier(ctx context.Context, cfg *config.Config, app *firebase.App) (middleware.Verifier, error) {
	if cfg.AuthProvider == config.AuthClerk {
		clerk.SetKey(cfg.ClerkSecretKey)
		log.Println("Clerk initialized successfully")
		return middleware.ClerkVerifier{}, nil
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	log.Println("Firebase Auth initialized successfully")
	return middleware.NewFirebaseVerifier(client), nil
}
