package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"eventgo/auth"
	"eventgo/config"
	"eventgo/db"
	"eventgo/events"
	"eventgo/globals"
	"eventgo/livefeed"
	"eventgo/metrics"
	"eventgo/middleware"
	"eventgo/mq"
	"eventgo/profile"
	"eventgo/ratelim"
	"eventgo/rdx"
	"eventgo/routes"
	"eventgo/tickets"
	"eventgo/utils"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		// HSTS (must be on HTTPS)
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware tags each request with an id and logs method, path,
// remote address and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = utils.GetUUID()
		}
		w.Header().Set("X-Request-ID", reqID)
		r = r.WithContext(context.WithValue(r.Context(), globals.RequestIDKey, reqID))

		next.ServeHTTP(w, r)
		log.Printf("[%s] %s %s from %s - %v", reqID, r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

func openStore(ctx context.Context, cfg *config.Config) (db.Store, error) {
	if !cfg.Demo {
		return db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	}
	log.Println("Using the in-memory demo store")
	store := db.NewMemory()
	data, err := db.LoadSeed(cfg.SeedFile)
	if err != nil {
		return nil, err
	}
	if err := db.Seed(ctx, store, data, time.Now()); err != nil {
		return nil, err
	}
	return store, nil
}

func openCache(ctx context.Context, cfg *config.Config) *rdx.Client {
	if cfg.RedisURL == "" {
		log.Println("REDIS_URL not set; caching, token revocation and pub/sub are disabled")
		return nil
	}
	cache, err := rdx.Connect(ctx, cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Printf("Redis unavailable, continuing without it: %v", err)
		return nil
	}
	return cache
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := openStore(bootCtx, cfg)
	if err != nil {
		cancelBoot()
		log.Fatalf("Failed to open store: %v", err)
	}
	cache := openCache(bootCtx, cfg)
	cancelBoot()

	var bus mq.Bus
	if cache.Enabled() {
		bus = mq.NewRedisBus(cache.Conn)
	} else {
		bus = mq.NewLocalBus(256)
	}

	var revoker middleware.Revoker
	var tokenRevoker auth.TokenRevoker
	if cache.Enabled() {
		revoker, tokenRevoker = cache, cache
	}
	tokens := middleware.NewAuth(cfg.JWTSecret, cfg.TokenTTL, revoker)

	eventSvc := events.NewService(store, cache, cfg.EventCacheTTL)
	ticketSvc := tickets.NewService(store, tickets.NewQRCodec(cfg.QRSecret), bus)

	hub := livefeed.NewHub()
	go hub.Run()
	bus.Subscribe(livefeed.Forward(hub, eventSvc))

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	go bus.Run(workerCtx)

	rateLimiter := ratelim.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	stopCleanup := make(chan struct{})
	go rateLimiter.RunCleanup(time.Minute, stopCleanup)

	router := httprouter.New()
	routes.RoutesWrapper(router, routes.Deps{
		Auth: &auth.Service{
			Users:        store,
			Tokens:       tokens,
			Revoker:      tokenRevoker,
			IsAdmin:      cfg.IsAdminEmail,
			SecureCookie: cfg.Production(),
		},
		Profile:     &profile.Service{Users: store, Tokens: tokens},
		Events:      eventSvc,
		Tickets:     ticketSvc,
		Hub:         hub,
		Tokens:      tokens,
		RateLimiter: rateLimiter,
	})

	// apply middleware: CORS → security headers → logging → metrics → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(metrics.Instrument(router))

	handler := loggingMiddleware(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Println("Shutting down live feed hub...")
		hub.Stop()
		stopWorkers()
		close(stopCleanup)
	})

	go func() {
		log.Printf("Server listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received; shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	if err := store.Close(ctx); err != nil {
		log.Printf("Failed to close store: %v", err)
	}
	if err := cache.Close(); err != nil {
		log.Printf("Failed to close Redis: %v", err)
	}

	log.Println("Server stopped cleanly")
}
