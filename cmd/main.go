package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"contentieux/internal/aggregate"
	"contentieux/internal/clients"
	"contentieux/internal/config"
	"contentieux/internal/engine"
	"contentieux/internal/repository"
	"contentieux/internal/resolver"
	"contentieux/internal/service"
	"contentieux/internal/transport/auth"
	"contentieux/internal/transport/rest"
	"contentieux/internal/transport/websocket"
	"contentieux/pkg/database/postgres"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system env or defaults")
	}

	// top-level context which we can cancel on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := config.Load()

	db := mustInitPostgres(cfg.Postgres)
	defer postgres.Close(db)

	redisClient := mustInitRedis(cfg.Redis)
	defer redisClient.Close()

	storageClient, err := clients.NewLocalStorage(cfg.ReportDir, cfg.FilesPublicPrefix, cfg.ExternalURL)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}

	var s3Client *clients.S3Client
	if cfg.S3.Enabled {
		s3Client, err = clients.NewS3Client(ctx, clients.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Bucket:          cfg.S3.Bucket,
			UseSSL:          cfg.S3.UseSSL,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
		})
		if err != nil {
			log.Fatalf("s3 init error: %v", err)
		}
	}

	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)
	wsClient := clients.NewWebSocketClient(wsHub)

	paymentRepo := repository.NewPaymentRepository(db)
	caseRepo := repository.NewCaseRepository(db)
	specialRoleRepo := repository.NewSpecialRoleRepository(db)
	distributionRepo := repository.NewDistributionRepository(db)
	tokenRepo := repository.NewAccessTokenRepository(db)

	eng := mustInitEngine(cfg.Policy)
	beneficiaryResolver := resolver.New(caseRepo, specialRoleRepo)
	accumulator := aggregate.New(eng, beneficiaryResolver, caseRepo)

	distributionSvc := service.NewDistributionService(paymentRepo, caseRepo, beneficiaryResolver, eng, distributionRepo)
	reportSvc := service.NewReportService(paymentRepo, accumulator, redisClient, s3Client, storageClient, wsClient)

	tokenMiddleware := auth.TokenMiddleware(tokenRepo)

	handler := rest.NewHandler(reportSvc, distributionSvc, beneficiaryResolver)
	router := handler.InitRouterWithAuth(tokenMiddleware)

	// public root router with the protected router mounted underneath, so
	// /files stays reachable without a token
	root := chi.NewRouter()

	root.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	root.Get("/files/{file}", func(w http.ResponseWriter, r *http.Request) {
		file := chi.URLParam(r, "file")
		path := filepath.Join(storageClient.BaseDir, filepath.Base(file))
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "failed to access file", http.StatusInternalServerError)
			return
		}

		// prefer original filename in Content-Disposition (strip random prefix)
		orig := file
		if idx := strings.IndexByte(file, '_'); idx >= 0 {
			orig = file[idx+1:]
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", orig))

		http.ServeFile(w, r, path)
	})

	// protected websocket endpoint
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		agentID, err := auth.GetAgentID(r.Context())
		if err != nil {
			token := r.URL.Query().Get("token")
			if token != "" {
				t, err2 := tokenRepo.FindByPlainToken(r.Context(), token)
				if err2 != nil {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				if t.ExpiresAt != nil && t.ExpiresAt.Before(time.Now()) {
					http.Error(w, "Token expired", http.StatusUnauthorized)
					return
				}
				agentID = t.AgentID
			} else {
				// fallback for tests: allow ?agent_id=1
				agentIDStr := r.URL.Query().Get("agent_id")
				if agentIDStr == "" {
					http.Error(w, "agent_id required", http.StatusBadRequest)
					return
				}
				parsed, err2 := strconv.ParseInt(agentIDStr, 10, 64)
				if err2 != nil {
					http.Error(w, "invalid agent_id", http.StatusBadRequest)
					return
				}
				agentID = parsed
			}
		}

		log.Printf("WS connected: agent_id=%d", agentID)
		wsHub.HandleWebSocket(w, r, agentID)
	})

	root.Mount("/", router)

	corsHandler := withCORS(root)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on :%s\n", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			srvErr <- err
			return
		}
		srvErr <- nil
	}()

	// background cleaner: generated report files older than 30 minutes
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := storageClient.CleanupOlderThan(30 * time.Minute); err != nil {
					log.Printf("storage cleanup error: %v", err)
				}
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-srvErr:
		if err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	case sig := <-stop:
		log.Printf("Shutdown signal received: %v", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server Shutdown error: %v", err)
		}

		// cancel top-level context so background services (websocket hub) stop
		cancel()

		postgres.Close(db)
		redisClient.Close()

		log.Println("Shutdown complete")
	}
}

func mustInitPostgres(cfg config.PostgresConfig) *sql.DB {
	db, err := postgres.NewPostgresConnection(postgres.ConnectionInfo{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.User,
		DBName:   cfg.DBName,
		SSLMode:  cfg.SSLMode,
		Password: cfg.Password,
	})
	if err != nil {
		log.Fatalf("postgres init error: %v", err)
	}
	return db
}

func mustInitRedis(cfg config.RedisConfig) *clients.RedisClient {
	client, err := clients.NewRedisClient(clients.RedisConfig{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: time.Duration(cfg.DialTimeout) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		Prefix:      cfg.Prefix,
	})
	if err != nil {
		log.Fatalf("redis init error: %v", err)
	}
	return client
}

func mustInitEngine(cfg config.PolicyConfig) *engine.Engine {
	eng, err := engine.New(engine.Policy{
		IndicatorPct:  cfg.IndicatorPct,
		LegalFundPct:  cfg.LegalFundPct,
		TreasuryPct:   cfg.TreasuryPct,
		ChiefsPct:     cfg.ChiefsPct,
		SeizingPct:    cfg.SeizingPct,
		MutualPct:     cfg.MutualPct,
		CommonFundPct: cfg.CommonFundPct,
		IncentivePct:  cfg.IncentivePct,
	})
	if err != nil {
		log.Fatalf("distribution policy error: %v", err)
	}
	return eng
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")

			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
