package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"placement-portal/backend/internal/account/repository"
	"placement-portal/backend/internal/audit"
	auditrepo "placement-portal/backend/internal/audit/repository"
	companyhandler "placement-portal/backend/internal/company/handler"
	companyservice "placement-portal/backend/internal/company/service"
	"placement-portal/backend/internal/config"
	"placement-portal/backend/internal/db"
	healthhandler "placement-portal/backend/internal/health/handler"
	identityhandler "placement-portal/backend/internal/identity/handler"
	identityservice "placement-portal/backend/internal/identity/service"
	jobrepo "placement-portal/backend/internal/job/repository"
	"placement-portal/backend/internal/policy/engine"
	policyrepo "placement-portal/backend/internal/policy/repository"
	"placement-portal/backend/internal/ratelimit"
	"placement-portal/backend/internal/security"
	"placement-portal/backend/internal/server"
	"placement-portal/backend/internal/server/middleware"
	studenthandler "placement-portal/backend/internal/student/handler"
	studentservice "placement-portal/backend/internal/student/service"
	"placement-portal/backend/internal/telemetry"
	telemetryotel "placement-portal/backend/internal/telemetry/otel"
	"placement-portal/backend/internal/telemetry/producer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.ValidateSessionKeys(); err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx := context.Background()

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()

	var (
		conn      *sql.DB
		students  repository.StudentStore
		companies repository.CompanyStore
		jobs      jobrepo.Repository
		auditRepo auditrepo.Repository
		pinger    healthhandler.Pinger
	)
	if cfg.DatabaseURL != "" {
		conn, err = db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		students = repository.NewStudentRepository(conn)
		companies = repository.NewCompanyRepository(conn)
		jobs = jobrepo.NewPostgresRepository(conn)
		auditRepo = auditrepo.NewPostgresRepository(conn)
		pinger = conn
	} else {
		// Load refuses an empty DATABASE_URL in production.
		log.Println("db: DATABASE_URL not set; using in-memory stores (development only)")
		students = repository.NewStudentMemoryStore()
		companies = repository.NewCompanyMemoryStore()
		jobs = jobrepo.NewMemoryRepository()
	}

	resetSecret := []byte(cfg.PasswordResetSecret)
	if len(resetSecret) == 0 {
		resetSecret, err = security.RandomSecret(32)
		if err != nil {
			log.Fatalf("security: reset secret: %v", err)
		}
		log.Println("security: PASSWORD_RESET_SECRET not set; using a random per-process secret")
	}
	tokens, err := security.NewTokenProvider(
		security.Secrets{
			Access:  []byte(cfg.JWTAccessSecret),
			Refresh: []byte(cfg.JWTRefreshSecret),
			Reset:   resetSecret,
		},
		security.TTLs{Access: cfg.AccessTTL(), Refresh: cfg.RefreshTTL(), Reset: cfg.ResetTTL()},
		cfg.JWTIssuer,
	)
	if err != nil {
		log.Fatalf("security: %v", err)
	}

	kafkaProducer := producer.NewKafkaProducer(cfg.EventsKafkaBrokersList(), cfg.EventsKafkaTopic)
	var events telemetry.EventEmitter = telemetryotel.NewEventEmitter(providers.LoggerProvider)
	if kafkaProducer != nil {
		events = telemetry.Multi(events, kafkaProducer)
		log.Printf("telemetry: publishing events to Kafka topic %s", cfg.EventsKafkaTopic)
	}

	auditLogger := audit.NewLogger(auditRepo, middleware.ClientIPFrom)
	opts := []identityservice.Option{
		identityservice.WithAudit(auditLogger),
		identityservice.WithEvents(events),
		identityservice.WithClientIP(middleware.ClientIPFrom),
	}
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		opts = append(opts, identityservice.WithLimiter(ratelimit.New(redisClient, ratelimit.Config{
			MaxAttempts: cfg.LoginMaxAttempts,
			Cooldown:    cfg.LoginCooldownDuration(),
		})))
	}

	var rules string
	if conn != nil {
		active, err := policyrepo.NewPostgresRepository(conn).GetActive(ctx)
		if err != nil {
			log.Fatalf("policy: load active policy: %v", err)
		}
		if active != nil {
			rules = active.Rules
			log.Printf("policy: using stored eligibility policy %s", active.ID)
		}
	}
	policy, err := engine.NewOPAEvaluator(ctx, rules)
	if err != nil {
		log.Fatalf("policy: %v", err)
	}

	authService := identityservice.NewAuthService(students, companies, security.NewHasher(cfg.BcryptCost), tokens, opts...)
	cookies := identityhandler.CookiePolicy{
		Secure:     cfg.SecureCookies(),
		SameSite:   cfg.SameSite(),
		Domain:     cfg.CookieDomain,
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
	}
	checker := healthhandler.NewChecker(pinger, policy)
	trustedProxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxiesList())
	if err != nil {
		log.Fatalf("config: TRUSTED_PROXIES: %v", err)
	}

	router := server.NewRouter(server.Deps{
		Tokens:         tokens,
		Students:       students,
		Companies:      companies,
		Auth:           identityhandler.NewAuthHandler(authService, cookies, !cfg.IsProduction()),
		Student:        studenthandler.NewStudentHandler(studentservice.NewStudentService(students, companies, jobs, policy, events)),
		Company:        companyhandler.NewCompanyHandler(companyservice.NewCompanyService(companies, students, jobs, events)),
		Health:         checker,
		Audit:          auditLogger,
		CORSOrigin:     cfg.CORSAllowedOrigin,
		TrustedProxies: trustedProxies,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var grpcServer *grpc.Server
	if cfg.GRPCEnabled() {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatalf("listen: %v", err)
		}
		grpcServer = server.NewGRPCServer(checker)
		go func() {
			log.Printf("gRPC health server listening on %s", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				log.Fatalf("grpc serve: %v", err)
			}
		}()
	} else {
		log.Println("gRPC health server disabled (GRPC_ADDR=off)")
	}
	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	// Let in-flight async emits finish before closing their sinks.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := kafkaProducer.Close(); err != nil {
		log.Printf("kafka close: %v", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("otel shutdown: %v", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}
	log.Println("server stopped")
}
