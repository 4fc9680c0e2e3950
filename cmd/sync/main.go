package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"

	"github.com/rollingriches/leadsync/internal/entity"
	"github.com/rollingriches/leadsync/internal/infra/database"
	"github.com/rollingriches/leadsync/internal/infra/http/handlers"
	"github.com/rollingriches/leadsync/internal/infra/http/middleware"
	"github.com/rollingriches/leadsync/internal/infra/integration/ghl"
	"github.com/rollingriches/leadsync/internal/infra/integration/wordpress"
	"github.com/rollingriches/leadsync/internal/infra/mail"
	"github.com/rollingriches/leadsync/internal/infra/queue"
	"github.com/rollingriches/leadsync/internal/infra/worker"
	"github.com/rollingriches/leadsync/internal/usecase"
)

func main() {
	godotenv.Load()

	once := flag.Bool("once", false, "run a single sync cycle and exit")
	check := flag.Bool("check", false, "probe WordPress, GHL and the database, then exit")
	rescan := flag.Bool("rescan", false, "recompute outdated quality scores and exit")
	flag.Parse()

	for _, key := range []string{"DATABASE_URL", "WORDPRESS_URL", "WORDPRESS_USERNAME", "WORDPRESS_PASSWORD", "GHL_ACCESS_TOKEN", "GHL_LOCATION_ID"} {
		if os.Getenv(key) == "" {
			log.Fatalf("❌ Missing required environment variable %s", key)
		}
	}

	// Only one process may drive the sync at a time.
	lock := flock.New(envOr("LOCK_FILE", "/tmp/leadsync.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("❌ Could not acquire lock: %v", err)
	}
	if !locked {
		log.Fatal("❌ Another sync process is already running")
	}
	defer lock.Unlock()

	db, err := database.NewDBConnection(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("❌ Schema bootstrap failed: %v", err)
	}

	// 1. Repositories
	leadRepo := database.NewLeadRepository(db)
	runRepo := database.NewSyncRunRepository(db)
	attemptRepo := database.NewForwardAttemptRepository(db)
	checkpointRepo := database.NewCheckpointRepository(db)
	blacklistRepo := database.NewBlacklistRepository(db)

	// 2. Integration clients
	source := wordpress.NewClient(
		os.Getenv("WORDPRESS_URL"),
		os.Getenv("WORDPRESS_USERNAME"),
		os.Getenv("WORDPRESS_PASSWORD"),
	)
	forwarder := ghl.NewClient(
		os.Getenv("GHL_ACCESS_TOKEN"),
		os.Getenv("GHL_LOCATION_ID"),
		os.Getenv("GHL_BASE_URL"),
	)

	if *check {
		runChecks(ctx, source, forwarder)
		return
	}

	// 3. Alerting (optional: skipped unless RabbitMQ is configured)
	var (
		producer *queue.RabbitMQProducer
		rabbitMQ *queue.RabbitMQ
	)
	if os.Getenv("RABBITMQ_HOST") != "" {
		rabbitMQ, err = queue.NewRabbitMQ(
			os.Getenv("RABBITMQ_USER"),
			os.Getenv("RABBITMQ_PASS"),
			os.Getenv("RABBITMQ_HOST"),
			envOr("RABBITMQ_PORT", "5672"),
		)
		if err != nil {
			log.Fatalf("❌ RabbitMQ connection failed: %v", err)
		}
		defer rabbitMQ.Conn.Close()
		defer rabbitMQ.Ch.Close()

		producer = queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)

		if os.Getenv("MAIL_HOST") != "" {
			mailSender := mail.NewEmailSender(
				os.Getenv("MAIL_HOST"),
				envInt("MAIL_PORT", 587),
				os.Getenv("MAIL_USER"),
				os.Getenv("MAIL_PASS"),
				os.Getenv("MAIL_FROM"),
				os.Getenv("MAIL_TO"),
			)
			alertWorker := queue.NewWorker(rabbitMQ.Ch, mailSender)
			go alertWorker.Start(queue.QueueName)
		}
	}

	// 4. Normalizer, seeded with the stored blacklist
	rules, err := blacklistRepo.All(ctx)
	if err != nil {
		log.Fatalf("❌ Could not load blacklist rules: %v", err)
	}
	normalizer := usecase.NewNormalizer(rules)

	// 5. Orchestrator
	orchestrator := usecase.NewSyncOrchestrator(
		source, forwarder,
		leadRepo, runRepo, attemptRepo, checkpointRepo,
		normalizer, alertProducer(producer),
	)
	orchestrator.MaxRetries = envInt("MAX_RETRIES", 3)
	orchestrator.PageSize = envInt("PAGE_SIZE", 100)
	orchestrator.MaxPages = envInt("MAX_PAGES", 10)
	orchestrator.RetryDelay = time.Duration(envInt("RETRY_DELAY_MINUTES", 30)) * time.Minute

	if *rescan {
		n, err := orchestrator.RescanQualityScores(ctx)
		if err != nil {
			log.Fatalf("❌ Rescan failed after %d lead(s): %v", n, err)
		}
		log.Printf("✅ Rescan complete: %d lead(s) rescored", n)
		return
	}

	if *once {
		if _, err := runCycle(ctx, orchestrator); err != nil {
			os.Exit(1)
		}
		return
	}

	// 6. Scheduler: the sync cycle every N minutes, the retry pass at 23:00.
	interval := envInt("SYNC_INTERVAL_MINUTES", 10)
	retryScheduler := worker.NewRetryScheduler(attemptRepo, orchestrator.MaxRetries)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	c.AddFunc("@every "+strconv.Itoa(interval)+"m", func() {
		runCycle(ctx, orchestrator)
	})
	c.AddFunc("0 23 * * *", func() {
		retryScheduler.Run(ctx)
	})
	c.Start()
	defer c.Stop()

	// 7. HTTP surface: health, metrics, reports
	healthHandler := handlers.NewHealthHandler(db, rabbitConn(rabbitMQ))
	reportHandler := handlers.NewReportHandler(db, runRepo, attemptRepo)

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
	}))

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/report/daily", reportHandler.HandleDaily)
	r.Get("/report/backlog", reportHandler.HandleBacklog)
	r.Get("/report/runs", reportHandler.HandleRuns)

	addr := envOr("HTTP_ADDR", ":8080")
	server := &http.Server{Addr: addr, Handler: r}
	go func() {
		log.Printf("🔥 leadsync running on %s (cycle every %dm)", addr, interval)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ HTTP server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("🕒 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
	log.Println("✅ Shutdown complete")
}

func runCycle(ctx context.Context, orchestrator *usecase.SyncOrchestrator) (*entity.SyncRun, error) {
	start := time.Now()
	run, err := orchestrator.RunCycle(ctx)
	status := entity.SyncRunCompleted
	if err != nil {
		status = entity.SyncRunFailed
	}
	middleware.RecordSyncCycle(status, time.Since(start))

	if run != nil {
		middleware.RecordLeadIngested("inserted", run.Inserted)
		middleware.RecordLeadIngested("updated", run.Updated)
		middleware.RecordLeadIngested("skipped", run.Skipped)
		middleware.RecordLeadIngested("errored", run.Errored)
		middleware.RecordForwardAttempt("success", run.Forwarded)
		middleware.RecordForwardAttempt("failed", run.ForwardFailed)
	}
	return run, err
}

func runChecks(ctx context.Context, source *wordpress.Client, forwarder *ghl.Client) {
	ok := true

	if err := source.Healthcheck(ctx); err != nil {
		log.Printf("❌ WordPress: %v", err)
		ok = false
	} else {
		log.Println("✅ WordPress reachable")
	}

	if err := forwarder.TestConnection(ctx); err != nil {
		log.Printf("❌ GHL: %v", err)
		ok = false
	} else {
		log.Println("✅ GHL reachable")
	}

	if !ok {
		os.Exit(1)
	}
}

// alertProducer avoids handing the orchestrator a typed-nil interface.
func alertProducer(p *queue.RabbitMQProducer) usecase.AlertProducerInterface {
	if p == nil {
		return nil
	}
	return p
}

func rabbitConn(r *queue.RabbitMQ) *amqp091.Connection {
	if r == nil {
		return nil
	}
	return r.Conn
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("❌ %s must be an integer, got %q", key, v)
	}
	return n
}
