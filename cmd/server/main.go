package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gradersmith/internal/api"
	"gradersmith/internal/app/service"
	"gradersmith/internal/app/worker"
	"gradersmith/internal/common/security"
	"gradersmith/internal/domain/repository"
	"gradersmith/internal/judge"
	"gradersmith/internal/platform/config"
	"gradersmith/internal/platform/database"
	"gradersmith/internal/platform/queue"
	"gradersmith/internal/storage"
)

func main() {
	cfg := config.Load()
	log.Println("Configuration loaded.")

	tokens := security.NewTokenAuth(cfg.JWTKey, cfg.JWTExp)

	db, err := database.Connect(cfg.DBConnStr)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()
	log.Println("Database connected.")

	rdb, err := queue.Connect(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}
	defer rdb.Close()
	log.Println("Redis connected.")

	userRepo := repository.NewPgUserRepository(db)
	problemRepo := repository.NewPgProblemRepository(db)
	submissionRepo := repository.NewPgSubmissionRepository(db)
	progressRepo := repository.NewPgProgressRepository(db)

	bucket := storage.NewGateway(cfg.StorageURL, cfg.StorageAPIKey, cfg.StorageBucket)
	judgeClient := judge.NewClient(cfg.Judge0URL)
	evalQueue := service.NewEvalQueue(rdb, cfg.EvalQueueName)

	authService := service.NewAuthService(userRepo, tokens)
	problemService := service.NewProblemService(problemRepo, bucket)
	submissionService := service.NewSubmissionService(submissionRepo, evalQueue)
	progressService := service.NewProgressService(progressRepo)

	limits := judge.Limits{
		CPUTimeS:  cfg.CPUTimeLimitS,
		MemoryKb:  cfg.MemoryLimitKb,
		WallTimeS: cfg.WallTimeLimitS,
	}
	evaluator := service.NewEvaluator(submissionRepo, progressRepo, bucket, judgeClient,
		limits, cfg.JudgeMaxAttempts, cfg.JudgeRetryBase)

	evalWorker := worker.NewEvalWorker(rdb, cfg.EvalQueueName, evaluator)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go evalWorker.Start(workerCtx)
	log.Println("Evaluation worker started.")

	router := api.NewRouter(cfg, tokens, authService, problemService, submissionService, progressService)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
		}
	}()

	<-stop

	log.Println("Shutting down server...")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server and worker stopped gracefully.")
}
