package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/crossflow/configs"
	"github.com/maheshrc27/crossflow/internal/api/handlers"
	"github.com/maheshrc27/crossflow/internal/api/middleware"
	job "github.com/maheshrc27/crossflow/internal/jobs"
	"github.com/maheshrc27/crossflow/internal/pipeline"
	"github.com/maheshrc27/crossflow/internal/platform"
	"github.com/maheshrc27/crossflow/internal/queue"
	"github.com/maheshrc27/crossflow/internal/repository"
	"github.com/maheshrc27/crossflow/internal/service"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	connectionRepo := repository.NewConnectionRepository(db)
	contentRepo := repository.NewTrackedContentRepository(db)
	workflowRepo := repository.NewWorkflowRepository(db)
	runRepo := repository.NewWorkflowRunRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	postRepo := repository.NewPostRepository(db)

	horizon := time.Duration(cfg.TokenRefreshHorizonMinutes) * time.Minute
	creds := platform.NewCredentials(connectionRepo, []byte(cfg.SecretKey), horizon)

	registry := platform.NewRegistry(
		platform.NewInstagramAdapter(cfg, creds),
		platform.NewFacebookAdapter(cfg, creds),
		platform.NewYoutubeAdapter(cfg, creds),
		platform.NewTiktokAdapter(cfg, creds),
		platform.NewLinkedinAdapter(cfg, creds),
	)

	mediaService := service.NewMediaService(*cfg)
	scheduler := queue.NewScheduler(client)

	executor := pipeline.NewExecutor(connectionRepo, runRepo, postRepo, activityRepo, registry, mediaService, scheduler)
	matcher := pipeline.NewTriggerMatcher(workflowRepo, runRepo, activityRepo, executor)
	poller := pipeline.NewPoller(connectionRepo, contentRepo, activityRepo, registry, matcher,
		time.Duration(cfg.PollLookbackHours)*time.Hour)

	workflowService := service.NewWorkflowService(db, workflowRepo, runRepo, connectionRepo)
	connectionService := service.NewConnectionService(connectionRepo, workflowRepo)
	activityService := service.NewActivityService(activityRepo, postRepo)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	workflow := handlers.NewWorkflowHandler(workflowService)
	api.Post("/workflows/create", workflow.CreateWorkflow)
	api.Get("/workflows", workflow.ListWorkflows)
	api.Get("/workflows/runs", workflow.ListRuns)
	api.Post("/workflows/active", workflow.SetActive)
	api.Post("/workflows/remove", workflow.RemoveWorkflow)

	connection := handlers.NewConnectionHandler(connectionService)
	api.Get("/connections", connection.ListConnections)
	api.Post("/connections/active", connection.SetActive)
	api.Post("/connections/remove", connection.Disconnect)

	activity := handlers.NewActivityHandler(activityService)
	api.Get("/activity", activity.ListActivity)
	api.Get("/posts", activity.ListPosts)

	poll := handlers.NewPollHandler(poller, connectionRepo, client)
	api.Post("/poll", poll.Poll)

	// cron jobs
	pollJob := job.NewPollJob(poller)
	refreshTokenJob := job.NewTokenRefreshJob(connectionRepo, registry, 30*time.Minute)

	// queue
	queueW := queue.NewQueue(poller, connectionRepo, activityRepo, mediaService)

	c := cron.New()
	c.AddFunc(fmt.Sprintf("@every %dm", cfg.PollIntervalMinutes), pollJob.Run)
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePollSweep, queueW.HandlePollSweepTask)
		mux.HandleFunc(queue.TaskTypeMediaCleanup, queueW.HandleMediaCleanupTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
