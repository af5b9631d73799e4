package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"habitQuestAPI/handlers"
	"habitQuestAPI/internal/notification"
	"habitQuestAPI/middleware"
	"habitQuestAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	userService         *services.UserService
	habitService        *services.HabitService
	gamificationService *services.GamificationService
	focusService        *services.FocusService
	socialService       *services.SocialService
	insightService      *services.InsightService
	coachService        *services.CoachService
	todoService         *services.TodoService
	adminService        *services.AdminService
	fcmService          *notification.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to database")

	userService = services.NewUserService(dbPool)
	gamificationService = services.NewGamificationService(dbPool)
	habitService = services.NewHabitService(dbPool)
	habitService.SetLedger(gamificationService)
	focusService = services.NewFocusService(dbPool, gamificationService)
	socialService = services.NewSocialService(dbPool)
	insightService = services.NewInsightService(habitService)
	coachService = services.NewCoachService(habitService)
	todoService = services.NewTodoService(dbPool)
	adminService = services.NewAdminService(dbPool)

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		gamificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, gamificationService)
	habitHandler := handlers.NewHabitHandler(habitService)
	focusHandler := handlers.NewFocusHandler(focusService)
	socialHandler := handlers.NewSocialHandler(socialService)
	coachHandler := handlers.NewCoachHandler(coachService, insightService)
	todoHandler := handlers.NewTodoHandler(todoService)
	adminHandler := handlers.NewAdminHandler(adminService, userService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "habitQuest-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/update-profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/leaderboards", userHandler.GetLeaderboard).Methods("GET")
	protected.HandleFunc("/user/progress", userHandler.GetProgress).Methods("GET")
	protected.HandleFunc("/user/register-device", userHandler.RegisterDevice).Methods("POST")

	protected.HandleFunc("/habits", habitHandler.GetHabits).Methods("GET")
	protected.HandleFunc("/habits", habitHandler.CreateHabit).Methods("POST")
	protected.HandleFunc("/habits/{id}", habitHandler.UpdateHabit).Methods("PUT")
	protected.HandleFunc("/habits/{id}", habitHandler.DeleteHabit).Methods("DELETE")
	protected.HandleFunc("/habits/{id}/toggle", habitHandler.ToggleCompletion).Methods("POST")

	protected.HandleFunc("/focus/start", focusHandler.StartSession).Methods("POST")
	protected.HandleFunc("/focus/{id}/complete", focusHandler.CompleteSession).Methods("POST")
	protected.HandleFunc("/focus/active", focusHandler.GetActiveSessions).Methods("GET")

	protected.HandleFunc("/social/feed", socialHandler.GetFeed).Methods("GET")
	protected.HandleFunc("/social/feed/{id}/like", socialHandler.ToggleLike).Methods("POST")
	protected.HandleFunc("/social/challenges", socialHandler.GetChallenges).Methods("GET")
	protected.HandleFunc("/social/challenges", socialHandler.CreateChallenge).Methods("POST")
	protected.HandleFunc("/social/challenges/{id}/join", socialHandler.JoinChallenge).Methods("POST")

	protected.HandleFunc("/coach/analyze", coachHandler.Analyze).Methods("POST")
	protected.HandleFunc("/coach/insights", coachHandler.GetInsights).Methods("GET")

	protected.HandleFunc("/todos", todoHandler.GetTodos).Methods("GET")
	protected.HandleFunc("/todos", todoHandler.CreateTodo).Methods("POST")
	protected.HandleFunc("/todos/{id}", todoHandler.UpdateTodo).Methods("PUT")
	protected.HandleFunc("/todos/{id}", todoHandler.DeleteTodo).Methods("DELETE")

	protected.HandleFunc("/admin/settings", adminHandler.GetSettings).Methods("GET")
	protected.HandleFunc("/admin/settings", adminHandler.SetSetting).Methods("PUT")
	protected.HandleFunc("/admin/settings/{key}", adminHandler.GetSetting).Methods("GET")
	protected.HandleFunc("/admin/stats", adminHandler.GetStats).Methods("GET")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
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
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
