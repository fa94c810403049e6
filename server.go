package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"sticket-backend/handlers"
	"sticket-backend/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the check-in API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func runServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	go a.session.Run(ctx)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: newRouter(a),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Server starting on port %s\n", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Println("Server stopped")
	return nil
}

func newRouter(a *app) *gin.Engine {
	walletHandler := handlers.NewWalletHandler(a.session)
	eventHandler := handlers.NewEventHandler(a.events)
	checkinHandler := handlers.NewCheckinHandler(a.manager, a.checkinLog())

	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = a.cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// API routes
	api := router.Group("/api/v1")
	{
		// Wallet routes
		api.GET("/wallet", walletHandler.GetWallet)
		api.POST("/wallet/connect", walletHandler.Connect)
		api.POST("/wallet/disconnect", walletHandler.Disconnect)
		api.GET("/wallet/network", walletHandler.GetNetwork)

		// Event routes
		api.GET("/events/:address", eventHandler.GetEvent)
		api.GET("/creators/:address/events", eventHandler.GetCreatorEvents)
		api.POST("/events/:address/listings/:ticketId/cancel", eventHandler.CancelListing)

		// Checkin routes
		api.GET("/events/:address/tickets/:ticketId", checkinHandler.VerifyTicket)
		api.POST("/events/:address/checkin", checkinHandler.CheckIn)
		api.POST("/events/:address/checkin/qr", checkinHandler.CheckInQR)
		api.GET("/events/:address/checkins", checkinHandler.GetCheckins)
		api.GET("/events/:address/checkins/log", checkinHandler.GetCheckinLog)
		api.DELETE("/events/:address/checkin/state", checkinHandler.ResetCheckin)
	}

	if a.cfg.EnableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		checks := gin.H{"wallet_connected": a.session.Snapshot().Connected}
		healthy := true

		if a.auditLog != nil {
			if err := a.auditLog.Ping(c); err != nil {
				checks["database"] = "Database connection failed: " + err.Error()
				healthy = false
			} else {
				checks["database"] = "ok"
			}
		}
		if a.redis != nil {
			if err := store.RedisHealthCheck(c, a.redis); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		status, code := "healthy", http.StatusOK
		if !healthy {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"checks":    checks,
			"timestamp": time.Now().Unix(),
		})
	})

	return router
}
