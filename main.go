package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "TSUMUGI-backend/docs"
	"TSUMUGI-backend/internal/activity"
	"TSUMUGI-backend/internal/customers"
	"TSUMUGI-backend/internal/inventory/locations"
	"TSUMUGI-backend/internal/inventory/lots"
	"TSUMUGI-backend/internal/inventory/products"
	"TSUMUGI-backend/internal/inventory/transfers"
	"TSUMUGI-backend/internal/platform/auth"
	"TSUMUGI-backend/internal/platform/db"
	"TSUMUGI-backend/internal/reports"
	"TSUMUGI-backend/internal/sales"
)

// @title TSUMUGI backend API
// @version 1.0
// @description 繊維商社向け 在庫・販売管理 API
// @BasePath /api/v1
func main() {
	// 設定読み込み
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	mode := cfg.Mode
	log.Printf("[INFO] mode:%s\n", mode)

	if cfg.Mode != "dev" && cfg.Mode != "release" {
		fmt.Println("Usage: go run main.go [dev|release]")
		return
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	secret := []byte(cfg.JWTSecret)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	authSvc := auth.NewService(conn, secret)
	activitySvc := activity.NewService(conn)

	// /api/v1
	api := r.Group("/api/v1")
	auth.RegisterPublicRoutes(api, authSvc)

	protected := api.Group("")
	protected.Use(auth.RequireAuth(secret))

	locations.RegisterRoutes(protected, locations.NewService(conn))
	products.RegisterRoutes(protected, products.NewService(conn))
	lots.RegisterRoutes(protected, lots.NewService(conn))
	transfers.RegisterRoutes(protected, transfers.NewService(conn, activitySvc))
	sales.RegisterRoutes(protected, sales.NewService(conn, activitySvc))
	customers.RegisterRoutes(protected, customers.NewService(conn, activitySvc))
	activity.RegisterRoutes(protected, activitySvc)
	reports.RegisterRoutes(protected, reports.NewService(conn))

	// アカウント管理は super_admin のみ
	admin := api.Group("")
	admin.Use(auth.RequireAuth(secret), auth.RequireRole(auth.RoleSuperAdmin))
	auth.RegisterAccountRoutes(admin, authSvc)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	var certFile, keyFile string

	// TLS設定
	if mode == "dev" {
		certFile = fmt.Sprintf("config/tls/dev/%s", cfg.Certificate.Cert)
		keyFile = fmt.Sprintf("config/tls/dev/%s", cfg.Certificate.Key)
	} else {
		certFile = fmt.Sprintf("config/tls/release/%s", cfg.Certificate.Cert)
		keyFile = fmt.Sprintf("config/tls/release/%s", cfg.Certificate.Key)
	}

	go func() {
		log.Printf("[INFO] listening on https://0.0.0.0%s", cfg.Addr)
		if err := srv.ListenAndServeTLS(certFile, keyFile); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
