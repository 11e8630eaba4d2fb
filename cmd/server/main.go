package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/aisanjeev/globaleventstravel/internal/cfg"
	"github.com/aisanjeev/globaleventstravel/internal/media"
)

func main() {
	conf := cfg.LoadConfig()
	logger := log.New(os.Stdout, "[media] ", log.LstdFlags|log.Lmicroseconds)

	if len(conf.JWTSecret) < 32 {
		logger.Fatal("JWT_SECRET must be at least 32 characters long")
	}

	db := mustConnectDB(conf)
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatalf("failed to access sql DB: %v", err)
	}
	defer sqlDB.Close()

	if err := db.AutoMigrate(&media.MediaAsset{}); err != nil {
		logger.Fatalf("failed to migrate media schema: %v", err)
	}

	storage, err := media.NewStorage(conf)
	if err != nil {
		logger.Fatalf("failed to init storage backend: %v", err)
	}

	var redisClient *redis.Client
	if conf.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     conf.RedisAddr,
			Password: conf.RedisPassword,
			DB:       0,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatalf("failed to connect redis: %v", err)
		}
	}

	var producer media.EventProducer
	if brokers := splitCSV(conf.KafkaBrokers); len(brokers) > 0 && conf.KafkaTopic != "" {
		producer = media.NewKafkaProducer(brokers, conf.KafkaTopic)
		defer producer.Close()
	}

	repo := media.NewRepository(db)
	service := media.NewService(repo, storage, producer, media.ServiceConfig{
		MaxUploadBytes:    conf.MaxUploadBytes,
		AllowedExtensions: allowedExtensions(conf.AllowedExtensions),
	})
	query := media.NewQueryService(repo, storage)

	uploadsRoot := ""
	if conf.StorageKind == "" || conf.StorageKind == string(media.StorageLocal) {
		uploadsRoot = conf.LocalUploadDir
	}

	handler := media.NewHandler(service, query, []byte(conf.JWTSecret), conf.MaxUploadBytes, redisClient, uploadsRoot)

	httpServer := &http.Server{
		Addr:    ":" + pickPort(conf.HTTPPort, "8084"),
		Handler: applyHTTPMiddleware(handler.Routes(), conf.MaxUploadBytes),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		logger.Printf("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Println("shutdown signal received")
	case err := <-errCh:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("http shutdown error: %v", err)
	}
	logger.Println("media service stopped")
}

func mustConnectDB(conf cfg.Config) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		conf.DBHost,
		conf.DBPort,
		conf.DBUser,
		conf.DBPassword,
		conf.DBName,
	)
	// TranslateError turns unique-index violations into gorm.ErrDuplicatedKey,
	// which the repository relies on for duplicate-upload recovery.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to init sql DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db
}

func allowedExtensions(csv string) map[string]bool {
	parts := splitCSV(csv)
	if len(parts) == 0 {
		return nil
	}
	exts := make(map[string]bool, len(parts))
	for _, part := range parts {
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		exts[strings.ToLower(part)] = true
	}
	return exts
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

func applyHTTPMiddleware(mux http.Handler, maxUploadBytes int64) http.Handler {
	handler := mux
	handler = media.RequestSizeLimitMiddleware(maxUploadBytes + 1<<20)(handler)
	handler = media.CORSMiddleware(handler)
	handler = media.SecurityHeadersMiddleware(handler)
	return handler
}

func pickPort(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
