package cfg

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	StorageKind    string
	LocalUploadDir string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3UseSSL       bool
	S3Bucket       string

	MaxUploadBytes    int64
	AllowedExtensions string

	KafkaBrokers string
	KafkaTopic   string

	JWTSecret     string
	RedisAddr     string
	RedisPassword string
}

func LoadConfig() Config {
	// Load .env if present (silently continue on error)
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found, using environment variables")
	}

	cfg := Config{
		HTTPPort:          os.Getenv("HTTP_PORT"),
		DBHost:            os.Getenv("DB_HOST"),
		DBPort:            os.Getenv("DB_PORT"),
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBName:            os.Getenv("DB_NAME"),
		StorageKind:       os.Getenv("STORAGE_KIND"),
		LocalUploadDir:    os.Getenv("LOCAL_UPLOAD_DIR"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3AccessKey:       os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:       os.Getenv("S3_SECRET_KEY"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		AllowedExtensions: os.Getenv("ALLOWED_EXTENSIONS"),
		KafkaBrokers:      os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:        os.Getenv("KAFKA_TOPIC"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
	}

	// S3_USE_SSL optional
	if os.Getenv("S3_USE_SSL") == "true" || os.Getenv("S3_USE_SSL") == "1" {
		cfg.S3UseSSL = true
	}

	// MAX_UPLOAD_SIZE optional, default 50MB
	if maxStr := os.Getenv("MAX_UPLOAD_SIZE"); maxStr != "" {
		if v, err := strconv.ParseInt(maxStr, 10, 64); err == nil {
			cfg.MaxUploadBytes = v
		}
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 50 * 1024 * 1024 // 50 MB
	}

	if cfg.LocalUploadDir == "" {
		cfg.LocalUploadDir = "uploads"
	}

	return cfg
}
