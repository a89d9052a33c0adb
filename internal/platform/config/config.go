package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	EvalQueueName string

	StorageURL    string
	StorageAPIKey string
	StorageBucket string

	Judge0URL      string
	CPUTimeLimitS  int
	MemoryLimitKb  int
	WallTimeLimitS int

	JudgeMaxAttempts   int
	JudgeRetryBase     time.Duration
	PollRetryAfterSecs int

	CORSAllowedOrigins []string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort: getEnv("API_PORT", "3001"),
		JWTKey:  []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:  time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "gradersmith"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		EvalQueueName: getEnv("EVAL_QUEUE_NAME", "submission_eval_queue"),

		StorageURL:    getEnv("STORAGE_URL", "http://localhost:54321"),
		StorageAPIKey: getEnv("STORAGE_API_KEY", ""),
		StorageBucket: getEnv("STORAGE_BUCKET", "problems"),

		Judge0URL:      getEnv("JUDGE0_URL", "http://localhost:2358"),
		CPUTimeLimitS:  getEnvAsInt("JUDGE_CPU_TIME_LIMIT_S", 5),
		MemoryLimitKb:  getEnvAsInt("JUDGE_MEMORY_LIMIT_KB", 128000),
		WallTimeLimitS: getEnvAsInt("JUDGE_WALL_TIME_LIMIT_S", 10),

		JudgeMaxAttempts:   getEnvAsInt("JUDGE_MAX_ATTEMPTS", 3),
		JudgeRetryBase:     time.Duration(getEnvAsInt("JUDGE_RETRY_BASE_MS", 250)) * time.Millisecond,
		PollRetryAfterSecs: getEnvAsInt("POLL_RETRY_AFTER_SECONDS", 2),

		CORSAllowedOrigins: []string{getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:3000")},
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
