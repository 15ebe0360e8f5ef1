package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	DatabaseURL     string
	PictureDir      string
	PictureExt      string
	StillWidth      int
	StillHeight     int
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	SQSQueueURL     string
	WarpCommand     string
	WarpTimeout     time.Duration
	// ControlPointSource selects where distortion control points come from: "fixed" or "set".
	ControlPointSource  string
	FixedControlPoints  string
	WorkerConcurrency   int
	SQSVisibilitySecond int
	CORSAllowOrigin     []string
	// TaskRatePerSecond and TaskBurst throttle the enqueue endpoints per client IP.
	TaskRatePerSecond float64
	TaskBurst         int
	// UploadMaxBytes caps a single multipart upload; zero keeps the handler default.
	UploadMaxBytes int64
	// SeedFile is an optional YAML file of groups and distortion sets applied at startup.
	SeedFile string
	// InboxDir enables the drop-directory watcher in the API process.
	InboxDir   string
	InboxGroup string
	InboxSteps []string
}

// DefaultFixedControlPoints is the control-point literal used when the source is "fixed".
const DefaultFixedControlPoints = "300,110 350,140  600,310 650,340"

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 env,
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DatabaseURL:         dbURL,
		PictureDir:          getEnv("PICTURE_DIR", "./pictures"),
		PictureExt:          normalizeExt(getEnv("PICTURE_EXT", ".png")),
		StillWidth:          getEnvInt("STILL_IMAGE_WIDTH", 640),
		StillHeight:         getEnvInt("STILL_IMAGE_HEIGHT", 480),
		ObjectStoreType:     normalizeStoreType(getEnv("OBJECT_STORE", "")),
		LocalStoreDir:       getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:           getEnv("AWS_REGION", ""),
		S3Bucket:            getEnv("S3_BUCKET", ""),
		S3Prefix:            getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:         getEnv("SSE_KMS_KEY_ID", ""),
		SQSQueueURL:         strings.TrimSpace(os.Getenv("PA_SQS_QUEUE_URL")),
		WarpCommand:         getEnv("WARP_COMMAND", "convert"),
		WarpTimeout:         getEnvDuration("WARP_TIMEOUT", 2*time.Minute),
		ControlPointSource:  normalizeControlPointSource(getEnv("DISTORT_CONTROL_POINT_SOURCE", "fixed")),
		FixedControlPoints:  getEnv("DISTORT_FIXED_CONTROL_POINTS", DefaultFixedControlPoints),
		WorkerConcurrency:   getEnvInt("PA_WORKER_CONCURRENCY", 4),
		SQSVisibilitySecond: getEnvInt("PA_SQS_VISIBILITY_TIMEOUT_SECONDS", 300),
		CORSAllowOrigin:     splitList(getEnv("CORS_ALLOW_ORIGIN", "http://localhost:5173")),
		TaskRatePerSecond:   getEnvFloat("PA_TASK_RATE_PER_SECOND", 5),
		TaskBurst:           getEnvInt("PA_TASK_BURST", 20),
		UploadMaxBytes:      int64(getEnvInt("PA_UPLOAD_MAX_BYTES", 0)),
		SeedFile:            strings.TrimSpace(os.Getenv("PA_SEED_FILE")),
		InboxDir:            strings.TrimSpace(os.Getenv("PA_INBOX_DIR")),
		InboxGroup:          strings.TrimSpace(os.Getenv("PA_INBOX_GROUP")),
		InboxSteps:          splitList(os.Getenv("PA_INBOX_STEPS")),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		log.Printf("config %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val <= 0 {
		log.Printf("config %s invalid duration %q, using %s", key, raw, def)
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || val <= 0 {
		log.Printf("config %s invalid number %q, using %g", key, raw, def)
		return def
	}
	return val
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "local":
		return "local"
	default:
		return ""
	}
}

func normalizeControlPointSource(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "set":
		return "set"
	default:
		return "fixed"
	}
}

func normalizeExt(raw string) string {
	ext := strings.TrimSpace(raw)
	if ext == "" {
		return ".png"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(ext)
}
