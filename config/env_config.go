package config

import (
	"os"
	"strconv"
	"strings"
)

type EnvConfig struct {
	Server struct {
		Host       string
		Port       string
		PublicHost string
	}
	Redis struct {
		Password  string
		Database  int
		RedisHost string
		RedisPort string
	}
	Minio struct {
		Endpoint      string
		RootUser      string
		RootPassword  string
		UploadsBucket string
		OutputsBucket string
	}
	Worker struct {
		QueueName        string
		DequeueTimeout   int // seconds
		RetentionHours   int
		PollIntervalMS   int // session outbound relay poll period
		MaxUploadSize    int64
		AllowedImageMIME []string
	}
	LLM struct {
		OllamaBaseURL      string
		OllamaDefaultModel string
		GroqAPIKey         string
		GroqDefaultModel   string
	}
	Pipeline struct {
		Engine string
		Device string
	}
	JWT struct {
		SecretKey string
	}
	CORS struct {
		AllowDomains string
	}
	Grafana struct {
		OTLPEndpoint string
		ServiceName  string
	}
	Environment struct {
		Mode string
	}
}

func LoadEnvConfig() *EnvConfig {
	var config EnvConfig

	config.Server.Host = getEnv("API_HOST", "0.0.0.0")
	config.Server.Port = getEnv("API_PORT", "8080")
	config.Server.PublicHost = getEnv("API_PUBLIC_HOST", "localhost:"+config.Server.Port)

	config.Redis.Password = os.Getenv("REDIS_PASSWORD")
	config.Redis.Database, _ = strconv.Atoi(os.Getenv("REDIS_DB"))
	config.Redis.RedisHost = getEnv("REDIS_HOST", "localhost")
	config.Redis.RedisPort = getEnv("REDIS_PORT", "6379")

	config.Minio.Endpoint = os.Getenv("MINIO_ENDPOINT")
	config.Minio.RootUser = os.Getenv("MINIO_ROOT_USER")
	config.Minio.RootPassword = os.Getenv("MINIO_ROOT_PASSWORD")
	config.Minio.UploadsBucket = getEnv("MINIO_UPLOADS_BUCKET", "forge-uploads")
	config.Minio.OutputsBucket = getEnv("MINIO_OUTPUTS_BUCKET", "forge-outputs")

	config.Worker.QueueName = getEnv("WORKER_QUEUE_NAME", "forge_jobs")
	config.Worker.DequeueTimeout = getEnvInt("WORKER_DEQUEUE_TIMEOUT", 5)
	config.Worker.RetentionHours = getEnvInt("JOB_RETENTION_HOURS", 24)
	config.Worker.PollIntervalMS = getEnvInt("SESSION_POLL_INTERVAL_MS", 500)
	config.Worker.MaxUploadSize = int64(getEnvInt("MAX_UPLOAD_SIZE", 10*1024*1024))

	allowedMIME := getEnv("ALLOWED_IMAGE_TYPES", "image/png,image/jpeg,image/webp")
	for _, m := range strings.Split(allowedMIME, ",") {
		if m = strings.TrimSpace(m); m != "" {
			config.Worker.AllowedImageMIME = append(config.Worker.AllowedImageMIME, m)
		}
	}

	config.LLM.OllamaBaseURL = getEnv("OLLAMA_BASE_URL", "http://localhost:11434")
	config.LLM.OllamaDefaultModel = getEnv("OLLAMA_DEFAULT_MODEL", "llama3.2")
	config.LLM.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	config.LLM.GroqDefaultModel = getEnv("GROQ_DEFAULT_MODEL", "llama-3.3-70b-versatile")

	config.Pipeline.Engine = getEnv("PIPELINE_ENGINE", "synthetic")
	config.Pipeline.Device = getEnv("PIPELINE_DEVICE", "cuda")

	config.JWT.SecretKey = os.Getenv("JWT_SECRET_KEY")

	config.CORS.AllowDomains = getEnv("ALLOWED_DOMAINS", "http://localhost:3000,http://localhost:5173")

	config.Grafana.OTLPEndpoint = os.Getenv("OTLP_ENDPOINT")
	config.Grafana.ServiceName = getEnv("OTLP_SERVICE_NAME", "gau-3d-forge")

	config.Environment.Mode = getEnv("ENV_MODE", "development")

	return &config
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}
