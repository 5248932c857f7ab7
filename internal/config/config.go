package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port             int
	DBDSN            string
	RedisURL         string
	JWTAccessSecret  string
	JWTRefreshSecret string
	JWTAccessTTL     time.Duration
	JWTRefreshTTL    time.Duration
	AllowOrigins     []string
	RateLimitPublic  RateLimitConfig
	RateLimitAuth    RateLimitConfig
	Feed             FeedConfig
	Monitor          MonitorConfig
	Storage          StorageConfig
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// FeedConfig descreve os endpoints externos de séries por país.
type FeedConfig struct {
	BaseURL  string
	CacheTTL time.Duration
	Timeout  time.Duration
}

// MonitorConfig controla a verificação periódica dos feeds.
type MonitorConfig struct {
	Enabled       bool
	Interval      time.Duration
	FailThreshold int
	SlackWebhook  string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
	AlertFrom     string
	AlertTo       []string
}

// StorageConfig descreve o bucket opcional para arquivar exportações.
type StorageConfig struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	PublicDomain string
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
// Segredos de JWT ausentes ou fracos derrubam o processo na partida;
// operar sem autenticação nunca é um fallback.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.DBDSN = getEnv("DB_DSN", "")
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN obrigatório")
	}

	cfg.RedisURL = getEnv("REDIS_URL", "")
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL obrigatório")
	}

	cfg.JWTAccessSecret = strings.TrimSpace(getEnv("JWT_ACCESS_SECRET", ""))
	if len(cfg.JWTAccessSecret) < 32 {
		return nil, errors.New("JWT_ACCESS_SECRET deve ter pelo menos 32 caracteres")
	}

	cfg.JWTRefreshSecret = strings.TrimSpace(getEnv("JWT_REFRESH_SECRET", ""))
	if len(cfg.JWTRefreshSecret) < 32 {
		return nil, errors.New("JWT_REFRESH_SECRET deve ter pelo menos 32 caracteres")
	}
	if cfg.JWTRefreshSecret == cfg.JWTAccessSecret {
		return nil, errors.New("JWT_REFRESH_SECRET deve ser distinto de JWT_ACCESS_SECRET")
	}

	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL = accessTTL

	refreshTTL, err := parseDurationEnv("JWT_REFRESH_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWTRefreshTTL = refreshTTL

	allowOrigins := strings.Split(getEnv("ALLOW_ORIGINS", ""), ",")
	cfg.AllowOrigins = nil
	for _, origin := range allowOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	cfg.Feed.BaseURL = strings.TrimRight(getEnv("FEED_BASE_URL", ""), "/")
	if cfg.Feed.BaseURL == "" {
		return nil, errors.New("FEED_BASE_URL obrigatório")
	}
	cacheTTL, err := parseDurationEnv("FEED_CACHE_TTL", 6*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.Feed.CacheTTL = cacheTTL

	feedTimeout, err := parseDurationEnv("FEED_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.Feed.Timeout = feedTimeout

	cfg.Monitor.Enabled = getEnv("MONITOR_ENABLED", "false") == "true"
	interval, err := parseDurationEnv("MONITOR_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.Monitor.Interval = interval

	threshold, err := strconv.Atoi(getEnv("MONITOR_FAIL_THRESHOLD", "3"))
	if err != nil || threshold <= 0 {
		return nil, errors.New("MONITOR_FAIL_THRESHOLD inválido")
	}
	cfg.Monitor.FailThreshold = threshold

	cfg.Monitor.SlackWebhook = strings.TrimSpace(getEnv("MONITOR_SLACK_WEBHOOK", ""))
	cfg.Monitor.SMTPHost = strings.TrimSpace(getEnv("MONITOR_SMTP_HOST", ""))
	smtpPort, err := strconv.Atoi(getEnv("MONITOR_SMTP_PORT", "587"))
	if err != nil || smtpPort <= 0 {
		return nil, errors.New("MONITOR_SMTP_PORT inválida")
	}
	cfg.Monitor.SMTPPort = smtpPort
	cfg.Monitor.SMTPUser = getEnv("MONITOR_SMTP_USER", "")
	cfg.Monitor.SMTPPass = getEnv("MONITOR_SMTP_PASS", "")
	cfg.Monitor.AlertFrom = strings.TrimSpace(getEnv("MONITOR_ALERT_FROM", ""))
	for _, to := range strings.Split(getEnv("MONITOR_ALERT_TO", ""), ",") {
		to = strings.TrimSpace(to)
		if to != "" {
			cfg.Monitor.AlertTo = append(cfg.Monitor.AlertTo, to)
		}
	}

	cfg.Storage = StorageConfig{
		Endpoint:     strings.TrimSpace(getEnv("STORAGE_ENDPOINT", "")),
		Region:       strings.TrimSpace(getEnv("STORAGE_REGION", "auto")),
		Bucket:       strings.TrimSpace(getEnv("STORAGE_BUCKET", "")),
		AccessKey:    getEnv("STORAGE_ACCESS_KEY", ""),
		SecretKey:    getEnv("STORAGE_SECRET_KEY", ""),
		PublicDomain: strings.TrimSpace(getEnv("STORAGE_PUBLIC_DOMAIN", "")),
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}
