package config

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server-side settings
	DatabaseDSN     string `env:"DATABASE_URI"`
	AuthSecret      string `env:"AUTH_SECRET"`
	StorageRoot     string `env:"STORAGE_ROOT"`
	CredentialsFile string `env:"CREDENTIALS_FILE"`

	// Выдача списков и демо-данные
	PageSize         int    `env:"PAGE_SIZE"`
	PrefetchDistance int    `env:"PREFETCH_DISTANCE"`
	SeedUser         string `env:"SEED_USER"`
	SeedCount        int    `env:"SEED_COUNT"`

	// Shared settings
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`

	// Client-side settings
	ServerURL string `env:"-"`
	TokenFile string `env:"TOKEN_FILE"`
	Version   bool   `env:"-"` // show client version and exit (flag only)
}

const (
	defaultPageSize         = 20
	defaultPrefetchDistance = 5
	defaultSeedUser         = "large"
	defaultSeedCount        = 1000
)

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{PrefetchDistance: -1, SeedUser: defaultSeedUser, SeedCount: -1}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	// Server flags
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД (путь SQLite или postgres://)")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT")
	flag.StringVar(&cfg.StorageRoot, "storage", cfg.StorageRoot, "каталог для вынесенных тел записей")
	flag.StringVar(&cfg.CredentialsFile, "credentials", cfg.CredentialsFile, "файл учётных данных (YAML)")
	flag.IntVar(&cfg.PageSize, "page-size", cfg.PageSize, "размер страницы списков")
	flag.IntVar(&cfg.PrefetchDistance, "prefetch", cfg.PrefetchDistance, "расстояние упреждающей загрузки страницы")
	flag.StringVar(&cfg.SeedUser, "seed-user", cfg.SeedUser, "пользователь, получающий демо-данные (пусто: отключено)")
	flag.IntVar(&cfg.SeedCount, "seed-count", cfg.SeedCount, "число демо-записей каждого вида")
	// Shared/client flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "address of the Flow server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS (client: prefer https scheme for BaseURL)")
	// Client flags
	flag.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "path to auth token file (client)")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	// Defaults
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = filepath.Join("data", "flow.db")
	}
	if cfg.StorageRoot == "" {
		cfg.StorageRoot = filepath.Join("data", "files")
	}
	if cfg.CredentialsFile == "" {
		cfg.CredentialsFile = filepath.Join("data", "credentials.yaml")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.PrefetchDistance < 0 || cfg.PrefetchDistance >= cfg.PageSize {
		cfg.PrefetchDistance = min(defaultPrefetchDistance, cfg.PageSize-1)
	}
	if cfg.SeedCount < 0 {
		cfg.SeedCount = defaultSeedCount
	}

	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}

	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}

	// Fill client defaults if empty
	if cfg.TokenFile == "" {
		home, _ := os.UserHomeDir()
		cfg.TokenFile = filepath.Join(home, ".flow_token")
	}

	return cfg
}
