package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env                  string           `yaml:"env" env-default:"local"`
	StoragePath          string           `yaml:"conn_string" env:"STORAGE_CONN"`
	AuthorizationCodeTTL time.Duration    `yaml:"authorization_code_ttl" env-default:"10m"`
	AccessTokenTTL       time.Duration    `yaml:"access_token_ttl" env-default:"1h"`
	RefreshTokenTTL      time.Duration    `yaml:"refresh_token_ttl" env-default:"720h"`
	HTTP                 HTTPConfig       `yaml:"http" env-required:"true"`
	Redis                RedisConfig      `yaml:"redis" env-required:"true"`
	Vault                VaultConfig      `yaml:"vault"`
	Embeddings           EmbeddingsConfig `yaml:"embeddings" env-required:"true"`
}

type HTTPConfig struct {
	Port            int           `yaml:"port" env-default:"8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
	// Issuer is the externally visible base URL advertised in discovery metadata
	Issuer string `yaml:"issuer" env-required:"true"`
}

type RedisConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Password        string        `yaml:"password"`
	DB              int           `yaml:"db"`
	SearchResultTTL time.Duration `yaml:"search_result_ttl" env-default:"5m"`
}

type VaultConfig struct {
	Mount string `yaml:"mount" env-default:"secret"`
	Path  string `yaml:"path" env-default:"docsearch"`
}

type EmbeddingsConfig struct {
	Endpoint string        `yaml:"endpoint" env-required:"true"`
	Model    string        `yaml:"model" env-default:"text-embedding-3-small"`
	Timeout  time.Duration `yaml:"timeout" env-default:"30s"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(path string) *Config {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		panic("config path does not exist: " + path)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// Priority: flag > env > default
func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}
	return res
}
