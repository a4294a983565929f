package config

import (
	"os"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"

	"github.com/lsiproject/propertyhub/internal/domain"
)

type Config struct {
	Server         Server         `yaml:"server"`
	Auth           Auth           `yaml:"auth"`
	Ledger         Ledger         `yaml:"ledger"`
	Services       Services       `yaml:"services"`
	Storage        Storage        `yaml:"storage"`
	Recommendation Recommendation `yaml:"recommendation"`
	Log            Log            `yaml:"log"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

type Auth struct {
	// TrustUpstreamSignature must be set to acknowledge that tokens are
	// signature-checked by the gateway before reaching this service.
	TrustUpstreamSignature bool   `yaml:"trustUpstreamSignature"`
	ClaimPolicy            string `yaml:"claimPolicy"` // strict, lenient
}

type Ledger struct {
	RPCURL          string `yaml:"rpcUrl"`
	ContractAddress string `yaml:"contractAddress"`
	PrivateKey      string `yaml:"privateKey"`
	ChainID         int64  `yaml:"chainId"`
	GasLimit        uint64 `yaml:"gasLimit"`
}

type Services struct {
	UserManagementURL string        `yaml:"userManagementUrl"`
	RecommenderURL    string        `yaml:"recommenderUrl"`
	PriceSuggestURL   string        `yaml:"priceSuggestUrl"`
	HeatmapURL        string        `yaml:"heatmapUrl"`
	Timeout           time.Duration `yaml:"timeout"`
	PredictionTTL     time.Duration `yaml:"predictionTTL"`
}

type Storage struct {
	URL    string `yaml:"url"`
	Key    string `yaml:"key"`
	Bucket string `yaml:"bucket"`
}

type Recommendation struct {
	Timeout time.Duration `yaml:"timeout"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}

	config.applyEnv()
	config.applyDefaults()

	err = config.Validate()
	if err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PROPERTYHUB_POSTGRES_DSN"); v != "" {
		c.Server.PostgresDsn = v
	}
	if v := os.Getenv("PROPERTYHUB_LEDGER_PRIVATE_KEY"); v != "" {
		c.Ledger.PrivateKey = v
	}
	if v := os.Getenv("PROPERTYHUB_STORAGE_KEY"); v != "" {
		c.Storage.Key = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8000"
	}
	if c.Services.UserManagementURL == "" {
		c.Services.UserManagementURL = "http://localhost:8081"
	}
	if c.Services.RecommenderURL == "" {
		c.Services.RecommenderURL = "http://localhost:8001"
	}
	if c.Services.Timeout == 0 {
		c.Services.Timeout = 3 * time.Second
	}
	if c.Services.PredictionTTL == 0 {
		c.Services.PredictionTTL = 10 * time.Minute
	}
	if c.Recommendation.Timeout == 0 {
		c.Recommendation.Timeout = 5 * time.Second
	}
	if c.Ledger.GasLimit == 0 {
		c.Ledger.GasLimit = 500_000
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = "property-images"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c Config) Validate() error {
	if c.Server.PostgresDsn == "" {
		return errors.New("server.postgresDsn is required")
	}
	if _, ok := domain.ParseClaimPolicy(c.Auth.ClaimPolicy); !ok {
		return errors.Errorf("unknown auth.claimPolicy %q", c.Auth.ClaimPolicy)
	}
	if !c.Auth.TrustUpstreamSignature {
		return errors.New("auth.trustUpstreamSignature must be true: tokens are not signature-checked by this service")
	}
	return nil
}
