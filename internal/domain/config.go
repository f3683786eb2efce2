package domain

import "time"

// Config is the top-level application configuration, unmarshalled by
// internal/config.Manager via viper/mapstructure.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	ExternalAPI  ExternalAPIConfig  `mapstructure:"external_api"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
}

// ServerConfig is retained from the teacher for parity of shape; the CLI is
// the only consumer in this module (no HTTP surface is exposed).
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig addresses the downstream contract checker's pgxpool probe
// (internal/dbcontract); no rows are ever written by this module.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int32         `mapstructure:"max_open_conns"`
	MaxIdleConns    int32         `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ExternalAPIConfig holds one sub-struct per C3 source adapter.
type ExternalAPIConfig struct {
	UniProt    HostConfig `mapstructure:"uniprot"`
	ClinVar    HostConfig `mapstructure:"clinvar"`
	PharmGKB   HostConfig `mapstructure:"pharmgkb"`
	ChEMBL     HostConfig `mapstructure:"chembl"`
	OpenFDA    HostConfig `mapstructure:"openfda"`
	EuropePMC  HostConfig `mapstructure:"europepmc"`
	BioPortal  HostConfig `mapstructure:"bioportal"`
	RxNorm     HostConfig `mapstructure:"rxnorm"`
	ClinicalTables HostConfig `mapstructure:"clinical_tables"`
}

// HostConfig is one registered host for the C1 rate-limited client.
type HostConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Email      string        `mapstructure:"email"` // required by NCBI e-utilities
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  float64       `mapstructure:"rate_limit"` // requests/second
	RetryCount int           `mapstructure:"retry_count"`
	MaxElapsed time.Duration `mapstructure:"max_elapsed"`
}

// CacheConfig configures the C2 resolver's two-tier cache.
type CacheConfig struct {
	RedisURL    string        `mapstructure:"redis_url"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
	LocalSize   int           `mapstructure:"local_size"` // in-process LRU entry cap
}

// LoggingConfig configures logrus.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "text"
	Output string `mapstructure:"output"` // "stdout" or a file path
}

// OrchestratorConfig sizes the C5 worker pool and the C6 event queue.
type OrchestratorConfig struct {
	MaxWorkers      int           `mapstructure:"max_workers"`
	EventQueueSize  int           `mapstructure:"event_queue_size"`
	PhaseTimeout    time.Duration `mapstructure:"phase_timeout"`
	BioPortalAPIKey string        `mapstructure:"bioportal_api_key"`
}
