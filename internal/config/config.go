// Package config loads the engine's layered configuration via Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/ugent-pgx/knowledge-graph/internal/domain"
)

// Manager wraps a loaded and validated domain.Config.
type Manager struct {
	config     *domain.Config
	configFile string
}

// NewManager loads configuration from file, environment, and defaults,
// discovering the config file from the usual search paths.
func NewManager() (*Manager, error) {
	return NewManagerWithConfigFile("")
}

// NewManagerWithConfigFile loads configuration the same way NewManager does,
// but reads from configFile directly when it is non-empty (the CLI's
// --config flag) instead of searching the default paths.
func NewManagerWithConfigFile(configFile string) (*Manager, error) {
	m := &Manager{configFile: configFile}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

func (m *Manager) loadConfig() error {
	if m.configFile != "" {
		viper.SetConfigFile(m.configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/pgxkg/")
	}

	viper.SetEnvPrefix("PGX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

func (m *Manager) setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.database", "pgx_knowledge_graph")
	viper.SetDefault("database.username", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 10)
	viper.SetDefault("database.max_idle_conns", 2)
	viper.SetDefault("database.conn_max_lifetime", "5m")

	viper.SetDefault("external_api.uniprot.base_url", "https://rest.uniprot.org/uniprotkb/")
	viper.SetDefault("external_api.uniprot.timeout", "30s")
	viper.SetDefault("external_api.uniprot.rate_limit", 5)
	viper.SetDefault("external_api.uniprot.retry_count", 3)
	viper.SetDefault("external_api.uniprot.max_elapsed", "30s")

	viper.SetDefault("external_api.clinvar.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/")
	viper.SetDefault("external_api.clinvar.timeout", "30s")
	viper.SetDefault("external_api.clinvar.rate_limit", 3)
	viper.SetDefault("external_api.clinvar.retry_count", 3)
	viper.SetDefault("external_api.clinvar.max_elapsed", "30s")

	viper.SetDefault("external_api.pharmgkb.base_url", "https://api.pharmgkb.org/v1/")
	viper.SetDefault("external_api.pharmgkb.timeout", "30s")
	viper.SetDefault("external_api.pharmgkb.rate_limit", 5)
	viper.SetDefault("external_api.pharmgkb.retry_count", 3)

	viper.SetDefault("external_api.chembl.base_url", "https://www.ebi.ac.uk/chembl/api/data/")
	viper.SetDefault("external_api.chembl.timeout", "30s")
	viper.SetDefault("external_api.chembl.rate_limit", 5)
	viper.SetDefault("external_api.chembl.retry_count", 3)

	viper.SetDefault("external_api.openfda.base_url", "https://api.fda.gov/drug/")
	viper.SetDefault("external_api.openfda.timeout", "30s")
	viper.SetDefault("external_api.openfda.rate_limit", 4)
	viper.SetDefault("external_api.openfda.retry_count", 3)

	viper.SetDefault("external_api.europepmc.base_url", "https://www.ebi.ac.uk/europepmc/webservices/rest/")
	viper.SetDefault("external_api.europepmc.timeout", "30s")
	viper.SetDefault("external_api.europepmc.rate_limit", 5)
	viper.SetDefault("external_api.europepmc.retry_count", 3)

	viper.SetDefault("external_api.bioportal.base_url", "https://data.bioontology.org/")
	viper.SetDefault("external_api.bioportal.timeout", "20s")
	viper.SetDefault("external_api.bioportal.rate_limit", 5)
	viper.SetDefault("external_api.bioportal.retry_count", 2)

	viper.SetDefault("external_api.rxnorm.base_url", "https://rxnav.nlm.nih.gov/REST/")
	viper.SetDefault("external_api.rxnorm.timeout", "20s")
	viper.SetDefault("external_api.rxnorm.rate_limit", 10)
	viper.SetDefault("external_api.rxnorm.retry_count", 2)

	viper.SetDefault("external_api.clinical_tables.base_url", "https://clinicaltables.nlm.nih.gov/api/")
	viper.SetDefault("external_api.clinical_tables.timeout", "20s")
	viper.SetDefault("external_api.clinical_tables.rate_limit", 10)
	viper.SetDefault("external_api.clinical_tables.retry_count", 2)

	viper.SetDefault("cache.redis_url", "redis://localhost:6379")
	viper.SetDefault("cache.default_ttl", "24h")
	viper.SetDefault("cache.max_retries", 3)
	viper.SetDefault("cache.pool_size", 10)
	viper.SetDefault("cache.pool_timeout", "4s")
	viper.SetDefault("cache.local_size", 2048)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")

	viper.SetDefault("orchestrator.max_workers", 8)
	viper.SetDefault("orchestrator.event_queue_size", 256)
	viper.SetDefault("orchestrator.phase_timeout", "2m")
	viper.SetDefault("orchestrator.bioportal_api_key", "")
}

// GetConfig returns the complete configuration.
func (m *Manager) GetConfig() *domain.Config { return m.config }

// GetDatabaseConfig returns database configuration.
func (m *Manager) GetDatabaseConfig() *domain.DatabaseConfig { return &m.config.Database }

// GetExternalAPIConfig returns external API configuration.
func (m *Manager) GetExternalAPIConfig() *domain.ExternalAPIConfig { return &m.config.ExternalAPI }

// GetOrchestratorConfig returns orchestrator sizing configuration.
func (m *Manager) GetOrchestratorConfig() *domain.OrchestratorConfig { return &m.config.Orchestrator }

// Reload re-reads configuration from all sources.
func (m *Manager) Reload() error { return m.loadConfig() }

// Validate checks the loaded configuration for internal consistency.
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.ExternalAPI.UniProt.BaseURL == "" {
		return fmt.Errorf("UniProt base URL is required")
	}
	if config.ExternalAPI.ClinVar.BaseURL == "" {
		return fmt.Errorf("ClinVar base URL is required")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	if config.Orchestrator.MaxWorkers < 0 {
		return fmt.Errorf("orchestrator.max_workers must not be negative")
	}

	return nil
}

// GetDatabaseConnectionString returns a formatted pgx DSN.
func (m *Manager) GetDatabaseConnectionString() string {
	db := m.config.Database
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.Username, db.Password, db.Database, db.SSLMode)
}

// GetRedisConnectionString returns the Redis connection string.
func (m *Manager) GetRedisConnectionString() string {
	return m.config.Cache.RedisURL
}
