package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const ENV_PREFIX = "WALLET_SIDECAR"

type Chain string

func (c Chain) String() string {
	return string(c)
}

const (
	Chain_Mainnet Chain = "mainnet"
	Chain_Local   Chain = "local"
)

type QueryStrategy string

const (
	QueryStrategy_Query          QueryStrategy = "query"
	QueryStrategy_Update         QueryStrategy = "update"
	QueryStrategy_QueryAndUpdate QueryStrategy = "query_and_update"
)

// Flag names. Nested values use dots, e.g. "database.host" is read from
// WALLET_SIDECAR_DATABASE_HOST.
const (
	Debug     = "debug"
	ChainFlag = "chain"
	Principal = "principal"

	AgentHost    = "agent.host"
	AgentTimeout = "agent.timeout"

	ProjectsFile = "projects.file"

	CoingeckoApiKey     = "coingecko.api-key"
	CoingeckoBaseUrl    = "coingecko.base-url"
	CoingeckoVsCurrency = "coingecko.vs-currency"

	DatabaseEnabled     = "database.enabled"
	DatabaseHost        = "database.host"
	DatabasePort        = "database.port"
	DatabaseUser        = "database.user"
	DatabasePassword    = "database.password"
	DatabaseDbName      = "database.db_name"
	DatabaseSchemaName  = "database.schema_name"
	DatabaseSSLMode     = "database.ssl_mode"
	DatabaseSSLCert     = "database.ssl_cert"
	DatabaseSSLKey      = "database.ssl_key"
	DatabaseSSLRootCert = "database.ssl_root_cert"

	RpcHttpPort = "rpc.http-port"

	PrometheusEnabled = "prometheus.enabled"
	PrometheusPort    = "prometheus.port"

	DataDogStatsdEnabled    = "datadog.statsd.enabled"
	DataDogStatsdUrl        = "datadog.statsd.url"
	DataDogStatsdSampleRate = "datadog.statsd.sample_rate"
	DataDogEnableTracing    = "datadog.enable_tracing"

	SyncRefreshSchedule   = "sync.refresh-schedule"
	SyncSwapPollInterval  = "sync.swap-poll-interval"
	SyncQueryStrategy     = "sync.query-strategy"
	SyncRetryInitialDelay = "sync.retry.initial-delay"
	SyncRetryMaxDelay     = "sync.retry.max-delay"
	SyncRetryMaxAttempts  = "sync.retry.max-attempts"

	ExportDirectory = "export.directory"
	SnapshotFile    = "snapshot-file"
)

type AgentConfig struct {
	Host    string
	Timeout time.Duration
}

type ProjectConfig struct {
	Id                   string `yaml:"id"`
	Name                 string `yaml:"name"`
	Symbol               string `yaml:"symbol"`
	GovernanceCanisterId string `yaml:"governance_canister_id"`
	LedgerCanisterId     string `yaml:"ledger_canister_id"`
	IndexCanisterId      string `yaml:"index_canister_id"`
	SwapCanisterId       string `yaml:"swap_canister_id"`
	CoingeckoId          string `yaml:"coingecko_id"`
}

type CoingeckoConfig struct {
	ApiKey     string
	BaseUrl    string
	VsCurrency string
}

type DatabaseConfig struct {
	Enabled     bool
	Host        string
	Port        int
	User        string
	Password    string
	DbName      string
	SchemaName  string
	SSLMode     string
	SSLCert     string
	SSLKey      string
	SSLRootCert string
}

type RpcConfig struct {
	HttpPort int
}

type PrometheusConfig struct {
	Enabled bool
	Port    int
}

type StatsdConfig struct {
	Enabled    bool
	Url        string
	SampleRate float64
}

type DataDogConfig struct {
	StatsdConfig  StatsdConfig
	EnableTracing bool
}

type RetryConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

type SyncConfig struct {
	RefreshSchedule  string
	SwapPollInterval time.Duration
	QueryStrategy    QueryStrategy
	Retry            RetryConfig
}

type ExportConfig struct {
	Directory string
}

type Config struct {
	Debug     bool
	Chain     Chain
	Principal string

	AgentConfig      AgentConfig
	Projects         []*ProjectConfig
	CoingeckoConfig  CoingeckoConfig
	DatabaseConfig   DatabaseConfig
	RpcConfig        RpcConfig
	PrometheusConfig PrometheusConfig
	DataDogConfig    DataDogConfig
	SyncConfig       SyncConfig
	ExportConfig     ExportConfig
	SnapshotFile     string
}

func StringWithDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func durationWithDefault(value, defaultValue time.Duration) time.Duration {
	if value <= 0 {
		return defaultValue
	}
	return value
}

func parseChain(name string) Chain {
	switch Chain(strings.ToLower(name)) {
	case Chain_Local:
		return Chain_Local
	default:
		return Chain_Mainnet
	}
}

func parseQueryStrategy(s string) QueryStrategy {
	switch QueryStrategy(s) {
	case QueryStrategy_Query, QueryStrategy_Update:
		return QueryStrategy(s)
	default:
		return QueryStrategy_QueryAndUpdate
	}
}

// NewConfig reads every value from viper. Flags must already be bound.
func NewConfig() *Config {
	chain := parseChain(viper.GetString(normalizeFlagName(ChainFlag)))

	return &Config{
		Debug:     viper.GetBool(normalizeFlagName(Debug)),
		Chain:     chain,
		Principal: viper.GetString(normalizeFlagName(Principal)),

		AgentConfig: AgentConfig{
			Host:    StringWithDefault(viper.GetString(normalizeFlagName(AgentHost)), DefaultAgentHost(chain)),
			Timeout: durationWithDefault(viper.GetDuration(normalizeFlagName(AgentTimeout)), 30*time.Second),
		},

		CoingeckoConfig: CoingeckoConfig{
			ApiKey:     viper.GetString(normalizeFlagName(CoingeckoApiKey)),
			BaseUrl:    StringWithDefault(viper.GetString(normalizeFlagName(CoingeckoBaseUrl)), "https://api.coingecko.com/api/v3"),
			VsCurrency: StringWithDefault(viper.GetString(normalizeFlagName(CoingeckoVsCurrency)), "usd"),
		},

		DatabaseConfig: DatabaseConfig{
			Enabled:     viper.GetBool(normalizeFlagName(DatabaseEnabled)),
			Host:        viper.GetString(normalizeFlagName(DatabaseHost)),
			Port:        viper.GetInt(normalizeFlagName(DatabasePort)),
			User:        viper.GetString(normalizeFlagName(DatabaseUser)),
			Password:    viper.GetString(normalizeFlagName(DatabasePassword)),
			DbName:      viper.GetString(normalizeFlagName(DatabaseDbName)),
			SchemaName:  viper.GetString(normalizeFlagName(DatabaseSchemaName)),
			SSLMode:     StringWithDefault(viper.GetString(normalizeFlagName(DatabaseSSLMode)), "disable"),
			SSLCert:     viper.GetString(normalizeFlagName(DatabaseSSLCert)),
			SSLKey:      viper.GetString(normalizeFlagName(DatabaseSSLKey)),
			SSLRootCert: viper.GetString(normalizeFlagName(DatabaseSSLRootCert)),
		},

		RpcConfig: RpcConfig{
			HttpPort: viper.GetInt(normalizeFlagName(RpcHttpPort)),
		},

		PrometheusConfig: PrometheusConfig{
			Enabled: viper.GetBool(normalizeFlagName(PrometheusEnabled)),
			Port:    viper.GetInt(normalizeFlagName(PrometheusPort)),
		},

		DataDogConfig: DataDogConfig{
			StatsdConfig: StatsdConfig{
				Enabled:    viper.GetBool(normalizeFlagName(DataDogStatsdEnabled)),
				Url:        viper.GetString(normalizeFlagName(DataDogStatsdUrl)),
				SampleRate: viper.GetFloat64(normalizeFlagName(DataDogStatsdSampleRate)),
			},
			EnableTracing: viper.GetBool(normalizeFlagName(DataDogEnableTracing)),
		},

		SyncConfig: SyncConfig{
			RefreshSchedule:  StringWithDefault(viper.GetString(normalizeFlagName(SyncRefreshSchedule)), "@every 5m"),
			SwapPollInterval: durationWithDefault(viper.GetDuration(normalizeFlagName(SyncSwapPollInterval)), 10*time.Second),
			QueryStrategy:    parseQueryStrategy(viper.GetString(normalizeFlagName(SyncQueryStrategy))),
			Retry: RetryConfig{
				InitialDelay: durationWithDefault(viper.GetDuration(normalizeFlagName(SyncRetryInitialDelay)), 500*time.Millisecond),
				MaxDelay:     durationWithDefault(viper.GetDuration(normalizeFlagName(SyncRetryMaxDelay)), 30*time.Second),
				MaxAttempts:  viper.GetInt(normalizeFlagName(SyncRetryMaxAttempts)),
			},
		},

		ExportConfig: ExportConfig{
			Directory: StringWithDefault(viper.GetString(normalizeFlagName(ExportDirectory)), "./exports"),
		},

		SnapshotFile: viper.GetString(normalizeFlagName(SnapshotFile)),
		Projects:     DefaultProjects(chain),
	}
}

func DefaultAgentHost(chain Chain) string {
	if chain == Chain_Local {
		return "http://127.0.0.1:4943"
	}
	return "https://icp-api.io"
}

const NnsProjectId = "nns"

// DefaultProjects returns the NNS project with the well-known canister ids of the chain.
func DefaultProjects(chain Chain) []*ProjectConfig {
	nns := &ProjectConfig{
		Id:                   NnsProjectId,
		Name:                 "Internet Computer",
		Symbol:               "ICP",
		GovernanceCanisterId: "rrkah-fqaaa-aaaaa-aaaaq-cai",
		LedgerCanisterId:     "ryjl3-tyaaa-aaaaa-aaaba-cai",
		IndexCanisterId:      "qhbym-qaaaa-aaaaa-aaafq-cai",
		CoingeckoId:          "internet-computer",
	}
	if chain == Chain_Local {
		nns.CoingeckoId = ""
	}
	return []*ProjectConfig{nns}
}

type projectsFile struct {
	Projects []*ProjectConfig `yaml:"projects"`
}

// LoadProjects appends the projects listed in a YAML file to the configured ones.
// Entries reusing an existing id replace it.
func (c *Config) LoadProjects(path string) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read projects file: %w", err)
	}
	var pf projectsFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return fmt.Errorf("failed to parse projects file: %w", err)
	}
	for _, p := range pf.Projects {
		if p.Id == "" || p.GovernanceCanisterId == "" || p.LedgerCanisterId == "" {
			return fmt.Errorf("project %q requires id, governance_canister_id and ledger_canister_id", p.Id)
		}
		replaced := false
		for i, existing := range c.Projects {
			if existing.Id == p.Id {
				c.Projects[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			c.Projects = append(c.Projects, p)
		}
	}
	return nil
}

func (c *Config) GetProject(id string) *ProjectConfig {
	for _, p := range c.Projects {
		if p.Id == id {
			return p
		}
	}
	return nil
}

func (c *Config) GetDatabaseSchemaName() string {
	return StringWithDefault(c.DatabaseConfig.SchemaName, "public")
}

func (c *Config) IsStatsdEnabled() bool {
	return c.DataDogConfig.StatsdConfig.Enabled && c.DataDogConfig.StatsdConfig.Url != ""
}

func KebabToSnakeCase(str string) string {
	return strings.ReplaceAll(str, "-", "_")
}

func normalizeFlagName(name string) string {
	return KebabToSnakeCase(name)
}
