package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every service setting.
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Store  StoreConfig
	Events EventsConfig
	Chat   ChatConfig
	Log    LogConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		AI:     ai,
		Store:  store,
		Events: loadEventsConfig(),
		Chat:   chat,
		Log:    logCfg,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8001"
	}

	if strings.Contains(port, ":") {
		// accepts ":8001" or "127.0.0.1:8001"
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

// AIConfig describes the model provider.
type AIConfig struct {
	Provider string

	// OpenAI-compatible provider (langchaingo).
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	CodeModel     string

	// Ark provider (eino).
	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string

	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	StreamResponse bool
	Timeout        time.Duration
}

// Enabled reports whether the selected provider has the credentials it needs.
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderArk:
		return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
	case ProviderOpenAI:
		return c.OpenAIKey != "" && c.OpenAIModel != ""
	default:
		return false
	}
}

// ChatModelName is the model used for general conversations.
func (c AIConfig) ChatModelName() string {
	if c.Provider == ProviderArk {
		return c.Model
	}
	return c.OpenAIModel
}

// CodeModelName is the model used for DevForge code generation.
func (c AIConfig) CodeModelName() string {
	if c.Provider == ProviderArk {
		return c.Model
	}
	if c.CodeModel != "" {
		return c.CodeModel
	}
	return c.OpenAIModel
}

// WithModel returns a copy targeting a different model name.
func (c AIConfig) WithModel(name string) AIConfig {
	if name == "" {
		return c
	}
	if c.Provider == ProviderArk {
		c.Model = name
	} else {
		c.OpenAIModel = name
	}
	return c
}

// NewChatModel creates an Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.Provider != ProviderArk || !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: provide ARK_API_KEY + Model or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	stream, err := parseBoolEnv("ARK_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationEnv("AI_TIMEOUT", 60*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	openAIKey := strings.TrimSpace(os.Getenv("EMERGENT_LLM_KEY"))
	if openAIKey == "" {
		openAIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}

	cfg := AIConfig{
		OpenAIKey:      openAIKey,
		OpenAIBaseURL:  getEnvOrDefault("OPENAI_BASE_URL", ""),
		OpenAIModel:    getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		CodeModel:      getEnvOrDefault("DEVFORGE_MODEL", "gpt-4o"),
		APIKey:         strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:      strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:      strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:          strings.TrimSpace(os.Getenv("Model")),
		BaseURL:        getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:         getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		StreamResponse: stream,
		Timeout:        timeout,
	}

	provider := strings.ToLower(strings.TrimSpace(os.Getenv("AI_PROVIDER")))
	switch provider {
	case "":
		cfg.Provider = ProviderOpenAI
		if cfg.OpenAIKey == "" && (cfg.APIKey != "" || cfg.AccessKey != "") {
			cfg.Provider = ProviderArk
		}
	case ProviderOpenAI, ProviderArk:
		cfg.Provider = provider
	default:
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	return cfg, nil
}

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// StoreConfig selects the conversation/project store backend.
type StoreConfig struct {
	Driver      string
	DatabaseURL string
}

func loadStoreConfig() (StoreConfig, error) {
	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER")))
	if driver == "" {
		driver = DriverMemory
		if databaseURL != "" {
			driver = DriverPostgres
		}
	}

	switch driver {
	case DriverMemory:
	case DriverPostgres:
		if databaseURL == "" {
			return StoreConfig{}, fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return StoreConfig{}, fmt.Errorf("invalid STORE_DRIVER value %q", driver)
	}

	return StoreConfig{Driver: driver, DatabaseURL: databaseURL}, nil
}

// EventsConfig describes the optional NATS publisher.
type EventsConfig struct {
	NatsURL       string
	NatsToken     string
	SubjectPrefix string
}

// Enabled reports whether turn events should be published.
func (c EventsConfig) Enabled() bool {
	return c.NatsURL != ""
}

func loadEventsConfig() EventsConfig {
	return EventsConfig{
		NatsURL:       strings.TrimSpace(os.Getenv("NATS_URL")),
		NatsToken:     strings.TrimSpace(os.Getenv("NATS_TOKEN")),
		SubjectPrefix: getEnvOrDefault("EVENTS_SUBJECT_PREFIX", "creatorsurge"),
	}
}

// ChatConfig tunes conversation behaviour.
type ChatConfig struct {
	HistoryLimit      int
	CodeHistoryLimit  int
	AppBuilderEnabled bool
	DeployDomain      string
}

func loadChatConfig() (ChatConfig, error) {
	history, err := parsePositiveIntEnv("CHAT_HISTORY_LIMIT", 10)
	if err != nil {
		return ChatConfig{}, err
	}

	codeHistory, err := parsePositiveIntEnv("CODE_HISTORY_LIMIT", 5)
	if err != nil {
		return ChatConfig{}, err
	}

	appBuilder, err := parseBoolEnv("CHAT_APPBUILDER_ENABLED", true)
	if err != nil {
		return ChatConfig{}, err
	}

	return ChatConfig{
		HistoryLimit:      history,
		CodeHistoryLimit:  codeHistory,
		AppBuilderEnabled: appBuilder,
		DeployDomain:      getEnvOrDefault("DEVFORGE_DEPLOY_DOMAIN", "devforge.app"),
	}, nil
}

// LogConfig describes the zap logger.
type LogConfig struct {
	Level       string
	Development bool
}

func loadLogConfig() (LogConfig, error) {
	dev, err := parseBoolEnv("LOG_DEVELOPMENT", false)
	if err != nil {
		return LogConfig{}, err
	}
	return LogConfig{
		Level:       strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Development: dev,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parsePositiveIntEnv(key string, defaultValue int) (int, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	if *val < 1 {
		return 0, fmt.Errorf("invalid %s value %d: must be positive", key, *val)
	}
	return *val, nil
}

// parseDurationEnv accepts Go durations ("90s") or plain seconds ("90").
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	if seconds, err := strconv.Atoi(raw); err == nil {
		if seconds < 1 {
			return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
		}
		return time.Duration(seconds) * time.Second, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return d, nil
}
