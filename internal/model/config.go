package model

// Config is the full application configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database" mapstructure:"database"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Providers ProvidersConfig `yaml:"providers" mapstructure:"providers"`
	FactCheck FactCheckConfig `yaml:"factcheck" mapstructure:"factcheck"`
	Trust     TrustConfig     `yaml:"trust" mapstructure:"trust"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Decision  DecisionConfig  `yaml:"decision" mapstructure:"decision"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Schedule  ScheduleConfig  `yaml:"schedule" mapstructure:"schedule"`
}

// DatabaseConfig selects the analysis store
type DatabaseConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // memory, postgres
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// LogConfig configures the logger and optional rotating log file
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"` // text, json
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// LLMConfig configures the completion provider used by llm-backed classifiers
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`

	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// ProvidersConfig configures one signal provider per inference task
type ProvidersConfig struct {
	Content  ProviderConfig `yaml:"content" mapstructure:"content"`
	FakeNews ProviderConfig `yaml:"fake_news" mapstructure:"fake_news"`
	Emotion  ProviderConfig `yaml:"emotion" mapstructure:"emotion"`
}

// ProviderConfig configures a single signal provider
type ProviderConfig struct {
	Kind              string  `yaml:"kind" mapstructure:"kind"` // llm, http, "" (disabled)
	Model             string  `yaml:"model" mapstructure:"model"`       // llm model override
	Endpoint          string  `yaml:"endpoint" mapstructure:"endpoint"` // http inference URL
	APIKey            string  `yaml:"api_key" mapstructure:"api_key"`
	Timeout           int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// FactCheckConfig configures the claim-review search collector
type FactCheckConfig struct {
	APIKey            string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	Language          string  `yaml:"language" mapstructure:"language"`
	PageSize          int     `yaml:"page_size" mapstructure:"page_size"`
	MinSimilarity     float64 `yaml:"min_similarity" mapstructure:"min_similarity"`
	MaxRecords        int     `yaml:"max_records" mapstructure:"max_records"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Timeout           int     `yaml:"timeout" mapstructure:"timeout"` // seconds
}

// TrustConfig lists fact-check sources per tier and the external weight per tier
type TrustConfig struct {
	HighSources   []string `yaml:"high_sources" mapstructure:"high_sources"`
	MediumSources []string `yaml:"medium_sources" mapstructure:"medium_sources"`
	HighWeight    float64  `yaml:"high_weight" mapstructure:"high_weight"`
	MediumWeight  float64  `yaml:"medium_weight" mapstructure:"medium_weight"`
	UnknownWeight float64  `yaml:"unknown_weight" mapstructure:"unknown_weight"`
}

// CategoryAdjustment is the content score delta for one content category
type CategoryAdjustment struct {
	Category ContentCategory `yaml:"category" mapstructure:"category"`
	Delta    float64         `yaml:"delta" mapstructure:"delta"`
}

// RatingRule maps rating keywords to an external score. Rules are scanned in order.
type RatingRule struct {
	Keywords []string `yaml:"keywords" mapstructure:"keywords"`
	Score    float64  `yaml:"score" mapstructure:"score"`
}

// ScoringConfig holds the content and external scoring constants
type ScoringConfig struct {
	BaseScore            float64              `yaml:"base_score" mapstructure:"base_score"`
	CategoryAdjustments  []CategoryAdjustment `yaml:"category_adjustments" mapstructure:"category_adjustments"`
	FakePenaltyThreshold float64              `yaml:"fake_penalty_threshold" mapstructure:"fake_penalty_threshold"`
	FakePenalty          float64              `yaml:"fake_penalty" mapstructure:"fake_penalty"`
	ConfidenceMidpoint   float64              `yaml:"confidence_midpoint" mapstructure:"confidence_midpoint"`
	ConfidenceFactor     float64              `yaml:"confidence_factor" mapstructure:"confidence_factor"`
	NeutralExternalScore float64              `yaml:"neutral_external_score" mapstructure:"neutral_external_score"`
	RatingTable          []RatingRule         `yaml:"rating_table" mapstructure:"rating_table"`
}

// DecisionConfig holds the thresholds of the final-category rules and confidence levels
type DecisionConfig struct {
	TrustedReliable       float64 `yaml:"trusted_reliable" mapstructure:"trusted_reliable"`
	TrustedMostlyReliable float64 `yaml:"trusted_mostly_reliable" mapstructure:"trusted_mostly_reliable"`
	TrustedFake           float64 `yaml:"trusted_fake" mapstructure:"trusted_fake"`

	FakeHighConfidence   float64 `yaml:"fake_high_confidence" mapstructure:"fake_high_confidence"`
	FakeMediumConfidence float64 `yaml:"fake_medium_confidence" mapstructure:"fake_medium_confidence"`
	FakeLowScore         float64 `yaml:"fake_low_score" mapstructure:"fake_low_score"`

	RealReliable       float64 `yaml:"real_reliable" mapstructure:"real_reliable"`
	RealMostlyReliable float64 `yaml:"real_mostly_reliable" mapstructure:"real_mostly_reliable"`
	RealDoubtful       float64 `yaml:"real_doubtful" mapstructure:"real_doubtful"`

	FallbackReliable       float64 `yaml:"fallback_reliable" mapstructure:"fallback_reliable"`
	FallbackMostlyReliable float64 `yaml:"fallback_mostly_reliable" mapstructure:"fallback_mostly_reliable"`
	FallbackDoubtful       float64 `yaml:"fallback_doubtful" mapstructure:"fallback_doubtful"`
	FallbackLowReliability float64 `yaml:"fallback_low_reliability" mapstructure:"fallback_low_reliability"`

	ConfidenceVeryHigh float64 `yaml:"confidence_very_high" mapstructure:"confidence_very_high"`
	ConfidenceHigh     float64 `yaml:"confidence_high" mapstructure:"confidence_high"`
	ConfidenceMedium   float64 `yaml:"confidence_medium" mapstructure:"confidence_medium"`
}

// PipelineConfig configures the orchestrator
type PipelineConfig struct {
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
	CacheDir    string `yaml:"cache_dir" mapstructure:"cache_dir"`
	CacheTTL    int    `yaml:"cache_ttl" mapstructure:"cache_ttl"` // hours
	NoCache     bool   `yaml:"no_cache" mapstructure:"no_cache"`
}

// ServerConfig configures the read-only HTTP API
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// ScheduleConfig configures periodic batch runs
type ScheduleConfig struct {
	Cron      string `yaml:"cron" mapstructure:"cron"`
	Reconcile bool   `yaml:"reconcile" mapstructure:"reconcile"`
}

// DefaultConfig returns the canonical configuration
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Driver: "memory",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 200,
		},
		Providers: ProvidersConfig{
			Content:  defaultProvider(),
			FakeNews: defaultProvider(),
			Emotion:  ProviderConfig{Timeout: 30, RequestsPerSecond: 2, Burst: 2, MaxRetries: 1},
		},
		FactCheck: FactCheckConfig{
			BaseURL:           "https://factchecktools.googleapis.com/v1alpha1/claims:search",
			Language:          "fr",
			PageSize:          10,
			MinSimilarity:     0.3,
			MaxRecords:        3,
			RequestsPerSecond: 1,
			Timeout:           15,
		},
		Trust:    DefaultTrustConfig(),
		Scoring:  DefaultScoringConfig(),
		Decision: DefaultDecisionConfig(),
		Pipeline: PipelineConfig{
			Concurrency: 1,
			CacheTTL:    24 * 7,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Schedule: ScheduleConfig{
			Cron:      "*/30 * * * *",
			Reconcile: true,
		},
	}
}

func defaultProvider() ProviderConfig {
	return ProviderConfig{
		Kind:              "llm",
		Timeout:           30,
		RequestsPerSecond: 2,
		Burst:             2,
		MaxRetries:        1,
	}
}

// DefaultTrustConfig returns the canonical source lists and blend weights
func DefaultTrustConfig() TrustConfig {
	return TrustConfig{
		HighSources:   []string{"franceinfo", "afp factuel", "liberation", "le monde", "reuters", "bbc"},
		MediumSources: []string{"tf1 info", "20 minutes", "figaro", "ouest-france"},
		HighWeight:    0.8,
		MediumWeight:  0.6,
		UnknownWeight: 0.5,
	}
}

// DefaultScoringConfig returns the canonical content and external scoring constants
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		BaseScore: 50,
		CategoryAdjustments: []CategoryAdjustment{
			{Category: ContentFactual, Delta: 20},
			{Category: ContentGeneral, Delta: 10},
			{Category: ContentNeutralOpinion, Delta: 5},
			{Category: ContentPositiveOpinion, Delta: 0},
			{Category: ContentNegativeOpinion, Delta: -5},
			{Category: ContentUndetermined, Delta: -10},
		},
		FakePenaltyThreshold: 0.7,
		FakePenalty:          30,
		ConfidenceMidpoint:   0.5,
		ConfidenceFactor:     20,
		NeutralExternalScore: 50,
		RatingTable: []RatingRule{
			{Keywords: []string{"vrai", "true", "vérifié", "correct"}, Score: 95},
			{Keywords: []string{"plutôt vrai", "mostly true", "largement vrai"}, Score: 80},
			{Keywords: []string{"en partie vrai", "partly true", "partiellement vrai"}, Score: 65},
			{Keywords: []string{"plus compliqué", "mixed", "nuancé"}, Score: 50},
			{Keywords: []string{"plutôt faux", "mostly false", "largement faux"}, Score: 25},
			{Keywords: []string{"faux", "false", "fake", "mensonge"}, Score: 5},
			{Keywords: []string{"trompeur", "misleading"}, Score: 15},
			{Keywords: []string{"désinformation"}, Score: 10},
		},
	}
}

// DefaultDecisionConfig returns the canonical decision thresholds
func DefaultDecisionConfig() DecisionConfig {
	return DecisionConfig{
		TrustedReliable:       80,
		TrustedMostlyReliable: 60,
		TrustedFake:           30,

		FakeHighConfidence:   0.8,
		FakeMediumConfidence: 0.6,
		FakeLowScore:         30,

		RealReliable:       60,
		RealMostlyReliable: 40,
		RealDoubtful:       25,

		FallbackReliable:       70,
		FallbackMostlyReliable: 50,
		FallbackDoubtful:       40,
		FallbackLowReliability: 20,

		ConfidenceVeryHigh: 0.8,
		ConfidenceHigh:     0.7,
		ConfidenceMedium:   0.5,
	}
}
