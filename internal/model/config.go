package model

import "time"

// Config is the full engine configuration. Values merge from defaults, the
// config file (~/.linkproof/config.yaml), LINKPROOF_* environment variables,
// and CLI flags, in ascending priority.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Trust       TrustConfig       `yaml:"trust" mapstructure:"trust"`
	Scoring     ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// HTTPConfig configures the outbound link fetcher.
type HTTPConfig struct {
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent      string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryDelay     time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	CheckRobots    bool          `yaml:"check_robots" mapstructure:"check_robots"`
	DomainRate     float64       `yaml:"domain_rate" mapstructure:"domain_rate"` // requests/sec per domain
	DomainBurst    int           `yaml:"domain_burst" mapstructure:"domain_burst"`
}

// ConcurrencyConfig bounds in-flight work.
type ConcurrencyConfig struct {
	FetchWorkers int `yaml:"fetch_workers" mapstructure:"fetch_workers"`
}

// TrustConfig configures the domain trust scorer. TLDScores match on the last
// domain segment or on ".<key>" anywhere in the domain.
type TrustConfig struct {
	Blacklist      []string           `yaml:"blacklist" mapstructure:"blacklist"`
	TLDScores      map[string]float64 `yaml:"tld_scores" mapstructure:"tld_scores"`
	BlacklistScore float64            `yaml:"blacklist_score" mapstructure:"blacklist_score"`
	MalformedScore float64            `yaml:"malformed_score" mapstructure:"malformed_score"`
	DefaultScore   float64            `yaml:"default_score" mapstructure:"default_score"`
}

// ScoringConfig holds the supportive-link thresholds and the relevance
// weights. The five weights sum to 1.0.
type ScoringConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	DomainThreshold     float64 `yaml:"domain_threshold" mapstructure:"domain_threshold"`

	WeightUpvotes      float64 `yaml:"weight_upvotes" mapstructure:"weight_upvotes"`
	WeightReputation   float64 `yaml:"weight_reputation" mapstructure:"weight_reputation"`
	WeightSourceTrust  float64 `yaml:"weight_source_trust" mapstructure:"weight_source_trust"`
	WeightTopicalMatch float64 `yaml:"weight_topical_match" mapstructure:"weight_topical_match"`
	WeightRecency      float64 `yaml:"weight_recency" mapstructure:"weight_recency"`

	VoteSaturation       int     `yaml:"vote_saturation" mapstructure:"vote_saturation"`             // net upvotes at which the factor hits 1.0
	ReputationSaturation int     `yaml:"reputation_saturation" mapstructure:"reputation_saturation"` // reputation at which the factor hits 1.0
	RecencyWindowDays    float64 `yaml:"recency_window_days" mapstructure:"recency_window_days"`
	AcceptedAnswerPoints int     `yaml:"accepted_answer_points" mapstructure:"accepted_answer_points"`
	FetchFailurePenalty  float64 `yaml:"fetch_failure_penalty" mapstructure:"fetch_failure_penalty"` // multiplier on domain score when the fetch degrades
	MissingDomainWeight  float64 `yaml:"missing_domain_weight" mapstructure:"missing_domain_weight"`
}

// CacheConfig configures the fetched-page TTL cache. A zero PageTTL disables
// caching entirely.
type CacheConfig struct {
	PageTTL         time.Duration `yaml:"page_ttl" mapstructure:"page_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
}

// StoreConfig selects the Q&A store backend.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "memory"
	Path   string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures the global zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "json" or "console"
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      10 * time.Second,
			UserAgent:    "Mozilla/5.0 (compatible; LinkVerifier/1.0; +https://chargingthefuture.com)",
			MaxBodyBytes: 2_000_000,
			MaxAttempts:  3,
			RetryDelay:   time.Second,
			CheckRobots:  false,
			DomainRate:   2,
			DomainBurst:  4,
		},
		Concurrency: ConcurrencyConfig{
			FetchWorkers: 8,
		},
		Trust: TrustConfig{
			Blacklist: nil,
			TLDScores: map[string]float64{
				"edu":  0.9,
				"gov":  0.9,
				"org":  0.7,
				"com":  0.5,
				"net":  0.5,
				"info": 0.3,
				"biz":  0.3,
			},
			BlacklistScore: 0.1,
			MalformedScore: 0.3,
			DefaultScore:   0.4,
		},
		Scoring: ScoringConfig{
			SimilarityThreshold:  0.3,
			DomainThreshold:      0.4,
			WeightUpvotes:        0.35,
			WeightReputation:     0.20,
			WeightSourceTrust:    0.25,
			WeightTopicalMatch:   0.15,
			WeightRecency:        0.05,
			VoteSaturation:       10,
			ReputationSaturation: 100,
			RecencyWindowDays:    30,
			AcceptedAnswerPoints: 10,
			FetchFailurePenalty:  0.5,
			MissingDomainWeight:  0.5,
		},
		Cache: CacheConfig{
			PageTTL:         15 * time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "linkproof.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
