package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// LLMProvider defines the backend LLM service used by the suspicious-message
// validator.
type LLMProvider string

const (
	ProviderNone       LLMProvider = "none"       // Validator disabled, aggregator decision is final
	ProviderOllama     LLMProvider = "ollama"     // Local Ollama server
	ProviderOpenRouter LLMProvider = "openrouter" // OpenRouter (default, has free tier)
	ProviderGroq       LLMProvider = "groq"       // Groq (high-speed inference)
	ProviderOpenAI     LLMProvider = "openai"     // Direct OpenAI API
	ProviderCustom     LLMProvider = "custom"     // Custom OpenAI-compatible endpoint
)

// Config holds global settings for the snare honeypot gateway.
// All settings can be configured via environment variables or programmatically.
type Config struct {
	// === Core Settings ===
	ListenAddr string // HTTP listen address (default: ":8080")
	APIKey     string // Static API key checked on inbound requests (REQUIRED in production)

	// === Risk Thresholds (0.0 - 1.0) ===
	ScamThreshold       float64 // Aggregated score above this = scam (default: 0.51)
	SuspiciousThreshold float64 // Aggregated score above this = suspicious (default: 0.35)
	ScorerConfigPath    string  // Optional YAML file overriding aggregator weights/thresholds

	// === Velocity Monitor ===
	VelocityWindow     time.Duration // Trailing window for sustained-rate check (default: 5m)
	VelocityThreshold  int           // Messages in window before sustained_high_velocity (default: 10)
	BurstWindow        time.Duration // Trailing window for burst check (default: 30s)
	BurstThreshold     int           // Messages in window before burst_pattern (default: 5)
	VelocityBoost      float64       // Score boost on violation (default: 0.15)
	VelocityBoostBelow float64       // Boost applies only when score is below this (default: 0.60)

	// === Callback / Reporting ===
	CallbackURL       string        // Evaluator endpoint for finalized sessions (REQUIRED in production)
	CallbackTimeout   time.Duration // Per-delivery timeout (default: 10s)
	MaxConcurrentDisp int           // Cap on in-flight callback deliveries (default: 8)

	// === LLM Validator (suspicious decisions only) ===
	LLMProvider   LLMProvider // Which LLM service to use, "none" disables the validator
	LLMAPIKey     string      // API key for cloud providers
	LLMModel      string      // Model identifier
	LLMBaseURL    string      // Custom base URL for self-hosted or custom providers
	LLMTimeout    time.Duration
	EnableLLMTier bool // Enable the generative validator for suspicious decisions

	// === Feature Flags ===
	EnableSophistication bool // Embedding-based multi-turn manipulation analysis
	EnableReviewQueue    bool // Human review queue for suspicious/overridden decisions

	// === Stores ===
	RedisAddr   string        // Non-empty selects the Redis session store
	RedisDB     int           // Redis logical database (default: 0)
	PostgresDSN string        // Non-empty enables the decision log / review queue
	SessionTTL  time.Duration // Idle session expiry (default: 1h)
}

// NewDefaultConfig creates a Config with sensible defaults.
// All settings can be overridden via environment variables.
func NewDefaultConfig() *Config {
	cfg := &Config{
		ListenAddr: GetEnv("SNARE_LISTEN_ADDR", ":8080"),
		APIKey:     GetEnv("SNARE_API_KEY", ""),

		ScamThreshold:       GetEnvFloat("SNARE_SCAM_THRESHOLD", 0.51),
		SuspiciousThreshold: GetEnvFloat("SNARE_SUSPICIOUS_THRESHOLD", 0.35),
		ScorerConfigPath:    GetEnv("SNARE_SCORER_CONFIG", ""),

		VelocityWindow:     time.Duration(GetEnvInt("SNARE_VELOCITY_WINDOW_SECONDS", 300)) * time.Second,
		VelocityThreshold:  GetEnvInt("SNARE_VELOCITY_THRESHOLD", 10),
		BurstWindow:        time.Duration(GetEnvInt("SNARE_BURST_WINDOW_SECONDS", 30)) * time.Second,
		BurstThreshold:     GetEnvInt("SNARE_BURST_THRESHOLD", 5),
		VelocityBoost:      GetEnvFloat("SNARE_VELOCITY_BOOST", 0.15),
		VelocityBoostBelow: GetEnvFloat("SNARE_VELOCITY_BOOST_BELOW", 0.60),

		CallbackURL:       GetEnv("SNARE_CALLBACK_URL", ""),
		CallbackTimeout:   time.Duration(GetEnvInt("SNARE_CALLBACK_TIMEOUT_SECONDS", 10)) * time.Second,
		MaxConcurrentDisp: clampInt(GetEnvInt("SNARE_MAX_CONCURRENT_CALLBACKS", 8), 1, 256),

		LLMProvider:   detectLLMProvider(),
		LLMAPIKey:     GetEnv("SNARE_LLM_API_KEY", GetEnv("GROQ_API_KEY", os.Getenv("OPENROUTER_API_KEY"))),
		LLMModel:      GetEnv("SNARE_LLM_MODEL", "nvidia/nemotron-3-nano-30b-a3b:free"),
		LLMBaseURL:    GetEnv("SNARE_LLM_BASE_URL", ""),
		LLMTimeout:    time.Duration(GetEnvInt("SNARE_LLM_TIMEOUT_MS", 8000)) * time.Millisecond,
		EnableLLMTier: GetEnvBool("SNARE_ENABLE_LLM", false),

		EnableSophistication: GetEnvBool("SNARE_ENABLE_SOPHISTICATION", false),
		EnableReviewQueue:    GetEnvBool("SNARE_ENABLE_REVIEW_QUEUE", true),

		RedisAddr:   GetEnv("SNARE_REDIS_ADDR", ""),
		RedisDB:     GetEnvInt("SNARE_REDIS_DB", 0),
		PostgresDSN: GetEnv("SNARE_POSTGRES_DSN", ""),
		SessionTTL:  time.Duration(GetEnvInt("SNARE_SESSION_TTL_SECONDS", 3600)) * time.Second,
	}

	return cfg
}

// clampInt ensures a value is within bounds
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func detectLLMProvider() LLMProvider {
	// Check explicit provider setting first
	if p := os.Getenv("SNARE_LLM_PROVIDER"); p != "" {
		return LLMProvider(p)
	}
	// Auto-detect based on available keys
	if os.Getenv("GROQ_API_KEY") != "" {
		return ProviderGroq
	}
	if os.Getenv("OPENROUTER_API_KEY") != "" || os.Getenv("SNARE_LLM_API_KEY") != "" {
		return ProviderOpenRouter
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return ProviderOpenAI
	}
	return ProviderNone
}

// Helper functions for environment variable parsing.
// Exported for use by other packages (e.g., pkg/ml).

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvSlice returns a comma-separated list from an environment variable or a default value.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

// RequiredSecret defines a required environment variable for startup validation
type RequiredSecret struct {
	Name        string // Environment variable name
	Description string // Human-readable description
	Production  bool   // Required in production only (false = required always)
}

// CriticalSecrets returns the list of secrets required for the gateway to operate
func CriticalSecrets() []RequiredSecret {
	return []RequiredSecret{
		{Name: "SNARE_API_KEY", Description: "API key for gateway authentication", Production: true},
		{Name: "SNARE_CALLBACK_URL", Description: "evaluator endpoint for finalized sessions", Production: true},
	}
}

// Validate checks that all required configuration is present.
// In production mode, this will return an error if critical secrets are missing.
// In development mode, it logs warnings but allows startup for local testing.
func (c *Config) Validate() error {
	env := strings.ToLower(os.Getenv("SNARE_ENV"))
	isProduction := env == "production" || env == "prod"

	var missing []string
	var warnings []string

	for _, secret := range CriticalSecrets() {
		if os.Getenv(secret.Name) != "" {
			continue
		}
		if secret.Production && !isProduction {
			warnings = append(warnings, secret.Name+" ("+secret.Description+")")
		} else {
			missing = append(missing, secret.Name+" ("+secret.Description+")")
		}
	}

	if c.SuspiciousThreshold >= c.ScamThreshold {
		missing = append(missing, "SNARE_SUSPICIOUS_THRESHOLD (must be below SNARE_SCAM_THRESHOLD)")
	}

	for _, w := range warnings {
		log.Printf("[STARTUP] Warning: Missing optional secret: %s", w)
	}

	if len(missing) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}

// MustValidate calls Validate and fatally exits if validation fails.
// Call this at startup before starting the server.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Fatalf("[STARTUP] FATAL: Configuration validation failed: %v", err)
	}
	log.Println("[STARTUP] Configuration validated successfully")
}
