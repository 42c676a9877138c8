package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/decoyops/snare/pkg/agent"
	"github.com/decoyops/snare/pkg/callback"
	"github.com/decoyops/snare/pkg/config"
	"github.com/decoyops/snare/pkg/feedback"
	"github.com/decoyops/snare/pkg/intel"
	"github.com/decoyops/snare/pkg/ml"
	"github.com/decoyops/snare/pkg/pipeline"
	"github.com/decoyops/snare/pkg/session"
	"github.com/decoyops/snare/pkg/telemetry"
)

const Version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		runServer()
	case "assess":
		if len(os.Args) < 3 {
			fmt.Println("Usage: snare assess <text>")
			os.Exit(1)
		}
		runAssess(strings.Join(os.Args[2:], " "))
	case "version":
		fmt.Printf("snare v%s\n", Version)
		fmt.Println("Conversational scam honeypot gateway")
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("snare v%s - conversational scam honeypot\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  snare serve           Start the honeypot gateway (default)")
	fmt.Println("  snare assess <text>   Score one message offline and print the decision trace")
	fmt.Println("  snare version         Show version")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  SNARE_LISTEN_ADDR     HTTP listen address (default :8080)")
	fmt.Println("  SNARE_API_KEY         Static API key for inbound requests")
	fmt.Println("  SNARE_CALLBACK_URL    Evaluator endpoint for finalized sessions")
	fmt.Println("  SNARE_REDIS_ADDR      Use Redis for session state instead of memory")
	fmt.Println("  SNARE_POSTGRES_DSN    Enable the decision log and review queue")
	fmt.Println("  SNARE_ENABLE_LLM      Enable the LLM validator for suspicious decisions")
	fmt.Println("  HUGOT_MODEL_PATH      Path to ONNX classifier model directory")
}

// resolveAggregatorConfig layers the threshold sources: built-in defaults,
// then the optional YAML scorer config, then env values when explicitly set.
func resolveAggregatorConfig(cfg *config.Config) ml.AggregatorConfig {
	aggCfg := ml.DefaultAggregatorConfig()
	if cfg.ScorerConfigPath != "" {
		aggCfg = ml.LoadAggregatorConfig(cfg.ScorerConfigPath)
	}
	if _, ok := os.LookupEnv("SNARE_SCAM_THRESHOLD"); ok {
		aggCfg.ScamThreshold = cfg.ScamThreshold
	}
	if _, ok := os.LookupEnv("SNARE_SUSPICIOUS_THRESHOLD"); ok {
		aggCfg.SuspiciousThreshold = cfg.SuspiciousThreshold
	}
	return aggCfg
}

// buildPipeline is the composition root: every collaborator is constructed
// here and nowhere else.
func buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, session.Store, error) {
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	aggregator := ml.NewRiskAggregator(resolveAggregatorConfig(cfg))

	velocity := session.NewVelocityMonitor(cfg.VelocityWindow, cfg.VelocityThreshold, cfg.BurstWindow, cfg.BurstThreshold)

	var validator *ml.Validator
	if cfg.EnableLLMTier && cfg.LLMProvider != config.ProviderNone {
		validator = buildValidator(cfg)
		log.Printf("[STARTUP] ✓ LLM validator enabled (provider: %s)", cfg.LLMProvider)
	} else {
		log.Println("[STARTUP] ○ LLM validator disabled")
	}

	var soph *ml.SophisticationAnalyzer
	if cfg.EnableSophistication {
		// Returns a seeded analyzer or nil; nil disables the refinement.
		soph = ml.NewAutoDetectedSophisticationAnalyzer(ctx)
	}

	persona := agent.NewPersonaClient(agent.PersonaConfig{
		APIKey:  cfg.LLMAPIKey,
		Model:   config.GetEnv("SNARE_PERSONA_MODEL", ""),
		BaseURL: cfg.LLMBaseURL,
	})
	if persona != nil {
		log.Println("[STARTUP] ✓ LLM persona enabled")
	} else {
		log.Println("[STARTUP] ○ LLM persona disabled, template replies only")
	}
	responder := agent.NewResponder(agent.WithPersonaClient(persona))

	reporter := callback.NewReporter(cfg.CallbackURL, cfg.APIKey,
		callback.WithTimeout(cfg.CallbackTimeout),
		callback.WithMaxInFlight(cfg.MaxConcurrentDisp))
	if reporter != nil {
		log.Printf("[STARTUP] ✓ Callback reporting to %s", cfg.CallbackURL)
	} else {
		log.Println("[STARTUP] ○ Callback reporting disabled (no URL)")
	}

	var fb *feedback.Store
	if cfg.EnableReviewQueue {
		fb, err = feedback.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("feedback store: %w", err)
		}
	}

	p, err := pipeline.New(pipeline.Config{
		Store:      store,
		Predictor:  ml.NewAutoPredictor(),
		Aggregator: aggregator,
		Responder:  responder,

		Velocity:       velocity,
		Validator:      validator,
		Sophistication: soph,
		Reporter:       reporter,
		Feedback:       fb,
		Metrics:        telemetry.Global,

		VelocityBoost:        cfg.VelocityBoost,
		VelocityBoostCeiling: cfg.VelocityBoostBelow,
	})
	if err != nil {
		return nil, nil, err
	}
	return p, store, nil
}

func buildStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	if cfg.RedisAddr == "" {
		log.Println("[STARTUP] ✓ In-memory session store")
		return session.NewMemoryStore(session.WithMaxAge(cfg.SessionTTL)), nil
	}

	store, err := session.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("redis store: %w", err)
	}
	log.Printf("[STARTUP] ✓ Redis session store (%s)", cfg.RedisAddr)
	return store, nil
}

func buildValidator(cfg *config.Config) *ml.Validator {
	vcfg := ml.ValidatorConfig{
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		BaseURL: cfg.LLMBaseURL,
		Timeout: cfg.LLMTimeout,
	}
	switch cfg.LLMProvider {
	case config.ProviderOllama:
		vcfg.Provider = ml.ProviderOllama
	case config.ProviderGroq:
		vcfg.Provider = ml.ProviderGroq
	case config.ProviderOpenAI:
		vcfg.Provider = ml.ProviderOpenRouter
		if vcfg.BaseURL == "" {
			vcfg.BaseURL = "https://api.openai.com/v1"
		}
	default:
		vcfg.Provider = ml.ProviderOpenRouter
	}
	return ml.NewValidator(vcfg)
}

// wireMessage matches the inbound message shape. Timestamp accepts an
// ISO-8601 string or Unix milliseconds.
type wireMessage struct {
	Sender    string        `json:"sender"`
	Text      string        `json:"text"`
	Timestamp wireTimestamp `json:"timestamp"`
}

type wireTimestamp struct {
	time.Time
}

func (t *wireTimestamp) UnmarshalJSON(b []byte) error {
	var ms int64
	if err := json.Unmarshal(b, &ms); err == nil {
		t.Time = time.UnixMilli(ms)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("timestamp %q is neither unix millis nor RFC 3339", s)
	}
	t.Time = parsed
	return nil
}

type messageRequest struct {
	SessionID string            `json:"sessionId"`
	Message   wireMessage       `json:"message"`
	Metadata  *session.Metadata `json:"metadata"`
}

func runServer() {
	cfg := config.NewDefaultConfig()
	cfg.MustValidate()

	ctx := context.Background()
	p, store, err := buildPipeline(ctx, cfg)
	if err != nil {
		log.Fatalf("[STARTUP] FATAL: %v", err)
	}
	defer store.Close()

	app := fiber.New(fiber.Config{
		AppName: "snare",
	})

	// Static API-key check on everything except the health probe.
	app.Use(func(c fiber.Ctx) error {
		if cfg.APIKey == "" || c.Path() == "/health" {
			return c.Next()
		}
		if c.Get("x-api-key") != cfg.APIKey {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid api key"})
		}
		return c.Next()
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": Version})
	})

	app.Post("/honeypot", func(c fiber.Ctx) error {
		var req messageRequest
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if req.SessionID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "sessionId is required"})
		}
		if strings.TrimSpace(req.Message.Text) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "message.text is required"})
		}

		res, err := p.Process(c.Context(), pipeline.Request{
			SessionID: req.SessionID,
			Text:      req.Message.Text,
			Timestamp: req.Message.Timestamp.Time,
			Metadata:  req.Metadata,
		})
		if err != nil {
			log.Printf("[GATEWAY] %s: processing failed: %v", req.SessionID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing failed"})
		}

		return c.JSON(fiber.Map{
			"status":       "success",
			"reply":        res.Reply,
			"riskLevel":    res.RiskLevel,
			"score":        res.Score,
			"scamDetected": res.ScamDetected,
		})
	})

	app.Get("/sessions/:id", func(c fiber.Ctx) error {
		s, err := p.GetSession(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup failed"})
		}
		if s == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
		}
		return c.JSON(sessionView(s))
	})

	app.Delete("/sessions/:id", func(c fiber.Ctx) error {
		if err := p.DeleteSession(c.Context(), c.Params("id")); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "delete failed"})
		}
		return c.JSON(fiber.Map{"status": "deleted"})
	})

	app.Get("/stats", func(c fiber.Ctx) error {
		count, err := p.SessionCount(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "count failed"})
		}
		return c.JSON(fiber.Map{
			"activeSessions": count,
			"counters":       p.Stats(),
		})
	})

	log.Printf("[STARTUP] snare gateway listening on %s", cfg.ListenAddr)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}

// sessionView is the session snapshot with artifacts masked for display.
func sessionView(s *session.Session) fiber.Map {
	return fiber.Map{
		"sessionId":             s.ID,
		"state":                 s.State(),
		"riskLevel":             s.RiskLevel,
		"scamDetected":          s.ScamDetected,
		"scamConfidenceScore":   s.Score,
		"totalMessages":         s.TotalMessages,
		"extractedIntelligence": s.Intelligence.Masked(),
		"callbackSent":          s.Finalized,
		"agentNotes":            s.AgentNotes,
		"createdAt":             s.CreatedAt,
		"updatedAt":             s.UpdatedAt,
	}
}

// runAssess scores one message offline through the same predictor and
// aggregator the server uses, printing the full decision trace.
func runAssess(text string) {
	predictor := ml.NewAutoPredictor()
	aggregator := ml.NewRiskAggregator(ml.DefaultAggregatorConfig())

	pred := predictor.Predict(context.Background(), text)
	assessment := aggregator.Assess(text, pred)
	extracted := intel.NewExtractor().Extract(text)

	out := struct {
		Assessment ml.RiskAssessment  `json:"assessment"`
		Artifacts  intel.Intelligence `json:"artifacts"`
	}{assessment, extracted.Masked()}

	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}
