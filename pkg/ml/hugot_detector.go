package ml

// hugot_detector.go - Local ML-based scam message classification using Hugot/ONNX
//
// Wraps a text-classification model fine-tuned for SMS scam/spam detection.
//
// Architecture:
// - Uses ONNX Runtime for fast inference when libonnxruntime is installed
// - Runs fully local - no external API calls required
// - Gracefully degrades if no model is available (callers fall back to rules)
//
// Build:
// - Standard: go build (uses Go backend, slower but no dependencies)
// - With ORT: go build -tags ORT (uses ONNX Runtime, faster)

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
	"github.com/knights-analytics/hugot/pipelines"
)

// HugotDetector provides local ML-based scam classification for inbound
// conversation messages.
type HugotDetector struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
	mu       sync.RWMutex
	config   HugotConfig
	ready    bool
}

// HugotConfig configures the Hugot detector.
type HugotConfig struct {
	// ModelPath is the local path to the ONNX model directory.
	// If empty and ModelName is set, the model will be downloaded.
	ModelPath string

	// ModelName is the HuggingFace model name used to download the model
	// when ModelPath is empty.
	ModelName string

	// OnnxLibraryPath is the directory holding libonnxruntime.
	OnnxLibraryPath string

	// UseGPU enables CUDA acceleration if available.
	UseGPU bool

	// DeviceID specifies which GPU to use (default: 0).
	DeviceID int

	// BatchSize is the maximum batch size for inference (default: 32).
	BatchSize int

	// Timeout is the maximum time for a single inference call.
	Timeout time.Duration
}

// Model presets. Both ship under permissive licenses and use the common
// spam/ham label convention.
const (
	// ModelBERTSpam is a BERT-base model fine-tuned for SMS spam detection.
	ModelBERTSpam = "wesleyacheng/sms-spam-classification-with-bert"

	// ModelTinySpam is a bert-tiny variant, much smaller and faster.
	// Good choice for edge or high-volume deployments.
	ModelTinySpam = "mrm8488/bert-tiny-finetuned-sms-spam-detection"
)

// DefaultHugotConfig returns the default configuration using the BERT spam model.
func DefaultHugotConfig() HugotConfig {
	return HugotConfig{
		ModelName:       ModelBERTSpam,
		ModelPath:       "./models/bert-spam",
		OnnxLibraryPath: getDefaultOnnxPath(),
		UseGPU:          false,
		DeviceID:        0,
		BatchSize:       32,
		Timeout:         30 * time.Second,
	}
}

// TinyHugotConfig returns a configuration using the bert-tiny spam model.
func TinyHugotConfig() HugotConfig {
	cfg := DefaultHugotConfig()
	cfg.ModelName = ModelTinySpam
	cfg.ModelPath = "./models/bert-tiny-spam"
	return cfg
}

// modelSearchPaths defines the paths to search for models in priority order.
var modelSearchPaths = []struct {
	path  string
	model string
	size  string
}{
	{"./models/bert-spam", ModelBERTSpam, "110M"},
	{"./models/bert-tiny-spam", ModelTinySpam, "4M"},
}

// AutoDetectConfig automatically detects available models and returns the
// appropriate config.
//
// HUGOT_MODEL_PATH takes priority over the standard search paths. If
// SNARE_AUTO_DOWNLOAD_MODEL=true and no local model is found, the default
// model is downloaded on first use.
//
// Returns nil if no models are found and auto-download is disabled.
func AutoDetectConfig() *HugotConfig {
	if envPath := os.Getenv("HUGOT_MODEL_PATH"); envPath != "" {
		if _, err := os.Stat(filepath.Join(envPath, "model.onnx")); err == nil {
			log.Printf("[ML] Using model from HUGOT_MODEL_PATH: %s", envPath)
			cfg := DefaultHugotConfig()
			cfg.ModelName = ""
			cfg.ModelPath = envPath
			return &cfg
		}
	}

	for _, m := range modelSearchPaths {
		modelOnnx := filepath.Join(m.path, "model.onnx")
		if _, err := os.Stat(modelOnnx); err == nil {
			log.Printf("[ML] Auto-detected model: %s (%s)", m.model, m.size)
			cfg := DefaultHugotConfig()
			cfg.ModelName = m.model
			cfg.ModelPath = m.path
			return &cfg
		}
	}

	if isTrue(os.Getenv("SNARE_AUTO_DOWNLOAD_MODEL")) {
		log.Printf("[ML] No local models found. Model will be downloaded on first use.")
		cfg := DefaultHugotConfig()
		return &cfg
	}

	log.Printf("[ML] No ML models found in any of the following locations:")
	for _, m := range modelSearchPaths {
		log.Printf("[ML]   - %s (looking for %s)", m.path, m.model)
	}
	log.Printf("[ML] To enable ML classification, either:")
	log.Printf("[ML]   1. Place an ONNX text-classification model under ./models/")
	log.Printf("[ML]   2. Set SNARE_AUTO_DOWNLOAD_MODEL=true for auto-download on first use")
	log.Printf("[ML]   3. Set HUGOT_MODEL_PATH to point to a custom ONNX model directory")
	return nil
}

// NewAutoDetectedHugotDetector creates a detector using auto-detected models.
// Returns nil if Hugot is disabled or no models are available; callers then
// use the rule-based prediction fallback.
func NewAutoDetectedHugotDetector() *HugotDetector {
	if !HugotEnabled() {
		return nil
	}
	cfg := AutoDetectConfig()
	if cfg == nil {
		return nil
	}
	return NewHugotDetectorWithFallback(*cfg)
}

// getDefaultOnnxPath returns the default ONNX Runtime library path for the current platform.
func getDefaultOnnxPath() string {
	paths := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/opt/homebrew/lib/libonnxruntime.dylib",
		"/usr/local/lib/libonnxruntime.dylib",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return filepath.Dir(p)
		}
	}
	return ""
}

// NewHugotDetector creates a new detector with the specified configuration.
func NewHugotDetector(cfg HugotConfig) (*HugotDetector, error) {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 32
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	detector := &HugotDetector{
		config: cfg,
		ready:  false,
	}

	if err := detector.initialize(); err != nil {
		return nil, fmt.Errorf("hugot initialization failed: %w", err)
	}

	return detector, nil
}

// NewHugotDetectorWithFallback creates a detector that gracefully degrades on failure.
// Returns a detector instance even if initialization fails (ready=false).
func NewHugotDetectorWithFallback(cfg HugotConfig) *HugotDetector {
	detector, err := NewHugotDetector(cfg)
	if err != nil {
		log.Printf("[WARN] Hugot detector initialization failed (graceful degradation): %v", err)
		return &HugotDetector{
			config: cfg,
			ready:  false,
		}
	}
	return detector
}

// initialize sets up the ONNX session and pipeline.
func (h *HugotDetector) initialize() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	session, err := h.createSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	h.session = session

	modelPath, err := h.resolveModelPath()
	if err != nil {
		_ = h.session.Destroy()
		return fmt.Errorf("failed to resolve model path: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "scam-message-classifier",
	}

	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		_ = h.session.Destroy()
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	h.pipeline = pipeline
	h.ready = true
	log.Printf("[ML] Hugot detector initialized successfully (model: %s)", modelPath)

	return nil
}

// createSession creates the Hugot session with the appropriate backend.
func (h *HugotDetector) createSession() (*hugot.Session, error) {
	// Try ONNX Runtime backend first (fastest)
	if h.config.OnnxLibraryPath != "" {
		opts := []options.WithOption{
			options.WithOnnxLibraryPath(h.config.OnnxLibraryPath),
		}

		if h.config.UseGPU {
			opts = append(opts, options.WithCuda(map[string]string{
				"device_id": fmt.Sprintf("%d", h.config.DeviceID),
			}))
		}

		session, err := hugot.NewORTSession(opts...)
		if err == nil {
			log.Printf("[ML] Hugot using ONNX Runtime backend (GPU: %v)", h.config.UseGPU)
			return session, nil
		}
		log.Printf("[ML] ONNX Runtime unavailable, falling back to Go backend: %v", err)
	}

	// Fall back to pure Go backend (slower but no dependencies)
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create Go session: %w", err)
	}
	log.Printf("[ML] Hugot using pure Go backend (slower, consider installing ONNX Runtime)")
	return session, nil
}

// resolveModelPath ensures the model is available locally.
func (h *HugotDetector) resolveModelPath() (string, error) {
	if h.config.ModelPath != "" {
		if _, err := os.Stat(h.config.ModelPath); err == nil {
			return h.config.ModelPath, nil
		}
	}

	if h.config.ModelName == "" {
		return "", fmt.Errorf("no model path or name specified")
	}

	modelsDir := "./models"
	if err := os.MkdirAll(modelsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create models directory: %w", err)
	}

	log.Printf("[ML] Downloading model %s...", h.config.ModelName)
	modelPath, err := hugot.DownloadModel(
		h.config.ModelName,
		modelsDir,
		hugot.NewDownloadOptions(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}

	log.Printf("[ML] Model downloaded to %s", modelPath)
	return modelPath, nil
}

// IsReady returns true if the detector is initialized and ready for inference.
func (h *HugotDetector) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}

// isScamLabel returns true if the label indicates a scam/spam message.
// Different models use different label conventions:
// - wesleyacheng/bert: "spam" vs "ham"
// - mrm8488/bert-tiny: "LABEL_1" (spam) vs "LABEL_0" (ham)
func isScamLabel(label string) bool {
	switch label {
	case "spam", "SPAM", "scam", "fraud", "LABEL_1":
		return true
	default:
		return false
	}
}

// HugotResult contains the classification result for one message.
type HugotResult struct {
	// Label is the raw model label ("spam", "ham", "LABEL_1", ...)
	Label string `json:"label"`

	// Confidence is the model's confidence score (0.0-1.0)
	Confidence float64 `json:"confidence"`

	// IsScam is true if the label indicates a scam/spam message
	IsScam bool `json:"is_scam"`

	// LatencyMs is the inference time in milliseconds
	LatencyMs float64 `json:"latency_ms"`
}

// Classify performs batch classification on multiple texts.
// Returns results in the same order as inputs.
func (h *HugotDetector) Classify(ctx context.Context, texts []string) ([]HugotResult, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.ready || h.pipeline == nil {
		return nil, fmt.Errorf("hugot detector not ready")
	}

	if len(texts) == 0 {
		return []HugotResult{}, nil
	}

	start := time.Now()

	result, err := h.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("classification failed: %w", err)
	}

	latency := float64(time.Since(start).Milliseconds())

	outputs := make([]HugotResult, len(texts))
	for i := range texts {
		if i < len(result.ClassificationOutputs) && len(result.ClassificationOutputs[i]) > 0 {
			out := result.ClassificationOutputs[i][0]
			outputs[i] = HugotResult{
				Label:      out.Label,
				Confidence: float64(out.Score),
				IsScam:     isScamLabel(out.Label),
				LatencyMs:  latency / float64(len(texts)), // Amortized per-item latency
			}
		} else {
			outputs[i] = HugotResult{
				Label:      "unknown",
				Confidence: 0.0,
				IsScam:     false,
				LatencyMs:  latency / float64(len(texts)),
			}
		}
	}

	return outputs, nil
}

// ClassifySingle is a convenience method for single-text classification.
func (h *HugotDetector) ClassifySingle(ctx context.Context, text string) (HugotResult, error) {
	results, err := h.Classify(ctx, []string{text})
	if err != nil {
		return HugotResult{}, err
	}
	if len(results) == 0 {
		return HugotResult{}, fmt.Errorf("no results returned")
	}
	return results[0], nil
}

// Close releases resources held by the detector.
func (h *HugotDetector) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ready = false

	if h.session != nil {
		if err := h.session.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
	}

	return nil
}

// GetStatistics returns pipeline statistics if available.
func (h *HugotDetector) GetStatistics() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.session == nil {
		return nil
	}

	stats := h.session.GetStatistics()
	result := make(map[string]interface{})
	for name, stat := range stats {
		result[name] = map[string]interface{}{
			"tokenizer_total_time":      stat.TokenizerTotalTime.String(),
			"tokenizer_execution_count": stat.TokenizerExecutionCount,
			"onnx_total_time":           stat.OnnxTotalTime.String(),
			"onnx_execution_count":      stat.OnnxExecutionCount,
			"total_queries":             stat.TotalQueries,
			"total_documents":           stat.TotalDocuments,
			"average_latency":           stat.AverageLatency.String(),
			"average_batch_size":        stat.AverageBatchSize,
		}
	}
	return result
}
