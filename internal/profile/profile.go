package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where voxhire stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// JWTSecret signs and verifies candidate bearer tokens
	JWTSecret string

	// AI Configuration
	AIAPIKey          string // VOXHIRE_AI_API_KEY
	AIBaseURL         string // VOXHIRE_AI_BASE_URL (default: https://api.openai.com/v1)
	AIChatModel       string // VOXHIRE_AI_CHAT_MODEL (default: gpt-4o-mini)
	AIVisionModel     string // VOXHIRE_AI_VISION_MODEL (default: gpt-4o-mini)
	AITranscribeModel string // VOXHIRE_AI_TRANSCRIBE_MODEL (default: whisper-1)
	AISpeechModel     string // VOXHIRE_AI_SPEECH_MODEL (default: tts-1)

	// Interview Configuration
	InterviewDuration time.Duration // VOXHIRE_INTERVIEW_DURATION (default: 900s)
	PauseThreshold    time.Duration // VOXHIRE_PAUSE_THRESHOLD (default: 40s)
	FrameInterval     time.Duration // VOXHIRE_FRAME_INTERVAL (default: 3s)
	SessionTTL        time.Duration // VOXHIRE_SESSION_TTL (default: 4600s)
	SweepInterval     time.Duration // VOXHIRE_SWEEP_INTERVAL (default: 300s)
	StaleAfter        time.Duration // VOXHIRE_STALE_AFTER (default: 30m)
	VisualEnabled     bool          // VOXHIRE_VISUAL_ENABLED (default: true)
	EvalStrict        bool          // VOXHIRE_EVAL_STRICT (default: false)

	// Connection pool configuration
	PoolMaxConns       int           // VOXHIRE_POOL_MAX_CONNS (default: 20)
	PoolAcquireTimeout time.Duration // VOXHIRE_POOL_ACQUIRE_TIMEOUT (default: 5s)

	// Report banding thresholds, percentages
	BandVeryGood float64 // VOXHIRE_BAND_VERY_GOOD (default: 80)
	BandGood     float64 // VOXHIRE_BAND_GOOD (default: 65)
	BandAverage  float64 // VOXHIRE_BAND_AVERAGE (default: 50)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an API key or a custom base URL is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIAPIKey != "" || p.AIBaseURL != "https://api.openai.com/v1"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	return raw == "true" || raw == "1"
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.JWTSecret = getEnvOrDefault("VOXHIRE_JWT_SECRET", p.JWTSecret)

	p.AIAPIKey = os.Getenv("VOXHIRE_AI_API_KEY")
	p.AIBaseURL = getEnvOrDefault("VOXHIRE_AI_BASE_URL", "https://api.openai.com/v1")
	p.AIChatModel = getEnvOrDefault("VOXHIRE_AI_CHAT_MODEL", "gpt-4o-mini")
	p.AIVisionModel = getEnvOrDefault("VOXHIRE_AI_VISION_MODEL", "gpt-4o-mini")
	p.AITranscribeModel = getEnvOrDefault("VOXHIRE_AI_TRANSCRIBE_MODEL", "whisper-1")
	p.AISpeechModel = getEnvOrDefault("VOXHIRE_AI_SPEECH_MODEL", "tts-1")

	p.InterviewDuration = getDurationEnv("VOXHIRE_INTERVIEW_DURATION", 900*time.Second)
	p.PauseThreshold = getDurationEnv("VOXHIRE_PAUSE_THRESHOLD", 40*time.Second)
	p.FrameInterval = getDurationEnv("VOXHIRE_FRAME_INTERVAL", 3*time.Second)
	p.SessionTTL = getDurationEnv("VOXHIRE_SESSION_TTL", 4600*time.Second)
	p.SweepInterval = getDurationEnv("VOXHIRE_SWEEP_INTERVAL", 300*time.Second)
	p.StaleAfter = getDurationEnv("VOXHIRE_STALE_AFTER", 30*time.Minute)
	p.VisualEnabled = getBoolEnv("VOXHIRE_VISUAL_ENABLED", true)
	p.EvalStrict = getBoolEnv("VOXHIRE_EVAL_STRICT", false)

	p.PoolMaxConns = getIntEnv("VOXHIRE_POOL_MAX_CONNS", 20)
	p.PoolAcquireTimeout = getDurationEnv("VOXHIRE_POOL_ACQUIRE_TIMEOUT", 5*time.Second)

	p.BandVeryGood = getFloatEnv("VOXHIRE_BAND_VERY_GOOD", 80)
	p.BandGood = getFloatEnv("VOXHIRE_BAND_GOOD", 65)
	p.BandAverage = getFloatEnv("VOXHIRE_BAND_AVERAGE", 50)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		p.Data = "/var/opt/voxhire"
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("voxhire_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.Mode == "prod" && p.JWTSecret == "" {
		return errors.New("VOXHIRE_JWT_SECRET must be set in prod mode")
	}
	if p.JWTSecret == "" {
		p.JWTSecret = "voxhire-dev-secret"
	}

	if p.BandVeryGood < p.BandGood || p.BandGood < p.BandAverage {
		return errors.New("report bands must be ordered: very_good >= good >= average")
	}

	return nil
}
