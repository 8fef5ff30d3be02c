package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "https://api.openai.com/v1", p.AIBaseURL)
	assert.Equal(t, "gpt-4o-mini", p.AIChatModel)
	assert.Equal(t, "whisper-1", p.AITranscribeModel)
	assert.Equal(t, "tts-1", p.AISpeechModel)

	assert.Equal(t, 900*time.Second, p.InterviewDuration)
	assert.Equal(t, 40*time.Second, p.PauseThreshold)
	assert.Equal(t, 3*time.Second, p.FrameInterval)
	assert.Equal(t, 4600*time.Second, p.SessionTTL)
	assert.Equal(t, 300*time.Second, p.SweepInterval)
	assert.Equal(t, 30*time.Minute, p.StaleAfter)
	assert.True(t, p.VisualEnabled)
	assert.False(t, p.EvalStrict)

	assert.Equal(t, 20, p.PoolMaxConns)
	assert.Equal(t, 5*time.Second, p.PoolAcquireTimeout)

	assert.Equal(t, 80.0, p.BandVeryGood)
	assert.Equal(t, 65.0, p.BandGood)
	assert.Equal(t, 50.0, p.BandAverage)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("VOXHIRE_INTERVIEW_DURATION", "600s")
	t.Setenv("VOXHIRE_PAUSE_THRESHOLD", "25s")
	t.Setenv("VOXHIRE_VISUAL_ENABLED", "false")
	t.Setenv("VOXHIRE_EVAL_STRICT", "true")
	t.Setenv("VOXHIRE_POOL_MAX_CONNS", "8")
	t.Setenv("VOXHIRE_BAND_VERY_GOOD", "85")
	t.Setenv("VOXHIRE_AI_CHAT_MODEL", "gpt-4o")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, 600*time.Second, p.InterviewDuration)
	assert.Equal(t, 25*time.Second, p.PauseThreshold)
	assert.False(t, p.VisualEnabled)
	assert.True(t, p.EvalStrict)
	assert.Equal(t, 8, p.PoolMaxConns)
	assert.Equal(t, 85.0, p.BandVeryGood)
	assert.Equal(t, "gpt-4o", p.AIChatModel)
}

func TestFromEnvBadValuesFallBack(t *testing.T) {
	t.Setenv("VOXHIRE_INTERVIEW_DURATION", "soon")
	t.Setenv("VOXHIRE_POOL_MAX_CONNS", "many")
	t.Setenv("VOXHIRE_BAND_GOOD", "high")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, 900*time.Second, p.InterviewDuration)
	assert.Equal(t, 20, p.PoolMaxConns)
	assert.Equal(t, 65.0, p.BandGood)
}

func TestValidate(t *testing.T) {
	newProfile := func(t *testing.T) *Profile {
		p := &Profile{Mode: "dev", Driver: "sqlite", Data: t.TempDir()}
		p.FromEnv()
		return p
	}

	t.Run("unknown mode falls back to demo", func(t *testing.T) {
		p := newProfile(t)
		p.Mode = "staging"
		require.NoError(t, p.Validate())
		assert.Equal(t, "demo", p.Mode)
	})

	t.Run("sqlite DSN defaults into the data dir", func(t *testing.T) {
		p := newProfile(t)
		require.NoError(t, p.Validate())
		assert.Contains(t, p.DSN, "voxhire_dev.db")
	})

	t.Run("dev gets a default JWT secret", func(t *testing.T) {
		p := newProfile(t)
		require.NoError(t, p.Validate())
		assert.NotEmpty(t, p.JWTSecret)
	})

	t.Run("prod requires a JWT secret", func(t *testing.T) {
		p := newProfile(t)
		p.Mode = "prod"
		p.Data = t.TempDir()
		p.JWTSecret = ""
		assert.Error(t, p.Validate())

		p.JWTSecret = "secret"
		assert.NoError(t, p.Validate())
	})

	t.Run("misordered bands are rejected", func(t *testing.T) {
		p := newProfile(t)
		p.BandGood = 90
		assert.Error(t, p.Validate())
	})

	t.Run("missing data dir fails", func(t *testing.T) {
		p := newProfile(t)
		p.Data = "/does/not/exist"
		assert.Error(t, p.Validate())
	})
}
