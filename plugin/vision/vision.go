// Package vision produces camera-presence observations for interview frames.
// The primary path asks a vision model; when that fails, a local image
// heuristic produces a coarse observation so visual feedback never blocks an
// answer. Analysis concurrency is bounded because frames arrive from every
// active interview at once.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/semaphore"

	"github.com/voxhire/voxhire/plugin/ai/cache"
)

const (
	// maxFrameEdge is the longest edge frames are resized to before upload.
	maxFrameEdge = 500

	maxConcurrentAnalyses = 3

	visualCacheCapacity = 300
	visualCacheTTL      = 30 * time.Minute
)

// Observation is one frame's presence assessment.
type Observation struct {
	Posture      string `json:"posture"`
	Expressions  string `json:"expressions"`
	Distractions string `json:"distractions"`
}

// NoFeedback is the placeholder for categories with nothing usable.
const NoFeedback = "No feedback available"

// VisionProvider is the model surface the observer needs.
type VisionProvider interface {
	ChatWithImage(ctx context.Context, prompt, imageB64 string) (string, error)
}

// Observer analyzes candidate frames.
type Observer struct {
	provider VisionProvider
	sem      *semaphore.Weighted
	cache    *cache.LRUCache
}

// NewObserver creates an observer.
func NewObserver(provider VisionProvider) *Observer {
	return &Observer{
		provider: provider,
		sem:      semaphore.NewWeighted(maxConcurrentAnalyses),
		cache:    cache.NewLRUCache(visualCacheCapacity, visualCacheTTL),
	}
}

const observePrompt = `You are observing a candidate during a remote interview. ` +
	`Describe their on-camera presence as JSON: ` +
	`{"posture": "...", "expressions": "...", "distractions": "..."}. ` +
	`One short sentence per field. If the frame is unclear say "not fully clear".`

// Analyze returns an observation for one frame. candidateCtx is free text
// about the candidate ("answering question 3") included in the prompt.
func (o *Observer) Analyze(ctx context.Context, userID, frameB64, candidateCtx string) (*Observation, error) {
	cacheKey := "visual:" + userID + ":" + shortFingerprint(frameB64)
	if raw, ok := o.cache.Get(cacheKey); ok {
		var obs Observation
		if err := json.Unmarshal(raw, &obs); err == nil {
			return &obs, nil
		}
	}

	if err := o.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer o.sem.Release(1)

	img, resizedB64, err := prepareFrame(frameB64)
	if err != nil {
		return nil, err
	}

	prompt := observePrompt
	if candidateCtx != "" {
		prompt += "\nContext: " + candidateCtx
	}

	response, err := o.provider.ChatWithImage(ctx, prompt, resizedB64)
	obs := &Observation{}
	if err == nil && parseObservation(response, obs) {
		o.remember(cacheKey, obs)
		return obs, nil
	}

	slog.Warn("vision model unavailable, using local frame heuristic", "user_id", userID, "error", err)
	obs = localHeuristic(img)
	o.remember(cacheKey, obs)
	return obs, nil
}

// Forget drops cached observations for a user, for interview reset.
func (o *Observer) Forget(userID string) {
	o.cache.Invalidate("visual:" + userID + ":*")
}

func (o *Observer) remember(key string, obs *Observation) {
	if raw, err := json.Marshal(obs); err == nil {
		o.cache.Set(key, raw, 0)
	}
}

var fencedRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

func parseObservation(response string, obs *Observation) bool {
	raw := strings.TrimSpace(response)
	if m := fencedRe.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	if err := json.Unmarshal([]byte(raw), obs); err != nil {
		return false
	}
	return obs.Posture != "" || obs.Expressions != "" || obs.Distractions != ""
}

// prepareFrame decodes the frame and returns both the decoded image (for the
// local heuristic) and a bounded re-encoded JPEG for upload.
func prepareFrame(frameB64 string) (image.Image, string, error) {
	raw, err := base64.StdEncoding.DecodeString(frameB64)
	if err != nil {
		return nil, "", err
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", err
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxFrameEdge || bounds.Dy() > maxFrameEdge {
		img = imaging.Fit(img, maxFrameEdge, maxFrameEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(75)); err != nil {
		return nil, "", err
	}
	return img, base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// localHeuristic derives a coarse observation from image statistics:
// brightness for visibility, brightness spread and edge density for framing
// and background clutter.
func localHeuristic(img image.Image) *Observation {
	gray := imaging.Grayscale(img)
	mean, stddev := brightnessStats(gray)
	edges := edgeDensity(gray)

	obs := &Observation{}

	switch {
	case mean < 0.15:
		obs.Posture = "Frame too dark to assess posture, not fully clear."
	case stddev < 0.08:
		obs.Posture = "Candidate barely distinguishable from background, framing could be improved."
	case stddev < 0.15:
		obs.Posture = "Candidate visible and roughly centered in frame."
	default:
		obs.Posture = "Candidate clearly visible with good contrast against the background."
	}

	switch {
	case mean < 0.15:
		obs.Expressions = "not fully clear"
	case stddev < 0.12:
		obs.Expressions = "Face detail limited, expressions not fully clear."
	default:
		obs.Expressions = "Face visible, expressions appear composed."
	}

	switch {
	case edges > 0.18:
		obs.Distractions = "Busy background with many visible objects."
	case edges > 0.10:
		obs.Distractions = "Some background clutter visible."
	default:
		obs.Distractions = "Background appears uncluttered."
	}

	return obs
}

func brightnessStats(img image.Image) (float64, float64) {
	bounds := img.Bounds()
	n := float64(bounds.Dx() * bounds.Dy())
	if n == 0 {
		return 0, 0
	}

	var sum, sumSq float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := luminance(img.At(x, y))
			sum += v
			sumSq += v * v
		}
	}

	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// edgeDensity is the fraction of pixels whose horizontal or vertical
// neighbor differs by more than a fixed step.
func edgeDensity(img image.Image) float64 {
	bounds := img.Bounds()
	if bounds.Dx() < 2 || bounds.Dy() < 2 {
		return 0
	}

	const step = 0.12
	edges := 0
	total := 0
	for y := bounds.Min.Y; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X; x < bounds.Max.X-1; x++ {
			v := luminance(img.At(x, y))
			if math.Abs(v-luminance(img.At(x+1, y))) > step ||
				math.Abs(v-luminance(img.At(x, y+1))) > step {
				edges++
			}
			total++
		}
	}
	return float64(edges) / float64(total)
}

func luminance(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 65535.0
}

func shortFingerprint(frameB64 string) string {
	if len(frameB64) <= 24 {
		return frameB64
	}
	// Head and length are enough to distinguish throttled frames.
	return frameB64[:24] + ":" + strconv.Itoa(len(frameB64))
}
