package services

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wenlng/go-captcha/v2/rotate"
)

// CaptchaService guards the moderator login with a rotate puzzle: the panel
// shows a rotated thumbnail and the operator turns it upright. Challenges
// live in memory with a TTL and are consumed on the first verification
// attempt, so a captured answer cannot be replayed.
type CaptchaService interface {
	// GenerateRotate creates a rotate captcha challenge and returns the assets and challenge ID
	GenerateRotate(ctx context.Context) (*RotateChallenge, error)
	// VerifyRotate verifies the provided user angle for a given challenge ID
	VerifyRotate(ctx context.Context, challengeID string, userAngle float64) bool
}

type RotateChallenge struct {
	ID                string
	MasterImageBase64 string
	ThumbImageBase64  string
}

type rotateCaptchaService struct {
	rotator    rotate.Captcha
	challenges *challengeStore
	tolerance  int
}

// NewCaptchaServiceRotate builds the rotate captcha used by the login panel.
// ttl bounds how long an unanswered challenge stays valid, tolerance is the
// accepted angle error in degrees, sizePx the square image edge.
func NewCaptchaServiceRotate(ttl time.Duration, tolerance int, sizePx int) (CaptchaService, error) {
	if sizePx <= 0 {
		sizePx = 220
	}

	builder := rotate.NewBuilder(
		rotate.WithImageSquareSize(sizePx),
	)
	builder.SetResources(
		rotate.WithImages(beachStripeBackgrounds(3, sizePx)),
	)

	return &rotateCaptchaService{
		rotator:    builder.Make(),
		challenges: newChallengeStore(ttl),
		tolerance:  tolerance,
	}, nil
}

func (s *rotateCaptchaService) GenerateRotate(ctx context.Context) (*RotateChallenge, error) {
	data, err := s.rotator.Generate()
	if err != nil {
		return nil, err
	}
	block := data.GetData()
	if block == nil {
		return nil, err
	}

	masterB64, err := data.GetMasterImage().ToBase64()
	if err != nil {
		return nil, err
	}
	thumbB64, err := data.GetThumbImage().ToBase64()
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	s.challenges.put(id, block.Angle)

	return &RotateChallenge{
		ID:                id,
		MasterImageBase64: masterB64,
		ThumbImageBase64:  thumbB64,
	}, nil
}

func (s *rotateCaptchaService) VerifyRotate(ctx context.Context, challengeID string, userAngle float64) bool {
	// take removes the challenge whatever the outcome; a wrong answer costs
	// a fresh challenge.
	angle, ok := s.challenges.take(challengeID)
	if !ok {
		return false
	}
	return rotate.Validate(int(math.Round(userAngle)), angle, s.tolerance)
}

type pendingChallenge struct {
	angle    int
	deadline time.Time
}

// challengeStore keeps unanswered challenges in memory. One instance per
// process is enough; a restart just invalidates in-flight logins.
type challengeStore struct {
	mu      sync.Mutex
	pending map[string]pendingChallenge
	ttl     time.Duration
}

func newChallengeStore(ttl time.Duration) *challengeStore {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	cs := &challengeStore{
		pending: make(map[string]pendingChallenge),
		ttl:     ttl,
	}
	go cs.sweep()
	return cs
}

func (cs *challengeStore) put(id string, angle int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.pending[id] = pendingChallenge{
		angle:    angle,
		deadline: time.Now().Add(cs.ttl),
	}
}

// take returns the stored angle and removes the entry.
func (cs *challengeStore) take(id string) (int, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	entry, ok := cs.pending[id]
	if !ok {
		return 0, false
	}
	delete(cs.pending, id)
	if time.Now().After(entry.deadline) {
		return 0, false
	}
	return entry.angle, true
}

func (cs *challengeStore) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		cs.mu.Lock()
		for id, entry := range cs.pending {
			if now.After(entry.deadline) {
				delete(cs.pending, id)
			}
		}
		cs.mu.Unlock()
	}
}

// beachStripeBackgrounds renders the puzzle backdrops in the panel's
// sand-and-sea palette so no image assets need shipping.
func beachStripeBackgrounds(n, size int) []image.Image {
	if n <= 0 {
		n = 1
	}
	imgs := make([]image.Image, 0, n)
	for i := 0; i < n; i++ {
		imgs = append(imgs, stripeImage(size, size))
	}
	return imgs
}

func stripeImage(w, h int) image.Image {
	sand := color.RGBA{R: 237, G: 214, B: 165, A: 255}
	sea := color.RGBA{R: 52, G: 130, B: 180, A: 255}

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	band := h / 8
	if band < 1 {
		band = 1
	}
	for y := 0; y < h; y++ {
		// diagonal bands between the two tones, speckled so rotated crops
		// never tile cleanly
		for x := 0; x < w; x++ {
			c := sand
			if ((x+y)/band)%2 == 0 {
				c = sea
			}
			speck := uint8(rand.Intn(24))
			rgba.Set(x, y, color.RGBA{
				R: c.R - c.R/10 + speck/2,
				G: c.G - c.G/10 + speck/2,
				B: c.B - c.B/12 + speck/3,
				A: 255,
			})
		}
	}
	overlayBar(rgba, w/8, h/5, w/2, h/16)
	overlayBar(rgba, w/3, 2*h/3, w/2, h/14)
	return rgba
}

func overlayBar(dst *image.RGBA, x, y, w, h int) {
	bar := color.RGBA{R: 255, G: 255, B: 255, A: 28}
	draw.Draw(dst, image.Rect(x, y, x+w, y+h), &image.Uniform{C: bar}, image.Point{}, draw.Over)
}
