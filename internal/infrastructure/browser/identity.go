package browser

import (
	"math/rand"
	"time"
)

// Firefox release builds only. Chrome user agents paired with a Chromium
// automation fingerprint are an easy tell for bot detection.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:115.0) Gecko/20100101 Firefox/115.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:116.0) Gecko/20100101 Firefox/116.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:117.0) Gecko/20100101 Firefox/117.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:118.0) Gecko/20100101 Firefox/118.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:119.0) Gecko/20100101 Firefox/119.0",
}

const (
	defaultViewportWidth  = 1920
	defaultViewportHeight = 1080
)

// Profile is one browser identity: the user agent reported to the site and
// the viewport the page renders into.
type Profile struct {
	UserAgent string
	Width     int
	Height    int
}

// IdentityPool hands out randomized browser profiles.
type IdentityPool struct {
	userAgents []string
	width      int
	height     int
	rnd        *rand.Rand
}

// NewIdentityPool creates a pool over the given user agents. An empty list
// falls back to the built-in Firefox set, zero dimensions to 1920x1080.
func NewIdentityPool(userAgents []string, width, height int) *IdentityPool {
	if len(userAgents) == 0 {
		userAgents = defaultUserAgents
	}
	if width <= 0 {
		width = defaultViewportWidth
	}
	if height <= 0 {
		height = defaultViewportHeight
	}
	return &IdentityPool{
		userAgents: userAgents,
		width:      width,
		height:     height,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Draw picks a random profile from the pool.
func (p *IdentityPool) Draw() Profile {
	return Profile{
		UserAgent: p.userAgents[p.rnd.Intn(len(p.userAgents))],
		Width:     p.width,
		Height:    p.height,
	}
}

// RandomPoint returns a random coordinate inside the profile's viewport,
// used to wander the mouse between scroll passes.
func (p *IdentityPool) RandomPoint(profile Profile) (x, y float64) {
	return float64(p.rnd.Intn(profile.Width)), float64(p.rnd.Intn(profile.Height))
}
