// Package audio negotiates background music playback with a player that may
// refuse to start until the guest interacts with the page.
package audio

import (
	"errors"
	"fmt"
	"ms-rsvp/internal/logger"
	"sync"
)

const DefaultVolume = 0.3

// ErrAutoplayBlocked is returned by Player.Play when playback needs a user
// gesture first.
var ErrAutoplayBlocked = errors.New("autoplay blocked")

type Player interface {
	Load(src string) error
	Play() error
	Pause()
	SetMuted(muted bool)
	SetVolume(volume float64)
	SetLoop(loop bool)
}

type State int

const (
	Disabled State = iota
	AwaitingInteraction
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case AwaitingInteraction:
		return "awaiting_interaction"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "disabled"
	}
}

type Interaction string

const (
	Pointer Interaction = "pointer"
	Key     Interaction = "key"
	Touch   Interaction = "touch"
	Scroll  Interaction = "scroll"
)

type Options struct {
	Volume float64
	Loop   bool
	Logger *logger.Logger
}

func DefaultOptions() Options {
	return Options{Volume: DefaultVolume, Loop: true}
}

type Controller struct {
	mu              sync.Mutex
	player          Player
	state           State
	muted           bool
	autoplayBlocked bool
	// interaction retry already spent
	retried bool
	// playing when a video took over
	resumeAfterVideo bool
	videoActive      bool
	logger           *logger.Logger
}

// NewController loads src and tries to start playback straight away.
func NewController(player Player, src string, opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = logger.NewWriterLogger(nil)
	}
	c := &Controller{player: player, state: Disabled, logger: log}
	if player == nil {
		log.Warn("AUDIO", "No audio player available, music disabled")
		return c
	}

	player.SetVolume(opts.Volume)
	player.SetLoop(opts.Loop)
	if err := player.Load(src); err != nil {
		log.Warn("AUDIO", fmt.Sprintf("Failed to load %s, music disabled: %v", src, err))
		return c
	}

	err := player.Play()
	switch {
	case err == nil:
		c.state = Playing
	case errors.Is(err, ErrAutoplayBlocked):
		c.state = AwaitingInteraction
		c.autoplayBlocked = true
		log.Info("AUDIO", "Autoplay blocked, waiting for user interaction")
	default:
		log.Warn("AUDIO", fmt.Sprintf("Playback failed, music disabled: %v", err))
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Available reports whether the music control should be shown.
func (c *Controller) Available() bool {
	return c.State() != Disabled
}

func (c *Controller) AutoplayBlocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoplayBlocked
}

func (c *Controller) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// OnInteraction retries playback once, on the first interaction after
// autoplay was refused. Later interactions are ignored.
func (c *Controller) OnInteraction(kind Interaction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != AwaitingInteraction || c.retried {
		return
	}
	c.logger.Debug("AUDIO", fmt.Sprintf("Retrying playback after %s interaction", kind))
	c.retryLocked()
}

func (c *Controller) ToggleMute() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Disabled {
		return
	}
	c.muted = !c.muted
	c.player.SetMuted(c.muted)
}

func (c *Controller) TogglePlayPause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Playing:
		c.player.Pause()
		c.state = Paused
	case AwaitingInteraction:
		c.retryLocked()
	case Paused:
		if err := c.player.Play(); err != nil {
			c.logger.Warn("AUDIO", fmt.Sprintf("Play failed: %v", err))
			return
		}
		c.state = Playing
	}
}

// PauseForVideo stops the music while a video plays.
func (c *Controller) PauseForVideo() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Disabled || c.videoActive {
		return
	}
	c.videoActive = true
	c.resumeAfterVideo = c.state == Playing
	if c.resumeAfterVideo {
		c.player.Pause()
		c.state = Paused
	}
}

// ResumeAfterVideo restarts the music only if it was playing before the video.
func (c *Controller) ResumeAfterVideo() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.videoActive {
		return
	}
	c.videoActive = false
	if !c.resumeAfterVideo || c.state != Paused {
		return
	}
	c.resumeAfterVideo = false
	if err := c.player.Play(); err != nil {
		c.logger.Warn("AUDIO", fmt.Sprintf("Failed to resume after video: %v", err))
		return
	}
	c.state = Playing
}

func (c *Controller) retryLocked() {
	c.retried = true
	if err := c.player.Play(); err != nil {
		c.logger.Info("AUDIO", fmt.Sprintf("Playback still blocked: %v", err))
		c.state = Paused
		return
	}
	c.state = Playing
	c.autoplayBlocked = false
}
