package audio

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockPlayer struct {
	mock.Mock
}

func (m *MockPlayer) Load(src string) error {
	return m.Called(src).Error(0)
}

func (m *MockPlayer) Play() error {
	return m.Called().Error(0)
}

func (m *MockPlayer) Pause()                   { m.Called() }
func (m *MockPlayer) SetMuted(muted bool)      { m.Called(muted) }
func (m *MockPlayer) SetVolume(volume float64) { m.Called(volume) }
func (m *MockPlayer) SetLoop(loop bool)        { m.Called(loop) }

func newPlayer(t *testing.T) *MockPlayer {
	t.Helper()
	p := &MockPlayer{}
	p.On("SetVolume", DefaultVolume).Return().Once()
	p.On("SetLoop", true).Return().Once()
	p.On("Load", "music.mp3").Return(nil).Once()
	return p
}

func TestNewController_Autoplays(t *testing.T) {
	p := newPlayer(t)
	p.On("Play").Return(nil).Once()

	c := NewController(p, "music.mp3", DefaultOptions())

	assert.Equal(t, Playing, c.State())
	assert.True(t, c.Available())
	assert.False(t, c.AutoplayBlocked())
	p.AssertExpectations(t)
}

func TestNewController_NilPlayerDisabled(t *testing.T) {
	c := NewController(nil, "music.mp3", DefaultOptions())

	assert.Equal(t, Disabled, c.State())
	assert.False(t, c.Available())
	c.ToggleMute()
	c.TogglePlayPause()
	c.OnInteraction(Pointer)
	assert.Equal(t, Disabled, c.State())
}

func TestNewController_LoadFailureDisabled(t *testing.T) {
	p := &MockPlayer{}
	p.On("SetVolume", DefaultVolume).Return()
	p.On("SetLoop", true).Return()
	p.On("Load", "music.mp3").Return(errors.New("404")).Once()

	c := NewController(p, "music.mp3", DefaultOptions())
	assert.Equal(t, Disabled, c.State())
	p.AssertNotCalled(t, "Play")
}

func TestNewController_PlayErrorDisabled(t *testing.T) {
	p := newPlayer(t)
	p.On("Play").Return(errors.New("decoder missing")).Once()

	c := NewController(p, "music.mp3", DefaultOptions())
	assert.Equal(t, Disabled, c.State())
	assert.False(t, c.Available())
}

func TestOnInteraction_RetriesOnce(t *testing.T) {
	p := newPlayer(t)
	p.On("Play").Return(ErrAutoplayBlocked).Twice()

	c := NewController(p, "music.mp3", DefaultOptions())
	assert.Equal(t, AwaitingInteraction, c.State())
	assert.True(t, c.AutoplayBlocked())

	c.OnInteraction(Touch)
	assert.Equal(t, Paused, c.State())
	assert.True(t, c.AutoplayBlocked())

	c.OnInteraction(Scroll)
	c.OnInteraction(Key)
	p.AssertNumberOfCalls(t, "Play", 2)
}

func TestOnInteraction_StartsPlayback(t *testing.T) {
	p := newPlayer(t)
	p.On("Play").Return(ErrAutoplayBlocked).Once()
	p.On("Play").Return(nil).Once()

	c := NewController(p, "music.mp3", DefaultOptions())
	c.OnInteraction(Pointer)

	assert.Equal(t, Playing, c.State())
	assert.False(t, c.AutoplayBlocked())
}

func TestTogglePlayPause_CountsAsGesture(t *testing.T) {
	p := newPlayer(t)
	p.On("Play").Return(ErrAutoplayBlocked).Once()
	p.On("Play").Return(nil).Once()

	c := NewController(p, "music.mp3", DefaultOptions())
	c.TogglePlayPause()
	assert.Equal(t, Playing, c.State())

	c.OnInteraction(Pointer)
	p.AssertNumberOfCalls(t, "Play", 2)
}

func TestTogglePlayPause(t *testing.T) {
	p := newPlayer(t)
	p.On("Play").Return(nil)
	p.On("Pause").Return()

	c := NewController(p, "music.mp3", DefaultOptions())

	c.TogglePlayPause()
	assert.Equal(t, Paused, c.State())
	c.TogglePlayPause()
	assert.Equal(t, Playing, c.State())
}

func TestToggleMute_IndependentOfPlayback(t *testing.T) {
	p := newPlayer(t)
	p.On("Play").Return(nil)
	p.On("Pause").Return()
	p.On("SetMuted", true).Return().Once()
	p.On("SetMuted", false).Return().Once()

	c := NewController(p, "music.mp3", DefaultOptions())

	c.ToggleMute()
	assert.True(t, c.Muted())
	assert.Equal(t, Playing, c.State())

	c.TogglePlayPause()
	c.ToggleMute()
	assert.False(t, c.Muted())
	assert.Equal(t, Paused, c.State())
	p.AssertExpectations(t)
}

func TestVideo_ResumesOnlyIfPlaying(t *testing.T) {
	p := newPlayer(t)
	p.On("Play").Return(nil)
	p.On("Pause").Return()

	c := NewController(p, "music.mp3", DefaultOptions())

	c.PauseForVideo()
	assert.Equal(t, Paused, c.State())
	c.ResumeAfterVideo()
	assert.Equal(t, Playing, c.State())

	c.TogglePlayPause()
	c.PauseForVideo()
	c.ResumeAfterVideo()
	assert.Equal(t, Paused, c.State())
	p.AssertNumberOfCalls(t, "Play", 2)
}

func TestController_ConcurrentUse(t *testing.T) {
	p := newPlayer(t)
	p.On("Play").Return(nil)
	p.On("Pause").Return()
	p.On("SetMuted", mock.Anything).Return()

	c := NewController(p, "music.mp3", DefaultOptions())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.ToggleMute()
			c.TogglePlayPause()
			_ = c.Available()
		}()
	}
	wg.Wait()

	assert.Contains(t, []State{Playing, Paused}, c.State())
}
