// Package audio renders game events as synthesized tones through the
// system speaker.
package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/stickman/internal/game"
	"github.com/ayusman/stickman/internal/store"
)

const sampleRate = beep.SampleRate(44100)

// maxVoices bounds concurrent one-shot effects. Further events in a burst
// are dropped.
const maxVoices = 12

// SoundManager plays effects for game events. It implements the app's sink
// interface and persists the mute toggle in the settings store.
type SoundManager struct {
	mu          sync.Mutex
	settings    *store.SettingsRepository
	mixer       *beep.Mixer
	music       *beep.Ctrl
	muted       bool
	initialized bool
}

// NewSoundManager creates a sound manager. settings may be nil, in which case
// the mute toggle lives only in memory.
func NewSoundManager(settings *store.SettingsRepository) *SoundManager {
	sm := &SoundManager{
		settings: settings,
		mixer:    &beep.Mixer{},
	}
	if settings != nil {
		sm.muted = settings.Bool(store.SettingMuted, false)
	}
	return sm
}

// Initialize opens the speaker and starts the mixer.
func (sm *SoundManager) Initialize() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}

	speaker.Play(sm.mixer)
	sm.initialized = true
	return nil
}

// Cleanup silences everything and closes the speaker.
func (sm *SoundManager) Cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}

	speaker.Lock()
	sm.mixer.Clear()
	sm.music = nil
	speaker.Unlock()

	speaker.Close()
	sm.initialized = false
}

// Publish plays a sound for each audible event and keeps the music drone
// running while a round is in play.
func (sm *SoundManager) Publish(snap game.Snapshot, events []game.Event) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}

	speaker.Lock()
	defer speaker.Unlock()

	sm.setMusicLocked(!sm.muted && snap.Phase == game.PhasePlaying)
	if sm.muted {
		return
	}

	for _, ev := range events {
		s := EffectFor(ev, sampleRate)
		if s == nil {
			continue
		}
		if sm.mixer.Len() >= maxVoices {
			return
		}
		sm.mixer.Add(s)
	}
}

// setMusicLocked starts or pauses the drone. Callers hold sm.mu and the
// speaker lock.
func (sm *SoundManager) setMusicLocked(on bool) {
	if sm.music == nil {
		if !on {
			return
		}
		sm.music = &beep.Ctrl{Streamer: newMusic(sampleRate)}
		sm.mixer.Add(sm.music)
		return
	}
	sm.music.Paused = !on
}

// Muted reports whether sound is off.
func (sm *SoundManager) Muted() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.muted
}

// SetMuted switches sound on or off and persists the choice.
func (sm *SoundManager) SetMuted(muted bool) error {
	sm.mu.Lock()
	sm.muted = muted
	if muted && sm.initialized {
		speaker.Lock()
		sm.mixer.Clear()
		sm.music = nil
		speaker.Unlock()
	}
	sm.mu.Unlock()

	log.Info().Bool("muted", muted).Msg("audio toggled")

	if sm.settings == nil {
		return nil
	}
	if err := sm.settings.SetBool(store.SettingMuted, muted); err != nil {
		return fmt.Errorf("persist mute: %w", err)
	}
	return nil
}

// ToggleMute flips the mute state and returns the new value.
func (sm *SoundManager) ToggleMute() (bool, error) {
	muted := !sm.Muted()
	return muted, sm.SetMuted(muted)
}
