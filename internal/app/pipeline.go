package app

import (
	"time"

	"github.com/rs/zerolog/log"
)

// runLoop ticks the session at the configured rate until stop closes. The
// session, and everything it owns, is only touched from here.
func (a *App) runLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(a.config.TickRate))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := float64(now.Sub(last)) / float64(time.Millisecond)
			last = now
			a.step(dt)
		}
	}
}

// step runs one tick: pending requests first, then the simulation, then the
// sinks.
func (a *App) step(dtRaw float64) {
drain:
	for {
		select {
		case r := <-a.requests:
			r.reply <- a.handle(r)
		default:
			break drain
		}
	}

	events := a.session.Tick(dtRaw, a.feed.Latest())
	snap := a.session.Snapshot()

	a.mu.Lock()
	a.last = snap
	sinks := append([]Sink(nil), a.sinks...)
	a.mu.Unlock()

	a.onEvents(snap, events)
	for _, s := range sinks {
		s.Publish(snap, events)
	}
}

// startPipeline opens the camera and starts feeding tracker output into the
// feed. It is a no-op when the pipeline already runs.
func (a *App) startPipeline() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pipeStop != nil {
		return nil
	}
	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(a.config.Camera.FPS)

	a.pipeStop = make(chan struct{})
	a.pipeDone = make(chan struct{})
	go a.runPipeline(a.pipeStop, a.pipeDone)

	log.Info().Msg("capture pipeline started")
	return nil
}

func (a *App) stopPipeline() {
	a.mu.Lock()
	stop, done := a.pipeStop, a.pipeDone
	a.pipeStop, a.pipeDone = nil, nil
	a.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done

	if err := a.Camera().Close(); err != nil {
		log.Warn().Err(err).Msg("error closing camera")
	}
	a.motion.Reset()
	a.feed.Clear()
	log.Info().Msg("capture pipeline stopped")
}

// runPipeline reads frames, tracks hands and publishes them. The capture rate
// drops while the scene is still and no hand is tracked.
//
// Frames that fail to read or track publish nothing, so the feed ages out
// and the game sees no hand.
func (a *App) runPipeline(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	camera, tracker := a.Camera(), a.Detector()
	fps := camera.FPS()
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			frame, err := camera.ReadFrame()
			if err != nil {
				log.Debug().Err(err).Msg("frame read failed")
				continue
			}

			moved, _ := a.motion.Detect(frame)
			if a.preview.Wanted() {
				if err := a.preview.Update(frame); err != nil {
					log.Debug().Err(err).Msg("preview encode failed")
				}
			}

			hands, err := tracker.Detect(frame)
			frame.Close()
			if err != nil {
				log.Warn().Err(err).Msg("hand tracking failed")
				continue
			}
			a.feed.Publish(hands)

			if next := a.governor.Next(moved, len(hands) > 0); next != fps {
				fps = next
				camera.SetFPS(fps)
				ticker.Reset(time.Second / time.Duration(fps))
				log.Debug().Int("fps", fps).Msg("capture rate changed")
			}
		}
	}
}
