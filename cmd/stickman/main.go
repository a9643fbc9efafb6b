package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/stickman/internal/app"
	"github.com/ayusman/stickman/internal/audio"
	"github.com/ayusman/stickman/internal/config"
	"github.com/ayusman/stickman/internal/logger"
	"github.com/ayusman/stickman/internal/server"
	"github.com/ayusman/stickman/internal/store"
	"github.com/ayusman/stickman/internal/tray"
	"github.com/ayusman/stickman/internal/tui"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to a YAML config file (default ~/.stickman/config.yaml)")
		uiMode     = flag.String("ui", "", "Local interface: tray|tui|none")
		addr       = flag.String("addr", "", "HTTP listen address")
		mute       = flag.Bool("mute", false, "Start with sound muted")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stickman: %v\n", err)
		os.Exit(2)
	}
	if *uiMode != "" {
		cfg.UI = *uiMode
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *mute {
		cfg.Mute = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "stickman: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("stickman failed")
	}
}

func run(cfg config.Config) error {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// The terminal UI owns stdout, so its logs go to a file.
	var logOut io.Writer = os.Stderr
	if cfg.UI == config.UITUI {
		f, err := logger.OpenFile(cfg.LogFile)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	if err := logger.Setup(logOut, cfg.LogLevel); err != nil {
		return err
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	a := app.New(app.Config{
		Store:        st,
		PluginDir:    cfg.PluginDir,
		Camera:       cfg.Camera,
		Detector:     cfg.Detector,
		Tuning:       cfg.Game,
		TickRate:     cfg.TickRate,
		MotionThresh: cfg.MotionThres,
		PlayerName:   cfg.PlayerName,
		HookTimeout:  cfg.HookTimeout,
	})
	if err := a.DiscoverPlugins(); err != nil {
		log.Warn().Err(err).Str("dir", cfg.PluginDir).Msg("hook discovery failed")
	}

	hub := server.NewHub()
	a.AddSink(hub)

	sound := audio.NewSoundManager(st.Settings())
	if cfg.Mute {
		if err := sound.SetMuted(true); err != nil {
			log.Warn().Err(err).Msg("could not persist mute")
		}
	}
	if err := sound.Initialize(); err != nil {
		log.Warn().Err(err).Msg("audio unavailable, continuing without sound")
	} else {
		a.AddSink(sound)
		defer sound.Cleanup()
	}

	webDir := cfg.StaticDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		log.Info().Str("dir", webDir).Msg("serving static files")
	}

	srv := server.New(server.Config{
		StaticDir:    webDir,
		Store:        st,
		Controller:   a,
		Hub:          hub,
		Feed:         a.Feed(),
		Preview:      a.Preview(),
		ControlRate:  cfg.Control.Rate,
		ControlBurst: cfg.Control.Burst,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.ListenAndServe(cfg.Addr) }()

	var ui func(ctx context.Context) error
	switch cfg.UI {
	case config.UITUI:
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("create terminal screen: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("init terminal screen: %w", err)
		}
		u := tui.New(screen, a)
		u.OnMute(sound.ToggleMute)
		u.SetMuted(sound.Muted())
		a.AddSink(u)
		ui = u.Run
	case config.UITray:
		t := tray.New(sound.Muted())
		t.OnStart(func() {
			if err := a.StartSession(); err != nil {
				log.Warn().Err(err).Msg("could not start session")
			}
		})
		t.OnRestart(func() {
			if err := a.Restart(); err != nil {
				log.Warn().Err(err).Msg("could not restart")
			}
		})
		t.OnMute(func(muted bool) {
			if err := sound.SetMuted(muted); err != nil {
				log.Warn().Err(err).Msg("could not persist mute")
			}
		})
		t.OnLeaderboard(func() { openBrowser(localURL(cfg.Addr) + "api/leaderboard") })
		t.OnQuit(func() { log.Info().Msg("quit from tray") })
		a.AddSink(t)
		ui = func(ctx context.Context) error {
			go func() {
				<-ctx.Done()
				t.Quit()
			}()
			t.Run()
			return nil
		}
	default:
		ui = func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		}
	}

	if err := a.Start(); err != nil {
		return err
	}
	log.Info().Str("addr", cfg.Addr).Str("ui", cfg.UI).Msg("stickman ready")

	uiCtx, cancelUI := context.WithCancel(ctx)
	uiDone := make(chan error, 1)
	go func() { uiDone <- ui(uiCtx) }()

	var runErr error
	select {
	case runErr = <-uiDone:
	case err := <-srvErr:
		runErr = err
		cancelUI()
		<-uiDone
	}
	cancelUI()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Warn().Err(err).Msg("http shutdown")
	}
	a.Stop()
	return runErr
}

// findWebDir searches for the browser client in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	candidates := []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

// localURL turns a listen address into a browsable URL.
func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("could not open browser")
		return
	}
	go cmd.Wait()
}
