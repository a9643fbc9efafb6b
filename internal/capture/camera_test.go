package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestNewCamera(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantFPS int
	}{
		{name: "zero config takes defaults", cfg: Config{}, wantFPS: DefaultFPS},
		{name: "default config", cfg: DefaultConfig(), wantFPS: DefaultFPS},
		{name: "explicit rate", cfg: Config{DeviceID: 1, FPS: 15}, wantFPS: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(tt.cfg)

			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
			if cam.IsOpen() {
				t.Error("camera should not be open initially")
			}
		})
	}
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(DefaultConfig())

	for _, step := range []struct{ set, want int }{
		{10, 10},
		{30, 30},
		{0, 30},
		{-5, 30},
	} {
		cam.SetFPS(step.set)
		if got := cam.FPS(); got != step.want {
			t.Errorf("SetFPS(%d): FPS() = %d, want %d", step.set, got, step.want)
		}
	}
}

func TestCamera_ReadFrame_NotOpened(t *testing.T) {
	cam := NewCamera(DefaultConfig())

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
	if err := cam.Close(); err != nil {
		t.Errorf("Close() on closed camera = %v, want nil", err)
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(DefaultConfig())
	if err := cam.Open(); err != nil {
		if !errors.Is(err, ErrCameraUnavailable) {
			t.Errorf("Open() error should wrap ErrCameraUnavailable, got %v", err)
		}
		t.Skipf("skipping test - camera not available: %v", err)
	}
	defer cam.Close()

	mat, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() failed: %v", err)
	}
	defer mat.Close()
	if mat.Empty() {
		t.Error("ReadFrame() returned empty mat")
	}
}

func TestMockCamera(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	t.Run("blank frames without a recording", func(t *testing.T) {
		cam := NewMockCamera()
		if err := cam.Open(); err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer cam.Close()

		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() error = %v", err)
		}
		defer f.Close()
		if f.Cols() != DefaultWidth || f.Rows() != DefaultHeight {
			t.Errorf("frame size = %dx%d", f.Cols(), f.Rows())
		}
	})

	t.Run("recording loops", func(t *testing.T) {
		frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
		defer frame.Close()

		cam := NewMockCamera(&frame)
		cam.Open()
		defer cam.Close()

		for i := 0; i < 5; i++ {
			f, err := cam.ReadFrame()
			if err != nil {
				t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
			}
			f.Close()
		}
	})

	t.Run("open failure", func(t *testing.T) {
		cam := NewMockCamera()
		cam.FailOpen(ErrCameraUnavailable)

		if err := cam.Open(); !errors.Is(err, ErrCameraUnavailable) {
			t.Errorf("Open() error = %v", err)
		}
		if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
			t.Errorf("ReadFrame() error = %v", err)
		}
		if cam.Opens() != 0 {
			t.Errorf("Opens() = %d, want 0", cam.Opens())
		}
	})
}
