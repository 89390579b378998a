package shared

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestVerifyAndReadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("regular file", func(t *testing.T) {
		path := filepath.Join(dir, "clip.wav")
		if err := os.WriteFile(path, []byte("RIFF"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		data, err := VerifyAndReadFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "RIFF" {
			t.Errorf("expected RIFF, got %q", data)
		}
	})

	tt := []struct {
		name string
		path string
		want error
	}{
		{name: "empty path", path: "", want: ErrMissingArgument},
		{name: "missing file", path: filepath.Join(dir, "missing.wav"), want: ErrInvalidInput},
		{name: "directory", path: dir, want: ErrInvalidInput},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := VerifyAndReadFile(tc.path)
			if !errors.Is(err, tc.want) {
				t.Errorf("VerifyAndReadFile() error = %v, want %v", err, tc.want)
			}
		})
	}

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty.wav")
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if _, err := VerifyAndReadFile(path); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]string{"emotion": "happy"}

	compact, err := MarshalJSON(data, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(compact) != `{"emotion":"happy"}` {
		t.Errorf("unexpected compact output: %s", compact)
	}

	pretty, err := MarshalJSON(data, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(pretty), "\n  \"emotion\"") {
		t.Errorf("expected indented output, got %s", pretty)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := WithLogger(NewLogger(&buf), "component", "recorder")
	logger.Info("capture started", "sample_rate", 16000)

	out := buf.String()
	if !strings.Contains(out, "capture started") || !strings.Contains(out, "component=recorder") {
		t.Errorf("unexpected log output: %s", out)
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected unique IDs")
	}
	if len(a) != 36 {
		t.Errorf("expected 36 character UUID, got %d", len(a))
	}
}

func TestOpenBrowser(t *testing.T) {
	var started []string
	startCommand = func(cmd *exec.Cmd) error {
		started = cmd.Args
		return nil
	}
	t.Cleanup(func() { startCommand = func(cmd *exec.Cmd) error { return cmd.Start() } })

	t.Run("rejects non-web links", func(t *testing.T) {
		for _, link := range []string{"", "file:///etc/passwd", "javascript:alert(1)", "https://", "spotify:track:1"} {
			if err := OpenBrowser(link); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("OpenBrowser(%q) error = %v, want ErrInvalidArgument", link, err)
			}
		}
	})

	t.Run("opens with the platform command", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		t.Cleanup(func() { getRuntime = func() string { return runtime.GOOS } })

		if err := OpenBrowser("https://open.spotify.com/track/1"); err != nil {
			t.Fatalf("OpenBrowser() error = %v", err)
		}
		if len(started) != 2 || started[0] != "xdg-open" || started[1] != "https://open.spotify.com/track/1" {
			t.Errorf("unexpected command %q", started)
		}
	})

	t.Run("unsupported platform", func(t *testing.T) {
		if _, err := browserCommand("plan9", "https://example.com"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}
