//go:build unix

package audio

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
)

// fakeFFmpeg writes a script that ignores its arguments and copies stdin to stdout.
func fakeFFmpeg(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexec cat\n"), 0755); err != nil {
		t.Fatalf("failed to write fake ffmpeg: %v", err)
	}
	return path
}

func TestFFmpegEncoderProcessGroup(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}

	enc := NewFFmpegEncoder(fakeFFmpeg(t), nil)
	pr, pw := io.Pipe()

	var mu sync.Mutex
	var out bytes.Buffer
	onChunk := func(c []byte) {
		mu.Lock()
		out.Write(c)
		mu.Unlock()
	}

	if err := enc.Start(context.Background(), pr, DefaultEncoderConfig(), onChunk); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	pid := enc.cmd.Process.Pid
	pgid, err := syscall.Getpgid(pid)
	if err != nil {
		t.Fatalf("Getpgid() error = %v", err)
	}
	if pgid != pid {
		t.Errorf("ffmpeg pgid = %d, want its own group %d", pgid, pid)
	}
	if pgid == syscall.Getpgrp() {
		t.Error("ffmpeg shares the foreground process group and would receive a terminal interrupt")
	}

	pw.Write([]byte("pcm-frames"))
	pw.Close()

	if err := enc.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if out.String() != "pcm-frames" {
		t.Errorf("encoded output = %q", out.String())
	}
}
