package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/mathvision/internal/config"
)

func TestSettings(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "mathvision.yaml")
	data := []byte("camera:\n  device: 2\ndebug:\n  addr: localhost:9000\n")
	if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	tests := []struct {
		name       string
		args       []string
		wantDevice int
		wantRecord string
		wantDebug  string
	}{
		{
			name:       "defaults",
			args:       nil,
			wantDevice: 0,
		},
		{
			name:       "flags",
			args:       []string{"--camera", "1", "-r", "run.db", "--debug-addr", ":8080"},
			wantDevice: 1,
			wantRecord: "run.db",
			wantDebug:  ":8080",
		},
		{
			name:       "config file",
			args:       []string{"-c", cfgPath},
			wantDevice: 2,
			wantDebug:  "localhost:9000",
		},
		{
			name:       "flags override config file",
			args:       []string{"--config", cfgPath, "--camera", "0"},
			wantDevice: 0,
			wantDebug:  "localhost:9000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &options{}
			cmd := newCommand(opts)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags() error = %v", err)
			}

			got, err := opts.settings(cmd)
			if err != nil {
				t.Fatalf("settings() error = %v", err)
			}

			if got.Camera.Device != tt.wantDevice {
				t.Errorf("Camera.Device = %d, want %d", got.Camera.Device, tt.wantDevice)
			}
			if got.Record.Path != tt.wantRecord {
				t.Errorf("Record.Path = %q, want %q", got.Record.Path, tt.wantRecord)
			}
			if got.Debug.Addr != tt.wantDebug {
				t.Errorf("Debug.Addr = %q, want %q", got.Debug.Addr, tt.wantDebug)
			}
			if got.Display != config.Default().Display {
				t.Errorf("Display = %+v, want defaults", got.Display)
			}
		})
	}
}

func TestSettings_MissingConfig(t *testing.T) {
	opts := &options{}
	cmd := newCommand(opts)
	if err := cmd.ParseFlags([]string{"-c", filepath.Join(t.TempDir(), "missing.yaml")}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	if _, err := opts.settings(cmd); err == nil {
		t.Error("expected error for a missing config file")
	}
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"extra"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	if err := cmd.Execute(); err == nil {
		t.Error("expected error for positional arguments")
	}
}
