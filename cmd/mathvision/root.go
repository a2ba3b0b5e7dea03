package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/mathvision/internal/app"
	"github.com/ayusman/mathvision/internal/capture"
	"github.com/ayusman/mathvision/internal/config"
	"github.com/ayusman/mathvision/internal/detector"
	"github.com/ayusman/mathvision/internal/display"
	"github.com/ayusman/mathvision/internal/logger"
	"github.com/ayusman/mathvision/internal/overlay"
	"github.com/ayusman/mathvision/internal/server"
	"github.com/ayusman/mathvision/internal/store"
	"github.com/ayusman/mathvision/internal/tracker"
)

type options struct {
	configPath string
	dev        bool
	recordPath string
	debugAddr  string
	camera     int
}

func newRootCmd() *cobra.Command {
	return newCommand(&options{})
}

// newCommand builds the root command with its flags bound to opts.
func newCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mathvision",
		Short: "MathVision hand tracking canvas",
		Long: `Captures the webcam, tracks one hand with MediaPipe and shows the frame with
the hand skeleton and a marker on the index fingertip. Press q in the window to quit.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.dev {
				return logger.InitDevelopment()
			}
			return logger.InitProduction()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			defer logger.Sync()

			settings, err := opts.settings(cmd)
			if err != nil {
				logger.Log().Error("failed to load configuration", zap.Error(err))
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := run(ctx, settings, logger.Log()); err != nil {
				logger.Log().Error("mathvision stopped with error", zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	cmd.Flags().BoolVar(&opts.dev, "dev", false, "Human readable debug logging")
	cmd.Flags().StringVarP(&opts.recordPath, "record", "r", "", "Record the session to this sqlite database")
	cmd.Flags().StringVar(&opts.debugAddr, "debug-addr", "", "Serve the debug preview on this address, e.g. localhost:8080")
	cmd.Flags().IntVar(&opts.camera, "camera", capture.DefaultDevice, "Camera device index")

	return cmd
}

// settings loads the configuration file, if any, and applies the flags
// that were set explicitly.
func (o *options) settings(cmd *cobra.Command) (config.Settings, error) {
	settings := config.Default()
	if o.configPath != "" {
		var err error
		settings, err = config.Load(o.configPath)
		if err != nil {
			return config.Settings{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("record") {
		settings.Record.Path = o.recordPath
	}
	if flags.Changed("debug-addr") {
		settings.Debug.Addr = o.debugAddr
	}
	if flags.Changed("camera") {
		settings.Camera.Device = o.camera
	}
	return settings, nil
}

// run wires the components for settings and blocks until the loop exits.
func run(ctx context.Context, settings config.Settings, log *zap.Logger) error {
	det, err := detector.NewMediaPipeDetector(detector.ConfigFrom(settings.Detection), log)
	if err != nil {
		return fmt.Errorf("hand detector unavailable: %w", err)
	}

	a := app.New(app.Config{
		Camera: capture.NewCamera(settings.Camera.Device, settings.Display.WindowWidth, settings.Display.WindowHeight),
		Tracker: tracker.New(tracker.Config{
			Detector: det,
			Style:    overlay.StyleFrom(settings.Display),
			Logger:   log,
		}),
		Display:      display.NewWindow(settings.Display.WindowName),
		FlipImage:    settings.Display.FlipImage,
		DrawingColor: settings.Display.Colors.DrawingColor.RGBA,
		Logger:       log,
	})

	var st *store.Store
	if settings.Record.Path != "" {
		st, err = store.New(settings.Record.Path)
		if err != nil {
			a.Close()
			return fmt.Errorf("open recording: %w", err)
		}
		defer st.Close()
		a.AddObserver(app.NewRecorder(st, log))
	}

	if settings.Debug.Addr != "" {
		hub := server.NewHub(log)
		a.AddObserver(hub)
		srv := server.New(server.Config{Hub: hub, Store: st, Logger: log})

		srvCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := srv.ListenAndServe(srvCtx, settings.Debug.Addr); err != nil {
				log.Error("debug server failed", zap.Error(err))
			}
		}()
		defer func() {
			cancel()
			<-done
		}()
	}

	return a.Run(ctx)
}
