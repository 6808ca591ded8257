package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/crease/internal/app"
	"github.com/ayusman/crease/internal/metrics"
	"github.com/ayusman/crease/internal/server"
	"github.com/ayusman/crease/internal/technique"
	"github.com/ayusman/crease/internal/tray"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard server and live camera coach",
	RunE:  runServe,
}

var serveCameraOn bool

func init() {
	serveCmd.Flags().BoolVar(&serveCameraOn, "camera", false, "Start the camera immediately")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	metrics.Init()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	live := app.DefaultLiveConfig()
	live.TickInterval = cfg.TickInterval
	live.CountdownSteps = cfg.CountdownSteps
	live.CountdownInterval = cfg.CountdownInterval
	live.CaptureDuration = cfg.CaptureDuration

	a := app.New(app.Config{
		Store:    st,
		CameraID: cfg.CameraID,
		Live:     live,
	})
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveCameraOn {
		if err := a.Start(ctx); err != nil {
			log.WithError(err).Warn("Camera did not start")
		}
	}

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		log.WithField("dir", staticDir).Info("Serving static files")
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(server.Config{StaticDir: staticDir, Store: st, App: a}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr).Info("Starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if cfg.Tray {
		go func() {
			<-ctx.Done()
			tray.Quit()
		}()
		runTray(ctx, a)
		stop()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// runTray blocks on the tray menu until Quit.
func runTray(ctx context.Context, a *app.App) {
	t := tray.New()
	t.SetCameraOn(a.Running())
	t.SetHand(string(a.Live().Hands().Override()))

	t.OnToggle(func(on bool) error {
		if on {
			return a.Start(ctx)
		}
		a.Stop()
		return nil
	})
	t.OnCapture(a.Live().ArmCapture)
	t.OnHand(func(hand string) error {
		return a.SetBowlingHand(technique.Hand(hand))
	})
	t.OnDashboard(func() {
		if err := openBrowser("http://" + cfg.Addr); err != nil {
			log.WithError(err).Warn("Could not open browser")
		}
	})

	unsubscribe := a.Live().Subscribe(func(e app.Event) {
		if e.Kind == app.EventSummary && e.Summary != nil {
			t.SetLastScore(string(e.Summary.Type), e.Summary.OverallScore)
		}
	})
	defer unsubscribe()

	t.Run()
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.crease/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	dir, err := cfg.DataPath()
	if err != nil {
		return ""
	}
	homeWebDir := filepath.Join(dir, "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}
