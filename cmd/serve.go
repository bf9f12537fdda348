package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/bugtrack/internal/api"
	"github.com/joescharf/bugtrack/internal/daemon"
	"github.com/joescharf/bugtrack/internal/metrics"
	webui "github.com/joescharf/bugtrack/internal/ui"
)

const shutdownTimeout = 5 * time.Second

var serveBackground bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API and web UI server",
	Long: `Start an HTTP server exposing the bug REST API under /api/bugs, a health
check at /health, Prometheus metrics at /metrics and the embedded web UI at /.
By default it listens on port 5000. Use --port to change it.

With --background the server is re-launched detached; use 'bugtrack serve
status' and 'bugtrack serve stop' to manage it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStartRun()
	},
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a background server is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStatusRun()
	},
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStopRun()
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 5000, "port to listen on")
	serveCmd.Flags().String("host", "", "host/interface to bind (default all)")
	serveCmd.Flags().String("pid-file", "", "PID file path (default <state_dir>/bugtrack-serve.pid)")
	serveCmd.Flags().BoolVar(&serveBackground, "background", false, "run the server detached from the terminal")
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.pid_file", serveCmd.Flags().Lookup("pid-file"))

	serveCmd.AddCommand(serveStatusCmd)
	serveCmd.AddCommand(serveStopCmd)
	rootCmd.AddCommand(serveCmd)
}

func pidFile() *daemon.PIDFile {
	path := viper.GetString("server.pid_file")
	if path == "" {
		path = filepath.Join(viper.GetString("state_dir"), "bugtrack-serve.pid")
	}
	return daemon.NewPIDFile(path)
}

func serveLogPath() string {
	return filepath.Join(viper.GetString("state_dir"), "bugtrack-serve.log")
}

func serveAddr() string {
	return net.JoinHostPort(viper.GetString("server.host"), strconv.Itoa(viper.GetInt("server.port")))
}

func serveStartRun() error {
	pf := pidFile()
	// A background child finds its own PID already recorded by the parent.
	if pid, running := pf.IsRunning(); running && pid != os.Getpid() {
		return fmt.Errorf("server already running (PID %d); stop it with 'bugtrack serve stop'", pid)
	}

	if dryRun {
		ui.DryRunMsg("Would serve on %s (store: %s)", serveAddr(), viper.GetString("store.driver"))
		return nil
	}
	if serveBackground {
		return serveBackgroundRun(pf)
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals()...)
	defer stop()
	return runServer(ctx, pf)
}

// serveBackgroundRun re-executes this binary without --background, detached and
// logging to serveLogPath.
func serveBackgroundRun(pf *daemon.PIDFile) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	logPath := serveLogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open server log: %w", err)
	}
	defer logFile.Close()

	args := slices.DeleteFunc(slices.Clone(os.Args[1:]), func(a string) bool {
		return a == "--background" || a == "--background=true"
	})
	child := exec.Command(exe, args...)
	child.Stdout = logFile
	child.Stderr = logFile
	setDaemonAttrs(child)

	if err := child.Start(); err != nil {
		return fmt.Errorf("start background server: %w", err)
	}
	if err := pf.WritePID(child.Process.Pid); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	_ = child.Process.Release()

	ui.Success("Server started in background on http://%s (PID %d)", serveAddr(), child.Process.Pid)
	ui.Info("Logs: %s", logPath)
	return nil
}

// runServer serves until ctx is cancelled, then drains in-flight requests and
// closes the store.
func runServer(ctx context.Context, pf *daemon.PIDFile) error {
	svc, err := getService()
	if err != nil {
		return err
	}
	logger := slog.Default()

	opts := []api.Option{api.WithLogger(logger)}
	if viper.GetBool("server.metrics") {
		opts = append(opts, api.WithMetrics(metrics.New()))
	}
	if viper.GetBool("server.ui") {
		h, err := webui.Handler()
		if err != nil {
			return fmt.Errorf("failed to initialize UI handler: %w", err)
		}
		opts = append(opts, api.WithUI(h))
	}

	addr := serveAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(svc, opts...).Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	pid := os.Getpid()
	if err := pf.Acquire(pid); err != nil {
		_ = ln.Close()
		return err
	}
	defer func() { _ = pf.Release(pid) }()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", ln.Addr().String(), "store", viper.GetString("store.driver"))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	closeStore()
	logger.Info("server stopped")
	return nil
}

func serveStatusRun() error {
	pf := pidFile()
	pid, running := pf.IsRunning()
	if !running {
		ui.Info("Server is not running")
		return nil
	}
	ui.Success("Server is running (PID %d) on http://%s", pid, serveAddr())
	ui.VerboseLog("PID file: %s", pf.Path)
	return nil
}

func serveStopRun() error {
	pf := pidFile()
	if dryRun {
		if pid, running := pf.IsRunning(); running {
			ui.DryRunMsg("Would stop server (PID %d)", pid)
			return nil
		}
	}

	pid, err := pf.Stop(sigTERM(), sigKILL(), shutdownTimeout+time.Second)
	if err != nil {
		return err
	}
	ui.Success("Server stopped (PID %d)", pid)
	return nil
}
