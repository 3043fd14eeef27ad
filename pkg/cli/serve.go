package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/getmockd/stubrouter/pkg/cli/internal/output"
	"github.com/getmockd/stubrouter/pkg/config"
	"github.com/getmockd/stubrouter/pkg/logging"
	"github.com/getmockd/stubrouter/pkg/metrics"
	"github.com/getmockd/stubrouter/pkg/stubapi"
	"github.com/getmockd/stubrouter/pkg/stubclient"
	"github.com/getmockd/stubrouter/pkg/stubstore"
	"github.com/getmockd/stubrouter/pkg/webui"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown.
const shutdownTimeout = 30 * time.Second

// MetricsPath serves Prometheus metrics.
const MetricsPath = "/metrics"

func newServeCmd(g *globals) *cobra.Command {
	var (
		host        string
		port        int
		targets     []string
		storageType string
		storagePath string
		cacheOn     bool
		logLevel    string
		logFormat   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the stub store API and the stub editor",
		Long: `Run the stub store API under /stubapi/ and the stub editor under /stubs
on one listener. Prometheus metrics are served at /metrics.`,
		Example: `  stubrouter serve --targets svcA,svcB
  stubrouter serve --storage file --storage-path ./stubs
  stubrouter serve --storage redis --storage-path redis://localhost:6379/0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flagCfg := &config.Config{}
			f := cmd.Flags()
			if f.Changed("host") {
				flagCfg.Host = host
			}
			if f.Changed("port") {
				flagCfg.Port = port
			}
			if f.Changed("targets") {
				flagCfg.Targets = targets
			}
			if f.Changed("storage") {
				flagCfg.Storage.Type = storageType
			}
			if f.Changed("storage-path") {
				flagCfg.Storage.Path = storagePath
			}
			flagCfg.Storage.Cache.Enabled = cacheOn
			if f.Changed("log-level") {
				flagCfg.Log.Level = logLevel
			}
			if f.Changed("log-format") {
				flagCfg.Log.Format = logFormat
			}
			config.Merge(g.cfg, flagCfg, config.SourceFlag)

			if err := g.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if len(g.cfg.Targets) == 0 {
				output.Warn(cmd.ErrOrStderr(), "no targets configured, the editor opens only via %s?target=<name>", webui.EditorPath)
			}
			return runServe(cmd.Context(), g.cfg)
		},
	}

	cmd.Flags().StringVar(&host, "host", config.DefaultHost, "Listen host")
	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "Listen port")
	cmd.Flags().StringSliceVar(&targets, "targets", nil, "Mock targets offered by the editor (comma-separated)")
	cmd.Flags().StringVar(&storageType, "storage", stubstore.TypeMemory, "Stub storage: memory, file or redis")
	cmd.Flags().StringVar(&storagePath, "storage-path", "", "Directory for file storage or URL for redis storage")
	cmd.Flags().BoolVar(&cacheOn, "cache", false, "Cache stub listings in memory")
	cmd.Flags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&logFormat, "log-format", config.DefaultLogFormat, "Log format: text or json")
	return cmd
}

// runServe listens on cfg.Addr() and serves until SIGINT or SIGTERM.
func runServe(ctx context.Context, cfg *config.Config) error {
	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: logging.ParseFormat(cfg.Log.Format),
	})

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}

	srv, err := newServer(cfg, selfURL(ln.Addr()), log)
	if err != nil {
		_ = ln.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.serve(ctx, ln)
}

// server bundles the HTTP server with the storage it owns.
type server struct {
	http    *http.Server
	storage stubstore.Storage
	log     *slog.Logger
}

// newServer wires storage, the store API, the editor UI and metrics onto
// one router. The UI reaches the store API through storeURL, presenting the
// signed-in operator's token when auth is on.
func newServer(cfg *config.Config, storeURL string, log *slog.Logger) (*server, error) {
	m := metrics.New()

	storage, err := stubstore.Open(cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("open stub storage: %w", err)
	}
	storage = stubstore.Instrument(storage, m)

	auth := stubapi.NewAuth(cfg.Auth.TokenSecret, cfg.Auth.UserField)
	api := stubapi.New(storage,
		stubapi.WithLogger(log),
		stubapi.WithAuth(auth),
		stubapi.WithRecorder(m),
	)

	uiOpts := []webui.Option{
		webui.WithTargets(cfg.Targets...),
		webui.WithLogger(log),
		webui.WithRecorder(m),
		webui.WithSessionTTL(cfg.Session.TTL),
	}
	if auth != nil {
		uiOpts = append(uiOpts, webui.WithAuth(auth))
	}
	ui := webui.New(stubclient.New(storeURL, stubclient.WithLogger(log)), uiOpts...)

	r := mux.NewRouter()
	r.Handle(MetricsPath, m.Handler()).Methods(http.MethodGet)
	api.Register(r)
	ui.Register(r)

	return &server{
		http: &http.Server{
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		storage: storage,
		log:     log,
	}, nil
}

// serve blocks until ctx is done or the listener fails, then shuts down.
func (s *server) serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()
	s.log.Info("stubrouter listening",
		"addr", ln.Addr().String(),
		"api", stubapi.APIPath,
		"editor", webui.EditorPath,
	)

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
		s.log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("http shutdown", "error", err)
	}
	if err := s.storage.Close(); err != nil {
		s.log.Warn("close stub storage", "error", err)
	}
	return serveErr
}

// selfURL returns a loopback URL for a listener address. Wildcard hosts
// are replaced by 127.0.0.1.
func selfURL(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return "http://" + addr.String()
	}
	host := "127.0.0.1"
	if tcp.IP != nil && !tcp.IP.IsUnspecified() {
		host = tcp.IP.String()
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(tcp.Port))
}
