package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/repositories"
	"github.com/desertthunder/shelf/internal/services"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/desertthunder/shelf/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	catalog     services.BookCatalog
	auth        services.Authenticator
	collections services.Collections
	closer      io.Closer
	engine      *tasks.CollectionEngine
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	openURL     func(string) error
	injected    RunnerOpts
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Nil services are built from Config by [Runner.Configure]; tests inject fakes instead.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Catalog     services.BookCatalog
	Auth        services.Authenticator
	Collections services.Collections
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
	OpenURL     func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	r := &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		catalog:     opts.Catalog,
		auth:        opts.Auth,
		collections: opts.Collections,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		openURL:     opts.OpenURL,
		injected:    opts,
	}
	r.wire()
	return r
}

// wire fills in services that were not injected, without touching the network.
func (r *Runner) wire() {
	cfg := r.config
	if r.catalog == nil {
		client := *r.httpClient
		client.Timeout = cfg.CatalogTimeout()
		r.catalog = services.NewCatalogService(cfg.Catalog.BaseURL, cfg.Catalog.APIKey, &client, shared.WithLogger(r.logger, "component", "catalog"))
	}
	if r.auth == nil {
		r.auth = r.newAuthGateway()
	}
	if r.collections != nil {
		r.engine = tasks.NewCollectionEngine(r.catalog, r.collections, shared.WithLogger(r.logger, "component", "engine"))
	}
}

// rewire rebuilds the services that were not injected, picking up the current config and logger.
func (r *Runner) rewire() {
	r.catalog = r.injected.Catalog
	r.auth = r.injected.Auth
	r.wire()
}

func (r *Runner) newAuthGateway() *services.AuthGateway {
	cfg := r.config
	opts := services.AuthOptions{Logger: shared.WithLogger(r.logger, "component", "auth")}
	if !cfg.Connected() {
		return services.NewAuthGateway(opts)
	}

	opts.Provider = services.NewGoTrueProvider(cfg.Supabase.URL, cfg.Supabase.AnonKey, r.httpClient)
	opts.AuthorizeURL = services.AuthorizeURL(cfg.Supabase.URL)
	if path, err := cfg.SessionFile(); err != nil {
		r.logger.Warn("session will not persist", "error", err)
	} else if path != "" {
		opts.Store = services.NewFileSessionStore(path)
	}
	return services.NewAuthGateway(opts)
}

// Configure loads the config file and environment, then rebuilds the services from it.
//
// It runs before every command. A missing file is only an error when --config was given explicitly.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	r.configPath = path

	cfg := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if cfg, err = shared.LoadConfig(path); err != nil {
			return ctx, err
		}
	} else if cmd.IsSet("config") && !creatingConfig(cmd) {
		return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	}

	if err := shared.LoadEnv(); err != nil {
		r.logger.Warn("could not load .env", "error", err)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return ctx, err
	}

	shared.SetLocale(cfg.UI.Locale)
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	} else if err := shared.ApplyLogLevel(r.logger, cfg.Log.Level); err != nil {
		return ctx, err
	}

	r.config = cfg
	r.rewire()
	return ctx, nil
}

// creatingConfig reports whether the command being run is `setup config`, which may name a file that does not exist yet.
func creatingConfig(cmd *cli.Command) bool {
	args := cmd.Args().Slice()
	return len(args) >= 2 && args[0] == "setup" && args[1] == "config"
}

// Close releases the collection store, if one was opened.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// SetLogger replaces the logger used by the runner. Services built afterwards pick it up.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// openBackend connects the configured collection store backend. A nil store means not connected.
func openBackend(ctx context.Context, cfg *shared.Config) (models.EntryStore, error) {
	if !cfg.StoreConfigured() {
		return nil, nil
	}

	switch cfg.Store.Backend {
	case shared.BackendPostgres:
		pg, err := repositories.OpenPostgresStore(ctx, cfg.Store.DSN, cfg.Store.MaxOpenConns)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case shared.BackendSQLite:
		path, err := shared.ExpandHome(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		lite, err := repositories.OpenSQLiteStore(ctx, path, cfg.Store.MaxOpenConns, cfg.Store.MaxIdleConns)
		if err != nil {
			return nil, err
		}
		return lite, nil
	default:
		return services.NewPostgRESTStore(cfg.Supabase.URL, cfg.Supabase.AnonKey), nil
	}
}

// store returns the collection store, opening the backend on first use.
func (r *Runner) store(ctx context.Context) (services.Collections, error) {
	if r.collections != nil {
		return r.collections, nil
	}

	backend, err := openBackend(ctx, r.config)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", r.config.Store.Backend, err)
	}
	r.logger.Debug("collection store ready", "backend", r.config.Store.Backend, "connected", backend != nil)

	cs := services.NewCollectionStore(backend, r.config.Store.MovePolicy, shared.WithLogger(r.logger, "component", "collections"))
	r.collections = cs
	r.closer = cs
	r.engine = tasks.NewCollectionEngine(r.catalog, cs, shared.WithLogger(r.logger, "component", "engine"))
	return cs, nil
}

// session restores the stored session and returns it, failing when nobody is signed in.
func (r *Runner) session(ctx context.Context) (*models.Session, error) {
	if !r.auth.Connected() {
		return nil, shared.NewError(shared.ErrNotConnected, shared.MsgNotConnected, nil)
	}
	if s := r.auth.CurrentSession(); s != nil {
		return s, nil
	}
	if err := r.auth.Reload(ctx); err != nil {
		return nil, err
	}
	if s := r.auth.CurrentSession(); s != nil {
		return s, nil
	}
	return nil, shared.NewError(shared.ErrNotAuthenticated, shared.MsgNotAuthenticated, nil)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, searchCommand, authCommand, listCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
