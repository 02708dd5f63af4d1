package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/term"

	"recipefinder/internal/cache"
	"recipefinder/internal/config"
	"recipefinder/internal/credentials"
	"recipefinder/internal/favorites"
	"recipefinder/internal/mealdb"
	"recipefinder/internal/metrics"
	"recipefinder/internal/ratelimit"
	"recipefinder/internal/shutdown"
	"recipefinder/internal/storage"
	"recipefinder/internal/tui"
	"recipefinder/internal/utils"
	"recipefinder/internal/views"
	"recipefinder/internal/watcher"
)

// Version is set at build time
var Version = "dev"

// Result codes for CLI output (used in no-prompt mode)
const (
	ResultActionCompleted = "ACTION_COMPLETED"
	ResultInfoOnly        = "INFO_ONLY"
	ResultError           = "ERROR"
)

// Config holds application configuration
type Config struct {
	NoPrompt   bool
	Verbose    bool
	ConfigPath string // Path to config file (for testing)
	DBPath     string // Path to database file (for testing)
	BaseURL    string // API root override (for testing)
	APIKey     string // API key override, skips keyring lookup

	Stdin   io.Reader               // Input for prompts, os.Stdin when nil
	Keyring credentials.Keyring     // System keyring when nil
	Getenv  func(key string) string // os.Getenv when nil
}

// Execute runs the CLI with the given arguments and IO writers
func Execute(args []string, stdout, stderr io.Writer, cfg *Config) int {
	rootCmd := NewRecipeFinder(stdout, stderr, cfg)

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		// Check if --json flag was passed to output error as JSON
		if containsJSONFlag(args) {
			outputErrorJSON(err, stdout)
		} else {
			_, _ = fmt.Fprintln(stderr, "Error:", err)
			if cfg != nil && cfg.NoPrompt {
				_, _ = fmt.Fprintln(stdout, ResultError)
			}
		}
		return 1
	}
	return 0
}

// containsJSONFlag checks if args contain --json flag
func containsJSONFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--json" {
			return true
		}
	}
	return false
}

// NewRecipeFinder creates the root command with injectable IO
func NewRecipeFinder(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	if cfg == nil {
		cfg = &Config{}
	}

	cmd := &cobra.Command{
		Use:     "recipefinder",
		Short:   "Browse recipes from TheMealDB",
		Long:    "recipefinder searches TheMealDB, shows recipe details and keeps a local list of favorites.\nRun without arguments in a terminal to open the interactive browser.",
		Version: Version,
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			applyGlobalFlags(cmd, cfg, stderr)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(stdout) {
				return cmd.Help()
			}
			return runTUI(cfg, "")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	cmd.PersistentFlags().BoolP("no-prompt", "y", false, "Disable interactive prompts")
	cmd.PersistentFlags().BoolP("verbose", "V", false, "Enable verbose/debug output")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().String("config", "", "Path to config file")

	cmd.AddCommand(newTUICmd(cfg))
	cmd.AddCommand(newSearchCmd(stdout, cfg))
	cmd.AddCommand(newFeaturedCmd(stdout, cfg))
	cmd.AddCommand(newCategoryCmd(stdout, cfg))
	cmd.AddCommand(newAreaCmd(stdout, cfg))
	cmd.AddCommand(newShowCmd(stdout, cfg))
	cmd.AddCommand(newRandomCmd(stdout, stderr, cfg))
	cmd.AddCommand(newLabelsCmd("categories", "List recipe categories", stdout, cfg))
	cmd.AddCommand(newLabelsCmd("areas", "List cuisine areas", stdout, cfg))
	cmd.AddCommand(newFavCmd(stdout, stderr, cfg))
	cmd.AddCommand(newThemeCmd(stdout, cfg))
	cmd.AddCommand(newAPIKeyCmd(stdout, stderr, cfg))
	cmd.AddCommand(newVersionCmd(stdout))

	return cmd
}

// applyGlobalFlags copies persistent flags into cfg and points the logger at stderr.
func applyGlobalFlags(cmd *cobra.Command, cfg *Config, stderr io.Writer) {
	if noPrompt, _ := cmd.Flags().GetBool("no-prompt"); noPrompt {
		cfg.NoPrompt = true
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Verbose = true
	}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg.ConfigPath = path
	}

	logger := utils.GetLogger()
	logger.SetOutput(stderr)
	logger.SetVerbose(cfg.Verbose)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			return width
		}
	}
	return views.DefaultWidth
}

// app is everything a command needs after configuration is loaded.
type app struct {
	cfg    *Config
	conf   *config.Config
	dbPath string
	store  *storage.Store
	favs   *favorites.Store
	client *mealdb.Client
}

// openApp loads configuration and opens the store, favorites and query client.
// rec may be nil.
func openApp(ctx context.Context, cfg *Config, rec *metrics.Recorder) (*app, error) {
	conf, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	conf.ApplyFlags(cfg.NoPrompt, "")
	cfg.NoPrompt = conf.NoPrompt

	logger := utils.GetLogger()
	logger.SetLevel(conf.GetLogLevel())
	if cfg.Verbose {
		logger.SetVerbose(true)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = conf.GetDatabasePath()
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	favs := favorites.New(store, favorites.WithMetrics(rec))
	if err := favs.Load(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = conf.GetBaseURL()
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		info := newCredentialManager(cfg).Resolve(ctx)
		utils.Debugf("using API key from %s", info.Source)
		apiKey = info.Key
	}

	transport := ratelimit.NewClient(ratelimit.Config{
		Timeout:     conf.GetAPITimeout(),
		MinInterval: conf.GetMinInterval(),
		UserAgent:   "recipefinder/" + Version,
		Metrics:     rec,
	})
	fetchCache := cache.New(transport, conf.GetCacheTTLDuration(), cache.WithMetrics(rec))

	return &app{
		cfg:    cfg,
		conf:   conf,
		dbPath: dbPath,
		store:  store,
		favs:   favs,
		client: mealdb.NewClient(fetchCache, mealdb.WithBaseURL(baseURL), mealdb.WithAPIKey(apiKey)),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// wantJSON reports whether output should be JSON, from the flag or config.
func (a *app) wantJSON(cmd *cobra.Command) bool {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return jsonOutput || a.conf.OutputFormat == "json"
}

func (a *app) renderer(ctx context.Context, stdout io.Writer) *views.Renderer {
	theme, err := a.store.Theme(ctx)
	if err != nil {
		utils.Warnf("reading theme failed: %v", err)
	}
	return views.NewRenderer(stdout, terminalWidth(stdout), views.PaletteFor(theme))
}

// withApp opens the app for the duration of fn.
func withApp(cfg *Config, fn func(ctx context.Context, a *app) error) error {
	ctx := context.Background()
	a, err := openApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(ctx, a)
}

func newCredentialManager(cfg *Config) *credentials.Manager {
	var opts []credentials.ManagerOption
	if cfg.Keyring != nil {
		opts = append(opts, credentials.WithKeyring(cfg.Keyring))
	}
	if cfg.Getenv != nil {
		opts = append(opts, credentials.WithEnv(cfg.Getenv))
	}
	return credentials.NewManager(opts...)
}

func stdinOf(cfg *Config) io.Reader {
	if cfg.Stdin != nil {
		return cfg.Stdin
	}
	return os.Stdin
}

// upstreamError adds a network suggestion to errors from TheMealDB.
func upstreamError(err error) error {
	if utils.IsNetworkError(err) {
		return utils.ErrUpstreamOffline(err)
	}
	return err
}

// newTUICmd creates the 'tui' subcommand
func newTUICmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive recipe browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("metrics-addr")
			return runTUI(cfg, addr)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

// runTUI runs the browser until the user quits or a signal arrives.
func runTUI(cfg *Config, metricsAddr string) (err error) {
	sm := shutdown.NewManager()
	stop := sm.ListenForSignals()
	defer stop()
	defer func() {
		sm.Shutdown()
		waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = multierr.Append(err, sm.Wait(waitCtx))
	}()
	ctx := sm.Context()

	var rec *metrics.Recorder
	if metricsAddr != "" {
		rec = metrics.New()
		mux := http.NewServeMux()
		mux.Handle("/metrics", rec.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				utils.Errorf("metrics server: %v", err)
			}
		}()
		sm.RegisterCleanup("metrics server", srv.Shutdown)
	}

	a, err := openApp(ctx, cfg, rec)
	if err != nil {
		return err
	}
	sm.RegisterCleanup("database", func(context.Context) error { return a.Close() })

	if a.conf.IsFileLoggingEnabled() {
		logger := utils.GetLogger()
		if err := logger.RedirectToFile(config.GetLogPath()); err != nil {
			utils.Warnf("file logging disabled: %v", err)
		} else {
			sm.RegisterCleanup("log file", func(context.Context) error { return logger.Sync() })
		}
	}

	// Pick up favorites saved by other recipefinder processes.
	if w, err := watcher.New(watcher.Config{
		File: a.dbPath,
		OnChange: func() {
			if err := a.favs.Load(ctx); err != nil {
				utils.Warnf("reloading favorites failed: %v", err)
			}
		},
	}); err != nil {
		utils.Debugf("database watcher disabled: %v", err)
	} else if err := w.Start(); err != nil {
		utils.Warnf("database watcher disabled: %v", err)
	} else {
		sm.RegisterCleanup("watcher", func(context.Context) error {
			w.Stop()
			return nil
		})
	}

	theme, err := a.store.Theme(ctx)
	if err != nil {
		utils.Warnf("reading theme failed: %v", err)
	}

	model := tui.New(a.client, a.favs, a.store, tui.Options{
		SearchDebounce:  a.conf.GetSearchDebounce(),
		MinSearchChars:  a.conf.GetMinSearchChars(),
		StatusTimeout:   a.conf.GetStatusTimeout(),
		RefreshInterval: a.conf.GetRefreshInterval(),
		RandomCount:     a.conf.GetRandomCount(),
		Theme:           theme,
	}).WithContext(ctx)

	utils.Infof("starting browser session")
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("browser exited: %w", err)
	}
	return nil
}

// --- Browse commands ---

type recipesResponse struct {
	Heading string       `json:"heading"`
	Recipes []views.Card `json:"recipes"`
	Count   int          `json:"count"`
	Result  string       `json:"result"`
}

type detailResponse struct {
	Recipe views.Detail `json:"recipe"`
	Result string       `json:"result"`
}

type labelsResponse struct {
	Kind   string   `json:"kind"`
	Labels []string `json:"labels"`
	Count  int      `json:"count"`
	Result string   `json:"result"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Code   int    `json:"code"`
	Result string `json:"result"`
}

// outputRecipes prints recipes as cards, marking favorites.
func outputRecipes(ctx context.Context, a *app, heading string, recipes []mealdb.Recipe, stdout io.Writer, jsonOutput bool) error {
	cards := views.BuildCards(recipes, a.favs.Contains)

	if jsonOutput {
		return views.WriteJSON(stdout, recipesResponse{
			Heading: heading,
			Recipes: cards,
			Count:   len(cards),
			Result:  ResultInfoOnly,
		})
	}

	if len(cards) > 0 {
		_, _ = fmt.Fprintf(stdout, "%s (%d):\n\n", heading, len(cards))
	}
	a.renderer(ctx, stdout).Cards(cards)
	infoOnly(a.cfg, stdout)
	return nil
}

func infoOnly(cfg *Config, stdout io.Writer) {
	if cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultInfoOnly)
	}
}

func actionCompleted(cfg *Config, stdout io.Writer) {
	if cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultActionCompleted)
	}
}

// newListingCmd builds a command that prints one recipe listing.
func newListingCmd(use, short string, args cobra.PositionalArgs, stdout io.Writer, cfg *Config,
	query func(ctx context.Context, c *mealdb.Client, args []string) (string, []mealdb.Recipe, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(ctx context.Context, a *app) error {
				heading, recipes, err := query(ctx, a.client, args)
				if err != nil {
					return upstreamError(err)
				}
				return outputRecipes(ctx, a, heading, recipes, stdout, a.wantJSON(cmd))
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newSearchCmd creates the 'search' subcommand
func newSearchCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := newListingCmd("search [term...]", "Search recipes by name", cobra.ArbitraryArgs, stdout, cfg,
		func(ctx context.Context, c *mealdb.Client, args []string) (string, []mealdb.Recipe, error) {
			term := strings.TrimSpace(strings.Join(args, " "))
			recipes, err := c.Search(ctx, term)
			return fmt.Sprintf("Results for %q", term), recipes, err
		})

	// Reject a blank term before touching config, storage or the network.
	runE := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(strings.Join(args, " ")) == "" {
			return utils.ErrEmptySearch()
		}
		return runE(cmd, args)
	}
	return cmd
}

// newFeaturedCmd creates the 'featured' subcommand
func newFeaturedCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return newListingCmd("featured [letter]", "List featured recipes, or recipes starting with a letter", cobra.MaximumNArgs(1), stdout, cfg,
		func(ctx context.Context, c *mealdb.Client, args []string) (string, []mealdb.Recipe, error) {
			if len(args) == 0 {
				recipes, err := c.Featured(ctx)
				return "Featured recipes", recipes, err
			}
			recipes, err := c.SearchByLetter(ctx, args[0])
			return fmt.Sprintf("Recipes starting with %q", strings.ToUpper(args[0])), recipes, err
		})
}

// newCategoryCmd creates the 'category' subcommand
func newCategoryCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return newListingCmd("category [name]", "List recipes in a category", cobra.ExactArgs(1), stdout, cfg,
		func(ctx context.Context, c *mealdb.Client, args []string) (string, []mealdb.Recipe, error) {
			recipes, err := c.FilterByCategory(ctx, args[0])
			return "Category: " + args[0], recipes, err
		})
}

// newAreaCmd creates the 'area' subcommand
func newAreaCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return newListingCmd("area [name]", "List recipes from a cuisine area", cobra.ExactArgs(1), stdout, cfg,
		func(ctx context.Context, c *mealdb.Client, args []string) (string, []mealdb.Recipe, error) {
			recipes, err := c.FilterByArea(ctx, args[0])
			return "Area: " + args[0], recipes, err
		})
}

// newShowCmd creates the 'show' subcommand
func newShowCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a recipe with ingredients and instructions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(ctx context.Context, a *app) error {
				r, err := a.client.Lookup(ctx, args[0])
				if err != nil {
					return upstreamError(err)
				}
				d := views.BuildDetail(*r, a.favs.Contains(r.ID))

				if a.wantJSON(cmd) {
					return views.WriteJSON(stdout, detailResponse{Recipe: d, Result: ResultInfoOnly})
				}
				a.renderer(ctx, stdout).Detail(d)
				infoOnly(cfg, stdout)
				return nil
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newRandomCmd creates the 'random' subcommand
func newRandomCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "random",
		Short: "Show a handful of random recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, _ := cmd.Flags().GetInt("count")
			if n < 1 || n > config.MaxRandomCount {
				return utils.WrapWithSuggestion(
					fmt.Errorf("invalid count: %d", n),
					fmt.Sprintf("Use a count between 1 and %d", config.MaxRandomCount))
			}

			return withApp(cfg, func(ctx context.Context, a *app) error {
				recipes, err := a.client.RandomBatch(ctx, n)
				if err != nil {
					if len(recipes) == 0 {
						return upstreamError(err)
					}
					failed := len(multierr.Errors(err))
					utils.Debugf("random batch: %v", err)
					_, _ = fmt.Fprintf(stderr, "Warning: %d of %d random recipes failed to load\n", failed, n)
				}
				return outputRecipes(ctx, a, "Random picks", recipes, stdout, a.wantJSON(cmd))
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().IntP("count", "n", config.DefaultRandomCount, "Number of random recipes")
	return cmd
}

// newLabelsCmd creates the 'categories' and 'areas' subcommands
func newLabelsCmd(kind, short string, stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   kind,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(ctx context.Context, a *app) error {
				list := a.client.ListCategories
				title := "Categories"
				if kind == "areas" {
					list = a.client.ListAreas
					title = "Areas"
				}

				labels, err := list(ctx)
				if err != nil {
					return upstreamError(err)
				}
				if labels == nil {
					labels = []string{}
				}

				if a.wantJSON(cmd) {
					return views.WriteJSON(stdout, labelsResponse{Kind: kind, Labels: labels, Count: len(labels), Result: ResultInfoOnly})
				}
				a.renderer(ctx, stdout).Labels(title, labels)
				infoOnly(cfg, stdout)
				return nil
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newVersionCmd creates the 'version' subcommand
func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(stdout, "recipefinder version %s\n", Version)
		},
	}
}

// outputErrorJSON outputs error in JSON format
func outputErrorJSON(err error, stdout io.Writer) {
	response := errorResponse{
		Error:  err.Error(),
		Code:   1,
		Result: ResultError,
	}

	jsonBytes, _ := json.Marshal(response)
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
}
