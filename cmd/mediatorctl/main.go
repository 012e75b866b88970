// Package main is the CLI entry point for the mediator — an interactive
// HTTP interception and replay workbench for security testing. It sits
// between a browser automation surface and the network, lets a tester
// pause, inspect, and rewrite individual exchanges, and replay stored
// requests from inside the browser's own JS context.
//
// Architecture overview:
//
//	Browser automation --> Interception mediator --> Target origin
//	                          |          |
//	                          |          +-- rule engine (rewrite)
//	                          |          +-- pending registry (suspend)
//	                          +-- control channel (WebSocket) <--> UI
//
// CLI commands (cobra):
//
//	mediatorctl serve            - Start the mediator server
//	mediatorctl status           - Show server status
//	mediatorctl rules            - Manage match/replace rules
//	mediatorctl projects         - Manage saved projects
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/antigravity/mediator/internal/capture"
	"github.com/antigravity/mediator/internal/config"
	"github.com/antigravity/mediator/internal/control"
	"github.com/antigravity/mediator/internal/history"
	"github.com/antigravity/mediator/internal/mediator"
	"github.com/antigravity/mediator/internal/pending"
	"github.com/antigravity/mediator/internal/project"
	"github.com/antigravity/mediator/internal/rules"
	"github.com/antigravity/mediator/internal/scope"
)

// Build-time variables injected via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
)

// defaultConfigDir returns the path to ~/.mediator/ where all runtime
// state lives: config.yaml, rules.yaml, and the projects/ directory.
func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mediator"
	}
	return filepath.Join(home, ".mediator")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// ============================================================================
// Root command
// ============================================================================

var configDir string

var rootCmd = &cobra.Command{
	Use:   "mediatorctl",
	Short: "mediatorctl — interactive HTTP interception and replay workbench",
	Long: `mediatorctl runs the interception mediator: it sits between a browser
automation surface and the network, lets a connected UI pause, inspect,
and rewrite individual exchanges via match/replace rules, and replay
stored requests from inside the browser's own JS context.

Run 'mediatorctl serve' to start the server.`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configDir,
		"config-dir",
		defaultConfigDir(),
		"Path to mediatorctl config and state directory",
	)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(projectsCmd)
}

// ============================================================================
// mediatorctl serve — start the mediator server
// ============================================================================

var daemonMode bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mediator server",
	Long: `Start the mediator server: the control channel WebSocket, the rule
engine, the pending registry, and the browser-context replayer.

By default runs in the foreground. Use -d for daemon/background mode.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

func init() {
	serveCmd.Flags().BoolVarP(&daemonMode, "daemon", "d", false, "Run server in daemon/background mode")
}

// runServe wires every collaborator together and blocks until shutdown.
//
//  1. Handle daemon mode (re-exec as background process if -d)
//  2. Load config from ~/.mediator/config.yaml
//  3. Initialize the rule engine, scope matcher, pending registry, history
//  4. Initialize the project store (JSON files + SQLite index)
//  5. Build the control channel hub and mount it on the control route
//  6. Start the config/rules/projects file watcher for hot-reload
//  7. Write PID file for process management
//  8. Start listening and block until SIGINT/SIGTERM or HTTP shutdown
func runServe(cmd *cobra.Command, args []string) error {
	if daemonMode && os.Getenv("MEDIATORCTL_DAEMONIZED") != "1" {
		return spawnDaemon()
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}

	cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ruleEngine, err := rules.New(cfg.Storage.RulesPath)
	if err != nil {
		return fmt.Errorf("failed to initialize rule engine: %w", err)
	}
	fmt.Printf("[mediatorctl] Loaded %d rules from %s\n", len(ruleEngine.Snapshot()), cfg.Storage.RulesPath)

	scopeMatcher := scope.New(nil)
	pendingRegistry := pending.New()
	flags := &capture.Flags{}
	historyRegistry := history.New()
	nonce := mediator.NewNonce()

	projectsDir := cfg.Storage.ProjectsDir
	if !filepath.IsAbs(projectsDir) {
		projectsDir = filepath.Join(configDir, projectsDir)
	}
	projectStore, err := project.Open(projectsDir)
	if err != nil {
		return fmt.Errorf("failed to initialize project store: %w", err)
	}
	defer projectStore.Close()

	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     120 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			DisableCompression:  true,
			ForceAttemptHTTP2:   true,
		},
		Timeout: time.Duration(cfg.Replay.ClientTimeoutMs) * time.Millisecond,
	}

	// hub is the control channel's CaptureSink, and also the replayer's
	// home: no browser automation surface is wired into this CLI-only
	// server, so replay commands reply with "no replayer attached" until
	// a real Driver is attached. The interception pipeline itself still
	// runs — HTTPProxyRouteControl lets mediatorctl terminate the client
	// connection directly as a standalone forward proxy, rather than
	// requiring a browser to drive RouteControl.
	hub := control.New(flags, pendingRegistry, nil, nil)
	med := mediator.New(mediator.Options{
		Rules:   ruleEngine,
		Pending: pendingRegistry,
		Flags:   flags,
		Sink:    hub,
		Scope:   scopeMatcher,
		History: historyRegistry,
		Nonce:   nonce,
		Client:  httpClient,
	})

	go hub.Run()

	mux := http.NewServeMux()
	mux.Handle("/control", hub)
	proxyHandler := newForwardProxyHandler(med, httpClient)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","version":"%s"}`, version)
	})

	shutdownCh := make(chan struct{}, 1)
	mux.HandleFunc("/shutdown", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		if !isLoopback(r.RemoteAddr) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"shutting_down"}`)
		select {
		case shutdownCh <- struct{}{}:
		default:
		}
	})

	// /proxy/ targets carry "//" after the URL scheme, which ServeMux
	// would clean and redirect away, so they are routed before the mux.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/proxy/") {
			proxyHandler(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	pidFile := filepath.Join(configDir, "mediator.pid")
	if err := writePIDFile(pidFile); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	defer removePIDFile(pidFile)

	watcher, err := config.NewWatcher(cfg.Storage.RulesPath, projectsDir, config.WatchTargets{
		OnRulesChange: func() {
			if reloadErr := ruleEngine.Reload(); reloadErr != nil {
				fmt.Fprintf(os.Stderr, "[mediatorctl] Warning: failed to reload rules: %v\n", reloadErr)
			} else {
				fmt.Println("[mediatorctl] Rules reloaded")
			}
		},
		OnProjectsChange: func() {
			fmt.Println("[mediatorctl] Projects directory changed")
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start config watcher: %w", err)
	}
	defer watcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("[mediatorctl] Mediator listening on http://%s\n", addr)
		fmt.Printf("[mediatorctl] Control channel at ws://%s/control\n", addr)
		if !daemonMode {
			fmt.Println("[mediatorctl] Press Ctrl+C to stop")
		}
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		fmt.Println("\n[mediatorctl] Shutting down (signal received)...")
	case <-shutdownCh:
		fmt.Println("[mediatorctl] Shutting down (stop command received)...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		fmt.Fprintf(os.Stderr, "[mediatorctl] Shutdown error: %v\n", shutdownErr)
	}

	fmt.Println("[mediatorctl] Stopped")
	return nil
}

// spawnDaemon re-executes the mediatorctl binary as a detached background
// process. The parent process prints the child PID and exits immediately.
func spawnDaemon() error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to find executable path: %w", err)
	}

	logPath := filepath.Join(configDir, "mediator.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	daemonArgs := []string{"serve"}
	if configDir != defaultConfigDir() {
		daemonArgs = append(daemonArgs, "--config-dir", configDir)
	}

	child := exec.Command(exePath, daemonArgs...)
	child.Stdout = logFile
	child.Stderr = logFile
	child.Env = append(os.Environ(), "MEDIATORCTL_DAEMONIZED=1")

	if err := child.Start(); err != nil {
		logFile.Close()
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	fmt.Printf("[mediatorctl] Server started in background (PID %d)\n", child.Process.Pid)
	fmt.Printf("[mediatorctl] Log file: %s\n", logPath)
	fmt.Println("[mediatorctl] Use 'mediatorctl stop' to stop the server")

	if err := child.Process.Release(); err != nil {
		fmt.Fprintf(os.Stderr, "[mediatorctl] Warning: failed to release child process: %v\n", err)
	}

	logFile.Close()
	return nil
}

func writePIDFile(path string) error {
	pid := os.Getpid()
	return os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o644)
}

func removePIDFile(path string) {
	os.Remove(path)
}

// newForwardProxyHandler adapts inbound HTTP requests into the
// interception pipeline's NetworkEvent/RouteControl shape, so
// mediatorctl can run headless — as a standalone intercepting forward
// proxy — when no browser automation surface is attached. Clients
// request an absolute target URL under /proxy/, e.g.
// "GET /proxy/https://example.com/path HTTP/1.1".
func newForwardProxyHandler(med *mediator.Mediator, client *http.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := strings.TrimPrefix(r.URL.Path, "/proxy/")
		if target == "" {
			http.Error(w, "missing target URL after /proxy/", http.StatusBadRequest)
			return
		}
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}

		headers := make(capture.Headers, 0, len(r.Header))
		for name, values := range r.Header {
			for _, v := range values {
				headers = append(headers, capture.Header{Name: name, Value: v})
			}
		}

		var body capture.Body
		if r.ContentLength != 0 {
			raw, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "failed to read request body", http.StatusBadRequest)
				return
			}
			if len(raw) > 0 {
				body = capture.NewTextBody(string(raw))
			}
		}

		rt := mediator.NewHTTPProxyRouteControl(w, client)
		med.HandleRoute(r.Context(), mediator.NetworkEvent{
			Method:  r.Method,
			URL:     target,
			Headers: headers,
			Body:    body,
		}, rt)
	}
}

func isLoopback(remoteAddr string) bool {
	host := remoteAddr
	if idx := strings.LastIndex(remoteAddr, ":"); idx != -1 {
		host = remoteAddr[:idx]
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	return host == "127.0.0.1" || host == "::1" || strings.HasPrefix(host, "127.")
}

// ============================================================================
// mediatorctl stop — stop the server
// ============================================================================

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running mediator server",
	Long: `Stop a running mediator server. Tries HTTP shutdown first (cross-platform),
then falls back to PID file + SIGTERM on Unix systems.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStop(cmd, args)
	},
}

func runStop(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	addr := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(addr+"/shutdown", "application/json", nil)
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			fmt.Println("[mediatorctl] Stop signal sent to server")
			os.Remove(filepath.Join(configDir, "mediator.pid"))
			return nil
		}
	}

	if runtime.GOOS == "windows" {
		return fmt.Errorf("server is not responding at %s — cannot stop", addr)
	}

	pidFile := filepath.Join(configDir, "mediator.pid")
	pidBytes, err := os.ReadFile(pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("server is not running (no PID file and HTTP unreachable)")
		}
		return fmt.Errorf("failed to read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(pidBytes)))
	if err != nil {
		return fmt.Errorf("invalid PID in %s: %w", pidFile, err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		os.Remove(pidFile)
		return fmt.Errorf("failed to stop server (PID %d): %w", pid, err)
	}

	os.Remove(pidFile)
	fmt.Printf("[mediatorctl] Sent stop signal to server (PID %d)\n", pid)
	return nil
}

// ============================================================================
// mediatorctl status — show server status
// ============================================================================

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show mediator server status",
	Long:  `Display whether the mediator server is running and its listen address.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd, args)
	},
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	addr := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(addr + "/health")
	if err != nil {
		fmt.Println("[mediatorctl] Status: NOT RUNNING")
		fmt.Printf("[mediatorctl] Expected at: %s\n", addr)
		return nil
	}
	resp.Body.Close()

	fmt.Println("[mediatorctl] Status: RUNNING")
	fmt.Printf("[mediatorctl] Listening on: %s\n", addr)
	fmt.Printf("[mediatorctl] Control channel: ws://%s/control\n", strings.TrimPrefix(addr, "http://"))
	return nil
}

// ============================================================================
// mediatorctl rules — manage match/replace rules
// ============================================================================

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage match/replace rewrite rules",
	Long: `View, add, remove, and test match/replace rules. Rules rewrite one of
six slices of a request or response (first line, headers, body) by
literal substring or regex.`,
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesRemoveCmd)
	rulesCmd.AddCommand(rulesTestCmd)
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all match/replace rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		ruleEngine, err := rules.New(cfg.Storage.RulesPath)
		if err != nil {
			return fmt.Errorf("failed to load rules: %w", err)
		}

		rs := ruleEngine.Snapshot()
		if len(rs) == 0 {
			fmt.Println("No rules configured.")
			return nil
		}

		fmt.Printf("%-4s %-10s %-20s %-8s %s\n", "IDX", "ENABLED", "ITEM", "REGEX", "COMMENT")
		fmt.Printf("%-4s %-10s %-20s %-8s %s\n", "---", "-------", "----", "-----", "-------")
		for i, r := range rs {
			fmt.Printf("%-4d %-10t %-20s %-8t %s\n", i, r.Enabled, r.Item, r.IsRegex, r.Comment)
		}
		return nil
	},
}

var rulesAddCmd = &cobra.Command{
	Use:   "add <yaml>",
	Short: "Add a rule (YAML format)",
	Long: `Add a new match/replace rule. Provide the rule as a YAML string.

Example:
  mediatorctl rules add 'enabled: true
    item: RequestHeader
    match: "X-Debug"
    replace: ""
    isRegex: false
    comment: "strip debug header"'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		ruleEngine, err := rules.New(cfg.Storage.RulesPath)
		if err != nil {
			return fmt.Errorf("failed to load rules: %w", err)
		}

		if err := ruleEngine.AddFromYAML(args[0]); err != nil {
			return fmt.Errorf("failed to parse rule: %w", err)
		}

		if err := ruleEngine.Save(); err != nil {
			return fmt.Errorf("failed to save rules: %w", err)
		}

		fmt.Println("[mediatorctl] Rule added successfully")
		return nil
	},
}

var rulesRemoveCmd = &cobra.Command{
	Use:   "remove <index>",
	Short: "Remove a rule by its list index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid rule index %q: %w", args[0], err)
		}

		cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		ruleEngine, err := rules.New(cfg.Storage.RulesPath)
		if err != nil {
			return fmt.Errorf("failed to load rules: %w", err)
		}

		if err := ruleEngine.Remove(idx); err != nil {
			return fmt.Errorf("failed to remove rule: %w", err)
		}
		if err := ruleEngine.Save(); err != nil {
			return fmt.Errorf("failed to save rules: %w", err)
		}

		fmt.Printf("[mediatorctl] Rule %d removed\n", idx)
		return nil
	},
}

var rulesTestCmd = &cobra.Command{
	Use:   "test <slice> <input>",
	Short: "Test an input string against the current rule set for one slice",
	Long: `Apply every enabled rule targeting <slice> (e.g. RequestBody,
ResponseHeader) to <input> and print the rewritten result. Useful for
verifying a rule's regex before wiring it in live.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		ruleEngine, err := rules.New(cfg.Storage.RulesPath)
		if err != nil {
			return fmt.Errorf("failed to load rules: %w", err)
		}

		out := ruleEngine.RewriteBody(rules.ItemSlice(args[0]), args[1])
		fmt.Println(out)
		return nil
	},
}

// ============================================================================
// mediatorctl projects — manage saved projects
// ============================================================================

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage saved projects",
	Long: `List, show, save, and delete projects. A project bundles a target
URL, captured traffic, exclusion rules, and match/replace rules into a
single named, file-backed unit.`,
}

func init() {
	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsShowCmd)
	projectsCmd.AddCommand(projectsSaveCmd)
	projectsCmd.AddCommand(projectsDeleteCmd)
	projectsCmd.AddCommand(projectsExportCmd)
}

func openProjectStore() (*project.Store, error) {
	cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	projectsDir := cfg.Storage.ProjectsDir
	if !filepath.IsAbs(projectsDir) {
		projectsDir = filepath.Join(configDir, projectsDir)
	}
	return project.Open(projectsDir)
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openProjectStore()
		if err != nil {
			return err
		}
		defer store.Close()

		summaries, err := store.List()
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}
		if len(summaries) == 0 {
			fmt.Println("No projects saved.")
			return nil
		}

		fmt.Printf("%-25s %-30s %-10s %s\n", "NAME", "TARGET", "REQUESTS", "LAST MODIFIED")
		fmt.Printf("%-25s %-30s %-10s %s\n", "----", "------", "--------", "-------------")
		for _, s := range summaries {
			fmt.Printf("%-25s %-30s %-10d %s\n",
				s.Name, s.TargetURL, s.RequestCount, humanize.Time(s.LastModified))
		}
		return nil
	},
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show details for a saved project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openProjectStore()
		if err != nil {
			return err
		}
		defer store.Close()

		p, err := store.Load(args[0])
		if err != nil {
			return fmt.Errorf("failed to load project: %w", err)
		}

		fmt.Printf("Name:          %s\n", p.Name)
		fmt.Printf("Target URL:    %s\n", p.TargetURL)
		fmt.Printf("Created:       %s (%s)\n", p.Created.Format(time.RFC3339), humanize.Time(p.Created))
		fmt.Printf("Last modified: %s (%s)\n", p.LastModified.Format(time.RFC3339), humanize.Time(p.LastModified))
		fmt.Printf("Requests:      %s\n", humanize.Comma(int64(len(p.Requests))))
		fmt.Printf("Exclusions:    %d\n", len(p.ExclusionRules))
		fmt.Printf("Rewrite rules: %d\n", len(p.MatchReplaceRules))
		return nil
	},
}

var projectsSaveCmd = &cobra.Command{
	Use:   "save <name> [target-url]",
	Short: "Save a project, creating it first if it doesn't exist",
	Long: `Save a project. If no project with this name exists yet, an empty one
is created targeting target-url (default https://example.com); if it
already exists, saving re-stamps its last-modified time and re-indexes
it; target-url is then ignored.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openProjectStore()
		if err != nil {
			return err
		}
		defer store.Close()

		p, err := store.Load(args[0])
		if err != nil {
			targetURL := ""
			if len(args) == 2 {
				targetURL = args[1]
			}
			p, err = store.Create(args[0], targetURL)
			if err != nil {
				return fmt.Errorf("failed to create project: %w", err)
			}
			fmt.Printf("[mediatorctl] Created project %q targeting %s\n", p.Name, p.TargetURL)
			return nil
		}

		if err := store.Save(p); err != nil {
			return fmt.Errorf("failed to save project: %w", err)
		}
		fmt.Printf("[mediatorctl] Saved project %q\n", p.Name)
		return nil
	},
}

var projectsExportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Print a project's full JSON representation to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openProjectStore()
		if err != nil {
			return err
		}
		defer store.Close()

		p, err := store.Load(args[0])
		if err != nil {
			return fmt.Errorf("failed to load project: %w", err)
		}

		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode project: %w", err)
		}
		fmt.Println(string(data))
		return nil
	},
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openProjectStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(args[0]); err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}

		fmt.Printf("[mediatorctl] Project %q deleted\n", args[0])
		return nil
	},
}

