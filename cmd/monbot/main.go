package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matijazezelj/monbot/internal/assist"
	"github.com/matijazezelj/monbot/internal/compiler"
	"github.com/matijazezelj/monbot/internal/config"
	"github.com/matijazezelj/monbot/internal/intent"
	"github.com/matijazezelj/monbot/internal/notify"
	"github.com/matijazezelj/monbot/internal/server"
	"github.com/matijazezelj/monbot/internal/session"
	"github.com/matijazezelj/monbot/internal/telemetry"
	"github.com/matijazezelj/monbot/internal/topology"
	"github.com/matijazezelj/monbot/pkg/models"
)

var (
	version   = "dev"
	cfgFile   string
	dbPath    string
	logFormat string
	logLevel  string
	logger    *slog.Logger
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "monbot",
		Short: "monbot — conversational network monitoring assistant",
		Long:  "Topology-driven monitoring configuration, natural-language intent resolution, and mock telemetry queries.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLogLevel(logLevel)
			if err != nil {
				return err
			}
			opts := &slog.HandlerOptions{Level: level}
			switch logFormat {
			case "json":
				logger = slog.New(slog.NewJSONHandler(os.Stderr, opts))
			case "text":
				logger = slog.New(slog.NewTextHandler(os.Stderr, opts))
			default:
				return fmt.Errorf("invalid --log-format %q (use: text, json)", logFormat)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./monbot.yaml)")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format (text, json)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		compileCmd(),
		askCmd(),
		chatCmd(),
		topologyCmd(),
		dbCmd(),
		serveCmd(),
		versionCmd(),
		completionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.Error("loading config", "error", err)
		os.Exit(1)
	}
	return cfg
}

func openStore(cfg *config.Config) *telemetry.Store {
	path := cfg.Storage.Path
	if dbPath != "" {
		path = dbPath
	}

	store, err := telemetry.NewStore(path)
	if err != nil {
		logger.Error("opening database", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		logger.Error("initializing database", "error", err)
		os.Exit(1)
	}

	if cfg.Data.Telemetry != "" {
		data, err := os.ReadFile(cfg.Data.Telemetry) // #nosec G304 -- path from config
		if err != nil {
			logger.Error("reading telemetry seed file", "path", cfg.Data.Telemetry, "error", err)
			os.Exit(1)
		}
		if err := store.Seed(ctx, data); err != nil {
			logger.Error("seeding telemetry", "error", err)
			os.Exit(1)
		}
	} else if err := store.SeedDefault(ctx); err != nil {
		logger.Error("seeding telemetry", "error", err)
		os.Exit(1)
	}

	return store
}

// loadTopology returns the topology from the path (flag or config), falling
// back to the embedded default.
func loadTopology(cfg *config.Config, path string) (models.Topology, error) {
	if path == "" {
		path = cfg.Data.Topology
	}
	if path != "" {
		return topology.Load(path)
	}
	return topology.Default()
}

func loadIntentRules(cfg *config.Config) []intent.Rule {
	if cfg.Intent.Rules == "" {
		return intent.DefaultRules()
	}
	rules, err := intent.LoadRules(cfg.Intent.Rules)
	if err != nil {
		logger.Error("loading intent rules", "path", cfg.Intent.Rules, "error", err)
		os.Exit(1)
	}
	return rules
}

func buildNotifier(cfg *config.Config) notify.Notifier {
	var notifiers []notify.Notifier
	if cfg.Notify.Stdout.Enabled {
		notifiers = append(notifiers, notify.NewStdoutNotifier())
	}
	if cfg.Notify.Webhook.Enabled && cfg.Notify.Webhook.URL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.Notify.Webhook.URL, cfg.Notify.Webhook.Headers))
	}
	if len(notifiers) == 0 {
		return nil
	}
	return notify.NewMulti(notifiers...)
}

func buildDispatcher(store *telemetry.Store, cfg *config.Config) *assist.Dispatcher {
	var llm *intent.LLMClient
	if cfg.Intent.LLM.Enabled {
		llm = intent.NewLLMClient(cfg.Intent.LLM.Endpoint, cfg.Intent.LLM.Model, cfg.Intent.LLM.APIKey, cfg.Intent.LLM.Timeout)
		logger.Info("LLM classification enabled", "model", cfg.Intent.LLM.Model)
	}

	thresholds := assist.Thresholds{Red: cfg.Thresholds.Red, Yellow: cfg.Thresholds.Yellow}
	return assist.New(store, loadIntentRules(cfg), llm, buildNotifier(cfg), thresholds, logger)
}

// --- compile ---

func compileCmd() *cobra.Command {
	var topoPath string
	var format string

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a topology into monitoring configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()

			topo, err := loadTopology(cfg, topoPath)
			if err != nil {
				return err
			}

			mc, err := compiler.Compile(topo)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(mc)
			case "yaml":
				enc := yaml.NewEncoder(os.Stdout)
				defer enc.Close() //nolint:errcheck // best-effort cleanup
				return enc.Encode(mc)
			default:
				return fmt.Errorf("unsupported format %q (use: json, yaml)", format)
			}
		},
	}

	cmd.Flags().StringVar(&topoPath, "topology", "", "topology file (default: embedded demo topology)")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json, yaml")
	return cmd
}

// --- ask / chat ---

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message>",
		Short: "Ask a single question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			store := openStore(cfg)
			defer store.Close() //nolint:errcheck // best-effort cleanup

			topo, err := loadTopology(cfg, "")
			if err != nil {
				return err
			}

			dispatcher := buildDispatcher(store, cfg)
			sess := session.New(topo)

			result, err := dispatcher.Handle(cmd.Context(), sess, strings.Join(args, " "))
			if err != nil {
				return err
			}

			printResult(result)
			return nil
		},
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			store := openStore(cfg)
			defer store.Close() //nolint:errcheck // best-effort cleanup

			topo, err := loadTopology(cfg, "")
			if err != nil {
				return err
			}

			dispatcher := buildDispatcher(store, cfg)
			sess := session.New(topo)

			fmt.Printf("monbot chat (session %s)\n", sess.ID)
			fmt.Println("Commands: /cache, /clear, /quit")

			reader := bufio.NewReader(os.Stdin)
			for {
				fmt.Print("> ")
				line, err := reader.ReadString('\n')
				if err == io.EOF {
					fmt.Println()
					return nil
				}
				if err != nil {
					return err
				}

				line = strings.TrimSpace(line)
				switch {
				case line == "":
					continue
				case line == "/quit" || line == "/exit":
					return nil
				case line == "/clear":
					sess.Cache.Clear()
					fmt.Println("Cache cleared.")
					continue
				case line == "/cache":
					stats := sess.Cache.Stats()
					fmt.Printf("Cache: %d entries, %d hits\n", stats.Entries, stats.TotalHits)
					for _, e := range sess.Cache.Entries() {
						fmt.Printf("  %s (hits: %d)\n", e.Fingerprint, e.Hits)
					}
					continue
				}

				result, err := dispatcher.Handle(cmd.Context(), sess, line)
				if err != nil {
					fmt.Printf("error: %v\n", err)
					continue
				}
				printResult(result)
			}
		},
	}
}

func printResult(r *assist.Result) {
	if r.Cached {
		fmt.Println("(cached)")
	}
	fmt.Println(r.Message)
}

// --- topology ---

func topologyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Inspect and validate topologies",
	}
	cmd.AddCommand(topologyShowCmd(), topologyValidateCmd(), topologySyncCmd())
	return cmd
}

func topologyShowCmd() *cobra.Command {
	var topoPath string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the device table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()

			topo, err := loadTopology(cfg, topoPath)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tLAYER\tTYPE\tPARENT\tREDUNDANCY")
			for _, name := range topo.Names() {
				d := topo.Devices[name]
				parent := d.Parent
				if parent == "" {
					parent = "-"
				}
				group := d.RedundancyGroup
				if group == "" {
					group = "-"
				}
				_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", d.Name, d.Layer, d.Type, parent, group)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&topoPath, "topology", "", "topology file (default: embedded demo topology)")
	return cmd
}

func topologyValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a topology file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			topo, err := topology.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("OK: %d devices\n", topo.Len())
			return nil
		},
	}
}

func topologySyncCmd() *cobra.Command {
	var topoPath string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror the topology and its dependency edges to Memgraph",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()

			if !cfg.Storage.Memgraph.Enabled {
				return fmt.Errorf("memgraph is not enabled in configuration (set storage.memgraph.enabled: true)")
			}

			topo, err := loadTopology(cfg, topoPath)
			if err != nil {
				return err
			}

			mc, err := compiler.Compile(topo)
			if err != nil {
				return err
			}

			auth := neo4j.NoAuth()
			if cfg.Storage.Memgraph.Username != "" {
				auth = neo4j.BasicAuth(cfg.Storage.Memgraph.Username, cfg.Storage.Memgraph.Password, "")
			}

			driver, err := neo4j.NewDriverWithContext(cfg.Storage.Memgraph.URI, auth)
			if err != nil {
				return fmt.Errorf("connecting to memgraph: %w", err)
			}
			defer driver.Close(context.Background()) //nolint:errcheck // best-effort cleanup

			return topology.SyncToMemgraph(cmd.Context(), driver, topo, mc.Dependencies, logger)
		},
	}

	cmd.Flags().StringVar(&topoPath, "topology", "", "topology file (default: embedded demo topology)")
	return cmd
}

// --- db ---

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management",
	}
	cmd.AddCommand(dbStatsCmd())
	return cmd
}

func dbStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			store := openStore(cfg)
			defer store.Close() //nolint:errcheck // best-effort cleanup
			ctx := cmd.Context()

			path := cfg.Storage.Path
			if dbPath != "" {
				path = dbPath
			}

			info, err := os.Stat(path)
			var sizeStr string
			if err == nil {
				sizeStr = formatBytes(info.Size())
			} else {
				sizeStr = "unknown"
			}

			hostCount, _ := store.HostCount(ctx)
			alertCount, _ := store.AlertCount(ctx)
			requestCount, _ := store.RequestCount(ctx)
			byIntent, _ := store.RequestCountByIntent(ctx)

			_, _ = fmt.Fprintf(os.Stdout, "Database: %s (%s)\n\n", path, sizeStr)
			_, _ = fmt.Fprintf(os.Stdout, "Hosts:  %d\n", hostCount)
			_, _ = fmt.Fprintf(os.Stdout, "Alerts: %d\n", alertCount)
			_, _ = fmt.Fprintf(os.Stdout, "\nRequests: %d total\n", requestCount)
			for in, c := range byIntent {
				_, _ = fmt.Fprintf(os.Stdout, "  %-20s %d\n", in, c)
			}

			return nil
		},
	}
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// --- serve ---

func serveCmd() *cobra.Command {
	var listen string
	var readOnly bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			store := openStore(cfg)

			if listen == "" {
				listen = cfg.Server.Listen
			}

			topo, err := loadTopology(cfg, "")
			if err != nil {
				return err
			}

			dispatcher := buildDispatcher(store, cfg)
			sessions := session.NewManager(topo)
			srv := server.New(sessions, dispatcher, store, buildNotifier(cfg), logger, listen,
				readOnly || cfg.Server.ReadOnly, cfg.Server.APIToken, cfg.Server.CORSOrigin)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
				_ = store.Close()
			}()

			return srv.Start()
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config or :8080)")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "disable topology replacement via API")
	return cmd
}

// --- version ---

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("monbot %s\n", version)
		},
	}
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid --log-level %q (use: debug, info, warn, error)", s)
	}
}

func completionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for monbot.

To load completions:

Bash:
  $ source <(monbot completion bash)

Zsh:
  $ monbot completion zsh > "${fpath[1]}/_monbot"

Fish:
  $ monbot completion fish | source

PowerShell:
  PS> monbot completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}
