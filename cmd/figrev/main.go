// figrev is a design-review assistant for Figma files: it extracts a
// bounded node payload, asks an LLM for categorized UX feedback, and can
// round-trip that feedback into the file as anchored comments.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/api"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/config"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/dispatch"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/feedback"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/figma"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/llm"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/pipeline"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/resolve"
	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/store"
)

var (
	verbose    bool
	configPath string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "figrev",
	Short: "figrev - LLM design review for Figma files",
	Long: `figrev reviews Figma files with an LLM and posts the feedback back
into the file as anchored comments.

It extracts a bounded, text-prioritized view of the document tree, asks
the configured model for categorized feedback, and resolves the model's
node references back onto live nodes with tiered fallback.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the review HTTP server",
	RunE:  runServe,
}

var reviewCmd = &cobra.Command{
	Use:   "review [file-key]",
	Short: "Review one file and print the feedback",
	Args:  cobra.ExactArgs(1),
	RunE:  runReview,
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show per-model usage telemetry",
	RunE:  runUsage,
}

var (
	reviewNodeID      string
	reviewCategories  []string
	reviewPrompt      string
	reviewSuggestions bool
	reviewComment     bool
	reviewJSON        bool
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "figrev.yaml", "path to config file")

	reviewCmd.Flags().StringVar(&reviewNodeID, "node", "", "restrict review to one node id")
	reviewCmd.Flags().StringSliceVar(&reviewCategories, "categories", nil, "feedback categories (default: ux,visual,accessibility,content)")
	reviewCmd.Flags().StringVar(&reviewPrompt, "prompt", "", "additional free-text instructions")
	reviewCmd.Flags().BoolVar(&reviewSuggestions, "suggestions", true, "ask for actionable suggestions")
	reviewCmd.Flags().BoolVar(&reviewComment, "comment", false, "post the feedback as comments on the file")
	reviewCmd.Flags().BoolVar(&reviewJSON, "json", false, "print raw JSON instead of text")

	rootCmd.AddCommand(serveCmd, reviewCmd, usageCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildDeps assembles the shared dependency set from config.
func buildDeps(ctx context.Context, cfg *config.Config) (*figma.Client, llm.Client, *store.Store, error) {
	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	model := cfg.LLM.Model
	if model == "" {
		model = st.SelectedModel(ctx)
	}
	pc, err := llm.DetectProvider(llm.ProviderConfig{
		Provider: llm.Provider(cfg.LLM.Provider),
		APIKey:   cfg.LLM.APIKey,
		Model:    model,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		st.Close()
		return nil, nil, nil, err
	}
	client, err := llm.NewClient(ctx, pc, logger)
	if err != nil {
		st.Close()
		return nil, nil, nil, err
	}

	fcfg := figma.DefaultClientConfig(cfg.Figma.Token)
	if cfg.Figma.BaseURL != "" {
		fcfg.BaseURL = cfg.Figma.BaseURL
	}
	if cfg.Figma.Timeout > 0 {
		fcfg.Timeout = cfg.Figma.Timeout
	}
	fc := figma.NewClientWithConfig(fcfg, logger)

	return fc, client, st, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fc, client, st, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	pipe := pipeline.New(fc, client, st, logger)
	handler := api.NewHandler(pipe, fc, logger)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(handler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// Model selection changes in the config file take effect on the
		// next run without a restart.
		return config.Watch(ctx, configPath, logger, func(next *config.Config) {
			if next.LLM.Model != "" {
				if err := st.SetSelectedModel(ctx, next.LLM.Model); err != nil {
					logger.Warn("model selection update failed", zap.Error(err))
				}
			}
		})
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fc, client, st, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	pipe := pipeline.New(fc, client, st, logger)
	report, err := pipe.Run(ctx, pipeline.Request{
		FileKey:            args[0],
		NodeID:             reviewNodeID,
		CustomPrompt:       reviewPrompt,
		Categories:         reviewCategories,
		IncludeSuggestions: reviewSuggestions,
		MaxNodes:           cfg.Review.MaxNodes,
	})
	if err != nil {
		return err
	}

	if reviewJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(report)
	}

	if reviewComment {
		resolver := resolve.NewResolver(report.Index, logger)
		d := dispatch.NewDispatcher(fc, resolver, logger)
		items := make([]feedback.Item, len(report.Items))
		for i, it := range report.Items {
			items[i] = it.Item
		}
		res := d.PostComments(ctx, args[0], items)
		fmt.Printf("\nPosted %d/%d comments", res.Posted, res.Total)
		if len(res.Errors) > 0 {
			fmt.Printf(" (%d failed)", len(res.Errors))
			for _, e := range res.Errors {
				fmt.Println("\n  -", e)
			}
		}
		fmt.Println()
	}
	return nil
}

func printReport(report *pipeline.Report) {
	fmt.Printf("Review of %q: %d items\n\n", report.FileName, report.Summary.Total)
	for _, item := range report.Items {
		fmt.Printf("[%s] %s (%s)\n", item.Category, item.Title, item.Severity)
		fmt.Printf("  %s\n", item.Description)
		if item.Suggestion != "" {
			fmt.Printf("  Suggestion: %s\n", item.Suggestion)
		}
		fmt.Printf("  Anchor: %s %q (%s, via %s)\n\n",
			item.Resolved.NodeID, item.Resolved.NodeName, item.Resolved.NodeType, item.Resolved.Tier)
	}
	if report.Summary.OffCategory > 0 {
		fmt.Printf("Note: %d item(s) outside the requested categories.\n", report.Summary.OffCategory)
	}
}

func runUsage(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	rows, err := st.Usage(cmd.Context())
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No usage recorded yet.")
		return nil
	}

	fmt.Printf("%-40s %12s %12s %8s %8s  %s\n", "MODEL", "IN TOKENS", "OUT TOKENS", "CALLS", "429s", "LAST USED")
	for _, u := range rows {
		fmt.Printf("%-40s %12d %12d %8d %8d  %s\n",
			u.Model, u.InputTokens, u.OutputTokens, u.Calls, u.RateLimited,
			u.LastUsed.Format(time.RFC3339))
	}
	return nil
}
