// -- cmd/inspect.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/domlens-cli/api/schemas"
	"github.com/xkilldash9x/domlens-cli/internal/annotate"
	"github.com/xkilldash9x/domlens-cli/internal/browser"
	"github.com/xkilldash9x/domlens-cli/internal/config"
	"github.com/xkilldash9x/domlens-cli/internal/observability"
)

// newInspectCmd creates and configures the `inspect` command.
func newInspectCmd() *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect <url> [url...]",
		Short: "Builds the interactive element tree for each page and prints it as JSON",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their Viper keys so command-line flags override
			// values from the config file and environment.
			bindings := map[string]string{
				"inspect.highlight":             "highlight",
				"inspect.focus_index":           "focus",
				"inspect.viewport_expansion":    "expansion",
				"inspect.fail_closed_occlusion": "fail-closed",
				"inspect.concurrency":           "concurrency",
				"inspect.output_file":           "output",
				"inspect.screenshot_file":       "screenshot",
				"inspect.annotate_screenshot":   "annotate",
				"inspect.pretty_json":           "pretty",
			}
			for key, flag := range bindings {
				if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: runInspect,
	}

	inspectCmd.Flags().StringP("output", "o", "", "File path for the JSON tree; a directory when several URLs are given. If unset, single-URL output goes to stdout.")
	inspectCmd.Flags().String("screenshot", "", "File path for a PNG screenshot; a directory when several URLs are given.")
	inspectCmd.Flags().Bool("annotate", false, "Draw highlight boxes onto the screenshot.")
	inspectCmd.Flags().Bool("highlight", true, "Paint numbered overlays on the live page.")
	inspectCmd.Flags().Int("focus", -1, "Only paint the overlay for this highlight index. -1 paints all.")
	inspectCmd.Flags().Int("expansion", 0, "Viewport expansion in pixels for occlusion culling. -1 marks every element topmost.")
	inspectCmd.Flags().Bool("fail-closed", false, "Treat elements with undecidable occlusion as covered instead of topmost.")
	inspectCmd.Flags().IntP("concurrency", "j", 2, "Number of pages inspected in parallel.")
	inspectCmd.Flags().Bool("pretty", true, "Indent the JSON output.")

	return inspectCmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	// Re-unmarshal now that the inspect flags are bound, so flag overrides
	// land with the right precedence.
	cfg, err := config.NewConfigFromViper(viper.GetViper())
	if err != nil {
		return err
	}
	appCfg = cfg

	targets := make([]string, len(args))
	for i, raw := range args {
		targets[i] = normalizeTarget(raw)
	}
	multi := len(targets) > 1

	logger.Info("Starting page inspection",
		zap.Strings("targets", targets),
		zap.Bool("highlight", cfg.Inspect.Highlight),
		zap.Int("viewport_expansion", cfg.Inspect.ViewportExpansion),
		zap.Int("concurrency", cfg.Inspect.Concurrency),
	)

	manager := browser.NewManager(cfg, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := manager.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Error during browser manager shutdown", zap.Error(err))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Inspect.Concurrency)
	for _, target := range targets {
		g.Go(func() error {
			return inspectOne(gctx, manager, cfg, logger, target, multi)
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return fmt.Errorf("inspection aborted by user signal")
		}
		return err
	}
	return nil
}

// inspectOne analyzes a single page in its own tab and writes its artifacts.
func inspectOne(ctx context.Context, manager *browser.Manager, cfg *config.Config, logger *zap.Logger, target string, multi bool) error {
	session, err := manager.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("opening browser session for %s: %w", target, err)
	}
	defer session.Close()

	if err := session.Navigate(ctx, target); err != nil {
		return fmt.Errorf("navigating to %s: %w", target, err)
	}

	opts := schemas.BuildOptions{
		DoHighlightElements: cfg.Inspect.Highlight,
		FocusHighlightIndex: cfg.Inspect.FocusIndex,
		ViewportExpansion:   cfg.Inspect.ViewportExpansion,
	}
	root, err := session.AnalyzeDOM(ctx, opts)
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", target, err)
	}

	outPath, err := artifactPath(cfg.Inspect.OutputFile, target, ".json", multi)
	if err != nil {
		return err
	}
	if err := writeTree(root, cfg, outPath); err != nil {
		return err
	}

	if cfg.Inspect.ScreenshotFile != "" {
		shot, err := session.Screenshot(ctx)
		if err != nil {
			return fmt.Errorf("screenshot of %s: %w", target, err)
		}
		shotPath, err := artifactPath(cfg.Inspect.ScreenshotFile, target, ".png", multi)
		if err != nil {
			return err
		}
		if err := writeScreenshot(shot, root, cfg, shotPath, logger); err != nil {
			return err
		}
	}

	if outPath != "" {
		logger.Info("Element tree written", zap.String("target", target), zap.String("path", outPath))
	}
	return nil
}

// normalizeTarget defaults bare hosts to https.
func normalizeTarget(raw string) string {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "https://" + raw
	}
	return raw
}

// artifactPath resolves where one target's artifact lands. With a single
// target the configured path is used verbatim (empty means stdout for JSON,
// disabled for screenshots). With several targets the configured path is
// treated as a directory and files are named after the target.
func artifactPath(base, target, ext string, multi bool) (string, error) {
	if !multi {
		return base, nil
	}
	dir := base
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return filepath.Join(dir, targetSlug(target)+ext), nil
}

// targetSlug derives a filesystem-safe name from a URL.
func targetSlug(target string) string {
	u, err := url.Parse(target)
	name := target
	if err == nil && u.Host != "" {
		name = u.Host + u.Path
	}
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
	return strings.Trim(mapped, "_")
}

// writeTree serializes the element tree to path, or to stdout when path is
// empty.
func writeTree(root *schemas.ElementNode, cfg *config.Config, path string) error {
	var (
		data []byte
		err  error
	)
	if cfg.Inspect.PrettyJSON {
		data, err = schemas.MarshalTreeIndent(root)
	} else {
		data, err = schemas.MarshalTree(root)
	}
	if err != nil {
		return fmt.Errorf("serializing element tree: %w", err)
	}

	if path == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing element tree: %w", err)
	}
	return nil
}

// writeScreenshot optionally annotates the capture with the highlight boxes
// and writes it to path.
func writeScreenshot(shot []byte, root *schemas.ElementNode, cfg *config.Config, path string, logger *zap.Logger) error {
	out := shot
	if cfg.Inspect.AnnotateScreenshot {
		annotated, err := annotate.Screenshot(shot, schemas.BuildSelectorMap(root), annotate.DefaultOptions())
		if err != nil {
			return fmt.Errorf("annotating screenshot: %w", err)
		}
		out = annotated
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing screenshot: %w", err)
	}
	logger.Info("Screenshot written", zap.String("path", path))
	return nil
}
