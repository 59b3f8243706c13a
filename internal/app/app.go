package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/isaacw/deckcal/internal/config"
	"github.com/isaacw/deckcal/internal/panel"
	"github.com/isaacw/deckcal/internal/surface"
)

func Run(ctx context.Context, args []string, cfg config.Runtime, stdout io.Writer, logger zerolog.Logger) error {
	cmd, err := parseArgs(args)
	if err != nil {
		return err
	}

	assets, err := surface.LoadAssets(cfg.AssetsFile)
	if err != nil {
		return err
	}

	engine := panel.New(cfg, assets, logger)

	switch cmd {
	case "status":
		if err := renderOnce(ctx, engine, assets, panel.KindCurrent, stdout); err != nil {
			return err
		}
		return renderOnce(ctx, engine, assets, panel.KindNext, stdout)
	case "next":
		return renderOnce(ctx, engine, assets, panel.KindNext, stdout)
	case "current":
		return renderOnce(ctx, engine, assets, panel.KindCurrent, stdout)
	case "run":
		return runIndicators(ctx, engine, cfg, stdout, logger)
	default:
		return fmt.Errorf("unsupported command %q", cmd)
	}
}

func parseArgs(args []string) (string, error) {
	if len(args) == 0 {
		return "status", nil
	}

	switch strings.TrimSpace(args[0]) {
	case "status", "next", "current", "run":
		if len(args) > 1 {
			return "", fmt.Errorf("unexpected argument %q", args[1])
		}
		return strings.TrimSpace(args[0]), nil
	default:
		return "", fmt.Errorf("usage: deckcal <status|next|current|run>")
	}
}

func renderOnce(ctx context.Context, engine *panel.Engine, assets surface.Assets, kind panel.Kind, stdout io.Writer) error {
	rendering, err := engine.Render(ctx, kind)
	if err != nil {
		return err
	}

	writer := surface.NewWriter(stdout, kind.String())
	if kind == panel.KindCurrent {
		writer.SetImage(assets.For(rendering.Intensity))
	}
	writer.SetTitle(rendering.Title())
	return nil
}

// runIndicators hosts both keys until interrupted: each becomes visible,
// polls at the configured cadence, and is hidden on shutdown. With notify
// enabled each indicator is mirrored to a desktop notification card.
func runIndicators(ctx context.Context, engine *panel.Engine, cfg config.Runtime, stdout io.Writer, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	nextSurface, closeNext := buildSurface(cfg, panel.KindNext, stdout, logger)
	defer closeNext()
	currentSurface, closeCurrent := buildSurface(cfg, panel.KindCurrent, stdout, logger)
	defer closeCurrent()

	nextIndicator := engine.Show(panel.KindNext, nextSurface)
	currentIndicator := engine.Show(panel.KindCurrent, currentSurface)

	<-ctx.Done()
	logger.Debug().Msg("shutting down indicators")

	nextIndicator.Hide()
	currentIndicator.Hide()
	return nil
}

func buildSurface(cfg config.Runtime, kind panel.Kind, stdout io.Writer, logger zerolog.Logger) (panel.Surface, func()) {
	writer := surface.NewWriter(stdout, kind.String())
	if !cfg.Notify {
		return writer, func() {}
	}

	notifier, err := surface.NewNotifier(kind.String())
	if err != nil {
		logger.Warn().Err(err).Stringer("indicator", kind).Msg("desktop notifications unavailable")
		return writer, func() {}
	}
	return teeSurface{writer, notifier}, func() {
		_ = notifier.Close()
	}
}

// teeSurface fans one indicator's updates out to several sinks.
type teeSurface []panel.Surface

func (t teeSurface) SetTitle(text string) {
	for _, s := range t {
		s.SetTitle(text)
	}
}

func (t teeSurface) SetImage(asset string) {
	for _, s := range t {
		s.SetImage(asset)
	}
}
