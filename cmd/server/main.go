package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/api"
	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/config"
	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/editor"
	imagepkg "github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/image"
	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/logging"
	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/upload"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

// run serves until SIGINT/SIGTERM or a listener failure, then shuts down,
// drains pending uploads and closes the log file.
func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	closer, err := logging.Setup(cfg.Log)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Frame and fonts are independent; load them side by side.
	var (
		frame image.Image
		fonts *imagepkg.Fonts
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := imagepkg.LoadFrame(gctx, cfg.Frame, cfg.Layout.FrameWidth, cfg.Layout.FrameHeight)
		frame = f
		return err
	})
	g.Go(func() error {
		f, err := imagepkg.LoadFonts(cfg.Layout)
		fonts = f
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("loading assets: %w", err)
	}
	if frame == nil {
		log.Warn().Msg("no frame configured, drawing on background colour")
	}

	uploader := upload.New(cfg.Upload)
	defer uploader.Wait()
	if !uploader.Enabled() {
		log.Info().Msg("backup upload disabled")
	}
	ed := editor.New(imagepkg.NewRenderer(cfg.Layout, fonts), frame, cfg, uploader)

	r := gin.Default()
	api.RegisterRoutes(r, ed)

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: r}
	serveErr := make(chan error, 1)
	go func() {
		log.Info().Msg("starting server on http://localhost:" + cfg.Server.Port)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
