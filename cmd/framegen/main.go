// Command framegen renders congress frames from the command line. Either a
// single frame is described by flags, or -roster names a CSV of delegates
// and one frame is written per row. Photos are centre-cropped.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/config"
	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/editor"
	imagepkg "github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/image"
	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/logging"
	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/roster"
	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/upload"
	"github.com/tainhan991995-debug/daihoi-hue-2025-frame/internal/util"
)

type options struct {
	configPath string
	photoPath  string
	fields     editor.Fields
	rosterPath string
	only       string
	outDir     string
	upload     bool
}

func main() {
	var (
		opts     options
		noUpload bool
	)
	flag.StringVar(&opts.configPath, "config", "config.yaml", "path to the YAML config file")
	flag.StringVar(&opts.photoPath, "photo", "", "portrait photo (jpeg, png, webp, bmp)")
	flag.StringVar(&opts.fields.Name, "name", "", "full name")
	flag.StringVar(&opts.fields.RoleUnit, "role", "", "role and unit")
	flag.StringVar(&opts.fields.Message, "message", "", "message to the congress")
	flag.StringVar(&opts.rosterPath, "roster", "", "CSV of delegates; overrides -photo/-name/-role/-message")
	flag.StringVar(&opts.only, "only", "", "with -roster, keep rows matching these keywords")
	flag.StringVar(&opts.outDir, "out", "out", "output directory")
	flag.BoolVar(&noUpload, "no-upload", false, "skip the backup upload")
	flag.Parse()
	opts.upload = !noUpload

	if _, err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "framegen:", err)
		os.Exit(1)
	}
}

// summary counts the outcome of a run.
type summary struct {
	written  int
	skipped  int
	uploaded int
}

func run(opts options) (summary, error) {
	var sum summary
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return sum, err
	}
	closer, err := logging.Setup(cfg.Log)
	if err != nil {
		return sum, err
	}
	defer closer.Close()
	if !opts.upload {
		cfg.Upload.Endpoint = ""
	}

	entries := []roster.Entry{{Name: opts.fields.Name, RoleUnit: opts.fields.RoleUnit, Message: opts.fields.Message, Photo: opts.photoPath}}

	ctx := context.Background()
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
	if opts.rosterPath != "" {
		g.Go(func() error {
			rows, err := roster.Load(opts.rosterPath)
			if err != nil {
				return err
			}
			entries = roster.Filter(rows, opts.only)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sum, err
	}

	uploader := upload.New(cfg.Upload)
	defer uploader.Wait()
	ed := editor.New(imagepkg.NewRenderer(cfg.Layout, fonts), frame, cfg, uploader)

	for _, e := range entries {
		uploaded, err := renderEntry(ctx, ed, e, opts.outDir)
		if err != nil {
			if opts.rosterPath == "" {
				return sum, err
			}
			sum.skipped++
			log.Error().Err(err).Int("line", e.Line).Str("name", e.Name).Msg("skipping roster row")
			continue
		}
		sum.written++
		if uploaded {
			sum.uploaded++
		}
	}
	log.Info().Int("frames", sum.written).Int("skipped", sum.skipped).Int("uploads", sum.uploaded).Msg("done")
	return sum, nil
}

// renderEntry writes one frame and reports whether its backup upload started.
func renderEntry(ctx context.Context, ed *editor.Editor, e roster.Entry, outDir string) (bool, error) {
	ed.ClearAvatar()
	if e.Photo != "" {
		data, err := readPhoto(ctx, e.Photo)
		if err != nil {
			return false, err
		}
		if _, err := ed.LoadPhoto(ctx, data, true, 0, 0); err != nil {
			return false, fmt.Errorf("%s: %w", e.Photo, err)
		}
	}
	ed.SetFields(editor.Fields{Name: e.Name, RoleUnit: e.RoleUnit, Message: e.Message})

	exp, err := ed.Export(ctx, "framegen")
	if err != nil {
		return false, err
	}
	path, err := util.SaveFile(outDir, exp.Filename, exp.Data)
	if err != nil {
		return false, err
	}
	log.Info().Str("path", path).Str("export_id", exp.ID).Bool("upload", exp.Uploaded).Msg("frame written")
	return exp.Uploaded, nil
}

func readPhoto(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return util.GetBytes(ctx, util.NewClient(30*time.Second), ref)
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	return data, nil
}
