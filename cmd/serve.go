package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/mviewer/internal/config"
	"github.com/lehigh-university-libraries/mviewer/internal/handlers"
	"github.com/lehigh-university-libraries/mviewer/internal/models"
	"github.com/lehigh-university-libraries/mviewer/internal/montage"
)

// viewFlags describe the view every new session starts from
type viewFlags struct {
	gray     string
	color    []string
	catalogs []string
	images   []string
	grids    []string
	jsonFile string
}

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
		workspace  string
		montageBin string
		static     string
		view       viewFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the viewer session server",
		Long: `Starts the HTTP and websocket server. Every websocket connection gets a
session seeded from the images, catalogs and grids given on the command line.`,
		Example: `  # Serve one grayscale image with an equatorial grid
  mviewer serve -g m51.fits -G "Equ J2000"

  # Serve a color composite (blue, green, red) with a source catalog
  mviewer serve -c m51_b.fits,m51_g.fits,m51_r.fits -C sources.tbl --port 3000

  # Start from a saved view
  mviewer serve -j view.json --config mviewer.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Port = port
			}
			if flags.Changed("workspace") {
				cfg.WorkspaceRoot = workspace
			}
			if flags.Changed("montage-bin") {
				cfg.MontageBin = montageBin
			}
			if flags.Changed("static") {
				cfg.StaticDir = static
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := cfg.NewLogger(os.Stderr)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			template, err := buildTemplate(cfg, view)
			if err != nil {
				return err
			}

			handler := handlers.New(cfg, montage.NewExec(cfg.MontageBin), template)

			addr := cfg.Addr()
			server := &http.Server{
				Addr:    addr,
				Handler: handler.Router(),
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("mViewer server available", "addr", addr, "url", "http://localhost"+addr, "display_mode", template.DisplayMode)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				handler.Shutdown()
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				handler.Shutdown()
				return err
			}
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	cmd.Flags().IntVarP(&port, "port", "p", 8888, "Port to listen on")
	cmd.Flags().StringVar(&workspace, "workspace", "", "Directory holding per-session workspaces")
	cmd.Flags().StringVar(&montageBin, "montage-bin", "", "Directory containing the Montage binaries (default $PATH)")
	cmd.Flags().StringVar(&static, "static", "", "Directory of the browser client")

	cmd.Flags().StringVarP(&view.gray, "gray", "g", "", "Grayscale FITS image")
	cmd.Flags().StringSliceVarP(&view.color, "color", "c", nil, "Blue, green and red FITS images")
	cmd.Flags().StringArrayVarP(&view.catalogs, "catalog", "C", nil, "Source catalog overlay (repeatable)")
	cmd.Flags().StringArrayVarP(&view.images, "images", "I", nil, "Image metadata footprint overlay (repeatable)")
	cmd.Flags().StringArrayVarP(&view.grids, "grid", "G", nil, "Coordinate grid overlay (repeatable)")
	cmd.Flags().StringVarP(&view.jsonFile, "json", "j", "", "Initial view JSON file")

	return cmd
}

// buildTemplate assembles the starting view. Grids are drawn in blue,
// catalogs in yellow circles and footprints in red; the current drawing
// settings are restored afterwards.
func buildTemplate(cfg *config.Config, f viewFlags) (*models.ViewState, error) {
	if f.gray != "" && len(f.color) > 0 {
		return nil, fmt.Errorf("--gray and --color are mutually exclusive")
	}
	if len(f.color) > 0 && len(f.color) != 3 {
		return nil, fmt.Errorf("--color takes blue, green and red images, got %d", len(f.color))
	}

	v := models.NewViewState()
	v.ImageFile = cfg.ImageFile
	v.CanvasWidth = cfg.CanvasWidth
	v.CanvasHeight = cfg.CanvasHeight
	if f.jsonFile != "" {
		loaded, err := models.ReadJSONFile(f.jsonFile)
		if err != nil {
			return nil, err
		}
		v = loaded
	}

	if f.gray != "" {
		v.SetGrayFile(f.gray)
		v.SetColorTable("1")
	}
	if len(f.color) == 3 {
		v.SetBlueFile(f.color[0])
		v.SetGreenFile(f.color[1])
		v.SetRedFile(f.color[2])
	}

	color := v.CurrentColor
	size, symbol, sides, rotation := v.CurrentSymbolSize, v.CurrentSymbolType, v.CurrentSymbolSides, v.CurrentSymbolRotation

	v.SetCurrentColor("blue")
	for _, g := range f.grids {
		v.AddGrid(g)
	}
	v.SetCurrentColor("yellow")
	v.SetCurrentSymbol(1.0, "circle", sides, rotation)
	for _, c := range f.catalogs {
		v.AddCatalog(c, "", "", "")
	}
	v.SetCurrentColor("red")
	for _, i := range f.images {
		v.AddFootprint(i)
	}

	v.SetCurrentColor(color)
	v.SetCurrentSymbol(size, symbol, sides, rotation)
	return v, nil
}
