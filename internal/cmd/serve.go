package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/MeKo-Tech/fastnoise/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve noise previews and tiles over HTTP",
	Long: `Serve exposes /render.png for parameterised previews, /tiles/{z}/{x}/{y}.png
for tiles (from an MBTiles archive when given, rendered on demand otherwise),
/params, /status and /healthz.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("mbtiles", "", "MBTiles archive to serve tiles from")
	serveCmd.Flags().Int("max-concurrent", runtime.NumCPU(), "Max concurrent renders (default: number of CPUs)")
	serveCmd.Flags().Duration("render-timeout", 30*time.Second, "Timeout per render")
	serveCmd.Flags().Int("max-preview-size", 2048, "Maximum width and height of /render.png")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for served images")
	serveCmd.Flags().Int("tile-size", 256, "Tile size in pixels for on-demand tiles")
	serveCmd.Flags().Float64("extent", 1, "World size covered by tile 0/0/0")
	serveCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	addShaderFlags(serveCmd)

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.mbtiles", "mbtiles")
	mustBind("serve.max_concurrent", "max-concurrent")
	mustBind("serve.render_timeout", "render-timeout")
	mustBind("serve.max_preview_size", "max-preview-size")
	mustBind("serve.cache_control", "cache-control")
	mustBind("serve.tile_size", "tile-size")
	mustBind("serve.extent", "extent")
	mustBind("serve.png_compression", "png-compression")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	archive := viper.GetString("serve.mbtiles")
	maxConc := viper.GetInt("serve.max_concurrent")

	values, err := shaderValues(cmd.Context(), cmd)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Base:                 values,
		MBTilesPath:          archive,
		TileSize:             viper.GetInt("serve.tile_size"),
		Extent:               viper.GetFloat64("serve.extent"),
		PNGCompression:       viper.GetString("serve.png_compression"),
		CacheControl:         viper.GetString("serve.cache_control"),
		MaxConcurrentRenders: maxConc,
		RenderTimeout:        viper.GetDuration("serve.render_timeout"),
		MaxPreviewSize:       viper.GetInt("serve.max_preview_size"),
	}, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	logger.Info("preview server listening",
		"addr", addr,
		"mbtiles", archive,
		"max_concurrent", maxConc,
		"params", values.Summary(),
	)

	httpSrv := &http.Server{Addr: addr, Handler: srv.Handler(), ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", "error", err)
		}
	}()

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
