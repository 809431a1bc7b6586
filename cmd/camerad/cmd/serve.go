package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/jmylchreest/camerad/internal/config"
	"github.com/jmylchreest/camerad/internal/database"
	"github.com/jmylchreest/camerad/internal/database/migrations"
	"github.com/jmylchreest/camerad/internal/encoder"
	"github.com/jmylchreest/camerad/internal/finalizer"
	internalhttp "github.com/jmylchreest/camerad/internal/http"
	"github.com/jmylchreest/camerad/internal/http/handlers"
	"github.com/jmylchreest/camerad/internal/localdevice"
	"github.com/jmylchreest/camerad/internal/models"
	"github.com/jmylchreest/camerad/internal/onvif"
	"github.com/jmylchreest/camerad/internal/plugin"
	"github.com/jmylchreest/camerad/internal/repository"
	"github.com/jmylchreest/camerad/internal/scheduler"
	"github.com/jmylchreest/camerad/internal/service"
	"github.com/jmylchreest/camerad/internal/startup"
	"github.com/jmylchreest/camerad/internal/supervisor"
	"github.com/jmylchreest/camerad/internal/util"
	"github.com/jmylchreest/camerad/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the camerad server",
	Long: `Start the camerad HTTP server and API.

The server provides:
- Camera discovery and CRUD over ONVIF, RTSP, and local UVC backends
- Live HLS streaming and scheduled/on-demand recording via ffmpeg
- PTZ control and camera clock sync
- OpenAPI documentation at /docs`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().Int("port", 3333, "Port to listen on")
	serveCmd.Flags().String("database", "camerad.db", "Database file path")
	serveCmd.Flags().String("data-dir", "./data", "Data directory for streams, recordings, and thumbnails")
	serveCmd.Flags().String("ffmpeg", "", "Path to the ffmpeg binary (default: auto-detect on PATH)")

	mustBindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	mustBindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	mustBindPFlag("database.dsn", serveCmd.Flags().Lookup("database"))
	mustBindPFlag("storage.base_dir", serveCmd.Flags().Lookup("data-dir"))
	mustBindPFlag("ffmpeg.binary_path", serveCmd.Flags().Lookup("ffmpeg"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()

	if removed, err := startup.CleanupSystemTempDirs(logger); err != nil {
		logger.Warn("failed to clean orphaned temp directories", slog.String("error", err.Error()))
	} else if removed > 0 {
		logger.Info("cleaned orphaned temp directories on startup", slog.Int("removed_count", removed))
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	for name, dst := range map[string]*string{"host": &cfg.Server.Host, "database": &cfg.Database.DSN, "data-dir": &cfg.Storage.BaseDir, "ffmpeg": &cfg.FFmpeg.BinaryPath} {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}

	ffmpegPath := cfg.FFmpeg.BinaryPath
	if ffmpegPath == "" {
		ffmpegPath, err = util.FindBinary("ffmpeg", "CAMERAD_FFMPEG_PATH")
		if err != nil {
			return fmt.Errorf("locating ffmpeg binary: %w", err)
		}
	}

	db, err := database.New(cfg.Database, logger, nil)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := runMigrations(db.DB, logger); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	cameraRepo := repository.NewCameraRepository(db.DB)
	recordingRepo := repository.NewRecordingRepository(db.DB)
	settingsRepo := repository.NewEncoderSettingsRepository(db.DB)
	scheduleRepo := repository.NewScheduleRepository(db.DB)

	if recovered, err := startup.RecoverOrphanedRecordings(context.Background(), logger, recordingRepo); err != nil {
		logger.Warn("failed to recover orphaned recordings", slog.String("error", err.Error()))
	} else if recovered > 0 {
		logger.Info("recovered orphaned recordings left by unclean shutdown", slog.Int("recovered_count", recovered))
	}

	plugins := plugin.NewRegistry(logger,
		onvif.NewPlugin(),
		localdevice.NewPlugin(),
		plugin.NewRTSPPlugin(),
	)

	fin, err := finalizer.New(recordingRepo, cfg.Storage, ffmpegPath, logger)
	if err != nil {
		return fmt.Errorf("building recording finalizer: %w", err)
	}

	sup := supervisor.New(cameraRepo, recordingRepo, settingsRepo, plugins, fin, cfg.Storage, ffmpegPath, logger)
	defer sup.Shutdown(context.Background())

	sched, err := scheduler.New(sup, cfg.Scheduler.Timezone)
	if err != nil {
		return fmt.Errorf("building scheduler: %w", err)
	}
	sched.WithLogger(logger)

	enabled, err := scheduleRepo.GetEnabled(context.Background())
	if err != nil {
		return fmt.Errorf("loading enabled recording schedules: %w", err)
	}
	sched.LoadEnabled(enabled)
	sched.Start()
	defer sched.Stop()

	if probe, err := encoder.ProbeGPU(context.Background(), ffmpegPath); err != nil {
		logger.Warn("GPU probe failed, falling back to CPU encoding", slog.Any("error", err))
	} else {
		logger.Info("GPU probe complete",
			slog.String("vendor", string(probe.Vendor)),
			slog.String("preferred", probe.Preferred))

		if probe.Preferred != "" {
			if settings, err := settingsRepo.Get(context.Background()); err != nil {
				logger.Warn("failed to load encoder settings for GPU probe fill-in", slog.Any("error", err))
			} else if settings.GPUEncoder == nil {
				if _, err := settingsRepo.Update(context.Background(), &models.EncoderSettingsPatch{GPUEncoder: &probe.Preferred}); err != nil {
					logger.Warn("failed to persist probed GPU encoder", slog.Any("error", err))
				} else {
					logger.Info("persisted probed GPU encoder", slog.String("gpu_encoder", probe.Preferred))
				}
			}
		}
	}

	svc := service.New(cameraRepo, recordingRepo, settingsRepo, scheduleRepo,
		plugins, sup, sched, ffmpegPath, cfg.Server, logger)

	serverConfig := internalhttp.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	server := internalhttp.NewServer(serverConfig, logger, version.Version)

	docsHandler := handlers.NewDocsHandler("camerad API", "/openapi.yaml", handlers.WithSystemTheme())
	server.Router().Get("/docs", docsHandler.ServeHTTP)

	healthHandler := handlers.NewHealthHandler(version.Version).WithDB(db.DB)
	healthHandler.Register(server.API())

	cameraHandler := handlers.NewCameraHandler(svc)
	cameraHandler.Register(server.API())

	streamHandler := handlers.NewStreamHandler(svc)
	streamHandler.Register(server.API())

	recordingHandler := handlers.NewRecordingHandler(svc)
	recordingHandler.Register(server.API())

	ptzHandler := handlers.NewPTZHandler(svc)
	ptzHandler.Register(server.API())

	encoderHandler := handlers.NewEncoderHandler(svc)
	encoderHandler.Register(server.API())

	scheduleHandler := handlers.NewScheduleHandler(svc)
	scheduleHandler.Register(server.API())

	staticHandler := handlers.NewStaticHandler(cfg.Storage)
	staticHandler.Register(server.API())
	staticHandler.RegisterChiRoutes(server.Router())

	// Graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	logger.Info("starting camerad server",
		slog.String("host", serverConfig.Host),
		slog.Int("port", serverConfig.Port),
		slog.String("version", version.Version),
	)

	return server.ListenAndServe(ctx)
}

func runMigrations(db *gorm.DB, logger *slog.Logger) error {
	migrator := migrations.NewMigrator(db, logger)
	migrator.RegisterAll(migrations.AllMigrations())
	return migrator.Up(context.Background())
}
