// Command audioscribe is the main entry point for the audioscribe
// transcription server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/MrWong99/audioscribe/internal/acquire"
	"github.com/MrWong99/audioscribe/internal/config"
	"github.com/MrWong99/audioscribe/internal/health"
	"github.com/MrWong99/audioscribe/internal/observe"
	"github.com/MrWong99/audioscribe/internal/pipeline"
	"github.com/MrWong99/audioscribe/internal/server"
	"github.com/MrWong99/audioscribe/pkg/asr"
	oairecog "github.com/MrWong99/audioscribe/pkg/asr/openai"
	"github.com/MrWong99/audioscribe/pkg/asr/whisper"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "audioscribe: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "audioscribe: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("audioscribe starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"version", version,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Observability ─────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "audioscribe",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return 1
	}

	// ── Recognizer ────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinRecognizers(reg)

	recognizer, err := reg.CreateRecognizer(cfg.Recognizer)
	if err != nil {
		slog.Error("failed to create recognizer", "name", cfg.Recognizer.Name, "err", err)
		return 1
	}
	slog.Info("recognizer created", "name", cfg.Recognizer.Name)
	if closer, ok := recognizer.(interface{ Close() error }); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				slog.Warn("recognizer close error", "err", err)
			}
		}()
	}

	// ── Acquisition ───────────────────────────────────────────────────────────
	downloader := acquire.NewYtDlp(cfg.Acquire.YtDlpPath)
	decoder := acquire.NewFFmpeg(cfg.Acquire.FFmpegPath)
	acquirer := acquire.New(cfg.Acquire.WorkDir, downloader, decoder)

	// ── Pipeline ──────────────────────────────────────────────────────────────
	pipe := pipeline.New(acquirer, recognizer,
		pipeline.WithMetrics(metrics),
		pipeline.WithWordDedupe(cfg.Pipeline.DedupeWords),
	)

	// ── Health checks ─────────────────────────────────────────────────────────
	// The tool checks are optional: uploads transcribe fine without yt-dlp
	// and ffmpeg, which only remote-video sources need.
	healthHandler := health.New(
		health.Checker{Name: "work_dir", Check: workDirCheck(cfg.Acquire.WorkDir)},
		health.Checker{Name: "ytdlp", Optional: true, Check: func(context.Context) error { return downloader.LookPath() }},
		health.Checker{Name: "ffmpeg", Optional: true, Check: func(context.Context) error { return decoder.LookPath() }},
	)

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg)

	srv := server.New(cfg.Server.ListenAddr, pipe, metrics, healthHandler)

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

// ── Recognizer wiring ─────────────────────────────────────────────────────────

// registerBuiltinRecognizers wires all built-in recognizer factories into
// reg. Each factory receives a config.RecognizerEntry and constructs the
// backend from the real implementation packages.
func registerBuiltinRecognizers(reg *config.Registry) {
	reg.RegisterRecognizer("whisper", func(entry config.RecognizerEntry) (asr.Recognizer, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterRecognizer("whisper-native", func(entry config.RecognizerEntry) (asr.Recognizer, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = optString(entry.Options, "model_path")
		}
		var opts []whisper.NativeOption
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithNativeLanguage(lang))
		}
		return whisper.NewNative(modelPath, opts...)
	})

	reg.RegisterRecognizer("openai", func(entry config.RecognizerEntry) (asr.Recognizer, error) {
		var opts []oairecog.Option
		if entry.Model != "" {
			opts = append(opts, oairecog.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, oairecog.WithBaseURL(entry.BaseURL))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, oairecog.WithLanguage(lang))
		}
		return oairecog.New(entry.APIKey, opts...)
	})
}

// workDirCheck probes that the artifact directory is writable by creating
// and removing a uniquely named file.
func workDirCheck(workDir string) func(context.Context) error {
	if workDir == "" {
		workDir = os.TempDir()
	}
	return func(context.Context) error {
		probe := filepath.Join(workDir, "probe-"+uuid.NewString())
		if err := os.WriteFile(probe, nil, 0o600); err != nil {
			return err
		}
		return os.Remove(probe)
	}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║       audioscribe — startup summary   ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printEntry("Recognizer", summaryValue(cfg.Recognizer.Name, cfg.Recognizer.Model))
	printEntry("Work dir", summaryValue(cfg.Acquire.WorkDir, ""))
	printEntry("Word dedupe", fmt.Sprintf("%t", cfg.Pipeline.DedupeWords))
	printEntry("Listen addr", cfg.Server.ListenAddr)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func summaryValue(name, model string) string {
	if name == "" {
		return "(default)"
	}
	if model != "" {
		return name + " / " + model
	}
	return name
}

func printEntry(kind, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a recognizer Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
