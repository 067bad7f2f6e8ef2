package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jordanella.com/battlefarm-go/internal/actions"
	"jordanella.com/battlefarm-go/internal/adb"
	"jordanella.com/battlefarm-go/internal/bot"
	"jordanella.com/battlefarm-go/internal/config"
	"jordanella.com/battlefarm-go/internal/cv"
	"jordanella.com/battlefarm-go/internal/database"
	"jordanella.com/battlefarm-go/internal/events"
	"jordanella.com/battlefarm-go/internal/input"
	"jordanella.com/battlefarm-go/internal/logging"
	"jordanella.com/battlefarm-go/internal/remote"
	"jordanella.com/battlefarm-go/pkg/templates"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "Settings.ini", "Path to settings file")
	writeConfig := flag.Bool("write-config", false, "Write the effective settings to -config and exit")
	flag.Parse()

	cfg, usedDefaults, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "battlefarm: %v\n", err)
		return 1
	}

	if *writeConfig {
		if err := config.SaveToINI(cfg, *configPath); err != nil {
			fmt.Fprintf(os.Stderr, "battlefarm: %v\n", err)
			return 1
		}
		fmt.Printf("Settings written to %s\n", *configPath)
		return 0
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "battlefarm: invalid settings: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Raw mode turns Ctrl-C into a key press, so the keyboard cancels too
	restore, raw, err := input.RawStdin()
	if err != nil {
		fmt.Fprintf(os.Stderr, "battlefarm: keyboard: %v\n", err)
	}
	defer restore()

	var console, errOut io.Writer = os.Stdout, os.Stderr
	if raw {
		console = input.CRLFWriter(os.Stdout)
		errOut = input.CRLFWriter(os.Stderr)
	}

	logger, closeLog, err := newLogger(cfg, console)
	if err != nil {
		fmt.Fprintf(errOut, "battlefarm: %v\n", err)
		return 1
	}
	defer closeLog()

	if usedDefaults {
		logger.Warn(fmt.Sprintf("%s not found, using default settings", *configPath))
	}

	if err := farm(ctx, stop, cfg, logger); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Stopped")
			return 0
		}
		logger.Error("Run failed", err)
		fmt.Fprintf(errOut, "battlefarm: %v\n", err)
		return 1
	}
	return 0
}

func newLogger(cfg *bot.Config, console io.Writer) (*logging.Logger, func(), error) {
	logger := logging.NewLogger("Main").SetOutput(console)

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	logger.SetMinLevel(level)

	if cfg.LogFile == "" {
		return logger, func() {}, nil
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger.AddOutput(f)
	return logger, func() { f.Close() }, nil
}

// farm wires the components and runs the loop until ctx ends or it fails
func farm(ctx context.Context, cancel context.CancelFunc, cfg *bot.Config, logger *logging.Logger) error {
	registry := templates.NewTemplateRegistry(cfg.TemplateDir)
	registry.RegisterDefaults()
	if cfg.TemplateCatalog != "" {
		if err := registry.LoadFromFile(cfg.TemplateCatalog); err != nil {
			return err
		}
	}
	if err := registry.Validate(); err != nil {
		return err
	}

	adbPath, err := adb.FindADB(cfg.ADBPath)
	if err != nil {
		return err
	}
	client := adb.NewClient(adbPath, cfg.ADBHost, cfg.ADBPort)
	logger.InfoWithContext("Using adb", map[string]interface{}{"path": adbPath, "server": client.Addr()})

	bus := events.NewEventBus(256)
	defer bus.Stop()

	eventLogger := logging.NewEventLogger(bus, logger.Named("Events"))
	defer eventLogger.Close()

	if cfg.HistoryEnabled {
		db, err := database.Open(cfg.HistoryPath)
		if err != nil {
			return err
		}
		defer db.Close()
		db.SetLogger(logger.Named("Database"))

		if err := db.RunMigrations(); err != nil {
			return fmt.Errorf("history migrations: %w", err)
		}
		recorder := database.NewRecorder(db, bus)
		defer recorder.Close()
	}

	pause := bot.NewPauseSwitch()

	// Clients connected before Initialize see run.started
	if cfg.RemoteListen != "" {
		server := remote.NewServer(pause, logger.Named("Remote"))
		if err := server.Start(cfg.RemoteListen); err != nil {
			return fmt.Errorf("remote control: %w", err)
		}
		server.Subscribe(bus)
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			server.Shutdown(shutdownCtx)
		}()
	}

	b := bot.New(cfg, client, func(ctx context.Context, device adb.DeviceInfo) (bot.Binding, error) {
		dev := client.Device(device.Serial)
		store := cv.NewFrameStore(cfg.FramePath, cfg.FrameCodec)
		screen := cv.NewService(cv.NewADBCapturer(dev, store), registry).WithThreshold(cfg.Threshold)
		return bot.Binding{Screen: screen, Actuator: actions.NewExecutor(dev), Display: dev}, nil
	})
	b.SetEventBus(bus).SetLogger(logger.Named("Bot")).SetPauseSwitch(pause)

	if err := b.Initialize(ctx); err != nil {
		return err
	}

	keyboard := input.NewKeyboard(pause, cancel)
	go keyboard.Watch(ctx, os.Stdin)

	logger.Info("Press p to pause or resume")
	return b.Run(ctx)
}
