package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"golang.org/x/term"

	"peeches/assets"
	"peeches/bus"
	"peeches/config"
	"peeches/doctor"
	"peeches/engine"
	"peeches/history"
	"peeches/log"
	"peeches/loop"
	"peeches/modeldir"
	"peeches/overlay"
	"peeches/shutdown"
	"peeches/store"
	"peeches/transcript"
)

var version = "dev"

func main() {
	configFlag := flag.String("config", "", "Path to peeches.yaml (default: <data dir>/peeches.yaml)")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	storeFlag := flag.String("store", "", "Persistence driver: file, redis, prefs or memory")
	periodFlag := flag.Int("period", 0, "Commit every Nth transcript line to history")
	modelDirFlag := flag.String("modeldir", "", "Directory holding the model files")
	headlessFlag := flag.Bool("headless", false, "Print history to stdout instead of running the TUI")
	downloadFlag := flag.Bool("download", false, "Headless: download missing models before recording")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("peeches %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "logpath":
			cfg.LogPath = *logPathFlag
		case "debug":
			cfg.Debug = *debugFlag
		case "store":
			cfg.Store.Driver = *storeFlag
		case "period":
			cfg.History.SamplePeriod = *periodFlag
		case "modeldir":
			cfg.Assets.ModelDir = *modelDirFlag
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logPath, err := log.ResolveDir(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	log.SetDebug(cfg.Debug)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	if crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *doctorFlag {
		code := runDoctor(cfg, logPath)
		log.Close()
		os.Exit(code)
	}

	if err := run(cfg, *headlessFlag || !term.IsTerminal(int(os.Stdout.Fd())), *downloadFlag); err != nil {
		log.Errorf("exit: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		log.Close()
		os.Exit(1)
	}
}

func openStore(cfg *config.Config) (store.Store, error) {
	deps := store.Dependencies{}
	if cfg.Store.Driver == store.DriverPrefs {
		deps.Prefs = preferences()
	}
	return store.New(store.Config{
		Driver: cfg.Store.Driver,
		Path:   cfg.Store.Path,
		Redis: store.RedisConfig{
			Addr:     cfg.Store.Redis.Addr,
			Username: cfg.Store.Redis.Username,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Prefix:   cfg.Store.Redis.Prefix,
		},
	}, deps)
}

func runDoctor(cfg *config.Config, logDir string) int {
	checks := []doctor.Check{
		doctor.LogDir(logDir),
		doctor.Writable("Model directory", cfg.Assets.ModelDir),
		doctor.Models(modeldir.Verifier{Dir: cfg.Assets.ModelDir}, assets.TranscribeModel, assets.TranslateModel),
		doctor.Clipboard(),
	}
	kv, err := openStore(cfg)
	if err != nil {
		checks = append(checks, doctor.Check{Name: "Store (" + cfg.Store.Driver + ")", Run: func(context.Context) (string, error) {
			return "", err
		}})
	} else {
		defer kv.Close()
		checks = append(checks, doctor.Store(cfg.Store.Driver, kv))
	}
	return doctor.Run(context.Background(), os.Stdout, checks)
}

func run(cfg *config.Config, headlessMode, download bool) error {
	kv, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer kv.Close()

	b := bus.New()
	defer b.Close()

	registry := assets.NewRegistry(nil)
	rec := engine.NewFake(func(ev transcript.Event) {
		bus.Publish(b, bus.Transcript, ev)
	}, func() bool {
		return registry.AllCompleted(assets.TranscribeModel, assets.TranslateModel)
	})
	rec.Interval = cfg.Engine.Interval

	sessionCfg := overlay.Config{
		SamplePeriod: cfg.History.SamplePeriod,
		Follow: history.FollowConfig{
			FocusDelay:      cfg.History.FocusDelay,
			IdleDelay:       cfg.History.IdleDelay,
			BottomTolerance: cfg.History.BottomTolerance,
		},
		Settle: cfg.Assets.SettleDelay,
	}
	newSession := func(l loop.Loop) *overlay.Session {
		return overlay.New(sessionCfg, overlay.Deps{
			Loop:     l,
			Bus:      b,
			Store:    kv,
			Registry: registry,
			Verifier: modeldir.Verifier{Dir: cfg.Assets.ModelDir},
			Downloader: &modeldir.Downloader{
				Dir:      cfg.Assets.ModelDir,
				Throttle: cfg.Assets.DownloadThrottle,
				Publish: func(p assets.Progress) {
					bus.Publish(b, bus.DownloadProgress, p)
				},
			},
			Recorder: rec,
		})
	}

	log.SessionStart(cfg.Store.Driver, rec.Name(), cfg.History.SamplePeriod)

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	if headlessMode {
		r := loop.NewRunner(0)
		h := newHeadless(newSession(r), os.Stdout, os.Stderr, download)
		return runHeadless(ctx, r, h)
	}

	l := &teaLoop{}
	session := newSession(l)
	l.Post(func() {
		if err := session.Start(); err != nil {
			log.Errorf("start session: %v", err)
		}
	})
	p := NewTUIProgram(l, session)
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	// The program no longer drains the loop, so nothing else runs on it.
	session.Close()
	return nil
}
