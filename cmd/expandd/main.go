// expandd - Foreground window and secure input monitoring daemon
//
//	expandd status          Show the current foreground window and secure input state
//	expandd watch           Watch for window and secure input transitions
//	expandd profiles        List loaded match profiles
//	expandd history         Show recorded window transitions
//	expandd version         Print version information
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expandd/internal/config"
	"expandd/internal/logging"
	"expandd/internal/monitor"
	"expandd/internal/store"
	"expandd/internal/system"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]

	switch cmd {
	case "status":
		cmdStatus()
	case "watch":
		cmdWatch()
	case "profiles":
		cmdProfiles()
	case "history":
		cmdHistory()
	case "version":
		fmt.Printf("expandd %s\n", version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`expandd - Foreground window and secure input monitoring

USAGE:
    expandd <command> [options]

COMMANDS:
    status              Show the current foreground window and secure input state
    watch               Watch for window and secure input transitions
    profiles            List loaded match profiles and which one matches now
    history             Show recorded window transitions
    version             Print version information
    help                Show this help message

Window titles and secure input state come from the platform window
system. On macOS, secure input detection requires no extra permissions;
reading window details may require Accessibility access.`)
}

func loadConfig(path string) *config.Config {
	loader := config.NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func configFlag(fs *flag.FlagSet) *string {
	return fs.String("config", config.DefaultConfigPath(), "Path to config file")
}

func cmdStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	cfgPath := configFlag(fs)
	fs.Parse(os.Args[2:])

	cfg := loadConfig(*cfgPath)
	setupLogging(cfg)

	mgr := system.NewManager()

	available, detail := mgr.Available()
	fmt.Println("=== expandd Status ===")
	fmt.Println()
	fmt.Printf("Window system: %s\n", detail)
	if !available {
		fmt.Println("No window information is available in this environment.")
		return
	}

	win, ok := system.CurrentIdentity(mgr)
	if !ok {
		fmt.Println("Foreground window: unknown")
	} else {
		fmt.Printf("Foreground app:  %s\n", win.Class)
		if win.Title != "" {
			fmt.Printf("Window title:    %s\n", win.Title)
		}
		if win.Executable != "" {
			fmt.Printf("Executable:      %s\n", win.Executable)
		}
		if p := cfg.MatchProfile(win); p != nil {
			fmt.Printf("Matched profile: %s\n", p.Name)
		}
	}

	fmt.Println()
	if holder := mgr.SecureInput(); holder != nil {
		fmt.Printf("Secure input: ACTIVE (held by %s)\n", holder.App)
		fmt.Printf("  Path: %s\n", holder.Path)
	} else {
		fmt.Println("Secure input: inactive")
	}
}

func cmdWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	cfgPath := configFlag(fs)
	record := fs.Bool("record", false, "Record transitions to the store")
	fs.Parse(os.Args[2:])

	loader := config.NewLoader(*cfgPath)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	mgr := system.NewManager()
	if ok, detail := mgr.Available(); !ok {
		fmt.Fprintf(os.Stderr, "No window system available: %s\n", detail)
		os.Exit(1)
	}

	var st *store.Store
	if *record || cfg.Store.Enabled {
		st, err = store.Open(cfg.Store.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		if cfg.Store.MaxAgeDays > 0 {
			maxAge := time.Duration(cfg.Store.MaxAgeDays) * 24 * time.Hour
			if n, err := st.Prune(maxAge); err == nil && n > 0 {
				logging.Info("pruned old records", "rows", n)
			}
		}
	}

	mon := monitor.New(mgr, monitor.Config{
		PollInterval:            cfg.Monitor.PollInterval(),
		DebounceInterval:        cfg.Monitor.DebounceInterval(),
		SecureInputPollInterval: cfg.SecureInput.PollInterval(),
		IgnoredApplications:     cfg.Monitor.IgnoredApplications,
	})
	if err := mon.Start(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting monitor: %v\n", err)
		os.Exit(1)
	}
	defer mon.Stop()

	// Reloaded configs are picked up through loader.Config() in the
	// event loop; the callback only reports the reload.
	loader.OnChange(func(*config.Config) {
		logging.Info("configuration reloaded")
	})
	if err := loader.Watch(); err != nil {
		logging.Warn("config watch unavailable", "error", err)
	}
	defer loader.Close()

	go func() {
		for err := range loader.Errors() {
			logging.Warn("configuration problem", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	fmt.Println("Watching for transitions. Press Ctrl-C to stop.")

	var (
		lastWindow system.WindowIdentity
		lastSecure *system.SecureInputHolder
		episodeID  int64
	)
	for {
		select {
		case <-sigChan:
			fmt.Println()
			fmt.Println("Stopped.")
			return

		case ev, ok := <-mon.Events():
			if !ok {
				return
			}
			ts := ev.Timestamp.Format("15:04:05")

			if ev.Window != lastWindow {
				line := fmt.Sprintf("[%s] window  %s", ts, ev.Window.Class)
				if ev.Window.Title != "" {
					line += fmt.Sprintf("  %q", ev.Window.Title)
				}
				if p := loader.Config().MatchProfile(ev.Window); p != nil {
					line += fmt.Sprintf("  (profile: %s)", p.Name)
				}
				fmt.Println(line)

				if st != nil {
					if _, err := st.RecordTransition(ev.Timestamp, ev.Window); err != nil {
						logging.Warn("record transition failed", "error", err)
					}
				}
				lastWindow = ev.Window
			}

			switch {
			case ev.SecureInput != nil && lastSecure == nil:
				fmt.Printf("[%s] secure input ACQUIRED by %s\n", ts, ev.SecureInput.App)
				if st != nil {
					id, err := st.BeginEpisode(ev.Timestamp, *ev.SecureInput)
					if err != nil {
						logging.Warn("record episode failed", "error", err)
					} else {
						episodeID = id
					}
				}
			case ev.SecureInput == nil && lastSecure != nil:
				fmt.Printf("[%s] secure input released\n", ts)
				if st != nil && episodeID != 0 {
					if err := st.EndEpisode(episodeID, ev.Timestamp); err != nil {
						logging.Warn("close episode failed", "error", err)
					}
					episodeID = 0
				}
			}
			lastSecure = ev.SecureInput
		}
	}
}

func cmdProfiles() {
	fs := flag.NewFlagSet("profiles", flag.ExitOnError)
	cfgPath := configFlag(fs)
	fs.Parse(os.Args[2:])

	cfg := loadConfig(*cfgPath)
	setupLogging(cfg)

	profiles := cfg.LoadedProfiles()
	if len(profiles) == 0 {
		fmt.Printf("No profiles found in %s\n", cfg.Profiles.Directory)
		return
	}

	fmt.Printf("Profiles (%d):\n", len(profiles))
	for _, p := range profiles {
		fmt.Printf("  %s (priority %d)\n", p.Name, p.Priority)
		if p.FilterClass != "" {
			fmt.Printf("      class: %s\n", p.FilterClass)
		}
		if p.FilterTitle != "" {
			fmt.Printf("      title: %s\n", p.FilterTitle)
		}
		if p.FilterExec != "" {
			fmt.Printf("      exec:  %s\n", p.FilterExec)
		}
		if p.SuppressOnSecureInput {
			fmt.Println("      suppressed during secure input")
		}
	}

	mgr := system.NewManager()
	if win, ok := system.CurrentIdentity(mgr); ok {
		fmt.Println()
		if p := cfg.MatchProfile(win); p != nil {
			fmt.Printf("Current window (%s) matches: %s\n", win.Class, p.Name)
		} else {
			fmt.Printf("Current window (%s) matches no profile\n", win.Class)
		}
	}
}

func cmdHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	cfgPath := configFlag(fs)
	limit := fs.Int("n", 20, "Number of entries to show")
	episodes := fs.Bool("secure", false, "Show secure input episodes instead of transitions")
	fs.Parse(os.Args[2:])

	cfg := loadConfig(*cfgPath)

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if *episodes {
		eps, err := st.RecentEpisodes(*limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading episodes: %v\n", err)
			os.Exit(1)
		}
		if len(eps) == 0 {
			fmt.Println("No secure input episodes recorded.")
			return
		}
		for _, ep := range eps {
			end := "still open"
			if ep.EndAt != nil {
				end = ep.EndAt.Sub(ep.StartAt).Round(time.Second).String()
			}
			fmt.Printf("%s  %s  (%s)\n", ep.StartAt.Format("2006-01-02 15:04:05"), ep.App, end)
		}
		return
	}

	trs, err := st.RecentTransitions(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading transitions: %v\n", err)
		os.Exit(1)
	}
	if len(trs) == 0 {
		fmt.Println("No transitions recorded.")
		return
	}
	for _, tr := range trs {
		line := fmt.Sprintf("%s  %s", tr.At.Format("2006-01-02 15:04:05"), tr.Class)
		if tr.Title != "" {
			line += fmt.Sprintf("  %q", tr.Title)
		}
		fmt.Println(line)
	}
}

func setupLogging(cfg *config.Config) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		format = logging.FormatText
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	logCfg.Format = format
	logCfg.Output = cfg.Logging.Output
	if cfg.Logging.FilePath != "" {
		logCfg.FilePath = cfg.Logging.FilePath
	}

	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)
}
