package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vanderheijden86/storyweb/pkg/analysis"
	"github.com/vanderheijden86/storyweb/pkg/config"
	"github.com/vanderheijden86/storyweb/pkg/debug"
	"github.com/vanderheijden86/storyweb/pkg/export"
	"github.com/vanderheijden86/storyweb/pkg/graph"
	"github.com/vanderheijden86/storyweb/pkg/metrics"
	"github.com/vanderheijden86/storyweb/pkg/persist"
	"github.com/vanderheijden86/storyweb/pkg/ui"
	"github.com/vanderheijden86/storyweb/pkg/version"
	"github.com/vanderheijden86/storyweb/pkg/viewport"
	"github.com/vanderheijden86/storyweb/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

func main() {
	file := flag.String("file", "", "Snapshot file (default: from config, then the data directory)")
	backend := flag.String("backend", "", "Storage backend: json or sqlite")
	configPath := flag.String("config", "", "Config file (default: ~/.config/storyweb/config.yaml)")
	exportPath := flag.String("export", "", "Render the current plane to an .svg or .png file and exit")
	exportAll := flag.String("export-all", "", "Render every plane into a directory and exit")
	stats := flag.Bool("stats", false, "Print graph statistics and exit")
	seed := flag.Bool("seed", false, "Start from the demo canvas instead of the saved one")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *help {
		fmt.Println("Usage: sw [options]")
		fmt.Println("\nAn infinite canvas of nested story entities in the terminal.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("sw %s\n", version.String())
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		// Non-fatal: continue with defaults
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}
	if *backend != "" {
		cfg.Storage.Backend = *backend
	}
	if *file != "" {
		cfg.Storage.Path = *file
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	path := cfg.SnapshotPath()
	store, err := persist.OpenStore(cfg.Storage.Backend, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", path, err)
		os.Exit(1)
	}
	defer store.Close()

	interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	batch := *stats || *exportPath != "" || *exportAll != ""

	g := graph.NewStore()
	view := viewport.New(g, cfg.Canvas)
	notice, err := loadCanvas(store, cfg.Storage.Backend, g, view, *seed, interactive && !batch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if batch {
		if err := runBatch(g, view, *stats, *exportPath, *exportAll); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if !interactive {
		fmt.Fprintln(os.Stderr, "sw needs a terminal; use --stats or --export for scripted use")
		os.Exit(2)
	}

	var w *watcher.Watcher
	if cfg.Storage.Watch && cfg.Storage.Backend == config.BackendJSON {
		w, err = watcher.NewWatcher(path,
			watcher.WithStamp(persist.ReadStamp),
			watcher.WithForcePoll(os.Getenv("SW_FORCE_POLL") != ""),
		)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			debug.Log("main: file watching disabled: %v", err)
			w = nil
		}
	}

	m := ui.New(g, view, ui.Options{Config: cfg, Backend: store, Watcher: w, Notice: notice})
	defer m.Close()

	if err := runTUIProgram(m); err != nil {
		fmt.Printf("Error running storyweb: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// loadCanvas fills g and view from the store. A missing snapshot seeds the
// demo canvas and writes it out; an unreadable one is reported, moved
// aside for the json backend, and replaced by the demo canvas.
func loadCanvas(store persist.Store, backend string, g *graph.Store, view *viewport.Engine, seed, interactive bool) (string, error) {
	ctx := context.Background()
	if seed {
		graph.Seed(g)
		view.Reconcile()
		return "started from the demo canvas", nil
	}

	snap, err := store.Load(ctx)
	if err == nil {
		err = snap.Apply(g, view)
	}
	switch {
	case err == nil:
		return "", nil
	case errors.Is(err, persist.ErrNotFound):
		graph.Seed(g)
		view.Reconcile()
		if err := store.Save(ctx, persist.Capture(g, view)); err != nil {
			return "", fmt.Errorf("writing %s: %w", store.Path(), err)
		}
		return "", nil
	}

	debug.Log("main: load %s: %v", store.Path(), err)
	msg := fmt.Sprintf("could not load %s: %v", store.Path(), err)
	if backend == config.BackendJSON {
		aside := store.Path() + ".corrupt"
		if rerr := os.Rename(store.Path(), aside); rerr == nil {
			msg += "; moved to " + aside
		}
	}
	if interactive {
		if ferr := showLoadNotice(msg); ferr != nil {
			return "", ferr
		}
	} else {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	}
	graph.Seed(g)
	view.Reconcile()
	return "load failed; showing the demo canvas", nil
}

func showLoadNotice(msg string) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("The saved canvas could not be opened").
				Description(msg).
				Next(true).
				NextLabel("Start with the demo canvas"),
		),
	).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errors.New("aborted")
		}
		return err
	}
	return nil
}

func runBatch(g *graph.Store, view *viewport.Engine, stats bool, exportPath, exportDir string) error {
	if stats {
		fmt.Print(analysis.Analyze(g).Summary())
		if metrics.Enabled() {
			fmt.Println()
			fmt.Print(metrics.Summary())
		}
	}
	if exportPath != "" {
		err := export.SavePlane(export.PlaneSnapshotOptions{
			Path:  exportPath,
			Store: g,
			View:  view,
			Plane: view.CurrentPlane(),
		})
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		fmt.Printf("wrote %s\n", exportPath)
	}
	if exportDir != "" {
		paths, err := export.SaveAllPlanes(context.Background(), exportDir, "", g, view)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		for _, p := range paths {
			fmt.Printf("wrote %s\n", p)
		}
	}
	return nil
}

func runTUIProgram(m *ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
