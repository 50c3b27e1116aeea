package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/vanderheijden86/profileplot/internal/datasource"
	"github.com/vanderheijden86/profileplot/pkg/config"
	"github.com/vanderheijden86/profileplot/pkg/debug"
	"github.com/vanderheijden86/profileplot/pkg/engine"
	"github.com/vanderheijden86/profileplot/pkg/export"
	"github.com/vanderheijden86/profileplot/pkg/ui"
	"github.com/vanderheijden86/profileplot/pkg/visibility"
	"github.com/vanderheijden86/profileplot/pkg/watcher"
)

func main() {
	dataPath := flag.String("data", "", "Dataset file (.csv, .jsonl or .db)")
	subsetPath := flag.String("subset", "", "Auxiliary dataset whose row ids form the highlighted subset")
	groupCol := flag.String("group", "", "Discrete column to group profiles by")
	modeFlag := flag.String("mode", "", "Display mode: range-with-mean, instances, mean, instances-with-mean")
	errorBars := flag.Bool("error-bars", false, "Show quartile error bars")
	noWatch := flag.Bool("no-watch", false, "Disable dataset auto-reload")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help {
		fmt.Println("Usage: pplot --data profiles.csv [options]")
		fmt.Println("\nAn interactive viewer for multi-series line profiles.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *dataPath == "" && flag.NArg() > 0 {
		*dataPath = flag.Arg(0)
	}
	if *dataPath == "" {
		fmt.Fprintln(os.Stderr, "pplot: no dataset given (try --data profiles.csv)")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pplot: %v (using defaults)\n", err)
	}
	if *modeFlag == "" {
		*modeFlag = cfg.UI.DisplayMode
	}
	mode, ok := visibility.ParseDisplayMode(*modeFlag)
	if !ok {
		fmt.Fprintf(os.Stderr, "pplot: unknown display mode %q\n", *modeFlag)
		os.Exit(2)
	}
	showBars := *errorBars || cfg.UI.ErrorBars

	start := time.Now()
	ds, err := datasource.Load(*dataPath, datasource.LoadOptions{Group: *groupCol})
	if err != nil {
		fmt.Fprintf(os.Stderr, "pplot: %v\n", err)
		os.Exit(1)
	}
	debug.LogTiming("load dataset", time.Since(start))

	eng := engine.New(
		engine.WithDisplayMode(mode),
		engine.WithShowErrorBars(showBars),
	)
	if err := eng.Load(ds.Table); err != nil {
		fmt.Fprintf(os.Stderr, "pplot: %v\n", err)
		// Engine stays alive in its empty state; the viewer shows the
		// informational message instead of exiting.
	}

	var subsetIDs []string
	if *subsetPath != "" {
		subsetIDs, err = datasource.LoadRowIDs(*subsetPath, datasource.LoadOptions{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "pplot: subset: %v\n", err)
			os.Exit(1)
		}
		eng.SetSubset(subsetIDs)
	}

	// Robot mode: no TTY means a pipeline wants the commit payload, not
	// an interactive screen.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		if err := export.EncodeCommitJSON(os.Stdout, eng.Commit()); err != nil {
			fmt.Fprintf(os.Stderr, "pplot: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var w *watcher.Watcher
	if cfg.Watch.Enabled && !*noWatch {
		w, err = watcher.New(*dataPath,
			watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond))
		if err == nil {
			if err := w.Start(); err != nil {
				w = nil
			}
		} else {
			w = nil
		}
	}

	m := ui.New(ui.Options{
		Engine:    eng,
		Dataset:   ds,
		DataPath:  *dataPath,
		SubsetIDs: subsetIDs,
		Config:    cfg,
		Watcher:   w,
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "pplot: %v\n", err)
		os.Exit(1)
	}
}
