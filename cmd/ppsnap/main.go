// ppsnap renders a static chart snapshot (SVG or PNG) and/or a commit
// JSON payload from a dataset, without the interactive viewer. It is the
// headless counterpart of pplot, meant for docs, CI artifacts and agent
// pipelines.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vanderheijden86/profileplot/internal/datasource"
	"github.com/vanderheijden86/profileplot/pkg/config"
	"github.com/vanderheijden86/profileplot/pkg/engine"
	"github.com/vanderheijden86/profileplot/pkg/export"
	"github.com/vanderheijden86/profileplot/pkg/stats"
	"github.com/vanderheijden86/profileplot/pkg/visibility"
)

func main() {
	dataPath := flag.String("data", "", "Dataset file (.csv, .jsonl or .db)")
	subsetPath := flag.String("subset", "", "Auxiliary dataset whose row ids form the highlighted subset")
	groupCol := flag.String("group", "", "Discrete column to group profiles by")
	modeFlag := flag.String("mode", "", "Display mode (default from config)")
	errorBars := flag.Bool("error-bars", false, "Show quartile error bars")
	selectFlag := flag.String("select", "", "Comma-separated profile indices to select")
	outPath := flag.String("out", "", "Chart snapshot output path (.svg or .png)")
	commitPath := flag.String("commit-json", "", "Commit payload output path (.json)")
	title := flag.String("title", "", "Chart title")
	preset := flag.String("preset", "", "Layout preset: compact or roomy")
	flag.Parse()

	if *dataPath == "" && flag.NArg() > 0 {
		*dataPath = flag.Arg(0)
	}
	if *dataPath == "" {
		fmt.Fprintln(os.Stderr, "ppsnap: no dataset given (try --data profiles.csv)")
		os.Exit(2)
	}
	if *outPath == "" && *commitPath == "" {
		fmt.Fprintln(os.Stderr, "ppsnap: nothing to do (want --out and/or --commit-json)")
		os.Exit(2)
	}

	cfg, _ := config.Load()
	if *modeFlag == "" {
		*modeFlag = cfg.UI.DisplayMode
	}
	mode, ok := visibility.ParseDisplayMode(*modeFlag)
	if !ok {
		fmt.Fprintf(os.Stderr, "ppsnap: unknown display mode %q\n", *modeFlag)
		os.Exit(2)
	}
	if *preset == "" {
		*preset = cfg.Snapshot.Preset
	}

	ds, err := datasource.Load(*dataPath, datasource.LoadOptions{Group: *groupCol})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ppsnap: %v\n", err)
		os.Exit(1)
	}

	eng := engine.New(
		engine.WithDisplayMode(mode),
		engine.WithShowErrorBars(*errorBars || cfg.UI.ErrorBars),
	)
	if err := eng.Load(ds.Table); err != nil {
		fmt.Fprintf(os.Stderr, "ppsnap: %v\n", err)
		os.Exit(1)
	}

	if *subsetPath != "" {
		ids, err := datasource.LoadRowIDs(*subsetPath, datasource.LoadOptions{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "ppsnap: subset: %v\n", err)
			os.Exit(1)
		}
		eng.SetSubset(ids)
	}

	if *selectFlag != "" {
		indices, err := parseIndices(*selectFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ppsnap: %v\n", err)
			os.Exit(2)
		}
		eng.SetSelection(indices)
	}

	if *outPath != "" {
		aggs := make(map[int]stats.GroupAggregate)
		for _, key := range eng.GroupKeys() {
			if agg, ok := eng.Aggregate(key); ok {
				aggs[key] = agg
			}
		}
		err := export.SaveChartSnapshot(export.ChartSnapshotOptions{
			Path:       *outPath,
			Title:      *title,
			Preset:     *preset,
			Table:      eng.Table(),
			Aggregates: aggs,
			Visibility: eng.Visibility(),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "ppsnap: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *outPath)
	}

	if *commitPath != "" {
		if err := export.WriteCommitJSON(*commitPath, eng.Commit()); err != nil {
			fmt.Fprintf(os.Stderr, "ppsnap: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *commitPath)
	}
}

func parseIndices(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad index %q", part)
		}
		out = append(out, v)
	}
	return out, nil
}
