package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"FinCorr/internal/domain/models"
	"FinCorr/internal/usecase"

	"github.com/google/subcommands"
)

// resolveCmd implements the "resolve" command.
type resolveCmd struct{}

func (*resolveCmd) Name() string     { return "resolve" }
func (*resolveCmd) Synopsis() string { return "resolves a stock code to its listed or OTC symbol" }
func (*resolveCmd) Usage() string {
	return `resolve <code>

Resolves a bare code such as 2330 to a venue-qualified symbol (2330.TW or 6488.TWO),
checking the local store first and the history provider after.
`
}
func (*resolveCmd) SetFlags(*flag.FlagSet) {}

func (*resolveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fail("resolve takes exactly one code")
		return subcommands.ExitUsageError
	}
	tk, err := openToolkit()
	if err != nil {
		fail("could not initialize: %v", err)
		return subcommands.ExitFailure
	}
	defer tk.Close()

	symbol, err := tk.Resolver.Resolve(ctx, f.Arg(0))
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	fmt.Println(symbol)
	return subcommands.ExitSuccess
}

// updateCmd implements the "update" command.
type updateCmd struct {
	retention int
	delay     time.Duration
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "fetches missing daily closes into the store" }
func (*updateCmd) Usage() string {
	return `update [-retention days] [-delay duration] [symbol...]

Updates the given symbols, or the configured watch list when none are given.
Each symbol is fetched incrementally from its last stored date.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.retention, "retention", 0, "retention window in days. defaults to the configured value.")
	f.DurationVar(&c.delay, "delay", -1, "pause between symbols. defaults to the configured value.")
}

func (c *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tk, err := openToolkit()
	if err != nil {
		fail("could not initialize: %v", err)
		return subcommands.ExitFailure
	}
	defer tk.Close()

	retention := c.retention
	if retention <= 0 {
		retention = tk.Config.Updater.RetentionDays
	}
	delay := c.delay
	if delay < 0 {
		delay = tk.Config.Updater.Delay
	}

	entries := watchList(tk.Config)
	if f.NArg() > 0 {
		entries = make([]models.SymbolEntry, 0, f.NArg())
		for _, s := range f.Args() {
			entries = append(entries, models.SymbolEntry{Symbol: s})
		}
	}

	summary, err := tk.Updater.UpdateMany(ctx, entries, retention, delay)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, r := range summary.Results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.Symbol, r.Status, r.Points, r.Reason)
	}
	w.Flush()
	fmt.Fprintf(os.Stderr, "%d symbols: %d succeeded, %d failed.\n", summary.Total, summary.Succeeded, summary.Failed)
	if err != nil {
		fail("update aborted: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// rankCmd implements the "rank" command.
type rankCmd struct {
	top int
}

func (*rankCmd) Name() string     { return "rank" }
func (*rankCmd) Synopsis() string { return "ranks stored symbols by correlation with a target" }
func (*rankCmd) Usage() string {
	return `rank [-top n] <code>

Ranks every stored symbol by its correlation with the target over the
120, 20 and 10 day windows, strongest first.
`
}

func (c *rankCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.top, "top", 0, "number of peers to show. defaults to the configured value.")
}

func (c *rankCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fail("rank takes exactly one code")
		return subcommands.ExitUsageError
	}
	tk, err := openToolkit()
	if err != nil {
		fail("could not initialize: %v", err)
		return subcommands.ExitFailure
	}
	defer tk.Close()

	top := c.top
	if top <= 0 {
		top = tk.Config.Correlation.TopN
	}
	results, err := tk.Engine.RankBySimilarity(ctx, f.Arg(0), top)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	if len(results) == 0 {
		fmt.Fprintf(os.Stderr, "Warning: no peers in store.\n")
		return subcommands.ExitSuccess
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, r.PeerSymbol, r.PeerName, formatWindows(r))
	}
	w.Flush()
	return subcommands.ExitSuccess
}

// pairCmd implements the "pair" command.
type pairCmd struct{}

func (*pairCmd) Name() string     { return "pair" }
func (*pairCmd) Synopsis() string { return "computes the correlation of two symbols" }
func (*pairCmd) Usage() string {
	return `pair <code> <code>

Prints the correlation of two symbols over the 120, 60 and 20 day windows.
`
}
func (*pairCmd) SetFlags(*flag.FlagSet) {}

func (*pairCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fail("pair takes exactly two codes")
		return subcommands.ExitUsageError
	}
	tk, err := openToolkit()
	if err != nil {
		fail("could not initialize: %v", err)
		return subcommands.ExitFailure
	}
	defer tk.Close()

	r, err := tk.Engine.PairwiseCorrelation(ctx, f.Arg(0), f.Arg(1))
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s (%s) vs %s (%s)\n", r.Symbol, r.Name, r.PeerSymbol, r.PeerName)
	for _, w := range r.Windows {
		fmt.Printf("%4dd  %8s  %s\n", w.Days, formatCoefficient(w.Coefficient), tk.Engine.ClassifyStrength(w.Coefficient.Float()))
	}
	return subcommands.ExitSuccess
}

// statsCmd implements the "stats" command.
type statsCmd struct{}

func (*statsCmd) Name() string           { return "stats" }
func (*statsCmd) Synopsis() string       { return "prints store counts" }
func (*statsCmd) Usage() string          { return "stats\n" }
func (*statsCmd) SetFlags(*flag.FlagSet) {}

func (*statsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tk, err := openToolkit()
	if err != nil {
		fail("could not initialize: %v", err)
		return subcommands.ExitFailure
	}
	defer tk.Close()

	s, err := usecase.Stats(ctx, tk.Store)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("symbols: %d\nprice points: %d\n", s.Symbols, s.PricePoints)
	return subcommands.ExitSuccess
}

// pruneCmd implements the "prune" command.
type pruneCmd struct {
	retention int
}

func (*pruneCmd) Name() string     { return "prune" }
func (*pruneCmd) Synopsis() string { return "deletes points outside the retention window" }
func (*pruneCmd) Usage() string {
	return `prune [-retention days] [symbol...]

Deletes stored points older than the retention window plus a grace period,
for the given symbols or every registered symbol.
`
}

func (c *pruneCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.retention, "retention", 0, "retention window in days. defaults to the configured value.")
}

func (c *pruneCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tk, err := openToolkit()
	if err != nil {
		fail("could not initialize: %v", err)
		return subcommands.ExitFailure
	}
	defer tk.Close()

	retention := c.retention
	if retention <= 0 {
		retention = tk.Config.Updater.RetentionDays
	}

	if f.NArg() == 0 {
		n, err := tk.Updater.PruneAll(ctx, retention)
		if err != nil {
			fail("%v", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("pruned %d points\n", n)
		return subcommands.ExitSuccess
	}

	var total int64
	for _, s := range f.Args() {
		n, err := tk.Updater.Prune(ctx, s, retention)
		if err != nil {
			fail("could not prune %s: %v", s, err)
			return subcommands.ExitFailure
		}
		total += n
	}
	fmt.Printf("pruned %d points\n", total)
	return subcommands.ExitSuccess
}

// exportCmd implements the "export" command.
type exportCmd struct {
	n   int
	dir string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "writes a symbol's stored closes to a parquet file" }
func (*exportCmd) Usage() string {
	return `export [-n points] [-dir path] <code>

Writes the most recent stored closes of a symbol to <dir>/<symbol>.parquet.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.n, "n", usecase.TailPoints, "number of most recent points to export")
	f.StringVar(&c.dir, "dir", "", "output directory. defaults to the configured value.")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fail("export takes exactly one code")
		return subcommands.ExitUsageError
	}
	tk, err := openToolkit()
	if err != nil {
		fail("could not initialize: %v", err)
		return subcommands.ExitFailure
	}
	defer tk.Close()

	symbol, err := tk.Resolver.Resolve(ctx, f.Arg(0))
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	dir := c.dir
	if dir == "" {
		dir = tk.Config.Export.Dir
	}
	path, rows, err := tk.Exporter.Export(ctx, symbol, c.n, dir)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "wrote %d rows to %s\n", rows, path)
	return subcommands.ExitSuccess
}

// tpexCmd implements the "tpex" command.
type tpexCmd struct {
	days  int
	delay time.Duration
}

func (*tpexCmd) Name() string     { return "tpex" }
func (*tpexCmd) Synopsis() string { return "ingests recent OTC daily quote tables" }
func (*tpexCmd) Usage() string {
	return `tpex [-days n] [-delay duration]

Fetches the OTC market's full daily quote table for each of the last n days
and stores every quote under its .TWO symbol.
`
}

func (c *tpexCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.days, "days", 5, "number of days back from today to ingest")
	f.DurationVar(&c.delay, "delay", time.Second, "pause between days")
}

func (c *tpexCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tk, err := openToolkit()
	if err != nil {
		fail("could not initialize: %v", err)
		return subcommands.ExitFailure
	}
	defer tk.Close()

	counts, err := tk.Ingestor.IngestRecent(ctx, c.days, c.delay)
	dates := make([]string, 0, len(counts))
	for d := range counts {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	for _, d := range dates {
		fmt.Printf("%s  %d\n", d, counts[d])
	}
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
