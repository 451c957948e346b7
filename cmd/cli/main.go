package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"grid-backtest/internal/analysis"
	"grid-backtest/internal/backtest"
	"grid-backtest/internal/config"
	"grid-backtest/internal/data"
	"grid-backtest/internal/grid"
	"grid-backtest/internal/hedge"
	"grid-backtest/internal/logger"
	"grid-backtest/internal/model"
	"grid-backtest/internal/venue"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch os.Args[1] {
	case "backtest":
		cmdBacktest(ctx, os.Args[2:], false)
	case "regrid":
		cmdBacktest(ctx, os.Args[2:], true)
	case "ratio":
		cmdRatio(ctx, os.Args[2:])
	case "rank":
		cmdRank(ctx, os.Args[2:])
	case "fetch":
		cmdFetch(ctx, os.Args[2:])
	case "grid":
		cmdGrid(ctx, os.Args[2:])
	case "hedge":
		cmdHedge(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	_ = logger.Close()
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli backtest --symbol BTCUSDT --start 2025-01-01 --end 2025-02-01 [--out results/events.csv]")
	fmt.Println("  cli regrid   --symbol BTCUSDT --start 2025-01-01 --end 2025-12-31 --max-range-pct 12 [--sessions results/sessions.csv]")
	fmt.Println("  cli ratio    --base BTCUSDT --quote ETHUSDT --start 2025-01-01 --levels 20 --step-pct 0.2 --tp-pct 0.15")
	fmt.Println("  cli rank     --data bars.csv --steps 0.1,0.25,0.5 --tps 0.1,0.2")
	fmt.Println("  cli fetch    --symbol BTCUSDT --start 2025-01-01 --out data/btc_1m.csv")
	fmt.Println("  cli grid     --mid 65000 [--tick 0.1 --lot 0.001 | --exchange-filters]")
	fmt.Println("  cli hedge    --symbol ETHUSDT --spot 1.5 --short 0.2")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - every run command accepts --config, --data and the grid flags (--levels --step-pct --tp-pct")
	fmt.Println("    --order-usdt --max-range-pct --effective-exposure); flags override the config file")
	fmt.Println("  - regrid starts a new session on the bar after each breakout")
}

func cmdBacktest(ctx context.Context, args []string, autoRegrid bool) {
	f := newRunFlags("backtest")
	outPath := f.fs.String("out", "", "Optional: write the fill ledger CSV here")
	sessionsPath := f.fs.String("sessions", "", "Optional: write one CSV row per session here")
	n := f.fs.Int("n", 0, "Optional: limit to first N bars (0=all)")
	regrid := f.fs.Bool("auto-regrid", autoRegrid, "Regrid after each breakout")
	cfg := f.load(args)

	bars := f.bars(ctx, cfg, binance(cfg))
	if *n > 0 && *n < len(bars) {
		bars = bars[:*n]
	}

	results := run(cfg, bars, *regrid || cfg.AutoRegrid, cfg.Symbol)
	writeOutputs(results, *outPath, *sessionsPath)
}

func cmdRatio(ctx context.Context, args []string) {
	f := newRunFlags("ratio")
	base := f.fs.String("base", "BTCUSDT", "Numerator symbol")
	quote := f.fs.String("quote", "ETHUSDT", "Denominator symbol")
	regrid := f.fs.Bool("auto-regrid", false, "Regrid after each breakout")
	outPath := f.fs.String("out", "", "Optional: write the fill ledger CSV here")
	cfg := f.load(args)

	src := data.NewRatioSource(binance(cfg), strings.ToUpper(*base), strings.ToUpper(*quote))
	bars := f.bars(ctx, cfg, src)
	results := run(cfg, bars, *regrid || cfg.AutoRegrid, src.Symbol())
	writeOutputs(results, *outPath, "")
}

func cmdRank(ctx context.Context, args []string) {
	f := newRunFlags("rank")
	steps := f.fs.String("steps", "0.1,0.15,0.2,0.25,0.3,0.5", "Comma-separated step percentages")
	tps := f.fs.String("tps", "0.1,0.15,0.2,0.25", "Comma-separated take-profit percentages")
	regrid := f.fs.Bool("auto-regrid", false, "Rank auto-regrid sequences instead of single sessions")
	top := f.fs.Int("top", 10, "Show the best N combinations (0=all)")
	cfg := f.load(args)

	bars := f.bars(ctx, cfg, binance(cfg))
	ranked, err := analysis.Sweep(bars, cfg.ToBacktest(), splitFloats(*steps), splitFloats(*tps), *regrid || cfg.AutoRegrid)
	exitOnErr(err)
	if *top > 0 && *top < len(ranked) {
		ranked = ranked[:*top]
	}

	p := analysis.ComputeProfile(bars)
	fmt.Printf("%s %d bars  range %.4f..%.4f  p95-p05 %.2f%%  max excursion %.2f%%\n",
		cfg.Symbol, p.Count, p.Min, p.Max, p.SpreadPct, p.MaxExcursionPct)
	fmt.Printf("%-4s %-8s %-8s %-9s %-10s %-14s %-12s\n", "rank", "step%", "tp%", "sessions", "breakouts", "cycles(L/S)", "pnl")
	for i, r := range ranked {
		fmt.Printf(
			"%-4d %-8.3f %-8.3f %-9d %-10d %-14s %-12.4f\n",
			i+1,
			r.Config.Grid.StepPct,
			r.Config.Grid.TpPct,
			r.Sessions,
			r.Breakouts,
			fmt.Sprintf("%d/%d", r.CyclesLong, r.CyclesShort),
			r.TotalPnl,
		)
	}
}

func cmdFetch(ctx context.Context, args []string) {
	f := newRunFlags("fetch")
	quote := f.fs.String("quote", "", "Optional: fetch symbol/quote as a ratio series")
	outPath := f.fs.String("out", "", "Output path (.csv or .json)")
	cfg := f.load(args)
	if *outPath == "" {
		fmt.Println("--out is required")
		os.Exit(2)
	}

	var src data.Source = binance(cfg)
	if *quote != "" {
		src = data.NewRatioSource(src, cfg.Symbol, strings.ToUpper(*quote))
	}
	bars, err := src.Bars(ctx, f.query(cfg))
	exitOnErr(err)
	exitOnErr(data.WriteBars(*outPath, bars))
	fmt.Printf("Wrote %d bars to %s\n", len(bars), *outPath)
}

func cmdGrid(ctx context.Context, args []string) {
	f := newRunFlags("grid")
	mid := f.fs.Float64("mid", 0, "Grid midpoint")
	tick := f.fs.Float64("tick", 0, "Price tick size for order rounding")
	lot := f.fs.Float64("lot", 0, "Quantity step size for order rounding")
	minQty := f.fs.Float64("min-qty", 0, "Minimum order quantity")
	minNotional := f.fs.Float64("min-notional", 0, "Minimum order notional")
	fromExchange := f.fs.Bool("exchange-filters", false, "Read tick/lot/min filters from Binance exchange info")
	cfg := f.load(args)

	ladder, err := grid.Build(*mid, cfg.Grid)
	exitOnErr(err)
	qty := cfg.ToBacktest().Sizing.Quantity(*mid)

	fmt.Printf("%s grid around %.4f  qty/level %.6f\n", cfg.Symbol, ladder.Mid, qty)
	fmt.Printf("%-6s %-5s %-14s %-14s\n", "side", "level", "entry", "take_profit")
	for _, side := range [][]grid.PriceLevel{ladder.Longs, ladder.Shorts} {
		for _, lvl := range side {
			fmt.Printf("%-6s %-5d %-14.6f %-14.6f\n", lvl.Side, lvl.Index, lvl.Entry, lvl.TakeProfit)
		}
	}

	var filters venue.Filters
	switch {
	case *fromExchange:
		filters, err = venue.FetchFilters(ctx, binance(cfg).Client(), cfg.Symbol)
		exitOnErr(err)
	case *tick > 0 || *lot > 0:
		filters = venue.NewFilters(*tick, *lot, *minQty, *minNotional)
	default:
		return
	}

	fmt.Println("")
	fmt.Printf("%-6s %-12s %-14s %-12s %-6s\n", "side", "kind", "price", "qty", "reduce")
	for _, o := range venue.LadderOrders(cfg.Symbol, ladder, qty, filters) {
		fmt.Printf("%-6s %-12s %-14.6f %-12.6f %-6t\n", o.Side, o.Kind, o.Price, o.Qty, o.ReduceOnly)
	}
}

func cmdHedge(args []string) {
	fs := flag.NewFlagSet("hedge", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	symbol := fs.String("symbol", "", "Futures symbol (default: config symbol)")
	spot := fs.Float64("spot", 0, "Spot quantity held")
	short := fs.Float64("short", 0, "Current futures short size")
	ratio := fs.Float64("ratio", -1, "Hedge ratio (default: config hedge.ratio)")
	lot := fs.Float64("lot", -1, "Futures lot size (default: config hedge.lot_size)")
	_ = fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	exitOnErr(err)
	in := hedge.Input{
		Symbol:       cfg.Symbol,
		SpotQty:      *spot,
		CurrentShort: *short,
		Ratio:        cfg.Hedge.Ratio,
		LotSize:      cfg.Hedge.LotSize,
	}
	if *symbol != "" {
		in.Symbol = strings.ToUpper(*symbol)
	}
	if *ratio >= 0 {
		in.Ratio = *ratio
	}
	if *lot >= 0 {
		in.LotSize = *lot
	}

	order, err := hedge.Plan(in)
	exitOnErr(err)
	fmt.Printf("target short %.6f  current %.6f  diff %.6f\n", order.Target, in.CurrentShort, order.Diff)
	fmt.Println(order.String())
}

// run executes one session or an auto-regrid sequence and prints the totals.
func run(cfg *config.Config, bars []model.Bar, autoRegrid bool, label string) []*backtest.Result {
	bc := cfg.ToBacktest()
	engine := backtest.New()

	if !autoRegrid {
		res, err := engine.RunSession(bars, bc)
		exitOnErr(err)
		fmt.Println("=== BOTH-SIDES GRID BACKTEST ===")
		printHeader(cfg, label, res.Start, res.End, res.Bars)
		fmt.Printf("Cycles (long/short):  %d / %d\n", res.CyclesLong, res.CyclesShort)
		fmt.Printf("PnL     (long/short): %.4f / %.4f USDT\n", res.PnlLong, res.PnlShort)
		fmt.Printf("TOTAL PnL:            %.4f USDT\n", res.TotalPnl)
		fmt.Printf("Winrate (cycles):     %.2f%%\n", res.WinRate)
		fmt.Printf("Open at end (L/S):    %d / %d  unrealized %.4f USDT\n", res.OpenLong, res.OpenShort, res.UnrealizedPnl)
		fmt.Printf("Stopped by breakout:  %t\n", res.StoppedByBreakout)
		return []*backtest.Result{res}
	}

	agg, err := engine.RunSequence(bars, bc)
	exitOnErr(err)
	first, last := agg.Results[0], agg.Results[len(agg.Results)-1]
	fmt.Println("=== AUTO-REGRID BACKTEST ===")
	printHeader(cfg, label, first.Start, last.End, agg.Bars)
	fmt.Printf("Sessions:             %d  (breakouts %d)\n", agg.Sessions, agg.Breakouts)
	fmt.Printf("Cycles (long/short):  %d / %d\n", agg.CyclesLong, agg.CyclesShort)
	fmt.Printf("PnL     (long/short): %.4f / %.4f USDT\n", agg.PnlLong, agg.PnlShort)
	fmt.Printf("TOTAL PnL:            %.4f USDT\n", agg.TotalPnl)
	return agg.Results
}

func printHeader(cfg *config.Config, label string, start, end time.Time, bars int) {
	g := cfg.Guard.Resolve()
	fmt.Printf("Symbol:               %s\n", label)
	fmt.Printf("Interval:             %s\n", cfg.Data.Interval)
	fmt.Printf("Period:               %s -> %s  (bars=%d)\n", start.Format(time.RFC3339), end.Format(time.RFC3339), bars)
	fmt.Printf("Levels/side:          %d\n", cfg.Grid.Levels)
	fmt.Printf("Step %% / TP %%:        %g / %g\n", cfg.Grid.StepPct, cfg.Grid.TpPct)
	fmt.Printf("Order USDT:           %g  (effective x%g)\n", cfg.Sizing.OrderUSDT, cfg.Sizing.EffectiveExposure)
	fmt.Printf("Range %% (low/high):   %g / %g\n", g.LowPct, g.HighPct)
}

func writeOutputs(results []*backtest.Result, eventsPath, sessionsPath string) {
	if eventsPath != "" {
		exitOnErr(os.MkdirAll(filepath.Dir(eventsPath), 0o755))
		exitOnErr(backtest.WriteEventsCSV(eventsPath, results))
		n := 0
		for _, r := range results {
			n += len(r.Events)
		}
		fmt.Printf("Wrote %d fills to %s\n", n, eventsPath)
	}
	if sessionsPath != "" {
		exitOnErr(os.MkdirAll(filepath.Dir(sessionsPath), 0o755))
		exitOnErr(backtest.WriteSessionsCSV(sessionsPath, results))
		fmt.Printf("Wrote %d sessions to %s\n", len(results), sessionsPath)
	}
}
