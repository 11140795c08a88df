// Command merge runs the full merge and analysis pipeline once,
// prints the summary tables and writes the CSV artifacts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"

	"pitchpulse/internal/analysis"
	"pitchpulse/internal/config"
	"pitchpulse/internal/dataset"
	"pitchpulse/internal/infrastructure"
	"pitchpulse/internal/middleware"
	"pitchpulse/internal/services"
)

func main() {
	configPath := flag.String("config", "", "config file path (defaults to PITCHPULSE_CONFIG or built-in defaults)")
	dataDir := flag.String("dir", "", "override the CSV data directory")
	outDir := flag.String("out", "", "override the export output directory")
	skipExport := flag.Bool("no-export", false, "print summaries without writing CSV artifacts")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadWithPath(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	if *outDir != "" {
		cfg.Data.OutputDir = *outDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	metrics := middleware.NewMetrics(prometheus.NewRegistry())
	service := services.NewDashboardService(cfg, logger, metrics)
	ctx := infrastructure.EnsureTraceID(context.Background())

	if err := run(ctx, service, *skipExport); err != nil {
		logger.ErrorContext(ctx, "pipeline failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, service *services.DashboardService, skipExport bool) error {
	stats, err := service.DatasetStats(ctx)
	if err != nil {
		return err
	}
	printStats(stats)

	correlations, err := service.MovementCorrelations(ctx)
	if err != nil {
		return err
	}
	printCorrelations(correlations)

	importances, err := service.FeatureImportances(ctx)
	if err != nil {
		return err
	}
	printImportances(importances)

	workloads, err := service.Workloads(ctx)
	if err != nil {
		return err
	}
	printWorkloads(workloads)

	if skipExport {
		return nil
	}
	result, err := service.Export(ctx)
	if err != nil {
		return err
	}
	fmt.Println("\nExported files:")
	for _, f := range result.Files {
		fmt.Printf("  %s\n", f)
	}
	return nil
}

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

func cell(f dataset.Float) string {
	if f.IsNull() {
		return "-"
	}
	return fmt.Sprintf("%.3f", float64(f))
}

func printStats(stats []dataset.LoadStats) {
	t := newTable("Datasets")
	t.AppendHeader(table.Row{"Table", "Rows", "Dropped"})
	for _, s := range stats {
		t.AppendRow(table.Row{s.Table, s.Rows, s.Dropped})
	}
	t.Render()
}

func printCorrelations(rows []analysis.CorrelationRow) {
	metrics := services.CorrelationMetricNames()

	header := table.Row{"Movement", "N"}
	for _, m := range metrics {
		header = append(header, m)
	}

	t := newTable("Benchmark vs Recovery (Pearson r)")
	t.AppendHeader(header)
	for _, row := range rows {
		r := table.Row{row.Group, row.N}
		for _, m := range metrics {
			r = append(r, cell(row.Values[m]))
		}
		t.AppendRow(r)
	}
	t.Render()
}

func printImportances(rows []analysis.FeatureImportance) {
	t := newTable("Readiness Drivers (feature importance)")
	t.AppendHeader(table.Row{"Rank", "Feature", "Importance"})
	for i, row := range rows {
		t.AppendRow(table.Row{i + 1, row.Feature, fmt.Sprintf("%.3f", row.Importance)})
	}
	t.Render()
}

func printWorkloads(rows []analysis.PlayerWorkload) {
	t := newTable("Player Workloads")
	t.AppendHeader(table.Row{"Player", "Sessions", "Total Dist", "Mean Dist", "High Intensity", "Top Speed", "MD-1", "MD+1"})
	for _, row := range rows {
		t.AppendRow(table.Row{
			row.Player, row.Sessions,
			cell(row.TotalDistance), cell(row.MeanDistance),
			cell(row.HighIntensityKm), cell(row.TopSpeed),
			row.MatchdayMinus1, row.MatchdayPlus1,
		})
	}
	t.Render()
}
