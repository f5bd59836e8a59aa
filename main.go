package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dot5enko/segquery/manager"
	"github.com/dot5enko/segquery/manager/config"
	"github.com/dot5enko/segquery/manager/query"
	"github.com/dot5enko/segquery/manager/response"
	"github.com/dot5enko/segquery/schema"
	"github.com/dot5enko/segquery/segment"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dump       bool
	verbose    bool

	segmentsCount int
	rowsPerSeg    int
	cycles        int
)

var healthChecks = schema.Schema{
	Name: "health_checks",
	Columns: []schema.SchemaColumn{
		{Name: "created_at", Type: schema.Int64FieldType},
		{Name: "region", Type: schema.StringFieldType},
		{Name: "status", Type: schema.Int32FieldType},
		{Name: "latency", Type: schema.Float64FieldType},
	},
}

var regions = []string{"eu-west", "eu-central", "us-east", "us-west", "ap-south"}
var statuses = []int{200, 201, 204, 301, 404, 500, 503}

func fakeRow(rnd *rand.Rand, ts int64) map[string]any {
	return map[string]any{
		"created_at": ts,
		"region":     regions[rnd.Intn(len(regions))],
		"status":     statuses[rnd.Intn(len(statuses))],
		"latency":    float64(rnd.Int63n(50000)) / 100,
	}
}

// loadFakeData registers sealed segments plus one realtime segment
func loadFakeData(m *manager.Manager) error {

	rnd := rand.New(rand.NewSource(42))
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

	for idx := range segmentsCount {
		b := segment.NewBuilder(fmt.Sprintf("health_checks_%d", idx), healthChecks)
		for range rowsPerSeg {
			ts++
			if err := b.AddRow(fakeRow(rnd, ts)); err != nil {
				return err
			}
		}

		seg, err := b.Build()
		if err != nil {
			return err
		}
		m.Register(seg)
	}

	if _, err := m.CreateSchema("health_checks_realtime", healthChecks); err != nil {
		return err
	}

	rows := make([]map[string]any, 0, rowsPerSeg/10)
	for range rowsPerSeg / 10 {
		ts++
		rows = append(rows, fakeRow(rnd, ts))
	}

	_, err := m.Ingest("health_checks_realtime", rows)
	return err
}

func demoQueries() map[string]*query.Query {

	count := query.New("health_checks")
	count.Aggregations = []query.AggregationInfo{{Type: "COUNT"}, {Type: "AVG", Column: "latency"}}

	errorsByRegion := query.New("health_checks")
	errorsByRegion.Filter = query.Leaf("status", query.RANGE, 500, 600)
	errorsByRegion.Aggregations = []query.AggregationInfo{{Type: "COUNT"}, {Type: "MAX", Column: "latency"}}
	errorsByRegion.GroupBy = []string{"region", "status"}
	errorsByRegion.GroupByTopN = 5

	slowest := query.New("health_checks")
	slowest.Filter = query.And(
		query.Leaf("region", query.IN, "eu-west", "eu-central"),
		query.Leaf("latency", query.GT, 400),
	)
	slowest.Selection = &query.Selection{
		Columns: []string{query.AllColumns},
		OrderBy: []query.SortSpec{{Column: "latency", Descending: true}},
		Limit:   5,
	}

	return map[string]*query.Query{
		"count":            count,
		"errors_by_region": errorsByRegion,
		"slowest_eu":       slowest,
	}
}

var demoOrder = []string{"count", "errors_by_region", "slowest_eu"}

func printResponse(resp *response.InstanceResponse) {

	for _, a := range resp.Aggregations {
		fmt.Printf("  %s = %.2f\n", a.Function, a.Value)
	}

	if resp.GroupBy != nil {
		fmt.Printf("  %s | %s\n", strings.Join(resp.GroupBy.Columns, ", "), strings.Join(resp.GroupBy.Functions, ", "))
		for _, row := range resp.GroupBy.Rows {
			fmt.Printf("  %v | %v\n", row.Values, row.Aggregates)
		}
	}

	if resp.Selection != nil {
		fmt.Printf("  %s\n", strings.Join(resp.Selection.Columns, ", "))
		for _, row := range resp.Selection.Rows {
			fmt.Printf("  %v\n", row)
		}
	}

	for _, f := range resp.Failures {
		color.Yellow("  segment %s %s: %s", f.Segment, f.Status, f.Reason)
	}

	fmt.Printf("  matched %d of %d docs in %d segments, took %s, strategies %v\n",
		resp.Stats.DocsMatched, resp.Stats.TotalDocs, resp.Stats.SegmentsProcessed, resp.Stats.TimeUsed, resp.Stats.Strategies)
}

// testCycles runs cb n times and reports the mean duration of a cycle
func testCycles(n int, label string, cb func() error) error {

	before := time.Now()

	for range n {
		if err := cb(); err != nil {
			return err
		}
	}

	after := time.Since(before)

	log.Printf(" %s per cycle : %s", label, (after / time.Duration(n)).String())
	return nil
}

func withManager(run func(m *manager.Manager) error) error {

	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	m, err := manager.New(*cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := loadFakeData(m); err != nil {
		return fmt.Errorf("unable to generate data: %s", err.Error())
	}

	return run(m)
}

var rootCmd = &cobra.Command{
	Use:          "segquery",
	Short:        "Plans and runs aggregation queries over columnar segments",
	SilenceUsage: true,
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run sample queries over generated segments",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(m *manager.Manager) error {
			queries := demoQueries()

			for _, name := range demoOrder {
				resp, err := m.Query(cmd.Context(), queries[name], nil)
				if err != nil {
					return fmt.Errorf("query %s failed: %w", name, err)
				}

				color.Green("%s", name)
				printResponse(resp)

				if dump {
					spew.Dump(resp)
				}
			}

			return nil
		})
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print the plan tree of the sample queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(m *manager.Manager) error {
			queries := demoQueries()

			for _, name := range demoOrder {
				d, err := m.Describe(cmd.Context(), queries[name], nil)
				if err != nil {
					return err
				}

				color.Cyan("%s", name)
				fmt.Print(d.String())

				if dump {
					spew.Dump(d)
				}
			}

			return nil
		})
	},
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Time the sample queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(m *manager.Manager) error {
			queries := demoQueries()

			for _, name := range demoOrder {
				q := queries[name]
				err := testCycles(cycles, name, func() error {
					_, err := m.Query(cmd.Context(), q, nil)
					return err
				})
				if err != nil {
					return err
				}
			}

			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().BoolVar(&dump, "dump", false, "dump responses and plans")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().IntVar(&segmentsCount, "segments", 4, "generated segments")
	rootCmd.PersistentFlags().IntVar(&rowsPerSeg, "rows", 100_000, "rows per generated segment")

	benchCmd.Flags().IntVar(&cycles, "cycles", 20, "runs per query")

	rootCmd.AddCommand(demoCmd, describeCmd, benchCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
