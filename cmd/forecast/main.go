package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/ViktorAgafonov/ForecastOrder/internal/config"
	"github.com/ViktorAgafonov/ForecastOrder/internal/export"
	"github.com/ViktorAgafonov/ForecastOrder/internal/mapping"
	"github.com/ViktorAgafonov/ForecastOrder/internal/service"
	"github.com/ViktorAgafonov/ForecastOrder/pkg/logger"
)

func newMappingFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "mapping",
		Usage:   "Path to the item mapping file",
		Value:   "./data/item_mapping.json",
		EnvVars: []string{"APP_MAPPING_FILE"},
	}
}

func openStore(c *cli.Context) (*mapping.Store, error) {
	store, err := mapping.Open(c.String("mapping"))
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping store: %w", err)
	}
	return store, nil
}

func main() {
	// Optional; flags and environment still apply without it.
	_ = godotenv.Load(".env")

	app := &cli.App{
		Name:  "forecast",
		Usage: "Analyze purchase-request ledgers and generate reorder recommendations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"APP_LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "analyze",
				Usage: "Run the full analysis pipeline over one or more ledger files",
				Flags: []cli.Flag{
					newMappingFlag(),
					&cli.StringSliceFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Ledger file to analyze (repeatable)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file for recommendations (.xlsx or .csv)",
						Value:   "recommendations.xlsx",
					},
					&cli.IntFlag{
						Name:  "days",
						Usage: "Forecast horizon in days",
						Value: 365,
					},
					&cli.IntFlag{
						Name:  "ahead",
						Usage: "Recommendation window in days",
						Value: 90,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Similarity threshold for grouping (0-100)",
						Value: mapping.DefaultSimilarityThreshold,
					},
					&cli.IntFlag{
						Name:  "lead-time",
						Usage: "Default delivery lead time in days",
						Value: 30,
					},
					&cli.BoolFlag{
						Name:  "item-lead-times",
						Usage: "Derive per-item lead times from delivery data",
						Value: true,
					},
				},
				Action: runAnalyze,
			},
			{
				Name:  "mapping",
				Usage: "Inspect and edit the item mapping",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List all groups and their members",
						Flags:  []cli.Flag{newMappingFlag()},
						Action: runMappingList,
					},
					{
						Name:      "rename",
						Usage:     "Rename a group",
						ArgsUsage: "<group-id> <new-name>",
						Flags:     []cli.Flag{newMappingFlag()},
						Action:    runMappingRename,
					},
					{
						Name:      "merge",
						Usage:     "Merge one group into another",
						ArgsUsage: "<source-id> <target-id>",
						Flags:     []cli.Flag{newMappingFlag()},
						Action:    runMappingMerge,
					},
					{
						Name:      "add",
						Usage:     "Add an item to a group",
						ArgsUsage: "<group-id> <name> [code]",
						Flags:     []cli.Flag{newMappingFlag()},
						Action:    runMappingAdd,
					},
					{
						Name:      "remove",
						Usage:     "Remove an item from a group",
						ArgsUsage: "<group-id> <name> [code]",
						Flags:     []cli.Flag{newMappingFlag()},
						Action:    runMappingRemove,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("command failed")
	}
}

func runAnalyze(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}

	cfg := &config.Config{
		Analysis: config.AnalysisConfig{
			SimilarityThreshold: c.Float64("threshold"),
			ForecastDays:        c.Int("days"),
			RecommendDaysAhead:  c.Int("ahead"),
			DefaultLeadTimeDays: c.Int("lead-time"),
			UseItemLeadTimes:    c.Bool("item-lead-times"),
		},
	}

	analyzer := service.NewAnalyzer(cfg, store)

	ledger, err := analyzer.LoadLedgers(c.Context, c.StringSlice("input"))
	if err != nil {
		return err
	}
	logger.Log.Info().Int("parsed", ledger.Parsed).Int("skipped", ledger.Skipped).Msg("ledgers loaded")

	result, err := analyzer.Analyze(ledger, func(percent int, message string) {
		fmt.Printf("[%3d%%] %s\n", percent, message)
	})
	if err != nil {
		return err
	}

	output := c.String("output")
	if strings.HasSuffix(strings.ToLower(output), ".csv") {
		err = export.ToCSV(output, result.Recommendations)
	} else {
		err = export.ToExcel(output, result.Recommendations)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	fmt.Printf("Groups: %d, forecasts: %d, recommendations: %d\n",
		len(result.Groups), len(result.Forecasts), len(result.Recommendations))
	fmt.Printf("Saved to %s\n", output)
	return nil
}

func runMappingList(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}

	for _, group := range store.Groups() {
		fmt.Printf("%s  %s\n", group.ID, group.Name)
		for _, item := range group.Items {
			fmt.Printf("    %s\n", export.ItemLabel(item))
		}
	}
	return nil
}

func runMappingRename(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: mapping rename <group-id> <new-name>", 1)
	}
	store, err := openStore(c)
	if err != nil {
		return err
	}
	return store.RenameGroup(c.Args().Get(0), c.Args().Get(1))
}

func runMappingMerge(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: mapping merge <source-id> <target-id>", 1)
	}
	store, err := openStore(c)
	if err != nil {
		return err
	}
	return store.MergeGroups(c.Args().Get(0), c.Args().Get(1))
}

func runMappingAdd(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("usage: mapping add <group-id> <name> [code]", 1)
	}
	store, err := openStore(c)
	if err != nil {
		return err
	}
	return store.AddMember(c.Args().Get(0), c.Args().Get(1), c.Args().Get(2))
}

func runMappingRemove(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("usage: mapping remove <group-id> <name> [code]", 1)
	}
	store, err := openStore(c)
	if err != nil {
		return err
	}
	return store.RemoveMember(c.Args().Get(0), c.Args().Get(1), c.Args().Get(2))
}
