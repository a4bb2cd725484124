package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Harshitk-cp/duo/internal/config"
	"github.com/Harshitk-cp/duo/internal/scenario"
	"github.com/Harshitk-cp/duo/internal/service"
	"github.com/Harshitk-cp/duo/internal/simulate"
	"github.com/Harshitk-cp/duo/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	scenariosPath string
	scenarioID    string
	userKind      string
	decision      string
	focus         string
	runs          int
	maxIters      int
	seed          int64
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run study sessions with a simulated user",
	Long: `simulate plays study sessions in process against a scenario, with a
scripted user deciding which rows violate the target constraint.

User kinds:
  oracle      knows the target's true confidence and never updates
  informed    starts near the target's observed confidence
  uninformed  starts from a flat prior

Example:
  simulate --scenario omdb --user informed --decision coin-flip --runs 5`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&scenariosPath, "scenarios", "", "Scenario file (default SCENARIOS_PATH)")
	rootCmd.Flags().StringVar(&scenarioID, "scenario", "", "Scenario id")
	rootCmd.Flags().StringVar(&userKind, "user", string(simulate.Uninformed), "User kind (oracle, informed, uninformed)")
	rootCmd.Flags().StringVar(&decision, "decision", string(simulate.Threshold), "Decision rule (coin-flip, threshold)")
	rootCmd.Flags().StringVar(&focus, "focus", "", "Oracle focus (precision, recall)")
	rootCmd.Flags().IntVar(&runs, "runs", 1, "Number of sessions")
	rootCmd.Flags().IntVar(&maxIters, "max-iters", 30, "Iteration cap per session")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 seeds from the clock)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log belief updates")
	_ = rootCmd.MarkFlagRequired("scenario")
}

func run(cmd *cobra.Command, args []string) error {
	if err := config.Load(); err != nil {
		return err
	}

	logCfg := zap.NewDevelopmentConfig()
	if !verbose {
		logCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := logCfg.Build()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	path := scenariosPath
	if path == "" {
		path = config.ScenariosPath()
	}
	scenarios := scenario.NewRegistry(logger)
	if err := scenarios.Load(path); err != nil {
		return err
	}

	study := service.NewStudyService(
		store.NewMemoryProjectStore(scenarios),
		scenarios,
		service.NewSampler(seed),
		service.StudyConfig{
			Smoothing:   config.BayesianSmoothing(),
			Variance:    config.PriorVariance(),
			HPMemory:    config.HPMemory(),
			HPThreshold: config.HPDecisionThreshold(),
		},
		logger,
	)
	runner := simulate.NewRunner(study, scenarios, logger)

	ctx := context.Background()
	results := make([]*simulate.Result, 0, runs)
	for i := 0; i < runs; i++ {
		res, err := runner.Run(ctx, simulate.Options{
			ScenarioID:    scenarioID,
			User:          simulate.UserKind(userKind),
			Decision:      simulate.Decision(decision),
			Focus:         simulate.Focus(focus),
			MaxIterations: maxIters,
			Seed:          seed + int64(i),
		})
		if err != nil {
			return fmt.Errorf("run %d: %w", i+1, err)
		}
		results = append(results, res)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
