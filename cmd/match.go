package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nakarin/jobmatch/internal/logger"
	"github.com/nakarin/jobmatch/internal/marketplace"
	"github.com/nakarin/jobmatch/internal/match"
	"github.com/nakarin/jobmatch/internal/rank"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank job postings for a worker, or worker profiles for a job",
	Run: func(cmd *cobra.Command, _ []string) {
		runMatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("worker", "w", "", "worker id to recommend jobs for")
	matchCmd.Flags().String("job", "", "job id to recommend workers for")
}

func runMatch(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting jobmatch", zap.String("version", version))

	enc, cleanup, err := newEncoder(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the encoder", zap.Error(err))
	}
	defer cleanup()

	jobs, workers, err := loadCollections(ctx, config, enc, logger)
	if err != nil {
		logger.Fatal("loading collections", zap.Error(err))
	}

	if viper.GetBool("debug") {
		dumpCollections(logger, jobs, workers)
	}

	scorer, err := newScorer(config, logger)
	if err != nil {
		logger.Fatal("building the scorer", zap.Error(err))
	}

	engine := match.NewEngine(scorer, config.Matching.Options(), logger)

	workerID := cmd.Flag("worker").Value.String()
	jobID := cmd.Flag("job").Value.String()

	var ranked []*match.Candidate
	switch {
	case workerID != "" && jobID != "":
		logger.Fatal("pass either --worker or --job, not both")
	case jobID != "":
		job := jobs.FindByID(jobID)
		if job == nil {
			logger.Fatal("job posting not found", zap.String("job_id", jobID))
		}
		ranked, err = engine.RecommendWorkers(ctx, job, workers)
	default:
		worker := workers.FindByID(workerID)
		if workerID == "" {
			worker, err = pickWorker(workers)
			if err != nil {
				logger.Fatal("selecting a worker", zap.Error(err))
			}
		}
		if worker == nil {
			logger.Fatal("worker profile not found", zap.String("worker_id", workerID))
		}
		ranked, err = engine.RecommendJobs(ctx, worker, jobs)
	}
	if err != nil {
		logger.Fatal("matching failed", zap.Error(err))
	}

	if len(ranked) == 0 {
		logger.Info("no recommendations available")
		return
	}

	printRanked(ranked)
}

// newScorer prefers the trained artifact when one is configured and
// present, falling back to the heuristic weights.
func newScorer(config *Config, logger *zap.Logger) (match.Scorer, error) {
	if config.ModelFile != "" {
		if _, err := os.Stat(config.ModelFile); err == nil {
			model, err := rank.Load(config.ModelFile)
			if err != nil {
				return nil, fmt.Errorf("loading ranking model: %w", err)
			}

			logger.Info("using learned scorer",
				zap.String("model_file", config.ModelFile),
				zap.Time("trained_at", model.TrainedAt),
			)
			return match.NewLearned(model)
		}

		logger.Warn("model file not found, falling back to heuristic scorer",
			zap.String("model_file", config.ModelFile),
		)
	}

	weights, err := config.Matching.DecodeWeights()
	if err != nil {
		return nil, err
	}

	logger.Info("using heuristic scorer", zap.Any("weights", weights))
	return match.NewHeuristic(weights)
}

// dumpCollections writes the loaded pools to temp files for inspection.
// A failed dump is logged and skipped, it never stops matching.
func dumpCollections(logger *zap.Logger, jobs *marketplace.Jobs, workers *marketplace.Workers) {
	jobsFile, err := jobs.DumpToTmpFile()
	if err != nil {
		logger.Warn("dumping jobs to file", zap.Error(err))
	} else {
		logger.Debug("dumped jobs to file", zap.String("filename", jobsFile))
	}

	workersFile, err := workers.DumpToTmpFile()
	if err != nil {
		logger.Warn("dumping workers to file", zap.Error(err))
	} else {
		logger.Debug("dumped workers to file", zap.String("filename", workersFile))
	}
}

func pickWorker(workers *marketplace.Workers) (*marketplace.WorkerProfile, error) {
	if workers.Len() == 0 {
		return nil, fmt.Errorf("no worker profiles loaded")
	}

	items := make([]string, workers.Len())
	for i, worker := range workers.Items {
		items[i] = fmt.Sprintf("%s %s / %s", worker.ID, worker.JobType, worker.Province)
	}

	prompt := promptui.Select{
		Label: "Choose a worker and press ENTER",
		Items: items,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return nil, err
	}
	return workers.Items[idx], nil
}

func printRanked(ranked []*match.Candidate) {
	for i, c := range ranked {
		fmt.Printf("%2d. %-12s type=%-15s score=%.4f sim=%.4f wage=%.2f overlap=%.0f loc=%.0f\n",
			i+1,
			c.Record.RecordID(),
			c.Record.Type(),
			c.Score,
			c.Similarity,
			c.Features.WageProximity,
			c.Features.TimeOverlap,
			c.Features.LocMatch,
		)
	}
}
