package cmd

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nakarin/jobmatch/internal/logger"
	"github.com/nakarin/jobmatch/internal/match"
	"github.com/nakarin/jobmatch/internal/rank"
	"github.com/nakarin/jobmatch/internal/store"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"

	defaultModelFile = "matching_model.json"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the ranking model from the historical match log",
	Run: func(cmd *cobra.Command, _ []string) {
		runTrain(cmd)
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before overwriting an existing model file")
}

func runTrain(cmd *cobra.Command) {
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
	if config.Data == nil || config.Data.History == "" {
		logger.Fatal("data.history path is required to train")
	}

	modelFile := config.ModelFile
	if modelFile == "" {
		modelFile = defaultModelFile
	}

	// Confirm before clobbering an existing artifact.
	if _, err := os.Stat(modelFile); err == nil && cmd.Flag("yes").Value.String() == "false" {
		prompt := promptui.Select{
			Label: "Model file " + modelFile + " exists, overwrite?",
			Items: []string{PromptYes, PromptNo},
		}
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if action != PromptYes {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	history, err := store.LoadHistory(config.Data.History)
	if err != nil {
		fatalTraining(logger, "loading history", err)
	}

	logger.Info("loaded history", zap.Int("rows", history.Len()))

	enc, cleanup, err := newEncoder(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the encoder", zap.Error(err))
	}
	defer cleanup()

	jobs, workers, err := loadCollections(ctx, config, enc, logger)
	if err != nil {
		fatalTraining(logger, "loading collections", err)
	}

	ds, err := match.BuildTrainingSet(jobs, workers, history, logger)
	if err != nil {
		logger.Fatal("building the training set", zap.Error(err))
	}

	trainCfg := rank.DefaultConfig()
	if config.Training != nil {
		trainCfg = *config.Training
	}

	model, err := rank.Train(ds, trainCfg, match.FeatureNames, logger)
	if err != nil {
		logger.Fatal("training failed", zap.Error(err))
	}

	if err := model.Save(modelFile); err != nil {
		logger.Fatal("saving the model", zap.Error(err))
	}

	logger.Info("saved model artifact",
		zap.String("model_file", modelFile),
		zap.Int("trees", len(model.Trees)),
	)
}

// fatalTraining surfaces schema mismatches with an operator-facing hint
// naming the missing data.
func fatalTraining(logger *zap.Logger, msg string, err error) {
	var missing *store.MissingColumnsError
	if errors.As(err, &missing) {
		logger.Fatal(msg,
			zap.Error(err),
			zap.String("hint", "the export schema does not match; refusing to train on a corrupted join"),
		)
	}
	logger.Fatal(msg, zap.Error(err))
}
