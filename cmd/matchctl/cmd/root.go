package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/yungbote/matchmaker-backend/internal/db"
	"github.com/yungbote/matchmaker-backend/internal/locks"
	"github.com/yungbote/matchmaker-backend/internal/logger"
	"github.com/yungbote/matchmaker-backend/internal/questionnaire"
	"github.com/yungbote/matchmaker-backend/internal/repos"
	"github.com/yungbote/matchmaker-backend/internal/services"
	"github.com/yungbote/matchmaker-backend/internal/types"
)

const app = "matchctl"

var rootCmd = &cobra.Command{
	Use:          app,
	Short:        "matchctl drives the matchmaking batch pipeline from the command line",
	SilenceUsage: true,
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Int("batch", 0, "batch number to operate on (default: current batch)")
	rootCmd.PersistentFlags().String("partition", string(types.PartitionProduction), "user partition: production or test")
	rootCmd.PersistentFlags().String("log-mode", "production", "logger mode: production, development or test")

	viper.SetEnvPrefix("MATCHMAKER")
	viper.BindPFlag("batch", rootCmd.PersistentFlags().Lookup("batch"))
	viper.BindPFlag("partition", rootCmd.PersistentFlags().Lookup("partition"))
	viper.BindPFlag("log-mode", rootCmd.PersistentFlags().Lookup("log-mode"))
	viper.BindEnv("partition", "MATCHMAKER_PARTITION")
}

// runtime is everything a subcommand needs to talk to the pipeline.
type runtime struct {
	log *logger.Logger
	db  *gorm.DB

	scoring    services.ScoringService
	matcher    services.MatcherService
	assignment services.AssignmentService
	curation   services.CurationService
	batches    services.BatchService
}

func newRuntime() (*runtime, error) {
	log, err := logger.New(viper.GetString("log-mode"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		return nil, err
	}
	thePG := postgresService.DB()

	schema, err := questionnaire.Default()
	if err != nil {
		return nil, err
	}
	matchingLock, err := locks.New(log)
	if err != nil {
		return nil, err
	}

	userRepo := repos.NewUserRepo(thePG, log)
	responseRepo := repos.NewResponseRepo(thePG, log)
	scoreRepo := repos.NewScoreRepo(thePG, log)
	matchRepo := repos.NewMatchRepo(thePG, log)
	batchRepo := repos.NewBatchRepo(thePG, log)
	assignmentRepo := repos.NewAssignmentRepo(thePG, log)

	return &runtime{
		log:        log,
		db:         thePG,
		scoring:    services.NewScoringService(thePG, log, schema, userRepo, responseRepo, scoreRepo, batchRepo),
		matcher:    services.NewMatcherService(thePG, log, matchingLock, scoreRepo, matchRepo, batchRepo),
		assignment: services.NewAssignmentService(thePG, log, userRepo, scoreRepo, matchRepo, batchRepo, assignmentRepo),
		curation:   services.NewCurationService(thePG, log, assignmentRepo, matchRepo, batchRepo),
		batches:    services.NewBatchService(thePG, log, batchRepo, scoreRepo, matchRepo, assignmentRepo),
	}, nil
}

func (rt *runtime) partition() (types.Partition, error) {
	return types.ParsePartition(viper.GetString("partition"))
}

// batchNumber resolves --batch, falling back to the current batch.
func (rt *runtime) batchNumber(cmd *cobra.Command) (int, error) {
	n := viper.GetInt("batch")
	if n > 0 {
		return n, nil
	}
	batch, err := rt.batches.GetCurrent(cmd.Context())
	if err != nil {
		return 0, err
	}
	return batch.BatchNumber, nil
}
