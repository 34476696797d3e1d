package commands

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"max.ks1230/spendings/internal/config"
	"max.ks1230/spendings/internal/logger"
	"max.ks1230/spendings/internal/model/storage"
)

func newMigrateCommand() *cobra.Command {
	var down int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply postgres schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if down < 0 {
				return errors.New("--down must not be negative")
			}
			return runMigrate(-down)
		},
	}

	cmd.Flags().IntVar(&down, "down", 0, "roll back this many migrations instead of applying pending ones")

	return cmd
}

func runMigrate(steps int) error {
	defer logger.Sync()

	conf, err := config.New()
	if err != nil {
		return errors.Wrap(err, "init config")
	}

	db, err := storage.NewPostgresStorage(conf.Postgres())
	if err != nil {
		return errors.Wrap(err, "init postgres")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close postgres", zap.Error(err))
		}
	}()

	return db.Migrate(steps)
}
