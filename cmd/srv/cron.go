package main

import (
	"github.com/pacelog/backend/internal/domain/cron"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(*cli.Context) error {
	s.loadConfig()
	s.loadLogger()
	s.loadDatabase()
	s.migrateDB()
	s.loadRepos()

	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Register(cron.NewReconcileCountersCronJob(
		s.userRepo, s.followEdgeRepo, s.followCounterRepo))
	cronJobManager.Start(s.ctx)

	return nil
}
