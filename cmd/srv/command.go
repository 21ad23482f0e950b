package main

import "github.com/urfave/cli/v2"

func (s *srv) loadApp() {
	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "Pacelog"
	app.Usage = ""
	app.Commands = []*cli.Command{
		{
			Action:      server.startApi,
			Name:        "api",
			Usage:       "Start the api service",
			Category:    "Api",
			Description: `Serves the follow graph and notification inbox APIs.`,
		},
		{
			Action:      server.startSocket,
			Name:        "socket",
			Usage:       "Start the socket service",
			Category:    "Websocket",
			Description: `Holds client websocket connections and delivers notifications in real time.`,
		},
		{
			Action:      server.startWorker,
			Name:        "worker",
			Usage:       "Start the dispatch worker",
			Category:    "Worker",
			Description: `Consumes the outbound dispatch queue for push and email side effects.`,
		},
		{
			Action:      server.startCron,
			Name:        "cron",
			Usage:       "Start the cron service",
			Category:    "Worker",
			Description: `Runs scheduled jobs, currently the follow counter reconciliation sweep.`,
		},
		{
			Action:      server.startMigrate,
			Name:        "migrate",
			Usage:       "Migrate the database schema",
			Category:    "Tool",
			Description: `Applies the table definitions to the configured database and exits.`,
		},
	}

	s.app = app
}
