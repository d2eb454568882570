package main

import (
	"foodlink/internal/db"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Apply pending database migrations",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		if err := requireDatabase(cfg); err != nil {
			return err
		}

		pool, err := db.Connect(c.Context, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		return db.Migrate(c.Context, pool, logrus.StandardLogger())
	},
}
