package main

import (
	"fmt"
	"time"

	"foodlink/internal/db"
	"foodlink/internal/seed"
	"foodlink/internal/store"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with fixed accounts and fake donations",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "donations",
			Usage: "Donations per restaurant account",
			Value: 3,
		},
		&cli.Int64Flag{
			Name:  "seed",
			Usage: "Random seed for fake data",
			Value: time.Now().UnixNano(),
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Print the seeded records",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := requireDatabase(cfg); err != nil {
			return err
		}

		ctx := c.Context

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		seeder := seed.New(store.NewUserRepository(pool), store.NewDonationRepository(pool), c.Int64("seed"), logrus.StandardLogger())

		users, err := seeder.SeedAccounts(ctx)
		if err != nil {
			return err
		}

		donations, err := seeder.SeedDonations(ctx, users, c.Int("donations"))
		if err != nil {
			return err
		}

		if c.Bool("verbose") {
			pp.Println(users)
			pp.Println(donations)
		}

		logrus.Info("Seed complete")

		return nil
	},
}
