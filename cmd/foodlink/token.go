package main

import (
	"fmt"
	"time"

	"foodlink/internal/auth"

	"github.com/urfave/cli/v2"
)

var tokenCommand = &cli.Command{
	Name:  "token",
	Usage: "Sign a development JWT for AUTH_MODE=hmac",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "email",
			Aliases:  []string{"e"},
			Usage:    "Email claim of the token",
			Required: true,
		},
		&cli.DurationFlag{
			Name:  "ttl",
			Usage: "Token lifetime",
			Value: 24 * time.Hour,
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		signer, err := auth.NewHMACVerifier(cfg.JWTSecret)
		if err != nil {
			return err
		}

		token, err := signer.Sign(c.String("email"), c.Duration("ttl"))
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}

		fmt.Println(token)
		return nil
	},
}
