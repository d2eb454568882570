package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodlink/internal/auth"
	"foodlink/internal/db"
	"foodlink/internal/payment"
	"foodlink/internal/server"
	"foodlink/internal/storage"
	"foodlink/internal/store"
	"foodlink/internal/workflow"
	"foodlink/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Start the HTTP server",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "migrate",
			Usage: "Apply pending migrations before serving",
		},
	},
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config, err := loadConfig(cCtx)
	if err != nil {
		return err
	}

	if err := requireDatabase(config); err != nil {
		return err
	}

	if config.Environment == "development" {
		logger.SetLevel(logrus.DebugLevel)
	}

	awsConfig, err := loadAWSConfig(ctx)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cCtx.Bool("migrate") {
		if err := db.Migrate(ctx, pool, logger); err != nil {
			return err
		}
	}

	verifier, err := buildVerifier(ctx, config, awsConfig, logger)
	if err != nil {
		return err
	}

	var payments workflow.PaymentProvider
	if config.StripeSecretKey != "" {
		stripeClient, err := payment.NewStripe(config.StripeSecretKey)
		if err != nil {
			return err
		}
		payments = stripeClient
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, payment intents are disabled")
	}

	var images workflow.ImageStore
	if config.S3BucketName != "" {
		images = storage.NewS3Images(s3.NewFromConfig(awsConfig), config.S3BucketName, config.S3PublicBaseURL)
	} else {
		logger.Warn("S3_BUCKET_NAME not set, donation image uploads are disabled")
	}

	userRepo := store.NewUserRepository(pool)
	donationRepo := store.NewDonationRepository(pool)
	reviewRepo := store.NewReviewRepository(pool)
	requestRepo := store.NewRequestRepository(pool)
	upgradeRepo := store.NewUpgradeRepository(pool)
	transactionRepo := store.NewTransactionRepository(pool)
	txRunner := store.NewTxRunner(pool)

	srv, err := server.New(
		config,
		logger,
		verifier,
		workflow.NewGuard(userRepo),
		workflow.NewUserManager(userRepo, logger),
		workflow.NewDonationManager(donationRepo, reviewRepo, requestRepo, txRunner, images, logger),
		workflow.NewRequestManager(requestRepo, donationRepo, txRunner, logger),
		workflow.NewUpgradeManager(types.UpgradeTrackCharity, upgradeRepo, userRepo, txRunner, logger),
		workflow.NewUpgradeManager(types.UpgradeTrackRestaurant, upgradeRepo, userRepo, txRunner, logger),
		workflow.NewPaymentManager(payments, transactionRepo, config.PaymentCurrency, logger),
	)
	if err != nil {
		return err
	}

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}

func buildVerifier(ctx context.Context, config *types.Config, awsConfig aws.Config, logger logrus.FieldLogger) (auth.Verifier, error) {
	logger.WithField("auth_mode", config.AuthMode).Info("configuring token verification")

	switch config.AuthMode {
	case "jwks":
		if config.CognitoIssuerURL == "" {
			return nil, fmt.Errorf("set COGNITO_ISSUER_URL to use jwks auth")
		}

		jwkCache, err := jwk.NewCache(ctx, httprc.NewClient())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize jwk cache: %w", err)
		}

		jwksURL := fmt.Sprintf("%s/.well-known/jwks.json", config.CognitoIssuerURL)

		if err := jwkCache.Register(ctx, jwksURL); err != nil {
			return nil, fmt.Errorf("failed to register jwks url with cache: %w", err)
		}

		return auth.NewJWKSVerifier(jwkCache, jwksURL), nil
	case "cognito":
		return auth.NewCognitoVerifier(cognitoidentityprovider.NewFromConfig(awsConfig)), nil
	case "hmac":
		return auth.NewHMACVerifier(config.JWTSecret)
	default:
		return nil, fmt.Errorf("unknown AUTH_MODE %q, expected jwks, cognito or hmac", config.AuthMode)
	}
}
