package main

import (
	"context"
	"crypto/ed25519"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/nft-minter/pkg/blob"
	"github.com/code-payments/nft-minter/pkg/blob/gcs"
	"github.com/code-payments/nft-minter/pkg/blob/ipfs"
	pg "github.com/code-payments/nft-minter/pkg/database/postgres"
	"github.com/code-payments/nft-minter/pkg/metrics"
	"github.com/code-payments/nft-minter/pkg/nft"
	"github.com/code-payments/nft-minter/pkg/nft/offchain"
	record_postgres "github.com/code-payments/nft-minter/pkg/nft/record/postgres"
	"github.com/code-payments/nft-minter/pkg/rate"
	"github.com/code-payments/nft-minter/pkg/solana"
)

var (
	configPath = flag.String("config", "config.yaml", "configuration file path")

	strategyOverride = flag.String("strategy", "", "metadata strategy, embedded or pointer (overrides config)")
	holder           = flag.String("holder", "", "base58 wallet to mint to (defaults to the payer)")
	airdrop          = flag.Uint64("airdrop", 0, "lamports to airdrop to the payer before minting, not available on mainnet")

	name        = flag.String("name", "", "token name")
	symbol      = flag.String("symbol", "", "token symbol")
	uri         = flag.String("uri", "", "metadata uri, ignored when -image is set")
	image       = flag.String("image", "", "image to publish along with a generated metadata document")
	description = flag.String("description", "", "description for the published metadata document")
	externalURL = flag.String("external-url", "", "external url for the published metadata document")

	fields fieldsFlag
)

const defaultShutdownTimeout = 10 * time.Second

func init() {
	flag.Var(&fields, "field", "additional metadata field as key=value, may be repeated")
}

// fieldsFlag collects repeated key=value flags in order.
type fieldsFlag []nft.Field

func (f *fieldsFlag) String() string {
	parts := make([]string, len(*f))
	for i, field := range *f {
		parts[i] = field.Key + "=" + field.Value
	}
	return strings.Join(parts, ",")
}

func (f *fieldsFlag) Set(v string) error {
	parts := strings.SplitN(v, "=", 2)
	if len(parts) != 2 || len(parts[0]) == 0 {
		return errors.Errorf("invalid field %q, expected key=value", v)
	}
	*f = append(*f, nft.Field{Key: parts[0], Value: parts[1]})
	return nil
}

func main() {
	flag.Parse()

	logger := logrus.StandardLogger().WithField("type", "cmd/nft-minter")

	config, err := loadConfig()
	if err != nil {
		logger.WithError(err).Error("failed to load config")
		os.Exit(1)
	}

	var metricsProvider *newrelic.Application
	if len(config.NewRelicLicenseKey) > 0 {
		metricsProvider, err = newrelic.NewApplication(
			newrelic.ConfigFromEnvironment(),
			newrelic.ConfigAppName(config.AppName),
			newrelic.ConfigLicense(config.NewRelicLicenseKey),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.WithError(err).Error("error connecting to new relic")
			os.Exit(1)
		}
	}

	configureLogger(config, metricsProvider)

	ctx := metrics.NewContext(context.Background(), metricsProvider)
	if metricsProvider != nil {
		txn := metricsProvider.StartTransaction("create_nft")
		ctx = newrelic.NewContext(ctx, txn)
		defer func() {
			txn.End()
			metricsProvider.Shutdown(defaultShutdownTimeout)
		}()
	}

	result, err := run(ctx, config)
	if err != nil {
		logger.WithError(err).Error("failed to create nft")
		if metricsProvider != nil {
			newrelic.FromContext(ctx).End()
			metricsProvider.Shutdown(defaultShutdownTimeout)
		}
		os.Exit(1)
	}

	fmt.Printf("mint:      %s\n", base58.Encode(result.Mint))
	fmt.Printf("signature: %s\n", result.Signature.String())
	fmt.Printf("explorer:  %s\n", solana.ExplorerURL(result.Signature, solana.Environment(config.SolanaRPCEndpoint)))
	if result.Verification != nil && !result.Verification.OK() {
		fmt.Printf("read back: %d failure(s), see logs\n", len(result.Verification.Failures))
	}
}

func loadConfig() (Config, error) {
	// viper only reports a missing file when it searched for one itself.
	if _, err := os.Stat(*configPath); err == nil {
		viper.SetConfigFile(*configPath)
	} else if !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "failed to check if config exists")
	}

	err := viper.ReadInConfig()
	_, isConfigNotFound := err.(viper.ConfigFileNotFoundError)
	if err != nil && !isConfigNotFound {
		return Config{}, err
	}

	config := defaultConfig
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal config")
	}
	return config, nil
}

func configureLogger(config Config, metricsProvider *newrelic.Application) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics.NewNewRelicLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stdout)
}

func run(ctx context.Context, config Config) (*nft.Result, error) {
	payer, err := solana.LoadKeypairFile(config.KeypairPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load payer keypair")
	}

	strategy, err := parseStrategy(config)
	if err != nil {
		return nil, err
	}

	env := solana.Environment(config.SolanaRPCEndpoint)
	opts := []nft.Option{nft.WithEnvironment(env)}

	client := solana.New(config.SolanaRPCEndpoint)

	if *airdrop > 0 {
		if err := requestAirdrop(client, env, payer.Public().(ed25519.PublicKey), *airdrop); err != nil {
			return nil, err
		}
	}

	if len(*holder) > 0 {
		holderKey, err := base58.Decode(*holder)
		if err != nil {
			return nil, errors.Wrap(err, "invalid holder")
		}
		opts = append(opts, nft.WithHolder(holderKey))
	}

	desc := &nft.Descriptor{
		Name:             *name,
		Symbol:           *symbol,
		URI:              *uri,
		AdditionalFields: fields,
	}

	if len(*image) > 0 {
		store, err := newBlobStore(ctx, config)
		if err != nil {
			return nil, err
		}

		publisher := offchain.NewPublisher(store)
		desc.URI, err = publisher.Publish(ctx, &offchain.PublishRequest{
			AssetPath:        *image,
			Name:             *name,
			Symbol:           *symbol,
			Description:      *description,
			ExternalURL:      *externalURL,
			AdditionalFields: fields,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to publish off-chain metadata")
		}
		opts = append(opts, nft.WithDocumentFetcher(publisher))
	}

	if len(config.DatabaseHost) > 0 {
		db, err := openDatabase(ctx, config)
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect to database")
		}
		defer db.Close()

		opts = append(opts, nft.WithRecordStore(record_postgres.New(db)))
	}

	orchestrator, err := nft.NewOrchestrator(client, payer, nft.WithEnvConfigs(), opts...)
	if err != nil {
		return nil, err
	}

	return orchestrator.CreateNFT(ctx, desc, strategy)
}

func requestAirdrop(client solana.Client, env solana.Environment, account ed25519.PublicKey, lamports uint64) error {
	if env == solana.EnvironmentProd {
		return errors.New("airdrops are not available on mainnet")
	}

	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"method":   "requestAirdrop",
		"account":  base58.Encode(account),
		"lamports": lamports,
	})

	sig, err := client.RequestAirdrop(account, lamports, solana.CommitmentConfirmed)
	if err != nil {
		return errors.Wrap(err, "failed to request airdrop")
	}

	status, err := client.GetSignatureStatus(sig, solana.CommitmentConfirmed)
	if err != nil {
		return errors.Wrap(err, "failed to confirm airdrop")
	}
	if status.ErrorResult != nil {
		return errors.Wrap(status.ErrorResult, "airdrop failed")
	}

	log.WithField("signature", sig.String()).Info("airdrop confirmed")
	return nil
}

func parseStrategy(config Config) (nft.Strategy, error) {
	strategyName := config.Strategy
	if len(*strategyOverride) > 0 {
		strategyName = *strategyOverride
	}

	var program []byte
	if len(config.MetadataProgram) > 0 {
		decoded, err := base58.Decode(config.MetadataProgram)
		if err != nil {
			return nft.Strategy{}, errors.Wrap(err, "invalid metadata program")
		}
		program = decoded
	}

	return nft.ParseStrategy(strategyName, program)
}

func newBlobStore(ctx context.Context, config Config) (blob.Store, error) {
	switch config.BlobStore {
	case "ipfs":
		limiter := rate.NewLocalRateLimiter(xrate.Limit(config.IPFSUploadRate))
		return ipfs.New(ipfs.Config{
			Endpoint:      config.IPFSEndpoint,
			APIKey:        config.IPFSAPIKey,
			GatewayFormat: config.IPFSGatewayFormat,
		}, limiter), nil
	case "gcs":
		store, err := gcs.NewFromCredentialsFile(ctx, config.GCSBucket, config.GCSCredentialsFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create gcs store")
		}
		return store, nil
	}
	return nil, errors.Errorf("unknown blob store %q", config.BlobStore)
}

func openDatabase(ctx context.Context, config Config) (*sql.DB, error) {
	return pg.Open(ctx, pg.Config{
		Host:     config.DatabaseHost,
		Port:     config.DatabasePort,
		User:     config.DatabaseUser,
		Password: config.DatabasePassword,
		DbName:   config.DatabaseName,
		AwsIam:   config.DatabaseAwsIam,

		MaxOpenConnections: 2,
		MaxIdleConnections: 1,
	})
}
