package main

import (
	"github.com/spf13/viper"

	"github.com/code-payments/nft-minter/pkg/solana"
)

// Config is the CLI configuration. Flow tuning, such as the confirmation
// commitment, is read by the nft package from NFT_MINTER_* variables.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	AppName            string `mapstructure:"app_name"`
	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`

	SolanaRPCEndpoint string `mapstructure:"solana_rpc_endpoint"`
	KeypairPath       string `mapstructure:"keypair_path"`

	Strategy        string `mapstructure:"strategy"`
	MetadataProgram string `mapstructure:"metadata_program"`

	// BlobStore selects where -image assets are published: ipfs or gcs.
	BlobStore          string  `mapstructure:"blob_store"`
	IPFSEndpoint       string  `mapstructure:"ipfs_endpoint"`
	IPFSAPIKey         string  `mapstructure:"ipfs_api_key"`
	IPFSGatewayFormat  string  `mapstructure:"ipfs_gateway_format"`
	IPFSUploadRate     float64 `mapstructure:"ipfs_upload_rate"`
	GCSBucket          string  `mapstructure:"gcs_bucket"`
	GCSCredentialsFile string  `mapstructure:"gcs_credentials_file"`

	// Mint records are only persisted when a database host is configured.
	DatabaseHost     string `mapstructure:"database_host"`
	DatabasePort     string `mapstructure:"database_port"`
	DatabaseUser     string `mapstructure:"database_user"`
	DatabasePassword string `mapstructure:"database_password"`
	DatabaseName     string `mapstructure:"database_name"`
	DatabaseAwsIam   bool   `mapstructure:"database_aws_iam"`
}

var defaultConfig = Config{
	LogLevel: "info",

	AppName: "nft-minter",

	SolanaRPCEndpoint: string(solana.EnvironmentDev),
	KeypairPath:       solana.DefaultKeypairPath,

	Strategy: "embedded",

	BlobStore:      "ipfs",
	IPFSUploadRate: 2,

	DatabasePort: "5432",
}

func init() {
	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	_ = viper.BindEnv("app_name", "APP_NAME")
	_ = viper.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")

	_ = viper.BindEnv("solana_rpc_endpoint", "SOLANA_RPC_ENDPOINT")
	_ = viper.BindEnv("keypair_path", "KEYPAIR_PATH")

	_ = viper.BindEnv("strategy", "STRATEGY")
	_ = viper.BindEnv("metadata_program", "METADATA_PROGRAM")

	_ = viper.BindEnv("blob_store", "BLOB_STORE")
	_ = viper.BindEnv("ipfs_endpoint", "IPFS_ENDPOINT")
	_ = viper.BindEnv("ipfs_api_key", "IPFS_API_KEY")
	_ = viper.BindEnv("ipfs_gateway_format", "IPFS_GATEWAY_FORMAT")
	_ = viper.BindEnv("ipfs_upload_rate", "IPFS_UPLOAD_RATE")
	_ = viper.BindEnv("gcs_bucket", "GCS_BUCKET")
	_ = viper.BindEnv("gcs_credentials_file", "GCS_CREDENTIALS_FILE")

	_ = viper.BindEnv("database_host", "DATABASE_HOST")
	_ = viper.BindEnv("database_port", "DATABASE_PORT")
	_ = viper.BindEnv("database_user", "DATABASE_USER")
	_ = viper.BindEnv("database_password", "DATABASE_PASSWORD")
	_ = viper.BindEnv("database_name", "DATABASE_NAME")
	_ = viper.BindEnv("database_aws_iam", "DATABASE_AWS_IAM")
}
