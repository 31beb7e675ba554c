package pg

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/external"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/rdsutils"
	"github.com/pkg/errors"

	_ "github.com/newrelic/go-agent/v3/integrations/nrpgx"
)

// driverName is the New Relic instrumented pgx driver, so queries show up as
// datastore segments on the active transaction.
const driverName = "nrpgx"

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DbName   string

	// AwsIam authenticates with a short lived RDS auth token instead of
	// Password. Only provisioned Aurora clusters support it.
	AwsIam bool

	MaxOpenConnections int
	MaxIdleConnections int
}

func (c Config) Validate() error {
	if len(c.Host) == 0 {
		return errors.New("database host is required")
	}
	if len(c.Port) == 0 {
		return errors.New("database port is required")
	}
	if len(c.User) == 0 {
		return errors.New("database user is required")
	}
	if len(c.DbName) == 0 {
		return errors.New("database name is required")
	}
	return nil
}

// Open returns a verified connection pool for the provided config.
func Open(ctx context.Context, c Config) (*sql.DB, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var dsn string
	if c.AwsIam {
		awsConfig, err := external.LoadDefaultAWSConfig()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load aws config")
		}

		dsn, err = iamDSN(c, awsConfig)
		if err != nil {
			return nil, err
		}
	} else {
		dsn = passwordDSN(c)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	if c.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(c.MaxOpenConnections)
	}
	if c.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(c.MaxIdleConnections)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to reach database at %s:%s", c.Host, c.Port)
	}

	return db, nil
}

// https://docs.aws.amazon.com/AmazonRDS/latest/AuroraUserGuide/UsingWithRDS.IAMDBAuth.Connecting.Go.html
func iamDSN(c Config, awsConfig aws.Config) (string, error) {
	rdsClient := rds.New(awsConfig)

	endpoint := fmt.Sprintf("%s:%s", c.Host, c.Port)
	authToken, err := rdsutils.BuildAuthToken(endpoint, rdsClient.Region, c.User, rdsClient.Credentials)
	if err != nil {
		return "", errors.Wrap(err, "failed to build rds auth token")
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s",
		c.Host, c.Port, c.User, authToken, c.DbName,
	), nil
}

// TODO: enable SSL once the database certificate is distributed alongside the binary
func passwordDSN(c Config) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:     "/" + c.DbName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
