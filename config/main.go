package config

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"bitbucket.org/parqueoasis/tambola/db"
	"bitbucket.org/parqueoasis/tambola/tambola"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
	_ "modernc.org/sqlite"
)

const railwayDBPath = "/tmp/tambola.db"

type Configuration struct {
	SecretKey         string `env:"SECRET_KEY,required"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`
	Port              int    `env:"PORT,default=5000"`
	Timeout           int    `env:"TIMEOUT,default=10"`
	BaseURL           string `env:"BASE_URL"`
	SQL               database
	AwsSMTP           awsSMTP
	AwsS3             awsS3
	Mail              mail
	Environment       string `env:"ENVIRONMENT,default=development"`
	AppName           string `env:"APP_NAME,default=Tambola"`
}

type database struct {
	Driver         string `env:"DATA_BASE_DRIVER,default=sqlite"`
	Path           string `env:"DATA_BASE_PATH,default=tambola.db"`
	URL            string `env:"DATA_BASE_URL,default=localhost"`
	Name           string `env:"DATA_BASE_NAME,default=tambola"`
	User           string `env:"DATA_BASE_USER"`
	Port           int    `env:"DATA_BASE_PORT,default=0"`
	Password       string `env:"DATA_BASE_PASSWORD"`
	OpenConnection int    `env:"DATA_BASE_MAX_OPEN_CONNECTION,default=5"`
}

type awsSMTP struct {
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT,default=587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
}

type awsS3 struct {
	S3Region     string `env:"S3_REGION,default=us-east-1"`
	S3Bucket     string `env:"S3_BUCKET"`
	S3PathTicket string `env:"S3_PATH_TICKET,default=ticket"`
}

type mail struct {
	NameFrom    string `env:"MAIL_NAME_FROM,default=Tambola"`
	EmailFrom   string `env:"MAIL_EMAIL_FROM"`
	Subject     string `env:"MAIL_TICKET_SUBJECT,default=Your Tambola ticket"`
	PDFFileName string `env:"MAIL_TICKET_FILENAME,default=ticket.pdf"`
}

// AppContext is what every handler receives. Nothing in it is request scoped.
type AppContext struct {
	Config    Configuration
	SQLConn   *sqlx.DB
	DB        db.Storage
	Generator *tambola.Generator
	AwsSMTP   *gomail.Dialer
	AwsS3     *session.Session
}

// DataSourceName builds the driver name and DSN for the configured database.
func DataSourceName(conf database) (string, string, error) {
	switch conf.Driver {
	case "sqlite":
		path := conf.Path
		if _, ok := os.LookupEnv("RAILWAY_ENVIRONMENT"); ok {
			path = railwayDBPath
		}
		return "sqlite", path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", nil
	case "mysql":
		port := conf.Port
		if port == 0 {
			port = 3306
		}
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", conf.User, conf.Password, conf.URL, strconv.Itoa(port), conf.Name), nil
	case "postgres":
		port := conf.Port
		if port == 0 {
			port = 5432
		}
		return "postgres", fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", conf.URL, port, conf.User, conf.Password, conf.Name), nil
	default:
		return "", "", errors.Errorf("unsupported database driver %q", conf.Driver)
	}
}

func CreateConnectionSQL(conf database) (*sqlx.DB, error) {
	driver, dsn, err := DataSourceName(conf)
	if err != nil {
		return nil, err
	}
	connection, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed opening %s connection", driver)
	}
	if driver == "sqlite" {
		connection.SetMaxOpenConns(1)
	} else {
		connection.SetMaxOpenConns(conf.OpenConnection)
	}
	return connection, nil
}

// CreateNewConnectionSMTP returns nil when no SMTP host is configured.
func CreateNewConnectionSMTP(conf awsSMTP) *gomail.Dialer {
	if conf.SMTPHost == "" {
		return nil
	}
	return gomail.NewDialer(conf.SMTPHost, conf.SMTPPort, conf.SMTPUser, conf.SMTPPassword)
}

// CreateNewSessionS3 returns a nil session when no bucket is configured.
func CreateNewSessionS3(conf awsS3) (*session.Session, error) {
	if conf.S3Bucket == "" {
		return nil, nil
	}
	s, err := session.NewSession(&aws.Config{Region: aws.String(conf.S3Region)})
	return s, err
}

type loggerKey struct{}

// WithLogger returns a copy of ctx carrying the request logger.
func WithLogger(ctx context.Context, entry *log.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, entry)
}

// Logger returns the request logger stored in ctx, or a bare entry on the
// standard logger.
func Logger(ctx context.Context) *log.Entry {
	if entry, ok := ctx.Value(loggerKey{}).(*log.Entry); ok && entry != nil {
		return entry
	}
	return log.NewEntry(log.StandardLogger())
}
