package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"pms/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// dsnForEnv builds the Postgres DSN; dev/qc/prod read prefixed variables, anything else reads DB_*.
func dsnForEnv(env string) (string, error) {
	var prefix string
	switch env {
	case "dev":
		prefix = "DEV_"
	case "qc":
		prefix = "QC_"
	case "prod":
		prefix = "PROD_"
	case "", "local", "test":
	default:
		return "", fmt.Errorf("unknown environment: %s", env)
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		GetEnv(prefix+"DB_HOST", "localhost"),
		GetEnv(prefix+"DB_USER", "postgres"),
		GetEnv(prefix+"DB_PASSWORD", ""),
		GetEnv(prefix+"DB_NAME", "pms"),
		GetEnv(prefix+"DB_PORT", "5432"),
		GetEnv(prefix+"DB_SSLMODE", "disable"),
	), nil
}

func ConnectDB() (*gorm.DB, error) {
	dsn, err := dsnForEnv(GetEnv("ENV", "local"))
	if err != nil {
		return nil, err
	}
	return OpenDB(dsn)
}

// OpenDB opens a Postgres connection with the service's gorm settings.
func OpenDB(dsn string) (*gorm.DB, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             GetEnvDuration("DB_SLOW_THRESHOLD", 200*time.Millisecond),
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(GetEnvInt("DB_MAX_OPEN_CONNS", 20))
	sqlDB.SetMaxIdleConns(GetEnvInt("DB_MAX_IDLE_CONNS", 5))
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
