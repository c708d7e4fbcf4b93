package mysql

import (
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"voice_conversion/config"
)

const maxOpenConns = 20

// NewDB opens the history database with tracing enabled.
func NewDB(cfg config.MYSQL) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC", cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Dbname)

	db, err := gorm.Open(mysql.New(mysql.Config{DSN: dsn}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open db connection: %w", err)
	}

	err = db.Use(otelgorm.NewPlugin(otelgorm.WithDBName(cfg.Dbname)))
	if err != nil {
		return nil, fmt.Errorf("failed to set gorm plugin for opentelemetry: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	return db, nil
}
