package util

import (
	"io"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDatabase 打开数据库连接
//
// logWriter 为 nil 时使用 gorm 默认日志；测试里传 io.Discard 静默 SQL 输出。
func InitDatabase(logWriter io.Writer, driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		SkipDefaultTransaction: true,
	}
	if logWriter != nil {
		cfg.Logger = logger.New(log.New(logWriter, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}
	db, err := createDatabaseInstance(cfg, driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "" || driver == "sqlite" {
		// sqlite 只允许一个写连接，避免 database is locked
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}
