package backup

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"RuralCare/pkg/logger"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config 备份配置
type Config struct {
	Driver string // sqlite|mysql|pg|postgres
	DSN    string
	Dir    string
}

// Execute 根据数据库类型执行一次备份，返回备份文件路径
func Execute(ctx context.Context, db *gorm.DB, cfg Config) (string, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	stamp := time.Now().Format("20060102_150405")

	var dst string
	var err error
	switch cfg.Driver {
	case "", "sqlite":
		dst = filepath.Join(cfg.Dir, fmt.Sprintf("ruralcare_%s.db", stamp))
		err = BackupSQLite(ctx, db, dst)
	case "mysql":
		dst = filepath.Join(cfg.Dir, fmt.Sprintf("ruralcare_%s.sql", stamp))
		err = BackupMySQL(ctx, cfg.DSN, dst)
	case "pg", "postgres":
		dst = filepath.Join(cfg.Dir, fmt.Sprintf("ruralcare_%s.sql", stamp))
		err = BackupPostgres(ctx, cfg.DSN, dst)
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER: %s", cfg.Driver)
	}
	if err != nil {
		return "", err
	}
	logger.Info("database backup completed", zap.String("driver", cfg.Driver), zap.String("file", dst))
	return dst, nil
}

// BackupSQLite 用 VACUUM INTO 在线生成一致的副本，内存库同样适用
func BackupSQLite(ctx context.Context, db *gorm.DB, dst string) error {
	if err := db.WithContext(ctx).Exec("VACUUM INTO ?", dst).Error; err != nil {
		return fmt.Errorf("failed to backup SQLite database: %w", err)
	}
	return nil
}

// BackupMySQL 调用 mysqldump，连接参数取自 DSN
func BackupMySQL(ctx context.Context, dsn, dst string) error {
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		return fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	host, port := parsed.Addr, "3306"
	if h, p, err := net.SplitHostPort(parsed.Addr); err == nil {
		host, port = h, p
	}
	args := []string{"-h", host, "-P", port, "-u", parsed.User, "--single-transaction", parsed.DBName}
	cmd := exec.CommandContext(ctx, "mysqldump", args...)
	cmd.Env = append(os.Environ(), "MYSQL_PWD="+parsed.Passwd)
	return runDump(cmd, dst)
}

// BackupPostgres 调用 pg_dump，DSN 原样作为连接串
func BackupPostgres(ctx context.Context, dsn, dst string) error {
	cmd := exec.CommandContext(ctx, "pg_dump", "--dbname="+dsn, "--no-owner")
	return runDump(cmd, dst)
}

func runDump(cmd *exec.Cmd, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("error creating destination file: %w", err)
	}
	defer out.Close()
	cmd.Stdout = out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("failed to run %s: %w", filepath.Base(cmd.Path), err)
	}
	return nil
}
