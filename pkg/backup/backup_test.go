package backup

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"RuralCare/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledger struct {
	ID   uint
	Note string
}

func TestExecuteSQLite(t *testing.T) {
	db, err := util.InitDatabase(io.Discard, "sqlite", "file::memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&ledger{}))
	require.NoError(t, db.Create(&ledger{Note: "seed"}).Error)

	dir := filepath.Join(t.TempDir(), "backups")
	dst, err := Execute(context.Background(), db, Config{Driver: "sqlite", Dir: dir})
	require.NoError(t, err)
	_, err = os.Stat(dst)
	require.NoError(t, err)

	copyDB, err := util.InitDatabase(io.Discard, "sqlite", dst)
	require.NoError(t, err)
	var rows []ledger
	require.NoError(t, copyDB.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "seed", rows[0].Note)
}

func TestExecuteRejectsUnknownDriver(t *testing.T) {
	_, err := Execute(context.Background(), nil, Config{Driver: "oracle", Dir: t.TempDir()})
	assert.Error(t, err)
}

func TestBackupMySQLInvalidDSN(t *testing.T) {
	err := BackupMySQL(context.Background(), "::not a dsn::", filepath.Join(t.TempDir(), "x.sql"))
	assert.Error(t, err)
}
