// テスト用のsqlite（テストごとに別DB）
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"

	"sparkshop/internal/config"
	"sparkshop/internal/infra/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// メモリ上のDB。接続は1本なので並行性は見られない
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	return open(t, config.DBConfig{
		Driver:       config.DriverSQLite,
		DSN:          dsn,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
}

// 一時ディレクトリのファイルDB。プール設定は本番と同じ既定値を使う
func OpenFile(t testing.TB) *gorm.DB {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err)

	dbCfg := cfg.DB
	dbCfg.Driver = config.DriverSQLite
	dbCfg.DSN = "file:" + filepath.Join(t.TempDir(), "sparkshop.db") + "?_foreign_keys=on"
	return open(t, dbCfg)
}

func open(t testing.TB, cfg config.DBConfig) *gorm.DB {
	t.Helper()

	gdb, err := db.Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}
