package localdb

import (
	"database/sql"
	"fmt"

	"github.com/ichi0g0y/ql-label-printer/internal/shared/logger"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var DBClient *sql.DB

func SetupDB(dbPath string) (*sql.DB, error) {
	if DBClient != nil {
		return DBClient, nil
	}

	// WALモードとBusy Timeoutを設定
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// SQLiteは単一ライターなので接続プールを1に制限
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	DBClient = db
	return db, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		setting_type TEXT NOT NULL DEFAULT 'normal',
		is_required BOOLEAN NOT NULL DEFAULT false,
		description TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("failed to create settings table: %w", err)
	}

	// print_historyテーブル（印刷履歴、最近使ったラベル）
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS print_history (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL,
		label_index INTEGER NOT NULL,
		template INTEGER NOT NULL,
		tape_mm INTEGER NOT NULL,
		text TEXT NOT NULL DEFAULT '',
		qr_data TEXT NOT NULL DEFAULT '',
		number TEXT NOT NULL DEFAULT '',
		copies INTEGER NOT NULL,
		printed INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		image_path TEXT NOT NULL DEFAULT '',
		printer TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		logger.Error("Failed to create print_history table", zap.Error(err))
		return fmt.Errorf("failed to create print_history table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_print_history_created_at ON print_history(created_at DESC)`)
	if err != nil {
		return fmt.Errorf("failed to create print_history index: %w", err)
	}
	return nil
}

// GetDB は現在のデータベース接続を返します
func GetDB() *sql.DB {
	return DBClient
}

// Close closes the shared connection so SetupDB can open another file.
func Close() error {
	if DBClient == nil {
		return nil
	}
	err := DBClient.Close()
	DBClient = nil
	return err
}
