package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite"
)

// SQLiteClient 組み込みSQLite（cgo不要）クライアント
type SQLiteClient struct {
	DB *sql.DB
}

// NewSQLiteClient パスを指定してSQLiteを開く。":memory:" はテスト用のインメモリDB
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	if path == "" {
		return nil, fmt.Errorf("SQLITE_PATH環境変数が設定されていません")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("SQLiteの初期化に失敗: %w", err)
	}

	// インメモリDBは接続ごとに別のDBになる。ファイルでも書き込みは1接続に絞る
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("SQLiteの設定に失敗 (%s): %w", pragma, err)
			}
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("SQLiteへの接続に失敗: %w", err)
	}

	log.Printf("✅ SQLite client initialized: %s", path)
	return &SQLiteClient{DB: db}, nil
}

// Close データベース接続を閉じる
func (sc *SQLiteClient) Close() error {
	if sc.DB != nil {
		return sc.DB.Close()
	}
	return nil
}

// HealthCheck データベース接続のヘルスチェック
func (sc *SQLiteClient) HealthCheck(ctx context.Context) error {
	if sc.DB == nil {
		return fmt.Errorf("SQLiteクライアントが初期化されていません")
	}
	return sc.DB.PingContext(ctx)
}
