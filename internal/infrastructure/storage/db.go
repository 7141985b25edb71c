package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docmind/backend/internal/infrastructure/config"
	_ "modernc.org/sqlite"
)

// schema 目录、审计日志与任务队列表结构
// 三张表都可以从元数据 JSON 重建，丢失数据库不会丢失文档
const schema = `
CREATE TABLE IF NOT EXISTS document_catalog (
	user_id TEXT NOT NULL,
	document_id TEXT NOT NULL,
	original_name TEXT NOT NULL,
	source_type TEXT NOT NULL,
	status TEXT NOT NULL,
	state TEXT NOT NULL,
	size INTEGER NOT NULL,
	has_markdown INTEGER NOT NULL DEFAULT 0,
	has_chunks INTEGER NOT NULL DEFAULT 0,
	has_qa_pairs INTEGER NOT NULL DEFAULT 0,
	has_embeddings INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (user_id, document_id)
);
CREATE INDEX IF NOT EXISTS idx_catalog_user_state ON document_catalog(user_id, state);

CREATE TABLE IF NOT EXISTS document_transitions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	document_id TEXT NOT NULL,
	event TEXT NOT NULL,
	from_state TEXT NOT NULL,
	to_state TEXT NOT NULL,
	error TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transitions_document ON document_transitions(user_id, document_id);

CREATE TABLE IF NOT EXISTS processing_tasks (
	user_id TEXT NOT NULL,
	document_id TEXT NOT NULL,
	priority INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	retry_count INTEGER NOT NULL DEFAULT 0,
	max_retries INTEGER NOT NULL DEFAULT 3,
	created_at INTEGER NOT NULL,
	next_retry_at INTEGER,
	last_error TEXT,
	PRIMARY KEY (user_id, document_id)
);
CREATE INDEX IF NOT EXISTS idx_queue_status ON processing_tasks(status, next_retry_at);
`

// OpenDB 打开数据库连接并初始化表结构
func OpenDB(dbPath string) (*sql.DB, error) {
	// 确保目录存在
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite 只允许单写者，限制连接数避免 SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// InitSchema 创建表结构
func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// ProvideDB 按配置打开数据库，返回的清理函数负责关闭连接
func ProvideDB(cfg *config.DatabaseConfig) (*sql.DB, func(), error) {
	db, err := OpenDB(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { db.Close() }, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
