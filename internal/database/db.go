package database

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn   *sql.DB
	dbType string
}

type Config struct {
	Type       string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SQLitePath string
}

func NewDB(config Config) (*DB, error) {
	var conn *sql.DB
	var err error

	switch config.Type {
	case "sqlite":
		conn, err = sql.Open("sqlite3", config.SQLitePath)
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			config.Host, config.Port, config.User, config.Password, config.Name)
		conn, err = sql.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, dbType: config.Type}

	// Only create tables for SQLite; PostgreSQL schemas go through the
	// migrator.
	if config.Type == "sqlite" {
		if err := db.createTables(); err != nil {
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return db, nil
}

func (db *DB) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		filename TEXT NOT NULL,
		content_type TEXT NOT NULL,
		size INTEGER NOT NULL,
		duration_seconds REAL NOT NULL DEFAULT 0,
		upload_time DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stored_advice (
		id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL,
		frame_number INTEGER NOT NULL,
		frame_timestamp REAL NOT NULL,
		advice TEXT NOT NULL,
		confidence REAL NOT NULL,
		key_points TEXT,
		created_at DATETIME NOT NULL,
		UNIQUE (video_id, frame_number)
	);

	CREATE TABLE IF NOT EXISTS analysis_reports (
		id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL,
		summary TEXT NOT NULL,
		events TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`

	_, err := db.conn.Exec(query)
	return err
}

func (db *DB) RunMigrations(migrationsPath string) error {
	return NewMigrator(db.conn, db.dbType).Run(migrationsPath)
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}
