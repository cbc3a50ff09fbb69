package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const dbFileName = "sitecheck.db"

type Config struct {
	Workspace string
}

func workspaceDir(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, ".sitecheck")
}

// EnsureWorkspace creates the .sitecheck directory if missing and returns
// its path.
func EnsureWorkspace(workspace string) (string, error) {
	dir := workspaceDir(workspace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// Open opens the workspace SQLite database. Foreign keys are enforced and
// writers wait on the lock instead of failing immediately, since the CLI
// and a running server may share one file.
func Open(cfg Config) (*sql.DB, error) {
	if _, err := EnsureWorkspace(cfg.Workspace); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", Path(cfg.Workspace))
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Path returns the database file path for a workspace.
func Path(workspace string) string {
	return filepath.Join(workspaceDir(workspace), dbFileName)
}
