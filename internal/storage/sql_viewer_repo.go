package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/annel0/voxel-engine/internal/vec"
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// sqlDialect: различия SQL между MariaDB/MySQL и SQLite
type sqlDialect struct {
	driver string
	schema string
	upsert string
}

var (
	mysqlDialect = sqlDialect{
		driver: "mysql",
		schema: `
		CREATE TABLE IF NOT EXISTS viewer_anchors (
			viewer_id  VARCHAR(64) PRIMARY KEY,
			chunk_x    INT         NOT NULL,
			chunk_z    INT         NOT NULL,
			updated_at TIMESTAMP   DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE   CURRENT_TIMESTAMP
		) ENGINE=InnoDB`,
		upsert: `
		INSERT INTO viewer_anchors (viewer_id, chunk_x, chunk_z)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			chunk_x = VALUES(chunk_x),
			chunk_z = VALUES(chunk_z),
			updated_at = CURRENT_TIMESTAMP`,
	}

	sqliteDialect = sqlDialect{
		driver: "sqlite",
		schema: `
		CREATE TABLE IF NOT EXISTS viewer_anchors (
			viewer_id  TEXT    PRIMARY KEY,
			chunk_x    INTEGER NOT NULL,
			chunk_z    INTEGER NOT NULL,
			updated_at TEXT    DEFAULT CURRENT_TIMESTAMP
		)`,
		upsert: `
		INSERT INTO viewer_anchors (viewer_id, chunk_x, chunk_z)
		VALUES (?, ?, ?)
		ON CONFLICT(viewer_id) DO UPDATE SET
			chunk_x = excluded.chunk_x,
			chunk_z = excluded.chunk_z,
			updated_at = CURRENT_TIMESTAMP`,
	}
)

// SQLViewerRepo реализует ViewerRepo поверх database/sql.
// Таблица viewer_anchors создаётся автоматически.
type SQLViewerRepo struct {
	db      *sql.DB
	dialect sqlDialect
}

// NewMySQLViewerRepo подключается к MariaDB/MySQL (user:pass@tcp(host:port)/dbname)
func NewMySQLViewerRepo(dsn string) (*SQLViewerRepo, error) {
	return openSQLViewerRepo(mysqlDialect, dsn)
}

// NewSQLiteViewerRepo открывает файл SQLite, создавая каталог при необходимости
func NewSQLiteViewerRepo(path string) (*SQLViewerRepo, error) {
	if path == "" {
		return nil, fmt.Errorf("пустой путь к базе SQLite")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать каталог базы: %w", err)
	}
	repo, err := openSQLViewerRepo(sqliteDialect, path)
	if err != nil {
		return nil, err
	}
	// SQLite не любит параллельных писателей
	repo.db.SetMaxOpenConns(1)
	return repo, nil
}

func openSQLViewerRepo(d sqlDialect, dsn string) (*SQLViewerRepo, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к %s: %w", d.driver, err)
	}

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с %s: %w", d.driver, err)
	}

	if _, err := db.Exec(d.schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка создания таблицы viewer_anchors: %w", err)
	}

	return &SQLViewerRepo{db: db, dialect: d}, nil
}

// Save сохраняет опорный чанк наблюдателя
func (r *SQLViewerRepo) Save(ctx context.Context, viewerID string, chunk vec.Vec2) error {
	if err := validateViewerID(viewerID); err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, r.dialect.upsert, viewerID, chunk.X, chunk.Z); err != nil {
		return fmt.Errorf("ошибка сохранения наблюдателя %s: %w", viewerID, err)
	}
	return nil
}

// Load загружает опорный чанк наблюдателя
func (r *SQLViewerRepo) Load(ctx context.Context, viewerID string) (vec.Vec2, bool, error) {
	if err := validateViewerID(viewerID); err != nil {
		return vec.Vec2{}, false, err
	}

	query := `SELECT chunk_x, chunk_z FROM viewer_anchors WHERE viewer_id = ?`

	var chunk vec.Vec2
	err := r.db.QueryRowContext(ctx, query, viewerID).Scan(&chunk.X, &chunk.Z)
	if errors.Is(err, sql.ErrNoRows) {
		return vec.Vec2{}, false, nil
	}
	if err != nil {
		return vec.Vec2{}, false, fmt.Errorf("ошибка загрузки наблюдателя %s: %w", viewerID, err)
	}
	return chunk, true, nil
}

// Delete удаляет запись наблюдателя
func (r *SQLViewerRepo) Delete(ctx context.Context, viewerID string) error {
	if err := validateViewerID(viewerID); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM viewer_anchors WHERE viewer_id = ?`, viewerID)
	if err != nil {
		return fmt.Errorf("ошибка удаления наблюдателя %s: %w", viewerID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества затронутых строк: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrViewerNotFound, viewerID)
	}
	return nil
}

// BatchSave сохраняет несколько записей в одной транзакции
func (r *SQLViewerRepo) BatchSave(ctx context.Context, anchors map[string]vec.Vec2) error {
	if len(anchors) == 0 {
		return nil // Нечего сохранять
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback() // Откат в случае ошибки

	stmt, err := tx.PrepareContext(ctx, r.dialect.upsert)
	if err != nil {
		return fmt.Errorf("ошибка подготовки запроса: %w", err)
	}
	defer stmt.Close()

	for viewerID, chunk := range anchors {
		if err := validateViewerID(viewerID); err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, viewerID, chunk.X, chunk.Z); err != nil {
			return fmt.Errorf("ошибка сохранения наблюдателя %s в batch: %w", viewerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

// Close закрывает соединение с базой данных
func (r *SQLViewerRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
