// Package repo - слой доступа к данным поверх gorm.
package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"Flow/internal/apperr"
	"Flow/internal/model"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// DefaultDSN - файл SQLite по умолчанию.
const DefaultDSN = "flow.db"

// InitDB открывает БД по строке подключения и выполняет миграции.
// postgres:// и postgresql:// уходят в PostgreSQL, всё остальное считается путём SQLite.
func InitDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}

	var dial gorm.Dialector
	isSQLite := !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://")
	if isSQLite {
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
		dial = gormsqlite.Dialector{DriverName: "sqlite", DSN: sqliteDSN(dsn)}
	} else {
		dial = postgres.Open(dsn)
	}

	db, err := gorm.Open(dial, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if isSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// одно соединение: писатели сериализуются самим движком
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&model.User{}, &model.Item{}, &model.UserItemRelation{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// CloseDB закрывает пул соединений.
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ensureDir создаёт каталог файла БД; URI и in-memory базы пропускаются.
func ensureDir(dsn string) error {
	if strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, ":memory:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}
	return nil
}

// sqliteDSN включает внешние ключи и ожидание блокировки для modernc.
func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// classify переводит ошибки ограничений в apperr.ErrConstraint, NotFound в apperr.ErrNotFound.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Wrap(apperr.KindNotFound, op, err)
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperr.Wrap(apperr.KindConstraint, op, err)
	}
	// modernc не переводится драйвером gorm, распознаём по тексту
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "FOREIGN KEY constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed") {
		return apperr.Wrap(apperr.KindConstraint, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
