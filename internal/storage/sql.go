package storage

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/manav03panchal/waketime/internal/errors"
)

// kvRecord is one key of the flat key space stored as a table row.
type kvRecord struct {
	Key       string `gorm:"column:record_key;primaryKey;size:255"`
	Value     []byte `gorm:"column:value;not null"`
	UpdatedAt time.Time
}

// TableName overrides the GORM default.
func (kvRecord) TableName() string { return "kv_records" }

// SQLStore is the GORM Store backend for sqlite and postgres.
type SQLStore struct {
	db     *gorm.DB
	driver string
}

// sqliteBusyTimeout lets concurrent processes queue on the write lock
// instead of failing with SQLITE_BUSY.
const sqliteBusyTimeout = 5000

func openSQL(opts Options) (*SQLStore, error) {
	var dialector gorm.Dialector

	switch opts.Driver {
	case DriverSQLite:
		path := opts.DSN
		if path == "" {
			path = DefaultPath(DriverSQLite)
		}
		if path != ":memory:" && !strings.HasPrefix(path, "file:") {
			if err := EnsureDir(filepath.Dir(path)); err != nil {
				return nil, err
			}
		}
		dialector = sqlite.Open(sqliteDSN(path))
	case DriverPostgres:
		if opts.DSN == "" {
			return nil, errors.NewUserErrorWithField("storage.dsn", "",
				"postgres requires a connection string",
				"Set storage.dsn or WAKETIME_STORAGE_DSN")
		}
		dialector = postgres.Open(opts.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, classifySQLError("open store", err)
	}
	if opts.Driver == DriverSQLite {
		// a single writer connection keeps sqlite transactions serialized
		// inside this process
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	if err := db.AutoMigrate(&kvRecord{}); err != nil {
		return nil, classifySQLError("migrate store", err)
	}

	return &SQLStore{db: db, driver: opts.Driver}, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=" + strconv.Itoa(sqliteBusyTimeout) + "&_journal_mode=WAL"
}

func classifySQLError(op string, err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy") {
		return errors.NewRecoverableError("store busy", stderrors.Join(errors.ErrStoreBusy, err))
	}
	if stderrors.Is(err, os.ErrPermission) {
		return errors.Persistence(op, stderrors.Join(errors.ErrPermissionDenied, err))
	}
	return errors.Persistence(op, err)
}

// Driver returns "sqlite" or "postgres".
func (s *SQLStore) Driver() string { return s.driver }

// View runs fn inside a transaction. Writes made through the Txn are
// rolled back.
func (s *SQLStore) View(ctx context.Context, fn func(Txn) error) error {
	errReadOnly := stderrors.New("read-only view")
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(sqlTxn{tx: tx}); err != nil {
			return err
		}
		return errReadOnly
	})
	if stderrors.Is(err, errReadOnly) {
		return nil
	}
	return err
}

// Update runs fn inside a transaction committed when fn returns nil.
func (s *SQLStore) Update(ctx context.Context, fn func(Txn) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(sqlTxn{tx: tx})
	})
}

// Close closes the underlying connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type sqlTxn struct {
	tx *gorm.DB
}

func (t sqlTxn) Get(key string) ([]byte, error) {
	var rec kvRecord
	err := t.tx.Where("record_key = ?", key).Take(&rec).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return rec.Value, nil
}

func (t sqlTxn) Set(key string, value []byte) error {
	rec := kvRecord{Key: key, Value: value, UpdatedAt: time.Now()}
	return t.tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "record_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
}

func (t sqlTxn) Delete(key string) error {
	return t.tx.Where("record_key = ?", key).Delete(&kvRecord{}).Error
}

func (t sqlTxn) Scan(prefix string, fn func(key string, value []byte) error) error {
	var recs []kvRecord
	err := t.tx.Where(`record_key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%").
		Order("record_key").
		Find(&recs).Error
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if err := fn(rec.Key, rec.Value); err != nil {
			return err
		}
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
