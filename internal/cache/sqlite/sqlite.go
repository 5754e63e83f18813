package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenCHAMI/pductl/internal/cache"
	"github.com/OpenCHAMI/pductl/internal/util"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const TABLE_NAME = "pductl_outlets"

// OutletCache stores discovered outlets in a SQLite database.
type OutletCache struct {
	db *sqlx.DB
}

var _ cache.Cache[cache.Outlet] = (*OutletCache)(nil)

// CreateOutletCacheIfNotExists opens the database at path, creating the
// file, its directory and the table as needed.
func CreateOutletCacheIfNotExists(path string) (*OutletCache, error) {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		pdu 		TEXT NOT NULL,
		family 		TEXT,
		outlet_id 	TEXT NOT NULL,
		label 		TEXT,
		timestamp 	TIMESTAMP,
		PRIMARY KEY (pdu, outlet_id)
	);
	`, TABLE_NAME)

	if err := os.MkdirAll(filepath.Dir(path), 0766); err != nil {
		return nil, fmt.Errorf("failed to make cache directory: %w", err)
	}
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &OutletCache{db: db}, nil
}

// OpenOutletCache opens an existing cache without creating it.
func OpenOutletCache(path string) (*OutletCache, error) {
	if _, exists := util.PathExists(path); !exists {
		return nil, fmt.Errorf("no cache found at %s", path)
	}
	return CreateOutletCacheIfNotExists(path)
}

// Insert replaces the cached entries of the given outlets.
func (c *OutletCache) Insert(outlets ...cache.Outlet) error {
	if len(outlets) == 0 {
		return nil
	}

	tx, err := c.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	sql := fmt.Sprintf(`INSERT OR REPLACE INTO %s (pdu, family, outlet_id, label, timestamp)
	VALUES (:pdu, :family, :outlet_id, :label, :timestamp);`, TABLE_NAME)
	for _, outlet := range outlets {
		if _, err := tx.NamedExec(sql, &outlet); err != nil {
			log.Error().Err(err).Str("pdu", outlet.PDU).Str("outlet", outlet.OutletID).Msg("failed to cache outlet")
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes entries. An entry with only PDU set removes every outlet
// of that PDU; entries with neither field set are skipped.
func (c *OutletCache) Delete(outlets ...cache.Outlet) error {
	tx, err := c.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, outlet := range outlets {
		where := []string{}
		if outlet.PDU != "" {
			where = append(where, "pdu=:pdu")
		}
		if outlet.OutletID != "" {
			where = append(where, "outlet_id=:outlet_id")
		}
		if len(where) == 0 {
			continue
		}
		sql := fmt.Sprintf("DELETE FROM %s WHERE %s;", TABLE_NAME, strings.Join(where, " AND "))
		if _, err := tx.NamedExec(sql, &outlet); err != nil {
			log.Error().Err(err).Str("pdu", outlet.PDU).Str("outlet", outlet.OutletID).Msg("failed to delete cached outlet")
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Get lists every cached outlet ordered by PDU and outlet.
func (c *OutletCache) Get() ([]cache.Outlet, error) {
	results := []cache.Outlet{}
	err := c.db.Select(&results, fmt.Sprintf("SELECT pdu, family, outlet_id, label, timestamp FROM %s ORDER BY pdu ASC, outlet_id ASC;", TABLE_NAME))
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve outlets: %w", err)
	}
	return results, nil
}

// GetByPDU lists the cached outlets of one PDU.
func (c *OutletCache) GetByPDU(host string) ([]cache.Outlet, error) {
	results := []cache.Outlet{}
	err := c.db.Select(&results, fmt.Sprintf("SELECT pdu, family, outlet_id, label, timestamp FROM %s WHERE pdu = ? ORDER BY outlet_id ASC;", TABLE_NAME), host)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve outlets of %s: %w", host, err)
	}
	return results, nil
}

func (c *OutletCache) Close() error {
	return c.db.Close()
}
