package client

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Session storage keys.
const (
	KeyToken        = "gymbucket_token"
	KeyRefreshToken = "gymbucket_refresh_token"
	KeyUser         = "gymbucket_user"
	KeyRememberMe   = "gymbucket_remember_me"
)

var allKeys = []string{KeyToken, KeyRefreshToken, KeyUser, KeyRememberMe}

// kvDB is a single-table SQLite key/value file.
type kvDB struct {
	db *sql.DB
}

func openKV(dir string) (*kvDB, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating session dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "session.db"))
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS session (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating session table: %w", err)
	}
	return &kvDB{db: db}, nil
}

func (k *kvDB) get(key string) (string, bool, error) {
	var v string
	err := k.db.QueryRow(`SELECT value FROM session WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (k *kvDB) set(key, value string) error {
	_, err := k.db.Exec(`INSERT OR REPLACE INTO session (key, value) VALUES (?, ?)`, key, value)
	return err
}

func (k *kvDB) del(key string) error {
	_, err := k.db.Exec(`DELETE FROM session WHERE key = ?`, key)
	return err
}

// SessionStore keeps login data in two places: a durable file that
// survives reboots (used with remember-me) and a session file under the
// OS temp dir.
type SessionStore struct {
	durable *kvDB
	session *kvDB
}

// OpenSessionStore opens (or creates) the durable store under stateDir and
// the session store under tempDir.
func OpenSessionStore(stateDir, tempDir string) (*SessionStore, error) {
	durable, err := openKV(stateDir)
	if err != nil {
		return nil, err
	}
	session, err := openKV(tempDir)
	if err != nil {
		durable.db.Close()
		return nil, err
	}
	return &SessionStore{durable: durable, session: session}, nil
}

// DefaultDirs returns the per-user state dir and temp session dir.
func DefaultDirs() (stateDir, tempDir string, err error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", "", fmt.Errorf("locating config dir: %w", err)
	}
	tempDir = filepath.Join(os.TempDir(), fmt.Sprintf("gymbucket-%d", os.Getuid()))
	return filepath.Join(cfg, "gymbucket"), tempDir, nil
}

// Set writes key to the durable store when durable is true, otherwise to
// the session store.
func (s *SessionStore) Set(durable bool, key, value string) error {
	target := s.session
	if durable {
		target = s.durable
	}
	if err := target.set(key, value); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// Get reads key, preferring the durable store.
func (s *SessionStore) Get(key string) (string, bool, error) {
	for _, kv := range []*kvDB{s.durable, s.session} {
		v, ok, err := kv.get(key)
		if err != nil {
			return "", false, fmt.Errorf("reading %s: %w", key, err)
		}
		if ok {
			return v, true, nil
		}
	}
	return "", false, nil
}

// Clear removes every session key from both stores.
func (s *SessionStore) Clear() error {
	for _, kv := range []*kvDB{s.durable, s.session} {
		for _, key := range allKeys {
			if err := kv.del(key); err != nil {
				return fmt.Errorf("clearing %s: %w", key, err)
			}
		}
	}
	return nil
}

// Close closes both database files.
func (s *SessionStore) Close() error {
	return errors.Join(s.durable.db.Close(), s.session.db.Close())
}
