// Package credentials persists the session token bundle that lets a browser
// context resume an authenticated state without interactive login.
package credentials

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// DefaultStaleThreshold is the age after which a stored bundle is flagged
// stale. The target site's sessions last roughly 30 days; staleness is
// advisory only and never deletes the bundle, since actual validity can only
// be determined by probing a live page.
const DefaultStaleThreshold = 29 * 24 * time.Hour

// Cookie is one named session artifact. JSON tags match the format produced
// by common browser cookie-export extensions so exported files can be
// imported directly.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expirationDate,omitempty"` // unix seconds, 0 = session cookie
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

// Bundle is the persisted authentication token bundle. A bundle is applied to
// a browser context as a whole or not at all; partial injection is never
// performed. Unknown metadata keys survive a load/save round trip unchanged.
type Bundle struct {
	Cookies  []Cookie       `json:"cookies"`
	SavedAt  time.Time      `json:"saved_at"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// HasCookie reports whether the bundle contains a cookie with the given name.
func (b *Bundle) HasCookie(name string) bool {
	for _, c := range b.Cookies {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Store reads and writes the durable bundle file.
type Store struct {
	path    string
	verbose bool
}

// NewStore creates a store backed by the given file path.
func NewStore(path string, verbose bool) *Store {
	return &Store{path: path, verbose: verbose}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Save overwrites the durable bundle atomically (write-temp-then-rename), so
// a crash mid-write never leaves a half-written file behind: a subsequent
// Load sees either the previous bundle or the new one.
func (s *Store) Save(bundle *Bundle) error {
	if bundle == nil || len(bundle.Cookies) == 0 {
		return fmt.Errorf("refusing to save empty token bundle")
	}
	if bundle.SavedAt.IsZero() {
		bundle.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token bundle: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create credential directory %s: %w", dir, err)
	}

	// The temp file must live in the same directory as the target so the
	// rename is a single filesystem operation.
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp credential file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp credential file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace credential file %s: %w", s.path, err)
	}

	if s.verbose {
		log.Printf("[CREDENTIALS] Saved %d cookies to %s", len(bundle.Cookies), s.path)
	}
	return nil
}

// Load returns the stored bundle, or nil if the file is absent. A corrupt
// (unparseable) file is treated the same as an absent one: it is logged and
// nil is returned, never an error that would abort the run.
func (s *Store) Load() (*Bundle, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		if s.verbose {
			log.Printf("[CREDENTIALS] No credential file at %s", s.path)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential file %s: %w", s.path, err)
	}

	var bundle Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		log.Printf("[CREDENTIALS] Credential file %s is corrupt, treating as absent: %v", s.path, err)
		return nil, nil
	}
	if len(bundle.Cookies) == 0 {
		log.Printf("[CREDENTIALS] Credential file %s contains no cookies, treating as absent", s.path)
		return nil, nil
	}
	return &bundle, nil
}

// Delete removes the stored bundle. Missing files are not an error.
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete credential file %s: %w", s.path, err)
	}
	return nil
}

// AgeOf returns how long ago the bundle was saved.
func AgeOf(bundle *Bundle) time.Duration {
	return time.Since(bundle.SavedAt)
}

// IsStale reports whether the bundle is older than the threshold. Staleness
// is advisory: age is neither proof of expiry nor proof of validity.
func IsStale(bundle *Bundle, threshold time.Duration) bool {
	if threshold <= 0 {
		threshold = DefaultStaleThreshold
	}
	return AgeOf(bundle) > threshold
}
