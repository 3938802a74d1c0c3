package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"github.com/benmeehan/device-locator/pkg/encryption"
	"github.com/benmeehan/device-locator/pkg/file"
)

const (
	// FileName is the artifact file inside the session directory.
	FileName = "session.json"

	// FormatVersion is written into every artifact. Artifacts with a different major version are ignored.
	FormatVersion = "1.0.0"
)

// artifact is the on-disk representation of an account session.
type artifact struct {
	FormatVersion string            `json:"format_version"`
	AccountHash   string            `json:"account_hash"`
	SessionToken  string            `json:"session_token,omitempty"`
	TrustToken    string            `json:"trust_token,omitempty"`
	Cookies       map[string]string `json:"cookies,omitempty"`
	SavedAt       time.Time         `json:"saved_at"`
}

// SessionManagerInterface defines methods to manage the persisted account session.
type SessionManagerInterface interface {
	Load() error
	Save() error
	Path() string
	SessionToken() string
	SetSessionToken(token string)
	TrustToken() string
	SetTrustToken(token string)
	Cookies() map[string]string
	SetCookie(name, value string)
}

// SessionManager keeps the account session in memory and persists it to a directory.
type SessionManager struct {
	dir         string
	accountHash string
	fileOps     file.FileOperations
	encryption  encryption.EncryptionManagerInterface
	logger      zerolog.Logger

	mu           sync.RWMutex
	sessionToken string
	trustToken   string
	cookies      cmap.ConcurrentMap[string, string]
}

// NewSessionManager creates a SessionManager for accountID rooted at dir.
// encryptionManager may be nil, in which case the artifact is stored in plain JSON.
func NewSessionManager(dir, accountID string, fileOps file.FileOperations,
	encryptionManager encryption.EncryptionManagerInterface, logger zerolog.Logger) *SessionManager {
	return &SessionManager{
		dir:         dir,
		accountHash: HashAccount(accountID),
		fileOps:     fileOps,
		encryption:  encryptionManager,
		logger:      logger,
		cookies:     cmap.New[string](),
	}
}

// HashAccount returns the identifier stored in the artifact instead of the raw account id.
func HashAccount(accountID string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(accountID))))
	return hex.EncodeToString(sum[:])
}

// Path returns the artifact location.
func (sm *SessionManager) Path() string {
	return filepath.Join(sm.dir, FileName)
}

// Load creates the session directory if needed and reads the artifact.
// A missing, foreign or incompatible artifact leaves the session empty.
func (sm *SessionManager) Load() error {
	if err := sm.fileOps.EnsureDir(sm.dir); err != nil {
		return err
	}

	sm.reset()

	data, err := sm.fileOps.ReadFileRaw(sm.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			sm.logger.Info().Str("path", sm.Path()).Msg("No stored session found")
			return nil
		}
		return fmt.Errorf("failed to read session artifact: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	if sm.encryption != nil {
		data, err = sm.encryption.Decrypt(data)
		if err != nil {
			return fmt.Errorf("failed to decrypt session artifact: %w", err)
		}
	}

	var stored artifact
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse session artifact: %w", err)
	}

	if !compatible(stored.FormatVersion) {
		sm.logger.Warn().
			Str("stored_version", stored.FormatVersion).
			Str("current_version", FormatVersion).
			Msg("Ignoring session artifact with incompatible format version")
		return nil
	}
	if stored.AccountHash != sm.accountHash {
		sm.logger.Warn().Msg("Ignoring session artifact that belongs to a different account")
		return nil
	}

	sm.mu.Lock()
	sm.sessionToken = stored.SessionToken
	sm.trustToken = stored.TrustToken
	sm.mu.Unlock()
	for name, value := range stored.Cookies {
		sm.cookies.Set(name, value)
	}

	sm.logger.Info().
		Time("saved_at", stored.SavedAt).
		Int("cookies", len(stored.Cookies)).
		Msg("Loaded stored session")
	return nil
}

// Save writes the current session state to disk.
func (sm *SessionManager) Save() error {
	if err := sm.fileOps.EnsureDir(sm.dir); err != nil {
		return err
	}

	sm.mu.RLock()
	stored := artifact{
		FormatVersion: FormatVersion,
		AccountHash:   sm.accountHash,
		SessionToken:  sm.sessionToken,
		TrustToken:    sm.trustToken,
		Cookies:       sm.cookies.Items(),
		SavedAt:       time.Now().UTC(),
	}
	sm.mu.RUnlock()

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize session artifact: %w", err)
	}

	if sm.encryption != nil {
		data, err = sm.encryption.Encrypt(data)
		if err != nil {
			return fmt.Errorf("failed to encrypt session artifact: %w", err)
		}
	}

	if err := sm.fileOps.WriteFileRaw(sm.Path(), data); err != nil {
		return fmt.Errorf("failed to write session artifact: %w", err)
	}

	sm.logger.Debug().Str("path", sm.Path()).Msg("Session artifact saved")
	return nil
}

// SessionToken returns the current session token.
func (sm *SessionManager) SessionToken() string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessionToken
}

// SetSessionToken replaces the session token.
func (sm *SessionManager) SetSessionToken(token string) {
	sm.mu.Lock()
	sm.sessionToken = token
	sm.mu.Unlock()
}

// TrustToken returns the token proving a previously trusted session.
func (sm *SessionManager) TrustToken() string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.trustToken
}

// SetTrustToken replaces the trust token.
func (sm *SessionManager) SetTrustToken(token string) {
	sm.mu.Lock()
	sm.trustToken = token
	sm.mu.Unlock()
}

// Cookies returns a snapshot of the stored cookies.
func (sm *SessionManager) Cookies() map[string]string {
	return sm.cookies.Items()
}

// SetCookie stores a cookie value. An empty value removes the cookie.
func (sm *SessionManager) SetCookie(name, value string) {
	if value == "" {
		sm.cookies.Remove(name)
		return
	}
	sm.cookies.Set(name, value)
}

func (sm *SessionManager) reset() {
	sm.mu.Lock()
	sm.sessionToken = ""
	sm.trustToken = ""
	sm.mu.Unlock()
	sm.cookies.Clear()
}

// compatible reports whether an artifact written with version v can be read.
func compatible(v string) bool {
	stored, err := semver.NewVersion(v)
	if err != nil {
		return false
	}
	current := semver.MustParse(FormatVersion)
	return stored.Major() == current.Major()
}
