// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package tokencache

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"filippo.io/age"
	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"github.com/kagi-cli/kagi/credential"
	"github.com/kagi-cli/kagi/lib/clock"
)

// DefaultWorkFactor is the scrypt cost (log2 N) for new cache files.
// Lower than age's interactive default: the passphrase is a
// high-entropy cookie, not a human password.
const DefaultWorkFactor = 15

const fileSuffix = ".age"

// record is the cached form of a credential. Times are Unix seconds.
type record struct {
	Token     string             `cbor:"1,keyasint"`
	IssuedAt  int64              `cbor:"2,keyasint"`
	ExpiresAt int64              `cbor:"3,keyasint"`
	Account   credential.Account `cbor:"4,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("tokencache: CBOR encoder initialization failed: " + err.Error())
	}
	// Account.Extra holds arbitrary claims; nested maps must decode as
	// map[string]any to match what the JWT parser produced.
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("tokencache: CBOR decoder initialization failed: " + err.Error())
	}
}

// Config configures a Cache.
type Config struct {
	// Dir holds the cache files. Defaults to DefaultDir().
	Dir string

	// Session is the identity whose tokens are cached. Required. The
	// Cache borrows it and does not close it.
	Session *credential.SessionIdentity

	// Clock judges expiry on load. Defaults to clock.Real().
	Clock clock.Clock

	// WorkFactor defaults to DefaultWorkFactor.
	WorkFactor int

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Cache is the on-disk token cache for one session identity.
type Cache struct {
	path       string
	session    *credential.SessionIdentity
	clock      clock.Clock
	workFactor int
	logger     *slog.Logger
}

// DefaultDir is $XDG_CACHE_HOME/kagi, or the platform's equivalent.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locating cache directory: %w", err)
	}
	return filepath.Join(base, "kagi"), nil
}

// New returns the Cache for config.Session. It touches no files.
func New(config Config) (*Cache, error) {
	if config.Session == nil {
		return nil, errors.New("tokencache: a session identity is required")
	}
	if config.Dir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		config.Dir = dir
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.WorkFactor <= 0 {
		config.WorkFactor = DefaultWorkFactor
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Cache{
		path:       filepath.Join(config.Dir, FileName(config.Session)),
		session:    config.Session,
		clock:      config.Clock,
		workFactor: config.WorkFactor,
		logger:     config.Logger,
	}, nil
}

// FileName is the cache file name for session: a BLAKE3 digest of the
// identity under a context string, so the name reveals nothing usable.
func FileName(session *credential.SessionIdentity) string {
	hasher := blake3.New()
	hasher.Write([]byte("kagi token cache v1\x00"))
	hasher.Write(session.Secret())
	return hex.EncodeToString(hasher.Sum(nil)[:16]) + fileSuffix
}

// Path is the cache file's location.
func (c *Cache) Path() string { return c.path }

// Load returns the cached credential if it decrypts, decodes and has
// not expired.
func (c *Cache) Load(ctx context.Context) (credential.Credential, bool) {
	ciphertext, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return credential.Credential{}, false
	}
	if err != nil {
		c.logger.Debug("token cache unreadable", "path", c.path, "error", err)
		return credential.Credential{}, false
	}
	cached, err := c.decode(ciphertext)
	if err != nil {
		c.logger.Debug("token cache entry discarded", "path", c.path, "error", err)
		return credential.Credential{}, false
	}
	if !cached.ValidAt(c.clock.Now(), 0) {
		return credential.Credential{}, false
	}
	return cached, true
}

func (c *Cache) decode(ciphertext []byte) (credential.Credential, error) {
	identity, err := age.NewScryptIdentity(c.session.Reveal())
	if err != nil {
		return credential.Credential{}, fmt.Errorf("building scrypt identity: %w", err)
	}
	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return credential.Credential{}, fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return credential.Credential{}, fmt.Errorf("reading decrypted record: %w", err)
	}

	var cached record
	if err := decMode.Unmarshal(plaintext, &cached); err != nil {
		return credential.Credential{}, fmt.Errorf("decoding record: %w", err)
	}
	return credential.New(cached.Token, time.Unix(cached.IssuedAt, 0), time.Unix(cached.ExpiresAt, 0), cached.Account)
}

// Save replaces the cache file with credential. The file is written
// beside its final name and renamed into place, mode 0600.
func (c *Cache) Save(ctx context.Context, cred credential.Credential) error {
	plaintext, err := encMode.Marshal(record{
		Token:     cred.Token,
		IssuedAt:  cred.IssuedAt.Unix(),
		ExpiresAt: cred.ExpiresAt.Unix(),
		Account:   cred.Account,
	})
	if err != nil {
		return fmt.Errorf("encoding token cache record: %w", err)
	}

	recipient, err := age.NewScryptRecipient(c.session.Reveal())
	if err != nil {
		return fmt.Errorf("building scrypt recipient: %w", err)
	}
	recipient.SetWorkFactor(c.workFactor)

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipient)
	if err != nil {
		return fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return fmt.Errorf("encrypting token cache record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing token cache encryption: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating token cache directory: %w", err)
	}
	temporary, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("creating token cache file: %w", err)
	}
	defer os.Remove(temporary.Name())
	if _, err := temporary.Write(ciphertext.Bytes()); err != nil {
		temporary.Close()
		return fmt.Errorf("writing token cache file: %w", err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("writing token cache file: %w", err)
	}
	if err := os.Rename(temporary.Name(), c.path); err != nil {
		return fmt.Errorf("installing token cache file: %w", err)
	}
	c.logger.Debug("token cached", "path", c.path, "expires_at", cred.ExpiresAt)
	return nil
}

// Remove deletes this session's cache file. A missing file is not an
// error.
func (c *Cache) Remove(context.Context) error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing token cache: %w", err)
	}
	return nil
}

// Purge deletes every cache file in dir and returns how many it
// removed. Other files are left alone.
func Purge(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("listing token cache: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("removing %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}
