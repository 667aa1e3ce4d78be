// Package storage keeps a party's Pedersen share on disk, encrypted under
// a password (Argon2id + AES-256-GCM)
package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Caqil/pedersen-mpc/internal/security"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/rand"
	"github.com/Caqil/pedersen-mpc/pkg/vss"
)

const (
	formatVersion = "pedersen-share/1"
	saltSize      = 32
	nonceSize     = 12
)

// ShareStore persists one share
type ShareStore interface {
	// Save encrypts and saves a share with password protection
	Save(share *vss.Share, password string) error

	// Load decrypts the share and checks it against its commitments
	Load(password string) (*vss.Share, error)

	// Delete overwrites and removes the stored share
	Delete() error

	// Exists checks if a share exists in storage
	Exists() bool

	// Metadata returns the public part of the record without decrypting
	Metadata() (*Metadata, error)

	// ChangePassword re-encrypts the share with a new password
	ChangePassword(oldPassword, newPassword string) error
}

// Metadata is stored in the clear next to the ciphertext. It is bound to
// the ciphertext as additional authenticated data.
type Metadata struct {
	Version    string    `json:"version"`
	Group      string    `json:"group"`
	Index      int       `json:"index"`
	Threshold  int       `json:"threshold"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	KDFParams  KDFParams `json:"kdf_params"`
	Checksum   []byte    `json:"checksum"`
}

// KDFParams contains key derivation function parameters
type KDFParams struct {
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory"`
	Threads uint8  `json:"threads"`
	KeyLen  uint32 `json:"key_len"`
	Salt    []byte `json:"salt"`
}

// record is the on-disk file
type record struct {
	Metadata   Metadata `json:"metadata"`
	Nonce      []byte   `json:"nonce"`
	Ciphertext []byte   `json:"ciphertext"`
}

// FileShareStore implements ShareStore with a single encrypted JSON file
type FileShareStore struct {
	config *Config
	gctx   *vss.GroupContext
}

// NewFileShareStore creates a store for shares over gctx's group
func NewFileShareStore(config *Config, gctx *vss.GroupContext) (*FileShareStore, error) {
	if config == nil {
		return nil, fmt.Errorf("nil storage config")
	}
	if gctx == nil {
		return nil, vss.ErrNilGroup
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &FileShareStore{config: config, gctx: gctx}, nil
}

// Save encrypts and saves a share to disk
func (fs *FileShareStore) Save(share *vss.Share, password string) error {
	if share == nil {
		return ErrInvalidShare
	}
	if err := share.Validate(fs.gctx); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}
	if err := fs.config.validatePassword(password); err != nil {
		return err
	}

	plaintext, err := json.Marshal(share.ToWire())
	if err != nil {
		return fmt.Errorf("failed to serialize share: %w", err)
	}
	defer security.SecureZero(plaintext)

	salt, err := rand.GenerateRandomBytes(saltSize)
	if err != nil {
		return err
	}
	key := fs.config.deriveKey(password, salt)
	defer security.SecureZero(key)

	now := time.Now().UTC()
	created := now
	if existing, err := fs.Metadata(); err == nil {
		created = existing.CreatedAt
	}

	meta := Metadata{
		Version:    formatVersion,
		Group:      fs.gctx.Group().Name(),
		Index:      share.Index,
		Threshold:  share.Threshold,
		CreatedAt:  created,
		ModifiedAt: now,
		KDFParams: KDFParams{
			Time:    fs.config.Argon2Time,
			Memory:  fs.config.Argon2Memory,
			Threads: fs.config.Argon2Threads,
			KeyLen:  fs.config.Argon2KeyLen,
			Salt:    salt,
		},
	}

	nonce, ciphertext, err := encryptData(plaintext, key, meta.associatedData())
	if err != nil {
		return err
	}
	meta.Checksum = checksum(ciphertext)

	data, err := json.Marshal(&record{Metadata: meta, Nonce: nonce, Ciphertext: ciphertext})
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	return writeSecureFile(fs.config.FilePath, data, fs.config.FileMode)
}

// Load decrypts and loads the share from disk
func (fs *FileShareStore) Load(password string) (*vss.Share, error) {
	rec, err := fs.read(fs.config.FilePath)
	if err != nil {
		return nil, err
	}
	return fs.open(rec, password)
}

func (fs *FileShareStore) open(rec *record, password string) (*vss.Share, error) {
	meta := rec.Metadata
	if meta.Version != formatVersion {
		return nil, ErrVersionMismatch
	}
	if meta.Group != fs.gctx.Group().Name() {
		return nil, fmt.Errorf("%w: stored %s", ErrGroupMismatch, meta.Group)
	}
	if !security.ConstantTimeCompare(meta.Checksum, checksum(rec.Ciphertext)) {
		return nil, ErrChecksumMismatch
	}

	// KDF cost comes from the record, not the current config
	kdf := *fs.config
	kdf.Argon2Time = meta.KDFParams.Time
	kdf.Argon2Memory = meta.KDFParams.Memory
	kdf.Argon2Threads = meta.KDFParams.Threads
	kdf.Argon2KeyLen = meta.KDFParams.KeyLen
	if err := kdf.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageCorrupted, err)
	}

	key := kdf.deriveKey(password, meta.KDFParams.Salt)
	defer security.SecureZero(key)

	plaintext, err := decryptData(rec.Ciphertext, rec.Nonce, key, meta.associatedData())
	if err != nil {
		return nil, err
	}
	defer security.SecureZero(plaintext)

	var w vss.WireShare
	if err := json.Unmarshal(plaintext, &w); err != nil {
		return nil, ErrStorageCorrupted
	}
	share, err := vss.FromWire(fs.gctx, &w)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageCorrupted, err)
	}
	if share.Index != meta.Index || share.Threshold != meta.Threshold {
		return nil, ErrStorageCorrupted
	}
	if err := share.Validate(fs.gctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}
	return share, nil
}

// Delete overwrites the file with random bytes and removes it
func (fs *FileShareStore) Delete() error {
	info, err := os.Stat(fs.config.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrShareNotFound
		}
		return err
	}

	noise, err := rand.GenerateRandomBytes(int(info.Size()))
	if err != nil {
		return err
	}
	if err := os.WriteFile(fs.config.FilePath, noise, fs.config.FileMode); err != nil {
		return err
	}

	return os.Remove(fs.config.FilePath)
}

// Exists checks if a share exists in storage
func (fs *FileShareStore) Exists() bool {
	_, err := os.Stat(fs.config.FilePath)
	return err == nil
}

// Metadata returns the public part of the record
func (fs *FileShareStore) Metadata() (*Metadata, error) {
	rec, err := fs.read(fs.config.FilePath)
	if err != nil {
		return nil, err
	}
	return &rec.Metadata, nil
}

// ChangePassword re-encrypts the share with a new password
func (fs *FileShareStore) ChangePassword(oldPassword, newPassword string) error {
	share, err := fs.Load(oldPassword)
	if err != nil {
		return err
	}
	defer share.Zero()

	if err := fs.config.validatePassword(newPassword); err != nil {
		return err
	}
	return fs.Save(share, newPassword)
}

// Backup copies the encrypted file to backupPath
func (fs *FileShareStore) Backup(backupPath string) error {
	data, err := readSecureFile(fs.config.FilePath, fs.config.FileMode)
	if err != nil {
		return err
	}
	if err := writeSecureFile(backupPath, data, fs.config.FileMode); err != nil {
		return fmt.Errorf("%w: %v", ErrBackupFailed, err)
	}
	return nil
}

// Restore replaces the stored share with a backup that opens under password
func (fs *FileShareStore) Restore(backupPath, password string) error {
	rec, err := fs.read(backupPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRestoreFailed, err)
	}
	share, err := fs.open(rec, password)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRestoreFailed, err)
	}
	share.Zero()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRestoreFailed, err)
	}
	if err := writeSecureFile(fs.config.FilePath, data, fs.config.FileMode); err != nil {
		return fmt.Errorf("%w: %v", ErrRestoreFailed, err)
	}
	return nil
}

func (fs *FileShareStore) read(path string) (*record, error) {
	data, err := readSecureFile(path, fs.config.FileMode)
	if err != nil {
		return nil, err
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, ErrStorageCorrupted
	}
	return &rec, nil
}

// associatedData binds the public metadata to the ciphertext
func (m *Metadata) associatedData() []byte {
	return []byte(fmt.Sprintf("%s|%s|%d|%d", m.Version, m.Group, m.Index, m.Threshold))
}

// encryptData encrypts data using AES-256-GCM
func encryptData(plaintext, key, aad []byte) (nonce, ciphertext []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, ErrEncryptionFailed
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, ErrEncryptionFailed
	}

	nonce, err = rand.GenerateRandomBytes(nonceSize)
	if err != nil {
		return nil, nil, err
	}

	ciphertext = gcm.Seal(nil, nonce, plaintext, aad)
	return nonce, ciphertext, nil
}

// decryptData decrypts data using AES-256-GCM. An authentication failure
// is reported as a wrong password.
func decryptData(ciphertext, nonce, key, aad []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	if len(nonce) != gcm.NonceSize() {
		return nil, ErrInvalidNonce
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrInvalidPassword
	}

	return plaintext, nil
}

// checksum is SHA-256 of the ciphertext
func checksum(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// writeSecureFile writes data through a temporary file and an atomic rename
func writeSecureFile(path string, data []byte, mode os.FileMode) error {
	tmpPath := path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync: %w", err)
	}

	f.Close()

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename: %w", err)
	}

	return nil
}

// readSecureFile reads a file after checking its permissions
func readSecureFile(path string, expectedMode os.FileMode) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrShareNotFound
		}
		return nil, err
	}

	if info.Mode().Perm() != expectedMode {
		return nil, fmt.Errorf("%w: file has permissions %o, expected %o",
			ErrPermissionDenied, info.Mode().Perm(), expectedMode)
	}

	return os.ReadFile(path)
}
