package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/Caqil/pedersen-mpc/pkg/crypto/group"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/rand"
	"github.com/Caqil/pedersen-mpc/pkg/vss"
)

const testPassword = "SecurePassword123"

// fastConfig keeps Argon2 at its minimum cost so tests stay quick
func fastConfig(path string) *Config {
	config := DefaultConfig(path)
	config.Argon2Time = 1
	config.Argon2Memory = 8 * 1024
	config.Argon2Threads = 1
	return config
}

func newTestStore(t *testing.T, groupType group.GroupType) (*FileShareStore, *vss.GroupContext, string) {
	t.Helper()
	gctx, err := vss.NewGroupContextFor(groupType)
	if err != nil {
		t.Fatalf("NewGroupContextFor failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "share.enc")
	store, err := NewFileShareStore(fastConfig(path), gctx)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store, gctx, path
}

func testShare(t *testing.T, gctx *vss.GroupContext) *vss.Share {
	t.Helper()
	shares, err := vss.ShareValue(gctx, big.NewInt(4242), 2, 3)
	if err != nil {
		t.Fatalf("ShareValue failed: %v", err)
	}
	return shares[1]
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig("/tmp/test.share")

	if config.FilePath != "/tmp/test.share" {
		t.Errorf("Expected FilePath /tmp/test.share, got %s", config.FilePath)
	}
	if config.FileMode != 0600 {
		t.Errorf("Expected FileMode 0600, got %o", config.FileMode)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name         string
		modifyConfig func(*Config)
		expectError  bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"empty file path", func(c *Config) { c.FilePath = "" }, true},
		{"group readable", func(c *Config) { c.FileMode = 0640 }, true},
		{"zero time cost", func(c *Config) { c.Argon2Time = 0 }, true},
		{"low memory", func(c *Config) { c.Argon2Memory = 1024 }, true},
		{"no threads", func(c *Config) { c.Argon2Threads = 0 }, true},
		{"short key", func(c *Config) { c.Argon2KeyLen = 16 }, true},
		{"short passwords", func(c *Config) { c.MinPasswordLength = 4 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig("/tmp/test.share")
			tt.modifyConfig(config)
			err := config.Validate()
			if tt.expectError && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestPasswordValidation(t *testing.T) {
	config := DefaultConfig("/tmp/test.share")

	tests := []struct {
		password string
		valid    bool
	}{
		{"short1", false},
		{"onlylettersherepls", false},
		{"123456789012345", false},
		{"Letters4ndNumbers", true},
	}

	for _, tt := range tests {
		err := config.validatePassword(tt.password)
		if tt.valid && err != nil {
			t.Errorf("validatePassword(%q) unexpected error: %v", tt.password, err)
		}
		if !tt.valid && !errors.Is(err, ErrWeakPassword) {
			t.Errorf("validatePassword(%q) = %v, want ErrWeakPassword", tt.password, err)
		}
	}
}

func TestEncryptDecrypt(t *testing.T) {
	key, err := rand.GenerateRandomBytes(32)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	plaintext := []byte("share bytes")
	aad := []byte("metadata")

	nonce, ciphertext, err := encryptData(plaintext, key, aad)
	if err != nil {
		t.Fatalf("Encryption failed: %v", err)
	}
	if len(nonce) != nonceSize {
		t.Errorf("Expected nonce length %d, got %d", nonceSize, len(nonce))
	}

	decrypted, err := decryptData(ciphertext, nonce, key, aad)
	if err != nil {
		t.Fatalf("Decryption failed: %v", err)
	}
	if string(decrypted) != string(plaintext) {
		t.Errorf("Decrypted %q, want %q", decrypted, plaintext)
	}

	if _, err := decryptData(ciphertext, nonce, key, []byte("other metadata")); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("Expected ErrInvalidPassword for foreign AAD, got %v", err)
	}

	wrongKey, _ := rand.GenerateRandomBytes(32)
	if _, err := decryptData(ciphertext, nonce, wrongKey, aad); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("Expected ErrInvalidPassword for wrong key, got %v", err)
	}

	if _, err := decryptData(ciphertext, nonce[:4], key, aad); !errors.Is(err, ErrInvalidNonce) {
		t.Errorf("Expected ErrInvalidNonce, got %v", err)
	}
}

func TestFileShareStore_SaveAndLoad(t *testing.T) {
	for _, gt := range []group.GroupType{group.Ed25519, group.Secp256k1, group.BN254} {
		t.Run(gt.String(), func(t *testing.T) {
			store, gctx, path := newTestStore(t, gt)
			share := testShare(t, gctx)

			if store.Exists() {
				t.Fatal("Store should be empty")
			}
			if err := store.Save(share, testPassword); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if !store.Exists() {
				t.Fatal("Share should exist after Save")
			}

			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("Stat failed: %v", err)
			}
			if info.Mode().Perm() != 0600 {
				t.Errorf("Expected permissions 0600, got %o", info.Mode().Perm())
			}

			loaded, err := store.Load(testPassword)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if loaded.Index != share.Index || loaded.Threshold != share.Threshold {
				t.Errorf("Loaded share (%d, %d), want (%d, %d)",
					loaded.Index, loaded.Threshold, share.Index, share.Threshold)
			}
			if loaded.Data.Cmp(share.Data) != 0 || loaded.Blind.Cmp(share.Blind) != 0 {
				t.Error("Loaded share values differ")
			}
			if !loaded.SameCommitments(share) {
				t.Error("Loaded commitments differ")
			}

			meta, err := store.Metadata()
			if err != nil {
				t.Fatalf("Metadata failed: %v", err)
			}
			if meta.Group != gt.String() || meta.Index != share.Index || meta.Threshold != share.Threshold {
				t.Errorf("Unexpected metadata: %+v", meta)
			}
			if len(meta.Checksum) != 32 {
				t.Errorf("Expected 32-byte checksum, got %d", len(meta.Checksum))
			}
		})
	}
}

func TestFileShareStore_SaveRejects(t *testing.T) {
	store, gctx, _ := newTestStore(t, group.Ed25519)
	share := testShare(t, gctx)

	if err := store.Save(nil, testPassword); !errors.Is(err, ErrInvalidShare) {
		t.Errorf("Expected ErrInvalidShare for nil share, got %v", err)
	}

	bad := share.Clone()
	bad.Data.Add(bad.Data, big.NewInt(1))
	bad.Data.Mod(bad.Data, gctx.Order())
	if err := store.Save(bad, testPassword); !errors.Is(err, ErrInvalidShare) {
		t.Errorf("Expected ErrInvalidShare for inconsistent share, got %v", err)
	}

	if err := store.Save(share, "weak"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("Expected ErrWeakPassword, got %v", err)
	}
	if store.Exists() {
		t.Error("Nothing should be written after rejected saves")
	}
}

func TestFileShareStore_LoadWithWrongPassword(t *testing.T) {
	store, gctx, _ := newTestStore(t, group.Ed25519)
	if err := store.Save(testShare(t, gctx), testPassword); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := store.Load("WrongPassword123"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("Expected ErrInvalidPassword, got %v", err)
	}
}

func TestFileShareStore_GroupMismatch(t *testing.T) {
	store, gctx, path := newTestStore(t, group.Ed25519)
	if err := store.Save(testShare(t, gctx), testPassword); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	other, err := vss.NewGroupContextFor(group.Secp256k1)
	if err != nil {
		t.Fatalf("NewGroupContextFor failed: %v", err)
	}
	foreign, err := NewFileShareStore(fastConfig(path), other)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if _, err := foreign.Load(testPassword); !errors.Is(err, ErrGroupMismatch) {
		t.Errorf("Expected ErrGroupMismatch, got %v", err)
	}
}

// editRecord rewrites the stored record in place
func editRecord(t *testing.T, path string, edit func(*record)) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	edit(&rec)
	data, err = json.Marshal(&rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func TestFileShareStore_Tampering(t *testing.T) {
	t.Run("ciphertext", func(t *testing.T) {
		store, gctx, path := newTestStore(t, group.Ed25519)
		if err := store.Save(testShare(t, gctx), testPassword); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		editRecord(t, path, func(r *record) { r.Ciphertext[0] ^= 0x01 })

		if _, err := store.Load(testPassword); !errors.Is(err, ErrChecksumMismatch) {
			t.Errorf("Expected ErrChecksumMismatch, got %v", err)
		}
	})

	t.Run("metadata", func(t *testing.T) {
		store, gctx, path := newTestStore(t, group.Ed25519)
		if err := store.Save(testShare(t, gctx), testPassword); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		editRecord(t, path, func(r *record) { r.Metadata.Index = 3 })

		if _, err := store.Load(testPassword); err == nil {
			t.Error("Load should fail when metadata is not the one encrypted under")
		}
	})

	t.Run("version", func(t *testing.T) {
		store, gctx, path := newTestStore(t, group.Ed25519)
		if err := store.Save(testShare(t, gctx), testPassword); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		editRecord(t, path, func(r *record) { r.Metadata.Version = "pedersen-share/0" })

		if _, err := store.Load(testPassword); !errors.Is(err, ErrVersionMismatch) {
			t.Errorf("Expected ErrVersionMismatch, got %v", err)
		}
	})

	t.Run("permissions", func(t *testing.T) {
		store, gctx, path := newTestStore(t, group.Ed25519)
		if err := store.Save(testShare(t, gctx), testPassword); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if err := os.Chmod(path, 0644); err != nil {
			t.Fatalf("Chmod failed: %v", err)
		}

		if _, err := store.Load(testPassword); !errors.Is(err, ErrPermissionDenied) {
			t.Errorf("Expected ErrPermissionDenied, got %v", err)
		}
	})
}

func TestFileShareStore_ChangePassword(t *testing.T) {
	store, gctx, _ := newTestStore(t, group.Ed25519)
	share := testShare(t, gctx)
	if err := store.Save(share, testPassword); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	before, err := store.Metadata()
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}

	newPassword := "AnotherPassword456"
	if err := store.ChangePassword("WrongPassword123", newPassword); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("Expected ErrInvalidPassword, got %v", err)
	}
	if err := store.ChangePassword(testPassword, "weak"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("Expected ErrWeakPassword, got %v", err)
	}
	if err := store.ChangePassword(testPassword, newPassword); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if _, err := store.Load(testPassword); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("Old password should no longer work, got %v", err)
	}
	loaded, err := store.Load(newPassword)
	if err != nil {
		t.Fatalf("Load with new password failed: %v", err)
	}
	if loaded.Data.Cmp(share.Data) != 0 {
		t.Error("Share changed across password change")
	}

	after, err := store.Metadata()
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Error("CreatedAt should survive a password change")
	}
}

func TestFileShareStore_Delete(t *testing.T) {
	store, gctx, _ := newTestStore(t, group.Ed25519)
	if err := store.Delete(); !errors.Is(err, ErrShareNotFound) {
		t.Errorf("Expected ErrShareNotFound, got %v", err)
	}

	if err := store.Save(testShare(t, gctx), testPassword); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if store.Exists() {
		t.Error("Share should not exist after Delete")
	}
	if _, err := store.Load(testPassword); !errors.Is(err, ErrShareNotFound) {
		t.Errorf("Expected ErrShareNotFound, got %v", err)
	}
}

func TestFileShareStore_BackupRestore(t *testing.T) {
	store, gctx, path := newTestStore(t, group.Ed25519)
	share := testShare(t, gctx)
	if err := store.Save(share, testPassword); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	backupPath := filepath.Join(filepath.Dir(path), "share.bak")
	if err := store.Backup(backupPath); err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	if err := store.Delete(); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if err := store.Restore(backupPath, "WrongPassword123"); !errors.Is(err, ErrRestoreFailed) {
		t.Errorf("Expected ErrRestoreFailed, got %v", err)
	}
	if store.Exists() {
		t.Error("A failed restore should not write the share")
	}

	if err := store.Restore(backupPath, testPassword); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	loaded, err := store.Load(testPassword)
	if err != nil {
		t.Fatalf("Load after restore failed: %v", err)
	}
	if loaded.Data.Cmp(share.Data) != 0 || loaded.Blind.Cmp(share.Blind) != 0 {
		t.Error("Restored share differs")
	}
}

func TestFileShareStore_ConcurrentParties(t *testing.T) {
	gctx, err := vss.NewGroupContextFor(group.Ed25519)
	if err != nil {
		t.Fatalf("NewGroupContextFor failed: %v", err)
	}
	shares, err := vss.ShareValue(gctx, big.NewInt(99), 2, 4)
	if err != nil {
		t.Fatalf("ShareValue failed: %v", err)
	}
	dir := t.TempDir()

	errs := make(chan error, len(shares))
	for _, share := range shares {
		share := share
		go func() {
			path := filepath.Join(dir, fmt.Sprintf("party-%d.share", share.Index))
			store, err := NewFileShareStore(fastConfig(path), gctx)
			if err != nil {
				errs <- err
				return
			}
			if err := store.Save(share, testPassword); err != nil {
				errs <- err
				return
			}
			loaded, err := store.Load(testPassword)
			if err != nil {
				errs <- err
				return
			}
			if loaded.Index != share.Index {
				errs <- fmt.Errorf("party %d loaded share %d", share.Index, loaded.Index)
				return
			}
			errs <- nil
		}()
	}

	for range shares {
		if err := <-errs; err != nil {
			t.Error(err)
		}
	}
}
