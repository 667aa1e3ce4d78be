package storage

import "errors"

// Storage errors
var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrShareNotFound    = errors.New("share not found")
	ErrInvalidShare     = errors.New("invalid share")
	ErrStorageCorrupted = errors.New("storage corrupted")
	ErrPermissionDenied = errors.New("permission denied")
	ErrWeakPassword     = errors.New("password too weak")
	ErrInvalidNonce     = errors.New("invalid nonce")
	ErrEncryptionFailed = errors.New("encryption failed")
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrBackupFailed     = errors.New("backup failed")
	ErrRestoreFailed    = errors.New("restore failed")
	ErrVersionMismatch  = errors.New("version mismatch")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrGroupMismatch    = errors.New("share belongs to a different group")
)
