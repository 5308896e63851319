package storage

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

const (
	tokenKeyPrefix   = "token"
	sidebarKeyPrefix = "pref:sidebarOpen"
	noticeKeyPrefix  = "notice"
)

// Keys derives the storage keys of one browser. The client id is hashed so
// cookie values never appear in the backing store.
type Keys struct {
	digest string
}

func KeysFor(clientID string) Keys {
	sum := blake2b.Sum256([]byte(clientID))
	return Keys{digest: hex.EncodeToString(sum[:16])}
}

func (k Keys) Token() string {
	return tokenKeyPrefix + ":" + k.digest
}

func (k Keys) SidebarOpen() string {
	return sidebarKeyPrefix + ":" + k.digest
}

func (k Keys) Notice() string {
	return noticeKeyPrefix + ":" + k.digest
}
