// ABOUTME: Embedded assets for the parley client
// ABOUTME: Currently just the desktop-notification icon
package assets

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"os"
	"path/filepath"
)

//go:embed icon.png
var IconPNG []byte

// HashStore persists the hash of the last icon written to disk.
type HashStore interface {
	GetConfig(key string) (string, error)
	SetConfig(key, value string) error
}

// GetIconPath materializes the embedded notification icon under dataDir
// and returns its path. The file is rewritten only when it is missing or
// when a new build ships different icon bytes, detected via the hash
// recorded in the state store.
func GetIconPath(dataDir string, store HashStore) (string, error) {
	path := filepath.Join(dataDir, "icon.png")

	sum := sha256.Sum256(IconPNG)
	want := hex.EncodeToString(sum[:])
	have, _ := store.GetConfig("icon_hash")

	if _, err := os.Stat(path); err == nil && have == want {
		return path, nil
	}

	if err := os.WriteFile(path, IconPNG, 0644); err != nil {
		return "", err
	}
	_ = store.SetConfig("icon_hash", want)
	return path, nil
}
