// Package snapshot loads engine input documents and derives their identity.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/davidahmann/tradedesk/internal/crypto"
	"github.com/davidahmann/tradedesk/pkg/types"
	"github.com/spf13/afero"
)

// Load reads a snapshot JSON file. Unknown fields are ignored.
func Load(fs afero.Fs, path string) (types.Snapshot, error) {
	f, err := fs.Open(path)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	snap, err := Decode(f)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return snap, nil
}

func Decode(r io.Reader) (types.Snapshot, error) {
	var snap types.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return types.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// ID is the digest of the snapshot's canonical JSON form.
func ID(snap types.Snapshot) (string, error) {
	view, err := crypto.JSONView(snap)
	if err != nil {
		return "", err
	}
	return crypto.CanonicalDigest(view)
}
