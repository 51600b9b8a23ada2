package journal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/freight/internal/cargo"
	"github.com/roach88/freight/internal/store"
)

// domainEmission separates emission IDs from any other hash of the same
// bytes.
const domainEmission = "freight/emission/v1"

// EmissionID returns the content-addressed ID of an emission and its
// canonical cargo. Recording the same emission twice yields the same ID.
func EmissionID(e store.Emission) (id string, canonicalCargo []byte, err error) {
	canonicalCargo, err = cargo.MarshalCanonical(e.Cargo)
	if err != nil {
		return "", nil, fmt.Errorf("marshal cargo: %w", err)
	}
	key, err := cargo.MarshalCanonical(map[string]any{
		"store": e.Store,
		"seq":   e.Seq,
		"cargo": e.Cargo,
	})
	if err != nil {
		return "", nil, fmt.Errorf("marshal emission: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(domainEmission))
	h.Write([]byte{0x00})
	h.Write(key)
	return hex.EncodeToString(h.Sum(nil)), canonicalCargo, nil
}

// Record implements store.Recorder. Duplicate emissions are ignored.
func (j *Journal) Record(ctx context.Context, e store.Emission) error {
	id, data, err := EmissionID(e)
	if err != nil {
		return fmt.Errorf("record emission: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO emissions (id, store, seq, cargo)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, e.Store, e.Seq, string(data))
	if err != nil {
		return fmt.Errorf("record emission: %w", err)
	}
	return nil
}
