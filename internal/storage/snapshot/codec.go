package snapshot

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/yndnr/recofeed-go/internal/core/domain"
	"github.com/yndnr/recofeed-go/pkg/crypto/adaptive"
)

// frameFormat is the version of the outer frame, independent of the
// record's schemaVersion.
const frameFormat = 1

type frame struct {
	Format  int                 `json:"format"`
	Cipher  adaptive.CipherType `json:"cipher,omitempty"`
	Payload []byte              `json:"payload"`
}

type record[T any] struct {
	SchemaVersion int            `json:"schemaVersion"`
	CapturedAt    time.Time      `json:"capturedAt"`
	Filters       domain.Filters `json:"filters"`
	Items         []T            `json:"items"`
}

func encode[T any](rec record[T], c adaptive.Cipher, aad []byte) ([]byte, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}

	f := frame{Format: frameFormat, Payload: body}
	if c != nil {
		sealed, err := c.Encrypt(body, aad)
		if err != nil {
			return nil, fmt.Errorf("seal record: %w", err)
		}
		f.Cipher = c.Type()
		f.Payload = sealed
	}

	return json.Marshal(f)
}

func decode[T any](data []byte, c adaptive.Cipher, aad []byte) (record[T], error) {
	var rec record[T]

	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return rec, fmt.Errorf("unmarshal frame: %w", err)
	}
	if f.Format != frameFormat {
		return rec, fmt.Errorf("unsupported frame format %d", f.Format)
	}

	body := f.Payload
	switch {
	case f.Cipher == "" && c == nil:
	case f.Cipher == "":
		return rec, fmt.Errorf("record is not encrypted but a cipher is configured")
	case c == nil:
		return rec, fmt.Errorf("record is encrypted with %s but no cipher is configured", f.Cipher)
	case f.Cipher != c.Type():
		return rec, fmt.Errorf("record cipher %s does not match configured %s", f.Cipher, c.Type())
	default:
		plain, err := c.Decrypt(f.Payload, aad)
		if err != nil {
			return rec, ErrDecryptionFailed
		}
		body = plain
	}

	if err := json.Unmarshal(body, &rec); err != nil {
		return rec, fmt.Errorf("unmarshal record: %w", err)
	}
	return rec, nil
}
