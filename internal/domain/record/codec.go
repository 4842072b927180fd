package record

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"vaultkeeper/internal/apperr"
)

// DecryptFailedMarker replaces a field whose ciphertext did not authenticate.
const DecryptFailedMarker = "[decryption failed]"

const defaultDecodeLimit = 8

// Sealer encrypts and decrypts single values. The vault session implements it.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(wire string) (string, error)
}

type Codec struct {
	sealer Sealer
}

func NewCodec(sealer Sealer) *Codec {
	return &Codec{sealer: sealer}
}

// ToWire encrypts every secret field. Empty fields become nil without a
// cipher call.
func (c *Codec) ToWire(cred Credential) (WireRecord, error) {
	w := WireRecord{
		ID:         cred.ID,
		OwnerID:    cred.OwnerID,
		ModifiedAt: cred.ModifiedAt,
	}

	for _, f := range Fields {
		plain := *f.Plain(&cred)
		if plain == "" {
			continue
		}

		sealed, err := c.sealer.Seal(plain)
		if err != nil {
			return WireRecord{}, fmt.Errorf("encrypt %s: %w", f.Bare, err)
		}
		*f.Encrypted(&w) = &sealed
	}

	return w, nil
}

// FromWire decrypts every set field. A field that fails to authenticate is
// set to DecryptFailedMarker and its bare name is returned in failed; the
// rest of the record is still decoded. Any other error (a locked vault)
// aborts.
func (c *Codec) FromWire(w WireRecord) (cred Credential, failed []string, err error) {
	cred = Credential{
		ID:         w.ID,
		OwnerID:    w.OwnerID,
		ModifiedAt: w.ModifiedAt,
	}

	for _, f := range Fields {
		enc := *f.Encrypted(&w)
		if enc == nil {
			continue
		}

		plain, err := c.sealer.Open(*enc)
		switch {
		case err == nil:
			*f.Plain(&cred) = plain
		case errors.Is(err, apperr.ErrIntegrity):
			*f.Plain(&cred) = DecryptFailedMarker
			failed = append(failed, f.Bare)
		default:
			return Credential{}, nil, fmt.Errorf("decrypt %s: %w", f.Bare, err)
		}
	}

	return cred, failed, nil
}

// Decoded is one record out of DecodeAll.
type Decoded struct {
	Credential Credential
	Failed     []string
}

// DecodeAll decrypts records concurrently, at most limit at a time. Output
// order matches input. Field failures stay inside their record.
func (c *Codec) DecodeAll(ctx context.Context, records []WireRecord, limit int) ([]Decoded, error) {
	if limit <= 0 {
		limit = defaultDecodeLimit
	}

	out := make([]Decoded, len(records))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cred, failed, err := c.FromWire(records[i])
			if err != nil {
				return fmt.Errorf("record %d: %w", records[i].ID, err)
			}
			out[i] = Decoded{Credential: cred, Failed: failed}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
