package writer

import (
	"encoding/binary"
	"fmt"

	"github.com/njcx/auditlogd/cryptoaead"
)

// EncodeFrame wraps bytes for on-disk storage (spec §6 "on-disk segment
// file layout"):
//
//	plain:     [ len u32 ][ raw bytes ]
//	encrypted: [ ciphertext_len u32 ][ ciphertext ][ GCM tag, 16 bytes ]
//
// The wire format names a ciphertext_len field but no separate nonce
// field; GCM requires a fresh nonce per seal, so EncodeFrame prepends the
// nonce to the ciphertext it counts under ciphertext_len (an
// implementation decision recorded in DESIGN.md, analogous to how
// _examples/SaveTheRbtz-zstd-seekable-format-go's skippable frames carry
// their own header ahead of the payload they bound).
func EncodeFrame(raw []byte, useEncryption bool, key []byte) ([]byte, error) {
	if !useEncryption {
		out := make([]byte, 4+len(raw))
		binary.LittleEndian.PutUint32(out, uint32(len(raw)))
		copy(out[4:], raw)
		return out, nil
	}

	nonce, err := cryptoaead.NewNonce()
	if err != nil {
		return nil, fmt.Errorf("writer: %w", err)
	}
	sealed, err := cryptoaead.Encrypt(raw, key, nonce)
	if err != nil {
		return nil, fmt.Errorf("writer: %w", err)
	}
	ctLen := len(sealed) - cryptoaead.TagSize
	ciphertext := sealed[:ctLen]
	tag := sealed[ctLen:]

	body := make([]byte, len(nonce)+len(ciphertext))
	copy(body, nonce)
	copy(body[len(nonce):], ciphertext)

	out := make([]byte, 4+len(body)+len(tag))
	binary.LittleEndian.PutUint32(out, uint32(len(body)))
	copy(out[4:], body)
	copy(out[4+len(body):], tag)
	return out, nil
}

// ErrTruncatedFrame indicates a partial trailing frame at EOF (spec §6:
// "a partial trailing frame at EOF indicates truncation").
var ErrTruncatedFrame = fmt.Errorf("writer: truncated frame")

// DecodeFrame reverses EncodeFrame, returning the raw payload and the
// number of bytes consumed from buf.
func DecodeFrame(buf []byte, useEncryption bool, key []byte) ([]byte, int, error) {
	if len(buf) < 4 {
		return nil, 0, ErrTruncatedFrame
	}
	bodyLen := int(binary.LittleEndian.Uint32(buf))

	if !useEncryption {
		if len(buf) < 4+bodyLen {
			return nil, 0, ErrTruncatedFrame
		}
		raw := append([]byte(nil), buf[4:4+bodyLen]...)
		return raw, 4 + bodyLen, nil
	}

	total := 4 + bodyLen + cryptoaead.TagSize
	if len(buf) < total {
		return nil, 0, ErrTruncatedFrame
	}
	body := buf[4 : 4+bodyLen]
	tag := buf[4+bodyLen : total]
	if len(body) < cryptoaead.NonceSize {
		return nil, 0, ErrTruncatedFrame
	}
	nonce := body[:cryptoaead.NonceSize]
	ciphertext := body[cryptoaead.NonceSize:]

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	raw, err := cryptoaead.Decrypt(sealed, key, nonce)
	if err != nil {
		return nil, 0, fmt.Errorf("writer: %w", err)
	}
	return raw, total, nil
}
