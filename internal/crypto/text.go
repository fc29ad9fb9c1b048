package crypto

import (
	"fmt"
	"unicode/utf8"

	"fiwire-token/internal/domain"
)

const replacementChar = '?'

// EncodeText は文字列をASCIIバイト列へ変換する。
// strict では非ASCII文字で domain.ErrEncoding を返し、replace では '?' に置き換える。
func EncodeText(s string, policy domain.TextPolicy) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i, r := range s {
		if r < utf8.RuneSelf {
			out = append(out, byte(r))
			continue
		}
		switch policy {
		case domain.TextPolicyReplace:
			out = append(out, replacementChar)
		case domain.TextPolicyStrict:
			Zero(out)
			return nil, fmt.Errorf("%w: non-ASCII character at byte offset %d", domain.ErrEncoding, i)
		default:
			Zero(out)
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidTextPolicy, policy)
		}
	}
	return out, nil
}

// DecodeText は復号済みバイト列をASCII文字列として解釈する。
func DecodeText(b []byte, policy domain.TextPolicy) (string, error) {
	out := make([]byte, len(b))
	for i, c := range b {
		if c < utf8.RuneSelf {
			out[i] = c
			continue
		}
		switch policy {
		case domain.TextPolicyReplace:
			out[i] = replacementChar
		case domain.TextPolicyStrict:
			return "", fmt.Errorf("%w: non-ASCII byte 0x%02x at offset %d", domain.ErrEncoding, c, i)
		default:
			return "", fmt.Errorf("%w: %q", domain.ErrInvalidTextPolicy, policy)
		}
	}
	return string(out), nil
}
