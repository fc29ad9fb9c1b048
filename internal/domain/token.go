// Package domain はドメインモデルとビジネスルールを定義する。
package domain

import (
	"fmt"
	"strings"
)

// KeyEncoding は設定値として与えられた鍵・IV文字列の表現形式を表す。
type KeyEncoding string

const (
	// KeyEncodingASCII はASCII文字列のバイト列をそのまま鍵として使う（旧形式）。
	KeyEncodingASCII KeyEncoding = "ascii"
	// KeyEncodingBase64 はbase64文字列をデコードしたバイト列を鍵として使う。
	KeyEncodingBase64 KeyEncoding = "base64"
	// KeyEncodingKMS はCloud KMSで暗号化された鍵（base64）を復号して使う。
	KeyEncodingKMS KeyEncoding = "kms"
)

// ParseKeyEncoding は文字列からKeyEncodingを解釈する。
func ParseKeyEncoding(s string) (KeyEncoding, error) {
	switch e := KeyEncoding(strings.ToLower(strings.TrimSpace(s))); e {
	case KeyEncodingASCII, KeyEncodingBase64, KeyEncodingKMS:
		return e, nil
	default:
		return "", fmt.Errorf("%w: %q (want ascii, base64 or kms)", ErrInvalidKeyEncoding, s)
	}
}

// TextPolicy は平文を1バイト文字コードへ変換する際の非ASCII文字の扱いを表す。
type TextPolicy string

const (
	// TextPolicyStrict は非ASCII文字をエラーにする。
	TextPolicyStrict TextPolicy = "strict"
	// TextPolicyReplace は非ASCII文字を '?' に置き換える。
	TextPolicyReplace TextPolicy = "replace"
)

// ParseTextPolicy は文字列からTextPolicyを解釈する。
func ParseTextPolicy(s string) (TextPolicy, error) {
	switch p := TextPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case TextPolicyStrict, TextPolicyReplace:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q (want strict or replace)", ErrInvalidTextPolicy, s)
	}
}
