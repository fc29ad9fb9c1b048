package usecase

import (
	"fmt"
	"strings"
	"time"

	"fiwire-token/internal/domain"
)

const (
	// TimestampLayout はトークン平文のタイムスタンプ形式（yyyy-MM-ddTHH:mm:ss）。
	TimestampLayout = "2006-01-02T15:04:05"
	// Separator はタイムスタンプと共有シークレットの区切り文字。
	Separator = "|"
)

// BuildPlaintext はトークンの平文 "<timestamp>|<sharedSecret>" を組み立てる。
// 共有シークレットは検証しない（空文字列や "|" を含む値もそのまま使う）。
func BuildPlaintext(sharedSecret string, now time.Time) string {
	return now.Format(TimestampLayout) + Separator + sharedSecret
}

// ParsePlaintext はトークン平文をタイムスタンプと共有シークレットに分解する。
// タイムスタンプは "|" を含まないため、最初の区切りで分割すればシークレット側の "|" は保持される。
func ParsePlaintext(plaintext string, loc *time.Location) (time.Time, string, error) {
	ts, secret, ok := strings.Cut(plaintext, Separator)
	if !ok {
		return time.Time{}, "", fmt.Errorf("%w: separator %q not found", domain.ErrMalformedPlaintext, Separator)
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(TimestampLayout, ts, loc)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: %v", domain.ErrMalformedPlaintext, err)
	}
	return t, secret, nil
}
