package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"fiwire-token/internal/domain"
)

// KMSClient は鍵の暗号化/復号のインターフェース。
type KMSClient interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// KeyResolver は設定値の鍵・IV文字列を指定のエンコーディングに従って生バイト列に変換する。
// 長さの検証は行わない（crypto.New で行う）。
type KeyResolver struct {
	kmsClient KMSClient
}

// NewKeyResolver は新しいKeyResolverを生成する。kmsエンコーディングを使わない場合 kmsClient は nil でよい。
func NewKeyResolver(kmsClient KMSClient) *KeyResolver {
	return &KeyResolver{kmsClient: kmsClient}
}

// Resolve は name（"key" や "iv"）で示される設定値をバイト列に変換する。
func (r *KeyResolver) Resolve(ctx context.Context, name, value string, encoding domain.KeyEncoding) ([]byte, error) {
	switch encoding {
	case domain.KeyEncodingASCII:
		for i := 0; i < len(value); i++ {
			if value[i] >= utf8.RuneSelf {
				return nil, fmt.Errorf("%w: %s contains non-ASCII characters", domain.ErrInvalidKeyMaterial, name)
			}
		}
		return []byte(value), nil

	case domain.KeyEncodingBase64:
		b, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s is not valid base64: %v", domain.ErrInvalidKeyMaterial, name, err)
		}
		return b, nil

	case domain.KeyEncodingKMS:
		if r.kmsClient == nil {
			return nil, domain.ErrKMSUnavailable
		}
		wrapped, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s is not valid base64: %v", domain.ErrInvalidKeyMaterial, name, err)
		}
		b, err := r.kmsClient.Decrypt(ctx, wrapped)
		if err != nil {
			return nil, fmt.Errorf("unwrapping %s: %w", name, err)
		}
		return b, nil

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidKeyEncoding, encoding)
	}
}

// Wrap は鍵・IVのバイト列をKMSで暗号化し、kmsエンコーディングの設定値（base64）を返す。
func (r *KeyResolver) Wrap(ctx context.Context, raw []byte) (string, error) {
	if r.kmsClient == nil {
		return "", domain.ErrKMSUnavailable
	}
	wrapped, err := r.kmsClient.Encrypt(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("wrapping key material: %w", err)
	}
	return base64.StdEncoding.EncodeToString(wrapped), nil
}
