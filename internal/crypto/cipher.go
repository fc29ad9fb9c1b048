// Package crypto はFiwire認証トークン用のAES-256-CBC暗号化・復号を提供する。
//
// アルゴリズムは固定（AES、鍵長256bit、ブロック長128bit、CBC、PKCS7）で、
// 鍵とIVは呼び出しごとに New で検証した上で Engine に閉じ込める。
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"github.com/mergermarket/go-pkcs7"

	"fiwire-token/internal/domain"
)

const (
	// KeySize はAES-256の鍵長（バイト）。
	KeySize = 32
	// IVSize はIV長（AESのブロック長）。
	IVSize = aes.BlockSize
)

// Engine は1回の変換のために生成されるAES-256-CBC暗号器。
// 鍵・IVはグローバルに保持せず、呼び出しごとに New で生成する。
type Engine struct {
	block cipher.Block
	iv    [IVSize]byte
}

// New は鍵とIVの長さを検証し、Engineを生成する。
// 長さが不正な場合は暗号処理を一切行わずに domain.ErrInvalidKeyMaterial を返す。
func New(key, iv []byte) (*Engine, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", domain.ErrInvalidKeyMaterial, KeySize, len(key))
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes, got %d", domain.ErrInvalidKeyMaterial, IVSize, len(iv))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidKeyMaterial, err)
	}

	e := &Engine{block: block}
	copy(e.iv[:], iv)
	return e, nil
}

// Encrypt は平文をPKCS7でパディングしCBCで暗号化する。
// 戻り値の長さは常に16の倍数。
func (e *Engine) Encrypt(plaintext []byte) ([]byte, error) {
	padded, err := pkcs7.Pad(plaintext, aes.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("padding plaintext: %w", err)
	}

	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(e.block, e.iv[:]).CryptBlocks(ciphertext, padded)
	Zero(padded)
	return ciphertext, nil
}

// Decrypt はCBCで復号しPKCS7パディングを検証・除去する。
func (e *Engine) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a positive multiple of %d",
			domain.ErrDecryption, len(ciphertext), aes.BlockSize)
	}

	decrypted := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(e.block, e.iv[:]).CryptBlocks(decrypted, ciphertext)

	// go-pkcs7 の Unpad は末尾バイトしか見ないため、先にパディング全体を検証する。
	if !validPadding(decrypted) {
		Zero(decrypted)
		return nil, fmt.Errorf("%w: invalid padding", domain.ErrDecryption)
	}
	plaintext, err := pkcs7.Unpad(decrypted, aes.BlockSize)
	if err != nil {
		Zero(decrypted)
		return nil, fmt.Errorf("%w: invalid padding", domain.ErrDecryption)
	}
	return plaintext, nil
}

// EncryptString は文字列を1バイト文字コードに変換して暗号化し、base64で返す。
func (e *Engine) EncryptString(plaintext string, policy domain.TextPolicy) (string, error) {
	b, err := EncodeText(plaintext, policy)
	if err != nil {
		return "", err
	}
	defer Zero(b)

	ciphertext, err := e.Encrypt(b)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptString はbase64トークンを復号して文字列を返す。
func (e *Engine) DecryptString(token string, policy domain.TextPolicy) (string, error) {
	ciphertext, err := base64.StdEncoding.Strict().DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: decoding base64: %v", domain.ErrDecryption, err)
	}

	b, err := e.Decrypt(ciphertext)
	if err != nil {
		return "", err
	}
	defer Zero(b)

	return DecodeText(b, policy)
}

// Wipe はEngineが保持するIVのコピーをゼロクリアする。
func (e *Engine) Wipe() {
	Zero(e.iv[:])
}

// Encrypt は鍵とIVからEngineを生成して平文を暗号化する。
func Encrypt(plaintext, key, iv []byte) ([]byte, error) {
	e, err := New(key, iv)
	if err != nil {
		return nil, err
	}
	defer e.Wipe()
	return e.Encrypt(plaintext)
}

// Decrypt は鍵とIVからEngineを生成して暗号文を復号する。
func Decrypt(ciphertext, key, iv []byte) ([]byte, error) {
	e, err := New(key, iv)
	if err != nil {
		return nil, err
	}
	defer e.Wipe()
	return e.Decrypt(ciphertext)
}

// Zero はバイト列をゼロクリアする。
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// validPadding は末尾 n バイトがすべて n（1..16）であることを定数時間で確認する。
func validPadding(b []byte) bool {
	if len(b) < aes.BlockSize {
		return false
	}
	tail := b[len(b)-aes.BlockSize:]
	n := tail[aes.BlockSize-1]
	ok := subtle.ConstantTimeLessOrEq(1, int(n)) & subtle.ConstantTimeLessOrEq(int(n), aes.BlockSize)
	for i := 0; i < aes.BlockSize; i++ {
		// i が末尾 n バイトに含まれる場合のみ比較する
		inPad := subtle.ConstantTimeLessOrEq(aes.BlockSize, i+int(n))
		eq := subtle.ConstantTimeByteEq(tail[i], n)
		ok &= eq | (inPad ^ 1)
	}
	return ok == 1
}
