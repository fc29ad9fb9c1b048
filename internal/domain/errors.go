package domain

import "errors"

var (
	// ErrInvalidKeyMaterial は鍵またはIVの長さ・表現が不正な場合のエラー。
	ErrInvalidKeyMaterial = errors.New("invalid key material")

	// ErrDecryption は復号に失敗した場合のエラー（base64不正・ブロック長不正・パディング不正）。
	ErrDecryption = errors.New("decryption failed")

	// ErrEncoding は文字列が固定の1バイト文字コードで表現できない場合のエラー。
	ErrEncoding = errors.New("unsupported character encoding")

	// ErrInvalidKeyEncoding は鍵エンコーディング指定が不正な場合のエラー。
	ErrInvalidKeyEncoding = errors.New("invalid key encoding")

	// ErrInvalidTextPolicy は文字コード変換ポリシーの指定が不正な場合のエラー。
	ErrInvalidTextPolicy = errors.New("invalid text policy")

	// ErrMissingSetting は必須設定が未指定の場合のエラー。
	ErrMissingSetting = errors.New("missing required setting")

	// ErrSettingsNotFound は明示された設定ファイルが存在しない場合のエラー。
	ErrSettingsNotFound = errors.New("settings file not found")

	// ErrKMSUnavailable はkmsエンコーディングが指定されたがKMSクライアントがない場合のエラー。
	ErrKMSUnavailable = errors.New("kms client is not configured")

	// ErrMalformedPlaintext は復号結果がトークン平文の形式でない場合のエラー。
	ErrMalformedPlaintext = errors.New("malformed token plaintext")
)
