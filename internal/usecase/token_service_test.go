package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"fiwire-token/internal/domain"
)

const fixtureToken = "0cg2JrdRDKdzQL9JyAr30E7IBgAnWbHSnq/g4Uxif0A="

func fixedClock() time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func fixtureCredentials() Credentials {
	return Credentials{
		Key:      base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x01}, 32)),
		IV:       base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x02}, 16)),
		Encoding: domain.KeyEncodingBase64,
	}
}

func newFixtureService(opts ...Option) *TokenService {
	opts = append([]Option{WithClock(fixedClock), WithLocation(time.UTC)}, opts...)
	return NewTokenService(NewKeyResolver(nil), opts...)
}

func TestTokenService_Generate_Fixture(t *testing.T) {
	svc := newFixtureService()

	token, err := svc.Generate(context.Background(), "abc123", fixtureCredentials())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != fixtureToken {
		t.Errorf("want token %s, got %s", fixtureToken, token)
	}
}

func TestTokenService_Generate_ASCIIKey(t *testing.T) {
	svc := newFixtureService()
	cred := Credentials{
		Key:      "0123456789abcdef0123456789abcdef",
		IV:       "abcdef9876543210",
		Encoding: domain.KeyEncodingASCII,
	}

	token, err := svc.Generate(context.Background(), "abc123", cred)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "vRrQ0pG97Qa0r8Ci5Vo5gqjPloSgFyuEaqTYoWFmkRQ="; token != want {
		t.Errorf("want token %s, got %s", want, token)
	}
}

func TestTokenService_Generate_UsesLocation(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	svc := newFixtureService(WithLocation(jst))

	token, err := svc.Generate(context.Background(), "abc123", fixtureCredentials())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	plaintext, err := svc.Decrypt(context.Background(), token, fixtureCredentials())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "2024-01-01T09:00:00|abc123"; plaintext != want {
		t.Errorf("want %q, got %q", want, plaintext)
	}
}

func TestTokenService_Decrypt_Fixture(t *testing.T) {
	svc := newFixtureService()

	plaintext, err := svc.Decrypt(context.Background(), fixtureToken+"\n", fixtureCredentials())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "2024-01-01T00:00:00|abc123"; plaintext != want {
		t.Errorf("want %q, got %q", want, plaintext)
	}
}

func TestTokenService_RoundTrip_SecretWithSeparator(t *testing.T) {
	svc := newFixtureService()

	token, err := svc.Generate(context.Background(), "left|right", fixtureCredentials())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	plaintext, err := svc.Decrypt(context.Background(), token, fixtureCredentials())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ts, secret, err := ParsePlaintext(plaintext, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ts.Equal(fixedClock()) {
		t.Errorf("want timestamp %s, got %s", fixedClock(), ts)
	}
	if secret != "left|right" {
		t.Errorf("want secret left|right, got %q", secret)
	}
}

func TestTokenService_Generate_InvalidKeyLength(t *testing.T) {
	svc := newFixtureService()
	cred := Credentials{Key: "too-short", IV: "abcdef9876543210", Encoding: domain.KeyEncodingASCII}

	_, err := svc.Generate(context.Background(), "abc123", cred)
	if !errors.Is(err, domain.ErrInvalidKeyMaterial) {
		t.Errorf("want ErrInvalidKeyMaterial, got %v", err)
	}
}

func TestTokenService_Generate_InvalidIVLength(t *testing.T) {
	svc := newFixtureService()
	cred := fixtureCredentials()
	cred.IV = base64.StdEncoding.EncodeToString(make([]byte, 8))

	_, err := svc.Generate(context.Background(), "abc123", cred)
	if !errors.Is(err, domain.ErrInvalidKeyMaterial) {
		t.Errorf("want ErrInvalidKeyMaterial, got %v", err)
	}
}

func TestTokenService_Generate_NonASCIISecret(t *testing.T) {
	svc := newFixtureService()

	_, err := svc.Generate(context.Background(), "sécret", fixtureCredentials())
	if !errors.Is(err, domain.ErrEncoding) {
		t.Errorf("want ErrEncoding, got %v", err)
	}
}

func TestTokenService_Generate_NonASCIISecretReplaced(t *testing.T) {
	svc := newFixtureService(WithTextPolicy(domain.TextPolicyReplace))

	token, err := svc.Generate(context.Background(), "sécret", fixtureCredentials())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	plaintext, err := svc.Decrypt(context.Background(), token, fixtureCredentials())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "2024-01-01T00:00:00|s?cret"; plaintext != want {
		t.Errorf("want %q, got %q", want, plaintext)
	}
}

func TestTokenService_Decrypt_WrongIV(t *testing.T) {
	svc := newFixtureService()
	cred := fixtureCredentials()
	cred.IV = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x03}, 16))

	plaintext, err := svc.Decrypt(context.Background(), fixtureToken, cred)
	if err == nil && plaintext == "2024-01-01T00:00:00|abc123" {
		t.Fatal("Decrypt() with wrong iv reproduced the original plaintext")
	}
}

func TestTokenService_Decrypt_Corrupted(t *testing.T) {
	svc := newFixtureService()

	_, err := svc.Decrypt(context.Background(), "AAAA", fixtureCredentials())
	if !errors.Is(err, domain.ErrDecryption) {
		t.Errorf("want ErrDecryption, got %v", err)
	}
}

func TestTokenService_Generate_KMS(t *testing.T) {
	kms := &mockKMSClient{}
	svc := NewTokenService(NewKeyResolver(kms), WithClock(fixedClock), WithLocation(time.UTC))

	wrap := func(b []byte) string {
		s, err := NewKeyResolver(kms).Wrap(context.Background(), b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return s
	}
	cred := Credentials{
		Key:      wrap(bytes.Repeat([]byte{0x01}, 32)),
		IV:       wrap(bytes.Repeat([]byte{0x02}, 16)),
		Encoding: domain.KeyEncodingKMS,
	}

	token, err := svc.Generate(context.Background(), "abc123", cred)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != fixtureToken {
		t.Errorf("want token %s, got %s", fixtureToken, token)
	}
	if len(kms.decryptedInput) != 2 {
		t.Errorf("want 2 KMS decrypt calls, got %d", len(kms.decryptedInput))
	}
}
