// Package usecase はアプリケーションのユースケースを実装する。
package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fiwire-token/internal/audit"
	"fiwire-token/internal/crypto"
	"fiwire-token/internal/domain"
)

const tracerName = "fiwire-token/internal/usecase"

// Credentials は1回の変換に使う鍵・IVの設定値とそのエンコーディング。
type Credentials struct {
	Key      string
	IV       string
	Encoding domain.KeyEncoding
}

// TokenService はFiwire認証トークンの生成と復号を提供する。
type TokenService struct {
	resolver *KeyResolver
	clock    func() time.Time
	location *time.Location
	policy   domain.TextPolicy
	tracer   trace.Tracer
}

// Option はTokenServiceの設定を変更する。
type Option func(*TokenService)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(clock func() time.Time) Option {
	return func(s *TokenService) { s.clock = clock }
}

// WithLocation はタイムスタンプのタイムゾーンを指定する。
func WithLocation(loc *time.Location) Option {
	return func(s *TokenService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithTextPolicy は非ASCII文字の扱いを指定する。
func WithTextPolicy(policy domain.TextPolicy) Option {
	return func(s *TokenService) { s.policy = policy }
}

// NewTokenService は新しいTokenServiceを生成する。
func NewTokenService(resolver *KeyResolver, opts ...Option) *TokenService {
	s := &TokenService{
		resolver: resolver,
		clock:    time.Now,
		location: time.Local,
		policy:   domain.TextPolicyStrict,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate は現在時刻と共有シークレットから平文を組み立て、暗号化したbase64トークンを返す。
func (s *TokenService) Generate(ctx context.Context, sharedSecret string, cred Credentials) (token string, err error) {
	ctx, span := s.tracer.Start(ctx, "token.generate",
		trace.WithAttributes(attribute.String("key_encoding", string(cred.Encoding))))
	defer func() { s.finish(ctx, span, "generate", cred, err) }()

	engine, err := s.engine(ctx, cred)
	if err != nil {
		return "", err
	}
	defer engine.Wipe()

	plaintext := BuildPlaintext(sharedSecret, s.clock().In(s.location))
	token, err = engine.EncryptString(plaintext, s.policy)
	if err != nil {
		return "", fmt.Errorf("encrypting token: %w", err)
	}
	return token, nil
}

// Decrypt はbase64トークンを復号し、平文を返す。
func (s *TokenService) Decrypt(ctx context.Context, token string, cred Credentials) (plaintext string, err error) {
	ctx, span := s.tracer.Start(ctx, "token.decrypt",
		trace.WithAttributes(attribute.String("key_encoding", string(cred.Encoding))))
	defer func() { s.finish(ctx, span, "decrypt", cred, err) }()

	engine, err := s.engine(ctx, cred)
	if err != nil {
		return "", err
	}
	defer engine.Wipe()

	plaintext, err = engine.DecryptString(strings.TrimSpace(token), s.policy)
	if err != nil {
		return "", fmt.Errorf("decrypting token: %w", err)
	}
	return plaintext, nil
}

// Location はタイムスタンプに使うタイムゾーンを返す。
func (s *TokenService) Location() *time.Location {
	return s.location
}

// engine は設定値から鍵・IVを解決してEngineを生成する。解決したバイト列はすぐにゼロクリアする。
func (s *TokenService) engine(ctx context.Context, cred Credentials) (*crypto.Engine, error) {
	key, err := s.resolver.Resolve(ctx, "key", cred.Key, cred.Encoding)
	if err != nil {
		return nil, fmt.Errorf("resolving key: %w", err)
	}
	defer crypto.Zero(key)

	iv, err := s.resolver.Resolve(ctx, "iv", cred.IV, cred.Encoding)
	if err != nil {
		return nil, fmt.Errorf("resolving iv: %w", err)
	}
	defer crypto.Zero(iv)

	return crypto.New(key, iv)
}

func (s *TokenService) finish(ctx context.Context, span trace.Span, operation string, cred Credentials, err error) {
	entry := audit.Entry{
		Operation:   operation,
		RunID:       uuid.NewString(),
		KeyEncoding: string(cred.Encoding),
		Result:      audit.ResultSuccess,
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		entry.Result = audit.ResultFailure
		entry.Error = err.Error()
	}
	audit.Write(ctx, entry)
	span.End()
}
