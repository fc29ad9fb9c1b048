// Package config はアプリケーション設定の読み込みを提供する。
//
// 設定は優先度の高い順に、コマンドラインフラグ・環境変数・appsettings.json の
// FiwireSettings セクション・デフォルト値から解決する。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"fiwire-token/internal/domain"
)

// DefaultSettingsFile は設定ファイルのデフォルト名。
const DefaultSettingsFile = "appsettings.json"

// 設定キー（viperのキーは大文字小文字を区別しない）。
const (
	KeySharedSecret     = "FiwireSettings.SharedSecret"
	KeyKey              = "FiwireSettings.Key"
	KeyIV               = "FiwireSettings.IV"
	KeyKeyEncoding      = "FiwireSettings.KeyEncoding"
	KeyTextPolicy       = "FiwireSettings.TextPolicy"
	KeyTimeZone         = "FiwireSettings.TimeZone"
	KeyLogLevel         = "LogLevel"
	KeyKMSKeyName       = "KMSKeyName"
	KeyOtelEnabled      = "OtelEnabled"
	KeyOtelEndpoint     = "OtelEndpoint"
	KeyOtelInsecure     = "OtelInsecure"
	KeyOtelServiceName  = "OtelServiceName"
	KeyOtelSamplingRate = "OtelSamplingRate"
)

// envBindings は設定キーと環境変数の対応。
var envBindings = map[string]string{
	KeySharedSecret:     "FIWIRE_SHARED_SECRET",
	KeyKey:              "FIWIRE_KEY",
	KeyIV:               "FIWIRE_IV",
	KeyKeyEncoding:      "FIWIRE_KEY_ENCODING",
	KeyTextPolicy:       "FIWIRE_TEXT_POLICY",
	KeyTimeZone:         "FIWIRE_TIME_ZONE",
	KeyLogLevel:         "LOG_LEVEL",
	KeyKMSKeyName:       "KMS_KEY_NAME",
	KeyOtelEnabled:      "OTEL_ENABLED",
	KeyOtelEndpoint:     "OTEL_ENDPOINT",
	KeyOtelInsecure:     "OTEL_INSECURE",
	KeyOtelServiceName:  "OTEL_SERVICE_NAME",
	KeyOtelSamplingRate: "OTEL_SAMPLING_RATE",
}

// flagBindings は設定キーとコマンドラインフラグ名の対応。
var flagBindings = map[string]string{
	KeySharedSecret: "shared",
	KeyKey:          "key",
	KeyIV:           "iv",
	KeyKeyEncoding:  "key-encoding",
	KeyTextPolicy:   "text-policy",
	KeyTimeZone:     "time-zone",
	KeyLogLevel:     "log-level",
}

// Config はアプリケーション設定を表す。
type Config struct {
	// SettingsFile は実際に読み込んだ設定ファイルのパス（読み込んでいない場合は空）。
	SettingsFile string

	// SharedSecretSet は共有シークレットが（空文字列を含め）明示的に設定されたかを表す。
	SharedSecretSet bool
	SharedSecret    string
	Key             string
	IV              string
	KeyEncoding     domain.KeyEncoding
	TextPolicy      domain.TextPolicy
	Location        *time.Location

	LogLevel   string
	KMSKeyName string

	OtelEnabled      bool
	OtelEndpoint     string
	// OtelInsecure はTLSなしでコレクターに接続する（ローカルのコレクター向け）。
	OtelInsecure     bool
	OtelServiceName  string
	OtelSamplingRate float64
}

// LoadOptions は設定読み込みの入力。
type LoadOptions struct {
	// SettingsPath は --config で指定された設定ファイルまたはディレクトリのパス。
	SettingsPath string

	// Flags はviperにバインドするフラグセット（nil可）。
	Flags *pflag.FlagSet
}

// Load は設定を読み込む。
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")

	v.SetDefault(KeyKeyEncoding, string(domain.KeyEncodingASCII))
	v.SetDefault(KeyTextPolicy, string(domain.TextPolicyStrict))
	v.SetDefault(KeyLogLevel, "WARN")
	v.SetDefault(KeyOtelEnabled, false)
	v.SetDefault(KeyOtelEndpoint, "localhost:4317")
	v.SetDefault(KeyOtelInsecure, false)
	v.SetDefault(KeyOtelServiceName, "fiwiretoken")
	v.SetDefault(KeyOtelSamplingRate, 1.0)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding env %s: %w", env, err)
		}
	}

	if opts.Flags != nil {
		for key, name := range flagBindings {
			f := opts.Flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding flag --%s: %w", name, err)
			}
		}
	}

	path, explicit := ResolveSettingsPath(opts.SettingsPath)
	settingsFile := ""
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading settings %s: %w", path, err)
		}
		settingsFile = path
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	} else if explicit {
		return nil, fmt.Errorf("%w: %s", domain.ErrSettingsNotFound, path)
	}

	keyEncoding, err := domain.ParseKeyEncoding(v.GetString(KeyKeyEncoding))
	if err != nil {
		return nil, err
	}
	textPolicy, err := domain.ParseTextPolicy(v.GetString(KeyTextPolicy))
	if err != nil {
		return nil, err
	}
	loc, err := loadLocation(v.GetString(KeyTimeZone))
	if err != nil {
		return nil, err
	}

	return &Config{
		SettingsFile:     settingsFile,
		SharedSecret:     v.GetString(KeySharedSecret),
		SharedSecretSet:  v.IsSet(KeySharedSecret),
		Key:              v.GetString(KeyKey),
		IV:               v.GetString(KeyIV),
		KeyEncoding:      keyEncoding,
		TextPolicy:       textPolicy,
		Location:         loc,
		LogLevel:         v.GetString(KeyLogLevel),
		KMSKeyName:       v.GetString(KeyKMSKeyName),
		OtelEnabled:      v.GetBool(KeyOtelEnabled),
		OtelEndpoint:     v.GetString(KeyOtelEndpoint),
		OtelInsecure:     v.GetBool(KeyOtelInsecure),
		OtelServiceName:  v.GetString(KeyOtelServiceName),
		OtelSamplingRate: v.GetFloat64(KeyOtelSamplingRate),
	}, nil
}

// ResolveSettingsPath は --config の値から設定ファイルのパスを決める。
// 空の場合はカレントディレクトリの appsettings.json（任意）、拡張子付きならそのファイル、
// それ以外はディレクトリとみなして appsettings.json を付与する。
func ResolveSettingsPath(p string) (path string, explicit bool) {
	if p == "" {
		return DefaultSettingsFile, false
	}
	if filepath.Ext(p) != "" {
		return p, true
	}
	return filepath.Join(p, DefaultSettingsFile), true
}

// RequireKeyMaterial は鍵とIVが設定されていることを検証する。
func (c *Config) RequireKeyMaterial() error {
	var missing []string
	if c.Key == "" {
		missing = append(missing, "key (--key, FIWIRE_KEY or FiwireSettings.Key)")
	}
	if c.IV == "" {
		missing = append(missing, "iv (--iv, FIWIRE_IV or FiwireSettings.IV)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrMissingSetting, strings.Join(missing, ", "))
	}
	return nil
}

// RequireSharedSecret は共有シークレットが設定されていることを検証する。
// 明示的に設定されていれば空文字列や空白のみの値も受け付ける。
func (c *Config) RequireSharedSecret() error {
	if !c.SharedSecretSet {
		return fmt.Errorf("%w: shared secret (--shared, FIWIRE_SHARED_SECRET or FiwireSettings.SharedSecret)", domain.ErrMissingSetting)
	}
	return nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "Local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", name, err)
	}
	return loc, nil
}
