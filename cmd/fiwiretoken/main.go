// Package main はFiwire認証トークンを生成するCLIのエントリポイント。
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fiwire-token/config"
	"fiwire-token/internal/domain"
	"fiwire-token/internal/infra"
	"fiwire-token/internal/usecase"
)

const version = "1.0.0"

// app はコマンド間で共有する実行時の依存。
type app struct {
	logOut     io.Writer
	now        func() time.Time
	configPath string
}

func main() {
	a := &app{logOut: os.Stderr, now: time.Now}
	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	var decryptToken string

	rootCmd := &cobra.Command{
		Use:   "fiwiretoken",
		Short: "Generate the Fiwire authentication token",
		Long: "Generate the Fiwire authentication token: the current timestamp and the shared secret,\n" +
			"encrypted with AES-256-CBC (PKCS7) and printed as base64.\n\n" +
			"Settings are read from flags, environment variables (FIWIRE_*), .env and the\n" +
			"FiwireSettings section of appsettings.json, in that order of precedence.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		Version:      version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .envファイルを読み込む（存在しない場合は無視）
			// 既存の環境変数は上書きしない
			_ = godotenv.Load()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// 空白のみの -d は未指定として扱い、生成を行う
			if strings.TrimSpace(decryptToken) != "" {
				return a.runDecrypt(cmd, decryptToken, false)
			}
			return a.runEncrypt(cmd)
		},
	}

	// グローバルフラグ
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "Path to appsettings.json or its directory")
	pf.StringP("key", "k", "", "The private key (FIWIRE_KEY)")
	pf.StringP("iv", "i", "", "The IV value (FIWIRE_IV)")
	pf.String("key-encoding", "", "How --key and --iv are encoded: ascii, base64, kms (default ascii)")
	pf.String("text-policy", "", "Non-ASCII handling: strict, replace (default strict)")
	pf.String("time-zone", "", "IANA time zone for the token timestamp (default Local)")
	pf.String("log-level", "", "Log level: DEBUG, INFO, WARN, ERROR (default WARN)")

	rootCmd.Flags().StringP("shared", "s", "", "The shared secret key (FIWIRE_SHARED_SECRET)")
	rootCmd.Flags().StringVarP(&decryptToken, "decrypt", "d", "", "Decrypt the given token instead of generating one")

	// サブコマンド登録
	rootCmd.AddCommand(encryptCmd(a))
	rootCmd.AddCommand(decryptCmd(a))
	rootCmd.AddCommand(wrapKeyCmd(a))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// versionCmd はバージョン情報を表示する。
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fiwiretoken version %s\n", version)
		},
	}
}

// session は1回のコマンド実行に必要な設定とサービス。
type session struct {
	cfg      *config.Config
	resolver *usecase.KeyResolver
	service  *usecase.TokenService
	closers  []func()
}

func (r *session) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// setup は設定を読み込み、ロガー・トレーサー・KMSクライアントを初期化してサービスを組み立てる。
func (a *app) setup(ctx context.Context, cmd *cobra.Command, needKMS bool) (*session, error) {
	cfg, err := config.Load(config.LoadOptions{SettingsPath: a.configPath, Flags: cmd.Flags()})
	if err != nil {
		return nil, err
	}

	infra.SetupLogger(a.logOut, cfg)
	if cfg.SettingsFile != "" {
		slog.DebugContext(ctx, "loaded settings", "file", cfg.SettingsFile)
	}

	rt := &session{cfg: cfg}

	tp, err := infra.InitTracer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing tracer: %w", err)
	}
	if tp != nil {
		rt.closers = append(rt.closers, func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				slog.Error("failed to shutdown tracer", "error", err)
			}
		})
	}

	var kmsClient usecase.KMSClient
	if needKMS || cfg.KeyEncoding == domain.KeyEncodingKMS {
		c, err := infra.NewKMSClient(ctx, cfg.KMSKeyName)
		if err != nil {
			rt.Close()
			return nil, errors.Join(domain.ErrKMSUnavailable, err)
		}
		rt.closers = append(rt.closers, func() {
			if err := c.Close(); err != nil {
				slog.Error("failed to close KMS client", "error", err)
			}
		})
		kmsClient = c
	}

	rt.resolver = usecase.NewKeyResolver(kmsClient)
	rt.service = usecase.NewTokenService(rt.resolver,
		usecase.WithClock(a.now),
		usecase.WithLocation(cfg.Location),
		usecase.WithTextPolicy(cfg.TextPolicy),
	)
	return rt, nil
}

func credentials(cfg *config.Config) usecase.Credentials {
	return usecase.Credentials{
		Key:      cfg.Key,
		IV:       cfg.IV,
		Encoding: cfg.KeyEncoding,
	}
}
