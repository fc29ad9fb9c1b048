package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fiwire-token/internal/crypto"
	"fiwire-token/internal/domain"
)

// wrapKeyCmd は既存の鍵・IVをCloud KMSで暗号化し、kmsエンコーディングの設定値を出力するコマンド。
func wrapKeyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "wrap-key <value>",
		Short: "Wrap an existing key or IV with Cloud KMS for --key-encoding=kms",
		Long: "Wrap an existing key or IV with Cloud KMS (KMS_KEY_NAME) and print the base64\n" +
			"ciphertext to store in FiwireSettings. The value is read with --key-encoding (ascii or base64).",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := a.setup(ctx, cmd, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.cfg.KeyEncoding == domain.KeyEncodingKMS {
				return fmt.Errorf("%w: wrap-key reads ascii or base64 values", domain.ErrInvalidKeyEncoding)
			}

			raw, err := rt.resolver.Resolve(ctx, "value", args[0], rt.cfg.KeyEncoding)
			if err != nil {
				return err
			}
			defer crypto.Zero(raw)

			if len(raw) != crypto.KeySize && len(raw) != crypto.IVSize {
				return fmt.Errorf("%w: value must be %d (key) or %d (iv) bytes, got %d",
					domain.ErrInvalidKeyMaterial, crypto.KeySize, crypto.IVSize, len(raw))
			}

			wrapped, err := rt.resolver.Wrap(ctx, raw)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), wrapped)
			return nil
		},
	}
}
