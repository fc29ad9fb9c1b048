package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// encryptCmd はトークンの生成コマンド。
func encryptCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Generate a token from the current time and the shared secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEncrypt(cmd)
		},
	}
	cmd.Flags().StringP("shared", "s", "", "The shared secret key (FIWIRE_SHARED_SECRET)")
	return cmd
}

func (a *app) runEncrypt(cmd *cobra.Command) error {
	ctx := cmd.Context()

	rt, err := a.setup(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.cfg.RequireKeyMaterial(); err != nil {
		return err
	}
	if err := rt.cfg.RequireSharedSecret(); err != nil {
		return err
	}

	token, err := rt.service.Generate(ctx, rt.cfg.SharedSecret, credentials(rt.cfg))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
