package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fiwire-token/internal/usecase"
)

// decryptCmd はトークンの復号コマンド。
func decryptCmd(a *app) *cobra.Command {
	var inspect bool
	cmd := &cobra.Command{
		Use:   "decrypt <token|->",
		Short: "Decrypt a token and print its plaintext",
		Long:  "Decrypt a token and print its plaintext. Pass - to read the token from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := args[0]
			if token == "-" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading token from stdin: %w", err)
				}
				token = line
			}
			return a.runDecrypt(cmd, token, inspect)
		},
	}
	cmd.Flags().BoolVar(&inspect, "inspect", false, "Print the timestamp and shared secret separated by a tab")
	return cmd
}

func (a *app) runDecrypt(cmd *cobra.Command, token string, inspect bool) error {
	ctx := cmd.Context()

	rt, err := a.setup(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.cfg.RequireKeyMaterial(); err != nil {
		return err
	}

	plaintext, err := rt.service.Decrypt(ctx, strings.TrimSpace(token), credentials(rt.cfg))
	if err != nil {
		return err
	}

	if !inspect {
		fmt.Fprintln(cmd.OutOrStdout(), plaintext)
		return nil
	}

	ts, secret, err := usecase.ParsePlaintext(plaintext, rt.service.Location())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", ts.Format(usecase.TimestampLayout), secret)
	return nil
}
