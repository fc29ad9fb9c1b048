// Package audit はトークン操作の監査ログを提供する。
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Result は監査ログに記録する操作結果。
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// Entry は監査ログの構造体。鍵・IV・シークレット・平文は含めない。
type Entry struct {
	Operation   string `json:"operation"`
	RunID       string `json:"run_id"`
	KeyEncoding string `json:"key_encoding"`
	Result      Result `json:"result"`
	Error       string `json:"error,omitempty"`
}

// Write は監査ログを出力する。
func Write(ctx context.Context, e Entry) {
	level := slog.LevelInfo
	if e.Result == ResultFailure {
		level = slog.LevelWarn
	}

	attrs := []any{
		"operation", e.Operation,
		"run_id", e.RunID,
		"key_encoding", e.KeyEncoding,
		"result", string(e.Result),
		"timestamp", time.Now().UTC().Format(time.RFC3339),
	}
	if e.Error != "" {
		attrs = append(attrs, "error", e.Error)
	}
	slog.Log(ctx, level, "token operation completed", attrs...)
}
