// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"time"
)

// AuditLog は監査ログの構造体。
type AuditLog struct {
	Operation string `json:"operation"`
	Alias     string `json:"alias"`
	Result    string `json:"result"`
	Timestamp string `json:"timestamp"`
}

// WriteAuditLog は監査ログを出力する。
func WriteAuditLog(ctx context.Context, operation string, alias string, result string) {
	slog.InfoContext(ctx, "key operation completed",
		"operation", operation,
		"alias", alias,
		"result", result,
		"timestamp", time.Now().UTC().Format(time.RFC3339),
	)
}
