package main

import (
	"fmt"
	"log/slog"
)

// parseLogLevel は不明な値のとき info とエラーを返す
func parseLogLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", name, err)
	}
	return level, nil
}
