// Package errors 提供统一错误辅助，不依赖 internal
package errors

import (
	"errors"
	"fmt"
)

// 常用哨兵错误（可按需扩展错误码）
var (
	ErrInvalidArg = errors.New("invalid argument")
	// ErrSnapshotCorrupt 任务快照无法反序列化，该任务不允许自动重试
	ErrSnapshotCorrupt = errors.New("job snapshot corrupt")
)

// Wrap 包装错误并附加消息
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 带格式的 Wrap
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is 转发 errors.Is，调用方无需同时 import 标准库 errors
func Is(err, target error) bool {
	return errors.Is(err, target)
}
