package ecs

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration 凭证缺失等配置错误
	ErrConfiguration = errors.New("ecs configuration error")

	// ErrValidation 操作参数不合法
	ErrValidation = errors.New("ecs validation error")
)

// ConfigurationError 缺少必需的凭证字段，签名前即失败，不会重试
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// Unwrap 使 errors.Is(err, ErrConfiguration) 成立
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// ValidationError 操作参数不合法
type ValidationError struct {
	Operation string
	Field     string
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s request: %s %s", e.Operation, e.Field, e.Reason)
}

// Unwrap 使 errors.Is(err, ErrValidation) 成立
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
