package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 使用场景：
//   - 推荐入口：未知用户 NOT_FOUND、limit 非法 INVALID_ARGUMENT
//   - 策略切换：未知策略名 INVALID_ARGUMENT
//   - 相似图：边权重或阈值越界 INVALID_ARGUMENT
//   - 存储：key 不存在 NOT_FOUND
//
// "没有结果"不是错误：空目录、过滤后为空、未知种子都返回空列表。
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "INVALID_ARGUMENT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "recommend", "graph", "store"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// NotFoundf 创建 NOT_FOUND 错误
func NotFoundf(module, format string, args ...any) *DomainError {
	return NewDomainError(module, ErrorCodeNotFound, fmt.Sprintf(format, args...))
}

// InvalidArgumentf 创建 INVALID_ARGUMENT 错误
func InvalidArgumentf(module, format string, args ...any) *DomainError {
	return NewDomainError(module, ErrorCodeInvalidArgument, fmt.Sprintf(format, args...))
}

// 错误代码常量
const (
	ErrorCodeNotFound        = "NOT_FOUND"        // 资源不存在
	ErrorCodeInvalidArgument = "INVALID_ARGUMENT" // 输入无效
)

// 模块名称常量
const (
	ModuleCore      = "core"
	ModuleStore     = "store"
	ModuleGraph     = "graph"
	ModuleRecommend = "recommend"
	ModuleConfig    = "config"
)

// GetDomainError 获取 DomainError（穿透 %w 包装），如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// IsDomainError 检查错误链中是否包含 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsInvalidArgument 检查错误是否为 INVALID_ARGUMENT
func IsInvalidArgument(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidArgument
	}
	return false
}
