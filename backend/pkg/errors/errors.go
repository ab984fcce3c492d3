// Package errors 存放跨 repository 与 service 层共享的通用业务错误。
package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：带 version 列的行（如开课记录）
// 在 CAS 更新时发现已被其他操作抢先修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")
