package errors

import (
	"errors"
	"fmt"
)

// PersistenceError 存储层调用失败（网络、约束冲突等）
// 操作在失败的那一步中止，之前已写入的步骤不会回滚
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("存储操作 %s 失败: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence 包装存储错误；err 为 nil 时返回 nil，已包装的错误原样返回
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistence 判断错误链中是否包含 PersistenceError
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
