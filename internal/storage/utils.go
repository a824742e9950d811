package storage

import (
	"errors"
	"strconv"
)

// ErrInvalidID 路径或参数中的 ID 不是正整数。
var ErrInvalidID = errors.New("invalid id")

// ParseID 将路径参数转换为 uint 主键，0 和负数都视为无效。
func ParseID(s string) (uint, error) {
	val, err := strconv.ParseUint(s, 10, 32)
	if err != nil || val == 0 {
		return 0, ErrInvalidID
	}
	return uint(val), nil
}
