package service

import (
	"errors"

	"gorm.io/gorm"
)

// notFound 把 gorm 的未找到换成业务错误，其余错误原样返回
func notFound(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func pageOf(page, size, def, max int) (offset, limit int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > max {
		size = def
	}
	return (page - 1) * size, size
}
