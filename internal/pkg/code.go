package pkg

import (
	"crypto/rand"
	"math/big"
)

// CodeLength 邮箱验证码位数
const CodeLength = 6

var ten = big.NewInt(10)

// RandDigits n 位数字，允许前导 0
func RandDigits(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	buf := make([]byte, n)
	for i := range buf {
		x, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + x.Int64())
	}
	return string(buf), nil
}
