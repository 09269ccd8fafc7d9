package pkg

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	cardRe   = regexp.MustCompile(`^\d{16}$`)
	expiryRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvRe    = regexp.MustCompile(`^\d{3}$`)
)

// PaymentFields 只做格式校验，不扣款
type PaymentFields struct {
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}

// Invalid 返回格式不合法的字段名，全部合法时为空
func (p PaymentFields) Invalid() []string {
	var bad []string
	card := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, p.CardNumber)
	if !cardRe.MatchString(card) {
		bad = append(bad, "card_number")
	}
	if !expiryRe.MatchString(strings.TrimSpace(p.Expiry)) {
		bad = append(bad, "expiry")
	}
	if !cvvRe.MatchString(strings.TrimSpace(p.CVV)) {
		bad = append(bad, "cvv")
	}
	return bad
}
