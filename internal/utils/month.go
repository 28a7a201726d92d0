package utils

import (
	"strconv"
	"strings"
)

var monthsRu = [12]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

var monthsEn = [12]string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// MonthRu returns the Russian name of month m (1-12), or "" when out of range.
func MonthRu(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthsRu[m-1]
}

// ParseMonth accepts a month number, a Russian or English month name in
// any case, or a 3+ letter prefix of one. It returns 0 when s is not a month.
func ParseMonth(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= 12 {
			return n
		}
		return 0
	}
	for i := 0; i < 12; i++ {
		ru := strings.ToLower(monthsRu[i])
		if s == ru || s == monthsEn[i] {
			return i + 1
		}
	}
	if len([]rune(s)) < 3 {
		return 0
	}
	for i := 0; i < 12; i++ {
		if strings.HasPrefix(strings.ToLower(monthsRu[i]), s) || strings.HasPrefix(monthsEn[i], s) {
			return i + 1
		}
	}
	return 0
}
