package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayLayout — формат календарной даты, которым обмениваются с бэкендом.
const DayLayout = "2006-01-02"

// MaxRangeDays — наибольшая длина диапазона дат, который можно запросить за раз.
const MaxRangeDays = 31

// ParseDay разбирает дату вида YYYY-MM-DD в полночь указанной зоны.
// Допускаются числа без ведущих нулей; переполнение дня или месяца нормализуется.
func ParseDay(raw string, loc *time.Location) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
		}
		nums[i] = n
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Date(nums[0], time.Month(nums[1]), nums[2], 0, 0, 0, 0, loc), nil
}

// FormatDay форматирует календарную дату в её собственной зоне.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// DayRange разворачивает включительный диапазон дат в список дней по порядку.
// Диапазон длиннее MaxRangeDays отклоняется.
func DayRange(start, end string) ([]string, error) {
	from, err := ParseDay(start, time.UTC)
	if err != nil {
		return nil, err
	}
	to, err := ParseDay(end, time.UTC)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: %s is after %s", ErrInvalidDate, start, end)
	}
	if span := int(to.Sub(from).Hours()/24) + 1; span > MaxRangeDays {
		return nil, fmt.Errorf("%w: range of %d days exceeds %d", ErrInvalidDate, span, MaxRangeDays)
	}
	var days []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, FormatDay(d))
	}
	return days, nil
}
