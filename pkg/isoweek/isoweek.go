// Package isoweek 提供 ISO-8601 周次相关的日期计算。
//
// 排班界面按周展示周一至周六，周日不排班。
package isoweek

import (
	"errors"
	"time"
)

// DateLayout 日期键格式（与数据库 date 列一致）
const DateLayout = "2006-01-02"

var ErrInvalidWeek = errors.New("无效的 ISO 周次")

// Of 返回日期所属的 ISO 年与周次
func Of(t time.Time) (year, week int) {
	return t.ISOWeek()
}

// WeeksInYear 返回该 ISO 年的周数（52 或 53）
// 12 月 28 日总是落在该年的最后一个 ISO 周
func WeeksInYear(year int) int {
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

// Valid 校验周次是否在该年范围内
func Valid(year, week int) bool {
	return year >= 1970 && year <= 9999 && week >= 1 && week <= WeeksInYear(year)
}

// Monday 返回指定 ISO 周的周一（loc 时区零点）
func Monday(year, week int, loc *time.Location) (time.Time, error) {
	if !Valid(year, week) {
		return time.Time{}, ErrInvalidWeek
	}
	if loc == nil {
		loc = time.UTC
	}
	// 1 月 4 日总在第 1 周
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	offset := (int(jan4.Weekday()) + 6) % 7
	firstMonday := jan4.AddDate(0, 0, -offset)
	return firstMonday.AddDate(0, 0, (week-1)*7), nil
}

// Days 返回指定 ISO 周的周一至周六
func Days(year, week int, loc *time.Location) ([]time.Time, error) {
	monday, err := Monday(year, week, loc)
	if err != nil {
		return nil, err
	}
	days := make([]time.Time, 6)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days, nil
}

// Parity 周次奇偶：even | odd
func Parity(week int) string {
	if week%2 == 0 {
		return "even"
	}
	return "odd"
}

// ── 法语星期名 ──

var dayNames = map[time.Weekday]string{
	time.Monday:    "Lundi",
	time.Tuesday:   "Mardi",
	time.Wednesday: "Mercredi",
	time.Thursday:  "Jeudi",
	time.Friday:    "Vendredi",
	time.Saturday:  "Samedi",
}

// DayName 返回星期的法语名称；周日返回空串
func DayName(d time.Weekday) string {
	return dayNames[d]
}

// ParseDayName 法语星期名 → time.Weekday
func ParseDayName(name string) (time.Weekday, bool) {
	for d, n := range dayNames {
		if n == name {
			return d, true
		}
	}
	return time.Sunday, false
}

// ParseDate 解析 YYYY-MM-DD
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, s, loc)
}
