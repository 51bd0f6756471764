package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CronExpression is a parsed 5-field cron expression:
// minute hour day-of-month month day-of-week.
// Examples:
//   - "*/5 * * * *"  - every 5 minutes
//   - "0 */3 * * *"  - every three hours
//   - "0 21 * * *"   - every day at 21:00
//   - "0 0 * * 0"    - every Sunday at midnight
//
// As in classic cron, when neither day field starts with "*" a time matches
// if either of them does.
type CronExpression struct {
	raw      string
	minutes  set
	hours    set
	days     set
	months   set
	weekdays set
	anyDay   bool
	anyWday  bool
}

// set is a bitmask of allowed values, max 63.
type set uint64

func (s set) has(v int) bool { return s&(1<<uint(v)) != 0 }

// ParseCronExpression parses a cron expression string.
// Each field supports *, */n, n, n-m, n-m/s and comma-separated lists of those.
func ParseCronExpression(expr string) (*CronExpression, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("invalid cron expression %q: expected 5 fields, got %d", expr, len(fields))
	}

	ce := &CronExpression{
		raw:     expr,
		anyDay:  strings.HasPrefix(fields[2], "*"),
		anyWday: strings.HasPrefix(fields[4], "*"),
	}

	specs := []struct {
		name     string
		dst      *set
		min, max int
	}{
		{"minute", &ce.minutes, 0, 59},
		{"hour", &ce.hours, 0, 23},
		{"day", &ce.days, 1, 31},
		{"month", &ce.months, 1, 12},
		{"weekday", &ce.weekdays, 0, 7},
	}
	for i, spec := range specs {
		s, err := parseField(fields[i], spec.min, spec.max)
		if err != nil {
			return nil, fmt.Errorf("invalid %s field: %w", spec.name, err)
		}
		*spec.dst = s
	}

	// 7 is an alias for Sunday.
	if ce.weekdays.has(7) {
		ce.weekdays |= 1
	}
	return ce, nil
}

// parseField parses one field, a comma-separated list of terms.
func parseField(field string, min, max int) (set, error) {
	var result set
	for _, term := range strings.Split(field, ",") {
		s, err := parseTerm(term, min, max)
		if err != nil {
			return 0, err
		}
		result |= s
	}
	return result, nil
}

func parseTerm(term string, min, max int) (set, error) {
	step := 1
	if base, stepStr, ok := strings.Cut(term, "/"); ok {
		v, err := strconv.Atoi(stepStr)
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("invalid step value: %q", stepStr)
		}
		step = v
		term = base
	}

	var start, end int
	switch {
	case term == "*":
		start, end = min, max
	case strings.Contains(term, "-"):
		lo, hi, _ := strings.Cut(term, "-")
		var err error
		if start, err = atoiInRange(lo, min, max); err != nil {
			return 0, err
		}
		if end, err = atoiInRange(hi, min, max); err != nil {
			return 0, err
		}
		if start > end {
			return 0, fmt.Errorf("invalid range: %q", term)
		}
	default:
		v, err := atoiInRange(term, min, max)
		if err != nil {
			return 0, err
		}
		start, end = v, v
		// "5/15" means 5, 20, 35, 50.
		if step > 1 {
			end = max
		}
	}

	var s set
	for i := start; i <= end; i += step {
		s |= 1 << uint(i)
	}
	return s, nil
}

func atoiInRange(v string, min, max int) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value: %q", v)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("value out of range [%d-%d]: %d", min, max, n)
	}
	return n, nil
}

// String returns the original cron expression.
func (ce *CronExpression) String() string {
	return ce.raw
}

// Next returns the first matching minute strictly after the given time,
// or the zero time if nothing matches within five years.
func (ce *CronExpression) Next(after time.Time) time.Time {
	t := after.Truncate(time.Minute).Add(time.Minute)
	limit := t.AddDate(5, 0, 0)

	for t.Before(limit) {
		if !ce.months.has(int(t.Month())) {
			t = time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
			continue
		}
		if !ce.dayMatches(t) {
			t = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
			continue
		}
		if !ce.hours.has(t.Hour()) {
			t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, t.Location())
			continue
		}
		if !ce.minutes.has(t.Minute()) {
			t = t.Add(time.Minute)
			continue
		}
		return t
	}
	return time.Time{}
}

func (ce *CronExpression) dayMatches(t time.Time) bool {
	dom := ce.days.has(t.Day())
	dow := ce.weekdays.has(int(t.Weekday()))
	if ce.anyDay || ce.anyWday {
		return dom && dow
	}
	return dom || dow
}

// Common cron expression presets.
const (
	EveryMinute      = "* * * * *"
	Every5Minutes    = "*/5 * * * *"
	EveryHour        = "0 * * * *"
	Every3Hours      = "0 */3 * * *"
	EveryDayMidnight = "0 0 * * *"
)

// MustParseCronExpression parses a cron expression or panics.
// Use only for compile-time constants.
func MustParseCronExpression(expr string) *CronExpression {
	ce, err := ParseCronExpression(expr)
	if err != nil {
		panic(fmt.Sprintf("invalid cron expression %q: %v", expr, err))
	}
	return ce
}
