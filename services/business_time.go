package services

import "time"

const (
	// 営業時間（平日 9:00〜17:00）
	WorkdayStartHour = 9
	WorkdayEndHour   = 17

	// この営業日数を経過したレビュー依頼は自動で削除する
	ExpiryWorkingDays = 5
)

// isWorkingDay は月〜金なら true を返す
func isWorkingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// BusinessDuration は [start, end) のうち営業時間に含まれる時間を返す
// 営業時間は start のタイムゾーンで判定する
func BusinessDuration(start, end time.Time) time.Duration {
	if !start.Before(end) {
		return 0
	}

	loc := start.Location()
	end = end.In(loc)

	var total time.Duration
	current := start
	for current.Before(end) {
		y, m, d := current.Date()
		if isWorkingDay(current) {
			from := current
			if dayStart := time.Date(y, m, d, WorkdayStartHour, 0, 0, 0, loc); from.Before(dayStart) {
				from = dayStart
			}
			to := time.Date(y, m, d, WorkdayEndHour, 0, 0, 0, loc)
			if end.Before(to) {
				to = end
			}
			if from.Before(to) {
				total += to.Sub(from)
			}
		}

		// 翌日の営業開始時刻へ進める
		current = time.Date(y, m, d+1, WorkdayStartHour, 0, 0, 0, loc)
	}

	return total
}

// WorkingDaysBetween は start から1日ずつ進め、now までに経過した平日の数を返す
// 到達した日が平日なら1日と数えるので、start の日そのものは数えない
func WorkingDaysBetween(start, now time.Time) int {
	days := 0
	for current := start.AddDate(0, 0, 1); !current.After(now); current = current.AddDate(0, 0, 1) {
		if isWorkingDay(current) {
			days++
		}
	}
	return days
}
