package domain

import "time"

// RewardDateLayout is the calendar-day format used across all ledgers.
const RewardDateLayout = "2006-01-02"

// ReportingZone is the fixed reporting timezone (KST, UTC+9). Reward dates
// are attributed in this zone regardless of where the service runs.
var ReportingZone = time.FixedZone("KST", 9*60*60)

// RewardDateOf returns the calendar day of t in the reporting timezone.
func RewardDateOf(t time.Time) string {
	return t.In(ReportingZone).Format(RewardDateLayout)
}

// TodayKST returns today's reward date in the reporting timezone.
func TodayKST() string {
	return RewardDateOf(time.Now())
}

// ValidRewardDate reports whether s is a well-formed YYYY-MM-DD day.
func ValidRewardDate(s string) bool {
	_, err := time.Parse(RewardDateLayout, s)
	return err == nil
}
