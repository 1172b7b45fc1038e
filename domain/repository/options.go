package repository

import "time"

// WithUserID filters by the "user_id" column.
func WithUserID(id int64) Option {
	return WithCondition("user_id", id)
}

// WithUserIDIn filters by the "user_id" column using IN.
func WithUserIDIn(ids []int64) Option {
	return WithConditionIn("user_id", ids)
}

// WithJobID filters by the "job_id" column.
func WithJobID(id string) Option {
	return WithCondition("job_id", id)
}

// WithCareerIDIn filters by the "career_id" column using IN.
func WithCareerIDIn(ids []string) Option {
	return WithConditionIn("career_id", ids)
}

// WithSessionID filters by the "session_id" column.
func WithSessionID(id string) Option {
	return WithCondition("session_id", id)
}

// WithEventTypeIn filters by the "event_type" column using IN.
func WithEventTypeIn(types []string) Option {
	return WithConditionIn("event_type", types)
}

// WithSince keeps rows whose timestamp is at or after t.
func WithSince(t time.Time) Option {
	return WithConditionCompare("ts", OpGreaterEq, t)
}

// WithUntil keeps rows whose timestamp is strictly before t.
func WithUntil(t time.Time) Option {
	return WithConditionCompare("ts", OpLess, t)
}

// WithKnownUser drops rows without a user.
func WithKnownUser() Option {
	return WithNotNull("user_id")
}
