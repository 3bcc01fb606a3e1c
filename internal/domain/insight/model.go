package insight

import (
	"time"

	"github.com/studyloop/revise/internal/domain/revision"
)

// RetentionScore is the composite 0-100 retention metric for an owner.
type RetentionScore struct {
	Score          int     `json:"score"`
	CompletionRate int     `json:"completion_rate"`
	AvgAccuracy    float64 `json:"avg_accuracy"`
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Missed         int     `json:"missed"`
}

// Counts are the raw aggregates the score is computed from.
type Counts struct {
	Total         int
	Completed     int
	Missed        int
	AccuracySum   int
	AccuracyCount int
}

// TopicRef identifies a topic within a course.
type TopicRef struct {
	Course     revision.Course `json:"course"`
	TopicID    string          `json:"topic_id"`
	TopicTitle string          `json:"topic_title"`
}

// WeakTopic is a topic the learner reported shaky comprehension on.
type WeakTopic struct {
	TopicRef
	ItemCount int `json:"item_count"`
}

// StaleTopic is a topic last revised too long ago.
type StaleTopic struct {
	TopicRef
	LastCompletedAt time.Time `json:"last_completed_at"`
}

// MissedTopic is a topic the learner keeps missing revisions for.
type MissedTopic struct {
	TopicRef
	MissedCount int `json:"missed_count"`
}

// Suggestions groups the derived study hints for an owner.
type Suggestions struct {
	WeakTopics       []WeakTopic   `json:"weak_topics"`
	StaleTopics      []StaleTopic  `json:"stale_topics"`
	FrequentlyMissed []MissedTopic `json:"frequently_missed"`
}
