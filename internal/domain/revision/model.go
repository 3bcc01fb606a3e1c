package revision

import "time"

// Course identifies the subject a revision item belongs to
type Course string

const (
	CourseDSA      Course = "dsa"
	CourseWebDev   Course = "webdev"
	CourseDBMS     Course = "dbms"
	CourseOS       Course = "os"
	CourseNetworks Course = "networks"
	CourseAptitude Course = "aptitude"
)

// Understanding is the learner's self-reported grasp after a lesson
type Understanding string

const (
	UnderstandingConfused Understanding = "confused"
	UnderstandingPartial  Understanding = "partial"
	UnderstandingClear    Understanding = "clear"
	UnderstandingCrystal  Understanding = "crystal"
)

// RevisionType is the activity the learner performs for a revision
type RevisionType string

const (
	TypeNotes   RevisionType = "notes"
	TypeQuiz    RevisionType = "quiz"
	TypeRecall  RevisionType = "recall"
	TypeCoding  RevisionType = "coding"
	TypeExplain RevisionType = "explain"
)

// Priority orders items when the calendar is contended
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Status represents the lifecycle state of a revision item
type Status string

const (
	StatusPending     Status = "pending"
	StatusCompleted   Status = "completed"
	StatusMissed      Status = "missed"
	StatusSkipped     Status = "skipped"
	StatusRescheduled Status = "rescheduled"
)

// Performance records the outcome of a completed revision
type Performance struct {
	Accuracy  int    `json:"accuracy"`
	Attempts  int    `json:"attempts"`
	HintsUsed int    `json:"hints_used"`
	QuizID    string `json:"quiz_id,omitempty"`
}

// Item is a single scheduled revision. Items are never deleted: completed and
// missed items remain as the learner's historical record.
type Item struct {
	ID          string  `json:"id"`
	OwnerID     string  `json:"owner_id"`
	Course      Course  `json:"course"`
	TopicID     string  `json:"topic_id"`
	TopicTitle  string  `json:"topic_title"`
	LessonID    *string `json:"lesson_id,omitempty"`
	LessonTitle *string `json:"lesson_title,omitempty"`

	ScheduledDate    time.Time    `json:"scheduled_date"`
	IntervalDay      int          `json:"interval_day"`
	RevisionType     RevisionType `json:"revision_type"`
	Priority         Priority     `json:"priority"`
	EstimatedMinutes int          `json:"estimated_minutes"`
	Rationale        string       `json:"rationale"`

	InitialUnderstanding Understanding `json:"initial_understanding"`
	OriginalDate         *time.Time    `json:"original_date,omitempty"`
	RescheduleCount      int           `json:"reschedule_count"`
	SpawnedExtra         bool          `json:"spawned_extra"`

	Status      Status       `json:"status"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Performance *Performance `json:"performance,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// CompletionEvent is emitted by the external progress tracker when a learner
// finishes a lesson and reports a comprehension tier.
type CompletionEvent struct {
	OwnerID       string        `json:"owner_id"`
	Course        Course        `json:"course"`
	TopicID       string        `json:"topic_id"`
	TopicTitle    string        `json:"topic_title"`
	LessonID      *string       `json:"lesson_id,omitempty"`
	LessonTitle   *string       `json:"lesson_title,omitempty"`
	Understanding Understanding `json:"understanding"`
	CompletedAt   time.Time     `json:"completed_at"`
}

// BatchKey is the idempotency key guarding schedule generation
type BatchKey struct {
	OwnerID  string
	Course   Course
	TopicID  string
	LessonID *string
}

// ScheduleBatch records that a schedule was generated for a completion key
type ScheduleBatch struct {
	ID        string    `json:"id"`
	Key       BatchKey  `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidCourse reports whether c is one of the known subject codes.
func ValidCourse(c Course) bool {
	switch c {
	case CourseDSA, CourseWebDev, CourseDBMS, CourseOS, CourseNetworks, CourseAptitude:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusSkipped
}
