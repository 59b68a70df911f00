package models

import (
	"encoding/json"
	"time"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

// TaskStatuses lists every accepted status in display order.
var TaskStatuses = []TaskStatus{StatusPending, StatusInProgress, StatusCompleted}

func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar day serialized as YYYY-MM-DD. The time part is always
// midnight UTC.
type Date struct {
	time.Time
}

// DateOf truncates t to its calendar day in t's location and returns it as a Date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *Date      `json:"due_date"`
	Status      TaskStatus `json:"status"`
	OwnerID     *string    `json:"owner"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// OwnedBy reports whether userID is the task owner. Orphaned tasks are owned by nobody.
func (t *Task) OwnedBy(userID string) bool {
	return t.OwnerID != nil && *t.OwnerID == userID
}

type StatusCount struct {
	Status TaskStatus `json:"status"`
	Count  int        `json:"count"`
}

type Dashboard struct {
	TotalTasks         int           `json:"total_tasks"`
	StatusDistribution []StatusCount `json:"status_distribution"`
}

// OptionalDate tells an absent JSON key apart from an explicit null. Set is
// true whenever the key was present.
type OptionalDate struct {
	Set  bool
	Date *Date
}

func (o *OptionalDate) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Date = nil
		return nil
	}
	var d Date
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	o.Date = &d
	return nil
}

// TaskEvent is pushed to the owner's live feed after every task mutation.
type TaskEvent struct {
	Type   string `json:"type"`
	TaskID string `json:"task_id"`
	Task   *Task  `json:"task,omitempty"`
}

const (
	TaskCreated = "task.created"
	TaskUpdated = "task.updated"
	TaskDeleted = "task.deleted"
)
