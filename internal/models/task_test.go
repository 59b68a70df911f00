package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStatus_Valid(t *testing.T) {
	for _, s := range TaskStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, TaskStatus("done").Valid())
	assert.False(t, TaskStatus("").Valid())
}

func TestDate_JSON(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"title":"T","due_date":"2026-03-01"}`), &task))
	require.NotNil(t, task.DueDate)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), task.DueDate.Time)

	b, err := json.Marshal(task)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"due_date":"2026-03-01"`)
	assert.Contains(t, string(b), `"due_date":"2026-03-01","status":"","owner":null`)
}

func TestDate_RejectsDateTime(t *testing.T) {
	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"2026-03-01T10:00:00Z"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`12`), &d))
}

func TestDateOf_TruncatesToDay(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	d := DateOf(time.Date(2026, 10, 15, 23, 30, 0, 0, loc))
	assert.Equal(t, "2026-10-15", d.String())
}

func TestTask_OwnedBy(t *testing.T) {
	owner := "u1"
	task := &Task{OwnerID: &owner}
	assert.True(t, task.OwnedBy("u1"))
	assert.False(t, task.OwnedBy("u2"))

	orphan := &Task{}
	assert.False(t, orphan.OwnedBy("u1"))
}

func TestUser_FullName(t *testing.T) {
	u := &User{FirstName: "Ada", LastName: "Lovelace"}
	assert.Equal(t, "Ada Lovelace", u.FullName())
	assert.Equal(t, "Ada", (&User{FirstName: "Ada"}).FullName())
}

func TestOptionalDate(t *testing.T) {
	var in struct {
		DueDate OptionalDate `json:"due_date"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{}`), &in))
	assert.False(t, in.DueDate.Set)

	require.NoError(t, json.Unmarshal([]byte(`{"due_date":null}`), &in))
	assert.True(t, in.DueDate.Set)
	assert.Nil(t, in.DueDate.Date)

	require.NoError(t, json.Unmarshal([]byte(`{"due_date":"2026-12-31"}`), &in))
	assert.True(t, in.DueDate.Set)
	require.NotNil(t, in.DueDate.Date)
	assert.Equal(t, "2026-12-31", in.DueDate.Date.String())

	assert.Error(t, json.Unmarshal([]byte(`{"due_date":"tomorrow"}`), &in))
}
