package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// DueDate parses due_date from JSON as either a calendar date ("2006-01-02")
// or an RFC3339 datetime truncated to its date. null or "" clears the value.
// Marshals back as a calendar date. Present reports whether the field
// appeared in the JSON at all, so updates can tell "clear" from "leave as is".
type DueDate struct {
	t       *time.Time
	present bool
}

func NewDueDate(t *time.Time) DueDate { return DueDate{t: t, present: true} }

func (d *DueDate) UnmarshalJSON(data []byte) error {
	d.present = true
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		d.t = nil
		return nil
	}
	s := strings.TrimSpace(*raw)
	layouts := []string{
		dateLayout,
		time.RFC3339,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			day := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
			d.t = &day
			return nil
		}
	}
	return fmt.Errorf("due_date: use date (YYYY-MM-DD) or RFC3339 datetime")
}

func (d DueDate) MarshalJSON() ([]byte, error) {
	if d.t == nil {
		return []byte("null"), nil
	}
	return json.Marshal(d.t.Format(dateLayout))
}

// Ptr returns *time.Time for use in service/domain.
func (d DueDate) Ptr() *time.Time { return d.t }

// Present reports whether due_date was supplied in the request body.
func (d DueDate) Present() bool { return d.present }

type CreateTaskRequest struct {
	Description string  `json:"description" binding:"required"`
	DueDate     DueDate `json:"due_date"` // optional: "2026-02-19" or RFC3339
}

type UpdateTaskRequest struct {
	Description *string `json:"description"`
	DueDate     DueDate `json:"due_date"` // absent = не менять, null = очистить
	Completed   *bool   `json:"completed"`
}

type TaskResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Description string    `json:"description"`
	DueDate     DueDate   `json:"due_date"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type DeleteTaskResponse struct {
	Message string `json:"message"`
}
