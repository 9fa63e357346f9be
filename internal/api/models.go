package api

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Common request/response structures

// CreateTaskRequest defines the payload for the task creation endpoint.
type CreateTaskRequest struct {
	AssigneeID  *uuid.UUID `json:"assignee_id"`
	Title       string     `json:"title"       validate:"required,max=40"`
	Description string     `json:"description"`
}

// UpdateTaskStatusRequest defines the payload for the status update endpoint.
type UpdateTaskStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateTaskRequest defines the payload for the partial task update endpoint.
// Absent fields are left untouched; an explicit null clears the assignee or
// the description, which is why decoding tracks field presence separately
// from the value.
type UpdateTaskRequest struct {
	AssigneeID     *uuid.UUID
	HasAssigneeID  bool
	Title          *string
	Description    *string
	HasDescription bool
	Status         *string
}

// UnmarshalJSON implements json.Unmarshaler, distinguishing absent fields
// from fields explicitly set to null.
func (r *UpdateTaskRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["assignee_id"]; ok {
		r.HasAssigneeID = true
		if string(v) != "null" {
			var id uuid.UUID
			if err := json.Unmarshal(v, &id); err != nil {
				return err
			}
			r.AssigneeID = &id
		}
	}

	if v, ok := raw["title"]; ok && string(v) != "null" {
		var title string
		if err := json.Unmarshal(v, &title); err != nil {
			return err
		}
		r.Title = &title
	}

	if v, ok := raw["description"]; ok {
		r.HasDescription = true
		if string(v) != "null" {
			var description string
			if err := json.Unmarshal(v, &description); err != nil {
				return err
			}
			r.Description = &description
		}
	}

	if v, ok := raw["status"]; ok && string(v) != "null" {
		var status string
		if err := json.Unmarshal(v, &status); err != nil {
			return err
		}
		r.Status = &status
	}

	return nil
}
