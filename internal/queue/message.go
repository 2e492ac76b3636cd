package queue

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator"
)

var validate = validator.New()

// GraphJobMsg asks the worker to build the graph of one stored document.
type GraphJobMsg struct {
	JobID   string `json:"job_id"`
	FileKey string `json:"file_key" validate:"required"`
	Name    string `json:"name"`
	// Context replaces the default extraction context when set.
	Context string `json:"context,omitempty"`
}

// DecodeGraphJob parses and validates a graph job message.
func DecodeGraphJob(body []byte) (GraphJobMsg, error) {
	var msg GraphJobMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		return GraphJobMsg{}, fmt.Errorf("decode graph job: %w", err)
	}
	if err := validate.Struct(msg); err != nil {
		return GraphJobMsg{}, fmt.Errorf("invalid graph job: %w", err)
	}
	return msg, nil
}

// GraphJobEvent is published on the events exchange when a job finishes.
type GraphJobEvent struct {
	JobID     string `json:"job_id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	Graph     string `json:"graph,omitempty"`
	Report    string `json:"report,omitempty"`
	Relations int    `json:"relations"`
}

// Topic is the routing key of the event.
func (e GraphJobEvent) Topic() string {
	return "graph." + e.Status
}
