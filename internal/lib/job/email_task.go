package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskWelcome = "email:welcome"
)

// WelcomeEmailPayload is stored in Redis as JSON.
type WelcomeEmailPayload struct {
	UserID   int64  `json:"user_id"`
	To       string `json:"to"`
	Username string `json:"username"`
}

// NewWelcomeEmailTask builds the task sent when a user with an email
// address is created. It is retried up to three times.
func NewWelcomeEmailTask(p WelcomeEmailPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskWelcome,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
	), nil
}
