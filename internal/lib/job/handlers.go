package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

func (j *JobService) handleWelcomeEmailTask(ctx context.Context, t *asynq.Task) error {
	var p WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		// A payload that does not decode will never succeed.
		return fmt.Errorf("failed to unmarshal welcome email payload: %w: %w", err, asynq.SkipRetry)
	}

	logger := j.logger.With().
		Str("type", TaskWelcome).
		Int64("user_id", p.UserID).
		Str("to", p.To).
		Logger()

	logger.Info().Msg("processing welcome email task")

	if err := j.email.SendWelcomeEmail(p.To, p.Username); err != nil {
		logger.Error().Err(err).Msg("failed to send welcome email")
		return err
	}

	logger.Info().Msg("sent welcome email")
	return nil
}
