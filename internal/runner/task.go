package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/depbench/depquery/internal/llm"
	"github.com/depbench/depquery/internal/models"
	"github.com/depbench/depquery/internal/parse"
)

// RetryPrompt is appended as a user turn after every answer the parser
// rejects.
const RetryPrompt = "Your previous response could not be parsed correctly. " +
	"Please re-read the prompt and ensure your answer strictly follows the required " +
	"JSON format enclosed with ```<your response here>```." +
	"Ensure that your JSON is valid and matches the specification. Try again:"

// RetryPolicy bounds the two nested retry loops of a single task.
type RetryPolicy struct {
	// MaxTurns is how many conversational turns are attempted to get an
	// answer the parser accepts. Exhausting it is still a completed
	// task, recorded without a parsed result.
	MaxTurns int

	// MaxRestarts is how many times the whole turn sequence may be
	// restarted after a transport or provider error. Exhausting it is
	// fatal for the partition.
	MaxRestarts int

	// RestartDelay is the fixed wait before each restart.
	RestartDelay time.Duration

	// RequestTimeout bounds each individual model call. Zero leaves
	// calls unbounded.
	RequestTimeout time.Duration
}

// DefaultRetryPolicy returns the standard bounds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxTurns:       3,
		MaxRestarts:    100,
		RestartDelay:   5 * time.Second,
		RequestTimeout: 5 * time.Minute,
	}
}

// FatalError means a task exhausted every restart without one clean
// turn sequence. The partition it belongs to must stop.
type FatalError struct {
	TaskID   string
	Restarts int
	Last     error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("task %s failed all %d restarts: %v", e.TaskID, e.Restarts, e.Last)
}

func (e *FatalError) Unwrap() error {
	return e.Last
}

// TaskRunner drives one task at a time through the retry policy. It
// owns the conversation: rejected answers grow it, restarts reset it,
// and it is never shared across tasks.
type TaskRunner struct {
	client llm.Client
	parser parse.Parser
	policy RetryPolicy
	logger *slog.Logger
}

// NewTaskRunner builds a runner over the given model client.
func NewTaskRunner(client llm.Client, parser parse.Parser, policy RetryPolicy, logger *slog.Logger) *TaskRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskRunner{
		client: client,
		parser: parser,
		policy: policy,
		logger: logger,
	}
}

// Run executes one task to completion. The returned Response is valid
// whenever err is nil, including the "completed without parse" case
// where every turn was rejected but no call failed: Parsed stays nil
// and the unit counts keep their -1 sentinels. A *FatalError means the
// restart bound was exhausted.
//
// Raw outputs and NumIter accumulate across restarts; Time covers only
// the final turn sequence.
func (r *TaskRunner) Run(ctx context.Context, task *models.TaskRecord, trace bool) (models.Response, error) {
	resp := models.Response{
		InputLen:  -1,
		OutputLen: -1,
		Time:      -1,
	}

	var lastErr error

	for restart := 0; restart < r.policy.MaxRestarts; restart++ {
		conversation := []llm.Message{
			{Role: llm.RoleUser, Content: task.Prompt},
		}

		var parsed any
		start := time.Now()

		err := func() error {
			for turn := 0; turn < r.policy.MaxTurns; turn++ {
				reply, err := r.predict(ctx, conversation)
				if err != nil {
					return err
				}

				resp.Original = append(resp.Original, reply.Text)

				parsed = r.parser.Parse(reply.Text, task.TaskType(), trace)
				if parsed != nil {
					resp.InputLen = reply.InputLen
					resp.OutputLen = reply.OutputLen
					return nil
				}

				r.logger.Debug("unparseable answer, retrying turn",
					"task_id", task.TaskID, "turn", turn+1, "max_turns", r.policy.MaxTurns)

				conversation = append(conversation,
					llm.Message{Role: llm.RoleAssistant, Content: reply.Text},
					llm.Message{Role: llm.RoleUser, Content: RetryPrompt},
				)
			}
			// Turn bound exhausted without a parse: still a completed
			// sequence, recorded with Parsed == nil.
			return nil
		}()

		if err == nil {
			resp.Time = time.Since(start).Seconds()
			resp.Parsed = parsed
			resp.NumIter = len(resp.Original)
			return resp, nil
		}

		lastErr = err
		r.logger.Error("model call failed, restarting task",
			"task_id", task.TaskID, "restart", restart+1, "max_restarts", r.policy.MaxRestarts, "error", err)

		select {
		case <-time.After(r.policy.RestartDelay):
		case <-ctx.Done():
			return resp, ctx.Err()
		}
	}

	return resp, &FatalError{
		TaskID:   task.TaskID,
		Restarts: r.policy.MaxRestarts,
		Last:     lastErr,
	}
}

func (r *TaskRunner) predict(ctx context.Context, conversation []llm.Message) (llm.Reply, error) {
	if r.policy.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.policy.RequestTimeout)
		defer cancel()
	}
	return r.client.Predict(ctx, conversation)
}
