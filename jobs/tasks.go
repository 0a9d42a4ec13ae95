package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/carbonledger/carbonledger/internal/importer"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeImportCSV processes an uploaded provider file into entries.
	TaskTypeImportCSV = "import:csv"
)

// ImportCSVPayload identifies the batch a worker should process.
type ImportCSVPayload struct {
	BatchID string `json:"batch_id"`
}

// NewImportCSVTask constructs an Asynq task for one import batch.
func NewImportCSVTask(payload ImportCSVPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeImportCSV, data), nil
}

// ImportCSVHandler binds the import service to the task type.
func ImportCSVHandler(svc *importer.Service) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ImportCSVPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return svc.Process(ctx, payload.BatchID)
	}
}
