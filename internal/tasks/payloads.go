package tasks

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeMediaDelete = "media:delete"
)

// MediaDeletePayload 描述需要从媒体托管删除的对象。
type MediaDeletePayload struct {
	PublicID      string `json:"public_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewMediaDeleteTask 构造一个媒体删除任务。
func NewMediaDeleteTask(publicID, correlationID string) (*asynq.Task, error) {
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return nil, errors.New("public id is required")
	}
	payload, err := json.Marshal(MediaDeletePayload{
		PublicID:      publicID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeMediaDelete, payload, asynq.MaxRetry(0)), nil
}
