package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/lvdashuaibi/littlepoll/internal/model"
)

var ErrInvalidEvent = errors.New("invalid vote event")

// messageKey 同一问题的事件进入同一分区
func messageKey(event *model.VoteEvent) []byte {
	return []byte(strconv.FormatInt(event.QuestionID, 10))
}

func encodeVoteEvent(event *model.VoteEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("序列化投票事件失败: %w", err)
	}
	return data, nil
}

func decodeVoteEvent(data []byte) (*model.VoteEvent, error) {
	var event model.VoteEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("解析投票事件失败: %w", err)
	}
	if event.ID == "" || event.QuestionID <= 0 || event.ChoiceID <= 0 {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidEvent, event)
	}
	return &event, nil
}
