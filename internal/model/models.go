package model

import (
	"time"
)

const (
	// 问题和选项文本的最大长度
	MaxTextLength = 200

	// WasPublishedRecently 使用的时间窗口
	RecentWindow = 24 * time.Hour
)

// Question 投票问题
type Question struct {
	ID          int64     `json:"id"`
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"publishedAt"`
}

// WasPublishedRecently 是否在最近24小时内发布（未来发布的不算）
func (q Question) WasPublishedRecently(now time.Time) bool {
	return !q.PublishedAt.Before(now.Add(-RecentWindow)) && !q.PublishedAt.After(now)
}

// Choice 问题下的选项及其票数
type Choice struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"questionId"`
	Text       string `json:"text"`
	Votes      int64  `json:"votes"`
}

// QuestionResults 问题及其当前票数
type QuestionResults struct {
	Question Question `json:"question"`
	Choices  []Choice `json:"choices"`
}

// TotalVotes 总票数
func (r QuestionResults) TotalVotes() int64 {
	var total int64
	for _, c := range r.Choices {
		total += c.Votes
	}
	return total
}

// QuestionDetail 详情页数据
type QuestionDetail struct {
	Question Question   `json:"question"`
	Choices  []Choice   `json:"choices"`
	Others   []Question `json:"others"`
}

// VoteOutcome 投票成功后的跳转信息
type VoteOutcome struct {
	QuestionID  int64  `json:"questionId"`
	ChoiceID    int64  `json:"choiceId"`
	ResultsPath string `json:"resultsPath"`
}

// VoteEvent Kafka投票事件
type VoteEvent struct {
	ID         string    `json:"id"`
	QuestionID int64     `json:"questionId"`
	ChoiceID   int64     `json:"choiceId"`
	VotedAt    time.Time `json:"votedAt"`
}

// VoteLog 投票审计日志
type VoteLog struct {
	ID         int64     `json:"id"`
	EventID    string    `json:"eventId"`
	QuestionID int64     `json:"questionId"`
	ChoiceID   int64     `json:"choiceId"`
	VotedAt    time.Time `json:"votedAt"`
}

// CreateQuestionRequest 管理端创建问题
type CreateQuestionRequest struct {
	Text        string     `json:"text" binding:"required,max=200"`
	PublishedAt *time.Time `json:"published_at"`
	Choices     []string   `json:"choices" binding:"dive,required,max=200"`
}

// CreateChoiceRequest 管理端新增选项
type CreateChoiceRequest struct {
	Text string `json:"text" binding:"required,max=200"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AdminQuestion 管理端问题列表项
type AdminQuestion struct {
	Question
	Published            bool `json:"published"`
	WasPublishedRecently bool `json:"wasPublishedRecently"`
}
