package service

import "fmt"

// MsgNoChoice 未选择或选择了不属于该问题的选项时的提示
const MsgNoChoice = "You didn't select a choice!"

// ValidationError 用户输入不合法，页面应原样提示 Message
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func noChoice() *ValidationError {
	return &ValidationError{Field: "choice", Message: MsgNoChoice}
}
