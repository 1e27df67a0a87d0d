package domain

import "time"

// Task statuses are the kanban columns.
const (
	TaskTodo       = "todo"
	TaskInProgress = "in_progress"
	TaskDone       = "done"
)

type Task struct {
	TaskID      string    `json:"id" dynamodbav:"task_id" gorm:"primaryKey;size:26"`
	Title       string    `json:"title" dynamodbav:"title" gorm:"size:200;not null"`
	Description string    `json:"description" dynamodbav:"description" gorm:"size:2000"`
	Status      string    `json:"status" dynamodbav:"status" gorm:"size:16;index;not null"`
	OwnerID     string    `json:"owner_id" dynamodbav:"owner_id" gorm:"size:26;index;not null"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Status      string `json:"status" validate:"omitempty,oneof=todo in_progress done"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Status      *string `json:"status" validate:"omitempty,oneof=todo in_progress done"`
}
