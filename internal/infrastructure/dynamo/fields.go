package dynamo

// DynamoDB attribute names used in key maps and update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEmail     = "email"
	fieldCode      = "code"
	fieldExpiresAt = "expires_at"
	fieldUserID    = "user_id"
	fieldTaskID    = "task_id"
	fieldUpdatedAt = "updated_at"

	indexUserID = "user_id-index"
)
