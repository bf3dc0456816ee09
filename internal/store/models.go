package store

// QuestionRecord is the persisted question row. Tags are stored as a JSON
// array to keep the schema flat.
type QuestionRecord struct {
	QuestionID  string `gorm:"column:question_id;primaryKey;size:190;not null"`
	Title       string `gorm:"column:title;size:320;not null"`
	Text        string `gorm:"column:text;type:text;not null"`
	TagsJSON    string `gorm:"column:tags_json;type:text;not null;default:'[]'"`
	AskedBy     string `gorm:"column:asked_by;size:190;not null"`
	AskedAtUnix int64  `gorm:"column:asked_at_s;not null;index"`
	Views       int    `gorm:"column:views;not null;default:0"`
}

// TableName provides the explicit table binding for GORM.
func (QuestionRecord) TableName() string {
	return "questions"
}

// AnswerRecord is the persisted answer row. Position preserves the
// server-assigned order within the owning question.
type AnswerRecord struct {
	AnswerID       string `gorm:"column:answer_id;primaryKey;size:190;not null"`
	QuestionID     string `gorm:"column:question_id;size:190;not null;index:idx_answers_question,priority:1"`
	Text           string `gorm:"column:text;type:text;not null"`
	AnsweredBy     string `gorm:"column:answered_by;size:190;not null"`
	AnsweredAtUnix int64  `gorm:"column:answered_at_s;not null"`
	Position       int    `gorm:"column:position;not null;index:idx_answers_question,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (AnswerRecord) TableName() string {
	return "answers"
}

// CommentRecord is the persisted comment row, attached to exactly one
// question or answer through target kind plus target id.
type CommentRecord struct {
	CommentID       string `gorm:"column:comment_id;primaryKey;size:190;not null"`
	TargetKind      string `gorm:"column:target_kind;size:16;not null;index:idx_comments_target,priority:1"`
	TargetID        string `gorm:"column:target_id;size:190;not null;index:idx_comments_target,priority:2"`
	Text            string `gorm:"column:text;type:text;not null"`
	CommentedBy     string `gorm:"column:commented_by;size:190;not null"`
	CommentedAtUnix int64  `gorm:"column:commented_at_s;not null"`
	Position        int    `gorm:"column:position;not null;index:idx_comments_target,priority:3"`
}

// TableName provides the explicit table binding for GORM.
func (CommentRecord) TableName() string {
	return "comments"
}

// VoteRecord stores one user's current vote on one question. The composite
// key keeps a username in at most one direction per question.
type VoteRecord struct {
	QuestionID string `gorm:"column:question_id;primaryKey;size:190;not null"`
	Username   string `gorm:"column:username;primaryKey;size:190;not null"`
	Direction  string `gorm:"column:direction;size:8;not null"`
}

// TableName provides the explicit table binding for GORM.
func (VoteRecord) TableName() string {
	return "votes"
}

const (
	directionUp   = "up"
	directionDown = "down"
)
