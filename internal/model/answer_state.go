package model

// AnswerState is the lifecycle state of a Record.
//
// The numeric values are stored in the database, do not reorder them.
type AnswerState int

const (
	// NotAnswered means the record was created but not yet delivered.
	NotAnswered AnswerState = 0
	// Transferred means the question was delivered and a reply is awaited.
	Transferred AnswerState = 1
	// Answered means the reply was received and scored, final.
	Answered AnswerState = 2
	// Pending means the reply was received and scored but awaits human review.
	Pending AnswerState = 3
)

func (s AnswerState) String() string {
	switch s {
	case NotAnswered:
		return "NOT_ANSWERED"
	case Transferred:
		return "TRANSFERRED"
	case Answered:
		return "ANSWERED"
	case Pending:
		return "PENDING"
	}
	return "UNKNOWN"
}
