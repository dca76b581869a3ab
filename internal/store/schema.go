package store

import (
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// LessonsColumns holds the columns for the "lessons" table.
	LessonsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "title", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Default: ""},
	}
	// LessonsTable holds the schema information for the "lessons" table.
	LessonsTable = &schema.Table{
		Name:       "lessons",
		Columns:    LessonsColumns,
		PrimaryKey: []*schema.Column{LessonsColumns[0]},
	}

	// TopicsColumns holds the columns for the "topics" table.
	TopicsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "lesson_id", Type: field.TypeString},
		{Name: "title", Type: field.TypeString},
	}
	// TopicsTable holds the schema information for the "topics" table.
	TopicsTable = &schema.Table{
		Name:       "topics",
		Columns:    TopicsColumns,
		PrimaryKey: []*schema.Column{TopicsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "topic_lesson_id", Columns: []*schema.Column{TopicsColumns[1]}},
		},
	}

	// QuestionsColumns holds the columns for the "questions" table.
	QuestionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "lesson_id", Type: field.TypeString},
		{Name: "topic_id", Type: field.TypeString},
		{Name: "difficulty", Type: field.TypeString},
		{Name: "kind", Type: field.TypeString},
		{Name: "prompt", Type: field.TypeString},
		{Name: "options", Type: field.TypeJSON},
		{Name: "correct_answer", Type: field.TypeJSON},
		{Name: "hint", Type: field.TypeString, Default: ""},
		{Name: "explanation", Type: field.TypeString, Default: ""},
		{Name: "tags", Type: field.TypeJSON},
		{Name: "usage_count", Type: field.TypeInt, Default: 0},
		{Name: "avg_solve_time", Type: field.TypeInt, Default: 0},
		{Name: "success_rate", Type: field.TypeInt, Default: 0},
		{Name: "active", Type: field.TypeBool, Default: true},
	}
	// QuestionsTable holds the schema information for the "questions" table.
	QuestionsTable = &schema.Table{
		Name:       "questions",
		Columns:    QuestionsColumns,
		PrimaryKey: []*schema.Column{QuestionsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "question_lesson_id_topic_id_difficulty_active",
				Columns: []*schema.Column{QuestionsColumns[1], QuestionsColumns[2], QuestionsColumns[3], QuestionsColumns[14]},
			},
		},
	}

	// SessionsColumns holds the columns for the "sessions" table.
	SessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "lesson_id", Type: field.TypeString},
		{Name: "topic_id", Type: field.TypeString},
		{Name: "kind", Type: field.TypeString},
		{Name: "difficulty", Type: field.TypeString},
		{Name: "question_count", Type: field.TypeInt},
		{Name: "start_time", Type: field.TypeTime},
		{Name: "end_time", Type: field.TypeTime, Nullable: true},
		{Name: "questions_attempted", Type: field.TypeInt, Default: 0},
		{Name: "correct_answers", Type: field.TypeInt, Default: 0},
		{Name: "total_time", Type: field.TypeInt, Default: 0},
		{Name: "avg_time_per_question", Type: field.TypeFloat64, Default: 0},
		{Name: "score", Type: field.TypeInt, Default: 0},
		{Name: "completed", Type: field.TypeBool, Default: false},
	}
	// SessionsTable holds the schema information for the "sessions" table.
	SessionsTable = &schema.Table{
		Name:       "sessions",
		Columns:    SessionsColumns,
		PrimaryKey: []*schema.Column{SessionsColumns[0]},
		Indexes: []*schema.Index{
			{
				// At most one active session per user.
				Name:       "session_user_id_active",
				Unique:     true,
				Columns:    []*schema.Column{SessionsColumns[1]},
				Annotation: &entsql.IndexAnnotation{Where: "completed = false"},
			},
			{
				Name:    "session_user_id_start_time",
				Columns: []*schema.Column{SessionsColumns[1], SessionsColumns[7]},
			},
		},
	}

	// AttemptsColumns holds the columns for the "attempts" table.
	AttemptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "session_id", Type: field.TypeString, Nullable: true},
		{Name: "selected_answer", Type: field.TypeJSON},
		{Name: "is_correct", Type: field.TypeBool},
		{Name: "graded", Type: field.TypeBool},
		{Name: "time_spent", Type: field.TypeInt},
		{Name: "hints_used", Type: field.TypeInt, Default: 0},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "seq", Type: field.TypeInt64, Increment: true},
	}
	// AttemptsTable holds the schema information for the "attempts" table.
	// seq preserves submission order for attempts with equal timestamps.
	AttemptsTable = &schema.Table{
		Name:       "attempts",
		Columns:    AttemptsColumns,
		PrimaryKey: []*schema.Column{AttemptsColumns[10]},
		Indexes: []*schema.Index{
			{Name: "attempt_id", Unique: true, Columns: []*schema.Column{AttemptsColumns[0]}},
			{Name: "attempt_question_id", Columns: []*schema.Column{AttemptsColumns[2]}},
			{Name: "attempt_session_id", Columns: []*schema.Column{AttemptsColumns[3]}},
		},
	}

	// UserProgressColumns holds the columns for the "user_progress" table.
	UserProgressColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "lesson_id", Type: field.TypeString},
		{Name: "topic_id", Type: field.TypeString},
		{Name: "mastery", Type: field.TypeInt, Default: 0},
		{Name: "streak_days", Type: field.TypeInt, Default: 0},
		{Name: "last_studied", Type: field.TypeTime, Nullable: true},
		{Name: "total_time_spent", Type: field.TypeInt, Default: 0},
		{Name: "total_questions", Type: field.TypeInt, Default: 0},
		{Name: "correct_answers", Type: field.TypeInt, Default: 0},
		{Name: "difficulty", Type: field.TypeString, Default: "easy"},
		{Name: "weaknesses", Type: field.TypeJSON},
		{Name: "strengths", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// UserProgressTable holds the schema information for the "user_progress" table.
	UserProgressTable = &schema.Table{
		Name:       "user_progress",
		Columns:    UserProgressColumns,
		PrimaryKey: []*schema.Column{UserProgressColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "userprogress_user_id_lesson_id_topic_id",
				Unique:  true,
				Columns: []*schema.Column{UserProgressColumns[1], UserProgressColumns[2], UserProgressColumns[3]},
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		LessonsTable,
		TopicsTable,
		QuestionsTable,
		SessionsTable,
		AttemptsTable,
		UserProgressTable,
	}
)
