package cmd

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyloop/internal/session"
	"github.com/abhisek/studyloop/internal/study"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Drive a study session step by step",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a session and print the first question",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := session.StartRequest{UserID: flagString(cmd, "user")}
		req.LessonID = flagString(cmd, "lesson")
		req.TopicID = flagString(cmd, "topic")
		req.Kind = study.SessionKind(flagString(cmd, "kind"))
		req.Difficulty = study.Difficulty(flagString(cmd, "difficulty"))
		req.QuestionCount, _ = cmd.Flags().GetInt("count")

		return withEngine(cmd, func(ctx context.Context, e *session.Engine) error {
			res, err := e.Start(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(res)
		})
	},
}

var sessionNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Print the next question of a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, e *session.Engine) error {
			q, err := e.Next(ctx, flagString(cmd, "user"), flagString(cmd, "session"))
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"question": q, "done": q == nil})
		})
	},
}

var sessionAnswerCmd = &cobra.Command{
	Use:   "answer <answer>",
	Short: "Submit an answer to a question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asIndex, _ := cmd.Flags().GetBool("index")
		selected, err := parseAnswer(args[0], asIndex)
		if err != nil {
			return err
		}
		req := session.SubmitRequest{
			UserID:         flagString(cmd, "user"),
			SessionID:      flagString(cmd, "session"),
			QuestionID:     flagString(cmd, "question"),
			SelectedAnswer: selected,
		}
		req.TimeSpent, _ = cmd.Flags().GetInt("time")
		req.HintsUsed, _ = cmd.Flags().GetInt("hints")

		return withEngine(cmd, func(ctx context.Context, e *session.Engine) error {
			res, err := e.Submit(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(res)
		})
	},
}

var sessionEndCmd = &cobra.Command{
	Use:   "end",
	Short: "End a session and print its summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, e *session.Engine) error {
			sum, err := e.End(ctx, flagString(cmd, "user"), flagString(cmd, "session"))
			if err != nil {
				return err
			}
			return printJSON(sum)
		})
	},
}

var sessionActiveCmd = &cobra.Command{
	Use:   "active",
	Short: "Print the user's active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, e *session.Engine) error {
			s, err := e.Active(ctx, flagString(cmd, "user"))
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"session": s})
		})
	},
}

var sessionAttemptsCmd = &cobra.Command{
	Use:   "attempts",
	Short: "List the attempts of a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, e *session.Engine) error {
			as, err := e.Attempts(ctx, flagString(cmd, "user"), flagString(cmd, "session"))
			if err != nil {
				return err
			}
			return printJSON(as)
		})
	},
}

var sessionHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List the user's sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withEngine(cmd, func(ctx context.Context, e *session.Engine) error {
			ss, err := e.History(ctx, flagString(cmd, "user"), limit)
			if err != nil {
				return err
			}
			return printJSON(ss)
		})
	},
}

func init() {
	sessionCmd.PersistentFlags().String("user", os.Getenv("USER"), "Learner ID")

	sessionStartCmd.Flags().String("lesson", "", "Lesson ID")
	sessionStartCmd.Flags().String("topic", "", "Topic ID")
	sessionStartCmd.Flags().String("kind", "practice", "Session kind: practice, test or review")
	sessionStartCmd.Flags().String("difficulty", "", "Force a difficulty instead of deriving it from mastery")
	sessionStartCmd.Flags().Int("count", 0, "Number of questions (0 uses the default)")

	for _, c := range []*cobra.Command{sessionNextCmd, sessionAnswerCmd, sessionEndCmd, sessionAttemptsCmd} {
		c.Flags().String("session", "", "Session ID")
	}
	sessionAnswerCmd.Flags().String("question", "", "Question ID")
	sessionAnswerCmd.Flags().Bool("index", false, "Treat the answer as an option index")
	sessionAnswerCmd.Flags().Int("time", 0, "Seconds spent on the question")
	sessionAnswerCmd.Flags().Int("hints", 0, "Hints used")
	sessionHistoryCmd.Flags().Int("limit", 20, "Maximum sessions to list (0 for all)")

	sessionCmd.AddCommand(sessionStartCmd, sessionNextCmd, sessionAnswerCmd, sessionEndCmd,
		sessionActiveCmd, sessionAttemptsCmd, sessionHistoryCmd)
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

// parseAnswer builds an Answer from command-line text. With asIndex the
// text must be an integer option index.
func parseAnswer(s string, asIndex bool) (study.Answer, error) {
	if !asIndex {
		return study.TextAnswer(s), nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return study.Answer{}, &study.ValidationError{Field: "answer", Reason: "--index needs an integer"}
	}
	return study.IndexAnswer(i), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
