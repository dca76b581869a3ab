package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyloop/internal/events"
	"github.com/abhisek/studyloop/internal/session"
	"github.com/abhisek/studyloop/internal/study"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Run an interactive practice session in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		b, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		rec := &events.Recorder{}
		e := session.NewEngine(b, engineConfig(cfg),
			session.WithLogger(cliLogger()),
			session.WithPublisher(rec),
		)

		count, _ := cmd.Flags().GetInt("count")
		req := session.StartRequest{
			UserID:        flagString(cmd, "user"),
			LessonID:      flagString(cmd, "lesson"),
			TopicID:       flagString(cmd, "topic"),
			Kind:          study.SessionPractice,
			QuestionCount: count,
		}
		if err := practice(ctx, e, req, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			return err
		}

		if show, _ := cmd.Flags().GetBool("events"); show {
			fmt.Fprintln(cmd.OutOrStdout(), "\nEvents:")
			for _, ev := range rec.Events() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n", ev.Timestamp.Format(time.RFC3339), ev.Type)
			}
		}
		return nil
	},
}

func init() {
	practiceCmd.Flags().String("user", "", "Learner ID")
	practiceCmd.Flags().String("lesson", "", "Lesson ID")
	practiceCmd.Flags().String("topic", "", "Topic ID")
	practiceCmd.Flags().Int("count", 0, "Number of questions (0 uses the default)")
	practiceCmd.Flags().Bool("events", false, "Print the domain events emitted by the session")
	practiceCmd.MarkFlagRequired("user")
	practiceCmd.MarkFlagRequired("lesson")
	practiceCmd.MarkFlagRequired("topic")
}

// practice asks questions on out and reads answers from in until the
// session runs out of questions or input ends.
func practice(ctx context.Context, e *session.Engine, req session.StartRequest, in io.Reader, out io.Writer) error {
	res, err := e.Start(ctx, req)
	if err != nil {
		return err
	}
	s := res.Session
	fmt.Fprintf(out, "Session %s: %d %s questions\n", s.ID, s.QuestionCount, s.Difficulty)

	scanner := bufio.NewScanner(in)
	q := res.CurrentQuestion
	for n := 1; q != nil; n++ {
		fmt.Fprintf(out, "\nQ%d. %s\n", n, q.Prompt)
		for i, opt := range q.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, opt)
		}
		fmt.Fprint(out, "> ")

		asked := time.Now()
		if !scanner.Scan() {
			break
		}
		answer := answerFromInput(q, scanner.Text())

		fb, err := e.Submit(ctx, session.SubmitRequest{
			UserID:         req.UserID,
			SessionID:      s.ID,
			QuestionID:     q.ID,
			SelectedAnswer: answer,
			TimeSpent:      int(time.Since(asked).Round(time.Second).Seconds()),
		})
		if err != nil {
			return err
		}
		switch {
		case !fb.Graded:
			fmt.Fprintln(out, "Recorded for review.")
		case fb.IsCorrect:
			fmt.Fprintln(out, "Correct!")
		default:
			fmt.Fprintf(out, "Not quite. The answer was %s.\n", displayAnswer(q, fb.CorrectAnswer))
		}
		if fb.Explanation != "" {
			fmt.Fprintln(out, fb.Explanation)
		}

		if q, err = e.Next(ctx, req.UserID, s.ID); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read answer: %w", err)
	}

	sum, err := e.End(ctx, req.UserID, s.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nScore %d%% (%d/%d) in %ds\n", sum.Score, sum.CorrectAnswers, sum.QuestionsAttempted, sum.Duration)
	if p := sum.Progress; p != nil {
		fmt.Fprintf(out, "Mastery %d%%, streak %d, next difficulty %s\n", p.Mastery, p.StreakDays, p.Difficulty)
	}
	return nil
}

// answerFromInput maps typed input to an Answer. For choice questions
// a number selects the option, counting from 1.
func answerFromInput(q *study.Question, input string) study.Answer {
	input = strings.TrimSpace(input)
	if q.Kind == study.KindMultipleChoice {
		if n, err := strconv.Atoi(input); err == nil {
			return study.IndexAnswer(n - 1)
		}
	}
	return study.TextAnswer(input)
}

func displayAnswer(q *study.Question, a study.Answer) string {
	if a.Type == study.AnswerIndex && a.Index >= 0 && a.Index < len(q.Options) {
		return fmt.Sprintf("%d) %s", a.Index+1, q.Options[a.Index])
	}
	return a.String()
}
