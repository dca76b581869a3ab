package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyloop/internal/session"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show mastery and streaks per topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		user := flagString(cmd, "user")
		return withEngine(cmd, func(ctx context.Context, e *session.Engine) error {
			ps, err := e.Progress(ctx, user, flagString(cmd, "lesson"), flagString(cmd, "topic"))
			if err != nil {
				return err
			}
			if len(ps) == 0 {
				fmt.Printf("No progress recorded for %s yet.\n", user)
				return nil
			}

			fmt.Printf("%-20s  %-20s  %7s  %6s  %-6s  %9s  %s\n",
				"Lesson", "Topic", "Mastery", "Streak", "Tier", "Questions", "Weaknesses")
			fmt.Println(strings.Repeat("─", 100))
			for _, p := range ps {
				fmt.Printf("%-20s  %-20s  %6d%%  %6d  %-6s  %9d  %s\n",
					p.LessonID, p.TopicID, p.Mastery, p.StreakDays, p.Difficulty,
					p.TotalQuestions, strings.Join(p.Weaknesses, ", "))
			}
			return nil
		})
	},
}

func init() {
	progressCmd.Flags().String("user", "", "Learner ID")
	progressCmd.Flags().String("lesson", "", "Filter by lesson")
	progressCmd.Flags().String("topic", "", "Filter by topic")
	progressCmd.MarkFlagRequired("user")
}
