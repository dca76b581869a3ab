package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyloop/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file.json>",
	Short: "Load lessons, topics and questions from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open seed file: %w", err)
		}
		defer f.Close()

		doc, err := seed.Load(f)
		if err != nil {
			return err
		}
		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			fmt.Printf("%s is valid\n", args[0])
			return nil
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		b, err := openBackend(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		n, err := seed.Apply(cmd.Context(), b, doc)
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d lessons, %d topics, %d questions\n", n.Lessons, n.Topics, n.Questions)
		return nil
	},
}

func init() {
	seedCmd.Flags().Bool("dry-run", false, "Validate the file without writing it")
}
