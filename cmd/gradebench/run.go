package main

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/gradebench/internal/application/pipeline"
	"github.com/bryanwahyu/gradebench/internal/domain/chat"
)

type runFlags struct {
	problems      string
	provider      string
	model         string
	sample        int
	idStart       int
	shuffle       bool
	web           bool
	forceSearch   bool
	noReasoning   bool
	skipProjected bool
	skipReproject bool
	skipDefault   bool
	cleanChat     bool
	noKeepChat    bool
	simpleGrading bool
}

func (f runFlags) options() pipeline.Options {
	opts := pipeline.DefaultOptions(f.provider, f.model)
	opts.WebSearch = f.web
	opts.ForceSearch = f.forceSearch
	opts.HighReasoning = !f.noReasoning
	opts.GradeProjected = !f.skipProjected
	opts.GradeReprojected = !f.skipReproject
	opts.GradeDefault = !f.skipDefault
	opts.KeepChat = !f.noKeepChat
	opts.CleanChat = f.cleanChat
	return opts
}

func (c *cli) newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Send problems through the projection and grading pipeline",
		Long: `Loads problems from a JSONL file, keeps the first --sample problems per
subject and runs every stage for each: projection to middle-school
vocabulary, reprojection, default answer and grading. Answers and grades are
written under the responses directory, transcripts under the chats directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			path := f.problems
			if path == "" {
				path = c.cfg.Pipeline.ProblemsPath
			}
			if path == "" {
				return errors.New("no problems file, pass --problems or set pipeline.problemsPath")
			}
			problems, err := pipeline.LoadProblems(path)
			if err != nil {
				return err
			}
			if f.shuffle {
				rand.Shuffle(len(problems), func(i, j int) { problems[i], problems[j] = problems[j], problems[i] })
			}
			if f.sample > 0 {
				problems = pipeline.SampleBySubject(problems, f.sample)
			}

			runner, err := newRunner(ctx, c.cfg)
			if err != nil {
				return err
			}
			runner.SimpleGrading = f.simpleGrading
			opts := f.options()
			if opts.Provider == "" {
				opts.Provider = c.cfg.Pipeline.GradingProvider
			}
			if opts.Model == "" {
				opts.Model = defaultModel(opts.Provider)
			}

			var total float64
			for i, p := range problems {
				id := f.idStart + i
				res, err := runner.Run(ctx, p, id, opts)
				total += res.Cost
				if err != nil {
					if errors.Is(err, chat.ErrQuotaExceeded) {
						clog.FromContext(ctx).Error("Quota exceeded, stopping the run")
					}
					return fmt.Errorf("problem %d (%s): %w", id, p.Subject, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s_%d: %d responses, $%.4f\n", p.Subject, id, len(res.Responses), res.Cost)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ran %d problems, total cost $%.4f\n", len(problems), total)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.problems, "problems", "", "JSONL problems file (default from config)")
	fl.StringVar(&f.provider, "provider", "", "chat provider: openai, anthropic or gemini (default grading provider)")
	fl.StringVar(&f.model, "model", "", "model name (provider default when empty)")
	fl.IntVar(&f.sample, "sample", 0, "problems per subject, 0 keeps all")
	fl.IntVar(&f.idStart, "id-start", 200, "id of the first problem, used in file names")
	fl.BoolVar(&f.shuffle, "shuffle", false, "shuffle problems before sampling")
	fl.BoolVar(&f.web, "web", false, "enable provider web search")
	fl.BoolVar(&f.forceSearch, "force-search", false, "ask the model to search before answering (needs --web)")
	fl.BoolVar(&f.noReasoning, "no-reasoning", false, "disable high reasoning for answers")
	fl.BoolVar(&f.skipProjected, "skip-projected", false, "skip the projection stages")
	fl.BoolVar(&f.skipReproject, "skip-reprojected", false, "skip grading the reprojected answer")
	fl.BoolVar(&f.skipDefault, "skip-default", false, "skip the default answer stage")
	fl.BoolVar(&f.cleanChat, "clean-chat", false, "also reproject from a fresh conversation")
	fl.BoolVar(&f.noKeepChat, "no-keep-chat", false, "do not reproject inside the projection conversation")
	fl.BoolVar(&f.simpleGrading, "simple-grading", false, "grade with the short rubric prompt")
	return cmd
}

func (c *cli) newGradeDirCmd() *cobra.Command {
	var problemsPath, prefix string
	var index int
	var simple bool
	cmd := &cobra.Command{
		Use:   "grade-dir <dir>",
		Short: "Grade every answer file in a directory against one problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := problemsPath
			if path == "" {
				path = c.cfg.Pipeline.ProblemsPath
			}
			problems, err := pipeline.LoadProblems(path)
			if err != nil {
				return err
			}
			if index < 0 || index >= len(problems) {
				return fmt.Errorf("problem index %d out of range [0,%d)", index, len(problems))
			}

			runner, err := newRunner(ctx, c.cfg)
			if err != nil {
				return err
			}
			runner.SimpleGrading = simple
			res, err := runner.GradeDirectory(ctx, args[0], problems[index], prefix)
			fmt.Fprintf(cmd.OutOrStdout(), "Graded %d files, cost $%.4f\n", len(res.Responses), res.Cost)
			return err
		},
	}
	cmd.Flags().StringVar(&problemsPath, "problems", "", "JSONL problems file (default from config)")
	cmd.Flags().IntVar(&index, "problem-index", 0, "index of the problem the answers belong to")
	cmd.Flags().StringVar(&prefix, "prefix", "graded", "prefix for grade and transcript file names")
	cmd.Flags().BoolVar(&simple, "simple-grading", false, "grade with the short rubric prompt")
	return cmd
}
