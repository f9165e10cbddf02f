package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chainguard-dev/clog"

	chatapp "github.com/bryanwahyu/gradebench/internal/application/chat"
	"github.com/bryanwahyu/gradebench/internal/domain/chat"
	"github.com/bryanwahyu/gradebench/internal/infra/ai/prompt"
)

// Response directories under the responses root.
const (
	DirSimplification        = "Simplification"
	DirProjectionAnswer      = "Projection Answer"
	DirReprojection          = "Reprojection"
	DirGradingProjection     = "Grading projection"
	DirGradingFromProjection = "Grading from projection"
	DirDefaultAnswers        = "DefaultAnswers"
	DirGradingDefault        = "Grading default"
	DirGradingFromFiles      = "Grading from files"
)

// Pacer spaces out provider calls.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Runner executes the projection experiment against chat providers and
// writes every answer and grade as a text file. Grading files end with the
// grader's "VERDICT:" line and feed the verdict collector.
type Runner struct {
	Providers       chat.Registry
	GradingProvider string
	GradingModel    string
	ResponsesDir    string
	ChatsDir        string
	Pacer           Pacer
	// SimpleGrading grades with the short rubric prompt, without the problem text.
	SimpleGrading   bool
}

// Options untuk satu run pipeline
type Options struct {
	Provider      string
	Model         string
	WebSearch     bool
	ForceSearch   bool
	HighReasoning bool

	GradeProjected   bool
	GradeReprojected bool
	GradeDefault     bool

	// KeepChat reprojects inside the projection conversation.
	KeepChat bool
	// CleanChat also reprojects from a fresh conversation.
	CleanChat bool
}

// DefaultOptions grades every stage with high reasoning and no web search.
func DefaultOptions(provider, model string) Options {
	return Options{
		Provider:         provider,
		Model:            model,
		HighReasoning:    true,
		GradeProjected:   true,
		GradeReprojected: true,
		GradeDefault:     true,
		KeepChat:         true,
	}
}

// RunResult lists the files written by one run.
type RunResult struct {
	Responses   []string `json:"responses"`
	Transcripts []string `json:"transcripts"`
	Cost        float64  `json:"cost"`
}

// FileSuffix names every artifact of one problem run. It embeds
// <subject>_<id> so grading files can be grouped later.
func FileSuffix(provider, model, subject string, id int, web bool) string {
	webText := "web_disabled"
	if web {
		webText = "web_enabled"
	}
	return fmt.Sprintf("%s_%s_%s_%d_%s.txt", provider, model, subject, id, webText)
}

type run struct {
	*Runner
	opts   Options
	res    RunResult
	rubric string
	// problem text without labels or chain-of-thought instruction
	problem string
}

// Run sends one problem through the enabled stages in order. It stops at the
// first provider or file error.
func (r *Runner) Run(ctx context.Context, p Problem, id int, opts Options) (RunResult, error) {
	provider, err := r.Providers.Get(opts.Provider)
	if err != nil {
		return RunResult{}, err
	}
	x := &run{Runner: r, opts: opts, rubric: p.Answer, problem: prompt.CleanProblem(p.Problem, true)}
	suffix := FileSuffix(opts.Provider, opts.Model, p.Subject, id, opts.WebSearch)
	log := clog.FromContext(ctx).With("problem", id).With("subject", p.Subject).With("provider", opts.Provider)
	ctx = clog.WithLogger(ctx, log)

	if opts.GradeProjected {
		if err := x.projected(ctx, provider, p, suffix); err != nil {
			return x.res, err
		}
	}

	if opts.GradeDefault {
		log.Info("Getting default answer")
		s := x.session(provider)
		answer, err := x.ask(ctx, s, prompt.GetDefaultAnswerPrompt(p.Problem), opts.ForceSearch, filepath.Join(DirDefaultAnswers, suffix))
		if err != nil {
			return x.res, err
		}
		if err := x.transcript("default_answer_chat_"+suffix, s.History()); err != nil {
			return x.res, err
		}
		log.Info("Grading default answer")
		if err := x.grade(ctx, answer, filepath.Join(DirGradingDefault, "high_reasoning_"+suffix), "default_grading_"+suffix); err != nil {
			return x.res, err
		}
	}
	return x.res, nil
}

func (x *run) projected(ctx context.Context, provider chat.Provider, p Problem, suffix string) error {
	log := clog.FromContext(ctx)

	log.Info("Projecting problem to lower space")
	s := x.session(provider)
	if _, err := x.ask(ctx, s, prompt.GetProjectionPrompt(p.Subject, p.Problem), false, filepath.Join(DirSimplification, suffix)); err != nil {
		return err
	}
	projection, err := x.ask(ctx, s, prompt.GetProjectionAnswerPrompt(), x.opts.ForceSearch, filepath.Join(DirProjectionAnswer, suffix))
	if err != nil {
		return err
	}

	log.Info("Grading projected problem")
	if err := x.grade(ctx, projection, filepath.Join(DirGradingProjection, suffix), "projection_grading_"+suffix); err != nil {
		return err
	}
	if !x.opts.KeepChat || !x.opts.GradeReprojected {
		if err := x.transcript("projection_chat_"+suffix, s.History()); err != nil {
			return err
		}
	}
	if !x.opts.GradeReprojected {
		return nil
	}

	if x.opts.KeepChat {
		log.Info("Reprojecting answer in the projection chat")
		answer, err := x.ask(ctx, s, prompt.GetReprojectionPrompt(projection), x.opts.ForceSearch, filepath.Join(DirReprojection, suffix))
		if err != nil {
			return err
		}
		if err := x.transcript("reprojection_cont_chat_"+suffix, s.History()); err != nil {
			return err
		}
		log.Info("Grading reprojection")
		if err := x.grade(ctx, answer, filepath.Join(DirGradingFromProjection, suffix), "reprojection_grading_"+suffix); err != nil {
			return err
		}
	}

	if x.opts.CleanChat {
		log.Info("Reprojecting answer in a clean chat")
		clean := x.session(provider)
		answer, err := x.ask(ctx, clean, prompt.GetReprojectionPrompt(projection), x.opts.ForceSearch, filepath.Join(DirReprojection, "clean_"+suffix))
		if err != nil {
			return err
		}
		if err := x.transcript("reprojection_clean_chat_"+suffix, clean.History()); err != nil {
			return err
		}
		log.Info("Grading clean reprojection")
		if err := x.grade(ctx, answer, filepath.Join(DirGradingFromProjection, "clean_"+suffix), "clean_reprojection_grading_"+suffix); err != nil {
			return err
		}
	}
	return nil
}

func (x *run) session(p chat.Provider) *chatapp.Session {
	return chatapp.NewSession(p, x.opts.Model, x.opts.WebSearch, x.opts.HighReasoning)
}

// ask paces, sends, and saves the answer under the responses root.
func (x *run) ask(ctx context.Context, s *chatapp.Session, text string, forceSearch bool, rel string) (string, error) {
	before := s.TotalCost()
	answer, err := x.send(ctx, s, text, forceSearch)
	if err != nil {
		return "", err
	}
	x.res.Cost += s.TotalCost() - before
	path := filepath.Join(x.ResponsesDir, rel)
	if err := writeFile(path, []byte(answer)); err != nil {
		return "", err
	}
	x.res.Responses = append(x.res.Responses, path)
	return answer, nil
}

func (x *run) grade(ctx context.Context, answer, rel, transcriptName string) error {
	g, err := x.gradeAnswer(ctx, x.problem, x.rubric, answer, rel)
	if err != nil {
		return err
	}
	x.res.Cost += g.cost
	x.res.Responses = append(x.res.Responses, g.path)
	return x.transcript(transcriptName, g.history)
}

func (x *run) transcript(name string, history []chat.Message) error {
	path := filepath.Join(x.ChatsDir, name)
	if err := WriteTranscript(path, history); err != nil {
		return err
	}
	x.res.Transcripts = append(x.res.Transcripts, path)
	return nil
}

func (r *Runner) send(ctx context.Context, s *chatapp.Session, text string, forceSearch bool) (string, error) {
	if r.Pacer != nil {
		if err := r.Pacer.Wait(ctx); err != nil {
			return "", err
		}
	}
	return s.Send(ctx, text, forceSearch)
}

type graded struct {
	path    string
	history []chat.Message
	cost    float64
}

// gradeAnswer grades in a fresh conversation on the grading model, so the
// grader never sees the answering chat.
func (r *Runner) gradeAnswer(ctx context.Context, problem, rubric, answer, rel string) (graded, error) {
	provider, err := r.Providers.Get(r.GradingProvider)
	if err != nil {
		return graded{}, err
	}
	s := chatapp.NewSession(provider, r.GradingModel, false, true)
	text := prompt.GetGradingPrompt(problem, rubric, answer)
	if r.SimpleGrading {
		text = prompt.GetSimpleGradingPrompt(rubric, answer)
	}
	grade, err := r.send(ctx, s, text, false)
	if err != nil {
		return graded{}, err
	}
	path := filepath.Join(r.ResponsesDir, rel)
	if err := writeFile(path, []byte(grade)); err != nil {
		return graded{}, err
	}
	return graded{path: path, history: s.History(), cost: s.TotalCost()}, nil
}

// GradeDirectory grades every regular file in dir as an answer to p. Files
// that fail are logged and reported together; the rest are still graded.
func (r *Runner) GradeDirectory(ctx context.Context, dir string, p Problem, prefix string) (RunResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return RunResult{}, fmt.Errorf("listing %s: %w", dir, err)
	}
	problem := prompt.CleanProblem(p.Problem, true)
	var res RunResult
	var errs []error
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		log := clog.FromContext(ctx).With("file", path)
		log.Info("Grading answer file")

		answer, err := os.ReadFile(path)
		if err != nil {
			log.With("error", err.Error()).Warn("Skipping unreadable answer")
			errs = append(errs, err)
			continue
		}
		rel := filepath.Join(DirGradingFromFiles, prefix+"_high_reasoning_"+e.Name())
		g, err := r.gradeAnswer(ctx, problem, p.Answer, string(answer), rel)
		if err != nil {
			if errors.Is(err, chat.ErrQuotaExceeded) || ctx.Err() != nil {
				return res, err
			}
			log.With("error", err.Error()).Warn("Grading failed")
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		res.Responses = append(res.Responses, g.path)
		res.Cost += g.cost

		tpath := filepath.Join(r.ChatsDir, prefix+"_file_grading_"+e.Name())
		if err := WriteTranscript(tpath, g.history); err != nil {
			return res, err
		}
		res.Transcripts = append(res.Transcripts, tpath)
	}
	return res, errors.Join(errs...)
}
