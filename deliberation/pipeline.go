package deliberation

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/zacbakerr/werewolf/core"
	"github.com/zacbakerr/werewolf/internal/util"
	"github.com/zacbakerr/werewolf/logging"
)

// Caller sends one prompt to the reasoning backend.
type Caller interface {
	Call(ctx context.Context, prompt string) (string, error)
}

// Stage identifies one step of a cycle.
type Stage int

const (
	// StageContext assembles guidance, memory and transcript.
	StageContext Stage = iota
	// StageThought produces the inner monologue.
	StageThought
	// StageDraft produces a first action.
	StageDraft
	// StageReflection critiques the draft.
	StageReflection
	// StageFinal produces the action that is returned.
	StageFinal
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageContext, StageThought, StageDraft, StageReflection, StageFinal}

// String implements fmt.Stringer.
func (s Stage) String() string {
	switch s {
	case StageContext:
		return "context"
	case StageThought:
		return "thought"
	case StageDraft:
		return "draft"
	case StageReflection:
		return "reflection"
	case StageFinal:
		return "final"
	default:
		return "unknown"
	}
}

// Input parameterizes one cycle.
type Input struct {
	Self string
	// Persona is the role the prompts speak as. It can differ from the
	// bound role when a decoy persona is configured.
	Persona core.Role
	// Guidance is the role-specific persona text.
	Guidance string
	// Questions seed the Thought stage.
	Questions string
	// Transcript is the transcript view the strategy chose.
	Transcript []string
	// Memory holds role memory (seer checks, protections, beliefs) and is
	// appended to the transcript in the Context stage.
	Memory []string
	Action ActionKind
	// Constraints are appended to the Draft and Final instructions.
	Constraints string
}

// Result carries every stage output of one cycle.
type Result struct {
	CycleID    string
	Situation  string
	Thought    string
	Draft      string
	Reflection string
	Final      string
	Duration   time.Duration
}

// Options configure a Pipeline.
type Options struct {
	Logger logging.Logger
	// OnStage, when set, observes each stage after it completes.
	OnStage func(stage Stage, output string)
}

// Pipeline executes cycles sequentially through a Caller.
type Pipeline struct {
	caller Caller
	opts   Options
}

// New creates a Pipeline.
func New(caller Caller, optFns ...func(o *Options)) *Pipeline {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Pipeline{caller: caller, opts: opts}
}

type promptData struct {
	Self        string
	Role        string
	Guidance    string
	Situation   string
	Questions   string
	Action      ActionKind
	Constraints string
	Thought     string
	Draft       string
	Reflection  string
}

type step struct {
	stage Stage
	run   func(ctx context.Context, d *promptData, res *Result) error
}

// Run executes every stage in order. A backend error stops the cycle and is
// returned wrapped with the failing stage.
func (p *Pipeline) Run(ctx context.Context, in Input) (Result, error) {
	res := Result{CycleID: core.NewID()}
	start := time.Now()

	log, attrs := p.opts.Logger, []any{"cycle_id", res.CycleID}
	if al, ok := log.(*logging.AgentLogger); ok {
		log, attrs = al.WithCycle(res.CycleID), nil
	}

	var role string
	if in.Persona.IsValid() {
		role = in.Persona.GameTerm()
	}

	d := &promptData{
		Self:        in.Self,
		Role:        role,
		Guidance:    in.Guidance,
		Questions:   in.Questions,
		Action:      in.Action,
		Constraints: in.Constraints,
	}

	steps := []step{
		{StageContext, func(_ context.Context, d *promptData, res *Result) error {
			d.Situation = situation(in)
			res.Situation = d.Situation
			return nil
		}},
		{StageThought, p.call(thoughtTmpl, func(d *promptData, res *Result, out string) {
			d.Thought, res.Thought = out, out
		})},
		{StageDraft, p.call(draftTmpl, func(d *promptData, res *Result, out string) {
			d.Draft, res.Draft = out, out
		})},
		{StageReflection, p.call(reflectionTmpl, func(d *promptData, res *Result, out string) {
			d.Reflection, res.Reflection = out, out
		})},
		{StageFinal, p.call(finalTmpl, func(_ *promptData, res *Result, out string) {
			res.Final = strings.TrimSpace(out)
		})},
	}

	for _, s := range steps {
		if err := s.run(ctx, d, &res); err != nil {
			return res, fmt.Errorf("deliberation failed at stage %s: %w", s.stage, err)
		}
		if p.opts.OnStage != nil {
			p.opts.OnStage(s.stage, stageOutput(s.stage, &res))
		}
		log.Debug("Deliberation stage completed", append(attrs, "stage", s.stage.String())...)
	}

	res.Duration = time.Since(start)

	return res, nil
}

func (p *Pipeline) call(tmpl *template.Template, store func(*promptData, *Result, string)) func(context.Context, *promptData, *Result) error {
	return func(ctx context.Context, d *promptData, res *Result) error {
		prompt, err := util.Execute(tmpl, d)
		if err != nil {
			return err
		}
		out, err := p.caller.Call(ctx, prompt)
		if err != nil {
			return err
		}
		store(d, res, out)
		return nil
	}
}

func stageOutput(s Stage, res *Result) string {
	switch s {
	case StageContext:
		return res.Situation
	case StageThought:
		return res.Thought
	case StageDraft:
		return res.Draft
	case StageReflection:
		return res.Reflection
	default:
		return res.Final
	}
}

func situation(in Input) string {
	var b strings.Builder
	if len(in.Transcript) == 0 {
		b.WriteString("(nothing has happened yet)")
	} else {
		b.WriteString(strings.Join(in.Transcript, "\n"))
	}
	for _, m := range in.Memory {
		if m == "" {
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(m)
	}
	return b.String()
}
