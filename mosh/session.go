package mosh

import (
	"time"

	"github.com/rs/zerolog"

	"datamosh/container"
	"datamosh/models"
)

// ProgressFunc is called while a stage is running with glitches done out of total
type ProgressFunc func(stage, done, total int)

const progressEvery = 100

// Session owns one buffer and drives every stage over it
type Session struct {
	buf        []byte
	family     container.Family
	rng        Source
	seed       int64
	stages     []models.Stage
	anchors    container.Anchors
	mask       container.Mask
	frameCount int
	engine     *Engine
	logger     zerolog.Logger
	progress   ProgressFunc
}

type Option func(*Session)

// WithStages replaces the family's default stage profile
func WithStages(stages []models.Stage) Option {
	return func(s *Session) {
		if len(stages) > 0 {
			s.stages = append([]models.Stage(nil), stages...)
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

func WithProgress(fn ProgressFunc) Option {
	return func(s *Session) { s.progress = fn }
}

// WithSeed records the seed behind rng in the run report
func WithSeed(seed int64) Option {
	return func(s *Session) { s.seed = seed }
}

// NewSession scans buf, builds its protection mask and counts frames. The buffer is
// mutated in place by Run.
func NewSession(buf []byte, family container.Family, rng Source, opts ...Option) *Session {
	s := &Session{
		buf:    buf,
		family: family,
		rng:    rng,
		stages: family.DefaultStages(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.anchors = family.ScanAnchors(buf)
	s.mask, s.frameCount = family.BuildMask(buf, s.anchors)
	s.engine = NewEngine(buf, s.mask, family.Mutation(), rng)
	return s
}

func (s *Session) Mask() container.Mask       { return s.mask }
func (s *Session) FrameCount() int            { return s.frameCount }
func (s *Session) Anchors() container.Anchors { return s.anchors }
func (s *Session) Stages() []models.Stage     { return s.stages }

// Plan maps every stage onto byte ranges. It fails as a whole, before any mutation.
func (s *Session) Plan() ([]container.StagePlan, error) {
	plans := make([]container.StagePlan, 0, len(s.stages))
	for i, stage := range s.stages {
		plan, err := s.family.PlanStage(s.buf, s.anchors, i, stage, s.frameCount)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// Run executes all stages in order. On container.ErrMalformedContainer the buffer is untouched.
func (s *Session) Run() (models.RunReport, error) {
	report := models.RunReport{
		Format:         string(s.family.Format()),
		Seed:           s.seed,
		FileSize:       len(s.buf),
		ProtectedBytes: s.mask.Count(),
		FrameCount:     s.frameCount,
	}

	plans, err := s.Plan()
	if err != nil {
		return report, err
	}

	for _, plan := range plans {
		stageReport := s.runStage(plan)
		report.Stages = append(report.Stages, stageReport)
		report.TotalGlitches += stageReport.Applied
	}

	s.logger.Info().
		Int("glitches", report.TotalGlitches).
		Int("frames", report.FrameCount).
		Msg("corruption complete")
	return report, nil
}

func (s *Session) runStage(plan container.StagePlan) models.StageReport {
	started := time.Now()
	stage := plan.Stage
	s.logger.Info().
		Int("stage", plan.Index+1).
		Float64("start_pct", stage.StartRatio*100).
		Float64("end_pct", stage.EndRatio*100).
		Float64("intensity", stage.Intensity).
		Int("burst", stage.BurstSize).
		Int("target", plan.Target).
		Msg("stage")

	positions := SamplePositions(s.rng, s.mask, plan)
	if plan.Target > 0 && len(positions) == 0 {
		s.logger.Warn().Int("stage", plan.Index+1).Msg("no writable bytes in stage range")
	}

	rep := models.StageReport{
		Index:     plan.Index,
		Stage:     stage,
		Target:    plan.Target,
		Operators: make(map[string]int),
	}
	for i, pos := range positions {
		op := s.engine.Pick(plan.Index)
		rep.Written += s.engine.Apply(op, pos, stage.BurstSize, stage.Intensity)
		rep.Operators[op.String()]++
		rep.Applied++

		if (i+1)%progressEvery == 0 || i+1 == len(positions) {
			s.logger.Debug().Int("stage", plan.Index+1).Int("done", i+1).Int("total", len(positions)).Msg("progress")
			if s.progress != nil {
				s.progress(plan.Index, i+1, len(positions))
			}
		}
	}

	rep.DurationMS = time.Since(started).Milliseconds()
	s.logger.Info().
		Int("stage", plan.Index+1).
		Int("glitches", rep.Applied).
		Int64("ms", rep.DurationMS).
		Msg("stage done")
	return rep
}
