package ranking

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/rankwell/core"
)

// Request is the input to one ranking run.
type Request struct {
	Requester     core.Requester
	Candidates    []core.Candidate
	Rules         []core.HardFilterRule
	WeightClasses []core.WeightClass
	// Params overrides the scoring constants. Nil means DefaultScoringParams.
	Params *ScoringParams
}

// Outcome is the scored payload of a ranking run.
type Outcome struct {
	Ranked   []core.MatchResult   `json:"ranked" yaml:"ranked"`
	Metadata core.RankingMetadata `json:"metadata" yaml:"metadata"`
}

// Ranker runs the ranking stages for a request.
// A Ranker holds no per-run state and is safe for concurrent use.
type Ranker struct {
	monitor Monitor
	pool    *ants.Pool
	logger  *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithMonitor sets the monitor receiving stage callbacks.
func WithMonitor(monitor Monitor) Option {
	return func(r *Ranker) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		r.monitor = monitor
		return nil
	}
}

// WithParallelism scores candidates on a worker pool of the given size.
// Sizes below 2 score sequentially. Output is identical either way.
func WithParallelism(size int) Option {
	return func(r *Ranker) error {
		if r.pool != nil {
			r.pool.Release()
			r.pool = nil
		}
		if size < 2 {
			return nil
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		r.pool = pool
		return nil
	}
}

// NewRanker creates a new ranker.
func NewRanker(opts ...Option) (*Ranker, error) {
	r := &Ranker{
		monitor: &noopMonitor{},
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			r.Release()
			return nil, err
		}
	}

	r.logger = r.logger.With("component", "ranker")
	return r, nil
}

// Release releases the worker pool, if any.
// The ranker should not be used after calling Release.
func (r *Ranker) Release() {
	if r.pool != nil {
		r.pool.Release()
		r.pool = nil
	}
}

// Rank assembles the pool, applies hard filters, scores, sorts and
// explains. An empty pool after filtering is a normal outcome with an
// empty ranked list and ReasonNoCandidates. Errors are returned only for
// structurally invalid requests.
func (r *Ranker) Rank(req Request) (Outcome, error) {
	if err := validateRequest(&req); err != nil {
		return Outcome{}, err
	}
	params := DefaultScoringParams()
	if req.Params != nil {
		params = *req.Params
	}

	started := time.Now()
	r.monitor.Start(req.Requester.ID, len(req.Candidates))

	admitted, dropped := AssemblePool(req.Candidates)
	r.logger.Info("assembled candidate pool", "requester", req.Requester.ID, "admitted", len(admitted), "dropped", dropped)
	r.monitor.AfterAssembly(len(admitted), dropped)

	report := EvaluateHardFilters(admitted, req.Rules)
	for _, rule := range report.Unrecognized {
		r.logger.Warn("unrecognized hard filter operator, rule treated as passing", "field", rule.Field, "operator", rule.RawOperator)
		r.monitor.UnrecognizedOperator(rule)
	}
	r.logger.Debug("evaluated hard filters", "passed", len(report.Passed), "failed", len(report.Failed))
	r.monitor.AfterHardFilters(len(report.Passed), report.Failed)

	metadata := core.RankingMetadata{
		FilteredCount:     dropped + len(report.Failed),
		DroppedAtAssembly: dropped,
		FailedFilters:     report.Failed,
	}
	for _, rule := range report.Unrecognized {
		metadata.UnrecognizedRules = append(metadata.UnrecognizedRules, fmt.Sprintf("%s %s", rule.Field, rule.RawOperator))
	}

	if len(report.Passed) == 0 {
		metadata.ConfidenceLevel = core.ConfidenceLow
		metadata.Reason = ReasonNoCandidates
		outcome := Outcome{Ranked: []core.MatchResult{}, Metadata: metadata}
		r.logger.Info("no candidates passed hard filters", "requester", req.Requester.ID, "filtered", metadata.FilteredCount)
		r.monitor.EmptyPool(ReasonNoCandidates)
		r.monitor.Finish(outcome, time.Since(started))
		return outcome, nil
	}

	scored := r.scoreAll(&req.Requester, report.Passed, req.WeightClasses, params)
	for _, result := range scored {
		for _, m := range result.Mismatches {
			r.logger.Warn("embedding dimension mismatch, field excluded",
				"candidate", result.CandidateID, "field", m.Field,
				"requester_dim", m.RequesterDim, "candidate_dim", m.CandidateDim)
			r.monitor.DimensionMismatch(result.CandidateID, m)
		}
	}

	ranked := GenerateExplanations(SortResults(scored), params)

	metadata.RankedCount = len(ranked)
	metadata.ConfidenceLevel = core.BucketConfidence(MeanConfidence(ranked))
	outcome := Outcome{Ranked: ranked, Metadata: metadata}

	r.logger.Info("ranked candidates", "requester", req.Requester.ID, "ranked", metadata.RankedCount,
		"filtered", metadata.FilteredCount, "confidence", metadata.ConfidenceLevel)
	r.monitor.Finish(outcome, time.Since(started))
	return outcome, nil
}

func (r *Ranker) scoreAll(requester *core.Requester, passed []core.Candidate, classes []core.WeightClass, params ScoringParams) []core.MatchResult {
	fields := GovernedFields(classes)
	results := make([]core.MatchResult, len(passed))

	score := func(i int) {
		results[i] = scoreResult(requester, &passed[i], classes, fields, params)
		r.monitor.CandidateScored(results[i])
	}

	if r.pool == nil || len(passed) < 2 {
		for i := range passed {
			score(i)
		}
		return results
	}

	var wg sync.WaitGroup
	for i := range passed {
		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			score(i)
		})
		if err != nil {
			// Pool rejected the task; score inline so the run stays complete.
			wg.Done()
			score(i)
		}
	}
	wg.Wait()
	return results
}

func scoreResult(requester *core.Requester, candidate *core.Candidate, classes []core.WeightClass, fields []string, params ScoringParams) core.MatchResult {
	s := ScoreCandidate(requester, candidate, classes, params)
	return core.MatchResult{
		CandidateID:   candidate.ID,
		TotalScore:    s.Breakdown.Total(),
		Confidence:    EstimateConfidence(requester, candidate, fields),
		Breakdown:     s.Breakdown,
		FilterStatus:  core.FilterPassed,
		ScoringTokens: s.Tokens,
		Mismatches:    s.Mismatches,
	}
}

func validateRequest(req *Request) error {
	if err := core.ValidateRequester(&req.Requester); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := core.ValidateCandidates(req.Candidates); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := core.ValidateWeightClasses(req.WeightClasses); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	for i := range req.Rules {
		if err := core.ValidateHardFilterRule(&req.Rules[i]); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	if req.Params != nil {
		if err := req.Params.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	return nil
}
