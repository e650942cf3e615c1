package server

import (
	"context"
	"errors"
	"time"

	"github.com/heng-zhai/MSc-project/internal/metrics"
	"github.com/heng-zhai/MSc-project/internal/optimization"
	"github.com/heng-zhai/MSc-project/internal/optimization/bees"
	"github.com/heng-zhai/MSc-project/internal/optimization/benchmarks"
	"github.com/heng-zhai/MSc-project/internal/optimization/memo"
)

// Job statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// StartRequest describes a job. The optimizer maximises the negated
// benchmark, so TargetFitness is expressed on that scale: a target of -0.01
// stops once the benchmark value is at most 0.01.
type StartRequest struct {
	Function      string       `json:"function"`
	Dimensions    int          `json:"dimensions"`
	Bounds        [][]float64  `json:"bounds,omitempty"`
	MaxIterations *int         `json:"max_iterations,omitempty"`
	TargetFitness *float64     `json:"target_fitness,omitempty"`
	Seed          *int64       `json:"seed,omitempty"`
	Params        *ParamsInput `json:"params,omitempty"`
}

// ParamsInput overrides the server's default algorithm parameters. Zero
// values keep the default.
type ParamsInput struct {
	Scouts            int       `json:"ns,omitempty"`
	BestSites         int       `json:"nb,omitempty"`
	Recruiters        int       `json:"nr,omitempty"`
	StagnationLimit   int       `json:"stlim,omitempty"`
	ShrinkFactor      *float64  `json:"sf,omitempty"`
	Recruitment       string    `json:"recruitment,omitempty"`
	NeighborhoodScale []float64 `json:"neighborhood_scale,omitempty"`
}

// StartResponse is returned when a job is accepted.
type StartResponse struct {
	OptimizationID string `json:"optimization_id"`
	Status         string `json:"status"`
}

// SolutionView is a solution on both scales.
type SolutionView struct {
	Parameters []float64 `json:"parameters"`
	// Fitness is the maximised (negated) objective, Value the benchmark.
	Fitness float64 `json:"fitness"`
	Value   float64 `json:"value"`
}

// StatusResponse reports a job.
type StatusResponse struct {
	OptimizationID string        `json:"optimization_id"`
	Function       string        `json:"function"`
	Dimensions     int           `json:"dimensions"`
	Status         string        `json:"status"`
	Progress       float64       `json:"progress"`
	Iterations     int           `json:"iterations"`
	Evaluations    int           `json:"evaluations"`
	TargetReached  bool          `json:"target_reached"`
	StartTime      string        `json:"start_time"`
	LastUpdate     string        `json:"last_update"`
	EndTime        string        `json:"end_time,omitempty"`
	BestSolution   *SolutionView `json:"best_solution,omitempty"`
	Convergence    []float64     `json:"convergence"`
	Cache          *memo.Stats   `json:"cache,omitempty"`
	Error          string        `json:"error,omitempty"`
}

// OptimizationState represents the state of an optimization job.
// It tracks the progress, status, and results of an optimization process.
// Fields are guarded by Server.optimizationsMu; the optimizer itself is only
// touched by the job goroutine.
type OptimizationState struct {
	ID          string
	Function    string
	Dimensions  int
	Status      string
	StartTime   time.Time
	EndTime     *time.Time
	LastUpdated time.Time

	Iterations    int
	MaxIterations int
	Evaluations   int
	TargetReached bool
	BestSolution  *optimization.Solution
	Record        []float64
	Err           string

	optimizer *bees.Optimizer
	criteria  optimization.StoppingCriteria
	cache     *memo.Cached
	cancel    context.CancelFunc
	ctx       context.Context
	started   bool
}

func (st *OptimizationState) terminal() bool {
	switch st.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// startOptimization validates req, builds the optimizer and launches the job.
func (s *Server) startOptimization(req StartRequest) (*StartResponse, error) {
	const op = "Server.startOptimization"

	if s.closed.Load() {
		return nil, ErrClosed
	}

	limits := s.cfg.Optimization
	if limits.MaxDimensions > 0 && req.Dimensions > limits.MaxDimensions {
		return nil, optimization.InvalidConfigurationf("at most %d dimensions are allowed, got %d",
			limits.MaxDimensions, req.Dimensions).WithOperation(op)
	}

	fn, err := benchmarks.New(req.Function, req.Dimensions)
	if err != nil {
		return nil, err
	}
	lower, upper, err := s.bounds(fn, req.Bounds)
	if err != nil {
		return nil, err
	}

	maxIterations := s.cfg.Optimization.MaxIterations
	if req.MaxIterations != nil {
		maxIterations = *req.MaxIterations
	}
	if limits.IterationLimit > 0 && maxIterations > limits.IterationLimit {
		return nil, optimization.InvalidConfigurationf("max_iterations must not exceed %d, got %d",
			limits.IterationLimit, maxIterations).WithOperation(op)
	}
	criteria := optimization.StopAfter(maxIterations)
	if req.TargetFitness != nil {
		criteria = criteria.WithTargetFitness(*req.TargetFitness)
	}
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	objective, cache, err := memo.Wrap(benchmarks.Objective(fn, true), s.cfg.Optimization.MemoSize)
	if err != nil {
		return nil, err
	}
	cfg, err := s.beesConfig(objective, lower, upper, req.Params)
	if err != nil {
		return nil, err
	}
	if limits.MaxBees > 0 && max(cfg.Scouts, cfg.Recruiters) > limits.MaxBees {
		return nil, optimization.InvalidConfigurationf("ns and nr must not exceed %d, got %d and %d",
			limits.MaxBees, cfg.Scouts, cfg.Recruiters).WithOperation(op)
	}

	if !s.limiter.Allow() {
		s.metrics.JobRejected(fn.Name())
		return nil, ErrRateLimited
	}

	opts := []bees.Option{
		bees.WithLogger(s.zap),
		bees.WithObserver(s.metrics.Observer(fn.Name())),
	}
	if req.Seed != nil {
		opts = append(opts, bees.WithSeed(*req.Seed))
	}
	optimizer, err := bees.New(cfg, opts...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	best := optimizer.BestSolution()
	state := &OptimizationState{
		ID:            s.newID(),
		Function:      fn.Name(),
		Dimensions:    fn.Dimensions(),
		Status:        StatusPending,
		StartTime:     now,
		LastUpdated:   now,
		MaxIterations: maxIterations,
		Evaluations:   optimizer.Evaluations(),
		BestSolution:  &best,
		optimizer:     optimizer,
		criteria:      criteria,
		cache:         cache,
		cancel:        cancel,
		ctx:           ctx,
	}

	// Close flips closed under the same lock, so a job is either registered
	// before Close cancels and waits for it, or refused.
	s.optimizationsMu.Lock()
	if s.closed.Load() {
		s.optimizationsMu.Unlock()
		cancel()
		return nil, ErrClosed
	}
	s.optimizations[state.ID] = state
	s.jobs.Add(1)
	s.optimizationsMu.Unlock()

	go s.runOptimization(state)

	s.logger.Info("Optimization accepted", map[string]interface{}{
		"optimization_id": state.ID,
		"function":        state.Function,
		"dimensions":      state.Dimensions,
		"max_iterations":  maxIterations,
		"op":              op,
	})

	return &StartResponse{OptimizationID: state.ID, Status: StatusPending}, nil
}

func (s *Server) bounds(fn benchmarks.Function, given [][]float64) ([]float64, []float64, error) {
	if len(given) == 0 {
		lower, upper, err := s.catalog.SuggestedBounds(fn.Name(), fn.Dimensions())
		if err != nil {
			return nil, nil, optimization.WrapError(err, "bounds are required").
				WithKind(optimization.KindInvalidConfiguration)
		}
		return lower, upper, nil
	}
	if len(given) != fn.Dimensions() {
		return nil, nil, optimization.InvalidConfigurationf("expected %d bounds, got %d", fn.Dimensions(), len(given))
	}
	lower := make([]float64, len(given))
	upper := make([]float64, len(given))
	for i, b := range given {
		if len(b) != 2 {
			return nil, nil, optimization.InvalidConfigurationf("invalid bounds format, expected [[min1, max1], [min2, max2], ...]")
		}
		lower[i], upper[i] = b[0], b[1]
	}
	return lower, upper, nil
}

func (s *Server) beesConfig(objective optimization.ObjectiveFunction, lower, upper []float64, in *ParamsInput) (bees.Config, error) {
	cfg, err := s.cfg.Bees.Apply(bees.DefaultConfig(objective, lower, upper))
	if err != nil {
		return cfg, optimization.WrapError(err, "invalid default parameters").
			WithKind(optimization.KindInvalidConfiguration)
	}
	if in == nil {
		return cfg, nil
	}
	if in.Scouts != 0 {
		cfg.Scouts = in.Scouts
	}
	if in.BestSites != 0 {
		cfg.BestSites = in.BestSites
	}
	if in.Recruiters != 0 {
		cfg.Recruiters = in.Recruiters
	}
	if in.StagnationLimit != 0 {
		cfg.StagnationLimit = in.StagnationLimit
	}
	if in.ShrinkFactor != nil {
		cfg.ShrinkFactor = *in.ShrinkFactor
	}
	if in.Recruitment != "" {
		policy, err := bees.ParseRecruitmentPolicy(in.Recruitment)
		if err != nil {
			return cfg, optimization.WrapError(err, "invalid recruitment").
				WithKind(optimization.KindInvalidConfiguration)
		}
		cfg.Recruitment = policy
	}
	if in.NeighborhoodScale != nil {
		cfg.NeighborhoodScale = in.NeighborhoodScale
	}
	return cfg, nil
}

// runOptimization executes the optimization process in a goroutine
func (s *Server) runOptimization(state *OptimizationState) {
	defer s.jobs.Done()
	defer state.cancel()

	if err := s.workers.Acquire(state.ctx, 1); err != nil {
		s.finish(state, err, time.Time{})
		return
	}
	defer s.workers.Release(1)

	s.optimizationsMu.Lock()
	if state.terminal() {
		s.optimizationsMu.Unlock()
		return
	}
	state.Status = StatusRunning
	state.started = true
	s.optimizationsMu.Unlock()

	s.metrics.JobStarted()
	start := time.Now()

	optimizer := state.optimizer
	iterations := 0
	best := optimizer.BestSolution()
	for !state.criteria.Done(iterations, best.Value) {
		if err := optimizer.Step(state.ctx); err != nil {
			s.finish(state, err, start)
			return
		}
		iterations++
		best = optimizer.BestSolution()

		s.optimizationsMu.Lock()
		state.Iterations = iterations
		state.BestSolution = &best
		state.Record = append(state.Record, best.Value)
		state.Evaluations = optimizer.Evaluations()
		state.LastUpdated = time.Now()
		s.optimizationsMu.Unlock()
	}

	s.optimizationsMu.Lock()
	state.TargetReached = state.criteria.TargetFitness != nil && best.Value >= *state.criteria.TargetFitness
	s.optimizationsMu.Unlock()
	s.finish(state, nil, start)
}

// finish moves state to its terminal status. A job cancelled through the API
// keeps its cancelled status. start is zero for jobs that never ran.
func (s *Server) finish(state *OptimizationState, err error, start time.Time) {
	s.optimizationsMu.Lock()
	var status string
	switch {
	case state.Status == StatusCancelled:
		status = StatusCancelled
	case err == nil:
		status = StatusCompleted
	case errors.Is(err, optimization.ErrCancelled), errors.Is(err, context.Canceled):
		status = StatusCancelled
	default:
		status = StatusFailed
		state.Err = err.Error()
	}
	// Recorded before the status is visible to pollers.
	if !start.IsZero() {
		s.metrics.JobFinished(state.Function, metricsStatus(status), time.Since(start))
	}
	state.Status = status
	if state.EndTime == nil {
		now := time.Now()
		state.EndTime = &now
		state.LastUpdated = now
	}
	if state.cache != nil {
		stats := state.cache.Stats()
		s.metrics.RecordCache(stats.Hits, stats.Misses)
	}
	fields := map[string]interface{}{
		"optimization_id": state.ID,
		"function":        state.Function,
		"status":          status,
		"iterations":      state.Iterations,
	}
	if state.BestSolution != nil {
		fields["best_fitness"] = state.BestSolution.Value
	}
	s.optimizationsMu.Unlock()

	if status == StatusFailed {
		fields["error"] = err.Error()
		s.logger.Error("Optimization failed", fields)
		return
	}
	s.logger.Info("Optimization finished", fields)
}

func metricsStatus(status string) string {
	switch status {
	case StatusCancelled:
		return metrics.StatusCancelled
	case StatusFailed:
		return metrics.StatusFailed
	default:
		return metrics.StatusCompleted
	}
}

// optimizationStatus returns a snapshot of the job.
func (s *Server) optimizationStatus(id string) (*StatusResponse, error) {
	s.optimizationsMu.RLock()
	defer s.optimizationsMu.RUnlock()

	state, exists := s.optimizations[id]
	if !exists {
		return nil, ErrNotFound
	}

	resp := &StatusResponse{
		OptimizationID: state.ID,
		Function:       state.Function,
		Dimensions:     state.Dimensions,
		Status:         state.Status,
		Iterations:     state.Iterations,
		Evaluations:    state.Evaluations,
		TargetReached:  state.TargetReached,
		StartTime:      state.StartTime.Format(time.RFC3339),
		LastUpdate:     state.LastUpdated.Format(time.RFC3339),
		Convergence:    append([]float64{}, state.Record...),
		Error:          state.Err,
	}
	switch {
	case state.Status == StatusCompleted:
		resp.Progress = 1
	case state.MaxIterations > 0:
		resp.Progress = float64(state.Iterations) / float64(state.MaxIterations)
	}
	if state.EndTime != nil {
		resp.EndTime = state.EndTime.Format(time.RFC3339)
	}
	if state.BestSolution != nil {
		resp.BestSolution = &SolutionView{
			Parameters: append([]float64(nil), state.BestSolution.Parameters...),
			Fitness:    state.BestSolution.Value,
			Value:      -state.BestSolution.Value,
		}
	}
	if state.cache != nil {
		stats := state.cache.Stats()
		resp.Cache = &stats
	}
	return resp, nil
}

// cancelOptimization cancels a pending or running job.
func (s *Server) cancelOptimization(id string) error {
	s.optimizationsMu.Lock()
	defer s.optimizationsMu.Unlock()

	state, exists := s.optimizations[id]
	if !exists {
		return ErrNotFound
	}
	if state.terminal() {
		return ErrFinished
	}

	state.cancel()
	state.Status = StatusCancelled
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now

	s.logger.Info("Optimization cancelled", map[string]interface{}{
		"optimization_id": id,
	})
	return nil
}

// FunctionInfo describes a benchmark available to jobs.
type FunctionInfo struct {
	Name            string  `json:"name"`
	FixedDimensions int     `json:"fixed_dimensions,omitempty"`
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
}

func (s *Server) listFunctions() []FunctionInfo {
	available := benchmarks.Available()
	out := make([]FunctionInfo, 0, len(available))
	for _, info := range available {
		fi := FunctionInfo{Name: info.Name, FixedDimensions: info.FixedDimensions}
		if lower, upper, err := s.catalog.SuggestedBounds(info.Name, 1); err == nil {
			fi.Lower, fi.Upper = lower[0], upper[0]
		}
		out = append(out, fi)
	}
	return out
}
