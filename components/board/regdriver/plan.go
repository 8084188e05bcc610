package regdriver

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// A Write is one register assignment of a Plan.
type Write struct {
	Address uint16
	Value   byte
}

// A Plan lists the register traffic of one run. Every iteration performs all Writes, then all
// Reads, in order.
type Plan struct {
	Writes     []Write
	Reads      []uint16
	Iterations int
}

// A Result records one transaction of a run.
type Result struct {
	Iteration int
	Address   uint16
	Value     byte
	Write     bool
	Elapsed   time.Duration
	Err       error
}

// Op is "read" or "write".
func (r Result) Op() string {
	if r.Write {
		return "write"
	}
	return "read"
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("#%d %s 0x%04X: %v", r.Iteration, r.Op(), r.Address, r.Err)
	}
	return fmt.Sprintf("#%d %s 0x%04X = 0x%02X (%s)", r.Iteration, r.Op(), r.Address, r.Value, r.Elapsed)
}

// A Summary describes how long the transactions of a run took.
type Summary struct {
	Count int
	Mean  time.Duration
	P95   time.Duration
	Max   time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("%d transaction(s), mean %s, p95 %s, max %s", s.Count, s.Mean, s.P95, s.Max)
}

// Summarize computes timing statistics over results. Failed transactions count like any other.
func Summarize(results []Result) (Summary, error) {
	if len(results) == 0 {
		return Summary{}, errors.New("no transactions to summarize")
	}
	elapsed := make(stats.Float64Data, 0, len(results))
	for _, res := range results {
		elapsed = append(elapsed, float64(res.Elapsed))
	}
	mean, err := stats.Mean(elapsed)
	if err != nil {
		return Summary{}, errors.Wrap(err, "mean")
	}
	p95, err := stats.PercentileNearestRank(elapsed, 95)
	if err != nil {
		return Summary{}, errors.Wrap(err, "95th percentile")
	}
	maxElapsed, err := stats.Max(elapsed)
	if err != nil {
		return Summary{}, errors.Wrap(err, "max")
	}
	return Summary{
		Count: len(results),
		Mean:  time.Duration(mean),
		P95:   time.Duration(p95),
		Max:   time.Duration(maxElapsed),
	}, nil
}

// Run executes plan and returns a Result per transaction attempted. It stops at the first
// failing transaction, whose Result carries the error that is also returned.
func (d *Driver) Run(plan Plan) ([]Result, error) {
	iterations := plan.Iterations
	if iterations <= 0 {
		iterations = 1
	}
	var results []Result
	for i := 0; i < iterations; i++ {
		for _, w := range plan.Writes {
			res := Result{Iteration: i, Address: w.Address, Value: w.Value, Write: true}
			res.Elapsed, res.Err = d.elapsed(func() error {
				return d.WriteRegister(w.Address, w.Value)
			})
			results = append(results, res)
			if res.Err != nil {
				d.logger.Errorw("register write failed", "iteration", i, "address", w.Address, "error", res.Err)
				return results, errors.Wrapf(res.Err, "iteration %d", i)
			}
		}
		for _, addr := range plan.Reads {
			res := Result{Iteration: i, Address: addr}
			res.Elapsed, res.Err = d.elapsed(func() error {
				var err error
				res.Value, err = d.ReadRegister(addr)
				return err
			})
			results = append(results, res)
			if res.Err != nil {
				d.logger.Errorw("register read failed", "iteration", i, "address", addr, "error", res.Err)
				return results, errors.Wrapf(res.Err, "iteration %d", i)
			}
			d.logger.Debugw("register read", "iteration", i, "address", addr, "value", res.Value)
		}
	}
	return results, nil
}
