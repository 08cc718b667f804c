package main

import (
	"crypto/rand"
	"fmt"
	"io"
	"log"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/canopy-network/canopy/lib/cds"
)

// timing aggregates the durations of one round over all iterations
type timing struct {
	total time.Duration
	min   time.Duration
	max   time.Duration
	count int
}

func (t *timing) add(d time.Duration) {
	if t.count == 0 || d < t.min {
		t.min = d
	}
	if d > t.max {
		t.max = d
	}
	t.total += d
	t.count++
}

func (t *timing) avg() time.Duration {
	if t.count == 0 {
		return 0
	}
	return t.total / time.Duration(t.count)
}

// benchReport is the result of benchmarking one access structure
type benchReport struct {
	curve     string
	clauses   int
	active    int
	threshold int
	commit    timing
	respond   timing
	verify    timing
	proofSize int
	accepted  int
	runs      int
}

// runBench runs opts.iterations protocol executions for a d-out-of-n
// structure and collects per-round timings
func runBench(opts *benchOptions, clauses int, logger *log.Logger) (*benchReport, error) {
	if opts.iterations < 1 {
		return nil, fmt.Errorf("iterations must be positive, got %d", opts.iterations)
	}

	access, err := cds.NewAccessStructure(clauses, opts.active)
	if err != nil {
		return nil, err
	}

	var reader io.Reader = rand.Reader
	if opts.seed != "" {
		seeded, err := cds.NewSeededReader([]byte(opts.seed))
		if err != nil {
			return nil, err
		}
		reader = seeded
	}
	curve, err := cds.NewCurveWithReader(cds.CurveType(opts.curve), reader)
	if err != nil {
		return nil, err
	}

	var options []cds.Option
	options = append(options, cds.WithParallelism(opts.parallelism))
	if logger != nil {
		options = append(options, cds.WithAuditHandler(cds.NewLogAuditHandler(logger)))
	}
	cfg, err := cds.NewConfig(curve, options...)
	if err != nil {
		return nil, err
	}

	protocol := cds.NewSchnorrProtocol(curve)
	statements, secrets, err := instances(curve, opts.seed, clauses, opts.active)
	if err != nil {
		return nil, err
	}

	report := &benchReport{
		curve:     curve.Name(),
		clauses:   clauses,
		active:    opts.active,
		threshold: access.Threshold(),
	}
	for i := 0; i < opts.iterations; i++ {
		// The prover zeroizes its witnesses, so every run gets fresh copies
		witnesses := make(map[cds.ClauseIndex]cds.Witness, len(secrets))
		for index, x := range secrets {
			witnesses[index] = &cds.SchnorrWitness{X: x.Add(curve.ScalarZero())}
		}

		accepted, size, err := runOnce(cfg, protocol, access, statements, witnesses, report)
		if err != nil {
			return nil, err
		}
		report.runs++
		if accepted {
			report.accepted++
		}
		report.proofSize = size
	}
	return report, nil
}

func runOnce(
	cfg *cds.Config,
	protocol cds.Protocol,
	access *cds.AccessStructure,
	statements []cds.Statement,
	witnesses map[cds.ClauseIndex]cds.Witness,
	report *benchReport,
) (bool, int, error) {
	prover, err := cds.NewProver(cfg, protocol, access, statements, witnesses)
	if err != nil {
		return false, 0, err
	}
	verifier, err := cds.NewVerifier(cfg, protocol, access, statements)
	if err != nil {
		return false, 0, err
	}

	start := time.Now()
	commitment, err := prover.Commit()
	if err != nil {
		return false, 0, err
	}
	report.commit.add(time.Since(start))

	if err := verifier.ReceiveCommitment(commitment); err != nil {
		return false, 0, err
	}
	challenge, err := verifier.Challenge()
	if err != nil {
		return false, 0, err
	}

	start = time.Now()
	if err := prover.ReceiveChallenge(challenge); err != nil {
		return false, 0, err
	}
	response, err := prover.Respond()
	if err != nil {
		return false, 0, err
	}
	report.respond.add(time.Since(start))

	start = time.Now()
	accepted, err := verifier.Verify(response)
	if err != nil {
		return false, 0, err
	}
	report.verify.add(time.Since(start))

	proof, err := prover.Proof()
	if err != nil {
		return false, 0, err
	}
	return accepted, proof.Size(), nil
}

// instances builds n statements and witnesses for clauses 1..active. With a
// seed the witnesses are derived by hashing, otherwise they are random.
func instances(curve cds.Curve, seed string, clauses, active int) ([]cds.Statement, map[cds.ClauseIndex]cds.Scalar, error) {
	statements := make([]cds.Statement, clauses)
	secrets := make(map[cds.ClauseIndex]cds.Scalar, active)
	for i := 0; i < clauses; i++ {
		index := cds.ClauseIndex(i + 1)

		var x cds.Scalar
		var err error
		if seed != "" {
			x, err = cds.HashToScalar(curve, []byte(seed), []byte(strconv.Itoa(int(index))))
		} else {
			x, err = curve.ScalarRandom()
		}
		if err != nil {
			return nil, nil, err
		}

		statement, err := cds.NewSchnorrStatementFromWitness(curve, x)
		if err != nil {
			return nil, nil, err
		}
		statements[i] = statement
		if i < active {
			secrets[index] = x
		} else {
			x.Zeroize()
		}
	}
	return statements, secrets, nil
}

func printHeader(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "curve\tn\td\tt\tcommit avg\tcommit min/max\trespond avg\trespond min/max\tverify avg\tverify min/max\tproof bytes\taccepted")
	tw.Flush()
}

func printReport(w io.Writer, r *benchReport) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%s/%s\t%s\t%s/%s\t%s\t%s/%s\t%d\t%d/%d\n",
		r.curve, r.clauses, r.active, r.threshold,
		r.commit.avg(), r.commit.min, r.commit.max,
		r.respond.avg(), r.respond.min, r.respond.max,
		r.verify.avg(), r.verify.min, r.verify.max,
		r.proofSize, r.accepted, r.runs)
	tw.Flush()
}
