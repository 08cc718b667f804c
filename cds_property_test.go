package cds_test

import (
	"sort"
	"testing/quick"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/canopy-network/canopy/lib/cds"
)

const soundnessAttempts = 50

type instance struct {
	protocol   *cds.SchnorrProtocol
	statements []cds.Statement
	witnesses  []*cds.SchnorrWitness
}

func newInstance(curve cds.Curve, n int) *instance {
	inst := &instance{protocol: cds.NewSchnorrProtocol(curve)}
	for i := 0; i < n; i++ {
		statement, witness, err := cds.GenerateSchnorrInstance(curve)
		Expect(err).NotTo(HaveOccurred())
		inst.statements = append(inst.statements, statement)
		inst.witnesses = append(inst.witnesses, witness)
	}
	return inst
}

func (inst *instance) witnessMap(curve cds.Curve, active []cds.ClauseIndex) map[cds.ClauseIndex]cds.Witness {
	out := make(map[cds.ClauseIndex]cds.Witness, len(active))
	for _, index := range active {
		out[index] = &cds.SchnorrWitness{X: inst.witnesses[index-1].X.Add(curve.ScalarZero())}
	}
	return out
}

// pick chooses d distinct indices in 1..n from seed
func pick(n, d int, seed uint64) []cds.ClauseIndex {
	all := make([]cds.ClauseIndex, n)
	for i := range all {
		all[i] = cds.ClauseIndex(i + 1)
	}
	for i := n - 1; i > 0; i-- {
		seed = seed*6364136223846793005 + 1442695040888963407
		j := int(seed>>33) % (i + 1)
		all[i], all[j] = all[j], all[i]
	}
	return all[:d]
}

func run(cfg *cds.Config, inst *instance, access *cds.AccessStructure, active []cds.ClauseIndex) (*cds.Prover, bool) {
	prover, err := cds.NewProver(cfg, inst.protocol, access, inst.statements, inst.witnessMap(cfg.Curve, active))
	Expect(err).NotTo(HaveOccurred())
	verifier, err := cds.NewVerifier(cfg, inst.protocol, access, inst.statements)
	Expect(err).NotTo(HaveOccurred())
	accepted, err := cds.RunProtocol(prover, verifier)
	Expect(err).NotTo(HaveOccurred())
	return prover, accepted
}

var _ = Describe("CDS94 Compiler", func() {
	var (
		curve cds.Curve
		cfg   *cds.Config
	)

	BeforeEach(func() {
		curve = cds.NewEd25519Curve()
		var err error
		cfg, err = cds.NewConfig(curve, cds.WithParallelism(4))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Property-Based Testing", func() {
		It("accepts an honest prover for any qualified set", func() {
			property := func(nRaw, dRaw uint8, seed uint64) bool {
				n := int(nRaw%8) + 1
				d := int(dRaw%uint8(n)) + 1
				access, err := cds.NewAccessStructure(n, d)
				if err != nil {
					return false
				}
				_, accepted := run(cfg, newInstance(curve, n), access, pick(n, d, seed))
				return accepted
			}
			Expect(quick.Check(property, &quick.Config{MaxCount: 20})).To(Succeed())
		})

		It("partitions the clauses into real and simulated sets", func() {
			property := func(nRaw, dRaw uint8, seed uint64) bool {
				n := int(nRaw%8) + 1
				d := int(dRaw%uint8(n)) + 1
				access, _ := cds.NewAccessStructure(n, d)
				active := pick(n, d, seed)
				prover, _ := run(cfg, newInstance(curve, n), access, active)

				realClauses := prover.RealClauses()
				expected := append([]cds.ClauseIndex(nil), active...)
				sort.Slice(expected, func(i, j int) bool { return expected[i] < expected[j] })
				if len(realClauses) != len(expected) {
					return false
				}
				for i := range expected {
					if realClauses[i] != expected[i] {
						return false
					}
				}
				return len(access.Indices()) == n
			}
			Expect(quick.Check(property, &quick.Config{MaxCount: 20})).To(Succeed())
		})

		It("reconstructs the secret from any threshold shares", func() {
			sharing := cds.NewShamirSecretSharing(curve)
			property := func(nRaw, tRaw uint8, secretRaw uint64) bool {
				n := int(nRaw%16) + 1
				t := int(tRaw%uint8(n)) + 1
				secret := curve.ScalarFromUint64(secretRaw)
				shares, err := sharing.GenerateShares(secret, t, n)
				if err != nil {
					return false
				}
				recovered, err := sharing.Reconstruct(shares[n-t:], t)
				return err == nil && recovered.Equal(secret)
			}
			Expect(quick.Check(property, &quick.Config{MaxCount: 50})).To(Succeed())
		})

		It("completes a qualified set uniquely", func() {
			sharing := cds.NewShamirSecretSharing(curve)
			property := func(nRaw, dRaw uint8) bool {
				n := int(nRaw%12) + 1
				d := int(dRaw%uint8(n)) + 1
				t := n - d + 1

				secret, _ := curve.ScalarRandom()
				fixed := make([]*cds.Share, 0, t-1)
				for i := 1; i < t; i++ {
					value, _ := curve.ScalarRandom()
					fixed = append(fixed, cds.NewShare(cds.ClauseIndex(i), value))
				}
				var targets []cds.ClauseIndex
				for i := t; i <= n; i++ {
					targets = append(targets, cds.ClauseIndex(i))
				}

				first, err := sharing.CompleteQualifiedSet(fixed, secret, targets, t)
				if err != nil {
					return false
				}
				second, err := sharing.CompleteQualifiedSet(fixed, secret, targets, t)
				if err != nil {
					return false
				}

				all := append([]*cds.Share(nil), fixed...)
				for _, index := range targets {
					if !first[index].Equal(second[index]) {
						return false
					}
					all = append(all, cds.NewShare(index, first[index]))
				}
				ok, err := sharing.ConsistentShares(all, t, secret)
				return err == nil && ok
			}
			Expect(quick.Check(property, &quick.Config{MaxCount: 50})).To(Succeed())
		})
	})

	Describe("Soundness", func() {
		// A prover that knows d-1 witnesses must fix t challenge shares
		// before it sees s. Those shares already determine the polynomial.
		cheat := func(inst *instance, access *cds.AccessStructure, reportCompleted bool) bool {
			n, d, t := access.Clauses(), access.Active(), access.Threshold()
			known := d - 1
			sharing := cds.NewShamirSecretSharing(curve)

			firsts := make([]cds.Message, n)
			seconds := make([]cds.Message, n)
			challenges := make([]cds.Scalar, n)
			states := make([]cds.ProverState, n)

			// clauses 1..t are simulated, t+1..n are real
			for i := 0; i < t; i++ {
				c, _ := curve.ScalarRandom()
				first, second, err := inst.protocol.Simulate(inst.statements[i], c)
				Expect(err).NotTo(HaveOccurred())
				firsts[i], seconds[i], challenges[i] = first, second, c
			}
			for i := t; i < n; i++ {
				first, state, err := inst.protocol.Commit(inst.statements[i], inst.witnesses[i])
				Expect(err).NotTo(HaveOccurred())
				firsts[i], states[i] = first, state
			}
			Expect(n - t).To(Equal(known))

			verifier, err := cds.NewVerifier(cfg, inst.protocol, access, inst.statements)
			Expect(err).NotTo(HaveOccurred())
			Expect(verifier.ReceiveCommitment(&cds.Commitment{Messages: firsts})).To(Succeed())
			s, err := verifier.Challenge()
			Expect(err).NotTo(HaveOccurred())

			fixed := make([]*cds.Share, 0, t-1)
			for i := 0; i < t-1; i++ {
				fixed = append(fixed, cds.NewShare(cds.ClauseIndex(i+1), challenges[i]))
			}
			var targets []cds.ClauseIndex
			for i := t; i <= n; i++ {
				targets = append(targets, cds.ClauseIndex(i))
			}
			completed, err := sharing.CompleteQualifiedSet(fixed, s, targets, t)
			Expect(err).NotTo(HaveOccurred())

			if reportCompleted {
				challenges[t-1] = completed[cds.ClauseIndex(t)]
			}
			for i := t; i < n; i++ {
				challenges[i] = completed[cds.ClauseIndex(i+1)]
				second, err := inst.protocol.Respond(states[i], challenges[i])
				Expect(err).NotTo(HaveOccurred())
				seconds[i] = second
			}

			accepted, err := verifier.Verify(&cds.Response{Challenges: challenges, Messages: seconds})
			Expect(err).NotTo(HaveOccurred())
			return accepted
		}

		DescribeTable("rejects a prover with only d-1 witnesses",
			func(n, d int) {
				access, err := cds.NewAccessStructure(n, d)
				Expect(err).NotTo(HaveOccurred())
				inst := newInstance(curve, n)
				accepted := 0
				for attempt := 0; attempt < soundnessAttempts; attempt++ {
					if cheat(inst, access, false) {
						accepted++
					}
					if cheat(inst, access, true) {
						accepted++
					}
				}
				// each run draws a fresh s; acceptance has probability 1/|field|
				Expect(accepted).To(BeZero(), "%d of %d cheating runs accepted", accepted, 2*soundnessAttempts)
			},
			Entry("1 of 2", 2, 1),
			Entry("2 of 4", 4, 2),
			Entry("3 of 5", 5, 3),
			Entry("4 of 4", 4, 4),
		)

		It("refuses to start without a qualified set", func() {
			inst := newInstance(curve, 4)
			access, _ := cds.NewAccessStructure(4, 2)
			_, err := cds.NewProver(cfg, inst.protocol, access, inst.statements, inst.witnessMap(curve, []cds.ClauseIndex{3}))
			Expect(err).To(MatchError(cds.ErrUnqualifiedSet))
		})
	})

	Describe("Round Order", func() {
		It("rejects out-of-order calls without changing state", func() {
			inst := newInstance(curve, 3)
			access, _ := cds.NewAccessStructure(3, 1)
			prover, err := cds.NewProver(cfg, inst.protocol, access, inst.statements, inst.witnessMap(curve, []cds.ClauseIndex{2}))
			Expect(err).NotTo(HaveOccurred())

			_, err = prover.Respond()
			Expect(err).To(MatchError(cds.ErrRoundOrder))
			s, _ := curve.ScalarRandom()
			Expect(prover.ReceiveChallenge(s)).To(MatchError(cds.ErrRoundOrder))

			verifier, _ := cds.NewVerifier(cfg, inst.protocol, access, inst.statements)
			accepted, err := cds.RunProtocol(prover, verifier)
			Expect(err).NotTo(HaveOccurred())
			Expect(accepted).To(BeTrue())

			_, err = prover.Commit()
			Expect(err).To(MatchError(cds.ErrRoundOrder))
		})
	})

	Describe("End To End", func() {
		It("proves 2 of 4 with A = {1, 3} and rejects a tampered response", func() {
			inst := newInstance(curve, 4)
			access, _ := cds.NewAccessStructure(4, 2)
			Expect(access.Threshold()).To(Equal(3))

			prover, accepted := run(cfg, inst, access, []cds.ClauseIndex{1, 3})
			Expect(accepted).To(BeTrue())
			Expect(prover.RealClauses()).To(Equal([]cds.ClauseIndex{1, 3}))

			proof, err := prover.Proof()
			Expect(err).NotTo(HaveOccurred())
			Expect(cds.VerifyProof(cfg, inst.protocol, access, inst.statements, proof)).To(BeTrue())

			response := proof.Transcripts[0].Second.(*cds.SchnorrResponse)
			proof.Transcripts[0].Second = &cds.SchnorrResponse{Z: response.Z.Add(curve.ScalarOne())}
			Expect(cds.VerifyProof(cfg, inst.protocol, access, inst.statements, proof)).To(BeFalse())
		})
	})
})
