package cds_test

import (
	"fmt"

	"github.com/canopy-network/canopy/lib/cds"
)

// Prove knowledge of two out of four discrete logarithms without revealing which
func Example() {
	curve := cds.NewEd25519Curve()
	cfg, _ := cds.NewConfig(curve)
	access, _ := cds.NewAccessStructure(4, 2)
	protocol := cds.NewSchnorrProtocol(curve)

	statements := make([]cds.Statement, 4)
	witnesses := make(map[cds.ClauseIndex]cds.Witness)
	for i := range statements {
		statement, witness, _ := cds.GenerateSchnorrInstance(curve)
		statements[i] = statement
		if i == 0 || i == 2 {
			witnesses[cds.ClauseIndex(i+1)] = witness
		}
	}

	prover, _ := cds.NewProver(cfg, protocol, access, statements, witnesses)
	verifier, _ := cds.NewVerifier(cfg, protocol, access, statements)

	commitment, _ := prover.Commit()
	_ = verifier.ReceiveCommitment(commitment)
	challenge, _ := verifier.Challenge()
	_ = prover.ReceiveChallenge(challenge)
	response, _ := prover.Respond()
	accepted, _ := verifier.Verify(response)

	fmt.Println(access)
	fmt.Println("accepted:", accepted)
	// Output:
	// Clauses: 4, Active Clauses: 2, Threshold: 3
	// accepted: true
}
