package cds

import (
	"errors"
	"testing"
)

func TestSchnorrCompleteness(t *testing.T) {
	for _, curve := range testCurves() {
		t.Run(curve.Name(), func(t *testing.T) {
			protocol := NewSchnorrProtocol(curve)
			statement, witness, err := GenerateSchnorrInstance(curve)
			if err != nil {
				t.Fatalf("Failed to generate instance: %v", err)
			}

			first, state, err := protocol.Commit(statement, witness)
			if err != nil {
				t.Fatalf("Commit failed: %v", err)
			}
			challenge, _ := curve.ScalarRandom()
			second, err := protocol.Respond(state, challenge)
			if err != nil {
				t.Fatalf("Respond failed: %v", err)
			}

			if !protocol.Verify(statement, first, challenge, second) {
				t.Fatal("Honest transcript rejected")
			}

			other, _ := curve.ScalarRandom()
			if protocol.Verify(statement, first, other, second) {
				t.Fatal("Transcript accepted under a different challenge")
			}
		})
	}
}

func TestSchnorrStateSingleUse(t *testing.T) {
	curve := NewEd25519Curve()
	protocol := NewSchnorrProtocol(curve)
	statement, witness, _ := GenerateSchnorrInstance(curve)

	_, state, err := protocol.Commit(statement, witness)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	c1, _ := curve.ScalarRandom()
	c2, _ := curve.ScalarRandom()

	if _, err := protocol.Respond(state, c1); err != nil {
		t.Fatalf("First Respond failed: %v", err)
	}
	if _, err := protocol.Respond(state, c2); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Expected ErrInvalidState on reuse, got %v", err)
	}
}

func TestSchnorrInvalidWitness(t *testing.T) {
	curve := NewSecp256k1Curve()
	protocol := NewSchnorrProtocol(curve)
	statement, _, _ := GenerateSchnorrInstance(curve)
	wrong, _ := curve.ScalarRandom()

	if _, _, err := protocol.Commit(statement, &SchnorrWitness{X: wrong}); !errors.Is(err, ErrInvalidWitness) {
		t.Fatalf("Expected ErrInvalidWitness, got %v", err)
	}
	if err := protocol.CheckWitness(statement, &SchnorrWitness{X: NewEd25519Curve().ScalarOne()}); !errors.Is(err, ErrInvalidWitness) {
		t.Fatalf("Expected ErrInvalidWitness for a foreign scalar, got %v", err)
	}
}

func TestSchnorrSimulate(t *testing.T) {
	for _, curve := range testCurves() {
		t.Run(curve.Name(), func(t *testing.T) {
			protocol := NewSchnorrProtocol(curve)
			statement, _, _ := GenerateSchnorrInstance(curve)

			challenge, _ := curve.ScalarRandom()
			first, second, err := protocol.Simulate(statement, challenge)
			if err != nil {
				t.Fatalf("Simulate failed: %v", err)
			}
			if !protocol.Verify(statement, first, challenge, second) {
				t.Fatal("Simulated transcript rejected")
			}
		})
	}
}

func TestSchnorrParse(t *testing.T) {
	for _, curve := range testCurves() {
		t.Run(curve.Name(), func(t *testing.T) {
			protocol := NewSchnorrProtocol(curve)
			statement, witness, _ := GenerateSchnorrInstance(curve)
			first, state, _ := protocol.Commit(statement, witness)
			challenge, _ := curve.ScalarRandom()
			second, _ := protocol.Respond(state, challenge)

			parsedFirst, err := protocol.ParseFirst(first.Bytes())
			if err != nil {
				t.Fatalf("ParseFirst failed: %v", err)
			}
			parsedSecond, err := protocol.ParseSecond(second.Bytes())
			if err != nil {
				t.Fatalf("ParseSecond failed: %v", err)
			}
			parsedStatement, err := protocol.ParseStatement(statement.Bytes())
			if err != nil {
				t.Fatalf("ParseStatement failed: %v", err)
			}
			if !protocol.Verify(parsedStatement, parsedFirst, challenge, parsedSecond) {
				t.Fatal("Parsed transcript rejected")
			}

			if _, err := protocol.ParseFirst([]byte{0x01}); !errors.Is(err, ErrEncoding) {
				t.Fatalf("Expected ErrEncoding, got %v", err)
			}
		})
	}
}

func TestSchnorrVerifyMalformed(t *testing.T) {
	curve := NewEd25519Curve()
	protocol := NewSchnorrProtocol(curve)
	statement, _, _ := GenerateSchnorrInstance(curve)
	challenge, _ := curve.ScalarRandom()
	first, second, _ := protocol.Simulate(statement, challenge)

	if protocol.Verify(statement, second, challenge, first) {
		t.Fatal("Swapped messages accepted")
	}
	if protocol.Verify(statement, first, NewSecp256k1Curve().ScalarOne(), second) {
		t.Fatal("Foreign challenge accepted")
	}
	if protocol.Verify(nil, first, challenge, second) {
		t.Fatal("Nil statement accepted")
	}

	foreign := NewSecp256k1Curve().BasePoint()
	if protocol.Verify(statement, &SchnorrCommitment{A: foreign}, challenge, second) {
		t.Fatal("Foreign commitment point accepted")
	}
	if protocol.Verify(statement, &SchnorrCommitment{A: &Ed25519Point{}}, challenge, second) {
		t.Fatal("Zero-valued commitment point accepted")
	}
	if protocol.Verify(&SchnorrStatement{H: foreign}, first, challenge, second) {
		t.Fatal("Foreign statement point accepted")
	}
	if protocol.Verify(&SchnorrStatement{H: &Ed25519Point{}}, first, challenge, second) {
		t.Fatal("Zero-valued statement point accepted")
	}

	if _, _, err := protocol.Simulate(&SchnorrStatement{H: foreign}, challenge); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("Expected ErrInvalidMessage for a foreign statement, got %v", err)
	}
	x, _ := curve.ScalarRandom()
	if err := protocol.CheckWitness(&SchnorrStatement{H: &Ed25519Point{}}, &SchnorrWitness{X: x}); !errors.Is(err, ErrInvalidWitness) {
		t.Fatalf("Expected ErrInvalidWitness for a zero-valued statement, got %v", err)
	}
}
