package cds

import (
	"encoding/hex"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

const (
	proofVersion  = 1
	digestContext = "CDS94 2024-01-01 disjunctive proof digest v1"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Transcript is one clause of a disjunctive proof
type Transcript struct {
	Index     ClauseIndex
	First     Message
	Challenge Scalar
	Second    Message
}

// Commitment is the prover's first message: one base commitment per clause,
// in index order
type Commitment struct {
	Messages []Message
}

// Response is the prover's third message: the challenge share and base
// response of every clause, in index order
type Response struct {
	Challenges []Scalar
	Messages   []Message
}

// DisjunctiveProof is a complete transcript of the compiled protocol
type DisjunctiveProof struct {
	Transcripts []Transcript
	Challenge   Scalar
}

type wireCommitment struct {
	_        struct{} `cbor:",toarray"`
	Messages [][]byte
}

type wireResponse struct {
	_          struct{} `cbor:",toarray"`
	Challenges [][]byte
	Messages   [][]byte
}

type wireProof struct {
	_           struct{} `cbor:",toarray"`
	Version     uint
	Challenge   []byte
	Commitments [][]byte
	Challenges  [][]byte
	Responses   [][]byte
}

func messageBytes(messages []Message) [][]byte {
	out := make([][]byte, len(messages))
	for i, m := range messages {
		if m != nil {
			out[i] = m.Bytes()
		}
	}
	return out
}

func scalarBytes(scalars []Scalar) [][]byte {
	out := make([][]byte, len(scalars))
	for i, s := range scalars {
		if s != nil {
			out[i] = s.Bytes()
		}
	}
	return out
}

func parseMessages(data [][]byte, parse func([]byte) (Message, error)) ([]Message, error) {
	out := make([]Message, len(data))
	for i, d := range data {
		m, err := parse(d)
		if err != nil {
			return nil, ErrEncoding.WithDetails("message %d", i+1).WithCause(err)
		}
		out[i] = m
	}
	return out, nil
}

func parseScalars(curve Curve, data [][]byte) ([]Scalar, error) {
	out := make([]Scalar, len(data))
	for i, d := range data {
		s, err := curve.ScalarFromBytes(d)
		if err != nil {
			return nil, ErrEncoding.WithDetails("challenge %d", i+1).WithCause(err)
		}
		out[i] = s
	}
	return out, nil
}

// MarshalBinary encodes the commitment as canonical CBOR
func (c *Commitment) MarshalBinary() ([]byte, error) {
	data, err := encMode.Marshal(wireCommitment{Messages: messageBytes(c.Messages)})
	if err != nil {
		return nil, ErrEncoding.WithCause(err)
	}
	return data, nil
}

// Bytes is the wire form, so a Commitment can be a message of an outer compiler
func (c *Commitment) Bytes() []byte {
	data, _ := c.MarshalBinary()
	return data
}

// DecodeCommitment parses a commitment whose clauses use protocol
func DecodeCommitment(protocol Protocol, data []byte) (*Commitment, error) {
	var wire wireCommitment
	if err := decMode.Unmarshal(data, &wire); err != nil {
		return nil, ErrEncoding.WithCause(err)
	}
	messages, err := parseMessages(wire.Messages, protocol.ParseFirst)
	if err != nil {
		return nil, err
	}
	return &Commitment{Messages: messages}, nil
}

// MarshalBinary encodes the response as canonical CBOR
func (r *Response) MarshalBinary() ([]byte, error) {
	data, err := encMode.Marshal(wireResponse{
		Challenges: scalarBytes(r.Challenges),
		Messages:   messageBytes(r.Messages),
	})
	if err != nil {
		return nil, ErrEncoding.WithCause(err)
	}
	return data, nil
}

// Bytes is the wire form, so a Response can be a message of an outer compiler
func (r *Response) Bytes() []byte {
	data, _ := r.MarshalBinary()
	return data
}

// DecodeResponse parses a response whose clauses use protocol
func DecodeResponse(protocol Protocol, data []byte) (*Response, error) {
	var wire wireResponse
	if err := decMode.Unmarshal(data, &wire); err != nil {
		return nil, ErrEncoding.WithCause(err)
	}
	challenges, err := parseScalars(protocol.ChallengeSpace(), wire.Challenges)
	if err != nil {
		return nil, err
	}
	messages, err := parseMessages(wire.Messages, protocol.ParseSecond)
	if err != nil {
		return nil, err
	}
	return &Response{Challenges: challenges, Messages: messages}, nil
}

// Commitment returns the first-round message contained in the proof
func (p *DisjunctiveProof) Commitment() *Commitment {
	messages := make([]Message, len(p.Transcripts))
	for i, tr := range p.Transcripts {
		messages[i] = tr.First
	}
	return &Commitment{Messages: messages}
}

// Response returns the third-round message contained in the proof
func (p *DisjunctiveProof) Response() *Response {
	challenges := make([]Scalar, len(p.Transcripts))
	messages := make([]Message, len(p.Transcripts))
	for i, tr := range p.Transcripts {
		challenges[i] = tr.Challenge
		messages[i] = tr.Second
	}
	return &Response{Challenges: challenges, Messages: messages}
}

// Shares returns the challenge shares of the proof in index order
func (p *DisjunctiveProof) Shares() []*Share {
	shares := make([]*Share, len(p.Transcripts))
	for i, tr := range p.Transcripts {
		shares[i] = NewShare(tr.Index, tr.Challenge)
	}
	return shares
}

// MarshalBinary encodes the proof as canonical CBOR
func (p *DisjunctiveProof) MarshalBinary() ([]byte, error) {
	if p.Challenge == nil {
		return nil, ErrEncoding.WithDetails("proof has no global challenge")
	}
	response := p.Response()
	data, err := encMode.Marshal(wireProof{
		Version:     proofVersion,
		Challenge:   p.Challenge.Bytes(),
		Commitments: messageBytes(p.Commitment().Messages),
		Challenges:  scalarBytes(response.Challenges),
		Responses:   messageBytes(response.Messages),
	})
	if err != nil {
		return nil, ErrEncoding.WithCause(err)
	}
	return data, nil
}

// Size returns the encoded length in bytes, or 0 when the proof cannot be encoded
func (p *DisjunctiveProof) Size() int {
	data, err := p.MarshalBinary()
	if err != nil {
		return 0
	}
	return len(data)
}

// Digest returns a BLAKE3 digest of the encoded proof
func (p *DisjunctiveProof) Digest() ([]byte, error) {
	data, err := p.MarshalBinary()
	if err != nil {
		return nil, err
	}
	digest := make([]byte, 32)
	blake3.DeriveKey(digestContext, data, digest)
	return digest, nil
}

func (p *DisjunctiveProof) digestHex() string {
	digest, err := p.Digest()
	if err != nil {
		return ""
	}
	return hex.EncodeToString(digest)
}

// DecodeProof parses a proof whose clauses use protocol. Clause indices are
// assigned 1..n in encoding order.
func DecodeProof(protocol Protocol, data []byte) (*DisjunctiveProof, error) {
	var wire wireProof
	if err := decMode.Unmarshal(data, &wire); err != nil {
		return nil, ErrEncoding.WithCause(err)
	}
	if wire.Version != proofVersion {
		return nil, ErrEncoding.WithDetails("unsupported proof version %d", wire.Version)
	}
	n := len(wire.Commitments)
	if len(wire.Challenges) != n || len(wire.Responses) != n {
		return nil, ErrEncoding.WithDetails("proof has %d commitments, %d challenges and %d responses",
			n, len(wire.Challenges), len(wire.Responses))
	}

	curve := protocol.ChallengeSpace()
	challenge, err := curve.ScalarFromBytes(wire.Challenge)
	if err != nil {
		return nil, ErrEncoding.WithDetails("global challenge").WithCause(err)
	}
	firsts, err := parseMessages(wire.Commitments, protocol.ParseFirst)
	if err != nil {
		return nil, err
	}
	challenges, err := parseScalars(curve, wire.Challenges)
	if err != nil {
		return nil, err
	}
	seconds, err := parseMessages(wire.Responses, protocol.ParseSecond)
	if err != nil {
		return nil, err
	}

	transcripts := make([]Transcript, n)
	for i := range transcripts {
		transcripts[i] = Transcript{
			Index:     ClauseIndex(i + 1),
			First:     firsts[i],
			Challenge: challenges[i],
			Second:    seconds[i],
		}
	}
	return &DisjunctiveProof{Transcripts: transcripts, Challenge: challenge}, nil
}
