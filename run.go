package rankwell

import (
	"encoding/binary"
	"fmt"
	"hash"
	"math"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
	"github.com/poiesic/rankwell/core"
	"github.com/poiesic/rankwell/ranking"
	"github.com/poiesic/rankwell/storage"
	"github.com/poiesic/rankwell/visibility"
)

// runNamespace scopes run IDs so they never collide with other SHA-1 UUIDs.
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://poiesic.com/rankwell/runs"))

// Run is one ranking outcome plus the envelope identifying it. RunID and
// GeneratedAt sit outside the scored payload: identical requests always
// produce the same RunID and the same Outcome.
type Run struct {
	RunID       string          `json:"run_id" yaml:"run_id"`
	RequesterID string          `json:"requester_id" yaml:"requester_id"`
	GeneratedAt time.Time       `json:"generated_at" yaml:"generated_at"`
	Outcome     ranking.Outcome `json:"outcome" yaml:"outcome"`
}

// RunID derives a deterministic run identifier from the canonical form of req.
func RunID(req ranking.Request) string {
	return uuid.NewSHA1(runNamespace, RequestDigest(req)).String()
}

// RequestDigest returns a BLAKE2b-256 digest of req. Map-valued fields are
// encoded in key order, so equal requests have equal digests.
func RequestDigest(req ranking.Request) []byte {
	h, _ := blake2b.New(32, nil)
	writeBlock(h, storage.MarshalRequester(&req.Requester))
	writeLen(h, len(req.Candidates))
	for i := range req.Candidates {
		writeBlock(h, storage.MarshalCandidate(&req.Candidates[i]))
	}
	writeLen(h, len(req.Rules))
	for _, rule := range req.Rules {
		writeString(h, rule.Field)
		writeString(h, rule.RawOperator)
		writeBlock(h, marshalValue(rule.Value))
		writeString(h, rule.Reason)
	}
	writeLen(h, len(req.WeightClasses))
	for _, class := range req.WeightClasses {
		writeString(h, string(class.Tag))
		writeFloat(h, class.Weight)
		writeLen(h, len(class.Fields))
		for _, field := range class.Fields {
			writeString(h, field)
		}
	}
	params := ranking.DefaultScoringParams()
	if req.Params != nil {
		params = *req.Params
	}
	fmt.Fprintf(h, "%v", params)
	return h.Sum(nil)
}

func writeBlock(h hash.Hash, b []byte) {
	writeLen(h, len(b))
	h.Write(b)
}

func writeString(h hash.Hash, s string) {
	writeBlock(h, []byte(s))
}

func marshalValue(v core.Value) []byte {
	buf := make([]byte, storage.ValueMUS.Size(v))
	storage.ValueMUS.Marshal(v, buf)
	return buf
}

func writeLen(h hash.Hash, n int) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(n))
	h.Write(buf[:])
}

func writeFloat(h hash.Hash, f float64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(f))
	h.Write(buf[:])
}

// Explanations returns the full explanation of every ranked candidate, in
// rank order.
func (r *Run) Explanations() []core.MatchExplanation {
	return ranking.ExplainAll(r.Outcome.Ranked)
}

// Disclose projects every ranked candidate's explanation for role.
func (r *Run) Disclose(role visibility.Role) ([]visibility.Disclosure, error) {
	explanations := r.Explanations()
	out := make([]visibility.Disclosure, 0, len(explanations))
	for _, exp := range explanations {
		d, err := visibility.Disclose(exp, role)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Record returns the audit record for r.
func (r *Run) Record() *core.RunRecord {
	meta := r.Outcome.Metadata
	record := &core.RunRecord{
		RunID:           r.RunID,
		RequesterID:     r.RequesterID,
		GeneratedAt:     r.GeneratedAt,
		FilteredCount:   meta.FilteredCount,
		RankedCount:     meta.RankedCount,
		ConfidenceLevel: meta.ConfidenceLevel,
		Reason:          meta.Reason,
		RankedIDs:       make([]string, len(r.Outcome.Ranked)),
	}
	for i, result := range r.Outcome.Ranked {
		record.RankedIDs[i] = result.CandidateID
	}
	if len(r.Outcome.Ranked) > 0 {
		record.TopScore = r.Outcome.Ranked[0].TotalScore
	}
	return record
}

// Report is a run as disclosed to one role.
type Report struct {
	RunID        string                  `json:"run_id" yaml:"run_id"`
	Role         visibility.Role         `json:"role" yaml:"role"`
	Metadata     core.RankingMetadata    `json:"metadata" yaml:"metadata"`
	Explanations []visibility.Disclosure `json:"explanations" yaml:"explanations"`
}

// Report projects the run's metadata and explanations for role.
func (r *Run) Report(role visibility.Role) (*Report, error) {
	meta, err := visibility.ProjectMetadata(r.Outcome.Metadata, role)
	if err != nil {
		return nil, err
	}
	disclosures, err := r.Disclose(role)
	if err != nil {
		return nil, err
	}
	return &Report{RunID: r.RunID, Role: role, Metadata: meta, Explanations: disclosures}, nil
}
