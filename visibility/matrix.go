package visibility

// Explanation field names as they appear in serialized explanations.
const (
	FieldCandidateID        = "candidate_id"
	FieldPrimaryAlignment   = "primary_alignment"
	FieldSecondaryAlignment = "secondary_alignment"
	FieldBoundaryRespect    = "boundary_respect"
	FieldFilterStatus       = "filter_status"
	FieldConfidenceLevel    = "confidence_level"
	FieldConfidenceReasons  = "confidence_reasons"
	FieldTotalScore         = "total_score"
	FieldBreakdown          = "breakdown"
	FieldRankPosition       = "rank_position"
	FieldScoringNotes       = "scoring_notes"
)

// AllFields lists every explanation field in declaration order.
var AllFields = []string{
	FieldCandidateID,
	FieldPrimaryAlignment,
	FieldSecondaryAlignment,
	FieldBoundaryRespect,
	FieldFilterStatus,
	FieldConfidenceLevel,
	FieldConfidenceReasons,
	FieldTotalScore,
	FieldBreakdown,
	FieldRankPosition,
	FieldScoringNotes,
}

// FieldAccess is the allowed and denied field list for one role.
type FieldAccess struct {
	Allowed []string `json:"allowed" yaml:"allowed"`
	Denied  []string `json:"denied" yaml:"denied"`
}

var allowed = map[Role][]string{
	RoleRequester: {
		FieldCandidateID,
		FieldPrimaryAlignment,
		FieldBoundaryRespect,
		FieldFilterStatus,
		FieldConfidenceLevel,
	},
	RoleCandidate: {
		FieldCandidateID,
		FieldPrimaryAlignment,
		FieldSecondaryAlignment,
		FieldBoundaryRespect,
		FieldFilterStatus,
		FieldConfidenceLevel,
		FieldConfidenceReasons,
	},
	RoleOperator: AllFields,
}

// Matrix returns the static visibility matrix for every role.
func Matrix() map[Role]FieldAccess {
	m := make(map[Role]FieldAccess, len(Roles))
	for _, role := range Roles {
		permitted := make(map[string]bool, len(allowed[role]))
		for _, f := range allowed[role] {
			permitted[f] = true
		}
		access := FieldAccess{Allowed: []string{}, Denied: []string{}}
		for _, f := range AllFields {
			if permitted[f] {
				access.Allowed = append(access.Allowed, f)
			} else {
				access.Denied = append(access.Denied, f)
			}
		}
		m[role] = access
	}
	return m
}
