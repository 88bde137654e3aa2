package visibility

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrix(t *testing.T) {
	m := Matrix()
	require.Len(t, m, 3)

	for role, access := range m {
		all := slices.Concat(access.Allowed, access.Denied)
		slices.Sort(all)
		want := slices.Clone(AllFields)
		slices.Sort(want)
		assert.Equal(t, want, all, "role %s must classify every field exactly once", role)
	}

	assert.Empty(t, m[RoleOperator].Denied)
	for _, role := range []Role{RoleRequester, RoleCandidate} {
		for _, f := range []string{FieldTotalScore, FieldBreakdown, FieldRankPosition, FieldScoringNotes} {
			assert.Contains(t, m[role].Denied, f)
		}
	}
	assert.Contains(t, m[RoleRequester].Denied, FieldSecondaryAlignment)
	assert.Contains(t, m[RoleCandidate].Allowed, FieldSecondaryAlignment)
}

// The matrix must describe exactly what each projection emits for a fully
// populated explanation.
func TestMatrixMatchesProjections(t *testing.T) {
	for role, access := range Matrix() {
		t.Run(string(role), func(t *testing.T) {
			view, err := Project(fullExplanation(), role)
			require.NoError(t, err)

			data, err := json.Marshal(view)
			require.NoError(t, err)
			var fields map[string]any
			require.NoError(t, json.Unmarshal(data, &fields))

			var emitted []string
			for k := range fields {
				emitted = append(emitted, k)
			}
			slices.Sort(emitted)
			want := slices.Clone(access.Allowed)
			slices.Sort(want)
			assert.Equal(t, want, emitted)
		})
	}
}
