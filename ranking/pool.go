package ranking

import "github.com/poiesic/rankwell/core"

// AssemblePool returns the candidates eligible for consideration, in input
// order, and how many were dropped. A candidate is admitted when it is
// available, has at least one recorded response and has answered every one
// of its required fields.
func AssemblePool(candidates []core.Candidate) ([]core.Candidate, int) {
	admitted := make([]core.Candidate, 0, len(candidates))
	for i := range candidates {
		if poolable(&candidates[i]) {
			admitted = append(admitted, candidates[i])
		}
	}
	return admitted, len(candidates) - len(admitted)
}

func poolable(c *core.Candidate) bool {
	if !c.Available {
		return false
	}
	recorded := false
	for field := range c.Responses {
		if c.HasResponse(field) {
			recorded = true
			break
		}
	}
	if !recorded {
		return false
	}
	for _, field := range c.RequiredFields {
		if !c.HasResponse(field) {
			return false
		}
	}
	return true
}
