package similarity

import "github.com/amishk599/jobmerge/internal/model"

// Loser names the side of a candidate pair that is dropped.
type Loser int

const (
	LoserB Loser = iota // primary record kept
	LoserA              // secondary record kept
)

func (l Loser) String() string {
	if l == LoserA {
		return "primary"
	}
	return "secondary"
}

// Resolve decides which record of a candidate pair survives. The secondary
// record wins only when it carries a location and the primary does not.
func Resolve(a, b model.JobRecord) Loser {
	if !a.HasLocation() && b.HasLocation() {
		return LoserA
	}
	return LoserB
}
