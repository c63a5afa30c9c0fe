package presolve

import "fmt"

// AffineRelation records x = a*rep + b for some variable x that has been
// substituted away in favor of a representative rep.
type AffineRelation struct {
	Rep VarID
	A   int64
	B   int64
}

// AffineStore is a union-find-like structure mapping each variable to a
// representative plus an affine map x = a*rep + b.
//
// Each stored relation is one hop; merging two representatives adds a hop
// rather than rewriting the variables below it, so chains can grow.
// RepresentativeOf walks the chain on every query and composes the maps
// along it; nothing is path-compressed.
type AffineStore struct {
	rel map[VarID]AffineRelation
}

// NewAffineStore returns an empty affine-relation store.
func NewAffineStore() *AffineStore {
	return &AffineStore{rel: make(map[VarID]AffineRelation)}
}

// RepresentativeOf returns the representative of v and the affine
// coefficients (a, b) such that v = a*rep + b. If v has no outstanding
// relation, it is its own representative with a=1, b=0.
func (s *AffineStore) RepresentativeOf(v VarID) (rep VarID, a, b int64) {
	a, b = 1, 0
	cur := v
	visited := map[VarID]bool{}
	for {
		r, ok := s.rel[cur]
		if !ok {
			break
		}
		if visited[cur] {
			// Cycle: should never happen if AddRelation rejects contradictions,
			// but guard defensively rather than loop forever.
			break
		}
		visited[cur] = true
		// cur = r.A*r.Rep + r.B, and so far v = a*cur + b
		// => v = a*(r.A*r.Rep + r.B) + b = (a*r.A)*r.Rep + (a*r.B + b)
		b = satAdd(satMul(a, r.B), b)
		a = satMul(a, r.A)
		cur = r.Rep
	}
	return cur, a, b
}

// AddRelation records x = a*rep + b, composing with any existing relations
// on x and rep. Returns false if the relation contradicts an existing one
// (the store is left unchanged in that case).
func (s *AffineStore) AddRelation(x VarID, a, b int64, repHint VarID) bool {
	xRep, xa, xb := s.RepresentativeOf(x)
	rRep, ra, rb := s.RepresentativeOf(repHint)

	// x = a*repHint + b, and repHint = ra*rRep + rb, so
	// x = a*ra*rRep + (a*rb+b).
	finalA := satMul(a, ra)
	finalB := satAdd(satMul(a, rb), b)

	// Also, from the store's own view, x = xa*xRep + xb. Combine the two
	// statements about x to check/derive a relation between xRep and rRep.
	if xRep == rRep {
		// Both express x in terms of the same representative: must agree.
		return finalA == xa && finalB == xb
	}

	if xRep == x {
		// x has no existing relation: just record the new one directly.
		if finalA == 0 {
			// x is forced to the constant finalB; represent as x = 0*rRep + finalB.
			s.rel[x] = AffineRelation{Rep: rRep, A: 0, B: finalB}
			return true
		}
		s.rel[x] = AffineRelation{Rep: rRep, A: finalA, B: finalB}
		return true
	}

	// x already reduces to xRep via x = xa*xRep + xb. Combine:
	// xa*xRep + xb = finalA*rRep + finalB
	// => xRep = (finalA/xa)*rRep + (finalB-xb)/xa, only representable exactly
	// when xa divides both coefficients.
	if xa == 0 {
		// x is already a fixed constant xb; the new relation must agree.
		return finalA == 0 && finalB == xb
	}
	diffB := satSub(finalB, xb)
	if finalA%xa != 0 || diffB%xa != 0 {
		// Not exactly representable as an integer affine relation; reject
		// rather than silently lose precision (a stricter relation would
		// need rational coefficients, which this store does not support).
		return false
	}
	s.rel[xRep] = AffineRelation{Rep: rRep, A: finalA / xa, B: diffB / xa}
	return true
}

// IsRepresentative reports whether v currently has no outstanding relation.
func (s *AffineStore) IsRepresentative(v VarID) bool {
	_, ok := s.rel[v]
	return !ok
}

// String renders the store for diagnostics.
func (s *AffineStore) String() string {
	return fmt.Sprintf("AffineStore{%d relations}", len(s.rel))
}
