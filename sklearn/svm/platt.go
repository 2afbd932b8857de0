package svm

import "math"

// platt holds the sigmoid P(y=1|f) = 1/(1+exp(A·f+B)) fitted on decision values.
type platt struct {
	A, B float64
}

func (p platt) prob(f float64) float64 {
	fApB := f*p.A + p.B
	if fApB >= 0 {
		return math.Exp(-fApB) / (1 + math.Exp(-fApB))
	}
	return 1 / (1 + math.Exp(fApB))
}

// fitPlatt fits A and B by Newton's method with backtracking, using the
// prior-corrected targets of Lin, Lin and Weng (2007).
func fitPlatt(dec []float64, positive []bool) platt {
	const (
		maxIter = 100
		minStep = 1e-10
		sigma   = 1e-12
		eps     = 1e-5
	)
	var prior1, prior0 float64
	for _, p := range positive {
		if p {
			prior1++
		} else {
			prior0++
		}
	}
	hi := (prior1 + 1) / (prior1 + 2)
	lo := 1 / (prior0 + 2)
	t := make([]float64, len(dec))
	for i, p := range positive {
		if p {
			t[i] = hi
		} else {
			t[i] = lo
		}
	}

	objective := func(A, B float64) float64 {
		v := 0.0
		for i, f := range dec {
			fApB := f*A + B
			if fApB >= 0 {
				v += t[i]*fApB + math.Log1p(math.Exp(-fApB))
			} else {
				v += (t[i]-1)*fApB + math.Log1p(math.Exp(fApB))
			}
		}
		return v
	}

	A, B := 0.0, math.Log((prior0+1)/(prior1+1))
	fval := objective(A, B)
	for it := 0; it < maxIter; it++ {
		h11, h22, h21, g1, g2 := sigma, sigma, 0.0, 0.0, 0.0
		for i, f := range dec {
			fApB := f*A + B
			var p, q float64
			if fApB >= 0 {
				p = math.Exp(-fApB) / (1 + math.Exp(-fApB))
				q = 1 / (1 + math.Exp(-fApB))
			} else {
				p = 1 / (1 + math.Exp(fApB))
				q = math.Exp(fApB) / (1 + math.Exp(fApB))
			}
			d2 := p * q
			h11 += f * f * d2
			h22 += d2
			h21 += f * d2
			d1 := t[i] - p
			g1 += f * d1
			g2 += d1
		}
		if math.Abs(g1) < eps && math.Abs(g2) < eps {
			break
		}
		det := h11*h22 - h21*h21
		dA := -(h22*g1 - h21*g2) / det
		dB := -(-h21*g1 + h11*g2) / det
		gd := g1*dA + g2*dB

		step := 1.0
		for step >= minStep {
			newA, newB := A+step*dA, B+step*dB
			newF := objective(newA, newB)
			if newF < fval+1e-4*step*gd {
				A, B, fval = newA, newB, newF
				break
			}
			step /= 2
		}
		if step < minStep {
			break
		}
	}
	return platt{A: A, B: B}
}
