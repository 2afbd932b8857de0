// Package tree implements CART decision trees for classification and
// regression on gonum matrices.
package tree

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"
)

// leafFeature は葉ノードを示す特徴量インデックス
const leafFeature = -1

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     []float64 // 分類: クラス分布、回帰: 平均
	nSamples  int
	impurity  float64
}

func (n *node) isLeaf() bool { return n.feature == leafFeature }

// nodeStats accumulates the weighted target statistics of a sample set.
type nodeStats interface {
	add(i int, w float64)
	remove(i int, w float64)
	impurity() float64
	weight() float64
	value() []float64
	clone() nodeStats
}

// classStats はクラス別の重み付きカウント
type classStats struct {
	y       []int
	counts  []float64
	total   float64
	entropy bool
}

func (s *classStats) add(i int, w float64)    { s.counts[s.y[i]] += w; s.total += w }
func (s *classStats) remove(i int, w float64) { s.counts[s.y[i]] -= w; s.total -= w }
func (s *classStats) weight() float64         { return s.total }

func (s *classStats) impurity() float64 {
	if s.total <= 0 {
		return 0
	}
	if s.entropy {
		h := 0.0
		for _, c := range s.counts {
			if c > 0 {
				p := c / s.total
				h -= p * math.Log2(p)
			}
		}
		return h
	}
	g := 1.0
	for _, c := range s.counts {
		p := c / s.total
		g -= p * p
	}
	return g
}

func (s *classStats) value() []float64 {
	v := make([]float64, len(s.counts))
	if s.total > 0 {
		for k, c := range s.counts {
			v[k] = c / s.total
		}
	}
	return v
}

func (s *classStats) clone() nodeStats {
	return &classStats{y: s.y, counts: slices.Clone(s.counts), total: s.total, entropy: s.entropy}
}

// regStats は二乗誤差用の重み付き一次・二次モーメント
type regStats struct {
	y             []float64
	sw, swy, swyy float64
}

func (s *regStats) add(i int, w float64) {
	s.sw += w
	s.swy += w * s.y[i]
	s.swyy += w * s.y[i] * s.y[i]
}

func (s *regStats) remove(i int, w float64) {
	s.sw -= w
	s.swy -= w * s.y[i]
	s.swyy -= w * s.y[i] * s.y[i]
}

func (s *regStats) weight() float64 { return s.sw }

func (s *regStats) impurity() float64 {
	if s.sw <= 0 {
		return 0
	}
	mean := s.swy / s.sw
	return math.Max(0, s.swyy/s.sw-mean*mean)
}

func (s *regStats) value() []float64 {
	if s.sw <= 0 {
		return []float64{0}
	}
	return []float64{s.swy / s.sw}
}

func (s *regStats) clone() nodeStats {
	c := *s
	return &c
}

type split struct {
	feature   int
	threshold float64
	cost      float64 // wL·impL + wR·impR
}

// builder grows a tree depth first. Every node keeps its samples sorted by
// every feature; children inherit the order through a stable partition so
// each feature is sorted once per fit.
type builder struct {
	cols     [][]float64 // 列優先の特徴量
	w        []float64
	newStats func() nodeStats
	params   params
	rng      *rand.Rand

	nodes      []node
	importance []float64
	depth      int

	goesLeft []bool
	scratch  []int
}

func newBuilder(cols [][]float64, w []float64, p params, newStats func() nodeStats) *builder {
	return &builder{
		cols:       cols,
		w:          w,
		newStats:   newStats,
		params:     p,
		rng:        rand.New(rand.NewPCG(p.randomState, 0x9e3779b97f4a7c15)),
		importance: make([]float64, len(cols)),
		goesLeft:   make([]bool, len(w)),
		scratch:    make([]int, len(w)),
	}
}

// build grows the tree over the samples with positive weight.
func (b *builder) build() {
	idx := make([]int, 0, len(b.w))
	for i, w := range b.w {
		if w > 0 {
			idx = append(idx, i)
		}
	}
	orders := make([][]int, len(b.cols))
	for f, col := range b.cols {
		o := slices.Clone(idx)
		slices.SortStableFunc(o, func(a, c int) int { return cmp.Compare(col[a], col[c]) })
		orders[f] = o
	}
	b.grow(orders, 0)
}

func (b *builder) grow(orders [][]int, depth int) int {
	samples := orders[0]
	total := b.newStats()
	for _, i := range samples {
		total.add(i, b.w[i])
	}

	id := len(b.nodes)
	b.nodes = append(b.nodes, node{
		feature:  leafFeature,
		left:     -1,
		right:    -1,
		value:    total.value(),
		nSamples: len(samples),
		impurity: total.impurity(),
	})
	b.depth = max(b.depth, depth)

	if b.stop(len(samples), depth, total) {
		return id
	}
	s, ok := b.bestSplit(orders, total)
	if !ok {
		return id
	}

	col := b.cols[s.feature]
	nLeft := 0
	for _, i := range samples {
		b.goesLeft[i] = col[i] <= s.threshold
		if b.goesLeft[i] {
			nLeft++
		}
	}
	leftOrders := make([][]int, len(orders))
	rightOrders := make([][]int, len(orders))
	for f, o := range orders {
		l, r := 0, 0
		for _, i := range o {
			if b.goesLeft[i] {
				o[l] = i
				l++
			} else {
				b.scratch[r] = i
				r++
			}
		}
		copy(o[l:], b.scratch[:r])
		leftOrders[f] = o[:nLeft]
		rightOrders[f] = o[nLeft:]
	}

	b.importance[s.feature] += total.weight()*total.impurity() - s.cost

	left := b.grow(leftOrders, depth+1)
	right := b.grow(rightOrders, depth+1)
	n := &b.nodes[id]
	n.feature = s.feature
	n.threshold = s.threshold
	n.left = left
	n.right = right
	return id
}

func (b *builder) stop(n, depth int, total nodeStats) bool {
	p := b.params
	return (p.maxDepth > 0 && depth >= p.maxDepth) ||
		n < p.minSamplesSplit ||
		n < 2*p.minSamplesLeaf ||
		total.impurity() <= 1e-12
}

// candidates returns the features examined at one node.
func (b *builder) candidates() []int {
	p := len(b.cols)
	m := b.params.maxFeatures
	if m <= 0 || m >= p {
		all := make([]int, p)
		for f := range all {
			all[f] = f
		}
		return all
	}
	feats := b.rng.Perm(p)[:m]
	slices.Sort(feats)
	return feats
}

func (b *builder) bestSplit(orders [][]int, total nodeStats) (split, bool) {
	best := split{cost: math.Inf(1)}
	found := false
	minLeaf := b.params.minSamplesLeaf

	for _, f := range b.candidates() {
		o := orders[f]
		col := b.cols[f]
		if col[o[0]] == col[o[len(o)-1]] {
			continue
		}
		left := b.newStats()
		right := total.clone()
		for k := 0; k < len(o)-1; k++ {
			i := o[k]
			left.add(i, b.w[i])
			right.remove(i, b.w[i])
			nl, nr := k+1, len(o)-k-1
			if nl < minLeaf {
				continue
			}
			if nr < minLeaf {
				break
			}
			lo, hi := col[i], col[o[k+1]]
			if lo == hi {
				continue
			}
			cost := left.weight()*left.impurity() + right.weight()*right.impurity()
			if cost < best.cost {
				thr := lo + (hi-lo)/2
				if thr >= hi {
					thr = lo
				}
				best = split{feature: f, threshold: thr, cost: cost}
				found = true
			}
		}
	}
	return best, found
}

// featureImportances は不純度減少量を合計1に正規化する
func (b *builder) featureImportances() []float64 {
	out := slices.Clone(b.importance)
	sum := 0.0
	for _, v := range out {
		sum += v
	}
	if sum > 0 {
		for f := range out {
			out[f] /= sum
		}
	}
	return out
}

func (b *builder) nLeaves() int {
	n := 0
	for i := range b.nodes {
		if b.nodes[i].isLeaf() {
			n++
		}
	}
	return n
}

// leafFor walks the tree for one row.
func leafFor(nodes []node, row func(f int) float64) int {
	id := 0
	for !nodes[id].isLeaf() {
		n := &nodes[id]
		if row(n.feature) <= n.threshold {
			id = n.left
		} else {
			id = n.right
		}
	}
	return id
}
