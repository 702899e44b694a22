package segmentation

import "container/heap"

type floodItem struct {
	index int
	level float64
	seq   int
}

// floodQueue pops the highest distance first; equal levels leave in push order.
type floodQueue []floodItem

func (q floodQueue) Len() int { return len(q) }
func (q floodQueue) Less(i, j int) bool {
	if q[i].level != q[j].level {
		return q[i].level > q[j].level
	}
	return q[i].seq < q[j].seq
}
func (q floodQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *floodQueue) Push(x interface{}) { *q = append(*q, x.(floodItem)) }
func (q *floodQueue) Pop() interface{} {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}

// flood grows every marker over its foreground component in order of
// decreasing distance, so basins meet along the distance-map valleys.
// Components that received no marker keep a label of their own.
func flood(dist []float64, markers []int32, nMarkers int, components []int32, nComponents int, fg *binaryMask) []int32 {
	w := fg.width
	labels := make([]int32, len(markers))
	copy(labels, markers)

	marked := make([]bool, nComponents+1)
	for i, m := range markers {
		if m > 0 {
			marked[components[i]] = true
		}
	}
	for i, c := range components {
		if c > 0 && !marked[c] {
			labels[i] = int32(nMarkers) + c
		}
	}

	q := &floodQueue{}
	seq := 0
	for i, l := range labels {
		if l > 0 && markers[i] > 0 {
			heap.Push(q, floodItem{index: i, level: dist[i], seq: seq})
			seq++
		}
	}

	for q.Len() > 0 {
		it := heap.Pop(q).(floodItem)
		x, y := it.index%w, it.index/w
		for _, d := range neighbors8 {
			nx, ny := x+d[0], y+d[1]
			if !fg.at(nx, ny) {
				continue
			}
			j := ny*w + nx
			if labels[j] != 0 {
				continue
			}
			labels[j] = labels[it.index]
			heap.Push(q, floodItem{index: j, level: dist[j], seq: seq})
			seq++
		}
	}
	return labels
}
