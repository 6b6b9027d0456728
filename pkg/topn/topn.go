// Package topn 提供有界的 Top-N 选择器：按分数维护最好的 N 个候选。
package topn

import "container/heap"

type entry[T any] struct {
	value T
	score float64
}

// maxHeap 以分数为 key 的二叉大顶堆，同分时按 tie 排序（tie 为 nil 时不定）。
type maxHeap[T any] struct {
	items []entry[T]
	tie   func(a, b T) bool
}

func (h *maxHeap[T]) Len() int { return len(h.items) }
func (h *maxHeap[T]) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.score != b.score {
		return a.score > b.score
	}
	return h.tie != nil && h.tie(a.value, b.value)
}
func (h *maxHeap[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *maxHeap[T]) Push(x any)   { h.items = append(h.items, x.(entry[T])) }
func (h *maxHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	x := old[n-1]
	h.items = old[:n-1]
	return x
}

// Selector 是有界大顶堆。Insert 为 O(log n)；
// 堆超过两倍容量时压缩回最好的 capacity 个，读取前也会先截到 capacity。
//
// 同分元素的出堆顺序由 NewWithTieBreak 指定，New 创建的选择器不保证同分顺序。
// Selector 不是并发安全的。
type Selector[T any] struct {
	capacity int
	h        maxHeap[T]
}

// New 创建容量为 capacity 的选择器，capacity <= 0 表示不限容量。
func New[T any](capacity int) *Selector[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Selector[T]{capacity: capacity}
}

// NewWithTieBreak 与 New 相同，但同分时 less(a, b) 为 true 的 a 先出堆，
// 压缩时也按这个顺序决定保留哪些同分候选。
func NewWithTieBreak[T any](capacity int, less func(a, b T) bool) *Selector[T] {
	s := New[T](capacity)
	s.h.tie = less
	return s
}

// Capacity 返回容量，0 表示不限。
func (s *Selector[T]) Capacity() int {
	return s.capacity
}

// Insert 插入一个候选。
func (s *Selector[T]) Insert(value T, score float64) {
	heap.Push(&s.h, entry[T]{value: value, score: score})
	// len-capacity > capacity 等价于 len > 2*capacity，且不会溢出
	if s.capacity > 0 && len(s.h.items)-s.capacity > s.capacity {
		s.compact()
	}
}

// PeekMax 返回当前最高分的候选但不移除。
func (s *Selector[T]) PeekMax() (T, float64, bool) {
	s.trim()
	if len(s.h.items) == 0 {
		var zero T
		return zero, 0, false
	}
	top := s.h.items[0]
	return top.value, top.score, true
}

// ExtractMax 移除并返回最高分的候选；为空时 ok=false。
func (s *Selector[T]) ExtractMax() (T, float64, bool) {
	s.trim()
	if len(s.h.items) == 0 {
		var zero T
		return zero, 0, false
	}
	top := heap.Pop(&s.h).(entry[T])
	return top.value, top.score, true
}

// Size 返回可被取出的候选数，不超过容量。
func (s *Selector[T]) Size() int {
	s.trim()
	return len(s.h.items)
}

// Clear 清空选择器。
func (s *Selector[T]) Clear() {
	s.h.items = s.h.items[:0]
}

// Drain 按分数降序取出至多 n 个候选，n < 0 表示全部取出。
func (s *Selector[T]) Drain(n int) []T {
	size := s.Size()
	if n < 0 || n > size {
		n = size
	}
	out := make([]T, 0, n)
	for len(out) < n {
		v, _, ok := s.ExtractMax()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

func (s *Selector[T]) trim() {
	if s.capacity > 0 && len(s.h.items) > s.capacity {
		s.compact()
	}
}

// compact 只保留最好的 capacity 个
func (s *Selector[T]) compact() {
	n := min(s.capacity, len(s.h.items))
	kept := make([]entry[T], 0, n)
	for len(kept) < n {
		kept = append(kept, heap.Pop(&s.h).(entry[T]))
	}
	// 按出堆顺序排列的切片本身满足堆性质
	s.h.items = kept
}
