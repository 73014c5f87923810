// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-pak
// Source: github.com/go-pak/u4pak

package pak

import (
	"container/heap"
	"context"
)

// orderedJob is one unit of work tagged with its submission sequence
// number, the coordinator's reassembly key per §9 "Parallel determinism".
type orderedJob struct {
	seq  int
	work func() any
}

// seqResult pairs a completed job's sequence number with its result.
type seqResult struct {
	seq    int
	result any
}

// seqHeap is a min-heap of seqResult keyed by seq, giving the coordinator
// an ordering buffer so results release only when the next expected
// sequence number has arrived.
type seqHeap []seqResult

func (h seqHeap) Len() int           { return len(h) }
func (h seqHeap) Less(i, j int) bool { return h[i].seq < h[j].seq }
func (h seqHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *seqHeap) Push(x any) { *h = append(*h, x.(seqResult)) } //nolint:forcetypeassert // heap only ever holds seqResult

func (h *seqHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// runOrdered fans jobs out to a bounded worker pool and reassembles their
// results in submission order, per §5's "bounded MPMC channel" model and
// §9's sequence-numbered min-heap coordinator. It is shared by Check,
// Unpack and Pack, which all consume results in record-index order
// regardless of which worker finishes first.
func runOrdered(ctx context.Context, n, workers int, makeJob func(seq int) func() any) []any {
	if workers <= 0 {
		workers = 1
	}
	if n == 0 {
		return nil
	}

	jobCh := make(chan orderedJob, 2*workers)
	resultCh := make(chan seqResult, 2*workers)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		defer close(jobCh)
		for seq := 0; seq < n; seq++ {
			select {
			case jobCh <- orderedJob{seq: seq, work: makeJob(seq)}:
			case <-ctx.Done():
				return
			}
		}
	}()

	workerDone := make(chan struct{}, workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer func() { workerDone <- struct{}{} }()
			for j := range jobCh {
				r := j.work()
				select {
				case resultCh <- seqResult{seq: j.seq, result: r}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		for w := 0; w < workers; w++ {
			<-workerDone
		}
		close(resultCh)
	}()

	out := make([]any, n)
	pq := &seqHeap{}
	heap.Init(pq)
	next := 0
	got := 0

	for got < n {
		sr, ok := <-resultCh
		if !ok {
			break
		}
		heap.Push(pq, sr)
		got++
		for pq.Len() > 0 && (*pq)[0].seq == next {
			item := heap.Pop(pq).(seqResult) //nolint:forcetypeassert // heap only ever holds seqResult
			out[item.seq] = item.result
			next++
		}
	}

	return out
}
