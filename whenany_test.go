package taskz

import (
	"errors"
	"testing"
)

func TestWhenAnyCell(t *testing.T) {
	makeCells := func(q Queuer, n int) ([]*WriteOnceCell[int], []Cell[int]) {
		concrete := make([]*WriteOnceCell[int], n)
		cells := make([]Cell[int], n)
		for i := range concrete {
			concrete[i] = NewWriteOnceCell[int](q)
			cells[i] = concrete[i]
		}
		return concrete, cells
	}

	t.Run("First Success Wins", func(t *testing.T) {
		q := &stubQueuer{}
		inputs, cells := makeCells(q, 3)
		any := NewWhenAnyCell(q, cells)

		inputs[1].Write(EmptySchedulingContext(), 10)
		q.Drain()
		inputs[0].Write(EmptySchedulingContext(), 20)
		inputs[2].Write(EmptySchedulingContext(), 30)
		q.Drain()

		res, ok := any.Read()
		if !ok || !res.OK() || res.Value() != 10 {
			t.Errorf("expected Ok(10), got %+v ok=%v", res, ok)
		}
	})

	t.Run("Errors Do Not Resolve While A Success Is Possible", func(t *testing.T) {
		q := &stubQueuer{}
		inputs, cells := makeCells(q, 3)
		any := NewWhenAnyCell(q, cells)

		inputs[0].Error(EmptySchedulingContext(), ErrRejected)
		inputs[2].Error(EmptySchedulingContext(), ErrRejected)
		q.Drain()

		if _, ok := any.Read(); ok {
			t.Fatal("resolved with one input still pending")
		}

		inputs[1].Write(EmptySchedulingContext(), 7)
		q.Drain()

		res, ok := any.Read()
		if !ok || !res.OK() || res.Value() != 7 {
			t.Errorf("expected Ok(7), got %+v ok=%v", res, ok)
		}
	})

	t.Run("All Errors Produce An Error", func(t *testing.T) {
		q := &stubQueuer{}
		inputs, cells := makeCells(q, 3)
		any := NewWhenAnyCell(q, cells)

		for _, in := range inputs {
			in.Error(EmptySchedulingContext(), ErrRejected)
		}
		q.Drain()

		res, ok := any.Read()
		if !ok || res.OK() {
			t.Fatalf("expected an error, got %+v ok=%v", res, ok)
		}
		if !errors.Is(res.Err(), ErrRejected) {
			t.Errorf("expected ErrRejected, got %v", res.Err())
		}
	})

	t.Run("Empty Input Fails Immediately", func(t *testing.T) {
		q := &stubQueuer{}
		any := NewWhenAnyCell[int](q, nil)

		res, ok := any.Read()
		if !ok || res.OK() {
			t.Fatalf("expected immediate failure, got %+v ok=%v", res, ok)
		}
	})
}
