package reactive

import "testing"

func TestBatchCoalescesNotifications(t *testing.T) {
	a := New(0)
	b := New(0)

	l := newCountListener()
	a.Subscribe(l)
	b.Subscribe(l)

	Batch(func() {
		a.Set(1)
		b.Set(1)
		a.Set(2)

		if l.count != 0 {
			t.Errorf("listener notified inside batch; count = %d", l.count)
		}
	})

	if l.count != 1 {
		t.Errorf("listener notified %d times after batch, want 1", l.count)
	}
	if a.Peek() != 2 || b.Peek() != 1 {
		t.Errorf("values after batch = %d, %d, want 2, 1", a.Peek(), b.Peek())
	}
}

func TestBatchNesting(t *testing.T) {
	s := New(0)
	l := newCountListener()
	s.Subscribe(l)

	Batch(func() {
		s.Set(1)
		Batch(func() {
			s.Set(2)
		})
		// The inner batch ended, but the outer one is still open.
		if l.count != 0 {
			t.Errorf("inner batch end flushed; count = %d", l.count)
		}
	})

	if l.count != 1 {
		t.Errorf("listener notified %d times, want 1", l.count)
	}
}

func TestBatchNoChangeNoNotification(t *testing.T) {
	s := New(7)
	l := newCountListener()
	s.Subscribe(l)

	Batch(func() {
		s.Set(7)
		s.Set(7)
	})

	if l.count != 0 {
		t.Errorf("no-op batch notified %d times, want 0", l.count)
	}
}

func TestBatchNetNoChangeNoNotification(t *testing.T) {
	s := New(0)
	l := newCountListener()
	s.Subscribe(l)

	// Individual writes change the value, but the batch ends where it
	// started, so the net-effect gate suppresses the notification.
	Batch(func() {
		s.Set(1)
		s.Set(0)
	})

	if l.count != 0 {
		t.Errorf("round-trip batch notified %d times, want 0", l.count)
	}
	if s.Peek() != 0 {
		t.Errorf("value after batch = %d, want 0", s.Peek())
	}
}

func TestBatchNetChangeAcrossRoundTrip(t *testing.T) {
	a := New(0)
	b := New(0)

	l := newCountListener()
	a.Subscribe(l)
	b.Subscribe(l)

	// a round-trips to its starting value, b does not; the shared
	// listener fires once for b.
	Batch(func() {
		a.Set(1)
		b.Set(1)
		a.Set(0)
	})

	if l.count != 1 {
		t.Errorf("listener notified %d times, want 1", l.count)
	}
}

func TestBatchDistinctListenersEachNotified(t *testing.T) {
	a := New(0)
	b := New(0)

	la := newCountListener()
	lb := newCountListener()
	a.Subscribe(la)
	b.Subscribe(lb)

	Batch(func() {
		a.Set(1)
		b.Set(1)
	})

	if la.count != 1 || lb.count != 1 {
		t.Errorf("listener counts = %d, %d, want 1, 1", la.count, lb.count)
	}
}
