package rotator

import (
	"reflect"
	"sort"
	"sync"
	"testing"
)

// take calls Next n times and returns the results, "" standing for none.
func take(r *Rotator, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		iface, ok := r.Next()
		if !ok {
			iface = ""
		}
		out = append(out, iface)
	}
	return out
}

func TestNextRoundRobin(t *testing.T) {
	tests := []struct {
		name string
		pool []string
		n    int
		want []string
	}{
		{name: "empty", pool: nil, n: 3, want: []string{"", "", ""}},
		{name: "single", pool: []string{"127.0.0.1"}, n: 2, want: []string{"127.0.0.1", "127.0.0.1"}},
		{name: "pair", pool: []string{"127.0.0.1", "127.0.0.2"}, n: 3, want: []string{"127.0.0.1", "127.0.0.2", "127.0.0.1"}},
		{name: "wraps_after_n", pool: []string{"a", "b", "c", "d"}, n: 5, want: []string{"a", "b", "c", "d", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := take(New(tt.pool), tt.n); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Next() sequence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewCopiesInput(t *testing.T) {
	pool := []string{"a", "b"}
	r := New(pool)
	pool[0] = "z"
	if iface, _ := r.Next(); iface != "a" {
		t.Errorf("Next() = %q, want a", iface)
	}
}

func TestBlock(t *testing.T) {
	r := New([]string{"127.0.0.1", "127.0.0.2"})
	if got, want := take(r, 2), []string{"127.0.0.1", "127.0.0.2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Next() sequence = %v, want %v", got, want)
	}

	r.Block("127.0.0.1")
	if got, want := take(r, 2), []string{"127.0.0.2", "127.0.0.2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("after block: %v, want %v", got, want)
	}

	r.Block("127.0.0.2")
	if got, want := take(r, 2), []string{"", ""}; !reflect.DeepEqual(got, want) {
		t.Errorf("after blocking all: %v, want %v", got, want)
	}
}

func TestBlockBeforeFirstNext(t *testing.T) {
	r := New([]string{"A", "B"})
	r.Block("A")
	if got, want := take(r, 3), []string{"B", "B", "B"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Next() sequence = %v, want %v", got, want)
	}
}

func TestBlockKeepsNeighbourOrder(t *testing.T) {
	tests := []struct {
		name    string
		advance int
		block   string
		want    []string
	}{
		// cursor at B, blocking A (before the cursor) must still yield B next
		{name: "before_cursor", advance: 1, block: "A", want: []string{"B", "C", "D", "B"}},
		// blocking the interface under the cursor yields its successor
		{name: "at_cursor", advance: 1, block: "B", want: []string{"C", "D", "A", "C"}},
		{name: "after_cursor", advance: 1, block: "C", want: []string{"B", "D", "A", "B"}},
		// blocking the last interface while the cursor points at it wraps
		{name: "last_at_cursor", advance: 3, block: "D", want: []string{"A", "B", "C", "A"}},
		{name: "unknown", advance: 2, block: "Z", want: []string{"C", "D", "A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New([]string{"A", "B", "C", "D"})
			take(r, tt.advance)
			r.Block(tt.block)
			if got := take(r, len(tt.want)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Next() sequence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnblock(t *testing.T) {
	r := New([]string{"127.0.0.1", "127.0.0.2"})
	r.Block("127.0.0.1")
	if got, want := take(r, 2), []string{"127.0.0.2", "127.0.0.2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("after block: %v, want %v", got, want)
	}

	r.Unblock("127.0.0.1")
	if got, want := take(r, 4), []string{"127.0.0.2", "127.0.0.1", "127.0.0.2", "127.0.0.1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("after unblock: %v, want %v", got, want)
	}
}

func TestUnblockRejoinsAtTail(t *testing.T) {
	r := New([]string{"A", "B"})
	r.Block("A")
	r.Unblock("A")
	if got, want := take(r, 4), []string{"B", "A", "B", "A"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Next() sequence = %v, want %v", got, want)
	}
}

func TestUnblockUnknownIsNoop(t *testing.T) {
	r := New([]string{"A"})
	r.Unblock("A")
	r.Unblock("B")
	if got := r.Active(); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("Active() = %v, want [A]", got)
	}
}

func TestPartitionPreserved(t *testing.T) {
	pool := []string{"A", "B", "C"}
	r := New(pool)

	ops := []func(){
		func() { r.Block("B") },
		func() { r.Block("B") },
		func() { r.Block("A") },
		func() { r.Unblock("B") },
		func() { r.Block("C") },
		func() { r.Unblock("A") },
	}
	for i, op := range ops {
		op()
		union := append(r.Active(), r.Blocked()...)
		sort.Strings(union)
		if !reflect.DeepEqual(union, pool) {
			t.Fatalf("after op %d: union = %v, want %v", i, union, pool)
		}
		if r.Len() != len(pool) {
			t.Fatalf("after op %d: Len() = %d", i, r.Len())
		}
		for _, b := range r.Blocked() {
			for _, a := range take(r, len(r.Active())) {
				if a == b {
					t.Fatalf("after op %d: Next() returned blocked %q", i, b)
				}
			}
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	r := New([]string{"A", "B", "C"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Next()
				if (i+j)%7 == 0 {
					r.Block("B")
				} else if (i+j)%5 == 0 {
					r.Unblock("B")
				}
			}
		}(i)
	}
	wg.Wait()

	if r.Len() != 3 {
		t.Errorf("Len() = %d after concurrent use, want 3", r.Len())
	}
}
