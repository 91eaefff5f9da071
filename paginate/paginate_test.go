package paginate

import "testing"

func TestNewClampsLowPageNumbers(t *testing.T) {
	p := New(0, 10, 25)
	if p.Number != 1 {
		t.Errorf("expected page 1, got %d", p.Number)
	}
	p = New(-3, 10, 25)
	if p.Number != 1 {
		t.Errorf("expected page 1, got %d", p.Number)
	}
}

func TestNewClampsHighPageNumbers(t *testing.T) {
	p := New(99, 10, 25)
	if p.Number != 3 {
		t.Errorf("expected fallback to last page 3, got %d", p.Number)
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{13, 10, 2},
		{20, 10, 2},
	}
	for _, tt := range tests {
		p := New(1, tt.size, tt.total)
		if got := p.TotalPages(); got != tt.want {
			t.Errorf("TotalPages(total=%d, size=%d) = %d, want %d", tt.total, tt.size, got, tt.want)
		}
	}
}

func TestOffsetAndLimit(t *testing.T) {
	p := New(2, 10, 13)
	if p.Offset() != 10 {
		t.Errorf("expected offset 10, got %d", p.Offset())
	}
	if p.Limit() != 10 {
		t.Errorf("expected limit 10, got %d", p.Limit())
	}
}

func TestHasNextHasPrev(t *testing.T) {
	first := New(1, 10, 13)
	if !first.HasNext() || first.HasPrev() {
		t.Errorf("page 1 of 2: HasNext=%v HasPrev=%v", first.HasNext(), first.HasPrev())
	}
	last := New(2, 10, 13)
	if last.HasNext() || !last.HasPrev() {
		t.Errorf("page 2 of 2: HasNext=%v HasPrev=%v", last.HasNext(), last.HasPrev())
	}
}
