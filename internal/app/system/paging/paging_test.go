package paging

import (
	"math"
	"net/http/httptest"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name         string
		number, size int
		want         Page
	}{
		{"defaults", 0, 0, Page{Number: 1, Size: PageSize}},
		{"negative page", -3, 10, Page{Number: 1, Size: 10}},
		{"capped size", 2, 1000, Page{Number: 2, Size: MaxPageSize}},
		{"unchanged", 3, 10, Page{Number: 3, Size: 10}},
		{"huge page", math.MaxInt, 100, Page{Number: MaxPageNumber, Size: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.number, tt.size)
			if got != tt.want {
				t.Errorf("New(%d, %d) = %+v, want %+v", tt.number, tt.size, got, tt.want)
			}
		})
	}
}

func TestPage_Skip(t *testing.T) {
	if got := New(3, 10).Skip(); got != 20 {
		t.Errorf("Skip() = %d, want 20", got)
	}
	if got := New(1, 10).Skip(); got != 0 {
		t.Errorf("Skip() = %d, want 0", got)
	}
}

func TestPage_SkipHugePage(t *testing.T) {
	r := httptest.NewRequest("GET", "/feed?page=9223372036854775807&pageSize=100", nil)
	p := FromRequest(r)
	if p.Number != MaxPageNumber {
		t.Errorf("Number = %d, want %d", p.Number, MaxPageNumber)
	}
	if got, want := p.Skip(), int64(MaxPageNumber-1)*MaxPageSize; got != want {
		t.Errorf("Skip() = %d, want %d", got, want)
	}
	if p.HasNext(25, 0) {
		t.Error("HasNext past the data should be false")
	}
}

func TestPage_TotalPages(t *testing.T) {
	tests := []struct {
		total int64
		size  int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
	}

	for _, tt := range tests {
		got := New(1, tt.size).TotalPages(tt.total)
		if got != tt.want {
			t.Errorf("TotalPages(%d) with size %d = %d, want %d", tt.total, tt.size, got, tt.want)
		}
	}
}

func TestPage_HasNext(t *testing.T) {
	p := New(2, 10)
	if !p.HasNext(25, 10) {
		t.Error("expected HasNext on page 2 of 25 items")
	}
	if New(3, 10).HasNext(25, 5) {
		t.Error("did not expect HasNext on the last page")
	}
}

func TestFromRequest(t *testing.T) {
	tests := []struct {
		url  string
		want Page
	}{
		{"/feed", Page{Number: 1, Size: PageSize}},
		{"/feed?page=4&pageSize=5", Page{Number: 4, Size: 5}},
		{"/feed?page=abc&pageSize=-1", Page{Number: 1, Size: PageSize}},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			if got := FromRequest(r); got != tt.want {
				t.Errorf("FromRequest(%s) = %+v, want %+v", tt.url, got, tt.want)
			}
		})
	}
}
