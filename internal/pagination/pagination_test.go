package pagination

import "testing"

func TestPageRequestDefaults(t *testing.T) {
	var p PageRequest
	p.Defaults()
	if p.Page != 1 || p.PageSize != 20 {
		t.Errorf("expected 1/20, got %d/%d", p.Page, p.PageSize)
	}
	p = PageRequest{Page: 3, PageSize: 10}
	if p.Offset() != 20 {
		t.Errorf("expected offset 20, got %d", p.Offset())
	}
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse[int](nil, 1, 20, 41)
	if resp.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", resp.TotalPages)
	}
	if resp.Data == nil || len(resp.Data) != 0 {
		t.Errorf("expected empty non-nil data, got %v", resp.Data)
	}
}

func TestParseSort(t *testing.T) {
	allowed := []string{"created_at", "title"}
	def := Sort{Column: "created_at", Desc: true}

	tests := []struct {
		raw  string
		want Sort
		ok   bool
	}{
		{"", def, true},
		{"title", Sort{Column: "title"}, true},
		{"-title", Sort{Column: "title", Desc: true}, true},
		{"password", Sort{}, false},
		{"-id; drop table users", Sort{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseSort(tt.raw, allowed, def)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseSort(%q) = %+v, %v; want %+v, %v", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}
