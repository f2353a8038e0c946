package database

import (
	"reflect"
	"testing"
)

func TestAllowedOriginsSlice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "", want: nil},
		{name: "single origin", raw: "https://app.cinevault.io", want: []string{"https://app.cinevault.io"}},
		{name: "multiple origins", raw: "https://a.com, https://b.com", want: []string{"https://a.com", "https://b.com"}},
		{name: "duplicates removed", raw: "x, x, y", want: []string{"x", "y"}},
		{name: "whitespace trimmed", raw: "  a  ,  b  ", want: []string{"a", "b"}},
		{name: "blank entries dropped", raw: "a,,b,", want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := AllowedOriginsSlice(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("AllowedOriginsSlice(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
