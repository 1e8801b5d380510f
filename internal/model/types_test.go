package model

import "testing"

func TestKeyValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b KeyValue
		want bool
	}{
		{"same position", PositionValue(10, 20), PositionValue(10, 20), true},
		{"different y", PositionValue(10, 20), PositionValue(10, 21), false},
		{"different kind", ScaleValue(100), OpacityValue(100), false},
		{"same scalar", ZoomValue(150), ZoomValue(150), true},
		{
			"same custom",
			KeyValue{Kind: ValueCustom, Custom: []int32{1, 2, 3}},
			KeyValue{Kind: ValueCustom, Custom: []int32{1, 2, 3}},
			true,
		},
		{
			"custom length mismatch",
			KeyValue{Kind: ValueCustom, Custom: []int32{1, 2}},
			KeyValue{Kind: ValueCustom, Custom: []int32{1, 2, 3}},
			false,
		},
		{
			"custom element mismatch",
			KeyValue{Kind: ValueCustom, Custom: []int32{1, 2, 3}},
			KeyValue{Kind: ValueCustom, Custom: []int32{1, 2, 4}},
			false,
		},
		{"nil vs empty custom", KeyValue{Kind: ValueCustom}, KeyValue{Kind: ValueCustom, Custom: []int32{}}, true},
	}

	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("%s: Equal = %v, want %v", tt.name, got, tt.want)
		}
		if got := tt.b.Equal(tt.a); got != tt.want {
			t.Errorf("%s: Equal not symmetric: %v, want %v", tt.name, got, tt.want)
		}
	}
}
