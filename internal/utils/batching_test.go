package utils

import (
	"reflect"
	"testing"
)

func TestChunk(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name string
		size int
		want [][]int
	}{
		{"even split", 7, [][]int{items}},
		{"remainder", 3, [][]int{{1, 2, 3}, {4, 5, 6}, {7}}},
		{"one each", 1, [][]int{{1}, {2}, {3}, {4}, {5}, {6}, {7}}},
		{"larger than input", 25, [][]int{items}},
		{"invalid size", 0, [][]int{items}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Chunk(items, tt.size); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Chunk(%d) = %v, want %v", tt.size, got, tt.want)
			}
		})
	}
}

func TestChunkEmpty(t *testing.T) {
	if got := Chunk([]string{}, 25); got != nil {
		t.Fatalf("Chunk(empty) = %v, want nil", got)
	}
}

func TestChunkDoesNotLeakCapacity(t *testing.T) {
	items := []int{1, 2, 3, 4}
	chunks := Chunk(items, 2)
	_ = append(chunks[0], 99)
	if items[2] != 3 {
		t.Fatal("appending to a chunk overwrote the next chunk")
	}
}
