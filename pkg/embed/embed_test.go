package embed

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

type fakeEmbedder struct {
	failOn string
}

func (f *fakeEmbedder) Embed(_ context.Context, input []byte) ([]float32, error) {
	if f.failOn != "" && string(input) == f.failOn {
		return nil, errors.New("embed failed")
	}
	return []float32{float32(len(input))}, nil
}

func (f *fakeEmbedder) ModelID() string     { return "fake" }
func (f *fakeEmbedder) ResetMetrics()       {}
func (f *fakeEmbedder) GetMetrics() Metrics { return Metrics{} }

type fakeBatchEmbedder struct {
	fakeEmbedder
	batchCalls int
}

func (f *fakeBatchEmbedder) EmbedBatch(_ context.Context, inputs [][]byte) ([][]float32, error) {
	f.batchCalls++
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		out[i] = []float32{float32(len(in))}
	}
	return out, nil
}

func TestEmbedTextsPreservesOrder(t *testing.T) {
	inputs := make([][]byte, 20)
	for i := range inputs {
		inputs[i] = []byte(fmt.Sprintf("%0*d", i+1, 0))
	}

	out, err := EmbedTexts(context.Background(), &fakeEmbedder{}, inputs)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(out) != len(inputs) {
		t.Fatalf("expected %d results, got %d", len(inputs), len(out))
	}
	for i, vec := range out {
		want := []float32{float32(i + 1)}
		if !reflect.DeepEqual(vec, want) {
			t.Fatalf("expected %v at index %d, got %v", want, i, vec)
		}
	}
}

func TestEmbedTextsEmptyInput(t *testing.T) {
	out, err := EmbedTexts(context.Background(), &fakeEmbedder{}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil result, got %v", out)
	}
}

func TestEmbedTextsPropagatesError(t *testing.T) {
	inputs := [][]byte{[]byte("ok"), []byte("bad"), []byte("fine")}
	_, err := EmbedTexts(context.Background(), &fakeEmbedder{failOn: "bad"}, inputs)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestEmbedTextsUsesBatcher(t *testing.T) {
	f := &fakeBatchEmbedder{}
	inputs := [][]byte{[]byte("a"), []byte("bb"), []byte("ccc")}

	out, err := EmbedTexts(context.Background(), f, inputs)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.batchCalls != 1 {
		t.Fatalf("expected one batch call, got %d", f.batchCalls)
	}
	want := [][]float32{{1}, {2}, {3}}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("expected %v, got %v", want, out)
	}
}

func TestFitDimensions(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		dim  int
		want []float32
	}{
		{"exact", []float32{1, 2, 3}, 3, []float32{1, 2, 3}},
		{"pad", []float32{1}, 3, []float32{1, 0, 0}},
		{"truncate", []float32{1, 2, 3, 4}, 2, []float32{1, 2}},
		{"empty", nil, 2, []float32{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitDimensions(tt.in, tt.dim)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
