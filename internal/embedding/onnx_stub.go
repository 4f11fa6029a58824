//go:build !cgo

package embedding

import (
	"context"
	"errors"
)

// ErrONNXUnavailable is returned when the binary was built without cgo.
var ErrONNXUnavailable = errors.New("ONNX embedder requires cgo; build with CGO_ENABLED=1 and onnxruntime installed")

// ONNXEmbedder is a placeholder when built without cgo (see onnx.go).
type ONNXEmbedder struct{}

// NewONNXEmbedder always fails without cgo.
func NewONNXEmbedder(_ string, _, _ int) (*ONNXEmbedder, error) {
	return nil, ErrONNXUnavailable
}

func (*ONNXEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, ErrONNXUnavailable
}

func (*ONNXEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, ErrONNXUnavailable
}

func (*ONNXEmbedder) Dimensions() int { return 0 }

func (*ONNXEmbedder) Name() string { return "onnx" }

func (*ONNXEmbedder) Close() error { return nil }
