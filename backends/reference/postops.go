package reference

import (
	"github.com/pkg/errors"

	"github.com/kestrel-ml/kestrel/executors"
)

// applyPostOpsF32 applies the fused post-processing chain in order, in one pass
// per step over out. BiasAdd broadcasts bias cyclically over the flat output,
// which for a [batch..., channels] output with a [channels] bias is the usual
// per-channel bias.
func applyPostOpsF32(out []float32, postOps executors.PostOps, bias []float32) error {
	for _, postOp := range postOps {
		switch postOp.Kind {
		case executors.PostOpReLU:
			for i, v := range out {
				if v < 0 {
					out[i] = 0
				}
			}
		case executors.PostOpClip:
			lo, hi := float32(postOp.Alpha), float32(postOp.Beta)
			for i, v := range out {
				out[i] = min(max(v, lo), hi)
			}
		case executors.PostOpScale:
			mul, add := float32(postOp.Alpha), float32(postOp.Beta)
			for i, v := range out {
				out[i] = v*mul + add
			}
		case executors.PostOpBiasAdd:
			if len(bias) == 0 {
				return errors.Errorf("post-op %s requires a %q buffer", postOp.Kind, executors.ArgBias)
			}
			for i := range out {
				out[i] += bias[i%len(bias)]
			}
		default:
			return errors.Errorf("post-op %s not implemented by the %s backend", postOp.Kind, BackendName)
		}
	}
	return nil
}

// applyPostOpsF64 is the float64 counterpart of applyPostOpsF32.
func applyPostOpsF64(out []float64, postOps executors.PostOps, bias []float64) error {
	for _, postOp := range postOps {
		switch postOp.Kind {
		case executors.PostOpReLU:
			for i, v := range out {
				if v < 0 {
					out[i] = 0
				}
			}
		case executors.PostOpClip:
			for i, v := range out {
				out[i] = min(max(v, postOp.Alpha), postOp.Beta)
			}
		case executors.PostOpScale:
			for i, v := range out {
				out[i] = v*postOp.Alpha + postOp.Beta
			}
		case executors.PostOpBiasAdd:
			if len(bias) == 0 {
				return errors.Errorf("post-op %s requires a %q buffer", postOp.Kind, executors.ArgBias)
			}
			for i := range out {
				out[i] += bias[i%len(bias)]
			}
		default:
			return errors.Errorf("post-op %s not implemented by the %s backend", postOp.Kind, BackendName)
		}
	}
	return nil
}
