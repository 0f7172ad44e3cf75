// Package skin reduces a skin controller's variable-length per-vertex
// influence lists to the fixed three bone/weight slots the vertex format
// carries.
package skin

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/marionette/internal/logger"
	"github.com/Faultbox/marionette/pkg/dae"
)

// MaxInfluences is the number of bone slots per vertex.
const MaxInfluences = 3

// weightEpsilon is the tolerance on a vertex's weight sum.
const weightEpsilon = 1e-5

// Extraction errors.
var (
	ErrWeightIndexOutOfRange = errors.New("weight index out of range")
	ErrBoneIndexOutOfRange   = errors.New("bone index out of range")
	ErrTruncatedWeights      = errors.New("influence pairs truncated")
	ErrVertexCountMismatch   = errors.New("more influence counts than vertices")
)

// Influence holds up to three bone influences for one vertex. Bone IDs are
// stored as floats because they travel as vertex attributes. Unused slots
// are (0, 0).
type Influence struct {
	BoneIDs [MaxInfluences]float32
	Weights [MaxInfluences]float32
}

// Sum returns the total weight.
func (in Influence) Sum() float32 {
	return in.Weights[0] + in.Weights[1] + in.Weights[2]
}

// RawInfluence is a single resolved (bone, weight) pair from the document.
type RawInfluence struct {
	Bone   int
	Weight float32
}

// Extract resolves the skin's influence pairs and reduces each vertex to at
// most three influences. The result has one entry per vertex; vertices past
// the end of VCount get no influences.
func Extract(src dae.Skin, vertexCount int) ([]Influence, error) {
	if len(src.VCount) > vertexCount {
		return nil, fmt.Errorf("%w: %d counts for %d vertices",
			ErrVertexCountMismatch, len(src.VCount), vertexCount)
	}

	out := make([]Influence, vertexCount)
	raw := make([]RawInfluence, 0, 8)
	cursor := 0
	unweighted := 0

	for vi, count := range src.VCount {
		if count < 0 || cursor+2*count > len(src.V) {
			return nil, fmt.Errorf("%w: vertex %d needs %d pairs at offset %d, have %d values",
				ErrTruncatedWeights, vi, count, cursor, len(src.V))
		}

		raw = raw[:0]
		for k := 0; k < count; k++ {
			bone, wi := src.V[cursor], src.V[cursor+1]
			cursor += 2

			if bone < 0 || bone >= len(src.BoneNames) {
				return nil, fmt.Errorf("%w: vertex %d references bone %d of %d",
					ErrBoneIndexOutOfRange, vi, bone, len(src.BoneNames))
			}
			if wi < 0 || wi >= len(src.Weights) {
				return nil, fmt.Errorf("%w: vertex %d references weight %d of %d",
					ErrWeightIndexOutOfRange, vi, wi, len(src.Weights))
			}
			raw = append(raw, RawInfluence{Bone: bone, Weight: src.Weights[wi]})
		}

		out[vi] = Reduce(raw)
		if count == 0 || out[vi].Sum() == 0 {
			unweighted++
		}
	}

	unweighted += vertexCount - len(src.VCount)
	if unweighted > 0 {
		logger.Named("skin").Warn("vertices without effective bone weights",
			zap.Int("vertices", unweighted), zap.Int("total", vertexCount))
	}
	return out, nil
}

// Reduce picks the three strongest influences and renormalizes them to sum
// to one. With three or fewer influences the weights are copied and only
// renormalized if their sum is off. Ties keep the earlier influence. A zero
// weight sum leaves all weights zero.
func Reduce(raw []RawInfluence) Influence {
	var out Influence

	if len(raw) <= MaxInfluences {
		for i, r := range raw {
			out.BoneIDs[i] = float32(r.Bone)
			out.Weights[i] = r.Weight
		}
		if sum := out.Sum(); sum != 0 && math.Abs(float64(sum-1)) > weightEpsilon {
			out.normalize(sum)
		}
		return out
	}

	var taken [MaxInfluences]int
	for slot := 0; slot < MaxInfluences; slot++ {
		best := -1
		for i := range raw {
			if slot > 0 && contains(taken[:slot], i) {
				continue
			}
			if best < 0 || raw[i].Weight > raw[best].Weight {
				best = i
			}
		}
		taken[slot] = best
		out.BoneIDs[slot] = float32(raw[best].Bone)
		out.Weights[slot] = raw[best].Weight
	}

	if sum := out.Sum(); sum != 0 {
		out.normalize(sum)
	}
	return out
}

func (in *Influence) normalize(sum float32) {
	for i := range in.Weights {
		in.Weights[i] /= sum
	}
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
