package nnue

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

// Bucket holds one evaluation bucket's weights and biases, per the
// §3 data model. L1Weights is indexed by chunk index (L1Size/4 of
// them), each entry the L2Size*4 int8 weight slab PropagateL1 dots
// against that chunk's four activated bytes.
type Bucket struct {
	L1Weights [L1Size / 4][L2Size * 4]int8
	L1Biases  [L2Size]float32

	L2Weights [L2Size][L3Size]float32
	L2Biases  [L3Size]float32

	L3Weights [L3Size]float32
	L3Bias    float32
}

// Network is the process-wide, immutable-after-load set of per-bucket
// parameters, mirroring sfnnue/network.go's Network but flattened to
// this package's single-stack-of-buckets shape (sfnnue keeps separate
// big/small networks; this package has one).
type Network struct {
	Buckets [Buckets]Bucket
}

// magicVersion tags the parameter file format, the same role
// sfnnue/nnue_common.go's Version constant plays for that loader.
const magicVersion uint32 = 0x524B4331 // "RKC1"

// Load reads network parameters from r. The format is a flat
// little-endian dump of every Bucket field in declaration order,
// preceded by a version tag — deliberately simpler than sfnnue's
// LEB128-compressed format (nnue_common.go's ReadLEB128/WriteLEB128)
// since this package doesn't need cross-compatibility with an
// existing trained-weights file; the quantities involved are small
// enough that compression isn't worth the complexity it would add
// here.
func Load(r io.Reader) (*Network, error) {
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("nnue: failed to read version: %w", err)
	}
	if version != magicVersion {
		return nil, fmt.Errorf("nnue: version mismatch: expected %08x, got %08x", magicVersion, version)
	}

	net := &Network{}
	for i := range net.Buckets {
		b := &net.Buckets[i]
		fields := []any{
			&b.L1Weights, &b.L1Biases,
			&b.L2Weights, &b.L2Biases,
			&b.L3Weights, &b.L3Bias,
		}
		for _, f := range fields {
			if err := binary.Read(r, binary.LittleEndian, f); err != nil {
				return nil, fmt.Errorf("nnue: failed to read bucket %d: %w", i, err)
			}
		}
	}

	log.Info().Int("buckets", Buckets).Msg("nnue: network parameters loaded")
	return net, nil
}
