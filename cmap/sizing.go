// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cmap

import "math"

// occupiedRatio is the target per-level occupancy rho from §4.F's sizing
// formula, ported from godby::AtomicHashmap's occupied_ratio.
const occupiedRatio = 0.989

var lnRatio = -math.Log(1 - occupiedRatio)

// genMultiLevelSize computes each level's prime capacity from the expected
// total n, ported from godby::AtomicHashmap::GenMultiLevelSize. Unlike the
// source — which lets the last level silently come out undersized and
// leaves the caller to find out the hard way — this returns ErrLevelTooSmall
// the moment the remaining count falls below a level's occupied share (its
// prime capacity times occupiedRatio), per the §9 Open Question decision to
// surface rather than guess.
func genMultiLevelSize(n uint64, levels int) (capacities []uint64, sum uint64, err error) {
	capacities = make([]uint64, 0, levels)
	remaining := n
	for i := 0; i < levels; i++ {
		cap := nextPrime(uint64(float64(remaining) / lnRatio))
		capacities = append(capacities, cap)
		sum += cap
		occupied := uint64(float64(cap) * occupiedRatio)
		if remaining < occupied {
			return nil, 0, ErrLevelTooSmall
		}
		remaining -= occupied
	}
	return capacities, sum, nil
}

// sizeLevels runs genMultiLevelSize's two-pass sizing: an initial pass sized
// off the raw expected capacity, then one bootstrapping pass that rescales
// by n*expectedCapacity/total — mirroring the constructor body in
// AtomicHashmap.h, which recomputes level sizes once using the first pass's
// total as a correction factor.
func sizeLevels(expectedCapacity uint64, levels int) (capacities []uint64, total uint64, err error) {
	capacities, total, err = genMultiLevelSize(expectedCapacity, levels)
	if err != nil {
		return nil, 0, err
	}
	rescaled := expectedCapacity * expectedCapacity / total
	return genMultiLevelSize(rescaled, levels)
}
