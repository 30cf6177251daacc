// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cmap

// isPrimeWitness runs one Miller-Rabin witness round for base a against n,
// ported from godby::details::IsPrime_witness (AtomicHashmap.h).
func isPrimeWitness(a, n uint64) bool {
	u := n / 2
	t := uint64(1)
	for u&1 == 0 {
		u /= 2
		t++
	}

	prev := modPow(a, u, n)
	var curr uint64
	for i := uint64(1); i <= t; i++ {
		curr = (prev * prev) % n
		if curr == 1 && prev != 1 && prev != n-1 {
			return true
		}
		prev = curr
	}
	return curr != 1
}

func modPow(a, n, mod uint64) uint64 {
	result := uint64(1)
	power := a % mod
	for n > 0 {
		if n&1 == 1 {
			result = mulMod(result, power, mod)
		}
		power = mulMod(power, power, mod)
		n >>= 1
	}
	return result
}

// mulMod computes (a*b) mod m without overflowing uint64, using the
// schoolbook double-and-add trick — sufficient for the capacity magnitudes
// cmap deals with (not a general-purpose bignum multiplier).
func mulMod(a, b, m uint64) uint64 {
	var result uint64
	a %= m
	for b > 0 {
		if b&1 == 1 {
			result = (result + a) % m
		}
		a = (a + a) % m
		b >>= 1
	}
	return result
}

// isPrime is the deterministic-for-this-range primality test ported from
// godby::details::IsPrime.
func isPrime(n uint64) bool {
	if (n%2 == 0 && n != 2) || n < 2 || (n%3 == 0 && n != 3) {
		return false
	}
	if n < 1373653 {
		for k := uint64(1); 36*k*k-12*k < n; k++ {
			if n%(6*k+1) == 0 || n%(6*k-1) == 0 {
				return false
			}
		}
		return true
	}
	if n < 9080191 {
		if isPrimeWitness(31, n) {
			return false
		}
		if isPrimeWitness(73, n) {
			return false
		}
		return true
	}
	if isPrimeWitness(2, n) {
		return false
	}
	if isPrimeWitness(7, n) {
		return false
	}
	if isPrimeWitness(61, n) {
		return false
	}
	return true
}

// nextPrime returns the smallest prime >= n, ported from
// godby::details::NextPrime. Valid for n > 2.
func nextPrime(n uint64) uint64 {
	if n <= 2 {
		return 2
	}
	if n&1 == 0 {
		n++
	}
	for next := n; ; next += 2 {
		if isPrime(next) {
			return next
		}
	}
}
