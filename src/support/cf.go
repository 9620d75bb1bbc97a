/*
 * Copyright 2025 Ted Dunning
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package support

/*
NearestFraction finds the best approximation c/d ≈ a/b with d <= maxDenominator.

Returns c, d and the error a/b - c/d as floating point.

This is what makes fractional dividers worth having. Dividing a 900MHz VCO down to
144.490MHz with the denominator pinned at 2^20-1 leaves frequency steps of around
0.1Hz at the output, and at 28MHz the error from a fixed denominator can approach
half a hertz. Picking the denominator with continued fractions instead puts the
output within a millihertz of the target almost everywhere, which is also what you
need to fold a measured crystal error of a few ppb back into the dividers.
*/
func NearestFraction(a, b, maxDenominator uint64) (c, d uint64, eps float64) {
	c, d = continuedFraction(a, b, 0, 1, maxDenominator)
	eps = float64(a)/float64(b) - float64(c)/float64(d)
	return c, d, eps
}

/*
continuedFraction expands a/b as a continued fraction and returns the value of the
longest prefix whose denominator stays within maxDenominator, as two integers.

The expansion is recursive since any rational can be written as

	cf(a, b) = floor(a/b) + 1 / cf(b, a mod b)

Truncations of a continued fraction are the best rational approximations for their
denominator. To know when to stop we carry the denominators of the previous two
convergents down the recursion in e and f, which start at 0 and 1.
*/
func continuedFraction(a, b, e, f, maxDenominator uint64) (c, d uint64) {
	term := a / b
	denom := f + term*e
	if denom > maxDenominator {
		return 1, 0
	}
	ax := a - term*b
	if ax == 0 {
		return term, 1
	}
	// a/b = term + 1/(cx/dx) = (term*cx + dx) / cx
	cx, dx := continuedFraction(b, ax, denom, e, maxDenominator)
	return term*cx + dx, cx
}
