/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package types

// Strictness is the single signed "discipline level" gating every
// lenient parser behavior (§4.7 of the design). Zero is the strict
// default; more negative is more lenient. Each leniency below has its
// own threshold so behaviors can be enabled independently without a
// sprawl of booleans.
type Strictness int32

const (
	StrictDefault Strictness = 0

	// Thresholds: Strictness <= threshold enables the behavior.
	LenientEmptyLineSkip       Strictness = -1
	LenientBareLF              Strictness = -1
	LenientBareCRAsSpace       Strictness = -2
	LenientTabVTFFAsSpace      Strictness = -1
	LenientCoalescedWhitespace Strictness = -2
	LenientWhitespaceInURI     Strictness = -3
	LenientKeepURIWhitespace   Strictness = -4
	LenientNULAsSpace          Strictness = -3
	LenientFoldedHeaders       Strictness = -1
	LenientLeadingWSFirstHdr   Strictness = -2
	LenientWSInHeaderName      Strictness = -3
	LenientEmptyHeaderName     Strictness = -4
	LenientWSBeforeColon       Strictness = -2
	LenientMissingColon        Strictness = -5
	LenientCookies             Strictness = -1
	LenientDuplicateHost       Strictness = -3
	LenientBothLengthAndChunk  Strictness = -2
)

// Allows reports whether this strictness level enables the leniency
// whose threshold is passed.
func (s Strictness) Allows(threshold Strictness) bool {
	return s <= threshold
}
