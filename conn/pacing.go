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

package conn

// WorkMode selects which accept-burst schedule AcceptBurst applies
// (§4.4).
type WorkMode uint8

const (
	WorkBlockingListen WorkMode = iota
	WorkStandalone
	WorkThreadPool
)

// pointerSizedStandaloneCap is "4096 or 1024 by pointer size": 64-bit
// builds get the larger burst, matching the design note's intent that
// wider address spaces can afford to track more in-flight accepts.
const pointerSizedStandaloneCap = 1024 << (2 * (^uint(0) >> 63))

// AcceptBurst computes the accept-burst size per the schedule in §4.4.
// conns is the current connection count, limit is the configured cap,
// workers is the worker-pool size (ignored outside WorkThreadPool). All
// divisions truncate, matching the design's integer-arithmetic intent.
func AcceptBurst(mode WorkMode, conns, limit, workers int) int {
	switch mode {
	case WorkBlockingListen:
		return 1

	case WorkStandalone:
		cap_ := limit / 4
		if cap_ > pointerSizedStandaloneCap {
			cap_ = pointerSizedStandaloneCap
		}
		if cap_ < 1 {
			cap_ = 1
		}
		return cap_

	default: // WorkThreadPool
		if workers < 1 {
			workers = 1
		}
		slotsLeft := limit - conns

		var target int
		switch {
		case conns < limit/16:
			target = clamp(conns/workers, 8, 64)
		case conns < limit/8:
			target = clamp(conns*2/workers, 8, 128)
		case conns < limit/4:
			target = clamp(conns*4/workers, 8, min(slotsLeft/4, 256))
		case conns < limit/2:
			target = clamp(conns*8/workers, 16, min(slotsLeft/4, 256))
		case slotsLeft > limit/4:
			target = clampMax(slotsLeft*4/workers, min(slotsLeft/8, 128))
		case slotsLeft > limit/8:
			target = clampMax(slotsLeft*2/workers, min(slotsLeft/16, 64))
		default:
			target = slotsLeft / 16
		}

		if target < 1 {
			target = 1
		}
		return target
	}
}

func clamp(v, floor, cap_ int) int {
	if v < floor {
		v = floor
	}
	if v > cap_ {
		v = cap_
	}
	return v
}

func clampMax(v, cap_ int) int {
	if v > cap_ {
		v = cap_
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
