// Package safe provides checked int64 arithmetic for engine state.
// Overflow in order or fill accounting means the state is already garbage,
// so every function here panics instead of wrapping. The sequencer's panic
// handler dumps state before halting.
package safe

import (
	"fmt"
	"math"
)

// Add returns a+b, panicking on overflow.
func Add(a, b int64) int64 {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		panic(fmt.Sprintf("SAFE_ADD_OVERFLOW: %d + %d", a, b))
	}
	return a + b
}

// Sub returns a-b, panicking on overflow.
func Sub(a, b int64) int64 {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		panic(fmt.Sprintf("SAFE_SUB_OVERFLOW: %d - %d", a, b))
	}
	return a - b
}

// Mul returns a*b, panicking on overflow.
func Mul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	result := a * b
	if result/b != a {
		panic(fmt.Sprintf("SAFE_MUL_OVERFLOW: %d * %d", a, b))
	}
	return result
}

// Div returns a/b, panicking on division by zero or MinInt64/-1.
func Div(a, b int64) int64 {
	if b == 0 {
		panic(fmt.Sprintf("SAFE_DIV_ZERO: %d / 0", a))
	}
	if a == math.MinInt64 && b == -1 {
		panic("SAFE_DIV_OVERFLOW: MinInt64 / -1")
	}
	return a / b
}
