package types

import "math"

// deriveHalstead computes the textbook Halstead software-science measures
// from the four base counts: n1 distinct operators, n2 distinct operands,
// bigN1 total operators, bigN2 total operands.
func deriveHalstead(n1, n2, bigN1, bigN2 int) HalsteadDerived {
	vocabulary := n1 + n2
	length := bigN1 + bigN2

	if vocabulary == 0 || length == 0 {
		return HalsteadDerived{Vocabulary: vocabulary, Length: length}
	}

	volume := float64(length) * math.Log2(float64(vocabulary))

	difficulty := 0.0
	if n2 > 0 {
		difficulty = (float64(n1) / 2.0) * (float64(bigN2) / float64(n2))
	}

	effort := difficulty * volume
	timeSeconds := effort / 18.0
	bugs := volume / 3000.0

	return HalsteadDerived{
		Vocabulary: vocabulary,
		Length:     length,
		Volume:     volume,
		Difficulty: difficulty,
		Effort:     effort,
		Time:       timeSeconds,
		Bugs:       bugs,
	}
}

// MaintainabilityIndex computes the standard derivative of the metric:
// 171 - 5.2*ln(V) - 0.23*G - 16.2*ln(SLOC), rescaled to 0-100 and clamped.
func MaintainabilityIndex(volume float64, cyclomatic int, sloc int) float64 {
	if volume <= 0 {
		volume = 1
	}
	if sloc <= 0 {
		sloc = 1
	}
	raw := 171.0 - 5.2*math.Log(volume) - 0.23*float64(cyclomatic) - 16.2*math.Log(float64(sloc))
	scaled := raw * 100.0 / 171.0
	if scaled < 0 {
		scaled = 0
	}
	if scaled > 100 {
		scaled = 100
	}
	return scaled
}
