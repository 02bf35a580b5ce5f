package whisper

// intToFloat32 converts integer PCM samples of the given bit depth to
// float32 samples normalised to the range [-1.0, 1.0], the input format
// whisper.cpp expects. Unknown bit depths fall back to 16-bit scaling.
func intToFloat32(samples []int, bitDepth int) []float32 {
	var scale float32
	switch bitDepth {
	case 8:
		scale = 1 << 7
	case 24:
		scale = 1 << 23
	case 32:
		scale = 1 << 31
	default:
		scale = 1 << 15
	}

	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / scale
	}
	return out
}
