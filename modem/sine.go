package modem

import "math"

// sinTable holds the first quarter-wave (0..SinLen/4) of a full sine cycle
// scaled to an unsigned 8-bit DAC sample centered at 128. The remaining
// three quadrants are reconstructed by reflection in SinSample. Values are
// fixed and must match the published BeRTOS afsk.c table bit-for-bit.
var sinTable = [SinLen / 4]byte{
	128, 129, 131, 132, 134, 135, 137, 138, 140, 142, 143, 145, 146, 148, 149, 151,
	152, 154, 155, 157, 158, 160, 162, 163, 165, 166, 167, 169, 170, 172, 173, 175,
	176, 178, 179, 181, 182, 183, 185, 186, 188, 189, 190, 192, 193, 194, 196, 197,
	198, 200, 201, 202, 203, 205, 206, 207, 208, 210, 211, 212, 213, 214, 215, 217,
	218, 219, 220, 221, 222, 223, 224, 225, 226, 227, 228, 229, 230, 231, 232, 233,
	234, 234, 235, 236, 237, 238, 238, 239, 240, 241, 241, 242, 243, 243, 244, 245,
	245, 246, 246, 247, 248, 248, 249, 249, 250, 250, 250, 251, 251, 252, 252, 252,
	253, 253, 253, 253, 254, 254, 254, 254, 254, 255, 255, 255, 255, 255, 255, 255,
}

// SinSample returns the unsigned 8-bit sample of a full sinusoid at phase
// index idx of SinLen, computed from the single stored quadrant by folding
// and mirroring. idx must be in [0, SinLen).
func SinSample(idx uint16) byte {
	newIdx := idx % (SinLen / 2)
	if newIdx >= SinLen/4 {
		newIdx = SinLen/2 - newIdx - 1
	}
	if idx >= SinLen/2 {
		return 255 - sinTable[newIdx]
	}
	return sinTable[newIdx]
}

// toneInc computes round(SinLen * freq / sampleRate) as the 16-bit DDS
// phase increment for a tone of the given frequency at the given DAC
// sample rate.
func toneInc(freq, sampleRate int) uint16 {
	return uint16(math.Round(float64(SinLen) * float64(freq) / float64(sampleRate)))
}

// ToneIncrement exports toneInc for callers outside this package that need
// to drive the DDS directly, such as afsktone's calibration tone burst.
func ToneIncrement(freq, sampleRate int) uint16 {
	return toneInc(freq, sampleRate)
}
