package texture

import "fmt"

// Format is the GPU format of a texture.
type Format struct {
	// Code is the compression code stored in DATATFMT.
	Code uint32
	// DXGI is the DXGI_FORMAT value.
	DXGI uint32
	// Ratio converts texel counts to row pitch in bytes.
	Ratio uint32
}

// DXGI_FORMAT values of the formats used by textures.
const (
	DXGIR32G32B32A32Float uint32 = 2
	DXGIBC1Unorm          uint32 = 71
	DXGIBC1UnormSRGB      uint32 = 72
	DXGIBC2Unorm          uint32 = 74
	DXGIBC2UnormSRGB      uint32 = 75
	DXGIBC3Unorm          uint32 = 77
	DXGIBC3UnormSRGB      uint32 = 78
)

// customFormatTag marks compression codes that carry a DXGI format in the
// low byte and the pitch ratio in the next.
const customFormatTag = 0xC600

var knownFormats = map[uint32]uint32{
	13: DXGIBC1UnormSRGB,
	14: DXGIBC2UnormSRGB,
	15: DXGIBC3UnormSRGB,
	22: DXGIBC1Unorm,
	23: DXGIBC2Unorm,
	24: DXGIBC3Unorm,
}

var dxgiNames = map[uint32]string{
	DXGIR32G32B32A32Float: "R32G32B32A32_FLOAT",
	DXGIBC1Unorm:          "BC1_UNORM",
	DXGIBC1UnormSRGB:      "BC1_UNORM_SRGB",
	DXGIBC2Unorm:          "BC2_UNORM",
	DXGIBC2UnormSRGB:      "BC2_UNORM_SRGB",
	DXGIBC3Unorm:          "BC3_UNORM",
	DXGIBC3UnormSRGB:      "BC3_UNORM_SRGB",
}

// ParseFormat maps a DATATFMT compression code to a format.
func ParseFormat(code uint32) (Format, error) {
	if dxgi, ok := knownFormats[code]; ok {
		return Format{Code: code, DXGI: dxgi, Ratio: 4}, nil
	}
	if code>>16 == customFormatTag {
		return Format{Code: code, DXGI: code & 0xFF, Ratio: (code >> 8) & 0xFF}, nil
	}
	return Format{}, fmt.Errorf("%w: code %d", ErrUnknownFormat, code)
}

func (f Format) String() string {
	if n, ok := dxgiNames[f.DXGI]; ok {
		return n
	}
	return fmt.Sprintf("DXGI_FORMAT(%d)", f.DXGI)
}
