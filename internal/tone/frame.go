package tone

// Frame layout for the tone microcontroller:
//
//	[SOF0][SOF1][LEN][CMD][pin][hzHi][hzLo][CKS]
//
// LEN counts CMD plus payload, CKS is the XOR of LEN, CMD and the payload.
const (
	SOF0          = 0xAA
	SOF1          = 0x55
	CmdCreateTone = 0x20
	CmdSetTone    = 0x21
)

// Frame is one command to the tone controller.
type Frame struct {
	Cmd byte
	Pin byte
	Hz  uint16
}

// Encode builds the on-wire representation.
func (f *Frame) Encode() []byte {
	payload := []byte{f.Pin, byte(f.Hz >> 8), byte(f.Hz)}

	length := byte(len(payload) + 1)
	cks := length ^ f.Cmd
	for _, b := range payload {
		cks ^= b
	}

	out := []byte{SOF0, SOF1, length, f.Cmd}
	out = append(out, payload...)
	out = append(out, cks)
	return out
}
