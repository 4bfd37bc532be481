package protocol

import "time"

// StartOfFrame is the two byte marker preceding every frame.
var StartOfFrame = [2]byte{0x42, 0x4D}

const (
	// DefaultResponseDeadline bounds how long WaitForMarker scans for a marker.
	DefaultResponseDeadline = 10 * time.Second

	// idleReadLimit empty reads in a row make WaitForMarker pause idlePause
	// between further reads.
	idleReadLimit = 8
	idlePause     = time.Millisecond

	lengthFieldSize   = 2
	checksumFieldSize = 2
	// MeasurementFields is the number of u16 fields a Measurement is built from.
	MeasurementFields = 12
)

// Frame is one length-delimited message: the 2-byte length field followed by
// length bytes (fields then checksum). The start marker is not included.
type Frame []byte

// Length returns the declared length field.
func (f Frame) Length() uint16 {
	if len(f) < lengthFieldSize {
		return 0
	}
	return uint16(f[0])<<8 | uint16(f[1])
}

// ParticulateMatter is one set of mass concentrations in ug/m3.
type ParticulateMatter struct {
	PM1  uint16 `json:"pm1"`
	PM25 uint16 `json:"pm25"`
	PM10 uint16 `json:"pm10"`
}

// ParticleCounts are particles beyond each diameter per 0.1L of air.
type ParticleCounts struct {
	Gt03um  uint16 `json:"gt_0_3um"`
	Gt05um  uint16 `json:"gt_0_5um"`
	Gt10um  uint16 `json:"gt_1_0um"`
	Gt25um  uint16 `json:"gt_2_5um"`
	Gt50um  uint16 `json:"gt_5_0um"`
	Gt100um uint16 `json:"gt_10um"`
}

// Measurement is one decoded, checksum-verified sensor frame.
type Measurement struct {
	Standard    ParticulateMatter `json:"pm_standard"`
	Atmospheric ParticulateMatter `json:"pm_atmospheric"`
	Particles   ParticleCounts    `json:"particles"`
}
