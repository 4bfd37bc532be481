package protocol

import "encoding/binary"

// Parse decodes the field words of a verified frame. Words past the twelfth
// are ignored.
func Parse(f Frame) (Measurement, error) {
	if len(f) < lengthFieldSize+checksumFieldSize {
		return Measurement{}, malformedPayload(MeasurementFields*2, 0)
	}
	payload := f[lengthFieldSize : len(f)-checksumFieldSize]
	if len(payload)%2 != 0 {
		return Measurement{}, malformedPayload(len(payload)+1, len(payload))
	}
	if len(payload) < MeasurementFields*2 {
		return Measurement{}, malformedPayload(MeasurementFields*2, len(payload))
	}

	words := make([]uint16, len(payload)/2)
	for i := range words {
		words[i] = binary.BigEndian.Uint16(payload[i*2 : i*2+2])
	}
	return Measurement{
		Standard: ParticulateMatter{
			PM1:  words[0],
			PM25: words[1],
			PM10: words[2],
		},
		Atmospheric: ParticulateMatter{
			PM1:  words[3],
			PM25: words[4],
			PM10: words[5],
		},
		Particles: ParticleCounts{
			Gt03um:  words[6],
			Gt05um:  words[7],
			Gt10um:  words[8],
			Gt25um:  words[9],
			Gt50um:  words[10],
			Gt100um: words[11],
		},
	}, nil
}

func (m Measurement) words() []uint16 {
	return []uint16{
		m.Standard.PM1, m.Standard.PM25, m.Standard.PM10,
		m.Atmospheric.PM1, m.Atmospheric.PM25, m.Atmospheric.PM10,
		m.Particles.Gt03um, m.Particles.Gt05um, m.Particles.Gt10um,
		m.Particles.Gt25um, m.Particles.Gt50um, m.Particles.Gt100um,
	}
}
