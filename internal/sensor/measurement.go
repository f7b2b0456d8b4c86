package sensor

import "errors"

var errShortMeasurement = errors.New("heart rate measurement too short")

// flag bit 0: heart-rate value is uint16
const hrFormatUint16 = 0x01

// ParseHeartRateMeasurement decodes a Heart Rate Measurement (0x2A37) value.
func ParseHeartRateMeasurement(buf []byte) (uint16, error) {
	if len(buf) < 2 {
		return 0, errShortMeasurement
	}
	if buf[0]&hrFormatUint16 == 0 {
		return uint16(buf[1]), nil
	}
	if len(buf) < 3 {
		return 0, errShortMeasurement
	}
	return uint16(buf[1]) | uint16(buf[2])<<8, nil
}
