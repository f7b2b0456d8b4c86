package platform

// Sensor types.
const (
	SensorTypeAccelerometer = 1
	SensorTypeHeartRate     = 21
)

// Sensor sampling delays.
const (
	SensorDelayFastest = 0
	SensorDelayGame    = 1
	SensorDelayUI      = 2
	SensorDelayNormal  = 3
)

// Sensor identifies a hardware sensor.
type Sensor struct {
	Type int
	Name string
}

// SensorEvent carries one reading. Values are sensor specific;
// heart-rate events carry the bpm in Values[0].
type SensorEvent struct {
	Sensor   Sensor
	Accuracy int
	Values   []float32
}

// SensorEventListener receives readings from registered sensors.
type SensorEventListener interface {
	OnSensorChanged(ev SensorEvent)
	OnAccuracyChanged(s Sensor, accuracy int)
	OnFlushCompleted(s Sensor)
}

// SensorManager hands out sensors and manages listener registrations.
type SensorManager interface {
	DefaultSensor(sensorType int) (Sensor, bool)
	RegisterListener(l SensorEventListener, s Sensor, delay int) bool
	UnregisterListener(l SensorEventListener)
}
