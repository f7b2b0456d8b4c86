package sensor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wear_relay/internal/logger"

	"tinygo.org/x/bluetooth"
)

const defaultScanTimeout = 30 * time.Second

// BLESource reads a Bluetooth heart-rate strap.
type BLESource struct {
	adapter     *bluetooth.Adapter
	address     string // empty: first strap advertising the heart-rate service
	scanTimeout time.Duration
	log         *logger.Logger
}

func NewBLESource(address string, scanTimeout time.Duration, log *logger.Logger) *BLESource {
	if scanTimeout <= 0 {
		scanTimeout = defaultScanTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &BLESource{
		adapter:     bluetooth.DefaultAdapter,
		address:     strings.ToUpper(strings.TrimSpace(address)),
		scanTimeout: scanTimeout,
		log:         log,
	}
}

// Run connects, subscribes to measurements and emits them until ctx is done.
// The strap decides the notification rate; period is ignored.
func (s *BLESource) Run(ctx context.Context, _ time.Duration, emit func(bpm float32)) error {
	if err := s.adapter.Enable(); err != nil {
		return fmt.Errorf("enable BLE stack: %w", err)
	}

	result, err := s.scan(ctx)
	if err != nil {
		return err
	}

	dev, err := s.adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return fmt.Errorf("connect %s: %w", result.Address.String(), err)
	}
	defer func() { _ = dev.Disconnect() }()

	services, err := dev.DiscoverServices([]bluetooth.UUID{bluetooth.ServiceUUIDHeartRate})
	if err != nil {
		return fmt.Errorf("discover services: %w", err)
	}
	if len(services) == 0 {
		return errors.New("heart rate service not found")
	}
	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{bluetooth.CharacteristicUUIDHeartRateMeasurement})
	if err != nil {
		return fmt.Errorf("discover characteristics: %w", err)
	}
	if len(chars) == 0 {
		return errors.New("heart rate measurement characteristic not found")
	}

	err = chars[0].EnableNotifications(func(buf []byte) {
		bpm, err := ParseHeartRateMeasurement(buf)
		if err != nil {
			s.log.Debugw("ble_bad_measurement", "err", err, "len", len(buf))
			return
		}
		emit(float32(bpm))
	})
	if err != nil {
		return fmt.Errorf("enable notifications: %w", err)
	}
	s.log.Infow("ble_strap_connected", "address", result.Address.String(), "name", result.LocalName())

	<-ctx.Done()
	_ = chars[0].EnableNotifications(nil)
	return ctx.Err()
}

func (s *BLESource) scan(ctx context.Context) (bluetooth.ScanResult, error) {
	found := make(chan bluetooth.ScanResult, 1)
	scanErr := make(chan error, 1)
	go func() {
		scanErr <- s.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if !s.matches(result) {
				return
			}
			select {
			case found <- result:
			default:
			}
			_ = adapter.StopScan()
		})
	}()

	timer := time.NewTimer(s.scanTimeout)
	defer timer.Stop()

	select {
	case r := <-found:
		return r, nil
	case err := <-scanErr:
		if err == nil {
			err = errors.New("scan stopped before a strap was found")
		}
		return bluetooth.ScanResult{}, fmt.Errorf("scan: %w", err)
	case <-timer.C:
		_ = s.adapter.StopScan()
		return bluetooth.ScanResult{}, errors.New("timeout while scanning for heart rate strap")
	case <-ctx.Done():
		_ = s.adapter.StopScan()
		return bluetooth.ScanResult{}, ctx.Err()
	}
}

func (s *BLESource) matches(result bluetooth.ScanResult) bool {
	if s.address != "" {
		return strings.ToUpper(result.Address.String()) == s.address
	}
	return result.HasServiceUUID(bluetooth.ServiceUUIDHeartRate)
}
