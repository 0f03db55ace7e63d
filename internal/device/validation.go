package device

import (
	"fmt"
	"net"
	"strings"
)

// Validation limits.
const (
	maxNameLength = 128

	// BCM pin numbering on the Raspberry Pi header.
	minGPIOPin = 0
	maxGPIOPin = 27
)

// Validate checks a device for structural correctness before it is
// persisted. Exactly one address field must be populated, and it must be
// the one the kind requires.
func Validate(d *Device) error {
	if d == nil {
		return fmt.Errorf("%w: device is nil", ErrInvalidDevice)
	}

	if err := validateName(d.Name); err != nil {
		return err
	}

	if !d.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, d.Kind)
	}

	if !d.Subtype.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSubtype, d.Subtype)
	}

	return validateAddress(d)
}

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(trimmed) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// validateAddress enforces the kind/address pairing. A gpio device with a
// host, or a wifi device with a pin, is a provisioning mistake that would
// otherwise surface as a confusing runtime failure.
func validateAddress(d *Device) error {
	switch d.Kind {
	case KindGPIO:
		if d.Pin == nil {
			return fmt.Errorf("%w: gpio device requires a pin", ErrInvalidAddress)
		}
		if *d.Pin < minGPIOPin || *d.Pin > maxGPIOPin {
			return fmt.Errorf("%w: pin %d outside BCM range %d-%d", ErrInvalidAddress, *d.Pin, minGPIOPin, maxGPIOPin)
		}
		if d.Topic != "" || d.Host != "" {
			return fmt.Errorf("%w: gpio device must not set topic or host", ErrInvalidAddress)
		}

	case KindZigbee:
		if strings.TrimSpace(d.Topic) == "" {
			return fmt.Errorf("%w: zigbee device requires a bridge topic", ErrInvalidAddress)
		}
		if strings.HasPrefix(d.Topic, "/") || strings.HasSuffix(d.Topic, "/") {
			return fmt.Errorf("%w: topic must not have leading or trailing slash", ErrInvalidAddress)
		}
		if strings.ContainsAny(d.Topic, "#+") {
			return fmt.Errorf("%w: topic must not contain wildcards", ErrInvalidAddress)
		}
		if d.Pin != nil || d.Host != "" {
			return fmt.Errorf("%w: zigbee device must not set pin or host", ErrInvalidAddress)
		}

	case KindWiFi:
		if err := validateHost(d.Host); err != nil {
			return err
		}
		if d.Pin != nil || d.Topic != "" {
			return fmt.Errorf("%w: wifi device must not set pin or topic", ErrInvalidAddress)
		}

	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, d.Kind)
	}

	return nil
}

func validateHost(host string) error {
	if strings.TrimSpace(host) == "" {
		return fmt.Errorf("%w: wifi device requires a host", ErrInvalidAddress)
	}
	if strings.Contains(host, "/") || strings.Contains(host, " ") {
		return fmt.Errorf("%w: host %q contains invalid characters", ErrInvalidAddress, host)
	}
	// Accept either an IP literal or a plausible hostname.
	if ip := net.ParseIP(host); ip != nil {
		return nil
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" {
			return fmt.Errorf("%w: host %q has an empty label", ErrInvalidAddress, host)
		}
	}
	return nil
}
