package adapter

import (
	"context"
	"errors"
	"testing"

	"homeline/internal/device"
)

func intPtr(i int) *int { return &i }

func gpioLED(pin int) *device.Device {
	return &device.Device{
		ID:      1,
		Name:    "Hallway LED",
		Kind:    device.KindGPIO,
		Subtype: device.SubtypeLED,
		Pin:     intPtr(pin),
	}
}

func TestGPIOOnOff(t *testing.T) {
	driver := NewMemoryPinDriver()
	a := NewGPIOAdapter(driver)
	ctx := context.Background()
	led := gpioLED(17)

	result, err := a.On(ctx, led)
	if err != nil {
		t.Fatalf("On() error = %v", err)
	}
	if result.State != device.StateOn {
		t.Errorf("On() state = %q, want on", result.State)
	}
	if level, _ := driver.Level(17); !level {
		t.Error("pin 17 level = low after On()")
	}

	result, err = a.Off(ctx, led)
	if err != nil {
		t.Fatalf("Off() error = %v", err)
	}
	if result.State != device.StateOff {
		t.Errorf("Off() state = %q, want off", result.State)
	}
	if level, _ := driver.Level(17); level {
		t.Error("pin 17 level = high after Off()")
	}
}

func TestGPIOToggleIdempotentPair(t *testing.T) {
	driver := NewMemoryPinDriver()
	a := NewGPIOAdapter(driver)
	ctx := context.Background()
	led := gpioLED(17)

	first, err := a.Toggle(ctx, led)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if first.State != device.StateOn {
		t.Errorf("first Toggle() state = %q, want on (pins start low)", first.State)
	}

	second, err := a.Toggle(ctx, led)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if second.State != device.StateOff {
		t.Errorf("second Toggle() state = %q, want off", second.State)
	}

	if level, _ := driver.Level(17); level {
		t.Error("pin level changed after a toggle pair")
	}
}

func TestGPIOToggleUsesPinTruth(t *testing.T) {
	driver := NewMemoryPinDriver()
	a := NewGPIOAdapter(driver)
	ctx := context.Background()

	led := gpioLED(17)
	led.State = device.StateOff // stored state says off
	driver.Write(17, true)      // but the pin is actually high

	result, err := a.Toggle(ctx, led)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if result.State != device.StateOff {
		t.Errorf("Toggle() state = %q, want off (pin was high)", result.State)
	}
}

func TestGPIOCommandOnSensor(t *testing.T) {
	a := NewGPIOAdapter(NewMemoryPinDriver())
	motion := &device.Device{
		ID:      2,
		Kind:    device.KindGPIO,
		Subtype: device.SubtypeMotionSensor,
		Pin:     intPtr(4),
	}

	_, err := a.On(context.Background(), motion)
	if !errors.Is(err, ErrUnsupportedAction) {
		t.Errorf("On(sensor) error = %v, want ErrUnsupportedAction", err)
	}
}

func TestGPIOReadInputs(t *testing.T) {
	driver := NewMemoryPinDriver()
	a := NewGPIOAdapter(driver)
	ctx := context.Background()

	motion := &device.Device{
		ID:      2,
		Kind:    device.KindGPIO,
		Subtype: device.SubtypeMotionSensor,
		Pin:     intPtr(4),
	}

	reading, err := a.Read(ctx, motion)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got := reading["motion"]; got != false {
		t.Errorf("motion reading = %v, want false", got)
	}

	driver.SetInput(4, true)
	reading, err = a.Read(ctx, motion)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got := reading["motion"]; got != true {
		t.Errorf("motion reading = %v, want true", got)
	}

	button := &device.Device{
		ID:      3,
		Kind:    device.KindGPIO,
		Subtype: device.SubtypeButton,
		Pin:     intPtr(5),
	}
	reading, err = a.Read(ctx, button)
	if err != nil {
		t.Fatalf("Read(button) error = %v", err)
	}
	if _, ok := reading["pressed"]; !ok {
		t.Error("button reading missing 'pressed' key")
	}
}

func TestGPIOReadTemperatureSimulated(t *testing.T) {
	a := NewGPIOAdapter(NewMemoryPinDriver())
	sensor := &device.Device{
		ID:      4,
		Kind:    device.KindGPIO,
		Subtype: device.SubtypeTemperatureSensor,
		Pin:     intPtr(6),
	}

	reading, err := a.Read(context.Background(), sensor)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	temp, ok := reading["temperature"].(float64)
	if !ok {
		t.Fatalf("temperature reading = %v, want float64", reading["temperature"])
	}
	if temp < simTempBase || temp > simTempBase+simTempSpan {
		t.Errorf("temperature = %f, want within [%f, %f]", temp, simTempBase, simTempBase+simTempSpan)
	}

	humid, ok := reading["humidity"].(float64)
	if !ok {
		t.Fatalf("humidity reading = %v, want float64", reading["humidity"])
	}
	if humid < simHumidBase || humid > simHumidBase+simHumidSpan {
		t.Errorf("humidity = %f, want within [%f, %f]", humid, simHumidBase, simHumidBase+simHumidSpan)
	}
}

func TestGPIOReadOutputRejected(t *testing.T) {
	a := NewGPIOAdapter(NewMemoryPinDriver())

	_, err := a.Read(context.Background(), gpioLED(17))
	if !errors.Is(err, ErrUnsupportedAction) {
		t.Errorf("Read(output) error = %v, want ErrUnsupportedAction", err)
	}
}
