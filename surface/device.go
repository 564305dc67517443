package surface

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
)

// AdapterInfo describes the GPU adapter a device was created on.
type AdapterInfo struct {
	// Name is the GPU name (e.g. "NVIDIA GeForce RTX 3080").
	Name string
	// Vendor is the GPU vendor.
	Vendor string
	// DeviceType is the kind of GPU (discrete, integrated, etc.).
	DeviceType gputypes.DeviceType
	// Backend is the graphics API in use (Vulkan, Metal, DX12).
	Backend gputypes.Backend
	// Driver is the driver version string.
	Driver string
}

// String returns a human-readable description of the adapter.
func (i *AdapterInfo) String() string {
	return fmt.Sprintf("%s (%s, %s)", i.Name, i.DeviceType, i.Backend)
}

// Device owns a self-created wgpu instance, adapter, device and queue.
// The GPU platform brings one up when the host application does not
// share its own device through a gpucontext provider.
type Device struct {
	instance *core.Instance
	adapter  core.AdapterID
	device   core.DeviceID
	queue    core.QueueID
	info     *AdapterInfo
}

// OpenDevice creates a wgpu device on the best available adapter.
func OpenDevice(label string, log *slog.Logger) (*Device, error) {
	instance := core.NewInstance(&gputypes.InstanceDescriptor{
		Backends: gputypes.BackendsPrimary,
	})

	adapterID, err := instance.RequestAdapter(&gputypes.RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("surface: no GPU adapter: %w", err)
	}

	info := adapterInfo(adapterID)
	if info != nil && log != nil {
		log.Info("GPU adapter selected", "adapter", info.String(), "driver", info.Driver)
	}

	deviceID, err := core.RequestDevice(adapterID, &gputypes.DeviceDescriptor{
		Label:            label,
		RequiredFeatures: nil,
		RequiredLimits:   gputypes.DefaultLimits(),
	})
	if err != nil {
		_ = core.AdapterDrop(adapterID)
		return nil, fmt.Errorf("surface: device creation failed: %w", err)
	}

	queueID, err := core.GetDeviceQueue(deviceID)
	if err != nil {
		_ = core.DeviceDrop(deviceID)
		_ = core.AdapterDrop(adapterID)
		return nil, fmt.Errorf("surface: queue retrieval failed: %w", err)
	}

	return &Device{
		instance: instance,
		adapter:  adapterID,
		device:   deviceID,
		queue:    queueID,
		info:     info,
	}, nil
}

// Info returns the adapter description, or nil if unavailable.
func (d *Device) Info() *AdapterInfo {
	return d.info
}

// Close releases the device and adapter. Close is idempotent.
func (d *Device) Close() error {
	var firstErr error
	if !d.device.IsZero() {
		if err := core.DeviceDrop(d.device); err != nil {
			firstErr = fmt.Errorf("surface: releasing device: %w", err)
		}
		d.device = core.DeviceID{}
	}
	if !d.adapter.IsZero() {
		if err := core.AdapterDrop(d.adapter); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("surface: releasing adapter: %w", err)
		}
		d.adapter = core.AdapterID{}
	}
	d.instance = nil
	return firstErr
}

// adapterInfo fetches adapter details, returning nil on failure.
func adapterInfo(adapterID core.AdapterID) *AdapterInfo {
	info, err := core.GetAdapterInfo(adapterID)
	if err != nil {
		return nil
	}
	return &AdapterInfo{
		Name:       info.Name,
		Vendor:     info.Vendor,
		DeviceType: info.DeviceType,
		Backend:    info.Backend,
		Driver:     info.Driver,
	}
}
