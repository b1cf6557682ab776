// Package vulkan implements the gpu device abstraction on top of the Vulkan
// API. The device is headless and only exposes a transfer capable queue.
package vulkan

import (
	"errors"
	"fmt"
	"sync"

	vk "github.com/goki/vulkan"

	"github.com/PrimozLavric/LogiPathTracer/gpu"
	"github.com/PrimozLavric/LogiPathTracer/log"
)

var (
	ErrNoDevices     = errors.New("vulkan: no physical devices found")
	ErrNoQueueFamily = errors.New("vulkan: no queue family with transfer support")
)

var (
	loaderOnce sync.Once
	loaderErr  error
)

// loadLibrary resolves the Vulkan loader entry points. It runs once per process.
func loadLibrary() error {
	loaderOnce.Do(func() {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			loaderErr = fmt.Errorf("vulkan: locating loader: %w", err)
			return
		}
		if err := vk.Init(); err != nil {
			loaderErr = fmt.Errorf("vulkan: initializing loader: %w", err)
		}
	})
	return loaderErr
}

func newInstance() (vk.Instance, error) {
	if err := loadLibrary(); err != nil {
		return nil, err
	}

	var inst vk.Instance
	err := vk.Error(vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         vk.MakeVersion(1, 1, 0),
			ApplicationVersion: vk.MakeVersion(1, 0, 0),
			PApplicationName:   "LogiPathTracer\x00",
			PEngineName:        "LogiPathTracer\x00",
		},
	}, nil, &inst))
	if err != nil {
		return nil, fmt.Errorf("vulkan: creating instance: %w", err)
	}
	if err := vk.InitInstance(inst); err != nil {
		vk.DestroyInstance(inst, nil)
		return nil, fmt.Errorf("vulkan: loading instance functions: %w", err)
	}
	return inst, nil
}

func physicalDevices(inst vk.Instance) ([]vk.PhysicalDevice, error) {
	var count uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(inst, &count, nil)); err != nil {
		return nil, fmt.Errorf("vulkan: enumerating devices: %w", err)
	}
	if count == 0 {
		return nil, ErrNoDevices
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := vk.Error(vk.EnumeratePhysicalDevices(inst, &count, devices)); err != nil {
		return nil, fmt.Errorf("vulkan: enumerating devices: %w", err)
	}
	return devices[:count], nil
}

// PhysicalDevice describes a device reported by the loader.
type PhysicalDevice struct {
	Index      int
	Name       string
	Type       string
	APIVersion string
	Driver     uint32

	// Heap sizes in bytes; DeviceLocal lists the heaps with the device-local flag.
	Heaps       []uint64
	DeviceLocal []bool
}

// Devices lists the physical devices visible to the loader.
func Devices() ([]PhysicalDevice, error) {
	inst, err := newInstance()
	if err != nil {
		return nil, err
	}
	defer vk.DestroyInstance(inst, nil)

	pds, err := physicalDevices(inst)
	if err != nil {
		return nil, err
	}

	out := make([]PhysicalDevice, 0, len(pds))
	for i, pd := range pds {
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(pd, &props)
		props.Deref()

		var mem vk.PhysicalDeviceMemoryProperties
		vk.GetPhysicalDeviceMemoryProperties(pd, &mem)
		mem.Deref()

		info := PhysicalDevice{
			Index:      i,
			Name:       vk.ToString(props.DeviceName[:]),
			Type:       deviceTypeName(props.DeviceType),
			APIVersion: vk.Version(props.ApiVersion).String(),
			Driver:     props.DriverVersion,
		}
		for h := uint32(0); h < mem.MemoryHeapCount; h++ {
			heap := mem.MemoryHeaps[h]
			heap.Deref()
			info.Heaps = append(info.Heaps, uint64(heap.Size))
			info.DeviceLocal = append(info.DeviceLocal, heap.Flags&vk.MemoryHeapFlags(vk.MemoryHeapDeviceLocalBit) != 0)
		}
		out = append(out, info)
	}
	return out, nil
}

func deviceTypeName(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	}
	return "other"
}

// Device is an opened logical device. It implements gpu.Allocator,
// gpu.CommandPool and gpu.Queue.
type Device struct {
	logger log.Logger

	name     string
	instance vk.Instance
	physical vk.PhysicalDevice
	device   vk.Device
	memProps vk.PhysicalDeviceMemoryProperties

	queueFamily uint32
	queue       vk.Queue
	pool        vk.CommandPool

	// Guards queue submission and command buffer allocation.
	mu sync.Mutex
}

var (
	_ gpu.Allocator   = (*Device)(nil)
	_ gpu.CommandPool = (*Device)(nil)
	_ gpu.Queue       = (*Device)(nil)
)

// Open creates a logical device on the physical device with the given index.
func Open(index int) (*Device, error) {
	inst, err := newInstance()
	if err != nil {
		return nil, err
	}

	d := &Device{
		logger:   log.New("vulkan"),
		instance: inst,
	}
	if err = d.init(index); err != nil {
		d.destroy()
		return nil, err
	}

	d.logger.Noticef("opened device %d (%s), queue family %d", index, d.name, d.queueFamily)
	return d, nil
}

func (d *Device) init(index int) error {
	pds, err := physicalDevices(d.instance)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(pds) {
		return fmt.Errorf("vulkan: device index %d out of range [0, %d)", index, len(pds))
	}
	d.physical = pds[index]

	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(d.physical, &props)
	props.Deref()
	d.name = vk.ToString(props.DeviceName[:])

	vk.GetPhysicalDeviceMemoryProperties(d.physical, &d.memProps)
	d.memProps.Deref()

	if d.queueFamily, err = findTransferQueue(d.physical); err != nil {
		return err
	}

	err = vk.Error(vk.CreateDevice(d.physical, &vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos: []vk.DeviceQueueCreateInfo{{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: d.queueFamily,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}},
	}, nil, &d.device))
	if err != nil {
		return fmt.Errorf("vulkan: creating device %q: %w", d.name, err)
	}

	var queue vk.Queue
	vk.GetDeviceQueue(d.device, d.queueFamily, 0, &queue)
	d.queue = queue

	var pool vk.CommandPool
	err = vk.Error(vk.CreateCommandPool(d.device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: d.queueFamily,
	}, nil, &pool))
	if err != nil {
		return fmt.Errorf("vulkan: creating command pool: %w", err)
	}
	d.pool = pool
	return nil
}

// findTransferQueue returns the first queue family that supports transfers.
// Graphics and compute families support transfers implicitly.
func findTransferQueue(pd vk.PhysicalDevice) (uint32, error) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, families)

	want := vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit | vk.QueueTransferBit)
	for i := uint32(0); i < count; i++ {
		families[i].Deref()
		if families[i].QueueCount > 0 && families[i].QueueFlags&want != 0 {
			return i, nil
		}
	}
	return 0, ErrNoQueueFamily
}

// Name returns the physical device name.
func (d *Device) Name() string {
	return d.name
}

// Close waits for outstanding work and releases the device.
func (d *Device) Close() error {
	var err error
	if d.device != nil {
		err = vk.Error(vk.DeviceWaitIdle(d.device))
	}
	d.destroy()
	if err != nil {
		return fmt.Errorf("vulkan: closing device %q: %w", d.name, err)
	}
	return nil
}

func (d *Device) destroy() {
	if d.pool != vk.NullCommandPool {
		vk.DestroyCommandPool(d.device, d.pool, nil)
		d.pool = vk.NullCommandPool
	}
	if d.device != nil {
		vk.DestroyDevice(d.device, nil)
		d.device = nil
	}
	if d.instance != nil {
		vk.DestroyInstance(d.instance, nil)
		d.instance = nil
	}
}

// findMemoryType returns the first memory type allowed by typeBits that has
// all the requested property flags.
func (d *Device) findMemoryType(typeBits uint32, flags vk.MemoryPropertyFlagBits) (uint32, bool) {
	want := vk.MemoryPropertyFlags(flags)
	for i := uint32(0); i < d.memProps.MemoryTypeCount && i < vk.MaxMemoryTypes; i++ {
		if typeBits&(1<<i) == 0 {
			continue
		}
		memType := d.memProps.MemoryTypes[i]
		memType.Deref()
		if memType.PropertyFlags&want == want {
			return i, true
		}
	}
	return 0, false
}

func (d *Device) allocate(req vk.MemoryRequirements, location gpu.MemoryLocation) (vk.DeviceMemory, error) {
	typeIndex, ok := d.findMemoryType(req.MemoryTypeBits, memoryProperties(location))
	if !ok {
		return vk.NullDeviceMemory, fmt.Errorf("vulkan: no %s memory type in mask %#x: %w", location, req.MemoryTypeBits, gpu.ErrOutOfDeviceMemory)
	}

	var mem vk.DeviceMemory
	res := vk.AllocateMemory(d.device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: typeIndex,
	}, nil, &mem)
	switch res {
	case vk.Success:
		return mem, nil
	case vk.ErrorOutOfDeviceMemory, vk.ErrorOutOfHostMemory:
		return vk.NullDeviceMemory, fmt.Errorf("vulkan: allocating %d bytes of %s memory: %w", req.Size, location, gpu.ErrOutOfDeviceMemory)
	}
	return vk.NullDeviceMemory, fmt.Errorf("vulkan: allocating %d bytes: %w", req.Size, vk.Error(res))
}

// AllocateCommandBuffer allocates a primary command buffer from the device pool.
func (d *Device) AllocateCommandBuffer() (gpu.CommandBuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	bufs := make([]vk.CommandBuffer, 1)
	err := vk.Error(vk.AllocateCommandBuffers(d.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, bufs))
	if err != nil {
		return nil, fmt.Errorf("vulkan: allocating command buffer: %w", err)
	}
	return &CommandBuffer{dev: d, handle: bufs[0]}, nil
}

// Submit hands an executable command buffer to the queue without a fence.
func (d *Device) Submit(cmd gpu.CommandBuffer) error {
	cb, ok := cmd.(*CommandBuffer)
	if !ok || cb.handle == nil {
		return fmt.Errorf("vulkan: submit: %w", gpu.ErrInvalidHandle)
	}
	if !cb.executable {
		return fmt.Errorf("vulkan: submit: %w", gpu.ErrNotExecutable)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	err := vk.Error(vk.QueueSubmit(d.queue, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb.handle},
	}}, vk.NullFence))
	if err != nil {
		return fmt.Errorf("vulkan: queue submit: %w", err)
	}
	return nil
}

// WaitIdle blocks until the queue has drained.
func (d *Device) WaitIdle() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := vk.Error(vk.QueueWaitIdle(d.queue)); err != nil {
		return fmt.Errorf("vulkan: queue wait idle: %w", err)
	}
	return nil
}
