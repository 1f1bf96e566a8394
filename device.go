package plate

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

var deviceExtensions = []string{khr_swapchain.ExtensionName}

// DeviceOptions customizes device selection and creation. The zero value
// requests no optional features and prefers a discrete GPU.
type DeviceOptions struct {
	Instance InstanceOptions

	// PreferredType breaks ties between otherwise suitable devices.
	// Defaults to the discrete GPU type.
	PreferredType core1_0.PhysicalDeviceType

	// Features lists the device features the application requires.
	// Devices missing any of them are skipped, and the selected device
	// is created with exactly these features enabled.
	Features core1_0.PhysicalDeviceFeatures

	// Extra device extensions beyond the swapchain extension.
	ExtraExtensions []string
}

// Device owns the Vulkan instance, the surface, the logical device and
// its queues. Every resource created from it keeps it alive: the native
// device is destroyed only after Destroy has been called and the last
// resource is gone.
type Device struct {
	globalDriver   core1_0.GlobalDriver
	instanceDriver core1_0.CoreInstanceDriver
	driver         core1_0.CoreDeviceDriver

	debugDriver    ext_debug_utils.ExtensionDriver
	debugMessenger ext_debug_utils.DebugUtilsMessenger

	surfaceDriver khr_surface.ExtensionDriver
	surface       khr_surface.Surface

	physicalDevice core1_0.PhysicalDevice
	limits         core1_0.PhysicalDeviceLimits
	memoryTypes    []core1_0.MemoryType

	graphicsFamily int
	presentFamily  int
	graphicsQueue  core1_0.Queue
	presentQueue   core1_0.Queue

	refs      atomic.Int64
	destroyed atomic.Bool
	resources *resourceRegistry
}

// NewDevice creates an instance, a surface for window, then selects and
// opens the physical device best matching opts. A nil opts requests
// defaults.
func NewDevice(window Window, opts *DeviceOptions) (*Device, error) {
	var options DeviceOptions
	if opts != nil {
		options = *opts
	}
	if options.PreferredType == 0 {
		options.PreferredType = core1_0.PhysicalDeviceTypeDiscreteGPU
	}

	dev := &Device{resources: newResourceRegistry()}
	dev.refs.Store(1)

	var err error
	dev.globalDriver, err = core.CreateDriverFromProcAddr(window.ProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "load vulkan driver")
	}

	dev.instanceDriver, err = createInstance(dev.globalDriver, window, options.Instance.withDefaults())
	if err != nil {
		return nil, err
	}

	if options.Instance.Validation {
		dev.debugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(dev.instanceDriver)
		dev.debugMessenger, _, err = dev.debugDriver.CreateDebugUtilsMessenger(nil, debugMessengerOptions())
		if err != nil {
			dev.instanceDriver.DestroyInstance(nil)
			return nil, err
		}
	}

	dev.surfaceDriver = khr_surface.CreateExtensionDriverFromCoreDriver(dev.instanceDriver)
	dev.surface, err = window.CreateSurface(dev.instanceDriver.Instance(), dev.surfaceDriver)
	if err != nil {
		dev.destroyInstance()
		return nil, err
	}

	err = dev.pickPhysicalDevice(&options)
	if err != nil {
		dev.surfaceDriver.DestroySurface(dev.surface, nil)
		dev.destroyInstance()
		return nil, err
	}

	err = dev.createLogicalDevice(&options)
	if err != nil {
		dev.surfaceDriver.DestroySurface(dev.surface, nil)
		dev.destroyInstance()
		return nil, err
	}

	return dev, nil
}

func (d *Device) pickPhysicalDevice(opts *DeviceOptions) error {
	physicalDevices, _, err := d.instanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return err
	}

	candidates := make([]deviceCandidate, len(physicalDevices))
	for i, physicalDevice := range physicalDevices {
		properties, err := d.instanceDriver.GetPhysicalDeviceProperties(physicalDevice)
		if err != nil {
			return err
		}

		usable, err := d.isPresentable(physicalDevice)
		if err != nil {
			return err
		}

		candidates[i] = deviceCandidate{
			features:   d.instanceDriver.GetPhysicalDeviceFeatures(physicalDevice),
			deviceType: properties.DriverType,
			usable:     usable,
		}
	}

	index, err := pickDeviceIndex(candidates, &opts.Features, opts.PreferredType)
	if err != nil {
		return err
	}

	d.physicalDevice = physicalDevices[index]

	properties, err := d.instanceDriver.GetPhysicalDeviceProperties(d.physicalDevice)
	if err != nil {
		return err
	}
	d.limits = *properties.Limits

	memoryProperties := d.instanceDriver.GetPhysicalDeviceMemoryProperties(d.physicalDevice)
	d.memoryTypes = memoryProperties.MemoryTypes

	return nil
}

// isPresentable reports whether the device has a graphics queue family,
// a present-capable queue family for the surface, the swapchain
// extension, and at least one surface format and present mode.
func (d *Device) isPresentable(physicalDevice core1_0.PhysicalDevice) (bool, error) {
	families := d.instanceDriver.GetPhysicalDeviceQueueFamilyProperties(physicalDevice)

	_, err := selectQueueFamily(families, core1_0.QueueGraphics)
	if err != nil {
		if errors.Is(err, ErrQueueNotFound) {
			return false, nil
		}
		return false, err
	}

	presentable := false
	for familyIndex := range families {
		supported, _, err := d.surfaceDriver.GetPhysicalDeviceSurfaceSupport(d.surface, physicalDevice, familyIndex)
		if err != nil {
			return false, err
		}
		if supported {
			presentable = true
			break
		}
	}
	if !presentable {
		return false, nil
	}

	extensions, _, err := d.instanceDriver.EnumerateDeviceExtensionProperties(physicalDevice)
	if err != nil {
		return false, err
	}
	_, hasSwapchain := extensions[khr_swapchain.ExtensionName]
	if !hasSwapchain {
		return false, nil
	}

	formats, _, err := d.surfaceDriver.GetPhysicalDeviceSurfaceFormats(d.surface, physicalDevice)
	if err != nil {
		return false, err
	}
	presentModes, _, err := d.surfaceDriver.GetPhysicalDeviceSurfacePresentModes(d.surface, physicalDevice)
	if err != nil {
		return false, err
	}

	return len(formats) > 0 && len(presentModes) > 0, nil
}

func (d *Device) createLogicalDevice(opts *DeviceOptions) error {
	families := d.instanceDriver.GetPhysicalDeviceQueueFamilyProperties(d.physicalDevice)

	graphicsFamily, err := selectQueueFamily(families, core1_0.QueueGraphics)
	if err != nil {
		return err
	}

	presentFamily := -1
	for familyIndex := range families {
		supported, _, err := d.surfaceDriver.GetPhysicalDeviceSurfaceSupport(d.surface, d.physicalDevice, familyIndex)
		if err != nil {
			return err
		}
		if supported {
			presentFamily = familyIndex
			break
		}
	}
	if presentFamily < 0 {
		return errors.Wrap(ErrQueueNotFound, "present support")
	}

	uniqueFamilies := []int{graphicsFamily}
	if presentFamily != graphicsFamily {
		uniqueFamilies = append(uniqueFamilies, presentFamily)
	}

	var queueCreateInfos []core1_0.DeviceQueueCreateInfo
	for _, family := range uniqueFamilies {
		queueCreateInfos = append(queueCreateInfos, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: family,
			QueuePriorities:  []float32{1.0},
		})
	}

	var extensionNames []string
	extensionNames = append(extensionNames, deviceExtensions...)
	extensionNames = append(extensionNames, opts.ExtraExtensions...)

	// Vulkan portability, necessary to run on mobile & mac
	extensions, _, err := d.instanceDriver.EnumerateDeviceExtensionProperties(d.physicalDevice)
	if err != nil {
		return err
	}
	_, supported := extensions[khr_portability_subset.ExtensionName]
	if supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	features := opts.Features
	d.driver, _, err = d.instanceDriver.CreateDevice(d.physicalDevice, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueCreateInfos,
		EnabledFeatures:       &features,
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return err
	}

	d.graphicsFamily = graphicsFamily
	d.presentFamily = presentFamily
	d.graphicsQueue = d.driver.GetQueue(graphicsFamily, 0)
	d.presentQueue = d.driver.GetQueue(presentFamily, 0)
	return nil
}

// WaitIdle blocks until the device has finished all submitted work.
func (d *Device) WaitIdle() error {
	_, err := d.driver.DeviceWaitIdle()
	return err
}

// Limits returns the selected physical device's limits.
func (d *Device) Limits() core1_0.PhysicalDeviceLimits {
	return d.limits
}

// GraphicsFamily returns the queue family index used for graphics and
// transfer submissions.
func (d *Device) GraphicsFamily() int {
	return d.graphicsFamily
}

// Driver exposes the underlying device driver for operations this
// package does not wrap, such as pipeline and descriptor creation.
func (d *Device) Driver() core1_0.CoreDeviceDriver {
	return d.driver
}

// Submit enqueues a recorded command buffer on the graphics queue. All
// synchronization arguments are optional: nil semaphores and fence
// submit without them. waitStage names the pipeline stage that stalls
// until wait signals.
func (d *Device) Submit(commandBuffer *CommandBuffer, waitStage core1_0.PipelineStageFlags, wait, signal *Semaphore, fence *Fence) error {
	var fenceHandle *core1_0.Fence
	if fence != nil {
		fenceHandle = &fence.handle
	}

	submitInfo := core1_0.SubmitInfo{
		CommandBuffers: []core1_0.CommandBuffer{commandBuffer.handle},
	}
	if wait != nil {
		submitInfo.WaitSemaphores = []core1_0.Semaphore{wait.handle}
		submitInfo.WaitDstStageMask = []core1_0.PipelineStageFlags{waitStage}
	}
	if signal != nil {
		submitInfo.SignalSemaphores = []core1_0.Semaphore{signal.handle}
	}

	_, err := d.driver.QueueSubmit(d.graphicsQueue, fenceHandle, submitInfo)
	return err
}

// SubmitFrame submits one frame's command buffer: the color attachment
// output stage waits on wait, signal fires when rendering completes and
// fence signals when the buffer may be recorded again.
func (d *Device) SubmitFrame(commandBuffer *CommandBuffer, wait, signal *Semaphore, fence FrameFence) error {
	var fenceHandle *core1_0.Fence
	if fence != nil {
		handle := fence.Handle()
		fenceHandle = &handle
	}

	submitInfo := core1_0.SubmitInfo{
		CommandBuffers: []core1_0.CommandBuffer{commandBuffer.handle},
	}
	if wait != nil {
		submitInfo.WaitSemaphores = []core1_0.Semaphore{wait.handle}
		submitInfo.WaitDstStageMask = []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput}
	}
	if signal != nil {
		submitInfo.SignalSemaphores = []core1_0.Semaphore{signal.handle}
	}

	_, err := d.driver.QueueSubmit(d.graphicsQueue, fenceHandle, submitInfo)
	return err
}

// oneTimeSubmit records commands into a transient buffer from pool,
// submits it on the graphics queue and blocks until the queue is idle.
func (d *Device) oneTimeSubmit(pool *CommandPool, record func(*CommandBuffer) error) error {
	commandBuffer, err := pool.Alloc(core1_0.CommandBufferLevelPrimary)
	if err != nil {
		return err
	}
	defer commandBuffer.Free()

	err = commandBuffer.Record(core1_0.CommandBufferUsageOneTimeSubmit, func() error {
		return record(commandBuffer)
	})
	if err != nil {
		return err
	}

	err = d.Submit(commandBuffer, 0, nil, nil, nil)
	if err != nil {
		return err
	}

	_, err = d.driver.QueueWaitIdle(d.graphicsQueue)
	return err
}

// Destroy releases the device's own reference. The native device, the
// surface and the instance are torn down once every resource created
// from this device has been destroyed; resources still alive at this
// point are logged as leaks.
func (d *Device) Destroy() {
	if d.destroyed.Swap(true) {
		return
	}
	if leaks := d.resources.leaks(); len(leaks) > 0 {
		log.Printf("plate: device destroyed with live resources: %s", strings.Join(leaks, ", "))
	}
	d.release()
}

// track registers a live resource and takes a device reference.
func (d *Device) track(kind string) uuid.UUID {
	d.refs.Add(1)
	return d.resources.add(kind)
}

// untrack drops a resource's registration and its device reference.
func (d *Device) untrack(id uuid.UUID) {
	d.resources.remove(id)
	d.release()
}

func (d *Device) release() {
	if d.refs.Add(-1) > 0 {
		return
	}
	d.driver.DestroyDevice(nil)
	d.surfaceDriver.DestroySurface(d.surface, nil)
	d.destroyInstance()
}

func (d *Device) destroyInstance() {
	if d.debugMessenger.Initialized() {
		d.debugDriver.DestroyDebugUtilsMessenger(d.debugMessenger, nil)
	}
	d.instanceDriver.DestroyInstance(nil)
}
