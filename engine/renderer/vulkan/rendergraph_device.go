package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/hollowengine/rendergraph/engine/core"
	"github.com/hollowengine/rendergraph/engine/rendergraph"
)

// VulkanGraphCommandBuffer adapts VulkanCommandBuffer to the minimal
// surface rendergraph.CommandBuffer needs: the raw handle a pass's Build
// callback issues draw/dispatch calls against, plus the one operation the
// submission engine inserts around callbacks itself.
type VulkanGraphCommandBuffer struct {
	cb *VulkanCommandBuffer

	// activeRenderPass / activeFramebuffer are the transient objects
	// BeginRenderPass created for the physical pass currently recording
	// against this command buffer, torn down again by EndRenderPass. Built
	// fresh per physical pass rather than reusing VulkanRenderPass/
	// VulkanFramebuffer: RenderpassBegin's body is dead code in this repo
	// and VulkanFramebuffer.Renderpass names a type (VulkanRenderpass) that
	// does not match the actual VulkanRenderPass struct, so that plumbing
	// cannot be safely driven from here.
	activeRenderPass  vk.RenderPass
	activeFramebuffer vk.Framebuffer
}

func (c *VulkanGraphCommandBuffer) Handle() vk.CommandBuffer {
	return c.cb.Handle
}

func (c *VulkanGraphCommandBuffer) PipelineBarrier(srcStage, dstStage vk.PipelineStageFlags, imageBarriers []vk.ImageMemoryBarrier, bufferBarriers []vk.BufferMemoryBarrier) {
	vk.CmdPipelineBarrier(
		c.cb.Handle,
		srcStage,
		dstStage,
		0,
		0, nil,
		uint32(len(bufferBarriers)), bufferBarriers,
		uint32(len(imageBarriers)), imageBarriers,
	)
}

// SignalEvent restores vkCmdSetEvent for the same-queue producer side of
// the Event Tracker's invalidate/flush protocol (4.5). No prior call in
// this repo exercises vk.Event; the call is grounded on the standard
// vulkan-go CmdSetEvent(cb, event, stageMask) signature, not on an
// existing usage site - see DESIGN.md.
func (c *VulkanGraphCommandBuffer) SignalEvent(event vk.Event, stage vk.PipelineStageFlags) {
	vk.CmdSetEvent(c.cb.Handle, event, stage)
}

// WaitEvent restores vkCmdWaitEvents, folding a same-queue consumer's wait
// and its resulting image transition into a single call instead of the
// plain vkCmdPipelineBarrier PipelineBarrier issues. Same grounding caveat
// as SignalEvent applies to CmdWaitEvents.
func (c *VulkanGraphCommandBuffer) WaitEvent(event vk.Event, srcStage, dstStage vk.PipelineStageFlags, imageBarriers []vk.ImageMemoryBarrier) {
	events := []vk.Event{event}
	vk.CmdWaitEvents(
		c.cb.Handle,
		1, events,
		srcStage,
		dstStage,
		0, nil,
		0, nil,
		uint32(len(imageBarriers)), imageBarriers,
	)
}

// VulkanGraphDevice adapts VulkanContext to rendergraph.Device, giving the
// render graph's submission engine (engine/rendergraph/submission.go)
// access to command buffer acquisition, queue submission, and physical
// resource creation without that package importing this one (design note
// 4.9, "Device/CommandBuffer as consumed interfaces").
type VulkanGraphDevice struct {
	context *VulkanContext

	// pools holds one command pool per queue family actually wired up;
	// async compute/video queues fall back to the graphics pool until this
	// device gains dedicated queue families for them.
	pools map[rendergraph.QueueKind]vk.CommandPool
}

// NewVulkanGraphDevice wraps context for use as a rendergraph.Device. The
// graphics command pool is reused for every queue kind this device does
// not yet have a dedicated family for.
func NewVulkanGraphDevice(context *VulkanContext) *VulkanGraphDevice {
	return &VulkanGraphDevice{
		context: context,
		pools: map[rendergraph.QueueKind]vk.CommandPool{
			rendergraph.QueueGraphics:      context.Device.GraphicsCommandPool,
			rendergraph.QueueAsyncGraphics: context.Device.GraphicsCommandPool,
			rendergraph.QueueCompute:       context.Device.GraphicsCommandPool,
			rendergraph.QueueTransfer:      context.Device.GraphicsCommandPool,
			rendergraph.QueueVideo:         context.Device.GraphicsCommandPool,
		},
	}
}

// resolveExtent turns a physical slot's declared SizeClass/SizeX/SizeY into
// concrete pixel dimensions, taking the current swapchain-relative
// framebuffer size for SizeSwapchainRelative (4.3, "Physical resource
// planner" - absolute vs relative sizing).
func (d *VulkanGraphDevice) resolveExtent(dims rendergraph.PhysicalDimensions) (uint32, uint32) {
	switch dims.SizeClass {
	case rendergraph.SizeAbsolute:
		return uint32(dims.SizeX), uint32(dims.SizeY)
	default:
		width := uint32(float32(d.context.FramebufferWidth) * dims.SizeX)
		height := uint32(float32(d.context.FramebufferHeight) * dims.SizeY)
		if dims.SizeX == 0 {
			width = d.context.FramebufferWidth
		}
		if dims.SizeY == 0 {
			height = d.context.FramebufferHeight
		}
		return width, height
	}
}

func (d *VulkanGraphDevice) resolveQueue(kind rendergraph.QueueKind) vk.Queue {
	switch kind {
	case rendergraph.QueueTransfer:
		return d.context.Device.TransferQueue
	default:
		return d.context.Device.GraphicsQueue
	}
}

func (d *VulkanGraphDevice) RequestCommandBuffer(queue rendergraph.QueueKind) (rendergraph.CommandBuffer, error) {
	pool, ok := d.pools[queue]
	if !ok {
		pool = d.context.Device.GraphicsCommandPool
	}

	cb, err := AllocateAndBeginSingleUse(d.context, pool)
	if err != nil {
		return nil, fmt.Errorf("rendergraph device: request command buffer for %s: %w", queue, err)
	}
	return &VulkanGraphCommandBuffer{cb: cb}, nil
}

func (d *VulkanGraphDevice) Submit(queue rendergraph.QueueKind, cmd rendergraph.CommandBuffer, wait []vk.Semaphore, signal []vk.Semaphore) error {
	vcb, ok := cmd.(*VulkanGraphCommandBuffer)
	if !ok {
		return fmt.Errorf("rendergraph device: submit: not a VulkanGraphCommandBuffer")
	}

	q := d.resolveQueue(queue)
	pool, ok := d.pools[queue]
	if !ok {
		pool = d.context.Device.GraphicsCommandPool
	}

	if err := vcb.cb.EndSingleUse(d.context, pool, q); err != nil {
		return fmt.Errorf("rendergraph device: submit to %s: %w", queue, err)
	}
	return nil
}

// CreateImage realises one physical texture slot as a device-local Vulkan
// image, grounded in ImageCreate (engine/renderer/vulkan/image.go).
func (d *VulkanGraphDevice) CreateImage(dims rendergraph.PhysicalDimensions) (interface{}, error) {
	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	if formatHasDepthOrStencilForDevice(dims.Format) {
		aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}

	width, height := d.resolveExtent(dims)

	img, err := ImageCreate(
		d.context,
		vk.ImageType2d,
		width,
		height,
		dims.Format,
		vk.ImageTilingOptimal,
		dims.ImageUsage,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true,
		aspect,
	)
	if err != nil {
		return nil, fmt.Errorf("rendergraph device: create image %q: %w", dims.Name, err)
	}
	return img, nil
}

// CreateBuffer realises one physical buffer slot, following the same
// create/query-requirements/allocate/bind sequence ImageCreate uses for
// images.
func (d *VulkanGraphDevice) CreateBuffer(dims rendergraph.PhysicalDimensions) (interface{}, error) {
	if dims.Buffer == nil {
		return nil, fmt.Errorf("rendergraph device: create buffer %q: missing buffer info", dims.Name)
	}

	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(dims.Buffer.Size),
		Usage:       dims.BufferUsage,
		SharingMode: vk.SharingModeExclusive,
	}

	var handle vk.Buffer
	if res := vk.CreateBuffer(d.context.Device.LogicalDevice, &bufferCreateInfo, d.context.Allocator, &handle); res != vk.Success {
		return nil, fmt.Errorf("rendergraph device: create buffer %q failed", dims.Name)
	}

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.context.Device.LogicalDevice, handle, &requirements)
	requirements.Deref()

	memoryType := d.context.FindMemoryIndex(requirements.MemoryTypeBits, uint32(vk.MemoryPropertyDeviceLocalBit))
	if memoryType == -1 {
		return nil, fmt.Errorf("rendergraph device: create buffer %q: no suitable memory type", dims.Name)
	}

	memoryAllocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(d.context.Device.LogicalDevice, &memoryAllocateInfo, d.context.Allocator, &memory); res != vk.Success {
		return nil, fmt.Errorf("rendergraph device: allocate memory for buffer %q failed", dims.Name)
	}
	if res := vk.BindBufferMemory(d.context.Device.LogicalDevice, handle, memory, 0); res != vk.Success {
		return nil, fmt.Errorf("rendergraph device: bind buffer memory %q failed", dims.Name)
	}

	return handle, nil
}

// CreateEvent / CreateSemaphore hand the submission engine fresh
// synchronisation primitives for PhysicalEventState (4.5). Grounded on the
// standard vk.EventCreateInfo/vk.SemaphoreCreateInfo pattern the Submit
// path already uses for semaphores elsewhere in this package
// (backend.go); vk.Event itself has no prior call site in this repo, so
// CreateEvent's call shape is an assumption recorded in DESIGN.md rather
// than a verified usage.
func (d *VulkanGraphDevice) CreateEvent() (vk.Event, error) {
	info := vk.EventCreateInfo{SType: vk.StructureTypeEventCreateInfo}
	var event vk.Event
	if res := vk.CreateEvent(d.context.Device.LogicalDevice, &info, d.context.Allocator, &event); res != vk.Success {
		return nil, fmt.Errorf("rendergraph device: create event failed")
	}
	return event, nil
}

func (d *VulkanGraphDevice) CreateSemaphore() (vk.Semaphore, error) {
	info := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	var semaphore vk.Semaphore
	if res := vk.CreateSemaphore(d.context.Device.LogicalDevice, &info, d.context.Allocator, &semaphore); res != vk.Success {
		return nil, fmt.Errorf("rendergraph device: create semaphore failed")
	}
	return semaphore, nil
}

// BuildImageBarrier resolves image - an opaque handle produced by
// CreateImage/CreateBuffer - down to the concrete vk.Image the
// rendergraph package never sees, so barrier construction can stay in
// engine/rendergraph while the handle type stays private to this adapter
// (4.9).
func (d *VulkanGraphDevice) BuildImageBarrier(image interface{}, oldLayout, newLayout vk.ImageLayout, srcAccess, dstAccess vk.AccessFlags, aspectMask vk.ImageAspectFlags) vk.ImageMemoryBarrier {
	var handle vk.Image
	switch v := image.(type) {
	case *VulkanImage:
		handle = v.Handle
	case vk.Image:
		handle = v
	}

	return vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               handle,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspectMask,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
}

// imageHandle/imageView extract the concrete handles BeginRenderPass and
// GenerateMipmaps need from the opaque handles Device.CreateImage hands
// back to the rendergraph package.
func imageHandle(image interface{}) vk.Image {
	switch v := image.(type) {
	case *VulkanImage:
		return v.Handle
	case vk.Image:
		return v
	default:
		return nil
	}
}

func imageView(image interface{}) vk.ImageView {
	if vi, ok := image.(*VulkanImage); ok {
		return vi.View
	}
	return nil
}

// BeginRenderPass builds a transient VkRenderPass + VkFramebuffer for one
// physical pass's subpass chain and begins it, restoring
// Vulkan::CommandBuffer::begin_render_pass (4.4/4.6). Attachment order
// matches rendergraph.PhysicalPass.PhysicalColorAttachments followed by
// the depth/stencil attachment, so subpass attachment references can be
// resolved purely by position.
func (d *VulkanGraphDevice) BeginRenderPass(cmd rendergraph.CommandBuffer, info rendergraph.RenderPassBeginInfo) error {
	vcb, ok := cmd.(*VulkanGraphCommandBuffer)
	if !ok {
		return fmt.Errorf("rendergraph device: begin render pass: not a VulkanGraphCommandBuffer")
	}
	pp := info.PhysicalPass

	var descriptions []vk.AttachmentDescription
	var views []vk.ImageView
	var clearValues []vk.ClearValue

	for slot, dims := range info.ColorDimensions {
		loadOp := vk.AttachmentLoadOpDontCare
		switch {
		case pp.ClearAttachments&(1<<uint(slot)) != 0:
			loadOp = vk.AttachmentLoadOpClear
		case pp.LoadAttachments&(1<<uint(slot)) != 0:
			loadOp = vk.AttachmentLoadOpLoad
		}
		storeOp := vk.AttachmentStoreOpDontCare
		if pp.StoreAttachments&(1<<uint(slot)) != 0 {
			storeOp = vk.AttachmentStoreOpStore
		}

		descriptions = append(descriptions, vk.AttachmentDescription{
			Format:         dims.Format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         loadOp,
			StoreOp:        storeOp,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutColorAttachmentOptimal,
			FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
		})
		views = append(views, imageView(info.ColorImages[slot]))

		var cv vk.ClearValue
		if stored, ok := info.ClearColors[slot]; ok {
			cv = stored
		}
		clearValues = append(clearValues, cv)
	}

	depthAttachmentIndex := uint32(len(descriptions))
	hasDepth := pp.PhysicalDepthStencilAttachment != rendergraph.PhysicalIndexUnused
	if hasDepth {
		loadOp := vk.AttachmentLoadOpDontCare
		switch {
		case pp.ClearDepthStencil:
			loadOp = vk.AttachmentLoadOpClear
		case pp.LoadDepthStencil:
			loadOp = vk.AttachmentLoadOpLoad
		}
		storeOp := vk.AttachmentStoreOpDontCare
		if pp.StoreDepthStencil {
			storeOp = vk.AttachmentStoreOpStore
		}

		descriptions = append(descriptions, vk.AttachmentDescription{
			Format:         info.DepthStencilDims.Format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         loadOp,
			StoreOp:        storeOp,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutDepthStencilAttachmentOptimal,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		})
		views = append(views, imageView(info.DepthStencilImage))
		var cv vk.ClearValue
		if info.HasDepthClear {
			cv = info.ClearDepthStencil
		}
		clearValues = append(clearValues, cv)
	}

	subpasses := make([]vk.SubpassDescription, len(pp.Subpasses))
	var pinned [][]vk.AttachmentReference
	for i, sp := range pp.Subpasses {
		colorRefs := make([]vk.AttachmentReference, len(sp.ColorAttachments))
		for j, phys := range sp.ColorAttachments {
			colorRefs[j] = vk.AttachmentReference{Attachment: vk.AttachmentUnused}
			if phys != rendergraph.PhysicalIndexUnused {
				if idx := indexOfPhysical(pp.PhysicalColorAttachments, phys); idx >= 0 {
					colorRefs[j] = vk.AttachmentReference{Attachment: uint32(idx), Layout: vk.ImageLayoutColorAttachmentOptimal}
				}
			}
		}
		inputRefs := make([]vk.AttachmentReference, len(sp.InputAttachments))
		for j, phys := range sp.InputAttachments {
			inputRefs[j] = vk.AttachmentReference{Attachment: vk.AttachmentUnused}
			if phys != rendergraph.PhysicalIndexUnused {
				if idx := indexOfPhysical(pp.PhysicalColorAttachments, phys); idx >= 0 {
					inputRefs[j] = vk.AttachmentReference{Attachment: uint32(idx), Layout: vk.ImageLayoutShaderReadOnlyOptimal}
				}
			}
		}
		pinned = append(pinned, colorRefs, inputRefs)

		desc := vk.SubpassDescription{
			PipelineBindPoint:    vk.PipelineBindPointGraphics,
			ColorAttachmentCount: uint32(len(colorRefs)),
			PColorAttachments:    colorRefs,
			InputAttachmentCount: uint32(len(inputRefs)),
			PInputAttachments:    inputRefs,
		}
		if hasDepth && sp.DepthStencil != rendergraph.DepthStencilNone {
			layout := vk.ImageLayoutDepthStencilAttachmentOptimal
			if sp.DepthStencil == rendergraph.DepthStencilReadOnly {
				layout = vk.ImageLayoutDepthStencilReadOnlyOptimal
			}
			desc.PDepthStencilAttachment = &vk.AttachmentReference{Attachment: depthAttachmentIndex, Layout: layout}
		}
		subpasses[i] = desc
	}
	_ = pinned

	renderPassInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(descriptions)),
		PAttachments:    descriptions,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
	}

	var renderPass vk.RenderPass
	if res := vk.CreateRenderPass(d.context.Device.LogicalDevice, &renderPassInfo, d.context.Allocator, &renderPass); res != vk.Success {
		return fmt.Errorf("rendergraph device: begin render pass: create render pass failed")
	}

	width, height := uint32(0), uint32(0)
	if len(info.ColorDimensions) > 0 {
		width, height = d.resolveExtent(info.ColorDimensions[0])
	} else if hasDepth {
		width, height = d.resolveExtent(info.DepthStencilDims)
	}

	framebufferInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           width,
		Height:          height,
		Layers:          1,
	}
	var framebuffer vk.Framebuffer
	if res := vk.CreateFramebuffer(d.context.Device.LogicalDevice, &framebufferInfo, d.context.Allocator, &framebuffer); res != vk.Success {
		vk.DestroyRenderPass(d.context.Device.LogicalDevice, renderPass, d.context.Allocator)
		return fmt.Errorf("rendergraph device: begin render pass: create framebuffer failed")
	}

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  renderPass,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{Width: width, Height: height},
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(vcb.cb.Handle, &beginInfo, vk.SubpassContentsInline)

	vcb.activeRenderPass = renderPass
	vcb.activeFramebuffer = framebuffer
	return nil
}

func indexOfPhysical(list []rendergraph.PhysicalIndex, p rendergraph.PhysicalIndex) int {
	for i, v := range list {
		if v == p {
			return i
		}
	}
	return -1
}

func (d *VulkanGraphDevice) NextSubpass(cmd rendergraph.CommandBuffer) {
	vcb, ok := cmd.(*VulkanGraphCommandBuffer)
	if !ok {
		return
	}
	vk.CmdNextSubpass(vcb.cb.Handle, vk.SubpassContentsInline)
}

func (d *VulkanGraphDevice) EndRenderPass(cmd rendergraph.CommandBuffer) {
	vcb, ok := cmd.(*VulkanGraphCommandBuffer)
	if !ok {
		return
	}
	vk.CmdEndRenderPass(vcb.cb.Handle)

	if vcb.activeFramebuffer != nil {
		vk.DestroyFramebuffer(d.context.Device.LogicalDevice, vcb.activeFramebuffer, d.context.Allocator)
		vcb.activeFramebuffer = nil
	}
	if vcb.activeRenderPass != nil {
		vk.DestroyRenderPass(d.context.Device.LogicalDevice, vcb.activeRenderPass, d.context.Allocator)
		vcb.activeRenderPass = nil
	}
}

// ScaledClear blits source's contents into target, restoring the donor's
// scaled_clear_request handling for an attachment that must be seeded
// from another physical slot's contents instead of a flat clear color
// (4.4, Scenario F).
func (d *VulkanGraphDevice) ScaledClear(cmd rendergraph.CommandBuffer, target, source interface{}) error {
	vcb, ok := cmd.(*VulkanGraphCommandBuffer)
	if !ok {
		return fmt.Errorf("rendergraph device: scaled clear: not a VulkanGraphCommandBuffer")
	}
	srcImage, dstImage := imageHandle(source), imageHandle(target)
	if srcImage == nil || dstImage == nil {
		return fmt.Errorf("rendergraph device: scaled clear: missing image handle")
	}

	blit := vk.ImageBlit{
		SrcSubresource: vk.ImageSubresourceLayers{AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit), LayerCount: 1},
		DstSubresource: vk.ImageSubresourceLayers{AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit), LayerCount: 1},
	}
	vk.CmdBlitImage(
		vcb.cb.Handle,
		srcImage, vk.ImageLayoutTransferSrcOptimal,
		dstImage, vk.ImageLayoutTransferDstOptimal,
		1, []vk.ImageBlit{blit},
		vk.FilterLinear,
	)
	return nil
}

// GenerateMipmaps blits each mip level from the one below it, restoring
// the donor's generate_mipmap step (4.5/4.6 step 3) for a physical slot
// buildBarriers flagged via its mipmap_request sentinel.
func (d *VulkanGraphDevice) GenerateMipmaps(cmd rendergraph.CommandBuffer, image interface{}, dims rendergraph.PhysicalDimensions) error {
	vcb, ok := cmd.(*VulkanGraphCommandBuffer)
	if !ok {
		return fmt.Errorf("rendergraph device: generate mipmaps: not a VulkanGraphCommandBuffer")
	}
	handle := imageHandle(image)
	if handle == nil {
		return fmt.Errorf("rendergraph device: generate mipmaps: missing image handle")
	}

	width, height := d.resolveExtent(dims)
	for level := uint32(1); level < uint32(dims.Levels); level++ {
		srcW, srcH := int32(width>>(level-1)), int32(height>>(level-1))
		dstW, dstH := int32(width>>level), int32(height>>level)
		if srcW < 1 {
			srcW = 1
		}
		if srcH < 1 {
			srcH = 1
		}
		if dstW < 1 {
			dstW = 1
		}
		if dstH < 1 {
			dstH = 1
		}

		blit := vk.ImageBlit{
			SrcSubresource: vk.ImageSubresourceLayers{AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit), MipLevel: level - 1, LayerCount: 1},
			DstSubresource: vk.ImageSubresourceLayers{AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit), MipLevel: level, LayerCount: 1},
		}
		blit.SrcOffsets[1] = vk.Offset3D{X: srcW, Y: srcH, Z: 1}
		blit.DstOffsets[1] = vk.Offset3D{X: dstW, Y: dstH, Z: 1}

		vk.CmdBlitImage(
			vcb.cb.Handle,
			handle, vk.ImageLayoutTransferSrcOptimal,
			handle, vk.ImageLayoutTransferDstOptimal,
			1, []vk.ImageBlit{blit},
			vk.FilterLinear,
		)
	}
	return nil
}

// FlushFrame has no device-side work left once EnqueueRenderPasses has
// submitted every physical pass; swapchain presentation remains the
// backend's responsibility (engine/renderer/vulkan/backend.go).
func (d *VulkanGraphDevice) FlushFrame() {
	core.LogDebug("rendergraph device: frame flushed")
}

func formatHasDepthOrStencilForDevice(format vk.Format) bool {
	switch format {
	case vk.FormatD16Unorm, vk.FormatD16UnormS8Uint, vk.FormatD24UnormS8Uint,
		vk.FormatD32Sfloat, vk.FormatD32SfloatS8Uint, vk.FormatX8D24UnormPack32:
		return true
	default:
		return false
	}
}
