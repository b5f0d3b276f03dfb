package gputest

import (
	"fmt"
	"sync"
	"time"

	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
)

// Submission records one QueueSubmit call.
type Submission struct {
	Queue          gpu.Queue
	Info           gpu.SubmitInfo
	Fence          gpu.Fence
	CommandRecords [][]string
}

// Device is an in-memory gpu.Device. It is safe for use by the render
// goroutine and a test goroutine at the same time.
type Device struct {
	mu   sync.Mutex
	cond *sync.Cond
	reg  registry

	info       gpu.DeviceCreateInfo
	memory     gpu.MemoryProperties
	queues     map[uint32]*Object
	destroyed  bool
	blocked    int
	calls      []string
	submits    []Submission
	presents   []gpu.PresentInfo
	pending    []*Object
	acquireSeq []gpu.Result
	presentSeq []gpu.Result
	nextImage  map[*Object]uint32

	// ManualFences keeps submitted fences unsignaled until SignalNext or
	// SignalAll is called.
	ManualFences bool
	// FailOn makes the named call fail with ErrorInitializationFailed.
	FailOn map[string]bool
	// BufferTypeBits overrides the memory type filter reported for buffers.
	BufferTypeBits uint32
}

func NewDevice(memory gpu.MemoryProperties) *Device {
	d := &Device{
		reg:       newRegistry(),
		memory:    memory,
		queues:    make(map[uint32]*Object),
		nextImage: make(map[*Object]uint32),
		FailOn:    make(map[string]bool),
	}
	d.cond = sync.NewCond(&d.mu)
	return d
}

func (d *Device) record(call string) {
	d.calls = append(d.calls, call)
}

func (d *Device) fail(op string) error {
	if d.FailOn[op] {
		return &gpu.Error{Op: op, Result: gpu.ErrorInitializationFailed}
	}
	return nil
}

// Test inspection helpers.

func (d *Device) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	copy(out, d.calls)
	return out
}

// CallCount returns how many times the named call was made.
func (d *Device) CallCount(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (d *Device) Created(kind Kind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reg.created[kind]
}

func (d *Device) Destroyed(kind Kind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reg.destroyed[kind]
}

func (d *Device) Live(kind Kind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, o := range d.reg.live {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// Problems lists double destroys, uses after destroy and invalid handles.
func (d *Device) Problems() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.reg.problems))
	copy(out, d.reg.problems)
	return out
}

// Leaks lists objects still alive.
func (d *Device) Leaks() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reg.leaks()
}

func (d *Device) Submissions() []Submission {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Submission, len(d.submits))
	copy(out, d.submits)
	return out
}

func (d *Device) Presents() []gpu.PresentInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]gpu.PresentInfo, len(d.presents))
	copy(out, d.presents)
	return out
}

func (d *Device) IsDestroyed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed
}

// ScriptAcquire queues results returned by the next AcquireNextImage calls.
// Once drained, acquisition succeeds.
func (d *Device) ScriptAcquire(results ...gpu.Result) {
	d.mu.Lock()
	d.acquireSeq = append(d.acquireSeq, results...)
	d.mu.Unlock()
}

// ScriptPresent queues results returned by the next QueuePresent calls.
func (d *Device) ScriptPresent(results ...gpu.Result) {
	d.mu.Lock()
	d.presentSeq = append(d.presentSeq, results...)
	d.mu.Unlock()
}

// SetNextImage forces the index returned by the next acquisitions on the
// given swapchain.
func (d *Device) SetNextImage(swapchain gpu.Swapchain, index uint32) {
	d.mu.Lock()
	d.nextImage[swapchain.(*Object)] = index
	d.mu.Unlock()
}

// Pending returns the number of submitted fences not yet signaled.
func (d *Device) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// SignalNext completes the oldest pending submission.
func (d *Device) SignalNext() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pending) == 0 {
		return false
	}
	d.pending[0].signaled = true
	d.pending = d.pending[1:]
	d.cond.Broadcast()
	return true
}

func (d *Device) SignalAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, f := range d.pending {
		f.signaled = true
	}
	d.pending = nil
	d.cond.Broadcast()
}

// Blocked reports how many goroutines wait in WaitForFence.
func (d *Device) Blocked() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.blocked
}

// WaitBlocked waits until n goroutines are blocked in WaitForFence or the
// timeout expires.
func (d *Device) WaitBlocked(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if d.Blocked() >= n {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

// Queues.

func (d *Device) Queue(family, index uint32) gpu.Queue {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Queue")
	q, ok := d.queues[family]
	if !ok {
		q = &Object{Kind: "queue", Info: family}
		d.queues[family] = q
	}
	return q
}

func (d *Device) QueueSubmit(queue gpu.Queue, submits []gpu.SubmitInfo, fence gpu.Fence) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("QueueSubmit")
	if err := d.fail("QueueSubmit"); err != nil {
		return err
	}
	for _, s := range submits {
		sub := Submission{Queue: queue, Info: s, Fence: fence}
		for _, cb := range s.CommandBuffers {
			o := d.reg.use(cb, KindCommandBuffer, "QueueSubmit")
			if o.recording {
				d.reg.problems = append(d.reg.problems, fmt.Sprintf("QueueSubmit: %s still recording", o))
			}
			cmds := make([]string, len(o.commands))
			copy(cmds, o.commands)
			sub.CommandRecords = append(sub.CommandRecords, cmds)
		}
		d.submits = append(d.submits, sub)
	}
	if fence != nil {
		f := d.reg.use(fence, KindFence, "QueueSubmit")
		if f.signaled {
			d.reg.problems = append(d.reg.problems, fmt.Sprintf("QueueSubmit: %s already signaled", f))
		}
		if d.ManualFences {
			d.pending = append(d.pending, f)
		} else {
			f.signaled = true
			d.cond.Broadcast()
		}
	}
	return nil
}

func (d *Device) QueuePresent(queue gpu.Queue, info gpu.PresentInfo) gpu.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("QueuePresent")
	d.reg.use(info.Swapchain, KindSwapchain, "QueuePresent")
	d.presents = append(d.presents, info)
	if len(d.presentSeq) > 0 {
		r := d.presentSeq[0]
		d.presentSeq = d.presentSeq[1:]
		return r
	}
	return gpu.Success
}

func (d *Device) QueueWaitIdle(queue gpu.Queue) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("QueueWaitIdle")
	return nil
}

// WaitIdle completes every pending submission.
func (d *Device) WaitIdle() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("WaitIdle")
	for _, f := range d.pending {
		f.signaled = true
	}
	d.pending = nil
	d.cond.Broadcast()
	return nil
}

// Swapchain.

func (d *Device) CreateSwapchain(info gpu.SwapchainCreateInfo) (gpu.Swapchain, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateSwapchain")
	if err := d.fail("CreateSwapchain"); err != nil {
		return nil, err
	}
	if info.Extent.Width == 0 || info.Extent.Height == 0 {
		d.reg.problems = append(d.reg.problems, fmt.Sprintf("CreateSwapchain: zero extent %v", info.Extent))
	}
	sc := d.reg.create(KindSwapchain)
	sc.Info = info
	for i := uint32(0); i < info.MinImageCount; i++ {
		sc.images = append(sc.images, d.reg.create(KindSwapchainImage))
	}
	return sc, nil
}

func (d *Device) SwapchainImages(swapchain gpu.Swapchain) ([]gpu.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("SwapchainImages")
	sc := d.reg.use(swapchain, KindSwapchain, "SwapchainImages")
	out := make([]gpu.Image, len(sc.images))
	for i, img := range sc.images {
		out[i] = img
	}
	return out, nil
}

func (d *Device) AcquireNextImage(swapchain gpu.Swapchain, timeout uint64, semaphore gpu.Semaphore, fence gpu.Fence) (uint32, gpu.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("AcquireNextImage")
	sc := d.reg.use(swapchain, KindSwapchain, "AcquireNextImage")
	if semaphore != nil {
		d.reg.use(semaphore, KindSemaphore, "AcquireNextImage")
	}
	result := gpu.Success
	if len(d.acquireSeq) > 0 {
		result = d.acquireSeq[0]
		d.acquireSeq = d.acquireSeq[1:]
	}
	if !result.IsSuccess() {
		return 0, result
	}
	idx := d.nextImage[sc]
	if n := uint32(len(sc.images)); n > 0 {
		d.nextImage[sc] = (idx + 1) % n
	}
	return idx, result
}

func (d *Device) DestroySwapchain(swapchain gpu.Swapchain) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroySwapchain")
	if sc, ok := swapchain.(*Object); ok && sc != nil && !sc.Destroyed {
		for _, img := range sc.images {
			d.reg.destroy(img, KindSwapchainImage)
		}
	}
	d.reg.destroy(swapchain, KindSwapchain)
}

// Synchronization.

func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateSemaphore")
	return d.reg.create(KindSemaphore), nil
}

func (d *Device) DestroySemaphore(semaphore gpu.Semaphore) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroySemaphore")
	d.reg.destroy(semaphore, KindSemaphore)
}

func (d *Device) CreateFence(signaled bool) (gpu.Fence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateFence")
	f := d.reg.create(KindFence)
	f.signaled = signaled
	return f, nil
}

// WaitForFence blocks until the fence is signaled. Timeouts other than
// gpu.InfiniteTimeout return Timeout immediately when unsignaled.
func (d *Device) WaitForFence(fence gpu.Fence, timeout uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("WaitForFence")
	f := d.reg.use(fence, KindFence, "WaitForFence")
	if !f.signaled && timeout != gpu.InfiniteTimeout {
		return &gpu.Error{Op: "WaitForFence", Result: gpu.Timeout}
	}
	for !f.signaled && !f.Destroyed {
		d.blocked++
		d.cond.Wait()
		d.blocked--
	}
	return nil
}

func (d *Device) ResetFence(fence gpu.Fence) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("ResetFence")
	f := d.reg.use(fence, KindFence, "ResetFence")
	f.signaled = false
	return nil
}

// FenceSignaled reports the current state of a fence.
func (d *Device) FenceSignaled(fence gpu.Fence) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fence.(*Object).signaled
}

func (d *Device) DestroyFence(fence gpu.Fence) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyFence")
	d.reg.destroy(fence, KindFence)
	d.cond.Broadcast()
}

// Buffers, images and memory.

func (d *Device) CreateBuffer(info gpu.BufferCreateInfo) (gpu.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateBuffer")
	if err := d.fail("CreateBuffer"); err != nil {
		return nil, err
	}
	b := d.reg.create(KindBuffer)
	b.Info = info
	return b, nil
}

// BufferMemoryRequirements accepts every memory type unless BufferTypeBits
// is set.
func (d *Device) BufferMemoryRequirements(buffer gpu.Buffer) gpu.MemoryRequirements {
	d.mu.Lock()
	defer d.mu.Unlock()
	b := d.reg.use(buffer, KindBuffer, "BufferMemoryRequirements")
	info, _ := b.Info.(gpu.BufferCreateInfo)
	return gpu.MemoryRequirements{
		Size:           alignUp(info.Size, 256),
		Alignment:      256,
		MemoryTypeBits: d.bufferTypes(),
	}
}

func (d *Device) BindBufferMemory(buffer gpu.Buffer, memory gpu.DeviceMemory, offset uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("BindBufferMemory")
	d.reg.use(buffer, KindBuffer, "BindBufferMemory")
	d.reg.use(memory, KindMemory, "BindBufferMemory")
	return nil
}

func (d *Device) DestroyBuffer(buffer gpu.Buffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyBuffer")
	d.reg.destroy(buffer, KindBuffer)
}

func (d *Device) CreateImage(info gpu.ImageCreateInfo) (gpu.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateImage")
	if err := d.fail("CreateImage"); err != nil {
		return nil, err
	}
	img := d.reg.create(KindImage)
	img.Info = info
	return img, nil
}

func (d *Device) ImageMemoryRequirements(image gpu.Image) gpu.MemoryRequirements {
	d.mu.Lock()
	defer d.mu.Unlock()
	img := d.reg.use(image, KindImage, "ImageMemoryRequirements")
	info, _ := img.Info.(gpu.ImageCreateInfo)
	return gpu.MemoryRequirements{
		Size:           alignUp(uint64(info.Width)*uint64(info.Height)*4, 4096),
		Alignment:      4096,
		MemoryTypeBits: d.allTypes(),
	}
}

func (d *Device) BindImageMemory(image gpu.Image, memory gpu.DeviceMemory, offset uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("BindImageMemory")
	d.reg.use(image, KindImage, "BindImageMemory")
	d.reg.use(memory, KindMemory, "BindImageMemory")
	return nil
}

func (d *Device) DestroyImage(image gpu.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyImage")
	d.reg.destroy(image, KindImage)
}

func (d *Device) CreateImageView(info gpu.ImageViewCreateInfo) (gpu.ImageView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateImageView")
	if o, ok := info.Image.(*Object); !ok || o.Destroyed {
		d.reg.problems = append(d.reg.problems, fmt.Sprintf("CreateImageView: invalid image %v", info.Image))
	}
	v := d.reg.create(KindImageView)
	v.Info = info
	return v, nil
}

func (d *Device) DestroyImageView(view gpu.ImageView) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyImageView")
	d.reg.destroy(view, KindImageView)
}

func (d *Device) CreateSampler(info gpu.SamplerCreateInfo) (gpu.Sampler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateSampler")
	s := d.reg.create(KindSampler)
	s.Info = info
	return s, nil
}

func (d *Device) DestroySampler(sampler gpu.Sampler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroySampler")
	d.reg.destroy(sampler, KindSampler)
}

func (d *Device) AllocateMemory(size uint64, memoryTypeIndex uint32) (gpu.DeviceMemory, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("AllocateMemory")
	if err := d.fail("AllocateMemory"); err != nil {
		return nil, err
	}
	if int(memoryTypeIndex) >= len(d.memory.Types) {
		return nil, &gpu.Error{Op: "AllocateMemory", Result: gpu.ErrorOutOfDeviceMemory}
	}
	m := d.reg.create(KindMemory)
	m.Info = memoryTypeIndex
	m.data = make([]byte, size)
	return m, nil
}

func (d *Device) MapMemory(memory gpu.DeviceMemory, offset, size uint64) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("MapMemory")
	m := d.reg.use(memory, KindMemory, "MapMemory")
	idx, _ := m.Info.(uint32)
	if int(idx) < len(d.memory.Types) && d.memory.Types[idx].PropertyFlags&gpu.MemoryPropertyHostVisible == 0 {
		return nil, &gpu.Error{Op: "MapMemory", Result: gpu.ErrorMemoryMapFailed}
	}
	if m.mapped {
		d.reg.problems = append(d.reg.problems, fmt.Sprintf("MapMemory: %s already mapped", m))
	}
	if offset+size > uint64(len(m.data)) {
		return nil, &gpu.Error{Op: "MapMemory", Result: gpu.ErrorMemoryMapFailed}
	}
	m.mapped = true
	return m.data[offset : offset+size], nil
}

func (d *Device) UnmapMemory(memory gpu.DeviceMemory) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("UnmapMemory")
	m := d.reg.use(memory, KindMemory, "UnmapMemory")
	m.mapped = false
}

// MemoryContents returns a copy of the bytes held by an allocation.
func (d *Device) MemoryContents(memory gpu.DeviceMemory) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	m := memory.(*Object)
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out
}

func (d *Device) FreeMemory(memory gpu.DeviceMemory) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("FreeMemory")
	d.reg.destroy(memory, KindMemory)
}

// Pipeline objects.

func (d *Device) CreateShaderModule(code []uint32) (gpu.ShaderModule, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateShaderModule")
	if len(code) == 0 {
		return nil, &gpu.Error{Op: "CreateShaderModule", Result: gpu.ErrorInitializationFailed}
	}
	return d.reg.create(KindShaderModule), nil
}

func (d *Device) DestroyShaderModule(module gpu.ShaderModule) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyShaderModule")
	d.reg.destroy(module, KindShaderModule)
}

func (d *Device) CreateRenderPass(info gpu.RenderPassCreateInfo) (gpu.RenderPass, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateRenderPass")
	rp := d.reg.create(KindRenderPass)
	rp.Info = info
	return rp, nil
}

func (d *Device) DestroyRenderPass(renderPass gpu.RenderPass) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyRenderPass")
	d.reg.destroy(renderPass, KindRenderPass)
}

func (d *Device) CreateFramebuffer(info gpu.FramebufferCreateInfo) (gpu.Framebuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateFramebuffer")
	d.reg.use(info.RenderPass, KindRenderPass, "CreateFramebuffer")
	for _, a := range info.Attachments {
		d.reg.use(a, KindImageView, "CreateFramebuffer")
	}
	fb := d.reg.create(KindFramebuffer)
	fb.Info = info
	return fb, nil
}

func (d *Device) DestroyFramebuffer(framebuffer gpu.Framebuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyFramebuffer")
	d.reg.destroy(framebuffer, KindFramebuffer)
}

func (d *Device) CreateDescriptorSetLayout(bindings []gpu.DescriptorSetLayoutBinding) (gpu.DescriptorSetLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateDescriptorSetLayout")
	l := d.reg.create(KindDescriptorSetLayout)
	cp := make([]gpu.DescriptorSetLayoutBinding, len(bindings))
	copy(cp, bindings)
	l.Info = cp
	return l, nil
}

func (d *Device) DestroyDescriptorSetLayout(layout gpu.DescriptorSetLayout) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyDescriptorSetLayout")
	d.reg.destroy(layout, KindDescriptorSetLayout)
}

func (d *Device) CreateDescriptorPool(maxSets uint32, sizes []gpu.DescriptorPoolSize) (gpu.DescriptorPool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateDescriptorPool")
	p := d.reg.create(KindDescriptorPool)
	p.Info = maxSets
	return p, nil
}

func (d *Device) DestroyDescriptorPool(pool gpu.DescriptorPool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyDescriptorPool")
	if p, ok := pool.(*Object); ok && p != nil && !p.Destroyed {
		for _, s := range p.children {
			d.reg.destroy(s, KindDescriptorSet)
		}
	}
	d.reg.destroy(pool, KindDescriptorPool)
}

func (d *Device) AllocateDescriptorSets(pool gpu.DescriptorPool, layouts []gpu.DescriptorSetLayout) ([]gpu.DescriptorSet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("AllocateDescriptorSets")
	p := d.reg.use(pool, KindDescriptorPool, "AllocateDescriptorSets")
	maxSets, _ := p.Info.(uint32)
	if uint32(len(p.children)+len(layouts)) > maxSets {
		return nil, &gpu.Error{Op: "AllocateDescriptorSets", Result: gpu.ErrorOutOfPoolMemory}
	}
	out := make([]gpu.DescriptorSet, len(layouts))
	for i, l := range layouts {
		d.reg.use(l, KindDescriptorSetLayout, "AllocateDescriptorSets")
		s := d.reg.create(KindDescriptorSet)
		s.Info = map[uint32]interface{}{}
		p.children = append(p.children, s)
		out[i] = s
	}
	return out, nil
}

func (d *Device) UpdateDescriptorSets(writes []gpu.WriteDescriptorSet) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("UpdateDescriptorSets")
	for _, w := range writes {
		s := d.reg.use(w.Set, KindDescriptorSet, "UpdateDescriptorSets")
		bound, _ := s.Info.(map[uint32]interface{})
		if bound == nil {
			continue
		}
		switch {
		case w.Buffer != nil:
			d.reg.use(w.Buffer.Buffer, KindBuffer, "UpdateDescriptorSets")
			bound[w.Binding] = w.Buffer.Buffer
		case w.Image != nil:
			d.reg.use(w.Image.View, KindImageView, "UpdateDescriptorSets")
			d.reg.use(w.Image.Sampler, KindSampler, "UpdateDescriptorSets")
			bound[w.Binding] = w.Image.View
		}
	}
}

// DescriptorBinding returns what was written to binding of set.
func (d *Device) DescriptorBinding(set gpu.DescriptorSet, binding uint32) interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	bound, _ := set.(*Object).Info.(map[uint32]interface{})
	return bound[binding]
}

func (d *Device) CreatePipelineLayout(setLayouts []gpu.DescriptorSetLayout) (gpu.PipelineLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreatePipelineLayout")
	for _, l := range setLayouts {
		d.reg.use(l, KindDescriptorSetLayout, "CreatePipelineLayout")
	}
	return d.reg.create(KindPipelineLayout), nil
}

func (d *Device) DestroyPipelineLayout(layout gpu.PipelineLayout) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyPipelineLayout")
	d.reg.destroy(layout, KindPipelineLayout)
}

func (d *Device) CreateGraphicsPipeline(info gpu.GraphicsPipelineCreateInfo) (gpu.Pipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateGraphicsPipeline")
	if err := d.fail("CreateGraphicsPipeline"); err != nil {
		return nil, err
	}
	d.reg.use(info.VertexShader, KindShaderModule, "CreateGraphicsPipeline")
	d.reg.use(info.FragmentShader, KindShaderModule, "CreateGraphicsPipeline")
	d.reg.use(info.Layout, KindPipelineLayout, "CreateGraphicsPipeline")
	d.reg.use(info.RenderPass, KindRenderPass, "CreateGraphicsPipeline")
	p := d.reg.create(KindPipeline)
	p.Info = info
	return p, nil
}

func (d *Device) DestroyPipeline(pipeline gpu.Pipeline) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyPipeline")
	d.reg.destroy(pipeline, KindPipeline)
}

// Commands.

func (d *Device) CreateCommandPool(queueFamily uint32) (gpu.CommandPool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateCommandPool")
	p := d.reg.create(KindCommandPool)
	p.Info = queueFamily
	return p, nil
}

func (d *Device) DestroyCommandPool(pool gpu.CommandPool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyCommandPool")
	if p, ok := pool.(*Object); ok && p != nil && !p.Destroyed {
		for _, cb := range p.children {
			if !cb.Destroyed {
				d.reg.destroy(cb, KindCommandBuffer)
			}
		}
	}
	d.reg.destroy(pool, KindCommandPool)
}

func (d *Device) AllocateCommandBuffers(pool gpu.CommandPool, count uint32) ([]gpu.CommandBuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("AllocateCommandBuffers")
	p := d.reg.use(pool, KindCommandPool, "AllocateCommandBuffers")
	out := make([]gpu.CommandBuffer, count)
	for i := range out {
		cb := d.reg.create(KindCommandBuffer)
		p.children = append(p.children, cb)
		out[i] = cb
	}
	return out, nil
}

func (d *Device) FreeCommandBuffers(pool gpu.CommandPool, buffers []gpu.CommandBuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("FreeCommandBuffers")
	d.reg.use(pool, KindCommandPool, "FreeCommandBuffers")
	for _, cb := range buffers {
		d.reg.destroy(cb, KindCommandBuffer)
	}
}

func (d *Device) BeginCommandBuffer(cb gpu.CommandBuffer, oneTimeSubmit bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("BeginCommandBuffer")
	o := d.reg.use(cb, KindCommandBuffer, "BeginCommandBuffer")
	if o.recording {
		d.reg.problems = append(d.reg.problems, fmt.Sprintf("BeginCommandBuffer: %s already recording", o))
	}
	o.recording = true
	o.commands = nil
	return nil
}

func (d *Device) EndCommandBuffer(cb gpu.CommandBuffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("EndCommandBuffer")
	o := d.reg.use(cb, KindCommandBuffer, "EndCommandBuffer")
	if !o.recording {
		d.reg.problems = append(d.reg.problems, fmt.Sprintf("EndCommandBuffer: %s not recording", o))
	}
	o.recording = false
	return nil
}

func (d *Device) ResetCommandBuffer(cb gpu.CommandBuffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("ResetCommandBuffer")
	o := d.reg.use(cb, KindCommandBuffer, "ResetCommandBuffer")
	o.recording = false
	o.commands = nil
	return nil
}

func (d *Device) cmd(cb gpu.CommandBuffer, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(name)
	o := d.reg.use(cb, KindCommandBuffer, name)
	if !o.recording {
		d.reg.problems = append(d.reg.problems, fmt.Sprintf("%s: %s not recording", name, o))
	}
	o.commands = append(o.commands, name)
}

func (d *Device) CmdBeginRenderPass(cb gpu.CommandBuffer, info gpu.RenderPassBeginInfo) {
	d.cmd(cb, "CmdBeginRenderPass")
}

func (d *Device) CmdEndRenderPass(cb gpu.CommandBuffer) {
	d.cmd(cb, "CmdEndRenderPass")
}

func (d *Device) CmdSetViewport(cb gpu.CommandBuffer, viewport gpu.Viewport) {
	d.cmd(cb, "CmdSetViewport")
}

func (d *Device) CmdSetScissor(cb gpu.CommandBuffer, scissor gpu.Rect2D) {
	d.cmd(cb, "CmdSetScissor")
}

func (d *Device) CmdBindPipeline(cb gpu.CommandBuffer, pipeline gpu.Pipeline) {
	d.cmd(cb, "CmdBindPipeline")
}

func (d *Device) CmdBindVertexBuffer(cb gpu.CommandBuffer, buffer gpu.Buffer, offset uint64) {
	d.cmd(cb, "CmdBindVertexBuffer")
}

func (d *Device) CmdBindIndexBuffer(cb gpu.CommandBuffer, buffer gpu.Buffer, offset uint64, indexType gpu.IndexType) {
	d.cmd(cb, "CmdBindIndexBuffer")
}

func (d *Device) CmdBindDescriptorSet(cb gpu.CommandBuffer, layout gpu.PipelineLayout, set gpu.DescriptorSet) {
	d.mu.Lock()
	d.reg.use(set, KindDescriptorSet, "CmdBindDescriptorSet")
	d.mu.Unlock()
	d.cmd(cb, "CmdBindDescriptorSet")
}

func (d *Device) CmdDrawIndexed(cb gpu.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	d.cmd(cb, fmt.Sprintf("CmdDrawIndexed(%d)", indexCount))
}

func (d *Device) CmdCopyBuffer(cb gpu.CommandBuffer, src, dst gpu.Buffer, size uint64) {
	d.cmd(cb, "CmdCopyBuffer")
}

func (d *Device) CmdCopyBufferToImage(cb gpu.CommandBuffer, src gpu.Buffer, dst gpu.Image, layout gpu.ImageLayout, width, height uint32) {
	d.cmd(cb, "CmdCopyBufferToImage")
}

func (d *Device) CmdPipelineBarrier(cb gpu.CommandBuffer, srcStage, dstStage gpu.PipelineStageFlags, barrier gpu.ImageMemoryBarrier) {
	d.cmd(cb, fmt.Sprintf("CmdPipelineBarrier(%d->%d)", barrier.OldLayout, barrier.NewLayout))
}

func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyDevice")
	if d.destroyed {
		d.reg.problems = append(d.reg.problems, "double destroy of device")
	}
	if leaks := d.reg.leaks(); len(leaks) > 0 {
		d.reg.problems = append(d.reg.problems, fmt.Sprintf("device destroyed with live objects: %v", leaks))
	}
	d.destroyed = true
}

func (d *Device) allTypes() uint32 {
	return uint32(1)<<uint(len(d.memory.Types)) - 1
}

func (d *Device) bufferTypes() uint32 {
	if d.BufferTypeBits != 0 {
		return d.BufferTypeBits
	}
	return d.allTypes()
}

func alignUp(v, a uint64) uint64 {
	return (v + a - 1) / a * a
}
