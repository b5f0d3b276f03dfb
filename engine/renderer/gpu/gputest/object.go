// Package gputest provides an in-memory implementation of the gpu
// interfaces. It keeps per-kind creation and destruction counters, records
// every call and lets tests decide when submitted work completes.
package gputest

import (
	"fmt"
	"sort"
)

type Kind string

const (
	KindSwapchain           Kind = "swapchain"
	KindSwapchainImage      Kind = "swapchain-image"
	KindSemaphore           Kind = "semaphore"
	KindFence               Kind = "fence"
	KindBuffer              Kind = "buffer"
	KindImage               Kind = "image"
	KindImageView           Kind = "image-view"
	KindSampler             Kind = "sampler"
	KindMemory              Kind = "memory"
	KindShaderModule        Kind = "shader-module"
	KindRenderPass          Kind = "render-pass"
	KindFramebuffer         Kind = "framebuffer"
	KindDescriptorSetLayout Kind = "descriptor-set-layout"
	KindDescriptorPool      Kind = "descriptor-pool"
	KindDescriptorSet       Kind = "descriptor-set"
	KindPipelineLayout      Kind = "pipeline-layout"
	KindPipeline            Kind = "pipeline"
	KindCommandPool         Kind = "command-pool"
	KindCommandBuffer       Kind = "command-buffer"
)

// Object is the handle type handed out for every created object.
type Object struct {
	ID        uint64
	Kind      Kind
	Destroyed bool

	// kind specific state
	data      []byte
	mapped    bool
	signaled  bool
	images    []*Object
	children  []*Object
	commands  []string
	recording bool
	Info      interface{}
}

func (o *Object) String() string {
	return fmt.Sprintf("%s#%d", o.Kind, o.ID)
}

type registry struct {
	nextID    uint64
	created   map[Kind]int
	destroyed map[Kind]int
	live      map[uint64]*Object
	problems  []string
}

func newRegistry() registry {
	return registry{
		created:   make(map[Kind]int),
		destroyed: make(map[Kind]int),
		live:      make(map[uint64]*Object),
	}
}

func (r *registry) create(kind Kind) *Object {
	r.nextID++
	o := &Object{ID: r.nextID, Kind: kind}
	r.created[kind]++
	r.live[o.ID] = o
	return o
}

func (r *registry) destroy(handle interface{}, kind Kind) {
	if handle == nil {
		return
	}
	o, ok := handle.(*Object)
	if !ok || o == nil {
		r.problems = append(r.problems, fmt.Sprintf("destroy %s: foreign handle %v", kind, handle))
		return
	}
	if o.Kind != kind {
		r.problems = append(r.problems, fmt.Sprintf("destroy %s: got %s", kind, o))
		return
	}
	if o.Destroyed {
		r.problems = append(r.problems, fmt.Sprintf("double destroy of %s", o))
		return
	}
	o.Destroyed = true
	r.destroyed[kind]++
	delete(r.live, o.ID)
}

func (r *registry) use(handle interface{}, kind Kind, op string) *Object {
	o, ok := handle.(*Object)
	if !ok || o == nil {
		r.problems = append(r.problems, fmt.Sprintf("%s: invalid %s handle %v", op, kind, handle))
		return &Object{Kind: kind, Destroyed: true}
	}
	if o.Kind != kind {
		r.problems = append(r.problems, fmt.Sprintf("%s: expected %s, got %s", op, kind, o))
	}
	if o.Destroyed {
		r.problems = append(r.problems, fmt.Sprintf("%s: use after destroy of %s", op, o))
	}
	return o
}

func (r *registry) leaks() []string {
	var out []string
	for _, o := range r.live {
		if o.Kind == KindSwapchainImage || o.Kind == KindDescriptorSet || o.Kind == KindCommandBuffer {
			// owned by their swapchain, pool or command pool
			continue
		}
		out = append(out, o.String())
	}
	sort.Strings(out)
	return out
}
