package renderer

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu/gputest"
)

func TestDrawFrameRecordsAndPresents(t *testing.T) {
	f := newFixture(t, nil)
	f.addLitQuad(t)

	if err := f.r.DrawFrame(testScene()); err != nil {
		t.Fatalf("DrawFrame: %v", err)
	}

	subs := drawSubmissions(f.dev)
	if len(subs) != 1 {
		t.Fatalf("%d frame submissions, want 1", len(subs))
	}
	slot := f.r.frames.Slots[0]
	info := subs[0].Info
	if len(info.WaitStages) != 1 || info.WaitStages[0] != gpu.PipelineStageColorAttachmentOutput {
		t.Errorf("wait stages = %v", info.WaitStages)
	}
	if info.WaitSemaphores[0] != slot.ImageAvailable || info.SignalSemaphores[0] != slot.RenderFinished {
		t.Error("submission does not use the slot semaphores")
	}
	if subs[0].Fence != slot.InFlight {
		t.Error("submission does not signal the slot fence")
	}

	want := []string{
		"CmdBeginRenderPass",
		"CmdBindPipeline",
		"CmdSetViewport",
		"CmdSetScissor",
		"CmdBindVertexBuffer",
		"CmdBindIndexBuffer",
		"CmdBindDescriptorSet",
		"CmdDrawIndexed(6)",
		"CmdEndRenderPass",
	}
	if got := subs[0].CommandRecords[0]; strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("recorded %v, want %v", got, want)
	}

	presents := f.dev.Presents()
	if len(presents) != 1 || presents[0].WaitSemaphores[0] != slot.RenderFinished {
		t.Errorf("presents = %+v", presents)
	}
	if f.r.frames.Current != 1 {
		t.Errorf("current slot = %d, want 1", f.r.frames.Current)
	}
	if f.r.Rebuilds() != 0 {
		t.Errorf("unexpected rebuild")
	}
	f.checkProblems(t)
}

func TestSlotsRotate(t *testing.T) {
	f := newFixture(t, nil)
	f.addLitQuad(t)

	var slots []int
	for i := 0; i < 5; i++ {
		slots = append(slots, f.r.frames.Current)
		if err := f.r.DrawFrame(testScene()); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	if fmt.Sprint(slots) != "[0 1 0 1 0]" {
		t.Errorf("slots = %v", slots)
	}
	f.checkProblems(t)
}

func TestDrawFrameBlocksOnInFlightFence(t *testing.T) {
	f := newFixture(t, nil)
	f.addLitQuad(t)
	f.dev.ManualFences = true

	slots := f.r.MaxFramesInFlight()
	frames := slots + 1
	done := make(chan error, 1)
	go func() {
		for i := 0; i < frames; i++ {
			if err := f.r.DrawFrame(testScene()); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	if !f.dev.WaitBlocked(1, 2*time.Second) {
		t.Fatal("renderer never blocked on a fence")
	}
	if n := len(drawSubmissions(f.dev)); n != slots {
		t.Errorf("%d frames submitted before blocking, want %d", n, slots)
	}
	select {
	case err := <-done:
		t.Fatalf("frames finished while the GPU was busy: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	f.dev.SignalNext()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("DrawFrame: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("renderer still blocked after the fence was signaled")
	}
	if n := len(drawSubmissions(f.dev)); n != frames {
		t.Errorf("%d frames submitted, want %d", n, frames)
	}
	f.dev.SignalAll()
	f.checkProblems(t)
}

func TestDrawFrameWaitsForImageInUse(t *testing.T) {
	f := newFixture(t, nil)
	f.addLitQuad(t)
	f.dev.ManualFences = true

	// Slot 0 renders into image 0.
	if err := f.r.DrawFrame(testScene()); err != nil {
		t.Fatalf("DrawFrame: %v", err)
	}
	// Slot 1 gets image 0 again while slot 0 still renders into it.
	f.dev.SetNextImage(f.r.Swapchain.Handle, 0)

	done := make(chan error, 1)
	go func() { done <- f.r.DrawFrame(testScene()) }()

	if !f.dev.WaitBlocked(1, 2*time.Second) {
		t.Fatal("renderer did not wait for the fence of the image")
	}
	if n := len(drawSubmissions(f.dev)); n != 1 {
		t.Errorf("%d submissions while the image was busy, want 1", n)
	}
	f.dev.SignalNext()
	if err := <-done; err != nil {
		t.Fatalf("DrawFrame: %v", err)
	}
	if f.r.frames.imagesInFlight[0] != f.r.frames.Slots[1].InFlight {
		t.Error("image 0 not mapped to the fence of slot 1")
	}
	f.dev.SignalAll()
	f.checkProblems(t)
}

func TestAcquireOutOfDateSkipsFrame(t *testing.T) {
	f := newFixture(t, nil)
	f.addLitQuad(t)
	f.dev.ScriptAcquire(gpu.ErrorOutOfDate)

	if err := f.r.DrawFrame(testScene()); err != nil {
		t.Fatalf("DrawFrame: %v", err)
	}
	if n := len(drawSubmissions(f.dev)); n != 0 {
		t.Errorf("%d submissions, want 0", n)
	}
	if n := len(f.dev.Presents()); n != 0 {
		t.Errorf("%d presents, want 0", n)
	}
	if f.r.Rebuilds() != 1 {
		t.Errorf("rebuilds = %d, want 1", f.r.Rebuilds())
	}
	if n := f.dev.CallCount("CreateSwapchain"); n != 2 {
		t.Errorf("CreateSwapchain called %d times, want 2", n)
	}

	// The next frame renders normally on the same slot.
	if err := f.r.DrawFrame(testScene()); err != nil {
		t.Fatalf("DrawFrame: %v", err)
	}
	if n := len(drawSubmissions(f.dev)); n != 1 {
		t.Errorf("%d submissions, want 1", n)
	}
	f.checkProblems(t)
}

func TestRebuildTriggers(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(f *fixture)
	}{
		{"suboptimal acquire", func(f *fixture) { f.dev.ScriptAcquire(gpu.Suboptimal) }},
		{"out of date present", func(f *fixture) { f.dev.ScriptPresent(gpu.ErrorOutOfDate) }},
		{"suboptimal present", func(f *fixture) { f.dev.ScriptPresent(gpu.Suboptimal) }},
		{"resize event", func(f *fixture) { core.Publish(f.bus, core.WindowResized{Width: 800, Height: 600}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.addLitQuad(t)
			tt.prepare(f)

			if err := f.r.DrawFrame(testScene()); err != nil {
				t.Fatalf("DrawFrame: %v", err)
			}
			if n := len(f.dev.Presents()); n != 1 {
				t.Errorf("%d presents, want 1", n)
			}
			if f.r.Rebuilds() != 1 {
				t.Errorf("rebuilds = %d, want 1", f.r.Rebuilds())
			}

			if err := f.r.DrawFrame(testScene()); err != nil {
				t.Fatalf("DrawFrame: %v", err)
			}
			if f.r.Rebuilds() != 1 {
				t.Errorf("rebuilds = %d after a clean frame, want 1", f.r.Rebuilds())
			}
			f.checkProblems(t)
		})
	}
}

func TestFatalResults(t *testing.T) {
	f := newFixture(t, nil)
	f.addLitQuad(t)

	f.dev.ScriptAcquire(gpu.ErrorDeviceLost)
	err := f.r.DrawFrame(testScene())
	var gerr *gpu.Error
	if !errors.As(err, &gerr) || gerr.Result != gpu.ErrorDeviceLost || gerr.Op != "AcquireNextImage" {
		t.Errorf("acquire: got %v", err)
	}

	f.dev.ScriptPresent(gpu.ErrorSurfaceLost)
	err = f.r.DrawFrame(testScene())
	if !errors.As(err, &gerr) || gerr.Result != gpu.ErrorSurfaceLost || gerr.Op != "QueuePresent" {
		t.Errorf("present: got %v", err)
	}
}

func TestRebuildKeepsPerImageResourcesInLockstep(t *testing.T) {
	f := newFixture(t, nil)
	mesh := f.addLitQuad(t)

	oldImages := f.r.Swapchain.ImageCount()
	pipelines := f.dev.Created(gputest.KindPipeline)
	renderPasses := f.dev.Created(gputest.KindRenderPass)
	oldSets := make([]gpu.DescriptorSet, oldImages)
	for i := range oldSets {
		oldSets[i] = mesh.DescriptorSet(i)
	}

	f.phys.Capabilities.MinImageCount = 4
	if err := f.r.RebuildSwapchain(); err != nil {
		t.Fatalf("RebuildSwapchain: %v", err)
	}

	images := f.r.Swapchain.ImageCount()
	if images != 5 {
		t.Fatalf("image count = %d, want 5", images)
	}
	uniforms, sets := mesh.ImageResourceCounts()
	if uniforms != images || sets != images {
		t.Errorf("uniforms %d, sets %d, images %d", uniforms, sets, images)
	}
	if len(f.r.frames.imagesInFlight) != images {
		t.Errorf("in flight map has %d entries, want %d", len(f.r.frames.imagesInFlight), images)
	}

	destroyed := []struct {
		kind gputest.Kind
		want int
	}{
		{gputest.KindSwapchain, 1},
		{gputest.KindFramebuffer, oldImages},
		// swapchain views, depth view
		{gputest.KindImageView, oldImages + 1},
		{gputest.KindDescriptorPool, 1},
		{gputest.KindPipeline, 0},
		{gputest.KindRenderPass, 0},
	}
	for _, d := range destroyed {
		if got := f.dev.Destroyed(d.kind); got != d.want {
			t.Errorf("%s destroyed %d times, want %d", d.kind, got, d.want)
		}
	}
	for _, s := range oldSets {
		if !s.(*gputest.Object).Destroyed {
			t.Errorf("old descriptor set %v still alive", s)
		}
	}
	if f.dev.Created(gputest.KindPipeline) != pipelines || f.dev.Created(gputest.KindRenderPass) != renderPasses {
		t.Error("pipeline or render pass recreated on rebuild")
	}
	if f.dev.Live(gputest.KindFramebuffer) != images {
		t.Errorf("%d live framebuffers, want %d", f.dev.Live(gputest.KindFramebuffer), images)
	}

	if err := f.r.DrawFrame(testScene()); err != nil {
		t.Fatalf("DrawFrame after rebuild: %v", err)
	}
	f.checkProblems(t)
}

func TestShutdownReleasesEverything(t *testing.T) {
	f := newFixture(t, nil)
	f.addLitQuad(t)
	for i := 0; i < 3; i++ {
		if err := f.r.DrawFrame(testScene()); err != nil {
			t.Fatalf("DrawFrame: %v", err)
		}
	}

	instance := f.r.Instance.(*gputest.Instance)
	f.r.Shutdown()

	if !f.dev.IsDestroyed() || !instance.IsDestroyed() {
		t.Error("device or instance not destroyed")
	}
	if leaks := f.dev.Leaks(); len(leaks) > 0 {
		t.Errorf("leaked: %v", leaks)
	}
	f.checkProblems(t)

	// Resize events after shutdown reach nobody.
	core.Publish(f.bus, core.WindowResized{Width: 1, Height: 1})
}
