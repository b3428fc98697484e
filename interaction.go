package glass

import (
	"fmt"
	"time"

	"github.com/chewxy/math32"
)

// InteractionState is the pointer state of the interaction controller.
type InteractionState int

const (
	StateIdle InteractionState = iota
	StateHoveringParent
	StateDraggingGroup
	StatePanning
)

// String returns the state name used in logs.
func (s InteractionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHoveringParent:
		return "hovering"
	case StateDraggingGroup:
		return "dragging"
	case StatePanning:
		return "panning"
	default:
		return fmt.Sprintf("InteractionState(%d)", int(s))
	}
}

// InteractionConfig tunes hover bubble and camera behavior.
type InteractionConfig struct {
	LingerDelay       time.Duration // bubble survives this long after leaving
	AnimationDuration time.Duration // bubble growth time
	BubbleOffset      Vec2          // target offset from parent center, in parent sizes
	BubbleSizeRatio   float32       // target bubble size relative to parent
	FitPadding        float32       // world padding used by the fit key
}

// DefaultInteractionConfig returns the shipped interaction settings.
func DefaultInteractionConfig() InteractionConfig {
	return InteractionConfig{
		LingerDelay:       500 * time.Millisecond,
		AnimationDuration: 500 * time.Millisecond,
		BubbleOffset:      Vec2{X: 0.55, Y: 0.55},
		BubbleSizeRatio:   0.35,
		FitPadding:        50,
	}
}

// deadlineTimer is a cancellable one-shot timer polled on the frame tick.
type deadlineTimer struct {
	deadline time.Time
	armed    bool
}

func (t *deadlineTimer) Arm(at time.Time) {
	t.deadline = at
	t.armed = true
}

func (t *deadlineTimer) Cancel() {
	t.armed = false
}

func (t *deadlineTimer) Armed() bool {
	return t.armed
}

// Fire returns true once when the deadline has passed, disarming the timer.
func (t *deadlineTimer) Fire(now time.Time) bool {
	if !t.armed || now.Before(t.deadline) {
		return false
	}
	t.armed = false
	return true
}

// dragSnapshot is a shape position captured at pointer-down.
type dragSnapshot struct {
	id  string
	pos Vec2
}

// Interaction turns pointer and keyboard input into shape and camera
// mutations. All methods run synchronously on the frame tick.
type Interaction struct {
	store  *ShapeStore
	camera *Camera
	cfg    InteractionConfig

	state InteractionState

	// Hover bubble
	hoverParent string
	animStart   time.Time
	linger      deadlineTimer

	// Drag
	dragStart Vec2
	snapshots []dragSnapshot

	// Pan
	panStartScreen Vec2
	panStartCenter Vec2
}

// NewInteraction creates a controller mutating store and camera.
func NewInteraction(store *ShapeStore, camera *Camera, cfg InteractionConfig) *Interaction {
	return &Interaction{store: store, camera: camera, cfg: cfg}
}

// State returns the current pointer state.
func (in *Interaction) State() InteractionState {
	return in.state
}

// HoverParent returns the id of the shape the bubble belongs to, or "".
func (in *Interaction) HoverParent() string {
	return in.hoverParent
}

// HandleInput dispatches one frame of polled input.
func (in *Interaction) HandleInput(input *InputState, now time.Time) {
	if input == nil {
		return
	}
	pos := Vec2{X: input.MouseX, Y: input.MouseY}
	if input.MouseClicked(MouseButtonLeft) {
		in.PointerDown(pos, now)
	}
	if input.MouseMoved() {
		in.PointerMove(pos, now)
	}
	if input.MouseReleased(MouseButtonLeft) {
		in.PointerUp(pos, now)
	}
	for k := KeyNone + 1; k < KeyCount; k++ {
		if input.KeyPressed(k) {
			in.KeyPress(k)
		}
	}
}

// PointerMove handles pointer motion in screen pixels.
func (in *Interaction) PointerMove(screen Vec2, now time.Time) {
	switch in.state {
	case StateDraggingGroup:
		delta := in.camera.ScreenToWorld(screen.X, screen.Y).Sub(in.dragStart)
		for _, snap := range in.snapshots {
			in.store.SetPosition(snap.id, snap.pos.Add(delta))
		}
		return
	case StatePanning:
		// Screen deltas, since ScreenToWorld moves with the camera.
		delta := in.camera.ScreenDeltaToWorld(screen.Sub(in.panStartScreen))
		c := in.panStartCenter.Sub(delta)
		in.camera.SetCenter(c.X, c.Y)
		return
	}

	world := in.camera.ScreenToWorld(screen.X, screen.Y)
	id, hit := in.store.HitTest(world)
	switch {
	case hit && id == HoverShapeID:
		in.linger.Cancel()
	case hit && id == in.hoverParent:
		in.linger.Cancel()
		in.state = StateHoveringParent
	case hit:
		in.despawnBubble()
		in.spawnBubble(id, now)
	default:
		if in.hoverParent != "" && !in.linger.Armed() {
			in.linger.Arm(now.Add(in.cfg.LingerDelay))
		}
	}
}

// PointerDown starts a group drag on a draggable shape or a camera pan on
// empty space. Pressing the bubble drags its parent's group.
func (in *Interaction) PointerDown(screen Vec2, now time.Time) {
	world := in.camera.ScreenToWorld(screen.X, screen.Y)
	id, hit := in.store.HitTest(world)
	if hit && id == HoverShapeID && in.hoverParent != "" {
		id = in.hoverParent
	}
	if hit {
		if sh, ok := in.store.Get(id); ok && sh.Draggable {
			in.beginDrag(sh, world)
			return
		}
	}
	in.state = StatePanning
	in.panStartScreen = screen
	in.panStartCenter = in.camera.Center()
}

func (in *Interaction) beginDrag(sh Shape, world Vec2) {
	in.state = StateDraggingGroup
	in.dragStart = world
	in.snapshots = in.snapshots[:0]
	for _, member := range in.store.Group(sh.ZIndex) {
		in.snapshots = append(in.snapshots, dragSnapshot{id: member.ID, pos: member.Position})
	}
	interactionLogger().Debug("drag start", "shape", sh.ID, "zIndex", sh.ZIndex, "members", len(in.snapshots))
}

// PointerUp ends a drag or pan.
func (in *Interaction) PointerUp(screen Vec2, now time.Time) {
	if in.state == StateDraggingGroup || in.state == StatePanning {
		in.state = StateIdle
		in.snapshots = in.snapshots[:0]
	}
}

// KeyPress handles the diagnostic keyboard shortcuts.
func (in *Interaction) KeyPress(k Key) {
	if d := k.Digit(); d >= 0 {
		in.store.SelectIndex(d)
		return
	}
	switch k {
	case KeyPlus, KeyMinus:
		id := in.store.Selected()
		sh, ok := in.store.Get(id)
		if !ok {
			return
		}
		z := sh.ZIndex + 1
		if k == KeyMinus {
			z = max(sh.ZIndex-1, 0)
		}
		in.store.SetZIndex(id, z)
	case KeySpace:
		in.store.CycleSelection()
	case KeyF:
		in.FitAll()
	case KeyEscape:
		in.store.Select("")
	}
}

// FitAll fits the camera to every visible shape except the bubble.
func (in *Interaction) FitAll() bool {
	var nodes []Bounds
	for _, sh := range in.store.Visible() {
		if sh.ID != HoverShapeID {
			nodes = append(nodes, sh.Bounds())
		}
	}
	return in.camera.FitToView(nodes, in.cfg.FitPadding)
}

// Tick advances the bubble animation and fires the linger timer.
func (in *Interaction) Tick(now time.Time) {
	if in.linger.Fire(now) {
		in.despawnBubble()
		return
	}
	if in.hoverParent == "" {
		return
	}
	parent, ok := in.store.Get(in.hoverParent)
	if !ok {
		in.despawnBubble()
		return
	}

	t := float32(1)
	if in.cfg.AnimationDuration > 0 {
		t = clampf(float32(now.Sub(in.animStart))/float32(in.cfg.AnimationDuration), 0, 1)
	}
	e := easeInOutCubic(t)

	from, to, size := in.bubbleTrack(parent)
	pos := from.Add(to.Sub(from).Mul(e))
	sz := Size{Width: size.Width * e, Height: size.Height * e}
	// The bubble follows the parent's depth group so it keeps merging with it.
	in.store.Update(HoverShapeID, ShapePatch{Position: &pos, Size: &sz, ZIndex: &parent.ZIndex, Tint: &parent.Tint})
}

// bubbleTrack returns the animation start (parent corner), end position and
// final size of the bubble for the parent's current placement.
func (in *Interaction) bubbleTrack(parent Shape) (from, to Vec2, size Size) {
	half := parent.Size.Half()
	from = parent.Position.Add(half)
	to = parent.Position.Add(Vec2{
		X: parent.Size.Width * in.cfg.BubbleOffset.X,
		Y: parent.Size.Height * in.cfg.BubbleOffset.Y,
	})
	size = Size{
		Width:  parent.Size.Width * in.cfg.BubbleSizeRatio,
		Height: parent.Size.Height * in.cfg.BubbleSizeRatio,
	}
	return from, to, size
}

func (in *Interaction) spawnBubble(parentID string, now time.Time) {
	parent, ok := in.store.Get(parentID)
	if !ok {
		return
	}
	from, _, _ := in.bubbleTrack(parent)
	id := in.store.Add(ShapePatch{
		ID:        HoverShapeID,
		Position:  &from,
		Size:      &Size{},
		Radius:    &parent.Radius,
		Roundness: &parent.Roundness,
		Draggable: Ptr(false),
		ZIndex:    &parent.ZIndex,
		Tint:      &parent.Tint,
	})
	if id == "" {
		interactionLogger().Warn("hover bubble already present", "parent", parentID)
		return
	}
	in.hoverParent = parentID
	in.animStart = now
	in.linger.Cancel()
	in.state = StateHoveringParent
	interactionLogger().Debug("hover bubble spawned", "parent", parentID)
}

// despawnBubble removes the bubble. The bubble may already be gone.
func (in *Interaction) despawnBubble() {
	in.linger.Cancel()
	if in.hoverParent == "" {
		return
	}
	in.store.Remove(HoverShapeID)
	in.hoverParent = ""
	if in.state == StateHoveringParent {
		in.state = StateIdle
	}
}

// Close cancels pending timers and removes the bubble.
func (in *Interaction) Close() {
	in.despawnBubble()
	in.state = StateIdle
	in.snapshots = nil
}

// easeInOutCubic maps t in [0,1] onto a cubic ease-in-out curve.
func easeInOutCubic(t float32) float32 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math32.Pow(-2*t+2, 3)/2
}
