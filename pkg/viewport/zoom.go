package viewport

import (
	"math"
)

// NavKind tells what a zoom gesture did to the plane.
type NavKind int

const (
	NavNone NavKind = iota
	NavEntered
	NavExited
)

func (k NavKind) String() string {
	switch k {
	case NavEntered:
		return "entered"
	case NavExited:
		return "exited"
	default:
		return "none"
	}
}

// Nav reports a plane transition caused by zooming.
type Nav struct {
	Kind  NavKind
	Plane int   // plane on screen after the transition
	Frame Frame // the frame pushed (enter) or popped (exit)
}

// ZoomAt applies a wheel delta around the screen point (sx, sy). Positive
// deltas zoom out. hoverID is the card under the pointer, 0 for none.
func (e *Engine) ZoomAt(sx, sy, wheelDelta float64, hoverID int) Nav {
	factor := math.Exp(-wheelDelta * e.cfg.WheelSensitivity)
	return e.ZoomTo(sx, sy, e.zoom*factor, hoverID)
}

// ZoomTo sets the zoom factor while keeping the world point under (sx, sy)
// fixed, then applies semantic navigation: reaching ZoomEnterThreshold over a
// card enters it, dropping to ZoomExitThreshold while nested exits and
// refocuses the child that was left. Either transition resets the zoom to
// BaseZoom; only the pan is remembered per plane.
func (e *Engine) ZoomTo(sx, sy, zoom float64, hoverID int) Nav {
	zoom = clamp(zoom, e.cfg.MinZoom, e.cfg.MaxZoom)
	w := e.WorldCoords(sx, sy)
	e.zoom = zoom
	e.viewX = sx - w.X*zoom
	e.viewY = sy - w.Y*zoom
	e.markDirty()

	switch {
	case zoom >= e.cfg.ZoomEnterThreshold && hoverID != Root:
		if _, onPlane := e.positions[hoverID]; !onPlane {
			return Nav{Kind: NavNone, Plane: e.plane}
		}
		if !e.Enter(hoverID) {
			return Nav{Kind: NavNone, Plane: e.plane}
		}
		e.zoom = e.cfg.BaseZoom
		e.Reconcile()
		e.CenterOnContent()
		return Nav{Kind: NavEntered, Plane: e.plane, Frame: e.stack[len(e.stack)-1]}

	case zoom <= e.cfg.ZoomExitThreshold && len(e.stack) > 0:
		frame, _ := e.Exit()
		e.zoom = e.cfg.BaseZoom
		e.Reconcile()
		if !e.FocusOn(frame.EnteredChildID) {
			e.CenterOnContent()
		}
		return Nav{Kind: NavExited, Plane: e.plane, Frame: frame}
	}
	return Nav{Kind: NavNone, Plane: e.plane}
}

// ResetZoom returns to BaseZoom around the screen centre.
func (e *Engine) ResetZoom() {
	w := e.WorldCoords(e.screenW/2, e.screenH/2)
	e.zoom = e.cfg.BaseZoom
	e.viewX = e.screenW/2 - w.X*e.zoom
	e.viewY = e.screenH/2 - w.Y*e.zoom
	e.markDirty()
}

func clamp(v, lo, hi float64) float64 {
	if lo > 0 && v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

// StartMomentum begins coasting with a velocity in screen pixels per frame.
// Velocities below MinVelocity do not start anything.
func (e *Engine) StartMomentum(vx, vy float64) bool {
	if math.Hypot(vx, vy) < e.cfg.MinVelocity {
		e.CancelMomentum()
		return false
	}
	e.vel = Point{X: vx, Y: vy}
	e.coasting = true
	return true
}

// StepMomentum advances one animation frame: pans by the velocity, then
// decays it by Friction. It returns false once the animation has stopped.
func (e *Engine) StepMomentum() bool {
	if !e.coasting {
		return false
	}
	e.Pan(e.vel.X, e.vel.Y)
	e.vel.X *= e.cfg.Friction
	e.vel.Y *= e.cfg.Friction
	if math.Hypot(e.vel.X, e.vel.Y) < e.cfg.MinVelocity {
		e.CancelMomentum()
		return false
	}
	return true
}

// CancelMomentum stops any coasting animation.
func (e *Engine) CancelMomentum() {
	e.coasting = false
	e.vel = Point{}
}

// Coasting reports whether a momentum animation is running.
func (e *Engine) Coasting() bool { return e.coasting }
