package rig

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Slot is the channel set of a scene-graph transform that rig components
// write their results into.
//
// At any time at most one producer holds write authority over a slot.
// Handing a slot from one producer to another is an explicit [Slot.Transfer]
// (or Release followed by Claim); two producers never write the same slot.
// Slots are safe for concurrent use.
type Slot struct {
	Name string

	mu            sync.Mutex
	local         Transform
	parentInverse mgl64.Mat4
	owner         any
}

// NewSlot returns an unowned slot holding the given local transform and an
// identity parent inverse matrix.
func NewSlot(name string, local Transform) *Slot {
	return &Slot{
		Name:          name,
		local:         local,
		parentInverse: mgl64.Ident4(),
	}
}

// SetParentInverse sets the matrix used by [Slot.WriteWorld] to bring world
// space results into the slot's local space.
func (s *Slot) SetParentInverse(m mgl64.Mat4) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parentInverse = m
}

// Owner returns the producer holding write authority, or nil.
func (s *Slot) Owner() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

// Claim gives p write authority. Claiming a slot p already owns is a no-op.
func (s *Slot) Claim(p any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != nil && s.owner != p {
		return errors.Wrapf(ErrAuthorityHeld, "slot %q", s.Name)
	}
	s.owner = p
	return nil
}

// Release gives up p's write authority. The slot keeps its last written
// value.
func (s *Slot) Release(p any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != p {
		return errors.Wrapf(ErrNotAuthority, "releasing slot %q", s.Name)
	}
	s.owner = nil
	return nil
}

// Transfer hands write authority from one producer to another. It fails if
// from does not currently own the slot.
func (s *Slot) Transfer(from, to any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != from {
		return errors.Wrapf(ErrNotAuthority, "transferring slot %q", s.Name)
	}
	s.owner = to
	return nil
}

// Write replaces the slot's local channels. Only the owner may write.
func (s *Slot) Write(p any, xf Transform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != p {
		return errors.Wrapf(ErrNotAuthority, "writing slot %q", s.Name)
	}
	s.local = xf
	return nil
}

// WriteWorld writes a world space matrix, converting it to local channels
// through the slot's parent inverse matrix.
func (s *Slot) WriteWorld(p any, world mgl64.Mat4) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != p {
		return errors.Wrapf(ErrNotAuthority, "writing slot %q", s.Name)
	}
	s.local = TransformFromMatrix(s.parentInverse.Mul4(world))
	return nil
}

// Read returns the slot's local channels.
func (s *Slot) Read() Transform {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local
}

// World returns the slot's world matrix.
func (s *Slot) World() mgl64.Mat4 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parentInverse.Inv().Mul4(s.local.Matrix())
}
