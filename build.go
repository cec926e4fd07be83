package rig

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// TangentMode selects how [BuildCurve] derives the tangents of cubic
// curves.
type TangentMode int

const (
	// TangentNeighbors derives each tangent from the chord between the
	// neighboring transforms, like a Catmull-Rom spline. End tangents point
	// at the only neighbor.
	TangentNeighbors TangentMode = iota
	// TangentRotation points each tangent along the transform's forward
	// axis, so rotating a control bends the curve.
	TangentRotation
)

func (m TangentMode) String() string {
	switch m {
	case TangentNeighbors:
		return "neighbors"
	case TangentRotation:
		return "rotation"
	default:
		return "TangentMode(?)"
	}
}

// DefaultTangentLength is the handle length factor that makes
// [TangentNeighbors] produce a uniform Catmull-Rom spline.
const DefaultTangentLength = 1.0 / 3.0

// BuildOptions configures [BuildCurve].
type BuildOptions struct {
	// Degree is 1 for a polyline through the transforms or 3 for a cubic
	// curve.
	Degree      int
	TangentMode TangentMode
	// TangentLength scales the handles of cubic curves. With
	// TangentNeighbors it multiplies the Catmull-Rom tangent, with
	// TangentRotation it is a fraction of each span's chord length. Zero
	// selects DefaultTangentLength.
	TangentLength float64
	// ForwardAxis is the local axis used as tangent by TangentRotation.
	ForwardAxis Axis

	// BuildOffsetCurve requests a second curve with identical
	// parameterization, displaced from each transform along Offset, given
	// in the transform's local frame. It serves as the up reference for
	// sampling.
	BuildOffsetCurve bool
	Offset           mgl64.Vec3

	// TweakBase and Tweak, when both set, add the difference Tweak -
	// TweakBase to the built curves. They must have the same
	// parameterization as the built curve.
	TweakBase *Curve
	Tweak     *Curve
}

// DefaultBuildOptions returns options for a cubic Catmull-Rom curve with an
// offset curve one unit along each transform's Y axis.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		Degree:           3,
		TangentMode:      TangentNeighbors,
		TangentLength:    DefaultTangentLength,
		ForwardAxis:      AxisX,
		BuildOffsetCurve: true,
		Offset:           mgl64.Vec3{0, 1, 0},
	}
}

// BuildCurve builds a curve through the positions of xforms. The offset
// curve is nil unless opts.BuildOffsetCurve is set.
func BuildCurve(xforms []Transform, opts BuildOptions) (curve, offset *Curve, err error) {
	if len(xforms) < 2 {
		return nil, nil, errors.Wrapf(ErrInsufficientControlPoints, "building curve from %d transforms", len(xforms))
	}
	if opts.Degree != 1 && opts.Degree != 3 {
		return nil, nil, errors.Wrapf(ErrInvalidDegree, "degree %d", opts.Degree)
	}

	// owners[i] is the index of the transform whose frame displaces point i
	// of the offset curve.
	var owners []int
	curve = &Curve{Degree: opts.Degree}
	if opts.Degree == 1 {
		curve.Points = make([]mgl64.Vec3, len(xforms))
		owners = make([]int, len(xforms))
		for i, xf := range xforms {
			curve.Points[i] = xf.Translate
			owners[i] = i
		}
	} else {
		curve.Points, owners = cubicPoints(xforms, opts)
	}

	if opts.BuildOffsetCurve {
		offset = &Curve{Degree: opts.Degree, Points: make([]mgl64.Vec3, len(curve.Points))}
		for i, p := range curve.Points {
			offset.Points[i] = p.Add(xforms[owners[i]].Quat().Rotate(opts.Offset))
		}
	}

	if opts.TweakBase != nil || opts.Tweak != nil {
		if opts.TweakBase == nil || opts.Tweak == nil ||
			!curve.Matches(opts.TweakBase) || !curve.Matches(opts.Tweak) {
			return nil, nil, errors.Wrap(ErrMismatchedParameterization, "applying tweak curves")
		}
		for i := range curve.Points {
			d := opts.Tweak.Points[i].Sub(opts.TweakBase.Points[i])
			curve.Points[i] = curve.Points[i].Add(d)
			if offset != nil {
				offset.Points[i] = offset.Points[i].Add(d)
			}
		}
	}
	return curve, offset, nil
}

func cubicPoints(xforms []Transform, opts BuildOptions) ([]mgl64.Vec3, []int) {
	n := len(xforms)
	l := opts.TangentLength
	if l == 0 {
		l = DefaultTangentLength
	}

	pos := func(i int) mgl64.Vec3 { return xforms[i].Translate }
	// out[i] and in[i] are the handle offsets leaving and entering
	// transform i.
	out := make([]mgl64.Vec3, n)
	in := make([]mgl64.Vec3, n)
	switch opts.TangentMode {
	case TangentRotation:
		for i := range n {
			dir := xforms[i].Axis(opts.ForwardAxis)
			if i < n-1 {
				out[i] = dir.Mul(l * pos(i + 1).Sub(pos(i)).Len())
			}
			if i > 0 {
				in[i] = dir.Mul(l * pos(i).Sub(pos(i - 1)).Len())
			}
		}
	default:
		for i := range n {
			var m mgl64.Vec3
			switch i {
			case 0:
				m = pos(1).Sub(pos(0))
			case n - 1:
				m = pos(n - 1).Sub(pos(n - 2))
			default:
				m = pos(i + 1).Sub(pos(i - 1)).Mul(0.5)
			}
			out[i] = m.Mul(l)
			in[i] = m.Mul(l)
		}
	}

	points := make([]mgl64.Vec3, 0, 3*(n-1)+1)
	owners := make([]int, 0, cap(points))
	for i := range n - 1 {
		points = append(points, pos(i), pos(i).Add(out[i]), pos(i+1).Sub(in[i+1]))
		owners = append(owners, i, i, i+1)
	}
	points = append(points, pos(n-1))
	owners = append(owners, n-1)
	return points, owners
}
