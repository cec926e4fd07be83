// Package rig provides the curve-driven interpolation and deformation engine
// used by character rig modules: building curves through control transforms,
// sampling them to drive chains of output transforms, and the tweak, squash,
// spring and blending layers that sit on top.
//
// # Features
//
// We provide the following notable features:
//
//   - Building curves through transforms (see [BuildCurve])
//   - Resampling curves by parameter or arc length (see [Resample])
//   - Sampling curves into oriented, scaled outputs (see [Sampler])
//   - Sliding tweak controls and sine waves (see [VarFK])
//   - Spring dynamics (see [SpringStep])
//   - Squash, rolling and wheel nodes (see [SimpleSquash], [SphereRoll], [WheelDrive])
//   - IK/FK blending and space switching (see [Blend], [SpaceSwitch])
//   - A composition of all of the above (see [Chain])
//
// # Curves
//
// [Curve] is a piecewise curve through 3D points, either a polyline (degree
// 1) or a sequence of cubic Béziers (degree 3). Its parametric domain is [0,
// n] for a curve of n spans, with integer parameters falling on span
// boundaries. [Curve.Segment] returns individual spans as [Line] or
// [CubicBez], both of which implement [ParametricCurve] and [Arclener].
//
// Most curves come with an up-curve of identical parameterization. The
// up-curve is never output; it only provides the up direction when orienting
// samples, so that the frame does not flip where a curve's tangent turns.
//
// # Transforms
//
// [Transform] holds translate, rotate and scale channels the way a scene
// graph does, with rotations as xyz Euler angles in radians. Internally,
// orientations are quaternions and matrices from the mgl64 package, which
// use column vectors.
//
// # Parameters
//
// Every tunable of every component is a [Param]: a named, typed value that
// can be set directly or connected to an upstream [Source], including
// another parameter. Components read their parameters on every evaluation,
// so changes and connections take effect immediately.
//
// # Outputs
//
// Components that drive scene-graph transforms write into [Slot] values. A
// slot has at most one writer at a time; handing a slot to another component
// is explicit (see [Slot.Transfer]).
//
// # State
//
// Springs, rolling spheres and wheels integrate over frames. Their step
// functions take the previous state and return the next one, and reset to
// rest at their start frame or whenever the frame does not advance. They
// must be evaluated once per frame, in frame order.
//
// # Errors
//
// Mis-wired components are reported by their constructors, with errors that
// can be compared against the sentinel errors of this package using
// [errors.Is]. Evaluation never fails because of degenerate geometry: a
// curve collapsing to a point keeps its previous orientation, and divisions
// by zero hold their last valid result.
//
// # Literature
//
// This package makes use of the following ideas:
//   - [A Primer on Bézier Curves]
//   - [An Enhancement of the Bisection Method Average Performance Preserving Minmax Optimality] by Oliveira and Takahashi
//   - [Cubic Hermite spline]
//
// [A Primer on Bézier Curves]: https://pomax.github.io/bezierinfo/
// [An Enhancement of the Bisection Method Average Performance Preserving Minmax Optimality]: https://dl.acm.org/doi/10.1145/3423597
// [Cubic Hermite spline]: https://en.wikipedia.org/wiki/Cubic_Hermite_spline
package rig
