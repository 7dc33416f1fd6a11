// Package robot is the dual-arm kinematic model. It binds each arm's named joints on one shared body
// (Unified layout) or on one body per arm (Split layout), applies actuator gains, and exposes the same per-arm
// interface for homing, joint state, end effector poses, the gripper and planned motion in both layouts.
package robot

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/dualarm/simcore/components/arm"
	"github.com/dualarm/simcore/components/gripper"
	"github.com/dualarm/simcore/config"
	"github.com/dualarm/simcore/control"
	"github.com/dualarm/simcore/logging"
	"github.com/dualarm/simcore/motionplan"
	"github.com/dualarm/simcore/physics"
	"github.com/dualarm/simcore/referenceframe"
)

// Layout says how the two arms are backed by physics bodies.
type Layout int

const (
	// Unified means both arms are chains of one articulated body.
	Unified Layout = iota
	// Split means each arm is its own body.
	Split
)

func (l Layout) String() string {
	switch l {
	case Unified:
		return "unified"
	case Split:
		return "split"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// LayoutFor returns the layout selected by cfg.
func LayoutFor(cfg *config.RobotConfig) Layout {
	if cfg.DualArmEmbodied {
		return Unified
	}
	return Split
}

type options struct {
	planners [2]motionplan.Planner
	metrics  *control.Metrics
}

// Option configures a Robot.
type Option func(*options)

// WithPlanner sets the motion planner used for one arm.
func WithPlanner(tag arm.Tag, p motionplan.Planner) Option {
	return func(o *options) {
		o.planners[tag.Index()] = p
	}
}

// WithPlanners sets the same motion planner for both arms.
func WithPlanners(p motionplan.Planner) Option {
	return func(o *options) {
		o.planners = [2]motionplan.Planner{p, p}
	}
}

// WithMetrics records stepping and planning counts.
func WithMetrics(m *control.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

type armHandle struct {
	tag    arm.Tag
	spec   *config.EmbodimentSpec
	body   physics.Body
	logger logging.Logger

	armJoints     []physics.Joint
	gripperJoints []physics.Joint
	wrist         physics.Joint
	ee            physics.Joint
	camera        physics.Link
	// indices into body.ActiveJoints()
	armIndices     []int
	gripperIndices []int

	gripper *gripper.Normalizer
	planner *motionplan.Adapter
	cycle   *control.Cycle

	origin    referenceframe.PlanningPose
	hasOrigin bool
}

// Robot is a dual-arm manipulator inside a physics scene. It must be driven from the goroutine that owns the
// scene. Per-arm methods that return an error or a result report an invalid arm.Tag through it; the others
// panic on one.
type Robot struct {
	scene    physics.Scene
	cfg      *config.RobotConfig
	layout   Layout
	bodies   []physics.Body
	arms     [2]*armHandle
	executor *control.Executor
	metrics  *control.Metrics
	logger   logging.Logger
}

// New loads the bodies described by cfg into scene, binds every named joint and link, and applies gains. A
// joint or link named by the configuration but absent from the bodies is a *config.ConfigurationError.
func New(scene physics.Scene, cfg *config.RobotConfig, logger logging.Logger, opts ...Option) (*Robot, error) {
	if scene == nil {
		return nil, errors.New("robot needs a physics scene")
	}
	if cfg == nil {
		return nil, config.NewConfigurationError("", errors.New("robot config is required"))
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	r := &Robot{
		scene:   scene,
		cfg:     cfg,
		layout:  LayoutFor(cfg),
		metrics: o.metrics,
		logger:  logger,
	}
	r.executor = control.NewExecutor(scene, logger.Sublogger("executor"), o.metrics)

	if err := r.loadBodies(); err != nil {
		return nil, err
	}
	var err error
	for _, tag := range arm.Tags() {
		h, bindErr := r.bind(tag, o.planners[tag.Index()])
		err = multierr.Append(err, bindErr)
		r.arms[tag.Index()] = h
	}
	if err != nil {
		return nil, err
	}
	if err := r.checkDisjoint(); err != nil {
		return nil, err
	}
	r.ApplyGains()
	r.logger.Infow("robot initialized", "layout", r.layout, "bodies", len(r.bodies))
	return r, nil
}

func (r *Robot) loadBodies() error {
	specs := []*config.EmbodimentSpec{r.cfg.Left()}
	if r.layout == Split {
		specs = append(specs, r.cfg.Right())
	}
	for _, spec := range specs {
		body, err := r.scene.LoadBody(spec.URDFPath())
		if err != nil {
			return config.NewConfigurationError(joinField(spec.Tag(), "urdf_path"), err)
		}
		body.SetRootPose(spec.BasePose())
		r.bodies = append(r.bodies, body)
	}
	return nil
}

func joinField(tag arm.Tag, field string) string {
	return tag.String() + "." + field
}

func (r *Robot) bind(tag arm.Tag, planner motionplan.Planner) (*armHandle, error) {
	spec := r.cfg.Arm(tag)
	body := r.bodies[0]
	if r.layout == Split {
		body = r.bodies[tag.Index()]
	}
	h := &armHandle{
		tag:    tag,
		spec:   spec,
		body:   body,
		logger: r.logger.Sublogger(tag.String()),
		cycle:  control.NewCycle(tag),
	}
	h.planner = motionplan.NewAdapter(planner, h.logger.Sublogger("planner"))

	active := body.ActiveJoints()
	var err error
	bindAll := func(field string, names []string) ([]physics.Joint, []int) {
		joints := make([]physics.Joint, 0, len(names))
		indices := make([]int, 0, len(names))
		for _, name := range names {
			j, ok := body.FindJoint(name)
			if !ok {
				err = multierr.Append(err, config.NewConfigurationError(joinField(tag, field),
					referenceframe.NewJointMissingError(name)))
				continue
			}
			idx := lo.IndexOf(active, j)
			if idx < 0 {
				err = multierr.Append(err, config.NewConfigurationError(joinField(tag, field),
					errors.Errorf("joint %q does not move", name)))
				continue
			}
			joints = append(joints, j)
			indices = append(indices, idx)
		}
		return joints, indices
	}
	h.armJoints, h.armIndices = bindAll("arm_joints_name", spec.ArmJoints())
	h.gripperJoints, h.gripperIndices = bindAll("gripper_name", spec.GripperJoints())

	if name, ok := spec.WristJoint(); ok {
		if j, found := body.FindJoint(name); found {
			h.wrist = j
		}
	}
	if j, ok := body.FindJoint(spec.EEJoint()); ok {
		h.ee = j
	} else {
		err = multierr.Append(err, config.NewConfigurationError(joinField(tag, "ee_joints"),
			referenceframe.NewJointMissingError(spec.EEJoint())))
	}

	cameraName := tag.String() + "_camera"
	if l, ok := body.FindLink(cameraName); ok {
		h.camera = l
	} else if links := body.Links(); len(links) > 0 {
		h.camera = links[0]
		h.logger.Warnw("camera link not found, using first link", "camera", cameraName, "link", links[0].Name())
	} else {
		err = multierr.Append(err, config.NewConfigurationError(joinField(tag, "camera"),
			referenceframe.NewLinkMissingError(cameraName)))
	}

	g, gripperErr := gripper.NewNormalizer(tag.String(), spec.GripperRange(), len(spec.GripperJoints()) > 0,
		h.logger.Sublogger("gripper"))
	if gripperErr != nil {
		err = multierr.Append(err, config.NewConfigurationError(joinField(tag, "gripper_scale"), gripperErr))
	}
	h.gripper = g
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (r *Robot) checkDisjoint() error {
	left, right := r.arms[arm.Left.Index()], r.arms[arm.Right.Index()]
	leftJoints := append(append([]physics.Joint(nil), left.armJoints...), left.gripperJoints...)
	rightJoints := append(append([]physics.Joint(nil), right.armJoints...), right.gripperJoints...)
	shared := lo.Intersect(leftJoints, rightJoints)
	if len(shared) == 0 {
		return nil
	}
	names := lo.Map(shared, func(j physics.Joint, _ int) string { return j.Name() })
	return config.NewConfigurationError("", errors.Errorf("joints bound to both arms: %v", names))
}

// ApplyGains writes the drive stiffness and damping of every bound joint: arm gains on the arm joints, wrist
// gains on the wrist joint and gripper gains on the gripper joints. Repeating it changes nothing.
func (r *Robot) ApplyGains() {
	for _, h := range r.arms {
		jg, gg, wg := h.spec.JointGains(), h.spec.GripperGains(), h.spec.WristGains()
		for _, j := range h.armJoints {
			if j == h.wrist {
				j.SetDriveProperty(wg.Stiffness, wg.Damping)
				continue
			}
			j.SetDriveProperty(jg.Stiffness, jg.Damping)
		}
		for _, j := range h.gripperJoints {
			j.SetDriveProperty(gg.Stiffness, gg.Damping)
		}
	}
}

func checkTag(tag arm.Tag) error {
	if !tag.Valid() {
		return errors.Errorf("invalid arm %v", tag)
	}
	return nil
}

func (r *Robot) handle(tag arm.Tag) *armHandle {
	if err := checkTag(tag); err != nil {
		panic(err)
	}
	return r.arms[tag.Index()]
}

// Layout returns the body layout.
func (r *Robot) Layout() Layout {
	return r.layout
}

// Config returns the configuration the robot was built from.
func (r *Robot) Config() *config.RobotConfig {
	return r.cfg
}

// Bodies returns the loaded bodies: one in the Unified layout, left then right in the Split layout.
func (r *Robot) Bodies() []physics.Body {
	return append([]physics.Body(nil), r.bodies...)
}

// Body returns the body that carries the arm.
func (r *Robot) Body(tag arm.Tag) physics.Body {
	return r.handle(tag).body
}

// Joints returns the ordered joint handles of one group of one arm.
func (r *Robot) Joints(tag arm.Tag, group arm.JointGroup) []physics.Joint {
	h := r.handle(tag)
	if group == arm.GripperJoints {
		return append([]physics.Joint(nil), h.gripperJoints...)
	}
	return append([]physics.Joint(nil), h.armJoints...)
}

// ActiveJointIndices returns the positions of the arm's arm joints and gripper joints in its body's active
// joint list. The two arms' index sets never overlap on a shared body.
func (r *Robot) ActiveJointIndices(tag arm.Tag) []int {
	h := r.handle(tag)
	return append(append([]int(nil), h.armIndices...), h.gripperIndices...)
}

// Home writes the arm's home configuration as drive targets. It does not step the scene.
func (r *Robot) Home(tag arm.Tag) {
	h := r.handle(tag)
	for i, q := range h.spec.HomeState() {
		h.armJoints[i].SetDriveTarget(q)
	}
}

// HomeAll homes both arms.
func (r *Robot) HomeAll() {
	for _, tag := range arm.Tags() {
		r.Home(tag)
	}
}
