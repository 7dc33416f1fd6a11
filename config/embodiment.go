// Package config describes the hardware of each arm and how it is read from embodiment files.
package config

import (
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/dualarm/simcore/components/arm"
	"github.com/dualarm/simcore/components/gripper"
	"github.com/dualarm/simcore/referenceframe"
	"github.com/dualarm/simcore/spatialmath"
)

// Planner types understood by the planning collaborator.
const (
	PlannerRRT   = "mplib_RRT"
	PlannerScrew = "mplib_screw"
)

// Default gains and poses applied when an embodiment file leaves them out.
var (
	DefaultJointGains   = Gains{Stiffness: 1000, Damping: 200}
	DefaultGripperGains = Gains{Stiffness: 1000, Damping: 200}
	DefaultWristGains   = Gains{Stiffness: 500, Damping: 500}
	DefaultBasePose     = []float64{0, -0.65, 0, 1, 0, 0, 1}
)

// Gains are the drive stiffness and damping of a joint.
type Gains struct {
	Stiffness float64
	Damping   float64
}

// Validate ensures the gains can be applied to a drive.
func (g Gains) Validate(path string) error {
	var err error
	if g.Stiffness < 0 || math.IsNaN(g.Stiffness) {
		err = multierr.Append(err, NewConfigurationError(joinPath(path, "stiffness"), errors.New("must be non-negative")))
	}
	if g.Damping < 0 || math.IsNaN(g.Damping) {
		err = multierr.Append(err, NewConfigurationError(joinPath(path, "damping"), errors.New("must be non-negative")))
	}
	return err
}

// ArmParams are the raw, mutable parameters of one arm. They become an EmbodimentSpec through NewEmbodimentSpec.
type ArmParams struct {
	URDFPath      string
	SRDFPath      string
	MoveGroup     string
	EEJoint       string
	ArmJoints     []string
	GripperJoints []string
	WristJoint    string
	Planner       string

	JointGains   Gains
	GripperGains Gains
	WristGains   Gains

	GripperRange gripper.Range
	GripperBias  float64

	// HomeState defaults to zeros when empty.
	HomeState []float64

	DeltaMatrix       [][]float64
	GlobalTransMatrix [][]float64

	// BasePose is [x, y, z, qw, qx, qy, qz] in the world frame.
	BasePose []float64
}

// DefaultArmParams returns the parameters every embodiment file starts from.
func DefaultArmParams() ArmParams {
	return ArmParams{
		Planner:           PlannerRRT,
		JointGains:        DefaultJointGains,
		GripperGains:      DefaultGripperGains,
		WristGains:        DefaultWristGains,
		DeltaMatrix:       identity(),
		GlobalTransMatrix: identity(),
		BasePose:          append([]float64(nil), DefaultBasePose...),
	}
}

func identity() [][]float64 {
	return [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// EmbodimentSpec is the validated, immutable hardware description of one arm. Accessors return copies.
type EmbodimentSpec struct {
	tag           arm.Tag
	urdfPath      string
	srdfPath      string
	moveGroup     string
	eeJoint       string
	armJoints     []string
	gripperJoints []string
	wristJoint    string
	planner       string

	jointGains   Gains
	gripperGains Gains
	wristGains   Gains

	gripperRange gripper.Range
	gripperBias  float64
	homeState    []float64

	delta     *spatialmath.RotationMatrix
	global    *spatialmath.RotationMatrix
	basePose  spatialmath.Pose
	toolFrame *referenceframe.ToolFrame
}

// NewEmbodimentSpec validates params and freezes them. Every problem found is reported, each as a
// ConfigurationError naming the field.
func NewEmbodimentSpec(tag arm.Tag, params ArmParams) (*EmbodimentSpec, error) {
	path := tag.String()
	field := func(name string) string { return joinPath(path, name) }

	var err error
	if !tag.Valid() {
		err = multierr.Append(err, NewConfigurationError(path, errors.Errorf("invalid arm %v", tag)))
	}
	if params.URDFPath == "" {
		err = multierr.Append(err, NewFieldRequiredError(path, "urdf_path"))
	}
	if params.EEJoint == "" {
		err = multierr.Append(err, NewFieldRequiredError(path, "ee_joints"))
	}
	if len(params.ArmJoints) == 0 {
		err = multierr.Append(err, NewFieldRequiredError(path, "arm_joints_name"))
	}
	all := append(append([]string(nil), params.ArmJoints...), params.GripperJoints...)
	if dups := lo.FindDuplicates(all); len(dups) > 0 {
		err = multierr.Append(err, NewConfigurationError(field("arm_joints_name"),
			errors.Errorf("joints listed more than once: %v", dups)))
	}
	if lo.Contains(all, "") {
		err = multierr.Append(err, NewConfigurationError(field("arm_joints_name"), errors.New("empty joint name")))
	}
	if params.WristJoint != "" && !lo.Contains(params.ArmJoints, params.WristJoint) {
		err = multierr.Append(err, NewConfigurationError(field("wrist_joint"),
			errors.Errorf("%q is not one of the arm joints", params.WristJoint)))
	}
	if params.Planner != PlannerRRT && params.Planner != PlannerScrew {
		err = multierr.Append(err, NewConfigurationError(field("planner"),
			errors.Errorf("unknown planner %q, expected %s or %s", params.Planner, PlannerRRT, PlannerScrew)))
	}
	err = multierr.Combine(err,
		params.JointGains.Validate(field("joint")),
		params.GripperGains.Validate(field("gripper")),
		params.WristGains.Validate(field("wrist_joint")),
	)
	if rangeErr := params.GripperRange.Validate(); rangeErr != nil {
		err = multierr.Append(err, NewConfigurationError(field("gripper_scale"), rangeErr))
	} else if len(params.GripperJoints) > 0 && params.GripperRange.Min == params.GripperRange.Max {
		err = multierr.Append(err, NewConfigurationError(field("gripper_scale"),
			errors.New("a range with min below max is required when gripper joints are named")))
	}
	if math.IsNaN(params.GripperBias) || math.IsInf(params.GripperBias, 0) {
		err = multierr.Append(err, NewConfigurationError(field("gripper_bias"), errors.New("must be finite")))
	}

	home := append([]float64(nil), params.HomeState...)
	if len(home) == 0 {
		home = make([]float64, len(params.ArmJoints))
	} else if len(home) != len(params.ArmJoints) {
		err = multierr.Append(err, NewConfigurationError(field("homestate"),
			errors.Errorf("has %d values for %d arm joints", len(home), len(params.ArmJoints))))
	}

	delta, matErr := rotation(params.DeltaMatrix)
	if matErr != nil {
		err = multierr.Append(err, NewConfigurationError(field("delta_matrix"), matErr))
	}
	global, matErr := rotation(params.GlobalTransMatrix)
	if matErr != nil {
		err = multierr.Append(err, NewConfigurationError(field("global_trans_matrix"), matErr))
	}
	base, poseErr := spatialmath.NewPoseFromSlice(params.BasePose)
	if poseErr != nil {
		err = multierr.Append(err, NewConfigurationError(field("robot_pose"), poseErr))
	}
	if err != nil {
		return nil, err
	}

	tf, err := referenceframe.NewToolFrame(params.GripperBias, global, delta)
	if err != nil {
		return nil, NewConfigurationError(path, err)
	}

	return &EmbodimentSpec{
		tag:           tag,
		urdfPath:      params.URDFPath,
		srdfPath:      params.SRDFPath,
		moveGroup:     params.MoveGroup,
		eeJoint:       params.EEJoint,
		armJoints:     append([]string(nil), params.ArmJoints...),
		gripperJoints: append([]string(nil), params.GripperJoints...),
		wristJoint:    params.WristJoint,
		planner:       params.Planner,
		jointGains:    params.JointGains,
		gripperGains:  params.GripperGains,
		wristGains:    params.WristGains,
		gripperRange:  params.GripperRange,
		gripperBias:   params.GripperBias,
		homeState:     home,
		delta:         delta,
		global:        global,
		basePose:      base,
		toolFrame:     tf,
	}, nil
}

func rotation(rows [][]float64) (*spatialmath.RotationMatrix, error) {
	if rows == nil {
		return spatialmath.IdentityRotationMatrix(), nil
	}
	m, err := spatialmath.NewRotationMatrixFromSlices(rows)
	if err != nil {
		return nil, err
	}
	if _, err := m.Inverse(); err != nil {
		return nil, err
	}
	if !m.IsOrthonormal(1e-6) {
		return nil, errors.New("matrix is not a rotation")
	}
	return m, nil
}

// WithBaseOffset returns a copy of the spec whose base pose is translated by offset meters along world x.
func (s *EmbodimentSpec) WithBaseOffset(offset float64) *EmbodimentSpec {
	cp := *s
	p := s.basePose.Point()
	p.X += offset
	cp.basePose = spatialmath.NewPose(p, s.basePose.Orientation())
	cp.armJoints = s.ArmJoints()
	cp.gripperJoints = s.GripperJoints()
	cp.homeState = s.HomeState()
	return &cp
}

// Tag returns the arm this spec describes.
func (s *EmbodimentSpec) Tag() arm.Tag { return s.tag }

// URDFPath returns the robot description file.
func (s *EmbodimentSpec) URDFPath() string { return s.urdfPath }

// SRDFPath returns the semantic description file used by the planner, if any.
func (s *EmbodimentSpec) SRDFPath() string { return s.srdfPath }

// MoveGroup returns the planning group name.
func (s *EmbodimentSpec) MoveGroup() string { return s.moveGroup }

// EEJoint returns the joint whose pose is the flange pose.
func (s *EmbodimentSpec) EEJoint() string { return s.eeJoint }

// Planner returns the planner type.
func (s *EmbodimentSpec) Planner() string { return s.planner }

// ArmJoints returns the ordered arm joint names.
func (s *EmbodimentSpec) ArmJoints() []string { return append([]string(nil), s.armJoints...) }

// GripperJoints returns the gripper joint names. It is empty for an arm without a gripper.
func (s *EmbodimentSpec) GripperJoints() []string { return append([]string(nil), s.gripperJoints...) }

// WristJoint returns the wrist joint name and whether one is configured.
func (s *EmbodimentSpec) WristJoint() (string, bool) { return s.wristJoint, s.wristJoint != "" }

// JointGains returns the gains of the arm joints.
func (s *EmbodimentSpec) JointGains() Gains { return s.jointGains }

// GripperGains returns the gains of the gripper joints.
func (s *EmbodimentSpec) GripperGains() Gains { return s.gripperGains }

// WristGains returns the gains of the wrist joint.
func (s *EmbodimentSpec) WristGains() Gains { return s.wristGains }

// GripperRange returns the native gripper range.
func (s *EmbodimentSpec) GripperRange() gripper.Range { return s.gripperRange }

// GripperBias returns the flange to fingertip distance.
func (s *EmbodimentSpec) GripperBias() float64 { return s.gripperBias }

// HomeState returns the home configuration of the arm joints.
func (s *EmbodimentSpec) HomeState() []float64 { return append([]float64(nil), s.homeState...) }

// DeltaMatrix returns a copy of the per-embodiment rotation adjustment.
func (s *EmbodimentSpec) DeltaMatrix() *spatialmath.RotationMatrix {
	return spatialmath.NewRotationMatrix(s.delta.Rows())
}

// GlobalTransMatrix returns a copy of the flange to tool axis alignment.
func (s *EmbodimentSpec) GlobalTransMatrix() *spatialmath.RotationMatrix {
	return spatialmath.NewRotationMatrix(s.global.Rows())
}

// BasePose returns the world pose of the arm base.
func (s *EmbodimentSpec) BasePose() spatialmath.Pose { return s.basePose }

// ToolFrame returns the pose conventions of this arm.
func (s *EmbodimentSpec) ToolFrame() *referenceframe.ToolFrame { return s.toolFrame }
