package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"go.uber.org/zap/zapcore"
	"go.viam.com/test"

	"github.com/dualarm/simcore/components/arm"
	"github.com/dualarm/simcore/components/gripper"
	"github.com/dualarm/simcore/logging"
	"github.com/dualarm/simcore/spatialmath"
	"github.com/dualarm/simcore/utils"
)

func validParams() ArmParams {
	p := DefaultArmParams()
	p.URDFPath = "arm.urdf"
	p.EEJoint = "ee_joint"
	p.ArmJoints = []string{"joint1", "joint2", "joint3"}
	p.GripperJoints = []string{"finger1", "finger2"}
	p.GripperRange = gripper.Range{Min: 0, Max: 0.04}
	p.GripperBias = 0.12
	return p
}

func TestNewEmbodimentSpec(t *testing.T) {
	spec, err := NewEmbodimentSpec(arm.Left, validParams())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spec.Tag(), test.ShouldEqual, arm.Left)
	test.That(t, spec.JointGains(), test.ShouldResemble, Gains{Stiffness: 1000, Damping: 200})
	test.That(t, spec.GripperGains(), test.ShouldResemble, Gains{Stiffness: 1000, Damping: 200})
	test.That(t, spec.WristGains(), test.ShouldResemble, Gains{Stiffness: 500, Damping: 500})
	test.That(t, spec.Planner(), test.ShouldEqual, PlannerRRT)
	_, hasWrist := spec.WristJoint()
	test.That(t, hasWrist, test.ShouldBeFalse)

	t.Run("home state defaults to zeros", func(t *testing.T) {
		test.That(t, spec.HomeState(), test.ShouldResemble, []float64{0, 0, 0})
	})

	t.Run("default base pose", func(t *testing.T) {
		base := spec.BasePose()
		test.That(t, base.Point(), test.ShouldResemble, r3.Vector{Y: -0.65})
		test.That(t, base.Orientation().EulerAngles().Yaw, test.ShouldAlmostEqual, math.Pi/2)
	})

	t.Run("accessors return copies", func(t *testing.T) {
		joints := spec.ArmJoints()
		joints[0] = "changed"
		test.That(t, spec.ArmJoints()[0], test.ShouldEqual, "joint1")

		home := spec.HomeState()
		home[0] = 4
		test.That(t, spec.HomeState()[0], test.ShouldEqual, 0.)

		delta := spec.DeltaMatrix()
		test.That(t, delta, test.ShouldNotPointTo, spec.DeltaMatrix())
		test.That(t, delta.AlmostEqual(spatialmath.IdentityRotationMatrix(), 0), test.ShouldBeTrue)
	})

	t.Run("params are not aliased", func(t *testing.T) {
		p := validParams()
		s, err := NewEmbodimentSpec(arm.Right, p)
		test.That(t, err, test.ShouldBeNil)
		p.ArmJoints[0] = "changed"
		p.DeltaMatrix[0][0] = -1
		test.That(t, s.ArmJoints()[0], test.ShouldEqual, "joint1")
		test.That(t, s.DeltaMatrix().At(0, 0), test.ShouldEqual, 1.)
	})
}

func TestEmbodimentSpecValidation(t *testing.T) {
	for _, tc := range []struct {
		name   string
		modify func(p *ArmParams)
		path   string
	}{
		{"missing urdf", func(p *ArmParams) { p.URDFPath = "" }, "left.urdf_path"},
		{"missing ee joint", func(p *ArmParams) { p.EEJoint = "" }, "left.ee_joints"},
		{"no arm joints", func(p *ArmParams) { p.ArmJoints = nil }, "left.arm_joints_name"},
		{"duplicate joint", func(p *ArmParams) { p.GripperJoints = []string{"joint1"} }, "left.arm_joints_name"},
		{"wrist not an arm joint", func(p *ArmParams) { p.WristJoint = "finger1" }, "left.wrist_joint"},
		{"unknown planner", func(p *ArmParams) { p.Planner = "chomp" }, "left.planner"},
		{"negative stiffness", func(p *ArmParams) { p.JointGains.Stiffness = -1 }, "left.joint.stiffness"},
		{"inverted gripper range", func(p *ArmParams) { p.GripperRange = gripper.Range{Min: 1, Max: 0} }, "left.gripper_scale"},
		{"gripper joints without range", func(p *ArmParams) { p.GripperRange = gripper.Range{} }, "left.gripper_scale"},
		{"degenerate gripper range", func(p *ArmParams) { p.GripperRange = gripper.Range{Min: 0.02, Max: 0.02} }, "left.gripper_scale"},
		{"home state length", func(p *ArmParams) { p.HomeState = []float64{1} }, "left.homestate"},
		{"singular delta", func(p *ArmParams) { p.DeltaMatrix = [][]float64{{1, 0, 0}, {0, 0, 0}, {0, 0, 1}} }, "left.delta_matrix"},
		{"scaled global", func(p *ArmParams) { p.GlobalTransMatrix = [][]float64{{2, 0, 0}, {0, 1, 0}, {0, 0, 1}} }, "left.global_trans_matrix"},
		{"short base pose", func(p *ArmParams) { p.BasePose = []float64{0, 0, 0} }, "left.robot_pose"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.modify(&p)
			_, err := NewEmbodimentSpec(arm.Left, p)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, IsConfigurationError(err), test.ShouldBeTrue)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.path)
		})
	}

	t.Run("no range needed without gripper joints", func(t *testing.T) {
		p := validParams()
		p.GripperJoints = nil
		p.GripperRange = gripper.Range{}
		_, err := NewEmbodimentSpec(arm.Left, p)
		test.That(t, err, test.ShouldBeNil)
	})

	t.Run("all problems are reported", func(t *testing.T) {
		p := validParams()
		p.URDFPath = ""
		p.Planner = ""
		_, err := NewEmbodimentSpec(arm.Right, p)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "right.urdf_path")
		test.That(t, err.Error(), test.ShouldContainSubstring, "right.planner")
	})
}

func TestLoadUnified(t *testing.T) {
	logger := logging.NewTestLogger(t)
	cfg, err := LoadRobotConfig(utils.ResolveFile("testdata/embodiments/unified.yml"), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.DualArmEmbodied, test.ShouldBeTrue)

	left, right := cfg.Left(), cfg.Right()
	test.That(t, left.URDFPath(), test.ShouldEqual, utils.ResolveFile("testdata/urdf/dual_arm.urdf"))
	test.That(t, left.SRDFPath(), test.ShouldEqual, utils.ResolveFile("testdata/embodiments/dual_arm/dual_arm.srdf"))
	test.That(t, left.ArmJoints(), test.ShouldResemble, []string{"fl_joint1", "fl_joint2", "fl_joint3", "fl_joint4"})
	test.That(t, right.ArmJoints(), test.ShouldResemble, []string{"fr_joint1", "fr_joint2", "fr_joint3", "fr_joint4"})
	test.That(t, left.EEJoint(), test.ShouldEqual, "fl_ee_joint")
	test.That(t, right.EEJoint(), test.ShouldEqual, "fr_ee_joint")
	test.That(t, right.MoveGroup(), test.ShouldEqual, "fr_link4")
	test.That(t, left.GripperGains(), test.ShouldResemble, Gains{Stiffness: 800, Damping: 100})
	test.That(t, left.GripperRange(), test.ShouldResemble, gripper.Range{Min: 0, Max: 0.04})
	test.That(t, cfg.Arm(arm.Right), test.ShouldEqual, right)

	// the unified layout does not move the bases
	test.That(t, left.BasePose().Point(), test.ShouldResemble, right.BasePose().Point())
}

func TestLoadSplit(t *testing.T) {
	logger := logging.NewTestLogger(t)
	cfg, err := LoadRobotConfig(utils.ResolveFile("testdata/embodiments/split.yml"), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.DualArmEmbodied, test.ShouldBeFalse)
	test.That(t, cfg.EmbodimentDis, test.ShouldEqual, 0.8)

	left, right := cfg.Left(), cfg.Right()
	test.That(t, left.BasePose().Point().X, test.ShouldAlmostEqual, -0.4)
	test.That(t, right.BasePose().Point().X, test.ShouldAlmostEqual, 0.4)
	test.That(t, left.BasePose().Point().Y, test.ShouldAlmostEqual, -0.65)

	// single entry lists apply to both arms
	test.That(t, left.ArmJoints(), test.ShouldResemble, right.ArmJoints())
	test.That(t, right.HomeState(), test.ShouldResemble, []float64{0, 0.3, -0.6, 0})
	test.That(t, left.Planner(), test.ShouldEqual, PlannerScrew)
	test.That(t, left.JointGains(), test.ShouldResemble, Gains{Stiffness: 1200, Damping: 200})
	wrist, ok := right.WristJoint()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, wrist, test.ShouldEqual, "joint4")
	test.That(t, left.DeltaMatrix().At(0, 2), test.ShouldEqual, 1.)
	test.That(t, left.ToolFrame().Bias(), test.ShouldEqual, 0.15)
}

func TestLoadErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := LoadRobotConfig(filepath.Join(t.TempDir(), "missing.yml"), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, IsConfigurationError(err), test.ShouldBeTrue)

	dir := t.TempDir()
	write := func(name, contents string) string {
		p := filepath.Join(dir, name)
		test.That(t, os.MkdirAll(filepath.Dir(p), 0o700), test.ShouldBeNil)
		test.That(t, os.WriteFile(p, []byte(contents), 0o600), test.ShouldBeNil)
		return p
	}

	t.Run("missing robot files", func(t *testing.T) {
		_, err := LoadRobotConfig(write("robot.yml", "dual_arm_embodied: true\n"), logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "left_robot_file")
		test.That(t, err.Error(), test.ShouldContainSubstring, "right_robot_file")
	})

	t.Run("embodiment dir without config", func(t *testing.T) {
		test.That(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o700), test.ShouldBeNil)
		_, err := LoadRobotConfig(write("robot2.yml", "left_robot_file: empty\nright_robot_file: empty\n"), logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, IsConfigurationError(err), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "left arm")
	})

	t.Run("wrong types", func(t *testing.T) {
		write("typed/config.yml", "urdf_path: a.urdf\njoint_stiffness: stiff\n")
		_, err := LoadRobotConfig(write("robot3.yml", "left_robot_file: typed\nright_robot_file: typed\n"), logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, IsConfigurationError(err), test.ShouldBeTrue)
	})

	t.Run("short gripper scale", func(t *testing.T) {
		write("scale/config.yml", `urdf_path: a.urdf
ee_joints: [ee]
arm_joints_name: [[j1]]
gripper_scale: [0.04]
`)
		_, err := LoadRobotConfig(write("robot4.yml", "left_robot_file: scale\nright_robot_file: scale\n"), logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "left.gripper_scale")
	})

	t.Run("gripper joints without gripper scale", func(t *testing.T) {
		write("noscale/config.yml", `urdf_path: a.urdf
ee_joints: [ee]
arm_joints_name: [[j1]]
gripper_name: [[f1, f2]]
`)
		_, err := LoadRobotConfig(write("robot5.yml", "left_robot_file: noscale\nright_robot_file: noscale\n"), logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, IsConfigurationError(err), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "left.gripper_scale")
	})
}

func TestUnknownKeysAreLogged(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	ef, err := ParseEmbodimentFile(AttributeMap{
		"urdf_path":    "a.urdf",
		"gripper_bais": 0.1,
	}, "/robots/a", logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ef.Params(arm.Left).URDFPath, test.ShouldEqual, filepath.Join("/robots/a", "a.urdf"))
	test.That(t, logs.FilterLevelExact(zapcore.WarnLevel).FilterMessage("ignoring unknown embodiment keys").Len(),
		test.ShouldEqual, 1)
}

func TestNewRobotConfig(t *testing.T) {
	left, err := NewEmbodimentSpec(arm.Left, validParams())
	test.That(t, err, test.ShouldBeNil)
	right, err := NewEmbodimentSpec(arm.Right, validParams())
	test.That(t, err, test.ShouldBeNil)

	_, err = NewRobotConfig(true, 0, right, left)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewRobotConfig(true, 0, left, nil)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewRobotConfig(false, math.NaN(), left, right)
	test.That(t, err, test.ShouldNotBeNil)

	cfg, err := NewRobotConfig(false, 1, left, right)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Left().BasePose().Point().X, test.ShouldAlmostEqual, -0.5)
	// the original specs are untouched
	test.That(t, left.BasePose().Point().X, test.ShouldEqual, 0.)
}
