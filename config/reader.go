package config

import (
	"math"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/dualarm/simcore/components/arm"
	"github.com/dualarm/simcore/components/gripper"
	"github.com/dualarm/simcore/logging"
	"github.com/dualarm/simcore/utils"
)

// EmbodimentFileName is the name of the embodiment file inside an embodiment directory.
const EmbodimentFileName = "config.yml"

// AttributeMap is a loosely typed configuration section as read from YAML.
type AttributeMap map[string]interface{}

// Has reports whether key is present.
func (am AttributeMap) Has(key string) bool {
	_, ok := am[key]
	return ok
}

// EmbodimentFile mirrors an embodiment config.yml. Per-arm lists hold the left arm at index 0 and the right arm
// at index 1; a file describing a single arm may list only one entry, which then applies to either arm.
type EmbodimentFile struct {
	URDFPath            string      `json:"urdf_path"`
	SRDFPath            string      `json:"srdf_path"`
	JointStiffness      float64     `json:"joint_stiffness"`
	JointDamping        float64     `json:"joint_damping"`
	GripperStiffness    float64     `json:"gripper_stiffness"`
	GripperDamping      float64     `json:"gripper_damping"`
	WristJoint          string      `json:"wrist_joint"`
	WristJointStiffness float64     `json:"wrist_joint_stiffness"`
	WristJointDamping   float64     `json:"wrist_joint_damping"`
	Planner             string      `json:"planner"`
	MoveGroup           []string    `json:"move_group"`
	EEJoints            []string    `json:"ee_joints"`
	ArmJointsName       [][]string  `json:"arm_joints_name"`
	GripperName         [][]string  `json:"gripper_name"`
	GripperBias         float64     `json:"gripper_bias"`
	GripperScale        []float64   `json:"gripper_scale"`
	HomeState           [][]float64 `json:"homestate"`
	DeltaMatrix         [][]float64 `json:"delta_matrix"`
	GlobalTransMatrix   [][]float64 `json:"global_trans_matrix"`
	RobotPose           []float64   `json:"robot_pose"`

	// dir is the directory relative paths are resolved against.
	dir string
}

func defaultEmbodimentFile() EmbodimentFile {
	d := DefaultArmParams()
	return EmbodimentFile{
		JointStiffness:      d.JointGains.Stiffness,
		JointDamping:        d.JointGains.Damping,
		GripperStiffness:    d.GripperGains.Stiffness,
		GripperDamping:      d.GripperGains.Damping,
		WristJointStiffness: d.WristGains.Stiffness,
		WristJointDamping:   d.WristGains.Damping,
		Planner:             d.Planner,
		DeltaMatrix:         d.DeltaMatrix,
		GlobalTransMatrix:   d.GlobalTransMatrix,
		RobotPose:           d.BasePose,
	}
}

// TransformAttributeMapToStruct decodes attributes into out using json field tags. Keys that do not match a
// field are returned so callers can report them.
func TransformAttributeMapToStruct(out interface{}, attributes AttributeMap) ([]string, error) {
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		Metadata:         &md,
		WeaklyTypedInput: true,
		ZeroFields:       true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, err
	}
	return md.Unused, nil
}

// ReadYAMLFile reads a YAML mapping into an AttributeMap.
func ReadYAMLFile(path string) (AttributeMap, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %q", path)
	}
	attrs := AttributeMap{}
	if err := yaml.Unmarshal(data, &attrs); err != nil {
		return nil, errors.Wrapf(err, "cannot parse %q", path)
	}
	return attrs, nil
}

// ParseEmbodimentFile decodes an embodiment section over the defaults. dir resolves relative file paths.
func ParseEmbodimentFile(attrs AttributeMap, dir string, logger logging.Logger) (*EmbodimentFile, error) {
	ef := defaultEmbodimentFile()
	unused, err := TransformAttributeMapToStruct(&ef, attrs)
	if err != nil {
		return nil, NewConfigurationError(dir, err)
	}
	if len(unused) > 0 {
		logger.Warnw("ignoring unknown embodiment keys", "dir", dir, "keys", unused)
	}
	ef.dir = dir
	return &ef, nil
}

// ReadEmbodimentDir reads <dir>/config.yml.
func ReadEmbodimentDir(dir string, logger logging.Logger) (*EmbodimentFile, error) {
	if err := utils.ExpectDir(dir); err != nil {
		return nil, NewConfigurationError(dir, err)
	}
	attrs, err := ReadYAMLFile(filepath.Join(dir, EmbodimentFileName))
	if err != nil {
		return nil, NewConfigurationError(dir, err)
	}
	return ParseEmbodimentFile(attrs, dir, logger)
}

// pick selects the entry for tag from a per-arm list, falling back to the first entry.
func pick[T any](list []T, tag arm.Tag) (T, bool) {
	var zero T
	if len(list) == 0 {
		return zero, false
	}
	if tag.Index() < len(list) {
		return list[tag.Index()], true
	}
	return list[0], true
}

// Params selects the parameters of one arm from the file.
func (ef *EmbodimentFile) Params(tag arm.Tag) ArmParams {
	p := ArmParams{
		URDFPath:          utils.ResolvePath(ef.dir, ef.URDFPath),
		SRDFPath:          utils.ResolvePath(ef.dir, ef.SRDFPath),
		WristJoint:        ef.WristJoint,
		Planner:           ef.Planner,
		JointGains:        Gains{Stiffness: ef.JointStiffness, Damping: ef.JointDamping},
		GripperGains:      Gains{Stiffness: ef.GripperStiffness, Damping: ef.GripperDamping},
		WristGains:        Gains{Stiffness: ef.WristJointStiffness, Damping: ef.WristJointDamping},
		GripperBias:       ef.GripperBias,
		DeltaMatrix:       ef.DeltaMatrix,
		GlobalTransMatrix: ef.GlobalTransMatrix,
		BasePose:          ef.RobotPose,
	}
	p.MoveGroup, _ = pick(ef.MoveGroup, tag)
	p.EEJoint, _ = pick(ef.EEJoints, tag)
	p.ArmJoints, _ = pick(ef.ArmJointsName, tag)
	p.GripperJoints, _ = pick(ef.GripperName, tag)
	p.HomeState, _ = pick(ef.HomeState, tag)
	switch len(ef.GripperScale) {
	case 0:
	case 2:
		p.GripperRange = gripper.Range{Min: ef.GripperScale[0], Max: ef.GripperScale[1]}
	default:
		p.GripperRange = gripper.Range{Min: math.NaN(), Max: math.NaN()}
	}
	return p
}

// RobotConfig is the complete, validated description of both arms.
type RobotConfig struct {
	// DualArmEmbodied selects one shared body for both arms instead of one body per arm.
	DualArmEmbodied bool
	// EmbodimentDis is the x separation of the two bodies when they are loaded separately.
	EmbodimentDis float64

	left, right *EmbodimentSpec
}

// NewRobotConfig assembles a RobotConfig. When the arms are separate bodies their bases are moved -dis/2 and
// +dis/2 along world x.
func NewRobotConfig(dualArmEmbodied bool, dis float64, left, right *EmbodimentSpec) (*RobotConfig, error) {
	var err error
	if left == nil {
		err = multierr.Append(err, NewFieldRequiredError("", "left_robot_file"))
	}
	if right == nil {
		err = multierr.Append(err, NewFieldRequiredError("", "right_robot_file"))
	}
	if math.IsNaN(dis) || math.IsInf(dis, 0) {
		err = multierr.Append(err, NewConfigurationError("embodiment_dis", errors.New("must be finite")))
	}
	if err != nil {
		return nil, err
	}
	if left.Tag() != arm.Left || right.Tag() != arm.Right {
		return nil, NewConfigurationError("", errors.New("left and right specs are swapped"))
	}
	if !dualArmEmbodied {
		left = left.WithBaseOffset(-dis / 2)
		right = right.WithBaseOffset(dis / 2)
	}
	return &RobotConfig{DualArmEmbodied: dualArmEmbodied, EmbodimentDis: dis, left: left, right: right}, nil
}

// Arm returns the spec of one arm.
func (c *RobotConfig) Arm(tag arm.Tag) *EmbodimentSpec {
	if tag == arm.Right {
		return c.right
	}
	return c.left
}

// Left returns the spec of the left arm.
func (c *RobotConfig) Left() *EmbodimentSpec { return c.left }

// Right returns the spec of the right arm.
func (c *RobotConfig) Right() *EmbodimentSpec { return c.right }

type robotFile struct {
	DualArmEmbodied bool    `json:"dual_arm_embodied"`
	EmbodimentDis   float64 `json:"embodiment_dis"`
	LeftRobotFile   string  `json:"left_robot_file"`
	RightRobotFile  string  `json:"right_robot_file"`
}

// LoadRobotConfig reads a robot file naming the two embodiment directories, then each directory's config.yml.
// Relative directories are resolved against the robot file's directory.
func LoadRobotConfig(path string, logger logging.Logger) (*RobotConfig, error) {
	attrs, err := ReadYAMLFile(path)
	if err != nil {
		return nil, NewConfigurationError(path, err)
	}
	var rf robotFile
	unused, err := TransformAttributeMapToStruct(&rf, attrs)
	if err != nil {
		return nil, NewConfigurationError(path, err)
	}
	if len(unused) > 0 {
		logger.Debugw("robot file keys not used by the kinematic core", "file", path, "keys", unused)
	}
	if rf.LeftRobotFile == "" || rf.RightRobotFile == "" {
		return nil, multierr.Combine(
			requireField(rf.LeftRobotFile, "left_robot_file"),
			requireField(rf.RightRobotFile, "right_robot_file"),
		)
	}

	base := filepath.Dir(path)
	specs := make([]*EmbodimentSpec, 2)
	for _, tag := range arm.Tags() {
		dir := rf.LeftRobotFile
		if tag == arm.Right {
			dir = rf.RightRobotFile
		}
		ef, err := ReadEmbodimentDir(utils.ResolvePath(base, dir), logger)
		if err != nil {
			return nil, errors.Wrapf(err, "%s arm", tag)
		}
		spec, err := NewEmbodimentSpec(tag, ef.Params(tag))
		if err != nil {
			return nil, err
		}
		specs[tag.Index()] = spec
	}
	cfg, err := NewRobotConfig(rf.DualArmEmbodied, rf.EmbodimentDis, specs[0], specs[1])
	if err != nil {
		return nil, err
	}
	logger.Infow("loaded robot config",
		"dual_arm_embodied", cfg.DualArmEmbodied,
		"left_urdf", cfg.left.URDFPath(),
		"right_urdf", cfg.right.URDFPath())
	return cfg, nil
}

func requireField(value, field string) error {
	if value == "" {
		return NewFieldRequiredError("", field)
	}
	return nil
}
