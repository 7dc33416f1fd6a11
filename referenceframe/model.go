package referenceframe

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/dualarm/simcore/spatialmath"
)

// JointType is the URDF type of a joint.
type JointType string

// The joint types a Model understands.
const (
	RevoluteJoint   = JointType("revolute")
	ContinuousJoint = JointType("continuous")
	PrismaticJoint  = JointType("prismatic")
	FixedJoint      = JointType("fixed")
)

// Limit represents the limits of motion for a joint.
type Limit struct {
	Min float64
	Max float64
}

// Joint connects a parent link to a child link. Origin is the pose of the joint frame in the parent
// link frame, and Axis is expressed in the joint frame.
type Joint struct {
	Name   string
	Type   JointType
	Parent string
	Child  string
	Origin spatialmath.Pose
	Axis   r3.Vector
	Limit  Limit
}

// Active reports whether the joint takes an input.
func (j Joint) Active() bool {
	return j.Type != FixedJoint
}

// motion returns the transform the joint applies for input q.
func (j Joint) motion(q float64) spatialmath.Pose {
	switch j.Type {
	case RevoluteJoint, ContinuousJoint:
		return spatialmath.NewPose(r3.Vector{}, spatialmath.NewR4AAFromAxis(q, j.Axis))
	case PrismaticJoint:
		return spatialmath.NewPoseFromPoint(j.Axis.Mul(q))
	default:
		return spatialmath.NewZeroPose()
	}
}

// Model is the kinematic tree described by a robot description file: links connected by joints.
// A Model is immutable after construction.
type Model struct {
	name        string
	links       []string
	joints      []Joint
	active      []int
	jointIndex  map[string]int
	parentJoint map[string]int
	root        string
}

// NewModel builds a model from links and joints. Every joint must reference known links, every link may
// have at most one parent joint and exactly one link, the root, has none.
func NewModel(name string, links []string, joints []Joint) (*Model, error) {
	m := &Model{
		name:        name,
		links:       append([]string(nil), links...),
		joints:      append([]Joint(nil), joints...),
		jointIndex:  make(map[string]int, len(joints)),
		parentJoint: make(map[string]int, len(joints)),
	}
	if len(links) == 0 {
		return nil, ErrNoModelInformation
	}

	linkSet := make(map[string]bool, len(links))
	var err error
	for _, l := range links {
		if linkSet[l] {
			err = multierr.Append(err, errors.Errorf("duplicate link %q", l))
		}
		linkSet[l] = true
	}
	for i, j := range joints {
		if _, ok := m.jointIndex[j.Name]; ok {
			err = multierr.Append(err, errors.Errorf("duplicate joint %q", j.Name))
		}
		m.jointIndex[j.Name] = i
		if !linkSet[j.Parent] {
			err = multierr.Append(err, errors.Wrapf(NewLinkMissingError(j.Parent), "parent of joint %q", j.Name))
		}
		if !linkSet[j.Child] {
			err = multierr.Append(err, errors.Wrapf(NewLinkMissingError(j.Child), "child of joint %q", j.Name))
		}
		if prev, ok := m.parentJoint[j.Child]; ok {
			err = multierr.Append(err, errors.Errorf("link %q is the child of both %q and %q", j.Child, joints[prev].Name, j.Name))
		}
		m.parentJoint[j.Child] = i
		if j.Origin == nil {
			m.joints[i].Origin = spatialmath.NewZeroPose()
		}
		if j.Active() {
			m.active = append(m.active, i)
		}
	}
	if err != nil {
		return nil, err
	}

	var roots []string
	for _, l := range links {
		if _, ok := m.parentJoint[l]; !ok {
			roots = append(roots, l)
		}
	}
	if len(roots) != 1 {
		return nil, errors.Errorf("model %q must have exactly one root link, found %v", name, roots)
	}
	m.root = roots[0]

	for _, l := range links {
		if _, err := m.chain(l); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Name returns the name of this model.
func (m *Model) Name() string {
	return m.name
}

// RootLink returns the link with no parent joint.
func (m *Model) RootLink() string {
	return m.root
}

// Links returns the link names in description order.
func (m *Model) Links() []string {
	return append([]string(nil), m.links...)
}

// HasLink reports whether name is a link of the model.
func (m *Model) HasLink(name string) bool {
	for _, l := range m.links {
		if l == name {
			return true
		}
	}
	return false
}

// Joints returns all joints, fixed ones included, in description order.
func (m *Model) Joints() []Joint {
	return append([]Joint(nil), m.joints...)
}

// ActiveJoints returns the joints that take an input, in the order inputs are expected.
func (m *Model) ActiveJoints() []Joint {
	out := make([]Joint, 0, len(m.active))
	for _, i := range m.active {
		out = append(out, m.joints[i])
	}
	return out
}

// DoF returns the limits of every active joint.
func (m *Model) DoF() []Limit {
	out := make([]Limit, 0, len(m.active))
	for _, i := range m.active {
		out = append(out, m.joints[i].Limit)
	}
	return out
}

// Joint returns the named joint.
func (m *Model) Joint(name string) (Joint, bool) {
	i, ok := m.jointIndex[name]
	if !ok {
		return Joint{}, false
	}
	return m.joints[i], true
}

// ActiveIndex returns the position of the named joint in the input vector, or -1 for fixed or unknown joints.
func (m *Model) ActiveIndex(name string) int {
	i, ok := m.jointIndex[name]
	if !ok {
		return -1
	}
	for idx, a := range m.active {
		if a == i {
			return idx
		}
	}
	return -1
}

// chain returns the joint indices from the root down to link.
func (m *Model) chain(link string) ([]int, error) {
	var rev []int
	for cur := link; cur != m.root; {
		i, ok := m.parentJoint[cur]
		if !ok {
			return nil, NewLinkMissingError(cur)
		}
		if len(rev) > len(m.joints) {
			return nil, NewParentLinkCycleError(link)
		}
		rev = append(rev, i)
		cur = m.joints[i].Parent
	}
	out := make([]int, len(rev))
	for k, i := range rev {
		out[len(rev)-1-k] = i
	}
	return out, nil
}

// LinkPose returns the pose of the link frame in the root link frame for the given inputs, ordered as ActiveJoints.
func (m *Model) LinkPose(link string, inputs []Input) (spatialmath.Pose, error) {
	if len(inputs) != len(m.active) {
		return nil, NewIncorrectDoFError(len(inputs), len(m.active))
	}
	if !m.HasLink(link) {
		return nil, NewLinkMissingError(link)
	}
	chain, err := m.chain(link)
	if err != nil {
		return nil, err
	}
	pose := spatialmath.NewZeroPose()
	for _, i := range chain {
		j := m.joints[i]
		pose = spatialmath.Compose(pose, j.Origin)
		if j.Active() {
			pose = spatialmath.Compose(pose, j.motion(inputs[m.ActiveIndex(j.Name)].Value))
		}
	}
	return pose, nil
}

// JointPose returns the pose of the joint frame in the root link frame: the parent link pose composed with the joint
// origin, before the joint's own motion.
func (m *Model) JointPose(name string, inputs []Input) (spatialmath.Pose, error) {
	j, ok := m.Joint(name)
	if !ok {
		return nil, NewJointMissingError(name)
	}
	parent, err := m.LinkPose(j.Parent, inputs)
	if err != nil {
		return nil, err
	}
	return spatialmath.Compose(parent, j.Origin), nil
}
