package fake

import (
	"github.com/pkg/errors"

	"github.com/dualarm/simcore/physics"
	"github.com/dualarm/simcore/referenceframe"
	"github.com/dualarm/simcore/spatialmath"
)

// Body is a physics.Body backed by a kinematic model.
type Body struct {
	scene  *Scene
	name   string
	model  *referenceframe.Model
	root   spatialmath.Pose
	joints []*Joint
	active []*Joint
	links  []*Link
	qpos   []float64
	qvel   []float64
	qf     []float64
}

var _ physics.Body = (*Body)(nil)

func newBody(s *Scene, model *referenceframe.Model, name string) *Body {
	b := &Body{scene: s, name: name, model: model, root: spatialmath.NewZeroPose()}
	for _, j := range model.Joints() {
		fj := &Joint{body: b, name: j.Name, index: model.ActiveIndex(j.Name)}
		b.joints = append(b.joints, fj)
		if fj.index >= 0 {
			b.active = append(b.active, fj)
		}
	}
	// ActiveIndex follows model order, so b.active is already in input order
	for _, l := range model.Links() {
		b.links = append(b.links, &Link{body: b, name: l})
	}
	b.qpos = make([]float64, len(b.active))
	b.qvel = make([]float64, len(b.active))
	b.qf = make([]float64, len(b.active))
	return b
}

// Name returns the name the scene gave the body, unique within the scene.
func (b *Body) Name() string {
	return b.name
}

// Model returns the kinematic model the body was loaded from.
func (b *Body) Model() *referenceframe.Model {
	return b.model
}

// SetRootPose places the root link in the world.
func (b *Body) SetRootPose(pose spatialmath.Pose) {
	b.scene.mu.Lock()
	defer b.scene.mu.Unlock()
	b.root = pose
}

// RootPose returns the world pose of the root link.
func (b *Body) RootPose() spatialmath.Pose {
	b.scene.mu.Lock()
	defer b.scene.mu.Unlock()
	return b.root
}

// ActiveJoints returns the movable joints in qpos order.
func (b *Body) ActiveJoints() []physics.Joint {
	out := make([]physics.Joint, 0, len(b.active))
	for _, j := range b.active {
		out = append(out, j)
	}
	return out
}

// FindJoint looks a joint up by name.
func (b *Body) FindJoint(name string) (physics.Joint, bool) {
	for _, j := range b.joints {
		if j.name == name {
			return j, true
		}
	}
	return nil, false
}

// FindLink looks a link up by name.
func (b *Body) FindLink(name string) (physics.Link, bool) {
	for _, l := range b.links {
		if l.name == name {
			return l, true
		}
	}
	return nil, false
}

// Links returns every link in description order.
func (b *Body) Links() []physics.Link {
	out := make([]physics.Link, 0, len(b.links))
	for _, l := range b.links {
		out = append(out, l)
	}
	return out
}

// Qpos returns the joint positions.
func (b *Body) Qpos() []float64 {
	b.scene.mu.Lock()
	defer b.scene.mu.Unlock()
	return append([]float64(nil), b.qpos...)
}

// Qvel returns the joint velocities.
func (b *Body) Qvel() []float64 {
	b.scene.mu.Lock()
	defer b.scene.mu.Unlock()
	return append([]float64(nil), b.qvel...)
}

// Qf returns the generalized forces applied since the last step.
func (b *Body) Qf() []float64 {
	b.scene.mu.Lock()
	defer b.scene.mu.Unlock()
	return append([]float64(nil), b.qf...)
}

// SetQpos teleports the joints, as if the body had been moved by hand.
func (b *Body) SetQpos(qpos []float64) error {
	b.scene.mu.Lock()
	defer b.scene.mu.Unlock()
	if len(qpos) != len(b.active) {
		return referenceframe.NewIncorrectDoFError(len(qpos), len(b.active))
	}
	copy(b.qpos, qpos)
	return nil
}

// ComputePassiveForce returns a deterministic stand-in for gravity and velocity dependent forces: joint i
// contributes 0.1*(i+1) for gravity and 0.01*qvel[i] for Coriolis and centrifugal effects.
func (b *Body) ComputePassiveForce(gravity, coriolisAndCentrifugal bool) []float64 {
	b.scene.mu.Lock()
	defer b.scene.mu.Unlock()
	qf := make([]float64, len(b.active))
	for i := range qf {
		if gravity {
			qf[i] += 0.1 * float64(i+1)
		}
		if coriolisAndCentrifugal {
			qf[i] += 0.01 * b.qvel[i]
		}
	}
	return qf
}

// SetQf applies generalized forces until the next step.
func (b *Body) SetQf(qf []float64) error {
	b.scene.mu.Lock()
	defer b.scene.mu.Unlock()
	if len(qf) != len(b.active) {
		return errors.Errorf("qf has %d entries for %d active joints", len(qf), len(b.active))
	}
	copy(b.qf, qf)
	b.scene.record(Write{Body: b.Name(), Kind: Qf})
	return nil
}

func (b *Body) inputs() []referenceframe.Input {
	return referenceframe.FloatsToInputs(b.qpos)
}

// Joint is a physics.Joint of a fake Body.
type Joint struct {
	body      *Body
	name      string
	index     int
	stiffness float64
	damping   float64
	target    float64
	velocity  float64
}

var _ physics.Joint = (*Joint)(nil)

// Name returns the joint name.
func (j *Joint) Name() string {
	return j.name
}

// SetDriveProperty sets the drive gains.
func (j *Joint) SetDriveProperty(stiffness, damping float64) {
	j.body.scene.mu.Lock()
	defer j.body.scene.mu.Unlock()
	j.stiffness, j.damping = stiffness, damping
	j.body.scene.record(Write{Body: j.body.Name(), Joint: j.name, Kind: DriveProperty, Value: stiffness})
}

// DriveProperty returns the drive gains.
func (j *Joint) DriveProperty() (float64, float64) {
	j.body.scene.mu.Lock()
	defer j.body.scene.mu.Unlock()
	return j.stiffness, j.damping
}

// SetDriveTarget sets the position target.
func (j *Joint) SetDriveTarget(position float64) {
	j.body.scene.mu.Lock()
	defer j.body.scene.mu.Unlock()
	j.target = position
	j.body.scene.record(Write{Body: j.body.Name(), Joint: j.name, Kind: DriveTarget, Value: position})
}

// DriveTarget returns the position target.
func (j *Joint) DriveTarget() float64 {
	j.body.scene.mu.Lock()
	defer j.body.scene.mu.Unlock()
	return j.target
}

// SetDriveVelocityTarget sets the velocity target.
func (j *Joint) SetDriveVelocityTarget(velocity float64) {
	j.body.scene.mu.Lock()
	defer j.body.scene.mu.Unlock()
	j.velocity = velocity
	j.body.scene.record(Write{Body: j.body.Name(), Joint: j.name, Kind: DriveVelocityTarget, Value: velocity})
}

// DriveVelocityTarget returns the velocity target.
func (j *Joint) DriveVelocityTarget() float64 {
	j.body.scene.mu.Lock()
	defer j.body.scene.mu.Unlock()
	return j.velocity
}

// GlobalPose returns the world pose of the joint frame for the current joint positions.
func (j *Joint) GlobalPose() spatialmath.Pose {
	j.body.scene.mu.Lock()
	defer j.body.scene.mu.Unlock()
	pose, err := j.body.model.JointPose(j.name, j.body.inputs())
	if err != nil {
		// the joint came from the model, so this only fails if the model is inconsistent
		panic(err)
	}
	return spatialmath.Compose(j.body.root, pose)
}

// Link is a physics.Link of a fake Body.
type Link struct {
	body *Body
	name string
}

var _ physics.Link = (*Link)(nil)

// Name returns the link name.
func (l *Link) Name() string {
	return l.name
}

// GlobalPose returns the world pose of the link for the current joint positions.
func (l *Link) GlobalPose() spatialmath.Pose {
	l.body.scene.mu.Lock()
	defer l.body.scene.mu.Unlock()
	pose, err := l.body.model.LinkPose(l.name, l.body.inputs())
	if err != nil {
		panic(err)
	}
	return spatialmath.Compose(l.body.root, pose)
}
