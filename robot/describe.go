package robot

import (
	"github.com/dualarm/simcore/components/arm"
)

// ArmDescription lists what one arm is bound to.
type ArmDescription struct {
	Arm           string   `json:"arm"`
	Body          string   `json:"body"`
	ArmJoints     []string `json:"arm_joints"`
	GripperJoints []string `json:"gripper_joints"`
	Wrist         string   `json:"wrist,omitempty"`
	EEJoint       string   `json:"ee_joint"`
	Camera        string   `json:"camera"`
	Links         []string `json:"links"`
}

// Description summarizes the robot for logs.
type Description struct {
	Layout string           `json:"layout"`
	Arms   []ArmDescription `json:"arms"`
}

// Describe returns the joint and link names bound to each arm and logs them at debug level.
func (r *Robot) Describe() Description {
	d := Description{Layout: r.layout.String()}
	for _, tag := range arm.Tags() {
		h := r.handle(tag)
		ad := ArmDescription{
			Arm:           tag.String(),
			Body:          h.body.Name(),
			ArmJoints:     names(h.armJoints),
			GripperJoints: names(h.gripperJoints),
			EEJoint:       h.ee.Name(),
			Camera:        h.camera.Name(),
		}
		if h.wrist != nil {
			ad.Wrist = h.wrist.Name()
		}
		for _, l := range h.body.Links() {
			ad.Links = append(ad.Links, l.Name())
		}
		d.Arms = append(d.Arms, ad)
		h.logger.Debugw("arm", "body", ad.Body, "arm_joints", ad.ArmJoints, "gripper_joints", ad.GripperJoints,
			"wrist", ad.Wrist, "camera", ad.Camera)
	}
	return d
}
