package referenceframe

import (
	"encoding/xml"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/dualarm/simcore/spatialmath"
)

// URDFConfig represents all supported fields in a Universal Robot Description Format (URDF) file.
type URDFConfig struct {
	XMLName xml.Name    `xml:"robot"`
	Name    string      `xml:"name,attr"`
	Links   []URDFLink  `xml:"link"`
	Joints  []URDFJoint `xml:"joint"`
}

// URDFLink is a struct which details the XML used in a URDF link element. Only the name is used; the
// physics engine owns geometry and inertia.
type URDFLink struct {
	XMLName xml.Name `xml:"link"`
	Name    string   `xml:"name,attr"`
}

// URDFLimit is the XML of a joint limit element.
type URDFLimit struct {
	XMLName xml.Name `xml:"limit"`
	Lower   float64  `xml:"lower,attr"` // translation limits are in meters, revolute limits are in radians
	Upper   float64  `xml:"upper,attr"` // translation limits are in meters, revolute limits are in radians
}

// URDFFrame names the link on one side of a joint.
type URDFFrame struct {
	Link string `xml:"link,attr"`
}

// URDFPose is the XML of an origin element.
type URDFPose struct {
	XMLName xml.Name `xml:"origin"`
	XYZ     string   `xml:"xyz,attr"`
	RPY     string   `xml:"rpy,attr"`
}

// URDFAxis is the XML of an axis element.
type URDFAxis struct {
	XMLName xml.Name `xml:"axis"`
	XYZ     string   `xml:"xyz,attr"`
}

// URDFJoint is a struct which details the XML used in a URDF joint element.
type URDFJoint struct {
	XMLName xml.Name   `xml:"joint"`
	Name    string     `xml:"name,attr"`
	Type    string     `xml:"type,attr"`
	Parent  URDFFrame  `xml:"parent"`
	Child   URDFFrame  `xml:"child"`
	Origin  *URDFPose  `xml:"origin,omitempty"`
	Axis    *URDFAxis  `xml:"axis,omitempty"`
	Limit   *URDFLimit `xml:"limit,omitempty"`
}

// Parse converts an origin element into a pose. Absent attributes are zero.
func (p *URDFPose) Parse() (spatialmath.Pose, error) {
	if p == nil {
		return spatialmath.NewZeroPose(), nil
	}
	xyz, err := parseTriple(p.XYZ)
	if err != nil {
		return nil, errors.Wrap(err, "origin xyz")
	}
	rpy, err := parseTriple(p.RPY)
	if err != nil {
		return nil, errors.Wrap(err, "origin rpy")
	}
	return spatialmath.NewPose(xyz, &spatialmath.EulerAngles{Roll: rpy.X, Pitch: rpy.Y, Yaw: rpy.Z}), nil
}

// Parse converts an axis element into a unit vector. URDF defaults an absent axis to x.
func (a *URDFAxis) Parse() (r3.Vector, error) {
	if a == nil {
		return r3.Vector{X: 1}, nil
	}
	axis, err := parseTriple(a.XYZ)
	if err != nil {
		return r3.Vector{}, errors.Wrap(err, "axis xyz")
	}
	if axis.Norm() == 0 {
		return r3.Vector{}, errors.New("axis must not be zero")
	}
	return axis.Normalize(), nil
}

func parseTriple(s string) (r3.Vector, error) {
	values := spatialmath.SpaceDelimitedStringToSlice(s)
	if len(values) == 0 {
		return r3.Vector{}, nil
	}
	if len(values) != 3 {
		return r3.Vector{}, errors.Errorf("expected 3 values, got %q", s)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return r3.Vector{}, errors.Errorf("invalid number in %q", s)
		}
	}
	return r3.Vector{X: values[0], Y: values[1], Z: values[2]}, nil
}

// ParseURDFFile will read a given file and parse the contained URDF XML data into a Model.
func ParseURDFFile(filename, modelName string) (*Model, error) {
	//nolint:gosec
	xmlData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read URDF file")
	}
	m, err := ParseURDF(xmlData, modelName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse URDF file %q", filename)
	}
	return m, nil
}

// ParseURDF converts URDF XML data into a Model. An empty modelName uses the robot name from the data.
func ParseURDF(xmlData []byte, modelName string) (*Model, error) {
	// empty data probably means that the read URDF has no actionable information
	if len(xmlData) == 0 {
		return nil, ErrNoModelInformation
	}

	urdf := &URDFConfig{}
	if err := xml.Unmarshal(xmlData, urdf); err != nil {
		return nil, errors.Wrap(err, "failed to convert URDF data to equivalent URDFConfig struct")
	}
	if modelName == "" {
		modelName = urdf.Name
	}

	links := make([]string, 0, len(urdf.Links))
	for _, l := range urdf.Links {
		links = append(links, l.Name)
	}

	joints := make([]Joint, 0, len(urdf.Joints))
	for _, jointElem := range urdf.Joints {
		j := Joint{
			Name:   jointElem.Name,
			Type:   JointType(jointElem.Type),
			Parent: jointElem.Parent.Link,
			Child:  jointElem.Child.Link,
			Limit:  Limit{Min: math.Inf(-1), Max: math.Inf(1)},
		}
		origin, err := jointElem.Origin.Parse()
		if err != nil {
			return nil, errors.Wrapf(err, "joint %q", jointElem.Name)
		}
		j.Origin = origin

		switch j.Type {
		case ContinuousJoint:
		case RevoluteJoint, PrismaticJoint:
			if jointElem.Limit != nil {
				j.Limit = Limit{Min: jointElem.Limit.Lower, Max: jointElem.Limit.Upper}
			}
		case FixedJoint:
		default:
			return nil, NewUnsupportedJointTypeError(jointElem.Type)
		}
		if j.Type != FixedJoint {
			if j.Axis, err = jointElem.Axis.Parse(); err != nil {
				return nil, errors.Wrapf(err, "joint %q", jointElem.Name)
			}
		}
		joints = append(joints, j)
	}
	return NewModel(modelName, links, joints)
}
