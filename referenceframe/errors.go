package referenceframe

import (
	"github.com/pkg/errors"
)

// ErrNoModelInformation is used when there is no model information.
var ErrNoModelInformation = errors.New("no model information")

// NewIncorrectDoFError returns an error indicating that the length of an input slice does not match the DoF of a model.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Errorf("number of dimensions (%d) of input does not match model degrees of freedom (%d)", actual, expected)
}

// NewUnsupportedJointTypeError returns an error indicating that a given joint type is not supported by current model
// parsing.
func NewUnsupportedJointTypeError(jointType string) error {
	return errors.Errorf("unsupported joint type detected: %q", jointType)
}

// NewLinkMissingError returns an error indicating that a named link is not part of the model.
func NewLinkMissingError(name string) error {
	return errors.Errorf("link with name %q not in model", name)
}

// NewJointMissingError returns an error indicating that a named joint is not part of the model.
func NewJointMissingError(name string) error {
	return errors.Errorf("joint with name %q not in model", name)
}

// NewParentLinkCycleError returns an error indicating the joint tree of a model contains a cycle through link.
func NewParentLinkCycleError(link string) error {
	return errors.Errorf("link %q is its own ancestor", link)
}
