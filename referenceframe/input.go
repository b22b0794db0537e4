// Package referenceframe describes the joints of a planning group: their types, position limits, and
// native velocity and acceleration limits, along with helpers for working with joint configurations.
package referenceframe

import (
	"math"

	pb "go.viam.com/api/component/arm/v1"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/totg/utils"
)

// Input is a single joint value, e.g. a joint angle or a gantry position.
//   - revolute and continuous inputs should be in radians.
//   - prismatic inputs should be in length units (mm for the viam api).
type Input = float64

// InterpolateInputs will return a set of inputs that are the specified percent between the two given sets of
// inputs. For example, setting by to 0.5 will return the inputs halfway between the from/to values, and 0.25 would
// return one quarter of the way from "from" to "to".
func InterpolateInputs(from, to []Input, by float64) []Input {
	newVals := make([]Input, len(from))
	for i, j1 := range from {
		newVals[i] = j1 + ((to[i] - j1) * by)
	}
	return newVals
}

// InputsL2Distance returns the two-norm between two Input sets.
func InputsL2Distance(from, to []Input) float64 {
	if len(from) != len(to) {
		return math.Inf(1)
	}
	return floats.Distance(from, to, 2)
}

// InputsLInfDistance returns the largest per-joint absolute difference between two Input sets.
func InputsLInfDistance(from, to []Input) float64 {
	if len(from) != len(to) {
		return math.Inf(1)
	}
	return floats.Distance(from, to, math.Inf(1))
}

// JointPositionsFromInputs converts inputs to the api JointPositions message. Revolute and continuous
// joints are reported in degrees, prismatic joints are passed through unchanged.
func JointPositionsFromInputs(g *JointGroup, inputs []Input) (*pb.JointPositions, error) {
	if g == nil {
		// without a group every input is assumed to be an angle
		n := make([]float64, len(inputs))
		for i, in := range inputs {
			n[i] = utils.RadToDeg(in)
		}
		return &pb.JointPositions{Values: n}, nil
	}
	if g.DoF() != len(inputs) {
		return nil, NewIncorrectDoFError(len(inputs), g.DoF())
	}
	n := make([]float64, len(inputs))
	for i, joint := range g.joints {
		if joint.Type.IsAngular() {
			n[i] = utils.RadToDeg(inputs[i])
		} else {
			n[i] = inputs[i]
		}
	}
	return &pb.JointPositions{Values: n}, nil
}

// InputsFromJointPositions converts an api JointPositions message back into inputs.
func InputsFromJointPositions(g *JointGroup, jp *pb.JointPositions) ([]Input, error) {
	if jp == nil {
		return nil, NewNilJointPositionsError()
	}
	if g == nil {
		n := make([]Input, len(jp.Values))
		for i, d := range jp.Values {
			n[i] = utils.DegToRad(d)
		}
		return n, nil
	}
	if g.DoF() != len(jp.Values) {
		return nil, NewIncorrectDoFError(len(jp.Values), g.DoF())
	}
	n := make([]Input, len(jp.Values))
	for i, joint := range g.joints {
		if joint.Type.IsAngular() {
			n[i] = utils.DegToRad(jp.Values[i])
		} else {
			n[i] = jp.Values[i]
		}
	}
	return n, nil
}
