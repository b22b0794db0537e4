package referenceframe

import (
	"encoding/json"
	"math"
	"os"

	"github.com/pkg/errors"
)

// GroupConfigJSON represents all supported fields in a joint group JSON file.
type GroupConfigJSON struct {
	Name   string        `json:"name"`
	Joints []JointConfig `json:"joints"`
}

// JointConfig is a single joint entry of a joint group JSON file. Omitted min/max mean the joint is unbounded.
type JointConfig struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	Min             *float64 `json:"min,omitempty"`
	Max             *float64 `json:"max,omitempty"`
	MaxVelocity     float64  `json:"max_velocity,omitempty"`
	MaxAcceleration float64  `json:"max_acceleration,omitempty"`
}

// ToJoint converts the config entry into a Joint.
func (cfg JointConfig) ToJoint() (Joint, error) {
	if cfg.ID == "" {
		return Joint{}, errors.New("joint config is missing an id")
	}
	limit := Limit{Min: math.Inf(-1), Max: math.Inf(1)}
	if cfg.Min != nil {
		limit.Min = *cfg.Min
	}
	if cfg.Max != nil {
		limit.Max = *cfg.Max
	}
	return Joint{
		Name:            cfg.ID,
		Type:            JointType(cfg.Type),
		Limit:           limit,
		MaxVelocity:     cfg.MaxVelocity,
		MaxAcceleration: cfg.MaxAcceleration,
	}, nil
}

// ParseConfig converts the GroupConfigJSON struct into a JointGroup with the name groupName.
func (cfg *GroupConfigJSON) ParseConfig(groupName string) (*JointGroup, error) {
	if groupName == "" {
		groupName = cfg.Name
	}
	joints := make([]Joint, 0, len(cfg.Joints))
	for _, jc := range cfg.Joints {
		joint, err := jc.ToJoint()
		if err != nil {
			return nil, err
		}
		joints = append(joints, joint)
	}
	return NewJointGroup(groupName, joints)
}

// UnmarshalGroupJSON will parse the given JSON data into a joint group. groupName sets the name of the group,
// will use the name from the JSON if string is empty.
func UnmarshalGroupJSON(jsonData []byte, groupName string) (*JointGroup, error) {
	if len(jsonData) == 0 {
		return nil, ErrNoGroupInformation
	}
	cfg := &GroupConfigJSON{}
	if err := json.Unmarshal(jsonData, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json file")
	}
	return cfg.ParseConfig(groupName)
}

// ParseGroupJSONFile will read a given file and then parse the contained JSON data.
func ParseGroupJSONFile(filename, groupName string) (*JointGroup, error) {
	//nolint:gosec
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read json file")
	}
	return UnmarshalGroupJSON(jsonData, groupName)
}
