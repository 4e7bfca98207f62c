package config

import (
	"errors"
)

// Versioning controls the version tag prefixed to uploaded asset keys.
// In YAML it is either `false` or a mapping of switches.
type Versioning struct {
	Enabled   bool
	Timestamp bool
	GitHash   bool
	Custom    string
}

type versioningSwitches struct {
	Timestamp bool          `yaml:"timestamp"`
	GitHash   bool          `yaml:"git-hash"`
	Custom    customVersion `yaml:"custom"`
}

func (v *Versioning) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var enabled bool
	if err := unmarshal(&enabled); err == nil {
		*v = Versioning{Enabled: enabled}
		return nil
	}

	var switches versioningSwitches
	if err := unmarshal(&switches); err != nil {
		return err
	}

	*v = Versioning{
		Enabled:   true,
		Timestamp: switches.Timestamp,
		GitHash:   switches.GitHash,
		Custom:    string(switches.Custom),
	}
	return nil
}

// customVersion accepts `false` as "unset".
type customVersion string

func (c *customVersion) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var flag bool
	if err := unmarshal(&flag); err == nil {
		if flag {
			return errors.New("versioning custom must be a string or false")
		}
		*c = ""
		return nil
	}

	var value string
	if err := unmarshal(&value); err != nil {
		return err
	}
	*c = customVersion(value)
	return nil
}

// StringList accepts either a single string or a list of strings.
type StringList []string

func (s *StringList) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		if single == "" {
			*s = nil
		} else {
			*s = StringList{single}
		}
		return nil
	}

	var list []string
	if err := unmarshal(&list); err != nil {
		return err
	}
	*s = list
	return nil
}
