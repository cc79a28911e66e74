package config

import "encoding/json"

// Secret holds a sensitive string and redacts it when printed or marshaled,
// so credentials never leak through logs or config dumps.
type Secret struct {
	value string
}

func NewSecret(value string) Secret {
	return Secret{value: value}
}

func (s Secret) Value() string {
	return s.value
}

func (s Secret) String() string {
	if s.value == "" {
		return ""
	}
	return "[REDACTED]"
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Secret) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	s.value = value
	return nil
}

func (s Secret) IsEmpty() bool {
	return s.value == ""
}
