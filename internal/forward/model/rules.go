package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// FilterRules are the admin-configured predicates deciding whether an event
// is forwarded to a platform. SMS events deny by default once any of the
// first four lists is populated; calls forward by default unless blocklisted.
type FilterRules struct {
	Keywords         []string `json:"keywords,omitempty"`
	Senders          []string `json:"senders,omitempty"`
	Devices          []string `json:"devices,omitempty"`
	SimCards         []string `json:"sim_cards,omitempty"`
	BlockCallNumbers []string `json:"block_call_numbers,omitempty"`
}

// Empty reports whether no SMS rule list is populated. The call blocklist is
// deliberately excluded: it never switches SMS filtering into deny-by-default.
func (r FilterRules) Empty() bool {
	return len(r.Keywords) == 0 && len(r.Senders) == 0 && len(r.Devices) == 0 && len(r.SimCards) == 0
}

func (r FilterRules) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *FilterRules) Scan(value interface{}) error {
	if value == nil {
		*r = FilterRules{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported filter rules column type %T", value)
	}
	if len(data) == 0 {
		*r = FilterRules{}
		return nil
	}
	return json.Unmarshal(data, r)
}
