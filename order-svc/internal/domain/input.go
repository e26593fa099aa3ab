package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FlexibleValue accepts either a JSON string or a bare JSON number and keeps its text.
type FlexibleValue string

func (v *FlexibleValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FlexibleValue(strings.TrimSpace(s))
		return nil
	}
	*v = FlexibleValue(data)
	return nil
}

type ProductInput struct {
	Name       string        `json:"name"`
	Price      FlexibleValue `json:"price"`
	CategoryID FlexibleValue `json:"categoryId"`
	Image      string        `json:"image"`
}
