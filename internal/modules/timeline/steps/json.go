package steps

import (
	"encoding/json"

	"gorm.io/datatypes"
)

func jsonUnmarshalLenient(raw datatypes.JSON, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
