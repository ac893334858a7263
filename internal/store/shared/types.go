package shared

// StoreType identifies a catalog store backend.
type StoreType string

const (
	StoreTypeMemory   StoreType = "memory"
	StoreTypeJSONFile StoreType = "jsonfile"
	// Add more store types here as you implement them
)

func (t StoreType) String() string {
	return string(t)
}

func (t StoreType) IsValid() bool {
	switch t {
	case StoreTypeMemory, StoreTypeJSONFile:
		return true
	default:
		return false
	}
}

// StoreConfig is the JSON-encoded factory configuration.
type StoreConfig struct {
	StoreType    StoreType              `json:"store_type"`
	ExtraDetails map[string]interface{} `json:"extra_details"`
}
