package ports

// Parameter keys read by the return-to-launch controller.
const (
	ParamReturnAltitude  = "RTL_RETURN_ALT"
	ParamDescendAltitude = "RTL_DESCEND_ALT"
	ParamLandDelay       = "RTL_LAND_DELAY"
)

// ParameterStore is a read-only, keyed view of the current parameter values.
// Values may change between cycles, so callers must not cache them.
type ParameterStore interface {
	Float(key string) (float64, bool)
}

// Factory defaults for the return-to-launch parameters.
const (
	DefaultReturnAltitude  = 60.0 // meters above home
	DefaultDescendAltitude = 20.0 // meters above home
	DefaultLandDelay       = -1.0 // seconds; negative loiters until told otherwise
)
