package protocol

import "github.com/janisvco/stepfeed/internal/readings"

// Monitored entity ids.
const (
	EntityStepCount    = "sensor.ksmb_v1_7aed_current_step_count"
	EntityDistance     = "sensor.ksmb_v1_7aed_current_distance"
	EntitySpeedLevel   = "number.ksmb_v1_7aed_speed_level"
	EntityBRB          = "input_boolean.janis_vco_brb"
	EntityHeartRate    = "sensor.galaxy_watch5_rrry_heart_rate"
	EntityHeartEnabled = "input_boolean.janis_vco_heart"
)

// Kind is the value kind an entity reports.
type Kind int

const (
	KindInteger Kind = iota
	KindReal
	KindFlag
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindFlag:
		return "flag"
	default:
		return "unknown"
	}
}

// Value is a state value converted to its rule's kind.
type Value struct {
	Integer int64
	Real    float64
	Flag    bool
}

// Rule maps one entity onto one Store field.
type Rule struct {
	EntityID string
	Kind     Kind
	Apply    func(w readings.Writer, v Value)
}

// Field names accepted by RuleFor.
const (
	FieldSteps        = "steps"
	FieldDistance     = "distance"
	FieldSpeed        = "speed"
	FieldHeartRate    = "heart_rate"
	FieldBRBEnabled   = "brb_enabled"
	FieldHeartEnabled = "heart_enabled"
)

// RuleFor builds the rule that writes entityID into the named Store field.
func RuleFor(field, entityID string) (Rule, bool) {
	switch field {
	case FieldSteps:
		return Rule{EntityID: entityID, Kind: KindInteger, Apply: func(w readings.Writer, v Value) { w.SetSteps(v.Integer) }}, true
	case FieldDistance:
		return Rule{EntityID: entityID, Kind: KindReal, Apply: func(w readings.Writer, v Value) { w.SetDistance(v.Real) }}, true
	case FieldSpeed:
		return Rule{EntityID: entityID, Kind: KindReal, Apply: func(w readings.Writer, v Value) { w.SetSpeed(v.Real) }}, true
	case FieldHeartRate:
		return Rule{EntityID: entityID, Kind: KindReal, Apply: func(w readings.Writer, v Value) { w.SetHeartRate(v.Real) }}, true
	case FieldBRBEnabled:
		return Rule{EntityID: entityID, Kind: KindFlag, Apply: func(w readings.Writer, v Value) { w.SetBRBEnabled(v.Flag) }}, true
	case FieldHeartEnabled:
		return Rule{EntityID: entityID, Kind: KindFlag, Apply: func(w readings.Writer, v Value) { w.SetHeartEnabled(v.Flag) }}, true
	default:
		return Rule{}, false
	}
}

// DefaultEntities maps each Store field to its monitored entity, in
// subscription order.
var DefaultEntities = []struct {
	Field    string
	EntityID string
}{
	{FieldSteps, EntityStepCount},
	{FieldDistance, EntityDistance},
	{FieldSpeed, EntitySpeedLevel},
	{FieldBRBEnabled, EntityBRB},
	{FieldHeartRate, EntityHeartRate},
	{FieldHeartEnabled, EntityHeartEnabled},
}
