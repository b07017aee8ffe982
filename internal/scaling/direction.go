// Where: internal/scaling/direction.go
// What: Trigger parsing into a closed set of scaling directions.
// Why: Keep string matching on event labels in one function.
package scaling

import "strings"

// Direction is the action requested by a trigger.
type Direction int

const (
	Unrecognized Direction = iota
	ScaleUp
	ScaleDown
)

func (d Direction) String() string {
	switch d {
	case ScaleUp:
		return "scale-up"
	case ScaleDown:
		return "scale-down"
	case Unrecognized:
		return "unrecognized"
	}
	return "unrecognized"
}

// Triggers names the two recognized direction labels.
type Triggers struct {
	Up   string
	Down string
}

// Label extracts the direction label from an event's resources: the second
// "/"-delimited segment of the first resource. For a scheduled rule
// "arn:aws:events:eu-west-1:123456789012:rule/ECSScheduledScaling-Up" that is
// the rule name.
func Label(resources []string) (string, bool) {
	if len(resources) == 0 {
		return "", false
	}
	parts := strings.Split(resources[0], "/")
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}

// Parse maps an event's resources to a Direction. Matching is case-sensitive.
func (t Triggers) Parse(resources []string) Direction {
	label, ok := Label(resources)
	if !ok || label == "" {
		return Unrecognized
	}
	switch label {
	case t.Up:
		return ScaleUp
	case t.Down:
		return ScaleDown
	default:
		return Unrecognized
	}
}
