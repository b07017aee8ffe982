// Where: internal/cluster/service.go
// What: ECS service identity helpers.
// Why: Derive the snapshot key from a service ARN in one place.
package cluster

import "strings"

// Service is a replica service in the target cluster, identified by its ARN.
type Service struct {
	ARN string
}

// ShortName returns the trailing path segment of the ARN. Both ARN formats
// end in the service name:
//
//	arn:aws:ecs:eu-west-1:123456789012:service/web
//	arn:aws:ecs:eu-west-1:123456789012:service/prod/web
func (s Service) ShortName() string {
	arn := strings.TrimRight(s.ARN, "/")
	if idx := strings.LastIndex(arn, "/"); idx >= 0 {
		return arn[idx+1:]
	}
	return arn
}

func (s Service) String() string {
	return s.ARN
}
