// Where: internal/cluster/ecs.go
// What: ECS control-plane adapter for listing, describing, and updating services.
// Why: Keep SDK request shapes out of the scaling protocol.
package cluster

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/poruru/ecs-scheduled-scaling/internal/config"
)

// ECSAPI is the subset of the ECS client used here. *ecs.Client satisfies it.
type ECSAPI interface {
	ecs.ListServicesAPIClient
	DescribeServices(ctx context.Context, params *ecs.DescribeServicesInput, optFns ...func(*ecs.Options)) (*ecs.DescribeServicesOutput, error)
	UpdateService(ctx context.Context, params *ecs.UpdateServiceInput, optFns ...func(*ecs.Options)) (*ecs.UpdateServiceOutput, error)
}

// Client talks to one ECS cluster.
type Client struct {
	api        ECSAPI
	cluster    string
	launchType types.LaunchType
	strategy   types.SchedulingStrategy
}

// New returns a Client for the cluster and service filters named in cfg.
func New(api ECSAPI, cfg config.Config) *Client {
	return &Client{
		api:        api,
		cluster:    cfg.Cluster,
		launchType: types.LaunchType(cfg.LaunchType),
		strategy:   types.SchedulingStrategy(cfg.SchedulingStrategy),
	}
}

// Cluster returns the cluster name or ARN this client targets.
func (c *Client) Cluster() string {
	return c.cluster
}

// ListReplicaServices returns every service matching the launch type and
// scheduling strategy filters, following pagination to the end.
func (c *Client) ListReplicaServices(ctx context.Context) ([]Service, error) {
	if c == nil || c.api == nil {
		return nil, fmt.Errorf("ecs client is nil")
	}
	paginator := ecs.NewListServicesPaginator(c.api, &ecs.ListServicesInput{
		Cluster:            aws.String(c.cluster),
		LaunchType:         c.launchType,
		SchedulingStrategy: c.strategy,
	})

	var services []Service
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list services in %s: %w", c.cluster, err)
		}
		for _, arn := range page.ServiceArns {
			services = append(services, Service{ARN: arn})
		}
	}
	return services, nil
}

// DesiredCount describes svc and returns its current desired count.
func (c *Client) DesiredCount(ctx context.Context, svc Service) (int32, error) {
	if c == nil || c.api == nil {
		return 0, fmt.Errorf("ecs client is nil")
	}
	out, err := c.api.DescribeServices(ctx, &ecs.DescribeServicesInput{
		Cluster:  aws.String(c.cluster),
		Services: []string{svc.ARN},
	})
	if err != nil {
		return 0, fmt.Errorf("describe service %s: %w", svc.ShortName(), err)
	}
	if len(out.Services) > 0 {
		return out.Services[0].DesiredCount, nil
	}
	return 0, fmt.Errorf("describe service %s: %s", svc.ShortName(), describeFailure(out.Failures))
}

// UpdateDesiredCount sets the desired count of svc.
func (c *Client) UpdateDesiredCount(ctx context.Context, svc Service, count int32) error {
	if c == nil || c.api == nil {
		return fmt.Errorf("ecs client is nil")
	}
	if count < 0 {
		return fmt.Errorf("desired count for %s must not be negative: %d", svc.ShortName(), count)
	}
	_, err := c.api.UpdateService(ctx, &ecs.UpdateServiceInput{
		Cluster:      aws.String(c.cluster),
		Service:      aws.String(svc.ARN),
		DesiredCount: aws.Int32(count),
	})
	if err != nil {
		return fmt.Errorf("update service %s to %d: %w", svc.ShortName(), count, err)
	}
	return nil
}

func describeFailure(failures []types.Failure) string {
	if len(failures) == 0 {
		return "service not returned"
	}
	parts := make([]string, 0, len(failures))
	for _, failure := range failures {
		reason := aws.ToString(failure.Reason)
		if detail := aws.ToString(failure.Detail); detail != "" {
			reason = reason + " (" + detail + ")"
		}
		parts = append(parts, reason)
	}
	return strings.Join(parts, "; ")
}
