package platform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	config "github.com/maheshrc27/crossflow/configs"
)

// Container status codes reported by the Graph API while an upload is
// processed out-of-band.
const (
	containerStatusInProgress = "IN_PROGRESS"
	containerStatusFinished   = "FINISHED"
	containerStatusError      = "ERROR"
	containerStatusExpired    = "EXPIRED"
)

// containerPublisher drives the asynchronous container-create → poll-status
// → publish protocol. The same machine serves both Graph domains; only the
// client differs. Retry numbers come from policy, and OAuth-class errors
// short-circuit every loop: they are never transient.
type containerPublisher struct {
	graph  graphClient
	policy config.PublishRetry
	sleep  func(time.Duration)
}

func newContainerPublisher(graph graphClient, policy config.PublishRetry) *containerPublisher {
	return &containerPublisher{
		graph:  graph,
		policy: policy,
		sleep:  time.Sleep,
	}
}

// publishMedia creates a container for the media, waits for processing to
// finish, then publishes it. Returns the published media ID.
func (p *containerPublisher) publishMedia(ctx context.Context, accountID, accessToken string, media containerParams) (string, error) {
	containerID, err := p.graph.CreateContainer(ctx, accountID, accessToken, media)
	if err != nil {
		return "", fmt.Errorf("failed to create media container: %w", err)
	}

	if err := p.waitForContainer(ctx, containerID, accessToken); err != nil {
		return "", err
	}

	// The FINISHED transition is observed to precede full readiness.
	p.sleep(time.Duration(p.policy.PublishSettleDelayMs) * time.Millisecond)

	return p.publishContainer(ctx, accountID, containerID, accessToken)
}

func (p *containerPublisher) waitForContainer(ctx context.Context, containerID, accessToken string) error {
	attempts := p.policy.StatusPollAttempts
	delay := time.Duration(p.policy.StatusPollDelayMs) * time.Millisecond

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			p.sleep(delay)
		}

		status, err := p.graph.ContainerStatus(ctx, containerID, accessToken)
		if err != nil {
			if IsOAuthError(err) {
				return fmt.Errorf("authorization failed while polling container %s: %w", containerID, err)
			}
			slog.Info(err.Error())
			continue
		}

		switch status {
		case containerStatusFinished:
			return nil
		case containerStatusError, containerStatusExpired:
			return fmt.Errorf("media container %s failed processing with status %s", containerID, status)
		case containerStatusInProgress:
			// keep polling
		default:
			slog.Info("unknown container status " + status)
		}
	}

	elapsed := time.Duration(attempts) * delay
	return fmt.Errorf("media container %s not finished after %d attempts (~%s)", containerID, attempts, elapsed)
}

func (p *containerPublisher) publishContainer(ctx context.Context, accountID, containerID, accessToken string) (string, error) {
	attempts := p.policy.PublishRetryAttempts
	base := time.Duration(p.policy.PublishBackoffBaseMs) * time.Millisecond
	step := time.Duration(p.policy.PublishBackoffStepMs) * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		mediaID, err := p.graph.PublishContainer(ctx, accountID, containerID, accessToken)
		if err == nil {
			return mediaID, nil
		}

		if IsOAuthError(err) {
			return "", fmt.Errorf("authorization failed while publishing container %s: %w", containerID, err)
		}
		if !IsMediaNotReady(err) {
			return "", fmt.Errorf("failed to publish container %s: %w", containerID, err)
		}

		lastErr = err
		if attempt < attempts-1 {
			p.sleep(base + step*time.Duration(attempt))
		}
	}

	return "", fmt.Errorf("media %s still not ready after %d publish attempts: %w", containerID, attempts, lastErr)
}
