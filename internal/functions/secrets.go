package functions

import (
	"context"

	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
)

// GetSecret fetches the current value of secretID
func (e *Examples) GetSecret(ctx context.Context, secretID string) (*Reply, error) {
	secretReq := &greengrass.SecretRequest{SecretID: secretID}

	var reply *Reply
	err := greengrass.WithRequest(e.Runtime, func(req greengrass.Request) error {
		result, err := e.Runtime.GetSecretValue(ctx, req, secretReq)
		if err != nil {
			e.Logger.Errorf("Failed to get secret value: %d", greengrass.CodeOf(err))
			return err
		}

		reply, err = e.readReply(req, result, SecretBufferSize, "secret")
		if err != nil {
			return err
		}
		if result.Status != greengrass.RequestSuccess {
			e.Logger.Errorf("Get secret failed, request_status %d: %s", result.Status, reply.Body)
			return nil
		}
		e.Logger.Infof("Secret response: %s", reply.Body)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// SecretsHandler fetches the configured secret on every event
func (e *Examples) SecretsHandler(ctx context.Context, inv greengrass.Invocation) {
	e.GetSecret(ctx, e.Config.SecretID)
}
