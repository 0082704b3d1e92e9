package local

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/adapters/storage"
	"github.com/aws/aws-greengrass-core-sdk-c/internal/models"
	"github.com/aws/aws-greengrass-core-sdk-c/internal/retry"
	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
	"github.com/sirupsen/logrus"
)

// putRetry retries secret writes that lost a version race
var putRetry = &retry.Config{
	MaxAttempts:   10,
	InitialDelay:  5 * time.Millisecond,
	MaxDelay:      100 * time.Millisecond,
	BackoffFactor: 2.0,
	JitterEnabled: true,
}

// secretName accepts a secret name or a Secrets Manager ARN
func secretName(secretID string) string {
	if strings.HasPrefix(secretID, "arn:") {
		if i := strings.Index(secretID, ":secret:"); i >= 0 {
			return secretID[i+len(":secret:"):]
		}
	}
	return secretID
}

func (rt *Runtime) loadSecret(ctx context.Context, name string) (*models.Secret, int64, error) {
	doc, err := rt.store.Get(ctx, storage.NamespaceSecret, name)
	if err != nil {
		return nil, 0, err
	}

	secret := &models.Secret{}
	if err := json.Unmarshal(doc.Body, secret); err != nil {
		return nil, 0, fmt.Errorf("failed to decode secret %s: %w", name, err)
	}
	return secret, doc.Version, nil
}

// PutSecretValue stores a new current version of a secret, creating the
// secret if needed
func (rt *Runtime) PutSecretValue(ctx context.Context, secretID, secretString string, secretBinary []byte) (*models.SecretValue, error) {
	name := secretName(secretID)
	if name == "" {
		return nil, &greengrass.SDKError{Op: "PutSecretValue", Err: greengrass.ErrInvalidParameter}
	}

	var value *models.SecretValue
	err := retry.Do(ctx, putRetry, storage.IsVersionConflict, func(ctx context.Context) error {
		secret, version, err := rt.loadSecret(ctx, name)
		if storage.IsNotFound(err) {
			secret, version, err = models.NewSecret(name, rt.region, rt.account), 0, nil
		}
		if err != nil {
			return err
		}

		added := secret.AddVersion(secretString, secretBinary, rt.now())
		body, err := json.Marshal(secret)
		if err != nil {
			return err
		}

		if _, err := rt.store.Put(ctx, storage.NamespaceSecret, name, body, version); err != nil {
			return err
		}
		value = secret.Value(added)
		return nil
	})
	if err != nil {
		return nil, internalFailure("PutSecretValue", err)
	}

	rt.logger.WithFields(logrus.Fields{
		"secret_id":  name,
		"version_id": value.VersionID,
	}).Info("Secret value stored")
	return value, nil
}

// GetSecretValue implements greengrass.Runtime
func (rt *Runtime) GetSecretValue(ctx context.Context, req greengrass.Request, secretReq *greengrass.SecretRequest) (*greengrass.RequestResult, error) {
	const op = "GetSecretValue"

	r, err := rt.own(op, req)
	if err != nil {
		return nil, err
	}
	if secretReq == nil {
		return nil, &greengrass.SDKError{Op: op, Err: greengrass.ErrInvalidParameter}
	}
	if err := greengrass.Validate(op, secretReq); err != nil {
		return nil, err
	}

	rejected := func(serr *models.SecretError) (*greengrass.RequestResult, error) {
		rt.logger.WithFields(logrus.Fields{
			"secret_id": secretReq.SecretID,
			"code":      serr.Code,
			"message":   serr.Message,
		}).Debug(op + " rejected")

		body, _ := json.Marshal(serr)
		r.respond(body)
		return &greengrass.RequestResult{Status: greengrass.RequestHandled}, nil
	}

	secret, _, err := rt.loadSecret(ctx, secretName(secretReq.SecretID))
	if storage.IsNotFound(err) {
		return rejected(models.SecretNotFound(secretReq.SecretID))
	}
	if err != nil {
		return nil, internalFailure(op, err)
	}

	version, serr := secret.Resolve(secretReq.VersionID, secretReq.VersionStage)
	if serr != nil {
		return rejected(serr)
	}

	body, err := json.Marshal(secret.Value(version))
	if err != nil {
		return nil, internalFailure(op, err)
	}

	r.respond(body)
	return &greengrass.RequestResult{Status: greengrass.RequestSuccess}, nil
}
