package local

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/adapters/storage"
	"github.com/aws/aws-greengrass-core-sdk-c/internal/models"
	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
	"github.com/sirupsen/logrus"
)

func shadowTopic(thingName, suffix string) string {
	return fmt.Sprintf("$aws/things/%s/shadow/%s", thingName, suffix)
}

func internalFailure(op string, err error) error {
	return &greengrass.SDKError{Op: op, Err: fmt.Errorf("%w: %v", greengrass.ErrInternalFailure, err)}
}

// shadowRejected answers req with an error document
func (rt *Runtime) shadowRejected(r *request, thingName, op string, serr *models.ShadowError) *greengrass.RequestResult {
	rt.logger.WithFields(logrus.Fields{
		"thing_name": thingName,
		"code":       serr.Code,
		"message":    serr.Message,
	}).Debug(op + " rejected")

	r.respond(serr.JSON())
	return &greengrass.RequestResult{Status: greengrass.RequestHandled}
}

// loadShadow returns the stored shadow of thingName, or nil if it has none
func (rt *Runtime) loadShadow(ctx context.Context, thingName string) (*models.ShadowDocument, error) {
	doc, err := rt.store.Get(ctx, storage.NamespaceShadow, thingName)
	if storage.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	shadow, err := models.ParseShadowDocument(doc.Body)
	if err != nil {
		return nil, err
	}
	shadow.Version = doc.Version
	return shadow, nil
}

// GetThingShadow implements greengrass.Runtime
func (rt *Runtime) GetThingShadow(ctx context.Context, req greengrass.Request, thingName string) (*greengrass.RequestResult, error) {
	const op = "GetThingShadow"

	r, err := rt.own(op, req)
	if err != nil {
		return nil, err
	}
	if err := greengrass.ValidateThingName(op, thingName); err != nil {
		return nil, err
	}

	shadow, err := rt.loadShadow(ctx, thingName)
	if err != nil {
		return nil, internalFailure(op, err)
	}
	if shadow == nil {
		return rt.shadowRejected(r, thingName, op, models.ShadowNotFound(thingName, rt.now())), nil
	}

	body, err := shadow.GetResponse()
	if err != nil {
		return nil, internalFailure(op, err)
	}

	r.respond(body)
	return &greengrass.RequestResult{Status: greengrass.RequestSuccess}, nil
}

// UpdateThingShadow implements greengrass.Runtime
func (rt *Runtime) UpdateThingShadow(ctx context.Context, req greengrass.Request, thingName string, document []byte) (*greengrass.RequestResult, error) {
	const op = "UpdateThingShadow"

	r, err := rt.own(op, req)
	if err != nil {
		return nil, err
	}
	if err := greengrass.ValidateThingName(op, thingName); err != nil {
		return nil, err
	}

	now := rt.now()
	update, serr := models.ParseShadowUpdate(document, now)
	if serr != nil {
		return rt.shadowRejected(r, thingName, op, serr), nil
	}

	shadow, err := rt.loadShadow(ctx, thingName)
	if err != nil {
		return nil, internalFailure(op, err)
	}
	if shadow == nil {
		shadow = &models.ShadowDocument{}
	}

	current := shadow.Version
	if update.Version != nil && *update.Version != current {
		serr := models.ShadowVersionConflict(now)
		serr.ClientToken = update.ClientToken
		return rt.shadowRejected(r, thingName, op, serr), nil
	}

	shadow.Apply(update, now)
	shadow.Version = current + 1

	body, err := shadow.Marshal()
	if err != nil {
		return nil, internalFailure(op, err)
	}

	stored, err := rt.store.Put(ctx, storage.NamespaceShadow, thingName, body, current)
	if storage.IsVersionConflict(err) {
		serr := models.ShadowVersionConflict(now)
		serr.ClientToken = update.ClientToken
		return rt.shadowRejected(r, thingName, op, serr), nil
	}
	if err != nil {
		return nil, internalFailure(op, err)
	}

	accepted, err := update.UpdateAccepted(stored.Version, now)
	if err != nil {
		return nil, internalFailure(op, err)
	}

	rt.route(ctx, shadowTopic(thingName, "update/accepted"), accepted)
	if delta := models.Delta(shadow.State.Desired, shadow.State.Reported); delta != nil {
		if deltaDoc, err := json.Marshal(map[string]interface{}{
			"state":     delta,
			"version":   stored.Version,
			"timestamp": now.Unix(),
		}); err == nil {
			rt.route(ctx, shadowTopic(thingName, "update/delta"), deltaDoc)
		}
	}

	r.respond(accepted)
	return &greengrass.RequestResult{Status: greengrass.RequestSuccess}, nil
}

// DeleteThingShadow implements greengrass.Runtime
func (rt *Runtime) DeleteThingShadow(ctx context.Context, req greengrass.Request, thingName string) (*greengrass.RequestResult, error) {
	const op = "DeleteThingShadow"

	r, err := rt.own(op, req)
	if err != nil {
		return nil, err
	}
	if err := greengrass.ValidateThingName(op, thingName); err != nil {
		return nil, err
	}

	now := rt.now()
	version, err := rt.store.Delete(ctx, storage.NamespaceShadow, thingName)
	if storage.IsNotFound(err) {
		return rt.shadowRejected(r, thingName, op, models.ShadowNotFound(thingName, now)), nil
	}
	if err != nil {
		return nil, internalFailure(op, err)
	}

	accepted, err := models.DeleteAccepted(version, now)
	if err != nil {
		return nil, internalFailure(op, err)
	}

	rt.route(ctx, shadowTopic(thingName, "delete/accepted"), accepted)

	r.respond(accepted)
	return &greengrass.RequestResult{Status: greengrass.RequestSuccess}, nil
}

// ShadowList is one page of thing names that have a shadow
type ShadowList struct {
	Things     []string `json:"things"`
	NextMarker string   `json:"next_marker,omitempty"`
}

// ListThingShadows returns, in name order, the things after marker whose
// names start with prefix. maxResults of 0 or less lists every match.
func (rt *Runtime) ListThingShadows(ctx context.Context, prefix, marker string, maxResults int) (*ShadowList, error) {
	result, err := rt.store.List(ctx, storage.NamespaceShadow, &storage.ListOptions{
		Prefix:     prefix,
		Marker:     marker,
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, internalFailure("ListThingShadows", err)
	}

	list := &ShadowList{Things: make([]string, 0, len(result.Documents))}
	for _, doc := range result.Documents {
		list.Things = append(list.Things, doc.Key)
	}
	if result.IsTruncated {
		list.NextMarker = result.NextMarker
	}
	return list, nil
}
