package models

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Version stages managed by the secret store
const (
	StageCurrent  = "AWSCURRENT"
	StagePrevious = "AWSPREVIOUS"
)

// Secret is a named secret with its versions
type Secret struct {
	ARN      string          `json:"arn"`
	Name     string          `json:"name"`
	Versions []SecretVersion `json:"versions"`
}

// SecretVersion is one value of a secret
type SecretVersion struct {
	VersionID    string    `json:"version_id"`
	SecretString string    `json:"secret_string,omitempty"`
	SecretBinary []byte    `json:"secret_binary,omitempty"`
	Stages       []string  `json:"stages"`
	CreatedDate  time.Time `json:"created_date"`
}

// SecretValue is the response document of a secret lookup
type SecretValue struct {
	ARN           string   `json:"ARN"`
	Name          string   `json:"Name"`
	VersionID     string   `json:"VersionId"`
	SecretString  string   `json:"SecretString,omitempty"`
	SecretBinary  []byte   `json:"SecretBinary,omitempty"`
	VersionStages []string `json:"VersionStages"`
	CreatedDate   float64  `json:"CreatedDate"`
}

// SecretError is the error document of a failed secret lookup
type SecretError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *SecretError) Error() string {
	return fmt.Sprintf("secret error %d: %s", e.Code, e.Message)
}

// NewSecret creates a secret with no versions
func NewSecret(name, region, account string) *Secret {
	return &Secret{
		ARN:  fmt.Sprintf("arn:aws:secretsmanager:%s:%s:secret:%s", region, account, name),
		Name: name,
	}
}

// AddVersion stores a new current version and returns it.
// The previous current version becomes AWSPREVIOUS.
func (s *Secret) AddVersion(secretString string, secretBinary []byte, now time.Time) *SecretVersion {
	for i := range s.Versions {
		stages := s.Versions[i].Stages[:0]
		for _, stage := range s.Versions[i].Stages {
			switch stage {
			case StagePrevious:
			case StageCurrent:
				stages = append(stages, StagePrevious)
			default:
				stages = append(stages, stage)
			}
		}
		s.Versions[i].Stages = stages
	}

	s.Versions = append(s.Versions, SecretVersion{
		VersionID:    uuid.New().String(),
		SecretString: secretString,
		SecretBinary: append([]byte(nil), secretBinary...),
		Stages:       []string{StageCurrent},
		CreatedDate:  now.UTC(),
	})
	return &s.Versions[len(s.Versions)-1]
}

// Resolve finds the version selected by versionID, or by stage when
// versionID is empty. An empty stage selects AWSCURRENT.
func (s *Secret) Resolve(versionID, stage string) (*SecretVersion, *SecretError) {
	if versionID == "" && stage == "" {
		stage = StageCurrent
	}

	for i := range s.Versions {
		v := &s.Versions[i]
		if versionID != "" && v.VersionID != versionID {
			continue
		}
		if stage != "" && !v.HasStage(stage) {
			continue
		}
		return v, nil
	}

	switch {
	case versionID != "" && stage != "":
		return nil, &SecretError{Code: http.StatusNotFound, Message: fmt.Sprintf("Secret %s has no version %s labelled %s", s.Name, versionID, stage)}
	case versionID != "":
		return nil, &SecretError{Code: http.StatusNotFound, Message: fmt.Sprintf("Secret %s has no version %s", s.Name, versionID)}
	default:
		return nil, &SecretError{Code: http.StatusNotFound, Message: fmt.Sprintf("Secret %s has no version labelled %s", s.Name, stage)}
	}
}

// HasStage reports whether the version carries stage
func (v *SecretVersion) HasStage(stage string) bool {
	for _, s := range v.Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// Value builds the lookup response for version v of s
func (s *Secret) Value(v *SecretVersion) *SecretValue {
	return &SecretValue{
		ARN:           s.ARN,
		Name:          s.Name,
		VersionID:     v.VersionID,
		SecretString:  v.SecretString,
		SecretBinary:  v.SecretBinary,
		VersionStages: append([]string(nil), v.Stages...),
		CreatedDate:   float64(v.CreatedDate.UnixNano()) / 1e9,
	}
}

// SecretNotFound is returned for an unknown secret id
func SecretNotFound(secretID string) *SecretError {
	return &SecretError{Code: http.StatusNotFound, Message: fmt.Sprintf("Secret not found: %s", secretID)}
}
