// Package reasoning wraps the external vision-reasoning service behind the
// Reasoner port and turns its free-form replies into validated part decisions.
package reasoning

import (
	"context"
	"errors"

	"autoclaim/models"
)

// ErrDisabled is returned by the Disabled reasoner on every call.
var ErrDisabled = errors.New("vision reasoning disabled")

type Request struct {
	Image      []byte
	MIMEType   string
	Perception models.PerceptionResult
}

// Reply is the raw answer of a reasoning service. Text is expected to hold a
// JSON array of part judgments, possibly wrapped in prose or code fences.
type Reply struct {
	Text        string
	Model       string
	TotalTokens *int
}

type Reasoner interface {
	Name() string
	Infer(ctx context.Context, req Request) (Reply, error)
}

// Disabled stands in when no reasoning provider is configured. Every claim
// degrades to the fallback result.
type Disabled struct{}

func (Disabled) Name() string { return "none" }

func (Disabled) Infer(context.Context, Request) (Reply, error) {
	return Reply{}, ErrDisabled
}
