package pipeline

import (
	"context"

	"github.com/couchcryptid/glacier-balance/internal/domain"
)

// BalanceTransformer implements Transformer by parsing a request message,
// evaluating it, and serializing the result.
type BalanceTransformer struct {
	evaluator *Evaluator
}

// NewTransformer creates a BalanceTransformer backed by evaluator.
func NewTransformer(evaluator *Evaluator) *BalanceTransformer {
	return &BalanceTransformer{evaluator: evaluator}
}

func (t *BalanceTransformer) Transform(ctx context.Context, raw domain.RawMessage) (domain.OutputMessage, error) {
	req, err := domain.ParseRequest(raw)
	if err != nil {
		return domain.OutputMessage{}, err
	}

	result, err := t.evaluator.Evaluate(ctx, req)
	if err != nil {
		return domain.OutputMessage{}, err
	}

	return domain.SerializeResult(result)
}
