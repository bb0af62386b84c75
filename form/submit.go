package form

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	statehooks "github.com/devesharp/statehooks"
	"github.com/devesharp/statehooks/pkg/dotpath"
	"github.com/devesharp/statehooks/pkg/validation"
)

// Submit creates the record when it has no id and updates it otherwise.
// override, when not nil, is submitted instead of the current record.
//
// Validation errors stop the submission before any resolver runs. Callbacks
// receive the resolver result as returned; the stored records hold it after
// the post-load transform.
func (t *Tracker) Submit(ctx context.Context, override Record) SubmitResult {
	t.mu.Lock()
	data := t.current
	if override != nil {
		data = override
	}
	data = dotpath.Clone(data)
	id := t.id
	t.mu.Unlock()

	action := ActionUpdate
	if isAbsentID(id) {
		action = ActionCreate
		id = nil
	}
	log := t.logger.With().Str("action", string(action)).Logger()

	if t.schema != nil {
		errs, err := validation.Validate(ctx, t.schema, data, t.validationOpts...)
		if err != nil {
			return t.fail(log, action, err)
		}
		t.mu.Lock()
		t.fieldErrors = errs
		t.mu.Unlock()
		if !errs.Empty() {
			t.publish()
			log.Debug().Strs("fields", errs.Fields()).Msg("submission blocked by validation")
			for _, fn := range t.onErrorData {
				fn(errs)
			}
			return SubmitResult{Action: action, Err: ErrValidation, FieldErrors: errs}
		}
	}

	payload := data
	if t.transformSubmit != nil {
		payload = t.transformSubmit(dotpath.Clone(data))
	}

	t.mu.Lock()
	t.saving = true
	t.mu.Unlock()
	t.publish()

	op := &statehooks.Operation{Kind: statehooks.OpSubmit, Key: string(action)}
	val, err := t.engine.Extensions().Run(ctx, op, func() (any, error) {
		return statehooks.Go(ctx, func(ctx context.Context) (any, error) {
			return t.callResolver(ctx, log, action, id, payload)
		}).Await(ctx)
	})
	if err != nil {
		return t.fail(log, action, err)
	}
	rec, _ := val.(Record)
	if rec == nil {
		return t.fail(log, action, ErrInvalidResult)
	}

	stored := t.loaded(rec)
	t.mu.Lock()
	current := dotpath.Clone(t.current)
	if current == nil {
		current = Record{}
	}
	for k, v := range stored {
		current[k] = v
	}
	t.current = current
	t.currentVer++
	if action == ActionCreate {
		if newID, ok := rec["id"]; ok && !isAbsentID(newID) {
			t.id = newID
		}
	}
	if action == ActionUpdate && t.updateOnSave {
		t.original = dotpath.Clone(stored)
		t.originalVer++
	}
	t.saving = false
	t.mu.Unlock()
	t.publish()

	log.Debug().Msg("record saved")
	for _, fn := range t.onSuccess {
		fn(rec, action)
	}
	return SubmitResult{Success: true, Action: action, Data: rec}
}

// Save is Submit with the current record
func (t *Tracker) Save(ctx context.Context) SubmitResult {
	return t.Submit(ctx, nil)
}

func (t *Tracker) callResolver(ctx context.Context, log zerolog.Logger, action Action, id any, payload Record) (any, error) {
	r := t.resolvers
	switch {
	case action == ActionCreate && r.Create != nil:
		return orNil(r.Create(ctx, payload))
	case action == ActionUpdate && r.Update != nil:
		return orNil(r.Update(ctx, id, payload))
	case r.Save != nil:
		return orNil(r.Save(ctx, id, payload))
	}

	err := fmt.Errorf("%w %q", ErrResolverMissing, action)
	if t.strict {
		return nil, err
	}
	log.Warn().Err(err).Msg("submitting without resolver, keeping submitted data")
	return payload, nil
}

// orNil keeps a nil record from turning into a non-nil interface
func orNil(rec Record, err error) (any, error) {
	if err != nil || rec == nil {
		return nil, err
	}
	return rec, nil
}

func (t *Tracker) fail(log zerolog.Logger, action Action, err error) SubmitResult {
	t.mu.Lock()
	t.saving = false
	t.mu.Unlock()
	t.publish()

	log.Warn().Err(err).Msg("submission failed")
	for _, fn := range t.onFailure {
		fn(err, action)
	}
	return SubmitResult{Action: action, Err: err}
}
