package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRules_FlatMessages(t *testing.T) {
	schema := Rules(map[string]any{
		"name":  "required",
		"email": "required,email",
		"age":   "gte=18",
	})

	errs, err := Validate(context.Background(), schema, map[string]any{
		"name":  "",
		"email": "nope",
		"age":   12,
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"name":  "is required",
		"email": "must be a valid email",
		"age":   "must be greater than or equal to 18",
	}, errs.Flatten())
}

func TestRules_ValidData(t *testing.T) {
	schema := Rules(map[string]any{"name": "required"})

	errs, err := Validate(context.Background(), schema, map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.True(t, errs.Empty())
}

func TestValidate_SynthesizesMissingObject(t *testing.T) {
	schema := Rules(map[string]any{
		"name": "required",
		"address": map[string]any{
			"city": "required",
			"geo": map[string]any{
				"lat": "required",
			},
		},
	})

	errs, err := Validate(context.Background(), schema, map[string]any{"name": "Ada"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"address.city":    "is required",
		"address.geo.lat": "is required",
	}, errs.Flatten())
}

func TestValidate_NestedShape(t *testing.T) {
	schema := Rules(map[string]any{
		"address": map[string]any{"city": "required"},
	})

	errs, err := Validate(context.Background(), schema, map[string]any{}, Nested())
	require.NoError(t, err)

	assert.Equal(t, FieldErrors{
		"address": map[string]any{"city": "is required"},
	}, errs)
	msg, ok := errs.Get("address.city")
	require.True(t, ok)
	assert.Equal(t, "is required", msg)
	assert.Equal(t, 1, errs.Len())
}

func TestValidate_MessageOverrides(t *testing.T) {
	schema := Rules(map[string]any{"name": "required", "code": "len=3"},
		WithTagMessage("len", "needs %s characters"))

	errs, err := Validate(context.Background(), schema, map[string]any{"code": "ab"},
		WithMessages(map[string]string{"name": "Tell us your name"}))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"name": "Tell us your name",
		"code": "needs 3 characters",
	}, errs.Flatten())
}

func TestValidate_Transform(t *testing.T) {
	schema := Rules(map[string]any{"name": "required"})
	trim := func(ctx context.Context, data map[string]any) (map[string]any, error) {
		return map[string]any{"name": "filled"}, nil
	}

	errs, err := Validate(context.Background(), schema, map[string]any{}, WithTransform(trim))
	require.NoError(t, err)
	assert.True(t, errs.Empty())

	failing := func(context.Context, map[string]any) (map[string]any, error) {
		return nil, errors.New("bad")
	}
	_, err = Validate(context.Background(), schema, map[string]any{}, WithTransform(failing))
	assert.Error(t, err)
}

func TestValidate_SchemaFuncAndFormKey(t *testing.T) {
	schema := SchemaFunc(func(ctx context.Context, data map[string]any) []Issue {
		return []Issue{
			{Code: "custom", Message: "passwords do not match"},
			{Path: []string{"password"}, Code: "custom", Message: "too short"},
			{Path: []string{"password"}, Code: "custom", Message: "second message ignored"},
		}
	})

	errs, err := Validate(context.Background(), schema, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		FormKey:    "passwords do not match",
		"password": "too short",
	}, errs.Flatten())
}

func TestValidate_SynthesisIsBounded(t *testing.T) {
	depth := 0
	schema := SchemaFunc(func(ctx context.Context, data map[string]any) []Issue {
		depth++
		path := make([]string, depth)
		for i := range path {
			path[i] = "n"
		}
		return []Issue{{Path: path, Code: CodeExpectedObject, Message: "expected object"}}
	})

	_, err := Validate(context.Background(), schema, map[string]any{})
	require.NoError(t, err)
	assert.LessOrEqual(t, depth, maxSynthesizedObjects+1)
}

func TestIssueError(t *testing.T) {
	assert.Equal(t, "is required at path a.b", Issue{Path: []string{"a", "b"}, Message: "is required"}.Error())
	assert.Equal(t, "bad", Issue{Message: "bad"}.Error())
}
