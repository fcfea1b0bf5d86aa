package clog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttributesHandlerEmitsContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewAttributesHandler(slog.NewTextHandler(&buf, nil)))

	ctx := ContextWithAttrs(context.Background())
	AddAttribute(ctx, "task_id", "t1")
	AddError(ctx, errors.New("boom"))

	logger.ErrorContext(ctx, "reload failed")

	out := buf.String()
	assert.Contains(t, out, "task_id=t1")
	assert.Contains(t, out, ErrorAttributeKey)
	assert.Contains(t, out, "boom")
}

func TestAttributesHandlerWithoutStore(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewAttributesHandler(slog.NewTextHandler(&buf, nil)))

	// A context without an attribute store logs normally.
	logger.InfoContext(context.Background(), "plain record", "key", "value")
	assert.Contains(t, buf.String(), "key=value")
}

func TestAddAttributeWithoutStoreIsNoOp(t *testing.T) {
	ctx := context.Background()
	AddAttribute(ctx, "ignored", 1)
	assert.Nil(t, Attributes(ctx))
}

func TestAttributesReturnsCopy(t *testing.T) {
	ctx := ContextWithAttrs(context.Background())
	AddAttribute(ctx, "a", 1)

	got := Attributes(ctx)
	got["a"] = 2
	got["b"] = 3

	again := Attributes(ctx)
	assert.Equal(t, 1, again["a"])
	assert.NotContains(t, again, "b")
}
