// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// appendCommand appends its suffix to the string input, or fails with err.
type appendCommand struct {
	cor.BaseCommand
	suffix string
	err    error
	ran    *[]string
}

func newAppend(name, suffix string, err error, ran *[]string) *appendCommand {
	return &appendCommand{BaseCommand: *cor.NewBaseCommand(name), suffix: suffix, err: err, ran: ran}
}

func (c *appendCommand) Execute(context cor.Context) {
	*c.ran = append(*c.ran, c.GetName())
	if c.err != nil {
		c.Fail(context, c.err)
		return
	}
	c.Succeed(context, context.Get(c.GetInputParam()).(string)+c.suffix)
}

func newContext(in interface{}) cor.Context {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	if in != nil {
		ctx.Add(cor.CtxIn, in)
	}
	return ctx
}

func TestChainPipesOutputToInput(t *testing.T) {
	var ran []string
	chain := cor.NewBaseChain("pipe")
	chain.AddCommand(newAppend("a", "-a", nil, &ran)).AddCommand(newAppend("b", "-b", nil, &ran))

	ctx := newContext("scene")
	chain.Execute(ctx)

	require.NoError(t, ctx.Err())
	assert.Equal(t, "scene-a-b", ctx.Get(cor.CtxIn))
	assert.Nil(t, ctx.Get(cor.CtxOut))
	assert.Equal(t, []string{"a", "b"}, ran)
	assert.Equal(t, []string{"a", "b"}, chain.Commands())
}

func TestChainStopsOnFailure(t *testing.T) {
	var ran []string
	boom := errors.New("boom")
	chain := cor.NewBaseChain("stop")
	chain.AddCommand(newAppend("a", "-a", boom, &ran)).AddCommand(newAppend("b", "-b", nil, &ran))

	ctx := newContext("scene")
	chain.Execute(ctx)

	assert.ErrorIs(t, ctx.Err(), boom)
	assert.Equal(t, []string{"a"}, ran)
	assert.Contains(t, ctx.GetErrors(), "a")
}

func TestChainContinueOnFailure(t *testing.T) {
	var ran []string
	chain := cor.NewBaseChain("continue")
	chain.ContinueOnFailure(true)
	chain.AddCommand(newAppend("a", "-a", errors.New("boom"), &ran))
	chain.AddCommand(newAppend("b", "-b", nil, &ran))

	ctx := newContext("scene")
	chain.Execute(ctx)

	// The failing command produced no output, so "b" has no input.
	assert.Equal(t, []string{"a"}, ran)
	assert.ErrorIs(t, ctx.GetErrors()["b"], cor.ErrNotExecutable)
}

func TestChainRecordsNotExecutable(t *testing.T) {
	var ran []string
	chain := cor.NewBaseChain("missing-input")
	chain.AddCommand(newAppend("a", "-a", nil, &ran))

	ctx := newContext(nil)
	chain.Execute(ctx)

	assert.Empty(t, ran)
	assert.ErrorIs(t, ctx.Err(), cor.ErrNotExecutable)
}

func TestChainHonoursCancellation(t *testing.T) {
	var ran []string
	chain := cor.NewBaseChain("cancelled")
	chain.AddCommand(newAppend("a", "-a", nil, &ran))

	ctx := newContext("scene")
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	ctx.SetContext(cancelled)
	chain.Execute(ctx)

	assert.Empty(t, ran)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestCommandParams(t *testing.T) {
	cmd := cor.NewBaseCommand("cmd")
	assert.Equal(t, cor.CtxIn, cmd.GetInputParam())
	assert.Equal(t, cor.CtxOut, cmd.GetOutputParam())
	cmd.WithInput("scene").WithOutput("clip")
	assert.Equal(t, "scene", cmd.GetInputParam())
	assert.Equal(t, "clip", cmd.GetOutputParam())
}

func TestContextErrorsKeepOrder(t *testing.T) {
	ctx := cor.NewBaseContext()
	first, second := errors.New("first"), errors.New("second")
	ctx.AddError("x", first)
	ctx.AddError("y", second)
	assert.Equal(t, "first\nsecond", ctx.Err().Error())
	assert.Len(t, ctx.GetErrors(), 2)
}

func TestContextCloseRemovesTempFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "audio.mp3")
	sub := filepath.Join(dir, "work")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(sub, "nested"), 0o755))

	ctx := cor.NewBaseContext()
	ctx.AddTempFile(file)
	ctx.AddTempFile(sub)
	ctx.Close()
	ctx.Close()

	assert.NoFileExists(t, file)
	assert.NoDirExists(t, sub)
	assert.Empty(t, ctx.GetTempFiles())
}
