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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/commands"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/workflow"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/telemetry"
)

type options struct {
	scriptPath   string
	outPath      string
	example      bool
	printExample bool
	configDir    string
	runtime      string
	useCloud     bool
	verbose      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Assemble a vertical short from a script",
		Long: `Assemble turns a script of character scenes into a single vertical video.
Each scene's footage is looped or trimmed to its narration, fitted to the
canvas and captioned; scenes that cannot be built are skipped and listed in
the run report printed on completion.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         func(cmd *cobra.Command, _ []string) error {
			return runAssemble(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.scriptPath, "script", "s", "", "script JSON file")
	f.StringVarP(&opts.outPath, "out", "o", "", "output video path (default: <work_dir>/<run id>.mp4)")
	f.BoolVar(&opts.example, "example", false, "assemble the built-in example script")
	f.BoolVar(&opts.printExample, "print-example", false, "print the built-in example script and exit")
	f.StringVar(&opts.configDir, "config", "configs", "directory holding .env.toml files")
	f.StringVar(&opts.runtime, "runtime", "local", "configuration runtime override to load")
	f.BoolVar(&opts.useCloud, "gcp", false, "create Google Cloud clients for gs:// assets, uploads and reports")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	cmd.MarkFlagsMutuallyExclusive("script", "example")
	return cmd
}

// loadScript returns the script to assemble and the name its run ID is
// derived from.
func loadScript(opts *options) (*model.Script, string, error) {
	if opts.example {
		return model.GetExampleScript(), "", nil
	}
	if opts.scriptPath == "" {
		return nil, "", errors.New("one of --script or --example is required")
	}
	abs, err := filepath.Abs(opts.scriptPath)
	if err != nil {
		return nil, "", fmt.Errorf("resolve path: %w", err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, "", err
	}
	script, err := model.ParseScript(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", opts.scriptPath, err)
	}
	return script, abs, nil
}

func loadConfig(opts *options) (*cloud.Config, error) {
	if err := os.Setenv(cloud.EnvConfigFilePrefix, opts.configDir); err != nil {
		return nil, err
	}
	if err := os.Setenv(cloud.EnvConfigRuntime, opts.runtime); err != nil {
		return nil, err
	}
	config := cloud.NewConfig()
	if err := cloud.LoadConfig(config); err != nil {
		return nil, err
	}
	return config, config.Validate()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runAssemble(ctx context.Context, opts *options, stdout io.Writer) error {
	if opts.printExample {
		return writeJSON(stdout, model.GetExampleScript())
	}
	script, name, err := loadScript(opts)
	if err != nil {
		return err
	}
	config, err := loadConfig(opts)
	if err != nil {
		return err
	}
	level := config.Application.LogLevel
	if opts.verbose {
		level = "debug"
	}
	if err := telemetry.SetupLogging(level); err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var clients *cloud.ServiceClients
	if opts.useCloud {
		if clients, err = cloud.NewCloudServiceClients(ctx, config); err != nil {
			return err
		}
		defer clients.Close()
	}
	timeline := workflow.NewTimelineWorkflow(config, workflow.NewDependencies(config, clients))

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, script)
	chainCtx.Add(commands.RunIDParam, model.NewRunID(name))
	if opts.outPath != "" {
		out, err := filepath.Abs(opts.outPath)
		if err != nil {
			return fmt.Errorf("resolve path: %w", err)
		}
		chainCtx.Add(commands.OutputPathParam, out)
	}

	slog.InfoContext(ctx, "assembling", slog.String("title", script.Title), slog.Int("scenes", len(script.Scenes)))
	timeline.Execute(chainCtx)

	if report := chainCtx.Get(commands.ReportParam); report != nil {
		if err := writeJSON(stdout, report); err != nil {
			return err
		}
	}
	if err := chainCtx.Err(); err != nil {
		return err
	}
	if path, ok := chainCtx.Get(commands.OutputPathParam).(string); ok {
		slog.InfoContext(ctx, "short written", slog.String("path", path))
	}
	return nil
}
