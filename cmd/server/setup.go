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
	"log"
	"os"
	"time"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/services"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/workflow"
)

// ReportReader is the read side of the run report store.
type ReportReader interface {
	Get(ctx context.Context, id string) (*model.RunReport, error)
	List(ctx context.Context, limit int) ([]model.RunReport, error)
	Stats(ctx context.Context) (*services.RunStats, error)
	GenerateSignedURL(ctx context.Context, uri string, expires time.Duration) (string, error)
}

// FootageLister lists the character footage available to the visual step.
type FootageLister interface {
	List(ctx context.Context) ([]string, error)
}

type StateManager struct {
	config   *cloud.Config
	cloud    *cloud.ServiceClients
	timeline cor.Command
	reports  ReportReader
	footage  FootageLister
}

var state = &StateManager{}

// SetupOS points the configuration loader at ./configs with the local
// runtime unless the environment (or a .env file) already chose.
func SetupOS() (err error) {
	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err = os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		err = os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return err
}

func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load config: %v\n", err)
		}
		if err := config.Validate(); err != nil {
			log.Fatalf("invalid config: %v\n", err)
		}
		state.config = config
	}
	return state.config
}

func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	deps := workflow.NewDependencies(config, cloudClients)
	state.timeline = workflow.NewTimelineWorkflow(config, deps)
	state.reports = services.NewReportService(config, cloudClients)
	if deps.Footage != nil {
		state.footage = deps.Footage
	}

	SetupListeners(ctx, config, cloudClients, deps)
}
