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

// Package main contains the API route definitions for the server. This file
// defines the dashboard statistics endpoint.
package main

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dashboard creates the "/stats" group under the API router group. GET
// /api/v1/stats returns run counts by status and skipped scenes by
// character.
func Dashboard(r *gin.RouterGroup, s *StateManager) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			out, err := s.reports.Stats(c)
			if err != nil {
				slog.ErrorContext(c, "error reading stats", slog.Any("error", err))
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, out)
		})
	}
}
