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
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/commands"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/model"
	"github.com/jaycherian/gcp-go-shorts-assembly/internal/core/services"
)

const streamURLExpiry = 15 * time.Minute

// TimelineRouter sets up the routes for building timelines and reading their
// reports.
func TimelineRouter(r *gin.RouterGroup, s *StateManager) {
	timelines := r.Group("/timelines")
	{
		// Builds a short from a script document and answers with its report.
		// The build runs inside the request.
		timelines.POST("", func(c *gin.Context) {
			body, err := c.GetRawData()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			script, err := model.ParseScript(body)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			chainCtx := cor.NewBaseContext()
			defer chainCtx.Close()
			chainCtx.SetContext(c.Request.Context())
			chainCtx.Add(cor.CtxIn, script)
			chainCtx.Add(commands.RunIDParam, model.NewRunID(""))

			s.timeline.Execute(chainCtx)

			report, _ := chainCtx.Get(commands.ReportParam).(*model.RunReport)
			err = chainCtx.Err()
			switch {
			case err == nil:
				c.JSON(http.StatusCreated, report)
			case errors.Is(err, model.ErrNoScenesProduced):
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "report": report})
			default:
				slog.ErrorContext(c, "timeline build failed", slog.Any("error", err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "report": report})
			}
		})

		timelines.GET("", func(c *gin.Context) {
			limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultListLimit)))
			if err != nil {
				c.Status(http.StatusBadRequest)
				return
			}
			out, err := s.reports.List(c, limit)
			if err != nil {
				slog.ErrorContext(c, "error listing reports", slog.Any("error", err))
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		timelines.GET("/:id", func(c *gin.Context) {
			out, err := s.reports.Get(c, c.Param("id"))
			if err != nil {
				c.Status(reportErrorStatus(err))
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// Returns a signed URL for streaming the exported short.
		timelines.GET("/:id/stream", func(c *gin.Context) {
			report, err := s.reports.Get(c, c.Param("id"))
			if err != nil {
				c.JSON(reportErrorStatus(err), gin.H{"error": "Report not found"})
				return
			}
			if report.OutputURI == "" {
				c.JSON(http.StatusNotFound, gin.H{"error": "Run has no uploaded output"})
				return
			}
			signedURL, err := s.reports.GenerateSignedURL(c, report.OutputURI, streamURLExpiry)
			if err != nil {
				slog.ErrorContext(c, "error signing output url", slog.String("uri", report.OutputURI), slog.Any("error", err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate streaming URL"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": signedURL})
		})
	}
}

func reportErrorStatus(err error) int {
	if errors.Is(err, services.ErrReportNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// FootageRouter exposes the character footage library.
func FootageRouter(r *gin.RouterGroup, s *StateManager) {
	r.GET("/footage", func(c *gin.Context) {
		if s.footage == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No footage library configured"})
			return
		}
		names, err := s.footage.List(c)
		if err != nil {
			slog.ErrorContext(c, "error listing footage", slog.Any("error", err))
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, names)
	})
}
