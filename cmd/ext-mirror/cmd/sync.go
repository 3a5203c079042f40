// Copyright 2024 The Update Framework Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License
//
// SPDX-License-Identifier: Apache-2.0
//

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"github.com/rdimitrov/ext-mirror/catalog/mirror"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Aliases: []string{"s"},
	Short:   "Mirror the filtered index, apks and icons",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return SyncCmd(cmd)
	},
}

func init() {
	bindRemoteFlags(syncCmd)
	bindLocalFlags(syncCmd)
	rootCmd.AddCommand(syncCmd)
}

func SyncCmd(cmd *cobra.Command) error {
	setupLogging(cmd)
	ctx := cmd.Context()

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	// bootstrap the output directories
	if err := cfg.EnsurePathsExist(); err != nil {
		return fmt.Errorf("failed to create output directories: %w", err)
	}

	// only one sync may write to the same index at a time
	lockPath := cfg.IndexPath + ".lock"
	fileLock := flock.New(lockPath)
	lockCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	locked, err := fileLock.TryLockContext(lockCtx, time.Second)
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", lockPath, err)
	}
	if locked {
		defer fileLock.Unlock()
	}

	m, err := mirror.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create mirror: %w", err)
	}

	pkgs, report, err := m.Run(ctx)
	if report != nil {
		for _, res := range report.Failed() {
			log.Warnf("Failed to mirror %s of %s: %v", res.Task.Kind, res.Task.Package, res.Err)
		}
		log.Info(report.String())
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Successfully mirrored %d packages to %s\n", len(pkgs), cfg.IndexPath)
	return nil
}
