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
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/stdr"
	"github.com/rdimitrov/ext-mirror/catalog"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var Verbosity bool
var ConfigFile string

var rootCmd = &cobra.Command{
	Use:   "ext-mirror",
	Short: "ext-mirror - keeps a filtered local copy of an extension catalog",
	Long: `ext-mirror is a CLI tool that mirrors a subset of the keiyoushi extension catalog.

It downloads the catalog index, keeps only the wanted packages and source languages,
downloads the apk and icon of every kept package and writes the filtered index.

Settings are read from an optional HCL config file, then EXT_MIRROR_* environment
variables (a .env file in the working directory is loaded first), then flags.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		// show the help message if no command has been used
		if len(args) == 0 {
			_ = cmd.Help()
			os.Exit(0)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&Verbosity, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&ConfigFile, "config", "c", "", "path to an HCL config file")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// setupLogging routes the library logger to stderr. Verbose mode enables
// the per-download debug trace.
func setupLogging(cmd *cobra.Command) {
	catalog.SetLogger(stdr.New(stdlog.New(cmd.ErrOrStderr(), "ext-mirror ", stdlog.LstdFlags)))
	if Verbosity {
		log.SetLevel(log.DebugLevel)
	}
}
