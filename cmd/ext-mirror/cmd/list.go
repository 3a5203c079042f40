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
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/rdimitrov/ext-mirror/catalog"
	"github.com/rdimitrov/ext-mirror/catalog/mirror"
	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show what a sync would mirror without downloading anything",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return ListCmd(cmd)
	},
}

func init() {
	bindRemoteFlags(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print the filtered index as JSON")
	rootCmd.AddCommand(listCmd)
}

func ListCmd(cmd *cobra.Command) error {
	setupLogging(cmd)

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	m, err := mirror.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create mirror: %w", err)
	}

	index, err := m.FetchManifest(cmd.Context())
	if err != nil {
		return err
	}
	pkgs := m.Filter(index)

	out := cmd.OutOrStdout()
	if listJSON {
		data, err := catalog.ToBytes(pkgs, true)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 100
	table.AddRow("NAME", "VERSION", "SOURCES", "APK", "ICON")
	for _, pkg := range pkgs {
		cols := assetColumns(m, pkg)
		table.AddRow(pkg.Name, pkg.Version, formatSources(pkg.Sources), cols[catalog.APK], cols[catalog.ICON])
	}
	fmt.Fprintln(out, table)
	fmt.Fprintf(out, "%d of %d packages kept\n", len(pkgs), len(index))
	return nil
}

// assetColumns returns, per asset kind, the URL a sync would download or
// the reason it would skip it. Each asset is derived on its own.
func assetColumns(m *mirror.Mirror, pkg catalog.Package) map[string]string {
	cols := map[string]string{catalog.APK: "-", catalog.ICON: "-"}
	apks, icons, invalid := m.DeriveTasks([]catalog.Package{pkg})
	for _, task := range append(apks, icons...) {
		cols[task.Kind] = task.URL.String()
	}
	for _, res := range invalid {
		cols[res.Task.Kind] = res.Err.Error()
	}
	return cols
}

// formatSources renders sources as "name (lang)" pairs
func formatSources(sources []catalog.Source) string {
	if len(sources) == 0 {
		return "-"
	}
	items := make([]string, 0, len(sources))
	for _, src := range sources {
		items = append(items, fmt.Sprintf("%s (%s)", src.Name, src.Lang))
	}
	return strings.Join(items, ", ")
}
