// Copyright 2025 floss-core Authors
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
// limitations under the License.

// Command floss-core runs the blob string engine (component D, with the
// xref and struct-string harvesters B and C it drives) over a single PE
// sample and prints the recovered strings. The FP filter (component A) is
// not applied to this output.
// Tightstring extraction (component E) needs a real emulator/workspace and
// is not wired into this demo CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	floss "github.com/mandiant-floss/floss-core"
)

var minLength int

var command = &cobra.Command{
	Use:  "floss-core <sample.exe>",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pe, err := floss.OpenPE(args[0])
		if err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		engine := floss.NewBlobEngine(nil, nil)
		for _, s := range engine.Extract(pe, minLength) {
			fmt.Printf("0x%08x [%s] %s\n", s.Offset, s.Encoding, s.Bytes)
		}
	},
}

func init() {
	command.PersistentFlags().IntVarP(&minLength, "minimum-length", "n", 4, "minimum string length")
}

func main() {
	if err := command.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
