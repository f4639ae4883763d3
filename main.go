// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/pyzbuild/pyzbuild/cmd/pyzbuild"

func main() {
	cmd.Execute()
}
