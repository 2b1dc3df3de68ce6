// This program provides admin access against a running node.
package main

import "github.com/psinfinity/infinitychain/app/tooling/admin/cmd"

func main() {
	cmd.Execute()
}
