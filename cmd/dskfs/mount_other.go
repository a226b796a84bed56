//go:build !fuse

package main

import "github.com/urfave/cli/v2"

func runMount(c *cli.Context) error {
	return cli.Exit("this build of dskfs was compiled without the kernel bridge; rebuild with -tags fuse", 1)
}
