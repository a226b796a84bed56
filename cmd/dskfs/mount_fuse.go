//go:build fuse

package main

import (
	"os"

	"github.com/dskfs/dskfs/mount"
	"github.com/dskfs/dskfs/mount/fuseadapter"
	"github.com/urfave/cli/v2"
)

func runMount(c *cli.Context) error {
	path := c.Args().Get(0)
	mountpoint := c.Args().Get(1)
	if path == "" || mountpoint == "" {
		return cli.Exit("mount requires an image path and a mountpoint", 1)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer f.Close()

	driver, err := mount.Mount(f, flagsFromContext(c))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer driver.Unmount()

	server, err := fuseadapter.Mount(mountpoint, driver, c.Bool("debug"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	server.Wait()
	return nil
}
