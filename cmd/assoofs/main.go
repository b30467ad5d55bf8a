package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dalcoba/assoofs"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/sirupsen/logrus"
)

const usage = `assoofs - ASSOOFS filesystem CLI tool

Usage:
  assoofs mount <image> <mountpoint>   Mount an assoofs image over FUSE
  assoofs info <image>                 Display information about an assoofs image
  assoofs help                         Show this help message

Examples:
  assoofs mount disk.img /mnt/assoofs  Mount disk.img at /mnt/assoofs
  assoofs info disk.img                Show inode and free-block counts for disk.img
`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cmd := os.Args[1]

	switch cmd {
	case "mount":
		if len(os.Args) < 4 {
			fmt.Println("Error: missing image path or mountpoint")
			fmt.Println(usage)
			os.Exit(1)
		}
		if err := mountImage(os.Args[2], os.Args[3]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}

	case "info":
		if len(os.Args) < 3 {
			fmt.Println("Error: missing image path")
			fmt.Println(usage)
			os.Exit(1)
		}
		if err := showInfo(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}

	case "help":
		fmt.Println(usage)

	default:
		fmt.Printf("Error: unknown command '%s'\n", cmd)
		fmt.Println(usage)
		os.Exit(1)
	}
}

// mountImage opens the image, mounts the core filesystem over it, starts
// the FUSE server, and blocks until SIGINT/SIGTERM triggers an unmount —
// the userspace analogue of the module staying registered until `umount`.
func mountImage(imagePath, mountpoint string) error {
	device, err := assoofs.OpenFileDevice(imagePath)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer device.Close()

	fsys, err := assoofs.Mount(device)
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	server, err := assoofs.MountFUSE(fsys, mountpoint, &fs.Options{})
	if err != nil {
		return fmt.Errorf("fuse mount: %w", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		logrus.Info("unmounting on signal")
		server.Unmount()
	}()

	server.Wait()
	return nil
}

// showInfo prints the superblock counters for an image without mounting it
// over FUSE.
func showInfo(imagePath string) error {
	device, err := assoofs.OpenFileDevice(imagePath)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer device.Close()

	fsys, err := assoofs.Mount(device)
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	stats := fsys.Stat()

	fmt.Println("ASSOOFS Image Information")
	fmt.Println("==========================")
	fmt.Printf("Session ID:       %s\n", stats.Session)
	fmt.Printf("Block size:       %d bytes\n", assoofs.BlockSize)
	fmt.Printf("Inodes in use:    %d / %d\n", stats.InodesCount, stats.MaxObjects)
	fmt.Printf("Free blocks:      %d\n", stats.FreeBlocks)
	return nil
}
