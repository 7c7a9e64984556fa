package main

import (
	"os"

	hostsctl "github.com/Eagerod/hostsfile-tools/cmd/hostsctl"
)

func main() {
	if err := hostsctl.Run(); err != nil {
		os.Exit(1)
	}
}
