package main

import "github.com/govwallet/sidecar/cmd"

func main() {
	cmd.Execute()
}
