package main

import "vaultkeeper/cmd/client/cmd"

func main() {
	cmd.Execute()
}
