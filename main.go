package main

import "github.com/KaramelBytes/leaseup/cmd"

func main() {
	cmd.Execute()
}
